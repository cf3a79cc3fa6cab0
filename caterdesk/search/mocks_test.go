package search

import (
	"github.com/caterdesk/caterdesk/types"
)

// MockEntryProvider implements EntryProvider for testing
type MockEntryProvider struct {
	entries map[types.Collection][]Entry
	err     error
}

// NewMockEntryProvider creates a new mock with the given entries
func NewMockEntryProvider(entries []Entry) *MockEntryProvider {
	m := &MockEntryProvider{entries: make(map[types.Collection][]Entry)}
	for _, e := range entries {
		m.entries[e.Collection] = append(m.entries[e.Collection], e)
	}
	return m
}

// SetError configures the mock to return an error
func (m *MockEntryProvider) SetError(err error) {
	m.err = err
}

// Entries returns the mock entries or error
func (m *MockEntryProvider) Entries(c types.Collection) ([]Entry, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.entries[c], nil
}

func dish(id, name, category string) Entry {
	return Entry{Collection: types.Dishes, ID: id, Fields: map[string]string{"name": name, "category": category}}
}

// SampleEntries provides a small price list and client book
func SampleEntries() []Entry {
	return []Entry{
		dish("d1", "Paneer Tikka", "Starters"),
		dish("d2", "Paneer Butter Masala", "Mains"),
		dish("d3", "Dal Makhani", "Mains"),
		dish("d4", "Kheer", "Desserts"),
		dish("d5", "Masala Chai", "Drinks"),
		{Collection: types.Clients, ID: "c1", Fields: map[string]string{"name": "Asha Rao", "email": "asha@example.com"}},
		{Collection: types.Clients, ID: "c2", Fields: map[string]string{"name": "Vikram Shah", "email": "masala.events@example.com"}},
	}
}
