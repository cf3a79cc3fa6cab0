package search

import (
	"fmt"

	"github.com/caterdesk/caterdesk/caterdesk/billing"
	"github.com/caterdesk/caterdesk/types"
)

// BookProvider adapts a billing.Book to work as an EntryProvider. Events
// are searchable by the name of their client.
type BookProvider struct {
	book *billing.Book
}

// NewBookProvider creates a provider over book
func NewBookProvider(book *billing.Book) *BookProvider {
	return &BookProvider{book: book}
}

// Entries implements EntryProvider
func (p *BookProvider) Entries(c types.Collection) ([]Entry, error) {
	var entries []Entry
	switch c {
	case types.Dishes:
		for _, d := range p.book.Dishes {
			entries = append(entries, Entry{Collection: c, ID: d.ID, Fields: map[string]string{
				"name":        d.Name,
				"category":    d.Category,
				"description": d.Description,
			}})
		}
	case types.Clients:
		for _, cl := range p.book.Clients {
			entries = append(entries, Entry{Collection: c, ID: cl.ID, Fields: map[string]string{
				"name":    cl.Name,
				"email":   cl.Email,
				"phone":   cl.Phone,
				"address": cl.Address,
			}})
		}
	case types.Events:
		for _, e := range p.book.Events {
			// A dangling client matches nothing rather than "Unknown".
			clientName := ""
			if cl, ok := p.book.Client(e.ClientID); ok {
				clientName = cl.Name
			}
			entries = append(entries, Entry{Collection: c, ID: e.ID, Fields: map[string]string{
				"clientName": clientName,
				"venue":      e.Venue,
				"date":       e.Date,
				"status":     string(e.EffectiveStatus()),
			}})
		}
	default:
		return nil, fmt.Errorf("unknown collection %q", c)
	}
	return entries, nil
}

// SearchBook is a convenience function to search a book directly
func SearchBook(book *billing.Book, c types.Collection, options SearchOptions) ([]SearchResult, error) {
	return NewEngine(NewBookProvider(book)).Search(c, options)
}
