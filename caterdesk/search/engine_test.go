package search

import (
	"errors"
	"strings"
	"testing"

	"github.com/caterdesk/caterdesk/caterdesk/billing"
	"github.com/caterdesk/caterdesk/types"
	"github.com/google/go-cmp/cmp"
)

func resultIDs(results []SearchResult) []string {
	ids := make([]string, 0, len(results))
	for _, r := range results {
		ids = append(ids, r.Entry.ID)
	}
	return ids
}

func TestEngine_Search_EmptyQuery(t *testing.T) {
	engine := NewEngine(NewMockEntryProvider(SampleEntries()))

	for _, q := range []string{"", "   "} {
		results, err := engine.Search(types.Dishes, SearchOptions{Query: q})
		if err != nil {
			t.Errorf("Expected no error, got %v", err)
		}
		if len(results) != 0 {
			t.Errorf("Expected 0 results for query %q, got %d", q, len(results))
		}
	}
}

func TestEngine_Search_ProviderError(t *testing.T) {
	provider := NewMockEntryProvider(SampleEntries())
	provider.SetError(errors.New("read failed"))
	engine := NewEngine(provider)

	_, err := engine.Search(types.Dishes, SearchOptions{Query: "paneer"})
	if err == nil {
		t.Fatal("Expected error when provider fails")
	}
	if !strings.Contains(err.Error(), "failed to get dishes") {
		t.Errorf("Expected error to name the collection, got: %v", err)
	}
}

func TestEngine_Search_UnknownCollection(t *testing.T) {
	engine := NewEngine(NewMockEntryProvider(SampleEntries()))
	if _, err := engine.Search("orders", SearchOptions{Query: "x"}); err == nil {
		t.Error("Expected error for unknown collection")
	}
}

func TestEngine_Search_Ranking(t *testing.T) {
	engine := NewEngine(NewMockEntryProvider(SampleEntries()))

	tests := []struct {
		name    string
		options SearchOptions
		want    []string
	}{
		{
			name:    "case insensitive by default",
			options: SearchOptions{Query: "PANEER"},
			want:    []string{"d1", "d2"},
		},
		{
			name:    "name prefix beats category and inner matches",
			options: SearchOptions{Query: "masala"},
			want:    []string{"d5", "d2"},
		},
		{
			name:    "category is searched",
			options: SearchOptions{Query: "mains"},
			want:    []string{"d2", "d3"},
		},
		{
			name:    "case sensitive",
			options: SearchOptions{Query: "masala", CaseSensitive: true},
			want:    []string{},
		},
		{
			name:    "exact match",
			options: SearchOptions{Query: "kheer", ExactMatch: true},
			want:    []string{"d4"},
		},
		{
			name:    "restricted fields",
			options: SearchOptions{Query: "mains", Fields: []string{"name"}},
			want:    []string{},
		},
		{
			name:    "max results",
			options: SearchOptions{Query: "a", MaxResults: 2},
			want:    []string{"d1", "d2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := engine.Search(types.Dishes, tt.options)
			if err != nil {
				t.Fatalf("Search failed: %v", err)
			}
			if diff := cmp.Diff(tt.want, resultIDs(results)); diff != "" {
				t.Errorf("results mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEngine_Search_Highlight(t *testing.T) {
	engine := NewEngine(NewMockEntryProvider(SampleEntries()))

	results, err := engine.Search(types.Dishes, SearchOptions{Query: "paneer", EnableHighlight: true})
	if err != nil {
		t.Fatal(err)
	}
	if got := results[0].Highlights["name"]; got != "**Paneer** Tikka" {
		t.Errorf("highlight = %q", got)
	}
	if results[0].MatchType != MatchPrefix {
		t.Errorf("match type = %s, want prefix", results[0].MatchType)
	}

	results, err = engine.Search(types.Dishes, SearchOptions{
		Query:                "a",
		Fields:               []string{"name"},
		EnableHighlight:      true,
		HighlightStartMarker: "[",
		HighlightEndMarker:   "]",
	})
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range results {
		if r.Entry.ID == "d5" && r.Highlights["name"] != "M[a]s[a]l[a] Ch[a]i" {
			t.Errorf("highlight = %q", r.Highlights["name"])
		}
	}

	results, err = engine.Search(types.Dishes, SearchOptions{Query: "paneer"})
	if err != nil {
		t.Fatal(err)
	}
	if results[0].Highlights != nil {
		t.Error("highlights built without EnableHighlight")
	}
}

func TestEngine_SearchAll(t *testing.T) {
	engine := NewEngine(NewMockEntryProvider(SampleEntries()))

	results, err := engine.SearchAll(SearchOptions{Query: "masala"})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"d5", "d2", "c2"}, resultIDs(results)); diff != "" {
		t.Errorf("results mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"email"}, results[2].MatchedFields); diff != "" {
		t.Errorf("matched fields mismatch (-want +got):\n%s", diff)
	}
}

func TestEngine_Matches(t *testing.T) {
	engine := NewEngine(NewMockEntryProvider(SampleEntries()))

	ids, err := engine.Matches(types.Clients, SearchOptions{Query: "asha", MaxResults: 1})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(map[string]bool{"c1": true}, ids); diff != "" {
		t.Errorf("matches mismatch (-want +got):\n%s", diff)
	}
}

func TestBookProvider(t *testing.T) {
	doc := types.NewDocument()
	doc.Clients = []types.Record{{"id": "c1", "name": "Asha Rao"}}
	doc.Events = []types.Record{
		{"id": "e1", "clientId": "c1", "date": "2030-06-01T18:00", "venue": "Garden Hall", "guestCount": 80},
		{"id": "e2", "clientId": "gone", "date": "2030-06-02T18:00", "venue": "Rao Farmhouse", "guestCount": 40},
		{"id": "e3", "clientId": "gone", "date": "2030-06-03T18:00", "venue": "Terrace", "guestCount": 20},
	}
	book := billing.NewBook(doc)

	results, err := SearchBook(book, types.Events, SearchOptions{Query: "rao"})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"e1", "e2"}, resultIDs(results)); diff != "" {
		t.Errorf("results mismatch (-want +got):\n%s", diff)
	}

	results, err = SearchBook(book, types.Events, SearchOptions{Query: "unknown"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("dangling client matched %v", resultIDs(results))
	}
}
