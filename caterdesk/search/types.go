package search

import "github.com/caterdesk/caterdesk/types"

// Entry is one record reduced to the text a query can match
type Entry struct {
	Collection types.Collection
	ID         string

	// Fields maps a field name to its display text. Derived fields such as
	// an event's client name are resolved by the provider.
	Fields map[string]string
}

// SearchOptions configures search behavior
type SearchOptions struct {
	// Query is the text to look for
	Query string

	// Fields limits the fields searched. Empty searches the collection's
	// default fields.
	Fields []string

	// CaseSensitive controls whether search is case-sensitive
	CaseSensitive bool

	// ExactMatch requires the entire field to match the query
	ExactMatch bool

	// EnableHighlight includes highlighted match text in results
	EnableHighlight bool

	// Highlight markers; both default to "**"
	HighlightStartMarker string
	HighlightEndMarker   string

	// MaxResults limits the number of results; 0 means no limit
	MaxResults int
}

// SearchResult is a matched entry with its relevance
type SearchResult struct {
	Entry Entry

	// Score is in (0, 1], higher is better
	Score float64

	// Highlights maps each matched field to its text with match markers
	Highlights map[string]string

	// MatchType describes the best match found
	MatchType MatchType

	// MatchedFields lists the fields that matched, in search order
	MatchedFields []string
}

// MatchType indicates how a field matched
type MatchType string

const (
	MatchExact   MatchType = "exact"
	MatchPrefix  MatchType = "prefix"
	MatchPartial MatchType = "partial"
)

// EntryProvider supplies the searchable entries of a collection
type EntryProvider interface {
	Entries(c types.Collection) ([]Entry, error)
}

// DefaultFields are searched when SearchOptions.Fields is empty. The first
// field of each collection is its primary one and scores higher.
var DefaultFields = map[types.Collection][]string{
	types.Dishes:  {"name", "category"},
	types.Clients: {"name", "email", "phone"},
	types.Events:  {"clientName", "venue"},
}
