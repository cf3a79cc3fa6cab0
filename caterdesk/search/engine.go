// Package search finds dishes, clients and events by text, ranking entries
// whose primary field matches above the rest.
package search

import (
	"fmt"
	"sort"
	"strings"

	"github.com/caterdesk/caterdesk/types"
)

// Engine runs queries against an EntryProvider
type Engine struct {
	provider EntryProvider
}

// NewEngine creates a new search engine with the given provider
func NewEngine(provider EntryProvider) *Engine {
	return &Engine{
		provider: provider,
	}
}

// Search returns the entries of c matching options.Query, best first.
// Entries with equal scores keep the provider's order.
func (e *Engine) Search(c types.Collection, options SearchOptions) ([]SearchResult, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("unknown collection %q", c)
	}
	if strings.TrimSpace(options.Query) == "" {
		return []SearchResult{}, nil
	}

	entries, err := e.provider.Entries(c)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", c, err)
	}

	fields := options.Fields
	if len(fields) == 0 {
		fields = DefaultFields[c]
	}
	primary := ""
	if defaults := DefaultFields[c]; len(defaults) > 0 {
		primary = defaults[0]
	}

	results := []SearchResult{}
	for _, entry := range entries {
		if result := e.searchEntry(entry, fields, primary, options); result != nil {
			results = append(results, *result)
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if options.MaxResults > 0 && len(results) > options.MaxResults {
		results = results[:options.MaxResults]
	}
	return results, nil
}

// SearchAll searches every collection and merges the results by score
func (e *Engine) SearchAll(options SearchOptions) ([]SearchResult, error) {
	all := []SearchResult{}
	for _, c := range types.Collections {
		opts := options
		opts.MaxResults = 0
		results, err := e.Search(c, opts)
		if err != nil {
			return nil, err
		}
		all = append(all, results...)
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Score > all[j].Score
	})
	if options.MaxResults > 0 && len(all) > options.MaxResults {
		all = all[:options.MaxResults]
	}
	return all, nil
}

// Matches returns the ids of the entries of c that match, for filtering a
// listing without changing its order
func (e *Engine) Matches(c types.Collection, options SearchOptions) (map[string]bool, error) {
	options.MaxResults = 0
	results, err := e.Search(c, options)
	if err != nil {
		return nil, err
	}
	ids := make(map[string]bool, len(results))
	for _, r := range results {
		ids[r.Entry.ID] = true
	}
	return ids, nil
}

// searchEntry searches a single entry and returns a result if it matches
func (e *Engine) searchEntry(entry Entry, fields []string, primary string, options SearchOptions) *SearchResult {
	startMarker := options.HighlightStartMarker
	endMarker := options.HighlightEndMarker
	if startMarker == "" {
		startMarker = "**"
	}
	if endMarker == "" {
		endMarker = "**"
	}

	var (
		matched   []string
		best      float64
		bestMatch MatchType
		highlight map[string]string
	)
	if options.EnableHighlight {
		highlight = make(map[string]string)
	}

	for _, field := range fields {
		text, ok := entry.Fields[field]
		if !ok || text == "" {
			continue
		}
		score, matchType, positions := e.matchField(text, options.Query, field == primary, options)
		if score == 0 {
			continue
		}

		matched = append(matched, field)
		if score > best {
			best = score
			bestMatch = matchType
		}
		if highlight != nil {
			highlight[field] = highlightPositions(text, len(options.Query), positions, startMarker, endMarker)
		}
	}

	if len(matched) == 0 {
		return nil
	}
	return &SearchResult{
		Entry:         entry,
		Score:         best,
		Highlights:    highlight,
		MatchType:     bestMatch,
		MatchedFields: matched,
	}
}

// matchField scores text against query and returns the match offsets.
// A zero score means no match.
func (e *Engine) matchField(text, query string, primary bool, options SearchOptions) (float64, MatchType, []int) {
	equal := strings.EqualFold
	if options.CaseSensitive {
		equal = func(a, b string) bool { return a == b }
	}

	if options.ExactMatch {
		if !equal(text, query) {
			return 0, "", nil
		}
		return 1.0, MatchExact, []int{0}
	}

	positions := findAll(text, query, equal)
	if len(positions) == 0 {
		return 0, "", nil
	}

	matchType := MatchPartial
	switch {
	case equal(text, query):
		matchType = MatchExact
	case positions[0] == 0:
		matchType = MatchPrefix
	}
	return calculateScore(len(text), len(query), positions[0], primary), matchType, positions
}

// calculateScore computes a relevance score for a match. Points are
// summed as integers so equal matches compare equal.
func calculateScore(textLen, queryLen, firstPos int, primary bool) float64 {
	points := 5

	// Boost for the collection's primary field
	if primary {
		points = 7
	}

	// Boost if match is at the beginning
	if firstPos == 0 {
		points += 2
	}

	// Boost if query takes up a large portion of the field
	if textLen > 0 && 2*queryLen > textLen {
		points++
	}

	if points > 10 {
		points = 10
	}
	return float64(points) / 10
}

// findAll returns the non-overlapping offsets of query in text
func findAll(text, query string, equal func(a, b string) bool) []int {
	var positions []int
	if query == "" {
		return positions
	}
	for i := 0; i <= len(text)-len(query); i++ {
		if equal(text[i:i+len(query)], query) {
			positions = append(positions, i)
			i += len(query) - 1 // Skip overlapping matches
		}
	}
	return positions
}

// highlightPositions wraps each match in markers
func highlightPositions(text string, queryLen int, positions []int, startMarker, endMarker string) string {
	var builder strings.Builder
	lastEnd := 0
	for _, start := range positions {
		end := start + queryLen
		builder.WriteString(text[lastEnd:start])
		builder.WriteString(startMarker)
		builder.WriteString(text[start:end])
		builder.WriteString(endMarker)
		lastEnd = end
	}
	builder.WriteString(text[lastEnd:])
	return builder.String()
}
