package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/caterdesk/caterdesk/caterdesk"
	"github.com/caterdesk/caterdesk/caterdesk/search"
	"github.com/caterdesk/caterdesk/types"
	"github.com/spf13/cobra"
)

// searchHit is one row of `caterdesk search`
type searchHit struct {
	Collection string            `json:"collection"`
	ID         string            `json:"id"`
	Score      float64           `json:"score"`
	Match      string            `json:"match"`
	Highlights map[string]string `json:"highlights"`
}

type searchHits []searchHit

// Table implements tabular
func (l searchHits) Table() ([]string, [][]string) {
	rows := make([][]string, 0, len(l))
	for _, h := range l {
		fields := make([]string, 0, len(h.Highlights))
		for name := range h.Highlights {
			fields = append(fields, name)
		}
		sort.Strings(fields)
		var shown []string
		for _, name := range fields {
			shown = append(shown, fmt.Sprintf("%s: %s", name, h.Highlights[name]))
		}
		rows = append(rows, []string{h.Collection, h.ID, fmt.Sprintf("%.1f", h.Score), strings.Join(shown, ", ")})
	}
	return []string{"TYPE", "ID", "SCORE", "MATCH"}, rows
}

// matchingIDs returns the ids of the records of c that match query
func matchingIDs(app *caterdesk.App, c types.Collection, query string) (map[string]bool, error) {
	book, err := app.Book()
	if err != nil {
		return nil, err
	}
	return search.NewEngine(search.NewBookProvider(book)).Matches(c, search.SearchOptions{Query: query})
}

// addSearchCommand adds the search command
func (cli *CLI) addSearchCommand() {
	searchCmd := &cobra.Command{
		Use:   "search <text>",
		Short: "Find dishes, clients and events",
		Long: `Find records by text: dishes by name and category, clients by name,
email and phone, events by client name and venue.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			exact, _ := cmd.Flags().GetBool("exact")
			only, _ := cmd.Flags().GetString("type")

			options := search.SearchOptions{
				Query:           strings.Join(args, " "),
				ExactMatch:      exact,
				EnableHighlight: true,
				MaxResults:      limit,
			}

			return cli.withApp(func(app *caterdesk.App) error {
				book, err := cli.book(app)
				if err != nil {
					return WrapError("search", err)
				}
				engine := search.NewEngine(search.NewBookProvider(book))

				var results []search.SearchResult
				if only != "" {
					c := types.Collection(strings.ToLower(only))
					if !c.Valid() {
						return NewValidationError("search", "type", only, "Use one of: dishes, clients, events")
					}
					results, err = engine.Search(c, options)
				} else {
					results, err = engine.SearchAll(options)
				}
				if err != nil {
					return WrapError("search", err)
				}

				hits := make(searchHits, 0, len(results))
				for _, r := range results {
					hits = append(hits, searchHit{
						Collection: r.Entry.Collection.String(),
						ID:         r.Entry.ID,
						Score:      r.Score,
						Match:      string(r.MatchType),
						Highlights: r.Highlights,
					})
				}
				return cli.outputResult(hits)
			})
		},
	}
	searchCmd.Flags().Int("limit", 20, "Maximum number of results (0 for all)")
	searchCmd.Flags().Bool("exact", false, "Only match whole fields")
	searchCmd.Flags().String("type", "", "Only search dishes, clients or events")
	cli.rootCmd.AddCommand(searchCmd)
}
