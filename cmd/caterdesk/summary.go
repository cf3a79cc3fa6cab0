package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/caterdesk/caterdesk/caterdesk"
	"github.com/caterdesk/caterdesk/types"
	"github.com/spf13/cobra"
)

// summaryResult is the dashboard
type summaryResult struct {
	UpcomingEvents      int            `json:"upcomingEvents"`
	UpcomingRevenue     types.Money    `json:"upcomingRevenue"`
	OutstandingPayments types.Money    `json:"outstandingPayments"`
	NewClientsThisMonth int            `json:"newClientsThisMonth"`
	StatusCounts        map[string]int `json:"statusCounts"`
	NextDays            eventList      `json:"next"`
	FollowUps           followUpList   `json:"followUps"`
}

// followUp is a past event that suggests calling the client again
type followUp struct {
	EventID   string `json:"eventId"`
	Client    string `json:"client"`
	EventType string `json:"eventType"`
	Date      string `json:"date"`
	Reason    string `json:"reason"`
}

type followUpList []followUp

func (l followUpList) Table() ([]string, [][]string) {
	rows := make([][]string, 0, len(l))
	for _, f := range l {
		rows = append(rows, []string{f.Client, f.EventType, f.Date, f.Reason, f.EventID})
	}
	return []string{"CLIENT", "TYPE", "DATE", "REASON", "EVENT"}, rows
}

// addSummaryCommand adds the dashboard command
func (cli *CLI) addSummaryCommand() {
	summaryCmd := &cobra.Command{
		Use:     "summary",
		Aliases: []string{"dashboard"},
		Short:   "Show revenue, outstanding payments and the coming events",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			days, _ := cmd.Flags().GetInt("days")
			if days < 0 {
				return NewValidationError("show summary", "days", fmt.Sprint(days))
			}

			return cli.withApp(func(app *caterdesk.App) error {
				book, err := cli.book(app)
				if err != nil {
					return WrapError("show summary", err)
				}

				now := cli.now()
				s := book.Summarize(now)
				result := summaryResult{
					UpcomingEvents:      s.UpcomingEvents,
					UpcomingRevenue:     types.NewMoney(s.UpcomingRevenue),
					OutstandingPayments: types.NewMoney(s.OutstandingPayments),
					NewClientsThisMonth: s.NewClientsThisMonth,
					StatusCounts:        make(map[string]int, len(types.EventStatuses)),
					NextDays:            eventList{},
					FollowUps:           followUpList{},
				}
				for _, st := range types.EventStatuses {
					result.StatusCounts[string(st)] = s.StatusCounts[st]
				}
				for _, e := range book.UpcomingWithin(now, time.Duration(days)*24*time.Hour) {
					result.NextDays = append(result.NextDays, newEventView(book, e))
				}
				for _, o := range book.Opportunities(now) {
					result.FollowUps = append(result.FollowUps, followUp{
						EventID:   o.Event.ID,
						Client:    o.Client.Name,
						EventType: o.Event.EventType,
						Date:      o.Event.Date,
						Reason:    string(o.Reason),
					})
				}

				if cli.viperInst.GetString("format") == "table" {
					return cli.printSummary(result, days)
				}
				return cli.outputResult(result)
			})
		},
	}
	summaryCmd.Flags().Int("days", 7, "How many days ahead to list events")
	cli.rootCmd.AddCommand(summaryCmd)
}

func (cli *CLI) printSummary(r summaryResult, days int) error {
	w := tabwriter.NewWriter(cli.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Upcoming events:\t%d\n", r.UpcomingEvents)
	fmt.Fprintf(w, "Upcoming revenue:\t%s\n", r.UpcomingRevenue.StringFixed(2))
	fmt.Fprintf(w, "Outstanding payments:\t%s\n", r.OutstandingPayments.StringFixed(2))
	fmt.Fprintf(w, "New clients this month:\t%d\n", r.NewClientsThisMonth)
	for _, st := range types.EventStatuses {
		fmt.Fprintf(w, "%s:\t%d\n", st, r.StatusCounts[string(st)])
	}
	if err := w.Flush(); err != nil {
		return err
	}

	quiet := cli.viperInst.GetBool("quiet")
	fmt.Fprintf(cli.out, "\nNext %d days:\n", days)
	if err := cli.outputTable(r.NextDays, quiet); err != nil {
		return err
	}
	fmt.Fprintln(cli.out, "\nFollow-ups:")
	return cli.outputTable(r.FollowUps, quiet)
}
