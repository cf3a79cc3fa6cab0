package main

import (
	"fmt"
	"time"

	"github.com/caterdesk/caterdesk/caterdesk"
	"github.com/caterdesk/caterdesk/caterdesk/billing"
	"github.com/caterdesk/caterdesk/types"
	"github.com/spf13/cobra"
)

// eventView is an event with the figures derived from the price list
type eventView struct {
	types.Event
	ClientName string      `json:"clientName"`
	Total      types.Money `json:"total"`
	Balance    types.Money `json:"balance"`
}

func newEventView(book *billing.Book, e types.Event) eventView {
	total := book.EventTotal(e)
	e.Status = e.EffectiveStatus()
	return eventView{
		Event:      e,
		ClientName: book.ClientName(e.ClientID),
		Total:      types.NewMoney(total),
		Balance:    types.NewMoney(billing.Balance(e, total)),
	}
}

type eventList []eventView

// Table implements tabular
func (l eventList) Table() ([]string, [][]string) {
	rows := make([][]string, 0, len(l))
	for _, e := range l {
		paid := ""
		if e.PaymentCollected {
			paid = "yes"
		}
		rows = append(rows, []string{
			e.ID,
			e.Date,
			e.ClientName,
			e.Venue,
			fmt.Sprint(int(e.GuestCount)),
			string(e.Status),
			e.Total.StringFixed(2),
			e.Balance.StringFixed(2),
			paid,
		})
	}
	return []string{"ID", "DATE", "CLIENT", "VENUE", "GUESTS", "STATUS", "TOTAL", "BALANCE", "PAID"}, rows
}

// addEventCommands adds the event command group
func (cli *CLI) addEventCommands() {
	eventCmd := &cobra.Command{
		Use:     "event",
		Aliases: []string{"events"},
		Short:   "Manage bookings",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List events with their totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			statusFilter, _ := flags.GetString("status")
			clientFilter, _ := flags.GetString("client")
			dayFilter, _ := flags.GetString("on")
			query, _ := flags.GetString("search")

			var wanted types.EventStatus
			if statusFilter != "" {
				st, err := types.ParseEventStatus(statusFilter)
				if err != nil {
					return NewValidationError("list events", "status", statusFilter,
						"Use one of: Tentative, Confirmed, Completed, Cancelled")
				}
				wanted = st
			}
			var day time.Time
			if dayFilter != "" {
				d, err := time.ParseInLocation(time.DateOnly, dayFilter, time.Local)
				if err != nil {
					return NewValidationError("list events", "day", dayFilter, "Days are written 2006-01-02")
				}
				day = d
			}

			return cli.withApp(func(app *caterdesk.App) error {
				book, err := cli.book(app)
				if err != nil {
					return WrapError("list events", err)
				}

				var ids map[string]bool
				if query != "" {
					if ids, err = matchingIDs(app, types.Events, query); err != nil {
						return WrapError("list events", err)
					}
				}

				views := make(eventList, 0, len(book.Events))
				for _, e := range billing.Agenda(book.Events, cli.now()) {
					if wanted != "" && e.EffectiveStatus() != wanted {
						continue
					}
					if clientFilter != "" && e.ClientID != clientFilter {
						continue
					}
					if !day.IsZero() && !billing.OnDay(e, day, time.Local) {
						continue
					}
					if ids != nil && !ids[e.ID] {
						continue
					}
					views = append(views, newEventView(book, e))
				}
				return cli.outputResult(views)
			})
		},
	}
	listCmd.Flags().String("status", "", "Only events with this status")
	listCmd.Flags().String("client", "", "Only events of this client id")
	listCmd.Flags().String("on", "", "Only events on this day (2006-01-02)")
	listCmd.Flags().String("search", "", "Only events whose client name or venue contains this text")

	showCmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one event with its total and balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.withApp(func(app *caterdesk.App) error {
				book, err := cli.book(app)
				if err != nil {
					return WrapError("show event", err)
				}
				for _, e := range book.Events {
					if e.ID == args[0] {
						return cli.outputResult(newEventView(book, e))
					}
				}
				return NewNotFoundError("show event", "event", args[0], CommonSuggestions.CheckID)
			})
		},
	}

	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Book an event",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			clientID, _ := flags.GetString("client")
			date, _ := flags.GetString("date")
			venue, _ := flags.GetString("venue")
			eventType, _ := flags.GetString("type")
			guests, _ := flags.GetInt("guests")
			statusStr, _ := flags.GetString("status")
			menuArgs, _ := flags.GetStringArray("menu")
			advanceStr, _ := flags.GetString("advance")
			discountStr, _ := flags.GetString("discount")
			paid, _ := flags.GetBool("paid")

			e := types.Event{
				ClientID:         clientID,
				Date:             date,
				Venue:            venue,
				EventType:        eventType,
				GuestCount:       types.FlexInt(guests),
				PaymentCollected: paid,
			}
			if statusStr != "" {
				st, err := types.ParseEventStatus(statusStr)
				if err != nil {
					return NewValidationError("add event", "status", statusStr,
						"Use one of: Tentative, Confirmed, Completed, Cancelled")
				}
				e.Status = st
			}
			var err error
			if e.Menu, err = parseMenu("add event", menuArgs, guests); err != nil {
				return err
			}
			if e.AdvancePaid, err = parseMoney("add event", "advance", advanceStr); err != nil {
				return err
			}
			if e.Discount, err = parseMoney("add event", "discount", discountStr); err != nil {
				return err
			}

			return cli.withApp(func(app *caterdesk.App) error {
				saved, err := app.SaveEvent(e)
				if err != nil {
					return WrapError("add event", err)
				}
				return cli.printEvent(app, saved)
			})
		},
	}
	addEventFlags(addCmd)
	_ = addCmd.MarkFlagRequired("client")
	_ = addCmd.MarkFlagRequired("date")
	_ = addCmd.MarkFlagRequired("venue")
	_ = addCmd.MarkFlagRequired("guests")

	updateCmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of an event",
		Long: `Change fields of an event. --menu replaces the whole menu; pass it once
per dish. A dish given without a quantity is served to every guest, and
--rescale sets every quantity to the guest count after a change of --guests.
Use --paid to record that the balance was collected.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			rescale, _ := flags.GetBool("rescale")

			return cli.withApp(func(app *caterdesk.App) error {
				current, ok, err := app.FindEvent(args[0])
				if err != nil {
					return WrapError("update event", err)
				}
				if !ok {
					return NewNotFoundError("update event", "event", args[0], CommonSuggestions.CheckID)
				}
				guests := int(current.GuestCount)
				if flags.Changed("guests") {
					guests, _ = flags.GetInt("guests")
				}

				fields := newChangedFields("update event", flags)
				fields.str("client", "clientId")
				fields.str("date", "date")
				fields.str("venue", "venue")
				fields.str("type", "eventType")
				fields.integer("guests", "guestCount")
				fields.status("status", "status")
				fields.menu("menu", guests)
				if rescale {
					fields.rescale(current.Menu, guests)
				}
				fields.money("advance", "advancePaid")
				fields.money("discount", "discount")
				fields.boolean("paid", "paymentCollected")
				update, err := fields.result()
				if err != nil {
					return err
				}

				rec, err := app.Update(types.Events, args[0], update)
				if err != nil {
					return wrapRecordError("update event", "event", args[0], err)
				}
				e, err := types.DecodeRecord[types.Event](rec)
				if err != nil {
					return WrapError("update event", err)
				}
				return cli.printEvent(app, e)
			})
		},
	}
	addEventFlags(updateCmd)
	updateCmd.Flags().Bool("rescale", false, "Set every menu quantity to the guest count")

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove an event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.withApp(func(app *caterdesk.App) error {
				ok, err := cli.confirm(cmd.Context(), fmt.Sprintf("Delete event %s?", args[0]))
				if err != nil {
					return err
				}
				if !ok {
					return nil
				}
				if err := app.Delete(types.Events, args[0]); err != nil {
					return WrapError("delete event", err)
				}
				if !cli.viperInst.GetBool("quiet") {
					fmt.Fprintf(cli.out, "Deleted event %s\n", args[0])
				}
				return nil
			})
		},
	}

	eventCmd.AddCommand(listCmd, showCmd, addCmd, updateCmd, deleteCmd)
	cli.rootCmd.AddCommand(eventCmd)
}

// printEvent prints a saved event with its figures and warns about a
// dangling client or a second booking of the client on the same day
func (cli *CLI) printEvent(app *caterdesk.App, e types.Event) error {
	book, err := cli.book(app)
	if err != nil {
		return WrapError("show event", err)
	}

	if _, ok := book.Client(e.ClientID); !ok {
		fmt.Fprintf(cli.errOut, "Warning: no client with ID %q\n", e.ClientID)
	}
	if other, ok := book.ConflictingBooking(e, time.Local); ok {
		fmt.Fprintf(cli.errOut, "Warning: %s already has an event on this day (%s at %s)\n",
			book.ClientName(e.ClientID), other.ID, other.Venue)
	}

	return cli.outputResult(newEventView(book, e))
}

func addEventFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.String("client", "", "Client id")
	flags.String("date", "", "Date and time, e.g. 2025-06-01T18:00")
	flags.String("venue", "", "Venue")
	flags.String("type", "", "Occasion, e.g. Birthday, Anniversary or Corporate")
	flags.Int("guests", 0, "Number of guests")
	flags.String("status", "", "Tentative, Confirmed, Completed or Cancelled")
	flags.StringArray("menu", nil, "Menu item as dishId or dishId:quantity (repeatable); quantity defaults to the guest count")
	flags.String("advance", "0", "Advance already paid")
	flags.String("discount", "0", "Discount granted")
	flags.Bool("paid", false, "Balance has been collected")
}
