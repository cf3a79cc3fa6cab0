// Package billing computes event totals, balances and the dashboard
// figures from a decoded document. Dish and client references are not
// enforced; a dangling reference contributes nothing.
package billing

import (
	"fmt"
	"sort"
	"time"

	"github.com/caterdesk/caterdesk/types"
	"github.com/shopspring/decimal"
)

// UnknownClient is shown for events whose client no longer exists
const UnknownClient = "Unknown"

// Book is the typed view of a document
type Book struct {
	Dishes  []types.Dish
	Clients []types.Client
	Events  []types.Event

	// Skipped describes records left out because a field value could
	// not be decoded
	Skipped []string

	dishIndex map[string]types.Dish
}

// NewBook decodes the collections of doc. Records that do not decode are
// listed in Skipped instead of failing the whole book.
func NewBook(doc *types.Document) *Book {
	b := &Book{}
	var skipped []error
	b.Dishes, skipped = types.DecodeRecords[types.Dish](doc.Dishes)
	b.skip(types.Dishes, skipped)
	b.Clients, skipped = types.DecodeRecords[types.Client](doc.Clients)
	b.skip(types.Clients, skipped)
	b.Events, skipped = types.DecodeRecords[types.Event](doc.Events)
	b.skip(types.Events, skipped)
	return b
}

func (b *Book) skip(c types.Collection, errs []error) {
	for _, err := range errs {
		b.Skipped = append(b.Skipped, fmt.Sprintf("%s: %v", c, err))
	}
}

// Dish looks up a dish by id. The first record with the id wins.
func (b *Book) Dish(id string) (types.Dish, bool) {
	if b.dishIndex == nil {
		b.dishIndex = make(map[string]types.Dish, len(b.Dishes))
		for i := len(b.Dishes) - 1; i >= 0; i-- {
			b.dishIndex[b.Dishes[i].ID] = b.Dishes[i]
		}
	}
	d, ok := b.dishIndex[id]
	return d, ok
}

// Client looks up a client by id
func (b *Book) Client(id string) (types.Client, bool) {
	for _, c := range b.Clients {
		if c.ID == id {
			return c, true
		}
	}
	return types.Client{}, false
}

// ClientName returns the name of the client, or UnknownClient
func (b *Book) ClientName(id string) string {
	if c, ok := b.Client(id); ok {
		return c.Name
	}
	return UnknownClient
}

// EventTotal sums price × quantity over the menu items whose dish exists
func (b *Book) EventTotal(e types.Event) decimal.Decimal {
	total := decimal.Zero
	for _, item := range e.Menu {
		dish, ok := b.Dish(item.DishID)
		if !ok {
			continue
		}
		total = total.Add(dish.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

// Balance is what the client still owes: total less discount and advance.
// It can be negative when the client overpaid.
func Balance(e types.Event, total decimal.Decimal) decimal.Decimal {
	return total.Sub(e.Discount.Decimal).Sub(e.AdvancePaid.Decimal)
}

// Summary holds the dashboard figures
type Summary struct {
	UpcomingEvents      int
	UpcomingRevenue     decimal.Decimal
	OutstandingPayments decimal.Decimal
	NewClientsThisMonth int
	StatusCounts        map[types.EventStatus]int
}

// Summarize computes the dashboard figures as of now. Events whose date
// cannot be parsed never count as upcoming.
func (b *Book) Summarize(now time.Time) Summary {
	s := Summary{
		UpcomingRevenue:     decimal.Zero,
		OutstandingPayments: decimal.Zero,
		StatusCounts:        make(map[types.EventStatus]int),
	}

	for _, e := range b.Events {
		total := b.EventTotal(e)
		s.StatusCounts[e.EffectiveStatus()]++

		if when, err := types.ParseEventDate(e.Date, now.Location()); err == nil && !when.Before(now) {
			s.UpcomingEvents++
			s.UpcomingRevenue = s.UpcomingRevenue.Add(total)
		}

		if !e.PaymentCollected {
			if balance := Balance(e, total); balance.IsPositive() {
				s.OutstandingPayments = s.OutstandingPayments.Add(balance)
			}
		}
	}

	startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	for _, c := range b.Clients {
		if c.CreatedAt != nil && !c.CreatedAt.Before(startOfMonth) {
			s.NewClientsThisMonth++
		}
	}
	return s
}

// UpcomingWithin returns the events dated in [now, now+window], earliest first
func (b *Book) UpcomingWithin(now time.Time, window time.Duration) []types.Event {
	type dated struct {
		when  time.Time
		event types.Event
	}

	end := now.Add(window)
	var found []dated
	for _, e := range b.Events {
		when, err := types.ParseEventDate(e.Date, now.Location())
		if err != nil || when.Before(now) || when.After(end) {
			continue
		}
		found = append(found, dated{when: when, event: e})
	}

	sort.SliceStable(found, func(i, j int) bool {
		return found[i].when.Before(found[j].when)
	})

	out := make([]types.Event, 0, len(found))
	for _, d := range found {
		out = append(out, d.event)
	}
	return out
}

// Opportunity is a past event worth following up on
type Opportunity struct {
	Event  types.Event
	Client types.Client
	Reason OpportunityReason
}

// OpportunityReason says why an event suggests a follow-up
type OpportunityReason string

const (
	// ReasonAnniversary: a birthday or anniversary recurs within a month
	ReasonAnniversary OpportunityReason = "anniversary"
	// ReasonReconnect: a corporate event was ten to eleven months ago
	ReasonReconnect OpportunityReason = "reconnect"
)

// recurringTypes are event types that come back every year
var recurringTypes = map[string]bool{"Birthday": true, "Anniversary": true}

// OpportunityWindow is how far ahead a recurring date is looked for
const OpportunityWindow = 30 * 24 * time.Hour

// Opportunities finds past events of known clients that suggest a new
// booking: birthdays and anniversaries whose date comes round in the next
// 30 days, and corporate events held ten to eleven months ago. Events
// without a type or a parsable date are ignored.
func (b *Book) Opportunities(now time.Time) []Opportunity {
	loc := now.Location()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	horizon := today.Add(OpportunityWindow)
	elevenMonthsAgo := today.AddDate(0, -11, 0)
	tenMonthsAgo := today.AddDate(0, -10, 0)

	var out []Opportunity
	for _, e := range b.Events {
		if e.EventType == "" {
			continue
		}
		when, err := types.ParseEventDate(e.Date, loc)
		if err != nil || !when.Before(today) {
			continue
		}
		client, ok := b.Client(e.ClientID)
		if !ok {
			continue
		}

		if recurringTypes[e.EventType] {
			next := time.Date(today.Year(), when.Month(), when.Day(), 0, 0, 0, 0, loc)
			if next.Before(today) {
				next = next.AddDate(1, 0, 0)
			}
			if !next.After(horizon) {
				out = append(out, Opportunity{Event: e, Client: client, Reason: ReasonAnniversary})
			}
		}
		if e.EventType == "Corporate" && !when.Before(elevenMonthsAgo) && when.Before(tenMonthsAgo) {
			out = append(out, Opportunity{Event: e, Client: client, Reason: ReasonReconnect})
		}
	}
	return out
}

// ConflictingBooking finds another event of the same client on the same
// calendar day as candidate. Events with the candidate's id are ignored, so
// an update never conflicts with itself.
func (b *Book) ConflictingBooking(candidate types.Event, loc *time.Location) (types.Event, bool) {
	if candidate.ClientID == "" {
		return types.Event{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	day, err := types.ParseEventDate(candidate.Date, loc)
	if err != nil {
		return types.Event{}, false
	}
	y, m, d := day.In(loc).Date()

	for _, e := range b.Events {
		if e.ClientID != candidate.ClientID || (candidate.ID != "" && e.ID == candidate.ID) {
			continue
		}
		when, err := types.ParseEventDate(e.Date, loc)
		if err != nil {
			continue
		}
		if ey, em, ed := when.In(loc).Date(); ey == y && em == m && ed == d {
			return e, true
		}
	}
	return types.Event{}, false
}

// Agenda orders events for listing: upcoming events soonest first, then
// past events most recent first. Events without a readable date go last in
// their original order.
func Agenda(events []types.Event, now time.Time) []types.Event {
	type dated struct {
		when  time.Time
		event types.Event
	}

	var future, past []dated
	var undated []types.Event
	for _, e := range events {
		when, err := types.ParseEventDate(e.Date, now.Location())
		switch {
		case err != nil:
			undated = append(undated, e)
		case when.Before(now):
			past = append(past, dated{when: when, event: e})
		default:
			future = append(future, dated{when: when, event: e})
		}
	}

	sort.SliceStable(future, func(i, j int) bool { return future[i].when.Before(future[j].when) })
	sort.SliceStable(past, func(i, j int) bool { return past[i].when.After(past[j].when) })

	out := make([]types.Event, 0, len(events))
	for _, d := range future {
		out = append(out, d.event)
	}
	for _, d := range past {
		out = append(out, d.event)
	}
	return append(out, undated...)
}

// OnDay reports whether e is dated on the calendar day of day in loc
func OnDay(e types.Event, day time.Time, loc *time.Location) bool {
	if loc == nil {
		loc = time.Local
	}
	when, err := types.ParseEventDate(e.Date, loc)
	if err != nil {
		return false
	}
	y, m, d := when.In(loc).Date()
	dy, dm, dd := day.In(loc).Date()
	return y == dy && m == dm && d == dd
}
