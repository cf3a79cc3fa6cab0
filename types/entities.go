package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// EventStatus is the booking state of an event
type EventStatus string

const (
	StatusTentative EventStatus = "Tentative"
	StatusConfirmed EventStatus = "Confirmed"
	StatusCompleted EventStatus = "Completed"
	StatusCancelled EventStatus = "Cancelled"
)

// EventStatuses lists the valid statuses in display order
var EventStatuses = []EventStatus{StatusTentative, StatusConfirmed, StatusCompleted, StatusCancelled}

// ParseEventStatus matches s case-insensitively against the known statuses
func ParseEventStatus(s string) (EventStatus, error) {
	for _, st := range EventStatuses {
		if strings.EqualFold(string(st), strings.TrimSpace(s)) {
			return st, nil
		}
	}
	return "", fmt.Errorf("invalid event status %q", s)
}

// Money is a decimal amount. It decodes from JSON numbers and from numeric
// strings (older documents stored raw form input), and encodes as a number.
type Money struct {
	decimal.Decimal
}

// NewMoney wraps a decimal
func NewMoney(d decimal.Decimal) Money {
	return Money{Decimal: d}
}

// MoneyFromInt is a convenience for whole amounts
func MoneyFromInt(v int64) Money {
	return Money{Decimal: decimal.NewFromInt(v)}
}

// UnmarshalJSON implements json.Unmarshaler
func (m *Money) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) || bytes.Equal(data, []byte(`""`)) {
		m.Decimal = decimal.Zero
		return nil
	}
	return m.Decimal.UnmarshalJSON(data)
}

// MarshalJSON implements json.Marshaler
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal.String()), nil
}

// FlexInt is an integer that also decodes from numeric strings
type FlexInt int

// UnmarshalJSON implements json.Unmarshaler
func (f *FlexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}
	s := string(data)
	if unq, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unq)
		if s == "" {
			*f = 0
			return nil
		}
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid integer %s: %w", data, err)
	}
	*f = FlexInt(n)
	return nil
}

// Dish is an entry of the price list
type Dish struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name" validate:"required"`
	Category    string `json:"category"`
	Price       Money  `json:"price" validate:"gte=0"`
	Description string `json:"description"`
}

// Client is a customer of the business
type Client struct {
	ID        string     `json:"id,omitempty"`
	Name      string     `json:"name" validate:"required"`
	Email     string     `json:"email" validate:"omitempty,email"`
	Phone     string     `json:"phone"`
	Address   string     `json:"address,omitempty"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

// MenuItem is one dish of an event menu
type MenuItem struct {
	DishID   string  `json:"dishId" validate:"required"`
	Quantity FlexInt `json:"quantity" validate:"gte=0"`
}

// Event is a booking. ClientID and MenuItem.DishID are not enforced
// references; dangling ids are tolerated.
type Event struct {
	ID               string      `json:"id,omitempty"`
	ClientID         string      `json:"clientId" validate:"required"`
	Date             string      `json:"date" validate:"required,eventdate"`
	Venue            string      `json:"venue" validate:"required"`
	EventType        string      `json:"eventType,omitempty"`
	GuestCount       FlexInt     `json:"guestCount" validate:"gt=0"`
	Status           EventStatus `json:"status,omitempty" validate:"omitempty,oneof=Tentative Confirmed Completed Cancelled"`
	Menu             []MenuItem  `json:"menu" validate:"dive"`
	AdvancePaid      Money       `json:"advancePaid"`
	Discount         Money       `json:"discount"`
	PaymentCollected bool        `json:"paymentCollected"`
}

// dateLayouts are tried in order; the first is what date-time inputs produce
var dateLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02",
}

// ParseEventDate parses the stored event date in the given location.
// Layouts carrying an offset ignore loc.
func ParseEventDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid event date %q", s)
}

// When returns the parsed event date in local time
func (e Event) When() (time.Time, error) {
	return ParseEventDate(e.Date, time.Local)
}

// EffectiveStatus returns the status, defaulting to Tentative
func (e Event) EffectiveStatus() EventStatus {
	if e.Status == "" {
		return StatusTentative
	}
	return e.Status
}

// DecodeRecord converts a stored record into a typed value
func DecodeRecord[T any](rec Record) (T, error) {
	var out T
	data, err := json.Marshal(rec)
	if err != nil {
		return out, fmt.Errorf("failed to marshal record: %w", err)
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("failed to decode record %q: %w", rec.ID(), err)
	}
	return out, nil
}

// DecodeRecords converts the records of a collection. A record that does
// not decode is left out and its error returned in skipped, so one bad
// value cannot hide the rest of the collection.
func DecodeRecords[T any](recs []Record) (out []T, skipped []error) {
	out = make([]T, 0, len(recs))
	for _, rec := range recs {
		v, err := DecodeRecord[T](rec)
		if err != nil {
			skipped = append(skipped, err)
			continue
		}
		out = append(out, v)
	}
	return out, skipped
}

// EncodeRecord converts a typed value into a record
func EncodeRecord(v interface{}) (Record, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal value: %w", err)
	}
	rec := Record{}
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to convert value to record: %w", err)
	}
	return rec, nil
}
