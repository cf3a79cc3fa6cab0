package types

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestMoney(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "number", input: `250`, want: "250"},
		{name: "fraction", input: `99.50`, want: "99.5"},
		{name: "numeric string", input: `"120"`, want: "120"},
		{name: "empty string", input: `""`, want: "0"},
		{name: "null", input: `null`, want: "0"},
		{name: "not a number", input: `"abc"`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m Money
			err := json.Unmarshal([]byte(tt.input), &m)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Unmarshal(%s) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && m.String() != tt.want {
				t.Errorf("Unmarshal(%s) = %s, want %s", tt.input, m.String(), tt.want)
			}
		})
	}

	t.Run("encodes as a number", func(t *testing.T) {
		data, err := json.Marshal(struct {
			Price Money `json:"price"`
		}{Price: MoneyFromInt(250)})
		if err != nil {
			t.Fatal(err)
		}
		if string(data) != `{"price":250}` {
			t.Errorf("got %s", data)
		}
	})
}

func TestFlexInt(t *testing.T) {
	tests := []struct {
		input   string
		want    FlexInt
		wantErr bool
	}{
		{input: `10`, want: 10},
		{input: `"10"`, want: 10},
		{input: `" 25 "`, want: 25},
		{input: `""`, want: 0},
		{input: `null`, want: 0},
		{input: `"ten"`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var f FlexInt
			err := json.Unmarshal([]byte(tt.input), &f)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Unmarshal(%s) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && f != tt.want {
				t.Errorf("Unmarshal(%s) = %d, want %d", tt.input, f, tt.want)
			}
		})
	}
}

func TestParseEventDate(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)

	tests := []struct {
		input   string
		want    time.Time
		wantErr bool
	}{
		{input: "2025-06-01T18:00", want: time.Date(2025, 6, 1, 18, 0, 0, 0, loc)},
		{input: "2025-06-01T18:00:30", want: time.Date(2025, 6, 1, 18, 0, 30, 0, loc)},
		{input: "2025-06-01", want: time.Date(2025, 6, 1, 0, 0, 0, 0, loc)},
		{input: "2025-06-01T12:30:00Z", want: time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC)},
		{input: "01/06/2025", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseEventDate(tt.input, loc)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseEventDate(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && !got.Equal(tt.want) {
				t.Errorf("ParseEventDate(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestEventStatus(t *testing.T) {
	st, err := ParseEventStatus(" confirmed ")
	if err != nil || st != StatusConfirmed {
		t.Errorf("ParseEventStatus = %q, %v", st, err)
	}
	if _, err := ParseEventStatus("Booked"); err == nil {
		t.Error("ParseEventStatus accepted an unknown status")
	}
	if got := (Event{}).EffectiveStatus(); got != StatusTentative {
		t.Errorf("EffectiveStatus() = %s, want Tentative", got)
	}
}

func TestRecordConversion(t *testing.T) {
	t.Run("decodes legacy string fields", func(t *testing.T) {
		rec := Record{
			"id":          "e1",
			"clientId":    "c1",
			"date":        "2025-06-01T18:00",
			"venue":       "Hall",
			"guestCount":  "80",
			"menu":        []interface{}{map[string]interface{}{"dishId": "d1", "quantity": "10"}},
			"advancePaid": "500",
		}
		e, err := DecodeRecord[Event](rec)
		if err != nil {
			t.Fatal(err)
		}
		if e.GuestCount != 80 || e.Menu[0].Quantity != 10 || e.AdvancePaid.String() != "500" {
			t.Errorf("decoded = %+v", e)
		}
	})

	t.Run("encode drops an empty id", func(t *testing.T) {
		rec, err := EncodeRecord(Dish{Name: "Kheer", Price: MoneyFromInt(60)})
		if err != nil {
			t.Fatal(err)
		}
		want := Record{"name": "Kheer", "category": "", "price": 60.0, "description": ""}
		if diff := cmp.Diff(want, rec); diff != "" {
			t.Errorf("EncodeRecord mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("undecodable records are skipped", func(t *testing.T) {
		dishes, skipped := DecodeRecords[Dish]([]Record{
			{"id": "d9", "price": "lots"},
			{"id": "d1", "name": "Kheer", "price": 60},
		})
		if len(dishes) != 1 || dishes[0].ID != "d1" {
			t.Errorf("dishes = %+v, want only d1", dishes)
		}
		if len(skipped) != 1 || !strings.Contains(skipped[0].Error(), `"d9"`) {
			t.Errorf("skipped = %v, want one error naming d9", skipped)
		}
	})
}
