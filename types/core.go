package types

import (
	"encoding/json"
	"fmt"
)

// Collection names a top-level sequence inside the Document
type Collection string

const (
	Dishes  Collection = "dishes"
	Clients Collection = "clients"
	Events  Collection = "events"
)

// Collections lists every collection in document order
var Collections = []Collection{Dishes, Clients, Events}

// Valid reports whether c is one of the known collections
func (c Collection) Valid() bool {
	switch c {
	case Dishes, Clients, Events:
		return true
	default:
		return false
	}
}

// String returns the JSON key of the collection
func (c Collection) String() string {
	return string(c)
}

// Record is a single entry of a collection. Records are kept as open JSON
// objects so that partial updates never drop fields the caller did not send,
// including fields written by a newer version of the app.
type Record map[string]interface{}

// ID returns the record id, or "" when absent or not a string
func (r Record) ID() string {
	if r == nil {
		return ""
	}
	id, _ := r["id"].(string)
	return id
}

// Clone returns a shallow copy of the record
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Merge returns a copy of r overlaid with the fields of update.
// Fields of r missing from update survive.
func (r Record) Merge(update Record) Record {
	out := r.Clone()
	for k, v := range update {
		out[k] = v
	}
	return out
}

// Document is the entire persisted state. Every mutation rewrites it whole.
type Document struct {
	Dishes   []Record               `json:"dishes"`
	Clients  []Record               `json:"clients"`
	Events   []Record               `json:"events"`
	Settings map[string]interface{} `json:"settings"`
}

// NewDocument returns an empty document with all collections initialised
func NewDocument() *Document {
	return &Document{
		Dishes:   []Record{},
		Clients:  []Record{},
		Events:   []Record{},
		Settings: map[string]interface{}{},
	}
}

// Normalize replaces nil collections and settings with empty values so the
// document always serializes with every key present.
func (d *Document) Normalize() {
	if d.Dishes == nil {
		d.Dishes = []Record{}
	}
	if d.Clients == nil {
		d.Clients = []Record{}
	}
	if d.Events == nil {
		d.Events = []Record{}
	}
	if d.Settings == nil {
		d.Settings = map[string]interface{}{}
	}
}

// Collection returns the records of the named collection
func (d *Document) Collection(c Collection) []Record {
	switch c {
	case Dishes:
		return d.Dishes
	case Clients:
		return d.Clients
	case Events:
		return d.Events
	default:
		return nil
	}
}

// SetCollection replaces the records of the named collection
func (d *Document) SetCollection(c Collection, records []Record) error {
	switch c {
	case Dishes:
		d.Dishes = records
	case Clients:
		d.Clients = records
	case Events:
		d.Events = records
	default:
		return fmt.Errorf("unknown collection %q", c)
	}
	return nil
}

// Find returns the first record of c with the given id
func (d *Document) Find(c Collection, id string) (Record, bool) {
	for _, rec := range d.Collection(c) {
		if rec.ID() == id {
			return rec, true
		}
	}
	return nil, false
}

// Clone returns a deep copy of the document via a JSON round trip
func (d *Document) Clone() (*Document, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	out := &Document{}
	if err := json.Unmarshal(data, out); err != nil {
		return nil, err
	}
	out.Normalize()
	return out, nil
}

// MarshalPretty serializes the document with two-space indentation, the
// format used for export and auto-save files
func (d *Document) MarshalPretty() ([]byte, error) {
	d.Normalize()
	return json.MarshalIndent(d, "", "  ")
}
