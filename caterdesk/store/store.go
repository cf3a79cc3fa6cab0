// Package store owns the single JSON document that holds all business data.
// The document lives in one persistence slot (a file with a fixed name in
// the data directory) and is rewritten whole on every mutation.
package store

import (
	"errors"

	"github.com/caterdesk/caterdesk/types"
)

// DefaultFileName is the fixed key of the persistence slot
const DefaultFileName = "cateringAppData.json"

// ErrUnknownCollection is returned when a mutation names a collection the
// document does not have
var ErrUnknownCollection = errors.New("unknown collection")

// Store is the document store
type Store interface {
	// Init seeds an empty document if the slot holds none. It never marks
	// the sync state dirty and leaves an existing document untouched.
	Init() error

	// GetDocument returns the persisted document. A missing or corrupt slot
	// yields a fresh empty document rather than an error.
	GetDocument() (*types.Document, error)

	// SaveDocument overwrites the slot with doc verbatim and marks the sync
	// state dirty. Every other mutation funnels through it.
	SaveDocument(doc *types.Document) error

	// List returns the records of a collection, empty if it has none
	List(c types.Collection) ([]types.Record, error)

	// Find returns the record with the given id, reporting whether it exists
	Find(c types.Collection, id string) (types.Record, bool, error)

	// Upsert merges rec into the record with the same id, or appends it
	// with a freshly generated id. Returns the stored record.
	Upsert(c types.Collection, rec types.Record) (types.Record, error)

	// Delete removes the first record with the given id. A missing id is
	// not an error.
	Delete(c types.Collection, id string) error

	// Path returns the location of the persistence slot
	Path() string

	// Close releases any resources held by the store
	Close() error
}
