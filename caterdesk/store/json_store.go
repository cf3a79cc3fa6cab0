package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/caterdesk/caterdesk/caterdesk/storage"
	"github.com/caterdesk/caterdesk/types"
	"github.com/google/uuid"
)

// jsonSlotStore implements Store on top of a single JSON file
type jsonSlotStore struct {
	filePath    string
	lockManager *storage.LockManager
	state       *storage.SyncState
	newID       func() string
	logger      *slog.Logger

	fs          FileSystem
	lockFactory FileLockFactory
	fileLock    FileLock
}

// New opens the document store at filePath. The file is not created until
// Init or the first mutation.
func New(filePath string, opts ...Option) (Store, error) {
	s := &jsonSlotStore{
		filePath:    filePath,
		lockManager: storage.NewLockManager(),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.fs == nil {
		s.fs = OSFileSystem{}
	}
	if s.lockFactory == nil {
		s.lockFactory = FlockFactory{}
	}
	if s.state == nil {
		s.state = storage.NewSyncState()
	}
	if s.newID == nil {
		s.newID = newTimeOrderedID
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	if err := s.fs.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	s.fileLock = s.lockFactory.New(filePath + ".lock")

	return s, nil
}

// newTimeOrderedID returns a UUIDv7, whose leading bits are the current
// time, so ids sort by creation like the timestamps they replace
func newTimeOrderedID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// Path implements Store.Path
func (s *jsonSlotStore) Path() string {
	return s.filePath
}

// Init implements Store.Init
func (s *jsonSlotStore) Init() error {
	return s.lockManager.Execute(storage.WriteOperation, func() error {
		return WithFileLock(s.fileLock, func() error {
			data, err := s.fs.ReadFile(s.filePath)
			if err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("failed to read document: %w", err)
			}
			if len(bytes.TrimSpace(data)) > 0 {
				return nil
			}
			s.logger.Debug("seeding empty document", "path", s.filePath)
			return s.write(types.NewDocument())
		})
	})
}

// GetDocument implements Store.GetDocument. The file lock is exclusive, so
// reads take the write side of the lock manager as well.
func (s *jsonSlotStore) GetDocument() (*types.Document, error) {
	return storage.ExecuteWithResult(s.lockManager, storage.WriteOperation, func() (*types.Document, error) {
		var doc *types.Document
		err := WithFileLock(s.fileLock, func() error {
			var err error
			doc, err = s.load()
			return err
		})
		return doc, err
	})
}

// SaveDocument implements Store.SaveDocument
func (s *jsonSlotStore) SaveDocument(doc *types.Document) error {
	if doc == nil {
		return errors.New("document is nil")
	}
	return s.lockManager.Execute(storage.WriteOperation, func() error {
		return WithFileLock(s.fileLock, func() error {
			return s.save(doc)
		})
	})
}

// List implements Store.List
func (s *jsonSlotStore) List(c types.Collection) ([]types.Record, error) {
	doc, err := s.GetDocument()
	if err != nil {
		return nil, err
	}
	records := doc.Collection(c)
	if records == nil {
		return []types.Record{}, nil
	}
	return records, nil
}

// Find implements Store.Find
func (s *jsonSlotStore) Find(c types.Collection, id string) (types.Record, bool, error) {
	doc, err := s.GetDocument()
	if err != nil {
		return nil, false, err
	}
	rec, ok := doc.Find(c, id)
	return rec, ok, nil
}

// Upsert implements Store.Upsert
func (s *jsonSlotStore) Upsert(c types.Collection, rec types.Record) (types.Record, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCollection, c)
	}

	return storage.ExecuteWithResult(s.lockManager, storage.WriteOperation, func() (types.Record, error) {
		var stored types.Record
		err := WithFileLock(s.fileLock, func() error {
			doc, err := s.load()
			if err != nil {
				return err
			}

			records := doc.Collection(c)
			id := rec.ID()
			index := -1
			if id != "" {
				for i, existing := range records {
					if existing.ID() == id {
						index = i
						break
					}
				}
			}

			switch {
			case index >= 0:
				stored = records[index].Merge(rec)
				records[index] = stored
			case id != "":
				// Unknown ids are kept as given.
				stored = rec.Clone()
				records = append(records, stored)
			default:
				stored = rec.Clone()
				stored["id"] = s.uniqueID(records)
				records = append(records, stored)
			}

			if err := doc.SetCollection(c, records); err != nil {
				return err
			}
			return s.save(doc)
		})
		if err != nil {
			return nil, err
		}
		return stored.Clone(), nil
	})
}

// uniqueID generates an id that no record of the collection carries
func (s *jsonSlotStore) uniqueID(records []types.Record) string {
	taken := make(map[string]bool, len(records))
	for _, r := range records {
		taken[r.ID()] = true
	}
	for {
		id := s.newID()
		if id != "" && !taken[id] {
			return id
		}
	}
}

// Delete implements Store.Delete
func (s *jsonSlotStore) Delete(c types.Collection, id string) error {
	if !c.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownCollection, c)
	}

	return s.lockManager.Execute(storage.WriteOperation, func() error {
		return WithFileLock(s.fileLock, func() error {
			doc, err := s.load()
			if err != nil {
				return err
			}

			records := doc.Collection(c)
			for i, r := range records {
				if r.ID() == id {
					remaining := append(records[:i:i], records[i+1:]...)
					if err := doc.SetCollection(c, remaining); err != nil {
						return err
					}
					return s.save(doc)
				}
			}
			return nil
		})
	})
}

// Close removes the lock file. Data is saved on each operation.
func (s *jsonSlotStore) Close() error {
	return s.lockManager.Execute(storage.WriteOperation, func() error {
		_ = s.fs.Remove(s.filePath + ".lock")
		return nil
	})
}

// load reads the slot. Caller must hold the file lock.
func (s *jsonSlotStore) load() (*types.Document, error) {
	data, err := s.fs.ReadFile(s.filePath)
	if errors.Is(err, os.ErrNotExist) {
		return types.NewDocument(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}

	doc, err := decodeDocument(data)
	if err != nil {
		s.logger.Warn("document slot is corrupt, using an empty document",
			"path", s.filePath,
			"error", err)
		return types.NewDocument(), nil
	}
	return doc, nil
}

// save writes the slot and marks the sync state dirty. Caller must hold the
// file lock.
func (s *jsonSlotStore) save(doc *types.Document) error {
	if err := s.write(doc); err != nil {
		return err
	}
	s.state.MarkDirty()
	return nil
}

func (s *jsonSlotStore) write(doc *types.Document) error {
	doc.Normalize()
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}
	if err := WriteFileAtomic(s.fs, s.filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}
	return nil
}

// decodeDocument parses slot text. Empty text and a JSON null are treated as
// corrupt, like any other value that is not an object.
func decodeDocument(data []byte) (*types.Document, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, errors.New("document is not a JSON object")
	}
	doc := &types.Document{}
	if err := json.Unmarshal(trimmed, doc); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	doc.Normalize()
	return doc, nil
}
