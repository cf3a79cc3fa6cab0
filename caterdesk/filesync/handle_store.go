package filesync

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caterdesk/caterdesk/caterdesk/store"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultHandleFileName is the file of the handle store inside the data directory
	DefaultHandleFileName = "handles.yaml"

	// HandleKey is the fixed key the auto-save handle is stored under
	HandleKey = "autoSaveFileHandle"
)

// HandleStore persists at most one Handle, separately from the document
type HandleStore struct {
	path string
	fs   store.FileSystem
	lock store.FileLock
}

// HandleStoreOption configures a HandleStore
type HandleStoreOption func(*handleStoreConfig)

type handleStoreConfig struct {
	fs          store.FileSystem
	lockFactory store.FileLockFactory
}

// WithHandleFileSystem sets a custom FileSystem implementation
func WithHandleFileSystem(fs store.FileSystem) HandleStoreOption {
	return func(c *handleStoreConfig) {
		c.fs = fs
	}
}

// WithHandleLockFactory sets a custom FileLockFactory implementation
func WithHandleLockFactory(factory store.FileLockFactory) HandleStoreOption {
	return func(c *handleStoreConfig) {
		c.lockFactory = factory
	}
}

// NewHandleStore opens the handle store at path
func NewHandleStore(path string, opts ...HandleStoreOption) (*HandleStore, error) {
	cfg := handleStoreConfig{
		fs:          store.OSFileSystem{},
		lockFactory: store.FlockFactory{},
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create handle store directory: %w", err)
	}

	return &HandleStore{
		path: path,
		fs:   cfg.fs,
		lock: cfg.lockFactory.New(path + ".lock"),
	}, nil
}

// Path returns the file backing the store
func (hs *HandleStore) Path() string {
	return hs.path
}

// Save stores h under HandleKey, replacing any previous handle
func (hs *HandleStore) Save(h *Handle) error {
	if h == nil {
		return errors.New("handle is nil")
	}
	return store.WithFileLock(hs.lock, func() error {
		entries, err := hs.read()
		if err != nil {
			return err
		}
		entries[HandleKey] = h
		return hs.write(entries)
	})
}

// Load returns the stored handle and whether one exists
func (hs *HandleStore) Load() (*Handle, bool, error) {
	var (
		h  *Handle
		ok bool
	)
	err := store.WithFileLock(hs.lock, func() error {
		entries, err := hs.read()
		if err != nil {
			return err
		}
		h, ok = entries[HandleKey]
		if h == nil {
			ok = false
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return h, ok, nil
}

// Delete removes the stored handle. Deleting when none exists is not an error.
func (hs *HandleStore) Delete() error {
	return store.WithFileLock(hs.lock, func() error {
		entries, err := hs.read()
		if err != nil {
			return err
		}
		if _, ok := entries[HandleKey]; !ok {
			return nil
		}
		delete(entries, HandleKey)
		return hs.write(entries)
	})
}

func (hs *HandleStore) read() (map[string]*Handle, error) {
	data, err := hs.fs.ReadFile(hs.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]*Handle{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read handle store: %w", err)
	}

	entries := map[string]*Handle{}
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse handle store: %w", err)
	}
	if entries == nil {
		entries = map[string]*Handle{}
	}
	return entries, nil
}

func (hs *HandleStore) write(entries map[string]*Handle) error {
	data, err := yaml.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to marshal handle store: %w", err)
	}
	if err := store.WriteFileAtomic(hs.fs, hs.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write handle store: %w", err)
	}
	return nil
}
