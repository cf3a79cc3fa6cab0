// Package caterdesk is the application shell of the catering manager. It
// owns the sync state and wires the document store, the auto-save handle
// store and the scheduler together, and offers typed access to dishes,
// clients and events.
package caterdesk

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/caterdesk/caterdesk/caterdesk/autosave"
	"github.com/caterdesk/caterdesk/caterdesk/filesync"
	"github.com/caterdesk/caterdesk/caterdesk/storage"
	"github.com/caterdesk/caterdesk/caterdesk/store"
)

// ErrNotFound is returned when an update names a record that does not exist
var ErrNotFound = errors.New("record not found")

// Config holds everything Open needs
type Config struct {
	// DataDir holds the document and the handle store
	DataDir string

	AutosaveInterval time.Duration
	SettleDelay      time.Duration

	Logger *slog.Logger

	// Prompter answers permission and overwrite questions. Nil means every
	// question that needs the user is refused.
	Prompter filesync.Prompter

	// OnStatus receives auto-save status changes
	OnStatus func(autosave.Status)

	// Now returns the current time; defaults to time.Now
	Now func() time.Time

	// FileSystem, LockFactory and Opener replace the OS-backed defaults
	FileSystem  store.FileSystem
	LockFactory store.FileLockFactory
	Opener      filesync.Opener
}

// App is an open data directory
type App struct {
	Store    store.Store
	State    *storage.SyncState
	Handles  *filesync.HandleStore
	Autosave *autosave.Scheduler

	prompter filesync.Prompter
	fs       store.FileSystem
	now      func() time.Time
	logger   *slog.Logger
}

// Open prepares the data directory, seeding an empty document if none
// exists. The scheduler is created but not started.
func Open(cfg Config) (*App, error) {
	if cfg.DataDir == "" {
		return nil, errors.New("data directory is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.FileSystem == nil {
		cfg.FileSystem = store.OSFileSystem{}
	}
	if cfg.LockFactory == nil {
		cfg.LockFactory = store.FlockFactory{}
	}
	if cfg.Opener == nil {
		cfg.Opener = filesync.LocalOpener(cfg.Prompter)
	}

	state := storage.NewSyncState()

	st, err := store.New(filepath.Join(cfg.DataDir, store.DefaultFileName),
		store.WithFileSystem(cfg.FileSystem),
		store.WithFileLockFactory(cfg.LockFactory),
		store.WithSyncState(state),
		store.WithLogger(cfg.Logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open document store: %w", err)
	}
	if err := st.Init(); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("failed to initialize document: %w", err)
	}

	handles, err := filesync.NewHandleStore(filepath.Join(cfg.DataDir, filesync.DefaultHandleFileName),
		filesync.WithHandleFileSystem(cfg.FileSystem),
		filesync.WithHandleLockFactory(cfg.LockFactory),
	)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("failed to open handle store: %w", err)
	}

	scheduler := autosave.New(st, state, handles, cfg.Opener, autosave.Config{
		Interval:    cfg.AutosaveInterval,
		SettleDelay: cfg.SettleDelay,
		Logger:      cfg.Logger,
		Now:         cfg.Now,
		OnStatus:    cfg.OnStatus,
	})

	return &App{
		Store:    st,
		State:    state,
		Handles:  handles,
		Autosave: scheduler,
		prompter: cfg.Prompter,
		fs:       cfg.FileSystem,
		now:      cfg.Now,
		logger:   cfg.Logger,
	}, nil
}

// Close stops the scheduler and releases the store
func (a *App) Close() error {
	a.Autosave.Stop()
	return a.Store.Close()
}
