package store

import (
	"log/slog"

	"github.com/caterdesk/caterdesk/caterdesk/storage"
)

// Option configures the JSON slot store
type Option func(*jsonSlotStore)

// WithFileSystem sets a custom FileSystem implementation
func WithFileSystem(fs FileSystem) Option {
	return func(s *jsonSlotStore) {
		s.fs = fs
	}
}

// WithFileLockFactory sets a custom FileLockFactory implementation
func WithFileLockFactory(factory FileLockFactory) Option {
	return func(s *jsonSlotStore) {
		s.lockFactory = factory
	}
}

// WithSyncState shares the shell's sync state with the store's write path
func WithSyncState(state *storage.SyncState) Option {
	return func(s *jsonSlotStore) {
		s.state = state
	}
}

// WithIDFunc overrides id generation, for deterministic tests
func WithIDFunc(fn func() string) Option {
	return func(s *jsonSlotStore) {
		s.newID = fn
	}
}

// WithLogger sets the logger used for recoverable problems such as a
// corrupt slot
func WithLogger(logger *slog.Logger) Option {
	return func(s *jsonSlotStore) {
		s.logger = logger
	}
}
