// Package storage holds the state shared between the document store's write
// path and the autosave scheduler: the lock manager guarding the document and
// the sync state that replaces a process-wide dirty flag.
package storage

import (
	"sync/atomic"
	"time"
)

// SyncState tracks whether the document changed since the last successful
// auto-save write. It is owned by the application shell and handed by
// reference to the document store (which marks it dirty) and to the
// scheduler (which reads and clears it).
//
// Internally the flag is a pair of revisions: every MarkDirty bumps the
// current revision, and MarkSynced records the revision that reached the
// sync target. A write that raced with a mutation therefore leaves the state
// dirty.
type SyncState struct {
	revision   atomic.Uint64
	synced     atomic.Uint64
	lastSynced atomic.Int64
}

// NewSyncState returns a clean state
func NewSyncState() *SyncState {
	return &SyncState{}
}

// MarkDirty records that the document changed
func (s *SyncState) MarkDirty() {
	s.revision.Add(1)
}

// Dirty reports whether changes exist that were not written yet
func (s *SyncState) Dirty() bool {
	return s.revision.Load() != s.synced.Load()
}

// Revision returns the current revision. Callers snapshot it before reading
// the document and pass it to MarkSynced after the write succeeds.
func (s *SyncState) Revision() uint64 {
	return s.revision.Load()
}

// MarkSynced records that everything up to rev reached the sync target.
// The synced revision never moves backwards.
func (s *SyncState) MarkSynced(rev uint64, at time.Time) {
	for {
		cur := s.synced.Load()
		if rev <= cur {
			break
		}
		if s.synced.CompareAndSwap(cur, rev) {
			break
		}
	}
	s.lastSynced.Store(at.UnixNano())
}

// LastSynced returns the time of the last successful write, or the zero time
func (s *SyncState) LastSynced() time.Time {
	ns := s.lastSynced.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}
