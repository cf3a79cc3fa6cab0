// Package autosave periodically copies the document to the user's
// auto-save file while it has unsynced changes.
//
// The scheduler moves through Inactive, Permission Needed, Active, Syncing
// and Failed. It never prompts on its own: only SyncNow and Activate, which
// run on behalf of the user, may ask for permission. A write failure during
// an automatic tick forgets the stored handle so the user has to activate
// auto-save again.
package autosave

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/caterdesk/caterdesk/caterdesk/filesync"
	"github.com/caterdesk/caterdesk/caterdesk/storage"
	"github.com/caterdesk/caterdesk/types"
)

const (
	// DefaultInterval is the tick period when none is configured
	DefaultInterval = 15 * time.Second

	// DefaultSettleDelay is how long Syncing stays visible after a write
	DefaultSettleDelay = 500 * time.Millisecond

	// SuggestedFileName is the default name of the auto-save file
	SuggestedFileName = "catering-autosave.json"
)

var (
	// ErrNotConfigured is returned by SyncNow when no handle is stored
	ErrNotConfigured = errors.New("auto-save is not configured")

	// ErrSyncInProgress is returned by SyncNow while another write runs
	ErrSyncInProgress = errors.New("a sync is already in progress")
)

// DocumentSource is the part of the document store the scheduler reads
type DocumentSource interface {
	GetDocument() (*types.Document, error)
}

// HandleStorage persists the auto-save handle
type HandleStorage interface {
	Load() (*filesync.Handle, bool, error)
	Save(h *filesync.Handle) error
	Delete() error
}

// Config holds the tunables of a Scheduler. Zero values select defaults,
// except SettleDelay where a negative value disables the delay.
type Config struct {
	Interval    time.Duration
	SettleDelay time.Duration
	Logger      *slog.Logger

	// Now returns the current time, for last-synced timestamps
	Now func() time.Time

	// OnStatus is called after every status change, outside any lock
	OnStatus func(Status)
}

// Scheduler runs the auto-save loop
type Scheduler struct {
	docs    DocumentSource
	state   *storage.SyncState
	handles HandleStorage
	open    filesync.Opener
	cfg     Config
	logger  *slog.Logger

	mu      sync.Mutex
	status  Status
	target  filesync.Target
	base    context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	lastErr error

	// binding changes whenever the target is replaced or dropped, so a
	// write that outlived its binding cannot fail the new one
	binding uint64

	// writing is the in-flight latch shared by ticks and manual syncs
	writing atomic.Bool
}

// New creates a stopped scheduler in the Inactive state
func New(docs DocumentSource, state *storage.SyncState, handles HandleStorage, open filesync.Opener, cfg Config) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.SettleDelay == 0 {
		cfg.SettleDelay = DefaultSettleDelay
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		docs:    docs,
		state:   state,
		handles: handles,
		open:    open,
		cfg:     cfg,
		logger:  logger.With("component", "autosave"),
		status:  StatusInactive,
	}
}

// Status returns the current indicator value
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// LastSynced returns the time of the last successful write, or the zero time
func (s *Scheduler) LastSynced() time.Time {
	return s.state.LastSynced()
}

// LastError returns the error that moved the scheduler to Failed, if any
func (s *Scheduler) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Interval returns the configured tick period
func (s *Scheduler) Interval() time.Duration {
	return s.cfg.Interval
}

// Check evaluates the stored handle without arming the loop and sets the
// status accordingly. It never prompts.
func (s *Scheduler) Check() (Status, error) {
	target, status, err := s.evaluate()
	if err != nil {
		return s.Status(), err
	}
	s.mu.Lock()
	s.target = target
	s.mu.Unlock()
	s.setStatus(status)
	return status, nil
}

// Start stops any running loop, then loads the handle and checks write
// permission without prompting. With a handle and permission the loop is
// armed and runs until ctx is done or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.Stop()

	target, status, err := s.evaluate()
	if err != nil {
		s.setStatus(StatusInactive)
		return err
	}

	s.mu.Lock()
	s.base = ctx
	s.target = target
	s.binding++
	s.lastErr = nil
	if status == StatusActive {
		loopCtx, cancel := context.WithCancel(ctx)
		done := make(chan struct{})
		s.cancel = cancel
		s.done = done
		go s.run(loopCtx, done)
	}
	s.mu.Unlock()

	s.setStatus(status)
	s.logger.Debug("scheduler started", "status", status.String(), "interval", s.cfg.Interval)
	return nil
}

// Stop disarms the loop and waits for it to exit. A write in flight is
// allowed to finish. The status is left unchanged.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

// evaluate loads the handle and checks permission
func (s *Scheduler) evaluate() (filesync.Target, Status, error) {
	h, ok, err := s.handles.Load()
	if err != nil {
		return nil, StatusInactive, fmt.Errorf("failed to load auto-save handle: %w", err)
	}
	if !ok {
		return nil, StatusInactive, nil
	}

	target := s.open(h)
	if !filesync.CheckPermission(target, true) {
		return target, StatusPermissionNeeded, nil
	}
	return target, StatusActive, nil
}

func (s *Scheduler) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = s.Tick(ctx)
		}
	}
}

// Tick performs one timer step. It only acts while Active and dirty, and
// skips when another write holds the latch. A write failure moves the
// scheduler to Failed, disarms the loop and deletes the stored handle.
func (s *Scheduler) Tick(ctx context.Context) error {
	s.mu.Lock()
	status, target, binding := s.status, s.target, s.binding
	s.mu.Unlock()

	if status != StatusActive || target == nil {
		return nil
	}
	if !s.state.Dirty() {
		return nil
	}
	if !s.writing.CompareAndSwap(false, true) {
		s.logger.Debug("tick skipped, write in progress")
		return nil
	}
	defer s.writing.Store(false)

	s.setStatus(StatusSyncing)
	if err := s.write(ctx, target); err != nil {
		s.fail(binding, target, err)
		return err
	}

	s.settle(ctx)
	s.swapStatus(StatusSyncing, StatusActive)
	return nil
}

// SyncNow writes the document immediately on behalf of the user. It may
// prompt for permission; a refusal is returned as ErrPermissionDenied and
// keeps the handle. A write failure is returned and also keeps the handle.
func (s *Scheduler) SyncNow(ctx context.Context) error {
	h, ok, err := s.handles.Load()
	if err != nil {
		return fmt.Errorf("failed to load auto-save handle: %w", err)
	}
	if !ok {
		return ErrNotConfigured
	}

	if !s.writing.CompareAndSwap(false, true) {
		return ErrSyncInProgress
	}
	defer s.writing.Store(false)

	target := s.open(h)
	if !filesync.CheckPermission(target, true) {
		granted, err := filesync.RequestPermission(ctx, target, true)
		if err != nil {
			return err
		}
		if !granted {
			return fmt.Errorf("write access to %s: %w", target.DisplayName(), filesync.ErrPermissionDenied)
		}
		if err := s.handles.Save(h); err != nil {
			return fmt.Errorf("failed to persist permission grant: %w", err)
		}
	}

	prev := s.Status()
	if prev == StatusActive {
		s.setStatus(StatusSyncing)
	}
	err = s.write(ctx, target)
	if prev == StatusActive {
		s.swapStatus(StatusSyncing, StatusActive)
	}
	if err != nil {
		s.logger.Warn("manual sync failed", "target", target.DisplayName(), "error", err)
		return err
	}
	s.logger.Info("manual sync complete", "target", target.DisplayName())

	if prev == StatusPermissionNeeded {
		return s.restart()
	}
	return nil
}

// Activate asks for write access to h and, once granted, stores it as the
// auto-save handle, marks the document dirty so the next tick writes it, and
// restarts the scheduler. Nothing is stored when permission is refused.
func (s *Scheduler) Activate(ctx context.Context, h *filesync.Handle) error {
	if h == nil {
		return errors.New("handle is nil")
	}
	target := s.open(h)
	granted, err := filesync.RequestPermission(ctx, target, true)
	if err != nil {
		return err
	}
	if !granted {
		return fmt.Errorf("write access to %s: %w", target.DisplayName(), filesync.ErrPermissionDenied)
	}

	s.detach()
	if err := s.handles.Save(h); err != nil {
		return fmt.Errorf("failed to store auto-save handle: %w", err)
	}
	s.state.MarkDirty()
	s.logger.Info("auto-save activated", "target", target.DisplayName())

	return s.restart()
}

// Deactivate stops the loop and forgets the stored handle
func (s *Scheduler) Deactivate(ctx context.Context) error {
	s.detach()
	s.Stop()
	if err := s.handles.Delete(); err != nil {
		return fmt.Errorf("failed to delete auto-save handle: %w", err)
	}

	s.mu.Lock()
	s.target = nil
	s.lastErr = nil
	s.mu.Unlock()

	s.setStatus(StatusInactive)
	s.logger.Info("auto-save deactivated")
	return nil
}

// Reload re-reads the handle, restarting the loop if the scheduler was
// started before. Used when another process changed the handle store.
// A Failed scheduler stays Failed until a handle is stored again.
func (s *Scheduler) Reload() error {
	if s.Status() == StatusFailed {
		_, ok, err := s.handles.Load()
		if err != nil {
			return fmt.Errorf("failed to load auto-save handle: %w", err)
		}
		if !ok {
			return nil
		}
	}
	return s.restart()
}

func (s *Scheduler) restart() error {
	s.mu.Lock()
	base := s.base
	s.mu.Unlock()

	if base != nil && base.Err() == nil {
		return s.Start(base)
	}
	_, err := s.Check()
	return err
}

// write serializes the document and replaces the target's content. The
// revision is taken before reading so edits made meanwhile stay dirty.
func (s *Scheduler) write(ctx context.Context, target filesync.Target) error {
	rev := s.state.Revision()

	doc, err := s.docs.GetDocument()
	if err != nil {
		return fmt.Errorf("failed to read document: %w", err)
	}
	data, err := doc.MarshalPretty()
	if err != nil {
		return fmt.Errorf("failed to serialize document: %w", err)
	}

	// A started write runs to completion even if the loop is stopped.
	if err := filesync.WriteWhole(context.WithoutCancel(ctx), target, data); err != nil {
		return err
	}

	s.state.MarkSynced(rev, s.cfg.Now())
	s.logger.Debug("document synced", "target", target.DisplayName(), "revision", rev, "bytes", len(data))
	return nil
}

// detach drops the current target so a write still in flight for it
// cannot change the status or the stored handle when it finishes
func (s *Scheduler) detach() {
	s.mu.Lock()
	s.target = nil
	s.binding++
	s.mu.Unlock()
}

func (s *Scheduler) fail(binding uint64, target filesync.Target, err error) {
	s.mu.Lock()
	if s.binding != binding {
		s.mu.Unlock()
		s.logger.Warn("auto-save write failed after the auto-save file changed",
			"target", target.DisplayName(),
			"error", err)
		return
	}
	s.logger.Error("auto-save failed, forgetting the auto-save file",
		"target", target.DisplayName(),
		"error", err)
	s.binding++
	cancel := s.cancel
	s.cancel, s.done = nil, nil
	s.target = nil
	s.lastErr = err
	s.mu.Unlock()

	// The loop goroutine may be the caller, so it is not waited for.
	if cancel != nil {
		cancel()
	}
	s.setStatus(StatusFailed)

	if err := s.handles.Delete(); err != nil {
		s.logger.Error("failed to delete auto-save handle", "error", err)
	}
}

func (s *Scheduler) settle(ctx context.Context) {
	if s.cfg.SettleDelay <= 0 {
		return
	}
	timer := time.NewTimer(s.cfg.SettleDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

func (s *Scheduler) setStatus(status Status) {
	s.mu.Lock()
	changed := s.status != status
	s.status = status
	s.mu.Unlock()

	if changed && s.cfg.OnStatus != nil {
		s.cfg.OnStatus(status)
	}
}

// swapStatus sets to only if the status is still from
func (s *Scheduler) swapStatus(from, to Status) {
	s.mu.Lock()
	if s.status != from {
		s.mu.Unlock()
		return
	}
	s.status = to
	s.mu.Unlock()

	if s.cfg.OnStatus != nil {
		s.cfg.OnStatus(to)
	}
}
