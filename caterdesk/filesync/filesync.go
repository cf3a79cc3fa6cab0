// Package filesync keeps an optional reference to a user-chosen file and
// writes whole documents to it.
//
// The reference (a Handle) is persisted in its own small store, apart from
// the business document, so losing or corrupting one can never affect the
// other. Writing goes through a Target, a capability object built from the
// handle: production code binds it to a local file (LocalTarget), tests use
// MemoryTarget.
package filesync

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrPermissionDenied is returned when the target refuses access
	ErrPermissionDenied = errors.New("permission denied")

	// ErrCancelled signals that the user backed out of a prompt or picker.
	// It is not a failure and callers treat it as a no-op.
	ErrCancelled = errors.New("cancelled by user")
)

// Mode is the access a caller needs on the target
type Mode string

const (
	ModeRead      Mode = "read"
	ModeReadWrite Mode = "readwrite"
)

// ModeFor maps the boolean used by callers to a Mode
func ModeFor(needsWrite bool) Mode {
	if needsWrite {
		return ModeReadWrite
	}
	return ModeRead
}

// PermissionState is the answer of a permission query
type PermissionState string

const (
	PermissionGranted PermissionState = "granted"
	PermissionDenied  PermissionState = "denied"
	// PermissionPrompt means access is possible but the user must confirm
	PermissionPrompt PermissionState = "prompt"
)

// Handle is the persisted reference to the auto-save file
type Handle struct {
	Name      string    `yaml:"name"`
	Path      string    `yaml:"path"`
	Grants    []Mode    `yaml:"grants,omitempty"`
	CreatedAt time.Time `yaml:"created_at"`
}

// NewHandle creates a handle with no grants
func NewHandle(name, path string, now time.Time) *Handle {
	return &Handle{Name: name, Path: path, CreatedAt: now}
}

// Granted reports whether mode was granted. A write grant covers reads.
func (h *Handle) Granted(mode Mode) bool {
	for _, g := range h.Grants {
		if g == mode || g == ModeReadWrite {
			return true
		}
	}
	return false
}

// Grant records that the user allowed mode
func (h *Handle) Grant(mode Mode) {
	if !h.Granted(mode) {
		h.Grants = append(h.Grants, mode)
	}
}

// Writable is a scoped write session on a target. Close commits what was
// written; Abort discards it. Exactly one of them must be called.
type Writable interface {
	Write(p []byte) (int, error)
	Close() error
	Abort() error
}

// Target is a capability-bearing sync destination
type Target interface {
	// QueryPermission reports the current permission state. It never prompts.
	QueryPermission(mode Mode) (PermissionState, error)

	// RequestPermission may prompt the user. Only call it from a
	// user-initiated action.
	RequestPermission(ctx context.Context, mode Mode) (PermissionState, error)

	// OpenWritable starts a write session
	OpenWritable(ctx context.Context) (Writable, error)

	// DisplayName names the target for status output
	DisplayName() string
}

// Opener builds the Target bound to a stored handle
type Opener func(h *Handle) Target

// WriteError wraps any failure of WriteWhole so callers can tell a failed
// sync apart from other errors with errors.As
type WriteError struct {
	Target string
	Op     string
	Err    error
}

// Error implements the error interface
func (e *WriteError) Error() string {
	return fmt.Sprintf("write to %s failed during %s: %v", e.Target, e.Op, e.Err)
}

// Unwrap returns the underlying error
func (e *WriteError) Unwrap() error {
	return e.Err
}

// CheckPermission asks the target, without prompting, whether access is
// granted. Any error counts as not granted.
func CheckPermission(t Target, needsWrite bool) bool {
	state, err := t.QueryPermission(ModeFor(needsWrite))
	return err == nil && state == PermissionGranted
}

// RequestPermission returns true when access is already granted, otherwise
// prompts through the target. The only error it returns is ErrCancelled or a
// failure of the target itself; a plain refusal is (false, nil).
func RequestPermission(ctx context.Context, t Target, needsWrite bool) (bool, error) {
	mode := ModeFor(needsWrite)
	state, err := t.QueryPermission(mode)
	if err != nil {
		return false, err
	}
	if state == PermissionGranted {
		return true, nil
	}

	state, err = t.RequestPermission(ctx, mode)
	if err != nil {
		return false, err
	}
	return state == PermissionGranted, nil
}

// WriteWhole replaces the target's content with text. Write permission must
// already be granted. The write session is always finalized: committed on
// success, aborted on any failure.
func WriteWhole(ctx context.Context, t Target, text []byte) (err error) {
	name := t.DisplayName()

	state, err := t.QueryPermission(ModeReadWrite)
	if err != nil {
		return &WriteError{Target: name, Op: "permission", Err: err}
	}
	if state != PermissionGranted {
		return &WriteError{Target: name, Op: "permission", Err: ErrPermissionDenied}
	}

	w, err := t.OpenWritable(ctx)
	if err != nil {
		return &WriteError{Target: name, Op: "open", Err: err}
	}

	finalized := false
	defer func() {
		if !finalized {
			_ = w.Abort()
		}
	}()

	if _, err := w.Write(text); err != nil {
		return &WriteError{Target: name, Op: "write", Err: err}
	}
	if err := ctx.Err(); err != nil {
		return &WriteError{Target: name, Op: "write", Err: err}
	}

	finalized = true
	if err := w.Close(); err != nil {
		return &WriteError{Target: name, Op: "close", Err: err}
	}
	return nil
}
