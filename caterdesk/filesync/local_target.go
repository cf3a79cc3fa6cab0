package filesync

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// LocalTarget binds a Handle to a file on the local filesystem.
//
// Permission has two parts, mirroring a browser file handle: the user's
// grant, recorded on the handle, and the host's own access check. A query
// never prompts; RequestPermission asks the Prompter and records the grant
// on the handle, which the caller then persists.
type LocalTarget struct {
	handle   *Handle
	prompter Prompter
}

// NewLocalTarget returns the target for h. prompter may be nil, in which
// case requests that would need a prompt are denied.
func NewLocalTarget(h *Handle, prompter Prompter) *LocalTarget {
	return &LocalTarget{handle: h, prompter: prompter}
}

// LocalOpener returns an Opener producing LocalTargets that share prompter
func LocalOpener(prompter Prompter) Opener {
	return func(h *Handle) Target {
		return NewLocalTarget(h, prompter)
	}
}

// Handle returns the handle the target is bound to
func (t *LocalTarget) Handle() *Handle {
	return t.handle
}

// DisplayName implements Target.DisplayName
func (t *LocalTarget) DisplayName() string {
	if t.handle.Name != "" {
		return t.handle.Name
	}
	return filepath.Base(t.handle.Path)
}

// QueryPermission implements Target.QueryPermission
func (t *LocalTarget) QueryPermission(mode Mode) (PermissionState, error) {
	if err := t.checkHost(mode); err != nil {
		return PermissionDenied, nil
	}
	if !t.handle.Granted(mode) {
		return PermissionPrompt, nil
	}
	return PermissionGranted, nil
}

// RequestPermission implements Target.RequestPermission
func (t *LocalTarget) RequestPermission(ctx context.Context, mode Mode) (PermissionState, error) {
	state, err := t.QueryPermission(mode)
	if err != nil || state != PermissionPrompt {
		return state, err
	}
	if t.prompter == nil {
		return PermissionDenied, nil
	}

	verb := "read"
	if mode == ModeReadWrite {
		verb = "write to"
	}
	ok, err := t.prompter.Confirm(ctx, fmt.Sprintf("Allow caterdesk to %s %s?", verb, t.handle.Path))
	if err != nil {
		return PermissionDenied, err
	}
	if !ok {
		return PermissionDenied, nil
	}

	t.handle.Grant(mode)
	return PermissionGranted, nil
}

// checkHost verifies the path is usable. A file that does not exist yet is
// checked through its directory.
func (t *LocalTarget) checkHost(mode Mode) error {
	path := t.handle.Path
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if mode == ModeRead {
			return err
		}
		path = filepath.Dir(path)
	}
	return hostAccess(path, mode)
}

// OpenWritable implements Target.OpenWritable. Content goes to a temp file
// in the same directory, renamed over the target on Close.
func (t *LocalTarget) OpenWritable(ctx context.Context) (Writable, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dir := filepath.Dir(t.handle.Path)
	f, err := os.CreateTemp(dir, "."+filepath.Base(t.handle.Path)+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	return &localWritable{file: f, target: t.handle.Path}, nil
}

type localWritable struct {
	file   *os.File
	target string
	done   bool
}

func (w *localWritable) Write(p []byte) (int, error) {
	return w.file.Write(p)
}

func (w *localWritable) Close() error {
	if w.done {
		return nil
	}
	w.done = true

	tmp := w.file.Name()
	if err := w.file.Sync(); err != nil {
		_ = w.file.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := w.file.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Chmod(tmp, 0644); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, w.target); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

func (w *localWritable) Abort() error {
	if w.done {
		return nil
	}
	w.done = true
	_ = w.file.Close()
	return os.Remove(w.file.Name())
}
