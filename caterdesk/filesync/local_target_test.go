package filesync

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLocalTarget(t *testing.T) {
	ctx := context.Background()

	newTarget := func(t *testing.T, prompter Prompter) (*LocalTarget, string) {
		t.Helper()
		path := filepath.Join(t.TempDir(), "catering-autosave.json")
		h := NewHandle("catering-autosave.json", path, time.Now())
		return NewLocalTarget(h, prompter), path
	}

	t.Run("query without grant needs a prompt", func(t *testing.T) {
		target, _ := newTarget(t, nil)
		state, err := target.QueryPermission(ModeReadWrite)
		if err != nil {
			t.Fatalf("QueryPermission failed: %v", err)
		}
		if state != PermissionPrompt {
			t.Errorf("expected prompt, got %s", state)
		}
	})

	t.Run("request asks the prompter and records the grant", func(t *testing.T) {
		prompter := &StaticPrompter{Answer: true}
		target, path := newTarget(t, prompter)

		state, err := target.RequestPermission(ctx, ModeReadWrite)
		if err != nil {
			t.Fatalf("RequestPermission failed: %v", err)
		}
		if state != PermissionGranted {
			t.Fatalf("expected granted, got %s", state)
		}
		if len(prompter.Asked) != 1 || !strings.Contains(prompter.Asked[0], path) {
			t.Errorf("expected one question naming the path, got %v", prompter.Asked)
		}
		if !target.Handle().Granted(ModeReadWrite) {
			t.Error("expected grant on handle")
		}

		// A second request does not prompt again.
		if _, err := target.RequestPermission(ctx, ModeReadWrite); err != nil {
			t.Fatalf("RequestPermission failed: %v", err)
		}
		if len(prompter.Asked) != 1 {
			t.Errorf("expected no second prompt, got %d", len(prompter.Asked))
		}
	})

	t.Run("refusal leaves the handle untouched", func(t *testing.T) {
		target, _ := newTarget(t, &StaticPrompter{Answer: false})
		state, err := target.RequestPermission(ctx, ModeReadWrite)
		if err != nil {
			t.Fatalf("RequestPermission failed: %v", err)
		}
		if state != PermissionDenied {
			t.Errorf("expected denied, got %s", state)
		}
		if len(target.Handle().Grants) != 0 {
			t.Error("expected no grants")
		}
	})

	t.Run("cancel is reported", func(t *testing.T) {
		target, _ := newTarget(t, &StaticPrompter{Err: ErrCancelled})
		if _, err := target.RequestPermission(ctx, ModeReadWrite); !errors.Is(err, ErrCancelled) {
			t.Errorf("expected ErrCancelled, got %v", err)
		}
	})

	t.Run("no prompter denies", func(t *testing.T) {
		target, _ := newTarget(t, nil)
		state, _ := target.RequestPermission(ctx, ModeReadWrite)
		if state != PermissionDenied {
			t.Errorf("expected denied, got %s", state)
		}
	})

	t.Run("write whole replaces content atomically", func(t *testing.T) {
		target, path := newTarget(t, nil)
		target.Handle().Grant(ModeReadWrite)

		if err := WriteWhole(ctx, target, []byte("first")); err != nil {
			t.Fatalf("WriteWhole failed: %v", err)
		}
		if err := WriteWhole(ctx, target, []byte("second")); err != nil {
			t.Fatalf("WriteWhole failed: %v", err)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("ReadFile failed: %v", err)
		}
		if string(data) != "second" {
			t.Errorf("expected second, got %q", data)
		}

		entries, _ := os.ReadDir(filepath.Dir(path))
		if len(entries) != 1 {
			names := make([]string, 0, len(entries))
			for _, e := range entries {
				names = append(names, e.Name())
			}
			t.Errorf("expected only the target file, got %v", names)
		}
	})

	t.Run("missing directory is denied", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "gone", "autosave.json")
		h := NewHandle("autosave.json", path, time.Now())
		h.Grant(ModeReadWrite)
		target := NewLocalTarget(h, nil)

		if CheckPermission(target, true) {
			t.Error("expected permission check to fail for a missing directory")
		}
		err := WriteWhole(ctx, target, []byte("x"))
		if !errors.Is(err, ErrPermissionDenied) {
			t.Errorf("expected ErrPermissionDenied, got %v", err)
		}
	})
}
