package filesync

import (
	"context"
	"errors"
	"testing"
)

func TestWriteWhole(t *testing.T) {
	ctx := context.Background()

	t.Run("commits the full text", func(t *testing.T) {
		target := NewMemoryTarget("autosave.json")
		if err := WriteWhole(ctx, target, []byte(`{"dishes":[]}`)); err != nil {
			t.Fatalf("WriteWhole failed: %v", err)
		}
		if got := string(target.Content()); got != `{"dishes":[]}` {
			t.Errorf("unexpected content %q", got)
		}
		if target.OpenSessions() != 0 {
			t.Errorf("expected no open sessions, got %d", target.OpenSessions())
		}
	})

	t.Run("requires granted permission", func(t *testing.T) {
		target := NewMemoryTarget("autosave.json")
		target.Permission = PermissionPrompt

		err := WriteWhole(ctx, target, []byte("x"))
		if !errors.Is(err, ErrPermissionDenied) {
			t.Fatalf("expected ErrPermissionDenied, got %v", err)
		}
		if target.Opened != 0 {
			t.Error("expected no write session to be opened")
		}
		if target.RequestCalls != 0 {
			t.Error("expected WriteWhole never to prompt")
		}
	})

	t.Run("write failure aborts the session", func(t *testing.T) {
		target := NewMemoryTarget("autosave.json")
		target.WriteErr = errors.New("device removed")

		err := WriteWhole(ctx, target, []byte("x"))
		var writeErr *WriteError
		if !errors.As(err, &writeErr) {
			t.Fatalf("expected *WriteError, got %T: %v", err, err)
		}
		if writeErr.Op != "write" {
			t.Errorf("expected op write, got %q", writeErr.Op)
		}
		if !errors.Is(err, target.WriteErr) {
			t.Error("expected underlying error to be wrapped")
		}
		if target.Aborted != 1 || target.OpenSessions() != 0 {
			t.Errorf("expected session to be aborted, aborted=%d open=%d", target.Aborted, target.OpenSessions())
		}
	})

	t.Run("close failure is reported and nothing stays open", func(t *testing.T) {
		target := NewMemoryTarget("autosave.json")
		target.CloseErr = errors.New("quota exceeded")

		err := WriteWhole(ctx, target, []byte("x"))
		var writeErr *WriteError
		if !errors.As(err, &writeErr) || writeErr.Op != "close" {
			t.Fatalf("expected close WriteError, got %v", err)
		}
		if target.OpenSessions() != 0 {
			t.Errorf("expected no open sessions, got %d", target.OpenSessions())
		}
	})

	t.Run("cancelled context aborts before commit", func(t *testing.T) {
		target := NewMemoryTarget("autosave.json")
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		if err := WriteWhole(cctx, target, []byte("x")); !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		if target.Writes() != 0 {
			t.Error("expected nothing to be committed")
		}
		if target.OpenSessions() != 0 {
			t.Errorf("expected no open sessions, got %d", target.OpenSessions())
		}
	})
}

func TestCheckPermissionNeverPrompts(t *testing.T) {
	for _, state := range []PermissionState{PermissionGranted, PermissionPrompt, PermissionDenied} {
		t.Run(string(state), func(t *testing.T) {
			target := NewMemoryTarget("f")
			target.Permission = state

			got := CheckPermission(target, true)
			if got != (state == PermissionGranted) {
				t.Errorf("CheckPermission() = %v for state %s", got, state)
			}
			if target.RequestCalls != 0 {
				t.Error("expected no prompt")
			}
		})
	}
}

func TestRequestPermission(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name        string
		permission  PermissionState
		answer      PermissionState
		answerErr   error
		want        bool
		wantErr     error
		wantPrompts int
	}{
		{name: "already granted", permission: PermissionGranted, want: true, wantPrompts: 0},
		{name: "user allows", permission: PermissionPrompt, answer: PermissionGranted, want: true, wantPrompts: 1},
		{name: "user refuses", permission: PermissionPrompt, answer: PermissionDenied, want: false, wantPrompts: 1},
		{name: "user cancels", permission: PermissionPrompt, answerErr: ErrCancelled, want: false, wantErr: ErrCancelled, wantPrompts: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := NewMemoryTarget("f")
			target.Permission = tt.permission
			target.RequestAnswer = tt.answer
			target.RequestErr = tt.answerErr

			got, err := RequestPermission(ctx, target, true)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
			if got != tt.want {
				t.Errorf("RequestPermission() = %v, want %v", got, tt.want)
			}
			if target.RequestCalls != tt.wantPrompts {
				t.Errorf("expected %d prompts, got %d", tt.wantPrompts, target.RequestCalls)
			}
		})
	}
}

func TestHandleGrants(t *testing.T) {
	h := &Handle{Name: "f", Path: "/tmp/f"}
	if h.Granted(ModeRead) {
		t.Error("expected no grants on a new handle")
	}
	h.Grant(ModeReadWrite)
	h.Grant(ModeReadWrite)
	if !h.Granted(ModeRead) || !h.Granted(ModeReadWrite) {
		t.Error("expected write grant to cover read")
	}
	if len(h.Grants) != 1 {
		t.Errorf("expected grant to be recorded once, got %v", h.Grants)
	}
}
