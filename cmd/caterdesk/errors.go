package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/caterdesk/caterdesk/caterdesk"
	"github.com/caterdesk/caterdesk/caterdesk/autosave"
	"github.com/caterdesk/caterdesk/caterdesk/filesync"
	imports "github.com/caterdesk/caterdesk/caterdesk/import"
	"github.com/caterdesk/caterdesk/internal/validation"
)

// CLIError represents a user-friendly CLI error with context and suggestions
type CLIError struct {
	Operation   string   // The operation that failed (e.g., "add dish", "import")
	Cause       string   // The underlying cause (e.g., "dish not found")
	Details     string   // Additional technical details
	Suggestions []string // Helpful suggestions for the user
	Underlying  error    // Original error for debugging
}

// Error implements the error interface
func (e *CLIError) Error() string {
	var msg strings.Builder

	// What was being done
	if e.Operation != "" {
		msg.WriteString(fmt.Sprintf("Failed to %s", e.Operation))
	} else {
		msg.WriteString("Operation failed")
	}

	// Why it failed, in the user's terms
	if e.Cause != "" {
		msg.WriteString(fmt.Sprintf(": %s", e.Cause))
	}

	// Raw error text, when it adds anything
	if e.Details != "" {
		msg.WriteString(fmt.Sprintf(" (%s)", e.Details))
	}

	// Numbered next steps
	if len(e.Suggestions) > 0 {
		msg.WriteString("\n\nSuggestions:")
		for i, suggestion := range e.Suggestions {
			msg.WriteString(fmt.Sprintf("\n  %d. %s", i+1, suggestion))
		}
	}

	return msg.String()
}

// Unwrap returns the underlying error for error chain compatibility
func (e *CLIError) Unwrap() error {
	return e.Underlying
}

// Constructors for the failures commands report most often

// NewValidationError creates an error for invalid flag values
func NewValidationError(operation, field, value string, suggestions ...string) *CLIError {
	return &CLIError{
		Operation:   operation,
		Cause:       fmt.Sprintf("invalid %s: %q", field, value),
		Suggestions: suggestions,
	}
}

// NewNotFoundError creates an error for missing records
func NewNotFoundError(operation, resource, id string, suggestions ...string) *CLIError {
	return &CLIError{
		Operation:   operation,
		Cause:       fmt.Sprintf("%s with ID %q not found", resource, id),
		Suggestions: suggestions,
		Underlying:  caterdesk.ErrNotFound,
	}
}

// NewConfigError creates an error for configuration issues
func NewConfigError(operation, issue string, suggestions ...string) *CLIError {
	return &CLIError{
		Operation:   operation,
		Cause:       fmt.Sprintf("configuration error: %s", issue),
		Suggestions: suggestions,
	}
}

// NewStoreError describes a failure of the data layer
func NewStoreError(operation string, underlying error, suggestions ...string) *CLIError {
	cause := "operation failed"
	details := ""

	if underlying != nil {
		details = underlying.Error()

		// Name the known failures of the data layer; anything else keeps
		// the generic cause with the raw message as details
		var verr *validation.Error
		var werr *filesync.WriteError
		switch {
		case errors.As(underlying, &verr):
			cause = "invalid data provided"
			details = strings.Join(verr.Problems, "; ")
		case errors.Is(underlying, imports.ErrInvalidDocument):
			cause = "the file is not a catering backup"
			suggestions = append(suggestions, "Import files need \"dishes\", \"clients\" and \"events\" arrays")
		case errors.Is(underlying, autosave.ErrNotConfigured):
			cause = "auto-save is not configured"
			suggestions = append(suggestions, "Run 'caterdesk autosave activate <file>' first")
		case errors.Is(underlying, autosave.ErrSyncInProgress):
			cause = "another sync is running"
		case errors.Is(underlying, filesync.ErrPermissionDenied):
			cause = "permission to write the file was denied"
			suggestions = append(suggestions, CommonSuggestions.CheckPerms, CommonSuggestions.Reactivate)
		case errors.As(underlying, &werr):
			cause = "writing the auto-save file failed"
			suggestions = append(suggestions, CommonSuggestions.Reactivate)
		case errors.Is(underlying, caterdesk.ErrNotFound):
			cause = "record not found"
			suggestions = append(suggestions, CommonSuggestions.CheckID)
		case strings.Contains(strings.ToLower(details), "failed to acquire lock"):
			cause = "data file is locked by another process"
		}
	}

	return &CLIError{
		Operation:   operation,
		Cause:       cause,
		Details:     details,
		Suggestions: suggestions,
		Underlying:  underlying,
	}
}

// WrapError wraps an existing error with CLI-friendly context
func WrapError(operation string, err error, suggestions ...string) error {
	if err == nil {
		return nil
	}

	// Already described by a command: only fill in the operation
	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		if cliErr.Operation == "" {
			cliErr.Operation = operation
		}
		return cliErr
	}

	// Cancellation is not a failure and passes through untouched.
	if errors.Is(err, filesync.ErrCancelled) {
		return err
	}

	return NewStoreError(operation, err, suggestions...)
}

// Common error messages and suggestions
var (
	CommonSuggestions = struct {
		CheckID     string
		CheckConfig string
		CheckFlags  string
		RunHelp     string
		CheckPerms  string
		Reactivate  string
	}{
		CheckID:     "Verify the ID exists (try the 'list' command first)",
		CheckConfig: "Check your configuration file or environment variables",
		CheckFlags:  "Check command line flags and their values",
		RunHelp:     "Run command with --help for usage information",
		CheckPerms:  "Check file permissions and directory access",
		Reactivate:  "Run 'caterdesk autosave activate <file>' to choose the file again",
	}
)
