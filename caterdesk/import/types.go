package imports

import (
	"time"

	"github.com/caterdesk/caterdesk/caterdesk/store"
)

// ValidationResult is the outcome of checking an import file's shape
type ValidationResult struct {
	Valid    bool     `json:"valid"`
	Problems []string `json:"problems,omitempty"`
}

// ImportOptions configures the import behavior
type ImportOptions struct {
	// DryRun validates without replacing the document
	DryRun bool

	// FileSystem reads the import file; defaults to the OS
	FileSystem store.FileSystem
}

// ImportResult describes a completed or rejected import
type ImportResult struct {
	Validation ValidationResult `json:"validation"`

	// Warnings lists records that do not satisfy the field rules. They are
	// imported as they are.
	Warnings []string `json:"warnings"`

	// Applied is true when the document was replaced
	Applied bool `json:"applied"`

	Summary ImportSummary `json:"summary"`
}

// ImportSummary provides statistics about the import operation
type ImportSummary struct {
	Dishes         int       `json:"dishes"`
	Clients        int       `json:"clients"`
	Events         int       `json:"events"`
	ProcessingTime string    `json:"processing_time"`
	StartedAt      time.Time `json:"started_at"`
	CompletedAt    time.Time `json:"completed_at"`
}
