// Package imports replaces the document with the content of a backup file.
//
// An import is all or nothing: the file is parsed and its shape validated
// first, and only a valid file replaces the stored document. A rejected
// import leaves the store untouched.
package imports

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caterdesk/caterdesk/caterdesk/store"
	"github.com/caterdesk/caterdesk/types"
)

// ErrInvalidDocument is returned when an import file is rejected
var ErrInvalidDocument = errors.New("invalid import document")

// DocumentWriter is the part of the document store an import writes to
type DocumentWriter interface {
	SaveDocument(doc *types.Document) error
}

// Parse validates data and decodes it as a document
func Parse(data []byte) (*types.Document, ValidationResult, error) {
	result := Validate(data)
	if !result.Valid {
		return nil, result, fmt.Errorf("%w: %s", ErrInvalidDocument, strings.Join(result.Problems, "; "))
	}

	doc := &types.Document{}
	if err := json.Unmarshal(data, doc); err != nil {
		result = ValidationResult{Problems: []string{err.Error()}}
		return nil, result, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	doc.Normalize()
	return doc, result, nil
}

// Import parses data and, unless DryRun is set, replaces the document with
// it. The result is returned even when the import is rejected.
func Import(dst DocumentWriter, data []byte, options ImportOptions) (*ImportResult, error) {
	start := time.Now()
	result := &ImportResult{
		Warnings: make([]string, 0),
		Summary:  ImportSummary{StartedAt: start},
	}
	defer func() {
		result.Summary.CompletedAt = time.Now()
		result.Summary.ProcessingTime = result.Summary.CompletedAt.Sub(start).String()
	}()

	doc, validation, err := Parse(data)
	result.Validation = validation
	if err != nil {
		return result, err
	}

	result.Summary.Dishes = len(doc.Dishes)
	result.Summary.Clients = len(doc.Clients)
	result.Summary.Events = len(doc.Events)
	result.Warnings = append(result.Warnings, recordWarnings(doc)...)

	if options.DryRun {
		return result, nil
	}
	if err := dst.SaveDocument(doc); err != nil {
		return result, fmt.Errorf("failed to replace document: %w", err)
	}
	result.Applied = true
	return result, nil
}

// ImportFromPath reads the file at path and imports it
func ImportFromPath(dst DocumentWriter, path string, options ImportOptions) (*ImportResult, error) {
	fsys := options.FileSystem
	if fsys == nil {
		fsys = store.OSFileSystem{}
	}
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read import file: %w", err)
	}
	return Import(dst, data, options)
}
