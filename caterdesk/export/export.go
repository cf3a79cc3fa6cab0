// Package export produces backup files of the document.
//
// Exporting happens in two steps: Generate builds the backup in memory
// (pretty-printed JSON plus a summary of what it contains) and WriteToPath
// puts it on disk. Keeping them apart lets tests check the content without
// touching the filesystem.
package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caterdesk/caterdesk/caterdesk/filesync"
	"github.com/caterdesk/caterdesk/caterdesk/store"
	"github.com/caterdesk/caterdesk/types"
)

// DocumentSource is the part of the document store export reads
type DocumentSource interface {
	GetDocument() (*types.Document, error)
}

// Generate serializes the current document as a backup taken at now
func Generate(src DocumentSource, now time.Time) (*Backup, error) {
	doc, err := src.GetDocument()
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	return FromDocument(doc, now)
}

// FromDocument builds a backup of doc
func FromDocument(doc *types.Document, now time.Time) (*Backup, error) {
	content, err := doc.MarshalPretty()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize document: %w", err)
	}
	return &Backup{
		Filename: SuggestedFilename(now),
		Content:  content,
		Counts: Counts{
			Dishes:  len(doc.Dishes),
			Clients: len(doc.Clients),
			Events:  len(doc.Events),
		},
	}, nil
}

// WriteToPath writes the backup to path. When the file exists and
// Overwrite is not set, the prompter is asked; declining, or having no
// prompter, returns filesync.ErrCancelled and leaves the file alone.
func WriteToPath(ctx context.Context, b *Backup, path string, opts Options) error {
	fsys := opts.FileSystem
	if fsys == nil {
		fsys = store.OSFileSystem{}
	}

	if _, err := fsys.Stat(path); err == nil && !opts.Overwrite {
		if opts.Prompter == nil {
			return fmt.Errorf("%s already exists: %w", path, filesync.ErrCancelled)
		}
		ok, err := opts.Prompter.Confirm(ctx, fmt.Sprintf("%s already exists. Replace it?", path))
		if err != nil {
			return err
		}
		if !ok {
			return filesync.ErrCancelled
		}
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to check %s: %w", path, err)
	}

	if err := store.WriteFileAtomic(fsys, path, b.Content, 0644); err != nil {
		return fmt.Errorf("failed to write backup: %w", err)
	}
	return nil
}

// ExportToPath generates a backup and writes it to path
func ExportToPath(ctx context.Context, src DocumentSource, path string, now time.Time, opts Options) (*Backup, error) {
	b, err := Generate(src, now)
	if err != nil {
		return nil, err
	}
	if path == "" {
		path = b.Filename
	}
	if err := WriteToPath(ctx, b, path, opts); err != nil {
		return nil, err
	}
	return b, nil
}
