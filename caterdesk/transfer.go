package caterdesk

import (
	"context"

	"github.com/caterdesk/caterdesk/caterdesk/export"
	imports "github.com/caterdesk/caterdesk/caterdesk/import"
)

// Export writes a backup to path, or to the suggested name when path is
// empty. An existing file is only replaced after confirmation unless
// overwrite is set.
func (a *App) Export(ctx context.Context, path string, overwrite bool) (*export.Backup, error) {
	return export.ExportToPath(ctx, a.Store, path, a.now(), export.Options{
		Overwrite:  overwrite,
		Prompter:   a.prompter,
		FileSystem: a.fs,
	})
}

// Import replaces the document with the backup at path
func (a *App) Import(path string, dryRun bool) (*imports.ImportResult, error) {
	result, err := imports.ImportFromPath(a.Store, path, imports.ImportOptions{
		DryRun:     dryRun,
		FileSystem: a.fs,
	})
	if err == nil && result.Applied {
		a.logger.Info("document replaced by import",
			"path", path,
			"dishes", result.Summary.Dishes,
			"clients", result.Summary.Clients,
			"events", result.Summary.Events)
	}
	return result, err
}
