package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/caterdesk/caterdesk/caterdesk"
	"github.com/caterdesk/caterdesk/caterdesk/autosave"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

// addServeCommand adds the long-running auto-save command
func (cli *CLI) addServeCommand() {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run auto-save until interrupted",
		Long: `Run the auto-save scheduler. Changes made by other caterdesk commands are
picked up from the data directory and written to the auto-save file on the
next check. Stop with Ctrl-C.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return cli.serve(ctx)
		},
	}
	cli.rootCmd.AddCommand(serveCmd)
}

// serve runs the scheduler and watches the data directory until ctx is done
func (cli *CLI) serve(ctx context.Context) error {
	app, err := cli.openApp(func(st autosave.Status) {
		cli.logger.Info("auto-save status changed", "status", st.String())
	})
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return WrapError("watch data directory", err)
	}
	defer func() { _ = watcher.Close() }()

	// Files are replaced by rename, so the directory is watched rather
	// than the files.
	dir := filepath.Dir(app.Store.Path())
	if err := watcher.Add(dir); err != nil {
		return WrapError("watch data directory", err, CommonSuggestions.CheckPerms)
	}

	if err := app.Autosave.Start(ctx); err != nil {
		return WrapError("start auto-save", err)
	}
	cli.logger.Info("serving",
		"data_dir", dir,
		"status", app.Autosave.Status().String(),
		"interval", app.Autosave.Interval())

	for {
		select {
		case <-ctx.Done():
			cli.logger.Info("shutting down")
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			cli.handleFileEvent(app, ev)
		case werr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			if errors.Is(werr, fsnotify.ErrEventOverflow) {
				// Events were lost; assume the document changed.
				app.State.MarkDirty()
			}
			cli.logger.Warn("file watcher error", "error", werr)
		}
	}
}

// handleFileEvent reacts to changes made by other processes: a new document
// needs writing, a new handle needs evaluating
func (cli *CLI) handleFileEvent(app *caterdesk.App, ev fsnotify.Event) {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Remove) {
		return
	}

	switch filepath.Base(ev.Name) {
	case filepath.Base(app.Store.Path()):
		cli.logger.Debug("document changed", "op", ev.Op.String())
		app.State.MarkDirty()

	case filepath.Base(app.Handles.Path()):
		cli.logger.Debug("auto-save handle changed", "op", ev.Op.String())
		if err := app.Autosave.Reload(); err != nil {
			cli.logger.Error("failed to reload auto-save handle", "error", err)
			return
		}
		if app.Autosave.Status() == autosave.StatusActive {
			app.State.MarkDirty()
		}
	}
}
