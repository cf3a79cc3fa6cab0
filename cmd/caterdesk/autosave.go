package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caterdesk/caterdesk/caterdesk"
	"github.com/caterdesk/caterdesk/caterdesk/autosave"
	"github.com/caterdesk/caterdesk/caterdesk/filesync"
	"github.com/spf13/cobra"
)

// autosaveStatus is what `autosave status` reports
type autosaveStatus struct {
	Status      string `json:"status"`
	File        string `json:"file,omitempty"`
	Interval    string `json:"interval"`
	LastWritten string `json:"lastWritten,omitempty"`
}

func (cli *CLI) describeAutosave(app *caterdesk.App) (autosaveStatus, error) {
	status, err := app.Autosave.Check()
	if err != nil {
		return autosaveStatus{}, err
	}
	result := autosaveStatus{
		Status:   status.String(),
		Interval: app.Autosave.Interval().String(),
	}

	h, ok, err := app.Handles.Load()
	if err != nil {
		return autosaveStatus{}, err
	}
	if ok {
		result.File = h.Path
		// Each command is its own process, so the file itself tells when it
		// was last written.
		if info, err := os.Stat(h.Path); err == nil {
			result.LastWritten = info.ModTime().Local().Format(time.DateTime)
		}
	}
	return result, nil
}

func (cli *CLI) printAutosave(app *caterdesk.App) error {
	result, err := cli.describeAutosave(app)
	if err != nil {
		return WrapError("read auto-save status", err)
	}
	if cli.viperInst.GetString("format") != "table" {
		return cli.outputResult(result)
	}
	fields := map[string]interface{}{
		"status":   result.Status,
		"interval": result.Interval,
	}
	if result.File != "" {
		fields["file"] = result.File
	}
	if result.LastWritten != "" {
		fields["last written"] = result.LastWritten
	}
	return cli.outputResult(fields)
}

// addAutosaveCommands adds the auto-save command group
func (cli *CLI) addAutosaveCommands() {
	autosaveCmd := &cobra.Command{
		Use:   "autosave",
		Short: "Mirror all data to a file of your choice",
		Long: `Auto-save keeps a copy of the whole document in a file you choose, for
example in a synced folder. Once activated, 'caterdesk serve' rewrites the
file whenever the data changed.`,
	}

	activateCmd := &cobra.Command{
		Use:   "activate [file]",
		Short: "Choose the auto-save file",
		Long: fmt.Sprintf(`Choose the auto-save file and grant write access to it. Without an
argument the file is %s in the current directory.`, autosave.SuggestedFileName),
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := autosave.SuggestedFileName
			if len(args) == 1 {
				path = args[0]
			}
			abs, err := filepath.Abs(path)
			if err != nil {
				return NewValidationError("activate auto-save", "file", path)
			}
			noSync, _ := cmd.Flags().GetBool("no-sync")

			return cli.withApp(func(app *caterdesk.App) error {
				h := filesync.NewHandle(filepath.Base(abs), abs, cli.now())
				if err := app.Autosave.Activate(cmd.Context(), h); err != nil {
					return WrapError("activate auto-save", err)
				}
				if !noSync {
					if err := app.Autosave.SyncNow(cmd.Context()); err != nil {
						return WrapError("write auto-save file", err)
					}
				}
				return cli.printAutosave(app)
			})
		},
	}
	activateCmd.Flags().Bool("no-sync", false, "Do not write the file right away")

	forgetCmd := &cobra.Command{
		Use:     "forget",
		Aliases: []string{"deactivate"},
		Short:   "Stop auto-saving and forget the file",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.withApp(func(app *caterdesk.App) error {
				ok, err := cli.confirm(cmd.Context(), "Disable auto-save? The file is kept but no longer updated.")
				if err != nil {
					return err
				}
				if !ok {
					return nil
				}
				if err := app.Autosave.Deactivate(cmd.Context()); err != nil {
					return WrapError("disable auto-save", err)
				}
				return cli.printAutosave(app)
			})
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show the auto-save status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.withApp(cli.printAutosave)
		},
	}

	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Write the auto-save file now",
		Long: `Write the auto-save file now, asking for write access again if it was
withdrawn.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.withApp(func(app *caterdesk.App) error {
				if _, err := app.Autosave.Check(); err != nil {
					return WrapError("sync auto-save file", err)
				}
				if err := app.Autosave.SyncNow(cmd.Context()); err != nil {
					return WrapError("sync auto-save file", err)
				}
				return cli.printAutosave(app)
			})
		},
	}

	autosaveCmd.AddCommand(activateCmd, forgetCmd, statusCmd, syncCmd)
	cli.rootCmd.AddCommand(autosaveCmd)
}
