package main

import (
	"fmt"

	"github.com/caterdesk/caterdesk/caterdesk"
	imports "github.com/caterdesk/caterdesk/caterdesk/import"
	"github.com/spf13/cobra"
)

// addExportCommand adds the backup command
func (cli *CLI) addExportCommand() {
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Write a backup of all data",
		Long: `Write the whole document as pretty-printed JSON. Without --output the
file is named catering-backup-YYYY-MM-DD.json in the current directory.
An existing file is replaced only after confirmation or with --force.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")
			force, _ := cmd.Flags().GetBool("force")

			return cli.withApp(func(app *caterdesk.App) error {
				backup, err := app.Export(cmd.Context(), output, force)
				if err != nil {
					return WrapError("export data", err, CommonSuggestions.CheckPerms)
				}
				file := output
				if file == "" {
					file = backup.Filename
				}
				return cli.outputResult(map[string]interface{}{
					"file":    file,
					"dishes":  backup.Counts.Dishes,
					"clients": backup.Counts.Clients,
					"events":  backup.Counts.Events,
				})
			})
		},
	}
	exportCmd.Flags().StringP("output", "o", "", "Backup file path")
	exportCmd.Flags().Bool("force", false, "Replace an existing file without asking")
	cli.rootCmd.AddCommand(exportCmd)
}

// addImportCommand adds the restore command
func (cli *CLI) addImportCommand() {
	importCmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Replace all data with a backup",
		Long: `Replace the whole document with a backup file. The file is checked first
and nothing changes when it is not a valid backup. --dry-run only checks.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dryRun, _ := cmd.Flags().GetBool("dry-run")

			return cli.withApp(func(app *caterdesk.App) error {
				// Check the file before asking, so a bad file never prompts.
				check, err := app.Import(args[0], true)
				if err != nil || dryRun {
					if check != nil {
						cli.printImportResult(check)
					}
					return WrapError("import data", err)
				}

				ok, err := cli.confirm(cmd.Context(), "Importing replaces all current data. Continue?")
				if err != nil {
					return err
				}
				if !ok {
					return nil
				}

				result, err := app.Import(args[0], false)
				if result != nil {
					cli.printImportResult(result)
				}
				return WrapError("import data", err)
			})
		},
	}
	importCmd.Flags().Bool("dry-run", false, "Validate the file without importing it")
	cli.rootCmd.AddCommand(importCmd)
}

func (cli *CLI) printImportResult(r *imports.ImportResult) {
	for _, p := range r.Validation.Problems {
		fmt.Fprintf(cli.errOut, "Problem: %s\n", p)
	}
	for _, w := range r.Warnings {
		fmt.Fprintf(cli.errOut, "Warning: %s\n", w)
	}
	if !r.Validation.Valid {
		return
	}

	if cli.viperInst.GetString("format") != "table" {
		_ = cli.outputResult(r)
		return
	}
	if cli.viperInst.GetBool("quiet") {
		return
	}
	verb := "Imported"
	if !r.Applied {
		verb = "Would import"
	}
	fmt.Fprintf(cli.out, "%s %d dishes, %d clients, %d events\n",
		verb, r.Summary.Dishes, r.Summary.Clients, r.Summary.Events)
}
