package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caterdesk/caterdesk/caterdesk"
	"github.com/caterdesk/caterdesk/caterdesk/autosave"
	"github.com/caterdesk/caterdesk/caterdesk/billing"
	"github.com/caterdesk/caterdesk/caterdesk/filesync"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// CLI is the Viper-driven command tree of caterdesk
type CLI struct {
	rootCmd   *cobra.Command
	viperInst *viper.Viper

	in     io.Reader
	out    io.Writer
	errOut io.Writer

	// interactive is true when in is a terminal a prompt can reach
	interactive bool

	logger    *slog.Logger
	logCloser io.Closer
	now       func() time.Time
}

// NewCLI creates the CLI bound to the process streams
func NewCLI() *CLI {
	return newCLI(os.Stdin, os.Stdout, os.Stderr, isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd()))
}

func newCLI(in io.Reader, out, errOut io.Writer, interactive bool) *CLI {
	cli := &CLI{
		viperInst:   viper.New(),
		in:          in,
		out:         out,
		errOut:      errOut,
		interactive: interactive,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:         time.Now,
	}

	cli.setupViperConfig()
	cli.createRootCommand()
	cli.addCommands()

	return cli
}

// setupViperConfig configures Viper with environment variables and config files
func (cli *CLI) setupViperConfig() {
	// CATERDESK_CONFIG names a config file explicitly
	if configFile := os.Getenv("CATERDESK_CONFIG"); configFile != "" {
		cli.viperInst.SetConfigFile(configFile)
	} else {
		cli.viperInst.SetConfigName("caterdesk")
		cli.viperInst.SetConfigType("yaml")
		cli.viperInst.AddConfigPath(".")
		cli.viperInst.AddConfigPath("$HOME/.caterdesk")
	}

	cli.viperInst.AutomaticEnv()
	cli.viperInst.SetEnvPrefix("CATERDESK")

	// --data-dir -> CATERDESK_DATA_DIR, autosave.interval -> CATERDESK_AUTOSAVE_INTERVAL
	cli.viperInst.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	cli.viperInst.SetDefault("data-dir", defaultDataDir())
	cli.viperInst.SetDefault("format", "table")
	cli.viperInst.SetDefault("log-level", "warn")
	cli.viperInst.SetDefault("autosave.interval", autosave.DefaultInterval)
	cli.viperInst.SetDefault("autosave.settle", autosave.DefaultSettleDelay)

	// Read config file if it exists (ignore errors)
	_ = cli.viperInst.ReadInConfig()
}

// createRootCommand creates the root Cobra command with Viper integration
func (cli *CLI) createRootCommand() {
	cli.rootCmd = &cobra.Command{
		Use:   "caterdesk",
		Short: "Caterdesk - catering business manager",
		Long: `Caterdesk keeps the dishes, clients and events of a catering business
in one local JSON document and can mirror it to a file of your choice.

Configuration Sources (in order of precedence):
1. Command line flags
2. Environment variables (CATERDESK_*)
3. Configuration files (custom path or default locations)

Configuration File Discovery:
  CATERDESK_CONFIG=/path/to/config.yaml  # Custom config file path
  ./caterdesk.yaml                       # Current directory
  ~/.caterdesk/caterdesk.yaml            # User directory

Examples:
  caterdesk dish add --name "Paneer Tikka" --category Starters --price 250
  caterdesk event add --client <id> --date 2025-06-01T18:00 --venue Hall --guests 80
  caterdesk autosave activate ~/Dropbox/catering-autosave.json
  caterdesk serve`,

		SilenceUsage:  true,
		SilenceErrors: true,

		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var console io.Writer
			if cmd.Name() == "serve" {
				console = cli.errOut
			}
			logger, closer, err := initLogging(cli.viperInst.GetString("log-level"), console)
			if err != nil {
				// Logging is best effort; commands still run without a log file.
				fmt.Fprintf(cli.errOut, "Warning: %v\n", err)
				return nil
			}
			cli.logger = logger
			cli.logCloser = closer
			return nil
		},
	}
	cli.rootCmd.SetIn(cli.in)
	cli.rootCmd.SetOut(cli.out)
	cli.rootCmd.SetErr(cli.errOut)

	cli.addGlobalFlags()
}

// addGlobalFlags adds persistent flags that apply to all commands
func (cli *CLI) addGlobalFlags() {
	flags := cli.rootCmd.PersistentFlags()

	flags.StringP("data-dir", "d", "", "Directory holding the catering document")
	flags.StringP("format", "f", "table", "Output format (table|json|yaml)")
	flags.BoolP("quiet", "q", false, "Suppress headers and extra output")
	flags.String("log-level", "warn", "Log level (debug|info|warn|error)")
	flags.BoolP("yes", "y", false, "Answer yes to every confirmation")
	flags.Duration("autosave-interval", autosave.DefaultInterval, "Time between auto-save checks")
	flags.Duration("autosave-settle", autosave.DefaultSettleDelay, "Time the Syncing status stays visible after a write")

	for _, flag := range []string{"data-dir", "format", "quiet", "log-level", "yes"} {
		_ = cli.viperInst.BindPFlag(flag, flags.Lookup(flag))
	}
	_ = cli.viperInst.BindPFlag("autosave.interval", flags.Lookup("autosave-interval"))
	_ = cli.viperInst.BindPFlag("autosave.settle", flags.Lookup("autosave-settle"))
}

// addCommands adds all the CLI commands
func (cli *CLI) addCommands() {
	cli.addInitCommand()
	cli.addConfigCommand()

	cli.addDishCommands()
	cli.addClientCommands()
	cli.addEventCommands()
	cli.addSummaryCommand()
	cli.addSearchCommand()

	cli.addExportCommand()
	cli.addImportCommand()

	cli.addAutosaveCommands()
	cli.addServeCommand()
}

// Execute runs the CLI. A user cancelling a prompt is not an error.
func (cli *CLI) Execute() error {
	return cli.ExecuteContext(context.Background())
}

// ExecuteContext runs the CLI with ctx
func (cli *CLI) ExecuteContext(ctx context.Context) error {
	err := cli.rootCmd.ExecuteContext(ctx)
	if cli.logCloser != nil {
		_ = cli.logCloser.Close()
		cli.logCloser = nil
	}
	if errors.Is(err, filesync.ErrCancelled) {
		fmt.Fprintln(cli.errOut, "Cancelled.")
		return nil
	}
	return err
}

// GetRootCommand returns the root Cobra command for testing
func (cli *CLI) GetRootCommand() *cobra.Command {
	return cli.rootCmd
}

// prompter returns who answers confirmations: --yes answers for the user,
// otherwise a terminal is needed. Without one every question is refused.
func (cli *CLI) prompter() filesync.Prompter {
	if cli.viperInst.GetBool("yes") {
		return &filesync.StaticPrompter{Answer: true}
	}
	if !cli.interactive {
		return nil
	}
	return filesync.TerminalPrompter{In: cli.in, Out: cli.errOut}
}

// openApp opens the configured data directory
func (cli *CLI) openApp(onStatus func(autosave.Status)) (*caterdesk.App, error) {
	dataDir := cli.viperInst.GetString("data-dir")
	if dataDir == "" {
		return nil, NewConfigError("open data directory", "no data directory configured",
			"Pass --data-dir or set CATERDESK_DATA_DIR",
			CommonSuggestions.CheckConfig)
	}

	app, err := caterdesk.Open(caterdesk.Config{
		DataDir:          dataDir,
		AutosaveInterval: cli.viperInst.GetDuration("autosave.interval"),
		SettleDelay:      cli.viperInst.GetDuration("autosave.settle"),
		Logger:           cli.logger,
		Prompter:         cli.prompter(),
		OnStatus:         onStatus,
		Now:              cli.now,
	})
	if err != nil {
		return nil, NewStoreError("open data directory", err, CommonSuggestions.CheckPerms)
	}
	return app, nil
}

// withApp runs fn against an open data directory and closes it afterwards
func (cli *CLI) withApp(fn func(app *caterdesk.App) error) error {
	app, err := cli.openApp(nil)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := app.Close(); cerr != nil {
			cli.logger.Warn("failed to close data directory", "error", cerr)
		}
	}()
	return fn(app)
}

// book loads the typed view of the document and warns about records that
// had to be left out
func (cli *CLI) book(app *caterdesk.App) (*billing.Book, error) {
	book, err := app.Book()
	if err != nil {
		return nil, err
	}
	for _, problem := range book.Skipped {
		fmt.Fprintf(cli.errOut, "Warning: skipped %s\n", problem)
	}
	return book, nil
}

// confirm asks a destructive-action question. Without a prompter the
// answer is no.
func (cli *CLI) confirm(ctx context.Context, question string) (bool, error) {
	p := cli.prompter()
	if p == nil {
		return false, fmt.Errorf("%w: confirmation needed, run with --yes", filesync.ErrCancelled)
	}
	return p.Confirm(ctx, question)
}

// addInitCommand adds the init command
func (cli *CLI) addInitCommand() {
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create the data directory and an empty document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.withApp(func(app *caterdesk.App) error {
				return cli.outputResult(map[string]interface{}{
					"document": app.Store.Path(),
					"handles":  app.Handles.Path(),
				})
			})
		},
	}
	cli.rootCmd.AddCommand(initCmd)
}

// addConfigCommand adds the config command to show current configuration
func (cli *CLI) addConfigCommand() {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		Long:  `Display the current configuration from all sources (flags, env vars, config files).`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.outputResult(map[string]interface{}{
				"config_file":       cli.viperInst.ConfigFileUsed(),
				"data-dir":          cli.viperInst.GetString("data-dir"),
				"format":            cli.viperInst.GetString("format"),
				"log-level":         cli.viperInst.GetString("log-level"),
				"autosave.interval": cli.viperInst.GetDuration("autosave.interval").String(),
				"autosave.settle":   cli.viperInst.GetDuration("autosave.settle").String(),
			})
		},
	}
	cli.rootCmd.AddCommand(configCmd)
}
