package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pfrederiksen/domevents/internal/delegate"
	"github.com/pfrederiksen/domevents/internal/logger"
	"github.com/pfrederiksen/domevents/internal/page"
	"github.com/pfrederiksen/domevents/internal/scenario"
	"github.com/pfrederiksen/domevents/internal/storage"
	"github.com/pfrederiksen/domevents/internal/trace"
)

const (
	ExitSuccess      = 0
	ExitError        = 1
	ExitTraceChanged = 2
)

// EnvPrefix prefixes environment variables that override flags, so
// --data-dir can also be set with DOMEVENTS_DATA_DIR.
const EnvPrefix = "DOMEVENTS"

// Config holds the resolved settings of a run.
type Config struct {
	Page       string
	Scenario   string
	DataDir    string
	Format     OutputFormat
	Sort       SortOrder
	Compare    bool
	Verbose    bool
	TypePolicy delegate.TypePolicy
	LogLevel   logger.Level
}

// NewRootCmd creates the root command. The exit code of a successful run
// is stored in exitCode.
func NewRootCmd(exitCode *int) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "domevents",
		Short: "Drive delegated DOM event handlers through scripted scenarios",
		Long: `A CLI tool that loads an HTML page, registers delegated event handlers
described by a scenario file, fires events at the page and reports which
handlers ran, in which order, and against which elements.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().String("config", "", "Config file (yaml, toml or json)")
	cmd.PersistentFlags().String("data-dir", storage.DefaultDataDir, "Data directory for trace snapshots")
	cmd.PersistentFlags().String("log-level", "warn", "Log level: debug, info, warn or error")
	cmd.PersistentFlags().Bool("verbose", false, "Enable verbose output")

	cmd.AddCommand(newRunCmd(exitCode))
	cmd.AddCommand(newSnapshotsCmd())
	return cmd
}

func newRunCmd(exitCode *int) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a scenario against a page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := newViper(cmd)
			if err != nil {
				return err
			}
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			code, err := Run(cmd.Context(), cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			*exitCode = code
			return nil
		},
	}

	cmd.Flags().String("page", "", "HTML page to load: a file path or an http(s) URL (required)")
	cmd.Flags().String("scenario", "", "Scenario file: .hcl or .json (required)")
	cmd.Flags().String("format", "text", "Output format: text or json")
	cmd.Flags().String("sort", "seq", "Sort invocations by: seq, handler or element")
	cmd.Flags().Bool("compare", false, "Exit with code 2 when the trace differs from the previous run")
	cmd.Flags().String("type-policy", "ignore", "What to do with empty or malformed event types: ignore or reject")

	return cmd
}

func newSnapshotsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "snapshots",
		Short: "List scenarios with a stored trace",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := newViper(cmd)
			if err != nil {
				return err
			}
			store, err := storage.New(v.GetString("data-dir"))
			if err != nil {
				return fmt.Errorf("initializing storage: %w", err)
			}
			names, err := store.Scenarios()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(names) == 0 {
				fmt.Fprintln(out, "No stored traces.")
				return nil
			}
			for _, name := range names {
				fmt.Fprintln(out, name)
			}
			return nil
		},
	}
}

// newViper layers environment variables and an optional config file over
// the command's flags.
func newViper(cmd *cobra.Command) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, fmt.Errorf("binding flags: %w", err)
	}

	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", file, err)
		}
	}
	return v, nil
}

// loadConfig validates the layered settings.
func loadConfig(v *viper.Viper) (Config, error) {
	cfg := Config{
		Page:     strings.TrimSpace(v.GetString("page")),
		Scenario: strings.TrimSpace(v.GetString("scenario")),
		DataDir:  v.GetString("data-dir"),
		Compare:  v.GetBool("compare"),
		Verbose:  v.GetBool("verbose"),
	}

	if cfg.Page == "" {
		return cfg, fmt.Errorf("--page is required")
	}
	if cfg.Scenario == "" {
		return cfg, fmt.Errorf("--scenario is required")
	}

	cfg.Format = OutputFormat(strings.ToLower(v.GetString("format")))
	if cfg.Format != FormatText && cfg.Format != FormatJSON {
		return cfg, fmt.Errorf("invalid format: %s (must be 'text' or 'json')", v.GetString("format"))
	}

	var err error
	if cfg.Sort, err = ParseSortOrder(v.GetString("sort")); err != nil {
		return cfg, err
	}
	if cfg.TypePolicy, err = delegate.ParseTypePolicy(v.GetString("type-policy")); err != nil {
		return cfg, err
	}
	if cfg.LogLevel, err = logger.ParseLevel(v.GetString("log-level")); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Run executes one scenario and writes the report to stdout. Logs go to
// stderr. The returned code is ExitTraceChanged when cfg.Compare is set and
// a previous trace exists that differs from this one.
func Run(ctx context.Context, cfg Config, stdout, stderr io.Writer) (int, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	log := logger.New(cfg.LogLevel, stderr)

	sc, err := scenario.Load(cfg.Scenario)
	if err != nil {
		return ExitError, fmt.Errorf("loading scenario: %w", err)
	}

	log.Debug("Loading page", logger.Fields{"page": cfg.Page})
	tree, err := page.New().Load(ctx, cfg.Page)
	if err != nil {
		return ExitError, fmt.Errorf("loading page: %w", err)
	}

	store, err := storage.New(cfg.DataDir)
	if err != nil {
		return ExitError, fmt.Errorf("initializing storage: %w", err)
	}

	runner, err := NewRunner(tree, sc.Name, cfg.TypePolicy, log)
	if err != nil {
		return ExitError, err
	}
	if err := runner.Run(sc); err != nil {
		return ExitError, fmt.Errorf("running scenario: %w", err)
	}

	result := &OutputResult{
		RanAt:           time.Now().UTC(),
		RunID:           runner.Trace().RunID,
		Scenario:        sc.Name,
		Page:            cfg.Page,
		Steps:           len(sc.Steps),
		InvocationCount: runner.Trace().Len(),
		Sort:            cfg.Sort,
	}
	result.Invocations = append(result.Invocations, runner.Trace().Records...)
	sortRecords(result.Invocations, cfg.Sort)
	for _, f := range runner.Failures() {
		result.Failures = append(result.Failures, f.Error())
	}

	if cfg.Compare {
		previous, err := store.LoadSnapshot(sc.Name)
		if err != nil {
			return ExitError, fmt.Errorf("loading snapshot: %w", err)
		}
		if previous.Recorded() {
			diff := trace.Diff(previous, trace.CreateSnapshot(runner.Trace(), result.RanAt.Format(time.RFC3339)))
			result.Compared = true
			result.Added = diff.Added
			result.Removed = diff.Removed
		} else {
			log.Info("No previous trace to compare against", logger.Fields{"scenario": sc.Name})
		}
	}

	if err := store.SaveTrace(runner.Trace()); err != nil {
		return ExitError, fmt.Errorf("saving snapshot: %w", err)
	}

	if cfg.Verbose {
		result.Metrics = runner.Registry().Metrics().GetSnapshot()
	}

	if err := WriteOutput(stdout, result, cfg.Format, cfg.Verbose); err != nil {
		return ExitError, fmt.Errorf("writing output: %w", err)
	}

	if result.Changed() {
		return ExitTraceChanged, nil
	}
	return ExitSuccess, nil
}

// ExecuteArgs runs the CLI with args and returns the process exit code.
func ExecuteArgs(args []string, stdout, stderr io.Writer) int {
	code := ExitSuccess
	cmd := NewRootCmd(&code)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitError
	}
	return code
}

// Execute runs the CLI
func Execute() {
	os.Exit(ExecuteArgs(os.Args[1:], os.Stdout, os.Stderr))
}
