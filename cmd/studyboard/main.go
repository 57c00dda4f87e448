// Package main provides the CLI entrypoint for studyboard.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/studyboard/internal/cache"
	"github.com/verte-zerg/studyboard/internal/config"
	"github.com/verte-zerg/studyboard/internal/dashboard"
	"github.com/verte-zerg/studyboard/internal/loader"
	"github.com/verte-zerg/studyboard/internal/logging"
	"github.com/verte-zerg/studyboard/internal/model"
	"github.com/verte-zerg/studyboard/internal/source"
	"github.com/verte-zerg/studyboard/internal/stats"
)

var (
	sourceURL   string
	cacheTTL    time.Duration
	timeout     time.Duration
	logLevel    string
	logFile     string
	activity    string
	curveWindow int

	reportActivities []string
	reportWidth      int
	reportJSON       bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "studyboard",
		Short:         "Study performance dashboard",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runDashboardCmd,
	}

	defaults := config.Defaults()
	rootCmd.PersistentFlags().StringVar(&sourceURL, "url", defaults.Source.URL, "published CSV URL of the study log")
	rootCmd.PersistentFlags().DurationVar(&cacheTTL, "cache-ttl", defaults.Source.CacheTTL, "how long a fetched study log is reused")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", defaults.Source.Timeout, "HTTP timeout for one fetch")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", defaults.LogLevel, "log level (debug, info, warn, error)")
	rootCmd.Flags().StringVar(&logFile, "log-file", defaults.LogFile, "dashboard log file (empty to disable)")
	rootCmd.Flags().StringVar(&activity, "activity", "", "initial activity filter, comma-separated")
	rootCmd.Flags().IntVar(&curveWindow, "curve-window", defaults.CurveWindow, "moving average window for the daily plot")

	rootCmd.AddCommand(newReportCmd())
	rootCmd.AddCommand(newActivitiesCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

// resolveSettings layers flags over environment, config file and defaults.
func resolveSettings(cmd *cobra.Command) (config.Settings, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return config.Settings{}, fmt.Errorf("failed to load config: %w", err)
	}
	lookup, err := config.EnvLookup(".env", config.DefaultEnvPath())
	if err != nil {
		return config.Settings{}, err
	}
	config.ApplyEnv(&fileCfg, lookup)
	settings, err := config.Resolve(fileCfg)
	if err != nil {
		return config.Settings{}, fmt.Errorf("invalid config: %w", err)
	}

	applyFlag(cmd, "url", &settings.Source.URL, sourceURL)
	applyFlag(cmd, "cache-ttl", &settings.Source.CacheTTL, cacheTTL)
	applyFlag(cmd, "timeout", &settings.Source.Timeout, timeout)
	applyFlag(cmd, "log-level", &settings.LogLevel, logLevel)
	applyFlag(cmd, "log-file", &settings.LogFile, logFile)
	applyFlag(cmd, "activity", &settings.Activity, activity)
	applyFlag(cmd, "curve-window", &settings.CurveWindow, curveWindow)
	if err := settings.Validate(); err != nil {
		return config.Settings{}, err
	}
	return settings, nil
}

func newLoader(settings config.Settings, log logrus.FieldLogger, cached bool) *loader.Loader {
	src := source.NewHTTP(settings.Source.URL, settings.Source.Timeout)
	var c *cache.Cache[loader.Result]
	if cached {
		c = cache.New[loader.Result](nil)
	}
	return loader.New(src, c, settings.Source.CacheTTL, log)
}

func runDashboardCmd(cmd *cobra.Command, _ []string) error {
	settings, err := resolveSettings(cmd)
	if err != nil {
		return err
	}
	logger, closer, err := logging.NewFile(settings.LogLevel, settings.LogFile)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closer.Close(); cerr != nil {
			logErrf("failed to close log: %v\n", cerr)
		}
	}()
	logger.WithFields(logrus.Fields{
		"url":       settings.Source.URL,
		"cache_ttl": settings.Source.CacheTTL,
	}).Info("dashboard starting")

	m := dashboard.NewModel(newLoader(settings, logger, true), dashboard.Options{
		Refresh:     settings.Source.CacheTTL,
		FormURL:     settings.FormURL,
		Activity:    settings.Activity,
		CurveWindow: settings.CurveWindow,
		Logger:      logger,
	})
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run dashboard: %w", err)
	}
	return nil
}

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the study report",
		Args:  cobra.NoArgs,
		RunE:  runReportCmd,
	}
	cmd.Flags().StringArrayVar(&reportActivities, "activity", nil, "activity to include (repeatable, default: all)")
	cmd.Flags().IntVar(&reportWidth, "width", 0, "output width (default: terminal width)")
	cmd.Flags().BoolVar(&reportJSON, "json", false, "print the metrics as JSON")
	cmd.Flags().IntVar(&curveWindow, "curve-window", config.DefaultCurveWindow, "moving average window for the daily plot")
	return cmd
}

type jsonReport struct {
	Status     string         `json:"status"`
	Error      string         `json:"error,omitempty"`
	Dropped    int            `json:"dropped_rows"`
	Activities []string       `json:"activities"`
	Snapshot   model.Snapshot `json:"snapshot"`
}

func runReportCmd(cmd *cobra.Command, _ []string) error {
	if reportWidth < 0 {
		return fmt.Errorf("--width must be >= 0")
	}
	settings, err := resolveSettings(cmd)
	if err != nil {
		return err
	}
	logger, err := logging.New(settings.LogLevel, os.Stderr)
	if err != nil {
		return err
	}

	filter := model.Filter{Activities: reportActivities}
	if len(filter.Activities) == 0 {
		filter.Activities = stats.ParseActivities(settings.Activity)
	}
	report := stats.BuildReport(context.Background(), newLoader(settings, logger, false), filter)
	out := cmd.OutOrStdout()

	if reportJSON {
		payload := jsonReport{
			Status:     report.Load.Status.String(),
			Dropped:    report.Load.Dropped,
			Activities: report.Options,
			Snapshot:   report.Snapshot,
		}
		if report.Load.Err != nil {
			payload.Error = report.Load.Err.Error()
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(payload); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	} else {
		useColor := os.Getenv("NO_COLOR") == "" && term.IsTerminal(int(os.Stdout.Fd()))
		if err := stats.RenderReport(out, report, settings.CurveWindow, reportWidth, useColor); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	if report.Load.Err != nil {
		return fmt.Errorf("failed to load study log: %w", report.Load.Err)
	}
	return nil
}

func newActivitiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "activities",
		Short: "List activity types in the study log",
		Args:  cobra.NoArgs,
		RunE:  runActivitiesCmd,
	}
}

func runActivitiesCmd(cmd *cobra.Command, _ []string) error {
	settings, err := resolveSettings(cmd)
	if err != nil {
		return err
	}
	logger, err := logging.New(settings.LogLevel, os.Stderr)
	if err != nil {
		return err
	}
	res := newLoader(settings, logger, false).Load(context.Background())
	if !res.Ready() {
		return fmt.Errorf("no activities available: %s", res.Describe())
	}
	for _, a := range stats.ActivityOptions(res.Table)[1:] {
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), a); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

// applyFlag overrides a resolved setting with an explicitly set flag.
func applyFlag[T any](cmd *cobra.Command, name string, target *T, value T) {
	flag := cmd.Flags().Lookup(name)
	if flag == nil || !flag.Changed {
		return
	}
	*target = value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# studyboard configuration
# Uncomment a value to enable it.
# Precedence: CLI flags, then %s / %s / %s / %s, then this file.

[source]
# url = %q
# form-url = %q   # Shown in the dashboard header
# cache-ttl = "%s"          # How long a fetched study log is reused
# timeout = "%s"            # HTTP timeout for one fetch

[dashboard]
# activity = ""             # Initial activity filter, comma-separated (empty: all)
# curve-window = %d          # Moving average window for the daily plot

[log]
# level = %q            # debug, info, warn, error
# file = %q
`,
		config.EnvSourceURL,
		config.EnvCacheTTL,
		config.EnvTimeout,
		config.EnvLogLevel,
		config.DefaultSourceURL,
		config.DefaultFormURL,
		config.DefaultCacheTTL,
		config.DefaultTimeout,
		config.DefaultCurveWindow,
		config.DefaultLogLevel,
		config.DefaultLogPath(),
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
