// Package main provides the CLI entrypoint for studylog.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/studylog/internal/config"
	"github.com/verte-zerg/studylog/internal/model"
	"github.com/verte-zerg/studylog/internal/motivation"
	"github.com/verte-zerg/studylog/internal/store"
	"github.com/verte-zerg/studylog/internal/timer"
	"github.com/verte-zerg/studylog/internal/tui"
)

const (
	defaultMinSaveSeconds = 60
	defaultTickMs         = 1000
	defaultStatsDays      = 7
	defaultLogLevel       = "warn"
)

// timeNow is replaced in tests.
var timeNow = time.Now

var (
	dbPath    string
	statePath string
	verbose   bool

	focusMinSave int
	focusTickMs  int
	focusSubject int64
	focusTopic   int64
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "studylog",
		Short:         "Study tracker with a focus timer",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runFocusCmd,
	}

	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database path (default: XDG data dir)")
	rootCmd.PersistentFlags().StringVar(&statePath, "state", "", "timer state path (default: XDG state dir)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.Flags().IntVar(&focusMinSave, "min-save", defaultMinSaveSeconds, "minimum seconds before a session can be saved")
	rootCmd.Flags().IntVar(&focusTickMs, "tick-ms", defaultTickMs, "display refresh interval in milliseconds")
	rootCmd.Flags().Int64Var(&focusSubject, "subject", 0, "subject id to select")
	rootCmd.Flags().Int64Var(&focusTopic, "topic", 0, "subtopic id to select")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newTimerCmd())
	rootCmd.AddCommand(newSubjectsCmd())
	rootCmd.AddCommand(newTopicsCmd())
	rootCmd.AddCommand(newProgressCmd())
	rootCmd.AddCommand(newTasksCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newWipeCmd())
	rootCmd.AddCommand(newQuoteCmd())

	return rootCmd
}

// env bundles what every command needs once flags and config are resolved.
type env struct {
	file   config.FileConfig
	logger *log.Logger
	store  *store.Store
	close  func()
}

func openEnv() (*env, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger, closeLog, err := newLogger(fileCfg.Log)
	if err != nil {
		return nil, err
	}
	path := dbPath
	if path == "" {
		path = config.DefaultDBPath()
	}
	st, err := store.Open(path)
	if err != nil {
		closeLog()
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	logger.Debug("store opened", "path", path)
	return &env{
		file:   fileCfg,
		logger: logger,
		store:  st,
		close: func() {
			if cerr := st.Close(); cerr != nil {
				logger.Error("failed to close db", "err", cerr)
			}
			closeLog()
		},
	}, nil
}

func newLogger(cfg config.LogConfig) (*log.Logger, func(), error) {
	var out io.Writer = os.Stderr
	closeFn := func() {}
	toFile := false
	if cfg.File != nil && strings.TrimSpace(*cfg.File) != "" {
		path := strings.TrimSpace(*cfg.File)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		out = f
		toFile = true
		closeFn = func() { _ = f.Close() }
	}
	levelName := defaultLogLevel
	if cfg.Level != nil {
		levelName = *cfg.Level
	}
	level, err := log.ParseLevel(levelName)
	if err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("invalid log level %q: %w", levelName, err)
	}
	if verbose {
		level = log.DebugLevel
	}
	logger := log.NewWithOptions(out, log.Options{
		Prefix:          "studylog",
		Level:           level,
		ReportTimestamp: toFile,
		TimeFormat:      time.DateTime,
	})
	return logger, closeFn, nil
}

func snapshotStore() *timer.FileSnapshotStore {
	path := statePath
	if path == "" {
		path = config.DefaultTimerStatePath()
	}
	return timer.NewFileSnapshotStore(path)
}

func newTimer(e *env) *timer.Timer {
	tm := timer.New(timer.SystemClock{}, snapshotStore(), e.store, e.logger)
	if err := tm.Restore(context.Background()); err != nil {
		// A corrupt snapshot should not lock the user out of the timer.
		e.logger.Warn("starting with a fresh timer", "err", err)
	}
	return tm
}

func runFocusCmd(cmd *cobra.Command, _ []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.close()

	applyIntConfig(cmd, "min-save", &focusMinSave, e.file.Timer.MinSaveSeconds)
	applyIntConfig(cmd, "tick-ms", &focusTickMs, e.file.Timer.TickMs)
	if focusMinSave < 0 {
		return fmt.Errorf("--min-save must be >= 0")
	}
	if focusTickMs <= 0 {
		return fmt.Errorf("--tick-ms must be > 0")
	}
	cfg := model.Config{
		MinSaveSeconds: int64(focusMinSave),
		TickInterval:   time.Duration(focusTickMs) * time.Millisecond,
		SubjectID:      focusSubject,
		SubtopicID:     focusTopic,
	}

	tm := newTimer(e)

	var quote *motivation.Quote
	quotes, err := loadQuotes(e.file)
	if err != nil {
		e.logger.Warn("using built-in quotes", "err", err)
		quotes = motivation.Builtin()
	}
	if q, ok, err := motivation.ShowOnce(context.Background(), e.store, motivation.New(), quotes, timeNow()); err != nil {
		e.logger.Error("failed to pick quote", "err", err)
	} else if ok {
		quote = &q
	}

	m := tui.NewModel(cfg, e.store, tm, timer.SystemClock{}, quote, e.logger)
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func loadQuotes(fileCfg config.FileConfig) ([]motivation.Quote, error) {
	if fileCfg.Motivation.QuotesFile == nil || strings.TrimSpace(*fileCfg.Motivation.QuotesFile) == "" {
		return motivation.Builtin(), nil
	}
	return motivation.LoadQuotes(strings.TrimSpace(*fileCfg.Motivation.QuotesFile))
}

func newQuoteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "quote",
		Short: "Print a motivational quote",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			quotes, err := loadQuotes(fileCfg)
			if err != nil {
				return fmt.Errorf("failed to load quotes: %w", err)
			}
			q, ok := motivation.New().Pick(quotes)
			if !ok {
				return errors.New("no quotes available")
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), q.String())
			return err
		},
	}
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

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# studylog configuration
# Uncomment a value to enable it. CLI flags override config values.

[timer]
# min-save-seconds = %d   # Shortest session that can be saved
# tick-ms = %d          # Display refresh interval

[stats]
# days = %d               # Days in the daily chart

[log]
# level = %q          # debug, info, warn or error
# file = "/tmp/studylog.log"  # Write logs here instead of stderr

[motivation]
# quotes-file = "~/quotes.txt"  # One "text | author" per line
`,
		defaultMinSaveSeconds,
		defaultTickMs,
		defaultStatsDays,
		defaultLogLevel,
	)
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func parseDay(value string) (time.Time, error) {
	parsed, err := time.ParseInLocation(model.DateLayout, value, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", value, err)
	}
	return parsed, nil
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
