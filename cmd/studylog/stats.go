package main

import (
	"context"
	"fmt"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/studylog/internal/model"
	"github.com/verte-zerg/studylog/internal/stats"
	"github.com/verte-zerg/studylog/internal/statsui"
	"github.com/verte-zerg/studylog/internal/timer"
)

const recentCount = 10

var (
	statsSubject int64
	statsSince   string
	statsDays    int
	statsMonth   string
	statsText    bool
)

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show stats",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().Int64Var(&statsSubject, "subject", 0, "subject id filter")
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsDays, "days", defaultStatsDays, "days in the daily chart")
	cmd.Flags().StringVar(&statsMonth, "month", "", "chart one month instead (YYYY-MM)")
	cmd.Flags().BoolVar(&statsText, "text", false, "print a plain text report instead of the dashboard")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.close()

	applyIntConfig(cmd, "days", &statsDays, e.file.Stats.Days)
	if statsDays <= 0 {
		return fmt.Errorf("--days must be > 0")
	}
	cfg := model.StatsConfig{SubjectID: statsSubject, Days: statsDays}
	if statsSince != "" {
		parsed, err := parseDay(statsSince)
		if err != nil {
			return fmt.Errorf("invalid --since value: %w", err)
		}
		cfg.Since = &parsed
	}
	if statsMonth != "" {
		parsed, err := time.ParseInLocation("2006-01", statsMonth, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --month value: %w", err)
		}
		cfg.Month = parsed
	}

	if statsText {
		return printStatsReport(context.Background(), cmd.OutOrStdout(), e, cfg, time.Now())
	}

	m := statsui.NewModel(e.store, cfg, timer.SystemClock{}, e.logger)
	defer m.Close()
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run stats TUI: %w", err)
	}
	return nil
}

func printStatsReport(ctx context.Context, w io.Writer, e *env, cfg model.StatsConfig, now time.Time) error {
	report, err := stats.BuildReport(ctx, e.store, cfg)
	if err != nil {
		return err
	}
	if err := stats.RenderSummary(w, report.Summary(now)); err != nil {
		return err
	}
	if err := stats.RenderSubjectTable(w, stats.SubjectTotals(report.Sessions, report.Subjects)); err != nil {
		return err
	}
	title := fmt.Sprintf("Last %d days", cfg.Days)
	series := stats.DailySeries(report.Sessions, now, cfg.Days)
	if !cfg.Month.IsZero() {
		title = cfg.Month.Format("January 2006")
		series = stats.MonthlySeries(report.Sessions, cfg.Month)
	}
	if err := stats.RenderBars(w, title, series, 0, 0); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Trend: %s\n\n", stats.Trend(series)); err != nil {
		return err
	}
	return stats.RenderRecent(w, stats.RecentSessions(report.Sessions, recentCount), report.SubtopicTitles(), now)
}
