package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/studylog/internal/stats"
	"github.com/verte-zerg/studylog/internal/store"
	"github.com/verte-zerg/studylog/internal/timer"
)

var (
	timerSubject int64
	timerTopic   int64
	timerMinSave int
)

func newTimerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "timer",
		Short: "Control the focus timer without the TUI",
		Args:  cobra.NoArgs,
		RunE:  runTimerStatus,
	}

	start := &cobra.Command{
		Use:   "start",
		Short: "Start or resume the timer",
		Args:  cobra.NoArgs,
		RunE:  runTimerStart,
	}
	start.Flags().Int64Var(&timerSubject, "subject", 0, "subject id")
	start.Flags().Int64Var(&timerTopic, "topic", 0, "subtopic id")

	save := &cobra.Command{
		Use:   "save",
		Short: "Save the current run as a study session",
		Args:  cobra.NoArgs,
		RunE:  runTimerSave,
	}
	save.Flags().IntVar(&timerMinSave, "min-save", defaultMinSaveSeconds, "minimum seconds before a session can be saved")

	cmd.AddCommand(
		start,
		&cobra.Command{Use: "pause", Short: "Pause the timer", Args: cobra.NoArgs, RunE: runTimerPause},
		&cobra.Command{Use: "reset", Short: "Discard the current run", Args: cobra.NoArgs, RunE: runTimerReset},
		save,
		&cobra.Command{Use: "status", Short: "Show timer state", Args: cobra.NoArgs, RunE: runTimerStatus},
	)
	return cmd
}

func runTimerStart(cmd *cobra.Command, _ []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.close()
	ctx := context.Background()
	subjectID := timerSubject
	if timerTopic != 0 && subjectID == 0 {
		if subjectID, err = subjectOfTopic(ctx, e.store, timerTopic); err != nil {
			return err
		}
	}
	tm := newTimer(e)
	started, err := tm.Start(ctx, subjectID, timerTopic)
	if err != nil {
		return err
	}
	if !started {
		logErrf("Timer is already running.\n")
	}
	return printTimerStatus(cmd.OutOrStdout(), e.store, tm)
}

func runTimerPause(cmd *cobra.Command, _ []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.close()
	tm := newTimer(e)
	if err := tm.Pause(context.Background()); err != nil {
		if errors.Is(err, timer.ErrNotRunning) {
			logErrf("Timer is not running.\n")
			return nil
		}
		return err
	}
	return printTimerStatus(cmd.OutOrStdout(), e.store, tm)
}

func runTimerReset(cmd *cobra.Command, _ []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.close()
	tm := newTimer(e)
	if err := tm.Reset(context.Background()); err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), "Timer reset.")
	return err
}

func runTimerSave(cmd *cobra.Command, _ []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.close()
	applyIntConfig(cmd, "min-save", &timerMinSave, e.file.Timer.MinSaveSeconds)
	tm := newTimer(e)
	session, err := tm.Save(context.Background(), int64(timerMinSave))
	switch {
	case errors.Is(err, timer.ErrSessionTooShort):
		return fmt.Errorf("session too short: study at least %s before saving",
			stats.FormatHoursMinutes(time.Duration(timerMinSave)*time.Second))
	case errors.Is(err, timer.ErrNoSubtopicSelected):
		return errors.New("select a subtopic before saving (studylog timer start --topic ID)")
	case err != nil && session.ID == 0:
		return err
	case err != nil:
		e.logger.Warn("session saved but timer state not cleared", "err", err)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Saved session #%d: %s\n", session.ID, stats.FormatHoursMinutes(session.Duration()))
	return err
}

func runTimerStatus(cmd *cobra.Command, _ []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.close()
	return printTimerStatus(cmd.OutOrStdout(), e.store, newTimer(e))
}

func printTimerStatus(w io.Writer, st *store.Store, tm *timer.Timer) error {
	state := "stopped"
	elapsed := tm.Elapsed()
	switch {
	case tm.Running():
		state = "running"
	case elapsed > 0:
		state = "paused"
	}
	subjectID, subtopicID := tm.Selection()
	label, err := selectionLabel(context.Background(), st, subjectID, subtopicID)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s  %02d:%02d:%02d  %s\n", state, elapsed/3600, (elapsed%3600)/60, elapsed%60, label)
	return err
}

func selectionLabel(ctx context.Context, st *store.Store, subjectID, subtopicID int64) (string, error) {
	if subjectID == 0 && subtopicID == 0 {
		return "(nothing selected)", nil
	}
	subjects, err := st.ListSubjects(ctx)
	if err != nil {
		return "", err
	}
	subtopics, err := st.ListSubtopics(ctx)
	if err != nil {
		return "", err
	}
	subject := fmt.Sprintf("subject #%d", subjectID)
	for _, s := range subjects {
		if s.ID == subjectID {
			subject = s.Name
		}
	}
	topic := "no subtopic"
	for _, s := range subtopics {
		if s.ID == subtopicID {
			topic = s.Title
		}
	}
	return subject + " › " + topic, nil
}

func subjectOfTopic(ctx context.Context, st *store.Store, subtopicID int64) (int64, error) {
	subtopics, err := st.ListSubtopics(ctx)
	if err != nil {
		return 0, err
	}
	for _, s := range subtopics {
		if s.ID == subtopicID {
			return s.SubjectID, nil
		}
	}
	return 0, fmt.Errorf("subtopic %d: %w", subtopicID, store.ErrNotFound)
}
