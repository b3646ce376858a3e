package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/studylog/internal/model"
	"github.com/verte-zerg/studylog/internal/stats"
	"github.com/verte-zerg/studylog/internal/store"
)

var (
	subjectColor  string
	topicsSubject int64
)

func newSubjectsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subjects",
		Short: "List subjects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := openEnv()
			if err != nil {
				return err
			}
			defer e.close()
			subjects, err := e.store.ListSubjects(context.Background())
			if err != nil {
				return err
			}
			if len(subjects) == 0 {
				logErrf("No subjects yet. Add one with: studylog subjects add NAME\n")
				return nil
			}
			for _, s := range subjects {
				if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%4d  %s\n", s.ID, s.Name); err != nil {
					return err
				}
			}
			return nil
		},
	}
	add := &cobra.Command{
		Use:   "add NAME",
		Short: "Add a subject",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv()
			if err != nil {
				return err
			}
			defer e.close()
			id, err := e.store.AddSubject(context.Background(), strings.Join(args, " "), subjectColor)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Added subject #%d\n", id)
			return err
		},
	}
	add.Flags().StringVar(&subjectColor, "color", "", "display color (hex, e.g. #4F8EF7)")
	cmd.AddCommand(add)
	return cmd
}

func newTopicsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "topics",
		Short: "List subtopics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := openEnv()
			if err != nil {
				return err
			}
			defer e.close()
			ctx := context.Background()
			var subtopics []model.Subtopic
			if topicsSubject > 0 {
				subtopics, err = e.store.ListSubtopicsBySubject(ctx, topicsSubject)
			} else {
				subtopics, err = e.store.ListSubtopics(ctx)
			}
			if err != nil {
				return err
			}
			for _, s := range subtopics {
				if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%4d  [%d] %s\n", s.ID, s.SubjectID, s.Title); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.PersistentFlags().Int64Var(&topicsSubject, "subject", 0, "subject id")

	add := &cobra.Command{
		Use:   "add TITLE",
		Short: "Add a subtopic to a subject",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if topicsSubject <= 0 {
				return fmt.Errorf("--subject is required")
			}
			e, err := openEnv()
			if err != nil {
				return err
			}
			defer e.close()
			id, err := e.store.AddSubtopic(context.Background(), topicsSubject, strings.Join(args, " "))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Added subtopic #%d\n", id)
			return err
		},
	}
	rm := &cobra.Command{
		Use:   "rm ID",
		Short: "Delete a subtopic and its checklist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			e, err := openEnv()
			if err != nil {
				return err
			}
			defer e.close()
			if err := e.store.DeleteSubtopic(context.Background(), id); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Deleted subtopic #%d\n", id)
			return err
		},
	}
	cmd.AddCommand(add, rm)
	return cmd
}

func newProgressCmd() *cobra.Command {
	var subjectID int64
	cmd := &cobra.Command{
		Use:   "progress",
		Short: "Show the revision checklist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := openEnv()
			if err != nil {
				return err
			}
			defer e.close()
			report, err := stats.BuildReport(context.Background(), e.store, model.StatsConfig{SubjectID: subjectID})
			if err != nil {
				return err
			}
			return printChecklist(cmd.OutOrStdout(), report)
		},
	}
	cmd.Flags().Int64Var(&subjectID, "subject", 0, "subject id filter")

	toggle := &cobra.Command{
		Use:   "toggle SUBTOPIC FIELD",
		Short: "Flip one stage: topic, rev1, rev2, pyq or final",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			field, err := store.ParseProgressField(args[1])
			if err != nil {
				return err
			}
			e, err := openEnv()
			if err != nil {
				return err
			}
			defer e.close()
			p, err := e.store.ToggleProgress(context.Background(), id, field)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Subtopic #%d: %s (%d/5 stages)\n", id, checklistMarks(p), stats.StageCount(p))
			return err
		},
	}
	cmd.AddCommand(toggle)
	return cmd
}

func printChecklist(w io.Writer, report stats.Report) error {
	byTopic := make(map[int64]model.Progress, len(report.Progress))
	for _, p := range report.Progress {
		if _, ok := byTopic[p.SubtopicID]; !ok {
			byTopic[p.SubtopicID] = p
		}
	}
	names := report.SubjectNames()
	if _, err := fmt.Fprintf(w, "%4s  %s  %s\n", "ID", runewidth.FillRight("Subtopic", 32), "topic rev1 rev2 pyq final"); err != nil {
		return err
	}
	lastSubject := int64(-1)
	for _, st := range report.Subtopics {
		if st.SubjectID != lastSubject {
			lastSubject = st.SubjectID
			if _, err := fmt.Fprintf(w, "%s\n", names[st.SubjectID]); err != nil {
				return err
			}
		}
		title := runewidth.Truncate(st.Title, 32, "…")
		if _, err := fmt.Fprintf(w, "%4d  %s  %s\n", st.ID, runewidth.FillRight(title, 32), checklistMarks(byTopic[st.ID])); err != nil {
			return err
		}
	}
	s := report.Summary(timeNow())
	_, err := fmt.Fprintf(w, "\nTopics covered: %d/%d (%.0f%%)\n", s.TopicsCompleted, s.TopicsTotal, s.Completion*100)
	return err
}

func checklistMarks(p model.Progress) string {
	marks := []struct {
		done  bool
		width int
	}{
		{p.TopicCompleted, 5},
		{p.Revision1, 4},
		{p.Revision2, 4},
		{p.PYQDone, 3},
		{p.FinalRevision, 5},
	}
	parts := make([]string, 0, len(marks))
	for _, m := range marks {
		glyph := "·"
		if m.done {
			glyph = "✓"
		}
		parts = append(parts, runewidth.FillRight(glyph, m.width))
	}
	return strings.TrimRight(strings.Join(parts, " "), " ")
}

func parseID(value string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(value, "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", value)
	}
	return id, nil
}
