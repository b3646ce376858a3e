package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/studylog/internal/calendar"
	"github.com/verte-zerg/studylog/internal/model"
	"github.com/verte-zerg/studylog/internal/stats"
	"github.com/verte-zerg/studylog/internal/store"
)

var (
	tasksDate  string
	tasksMonth string
)

func newTasksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "List the tasks of a day",
		Args:  cobra.NoArgs,
		RunE:  runTasksList,
	}
	cmd.PersistentFlags().StringVar(&tasksDate, "date", "", "day (YYYY-MM-DD, default today)")

	add := &cobra.Command{
		Use:   "add TITLE",
		Short: "Add a task",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runTasksAdd,
	}
	done := &cobra.Command{
		Use:   "done ID",
		Short: "Toggle a task between open and done",
		Args:  cobra.ExactArgs(1),
		RunE:  runTasksDone,
	}
	rm := &cobra.Command{
		Use:   "rm ID",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE:  runTasksRm,
	}
	cal := &cobra.Command{
		Use:   "calendar",
		Short: "Show a month with task markers",
		Args:  cobra.NoArgs,
		RunE:  runTasksCalendar,
	}
	cal.Flags().StringVar(&tasksMonth, "month", "", "month (YYYY-MM, default current)")
	cmd.AddCommand(add, done, rm, cal)
	return cmd
}

func selectedDay() (string, error) {
	if tasksDate == "" {
		return timeNow().Format(model.DateLayout), nil
	}
	day, err := parseDay(tasksDate)
	if err != nil {
		return "", err
	}
	return day.Format(model.DateLayout), nil
}

func runTasksList(cmd *cobra.Command, _ []string) error {
	day, err := selectedDay()
	if err != nil {
		return err
	}
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.close()
	return printTasks(context.Background(), cmd.OutOrStdout(), e.store, day, timeNow())
}

func printTasks(ctx context.Context, w io.Writer, st *store.Store, day string, now time.Time) error {
	all, err := st.ListTasks(ctx)
	if err != nil {
		return err
	}
	if overdue := stats.OverdueTasks(all, now); len(overdue) > 0 {
		logErrf("Warning: %d overdue task(s) from earlier days.\n", len(overdue))
	}
	var tasks []model.Task
	for _, t := range all {
		if t.Date == day {
			tasks = append(tasks, t)
		}
	}
	if len(tasks) == 0 {
		_, err := fmt.Fprintf(w, "No tasks for %s.\n", day)
		return err
	}
	completed, total := stats.TaskSummary(tasks, day)
	if _, err := fmt.Fprintf(w, "%s  %d/%d done\n", day, completed, total); err != nil {
		return err
	}
	for _, t := range tasks {
		mark := "[ ]"
		if t.Completed {
			mark = "[x]"
		}
		if _, err := fmt.Fprintf(w, "%4d  %s %s\n", t.ID, mark, t.Title); err != nil {
			return err
		}
	}
	return nil
}

func runTasksAdd(cmd *cobra.Command, args []string) error {
	day, err := selectedDay()
	if err != nil {
		return err
	}
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.close()
	title := args[0]
	for _, a := range args[1:] {
		title += " " + a
	}
	id, err := e.store.AddTask(context.Background(), day, title)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Added task #%d for %s\n", id, day)
	return err
}

func runTasksDone(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.close()
	ctx := context.Background()
	task, err := e.store.ToggleTask(ctx, id)
	if err != nil {
		return err
	}
	state := "open"
	if task.Completed {
		state = "done"
	}
	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "Task #%d is %s\n", task.ID, state); err != nil {
		return err
	}
	if !task.Completed {
		return nil
	}
	sameDay, err := e.store.ListTasksByDate(ctx, task.Date)
	if err != nil {
		return err
	}
	if completed, total := stats.TaskSummary(sameDay, task.Date); total > 0 && completed == total {
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "All tasks for %s cleared!\n", task.Date)
	}
	return err
}

func runTasksRm(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.close()
	if err := e.store.DeleteTask(context.Background(), id); err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Deleted task #%d\n", id)
	return err
}

func runTasksCalendar(cmd *cobra.Command, _ []string) error {
	now := timeNow()
	month := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.Local)
	if tasksMonth != "" {
		parsed, err := time.ParseInLocation("2006-01", tasksMonth, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --month value: %w", err)
		}
		month = parsed
	}
	var selected time.Time
	if tasksDate != "" {
		day, err := parseDay(tasksDate)
		if err != nil {
			return err
		}
		selected = day
	}
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.close()
	tasks, err := e.store.ListTasks(context.Background())
	if err != nil {
		return err
	}
	return calendar.Render(cmd.OutOrStdout(), month, now, selected, calendar.Markers(tasks))
}
