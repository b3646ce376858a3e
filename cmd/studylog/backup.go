package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/studylog/internal/backup"
	"github.com/verte-zerg/studylog/internal/config"
	"github.com/verte-zerg/studylog/internal/model"
	"github.com/verte-zerg/studylog/internal/store"
	"github.com/verte-zerg/studylog/internal/timer"
)

var (
	exportOut string
	wipeYes   bool
)

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a JSON backup of subjects, subtopics, progress and sessions",
		Args:  cobra.NoArgs,
		RunE:  runExportCmd,
	}
	cmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (default studylog_backup_<date>.json, - for stdout)")
	return cmd
}

func runExportCmd(cmd *cobra.Command, _ []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.close()
	now := timeNow()
	if exportOut == "-" {
		return backup.Export(context.Background(), e.store, cmd.OutOrStdout(), now)
	}
	path := exportOut
	if path == "" {
		path = config.DefaultBackupName(now.Format(model.DateLayout))
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create backup file: %w", err)
	}
	if err := backup.Export(context.Background(), e.store, f, now); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close backup file: %w", err)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", path)
	return err
}

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Replace subjects, subtopics, progress and sessions from a JSON backup",
		Args:  cobra.ExactArgs(1),
		RunE:  runImportCmd,
	}
}

func runImportCmd(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open backup: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			// Read-only file; nothing to recover.
			_ = cerr
		}
	}()
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.close()
	doc, err := backup.Import(context.Background(), e.store, f)
	switch {
	case errors.Is(err, backup.ErrImportParse):
		return fmt.Errorf("backup file is invalid, nothing was changed: %w", err)
	case errors.Is(err, backup.ErrImportWrite):
		return fmt.Errorf("import failed, existing data kept: %w", err)
	case err != nil:
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Imported %d subjects, %d subtopics, %d checklist records and %d sessions\n",
		len(doc.Subjects), len(doc.Subtopics), len(doc.Progress), len(doc.Sessions))
	return err
}

func newWipeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wipe",
		Short: "Delete every record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !wipeYes {
				return errors.New("refusing to wipe without --yes")
			}
			e, err := openEnv()
			if err != nil {
				return err
			}
			defer e.close()
			if err := wipeAll(context.Background(), e.store, snapshotStore()); err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), "All data and timer state deleted.")
			return err
		},
	}
	cmd.Flags().BoolVar(&wipeYes, "yes", false, "confirm deletion")
	return cmd
}

// wipeAll deletes every record and the timer snapshot, whose selection
// would point at deleted subtopics.
func wipeAll(ctx context.Context, st *store.Store, snaps timer.SnapshotStore) error {
	if err := st.Wipe(ctx); err != nil {
		return err
	}
	return snaps.Clear(ctx)
}
