package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/unowned-ai/padnotes/pkg/app"
	"github.com/unowned-ai/padnotes/pkg/backup"
)

var (
	backupDirFlag string
	assumeYesFlag bool
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Export or restore all games and settings",
}

var exportBackupCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a backup file",
	Long: `Writes every game, entry, photo reference and the preferences to
<dir>/gamepad-notes-backup-<YYYY-MM-DD>.json. Use "-" as the directory to print to stdout.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app.App) error {
			dir := a.Config.BackupDir
			if cmd.Flags().Changed("dir") {
				dir = backupDirFlag
			}
			if dir == "-" {
				data, err := backup.Marshal(a.Backup.Export())
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return err
			}

			path, err := a.Backup.WriteFile(cmd.Context(), dir)
			if err != nil {
				return err
			}
			st := a.Journal.Stats()
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d games and %d entries to %s\n", st.Games, st.Entries, path)
			return nil
		})
	},
}

var importBackupCmd = &cobra.Command{
	Use:   "import <backup-file>",
	Short: "Replace all games with the contents of a backup",
	Long: `Validates the backup, shows what it contains and asks for confirmation before
replacing every game. Settings are restored too when the backup carries them.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read backup: %w", err)
		}

		return withApp(cmd, func(a *app.App) error {
			summary, err := a.Backup.Import(cmd.Context(), data, func(_ context.Context, s backup.Summary) (bool, error) {
				if assumeYesFlag {
					return true, nil
				}
				return confirm(cmd, s.Message()), nil
			})
			if errors.Is(err, backup.ErrImportCancelled) {
				fmt.Fprintln(cmd.OutOrStdout(), "Import cancelled. Nothing was changed.")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d games and %d entries.\n", summary.Games, summary.Entries)
			return nil
		})
	},
}

func initBackupCmd() {
	exportBackupCmd.Flags().StringVar(&backupDirFlag, "dir", "", "Directory for the backup file (default: backup_dir from config)")
	importBackupCmd.Flags().BoolVarP(&assumeYesFlag, "yes", "y", false, "Do not ask for confirmation")

	backupCmd.AddCommand(exportBackupCmd, importBackupCmd)
}
