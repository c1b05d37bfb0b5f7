package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/unowned-ai/padnotes/pkg/app"
)

var dataCmd = &cobra.Command{
	Use:   "data",
	Short: "Manage stored data",
}

var clearDataCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all games, entries and photos",
	Long:  `Deletes every game together with its entries and photo files. Preferences are kept.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app.App) error {
			st := a.Journal.Stats()
			if !assumeYesFlag && !confirm(cmd, fmt.Sprintf("Delete all %d games and %d entries? This cannot be undone.", st.Games, st.Entries)) {
				fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
				return nil
			}
			if err := a.Journal.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "All data has been cleared.")
			return nil
		})
	},
}

func initDataCmd() {
	clearDataCmd.Flags().BoolVarP(&assumeYesFlag, "yes", "y", false, "Do not ask for confirmation")
	dataCmd.AddCommand(clearDataCmd)
}
