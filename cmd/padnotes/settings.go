package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/unowned-ai/padnotes/pkg/app"
	"github.com/unowned-ai/padnotes/pkg/settings"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change preferences",
}

var getSettingsCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the current preferences",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app.App) error {
			s := a.Settings.Get()
			if jsonOutputFlag {
				return printJSON(cmd.OutOrStdout(), s)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Dark mode:            %t\n", s.DarkMode)
			fmt.Fprintf(out, "Text size:            %s (body %dpt)\n", s.TextSize, s.TextSize.Scale(16))
			fmt.Fprintf(out, "Confirm deletes:      %t\n", s.ShowConfirmDeletes)
			fmt.Fprintf(out, "Auto save:            %t\n", s.AutoSave)
			return nil
		})
	},
}

var setSettingsCmd = &cobra.Command{
	Use:   "set",
	Short: "Change one or more preferences",
	Example: `  padnotes settings set --dark-mode
  padnotes settings set --text-size large --confirm-deletes=false`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var patch settings.Patch
		flags := cmd.Flags()
		if flags.Changed("dark-mode") {
			v, _ := flags.GetBool("dark-mode")
			patch.DarkMode = &v
		}
		if flags.Changed("confirm-deletes") {
			v, _ := flags.GetBool("confirm-deletes")
			patch.ShowConfirmDeletes = &v
		}
		if flags.Changed("auto-save") {
			v, _ := flags.GetBool("auto-save")
			patch.AutoSave = &v
		}
		if flags.Changed("text-size") {
			raw, _ := flags.GetString("text-size")
			ts, err := settings.ParseTextSize(raw)
			if err != nil {
				return err
			}
			patch.TextSize = &ts
		}
		if patch.Empty() {
			return errors.New("no settings given; see --help")
		}

		return withApp(cmd, func(a *app.App) error {
			if _, err := a.Settings.Update(cmd.Context(), patch); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Settings updated.")
			return nil
		})
	},
}

func initSettingsCmd() {
	getSettingsCmd.Flags().BoolVar(&jsonOutputFlag, "json", false, "Print JSON")

	setSettingsCmd.Flags().Bool("dark-mode", false, "Use the dark theme")
	setSettingsCmd.Flags().String("text-size", "", "Text size: small, medium or large")
	setSettingsCmd.Flags().Bool("confirm-deletes", true, "Ask before deleting")
	setSettingsCmd.Flags().Bool("auto-save", true, "Save entries automatically")

	settingsCmd.AddCommand(getSettingsCmd, setSettingsCmd)
}
