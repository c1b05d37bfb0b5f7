package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/unowned-ai/padnotes/pkg/app"
)

var entriesCmd = &cobra.Command{
	Use:   "entries",
	Short: "Manage journal entries",
	Long:  `Add, edit and delete the dated entries of a game.`,
}

var addEntryCmd = &cobra.Command{
	Use:   "add <game-id> <text>",
	Short: "Add an entry dated today",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		gameID, err := parseIDArg("game ID", args[0])
		if err != nil {
			return err
		}
		text := strings.Join(args[1:], " ")

		return withApp(cmd, func(a *app.App) error {
			id, err := a.Journal.AddEntry(gameID, text)
			if err != nil {
				return err
			}
			if id == 0 {
				return fmt.Errorf("game not found: %s", gameID)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Entry added with ID: %s\n", id)
			return nil
		})
	},
}

var editEntryCmd = &cobra.Command{
	Use:   "edit <game-id> <entry-id> <text>",
	Short: "Replace the text of an entry",
	Args:  cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		gameID, err := parseIDArg("game ID", args[0])
		if err != nil {
			return err
		}
		entryID, err := parseIDArg("entry ID", args[1])
		if err != nil {
			return err
		}
		text := strings.Join(args[2:], " ")

		return withApp(cmd, func(a *app.App) error {
			ok, err := a.Journal.EditEntry(gameID, entryID, text)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("entry not found: %s", entryID)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Entry updated successfully!")
			return nil
		})
	},
}

var deleteEntryCmd = &cobra.Command{
	Use:   "delete <game-id> <entry-id>",
	Short: "Delete an entry and its photos",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		gameID, err := parseIDArg("game ID", args[0])
		if err != nil {
			return err
		}
		entryID, err := parseIDArg("entry ID", args[1])
		if err != nil {
			return err
		}

		return withApp(cmd, func(a *app.App) error {
			if !assumeYesFlag && a.Settings.Get().ShowConfirmDeletes &&
				!confirm(cmd, fmt.Sprintf("Delete entry %s?", entryID)) {
				fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
				return nil
			}
			if !a.Journal.DeleteEntry(gameID, entryID) {
				fmt.Fprintf(cmd.OutOrStdout(), "Entry %s does not exist; nothing to delete.\n", entryID)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Entry %s deleted.\n", entryID)
			return nil
		})
	},
}

func initEntriesCmd() {
	deleteEntryCmd.Flags().BoolVarP(&assumeYesFlag, "yes", "y", false, "Do not ask for confirmation")
	entriesCmd.AddCommand(addEntryCmd, editEntryCmd, deleteEntryCmd)
}
