package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/unowned-ai/padnotes/pkg/app"
	"github.com/unowned-ai/padnotes/pkg/journal"
)

var (
	coverPresetFlag string
	coverFileFlag   string
	jsonOutputFlag  bool
)

var gamesCmd = &cobra.Command{
	Use:   "games",
	Short: "Manage games",
	Long:  `Add, list, show and delete the games in your library.`,
}

var addGameCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Add a game",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		title := strings.Join(args, " ")
		if coverPresetFlag != "" && coverFileFlag != "" {
			return errors.New("use either --cover or --cover-file, not both")
		}

		return withApp(cmd, func(a *app.App) error {
			var cover *journal.Cover
			if coverPresetFlag != "" {
				c, ok := journal.Preset(coverPresetFlag)
				if !ok {
					return fmt.Errorf("unknown cover preset: %s (available: %s)", coverPresetFlag, presetIDs())
				}
				cover = c
			}
			if coverFileFlag != "" {
				c, err := a.Media.ImportCover(cmd.Context(), coverFileFlag)
				if err != nil {
					return fmt.Errorf("failed to import cover: %w", err)
				}
				cover = c
			}

			id, err := a.Journal.AddGame(title, cover)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Game added with ID: %s\n", id)
			return nil
		})
	},
}

var listGamesCmd = &cobra.Command{
	Use:   "list",
	Short: "List games, most recently played first",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app.App) error {
			games := a.Journal.Games()
			out := cmd.OutOrStdout()
			if jsonOutputFlag {
				return printJSON(out, games)
			}
			if len(games) == 0 {
				fmt.Fprintln(out, "No games found.")
				return nil
			}
			fmt.Fprintln(out, "ID | Title | Last Entry | Entries | Cover")
			fmt.Fprintln(out, "------------------------------------------------------------")
			for _, g := range games {
				fmt.Fprintf(out, "%s | %s | %s | %d | %s\n",
					g.ID, g.Title, journal.FormatDisplayDate(g.LastEntry), len(g.Entries), coverLabel(g.Image))
			}
			return nil
		})
	},
}

var getGameCmd = &cobra.Command{
	Use:   "get <game-id>",
	Short: "Show a game with its entries",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseIDArg("game ID", args[0])
		if err != nil {
			return err
		}
		return withApp(cmd, func(a *app.App) error {
			g, ok := a.Journal.GetGame(id)
			if !ok {
				return fmt.Errorf("game not found: %s", id)
			}
			out := cmd.OutOrStdout()
			if jsonOutputFlag {
				return printJSON(out, g)
			}

			fmt.Fprintln(out, "Game Details:")
			fmt.Fprintf(out, "ID:          %s\n", g.ID)
			fmt.Fprintf(out, "Title:       %s\n", g.Title)
			fmt.Fprintf(out, "Cover:       %s\n", coverLabel(g.Image))
			fmt.Fprintf(out, "Last Entry:  %s\n", journal.FormatDisplayDate(g.LastEntry))
			fmt.Fprintf(out, "Entries:     %d\n", len(g.Entries))
			for _, e := range g.Entries {
				fmt.Fprintln(out, "------------------------------------------------------------")
				fmt.Fprintf(out, "[%s] %s\n", e.ID, journal.FormatDisplayDate(e.Date))
				fmt.Fprintln(out, e.Text)
				for _, p := range e.Images {
					fmt.Fprintf(out, "  photo %s: %s (%dx%d)\n", p.ID, p.Filename, p.Width, p.Height)
				}
			}
			return nil
		})
	},
}

var deleteGameCmd = &cobra.Command{
	Use:   "delete <game-id>",
	Short: "Delete a game with all its entries and photos",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseIDArg("game ID", args[0])
		if err != nil {
			return err
		}
		return withApp(cmd, func(a *app.App) error {
			g, ok := a.Journal.GetGame(id)
			if !ok {
				fmt.Fprintf(cmd.OutOrStdout(), "Game %s does not exist; nothing to delete.\n", id)
				return nil
			}
			if !assumeYesFlag && a.Settings.Get().ShowConfirmDeletes &&
				!confirm(cmd, fmt.Sprintf("Delete %q and its %d entries?", g.Title, len(g.Entries))) {
				fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
				return nil
			}
			a.Journal.DeleteGame(id)
			fmt.Fprintf(cmd.OutOrStdout(), "Game %s deleted.\n", id)
			return nil
		})
	},
}

func initGamesCmd() {
	addGameCmd.Flags().StringVar(&coverPresetFlag, "cover", "", "Preset cover ("+presetIDs()+")")
	addGameCmd.Flags().StringVar(&coverFileFlag, "cover-file", "", "Image file to use as the cover")

	listGamesCmd.Flags().BoolVar(&jsonOutputFlag, "json", false, "Print JSON")
	getGameCmd.Flags().BoolVar(&jsonOutputFlag, "json", false, "Print JSON")
	deleteGameCmd.Flags().BoolVarP(&assumeYesFlag, "yes", "y", false, "Do not ask for confirmation")

	gamesCmd.AddCommand(addGameCmd, listGamesCmd, getGameCmd, deleteGameCmd)
}
