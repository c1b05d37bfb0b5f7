package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/unowned-ai/padnotes/pkg/app"
)

var photosCmd = &cobra.Command{
	Use:   "photos",
	Short: "Manage photos attached to entries",
}

var addPhotoCmd = &cobra.Command{
	Use:   "add <game-id> <entry-id> <image-file>",
	Short: "Attach an image file to an entry",
	Long:  `Copies the image into the media directory and attaches it to the entry. JPEG, PNG, GIF and WebP are supported.`,
	Args:  cobra.ExactArgs(3),
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
			photo, err := a.Media.ImportPhoto(cmd.Context(), args[2])
			if err != nil {
				return fmt.Errorf("failed to import photo: %w", err)
			}
			id, err := a.Journal.AddPhotoToEntry(gameID, entryID, photo)
			if err != nil {
				return err
			}
			if id == 0 {
				_ = a.Media.RemoveFile(cmd.Context(), photo.URI)
				return fmt.Errorf("entry not found: %s", entryID)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Photo added with ID: %s (%dx%d)\n", id, photo.Width, photo.Height)
			return nil
		})
	},
}

var deletePhotoCmd = &cobra.Command{
	Use:   "delete <game-id> <entry-id> <photo-id>",
	Short: "Remove a photo from an entry",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		gameID, err := parseIDArg("game ID", args[0])
		if err != nil {
			return err
		}
		entryID, err := parseIDArg("entry ID", args[1])
		if err != nil {
			return err
		}
		photoID, err := parseIDArg("photo ID", args[2])
		if err != nil {
			return err
		}

		return withApp(cmd, func(a *app.App) error {
			if !assumeYesFlag && a.Settings.Get().ShowConfirmDeletes &&
				!confirm(cmd, "Are you sure you want to delete this photo?") {
				fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
				return nil
			}
			if !a.Journal.DeletePhotoFromEntry(gameID, entryID, photoID) {
				fmt.Fprintf(cmd.OutOrStdout(), "Photo %s does not exist; nothing to delete.\n", photoID)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Photo %s deleted.\n", photoID)
			return nil
		})
	},
}

func initPhotosCmd() {
	deletePhotoCmd.Flags().BoolVarP(&assumeYesFlag, "yes", "y", false, "Do not ask for confirmation")
	photosCmd.AddCommand(addPhotoCmd, deletePhotoCmd)
}
