package mcp

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/unowned-ai/padnotes/pkg/backup"
	"github.com/unowned-ai/padnotes/pkg/journal"
	"github.com/unowned-ai/padnotes/pkg/settings"
)

type gameSummary struct {
	ID               journal.ID `json:"id"`
	Title            string     `json:"title"`
	LastEntry        string     `json:"lastEntry"`
	LastEntryDisplay string     `json:"lastEntryDisplay"`
	Entries          int        `json:"entries"`
	Cover            string     `json:"cover,omitempty"`
}

type idResult struct {
	ID      journal.ID `json:"id"`
	Warning string     `json:"warning,omitempty"`
}

type changeResult struct {
	Changed bool   `json:"changed"`
	Warning string `json:"warning,omitempty"`
}

func (s *PadnotesMCPServer) registerTools() {
	tools := []struct {
		tool    mcp.Tool
		handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)
	}{
		{mcp.NewTool("ping",
			mcp.WithDescription("Responds with 'pong' to check if the Gamepad Notes MCP server is alive."),
		), s.handlePing},
		{mcp.NewTool("list_games",
			mcp.WithDescription("Lists all games, most recently played first."),
		), s.handleListGames},
		{mcp.NewTool("get_game",
			mcp.WithDescription("Returns a game with all its entries and photos."),
			mcp.WithString("game_id", mcp.Required(), mcp.Description("Id of the game.")),
		), s.handleGetGame},
		{mcp.NewTool("add_game",
			mcp.WithDescription("Adds a game to the library."),
			mcp.WithString("title", mcp.Required(), mcp.Description("Title of the game.")),
			mcp.WithString("cover", mcp.Description("Optional preset cover, one of: "+presetIDs()+".")),
			mcp.WithString("cover_path", mcp.Description("Optional path of an image file to use as the cover.")),
		), s.handleAddGame},
		{mcp.NewTool("delete_game",
			mcp.WithDescription("Deletes a game with all its entries and photos."),
			mcp.WithString("game_id", mcp.Required(), mcp.Description("Id of the game.")),
		), s.handleDeleteGame},
		{mcp.NewTool("add_entry",
			mcp.WithDescription("Adds a journal entry dated today to a game."),
			mcp.WithString("game_id", mcp.Required(), mcp.Description("Id of the game.")),
			mcp.WithString("text", mcp.Required(), mcp.Description("Text of the entry.")),
		), s.handleAddEntry},
		{mcp.NewTool("edit_entry",
			mcp.WithDescription("Replaces the text of an entry. The date is kept."),
			mcp.WithString("game_id", mcp.Required(), mcp.Description("Id of the game.")),
			mcp.WithString("entry_id", mcp.Required(), mcp.Description("Id of the entry.")),
			mcp.WithString("text", mcp.Required(), mcp.Description("New text of the entry.")),
		), s.handleEditEntry},
		{mcp.NewTool("delete_entry",
			mcp.WithDescription("Deletes an entry and its photos."),
			mcp.WithString("game_id", mcp.Required(), mcp.Description("Id of the game.")),
			mcp.WithString("entry_id", mcp.Required(), mcp.Description("Id of the entry.")),
		), s.handleDeleteEntry},
		{mcp.NewTool("add_photo",
			mcp.WithDescription("Attaches an image file to an entry."),
			mcp.WithString("game_id", mcp.Required(), mcp.Description("Id of the game.")),
			mcp.WithString("entry_id", mcp.Required(), mcp.Description("Id of the entry.")),
			mcp.WithString("path", mcp.Description("Path of the image file to import.")),
			mcp.WithString("uri", mcp.Description("Existing image uri to reference instead of importing a file.")),
		), s.handleAddPhoto},
		{mcp.NewTool("delete_photo",
			mcp.WithDescription("Removes a photo from an entry."),
			mcp.WithString("game_id", mcp.Required(), mcp.Description("Id of the game.")),
			mcp.WithString("entry_id", mcp.Required(), mcp.Description("Id of the entry.")),
			mcp.WithString("photo_id", mcp.Required(), mcp.Description("Id of the photo.")),
		), s.handleDeletePhoto},
		{mcp.NewTool("get_settings",
			mcp.WithDescription("Returns the current preferences."),
		), s.handleGetSettings},
		{mcp.NewTool("update_settings",
			mcp.WithDescription("Changes one or more preferences; omitted ones are kept."),
			mcp.WithBoolean("dark_mode", mcp.Description("Use the dark theme.")),
			mcp.WithString("text_size", mcp.Description("small, medium or large.")),
			mcp.WithBoolean("show_confirm_deletes", mcp.Description("Ask before deleting.")),
			mcp.WithBoolean("auto_save", mcp.Description("Save entries automatically.")),
		), s.handleUpdateSettings},
		{mcp.NewTool("export_backup",
			mcp.WithDescription("Exports all games and settings. Writes a file when 'dir' is given, otherwise returns the document."),
			mcp.WithString("dir", mcp.Description("Directory to write the backup file into.")),
		), s.handleExportBackup},
		{mcp.NewTool("import_backup",
			mcp.WithDescription("Replaces all games (and settings, if present) from a backup. Without confirm=true only a summary is returned."),
			mcp.WithString("path", mcp.Description("Path of the backup file.")),
			mcp.WithString("document", mcp.Description("Backup document as JSON text, instead of a path.")),
			mcp.WithBoolean("confirm", mcp.Description("Set to true to actually replace the data.")),
		), s.handleImportBackup},
	}

	for _, t := range tools {
		s.mcpServer.AddTool(t.tool, t.handler)
	}
}

// persisted waits for pending writes and returns a warning when they fail.
// The change itself stays applied either way.
func (s *PadnotesMCPServer) persisted(ctx context.Context) string {
	if err := s.deps.Journal.Flush(ctx); err != nil {
		s.log.Warn("change not saved", "error", err)
		return fmt.Sprintf("change applied but not saved: %v", err)
	}
	return ""
}

func (s *PadnotesMCPServer) handlePing(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText("pong"), nil
}

func (s *PadnotesMCPServer) handleListGames(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	games := s.deps.Journal.Games()
	out := make([]gameSummary, 0, len(games))
	for _, g := range games {
		cover := g.Image.Emoji()
		if cover == "" {
			cover = g.Image.URI()
		}
		out = append(out, gameSummary{
			ID:               g.ID,
			Title:            g.Title,
			LastEntry:        g.LastEntry,
			LastEntryDisplay: journal.FormatDisplayDate(g.LastEntry),
			Entries:          len(g.Entries),
			Cover:            cover,
		})
	}
	return jsonResult(out)
}

func (s *PadnotesMCPServer) handleGetGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := idArg(request, "game_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	g, ok := s.deps.Journal.GetGame(id)
	if !ok {
		return notFound("game", id), nil
	}
	return jsonResult(g)
}

func (s *PadnotesMCPServer) handleAddGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, ok := stringArg(request, "title")
	if !ok || title == "" {
		return mcp.NewToolResultError("'title' parameter is required and must be a non-empty string."), nil
	}

	var cover *journal.Cover
	if preset, ok := stringArg(request, "cover"); ok && preset != "" {
		c, found := journal.Preset(preset)
		if !found {
			return mcp.NewToolResultError(fmt.Sprintf("Unknown cover preset '%s'. Available presets: %s.", preset, presetIDs())), nil
		}
		cover = c
	}
	if path, ok := stringArg(request, "cover_path"); ok && path != "" {
		if cover != nil {
			return mcp.NewToolResultError("Use either 'cover' or 'cover_path', not both."), nil
		}
		if s.deps.Media == nil {
			return mcp.NewToolResultError("Image import is not available."), nil
		}
		c, err := s.deps.Media.ImportCover(ctx, path)
		if err != nil {
			return errorResult("import cover", err), nil
		}
		cover = c
	}

	id, err := s.deps.Journal.AddGame(title, cover)
	if err != nil {
		return errorResult("add game", err), nil
	}
	return jsonResult(idResult{ID: id, Warning: s.persisted(ctx)})
}

func (s *PadnotesMCPServer) handleDeleteGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := idArg(request, "game_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	deleted := s.deps.Journal.DeleteGame(id)
	return jsonResult(changeResult{Changed: deleted, Warning: s.persisted(ctx)})
}

func (s *PadnotesMCPServer) handleAddEntry(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	gameID, err := idArg(request, "game_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	text, _ := stringArg(request, "text")

	id, err := s.deps.Journal.AddEntry(gameID, text)
	if err != nil {
		return errorResult("add entry", err), nil
	}
	if id == 0 {
		return notFound("game", gameID), nil
	}
	return jsonResult(idResult{ID: id, Warning: s.persisted(ctx)})
}

func (s *PadnotesMCPServer) handleEditEntry(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	gameID, err := idArg(request, "game_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	entryID, err := idArg(request, "entry_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	text, _ := stringArg(request, "text")

	updated, err := s.deps.Journal.EditEntry(gameID, entryID, text)
	if err != nil {
		return errorResult("edit entry", err), nil
	}
	if !updated {
		return notFound("entry", entryID), nil
	}
	return jsonResult(changeResult{Changed: true, Warning: s.persisted(ctx)})
}

func (s *PadnotesMCPServer) handleDeleteEntry(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	gameID, err := idArg(request, "game_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	entryID, err := idArg(request, "entry_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	deleted := s.deps.Journal.DeleteEntry(gameID, entryID)
	return jsonResult(changeResult{Changed: deleted, Warning: s.persisted(ctx)})
}

func (s *PadnotesMCPServer) handleAddPhoto(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	gameID, err := idArg(request, "game_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	entryID, err := idArg(request, "entry_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if _, ok := s.deps.Journal.GetGame(gameID); !ok {
		return notFound("game", gameID), nil
	}

	var photo journal.Photo
	path, _ := stringArg(request, "path")
	uri, _ := stringArg(request, "uri")
	switch {
	case path != "" && uri != "":
		return mcp.NewToolResultError("Use either 'path' or 'uri', not both."), nil
	case path != "":
		if s.deps.Media == nil {
			return mcp.NewToolResultError("Image import is not available."), nil
		}
		photo, err = s.deps.Media.ImportPhoto(ctx, path)
		if err != nil {
			return errorResult("import photo", err), nil
		}
	case uri != "":
		photo = journal.Photo{URI: uri}
	default:
		return mcp.NewToolResultError("One of 'path' or 'uri' is required."), nil
	}

	id, err := s.deps.Journal.AddPhotoToEntry(gameID, entryID, photo)
	if err != nil {
		return errorResult("add photo", err), nil
	}
	if id == 0 {
		if path != "" {
			_ = s.deps.Media.RemoveFile(ctx, photo.URI)
		}
		return notFound("entry", entryID), nil
	}
	return jsonResult(idResult{ID: id, Warning: s.persisted(ctx)})
}

func (s *PadnotesMCPServer) handleDeletePhoto(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var ids [3]journal.ID
	for i, name := range []string{"game_id", "entry_id", "photo_id"} {
		id, err := idArg(request, name)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		ids[i] = id
	}
	deleted := s.deps.Journal.DeletePhotoFromEntry(ids[0], ids[1], ids[2])
	return jsonResult(changeResult{Changed: deleted, Warning: s.persisted(ctx)})
}

func (s *PadnotesMCPServer) handleGetSettings(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.deps.Settings.Get())
}

func (s *PadnotesMCPServer) handleUpdateSettings(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var patch settings.Patch
	var err error
	if patch.DarkMode, err = boolArg(request, "dark_mode"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if patch.ShowConfirmDeletes, err = boolArg(request, "show_confirm_deletes"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if patch.AutoSave, err = boolArg(request, "auto_save"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if raw, ok := stringArg(request, "text_size"); ok && raw != "" {
		ts, err := settings.ParseTextSize(raw)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		patch.TextSize = &ts
	}
	if patch.Empty() {
		return mcp.NewToolResultError("No settings given."), nil
	}

	updated, err := s.deps.Settings.Update(ctx, patch)
	if err != nil {
		return errorResult("update settings", err), nil
	}
	return jsonResult(updated)
}

func (s *PadnotesMCPServer) handleExportBackup(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dir, _ := stringArg(request, "dir")
	if dir == "" {
		data, err := backup.Marshal(s.deps.Backup.Export())
		if err != nil {
			return errorResult("export backup", err), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	}

	path, err := s.deps.Backup.WriteFile(ctx, dir)
	if err != nil {
		return errorResult("export backup", err), nil
	}
	return jsonResult(map[string]string{"path": path})
}

func (s *PadnotesMCPServer) handleImportBackup(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, _ := stringArg(request, "path")
	document, _ := stringArg(request, "document")

	var data []byte
	switch {
	case path != "" && document != "":
		return mcp.NewToolResultError("Use either 'path' or 'document', not both."), nil
	case path != "":
		var err error
		if data, err = os.ReadFile(path); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to read backup file: %v", err)), nil
		}
	case document != "":
		data = []byte(document)
	default:
		return mcp.NewToolResultError("One of 'path' or 'document' is required."), nil
	}

	confirm, err := boolArg(request, "confirm")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	confirmed := confirm != nil && *confirm

	summary, err := s.deps.Backup.Import(ctx, data, func(context.Context, backup.Summary) (bool, error) {
		return confirmed, nil
	})
	if errors.Is(err, backup.ErrImportCancelled) {
		return mcp.NewToolResultText(summary.Message() + " Call import_backup again with confirm=true to proceed."), nil
	}
	if err != nil {
		return errorResult("import backup", err), nil
	}
	return jsonResult(summary)
}
