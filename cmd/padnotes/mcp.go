package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/unowned-ai/padnotes/pkg/app"
	"github.com/unowned-ai/padnotes/pkg/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Gamepad Notes MCP server (stdio)",
	Long: `Start a Model Context Protocol (MCP) server that exposes games, entries,
photos, settings and backups as MCP tools via STDIO.

The --db flag is optional. If not provided, a system-specific default location will be used:
- Windows: %USERPROFILE%\AppData\Roaming\padnotes\padnotes.db
- macOS: ~/Library/Application Support/padnotes/padnotes.db
- Linux: ~/.local/share/padnotes/padnotes.db

Example:
  padnotes mcp
  padnotes mcp --db notes.db`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app.App) error {
			srv := mcp.NewPadnotesMCPServer(mcp.Deps{
				Journal:  a.Journal,
				Settings: a.Settings,
				Backup:   a.Backup,
				Media:    a.Media,
				Log:      a.Log.With("component", "mcp"),
			})

			// Log to stderr so we don't contaminate the JSON-RPC stream on stdout.
			fmt.Fprintf(cmd.ErrOrStderr(), "Gamepad Notes MCP server started. DB: %s (WAL: %t, Sync: %s)\n", a.Config.DBPath, a.Config.WAL, a.Config.Sync)
			fmt.Fprintln(cmd.ErrOrStderr(), "Listening for MCP JSON-RPC on STDIN/STDOUT ... (Ctrl+C to quit)")

			return srv.Start()
		})
	},
}
