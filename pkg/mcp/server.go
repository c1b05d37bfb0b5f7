package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/server"

	padnotes "github.com/unowned-ai/padnotes/pkg"
	"github.com/unowned-ai/padnotes/pkg/backup"
	"github.com/unowned-ai/padnotes/pkg/journal"
	"github.com/unowned-ai/padnotes/pkg/media"
	"github.com/unowned-ai/padnotes/pkg/settings"
)

// Deps are the components the tools operate on. Media may be nil, in which
// case photos and covers must be given as uris.
type Deps struct {
	Journal  *journal.Store
	Settings *settings.Store
	Backup   *backup.Service
	Media    *media.FileStore
	Log      *slog.Logger
}

type PadnotesMCPServer struct {
	mcpServer *server.MCPServer
	deps      Deps
	log       *slog.Logger
}

// NewPadnotesMCPServer builds an MCP server with every journal tool
// registered.
func NewPadnotesMCPServer(deps Deps) *PadnotesMCPServer {
	log := deps.Log
	if log == nil {
		log = slog.Default()
	}

	s := server.NewMCPServer(
		"Gamepad Notes MCP Server",
		padnotes.Version,
		server.WithResourceCapabilities(true, true),
		server.WithLogging(),
		server.WithRecovery(),
	)

	srv := &PadnotesMCPServer{mcpServer: s, deps: deps, log: log}
	srv.registerTools()
	return srv
}

// Start runs the stdio event loop until stdin closes.
func (s *PadnotesMCPServer) Start() error {
	s.log.Info("serving MCP over stdio")
	return server.ServeStdio(s.mcpServer)
}

// MCPRawServer exposes the raw mcp-go server (useful for additional configuration).
func (s *PadnotesMCPServer) MCPRawServer() *server.MCPServer {
	return s.mcpServer
}
