package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/unowned-ai/padnotes/pkg/app"
	"github.com/unowned-ai/padnotes/pkg/config"
	"github.com/unowned-ai/padnotes/pkg/journal"
	"github.com/unowned-ai/padnotes/pkg/logging"
	"github.com/unowned-ai/padnotes/pkg/utils"
)

var (
	configPath string
	dbPath     string
	mediaDir   string
	walMode    bool
	syncMode   string
	logLevel   string
	logFormat  string
)

// closeTimeout bounds how long a command waits for pending writes on exit.
const closeTimeout = 10 * time.Second

// loadConfig layers explicitly set flags over the file and environment.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("db") {
		cfg.DBPath = dbPath
	}
	if flags.Changed("media-dir") {
		cfg.MediaDir = mediaDir
	}
	if flags.Changed("wal") {
		cfg.WAL = walMode
	}
	if flags.Changed("sync") {
		cfg.Sync = syncMode
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = logFormat
	}
	return cfg, cfg.Validate()
}

func resolveDBPath(cfg config.Config) (string, error) {
	return utils.ResolveAndEnsureDBPath(cfg.DBPath)
}

// openApp loads configuration and opens the application. Logs go to stderr
// so stdout stays clean for command output.
func openApp(cmd *cobra.Command) (*app.App, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	log, err := logging.New(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	return app.Open(cmd.Context(), cfg, log)
}

// closeApp flushes pending writes; a failure means the last change is not
// on disk.
func closeApp(a *app.App) error {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	if err := a.Close(ctx); err != nil {
		return fmt.Errorf("changes may not have been saved: %w", err)
	}
	return nil
}

// withApp runs fn against an opened app and always closes it.
func withApp(cmd *cobra.Command, fn func(a *app.App) error) (err error) {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := closeApp(a); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	return fn(a)
}

func parseIDArg(name, raw string) (journal.ID, error) {
	id, err := journal.ParseID(raw)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", name, raw)
	}
	return id, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// confirm asks a yes/no question on the command's streams. Anything but
// y or yes declines.
func confirm(cmd *cobra.Command, question string) bool {
	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N]: ", question)
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

// presetIDs lists the built-in cover presets for help and error text.
func presetIDs() string {
	var ids []string
	for _, p := range journal.Presets() {
		ids = append(ids, p.ID)
	}
	return strings.Join(ids, ", ")
}

func coverLabel(c *journal.Cover) string {
	switch {
	case c == nil:
		return "-"
	case c.Preset != nil:
		return c.Preset.Emoji + " " + c.Preset.Name
	default:
		return c.Custom.Filename
	}
}
