package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	padnotes "github.com/unowned-ai/padnotes/pkg"
	"github.com/unowned-ai/padnotes/pkg/kv"
	"github.com/unowned-ai/padnotes/pkg/logging"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "padnotes",
	Short:         "A play-session journal for your game library.",
	Long:          `Keep dated notes and screenshots for every game you play, back them up and restore them.`,
	Version:       fmt.Sprintf("v%s", padnotes.Version),
	SilenceUsage:  true,
	SilenceErrors: true,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

var completionShells = []string{"bash", "zsh", "fish", "powershell"}

var completionCmd = &cobra.Command{
	Use:   fmt.Sprintf("completion %s", strings.Join(completionShells, "|")),
	Short: "Generate shell completion scripts",
	Long: `Generate shell completion scripts for padnotes.

The command prints a completion script to stdout.

Examples:

  Bash (current shell):
    $ source <(padnotes completion bash)

  Zsh:
    $ padnotes completion zsh > "${fpath[1]}/_padnotes"

  Fish:
    $ padnotes completion fish > ~/.config/fish/completions/padnotes.fish

  PowerShell:
    PS> padnotes completion powershell | Out-String | Invoke-Expression`,
	DisableFlagsInUseLine: true,
	ValidArgs:             completionShells,
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletion(cmd.OutOrStdout())
		case "zsh":
			return rootCmd.GenZshCompletion(cmd.OutOrStdout())
		case "fish":
			return rootCmd.GenFishCompletion(cmd.OutOrStdout(), true)
		case "powershell":
			return rootCmd.GenPowerShellCompletion(cmd.OutOrStdout())
		default:
			return fmt.Errorf("unsupported shell: %s", args[0])
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of padnotes",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), padnotes.Version)
	},
}

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the padnotes database",
}

var dbUpgradeCmd = &cobra.Command{
	Use:   "upgrade",
	Short: "Create or upgrade the database schema",
	Long: `Opens the SQLite database (from --db, the config file or the default location) and
applies any schema migrations needed by this version. A missing database is created.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		path, err := resolveDBPath(cfg)
		if err != nil {
			return err
		}

		log, err := logging.New(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Upgrading database at: %s (WAL: %t, Sync: %s)\n", path, cfg.WAL, cfg.Sync)
		store, err := kv.OpenSQLite(path, cfg.WAL, cfg.Sync, log.With("component", "db"))
		if err != nil {
			return err
		}
		return store.Close()
	},
}

func initCmd() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "Path to a YAML config file (default: $PADNOTES_CONFIG)")
	flags.StringVar(&dbPath, "db", "", "Path to the database file (uses a system-specific default if not provided)")
	flags.StringVar(&mediaDir, "media-dir", "", "Directory for imported photos and covers")
	flags.BoolVar(&walMode, "wal", true, "Enable SQLite WAL (Write-Ahead Logging) mode")
	flags.StringVar(&syncMode, "sync", "NORMAL", "SQLite synchronous pragma (OFF, NORMAL, FULL, EXTRA)")
	flags.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flags.StringVar(&logFormat, "log-format", "text", "Log format (text, json)")

	dbCmd.AddCommand(dbUpgradeCmd)

	initGamesCmd()
	initEntriesCmd()
	initPhotosCmd()
	initSettingsCmd()
	initBackupCmd()
	initDataCmd()
	rootCmd.AddCommand(completionCmd, versionCmd, dbCmd, gamesCmd, entriesCmd, photosCmd, settingsCmd, backupCmd, dataCmd, mcpCmd)
}

func main() {
	initCmd()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
