// Package app opens the storage and wires the journal, settings, media and
// backup components together.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/unowned-ai/padnotes/pkg/backup"
	"github.com/unowned-ai/padnotes/pkg/config"
	"github.com/unowned-ai/padnotes/pkg/ids"
	"github.com/unowned-ai/padnotes/pkg/journal"
	"github.com/unowned-ai/padnotes/pkg/kv"
	"github.com/unowned-ai/padnotes/pkg/media"
	"github.com/unowned-ai/padnotes/pkg/settings"
	"github.com/unowned-ai/padnotes/pkg/utils"
)

type App struct {
	Config   config.Config
	Log      *slog.Logger
	KV       *kv.SQLiteStore
	Journal  *journal.Store
	Settings *settings.Store
	Media    *media.FileStore
	Backup   *backup.Service
}

// Open opens the database named by cfg, loads both stores and returns the
// wired application. Close must be called to flush pending writes.
func Open(ctx context.Context, cfg config.Config, log *slog.Logger) (*App, error) {
	if log == nil {
		log = slog.Default()
	}

	dbPath, err := utils.ResolveAndEnsureDBPath(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	mediaDir, err := utils.ResolveAndEnsureDir(cfg.MediaDir)
	if err != nil {
		return nil, err
	}

	store, err := kv.OpenSQLite(dbPath, cfg.WAL, cfg.Sync, log.With("component", "db"))
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", dbPath, err)
	}

	files, err := media.NewFileStore(mediaDir, log.With("component", "media"))
	if err != nil {
		store.Close()
		return nil, err
	}

	opts := []journal.Option{
		journal.WithLogger(log.With("component", "journal")),
		journal.WithIDs(ids.NewWithClock(time.Now)),
		journal.WithFileRemover(files),
	}
	if cfg.SeedDemoData {
		opts = append(opts, journal.WithSeed(journal.DemoGames()))
	}
	games := journal.NewStore(store, opts...)
	if err := games.Load(ctx); err != nil {
		games.Close(ctx)
		store.Close()
		return nil, err
	}

	prefs := settings.NewStore(store, log.With("component", "settings"))
	if err := prefs.Load(ctx); err != nil {
		log.Warn("using default settings", "error", err)
	}

	svc := backup.NewService(games, prefs, store,
		backup.WithLogger(log.With("component", "backup")),
		backup.WithPlatform(cfg.Platform))

	cfg.DBPath = dbPath
	cfg.MediaDir = mediaDir
	log.Debug("opened app", "db", dbPath, "media", mediaDir)
	return &App{
		Config:   cfg,
		Log:      log,
		KV:       store,
		Journal:  games,
		Settings: prefs,
		Media:    files,
		Backup:   svc,
	}, nil
}

// Close waits for pending journal writes and closes the database.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if err := a.Journal.Close(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := a.KV.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close database: %w", err))
	}
	return errors.Join(errs...)
}
