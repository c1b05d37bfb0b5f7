package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"time"

	padnotes "github.com/unowned-ai/padnotes/pkg"
	"github.com/unowned-ai/padnotes/pkg/apperror"
	"github.com/unowned-ai/padnotes/pkg/journal"
	"github.com/unowned-ai/padnotes/pkg/kv"
	"github.com/unowned-ai/padnotes/pkg/settings"
)

// ErrImportCancelled is returned when the confirmation step declines.
var ErrImportCancelled = errors.New("import cancelled")

// Confirmer is shown the import summary and decides whether to proceed.
type Confirmer func(ctx context.Context, summary Summary) (bool, error)

// AlwaysConfirm accepts every import.
func AlwaysConfirm(context.Context, Summary) (bool, error) { return true, nil }

type Option func(*Service)

func WithLogger(log *slog.Logger) Option {
	return func(s *Service) { s.log = log }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithPlatform overrides the platform recorded in exported documents.
func WithPlatform(platform string) Option {
	return func(s *Service) {
		if platform != "" {
			s.platform = platform
		}
	}
}

type Service struct {
	journal  *journal.Store
	settings *settings.Store
	kv       kv.Store
	log      *slog.Logger
	now      func() time.Time
	platform string
}

// NewService builds a backup service over the two stores and the key-value
// store they persist to.
func NewService(j *journal.Store, st *settings.Store, store kv.Store, opts ...Option) *Service {
	s := &Service{
		journal:  j,
		settings: st,
		kv:       store,
		log:      slog.Default(),
		now:      time.Now,
		platform: runtime.GOOS,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Export snapshots games and settings into a backup document.
func (s *Service) Export() *Document {
	games := s.journal.Snapshot()
	current := s.settings.Get()
	st := journal.Count(games)
	return &Document{
		Version:      Version,
		ExportDate:   s.now().UTC().Format(ExportDateLayout),
		AppName:      padnotes.AppName,
		Platform:     s.platform,
		Games:        games,
		Settings:     &current,
		TotalGames:   st.Games,
		TotalEntries: st.Entries,
	}
}

// Marshal renders the document as indented JSON.
func Marshal(doc *Document) ([]byte, error) {
	return json.MarshalIndent(doc, "", "  ")
}

// WriteFile exports into dir under the conventional file name and returns
// the path written. The file appears atomically.
func (s *Service) WriteFile(ctx context.Context, dir string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := Marshal(s.Export())
	if err != nil {
		return "", fmt.Errorf("failed to encode backup: %w", err)
	}

	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}
	path := filepath.Join(dir, Filename(padnotes.AppSlug, journal.FormatDate(s.now())))

	tmp, err := os.CreateTemp(dir, ".backup-*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temp backup file: %w", err)
	}
	tempPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tempPath)
		return "", fmt.Errorf("failed to write backup: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tempPath)
		return "", fmt.Errorf("failed to sync backup: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tempPath)
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return "", fmt.Errorf("failed to rename temp file: %w", err)
	}

	s.log.Info("exported backup", "path", path, "bytes", len(data))
	return path, nil
}

// Import validates data, asks confirm, and replaces the games (and, when the
// document carries them, the settings). Either every key is replaced or none
// is; on success both stores are reloaded from storage. Once the write has
// landed the import is reported as done even if re-reading settings fails.
func (s *Service) Import(ctx context.Context, data []byte, confirm Confirmer) (Summary, error) {
	parsed, err := parse(data, journal.FormatDate(s.now()))
	if err != nil {
		s.log.Warn("rejected backup", "reason", apperror.Reason(err))
		return Summary{}, err
	}
	if confirm == nil {
		return parsed.Summary, ErrImportCancelled
	}
	ok, err := confirm(ctx, parsed.Summary)
	if err != nil {
		return parsed.Summary, err
	}
	if !ok {
		return parsed.Summary, ErrImportCancelled
	}

	values, err := s.encode(parsed)
	if err != nil {
		return parsed.Summary, err
	}

	err = s.journal.Replace(ctx, func(ctx context.Context) error {
		if err := s.commit(ctx, values); err != nil {
			return apperror.Persistence("failed to write imported data", err)
		}
		return nil
	})
	if err != nil {
		return parsed.Summary, err
	}
	if err := s.settings.Reload(ctx); err != nil {
		s.log.Error("imported backup but failed to reload settings", "error", err)
	}

	s.log.Info("imported backup",
		"games", parsed.Summary.Games,
		"entries", parsed.Summary.Entries,
		"settings", parsed.Summary.HasSettings)
	return parsed.Summary, nil
}

// encode prepares the new value of every key the import replaces.
func (s *Service) encode(p *Parsed) (map[string]string, error) {
	games, err := json.Marshal(p.Games)
	if err != nil {
		return nil, fmt.Errorf("failed to encode games: %w", err)
	}
	values := map[string]string{journal.GamesKey: string(games)}

	if p.Settings != nil {
		data, err := json.Marshal(s.settings.Get().Apply(*p.Settings))
		if err != nil {
			return nil, fmt.Errorf("failed to encode settings: %w", err)
		}
		values[settings.Key] = string(data)
	}
	return values, nil
}
