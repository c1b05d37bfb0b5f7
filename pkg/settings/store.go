package settings

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/unowned-ai/padnotes/pkg/apperror"
	"github.com/unowned-ai/padnotes/pkg/kv"
)

// Key is the persistence key of the settings record.
const Key = "@gamepad_notes_settings"

type Store struct {
	kv  kv.Store
	log *slog.Logger

	mu      sync.RWMutex
	current Settings
}

func NewStore(store kv.Store, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{kv: store, log: log, current: Defaults()}
}

// Load reads the persisted record over the defaults. A missing or
// undecodable record yields the defaults; a failed read keeps whatever is
// currently in effect.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	loaded, err := s.read(ctx)
	if err != nil {
		return err
	}
	s.current = loaded
	return nil
}

// Reload re-reads the persisted record; used after a bulk import.
func (s *Store) Reload(ctx context.Context) error {
	return s.Load(ctx)
}

func (s *Store) read(ctx context.Context) (Settings, error) {
	raw, found, err := s.kv.Get(ctx, Key)
	if err != nil {
		return Defaults(), apperror.Persistence("failed to read settings", err)
	}
	if !found {
		return Defaults(), nil
	}
	merged, err := Defaults().Merge([]byte(raw))
	if err != nil {
		s.log.Warn("ignoring undecodable settings", "key", Key, "error", err)
		return Defaults(), nil
	}
	return merged, nil
}

func (s *Store) Get() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Update merges p into the current settings and persists the result. When
// the write fails the new settings stay in effect and the error is returned.
func (s *Store) Update(ctx context.Context, p Patch) (Settings, error) {
	if err := p.Validate(); err != nil {
		return s.Get(), apperror.ValidationFailed("textSize", err.Error())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = s.current.Apply(p)
	data, err := json.Marshal(s.current)
	if err != nil {
		return s.current, err
	}
	if err := s.kv.Set(ctx, Key, string(data)); err != nil {
		s.log.Error("failed to persist settings", "key", Key, "error", err)
		return s.current, apperror.Persistence("failed to persist settings", err)
	}
	return s.current, nil
}
