package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/unowned-ai/padnotes/pkg/apperror"
	"github.com/unowned-ai/padnotes/pkg/ids"
	"github.com/unowned-ai/padnotes/pkg/kv"
)

// GamesKey is the persistence key holding the JSON array of games.
const GamesKey = "@gamepad_notes_games"

// FileRemover deletes the bytes behind a photo or cover uri.
type FileRemover interface {
	RemoveFile(ctx context.Context, uri string) error
}

type Option func(*Store)

func WithLogger(log *slog.Logger) Option {
	return func(s *Store) { s.log = log }
}

// WithClock sets the source of "today" and of photo timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithIDs(gen *ids.Generator) Option {
	return func(s *Store) { s.ids = gen }
}

func WithFileRemover(files FileRemover) Option {
	return func(s *Store) { s.files = files }
}

// WithSeed makes Load populate an empty store with games.
func WithSeed(games []Game) Option {
	return func(s *Store) { s.seed = cloneGames(games) }
}

// Store owns the games collection. Every mutation is applied in memory and
// then handed to a background writer as a complete snapshot.
type Store struct {
	kv    kv.Store
	log   *slog.Logger
	ids   *ids.Generator
	now   func() time.Time
	files FileRemover
	seed  []Game

	mu    sync.Mutex
	games []Game

	w       *writer
	removes sync.WaitGroup
}

func NewStore(store kv.Store, opts ...Option) *Store {
	s := &Store{
		kv:    store,
		log:   slog.Default(),
		now:   time.Now,
		games: []Game{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.ids == nil {
		s.ids = ids.NewWithClock(s.now)
	}
	s.w = newWriter(store, GamesKey, s.log)
	return s
}

// Load replaces the in-memory collection with the persisted one.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	games, found, err := s.read(ctx)
	if err != nil {
		return err
	}
	if !found && s.seed != nil {
		s.games = cloneGames(s.seed)
		s.observe(s.games)
		s.persistLocked()
		s.log.Info("seeded demo games", "games", len(s.games))
		return nil
	}
	s.games = games
	s.observe(games)
	s.log.Debug("loaded games", "games", len(games), "found", found)
	return nil
}

func (s *Store) read(ctx context.Context) ([]Game, bool, error) {
	raw, found, err := s.kv.Get(ctx, GamesKey)
	if err != nil {
		return nil, false, apperror.Persistence("failed to read games", err)
	}
	if !found {
		return []Game{}, false, nil
	}
	var games []Game
	if err := json.Unmarshal([]byte(raw), &games); err != nil {
		return nil, true, fmt.Errorf("failed to decode stored games: %w", err)
	}
	for i := range games {
		normalize(&games[i])
	}
	return games, true, nil
}

// normalize replaces null lists so snapshots always encode them as [].
func normalize(g *Game) {
	if g.Entries == nil {
		g.Entries = []Entry{}
	}
	for i := range g.Entries {
		if g.Entries[i].Images == nil {
			g.Entries[i].Images = []Photo{}
		}
	}
}

func (s *Store) observe(games []Game) {
	for _, g := range games {
		s.ids.Observe(int64(g.ID))
		for _, e := range g.Entries {
			s.ids.Observe(int64(e.ID))
			for _, p := range e.Images {
				s.ids.Observe(int64(p.ID))
			}
		}
	}
}

func (s *Store) today() string {
	return FormatDate(s.now())
}

func (s *Store) persistLocked() {
	data, err := json.Marshal(s.games)
	if err != nil {
		s.log.Error("failed to encode games", "error", err)
		return
	}
	s.w.enqueue(string(data))
}

func (s *Store) removeFiles(uris []string) {
	if s.files == nil || len(uris) == 0 {
		return
	}
	s.removes.Add(1)
	go func() {
		defer s.removes.Done()
		for _, uri := range uris {
			if err := s.files.RemoveFile(context.Background(), uri); err != nil {
				s.log.Warn("failed to delete file", "uri", uri, "error", err)
			}
		}
	}()
}

func (s *Store) gameIndex(id ID) int {
	for i := range s.games {
		if s.games[i].ID == id {
			return i
		}
	}
	return -1
}

func entryIndex(g *Game, id ID) int {
	for i := range g.Entries {
		if g.Entries[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) refreshLastEntry(g *Game) {
	if latest := LatestEntryDate(g.Entries); latest != "" {
		g.LastEntry = latest
		return
	}
	g.LastEntry = s.today()
}

func (s *Store) AddGame(title string, cover *Cover) (ID, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return 0, apperror.ValidationFailed("title", "title must not be empty")
	}
	if cover != nil {
		if err := ValidateCover(*cover); err != nil {
			return 0, err
		}
		c := cover.clone()
		cover = &c
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	g := Game{
		ID:        ID(s.ids.Next()),
		Title:     title,
		LastEntry: s.today(),
		Image:     cover,
		Entries:   []Entry{},
	}
	s.games = append([]Game{g}, s.games...)
	s.persistLocked()
	s.log.Debug("added game", "game_id", g.ID)
	return g.ID, nil
}

// ValidateCover reports whether c is a cover the store accepts.
func ValidateCover(c Cover) error {
	switch {
	case c.Preset != nil && c.Custom != nil, c.Preset == nil && c.Custom == nil:
		return apperror.ValidationFailed("image", "cover must be exactly one of preset or custom")
	case c.Custom != nil && strings.TrimSpace(c.Custom.URI) == "":
		return apperror.ValidationFailed("image", "custom cover requires a uri")
	case c.Preset != nil && strings.TrimSpace(c.Preset.ID) == "":
		return apperror.ValidationFailed("image", "preset cover requires an id")
	case c.Preset != nil && c.Preset.ID == CustomCoverID:
		return apperror.ValidationFailed("image", "preset cover cannot use the custom id")
	}
	return nil
}

// DeleteGame removes a game with its entries and photos. It reports whether
// the game existed; deleting an unknown id is a no-op.
func (s *Store) DeleteGame(id ID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.gameIndex(id)
	if i < 0 {
		return false
	}
	g := s.games[i]
	s.games = append(s.games[:i:i], s.games[i+1:]...)
	s.persistLocked()

	var uris []string
	if uri := g.Image.URI(); uri != "" {
		uris = append(uris, uri)
	}
	for _, e := range g.Entries {
		uris = append(uris, photoURIs(e)...)
	}
	s.removeFiles(uris)
	s.log.Debug("deleted game", "game_id", id, "files", len(uris))
	return true
}

func photoURIs(e Entry) []string {
	uris := make([]string, 0, len(e.Images))
	for _, p := range e.Images {
		uris = append(uris, p.URI)
	}
	return uris
}

func (s *Store) GetGame(id ID) (Game, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.gameIndex(id)
	if i < 0 {
		return Game{}, false
	}
	return s.games[i].clone(), true
}

// Games returns a copy of the collection ordered by most recent entry first.
func (s *Store) Games() []Game {
	s.mu.Lock()
	games := cloneGames(s.games)
	s.mu.Unlock()

	sort.SliceStable(games, func(i, j int) bool {
		return games[i].LastEntry > games[j].LastEntry
	})
	return games
}

// Snapshot returns a copy of the collection in storage order.
func (s *Store) Snapshot() []Game {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneGames(s.games)
}

func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Count(s.games)
}

// AddEntry prepends an entry dated today. An unknown game yields a zero ID
// and no error.
func (s *Store) AddEntry(gameID ID, text string) (ID, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, apperror.ValidationFailed("text", "entry text must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.gameIndex(gameID)
	if i < 0 {
		return 0, nil
	}
	g := &s.games[i]
	e := Entry{
		ID:     ID(s.ids.Next()),
		Date:   s.today(),
		Text:   text,
		Images: []Photo{},
	}
	g.Entries = append([]Entry{e}, g.Entries...)
	s.refreshLastEntry(g)
	s.persistLocked()
	return e.ID, nil
}

// EditEntry replaces an entry's text. Date and lastEntry are left alone.
func (s *Store) EditEntry(gameID, entryID ID, text string) (bool, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return false, apperror.ValidationFailed("text", "entry text must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.gameIndex(gameID)
	if i < 0 {
		return false, nil
	}
	g := &s.games[i]
	j := entryIndex(g, entryID)
	if j < 0 {
		return false, nil
	}
	g.Entries[j].Text = text
	s.persistLocked()
	return true, nil
}

// DeleteEntry removes an entry and its photos. lastEntry falls back to
// today when the game has no entries left.
func (s *Store) DeleteEntry(gameID, entryID ID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.gameIndex(gameID)
	if i < 0 {
		return false
	}
	g := &s.games[i]
	j := entryIndex(g, entryID)
	if j < 0 {
		return false
	}
	removed := g.Entries[j]
	g.Entries = append(g.Entries[:j:j], g.Entries[j+1:]...)
	s.refreshLastEntry(g)
	s.persistLocked()
	s.removeFiles(photoURIs(removed))
	return true
}

// AddPhotoToEntry appends a photo and returns its newly assigned id. An
// unknown game or entry yields a zero ID and no error.
func (s *Store) AddPhotoToEntry(gameID, entryID ID, photo Photo) (ID, error) {
	if strings.TrimSpace(photo.URI) == "" {
		return 0, apperror.ValidationFailed("uri", "photo uri must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.gameIndex(gameID)
	if i < 0 {
		return 0, nil
	}
	g := &s.games[i]
	j := entryIndex(g, entryID)
	if j < 0 {
		return 0, nil
	}
	photo.ID = ID(s.ids.Next())
	if photo.DateAdded == "" {
		photo.DateAdded = s.now().UTC().Format(time.RFC3339Nano)
	}
	g.Entries[j].Images = append(g.Entries[j].Images, photo)
	s.persistLocked()
	return photo.ID, nil
}

// DeletePhotoFromEntry drops the photo from its entry and deletes the file
// in the background. A failed file delete is logged only.
func (s *Store) DeletePhotoFromEntry(gameID, entryID, photoID ID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.gameIndex(gameID)
	if i < 0 {
		return false
	}
	g := &s.games[i]
	j := entryIndex(g, entryID)
	if j < 0 {
		return false
	}
	images := g.Entries[j].Images
	for k, p := range images {
		if p.ID != photoID {
			continue
		}
		g.Entries[j].Images = append(images[:k:k], images[k+1:]...)
		s.persistLocked()
		s.removeFiles([]string{p.URI})
		return true
	}
	return false
}

// Replace runs commit with mutations blocked and all pending writes flushed,
// then reloads the collection from storage. On a commit error the in-memory
// collection is left as it was.
func (s *Store) Replace(ctx context.Context, commit func(ctx context.Context) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.w.flush(ctx); err != nil {
		s.log.Warn("pending games write failed before replace", "error", err)
	}
	if err := commit(ctx); err != nil {
		return err
	}
	games, _, err := s.read(ctx)
	if err != nil {
		return err
	}
	s.games = games
	s.observe(games)
	s.log.Info("reloaded games after replace", "games", len(games))
	return nil
}

// Clear deletes every game and removes the games key. Settings are kept.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.w.flush(ctx); err != nil {
		s.log.Warn("pending games write failed before clear", "error", err)
	}
	if err := s.kv.Remove(ctx, GamesKey); err != nil {
		return apperror.Persistence("failed to clear games", err)
	}

	var uris []string
	for _, g := range s.games {
		if uri := g.Image.URI(); uri != "" {
			uris = append(uris, uri)
		}
		for _, e := range g.Entries {
			uris = append(uris, photoURIs(e)...)
		}
	}
	s.games = []Game{}
	s.removeFiles(uris)
	s.log.Info("cleared all games")
	return nil
}

// Flush waits until every mutation made so far is persisted and background
// file deletions have finished. It returns the error of the latest write.
func (s *Store) Flush(ctx context.Context) error {
	err := s.w.flush(ctx)
	if err != nil && ctx.Err() != nil {
		return err
	}

	done := make(chan struct{})
	go func() {
		s.removes.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	if err != nil {
		return apperror.Persistence("failed to persist games", err)
	}
	return nil
}

// Err reports the last persistence failure, or nil when the latest write
// succeeded.
func (s *Store) Err() error {
	return s.w.err()
}

// Close flushes outstanding work and stops the background writer. Later
// mutations are written synchronously.
func (s *Store) Close(ctx context.Context) error {
	flushErr := s.Flush(ctx)
	if err := s.w.close(ctx); err != nil && flushErr == nil {
		return apperror.Persistence("failed to persist games", err)
	}
	return flushErr
}
