package journal

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unowned-ai/padnotes/pkg/apperror"
	"github.com/unowned-ai/padnotes/pkg/kv"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock(date string) *testClock {
	t, err := time.ParseInLocation(DateLayout, date, time.Local)
	if err != nil {
		panic(err)
	}
	return &testClock{now: t.Add(10 * time.Hour)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) AddDays(n int) {
	c.mu.Lock()
	c.now = c.now.AddDate(0, 0, n)
	c.mu.Unlock()
}

type recordingRemover struct {
	mu   sync.Mutex
	uris []string
	err  error
}

func (r *recordingRemover) RemoveFile(_ context.Context, uri string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.uris = append(r.uris, uri)
	return r.err
}

func (r *recordingRemover) removed() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.uris...)
}

// failingKV fails every Set while fail is true.
type failingKV struct {
	*kv.MemoryStore
	mu   sync.Mutex
	fail bool
}

func (f *failingKV) Set(ctx context.Context, key, value string) error {
	f.mu.Lock()
	fail := f.fail
	f.mu.Unlock()
	if fail {
		return errors.New("disk full")
	}
	return f.MemoryStore.Set(ctx, key, value)
}

func newTestStore(t *testing.T, store kv.Store, opts ...Option) (*Store, *testClock) {
	t.Helper()
	clock := newTestClock("2025-07-03")
	opts = append([]Option{WithClock(clock.Now)}, opts...)
	s := NewStore(store, opts...)
	require.NoError(t, s.Load(context.Background()))
	t.Cleanup(func() { s.Close(context.Background()) })
	return s, clock
}

func persistedGames(t *testing.T, store kv.Store) []Game {
	t.Helper()
	raw, ok, err := store.Get(context.Background(), GamesKey)
	require.NoError(t, err)
	require.True(t, ok, "games key not written")
	var games []Game
	require.NoError(t, json.Unmarshal([]byte(raw), &games))
	return games
}

func TestAddGame(t *testing.T) {
	mem := kv.NewMemoryStore()
	s, _ := newTestStore(t, mem)

	id, err := s.AddGame("Celeste", nil)
	require.NoError(t, err)
	require.NotZero(t, id)

	g, ok := s.GetGame(id)
	require.True(t, ok)
	assert.Equal(t, "Celeste", g.Title)
	assert.Empty(t, g.Entries)
	assert.Equal(t, "2025-07-03", g.LastEntry)
	assert.Nil(t, g.Image)

	require.NoError(t, s.Flush(context.Background()))
	stored := persistedGames(t, mem)
	require.Len(t, stored, 1)
	assert.Equal(t, id, stored[0].ID)
}

func TestAddGameRejectsBlankTitle(t *testing.T) {
	s, _ := newTestStore(t, kv.NewMemoryStore())

	for _, title := range []string{"", "   ", "\t\n"} {
		id, err := s.AddGame(title, nil)
		require.Error(t, err)
		assert.True(t, apperror.IsValidation(err))
		assert.Zero(t, id)
	}
	assert.Empty(t, s.Games())
}

func TestAddGameTrimsTitleAndKeepsCover(t *testing.T) {
	s, _ := newTestStore(t, kv.NewMemoryStore())

	cover, ok := Preset("rpg")
	require.True(t, ok)
	id, err := s.AddGame("  Elden Ring ", cover)
	require.NoError(t, err)

	g, _ := s.GetGame(id)
	assert.Equal(t, "Elden Ring", g.Title)
	require.NotNil(t, g.Image)
	assert.Equal(t, "⚔️", g.Image.Emoji())

	// The store keeps its own copy of the cover.
	cover.Preset.Emoji = "x"
	g, _ = s.GetGame(id)
	assert.Equal(t, "⚔️", g.Image.Emoji())
}

func TestAddGameRejectsInvalidCover(t *testing.T) {
	s, _ := newTestStore(t, kv.NewMemoryStore())

	tests := []struct {
		name  string
		cover *Cover
	}{
		{"empty", &Cover{}},
		{"both", &Cover{Preset: &PresetCover{ID: "rpg"}, Custom: &CustomCover{URI: "a.jpg"}}},
		{"custom without uri", &Cover{Custom: &CustomCover{Filename: "a.jpg"}}},
		{"preset without id", &Cover{Preset: &PresetCover{Name: "RPG"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.AddGame("Hades", tt.cover)
			assert.True(t, apperror.IsValidation(err))
		})
	}
	assert.Empty(t, s.Games())
}

func TestAddEntryOnEmptyGame(t *testing.T) {
	s, clock := newTestStore(t, kv.NewMemoryStore())

	id, err := s.AddGame("Celeste", nil)
	require.NoError(t, err)
	clock.AddDays(2)

	entryID, err := s.AddEntry(id, "Reached chapter 3")
	require.NoError(t, err)
	require.NotZero(t, entryID)

	g, _ := s.GetGame(id)
	require.Len(t, g.Entries, 1)
	assert.Equal(t, "2025-07-05", g.LastEntry)
	assert.Equal(t, "2025-07-05", g.Entries[0].Date)
	assert.Equal(t, "Reached chapter 3", g.Entries[0].Text)
	assert.NotNil(t, g.Entries[0].Images)
}

func TestAddEntryPrepends(t *testing.T) {
	s, clock := newTestStore(t, kv.NewMemoryStore())

	id, _ := s.AddGame("Celeste", nil)
	first, err := s.AddEntry(id, "first")
	require.NoError(t, err)
	clock.AddDays(1)
	second, err := s.AddEntry(id, "second")
	require.NoError(t, err)

	g, _ := s.GetGame(id)
	require.Len(t, g.Entries, 2)
	assert.Equal(t, second, g.Entries[0].ID)
	assert.Equal(t, first, g.Entries[1].ID)
}

func TestAddEntryValidationAndMissingGame(t *testing.T) {
	s, _ := newTestStore(t, kv.NewMemoryStore())
	id, _ := s.AddGame("Celeste", nil)

	_, err := s.AddEntry(id, "  ")
	assert.True(t, apperror.IsValidation(err))

	entryID, err := s.AddEntry(ID(999), "orphan")
	require.NoError(t, err)
	assert.Zero(t, entryID)

	g, _ := s.GetGame(id)
	assert.Empty(t, g.Entries)
}

func TestDeleteNewerEntryRevertsLastEntry(t *testing.T) {
	s, clock := newTestStore(t, kv.NewMemoryStore())

	id, _ := s.AddGame("Celeste", nil)
	_, err := s.AddEntry(id, "older")
	require.NoError(t, err)
	clock.AddDays(3)
	newer, err := s.AddEntry(id, "newer")
	require.NoError(t, err)

	g, _ := s.GetGame(id)
	assert.Equal(t, "2025-07-06", g.LastEntry)

	assert.True(t, s.DeleteEntry(id, newer))
	g, _ = s.GetGame(id)
	assert.Equal(t, "2025-07-03", g.LastEntry)
	require.Len(t, g.Entries, 1)
	assert.Equal(t, "older", g.Entries[0].Text)
}

func TestDeleteLastEntryFallsBackToToday(t *testing.T) {
	s, clock := newTestStore(t, kv.NewMemoryStore())

	id, _ := s.AddGame("Celeste", nil)
	entryID, _ := s.AddEntry(id, "only")
	clock.AddDays(10)

	assert.True(t, s.DeleteEntry(id, entryID))
	g, _ := s.GetGame(id)
	assert.Empty(t, g.Entries)
	assert.Equal(t, "2025-07-13", g.LastEntry)
}

func TestLastEntryInvariant(t *testing.T) {
	s, clock := newTestStore(t, kv.NewMemoryStore())
	id, _ := s.AddGame("Celeste", nil)

	var entries []ID
	for i := 0; i < 5; i++ {
		e, err := s.AddEntry(id, "day")
		require.NoError(t, err)
		entries = append(entries, e)
		clock.AddDays(1)
	}

	check := func() {
		g, _ := s.GetGame(id)
		if len(g.Entries) == 0 {
			assert.Equal(t, FormatDate(clock.Now()), g.LastEntry)
			return
		}
		assert.Equal(t, LatestEntryDate(g.Entries), g.LastEntry)
	}

	for _, i := range []int{4, 1, 3, 0, 2} {
		require.True(t, s.DeleteEntry(id, entries[i]))
		check()
	}
}

func TestEditEntry(t *testing.T) {
	s, clock := newTestStore(t, kv.NewMemoryStore())

	id, _ := s.AddGame("Celeste", nil)
	entryID, _ := s.AddEntry(id, "Reached chapter 3")
	clock.AddDays(4)

	ok, err := s.EditEntry(id, entryID, "  Reached chapter 4  ")
	require.NoError(t, err)
	assert.True(t, ok)

	g, _ := s.GetGame(id)
	assert.Equal(t, "Reached chapter 4", g.Entries[0].Text)
	assert.Equal(t, "2025-07-03", g.Entries[0].Date)
	assert.Equal(t, "2025-07-03", g.LastEntry)
}

func TestEditEntryRejectsEmptyText(t *testing.T) {
	s, _ := newTestStore(t, kv.NewMemoryStore())

	id, _ := s.AddGame("Celeste", nil)
	entryID, _ := s.AddEntry(id, "original")

	ok, err := s.EditEntry(id, entryID, "")
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
	assert.False(t, ok)

	g, _ := s.GetGame(id)
	assert.Equal(t, "original", g.Entries[0].Text)
}

func TestEditEntryUnknownIDs(t *testing.T) {
	s, _ := newTestStore(t, kv.NewMemoryStore())
	id, _ := s.AddGame("Celeste", nil)

	ok, err := s.EditEntry(id, ID(42), "text")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.EditEntry(ID(42), ID(42), "text")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeleteGameIsIdempotent(t *testing.T) {
	mem := kv.NewMemoryStore()
	s, _ := newTestStore(t, mem)

	keep, _ := s.AddGame("Keep", nil)
	gone, _ := s.AddGame("Gone", nil)

	assert.True(t, s.DeleteGame(gone))
	require.NoError(t, s.Flush(context.Background()))
	after := persistedGames(t, mem)

	assert.False(t, s.DeleteGame(gone))
	require.NoError(t, s.Flush(context.Background()))
	assert.Equal(t, after, persistedGames(t, mem))

	games := s.Games()
	require.Len(t, games, 1)
	assert.Equal(t, keep, games[0].ID)
}

func TestDeleteGameCascadesFiles(t *testing.T) {
	files := &recordingRemover{}
	s, _ := newTestStore(t, kv.NewMemoryStore(), WithFileRemover(files))

	id, _ := s.AddGame("Celeste", NewCustomCover(CustomCover{URI: "/media/cover.jpg"}))
	e1, _ := s.AddEntry(id, "one")
	e2, _ := s.AddEntry(id, "two")
	_, err := s.AddPhotoToEntry(id, e1, Photo{URI: "/media/a.jpg"})
	require.NoError(t, err)
	_, err = s.AddPhotoToEntry(id, e2, Photo{URI: "/media/b.jpg"})
	require.NoError(t, err)

	require.True(t, s.DeleteGame(id))
	require.NoError(t, s.Flush(context.Background()))

	assert.ElementsMatch(t, []string{"/media/cover.jpg", "/media/a.jpg", "/media/b.jpg"}, files.removed())
	_, ok := s.GetGame(id)
	assert.False(t, ok)
}

func TestDeleteEntryCascadesPhotos(t *testing.T) {
	files := &recordingRemover{}
	s, _ := newTestStore(t, kv.NewMemoryStore(), WithFileRemover(files))

	id, _ := s.AddGame("Celeste", nil)
	keep, _ := s.AddEntry(id, "keep")
	drop, _ := s.AddEntry(id, "drop")
	_, _ = s.AddPhotoToEntry(id, keep, Photo{URI: "/media/keep.jpg"})
	_, _ = s.AddPhotoToEntry(id, drop, Photo{URI: "/media/drop1.jpg"})
	_, _ = s.AddPhotoToEntry(id, drop, Photo{URI: "/media/drop2.jpg"})

	require.True(t, s.DeleteEntry(id, drop))
	require.NoError(t, s.Flush(context.Background()))

	g, _ := s.GetGame(id)
	for _, e := range g.Entries {
		assert.NotEqual(t, drop, e.ID)
		for _, p := range e.Images {
			assert.Equal(t, "/media/keep.jpg", p.URI)
		}
	}
	assert.ElementsMatch(t, []string{"/media/drop1.jpg", "/media/drop2.jpg"}, files.removed())
}

func TestPhotos(t *testing.T) {
	files := &recordingRemover{err: errors.New("permission denied")}
	s, _ := newTestStore(t, kv.NewMemoryStore(), WithFileRemover(files))

	id, _ := s.AddGame("Celeste", nil)
	entryID, _ := s.AddEntry(id, "screenshots")

	p1, err := s.AddPhotoToEntry(id, entryID, Photo{URI: "/media/1.jpg", Width: 640, Height: 480})
	require.NoError(t, err)
	p2, err := s.AddPhotoToEntry(id, entryID, Photo{URI: "/media/2.jpg"})
	require.NoError(t, err)
	assert.NotEqual(t, p1, p2)

	g, _ := s.GetGame(id)
	require.Len(t, g.Entries[0].Images, 2)
	assert.Equal(t, p1, g.Entries[0].Images[0].ID)
	assert.Equal(t, 640, g.Entries[0].Images[0].Width)
	assert.NotEmpty(t, g.Entries[0].Images[0].DateAdded)

	// A failing file delete still removes the photo.
	assert.True(t, s.DeletePhotoFromEntry(id, entryID, p1))
	require.NoError(t, s.Flush(context.Background()))
	g, _ = s.GetGame(id)
	require.Len(t, g.Entries[0].Images, 1)
	assert.Equal(t, p2, g.Entries[0].Images[0].ID)
	assert.Equal(t, []string{"/media/1.jpg"}, files.removed())

	assert.False(t, s.DeletePhotoFromEntry(id, entryID, p1))

	_, err = s.AddPhotoToEntry(id, entryID, Photo{})
	assert.True(t, apperror.IsValidation(err))

	pid, err := s.AddPhotoToEntry(id, ID(1), Photo{URI: "/media/3.jpg"})
	require.NoError(t, err)
	assert.Zero(t, pid)
}

func TestGamesOrderedByLastEntry(t *testing.T) {
	s, clock := newTestStore(t, kv.NewMemoryStore())

	a, _ := s.AddGame("A", nil)
	b, _ := s.AddGame("B", nil)
	clock.AddDays(1)
	_, _ = s.AddEntry(a, "played A")

	games := s.Games()
	require.Len(t, games, 2)
	assert.Equal(t, a, games[0].ID)
	assert.Equal(t, b, games[1].ID)

	// Storage order is insertion order, newest first.
	snap := s.Snapshot()
	assert.Equal(t, b, snap[0].ID)
}

func TestGetGameReturnsCopy(t *testing.T) {
	s, _ := newTestStore(t, kv.NewMemoryStore())
	id, _ := s.AddGame("Celeste", nil)
	_, _ = s.AddEntry(id, "text")

	g, _ := s.GetGame(id)
	g.Title = "changed"
	g.Entries[0].Text = "changed"

	again, _ := s.GetGame(id)
	assert.Equal(t, "Celeste", again.Title)
	assert.Equal(t, "text", again.Entries[0].Text)
}

func TestLoadRestoresPersistedGames(t *testing.T) {
	mem := kv.NewMemoryStore()
	s, _ := newTestStore(t, mem)
	id, _ := s.AddGame("Celeste", nil)
	entryID, _ := s.AddEntry(id, "text")
	require.NoError(t, s.Close(context.Background()))

	reopened, _ := newTestStore(t, mem)
	g, ok := reopened.GetGame(id)
	require.True(t, ok)
	require.Len(t, g.Entries, 1)
	assert.Equal(t, entryID, g.Entries[0].ID)

	// Fresh ids never collide with loaded ones.
	newID, err := reopened.AddGame("Hades", nil)
	require.NoError(t, err)
	assert.Greater(t, int64(newID), int64(entryID))
}

func TestLoadSeedsDemoGames(t *testing.T) {
	mem := kv.NewMemoryStore()
	s, _ := newTestStore(t, mem, WithSeed(DemoGames()))

	games := s.Games()
	require.Len(t, games, 2)
	assert.Equal(t, "The Legend of Zelda: Tears of the Kingdom", games[0].Title)
	assert.Equal(t, Stats{Games: 2, Entries: 3}, s.Stats())

	require.NoError(t, s.Flush(context.Background()))
	assert.Len(t, persistedGames(t, mem), 2)

	// The seed is only used for an absent key.
	require.NoError(t, mem.Set(context.Background(), GamesKey, "[]"))
	require.NoError(t, s.Load(context.Background()))
	assert.Empty(t, s.Games())
}

func TestLoadRejectsCorruptData(t *testing.T) {
	mem := kv.NewMemoryStore()
	require.NoError(t, mem.Set(context.Background(), GamesKey, "{not json"))

	s := NewStore(mem)
	defer s.Close(context.Background())
	require.Error(t, s.Load(context.Background()))

	raw, _, _ := mem.Get(context.Background(), GamesKey)
	assert.Equal(t, "{not json", raw)
}

func TestPersistenceFailureKeepsMutation(t *testing.T) {
	store := &failingKV{MemoryStore: kv.NewMemoryStore(), fail: true}
	s, _ := newTestStore(t, store)

	id, err := s.AddGame("Celeste", nil)
	require.NoError(t, err)

	err = s.Flush(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrPersistence)
	assert.Error(t, s.Err())

	_, ok := s.GetGame(id)
	assert.True(t, ok)

	store.mu.Lock()
	store.fail = false
	store.mu.Unlock()

	_, err = s.AddEntry(id, "recovered")
	require.NoError(t, err)
	require.NoError(t, s.Flush(context.Background()))
	assert.NoError(t, s.Err())
	assert.Len(t, persistedGames(t, store), 1)
}

func TestPersistedSnapshotsAreComplete(t *testing.T) {
	mem := kv.NewMemoryStore()
	s, _ := newTestStore(t, mem)

	for i := 0; i < 50; i++ {
		_, err := s.AddGame("Game", nil)
		require.NoError(t, err)
	}
	require.NoError(t, s.Flush(context.Background()))
	assert.Len(t, persistedGames(t, mem), 50)
}

func TestReplaceReloadsFromStorage(t *testing.T) {
	mem := kv.NewMemoryStore()
	s, _ := newTestStore(t, mem)
	_, _ = s.AddGame("Old", nil)

	err := s.Replace(context.Background(), func(ctx context.Context) error {
		return mem.Set(ctx, GamesKey, `[{"id":7,"title":"New","lastEntry":"2024-01-01","image":null,"entries":null}]`)
	})
	require.NoError(t, err)

	games := s.Games()
	require.Len(t, games, 1)
	assert.Equal(t, "New", games[0].Title)
	assert.NotNil(t, games[0].Entries)
}

func TestReplaceFailureKeepsState(t *testing.T) {
	s, _ := newTestStore(t, kv.NewMemoryStore())
	id, _ := s.AddGame("Old", nil)

	err := s.Replace(context.Background(), func(context.Context) error {
		return errors.New("boom")
	})
	require.Error(t, err)

	_, ok := s.GetGame(id)
	assert.True(t, ok)
}

func TestClearRemovesGamesKeyOnly(t *testing.T) {
	mem := kv.NewMemoryStore()
	require.NoError(t, mem.Set(context.Background(), "@gamepad_notes_settings", `{"darkMode":true}`))
	s, _ := newTestStore(t, mem)
	_, _ = s.AddGame("Celeste", nil)

	require.NoError(t, s.Clear(context.Background()))
	assert.Empty(t, s.Games())

	_, ok, _ := mem.Get(context.Background(), GamesKey)
	assert.False(t, ok)
	_, ok, _ = mem.Get(context.Background(), "@gamepad_notes_settings")
	assert.True(t, ok)
}

func TestMutationsAfterCloseStillPersist(t *testing.T) {
	mem := kv.NewMemoryStore()
	s, _ := newTestStore(t, mem)
	require.NoError(t, s.Close(context.Background()))

	_, err := s.AddGame("Late", nil)
	require.NoError(t, err)
	require.NoError(t, s.Flush(context.Background()))
	assert.Len(t, persistedGames(t, mem), 1)
}
