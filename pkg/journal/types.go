package journal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the storage format of entry dates and Game.LastEntry.
const DateLayout = "2006-01-02"

// ID identifies a game, entry or photo. It is serialized as a JSON number.
type ID int64

func (id ID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// UnmarshalJSON accepts both numbers and numeric strings.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if string(data) == "null" {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		data = []byte(s)
	}
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %s", data)
	}
	*id = ID(n)
	return nil
}

// ParseID parses a decimal identifier.
func ParseID(s string) (ID, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return ID(n), nil
}

type Game struct {
	ID        ID      `json:"id"`
	Title     string  `json:"title"`
	LastEntry string  `json:"lastEntry"`
	Image     *Cover  `json:"image"`
	Entries   []Entry `json:"entries"`
}

// Entry is one dated note. Entries are stored newest first.
type Entry struct {
	ID     ID      `json:"id"`
	Date   string  `json:"date"`
	Text   string  `json:"text"`
	Images []Photo `json:"images"`
}

type Photo struct {
	ID        ID     `json:"id"`
	URI       string `json:"uri"`
	Filename  string `json:"filename"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	DateAdded string `json:"dateAdded"`
}

// Stats counts the entities of a collection.
type Stats struct {
	Games   int `json:"games"`
	Entries int `json:"entries"`
	Photos  int `json:"photos"`
}

// Count tallies games, entries and photos.
func Count(games []Game) Stats {
	st := Stats{Games: len(games)}
	for _, g := range games {
		st.Entries += len(g.Entries)
		for _, e := range g.Entries {
			st.Photos += len(e.Images)
		}
	}
	return st
}

// clone returns a deep copy; callers never share slices with the store.
func (g Game) clone() Game {
	out := g
	if g.Image != nil {
		img := g.Image.clone()
		out.Image = &img
	}
	out.Entries = make([]Entry, len(g.Entries))
	for i, e := range g.Entries {
		out.Entries[i] = e.clone()
	}
	return out
}

func (e Entry) clone() Entry {
	out := e
	out.Images = make([]Photo, len(e.Images))
	copy(out.Images, e.Images)
	return out
}

func cloneGames(games []Game) []Game {
	out := make([]Game, len(games))
	for i, g := range games {
		out[i] = g.clone()
	}
	return out
}

// LatestEntryDate returns the greatest entry date, or "" without entries.
func LatestEntryDate(entries []Entry) string {
	latest := ""
	for _, e := range entries {
		if e.Date > latest {
			latest = e.Date
		}
	}
	return latest
}

// ValidDate reports whether s is a YYYY-MM-DD calendar date.
func ValidDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// FormatDate renders t in the storage date format, in t's location.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// FormatDisplayDate renders a stored date as e.g. "THU, JUL 3, 2025".
// Unparseable input is returned unchanged.
func FormatDisplayDate(date string) string {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return date
	}
	return strings.ToUpper(t.Format("Mon, Jan 2, 2006"))
}
