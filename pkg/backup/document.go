// Package backup exports the journal and settings to a portable JSON
// document and restores them from one.
package backup

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/unowned-ai/padnotes/pkg/apperror"
	"github.com/unowned-ai/padnotes/pkg/journal"
	"github.com/unowned-ai/padnotes/pkg/settings"
)

// Version is written into every exported document. Documents whose major
// component differs are rejected on import.
const Version = "1.0.0"

// ExportDateLayout matches the ISO-8601 form with milliseconds in UTC.
const ExportDateLayout = "2006-01-02T15:04:05.000Z07:00"

type Document struct {
	Version      string             `json:"version"`
	ExportDate   string             `json:"exportDate"`
	AppName      string             `json:"appName"`
	Platform     string             `json:"platform"`
	Games        []journal.Game     `json:"games"`
	Settings     *settings.Settings `json:"settings,omitempty"`
	TotalGames   int                `json:"totalGames"`
	TotalEntries int                `json:"totalEntries"`
}

// Filename returns the conventional name of a backup file, e.g.
// "gamepad-notes-backup-2025-07-03.json".
func Filename(slug, date string) string {
	return fmt.Sprintf("%s-backup-%s.json", slug, date)
}

// Parsed is a validated backup document ready to be committed.
type Parsed struct {
	Version string
	Games   []journal.Game
	// Settings is nil when the document carries no settings fields.
	Settings *settings.Patch
	Summary  Summary
}

// Summary describes what an import will write. Counts are computed from
// the games themselves, never from the document's own totals.
type Summary struct {
	Games       int  `json:"games"`
	Entries     int  `json:"entries"`
	Photos      int  `json:"photos"`
	HasSettings bool `json:"hasSettings"`
}

func (s Summary) Message() string {
	msg := fmt.Sprintf("Import %s with %s? All current games will be replaced.",
		plural(s.Games, "game"), plural(s.Entries, "entry"))
	if s.HasSettings {
		msg += " Settings will be restored from the backup."
	}
	return msg
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	if strings.HasSuffix(noun, "y") {
		return fmt.Sprintf("%d %sies", n, strings.TrimSuffix(noun, "y"))
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

func invalid(field, msg string) error {
	return apperror.ValidationFailed(field, msg)
}

// Parse decodes and validates a backup document. It never touches any
// store; every failure is a validation error.
func Parse(data []byte) (*Parsed, error) {
	return parse(data, journal.FormatDate(time.Now()))
}

// parse is Parse with today's date supplied; games without entries or a
// lastEntry are stamped with it.
func parse(data []byte, today string) (*Parsed, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, &apperror.AppError{
			Err:     apperror.ErrValidation,
			Message: "malformed document",
			Cause:   err,
		}
	}

	rawGames, ok := fields["games"]
	rawGames = bytes.TrimSpace(rawGames)
	if !ok || len(rawGames) == 0 || rawGames[0] != '[' {
		return nil, invalid("games", "missing or invalid games field")
	}

	p := &Parsed{}
	if raw, ok := fields["version"]; ok && !isNull(raw) {
		if err := json.Unmarshal(raw, &p.Version); err != nil {
			return nil, invalid("version", "version must be a string")
		}
		if err := checkVersion(p.Version); err != nil {
			return nil, err
		}
	}

	if err := json.Unmarshal(rawGames, &p.Games); err != nil {
		return nil, &apperror.AppError{
			Err:     apperror.ErrValidation,
			Message: "invalid games field",
			Field:   "games",
			Cause:   err,
		}
	}
	if p.Games == nil {
		p.Games = []journal.Game{}
	}
	if err := validateGames(p.Games, today); err != nil {
		return nil, err
	}

	if raw, ok := fields["settings"]; ok && !isNull(raw) {
		var patch settings.Patch
		if err := json.Unmarshal(raw, &patch); err != nil {
			return nil, &apperror.AppError{
				Err:     apperror.ErrValidation,
				Message: "invalid settings",
				Field:   "settings",
				Cause:   err,
			}
		}
		if !patch.Empty() {
			p.Settings = &patch
		}
	}

	st := journal.Count(p.Games)
	p.Summary = Summary{
		Games:       st.Games,
		Entries:     st.Entries,
		Photos:      st.Photos,
		HasSettings: p.Settings != nil,
	}
	return p, nil
}

func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}

func checkVersion(v string) error {
	major, _, _ := strings.Cut(strings.TrimSpace(v), ".")
	want, _, _ := strings.Cut(Version, ".")
	if _, err := strconv.Atoi(major); err != nil {
		return invalid("version", fmt.Sprintf("unrecognized version %q", v))
	}
	if major != want {
		return invalid("version", fmt.Sprintf("unsupported backup version %s (expected %s.x)", v, want))
	}
	return nil
}

// validateGames checks record-level integrity and normalizes derived
// fields in place.
func validateGames(games []journal.Game, today string) error {
	gameIDs := make(map[journal.ID]bool, len(games))
	entryIDs := make(map[journal.ID]bool)
	photoIDs := make(map[journal.ID]bool)

	for gi := range games {
		g := &games[gi]
		path := fmt.Sprintf("games[%d]", gi)
		if g.ID == 0 {
			return invalid(path+".id", "game id is required")
		}
		if gameIDs[g.ID] {
			return invalid(path+".id", fmt.Sprintf("duplicate game id %s", g.ID))
		}
		gameIDs[g.ID] = true

		g.Title = strings.TrimSpace(g.Title)
		if g.Title == "" {
			return invalid(path+".title", "game title must not be empty")
		}
		if g.Image != nil {
			if err := journal.ValidateCover(*g.Image); err != nil {
				return invalid(path+".image", apperror.Reason(err))
			}
		}
		if g.Entries == nil {
			g.Entries = []journal.Entry{}
		}

		for ei := range g.Entries {
			e := &g.Entries[ei]
			epath := fmt.Sprintf("%s.entries[%d]", path, ei)
			if e.ID == 0 || entryIDs[e.ID] {
				return invalid(epath+".id", "entry id must be present and unique")
			}
			entryIDs[e.ID] = true
			if !journal.ValidDate(e.Date) {
				return invalid(epath+".date", fmt.Sprintf("invalid entry date %q", e.Date))
			}
			if strings.TrimSpace(e.Text) == "" {
				return invalid(epath+".text", "entry text must not be empty")
			}
			if e.Images == nil {
				e.Images = []journal.Photo{}
			}
			for pi, ph := range e.Images {
				ppath := fmt.Sprintf("%s.images[%d]", epath, pi)
				if ph.ID == 0 || photoIDs[ph.ID] {
					return invalid(ppath+".id", "photo id must be present and unique")
				}
				photoIDs[ph.ID] = true
				if strings.TrimSpace(ph.URI) == "" {
					return invalid(ppath+".uri", "photo uri must not be empty")
				}
			}
		}

		switch latest := journal.LatestEntryDate(g.Entries); {
		case latest != "":
			g.LastEntry = latest
		case g.LastEntry == "":
			g.LastEntry = today
		case !journal.ValidDate(g.LastEntry):
			return invalid(path+".lastEntry", fmt.Sprintf("invalid lastEntry %q", g.LastEntry))
		}
	}
	return nil
}
