package journal

import (
	"encoding/json"
	"errors"
	"strings"
)

// CustomCoverID is the id carried by custom cover images on the wire.
const CustomCoverID = "custom"

// Cover is a game's cover image: exactly one of Preset or Custom is set.
type Cover struct {
	Preset *PresetCover
	Custom *CustomCover
}

type PresetCover struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Emoji string `json:"emoji"`
}

type CustomCover struct {
	URI       string `json:"uri"`
	Filename  string `json:"filename"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	DateAdded string `json:"dateAdded"`
}

var presets = []PresetCover{
	{ID: "default", Name: "Default Game Icon", Emoji: "🎮"},
	{ID: "rpg", Name: "RPG", Emoji: "⚔️"},
	{ID: "racing", Name: "Racing", Emoji: "🏎️"},
	{ID: "sports", Name: "Sports", Emoji: "⚽"},
	{ID: "puzzle", Name: "Puzzle", Emoji: "🧩"},
	{ID: "shooter", Name: "Action/Shooter", Emoji: "🔫"},
	{ID: "adventure", Name: "Adventure", Emoji: "🗺️"},
	{ID: "platform", Name: "Platform", Emoji: "🦘"},
}

// Presets lists the built-in cover presets.
func Presets() []PresetCover {
	out := make([]PresetCover, len(presets))
	copy(out, presets)
	return out
}

// Preset returns the built-in preset cover with the given id.
func Preset(id string) (*Cover, bool) {
	for _, p := range presets {
		if p.ID == id {
			p := p
			return &Cover{Preset: &p}, true
		}
	}
	return nil, false
}

func NewCustomCover(c CustomCover) *Cover {
	return &Cover{Custom: &c}
}

// URI returns the custom image location, or "" for presets.
func (c *Cover) URI() string {
	if c == nil || c.Custom == nil {
		return ""
	}
	return c.Custom.URI
}

// Emoji returns the preset emoji, or "" for custom images.
func (c *Cover) Emoji() string {
	if c == nil || c.Preset == nil {
		return ""
	}
	return c.Preset.Emoji
}

func (c Cover) clone() Cover {
	out := Cover{}
	if c.Preset != nil {
		p := *c.Preset
		out.Preset = &p
	}
	if c.Custom != nil {
		cu := *c.Custom
		out.Custom = &cu
	}
	return out
}

type customWire struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Emoji     *string `json:"emoji"`
	URI       string  `json:"uri"`
	Filename  string  `json:"filename"`
	Width     int     `json:"width"`
	Height    int     `json:"height"`
	DateAdded string  `json:"dateAdded"`
}

func (c Cover) MarshalJSON() ([]byte, error) {
	switch {
	case c.Custom != nil && c.Preset == nil:
		return json.Marshal(customWire{
			ID:        CustomCoverID,
			Name:      "Custom Image",
			URI:       c.Custom.URI,
			Filename:  c.Custom.Filename,
			Width:     c.Custom.Width,
			Height:    c.Custom.Height,
			DateAdded: c.Custom.DateAdded,
		})
	case c.Preset != nil && c.Custom == nil:
		return json.Marshal(c.Preset)
	default:
		return nil, errors.New("cover must be exactly one of preset or custom")
	}
}

// UnmarshalJSON tells the two historic shapes apart: custom images carry
// id "custom" or a uri, presets carry neither.
func (c *Cover) UnmarshalJSON(data []byte) error {
	var w customWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.ID == CustomCoverID || strings.TrimSpace(w.URI) != "" {
		*c = Cover{Custom: &CustomCover{
			URI:       w.URI,
			Filename:  w.Filename,
			Width:     w.Width,
			Height:    w.Height,
			DateAdded: w.DateAdded,
		}}
		return nil
	}
	p := PresetCover{ID: w.ID, Name: w.Name}
	if w.Emoji != nil {
		p.Emoji = *w.Emoji
	}
	*c = Cover{Preset: &p}
	return nil
}
