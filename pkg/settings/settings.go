// Package settings holds the user preferences record and its store.
package settings

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

type TextSize string

const (
	TextSmall  TextSize = "small"
	TextMedium TextSize = "medium"
	TextLarge  TextSize = "large"
)

// ParseTextSize accepts small, medium or large in any case.
func ParseTextSize(s string) (TextSize, error) {
	ts := TextSize(strings.ToLower(strings.TrimSpace(s)))
	if !ts.Valid() {
		return "", fmt.Errorf("invalid text size %q (want small, medium or large)", s)
	}
	return ts, nil
}

func (t TextSize) Valid() bool {
	switch t {
	case TextSmall, TextMedium, TextLarge:
		return true
	}
	return false
}

func (t TextSize) multiplier() float64 {
	switch t {
	case TextSmall:
		return 0.9
	case TextLarge:
		return 1.1
	default:
		return 1.0
	}
}

// Scale applies the text size to a base font size.
func (t TextSize) Scale(base int) int {
	return int(math.Round(float64(base) * t.multiplier()))
}

type Settings struct {
	DarkMode           bool     `json:"darkMode"`
	TextSize           TextSize `json:"textSize"`
	ShowConfirmDeletes bool     `json:"showConfirmDeletes"`
	AutoSave           bool     `json:"autoSave"`
}

func Defaults() Settings {
	return Settings{
		DarkMode:           false,
		TextSize:           TextMedium,
		ShowConfirmDeletes: true,
		AutoSave:           true,
	}
}

// Patch is a partial update; nil fields are left unchanged.
type Patch struct {
	DarkMode           *bool     `json:"darkMode,omitempty"`
	TextSize           *TextSize `json:"textSize,omitempty"`
	ShowConfirmDeletes *bool     `json:"showConfirmDeletes,omitempty"`
	AutoSave           *bool     `json:"autoSave,omitempty"`
}

func (p Patch) Empty() bool {
	return p.DarkMode == nil && p.TextSize == nil && p.ShowConfirmDeletes == nil && p.AutoSave == nil
}

// Validate rejects a text size outside the known set.
func (p Patch) Validate() error {
	if p.TextSize != nil && !p.TextSize.Valid() {
		return fmt.Errorf("invalid text size %q", *p.TextSize)
	}
	return nil
}

// Apply merges p into s. An unknown text size keeps the current value.
func (s Settings) Apply(p Patch) Settings {
	if p.DarkMode != nil {
		s.DarkMode = *p.DarkMode
	}
	if p.TextSize != nil && p.TextSize.Valid() {
		s.TextSize = *p.TextSize
	}
	if p.ShowConfirmDeletes != nil {
		s.ShowConfirmDeletes = *p.ShowConfirmDeletes
	}
	if p.AutoSave != nil {
		s.AutoSave = *p.AutoSave
	}
	return s
}

// Merge decodes a possibly partial JSON object and merges it into s.
// Fields absent from raw keep their current values.
func (s Settings) Merge(raw []byte) (Settings, error) {
	var p Patch
	if err := json.Unmarshal(raw, &p); err != nil {
		return s, err
	}
	return s.Apply(p), nil
}
