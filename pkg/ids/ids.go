// Package ids issues the numeric identifiers used for games, entries and
// photos. Identifiers are Unix milliseconds at creation, bumped forward when
// the clock has not moved, so they are unique and strictly increasing within
// a process.
package ids

import (
	"sync"
	"time"
)

type Generator struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

func New() *Generator {
	return NewWithClock(time.Now)
}

// NewWithClock returns a Generator reading time from now.
func NewWithClock(now func() time.Time) *Generator {
	return &Generator{now: now}
}

// Next returns a fresh identifier, always greater than any previously issued
// or observed one.
func (g *Generator) Next() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := g.now().UnixMilli()
	if id <= g.last {
		id = g.last + 1
	}
	g.last = id
	return id
}

// Observe raises the floor to id so that identifiers loaded from storage are
// never reissued.
func (g *Generator) Observe(id int64) {
	g.mu.Lock()
	if id > g.last {
		g.last = id
	}
	g.mu.Unlock()
}
