// Package kv defines the flat string-keyed store the journal and settings are
// persisted to, with SQLite and in-memory implementations.
//
// A successful Set is durable once it returns. Each key is written
// atomically on its own; Batcher adds all-or-nothing writes across keys for
// implementations that can offer it.
package kv

import "context"

type Store interface {
	// Get returns the value under key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error
	RemoveMany(ctx context.Context, keys []string) error
}

// Batcher is implemented by stores that can write several keys in one
// atomic step.
type Batcher interface {
	SetMany(ctx context.Context, values map[string]string) error
}
