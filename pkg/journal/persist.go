package journal

import (
	"context"
	"log/slog"
	"sync"

	"github.com/unowned-ai/padnotes/pkg/kv"
)

type waiter struct {
	seq uint64
	ch  chan error
}

// writer persists full snapshots of the games collection in the background.
// Snapshots queued while a write is in flight collapse into the newest one,
// so a key is only ever written with a complete collection.
type writer struct {
	kv  kv.Store
	key string
	log *slog.Logger

	// writeMu serializes take-and-write so snapshots land in queue order.
	writeMu sync.Mutex

	mu      sync.Mutex
	pending *string
	queued  uint64
	done    uint64
	lastErr error
	waiters []waiter
	closed  bool

	wake     chan struct{}
	stop     chan struct{}
	exited   chan struct{}
	stopOnce sync.Once
}

func newWriter(store kv.Store, key string, log *slog.Logger) *writer {
	w := &writer{
		kv:     store,
		key:    key,
		log:    log,
		wake:   make(chan struct{}, 1),
		stop:   make(chan struct{}),
		exited: make(chan struct{}),
	}
	go w.run()
	return w
}

// enqueue schedules value to be written and returns its sequence number.
// Once the writer is closed the write happens on the caller's goroutine.
func (w *writer) enqueue(value string) uint64 {
	w.mu.Lock()
	w.queued++
	seq := w.queued
	w.pending = &value
	closed := w.closed
	w.mu.Unlock()

	if closed {
		w.drain()
		return seq
	}
	select {
	case w.wake <- struct{}{}:
	default:
	}
	return seq
}

func (w *writer) run() {
	defer close(w.exited)
	for {
		select {
		case <-w.wake:
			w.drain()
		case <-w.stop:
			w.drain()
			return
		}
	}
}

func (w *writer) drain() {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()

	for {
		w.mu.Lock()
		if w.pending == nil {
			w.mu.Unlock()
			return
		}
		value := *w.pending
		seq := w.queued
		w.pending = nil
		w.mu.Unlock()

		// Writes are not cancellable; a started write runs to completion.
		err := w.kv.Set(context.Background(), w.key, value)
		if err != nil {
			w.log.Error("failed to persist games", "key", w.key, "seq", seq, "error", err)
		} else {
			w.log.Debug("persisted games", "key", w.key, "seq", seq, "bytes", len(value))
		}

		w.mu.Lock()
		w.done = seq
		w.lastErr = err
		remaining := w.waiters[:0]
		for _, wt := range w.waiters {
			if wt.seq <= seq {
				wt.ch <- err
				continue
			}
			remaining = append(remaining, wt)
		}
		w.waiters = remaining
		w.mu.Unlock()
	}
}

// wait blocks until the snapshot with sequence seq (or a newer one) has been
// written and returns that write's error.
func (w *writer) wait(ctx context.Context, seq uint64) error {
	w.mu.Lock()
	if w.done >= seq {
		err := w.lastErr
		w.mu.Unlock()
		return err
	}
	ch := make(chan error, 1)
	w.waiters = append(w.waiters, waiter{seq: seq, ch: ch})
	w.mu.Unlock()

	select {
	case err := <-ch:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *writer) flush(ctx context.Context) error {
	w.mu.Lock()
	seq := w.queued
	w.mu.Unlock()
	return w.wait(ctx, seq)
}

// err reports the outcome of the most recent write.
func (w *writer) err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastErr
}

func (w *writer) close(ctx context.Context) error {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()

	w.stopOnce.Do(func() { close(w.stop) })
	select {
	case <-w.exited:
	case <-ctx.Done():
		return ctx.Err()
	}
	return w.err()
}
