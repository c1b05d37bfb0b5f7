package backup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"

	"github.com/unowned-ai/padnotes/pkg/kv"
)

func (s *Service) commit(ctx context.Context, values map[string]string) error {
	if b, ok := s.kv.(kv.Batcher); ok {
		return b.SetMany(ctx, values)
	}
	return stagedCommit(ctx, s.kv, values, s.log)
}

// stagedCommit replaces several keys on a store without multi-key
// transactions. New values are first written to staging keys and read back;
// only then are the live keys overwritten. If overwriting fails part way the
// keys already overwritten get their previous values back.
func stagedCommit(ctx context.Context, store kv.Store, values map[string]string, log *slog.Logger) error {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	previous := make(map[string]*string, len(keys))
	for _, k := range keys {
		v, found, err := store.Get(ctx, k)
		if err != nil {
			return fmt.Errorf("read %q: %w", k, err)
		}
		if found {
			previous[k] = &v
		}
	}

	token := uuid.NewString()
	staging := make([]string, 0, len(keys))
	defer func() {
		if err := store.RemoveMany(context.WithoutCancel(ctx), staging); err != nil {
			log.Warn("failed to remove staging keys", "keys", staging, "error", err)
		}
	}()

	for _, k := range keys {
		sk := k + ".staging." + token
		staging = append(staging, sk)
		if err := store.Set(ctx, sk, values[k]); err != nil {
			return fmt.Errorf("stage %q: %w", k, err)
		}
		got, found, err := store.Get(ctx, sk)
		if err != nil {
			return fmt.Errorf("verify %q: %w", k, err)
		}
		if !found || got != values[k] {
			return fmt.Errorf("verify %q: staged value does not match", k)
		}
	}

	swapped := make([]string, 0, len(keys))
	for _, k := range keys {
		if err := store.Set(ctx, k, values[k]); err != nil {
			if rbErr := rollback(context.WithoutCancel(ctx), store, swapped, previous); rbErr != nil {
				log.Error("rollback after failed import left keys inconsistent", "keys", swapped, "error", rbErr)
				return errors.Join(fmt.Errorf("swap %q: %w", k, err), rbErr)
			}
			return fmt.Errorf("swap %q: %w", k, err)
		}
		swapped = append(swapped, k)
	}
	return nil
}

func rollback(ctx context.Context, store kv.Store, keys []string, previous map[string]*string) error {
	var errs []error
	for _, k := range keys {
		var err error
		if prev := previous[k]; prev != nil {
			err = store.Set(ctx, k, *prev)
		} else {
			err = store.Remove(ctx, k)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("restore %q: %w", k, err))
		}
	}
	return errors.Join(errs...)
}
