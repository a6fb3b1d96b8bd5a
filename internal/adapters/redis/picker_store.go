package redisad

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"midway_hotel/internal/domain"
)

const maxTxAttempts = 5

// PickerStore keeps picker sessions in Redis so every API instance sees
// the same marker generation. Updates are optimistic WATCH/MULTI cycles.
type PickerStore struct {
	c   *redis.Client
	ttl time.Duration
}

func NewPickerStore(c *redis.Client, ttl time.Duration) *PickerStore {
	return &PickerStore{c: c, ttl: ttl}
}

func pickerKey(id string) string { return "picker:" + id }

func (s *PickerStore) Create(ctx context.Context, st domain.PickerState) error {
	b, err := json.Marshal(st)
	if err != nil {
		return err
	}
	ok, err := s.c.SetNX(ctx, pickerKey(st.ID), b, s.ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("picker %s already exists", st.ID)
	}
	return nil
}

func (s *PickerStore) Get(ctx context.Context, id string) (domain.PickerState, error) {
	return s.load(ctx, s.c, id)
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (s *PickerStore) load(ctx context.Context, g getter, id string) (domain.PickerState, error) {
	var st domain.PickerState
	b, err := g.Get(ctx, pickerKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return st, fmt.Errorf("%w: picker %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return st, err
	}
	return st, json.Unmarshal(b, &st)
}

func (s *PickerStore) Update(ctx context.Context, id string, fn func(*domain.PickerState) error) (domain.PickerState, error) {
	key := pickerKey(id)
	var out domain.PickerState

	txf := func(tx *redis.Tx) error {
		st, err := s.load(ctx, tx, id)
		if err != nil {
			return err
		}
		orig := st
		if err := fn(&st); err != nil {
			out = orig
			return err
		}
		b, err := json.Marshal(st)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, b, s.ttl)
			return nil
		})
		if err == nil {
			out = st
		}
		return err
	}

	for i := 0; i < maxTxAttempts; i++ {
		err := s.c.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue // key changed under us; re-read and re-apply
		}
		return out, err
	}
	return out, fmt.Errorf("picker %s: too much contention", id)
}
