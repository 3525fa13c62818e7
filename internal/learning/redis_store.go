package learning

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/gosight/gosight/optimizer/internal/identity"
)

const (
	defaultRecordsKey = "learning:records"
	maxUpdateRetries  = 10
)

// RedisStore keeps records as JSON fields of one hash. Updates use
// WATCH/MULTI so concurrent outcomes for a state are never lost.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore uses key for the record hash, or learning:records when empty
func NewRedisStore(client *redis.Client, key string) *RedisStore {
	if key == "" {
		key = defaultRecordsKey
	}
	return &RedisStore{client: client, key: key}
}

func (s *RedisStore) Get(ctx context.Context, state identity.State) (Record, bool, error) {
	raw, err := s.client.HGet(ctx, s.key, string(state)).Result()
	if errors.Is(err, redis.Nil) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("get learning record %s: %w", state, err)
	}
	r, err := decodeRecord(raw)
	if err != nil {
		return Record{}, false, err
	}
	return r, true, nil
}

func (s *RedisStore) Update(ctx context.Context, state identity.State, fn func(Record) Record) (Record, error) {
	var out Record
	txf := func(tx *redis.Tx) error {
		r := NewRecord(state)
		raw, err := tx.HGet(ctx, s.key, string(state)).Result()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return err
		default:
			if r, err = decodeRecord(raw); err != nil {
				return err
			}
		}

		next := fn(r)
		data, err := json.Marshal(next)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, s.key, string(state), data)
			return nil
		})
		if err == nil {
			out = next
		}
		return err
	}

	for i := 0; i < maxUpdateRetries; i++ {
		err := s.client.Watch(ctx, txf, s.key)
		if err == nil {
			return out, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return Record{}, fmt.Errorf("update learning record %s: %w", state, err)
	}
	return Record{}, fmt.Errorf("update learning record %s: too much contention", state)
}

func (s *RedisStore) All(ctx context.Context) ([]Record, error) {
	all, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("list learning records: %w", err)
	}
	out := make([]Record, 0, len(all))
	for _, raw := range all {
		r, err := decodeRecord(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	sortRecords(out)
	return out, nil
}

func decodeRecord(raw string) (Record, error) {
	var r Record
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return Record{}, fmt.Errorf("decode learning record: %w", err)
	}
	return r, nil
}
