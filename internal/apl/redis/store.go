// Package redis implements apl.Store as a Redis hash of JSON records keyed by
// API URL.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	goredis "github.com/go-redis/redis/v8"

	"github.com/logistiker/saleor-app/internal/apl"
)

// DefaultPrefix namespaces the hash when several apps share a Redis.
const DefaultPrefix = "saleor-app:"

// Store implements apl.Store backed by Redis.
type Store struct {
	client goredis.UniversalClient
	key    string
}

var _ apl.Store = (*Store)(nil)

// New creates a Store writing to the "<prefix>installations" hash.
func New(client goredis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{client: client, key: prefix + "installations"}
}

// Key returns the Redis hash holding the records.
func (s *Store) Key() string { return s.key }

func (s *Store) Get(ctx context.Context, apiURL string) (apl.Record, bool, error) {
	raw, err := s.client.HGet(ctx, s.key, apiURL).Bytes()
	if errors.Is(err, goredis.Nil) {
		return apl.Record{}, false, nil
	}
	if err != nil {
		return apl.Record{}, false, wrap("get", err)
	}
	rec, err := decode(apiURL, raw)
	if err != nil {
		return apl.Record{}, false, apl.CorruptError("get", err)
	}
	return rec, true, nil
}

// Set writes the record with a single HSET, so writers of distinct keys never
// interfere and a repeated registration replaces the previous value.
func (s *Store) Set(ctx context.Context, rec apl.Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("redis apl: encode record: %w", err)
	}
	if err := s.client.HSet(ctx, s.key, rec.APIURL, data).Err(); err != nil {
		return wrap("set", err)
	}
	return nil
}

func (s *Store) Remove(ctx context.Context, apiURL string) error {
	if err := s.client.HDel(ctx, s.key, apiURL).Err(); err != nil {
		return wrap("remove", err)
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]apl.Record, error) {
	all, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, wrap("list", err)
	}
	result := make([]apl.Record, 0, len(all))
	for field, value := range all {
		rec, err := decode(field, []byte(value))
		if err != nil {
			return nil, apl.CorruptError("list", err)
		}
		result = append(result, rec)
	}
	return apl.SortRecords(result), nil
}

func decode(field string, raw []byte) (apl.Record, error) {
	var rec apl.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return apl.Record{}, fmt.Errorf("record %q: %w", field, err)
	}
	if rec.APIURL != field {
		return apl.Record{}, fmt.Errorf("record %q: apiUrl mismatch %q", field, rec.APIURL)
	}
	return rec, nil
}

func wrap(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return apl.IOError(op, err)
}
