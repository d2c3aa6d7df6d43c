// Package bolt implements apl.Store on an embedded bbolt database, one
// bucket entry per API URL.
package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bbolt "go.etcd.io/bbolt"

	"github.com/logistiker/saleor-app/internal/apl"
)

var bucketName = []byte("installations")

// Store implements apl.Store backed by bbolt.
type Store struct {
	db *bbolt.DB
}

var _ apl.Store = (*Store)(nil)

// Open opens (or creates) the database at path. bbolt holds an exclusive file
// lock, so a second process opening the same path waits up to one second and
// then fails.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, apl.IOError("open", err)
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, apl.IOError("open", err)
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	}); err != nil {
		db.Close()
		return nil, apl.IOError("open", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database file.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Get(ctx context.Context, apiURL string) (apl.Record, bool, error) {
	if err := ctx.Err(); err != nil {
		return apl.Record{}, false, err
	}

	var (
		rec apl.Record
		ok  bool
	)
	err := s.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket(bucketName).Get([]byte(apiURL))
		if raw == nil {
			return nil
		}
		ok = true
		return json.Unmarshal(raw, &rec)
	})
	if err != nil {
		return apl.Record{}, false, apl.CorruptError("get", fmt.Errorf("record %q: %w", apiURL, err))
	}
	return rec, ok, nil
}

func (s *Store) Set(ctx context.Context, rec apl.Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("bolt apl: encode record: %w", err)
	}
	if err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).Put([]byte(rec.APIURL), data)
	}); err != nil {
		return apl.IOError("set", err)
	}
	return nil
}

func (s *Store) Remove(ctx context.Context, apiURL string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).Delete([]byte(apiURL))
	}); err != nil {
		return apl.IOError("remove", err)
	}
	return nil
}

// List returns records in key order, which bbolt already keeps bytewise.
func (s *Store) List(ctx context.Context) ([]apl.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := make([]apl.Record, 0)
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).ForEach(func(k, v []byte) error {
			var rec apl.Record
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("record %q: %w", k, err)
			}
			result = append(result, rec)
			return nil
		})
	})
	if err != nil {
		return nil, apl.CorruptError("list", err)
	}
	return result, nil
}
