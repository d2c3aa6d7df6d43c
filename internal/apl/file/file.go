// Package file implements apl.Store on top of a single JSON file holding an
// object keyed by API URL.
//
// Every mutation is a read-modify-write of the whole file performed under the
// store's mutex and an exclusive advisory lock on a sidecar "<path>.lock"
// file, so concurrent registrations (in this process or another process
// sharing the file) cannot lose each other's updates. The file itself is
// replaced atomically, so readers never observe a partial write.
package file

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/moby/sys/atomicwriter"

	"github.com/logistiker/saleor-app/internal/apl"
	"github.com/logistiker/saleor-app/internal/logging"
)

const defaultFileMode fs.FileMode = 0o600

// Option configures a Store.
type Option func(*Store)

// WithResetCorrupt selects the corrupt-file policy used by Open. When reset is
// false (the default) Open fails with apl.ErrCorrupt. When true the corrupt
// file is moved aside and the store starts empty.
func WithResetCorrupt(reset bool) Option {
	return func(s *Store) { s.resetCorrupt = reset }
}

// WithLogger sets the logger used for policy decisions taken by Open.
func WithLogger(log *logging.Logger) Option {
	return func(s *Store) { s.log = log }
}

// WithFileMode sets the permission bits of the data file.
func WithFileMode(mode fs.FileMode) Option {
	return func(s *Store) { s.mode = mode }
}

// Store is a file-backed apl.Store.
type Store struct {
	path         string
	lockPath     string
	mode         fs.FileMode
	resetCorrupt bool
	log          *logging.Logger

	mu sync.RWMutex
}

var _ apl.Store = (*Store)(nil)

// Open prepares the store at path, creating the parent directory if needed.
// An existing file is parsed once up front so a corrupt file is detected at
// startup rather than on the first registration.
func Open(path string, opts ...Option) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("file apl: path is required")
	}

	s := &Store{
		path:     path,
		lockPath: path + ".lock",
		mode:     defaultFileMode,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logging.Default()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, apl.IOError("open", err)
	}

	_, err := s.readLocked(false)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, apl.ErrCorrupt) || !s.resetCorrupt {
		return nil, err
	}

	aside := fmt.Sprintf("%s.corrupt-%d", path, time.Now().Unix())
	if renameErr := os.Rename(path, aside); renameErr != nil {
		return nil, apl.IOError("open", renameErr)
	}
	s.log.WithError(err).WithFields(map[string]interface{}{
		"path":  path,
		"moved": aside,
	}).Warn("installation store file was corrupt; starting empty")

	return s, nil
}

// Path returns the data file location.
func (s *Store) Path() string { return s.path }

func (s *Store) Get(ctx context.Context, apiURL string) (apl.Record, bool, error) {
	if err := ctx.Err(); err != nil {
		return apl.Record{}, false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := s.readLocked(false)
	if err != nil {
		return apl.Record{}, false, err
	}

	raw, ok := entries[apiURL]
	if !ok {
		return apl.Record{}, false, nil
	}
	rec, err := decodeRecord(apiURL, raw)
	if err != nil {
		return apl.Record{}, false, apl.CorruptError("get", err)
	}
	return rec, true, nil
}

func (s *Store) Set(ctx context.Context, rec apl.Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	encoded, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("file apl: encode record: %w", err)
	}

	return s.update(ctx, "set", func(entries map[string]json.RawMessage) bool {
		entries[rec.APIURL] = encoded
		return true
	})
}

func (s *Store) Remove(ctx context.Context, apiURL string) error {
	return s.update(ctx, "remove", func(entries map[string]json.RawMessage) bool {
		if _, ok := entries[apiURL]; !ok {
			return false
		}
		delete(entries, apiURL)
		return true
	})
}

func (s *Store) List(ctx context.Context) ([]apl.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := s.readLocked(false)
	if err != nil {
		return nil, err
	}

	result := make([]apl.Record, 0, len(entries))
	for key, raw := range entries {
		rec, err := decodeRecord(key, raw)
		if err != nil {
			return nil, apl.CorruptError("list", err)
		}
		result = append(result, rec)
	}
	return apl.SortRecords(result), nil
}

// update runs mutate over the current file contents and persists the result
// when mutate reports a change. The whole cycle holds the exclusive lock.
func (s *Store) update(ctx context.Context, op string, mutate func(map[string]json.RawMessage) bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	unlock, err := s.lock(true)
	if err != nil {
		return apl.IOError(op, err)
	}
	defer unlock()

	entries, err := s.read(op)
	if err != nil {
		return err
	}
	if !mutate(entries) {
		return nil
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return apl.CorruptError(op, err)
	}
	if err := atomicwriter.WriteFile(s.path, append(data, '\n'), s.mode); err != nil {
		return apl.IOError(op, err)
	}
	return nil
}

// readLocked reads the file under a shared (or exclusive) advisory lock. The
// caller must hold s.mu.
func (s *Store) readLocked(exclusive bool) (map[string]json.RawMessage, error) {
	unlock, err := s.lock(exclusive)
	if err != nil {
		return nil, apl.IOError("read", err)
	}
	defer unlock()

	return s.read("read")
}

func (s *Store) read(op string) (map[string]json.RawMessage, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return make(map[string]json.RawMessage), nil
	}
	if err != nil {
		return nil, apl.IOError(op, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return make(map[string]json.RawMessage), nil
	}

	var entries map[string]json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, apl.CorruptError(op, err)
	}
	if entries == nil {
		// the file held JSON null
		return nil, apl.CorruptError(op, errors.New("expected a JSON object"))
	}
	for key, raw := range entries {
		if _, err := decodeRecord(key, raw); err != nil {
			return nil, apl.CorruptError(op, err)
		}
	}
	return entries, nil
}

func (s *Store) lock(exclusive bool) (func(), error) {
	f, err := os.OpenFile(s.lockPath, os.O_CREATE|os.O_RDWR, s.mode)
	if err != nil {
		return nil, err
	}
	if err := lockFile(f, exclusive); err != nil {
		f.Close()
		return nil, err
	}
	return func() {
		_ = unlockFile(f)
		_ = f.Close()
	}, nil
}

func decodeRecord(key string, raw json.RawMessage) (apl.Record, error) {
	var rec apl.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return apl.Record{}, fmt.Errorf("record %q: %w", key, err)
	}
	if rec.APIURL == "" {
		rec.APIURL = key
	}
	if rec.APIURL != key {
		return apl.Record{}, fmt.Errorf("record %q: apiUrl mismatch %q", key, rec.APIURL)
	}
	return rec, nil
}
