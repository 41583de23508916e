// Package store provides the keyed persistence layer backing the document,
// bookmark, audio and sync-queue records.
package store

import (
	"bytes"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// ErrClosed is returned for operations on a closed store.
var ErrClosed = errors.New("store is closed")

// Store is a small keyed record store. Values are gob-encoded and
// zstd-compressed, one file per key under the store directory. There is no
// schema migration; callers own their record shapes.
type Store struct {
	dir     string
	encoder *zstd.Encoder
	decoder *zstd.Decoder

	mu     sync.Mutex
	closed bool
}

// Open creates or reopens a store rooted at dir.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	return &Store{dir: dir, encoder: encoder, decoder: decoder}, nil
}

// Put stores value under key, replacing any previous record.
func (s *Store) Put(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(value); err != nil {
		return fmt.Errorf("encode record %q: %w", key, err)
	}
	compressed := s.encoder.EncodeAll(buf.Bytes(), nil)

	path := s.path(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, compressed, 0o644); err != nil {
		return fmt.Errorf("write record %q: %w", key, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("commit record %q: %w", key, err)
	}
	return nil
}

// Get loads the record under key into value, reporting whether it existed.
func (s *Store) Get(key string, value any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, ErrClosed
	}

	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read record %q: %w", key, err)
	}

	raw, err := s.decoder.DecodeAll(data, nil)
	if err != nil {
		return false, fmt.Errorf("decompress record %q: %w", key, err)
	}
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(value); err != nil {
		return false, fmt.Errorf("decode record %q: %w", key, err)
	}
	return true, nil
}

// Delete removes the record under key. Deleting a missing record is a no-op.
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	err := os.Remove(s.path(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete record %q: %w", key, err)
	}
	return nil
}

// Close releases the compressor resources.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.decoder.Close()
	return s.encoder.Close()
}

func (s *Store) path(key string) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(s.dir, hex.EncodeToString(sum[:16])+".rec")
}
