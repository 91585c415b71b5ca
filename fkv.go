// Copyright 2026 The fkv Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package fkv is a key-value store where every key and every value has a
// fixed width, chosen when the store is created.  Records live in fixed
// slots of a single memory-mapped file; deleted slots are reused, most
// recently deleted first, and the file never grows past its initial size.
package fkv

import (
	"fmt"
	"math"

	"github.com/bpowers/fkv/internal/engine"
	"github.com/bpowers/fkv/internal/record"
	"github.com/bpowers/fkv/internal/slotfile"
	"github.com/bpowers/fkv/internal/unsafestring"
)

var (
	// ErrInvalidArgument is returned for keys or values of the wrong width,
	// and for unusable widths passed to Open.
	ErrInvalidArgument = engine.ErrInvalidArgument
	// ErrCapacityExceeded is returned when putting a new key into a store
	// whose slots are all active.
	ErrCapacityExceeded = engine.ErrCapacityExceeded
	// ErrClosed is returned by writes and Sync after Close.
	ErrClosed           = engine.ErrClosed
)

// Store is safe for concurrent use.  Reads proceed in parallel; writes are
// serialized.
type Store struct {
	e    *engine.Engine
	path string
}

// Open opens (or creates) the store at path.  keyLen and valueLen must match
// the widths the file was created with: the file has no header, so they
// can't be checked.
func Open(path string, keyLen, valueLen int, opts ...Option) (*Store, error) {
	o := newOptions(opts)

	layout := record.Layout{KeyLen: keyLen, ValueLen: valueLen}
	if err := layout.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidArgument, err)
	}
	if o.capacity < 0 {
		return nil, fmt.Errorf("%w: negative capacity %d", ErrInvalidArgument, o.capacity)
	}
	if o.capacity > math.MaxInt64/layout.RecordLen() {
		return nil, fmt.Errorf("%w: capacity %d records of %d bytes overflows the file size",
			ErrInvalidArgument, o.capacity, layout.RecordLen())
	}

	// a capacity of 0 leaves sizing to slotfile.DefaultSize
	f, err := slotfile.Open(path, o.capacity*layout.RecordLen())
	if err != nil {
		return nil, fmt.Errorf("slotfile.Open: %w", err)
	}

	e, err := engine.New(f, layout, engine.WithLogger(o.logger))
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("engine.New: %w", err)
	}

	if f.NeedsRecovery() && o.capacity > 0 && o.capacity != e.Capacity() {
		o.logger.Info("capacity taken from existing file",
			"path", path, "requested", o.capacity, "capacity", e.Capacity())
	}
	if rem := f.Len() % layout.RecordLen(); rem != 0 {
		o.logger.Warn("file length isn't a whole number of records; trailing bytes are unused",
			"path", path, "len", f.Len(), "recordLen", layout.RecordLen())
	}

	return &Store{
		e:    e,
		path: path,
	}, nil
}

// Get returns a copy of the value for key, and whether it was found.
func (s *Store) Get(key []byte) ([]byte, bool) {
	return s.e.Get(key)
}

func (s *Store) GetString(key string) (string, bool) {
	// the engine only reads (and copies) keys it is handed
	v, ok := s.e.Get(unsafestring.ToBytes(key))
	if !ok {
		return "", false
	}
	return string(v), true
}

// Put inserts or updates key.  key and value must be exactly the widths the
// store was opened with.
func (s *Store) Put(key, value []byte) error {
	return s.e.Put(key, value)
}

func (s *Store) PutString(key, value string) error {
	return s.e.Put(unsafestring.ToBytes(key), unsafestring.ToBytes(value))
}

// Delete removes key.  Deleting a missing key is not an error.
func (s *Store) Delete(key []byte) error {
	return s.e.Delete(key)
}

func (s *Store) DeleteString(key string) error {
	return s.e.Delete(unsafestring.ToBytes(key))
}

// Len returns the number of live records.
func (s *Store) Len() int {
	return s.e.Len()
}

// DeletedLen returns the number of deleted slots available for reuse.
func (s *Store) DeletedLen() int {
	return s.e.DeletedLen()
}

// Capacity returns the maximum number of live records.
func (s *Store) Capacity() int64 {
	return s.e.Capacity()
}

func (s *Store) KeyLen() int {
	return s.e.Layout().KeyLen
}

func (s *Store) ValueLen() int {
	return s.e.Layout().ValueLen
}

func (s *Store) Path() string {
	return s.path
}

// Clear deletes every record.
func (s *Store) Clear() error {
	return s.e.Clear()
}

// Range calls fn for every live record, in no particular order, until fn
// returns false.  fn must not modify key or value, or retain them after it
// returns, and must not call methods on s.
func (s *Store) Range(fn func(key, value []byte) bool) {
	s.e.Range(fn)
}

// Fingerprint returns a hash of the live records that is independent of
// the order they were written in.
func (s *Store) Fingerprint() uint64 {
	return s.e.Fingerprint()
}

// Sync flushes written records to stable storage.  Without it, writes reach
// the file whenever the OS writes back the mapping.
func (s *Store) Sync() error {
	return s.e.Sync()
}

// Close releases the file.  Calling Close more than once is safe.
func (s *Store) Close() error {
	if err := s.e.Close(); err != nil {
		return fmt.Errorf("close %s: %w", s.path, err)
	}
	return nil
}
