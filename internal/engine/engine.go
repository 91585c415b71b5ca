// Copyright 2026 The fkv Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package engine keeps the key index and free-slot stack of a slot file in
// sync with what is on disk, and serves reads and writes against it.
package engine

import (
	"bytes"
	"cmp"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"

	"github.com/dgryski/go-farm"

	"github.com/bpowers/fkv/internal/bitset"
	"github.com/bpowers/fkv/internal/record"
)

var (
	ErrCapacityExceeded = errors.New("capacity exceeded")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrClosed           = errors.New("store is closed")
)

// Backend is the positional byte store an Engine sits on, usually a
// *slotfile.File.
type Backend interface {
	io.ReaderAt
	io.WriterAt
	MarkActive(off int64) error
	MarkDeleted(off int64) error
	WriteTerminator(off int64) error
	Len() int64
	NeedsRecovery() bool
	Sync() error
	Close() error
}

// Engine maps keys to slots.  Every slot below the allocation cursor is
// either referenced by exactly one indexed Record or sits on the free stack.
type Engine struct {
	mu sync.RWMutex

	b        Backend
	layout   record.Layout
	capacity int64 // in slots
	logger   *slog.Logger

	index   map[string]*record.Record
	free    []int64 // most recently freed slot last
	freeSet *bitset.Bitset
	cursor  int64 // byte offset of the first never-written slot
	closed  bool
}

// New builds an Engine over b.  If b holds data from a previous session the
// index and free stack are rebuilt from it before New returns.
func New(b Backend, layout record.Layout, opts ...Option) (*Engine, error) {
	if err := layout.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidArgument, err)
	}
	o := newOptions(opts)

	capacity := layout.Capacity(b.Len())
	e := &Engine{
		b:        b,
		layout:   layout,
		capacity: capacity,
		logger:   o.logger,
		index:    make(map[string]*record.Record),
		freeSet:  bitset.New(capacity),
	}

	if b.NeedsRecovery() {
		if err := e.replay(); err != nil {
			return nil, fmt.Errorf("recover: %w", err)
		}
	}

	return e, nil
}

func (e *Engine) checkWidths(key, value []byte) error {
	if len(key) != e.layout.KeyLen {
		return fmt.Errorf("%w: key is %d bytes, expected %d", ErrInvalidArgument, len(key), e.layout.KeyLen)
	}
	if len(value) != e.layout.ValueLen {
		return fmt.Errorf("%w: value is %d bytes, expected %d", ErrInvalidArgument, len(value), e.layout.ValueLen)
	}
	return nil
}

// Get returns a copy of the value stored for key.
func (e *Engine) Get(key []byte) ([]byte, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return nil, false
	}
	r, ok := e.index[string(key)]
	if !ok {
		return nil, false
	}
	return bytes.Clone(r.Value), true
}

// Put stores value under key.  An existing key is updated in place, in the
// slot it already owns; a new key takes the most recently freed slot, or
// the next never-written one.
func (e *Engine) Put(key, value []byte) error {
	if err := e.checkWidths(key, value); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrClosed
	}

	if r, ok := e.index[string(key)]; ok {
		// NOTE: not atomic.  A crash mid-copy leaves a torn value that
		// recovery can't detect.
		if _, err := e.b.WriteAt(value, e.layout.ValueOffset(r.Slot)); err != nil {
			return fmt.Errorf("b.WriteAt(value): %w", err)
		}
		copy(r.Value, value)
		return nil
	}

	if int64(len(e.index)) >= e.capacity {
		return fmt.Errorf("%w: all %d slots hold active records", ErrCapacityExceeded, e.capacity)
	}

	slot, reused, err := e.allocate()
	if err != nil {
		return err
	}
	if err := e.writeNew(slot, key, value); err != nil {
		e.release(slot, reused)
		return err
	}

	r := record.New(slot, key, value)
	e.index[r.StringKey()] = r
	return nil
}

// writeNew fills a slot front to back: status, key, value, terminator.
func (e *Engine) writeNew(slot int64, key, value []byte) error {
	l := e.layout
	if err := e.b.MarkActive(l.SlotOffset(slot)); err != nil {
		return fmt.Errorf("b.MarkActive: %w", err)
	}
	if _, err := e.b.WriteAt(key, l.KeyOffset(slot)); err != nil {
		return fmt.Errorf("b.WriteAt(key): %w", err)
	}
	if _, err := e.b.WriteAt(value, l.ValueOffset(slot)); err != nil {
		return fmt.Errorf("b.WriteAt(value): %w", err)
	}
	if err := e.b.WriteTerminator(l.TerminatorOffset(slot)); err != nil {
		return fmt.Errorf("b.WriteTerminator: %w", err)
	}
	return nil
}

func (e *Engine) allocate() (slot int64, reused bool, err error) {
	if n := len(e.free); n > 0 {
		slot = e.free[n-1]
		e.free = e.free[:n-1]
		e.freeSet.Remove(slot)
		return slot, true, nil
	}

	recordLen := e.layout.RecordLen()
	if e.cursor+recordLen > e.capacity*recordLen {
		return 0, false, fmt.Errorf("%w: cursor %d at end of file", ErrCapacityExceeded, e.cursor)
	}
	slot = e.cursor / recordLen
	e.cursor += recordLen
	return slot, false, nil
}

// release undoes allocate after a failed write.
func (e *Engine) release(slot int64, reused bool) {
	if !reused {
		e.cursor -= e.layout.RecordLen()
		return
	}
	// the status byte may already say active; best effort to flip it back
	if err := e.b.MarkDeleted(e.layout.SlotOffset(slot)); err != nil {
		e.logger.Warn("couldn't re-mark slot deleted after failed write", "slot", slot, "err", err)
	}
	e.pushFree(slot)
}

func (e *Engine) pushFree(slot int64) {
	if !e.freeSet.Add(slot) {
		panic(fmt.Errorf("invariant broken: slot %d freed twice (or beyond capacity %d)", slot, e.capacity))
	}
	e.free = append(e.free, slot)
}

// Delete removes key.  Deleting a key that isn't present is a no-op.
func (e *Engine) Delete(key []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrClosed
	}

	r, ok := e.index[string(key)]
	if !ok {
		return nil
	}
	if err := e.b.MarkDeleted(e.layout.SlotOffset(r.Slot)); err != nil {
		return fmt.Errorf("b.MarkDeleted: %w", err)
	}
	delete(e.index, r.StringKey())
	e.pushFree(r.Slot)
	return nil
}

// Clear deletes every key.  Freed slots are handed out again lowest first.
func (e *Engine) Clear() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrClosed
	}

	records := make([]*record.Record, 0, len(e.index))
	for _, r := range e.index {
		records = append(records, r)
	}
	slices.SortFunc(records, func(a, b *record.Record) int {
		return cmp.Compare(b.Slot, a.Slot)
	})

	for _, r := range records {
		if err := e.b.MarkDeleted(e.layout.SlotOffset(r.Slot)); err != nil {
			return fmt.Errorf("b.MarkDeleted(slot %d): %w", r.Slot, err)
		}
		delete(e.index, r.StringKey())
		e.pushFree(r.Slot)
	}
	return nil
}

// Len is the number of active records.
func (e *Engine) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.index)
}

// DeletedLen is the number of deleted slots waiting to be reused.
func (e *Engine) DeletedLen() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.free)
}

// Cursor is the byte offset of the first slot that has never been written.
func (e *Engine) Cursor() int64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cursor
}

// Capacity is the number of slots in the backing file.
func (e *Engine) Capacity() int64 {
	return e.capacity
}

func (e *Engine) Layout() record.Layout {
	return e.layout
}

// Range calls fn for each active record until fn returns false.  key and
// value are only valid during the call, must not be modified, and fn must
// not call back into the Engine.
func (e *Engine) Range(fn func(key, value []byte) bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return
	}
	for _, r := range e.index {
		if !fn(r.Key, r.Value) {
			return
		}
	}
}

// Fingerprint summarizes the active key/value pairs.  It doesn't depend
// on slot placement or insertion order, so two stores holding the same
// pairs have the same fingerprint.
func (e *Engine) Fingerprint() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var fp uint64
	for _, r := range e.index {
		fp ^= farm.Hash64WithSeed(r.Value, farm.Hash64(r.Key))
	}
	return fp
}

// Sync flushes written slots to stable storage.
func (e *Engine) Sync() error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return ErrClosed
	}
	if err := e.b.Sync(); err != nil {
		return fmt.Errorf("b.Sync: %w", err)
	}
	return nil
}

// Close releases the backend.  Later calls are no-ops.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true
	if err := e.b.Close(); err != nil {
		return fmt.Errorf("b.Close: %w", err)
	}
	return nil
}
