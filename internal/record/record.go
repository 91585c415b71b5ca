// Copyright 2026 The fkv Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package record describes the fixed-width slot layout and the in-memory
// record mirrored from an active slot.
package record

import (
	"errors"
	"fmt"
)

const (
	statusLen     = 1
	terminatorLen = 1

	// Overhead is the number of bytes in every slot beyond the key and value.
	Overhead = statusLen + terminatorLen
)

var errBadLayout = errors.New("bad layout")

// Layout is the per-store geometry: every slot is RecordLen() bytes wide.
type Layout struct {
	KeyLen   int
	ValueLen int
}

func (l Layout) Validate() error {
	if l.KeyLen <= 0 {
		return fmt.Errorf("%w: key length %d must be positive", errBadLayout, l.KeyLen)
	}
	if l.ValueLen < 0 {
		return fmt.Errorf("%w: value length %d must not be negative", errBadLayout, l.ValueLen)
	}
	return nil
}

func (l Layout) RecordLen() int64 {
	return int64(Overhead + l.KeyLen + l.ValueLen)
}

// Capacity returns the number of whole slots that fit in fileLen bytes.
func (l Layout) Capacity(fileLen int64) int64 {
	return fileLen / l.RecordLen()
}

func (l Layout) SlotOffset(slot int64) int64 {
	return slot * l.RecordLen()
}

func (l Layout) KeyOffset(slot int64) int64 {
	return l.SlotOffset(slot) + statusLen
}

func (l Layout) ValueOffset(slot int64) int64 {
	return l.KeyOffset(slot) + int64(l.KeyLen)
}

func (l Layout) TerminatorOffset(slot int64) int64 {
	return l.ValueOffset(slot) + int64(l.ValueLen)
}

// Decode copies the key and value out of a raw slot.  buf must be exactly
// RecordLen() bytes; it is typically reused by the caller, so nothing in the
// returned Record aliases it.
func (l Layout) Decode(slot int64, buf []byte) *Record {
	if int64(len(buf)) != l.RecordLen() {
		panic(fmt.Errorf("invariant broken: slot buffer is %d bytes, expected %d", len(buf), l.RecordLen()))
	}
	kv := make([]byte, l.KeyLen+l.ValueLen)
	copy(kv, buf[statusLen:statusLen+l.KeyLen+l.ValueLen])
	return &Record{
		Slot:  slot,
		Key:   kv[:l.KeyLen:l.KeyLen],
		Value: kv[l.KeyLen:],
	}
}

// Record is the in-memory mirror of one active slot.
type Record struct {
	Slot  int64
	Key   []byte
	Value []byte
}

// New builds a Record holding private copies of key and value.
func New(slot int64, key, value []byte) *Record {
	kv := make([]byte, len(key)+len(value))
	copy(kv, key)
	copy(kv[len(key):], value)
	return &Record{
		Slot:  slot,
		Key:   kv[:len(key):len(key)],
		Value: kv[len(key):],
	}
}

func (r *Record) StringKey() string {
	return string(r.Key)
}
