// Copyright 2021 The bit Authors and Caleb Spare. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package bitset tracks membership of slot numbers in a fixed range.
package bitset

import (
	"math/bits"
)

// Bitset is conceptually a []bool indexed by slot, one bit per slot.
// Positions outside [0, length) are never members.
type Bitset struct {
	bits   []uint64
	length int64
}

// New returns a bitset able to hold positions [0, length).
func New(length int64) *Bitset {
	if length < 0 {
		length = 0
	}
	return &Bitset{
		bits:   make([]uint64, (length+63)/64),
		length: length,
	}
}

func getOffsets(off int64) (sliceOff int64, bitOff uint64) {
	sliceOff = off / 64
	bitOff = uint64(off) % 64
	return
}

func (b *Bitset) inRange(off int64) bool {
	return off >= 0 && off < b.length
}

// Add sets the bit at off and reports whether it was previously clear.
// Out-of-range positions are ignored and report false.
func (b *Bitset) Add(off int64) bool {
	if !b.inRange(off) {
		return false
	}
	sliceOff, bitOff := getOffsets(off)
	u64 := &b.bits[sliceOff]
	was := *u64&(1<<bitOff) != 0
	*u64 |= 1 << bitOff
	return !was
}

// Remove clears the bit at off and reports whether it was previously set.
func (b *Bitset) Remove(off int64) bool {
	if !b.inRange(off) {
		return false
	}
	sliceOff, bitOff := getOffsets(off)
	u64 := &b.bits[sliceOff]
	was := *u64&(1<<bitOff) != 0
	*u64 &= ^(1 << bitOff)
	return was
}

func (b *Bitset) Contains(off int64) bool {
	if !b.inRange(off) {
		return false
	}
	sliceOff, bitOff := getOffsets(off)
	return b.bits[sliceOff]&(1<<bitOff) != 0
}

// Count returns the number of set bits.
func (b *Bitset) Count() int {
	n := 0
	for _, u64 := range b.bits {
		n += bits.OnesCount64(u64)
	}
	return n
}

// Len is the number of positions the set can hold.
func (b *Bitset) Len() int64 {
	return b.length
}
