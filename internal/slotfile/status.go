// Copyright 2026 The fkv Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package slotfile

const (
	ActiveMarker  byte = '1'
	DeletedMarker byte = '0'
	Terminator    byte = '\n'
)

// Status is the state of a slot as read back from disk.
type Status uint8

const (
	// StatusUnwritten covers both never-written and malformed slots: either
	// the status byte is not a known marker or the terminator is missing.
	StatusUnwritten Status = iota
	StatusActive
	StatusDeleted
)

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusDeleted:
		return "deleted"
	default:
		return "unwritten"
	}
}

// Classify inspects a whole slot (status byte through terminator).
func Classify(slot []byte) Status {
	if len(slot) < 2 || slot[len(slot)-1] != Terminator {
		return StatusUnwritten
	}
	switch slot[0] {
	case ActiveMarker:
		return StatusActive
	case DeletedMarker:
		return StatusDeleted
	default:
		return StatusUnwritten
	}
}

// IsWellFormed reports whether slot carries a known status marker and
// ends with the terminator.
func IsWellFormed(slot []byte) bool {
	return Classify(slot) != StatusUnwritten
}

func IsDeletedMarker(slot []byte) bool {
	return len(slot) > 0 && slot[0] == DeletedMarker
}
