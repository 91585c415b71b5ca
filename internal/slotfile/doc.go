// Copyright 2026 The fkv Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package slotfile exposes a memory-mapped file as an array of
// fixed-width slots.  It knows nothing about keys or values beyond
// the one-byte status marker at the front of each slot and the
// terminator at the back.
//
// A slot file has no header and generally looks like:
//
//	┌───────────────────┐ 0
//	│ slot 0            │
//	├───────────────────┤ R
//	│ slot 1            │
//	├───────────────────┤ 2R
//	│ ...               │
//	├───────────────────┤ cursor
//	│ never written     │
//	│ (zeroes)          │
//	└───────────────────┘ capacity * R
//
// Individual slots are R = 2 + K + V bytes wide:
//
//	+------+----------+------------+----+
//	| stat | key (K)  | value (V)  | \n |
//	+------+----------+------------+----+
//
// stat is '1' for an active slot and '0' for a deleted one.  Any other
// byte, or a missing terminator, means the slot was never written (or
// was torn), and a recovery scan stops there.
//
// None of the methods here lock: callers serialize writes themselves.
package slotfile
