// Copyright 2026 The fkv Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package engine

import (
	"fmt"

	"github.com/bpowers/fkv/internal/slotfile"
	"github.com/bpowers/fkv/internal/zero"
)

// replay walks the backend front to back, indexing active slots and
// stacking deleted ones.  The scan stops at the first slot that isn't well
// formed; that slot and everything after it is treated as never written.
// Nothing past a bad slot is salvaged.
func (e *Engine) replay() error {
	l := e.layout
	buf := make([]byte, l.RecordLen())

	var slot int64
scan:
	for ; slot < e.capacity; slot++ {
		off := l.SlotOffset(slot)
		if _, err := e.b.ReadAt(buf, off); err != nil {
			return fmt.Errorf("b.ReadAt(%d): %w", off, err)
		}

		switch slotfile.Classify(buf) {
		case slotfile.StatusActive:
			r := l.Decode(slot, buf)
			if prev, ok := e.index[r.StringKey()]; ok {
				// shouldn't happen: updates reuse their slot.  The later
				// copy wins, and the earlier slot is freed so it isn't leaked.
				e.logger.Warn("duplicate active key during recovery",
					"key", r.StringKey(), "slot", prev.Slot, "superseded by", slot)
				if err := e.b.MarkDeleted(l.SlotOffset(prev.Slot)); err != nil {
					return fmt.Errorf("b.MarkDeleted(slot %d): %w", prev.Slot, err)
				}
				e.pushFree(prev.Slot)
			}
			e.index[r.StringKey()] = r
		case slotfile.StatusDeleted:
			e.pushFree(slot)
		default:
			if zero.IsBytes(buf) {
				e.logger.Debug("recovery reached unwritten slot", "slot", slot)
			} else {
				e.logger.Warn("recovery stopped at malformed slot",
					"slot", slot, "offset", off, "contents", string(buf))
			}
			break scan
		}
	}
	e.cursor = l.SlotOffset(slot)

	e.logger.Info("recovered slot file",
		"active", len(e.index), "deleted", len(e.free), "cursor", e.cursor, "capacity", e.capacity)
	return nil
}
