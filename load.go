// Copyright 2026 The fkv Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package fkv

import (
	"bufio"
	"fmt"
	"io"
)

const loadSeparator = ':'

// Load reads lines of the form "key:value" from r and puts each pair.  Keys
// and values are fixed width, so the separator is found by position rather
// than by searching: either may itself contain ':'.  Blank lines are
// skipped.  Load returns the number of pairs stored before any error.
func (s *Store) Load(r io.Reader) (int, error) {
	keyLen := s.KeyLen()
	lineLen := keyLen + 1 + s.ValueLen()

	scanner := bufio.NewScanner(bufio.NewReaderSize(r, 16*1024))
	if lineLen+1 > bufio.MaxScanTokenSize {
		scanner.Buffer(make([]byte, lineLen+1), lineLen+1)
	}

	n := 0
	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if len(line) != lineLen || line[keyLen] != loadSeparator {
			return n, fmt.Errorf("line %d: %w: expected %d-byte key, ':', %d-byte value; got %d bytes",
				lineNo, ErrInvalidArgument, keyLen, s.ValueLen(), len(line))
		}
		if err := s.Put(line[:keyLen], line[keyLen+1:]); err != nil {
			return n, fmt.Errorf("line %d: %w", lineNo, err)
		}
		n++
	}
	if err := scanner.Err(); err != nil {
		return n, fmt.Errorf("scanner.Err: %w", err)
	}
	return n, nil
}
