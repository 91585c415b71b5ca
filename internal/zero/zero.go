// Copyright 2021 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package zero recognizes zero-filled byte slices.
package zero

// IsBytes reports whether every byte of b is 0.  Freshly truncated file
// space reads back as zeros, so this distinguishes never-written slots
// from corrupt ones.
func IsBytes(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}
