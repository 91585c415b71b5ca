// Copyright 2021 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package zero

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsBytes(t *testing.T) {
	assert.True(t, IsBytes(nil))
	assert.True(t, IsBytes([]byte{}))
	assert.True(t, IsBytes(make([]byte, 4096)))

	b := make([]byte, 4096)
	b[4095] = '\n'
	assert.False(t, IsBytes(b))
	assert.False(t, IsBytes([]byte("1key_value\n")))
}
