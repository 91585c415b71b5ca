// Copyright 2026 The fkv Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package fkv

import (
	"io"
	"log/slog"
)

// Option configures a Store.
type Option func(*options)

type options struct {
	logger   *slog.Logger
	capacity int64
}

// WithLogger sets an optional logger used for recovery reports.
// If not provided, no logging output will be produced.
func WithLogger(logger *slog.Logger) Option {
	return func(opts *options) {
		opts.logger = logger
	}
}

// WithCapacity sets the number of records a newly created store can hold.
// It has no effect when opening a file that already has contents: the
// capacity of an existing store is derived from its file size.
func WithCapacity(records int64) Option {
	return func(opts *options) {
		opts.capacity = records
	}
}

func newOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o
}
