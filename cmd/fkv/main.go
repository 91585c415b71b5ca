// Copyright 2026 The fkv Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// fkv is an interactive shell over a fixed-length key-value store file.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/bpowers/fkv"
)

func main() {
	dbPath := flag.String("db", "fkv.db", "path to the store file (created if missing)")
	keyLen := flag.Int("klen", 8, "key width in bytes")
	valueLen := flag.Int("vlen", 10, "value width in bytes")
	capacity := flag.Int64("capacity", 0, "records a new store can hold (0 sizes the file to 1 MiB)")
	verbose := flag.Bool("v", false, "enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	s, err := fkv.Open(*dbPath, *keyLen, *valueLen, fkv.WithCapacity(*capacity), fkv.WithLogger(logger))
	if err != nil {
		logger.Error("couldn't open store", "path", *dbPath, "err", err)
		os.Exit(1)
	}

	fmt.Printf("Opened %s (key %d bytes, value %d bytes, %d records max)\n",
		*dbPath, s.KeyLen(), s.ValueLen(), s.Capacity())
	fmt.Println("Type commands. 'help' for information or 'exit' to quit.")

	replErr := repl(s, os.Stdin, os.Stdout, true)
	if err := s.Close(); err != nil {
		logger.Error("close failed", "err", err)
		os.Exit(1)
	}
	if replErr != nil {
		logger.Error("input error", "err", replErr)
		os.Exit(1)
	}
}
