// Copyright 2026 The fkv Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package fkv

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/bpowers/fkv/internal/slotfile"
)

const (
	testKeyLen   = 16
	testValueLen = 16
)

var (
	benchStore     *Store
	benchStoreOnce sync.Once
	benchHashmap   map[string]string
	benchEntries   []benchEntry
)

type benchEntry struct {
	Key   string
	Value string
}

// testPairs returns n distinct fixed-width pairs, rendered as "key:value" lines.
func testPairs(n int) (map[string]string, string) {
	known := make(map[string]string, n)
	var lines strings.Builder
	for i := 0; i < n; i++ {
		k := fmt.Sprintf("k%015d", i)
		v := fmt.Sprintf("pref_%011x", i*7919)
		known[k] = v
		fmt.Fprintf(&lines, "%s:%s\n", k, v)
	}
	return known, lines.String()
}

func openTestStore(t testing.TB, path string, opts ...Option) *Store {
	s, err := Open(path, testKeyLen, testValueLen, opts...)
	require.NoError(t, err)
	return s
}

func loadBenchStore() {
	dir, err := os.MkdirTemp("", "fkv-bench")
	if err != nil {
		panic(err)
	}
	const n = 100000
	known, lines := testPairs(n)
	benchStore, err = Open(filepath.Join(dir, "bench.fkv"), testKeyLen, testValueLen, WithCapacity(n))
	if err != nil {
		panic(err)
	}
	if _, err := benchStore.Load(strings.NewReader(lines)); err != nil {
		panic(err)
	}
	// the mapping stays live for the rest of the process
	_ = os.RemoveAll(dir)

	benchHashmap = make(map[string]string, n)
	benchEntries = make([]benchEntry, 0, n)
	for k, v := range known {
		benchEntries = append(benchEntries, benchEntry{Key: k, Value: v})
		benchHashmap[k] = v
	}
}

func TestOpen_InvalidArguments(t *testing.T) {
	dir := t.TempDir()

	_, err := Open(filepath.Join(dir, "a.fkv"), 0, 10)
	assert.True(t, errors.Is(err, ErrInvalidArgument))
	_, err = Open(filepath.Join(dir, "b.fkv"), 8, -1)
	assert.True(t, errors.Is(err, ErrInvalidArgument))
	_, err = Open(filepath.Join(dir, "c.fkv"), 8, 10, WithCapacity(-1))
	assert.True(t, errors.Is(err, ErrInvalidArgument))
	// 2^62 records of 20 bytes doesn't fit in an int64 file size
	_, err = Open(filepath.Join(dir, "e.fkv"), 8, 10, WithCapacity(1<<62))
	assert.True(t, errors.Is(err, ErrInvalidArgument))
	_, err = os.Stat(filepath.Join(dir, "e.fkv"))
	assert.True(t, os.IsNotExist(err))

	_, err = Open(filepath.Join(dir, "missing", "d.fkv"), 8, 10)
	assert.Error(t, err)
}

func TestStore_PutGet(t *testing.T) {
	s := openTestStore(t, filepath.Join(t.TempDir(), "putget.fkv"), WithCapacity(10))
	defer func() {
		_ = s.Close()
	}()

	require.NoError(t, s.PutString("0123456789abcdef", "value-0123456789"))
	v, ok := s.GetString("0123456789abcdef")
	require.True(t, ok)
	assert.Equal(t, "value-0123456789", v)

	bv, ok := s.Get([]byte("0123456789abcdef"))
	require.True(t, ok)
	assert.Equal(t, []byte("value-0123456789"), bv)

	for _, negative := range []string{
		"", "doesn't exist", "0123456789abcdeX",
	} {
		// we shouldn't find keys that don't exist
		v, ok := s.GetString(negative)
		assert.False(t, ok)
		assert.Equal(t, "", v)
	}

	require.NoError(t, s.DeleteString("0123456789abcdef"))
	_, ok = s.GetString("0123456789abcdef")
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, 1, s.DeletedLen())

	assert.Equal(t, testKeyLen, s.KeyLen())
	assert.Equal(t, testValueLen, s.ValueLen())
	assert.Equal(t, int64(10), s.Capacity())
}

func TestStore_WrongWidths(t *testing.T) {
	s := openTestStore(t, filepath.Join(t.TempDir(), "widths.fkv"), WithCapacity(10))
	defer func() {
		_ = s.Close()
	}()

	err := s.PutString("short", "value-0123456789")
	assert.True(t, errors.Is(err, ErrInvalidArgument))
	err = s.PutString("0123456789abcdef", "short")
	assert.True(t, errors.Is(err, ErrInvalidArgument))
	assert.Equal(t, 0, s.Len())
}

func TestStore_DefaultCapacity(t *testing.T) {
	path := filepath.Join(t.TempDir(), "default.fkv")
	s, err := Open(path, 8, 10)
	require.NoError(t, err)
	defer func() {
		_ = s.Close()
	}()

	assert.Equal(t, int64(slotfile.DefaultSize/20), s.Capacity())
	stats, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(slotfile.DefaultSize), stats.Size())
}

func TestStore_ReopenKeepsFileCapacity(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.fkv")
	s := openTestStore(t, path, WithCapacity(4))
	require.NoError(t, s.PutString("0123456789abcdef", "value-0123456789"))
	require.NoError(t, s.Close())

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	s = openTestStore(t, path, WithCapacity(1000), WithLogger(logger))
	defer func() {
		_ = s.Close()
	}()

	assert.Equal(t, int64(4), s.Capacity())
	assert.Contains(t, logs.String(), "capacity taken from existing file")
	assert.Contains(t, logs.String(), "recovered slot file")
}

func TestStore_SingleSlot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "single.fkv")
	s, err := Open(path, 8, 10, WithCapacity(1))
	require.NoError(t, err)
	defer func() {
		_ = s.Close()
	}()

	for i := 0; i < 1000; i++ {
		require.NoError(t, s.PutString("01234567", "0123456789"))
		require.NoError(t, s.DeleteString("01234567"))
	}

	require.NoError(t, s.PutString("01234567", "0123456789"))
	err = s.PutString("76543210", "0123456789")
	assert.True(t, errors.Is(err, ErrCapacityExceeded))

	stats, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(20), stats.Size())
}

func TestStore_RecoveryExample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "example.fkv")
	s, err := Open(path, 8, 10, WithCapacity(10000))
	require.NoError(t, err)

	require.NoError(t, s.PutString("01234567", "0123456789"))
	require.NoError(t, s.PutString("01234568", "0123456780"))
	require.NoError(t, s.DeleteString("01234568"))
	require.NoError(t, s.Close())

	s, err = Open(path, 8, 10, WithCapacity(10000))
	require.NoError(t, err)
	defer func() {
		_ = s.Close()
	}()

	assert.Equal(t, 1, s.Len())
	assert.Equal(t, 1, s.DeletedLen())
	_, ok := s.GetString("01234568")
	assert.False(t, ok)
	v, ok := s.GetString("01234567")
	require.True(t, ok)
	assert.Equal(t, "0123456789", v)
}

func TestStore_LoadAndRoundTrip(t *testing.T) {
	const n = 2000
	path := filepath.Join(t.TempDir(), "load.fkv")
	s := openTestStore(t, path, WithCapacity(n))

	known, lines := testPairs(n)
	loaded, err := s.Load(strings.NewReader(lines))
	require.NoError(t, err)
	require.Equal(t, n, loaded)
	require.Equal(t, n, s.Len())

	for k, expected := range known {
		v, ok := s.GetString(k)
		require.True(t, ok)
		require.Equal(t, expected, v)
	}

	// drop a tenth of the keys so the reopened store has a free stack too
	deleted := 0
	for k := range known {
		if deleted == n/10 {
			break
		}
		require.NoError(t, s.DeleteString(k))
		delete(known, k)
		deleted++
	}
	fp := s.Fingerprint()
	require.NoError(t, s.Sync())
	require.NoError(t, s.Close())

	s = openTestStore(t, path)
	defer func() {
		_ = s.Close()
	}()
	assert.Equal(t, len(known), s.Len())
	assert.Equal(t, n/10, s.DeletedLen())
	assert.Equal(t, fp, s.Fingerprint())

	recovered := make(map[string]string)
	s.Range(func(key, value []byte) bool {
		recovered[string(key)] = string(value)
		return true
	})
	assert.Equal(t, known, recovered)
}

func TestStore_LoadErrors(t *testing.T) {
	s := openTestStore(t, filepath.Join(t.TempDir(), "loaderr.fkv"), WithCapacity(2))
	defer func() {
		_ = s.Close()
	}()

	// separators inside keys and values are fine; blank lines are skipped
	n, err := s.Load(strings.NewReader("key:with:colons::value:colons::::\n\n"))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	v, ok := s.GetString("key:with:colons:")
	require.True(t, ok)
	assert.Equal(t, "value:colons::::", v)

	n, err = s.Load(strings.NewReader("k000000000000001:v000000000000001\nshort:line\n"))
	assert.True(t, errors.Is(err, ErrInvalidArgument))
	assert.Contains(t, err.Error(), "line 2")
	assert.Equal(t, 1, n)

	n, err = s.Load(strings.NewReader("k000000000000002:v000000000000002\n"))
	assert.True(t, errors.Is(err, ErrCapacityExceeded))
	assert.Equal(t, 0, n)
}

func TestStore_Clear(t *testing.T) {
	s := openTestStore(t, filepath.Join(t.TempDir(), "clear.fkv"), WithCapacity(100))
	defer func() {
		_ = s.Close()
	}()
	_, lines := testPairs(50)
	_, err := s.Load(strings.NewReader(lines))
	require.NoError(t, err)

	require.NoError(t, s.Clear())
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, 50, s.DeletedLen())
}

func TestStore_Close(t *testing.T) {
	s := openTestStore(t, filepath.Join(t.TempDir(), "close.fkv"), WithCapacity(2))
	require.NoError(t, s.PutString("0123456789abcdef", "value-0123456789"))

	require.NoError(t, s.Close())
	// should be safe for multiple closes
	require.NoError(t, s.Close())

	assert.True(t, errors.Is(s.PutString("0123456789abcdef", "value-0123456789"), ErrClosed))
	assert.True(t, errors.Is(s.DeleteString("0123456789abcdef"), ErrClosed))
	_, ok := s.GetString("0123456789abcdef")
	assert.False(t, ok)
}

func TestStore_ConcurrentReads(t *testing.T) {
	const n = 500
	s := openTestStore(t, filepath.Join(t.TempDir(), "concurrent.fkv"), WithCapacity(n))
	defer func() {
		_ = s.Close()
	}()
	known, lines := testPairs(n)
	_, err := s.Load(strings.NewReader(lines))
	require.NoError(t, err)

	var g errgroup.Group
	for r := 0; r < 8; r++ {
		g.Go(func() error {
			for k, expected := range known {
				v, ok := s.GetString(k)
				if !ok || v != expected {
					return fmt.Errorf("bad lookup of %s: %q, %t", k, v, ok)
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
}

func BenchmarkStore(b *testing.B) {
	benchStoreOnce.Do(loadBenchStore)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		j := i % len(benchEntries)
		entry := benchEntries[j]
		value, ok := benchStore.GetString(entry.Key)
		if !ok || value != entry.Value {
			b.Fatal("bad data or lookup")
		}
	}
}

func BenchmarkHashmap(b *testing.B) {
	benchStoreOnce.Do(loadBenchStore)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		j := i % len(benchEntries)
		entry := benchEntries[j]
		value, ok := benchHashmap[entry.Key]
		if !ok || value != entry.Value {
			b.Fatal("bad data or lookup")
		}
	}
}
