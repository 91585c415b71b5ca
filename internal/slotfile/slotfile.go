// Copyright 2026 The fkv Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package slotfile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"golang.org/x/sys/unix"
)

// DefaultSize is the size a brand new file is given when the caller
// doesn't ask for one.
const DefaultSize = 1024 * 1024

var (
	ErrOutOfRange = errors.New("access out of range")
)

// File is a read/write memory mapping of a whole slot file.
type File struct {
	f             *os.File
	data          []byte
	needsRecovery bool
	isClosed      atomic.Bool
}

var (
	_ io.ReaderAt = &File{}
	_ io.WriterAt = &File{}
)

// Open maps the file at path, creating it if needed.  A new or empty file
// is grown to size bytes (DefaultSize if size <= 0).  A file that already
// has contents keeps its length and is flagged for recovery, so whatever
// size the caller asked for is ignored.
func Open(path string, size int64) (*File, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("os.OpenFile(%s): %w", path, err)
	}

	stats, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("f.Stat: %w", err)
	}

	mappedSize := stats.Size()
	needsRecovery := mappedSize > 0
	if !needsRecovery {
		mappedSize = size
		if mappedSize <= 0 {
			mappedSize = DefaultSize
		}
		if err := f.Truncate(mappedSize); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("f.Truncate(%d): %w", mappedSize, err)
		}
	}
	if int64(int(mappedSize)) != mappedSize {
		_ = f.Close()
		return nil, fmt.Errorf("file %s too large to map (%d bytes)", path, mappedSize)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(mappedSize), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("unix.Mmap(%s, %d): %w", path, mappedSize, err)
	}
	// slot accesses are keyed by hash lookups, so readahead is wasted work
	if err := unix.Madvise(data, unix.MADV_RANDOM); err != nil {
		_ = unix.Munmap(data)
		_ = f.Close()
		return nil, fmt.Errorf("madvise: %w", err)
	}

	return &File{
		f:             f,
		data:          data,
		needsRecovery: needsRecovery,
	}, nil
}

// Len is the size of the mapping in bytes.
func (s *File) Len() int64 {
	return int64(len(s.data))
}

// NeedsRecovery is true when the file had contents before Open.
func (s *File) NeedsRecovery() bool {
	return s.needsRecovery
}

func (s *File) checkRange(off int64, n int) error {
	if off < 0 || int64(n) > int64(len(s.data)) || off > int64(len(s.data))-int64(n) {
		return fmt.Errorf("%w: off %d + len %d beyond bounds (%d)", ErrOutOfRange, off, n, len(s.data))
	}
	return nil
}

// ReadAt copies len(p) bytes starting at off into p.
func (s *File) ReadAt(p []byte, off int64) (int, error) {
	if err := s.checkRange(off, len(p)); err != nil {
		return 0, err
	}
	return copy(p, s.data[off:off+int64(len(p))]), nil
}

// WriteAt copies p into the mapping starting at off.
func (s *File) WriteAt(p []byte, off int64) (int, error) {
	if err := s.checkRange(off, len(p)); err != nil {
		return 0, err
	}
	return copy(s.data[off:off+int64(len(p))], p), nil
}

func (s *File) putByte(off int64, b byte) error {
	if err := s.checkRange(off, 1); err != nil {
		return err
	}
	s.data[off] = b
	return nil
}

func (s *File) MarkActive(off int64) error {
	return s.putByte(off, ActiveMarker)
}

func (s *File) MarkDeleted(off int64) error {
	return s.putByte(off, DeletedMarker)
}

func (s *File) WriteTerminator(off int64) error {
	return s.putByte(off, Terminator)
}

// Sync flushes dirty pages of the mapping to the file.
func (s *File) Sync() error {
	if s.isClosed.Load() {
		return nil
	}
	if err := unix.Msync(s.data, unix.MS_SYNC); err != nil {
		return fmt.Errorf("unix.Msync: %w", err)
	}
	return nil
}

// Close unmaps the file and closes it.  Calling Close more than once is safe.
func (s *File) Close() error {
	if s.isClosed.Swap(true) {
		return nil
	}

	data := s.data
	s.data = nil
	if err := unix.Munmap(data); err != nil {
		_ = s.f.Close()
		return fmt.Errorf("unix.Munmap: %w", err)
	}
	if err := s.f.Close(); err != nil {
		return fmt.Errorf("f.Close: %w", err)
	}
	return nil
}
