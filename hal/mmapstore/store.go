// Copyright © 2023-2026 Wei Shen <shenwei356@gmail.com>
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package mmapstore

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

var ne = binary.NativeEndian

// Mode selects read-only or read-write access.
type Mode int

const (
	// ReadOnly maps the file read-only. Multiple ReadOnly handles may
	// coexist with each other, but not with a Write handle.
	ReadOnly Mode = iota
	// Write maps the file read-write, creating it if it does not exist.
	// Only one Write handle may be open on a given file at a time; this
	// is enforced on disk via the dirty flag, not via in-process locking.
	Write
)

// Sentinel errors, matching the error taxonomy of spec.md §7.
var (
	ErrCapacityExceeded = errors.New("mmapstore: file is full")
	ErrVersionMismatch  = errors.New("mmapstore: major version mismatch")
	ErrFormatInvalid    = errors.New("mmapstore: invalid format tag")
	ErrDirtyOnOpen      = errors.New("mmapstore: file is marked dirty, a previous writer may have crashed")
	ErrInvalidOffset    = errors.New("mmapstore: offset out of bounds")
	ErrReadOnly         = errors.New("mmapstore: store is read-only")
)

// Prefetcher is fetched ahead of a toPtr resolution when the store was
// opened in preload mode. The default is a no-op; a remote-backed store
// substitutes one that ensures the requested byte range is resident
// (spec.md §4.1 "Prefetch hook").
type Prefetcher interface {
	Fetch(offset, accessSize uint64)
}

type noopPrefetcher struct{}

func (noopPrefetcher) Fetch(uint64, uint64) {}

// Store owns one memory-mapped alignment file.
//
// WARNING: when opened for writing, Close must be called explicitly on
// the happy path or the file is left with its dirty bit set. On any
// error path, callers must abandon the Store without calling Close.
type Store struct {
	path       string
	mode       Mode
	data       []byte // the full mapping, header included
	file       *os.File
	mustFetch  bool
	prefetcher Prefetcher
}

// isMmapFile reports whether initialBytes begins with the mmapstore
// format tag (spec.md §6 "Detection").
func isMmapFile(initialBytes []byte) bool {
	if len(initialBytes) < lenFormat {
		return false
	}
	for i := 0; i < lenFormat; i++ {
		if initialBytes[i] != Format[i] {
			return false
		}
	}
	return true
}

// IsMmapFile is the exported form of the static isMmapFile helper.
func IsMmapFile(initialBytes []byte) bool {
	return isMmapFile(initialBytes)
}

// Open opens or creates a mapped alignment file.
//
// If the file does not exist and mode is Write, it is created with the
// given fileSize and a fresh header. If it exists, it is memory-mapped and
// its header validated. preload forces the prefetch hook on every
// resolution (spec.md: "a preload mode may be requested when the
// transport is remote").
func Open(path string, mode Mode, fileSize uint64, preload bool) (*Store, error) {
	flag := os.O_RDONLY
	if mode == Write {
		flag = os.O_RDWR
	}

	create := false
	if mode == Write {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			create = true
		}
	}

	var fh *os.File
	var err error
	if create {
		fh, err = os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
		if err != nil {
			return nil, fmt.Errorf("mmapstore: create %s: %w", path, err)
		}
		if err := fh.Truncate(int64(fileSize)); err != nil {
			fh.Close()
			return nil, fmt.Errorf("mmapstore: truncate %s: %w", path, err)
		}
	} else {
		fh, err = os.OpenFile(path, flag, 0644)
		if err != nil {
			return nil, fmt.Errorf("mmapstore: open %s: %w", path, err)
		}
	}

	fi, err := fh.Stat()
	if err != nil {
		fh.Close()
		return nil, err
	}
	actualSize := uint64(fi.Size())

	prot := unix.PROT_READ
	if mode == Write {
		prot |= unix.PROT_WRITE
	}
	data, err := unix.Mmap(int(fh.Fd()), 0, int(actualSize), prot, unix.MAP_SHARED)
	if err != nil {
		fh.Close()
		return nil, fmt.Errorf("mmapstore: mmap %s: %w", path, err)
	}

	s := &Store{
		path:       path,
		mode:       mode,
		data:       data,
		file:       fh,
		mustFetch:  preload,
		prefetcher: noopPrefetcher{},
	}

	if create {
		s.createHeader(actualSize)
	} else {
		if err := s.loadHeader(); err != nil {
			unix.Munmap(data)
			fh.Close()
			return nil, err
		}
	}

	return s, nil
}

// SetPrefetcher installs a non-default prefetch hook, e.g. for a
// remote-backed mapping.
func (s *Store) SetPrefetcher(p Prefetcher) {
	if p == nil {
		p = noopPrefetcher{}
	}
	s.prefetcher = p
}

func (s *Store) createHeader(fileSize uint64) {
	copy(s.data[offFormat:offFormat+lenFormat], Format[:])
	copy(s.data[offMmapVersion:offMmapVersion+lenMmapVersion], ApiVersion[:])
	var hv [lenHalVersion]byte
	copy(hv[:], DefaultPayloadVersion)
	copy(s.data[offHalVersion:offHalVersion+lenHalVersion], hv[:])
	ne.PutUint64(s.data[offNextOffset:], uint64(HeaderSize))
	ne.PutUint64(s.data[offRootOffset:], NullOffset)
	s.data[offDirty] = 1
}

func (s *Store) loadHeader() error {
	if !isMmapFile(s.data) {
		return ErrFormatInvalid
	}
	major, _ := parseVersion(s.data[offMmapVersion : offMmapVersion+lenMmapVersion])
	if major != MajorVersion {
		return ErrVersionMismatch
	}
	dirty := s.data[offDirty] != 0
	if dirty && s.mode == ReadOnly {
		return ErrDirtyOnOpen
	}
	if s.mode == Write {
		if dirty {
			return ErrDirtyOnOpen
		}
		s.data[offDirty] = 1
	}
	return nil
}

// parseVersion reads a dotted "major.minor" version out of a
// NUL-padded fixed-size field.
func parseVersion(field []byte) (major, minor int) {
	i := 0
	for i < len(field) && field[i] >= '0' && field[i] <= '9' {
		major = major*10 + int(field[i]-'0')
		i++
	}
	if i < len(field) && field[i] == '.' {
		i++
	}
	for i < len(field) && field[i] >= '0' && field[i] <= '9' {
		minor = minor*10 + int(field[i]-'0')
		i++
	}
	return major, minor
}

// nextOffset returns the header's current allocation cursor.
func (s *Store) nextOffset() uint64 {
	return ne.Uint64(s.data[offNextOffset:])
}

func (s *Store) setNextOffset(v uint64) {
	ne.PutUint64(s.data[offNextOffset:], v)
}

// RootOffset returns the offset of the registered root object. It is a
// programming error to call this before a root has been allocated.
func (s *Store) RootOffset() uint64 {
	off := ne.Uint64(s.data[offRootOffset:])
	if off == NullOffset {
		panic("mmapstore: RootOffset called with no root registered")
	}
	return off
}

// HasRoot reports whether a root object has been registered.
func (s *Store) HasRoot() bool {
	return ne.Uint64(s.data[offRootOffset:]) != NullOffset
}

// alignRound rounds size up to the next WordSize multiple.
func alignRound(size uint64) uint64 {
	return ((size + WordSize - 1) / WordSize) * WordSize
}

// Alloc bump-allocates size bytes, returning the pre-advance offset.
// Write-mode only. When isRoot is true, the returned offset is recorded
// as the header's root offset.
func (s *Store) Alloc(size uint64, isRoot bool) (uint64, error) {
	if s.mode != Write {
		return 0, ErrReadOnly
	}
	next := s.nextOffset()
	aligned := alignRound(size)
	if next+aligned > uint64(len(s.data)) {
		return 0, fmt.Errorf("%w: need %d bytes beyond offset %d in a %d-byte file",
			ErrCapacityExceeded, aligned, next, len(s.data))
	}
	offset := next
	s.setNextOffset(next + aligned)
	if isRoot {
		ne.PutUint64(s.data[offRootOffset:], offset)
	}
	return offset, nil
}

// ToPtr returns the byte slice view of the mapped region
// [offset, offset+accessSize). offset must be less than the current
// allocation cursor; violating this is a programming error and panics,
// matching spec.md's "InvalidOffset (debug-only assertion)".
func (s *Store) ToPtr(offset, accessSize uint64) []byte {
	if offset >= s.nextOffset() || offset+accessSize > uint64(len(s.data)) {
		panic(ErrInvalidOffset)
	}
	if s.mustFetch {
		s.prefetcher.Fetch(offset, accessSize)
	}
	return s.data[offset : offset+accessSize]
}

// IsReadOnly reports whether the store was opened for reading only.
func (s *Store) IsReadOnly() bool {
	return s.mode != Write
}

// Close clears the dirty flag and unmaps the file. On a read-only store
// it only unmaps and closes the file, leaving the header untouched.
// Write-mode callers MUST call this on the happy path; on any error they must
// abandon the Store without calling Close so the file remains marked
// dirty on disk.
func (s *Store) Close() error {
	if s.mode != Write {
		return s.closeReadOnly()
	}
	s.data[offDirty] = 0
	if err := unix.Msync(s.data, unix.MS_SYNC); err != nil {
		return err
	}
	if err := unix.Munmap(s.data); err != nil {
		return err
	}
	return s.file.Close()
}

func (s *Store) closeReadOnly() error {
	if err := unix.Munmap(s.data); err != nil {
		return err
	}
	return s.file.Close()
}
