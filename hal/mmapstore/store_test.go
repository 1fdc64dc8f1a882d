package mmapstore

import (
	"os"
	"path/filepath"
	"testing"
)

func TestAllocMonotonicAndAligned(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.hal")
	s, err := Open(path, Write, 1<<20, false)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	var prev uint64
	for i := 0; i < 100; i++ {
		off, err := s.Alloc(uint64(3+i), false)
		if err != nil {
			t.Fatalf("alloc %d: %v", i, err)
		}
		if off%WordSize != 0 {
			t.Fatalf("offset %d not word-aligned", off)
		}
		if i > 0 && off <= prev {
			t.Fatalf("offsets not strictly increasing: prev=%d off=%d", prev, off)
		}
		prev = off
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestRootOffsetRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.hal")
	s, err := Open(path, Write, 1<<16, false)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	off, err := s.Alloc(64, true)
	if err != nil {
		t.Fatalf("alloc: %v", err)
	}
	if s.RootOffset() != off {
		t.Fatalf("root offset mismatch: got %d want %d", s.RootOffset(), off)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	s2, err := Open(path, ReadOnly, 0, false)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()
	if s2.RootOffset() != off {
		t.Fatalf("reopened root offset mismatch: got %d want %d", s2.RootOffset(), off)
	}
}

func TestCapacityExceededLeavesDirty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.hal")
	s, err := Open(path, Write, 4096, false)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	var allocated uint64
	for {
		off, err := s.Alloc(64, false)
		if err != nil {
			break
		}
		allocated = off
	}
	_, err = s.Alloc(4096, false)
	if err == nil {
		t.Fatalf("expected capacity error")
	}

	// previous allocations remain intact: nextOffset unaffected by the
	// failed call.
	if s.nextOffset() <= allocated {
		t.Fatalf("nextOffset regressed after failed alloc")
	}

	// Per spec.md §5, an error path must NOT call Close(); the file stays
	// dirty. We simulate the crash by never calling Close, then check the
	// dirty byte in the file's raw contents.
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read raw: %v", err)
	}
	if raw[offDirty] == 0 {
		t.Fatalf("dirty bit unexpectedly clear before close")
	}
}

func TestDirtyOnOpenRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.hal")
	s, err := Open(path, Write, 4096, false)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := s.Alloc(32, false); err != nil {
		t.Fatalf("alloc: %v", err)
	}
	// Simulate a crash: never call Close, so the dirty bit stays set.

	if _, err := Open(path, Write, 0, false); err != ErrDirtyOnOpen {
		t.Fatalf("expected ErrDirtyOnOpen, got %v", err)
	}
	if _, err := Open(path, ReadOnly, 0, false); err != ErrDirtyOnOpen {
		t.Fatalf("expected ErrDirtyOnOpen on read, got %v", err)
	}
}

func TestIsMmapFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.hal")
	s, err := Open(path, Write, 4096, false)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !IsMmapFile(raw[:lenFormat]) {
		t.Fatalf("expected format tag to match")
	}
	if IsMmapFile([]byte("not a hal file")) {
		t.Fatalf("unexpected format match")
	}
}
