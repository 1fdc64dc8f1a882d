package genome

import (
	"path/filepath"
	"testing"

	"github.com/halgenome/hal/hal/mmapstore"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "g.hal")

	store, err := mmapstore.Open(path, mmapstore.Write, 1<<20, false)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	tr := NewTree(store)
	anc, err := tr.AddGenome("anc", "")
	if err != nil {
		t.Fatalf("add root: %v", err)
	}
	leaf0, err := tr.AddGenome("leaf", "anc")
	if err != nil {
		t.Fatalf("add leaf: %v", err)
	}
	if _, err := anc.AddSequence("chr1", []byte("ACGTACGTACGTACGT")); err != nil {
		t.Fatalf("add seq anc: %v", err)
	}
	if _, err := leaf0.AddSequence("chr1", []byte("ACGTACGTACGTACGTTTTT")); err != nil {
		t.Fatalf("add seq leaf: %v", err)
	}
	if err := anc.AllocateSegmentTables(0, 1); err != nil {
		t.Fatalf("allocate anc tables: %v", err)
	}
	if err := leaf0.AllocateSegmentTables(1, 0); err != nil {
		t.Fatalf("allocate leaf tables: %v", err)
	}

	if err := Save(tr); err != nil {
		t.Fatalf("save: %v", err)
	}
	store.Close()

	reopened, err := mmapstore.Open(path, mmapstore.ReadOnly, 0, false)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer reopened.Close()

	loaded, err := Load(reopened)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	loadedAnc, err := loaded.Get("anc")
	if err != nil {
		t.Fatalf("get anc: %v", err)
	}
	leaf, err := loaded.Get("leaf")
	if err != nil {
		t.Fatalf("get leaf: %v", err)
	}
	if leaf.ParentGenome() != loadedAnc {
		t.Fatalf("leaf parent not reconnected to anc: got %v", leaf.ParentGenome())
	}
	if loaded.Root() != loadedAnc {
		t.Fatalf("root mismatch: got %v want anc", loaded.Root())
	}

	seq, err := leaf.GetSequence("chr1")
	if err != nil {
		t.Fatalf("get sequence: %v", err)
	}
	out := make([]byte, 4)
	if err := seq.GetBases(4, 4, out); err != nil {
		t.Fatalf("get bases: %v", err)
	}
	if string(out) != "ACGT" {
		t.Fatalf("bases mismatch: got %q", out)
	}

	if len(loaded.All()) != 2 {
		t.Fatalf("expected 2 genomes after load, got %d", len(loaded.All()))
	}
}

func TestSaveRejectsEmptyTree(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.hal")
	store, err := mmapstore.Open(path, mmapstore.Write, 1<<16, false)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	tr := NewTree(store)
	if err := Save(tr); err == nil {
		t.Fatalf("expected error saving a tree with no root")
	}
}
