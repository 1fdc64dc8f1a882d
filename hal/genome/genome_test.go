package genome

import (
	"path/filepath"
	"testing"

	"github.com/halgenome/hal/hal/mmapstore"
	"github.com/halgenome/hal/hal/segment"
)

func buildSimpleTree(t *testing.T) (*mmapstore.Store, *Tree) {
	t.Helper()
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
	leaf, err := tr.AddGenome("leaf", "anc")
	if err != nil {
		t.Fatalf("add leaf: %v", err)
	}

	if _, err := anc.AddSequence("chr1", []byte("ACGTACGTACGTACGT")); err != nil {
		t.Fatalf("add seq anc: %v", err)
	}
	if _, err := leaf.AddSequence("chr1", []byte("ACGTACGTACGTACGTTTTT")); err != nil {
		t.Fatalf("add seq leaf: %v", err)
	}

	if err := anc.AllocateSegmentTables(0, 1); err != nil {
		t.Fatalf("allocate anc tables: %v", err)
	}
	if err := leaf.AllocateSegmentTables(1, 0); err != nil {
		t.Fatalf("allocate leaf tables: %v", err)
	}
	return store, tr
}

func TestGenomeTreeLookupAndSequenceBases(t *testing.T) {
	store, tr := buildSimpleTree(t)
	defer store.Close()

	leaf, err := tr.Get("leaf")
	if err != nil {
		t.Fatalf("get leaf: %v", err)
	}
	if leaf.ParentGenome().Name() != "anc" {
		t.Fatalf("leaf parent mismatch: %s", leaf.ParentGenome().Name())
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
}

func TestGenomeBasesAcrossCoordinateSpace(t *testing.T) {
	store, tr := buildSimpleTree(t)
	defer store.Close()

	leaf, _ := tr.Get("leaf")
	out := make([]byte, 4)
	if err := leaf.Bases(16, 4, out); err != nil {
		t.Fatalf("bases: %v", err)
	}
	if string(out) != "TTTT" {
		t.Fatalf("bases mismatch: got %q", out)
	}
}

func TestTopBottomSegmentRoundTrip(t *testing.T) {
	store, tr := buildSimpleTree(t)
	defer store.Close()

	anc, _ := tr.Get("anc")
	leaf, _ := tr.Get("leaf")

	bottom := segment.BottomSegment{
		Start:         0,
		Length:        16,
		TopParseIndex: segment.NoIndex,
		ChildSlots:    []segment.ChildSlot{{TopIndex: 0, Reversed: false}},
	}
	anc.WriteBottom(0, bottom)
	got := anc.ReadBottom(0)
	if got.Start != bottom.Start || got.Length != bottom.Length {
		t.Fatalf("bottom round trip mismatch: got %+v want %+v", got, bottom)
	}
	if len(got.ChildSlots) != 1 || got.ChildSlots[0].TopIndex != 0 {
		t.Fatalf("bottom child slot mismatch: %+v", got.ChildSlots)
	}

	top := segment.TopSegment{
		Start:             0,
		Length:            16,
		ParentIndex:       0,
		Reversed:          false,
		NextParalogyIndex: 0,
		BottomParseIndex:  segment.NoIndex,
	}
	leaf.WriteTop(0, top)
	gotTop := leaf.ReadTop(0)
	if gotTop != top {
		t.Fatalf("top round trip mismatch: got %+v want %+v", gotTop, top)
	}
}
