package liftover

import (
	"path/filepath"
	"testing"

	"github.com/halgenome/hal/hal/genome"
	"github.com/halgenome/hal/hal/mmapstore"
	"github.com/halgenome/hal/hal/navigator"
	"github.com/halgenome/hal/hal/segment"
)

// buildWalkTestTree builds a real mmapstore-backed genome.Tree with an
// "anc" root and two children "leaf1"/"leaf2", combining the reversed
// edge and paralogy ring that hal/segment/iterator_test.go covers with
// its fakeGenome fixtures, but wired through genome.Tree so
// Engine.Convert walks an actual store instead of a fakeGenome.
//
//	anc (root, bottom segment 0 covers [0,8), reversed toward leaf1)
//	├── leaf1 (child 0): top segment 0 aligns anc[0,8) reversed, no dupe
//	└── leaf2 (child 1): top segment 0 aligns anc[0,8) forward, with a
//	    paralogy-ring duplicate at top segment 1
func buildWalkTestTree(t *testing.T) (tr *genome.Tree, anc, leaf1, leaf2 *genome.Genome) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "g.hal")
	store, err := mmapstore.Open(path, mmapstore.Write, 1<<20, false)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	tr = genome.NewTree(store)
	anc, err = tr.AddGenome("anc", "")
	if err != nil {
		t.Fatalf("add anc: %v", err)
	}
	leaf1, err = tr.AddGenome("leaf1", "anc")
	if err != nil {
		t.Fatalf("add leaf1: %v", err)
	}
	leaf2, err = tr.AddGenome("leaf2", "anc")
	if err != nil {
		t.Fatalf("add leaf2: %v", err)
	}

	if _, err := anc.AddSequence("chr1", []byte("ACGTACGT")); err != nil {
		t.Fatalf("add anc seq: %v", err)
	}
	if _, err := leaf1.AddSequence("chr1", []byte("ACGTACGT")); err != nil {
		t.Fatalf("add leaf1 seq: %v", err)
	}
	if _, err := leaf2.AddSequence("chr1", []byte("ACGTACGTACGTACGT")); err != nil {
		t.Fatalf("add leaf2 seq: %v", err)
	}

	if err := anc.AllocateSegmentTables(0, 1); err != nil {
		t.Fatalf("allocate anc tables: %v", err)
	}
	anc.WriteBottom(0, segment.BottomSegment{
		Start:         0,
		Length:        8,
		TopParseIndex: segment.NoIndex,
		ChildSlots: []segment.ChildSlot{
			{TopIndex: 0, Reversed: true},  // leaf1's homolog is reversed
			{TopIndex: 0, Reversed: false}, // leaf2's homolog is forward
		},
	})

	if err := leaf1.AllocateSegmentTables(1, 0); err != nil {
		t.Fatalf("allocate leaf1 tables: %v", err)
	}
	leaf1.WriteTop(0, segment.TopSegment{
		Start:             0,
		Length:            8,
		ParentIndex:       0,
		Reversed:          true,
		NextParalogyIndex: 0,
		BottomParseIndex:  segment.NoIndex,
	})

	if err := leaf2.AllocateSegmentTables(2, 0); err != nil {
		t.Fatalf("allocate leaf2 tables: %v", err)
	}
	leaf2.WriteTop(0, segment.TopSegment{
		Start:             0,
		Length:            8,
		ParentIndex:       0,
		Reversed:          false,
		NextParalogyIndex: 1,
		BottomParseIndex:  segment.NoIndex,
	})
	leaf2.WriteTop(1, segment.TopSegment{
		Start:             8,
		Length:            8,
		ParentIndex:       segment.NoIndex,
		Reversed:          false,
		NextParalogyIndex: 0,
		BottomParseIndex:  segment.NoIndex,
	})

	return tr, anc, leaf1, leaf2
}

// Scenario: lifting leaf1 up across the reversed tree edge to its parent
// anc must flip strand and land at the bottom segment's own span.
func TestConvertReverseEdgeFlipsStrand(t *testing.T) {
	tr, _, leaf1, _ := buildWalkTestTree(t)
	nav := navigator.New(tr)
	ancGenome, err := nav.GetGenome("anc")
	if err != nil {
		t.Fatalf("get anc: %v", err)
	}

	eng := &Engine{Nav: nav, SrcGenome: leaf1, TgtGenome: ancGenome, BedType: 3}
	out, err := eng.Convert([]BedLine{{Chrom: "chr1", Start: 0, End: 8, Strand: '+', BedType: 3}})
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 output record, got %d: %+v", len(out), out)
	}
	if out[0].Chrom != "chr1" || out[0].Start != 0 || out[0].End != 8 {
		t.Fatalf("unexpected projected span: %+v", out[0])
	}
	if out[0].Strand != '-' {
		t.Fatalf("expected strand flipped across the reversed edge, got %q", out[0].Strand)
	}
}

// Scenario: lifting leaf1 to leaf2 (siblings under anc) with
// TraverseDupes set must enumerate both paralogy-ring members of the
// landed segment in leaf2; without it, only the primary homolog.
func TestConvertDuplicateProjection(t *testing.T) {
	tr, _, leaf1, _ := buildWalkTestTree(t)
	nav := navigator.New(tr)
	leaf2Genome, err := nav.GetGenome("leaf2")
	if err != nil {
		t.Fatalf("get leaf2: %v", err)
	}

	line := BedLine{Chrom: "chr1", Start: 0, End: 8, Strand: '+', BedType: 3}

	primaryOnly := &Engine{Nav: nav, SrcGenome: leaf1, TgtGenome: leaf2Genome, BedType: 3}
	out, err := primaryOnly.Convert([]BedLine{line})
	if err != nil {
		t.Fatalf("convert (no traverse-dupes): %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 record without traverse-dupes, got %d: %+v", len(out), out)
	}

	withDupes := &Engine{Nav: nav, SrcGenome: leaf1, TgtGenome: leaf2Genome, BedType: 3, TraverseDupes: true}
	out, err = withDupes.Convert([]BedLine{line})
	if err != nil {
		t.Fatalf("convert (traverse-dupes): %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 records enumerating the paralogy ring, got %d: %+v", len(out), out)
	}
	starts := map[int64]bool{}
	for _, r := range out {
		starts[r.Start] = true
	}
	if !starts[0] || !starts[8] {
		t.Fatalf("expected ring members at leaf2 offsets 0 and 8, got %+v", out)
	}
}
