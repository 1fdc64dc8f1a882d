package segment

import "testing"

// fakeGenome is a minimal in-memory Host used only to exercise the
// iterator's tree-walk and ring arithmetic, independent of mmapstore.
type fakeGenome struct {
	name     string
	parent   *fakeGenome
	children []*fakeGenome
	childIdx int

	tops    []TopSegment
	bottoms []BottomSegment
	bases   []byte
}

func (g *fakeGenome) Name() string             { return g.name }
func (g *fakeGenome) NumTopSegments() int      { return len(g.tops) }
func (g *fakeGenome) NumBottomSegments() int   { return len(g.bottoms) }
func (g *fakeGenome) ReadTop(i int) TopSegment { return g.tops[i] }
func (g *fakeGenome) ReadBottom(i int) BottomSegment {
	return g.bottoms[i]
}
func (g *fakeGenome) Parent() Host { if g.parent == nil { return nil }; return g.parent }
func (g *fakeGenome) Child(idx int) Host {
	if idx < 0 || idx >= len(g.children) {
		return nil
	}
	return g.children[idx]
}
func (g *fakeGenome) ChildIndex() int { return g.childIdx }
func (g *fakeGenome) Bases(start, length int64, out []byte) error {
	copy(out, g.bases[start:start+length])
	return nil
}

// buildTestTree constructs a two-genome tree (parent "anc" with one
// child "leaf") with a single aligned block, plus a duplicated top
// segment in "leaf" forming a 3-element paralogy ring.
func buildTestTree() (anc, leaf *fakeGenome) {
	anc = &fakeGenome{
		name:  "anc",
		bases: []byte("ACGTACGTAA"),
		bottoms: []BottomSegment{
			{Start: 0, Length: 8, TopParseIndex: NoIndex, ChildSlots: []ChildSlot{{TopIndex: 0, Reversed: false}}},
		},
	}
	leaf = &fakeGenome{
		name:     "leaf",
		parent:   anc,
		childIdx: 0,
		bases:    []byte("ACGTACGTTTTTACGT"),
		tops: []TopSegment{
			{Start: 0, Length: 8, ParentIndex: 0, Reversed: false, NextParalogyIndex: 2, BottomParseIndex: NoIndex},
			{Start: 8, Length: 4, ParentIndex: NoIndex, Reversed: false, NextParalogyIndex: 0, BottomParseIndex: NoIndex},
			{Start: 12, Length: 4, ParentIndex: NoIndex, Reversed: true, NextParalogyIndex: 1, BottomParseIndex: NoIndex},
		},
	}
	anc.children = []*fakeGenome{leaf}
	return anc, leaf
}

func TestToParentPreservesLength(t *testing.T) {
	anc, leaf := buildTestTree()
	it, err := NewTopSegmentIterator(leaf, 0)
	if err != nil {
		t.Fatalf("new iterator: %v", err)
	}
	wantLen := it.GetLength()

	bit, err := it.ToParent()
	if err != nil {
		t.Fatalf("toParent: %v", err)
	}
	if bit.GetLength() != wantLen {
		t.Fatalf("length not preserved across toParent: got %d want %d", bit.GetLength(), wantLen)
	}
	if bit.Host().Name() != anc.Name() {
		t.Fatalf("toParent landed in wrong genome: %s", bit.Host().Name())
	}
}

func TestToParentNoParentEdge(t *testing.T) {
	_, leaf := buildTestTree()
	it, err := NewTopSegmentIterator(leaf, 1) // ParentIndex == NoIndex
	if err != nil {
		t.Fatalf("new iterator: %v", err)
	}
	if _, err := it.ToParent(); err != ErrNoParent {
		t.Fatalf("expected ErrNoParent, got %v", err)
	}
}

func TestToParentComposesReversal(t *testing.T) {
	anc := &fakeGenome{
		name:  "anc",
		bases: []byte("ACGTACGT"),
		bottoms: []BottomSegment{
			{Start: 0, Length: 8, TopParseIndex: NoIndex, ChildSlots: []ChildSlot{{TopIndex: 0, Reversed: true}}},
		},
	}
	leaf := &fakeGenome{
		name:   "leaf",
		parent: anc,
		bases:  []byte("ACGTACGT"),
		tops: []TopSegment{
			{Start: 0, Length: 8, ParentIndex: 0, Reversed: true, NextParalogyIndex: 0, BottomParseIndex: NoIndex},
		},
	}
	anc.children = []*fakeGenome{leaf}

	fwd, err := NewTopSegmentIterator(leaf, 0)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	up, err := fwd.ToParent()
	if err != nil {
		t.Fatalf("toParent: %v", err)
	}
	if !up.GetReversed() {
		t.Fatalf("forward iterator x reversed edge should compose to true, got false")
	}

	rev, err := NewTopSegmentIteratorSub(leaf, 0, 0, ToEnd, true)
	if err != nil {
		t.Fatalf("new reversed: %v", err)
	}
	up2, err := rev.ToParent()
	if err != nil {
		t.Fatalf("toParent: %v", err)
	}
	if up2.GetReversed() {
		t.Fatalf("reversed iterator x reversed edge should compose to false")
	}
}

func TestParalogyRingIsCyclicAndFinite(t *testing.T) {
	_, leaf := buildTestTree()
	it, err := NewTopSegmentIterator(leaf, 0)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	start := it.Index()
	visited := map[int]bool{start: true}
	for i := 0; i < 10; i++ {
		if err := it.ToNextParalogy(); err != nil {
			t.Fatalf("toNextParalogy: %v", err)
		}
		if it.Index() == start {
			if i != 2 {
				t.Fatalf("ring closed after %d steps, want 3 (ring size)", i+1)
			}
			if len(visited) != 3 {
				t.Fatalf("ring visited %d distinct segments, want 3", len(visited))
			}
			return
		}
		if visited[it.Index()] {
			t.Fatalf("ring revisited index %d before closing", it.Index())
		}
		visited[it.Index()] = true
	}
	t.Fatalf("paralogy ring did not close within 10 steps")
}

func TestSingletonParalogyRingIsNoOp(t *testing.T) {
	leaf := &fakeGenome{
		name:  "solo",
		bases: []byte("ACGTACGT"),
		tops: []TopSegment{
			{Start: 0, Length: 8, ParentIndex: NoIndex, NextParalogyIndex: 0, BottomParseIndex: NoIndex},
		},
	}
	it, err := NewTopSegmentIterator(leaf, 0)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := it.ToNextParalogy(); err != nil {
		t.Fatalf("toNextParalogy on singleton: %v", err)
	}
	if it.Index() != 0 {
		t.Fatalf("singleton ring should stay at index 0, got %d", it.Index())
	}
}

func TestGetSequenceReverseComplements(t *testing.T) {
	_, leaf := buildTestTree()
	it, err := NewTopSegmentIteratorSub(leaf, 0, 0, ToEnd, true)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	out := make([]byte, it.GetLength())
	if err := it.GetSequence(out); err != nil {
		t.Fatalf("getSequence: %v", err)
	}
	// leaf.bases[0:8] == "ACGTACGT"; reverse-complement is "ACGTACGT"
	// (palindromic), so use a non-palindromic sub-interval instead.
	it2, err := NewTopSegmentIteratorSub(leaf, 1, 0, 2, true)
	if err != nil {
		t.Fatalf("new sub: %v", err)
	}
	out2 := make([]byte, it2.GetLength())
	if err := it2.GetSequence(out2); err != nil {
		t.Fatalf("getSequence: %v", err)
	}
	// segment 1 covers leaf.bases[8:12] == "TTTT"; offsets [0,2) -> "TT";
	// reverse-complemented -> "AA".
	if string(out2) != "AA" {
		t.Fatalf("reverse-complement mismatch: got %q want %q", out2, "AA")
	}
}

func TestToChildRoundTripsToParent(t *testing.T) {
	anc, leaf := buildTestTree()
	bit, err := NewBottomSegmentIterator(anc, 0)
	if err != nil {
		t.Fatalf("new bottom: %v", err)
	}
	tit, err := bit.ToChild(0)
	if err != nil {
		t.Fatalf("toChild: %v", err)
	}
	if tit.Host().Name() != leaf.Name() {
		t.Fatalf("toChild landed in wrong genome: %s", tit.Host().Name())
	}
	if tit.Index() != 0 {
		t.Fatalf("toChild landed at wrong index: %d", tit.Index())
	}
	if tit.GetLength() != bit.GetLength() {
		t.Fatalf("length not preserved across toChild: got %d want %d", tit.GetLength(), bit.GetLength())
	}
}

func TestToChildMissingSlot(t *testing.T) {
	anc, _ := buildTestTree()
	bit, err := NewBottomSegmentIterator(anc, 0)
	if err != nil {
		t.Fatalf("new bottom: %v", err)
	}
	if _, err := bit.ToChild(5); err != ErrNoChild {
		t.Fatalf("expected ErrNoChild, got %v", err)
	}
}

func TestToRightAndToLeft(t *testing.T) {
	_, leaf := buildTestTree()
	it, err := NewTopSegmentIterator(leaf, 0)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := it.ToRight(); err != nil {
		t.Fatalf("toRight: %v", err)
	}
	if it.Index() != 1 {
		t.Fatalf("toRight landed at %d, want 1", it.Index())
	}
	if err := it.ToLeft(); err != nil {
		t.Fatalf("toLeft: %v", err)
	}
	if it.Index() != 0 {
		t.Fatalf("toLeft landed at %d, want 0", it.Index())
	}
	if err := it.ToLeft(); err == nil {
		t.Fatalf("expected out-of-range error stepping left of index 0")
	}
}

func TestSubIntervalBounds(t *testing.T) {
	_, leaf := buildTestTree()
	if _, err := NewTopSegmentIteratorSub(leaf, 0, 2, 100, false); err == nil {
		t.Fatalf("expected out-of-bounds error for endOffset beyond segment length")
	}
	if _, err := NewTopSegmentIteratorSub(leaf, 0, 5, 2, false); err == nil {
		t.Fatalf("expected error for startOffset > endOffset")
	}
}
