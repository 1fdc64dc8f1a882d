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

// Package segment defines the two segment flavors (top, bottom) of the
// hierarchical alignment model and the iterator abstraction that walks
// them, stepping across parent/child tree edges and paralogy rings.
package segment

// NoIndex marks an absent index (e.g. a root genome's top segment has no
// parent bottom index; a singleton top segment's paralogy ring points to
// itself, never NoIndex).
const NoIndex = -1

// TopSegment is an aligned interval in a genome whose homolog lies in its
// parent.
type TopSegment struct {
	Start             int64 // start coordinate, genome-relative
	Length            uint64
	ParentIndex       int64 // index of the parent bottom segment, or NoIndex
	Reversed          bool  // relative to the parent
	NextParalogyIndex int64 // next top segment in the paralogy ring (self if unique)
	BottomParseIndex  int64 // overlapping bottom segment in the same genome, or NoIndex
}

// BottomSegment is an aligned interval in a genome whose homologs lie in
// each child genome.
type BottomSegment struct {
	Start          int64
	Length         uint64
	TopParseIndex  int64 // overlapping top segment in the same genome, or NoIndex
	ChildSlots     []ChildSlot
}

// ChildSlot is one child's homologous top segment reference from a
// bottom segment.
type ChildSlot struct {
	TopIndex int64 // NoIndex if this genome has no aligned segment there
	Reversed bool
}

// End returns the genome-relative end coordinate (exclusive).
func (s TopSegment) End() int64 { return s.Start + int64(s.Length) }

// End returns the genome-relative end coordinate (exclusive).
func (s BottomSegment) End() int64 { return s.Start + int64(s.Length) }

// Host is implemented by a genome-like container that owns a top and a
// bottom segment table plus tree edges. Iterators are generic over Host so
// that this package never imports the genome package (which in turn
// imports segment for the record and iterator types), avoiding a cycle.
type Host interface {
	Name() string

	NumTopSegments() int
	NumBottomSegments() int
	ReadTop(i int) TopSegment
	ReadBottom(i int) BottomSegment

	// Parent is the genome one edge up the tree, or nil at the root.
	Parent() Host
	// Child is the genome one edge down the tree at slot idx, or nil if
	// idx is out of range.
	Child(idx int) Host
	// ChildIndex is this genome's slot index in its parent's child list,
	// or NoIndex at the root.
	ChildIndex() int

	// Bases decodes [start, start+length) of this genome's coordinate
	// space into out, which must have length >= length.
	Bases(start int64, length int64, out []byte) error
}

// ReverseComplement reverse-complements a DNA byte slice in place.
func ReverseComplement(b []byte) {
	n := len(b)
	for i, j := 0, n-1; i <= j; i, j = i+1, j-1 {
		b[i], b[j] = complement(b[j]), complement(b[i])
	}
}

func complement(b byte) byte {
	switch b {
	case 'A':
		return 'T'
	case 'T':
		return 'A'
	case 'C':
		return 'G'
	case 'G':
		return 'C'
	default:
		return 'N'
	}
}
