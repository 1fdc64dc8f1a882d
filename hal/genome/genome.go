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

// Package genome holds the genome tree: per-genome sequence tables and
// top/bottom segment tables, backed by a hal/mmapstore.Store and exposed
// to hal/segment iterators through the segment.Host interface.
package genome

import (
	"fmt"

	"github.com/rdleal/intervalst/interval"

	"github.com/halgenome/hal/hal/mmapstore"
	"github.com/halgenome/hal/hal/segment"
	"github.com/halgenome/hal/hal/twobit"
)

var (
	// ErrMissingSequence is returned when a requested sequence name is
	// not registered in a genome.
	ErrMissingSequence = fmt.Errorf("genome: sequence not found")
	// ErrOutOfRange is returned when a coordinate falls outside a
	// genome's or sequence's extent.
	ErrOutOfRange = fmt.Errorf("genome: coordinate out of range")
)

// Sequence is one named contig within a genome's shared coordinate
// space (all of a genome's sequences are laid end to end along a single
// axis, the same convention segment offsets are expressed in).
type Sequence struct {
	genome      *Genome
	name        string
	genomeStart int64
	length      int64
	basesOffset uint64 // mmapstore offset of the 2-bit packed bases
}

func (s *Sequence) Name() string        { return s.name }
func (s *Sequence) Length() int64       { return s.length }
func (s *Sequence) Genome() *Genome     { return s.genome }
func (s *Sequence) GenomeStart() int64  { return s.genomeStart }

// GetBases decodes [start,start+length) of this sequence (sequence-
// relative coordinates) into out.
func (s *Sequence) GetBases(start, length int64, out []byte) error {
	if start < 0 || length < 0 || start+length > s.length {
		return ErrOutOfRange
	}
	packed := s.genome.store.ToPtr(s.basesOffset, uint64(twobit.PackedLen(int(s.length))))
	return twobit.UnpackRange(packed, int(s.length), int(start), int(length), out)
}

// Genome is one node of the alignment tree.
type Genome struct {
	store *mmapstore.Store

	name     string
	parent   *Genome
	children []*Genome
	childIdx int

	sequences []*Sequence
	seqByName map[string]*Sequence
	seqIndex  *interval.SearchTree[*Sequence, int64]

	topOffset    uint64
	topCount     int
	bottomOffset uint64
	bottomCount  int
}

// Name returns the genome's name, e.g. a species or assembly label.
func (g *Genome) Name() string { return g.name }

// Parent returns the genome one edge up the tree, or nil at the root.
func (g *Genome) Parent() segment.Host {
	if g.parent == nil {
		return nil
	}
	return g.parent
}

// ParentGenome is the typed counterpart of Parent, for callers in this
// package's own domain that don't want to downcast segment.Host.
func (g *Genome) ParentGenome() *Genome { return g.parent }

// Child returns the genome one edge down the tree at slot idx, or nil.
func (g *Genome) Child(idx int) segment.Host {
	if idx < 0 || idx >= len(g.children) {
		return nil
	}
	return g.children[idx]
}

// Children returns this genome's children in slot order.
func (g *Genome) Children() []*Genome { return g.children }

// ChildIndex is this genome's slot index in its parent's child list, or
// segment.NoIndex at the root.
func (g *Genome) ChildIndex() int { return g.childIdx }

// NumTopSegments returns the size of this genome's top segment table.
func (g *Genome) NumTopSegments() int { return g.topCount }

// NumBottomSegments returns the size of this genome's bottom segment
// table.
func (g *Genome) NumBottomSegments() int { return g.bottomCount }

// ReadTop decodes top segment i from the mapped store.
func (g *Genome) ReadTop(i int) segment.TopSegment {
	buf := g.store.ToPtr(g.topOffset+uint64(i*topRecordSize), topRecordSize)
	return decodeTop(buf)
}

// ReadBottom decodes bottom segment i from the mapped store.
func (g *Genome) ReadBottom(i int) segment.BottomSegment {
	recSize := bottomRecordSize(len(g.children))
	buf := g.store.ToPtr(g.bottomOffset+uint64(i*recSize), uint64(recSize))
	return decodeBottom(buf)
}

// WriteTop encodes top segment i into the mapped store. Write-mode
// stores only; used while building a new alignment.
func (g *Genome) WriteTop(i int, s segment.TopSegment) {
	buf := g.store.ToPtr(g.topOffset+uint64(i*topRecordSize), topRecordSize)
	encodeTop(buf, s)
}

// WriteBottom encodes bottom segment i into the mapped store.
func (g *Genome) WriteBottom(i int, s segment.BottomSegment) {
	recSize := bottomRecordSize(len(g.children))
	if len(s.ChildSlots) != len(g.children) {
		panic(fmt.Sprintf("genome: bottom segment child slot count %d does not match genome child count %d", len(s.ChildSlots), len(g.children)))
	}
	buf := g.store.ToPtr(g.bottomOffset+uint64(i*recSize), uint64(recSize))
	encodeBottom(buf, s)
}

// Sequences returns this genome's sequence table in registration order.
func (g *Genome) Sequences() []*Sequence { return g.sequences }

// GetSequence looks up a sequence by name.
func (g *Genome) GetSequence(name string) (*Sequence, error) {
	seq, ok := g.seqByName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q in genome %q", ErrMissingSequence, name, g.name)
	}
	return seq, nil
}

// Bases implements segment.Host by resolving a genome-relative
// coordinate range to the sequence(s) it falls within. Per spec.md's
// data model, a segment never straddles a sequence boundary, so exactly
// one sequence always covers the requested range.
func (g *Genome) Bases(start int64, length int64, out []byte) error {
	seq, err := g.sequenceAt(start)
	if err != nil {
		return err
	}
	return seq.GetBases(start-seq.genomeStart, length, out)
}

// SequenceAt returns the sequence covering genome-relative coordinate
// pos. Exported for callers outside this package (e.g. hal/liftover)
// that need to translate a projected genome-relative position back to a
// named sequence and a sequence-relative offset.
func (g *Genome) SequenceAt(pos int64) (*Sequence, error) {
	return g.sequenceAt(pos)
}

// sequenceAt returns the sequence covering genome-relative coordinate
// pos.
func (g *Genome) sequenceAt(pos int64) (*Sequence, error) {
	if g.seqIndex == nil {
		return nil, fmt.Errorf("%w: genome %q has no sequences", ErrOutOfRange, g.name)
	}
	found, ok := g.seqIndex.AnyIntersection(pos, pos+1)
	if !ok {
		return nil, fmt.Errorf("%w: position %d in genome %q", ErrOutOfRange, pos, g.name)
	}
	return found, nil
}

// SequencesOverlapping returns a sequence whose extent intersects
// [start,end) in genome-relative coordinates, if any. Segments never
// straddle a sequence boundary, so at most one sequence can intersect a
// well-formed query.
func (g *Genome) SequencesOverlapping(start, end int64) (*Sequence, bool) {
	if g.seqIndex == nil {
		return nil, false
	}
	return g.seqIndex.AnyIntersection(start, end)
}
