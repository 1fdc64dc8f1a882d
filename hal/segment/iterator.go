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

package segment

import (
	"errors"
	"fmt"
)

// ToEnd, passed as a sub-interval endOffset, means "the segment's own
// length" — the iterator's span is resolved against the segment at
// construction time, so stored endOffset is always a concrete value.
const ToEnd = ^uint64(0)

var (
	// ErrNoParent is returned by ToParent at a root genome's top segment.
	ErrNoParent = errors.New("segment: no parent edge from this segment")
	// ErrNoChild is returned by ToChild when the genome has no such child
	// slot, or the bottom segment has no aligned top segment there.
	ErrNoChild = errors.New("segment: no child edge at that slot")
	// ErrNoParse is returned by ToParseUp/ToParseDown when the segment
	// records no overlapping counterpart in the same genome.
	ErrNoParse = errors.New("segment: no parse edge from this segment")
)

// TopSegmentIterator walks a genome's top segment table, optionally
// restricted to a sub-interval of the segment it currently visits.
type TopSegmentIterator struct {
	host                    Host
	index                   int
	startOffset, endOffset  uint64 // bases from the segment's native start
	reversed                bool
}

// BottomSegmentIterator walks a genome's bottom segment table.
type BottomSegmentIterator struct {
	host                   Host
	index                  int
	startOffset, endOffset uint64
	reversed               bool
}

// NewTopSegmentIterator builds an iterator over the whole extent of top
// segment index i in host.
func NewTopSegmentIterator(host Host, index int) (*TopSegmentIterator, error) {
	return NewTopSegmentIteratorSub(host, index, 0, ToEnd, false)
}

// NewTopSegmentIteratorSub builds an iterator over a sub-interval of top
// segment index i. endOffset == ToEnd means the segment's full length.
func NewTopSegmentIteratorSub(host Host, index int, startOffset, endOffset uint64, reversed bool) (*TopSegmentIterator, error) {
	if index < 0 || index >= host.NumTopSegments() {
		return nil, fmt.Errorf("segment: top index %d out of range [0,%d)", index, host.NumTopSegments())
	}
	seg := host.ReadTop(index)
	if endOffset == ToEnd {
		endOffset = seg.Length
	}
	if startOffset > endOffset || endOffset > seg.Length {
		return nil, fmt.Errorf("segment: sub-interval [%d,%d) out of bounds for length %d", startOffset, endOffset, seg.Length)
	}
	return &TopSegmentIterator{host: host, index: index, startOffset: startOffset, endOffset: endOffset, reversed: reversed}, nil
}

func NewBottomSegmentIterator(host Host, index int) (*BottomSegmentIterator, error) {
	return NewBottomSegmentIteratorSub(host, index, 0, ToEnd, false)
}

func NewBottomSegmentIteratorSub(host Host, index int, startOffset, endOffset uint64, reversed bool) (*BottomSegmentIterator, error) {
	if index < 0 || index >= host.NumBottomSegments() {
		return nil, fmt.Errorf("segment: bottom index %d out of range [0,%d)", index, host.NumBottomSegments())
	}
	seg := host.ReadBottom(index)
	if endOffset == ToEnd {
		endOffset = seg.Length
	}
	if startOffset > endOffset || endOffset > seg.Length {
		return nil, fmt.Errorf("segment: sub-interval [%d,%d) out of bounds for length %d", startOffset, endOffset, seg.Length)
	}
	return &BottomSegmentIterator{host: host, index: index, startOffset: startOffset, endOffset: endOffset, reversed: reversed}, nil
}

// --- Top segment iterator ---

func (it *TopSegmentIterator) segment() TopSegment { return it.host.ReadTop(it.index) }

// GetLength returns the sub-interval's length, independent of reversal.
func (it *TopSegmentIterator) GetLength() uint64 { return it.endOffset - it.startOffset }

// GetReversed reports whether this iterator reads its segment backwards.
func (it *TopSegmentIterator) GetReversed() bool { return it.reversed }

// GetStartPosition returns the genome-relative coordinate of the first
// base this iterator covers, honoring reversal (the "start" of a
// reversed iterator is its rightmost covered base).
func (it *TopSegmentIterator) GetStartPosition() int64 {
	seg := it.segment()
	if !it.reversed {
		return seg.Start + int64(it.startOffset)
	}
	return seg.Start + int64(it.endOffset) - 1
}

// GetEndPosition returns the genome-relative coordinate one past the last
// base this iterator covers in the iteration direction.
func (it *TopSegmentIterator) GetEndPosition() int64 {
	seg := it.segment()
	if !it.reversed {
		return seg.Start + int64(it.endOffset)
	}
	return seg.Start + int64(it.startOffset) - 1
}

// Index returns the underlying top segment's table index.
func (it *TopSegmentIterator) Index() int { return it.index }

// Host returns the genome this iterator walks.
func (it *TopSegmentIterator) Host() Host { return it.host }

// GetSequence decodes this iterator's covered bases into out (which must
// have length >= GetLength()), reverse-complementing when reversed.
func (it *TopSegmentIterator) GetSequence(out []byte) error {
	seg := it.segment()
	start := seg.Start + int64(it.startOffset)
	length := int64(it.GetLength())
	if err := it.host.Bases(start, length, out[:length]); err != nil {
		return err
	}
	if it.reversed {
		ReverseComplement(out[:length])
	}
	return nil
}

// ToRight moves to the next segment in coordinate order (or the previous
// one, if this iterator is reversed), resetting the sub-interval to the
// new segment's full extent.
func (it *TopSegmentIterator) ToRight() error {
	next := it.index + 1
	if it.reversed {
		next = it.index - 1
	}
	if next < 0 || next >= it.host.NumTopSegments() {
		return fmt.Errorf("segment: ToRight out of range at index %d", it.index)
	}
	it.index = next
	it.startOffset, it.endOffset = 0, it.host.ReadTop(next).Length
	return nil
}

// ToLeft is the mirror of ToRight.
func (it *TopSegmentIterator) ToLeft() error {
	prev := it.index - 1
	if it.reversed {
		prev = it.index + 1
	}
	if prev < 0 || prev >= it.host.NumTopSegments() {
		return fmt.Errorf("segment: ToLeft out of range at index %d", it.index)
	}
	it.index = prev
	it.startOffset, it.endOffset = 0, it.host.ReadTop(prev).Length
	return nil
}

// ToParent crosses the tree edge from a top segment to the parent
// genome's bottom segment it descends from. Reversal composes by XOR and
// length is preserved, per the top/bottom pairing invariant: a top
// segment and the parent bottom-segment child slot that references it
// always share the same length.
func (it *TopSegmentIterator) ToParent() (*BottomSegmentIterator, error) {
	parent := it.host.Parent()
	if parent == nil {
		return nil, ErrNoParent
	}
	seg := it.segment()
	if seg.ParentIndex == NoIndex {
		return nil, ErrNoParent
	}
	newReversed := it.reversed != seg.Reversed
	start, end := mirrorSubInterval(it.startOffset, it.endOffset, seg.Length, seg.Reversed)
	return NewBottomSegmentIteratorSub(parent, int(seg.ParentIndex), start, end, newReversed)
}

// ToParseDown crosses from a top segment to the bottom segment at the
// same genomic position, for descending to this genome's own children.
func (it *TopSegmentIterator) ToParseDown() (*BottomSegmentIterator, error) {
	seg := it.segment()
	if seg.BottomParseIndex == NoIndex {
		return nil, ErrNoParse
	}
	bot := it.host.ReadBottom(int(seg.BottomParseIndex))
	start, end := overlapSubInterval(seg.Start, it.startOffset, it.endOffset, bot.Start, bot.Length)
	return NewBottomSegmentIteratorSub(it.host, int(seg.BottomParseIndex), start, end, it.reversed)
}

// ToNextParalogy advances along the cyclic paralogy ring. Calling it
// Length(ring) times returns to the starting index; a segment with no
// duplicates points to itself, so a single call is a no-op.
func (it *TopSegmentIterator) ToNextParalogy() error {
	seg := it.segment()
	if seg.NextParalogyIndex == NoIndex {
		return fmt.Errorf("segment: top segment %d has no paralogy ring", it.index)
	}
	it.index = int(seg.NextParalogyIndex)
	it.startOffset, it.endOffset = 0, it.host.ReadTop(it.index).Length
	return nil
}

// --- Bottom segment iterator ---

func (it *BottomSegmentIterator) segment() BottomSegment { return it.host.ReadBottom(it.index) }

func (it *BottomSegmentIterator) GetLength() uint64 { return it.endOffset - it.startOffset }

func (it *BottomSegmentIterator) GetReversed() bool { return it.reversed }

func (it *BottomSegmentIterator) GetStartPosition() int64 {
	seg := it.segment()
	if !it.reversed {
		return seg.Start + int64(it.startOffset)
	}
	return seg.Start + int64(it.endOffset) - 1
}

func (it *BottomSegmentIterator) GetEndPosition() int64 {
	seg := it.segment()
	if !it.reversed {
		return seg.Start + int64(it.endOffset)
	}
	return seg.Start + int64(it.startOffset) - 1
}

func (it *BottomSegmentIterator) Index() int { return it.index }

func (it *BottomSegmentIterator) Host() Host { return it.host }

func (it *BottomSegmentIterator) GetSequence(out []byte) error {
	seg := it.segment()
	start := seg.Start + int64(it.startOffset)
	length := int64(it.GetLength())
	if err := it.host.Bases(start, length, out[:length]); err != nil {
		return err
	}
	if it.reversed {
		ReverseComplement(out[:length])
	}
	return nil
}

func (it *BottomSegmentIterator) ToRight() error {
	next := it.index + 1
	if it.reversed {
		next = it.index - 1
	}
	if next < 0 || next >= it.host.NumBottomSegments() {
		return fmt.Errorf("segment: ToRight out of range at index %d", it.index)
	}
	it.index = next
	it.startOffset, it.endOffset = 0, it.host.ReadBottom(next).Length
	return nil
}

func (it *BottomSegmentIterator) ToLeft() error {
	prev := it.index - 1
	if it.reversed {
		prev = it.index + 1
	}
	if prev < 0 || prev >= it.host.NumBottomSegments() {
		return fmt.Errorf("segment: ToLeft out of range at index %d", it.index)
	}
	it.index = prev
	it.startOffset, it.endOffset = 0, it.host.ReadBottom(prev).Length
	return nil
}

// ToChild crosses the tree edge down to the top segment of child slot
// childIdx that this bottom segment aligns to.
func (it *BottomSegmentIterator) ToChild(childIdx int) (*TopSegmentIterator, error) {
	child := it.host.Child(childIdx)
	if child == nil {
		return nil, ErrNoChild
	}
	seg := it.segment()
	if childIdx < 0 || childIdx >= len(seg.ChildSlots) {
		return nil, ErrNoChild
	}
	slot := seg.ChildSlots[childIdx]
	if slot.TopIndex == NoIndex {
		return nil, ErrNoChild
	}
	newReversed := it.reversed != slot.Reversed
	start, end := mirrorSubInterval(it.startOffset, it.endOffset, seg.Length, slot.Reversed)
	return NewTopSegmentIteratorSub(child, int(slot.TopIndex), start, end, newReversed)
}

// ToParseUp crosses from a bottom segment to the top segment at the same
// genomic position in this genome, for ascending toward this genome's
// own parent.
func (it *BottomSegmentIterator) ToParseUp() (*TopSegmentIterator, error) {
	seg := it.segment()
	if seg.TopParseIndex == NoIndex {
		return nil, ErrNoParse
	}
	top := it.host.ReadTop(int(seg.TopParseIndex))
	start, end := overlapSubInterval(seg.Start, it.startOffset, it.endOffset, top.Start, top.Length)
	return NewTopSegmentIteratorSub(it.host, int(seg.TopParseIndex), start, end, it.reversed)
}

// --- shared sub-interval arithmetic ---

// mirrorSubInterval translates a [startOffset,endOffset) sub-interval of
// a segment of the given length across an edge whose far side is
// reversed relative to the near side: the covered bases are the same,
// but measured from the opposite end.
func mirrorSubInterval(startOffset, endOffset, length uint64, edgeReversed bool) (uint64, uint64) {
	if !edgeReversed {
		return startOffset, endOffset
	}
	return length - endOffset, length - startOffset
}

// overlapSubInterval maps a sub-interval expressed against a segment
// starting at segStart onto the overlapping region of a counterpart
// segment starting at otherStart with the given length, clamping to the
// counterpart's own extent. Used for same-genome parse edges, where the
// two tables are not guaranteed to share a common origin.
func overlapSubInterval(segStart int64, startOffset, endOffset uint64, otherStart int64, otherLength uint64) (uint64, uint64) {
	absStart := segStart + int64(startOffset)
	absEnd := segStart + int64(endOffset)

	lo := absStart - otherStart
	hi := absEnd - otherStart
	if lo < 0 {
		lo = 0
	}
	if hi > int64(otherLength) {
		hi = int64(otherLength)
	}
	if hi < lo {
		hi = lo
	}
	return uint64(lo), uint64(hi)
}
