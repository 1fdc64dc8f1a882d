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

package liftover

import (
	"github.com/halgenome/hal/hal/genome"
	"github.com/halgenome/hal/hal/segment"
)

// posIter is the subset of the top/bottom segment iterator API the tree
// walk needs; both iterator kinds in hal/segment satisfy it, letting
// liftInterval stay agnostic about which table it finally lands in.
type posIter interface {
	GetStartPosition() int64
	GetEndPosition() int64
	GetReversed() bool
}

// liftInterval projects a single source interval (genome-relative
// coordinates [gStart, gEnd) in srcGenome) onto tgtGenome, returning one
// mapped piece per source-side top segment the interval overlaps (and,
// with traverseDupes, per paralogy-ring member of each).
//
// There is no reference implementation to ground this against: the
// retrieved halLiftover.cpp calls liftInterval but its body was not part
// of the retrieval pack. This walks the alignment tree segment-by-segment
// using the edge-crossing operations hal/segment already provides
// (ToParent/ToChild cross tree edges, ToParseUp/ToParseDown cross
// between a genome's own top and bottom tables at the same position),
// composing strand flips and sub-interval clipping as it goes — built
// directly from the interval-projection contract spec.md §4.4
// describes, not transliterated from source that was never retrieved.
func (e *Engine) liftInterval(srcGenome *genome.Genome, gStart, gEnd int64, strand byte) ([]mappedPiece, error) {
	if srcGenome.Name() == e.TgtGenome.Name() {
		return []mappedPiece{{
			genome: srcGenome,
			start:  gStart,
			end:    gEnd,
			reversed: false,
			srcStart: gStart,
		}}, nil
	}

	ascendChain, descendChain, err := e.chains(srcGenome)
	if err != nil {
		return nil, err
	}

	var out []mappedPiece
	for _, topIt := range overlappingTopSegments(srcGenome, gStart, gEnd) {
		srcPieceStart := topIt.GetStartPosition()

		bot, ok := ascendToTurning(topIt, ascendChain)
		if !ok {
			continue // no homolog at the coalescence node: unaligned gap
		}
		final, ok := descendFromTurning(bot, descendChain)
		if !ok {
			continue
		}

		finals, err := finalPieces(final, e.TraverseDupes)
		if err != nil {
			return nil, err
		}
		tgtGenome := descendChain[len(descendChain)-1]
		for _, f := range finals {
			lo, hi := f.GetStartPosition(), f.GetEndPosition()
			if lo > hi {
				// reversed: start is the rightmost covered base and end
				// is one before the leftmost
				lo, hi = hi+1, lo+1
			}
			out = append(out, mappedPiece{
				genome:   tgtGenome,
				start:    lo,
				end:      hi,
				reversed: f.GetReversed(),
				srcStart: srcPieceStart,
			})
		}
	}
	return out, nil
}

// mappedPiece is one genome-relative projected interval in the target
// genome, still carrying the source anchor needed for assembly.
type mappedPiece struct {
	genome   *genome.Genome
	start    int64
	end      int64
	reversed bool
	srcStart int64
}

// chains returns the ascend chain (srcGenome up to the turning node) and
// the descend chain (turning node down to e.TgtGenome). The turning node
// is the lowest common ancestor of srcGenome and e.TgtGenome, unless
// e.CoalescenceLimit names an ancestor of srcGenome reached first while
// climbing — in which case the walk stops there instead, per
// spec.md §6's coalescence-limit description ("the tree walk stops no
// deeper than this node").
func (e *Engine) chains(srcGenome *genome.Genome) (ascend, descend []*genome.Genome, err error) {
	lca, err := e.Nav.LCAOf(srcGenome, e.TgtGenome)
	if err != nil {
		return nil, nil, err
	}

	turning := lca
	if e.CoalescenceLimit != nil {
		for cur := srcGenome; cur != nil; cur = cur.ParentGenome() {
			if cur.Name() == e.CoalescenceLimit.Name() {
				turning = e.CoalescenceLimit
				break
			}
			if cur.Name() == lca.Name() {
				break
			}
		}
	}

	for cur := srcGenome; ; cur = cur.ParentGenome() {
		ascend = append(ascend, cur)
		if cur.Name() == turning.Name() {
			break
		}
	}

	if turning.Name() == lca.Name() {
		descend, err = e.Nav.Path(turning, e.TgtGenome)
		if err != nil {
			return nil, nil, err
		}
	} else {
		descend = []*genome.Genome{turning}
	}
	return ascend, descend, nil
}

// overlappingTopSegments finds every top segment of g overlapping
// [start, end) (genome-relative) and builds a sub-interval iterator
// clipped to the overlap.
func overlappingTopSegments(g *genome.Genome, start, end int64) []*segment.TopSegmentIterator {
	var out []*segment.TopSegmentIterator
	n := g.NumTopSegments()
	for i := 0; i < n; i++ {
		seg := g.ReadTop(i)
		lo := maxInt64(start, seg.Start)
		hi := minInt64(end, seg.End())
		if lo >= hi {
			continue
		}
		it, err := segment.NewTopSegmentIteratorSub(g, i, uint64(lo-seg.Start), uint64(hi-seg.Start), false)
		if err != nil {
			continue
		}
		out = append(out, it)
	}
	return out
}

// ascendToTurning climbs from a top segment in ascendChain[0] to the
// bottom segment representing the same aligned position in
// ascendChain[len-1], alternating ToParent (cross the tree edge) with
// ToParseUp (cross from bottom back to top within the same genome, to
// continue climbing). If ascendChain has a single element, the starting
// genome already IS the turning node, so the only step needed is
// ToParseDown to obtain a bottom-segment view of the same position.
func ascendToTurning(start *segment.TopSegmentIterator, ascendChain []*genome.Genome) (*segment.BottomSegmentIterator, bool) {
	cur := start
	for i := 0; i < len(ascendChain)-1; i++ {
		bot, err := cur.ToParent()
		if err != nil {
			return nil, false
		}
		if i == len(ascendChain)-2 {
			return bot, true
		}
		top, err := bot.ToParseUp()
		if err != nil {
			return nil, false
		}
		cur = top
	}
	bot, err := cur.ToParseDown()
	if err != nil {
		return nil, false
	}
	return bot, true
}

// descendFromTurning is the mirror of ascendToTurning: it walks down
// from a bottom segment in descendChain[0] to the top segment in
// descendChain[len-1], alternating ToChild with ToParseDown. If
// descendChain has a single element, the turning node already IS the
// target genome, and the bottom-segment view itself is the answer.
func descendFromTurning(start *segment.BottomSegmentIterator, descendChain []*genome.Genome) (posIter, bool) {
	if len(descendChain) == 1 {
		return start, true
	}
	cur := start
	for i := 0; i < len(descendChain)-1; i++ {
		top, err := cur.ToChild(descendChain[i+1].ChildIndex())
		if err != nil {
			return nil, false
		}
		if i == len(descendChain)-2 {
			return top, true
		}
		bot, err := top.ToParseDown()
		if err != nil {
			return nil, false
		}
		cur = bot
	}
	return nil, false
}

// finalPieces expands a landed iterator into one entry per paralogy-ring
// member when traverseDupes is set (duplicated regions in the target
// genome show up as several top segments anchored to the same parent
// bottom segment); otherwise it returns just the landed iterator.
// Bottom-segment landings (the target genome is itself the turning node)
// never carry a paralogy ring — rings exist only on top segments — so
// traverseDupes has no effect there.
func finalPieces(final posIter, traverseDupes bool) ([]posIter, error) {
	top, ok := final.(*segment.TopSegmentIterator)
	if !ok || !traverseDupes {
		return []posIter{final}, nil
	}

	startIndex := top.Index()
	out := []posIter{top}
	idx := startIndex
	for {
		seg := top.Host().ReadTop(idx)
		if seg.NextParalogyIndex == segment.NoIndex || int(seg.NextParalogyIndex) == startIndex {
			break
		}
		idx = int(seg.NextParalogyIndex)
		it, err := segment.NewTopSegmentIteratorSub(top.Host(), idx, 0, segment.ToEnd, top.GetReversed())
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, nil
}

func flipStrand(s byte) byte {
	switch s {
	case '+':
		return '-'
	case '-':
		return '+'
	default:
		return s
	}
}
