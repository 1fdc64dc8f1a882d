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

// Package liftover is the coordinate lift-over engine: it projects
// interval records from a source genome to a target genome through the
// alignment tree, assembling the projected pieces into output records
// with duplicate filtering, strand-aware block ordering and (in
// structured mode) insert-gap accounting.
package liftover

// BedBlock is one gapped-alignment sub-segment of a record. Start is
// absolute during assembly and relativized to the owning record's Start
// once assembly completes.
type BedBlock struct {
	Start  int64
	Length int64
}

// PSLInfo is the structured-alignment counterpart attached to a BedLine
// when the engine runs in structured output mode.
type PSLInfo struct {
	Matches, MisMatches, RepMatches, NCount int64

	QNumInsert, QBaseInsert int64
	TNumInsert, TBaseInsert int64

	QStrand byte // '+' or '-'; 0 if absent
	QName   string
	QSize   int64
	QStart  int64
	QEnd    int64
	TSize   int64

	// QBlockStarts is index-parallel with the owning BedLine's Blocks.
	QBlockStarts []int64
}

// BedLine is both the wire record type (input/output) and the engine's
// internal working record (projected pieces, in-progress assembled
// output lines). BedType selects which fields are meaningful, per
// spec.md's type ∈ {3..12} convention.
type BedLine struct {
	Chrom string
	Start int64
	End   int64

	Name    string
	Score   int64
	Strand  byte // '+' or '-'; 0 if absent
	BedType int

	ThickStart int64
	ThickEnd   int64

	Blocks []BedBlock

	// SrcStart anchors this record/piece to its source-coordinate
	// position: it is the sort and duplicate-detection key throughout
	// assembly, and (pre-projection) simply equals the input record's
	// own Start.
	SrcStart int64

	PSL *PSLInfo
}

// ExpandToBed12 synthesizes a single full-span block covering the whole
// record, for promoting lower bed types to a uniform block-based
// representation ahead of structured output. Grounded on
// BedLine::expandToBed12, called from Liftover::visitLine in
// halLiftover.cpp before handing a record to the block-based path.
func (b *BedLine) ExpandToBed12() {
	if b.BedType >= 12 {
		return
	}
	b.BedType = 12
	b.Blocks = []BedBlock{{Start: 0, Length: b.End - b.Start}}
}

// clone starts a new output record seeded from a projected piece: it
// copies every scalar field but clears the block list and the PSL
// block-start list, which the caller appends to as blocks are assigned.
// Grounded on the BedList::push_back(*blockIt) call in
// Liftover::assignBlocksToIntervals, which the source relies on
// default copy semantics for.
func (b BedLine) clone() BedLine {
	nb := b
	nb.Blocks = nil
	if b.PSL != nil {
		p := *b.PSL
		p.QBlockStarts = nil
		nb.PSL = &p
	}
	return nb
}

func minInt64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
