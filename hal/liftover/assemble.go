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

import "sort"

// assignBlocksToIntervals merges a sequence of mapped blocks (sorted by
// SrcStart) into output records: consecutive compatible blocks become
// sub-blocks of the same record, and a break in compatibility — or a
// detected duplicate in structured mode — starts a new record. Grounded
// on Liftover::assignBlocksToIntervals in halLiftover.cpp.
func assignBlocksToIntervals(mappedBlocks []BedLine, recordStrand byte, outPSL bool) []BedLine {
	sort.SliceStable(mappedBlocks, func(i, j int) bool {
		return mappedBlocks[i].SrcStart < mappedBlocks[j].SrcStart
	})

	var out []BedLine
	prevSrcBlockEnd := int64(-1)

	for idx := range mappedBlocks {
		blockIt := mappedBlocks[idx]
		srcBlockEnd := blockIt.SrcStart + (blockIt.End - blockIt.Start)

		var nextSrcStart int64 = -1
		if idx+1 < len(mappedBlocks) {
			nextSrcStart = mappedBlocks[idx+1].SrcStart
		}
		dupe := blockIt.SrcStart < prevSrcBlockEnd || (nextSrcStart >= 0 && nextSrcStart < srcBlockEnd)

		newRecord := len(out) == 0 || (outPSL && dupe)
		if !newRecord {
			newRecord = !compatible(&out[len(out)-1], &blockIt, recordStrand)
		}
		if newRecord {
			out = append(out, blockIt.clone())
		}
		prevSrcBlockEnd = srcBlockEnd

		tgt := &out[len(out)-1]
		tgt.Start = minInt64(tgt.Start, blockIt.Start)
		tgt.End = maxInt64(tgt.End, blockIt.End)
		tgt.Blocks = append(tgt.Blocks, BedBlock{Start: blockIt.Start, Length: blockIt.End - blockIt.Start})

		if outPSL && tgt.PSL != nil {
			tgt.PSL.QBlockStarts = append(tgt.PSL.QBlockStarts, blockIt.SrcStart)
			if blockIt.PSL != nil {
				tgt.PSL.Matches += blockIt.PSL.Matches
				tgt.PSL.MisMatches += blockIt.PSL.MisMatches
				tgt.PSL.RepMatches += blockIt.PSL.RepMatches
				tgt.PSL.NCount += blockIt.PSL.NCount
			}
		}
	}

	for i := range out {
		base := out[i].Start
		for j := range out[i].Blocks {
			out[i].Blocks[j].Start -= base
		}
	}

	flipBlocks(out, outPSL)
	if outPSL {
		computePSLInserts(out)
	}
	return out
}

// compatible decides whether newBlock can extend the in-progress output
// record tgtBed as another sub-block, rather than starting a fresh
// record: same chromosome, same strand, a distinct source anchor, and a
// non-negative gap on the target side to the previous block (oriented
// according to whether the record strand matches the output strand).
// Grounded on Liftover::compatible in halLiftover.cpp.
func compatible(tgtBed, newBlock *BedLine, recordStrand byte) bool {
	if tgtBed.Strand != newBlock.Strand {
		return false
	}
	if tgtBed.SrcStart == newBlock.SrcStart {
		return false
	}
	if tgtBed.Chrom != newBlock.Chrom {
		return false
	}

	last := tgtBed.Blocks[len(tgtBed.Blocks)-1]
	var delta int64
	if tgtBed.Strand != recordStrand {
		delta = last.Start - newBlock.End
	} else {
		delta = newBlock.Start - (last.Start + last.Length)
	}
	return delta >= 0
}

// flipBlocks reorders each record's block list (and, in structured mode,
// the index-parallel query block-start list) so that block order matches
// the output convention: ascending target coordinates in BED mode,
// whatever the record's strand; for structured (PSL) mode the
// orientation instead follows whether the gap between the first two
// blocks already runs the expected direction for that strand, since PSL
// block order encodes both strands' traversal direction at once.
// Grounded on Liftover::flipBlocks in halLiftover.cpp.
func flipBlocks(records []BedLine, outPSL bool) {
	for i := range records {
		r := &records[i]
		if len(r.Blocks) < 2 {
			continue
		}
		delta := r.Blocks[1].Start - (r.Blocks[0].Start + r.Blocks[0].Length)

		var mustFlip bool
		if !outPSL {
			mustFlip = delta < 0
		} else {
			mustFlip = (r.Strand == '-' && delta >= 0) || (r.Strand != '-' && delta < 0)
		}
		if !mustFlip {
			continue
		}

		for a, b := 0, len(r.Blocks)-1; a < b; a, b = a+1, b-1 {
			r.Blocks[a], r.Blocks[b] = r.Blocks[b], r.Blocks[a]
		}
		if outPSL && r.PSL != nil {
			qs := r.PSL.QBlockStarts
			for a, b := 0, len(qs)-1; a < b; a, b = a+1, b-1 {
				qs[a], qs[b] = qs[b], qs[a]
			}
		}
	}
}

// computePSLInserts fills in the structured-output insert-gap counters
// (tNumInsert/tBaseInsert on the target side, qNumInsert/qBaseInsert on
// the query/source side) for each assembled record's adjacent block
// pairs. The target-side gap direction follows the record's own strand;
// the query-side gap direction follows the query strand recorded in
// PSLInfo.QStrand — the two can differ, so each is resolved
// independently rather than by a single shared index swap. This branches
// explicitly on strand and index rather than reusing one swapped index
// pair for both sides, which is easier to follow than a single shared
// swap trick would be. Grounded on Liftover::computePSLInserts in
// halLiftover.cpp.
func computePSLInserts(records []BedLine) {
	for i := range records {
		r := &records[i]
		if r.PSL == nil {
			continue
		}
		p := r.PSL
		p.QNumInsert, p.QBaseInsert = 0, 0
		p.TNumInsert, p.TBaseInsert = 0, 0

		for j := 1; j < len(r.Blocks); j++ {
			ta, tb := j-1, j
			if r.Strand == '-' {
				ta, tb = j, j-1
			}
			if gap := r.Blocks[tb].Start - (r.Blocks[ta].Start + r.Blocks[ta].Length); gap > 0 {
				p.TNumInsert++
				p.TBaseInsert += gap
			}

			qa, qb := j-1, j
			if p.QStrand == '-' {
				qa, qb = j, j-1
			}
			if qb >= len(p.QBlockStarts) || qa >= len(p.QBlockStarts) {
				continue
			}
			qgap := p.QBlockStarts[qb] - (p.QBlockStarts[qa] + r.Blocks[qa].Length)
			if qgap > 0 {
				p.QNumInsert++
				p.QBaseInsert += qgap
			}
		}
	}
}

// cleanResults applies the bed-type-dependent finishing touches: for
// bedType > 6 it resets thickStart/thickEnd to the record's own span
// (when the input record carried thick-region fields at all); for
// bedType > 9 it drops any assembled record left with no blocks, and in
// structured mode recomputes srcStart and the query end from the
// assigned blocks. Grounded on Liftover::cleanResults in halLiftover.cpp.
func cleanResults(records []BedLine, bedType int, inputHasThick bool, outPSL bool) []BedLine {
	if bedType <= 6 {
		return records
	}

	out := records[:0]
	for _, r := range records {
		if inputHasThick {
			r.ThickStart = r.Start
			r.ThickEnd = r.End
		}
		if bedType > 9 {
			if len(r.Blocks) == 0 {
				continue
			}
			if outPSL && r.PSL != nil {
				srcStart := r.PSL.QBlockStarts[0]
				qEnd := int64(0)
				for j, qs := range r.PSL.QBlockStarts {
					if qs < srcStart {
						srcStart = qs
					}
					if e := qs + r.Blocks[j].Length; e > qEnd {
						qEnd = e
					}
				}
				r.SrcStart = srcStart
				r.PSL.QStart = srcStart
				r.PSL.QEnd = qEnd
			}
		}
		out = append(out, r)
	}
	return out
}
