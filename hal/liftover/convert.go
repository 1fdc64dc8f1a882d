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
	"fmt"
	"sort"

	"github.com/halgenome/hal/hal/genome"
	"github.com/halgenome/hal/hal/navigator"
)

// Engine holds everything one Convert run needs: the genome pair to
// project between, and the output-shaping options that the original CLI
// exposed as flags.
type Engine struct {
	Nav       *navigator.Navigator
	SrcGenome *genome.Genome
	TgtGenome *genome.Genome

	// BedType selects the wire format ∈ {3..12}; values above 9 carry a
	// gapped-block structure.
	BedType int
	// TraverseDupes enumerates every paralogy-ring member of a landed
	// target segment instead of only the primary homolog.
	TraverseDupes bool
	// OutPSL requests structured (PSL-style) output instead of BED.
	OutPSL bool
	// OutPSLWithName additionally carries the input record's name into
	// the PSL query-name field.
	OutPSLWithName bool
	// CoalescenceLimit caps how far up the tree a lift-over is allowed
	// to climb; nil means climb to the lowest common ancestor.
	CoalescenceLimit *genome.Genome

	// Warnf receives soft-failure diagnostics (missing chromosome,
	// out-of-range record); nil discards them. The engine itself never
	// depends on a logging framework — hal/cmd wires this to its own
	// logger.
	Warnf func(format string, args ...interface{})

	missedChroms map[string]struct{}
}

func (e *Engine) warn(format string, args ...interface{}) {
	if e.Warnf != nil {
		e.Warnf(format, args...)
	}
}

// Convert lifts every record in lines from e.SrcGenome to e.TgtGenome,
// returning the assembled, sorted output records. A record whose
// chromosome is missing from the source genome, or whose end runs past
// the sequence's length, is a soft failure: it is skipped, never
// aborting the run. A missing chromosome is warned about once per
// distinct name; an out-of-range record is warned about every time. A
// navigator/tree-topology failure (the two genomes share no common
// ancestor) is fatal and aborts the conversion.
//
// Grounded on Liftover::visitLine's per-record pipeline in
// halLiftover.cpp: promote to blocked form if needed, resolve the source
// sequence, range-check, lift (whole-interval or per-block), assemble,
// clean, then hand off for output.
func (e *Engine) Convert(lines []BedLine) ([]BedLine, error) {
	if e.missedChroms == nil {
		e.missedChroms = make(map[string]struct{})
	}

	var out []BedLine
	for i := range lines {
		pieces, err := e.convertLine(lines[i])
		if err != nil {
			return nil, err
		}
		out = append(out, pieces...)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Chrom != out[j].Chrom {
			return out[i].Chrom < out[j].Chrom
		}
		if out[i].Start != out[j].Start {
			return out[i].Start < out[j].Start
		}
		return out[i].End < out[j].End
	})
	return out, nil
}

func (e *Engine) convertLine(line BedLine) ([]BedLine, error) {
	structured := e.OutPSL || e.OutPSLWithName
	inputHasThick := line.ThickStart != 0 || line.ThickEnd != 0
	if structured && line.BedType < 12 {
		line.ExpandToBed12()
	}

	srcSeq, err := e.SrcGenome.GetSequence(line.Chrom)
	if err != nil {
		if _, seen := e.missedChroms[line.Chrom]; !seen {
			e.missedChroms[line.Chrom] = struct{}{}
			e.warn("liftover: chromosome %q not found in source genome %q, skipping", line.Chrom, e.SrcGenome.Name())
		}
		return nil, nil
	}
	if line.End > srcSeq.Length() {
		e.warn("liftover: record %q end %d exceeds sequence %q length %d, skipping", line.Name, line.End, line.Chrom, srcSeq.Length())
		return nil, nil
	}
	if line.BedType >= 10 && len(line.Blocks) == 0 {
		e.warn("liftover: record %q has 0 blocks, skipping", line.Name)
		return nil, nil
	}

	var mapped []mappedPiece
	if line.BedType <= 9 {
		mapped, err = e.liftInterval(e.SrcGenome, srcSeq.GenomeStart()+line.Start, srcSeq.GenomeStart()+line.End, orStrand(line.Strand))
	} else {
		mapped, err = e.liftBlockIntervals(srcSeq, &line)
	}
	if err != nil {
		return nil, fmt.Errorf("liftover: projecting record %q: %w", line.Name, err)
	}
	if len(mapped) == 0 {
		return nil, nil
	}

	mappedBlocks := make([]BedLine, 0, len(mapped))
	for _, p := range mapped {
		seq, err := p.genome.SequenceAt(p.start)
		if err != nil {
			continue
		}
		strand := orStrand(line.Strand)
		if p.reversed {
			strand = flipStrand(strand)
		}
		bl := BedLine{
			Chrom:    seq.Name(),
			Start:    p.start - seq.GenomeStart(),
			End:      p.end - seq.GenomeStart(),
			Name:     line.Name,
			Score:    line.Score,
			Strand:   strand,
			BedType:  line.BedType,
			SrcStart: p.srcStart - srcSeq.GenomeStart(),
		}
		if structured {
			bl.PSL = &PSLInfo{
				Matches: p.end - p.start,
				QStrand: orStrand(line.Strand),
				QName:   chooseQName(e.OutPSLWithName, line.Name, line.Chrom),
				QSize:   srcSeq.Length(),
				TSize:   seq.Length(),
			}
		}
		mappedBlocks = append(mappedBlocks, bl)
	}
	if len(mappedBlocks) == 0 {
		return nil, nil
	}

	assembled := assignBlocksToIntervals(mappedBlocks, orStrand(line.Strand), structured)
	assembled = cleanResults(assembled, line.BedType, inputHasThick, structured)
	return assembled, nil
}

// liftBlockIntervals lifts a record's gapped blocks independently
// (rather than its whole span at once, which would bridge internal
// gaps the alignment may not actually cover) and concatenates the
// per-block projected pieces for assembly.
func (e *Engine) liftBlockIntervals(srcSeq *genome.Sequence, line *BedLine) ([]mappedPiece, error) {
	var all []mappedPiece
	for _, blk := range line.Blocks {
		bs := srcSeq.GenomeStart() + line.Start + blk.Start
		be := bs + blk.Length
		pieces, err := e.liftInterval(e.SrcGenome, bs, be, orStrand(line.Strand))
		if err != nil {
			return nil, err
		}
		all = append(all, pieces...)
	}
	return all, nil
}

func orStrand(s byte) byte {
	if s == 0 {
		return '+'
	}
	return s
}

func chooseQName(withName bool, name, chrom string) string {
	if withName && name != "" {
		return name
	}
	return chrom
}
