package liftover

import (
	"path/filepath"
	"testing"

	"github.com/halgenome/hal/hal/genome"
	"github.com/halgenome/hal/hal/mmapstore"
	"github.com/halgenome/hal/hal/navigator"
)

func buildOneGenome(t *testing.T) (*genome.Tree, *genome.Genome) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "g.hal")
	store, err := mmapstore.Open(path, mmapstore.Write, 1<<20, false)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	tr := genome.NewTree(store)
	g, err := tr.AddGenome("root", "")
	if err != nil {
		t.Fatalf("add genome: %v", err)
	}
	if _, err := g.AddSequence("chr1", []byte("ACGTACGTACGTACGTACGT")); err != nil {
		t.Fatalf("add sequence: %v", err)
	}
	if err := g.AllocateSegmentTables(0, 0); err != nil {
		t.Fatalf("allocate tables: %v", err)
	}
	return tr, g
}

// Scenario: source and target are the same genome — the lift is a plain
// identity projection with no tree walk involved.
func TestConvertIdentitySameGenome(t *testing.T) {
	tr, g := buildOneGenome(t)
	nav := navigator.New(tr)

	eng := &Engine{Nav: nav, SrcGenome: g, TgtGenome: g, BedType: 3}
	out, err := eng.Convert([]BedLine{{Chrom: "chr1", Start: 4, End: 12, Strand: '+', BedType: 3}})
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 output record, got %d: %+v", len(out), out)
	}
	if out[0].Chrom != "chr1" || out[0].Start != 4 || out[0].End != 12 {
		t.Fatalf("unexpected identity projection: %+v", out[0])
	}
}

// Scenario: the requested chromosome does not exist in the source
// genome — the record is skipped, not fatal, and warned about once.
func TestConvertMissingChromosomeIsSoftFailure(t *testing.T) {
	tr, g := buildOneGenome(t)
	nav := navigator.New(tr)

	var warnings []string
	eng := &Engine{
		Nav: nav, SrcGenome: g, TgtGenome: g, BedType: 3,
		Warnf: func(format string, args ...interface{}) { warnings = append(warnings, format) },
	}
	out, err := eng.Convert([]BedLine{
		{Chrom: "chrMissing", Start: 0, End: 5, BedType: 3},
		{Chrom: "chrMissing", Start: 5, End: 10, BedType: 3},
	})
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected no output records, got %d", len(out))
	}
	if len(warnings) != 1 {
		t.Fatalf("expected exactly one de-duplicated warning, got %d: %v", len(warnings), warnings)
	}
}

// Scenario: a record whose end runs past its sequence's length is a
// soft failure too.
func TestConvertOutOfRangeRecordSkipped(t *testing.T) {
	tr, g := buildOneGenome(t)
	nav := navigator.New(tr)

	eng := &Engine{Nav: nav, SrcGenome: g, TgtGenome: g, BedType: 3}
	out, err := eng.Convert([]BedLine{{Chrom: "chr1", Start: 0, End: 1000, BedType: 3}})
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected out-of-range record to be skipped, got %+v", out)
	}
}

func bl(srcStart, start, end int64, strand byte, chrom string) BedLine {
	return BedLine{Chrom: chrom, Start: start, End: end, Strand: strand, SrcStart: srcStart}
}

// Two adjacent, same-strand, same-chromosome pieces with a consistent
// forward gap should merge into one assembled record with two blocks.
func TestAssignBlocksToIntervalsMergesCompatibleBlocks(t *testing.T) {
	blocks := []BedLine{
		bl(0, 100, 110, '+', "chrT"),
		bl(10, 120, 130, '+', "chrT"),
	}
	out := assignBlocksToIntervals(blocks, '+', false)
	if len(out) != 1 {
		t.Fatalf("expected 1 merged record, got %d: %+v", len(out), out)
	}
	if len(out[0].Blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d: %+v", len(out[0].Blocks), out[0].Blocks)
	}
	if out[0].Start != 100 || out[0].End != 130 {
		t.Fatalf("unexpected record span: %+v", out[0])
	}
}

// A duplicated source region (two pieces whose source ranges overlap)
// must not be silently merged in structured mode: it yields two separate
// output records.
func TestAssignBlocksToIntervalsSplitsOnDuplicate(t *testing.T) {
	blocks := []BedLine{
		{Chrom: "chrT", Start: 100, End: 150, Strand: '+', SrcStart: 0, PSL: &PSLInfo{Matches: 50}},
		{Chrom: "chrT", Start: 200, End: 250, Strand: '+', SrcStart: 40, PSL: &PSLInfo{Matches: 50}},
	}
	out := assignBlocksToIntervals(blocks, '+', true)
	if len(out) != 2 {
		t.Fatalf("expected duplicate overlap to force 2 records, got %d: %+v", len(out), out)
	}
}

// compatible must reject a different chromosome, a strand mismatch, and
// a backward (negative) gap, while accepting a forward gap on the same
// strand and chromosome.
func TestCompatible(t *testing.T) {
	base := BedLine{Chrom: "chrT", Strand: '+', SrcStart: 0, Blocks: []BedBlock{{Start: 100, Length: 10}}}

	if compatible(&base, &BedLine{Chrom: "chrT", Strand: '-', SrcStart: 5, Start: 120, End: 130}, '+') {
		t.Fatalf("strand mismatch should not be compatible")
	}
	if compatible(&base, &BedLine{Chrom: "chrU", Strand: '+', SrcStart: 5, Start: 120, End: 130}, '+') {
		t.Fatalf("chromosome mismatch should not be compatible")
	}
	if compatible(&base, &BedLine{Chrom: "chrT", Strand: '+', SrcStart: 5, Start: 90, End: 95}, '+') {
		t.Fatalf("backward gap should not be compatible")
	}
	if !compatible(&base, &BedLine{Chrom: "chrT", Strand: '+', SrcStart: 5, Start: 120, End: 130}, '+') {
		t.Fatalf("forward gap on same strand/chrom should be compatible")
	}
}

// In BED (unstructured) mode, flipBlocks normalizes block order to
// ascending target coordinates regardless of record strand.
func TestFlipBlocksNormalizesToAscending(t *testing.T) {
	records := []BedLine{
		{
			Strand: '-',
			Blocks: []BedBlock{{Start: 20, Length: 10}, {Start: 0, Length: 10}},
		},
	}
	flipBlocks(records, false)
	if records[0].Blocks[0].Start != 0 || records[0].Blocks[1].Start != 20 {
		t.Fatalf("expected blocks reordered ascending, got %+v", records[0].Blocks)
	}
}

// computePSLInserts must count a single internal gap as one insert on
// each side when present.
func TestComputePSLInserts(t *testing.T) {
	records := []BedLine{
		{
			Strand: '+',
			Blocks: []BedBlock{{Start: 0, Length: 10}, {Start: 15, Length: 10}},
			PSL: &PSLInfo{
				QStrand:      '+',
				QBlockStarts: []int64{0, 20},
			},
		},
	}
	computePSLInserts(records)
	p := records[0].PSL
	if p.TNumInsert != 1 || p.TBaseInsert != 5 {
		t.Fatalf("unexpected target insert: %+v", p)
	}
	if p.QNumInsert != 1 || p.QBaseInsert != 10 {
		t.Fatalf("unexpected query insert: %+v", p)
	}
}

// cleanResults must drop an assembled record left with no blocks once
// bedType exceeds 9.
func TestCleanResultsDropsEmptyBlockedRecord(t *testing.T) {
	records := []BedLine{
		{Chrom: "chrT", Start: 0, End: 10, Blocks: nil},
		{Chrom: "chrT", Start: 20, End: 30, Blocks: []BedBlock{{Start: 0, Length: 10}}},
	}
	out := cleanResults(records, 12, false, false)
	if len(out) != 1 {
		t.Fatalf("expected 1 surviving record, got %d: %+v", len(out), out)
	}
	if out[0].Start != 20 {
		t.Fatalf("wrong record survived: %+v", out[0])
	}
}
