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

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/halgenome/hal/hal/bedio"
	"github.com/halgenome/hal/hal/genome"
	"github.com/halgenome/hal/hal/liftover"
	"github.com/halgenome/hal/hal/mmapstore"
	"github.com/halgenome/hal/hal/navigator"
)

var liftoverCmd = &cobra.Command{
	Use:   "liftover",
	Short: "project BED/PSL interval records from one genome to another through a HAL store",
	Long: `liftover reads interval records against a source genome and projects
each one through the alignment tree to a target genome, writing the
projected intervals in BED or structured (PSL-style) form.`,
	Run: func(cmd *cobra.Command, args []string) {
		halFile := getFlagPathString(cmd, "hal")
		srcName := getFlagString(cmd, "src-genome")
		tgtName := getFlagString(cmd, "tgt-genome")
		inFile := getFlagPathString(cmd, "in")
		outFile := getFlagPathString(cmd, "out")
		bedType := getFlagPositiveInt(cmd, "bed-type")
		outPSL := getFlagBool(cmd, "psl")
		outPSLWithName := getFlagBool(cmd, "psl-with-name")
		traverseDupes := getFlagBool(cmd, "traverse-dupes")
		coalescenceLimit := getFlagString(cmd, "coalescence-limit")
		compressionLevel := getFlagInt(cmd, "compression-level")

		if halFile == "" || srcName == "" || tgtName == "" {
			checkError(fmt.Errorf("liftover: --hal, --src-genome and --tgt-genome are all required"))
		}

		checkError(runLiftover(liftoverArgs{
			halFile:          halFile,
			srcName:          srcName,
			tgtName:          tgtName,
			inFile:           inFile,
			outFile:          outFile,
			bedType:          bedType,
			outPSL:           outPSL,
			outPSLWithName:   outPSLWithName,
			traverseDupes:    traverseDupes,
			coalescenceLimit: coalescenceLimit,
			compressionLevel: compressionLevel,
		}))
	},
}

func init() {
	liftoverCmd.Flags().String("hal", "", "input HAL store")
	liftoverCmd.Flags().String("src-genome", "", "source genome name")
	liftoverCmd.Flags().String("tgt-genome", "", "target genome name")
	liftoverCmd.Flags().String("in", "-", "input BED file (- for stdin)")
	liftoverCmd.Flags().String("out", "-", "output file (- for stdout)")
	liftoverCmd.Flags().Int("bed-type", 3, "input BED type, one of 3,4,5,6,8,9,10,12")
	liftoverCmd.Flags().Bool("psl", false, "write structured (PSL-style) output instead of BED")
	liftoverCmd.Flags().Bool("psl-with-name", false, "like --psl, also carrying the record name into qName")
	liftoverCmd.Flags().Bool("traverse-dupes", false, "enumerate every paralogy-ring member of a landed segment")
	liftoverCmd.Flags().String("coalescence-limit", "", "genome name capping how far up the tree a projection may climb")
	liftoverCmd.Flags().Int("compression-level", -1, "gzip compression level for a .gz --out path")
	RootCmd.AddCommand(liftoverCmd)
}

type liftoverArgs struct {
	halFile, srcName, tgtName, inFile, outFile string
	bedType                                    int
	outPSL, outPSLWithName, traverseDupes      bool
	coalescenceLimit                           string
	compressionLevel                           int
}

func runLiftover(a liftoverArgs) error {
	store, err := mmapstore.Open(a.halFile, mmapstore.ReadOnly, 0, false)
	if err != nil {
		return fmt.Errorf("liftover: opening %s: %w", a.halFile, err)
	}
	defer store.Close()

	tree, err := genome.Load(store)
	if err != nil {
		return fmt.Errorf("liftover: loading genome tree: %w", err)
	}
	nav := navigator.New(tree)

	srcGenome, err := nav.GetGenome(a.srcName)
	if err != nil {
		return err
	}
	tgtGenome, err := nav.GetGenome(a.tgtName)
	if err != nil {
		return err
	}

	var limit *genome.Genome
	if a.coalescenceLimit != "" {
		limit, err = nav.GetGenome(a.coalescenceLimit)
		if err != nil {
			return err
		}
	}

	in, err := bedio.OpenInput(a.inFile)
	if err != nil {
		return fmt.Errorf("liftover: opening %s: %w", a.inFile, err)
	}
	defer in.Close()

	lines, err := bedio.ReadBedLines(in, a.bedType)
	if err != nil {
		return err
	}

	engine := &liftover.Engine{
		Nav:              nav,
		SrcGenome:        srcGenome,
		TgtGenome:        tgtGenome,
		BedType:          a.bedType,
		TraverseDupes:    a.traverseDupes,
		OutPSL:           a.outPSL,
		OutPSLWithName:   a.outPSLWithName,
		CoalescenceLimit: limit,
		Warnf:            log.Warningf,
	}

	out, err := engine.Convert(lines)
	if err != nil {
		return err
	}

	w, closeFn, err := bedio.OpenOutput(a.outFile, a.compressionLevel)
	if err != nil {
		return fmt.Errorf("liftover: opening %s: %w", a.outFile, err)
	}
	defer closeFn()

	if a.outPSL || a.outPSLWithName {
		return bedio.WriteStructuredLines(w, out, a.outPSLWithName)
	}
	return bedio.WriteBedLines(w, out)
}
