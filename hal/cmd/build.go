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
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/iafan/cwalk"
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/shenwei356/bio/seqio/fastx"
	"github.com/shenwei356/util/pathutil"
	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/halgenome/hal/hal/genome"
	"github.com/halgenome/hal/hal/mmapstore"
)

// fastaFilePattern matches the FASTA file extensions build will pick up
// when a genome's "fasta" field names a directory instead of a single
// file, optionally gzip-compressed.
var fastaFilePattern = regexp.MustCompile(`(?i)\.(fa|fasta|fna)(\.gz)?$`)

// treeConfig is the TOML description of the genome tree and its
// per-genome FASTA sources, e.g.:
//
//	[[genome]]
//	name = "human"
//	parent = ""
//	fasta = "human.fa"
//
//	[[genome]]
//	name = "chimp"
//	parent = "human"
//	fasta = "chimp.fa"
//
// No alignment/segment-table population happens here: build only
// registers genomes and their sequence content, producing an
// alignment-free store that a future indexing pass (out of scope here,
// per spec.md §5's Non-goals around alignment computation) would fill
// with top/bottom segment tables.
type treeConfig struct {
	Genome []struct {
		Name   string `toml:"name"`
		Parent string `toml:"parent"`
		Fasta  string `toml:"fasta"`
	} `toml:"genome"`
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "build a HAL store from a genome tree description and FASTA files",
	Long: `build reads a TOML tree description naming each genome, its parent
and its FASTA source, and writes a mmap-backed HAL store containing every
genome's sequence content.`,
	Run: func(cmd *cobra.Command, args []string) {
		threads := getFlagNonNegativeInt(cmd, "threads")
		if threads == 0 {
			threads = 1
		}
		verbose := !getFlagBool(cmd, "quiet")
		treeFile := getFlagPathString(cmd, "tree")
		outFile := getFlagPathString(cmd, "out")
		capacity := getFlagPositiveInt(cmd, "capacity")

		if treeFile == "" {
			checkError(fmt.Errorf("build: --tree is required"))
		}
		if outFile == "" {
			checkError(fmt.Errorf("build: --out is required"))
		}

		checkError(runBuild(treeFile, outFile, uint64(capacity), threads, verbose))
	},
}

func init() {
	buildCmd.Flags().StringP("tree", "t", "", "TOML genome tree description")
	buildCmd.Flags().StringP("out", "o", "", "output HAL store path")
	buildCmd.Flags().Int("capacity", 1<<34, "bytes to reserve in the output store (34 bits ~ 16GB)")
	RootCmd.AddCommand(buildCmd)
}

func runBuild(treeFile, outFile string, capacity uint64, threads int, verbose bool) error {
	raw, err := os.ReadFile(treeFile)
	if err != nil {
		return fmt.Errorf("build: reading tree description: %w", err)
	}
	var cfg treeConfig
	if err := toml.Unmarshal(raw, &cfg); err != nil {
		return fmt.Errorf("build: parsing tree description: %w", err)
	}
	if len(cfg.Genome) == 0 {
		return fmt.Errorf("build: tree description names no genomes")
	}

	store, err := mmapstore.Open(outFile, mmapstore.Write, capacity, false)
	if err != nil {
		return fmt.Errorf("build: creating store: %w", err)
	}
	defer store.Close()

	tree := genome.NewTree(store)

	var pbs *mpb.Progress
	var bar *mpb.Bar
	if verbose {
		pbs = mpb.New(mpb.WithWidth(40), mpb.WithOutput(os.Stderr))
		bar = pbs.AddBar(int64(len(cfg.Genome)),
			mpb.PrependDecorators(
				decor.Name("genomes: ", decor.WC{W: len("genomes: "), C: decor.DindentRight}),
				decor.Name("", decor.WCSyncSpaceR),
				decor.CountersNoUnit("%d / %d", decor.WCSyncWidth),
			),
			mpb.AppendDecorators(
				decor.Name("ETA: ", decor.WC{W: len("ETA: ")}),
				decor.EwmaETA(decor.ET_STYLE_GO, 10),
				decor.OnComplete(decor.Name(""), ". done"),
			),
		)
	}

	for _, gc := range cfg.Genome {
		start := time.Now()

		g, err := tree.AddGenome(gc.Name, gc.Parent)
		if err != nil {
			return err
		}
		if gc.Fasta != "" {
			if err := loadFastaSource(g, gc.Fasta, threads); err != nil {
				return fmt.Errorf("build: loading %q: %w", gc.Fasta, err)
			}
		}

		if bar != nil {
			bar.EwmaIncrBy(1, time.Since(start))
		}
	}

	if pbs != nil {
		pbs.Wait()
	}

	// Reserve empty top/bottom segment tables for every genome so the
	// tree directory has well-defined offsets to save. Populating them
	// with a real alignment is a separate, out-of-scope step (spec.md's
	// Non-goals exclude alignment computation itself); a genome with no
	// segments simply has nothing upstream or downstream of it to
	// project across.
	for _, g := range tree.All() {
		if err := g.AllocateSegmentTables(0, 0); err != nil {
			return err
		}
	}

	if err := genome.Save(tree); err != nil {
		return fmt.Errorf("build: saving tree directory: %w", err)
	}

	log.Infof("built HAL store %s with %d genomes", outFile, len(cfg.Genome))
	return nil
}

// loadFastaSource loads a genome's sequence content from either a
// single FASTA file or every matching FASTA file in a directory,
// registered in sorted, deterministic order.
func loadFastaSource(g *genome.Genome, path string, threads int) error {
	isDir, err := pathutil.DirExists(path)
	if err != nil {
		return errors.Wrap(err, path)
	}
	if !isDir {
		return loadFasta(g, path)
	}

	files, err := filesInDir(path, fastaFilePattern, threads)
	if err != nil {
		return errors.Wrap(err, path)
	}
	sort.Strings(files)
	for _, f := range files {
		if err := loadFasta(g, f); err != nil {
			return err
		}
	}
	return nil
}

// filesInDir lists every file under path matching pattern, walking
// concurrently across threads workers. Grounded on
// lexicmap/cmd/util.go's getFileListFromDir, which fans a
// cwalk.WalkWithSymlinks callback out over a worker pool and collects
// matches on a channel.
func filesInDir(path string, pattern *regexp.Regexp, threads int) ([]string, error) {
	files := make([]string, 0, 256)
	ch := make(chan string, threads)
	done := make(chan struct{})
	go func() {
		for f := range ch {
			files = append(files, f)
		}
		close(done)
	}()

	cwalk.NumWorkers = threads
	err := cwalk.WalkWithSymlinks(path, func(relPath string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && pattern.MatchString(info.Name()) {
			ch <- filepath.Join(path, relPath)
		}
		return nil
	})
	close(ch)
	<-done
	if err != nil {
		return nil, err
	}
	return files, nil
}

// loadFasta reads every record from file and registers it as a named,
// 2-bit-packed sequence on g. Grounded on the fastx.NewReader/Read/EOF
// loop used throughout lexicmap/cmd/gen-masks.go to stream FASTA
// records without holding the whole file in memory twice.
func loadFasta(g *genome.Genome, file string) error {
	reader, err := fastx.NewReader(nil, file, "")
	if err != nil {
		return err
	}
	defer reader.Close()

	for {
		record, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return err
		}

		name := strings.Fields(string(record.Name))[0]
		bases := make([]byte, len(record.Seq.Seq))
		copy(bases, record.Seq.Seq)

		if _, err := g.AddSequence(name, bases); err != nil {
			return err
		}
	}
	return nil
}
