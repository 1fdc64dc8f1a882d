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

package genome

import (
	"cmp"
	"fmt"

	"github.com/rdleal/intervalst/interval"

	"github.com/halgenome/hal/hal/mmapstore"
	"github.com/halgenome/hal/hal/segment"
	"github.com/halgenome/hal/hal/util"
)

// Save serializes tree's topology (genome names, parent/child edges,
// sequence tables, segment table offsets) as a single directory blob and
// registers it as store's root object. Must be called once, after every
// genome's sequences and segment tables have been written, mirroring how
// a on-disk index is finalized only once its content is complete.
//
// The directory is a recursive pre-order dump, varint-packed the way
// lexicmap/tree's own Write does for its k-mer/value pairs: no separate
// parent-pointer table is needed, since a genome's children are nested
// directly inside its own record.
func Save(tree *Tree) error {
	if tree.root == nil {
		return fmt.Errorf("genome: cannot save a tree with no root")
	}
	buf := appendGenome(nil, tree.root)

	off, err := tree.store.Alloc(uint64(8+len(buf)), true)
	if err != nil {
		return fmt.Errorf("genome: allocating tree directory: %w", err)
	}
	region := tree.store.ToPtr(off, uint64(8+len(buf)))
	ne.PutUint64(region[:8], uint64(len(buf)))
	copy(region[8:], buf)
	return nil
}

func appendGenome(buf []byte, g *Genome) []byte {
	buf = appendString(buf, g.name)
	buf = util.PutUvarint(buf, g.topOffset)
	buf = util.PutUvarint(buf, uint64(g.topCount))
	buf = util.PutUvarint(buf, g.bottomOffset)
	buf = util.PutUvarint(buf, uint64(g.bottomCount))

	buf = util.PutUvarint(buf, uint64(len(g.sequences)))
	for _, seq := range g.sequences {
		buf = appendString(buf, seq.name)
		buf = util.PutUvarint(buf, uint64(seq.genomeStart))
		buf = util.PutUvarint(buf, uint64(seq.length))
		buf = util.PutUvarint(buf, seq.basesOffset)
	}

	buf = util.PutUvarint(buf, uint64(len(g.children)))
	for _, c := range g.children {
		buf = appendGenome(buf, c)
	}
	return buf
}

func appendString(buf []byte, s string) []byte {
	buf = util.PutUvarint(buf, uint64(len(s)))
	return append(buf, s...)
}

// Load reconstructs the Tree a prior Save wrote into store.
func Load(store *mmapstore.Store) (*Tree, error) {
	if !store.HasRoot() {
		return nil, fmt.Errorf("genome: store has no registered genome tree")
	}
	off := store.RootOffset()
	lenBuf := store.ToPtr(off, 8)
	n := ne.Uint64(lenBuf)
	buf := store.ToPtr(off+8, n)

	t := &Tree{store: store, byName: make(map[string]*Genome)}
	root, _, err := parseGenome(buf, store, nil, segment.NoIndex, t)
	if err != nil {
		return nil, err
	}
	t.root = root
	return t, nil
}

func parseGenome(buf []byte, store *mmapstore.Store, parent *Genome, childIdx int, t *Tree) (*Genome, []byte, error) {
	name, buf, err := parseString(buf)
	if err != nil {
		return nil, nil, err
	}

	g := &Genome{
		store:     store,
		name:      name,
		parent:    parent,
		childIdx:  childIdx,
		seqByName: make(map[string]*Sequence),
	}

	var v uint64
	v, buf, err = parseUvarint(buf)
	if err != nil {
		return nil, nil, err
	}
	g.topOffset = v
	v, buf, err = parseUvarint(buf)
	if err != nil {
		return nil, nil, err
	}
	g.topCount = int(v)
	v, buf, err = parseUvarint(buf)
	if err != nil {
		return nil, nil, err
	}
	g.bottomOffset = v
	v, buf, err = parseUvarint(buf)
	if err != nil {
		return nil, nil, err
	}
	g.bottomCount = int(v)

	v, buf, err = parseUvarint(buf)
	if err != nil {
		return nil, nil, err
	}
	numSeqs := int(v)
	for i := 0; i < numSeqs; i++ {
		var seqName string
		seqName, buf, err = parseString(buf)
		if err != nil {
			return nil, nil, err
		}
		var genomeStart, length, basesOffset uint64
		genomeStart, buf, err = parseUvarint(buf)
		if err != nil {
			return nil, nil, err
		}
		length, buf, err = parseUvarint(buf)
		if err != nil {
			return nil, nil, err
		}
		basesOffset, buf, err = parseUvarint(buf)
		if err != nil {
			return nil, nil, err
		}

		seq := &Sequence{
			genome:      g,
			name:        seqName,
			genomeStart: int64(genomeStart),
			length:      int64(length),
			basesOffset: basesOffset,
		}
		g.sequences = append(g.sequences, seq)
		g.seqByName[seqName] = seq
		if g.seqIndex == nil {
			g.seqIndex = interval.NewSearchTree[*Sequence, int64](cmp.Compare[int64])
		}
		g.seqIndex.Insert(seq.genomeStart, seq.genomeStart+seq.length, seq)
	}

	v, buf, err = parseUvarint(buf)
	if err != nil {
		return nil, nil, err
	}
	numChildren := int(v)
	g.children = make([]*Genome, 0, numChildren)
	for i := 0; i < numChildren; i++ {
		var child *Genome
		child, buf, err = parseGenome(buf, store, g, i, t)
		if err != nil {
			return nil, nil, err
		}
		g.children = append(g.children, child)
	}

	t.byName[name] = g
	return g, buf, nil
}

func parseUvarint(buf []byte) (uint64, []byte, error) {
	v, n := util.Uvarint(buf)
	if n <= 0 {
		return 0, nil, fmt.Errorf("genome: truncated tree directory")
	}
	return v, buf[n:], nil
}

func parseString(buf []byte) (string, []byte, error) {
	n, buf, err := parseUvarint(buf)
	if err != nil {
		return "", nil, err
	}
	if uint64(len(buf)) < n {
		return "", nil, fmt.Errorf("genome: truncated tree directory")
	}
	return string(buf[:n]), buf[n:], nil
}
