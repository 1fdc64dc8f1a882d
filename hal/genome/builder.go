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
	"github.com/halgenome/hal/hal/twobit"
)

// Tree is the full set of genomes built or loaded against one store,
// indexed by name for Navigator lookups.
type Tree struct {
	store *mmapstore.Store
	root  *Genome
	byName map[string]*Genome
}

// Root returns the tree's root genome.
func (t *Tree) Root() *Genome { return t.root }

// Get looks up a genome by name.
func (t *Tree) Get(name string) (*Genome, error) {
	g, ok := t.byName[name]
	if !ok {
		return nil, fmt.Errorf("genome: no such genome %q", name)
	}
	return g, nil
}

// All returns every genome in the tree in pre-order: the root first, then
// each child's subtree in slot order.
func (t *Tree) All() []*Genome {
	out := make([]*Genome, 0, len(t.byName))
	var walk func(g *Genome)
	walk = func(g *Genome) {
		out = append(out, g)
		for _, c := range g.children {
			walk(c)
		}
	}
	if t.root != nil {
		walk(t.root)
	}
	return out
}

// NewTree starts a fresh, empty tree over store (write mode). Genomes
// are added with AddGenome, building the tree top-down from the root.
func NewTree(store *mmapstore.Store) *Tree {
	return &Tree{store: store, byName: make(map[string]*Genome)}
}

// AddGenome registers a new genome node as a child of parentName (or as
// the root, if parentName is empty and no root yet exists).
func (t *Tree) AddGenome(name string, parentName string) (*Genome, error) {
	if _, exists := t.byName[name]; exists {
		return nil, fmt.Errorf("genome: duplicate genome name %q", name)
	}
	g := &Genome{
		store:     t.store,
		name:      name,
		seqByName: make(map[string]*Sequence),
		childIdx:  segment.NoIndex,
	}

	if parentName == "" {
		if t.root != nil {
			return nil, fmt.Errorf("genome: tree already has root %q, cannot add second root %q", t.root.name, name)
		}
		t.root = g
	} else {
		parent, ok := t.byName[parentName]
		if !ok {
			return nil, fmt.Errorf("genome: unknown parent %q for genome %q", parentName, name)
		}
		g.parent = parent
		g.childIdx = len(parent.children)
		parent.children = append(parent.children, g)
	}

	t.byName[name] = g
	return g, nil
}

// AddSequence appends a named sequence of 2-bit-packed bases to g's
// coordinate space and allocates storage for it in the mapped store.
func (g *Genome) AddSequence(name string, bases []byte) (*Sequence, error) {
	if _, exists := g.seqByName[name]; exists {
		return nil, fmt.Errorf("genome: duplicate sequence name %q in genome %q", name, g.name)
	}
	var genomeStart int64
	if n := len(g.sequences); n > 0 {
		last := g.sequences[n-1]
		genomeStart = last.genomeStart + last.length
	}

	packedLen := (len(bases) + 3) / 4
	off, err := g.store.Alloc(uint64(max(packedLen, 1)), false)
	if err != nil {
		return nil, fmt.Errorf("genome: allocating sequence %q: %w", name, err)
	}
	buf := g.store.ToPtr(off, uint64(packedLen))
	twobit.Pack(bases, buf)

	seq := &Sequence{
		genome:      g,
		name:        name,
		genomeStart: genomeStart,
		length:      int64(len(bases)),
		basesOffset: off,
	}
	g.sequences = append(g.sequences, seq)
	g.seqByName[name] = seq

	if g.seqIndex == nil {
		g.seqIndex = interval.NewSearchTree[*Sequence, int64](cmp.Compare[int64])
	}
	g.seqIndex.Insert(genomeStart, genomeStart+seq.length, seq)

	return seq, nil
}

// AllocateSegmentTables reserves storage for this genome's top and
// bottom segment tables. Must be called once, after all children have
// been registered (the bottom segment record width depends on the
// child count) and before any WriteTop/WriteBottom call.
func (g *Genome) AllocateSegmentTables(topCount, bottomCount int) error {
	isRootGenome := g.parent == nil
	topOff, err := g.store.Alloc(uint64(topCount*topRecordSize), false)
	if err != nil {
		return fmt.Errorf("genome: allocating top table for %q: %w", g.name, err)
	}
	g.topOffset, g.topCount = topOff, topCount

	recSize := bottomRecordSize(len(g.children))
	bottomOff, err := g.store.Alloc(uint64(bottomCount*recSize), isRootGenome)
	if err != nil {
		return fmt.Errorf("genome: allocating bottom table for %q: %w", g.name, err)
	}
	g.bottomOffset, g.bottomCount = bottomOff, bottomCount
	return nil
}
