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

// Package navigator is a thin facade over a genome.Tree: genome/sequence
// lookup, iterator factories, and the tree-topology queries (lowest
// common ancestor, path) the lift-over engine needs to decide how two
// genomes relate before projecting an interval between them.
package navigator

import (
	"fmt"

	"github.com/halgenome/hal/hal/genome"
	"github.com/halgenome/hal/hal/segment"
)

// Navigator is constructed once per opened alignment and handed to the
// lift-over engine.
type Navigator struct {
	tree *genome.Tree
}

// New wraps an already-built or already-loaded genome tree.
func New(tree *genome.Tree) *Navigator {
	return &Navigator{tree: tree}
}

// GetGenome looks up a genome node by name.
func (n *Navigator) GetGenome(name string) (*genome.Genome, error) {
	return n.tree.Get(name)
}

// GetSequence looks up a sequence within a named genome.
func (n *Navigator) GetSequence(genomeName, seqName string) (*genome.Sequence, error) {
	g, err := n.GetGenome(genomeName)
	if err != nil {
		return nil, err
	}
	return g.GetSequence(seqName)
}

// TopIterator builds a top segment iterator in genome g at index i.
func (n *Navigator) TopIterator(g *genome.Genome, i int) (*segment.TopSegmentIterator, error) {
	return segment.NewTopSegmentIterator(g, i)
}

// BottomIterator builds a bottom segment iterator in genome g at index i.
func (n *Navigator) BottomIterator(g *genome.Genome, i int) (*segment.BottomSegmentIterator, error) {
	return segment.NewBottomSegmentIterator(g, i)
}

// Path returns the tree path from src to tgt: the ancestor chain from src
// up to the lowest common ancestor, followed by the descendant chain
// down to tgt. The LCA itself appears exactly once, at the junction.
//
// This is a plain parent-pointer walk; no third-party data structure
// fits a handful of in-memory tree-ancestor pointers any better than the
// standard library does; see DESIGN.md for this standard-library
// exception.
func (n *Navigator) Path(src, tgt *genome.Genome) ([]*genome.Genome, error) {
	lca, srcUp, tgtUp, err := n.lca(src, tgt)
	if err != nil {
		return nil, err
	}
	path := make([]*genome.Genome, 0, len(srcUp)+len(tgtUp)+1)
	path = append(path, srcUp...)
	path = append(path, lca)
	for i := len(tgtUp) - 1; i >= 0; i-- {
		path = append(path, tgtUp[i])
	}
	return path, nil
}

// LCAOf returns the lowest common ancestor of src and tgt.
func (n *Navigator) LCAOf(src, tgt *genome.Genome) (*genome.Genome, error) {
	lca, _, _, err := n.lca(src, tgt)
	return lca, err
}

// lca walks both genomes to the root, then finds the deepest common
// ancestor by comparing the two root-to-node chains. srcUp is the chain
// of genomes from src up to the LCA (src first and included, LCA
// excluded); tgtUp is the same for tgt.
func (n *Navigator) lca(src, tgt *genome.Genome) (lca *genome.Genome, srcUp, tgtUp []*genome.Genome, err error) {
	if src == nil || tgt == nil {
		return nil, nil, nil, fmt.Errorf("navigator: lca requires two non-nil genomes")
	}

	srcChain := chainToRoot(src)
	tgtChain := chainToRoot(tgt)

	srcDepth := map[string]int{}
	for i, g := range srcChain {
		srcDepth[g.Name()] = i
	}

	var splitTgt int
	found := false
	for i, g := range tgtChain {
		if d, ok := srcDepth[g.Name()]; ok {
			lca = g
			srcUp = srcChain[:d]
			splitTgt = i
			found = true
			break
		}
	}
	if !found {
		return nil, nil, nil, fmt.Errorf("navigator: %q and %q share no common ancestor", src.Name(), tgt.Name())
	}
	tgtUp = tgtChain[:splitTgt]
	return lca, srcUp, tgtUp, nil
}

// chainToRoot returns [g, g.Parent(), g.Parent().Parent(), ..., root].
func chainToRoot(g *genome.Genome) []*genome.Genome {
	var chain []*genome.Genome
	for cur := g; cur != nil; cur = cur.ParentGenome() {
		chain = append(chain, cur)
	}
	return chain
}
