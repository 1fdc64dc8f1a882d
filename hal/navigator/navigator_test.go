package navigator

import (
	"path/filepath"
	"testing"

	"github.com/halgenome/hal/hal/genome"
	"github.com/halgenome/hal/hal/mmapstore"
)

// buildTestTree constructs:
//
//	root
//	├── a
//	│   └── a1
//	└── b
func buildTestTree(t *testing.T) *genome.Tree {
	t.Helper()
	path := filepath.Join(t.TempDir(), "n.hal")
	store, err := mmapstore.Open(path, mmapstore.Write, 1<<20, false)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	tr := genome.NewTree(store)
	if _, err := tr.AddGenome("root", ""); err != nil {
		t.Fatalf("add root: %v", err)
	}
	if _, err := tr.AddGenome("a", "root"); err != nil {
		t.Fatalf("add a: %v", err)
	}
	if _, err := tr.AddGenome("b", "root"); err != nil {
		t.Fatalf("add b: %v", err)
	}
	if _, err := tr.AddGenome("a1", "a"); err != nil {
		t.Fatalf("add a1: %v", err)
	}
	return tr
}

func TestLCAOfSiblings(t *testing.T) {
	tr := buildTestTree(t)
	nav := New(tr)

	a, _ := tr.Get("a")
	b, _ := tr.Get("b")
	lca, err := nav.LCAOf(a, b)
	if err != nil {
		t.Fatalf("lca: %v", err)
	}
	if lca.Name() != "root" {
		t.Fatalf("lca mismatch: got %q want %q", lca.Name(), "root")
	}
}

func TestLCAOfAncestorDescendant(t *testing.T) {
	tr := buildTestTree(t)
	nav := New(tr)

	a, _ := tr.Get("a")
	a1, _ := tr.Get("a1")
	lca, err := nav.LCAOf(a, a1)
	if err != nil {
		t.Fatalf("lca: %v", err)
	}
	if lca.Name() != "a" {
		t.Fatalf("lca mismatch: got %q want %q", lca.Name(), "a")
	}
}

func TestPathIncludesLCAOnce(t *testing.T) {
	tr := buildTestTree(t)
	nav := New(tr)

	a1, _ := tr.Get("a1")
	b, _ := tr.Get("b")
	path, err := nav.Path(a1, b)
	if err != nil {
		t.Fatalf("path: %v", err)
	}
	names := make([]string, len(path))
	count := map[string]int{}
	for i, g := range path {
		names[i] = g.Name()
		count[g.Name()]++
	}
	if count["root"] != 1 {
		t.Fatalf("expected root exactly once in path, got %d: %v", count["root"], names)
	}
	want := []string{"a1", "a", "root", "b"}
	if len(path) != len(want) {
		t.Fatalf("path length mismatch: got %v want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("path mismatch at %d: got %v want %v", i, names, want)
		}
	}
}
