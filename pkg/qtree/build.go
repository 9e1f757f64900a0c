package qtree

import (
	"math/rand"
	"slices"

	"github.com/matzehuels/dendro/pkg/errors"
)

// NewRandom builds a valid random topology over the given labels.
//
// Construction starts from the unique 4-leaf quartet shape and grafts each
// remaining leaf onto a uniformly chosen edge. Grafting replaces one edge
// with two edges plus a fresh internal node and a leaf edge, so the degree
// invariants hold by construction at every step.
//
// Labels are sorted internally. Returns a TOO_FEW_LEAVES error for fewer
// than 4 labels and an INVALID_TREE error for duplicate or empty labels.
func NewRandom(labels []string, rng *rand.Rand) (*Tree, error) {
	n := len(labels)
	if n < MinLeaves {
		return nil, errors.New(errors.ErrCodeTooFewLeaves, "need at least %d leaves, got %d", MinLeaves, n)
	}

	sorted := slices.Clone(labels)
	slices.Sort(sorted)
	for i := 1; i < n; i++ {
		if sorted[i] == sorted[i-1] {
			return nil, errors.New(errors.ErrCodeInvalidTree, "duplicate leaf label %q", sorted[i])
		}
	}
	if sorted[0] == "" {
		return nil, errors.New(errors.ErrCodeInvalidTree, "empty leaf label")
	}

	t := &Tree{
		labels:  sorted,
		adj:     make([][]int, 2*n-2),
		posOf:   make([]int, n),
		labelAt: make([]int, n),
	}

	// Seed quartet: leaves 0..3 on internal nodes n and n+1.
	t.adj[0] = []int{n}
	t.adj[1] = []int{n}
	t.adj[2] = []int{n + 1}
	t.adj[3] = []int{n + 1}
	t.adj[n] = []int{0, 1, n + 1}
	t.adj[n+1] = []int{2, 3, n}

	// Graft leaf k onto a random existing edge through internal node m.
	for k := 4; k < n; k++ {
		m := n + k - 2
		u, v := t.randomEdge(rng, m)
		t.replaceNeighbor(u, v, m)
		t.replaceNeighbor(v, u, m)
		t.adj[m] = []int{u, v, k}
		t.adj[k] = []int{m}
	}

	// Random label placement so identical seeds on different matrices still
	// explore distinct assignments.
	perm := rng.Perm(n)
	for label, pos := range perm {
		t.posOf[label] = pos
		t.labelAt[pos] = label
	}

	return t, nil
}

// randomEdge picks a uniform undirected edge among nodes below limit.
// Enumeration order is fixed by node ID and neighbor order, keeping the
// choice reproducible for a given rng state.
func (t *Tree) randomEdge(rng *rand.Rand, limit int) (int, int) {
	type edge struct{ u, v int }
	var edges []edge
	for u := 0; u < limit; u++ {
		for _, v := range t.adj[u] {
			if u < v && v < limit {
				edges = append(edges, edge{u, v})
			}
		}
	}
	e := edges[rng.Intn(len(edges))]
	return e.u, e.v
}

// replaceNeighbor rewires node u's adjacency entry for old to repl.
func (t *Tree) replaceNeighbor(u, old, repl int) {
	for i, v := range t.adj[u] {
		if v == old {
			t.adj[u][i] = repl
			return
		}
	}
}
