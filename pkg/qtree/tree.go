package qtree

import (
	"fmt"
	"slices"

	"github.com/matzehuels/dendro/pkg/errors"
)

// MinLeaves is the smallest leaf set that admits a quartet tree.
const MinLeaves = 4

// Tree is a connected, acyclic graph over n leaf nodes (degree 1) and
// exactly n-2 internal nodes (degree 3).
//
// Node IDs are ints: 0..n-1 are leaf positions, n..2n-3 are internal
// nodes. Leaf labels are permuted over the leaf positions, so a leaf-swap
// mutation only touches the permutation, never the adjacency.
//
// The zero value is not usable - use [NewRandom] or [FromEdges].
type Tree struct {
	labels  []string // sorted leaf labels, immutable, shared across clones
	adj     [][]int  // node -> neighbors; len 1 for leaves, 3 for internals
	posOf   []int    // label index -> leaf position (node ID)
	labelAt []int    // leaf position -> label index
}

// LeafCount returns the number of leaves n.
func (t *Tree) LeafCount() int { return len(t.labels) }

// InternalCount returns the number of internal nodes, always n-2.
func (t *Tree) InternalCount() int { return len(t.adj) - len(t.labels) }

// EdgeCount returns the number of edges, always 2n-3.
func (t *Tree) EdgeCount() int { return 2*len(t.labels) - 3 }

// Labels returns the sorted leaf labels as a copy.
func (t *Tree) Labels() []string { return slices.Clone(t.labels) }

// LeafPos returns the leaf position currently holding the given label index.
func (t *Tree) LeafPos(label int) int { return t.posOf[label] }

// LabelAt returns the label index currently sitting at the given leaf position.
func (t *Tree) LabelAt(pos int) int { return t.labelAt[pos] }

// Edge is an undirected tree edge in the exported node naming: leaves are
// identified by their label, internal nodes by "i0".."i{n-3}".
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// nodeName maps an internal node ID to its exported name.
func (t *Tree) nodeName(id int) string {
	if id < len(t.labels) {
		return t.labels[t.labelAt[id]]
	}
	return fmt.Sprintf("i%d", id-len(t.labels))
}

// InternalNames returns the exported names of all internal nodes.
func (t *Tree) InternalNames() []string {
	names := make([]string, t.InternalCount())
	for i := range names {
		names[i] = fmt.Sprintf("i%d", i)
	}
	return names
}

// Edges returns every undirected edge once, in deterministic order, using
// the exported node naming. This is the tree half of the output contract
// handed to the visualization collaborator.
func (t *Tree) Edges() []Edge {
	edges := make([]Edge, 0, t.EdgeCount())
	for u := range t.adj {
		for _, v := range t.adj[u] {
			if u < v {
				edges = append(edges, Edge{From: t.nodeName(u), To: t.nodeName(v)})
			}
		}
	}
	slices.SortFunc(edges, func(a, b Edge) int {
		if a.From != b.From {
			if a.From < b.From {
				return -1
			}
			return 1
		}
		if a.To < b.To {
			return -1
		}
		if a.To > b.To {
			return 1
		}
		return 0
	})
	return edges
}

// Clone returns a deep copy of the tree. The immutable label slice is
// shared; all mutable state is copied.
func (t *Tree) Clone() *Tree {
	adj := make([][]int, len(t.adj))
	for i, nbrs := range t.adj {
		adj[i] = slices.Clone(nbrs)
	}
	return &Tree{
		labels:  t.labels,
		adj:     adj,
		posOf:   slices.Clone(t.posOf),
		labelAt: slices.Clone(t.labelAt),
	}
}

// Validate checks the structural invariants:
//
//  1. n >= 4 leaves, each of degree 1
//  2. exactly n-2 internal nodes, each of degree 3
//  3. the graph is a single connected component with no cycles
//  4. the label permutation is a bijection over leaf positions
//
// Returns an INVALID_TREE error naming the violated invariant.
func (t *Tree) Validate() error {
	n := len(t.labels)
	if n < MinLeaves {
		return errors.New(errors.ErrCodeTooFewLeaves, "tree needs at least %d leaves, has %d", MinLeaves, n)
	}
	if len(t.adj) != 2*n-2 {
		return errors.New(errors.ErrCodeInvalidTree, "node count %d, want %d", len(t.adj), 2*n-2)
	}

	for id, nbrs := range t.adj {
		want := 3
		if id < n {
			want = 1
		}
		if len(nbrs) != want {
			return errors.New(errors.ErrCodeInvalidTree, "node %d has degree %d, want %d", id, len(nbrs), want)
		}
		for _, v := range nbrs {
			if v < 0 || v >= len(t.adj) {
				return errors.New(errors.ErrCodeInvalidTree, "node %d has out-of-range neighbor %d", id, v)
			}
			if !slices.Contains(t.adj[v], id) {
				return errors.New(errors.ErrCodeInvalidTree, "edge %d-%d is not symmetric", id, v)
			}
		}
	}

	// A symmetric graph on 2n-2 nodes with 2n-3 undirected edges is a tree
	// iff it is connected.
	edgeCount := 0
	for _, nbrs := range t.adj {
		edgeCount += len(nbrs)
	}
	if edgeCount != 2*(2*n-3) {
		return errors.New(errors.ErrCodeInvalidTree, "edge count %d, want %d", edgeCount/2, 2*n-3)
	}
	if reached := t.reachableFrom(0); reached != len(t.adj) {
		return errors.New(errors.ErrCodeInvalidTree, "graph is disconnected: reached %d of %d nodes", reached, len(t.adj))
	}

	seen := make([]bool, n)
	for label, pos := range t.posOf {
		if pos < 0 || pos >= n || t.labelAt[pos] != label {
			return errors.New(errors.ErrCodeInvalidTree, "label permutation broken at label %d", label)
		}
		if seen[pos] {
			return errors.New(errors.ErrCodeInvalidTree, "leaf position %d assigned twice", pos)
		}
		seen[pos] = true
	}

	return nil
}

// reachableFrom counts nodes reachable from start by iterative DFS.
func (t *Tree) reachableFrom(start int) int {
	visited := make([]bool, len(t.adj))
	stack := []int{start}
	visited[start] = true
	count := 0
	for len(stack) > 0 {
		u := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		count++
		for _, v := range t.adj[u] {
			if !visited[v] {
				visited[v] = true
				stack = append(stack, v)
			}
		}
	}
	return count
}

// FromEdges reconstructs a tree from an exported edge list over the given
// leaf labels. Internal node names may be arbitrary strings as long as
// they are distinct from the labels; they are assigned IDs in first-seen
// order. The result is validated before it is returned.
//
// This is the entry point for delegate solver output and for re-importing
// exported trees.
func FromEdges(labels []string, edges []Edge) (*Tree, error) {
	n := len(labels)
	if n < MinLeaves {
		return nil, errors.New(errors.ErrCodeTooFewLeaves, "need at least %d leaves, got %d", MinLeaves, n)
	}

	sorted := slices.Clone(labels)
	slices.Sort(sorted)

	id := make(map[string]int, 2*n-2)
	for i, l := range sorted {
		if l == "" {
			return nil, errors.New(errors.ErrCodeInvalidTree, "empty leaf label")
		}
		if _, dup := id[l]; dup {
			return nil, errors.New(errors.ErrCodeInvalidTree, "duplicate leaf label %q", l)
		}
		id[l] = i
	}

	t := &Tree{
		labels:  sorted,
		adj:     make([][]int, n, 2*n-2),
		posOf:   make([]int, n),
		labelAt: make([]int, n),
	}
	for i := 0; i < n; i++ {
		t.posOf[i] = i
		t.labelAt[i] = i
	}

	resolve := func(name string) (int, error) {
		if v, ok := id[name]; ok {
			return v, nil
		}
		if len(t.adj) >= 2*n-2 {
			return 0, errors.New(errors.ErrCodeInvalidTree, "too many internal nodes (want %d)", n-2)
		}
		v := len(t.adj)
		t.adj = append(t.adj, nil)
		id[name] = v
		return v, nil
	}

	for _, e := range edges {
		u, err := resolve(e.From)
		if err != nil {
			return nil, err
		}
		v, err := resolve(e.To)
		if err != nil {
			return nil, err
		}
		if u == v {
			return nil, errors.New(errors.ErrCodeInvalidTree, "self-loop on %q", e.From)
		}
		t.adj[u] = append(t.adj[u], v)
		t.adj[v] = append(t.adj[v], u)
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}
