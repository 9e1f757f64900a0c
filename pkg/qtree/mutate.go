package qtree

import "math/rand"

// MutationKind identifies one of the two structural mutation operators.
type MutationKind int

const (
	// MutationLeafSwap exchanges the attachment points of two leaves.
	MutationLeafSwap MutationKind = iota
	// MutationSubtreeSwap exchanges two disjoint subtrees across their
	// attachment edges.
	MutationSubtreeSwap
)

// String returns the operator name.
func (k MutationKind) String() string {
	if k == MutationLeafSwap {
		return "leaf-swap"
	}
	return "subtree-swap"
}

// Mutation records what a mutation attempt did, so the scorer can restrict
// rescoring to the quartets the move could have changed.
type Mutation struct {
	Kind    MutationKind
	Applied bool // false when an invalid subtree swap was rejected as a no-op

	// TouchedLabels are the label indices whose quartets may have changed
	// pairing. Quartets containing none of them are untouched.
	TouchedLabels []int

	// TopologyChanged is false for leaf swaps: the leaf-position distance
	// table is unchanged because only the label permutation moved.
	TopologyChanged bool
}

// LeafSwap exchanges the attachment points of the two given label indices
// by swapping their positions in the label permutation. Always valid: the
// adjacency is untouched, so every invariant is preserved.
func (t *Tree) LeafSwap(x, y int) Mutation {
	px, py := t.posOf[x], t.posOf[y]
	t.posOf[x], t.posOf[y] = py, px
	t.labelAt[px], t.labelAt[py] = y, x
	return Mutation{
		Kind:          MutationLeafSwap,
		Applied:       true,
		TouchedLabels: []int{x, y},
	}
}

// DirectedEdge identifies the subtree hanging at Child on the far side of
// Parent. Parent and Child must be adjacent.
type DirectedEdge struct {
	Parent, Child int
}

// SubtreeSwap detaches the subtree at a.Child (away from a.Parent) and the
// subtree at b.Child (away from b.Parent) and reattaches each at the
// other's former position.
//
// Moves that would disconnect the tree or create a cycle - one subtree
// containing the other's attachment edge - are rejected and reported as an
// unapplied no-op, leaving the tree untouched. A valid swap rewires
// exactly four adjacency entries, so all degree invariants are preserved.
func (t *Tree) SubtreeSwap(a, b DirectedEdge) Mutation {
	m := Mutation{Kind: MutationSubtreeSwap, TopologyChanged: true}

	setA := t.subtreeSet(a.Child, a.Parent)
	if setA[b.Parent] || setA[b.Child] {
		return m
	}
	setB := t.subtreeSet(b.Child, b.Parent)
	if setB[a.Parent] || setB[a.Child] {
		return m
	}

	t.replaceNeighbor(a.Parent, a.Child, b.Child)
	t.replaceNeighbor(b.Parent, b.Child, a.Child)
	t.replaceNeighbor(a.Child, a.Parent, b.Parent)
	t.replaceNeighbor(b.Child, b.Parent, a.Parent)

	m.Applied = true
	m.TouchedLabels = t.labelsIn(setA, setB)
	return m
}

// subtreeSet marks every node reachable from child without crossing parent.
func (t *Tree) subtreeSet(child, parent int) []bool {
	set := make([]bool, len(t.adj))
	set[child] = true
	stack := []int{child}
	for len(stack) > 0 {
		u := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, v := range t.adj[u] {
			if v != parent && !set[v] {
				set[v] = true
				stack = append(stack, v)
			}
		}
	}
	return set
}

// labelsIn collects the label indices of all leaf positions in either set,
// in ascending position order.
func (t *Tree) labelsIn(setA, setB []bool) []int {
	n := len(t.labels)
	var labels []int
	for pos := 0; pos < n; pos++ {
		if setA[pos] || setB[pos] {
			labels = append(labels, t.labelAt[pos])
		}
	}
	return labels
}

// RandomMutation applies the uniform mutation policy: pick leaf-swap or
// subtree-swap with equal probability, then pick operands uniformly among
// the candidates. Invalid subtree swaps come back unapplied; the caller
// treats them as a consumed iteration whose candidate cannot improve.
func (t *Tree) RandomMutation(rng *rand.Rand) Mutation {
	if rng.Intn(2) == 0 {
		n := len(t.labels)
		x := rng.Intn(n)
		y := rng.Intn(n - 1)
		if y >= x {
			y++
		}
		return t.LeafSwap(x, y)
	}

	edges := t.directedEdges()
	i := rng.Intn(len(edges))
	j := rng.Intn(len(edges) - 1)
	if j >= i {
		j++
	}
	return t.SubtreeSwap(edges[i], edges[j])
}

// directedEdges enumerates both orientations of every edge in a fixed
// order, so operand selection is reproducible for a given rng state.
func (t *Tree) directedEdges() []DirectedEdge {
	edges := make([]DirectedEdge, 0, 2*t.EdgeCount())
	for u := range t.adj {
		for _, v := range t.adj[u] {
			edges = append(edges, DirectedEdge{Parent: u, Child: v})
		}
	}
	return edges
}
