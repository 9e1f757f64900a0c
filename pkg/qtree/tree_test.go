package qtree

import (
	"math/rand"
	"testing"

	"github.com/matzehuels/dendro/pkg/errors"
)

// caterpillar6 builds the 6-leaf caterpillar a,b - c - d - e,f used by
// several tests. Internal IDs: i0=6, i1=7, i2=8, i3=9.
func caterpillar6(t *testing.T) *Tree {
	t.Helper()
	tree, err := FromEdges([]string{"a", "b", "c", "d", "e", "f"}, []Edge{
		{From: "a", To: "i0"},
		{From: "b", To: "i0"},
		{From: "i0", To: "i1"},
		{From: "c", To: "i1"},
		{From: "i1", To: "i2"},
		{From: "d", To: "i2"},
		{From: "i2", To: "i3"},
		{From: "e", To: "i3"},
		{From: "f", To: "i3"},
	})
	if err != nil {
		t.Fatalf("FromEdges() = %v", err)
	}
	return tree
}

func quartetTree(t *testing.T) *Tree {
	t.Helper()
	tree, err := FromEdges([]string{"a", "b", "c", "d"}, []Edge{
		{From: "a", To: "i0"},
		{From: "b", To: "i0"},
		{From: "i0", To: "i1"},
		{From: "c", To: "i1"},
		{From: "d", To: "i1"},
	})
	if err != nil {
		t.Fatalf("FromEdges() = %v", err)
	}
	return tree
}

func TestNewRandomInvariants(t *testing.T) {
	for n := 4; n <= 12; n++ {
		labels := make([]string, n)
		for i := range labels {
			labels[i] = string(rune('a' + i))
		}
		tree, err := NewRandom(labels, rand.New(rand.NewSource(int64(n))))
		if err != nil {
			t.Fatalf("n=%d: NewRandom() = %v", n, err)
		}
		if err := tree.Validate(); err != nil {
			t.Fatalf("n=%d: Validate() = %v", n, err)
		}
		if got := tree.LeafCount(); got != n {
			t.Errorf("n=%d: LeafCount() = %d", n, got)
		}
		if got := tree.InternalCount(); got != n-2 {
			t.Errorf("n=%d: InternalCount() = %d, want %d", n, got, n-2)
		}
		if got := tree.EdgeCount(); got != 2*n-3 {
			t.Errorf("n=%d: EdgeCount() = %d, want %d", n, got, 2*n-3)
		}
	}
}

func TestNewRandomTooFewLeaves(t *testing.T) {
	_, err := NewRandom([]string{"a", "b", "c"}, rand.New(rand.NewSource(1)))
	if !errors.Is(err, errors.ErrCodeTooFewLeaves) {
		t.Fatalf("NewRandom() error = %v, want TOO_FEW_LEAVES", err)
	}
}

func TestNewRandomDeterministic(t *testing.T) {
	labels := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	t1, _ := NewRandom(labels, rand.New(rand.NewSource(7)))
	t2, _ := NewRandom(labels, rand.New(rand.NewSource(7)))

	e1, e2 := t1.Edges(), t2.Edges()
	if len(e1) != len(e2) {
		t.Fatalf("edge counts differ: %d vs %d", len(e1), len(e2))
	}
	for i := range e1 {
		if e1[i] != e2[i] {
			t.Fatalf("edge %d differs: %v vs %v", i, e1[i], e2[i])
		}
	}
}

func TestInducedPairing(t *testing.T) {
	tree := caterpillar6(t)

	// Label indices follow sorted order: a=0 .. f=5.
	tests := []struct {
		name string
		q    Quartet
		want Pairing
	}{
		{name: "HeadPair", q: Quartet{0, 1, 2, 3}, want: PairingABCD},   // ab|cd
		{name: "SpineSplit", q: Quartet{0, 2, 4, 5}, want: PairingABCD}, // ac|ef
		{name: "TailPair", q: Quartet{2, 3, 4, 5}, want: PairingABCD},   // cd|ef
		{name: "Straddling", q: Quartet{0, 1, 4, 5}, want: PairingABCD}, // ab|ef
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tree.InducedPairing(tt.q); got != tt.want {
				t.Errorf("InducedPairing(%v) = %v, want %v", tt.q, got, tt.want)
			}
		})
	}

	// A non-adjacent grouping needs a permuted tree: after exchanging c
	// and f the quartet {c,d,e,f} pairs c with e across the far end.
	tree.LeafSwap(2, 5)
	if got := tree.InducedPairing(Quartet{2, 3, 4, 5}); got != PairingACBD {
		t.Errorf("InducedPairing after swap = %v, want ce|df", got)
	}
}

func TestLeafSwapChangesPairing(t *testing.T) {
	tree := quartetTree(t)

	if got := tree.InducedPairing(Quartet{0, 1, 2, 3}); got != PairingABCD {
		t.Fatalf("initial pairing = %v, want ab|cd", got)
	}

	m := tree.LeafSwap(1, 2) // exchange b and c
	if !m.Applied || m.Kind != MutationLeafSwap {
		t.Fatalf("unexpected mutation record: %+v", m)
	}
	if err := tree.Validate(); err != nil {
		t.Fatalf("Validate() after swap = %v", err)
	}
	if got := tree.InducedPairing(Quartet{0, 1, 2, 3}); got != PairingACBD {
		t.Errorf("pairing after swap = %v, want ac|bd", got)
	}
}

func TestSubtreeSwap(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		tree := caterpillar6(t)

		// Exchange leaf c (on i1) with leaf f (on i3).
		m := tree.SubtreeSwap(DirectedEdge{Parent: 7, Child: 2}, DirectedEdge{Parent: 9, Child: 5})
		if !m.Applied {
			t.Fatal("swap should be applied")
		}
		if err := tree.Validate(); err != nil {
			t.Fatalf("Validate() after swap = %v", err)
		}
		if len(m.TouchedLabels) != 2 || m.TouchedLabels[0] != 2 || m.TouchedLabels[1] != 5 {
			t.Errorf("TouchedLabels = %v, want [2 5]", m.TouchedLabels)
		}
		// {c,d,e,f} was cd|ef, now c sits with e: ce|df.
		if got := tree.InducedPairing(Quartet{2, 3, 4, 5}); got != PairingACBD {
			t.Errorf("pairing after swap = %v, want ce|df", got)
		}
	})

	t.Run("RejectsNestedSubtrees", func(t *testing.T) {
		tree := caterpillar6(t)
		before := tree.Edges()

		// Subtree at i2 (away from i1) contains the edge i3-f.
		m := tree.SubtreeSwap(DirectedEdge{Parent: 7, Child: 8}, DirectedEdge{Parent: 9, Child: 5})
		if m.Applied {
			t.Fatal("nested swap must be rejected")
		}
		after := tree.Edges()
		for i := range before {
			if before[i] != after[i] {
				t.Fatal("rejected swap must leave the tree untouched")
			}
		}
	})
}

func TestRandomMutationPreservesValidity(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	labels := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"}
	tree, err := NewRandom(labels, rng)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 500; i++ {
		tree.RandomMutation(rng)
		if err := tree.Validate(); err != nil {
			t.Fatalf("iteration %d: Validate() = %v", i, err)
		}
	}
}

func TestCloneIndependence(t *testing.T) {
	tree := caterpillar6(t)
	clone := tree.Clone()

	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 50; i++ {
		clone.RandomMutation(rng)
	}
	if err := tree.Validate(); err != nil {
		t.Fatalf("original corrupted by clone mutations: %v", err)
	}
	if got := tree.InducedPairing(Quartet{0, 1, 2, 3}); got != PairingABCD {
		t.Errorf("original pairing changed to %v", got)
	}
}

func TestFromEdgesErrors(t *testing.T) {
	tests := []struct {
		name   string
		labels []string
		edges  []Edge
	}{
		{
			name:   "TooFewLeaves",
			labels: []string{"a", "b", "c"},
		},
		{
			name:   "WrongDegree",
			labels: []string{"a", "b", "c", "d"},
			edges: []Edge{
				{From: "a", To: "i0"}, {From: "b", To: "i0"},
				{From: "c", To: "i0"}, {From: "d", To: "i0"},
			},
		},
		{
			name:   "Disconnected",
			labels: []string{"a", "b", "c", "d"},
			edges: []Edge{
				{From: "a", To: "i0"}, {From: "b", To: "i0"},
				{From: "c", To: "i1"}, {From: "d", To: "i1"},
			},
		},
		{
			name:   "SelfLoop",
			labels: []string{"a", "b", "c", "d"},
			edges:  []Edge{{From: "i0", To: "i0"}},
		},
		{
			name:   "DuplicateLabel",
			labels: []string{"a", "a", "c", "d"},
			edges:  []Edge{{From: "a", To: "i0"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := FromEdges(tt.labels, tt.edges); err == nil {
				t.Error("FromEdges() should fail")
			}
		})
	}
}

func TestEdgesRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	labels := []string{"ape", "bat", "cat", "dog", "eel", "fox", "gnu"}
	tree, err := NewRandom(labels, rng)
	if err != nil {
		t.Fatal(err)
	}

	back, err := FromEdges(labels, tree.Edges())
	if err != nil {
		t.Fatalf("FromEdges(Edges()) = %v", err)
	}

	// Same topology: every quartet induces the same pairing.
	ForEachQuartet(len(labels), func(q Quartet) {
		if tree.InducedPairing(q) != back.InducedPairing(q) {
			t.Fatalf("quartet %v pairing differs after round trip", q)
		}
	})
}

func TestQuartetCount(t *testing.T) {
	tests := []struct {
		n    int
		want int
	}{
		{n: 3, want: 0},
		{n: 4, want: 1},
		{n: 5, want: 5},
		{n: 6, want: 15},
		{n: 10, want: 210},
	}
	for _, tt := range tests {
		if got := QuartetCount(tt.n); got != tt.want {
			t.Errorf("QuartetCount(%d) = %d, want %d", tt.n, got, tt.want)
		}
	}

	// ForEachQuartet visits exactly QuartetCount quartets.
	count := 0
	ForEachQuartet(7, func(Quartet) { count++ })
	if count != QuartetCount(7) {
		t.Errorf("ForEachQuartet visited %d, want %d", count, QuartetCount(7))
	}
}
