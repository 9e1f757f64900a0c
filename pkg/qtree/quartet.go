package qtree

import "fmt"

// Quartet is an unordered 4-element subset of the leaf set, stored as
// sorted label indices (positions in the sorted label slice). For n leaves
// there are C(n,4) quartets.
type Quartet [4]int

// Pairing is one of the three ways to split a quartet {a,b,c,d} into two
// pairs of two. With the quartet sorted as a<b<c<d, the three pairings are
// enumerated relative to that order.
type Pairing uint8

const (
	// PairingABCD groups {a,b} with {c,d}: ab|cd.
	PairingABCD Pairing = iota
	// PairingACBD groups {a,c} with {b,d}: ac|bd.
	PairingACBD
	// PairingADBC groups {a,d} with {b,c}: ad|bc.
	PairingADBC

	// NumPairings is the number of possible pairings per quartet.
	NumPairings = 3
)

// String returns the conventional split notation for the pairing.
func (p Pairing) String() string {
	switch p {
	case PairingABCD:
		return "ab|cd"
	case PairingACBD:
		return "ac|bd"
	case PairingADBC:
		return "ad|bc"
	}
	return fmt.Sprintf("Pairing(%d)", uint8(p))
}

// Pairs returns the two index pairs of the quartet under pairing p.
// Indices are positions 0..3 into the sorted quartet.
func (p Pairing) Pairs() (first, second [2]int) {
	switch p {
	case PairingACBD:
		return [2]int{0, 2}, [2]int{1, 3}
	case PairingADBC:
		return [2]int{0, 3}, [2]int{1, 2}
	default:
		return [2]int{0, 1}, [2]int{2, 3}
	}
}

// QuartetCount returns C(n,4), the number of quartets over n leaves.
func QuartetCount(n int) int {
	if n < 4 {
		return 0
	}
	return n * (n - 1) * (n - 2) * (n - 3) / 24
}

// ForEachQuartet calls fn for every quartet over n leaves in lexicographic
// order. Iteration order is deterministic, which keeps quartet indices
// stable across the scorer's caches.
func ForEachQuartet(n int, fn func(q Quartet)) {
	for a := 0; a < n-3; a++ {
		for b := a + 1; b < n-2; b++ {
			for c := b + 1; c < n-1; c++ {
				for d := c + 1; d < n; d++ {
					fn(Quartet{a, b, c, d})
				}
			}
		}
	}
}

// Contains reports whether the quartet includes the given label index.
func (q Quartet) Contains(leaf int) bool {
	return q[0] == leaf || q[1] == leaf || q[2] == leaf || q[3] == leaf
}
