// Package score turns distance matrices and trees into fitness scores.
//
// # Overview
//
// The quartet cost model assigns each of a quartet's three pairings the
// cost d(pair1) + d(pair2): the cheaper the pairing, the more similar its
// two sibling pairs are, and the more a good tree should want to realize
// it. A tree's fitness is the average, over all C(n,4) quartets, of the
// normalized benefit of the pairing the tree actually induces - 1.0 when
// every quartet gets its cheapest pairing, 0.0 when every quartet gets its
// most expensive one.
//
// Scoring every quartet from scratch is O(n^4) per search iteration, which
// dominates the hill climb. [Scorer] therefore keeps the per-quartet
// benefits and the leaf-to-leaf distance table of the current tree, and
// rescores only the quartets a mutation could have changed (those
// containing a touched leaf). Candidate evaluation is a pure delta
// ([Scorer.ScoreMutated]) that is either committed or dropped.
//
// Cost computation is pure and reads only the immutable distance matrix,
// so independent workers can score concurrently with no synchronization.
package score

import (
	"github.com/matzehuels/dendro/pkg/distmatrix"
	"github.com/matzehuels/dendro/pkg/qtree"
)

// Costs holds the cost of each of a quartet's three pairings, indexed by
// [qtree.Pairing].
type Costs [qtree.NumPairings]float64

// QuartetCosts computes the three pairing costs for a quartet.
// cost(p) = distance(pair1) + distance(pair2) under pairing p. Returns a
// MISSING_DISTANCE error when the matrix lacks a required entry; callers
// must abort rather than substitute a default.
func QuartetCosts(m *distmatrix.Matrix, q qtree.Quartet) (Costs, error) {
	var c Costs
	for p := qtree.Pairing(0); p < qtree.NumPairings; p++ {
		first, second := p.Pairs()
		d1, err := m.DistanceAt(q[first[0]], q[first[1]])
		if err != nil {
			return Costs{}, err
		}
		d2, err := m.DistanceAt(q[second[0]], q[second[1]])
		if err != nil {
			return Costs{}, err
		}
		c[p] = d1 + d2
	}
	return c, nil
}

// Benefit returns the normalized benefit of inducing pairing p:
//
//	(worst - cost(p)) / (worst - best)
//
// which lies in [0,1] - 1 for the cheapest pairing, 0 for the most
// expensive. When all three pairings cost the same the quartet cannot
// discriminate and every pairing is worth a full 1.
func (c Costs) Benefit(p qtree.Pairing) float64 {
	best, worst := c[0], c[0]
	for _, v := range c[1:] {
		if v < best {
			best = v
		}
		if v > worst {
			worst = v
		}
	}
	if worst == best {
		return 1
	}
	return (worst - c[p]) / (worst - best)
}
