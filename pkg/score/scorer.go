package score

import (
	"slices"

	"github.com/matzehuels/dendro/pkg/distmatrix"
	"github.com/matzehuels/dendro/pkg/errors"
	"github.com/matzehuels/dendro/pkg/qtree"
)

// Scorer computes fitness scores for trees over one distance matrix.
//
// Pairing costs depend only on the matrix, so they are computed once at
// construction. After [Scorer.Bind] the scorer mirrors the state of one
// tree (per-quartet benefits plus the leaf-position distance table) and
// evaluates mutations as deltas against that state.
//
// A Scorer belongs to a single search worker, like the tree it mirrors.
// It is not safe for concurrent use; independent workers each construct
// their own.
type Scorer struct {
	matrix *distmatrix.Matrix
	n      int
	count  int       // C(n,4)
	binom  [][5]int  // binom[x][k] = C(x,k), for quartet ranking
	costs  []Costs   // per quartet rank, immutable after construction

	// State mirrored from the bound tree.
	bound    bool
	benefits []float64
	sum      float64
	dist     [][]int // leaf position -> leaf position topological distance
}

// Delta is the uncommitted effect of one candidate mutation: the new
// score plus the benefit and distance-row changes that produced it.
// Apply it with [Scorer.Commit] when the candidate is accepted; drop it
// otherwise.
type Delta struct {
	Score    float64
	sum      float64
	benefits map[int]float64
	rows     map[int][]int
}

// NewScorer precomputes the quartet cost table for the matrix.
// Returns a TOO_FEW_LEAVES error for matrices under 4 labels and a
// MISSING_DISTANCE error if any required entry is absent - the
// data-integrity check happens here, before any score is ever produced.
func NewScorer(m *distmatrix.Matrix) (*Scorer, error) {
	n := m.Len()
	if n < qtree.MinLeaves {
		return nil, errors.New(errors.ErrCodeTooFewLeaves, "need at least %d leaves to score quartets, got %d", qtree.MinLeaves, n)
	}

	s := &Scorer{
		matrix: m,
		n:      n,
		count:  qtree.QuartetCount(n),
		binom:  binomTable(n),
		costs:  make([]Costs, qtree.QuartetCount(n)),
	}

	var firstErr error
	rank := 0
	qtree.ForEachQuartet(n, func(q qtree.Quartet) {
		if firstErr != nil {
			return
		}
		c, err := QuartetCosts(m, q)
		if err != nil {
			firstErr = err
			return
		}
		s.costs[rank] = c
		rank++
	})
	if firstErr != nil {
		return nil, firstErr
	}
	return s, nil
}

// QuartetCount returns C(n,4) for the bound matrix.
func (s *Scorer) QuartetCount() int { return s.count }

// Bind makes the scorer mirror the given tree and returns its full score.
// This is the O(n^4) path; it runs once per search, after which mutations
// go through [Scorer.ScoreMutated].
func (s *Scorer) Bind(t *qtree.Tree) (float64, error) {
	if !slices.Equal(t.Labels(), s.matrix.Labels()) {
		return 0, errors.New(errors.ErrCodeInvalidTree, "tree leaf set does not match matrix labels")
	}

	s.dist = make([][]int, s.n)
	for pos := 0; pos < s.n; pos++ {
		s.dist[pos] = t.LeafDistRow(pos)
	}

	s.benefits = make([]float64, s.count)
	s.sum = 0
	rank := 0
	qtree.ForEachQuartet(s.n, func(q qtree.Quartet) {
		b := s.costs[rank].Benefit(s.pairingOf(t, q, nil))
		s.benefits[rank] = b
		s.sum += b
		rank++
	})

	s.bound = true
	return s.Score(), nil
}

// Score returns the current score of the bound tree.
func (s *Scorer) Score() float64 {
	return s.sum / float64(s.count)
}

// ScoreMutated evaluates a mutated candidate against the bound state.
// Only quartets containing a touched leaf are rescored; for subtree swaps
// the distance rows of the touched leaf positions are recomputed first.
// The scorer itself is unchanged - commit the returned delta to accept
// the candidate.
//
// The candidate must be a clone of the bound tree with exactly the given
// mutation applied.
func (s *Scorer) ScoreMutated(t *qtree.Tree, mut qtree.Mutation) *Delta {
	d := &Delta{Score: s.Score(), sum: s.sum}
	if !mut.Applied || len(mut.TouchedLabels) == 0 {
		return d
	}

	if mut.TopologyChanged {
		d.rows = make(map[int][]int, len(mut.TouchedLabels))
		for _, label := range mut.TouchedLabels {
			pos := t.LeafPos(label)
			d.rows[pos] = t.LeafDistRow(pos)
		}
	}

	d.benefits = make(map[int]float64)
	for _, label := range mut.TouchedLabels {
		s.forQuartetsWith(label, func(rank int, q qtree.Quartet) {
			if _, seen := d.benefits[rank]; seen {
				return
			}
			b := s.costs[rank].Benefit(s.pairingOf(t, q, d.rows))
			d.benefits[rank] = b
			d.sum += b - s.benefits[rank]
		})
	}

	d.Score = d.sum / float64(s.count)
	return d
}

// Commit folds an accepted delta into the mirrored state.
func (s *Scorer) Commit(d *Delta) {
	for rank, b := range d.benefits {
		s.benefits[rank] = b
	}
	for pos, row := range d.rows {
		copy(s.dist[pos], row)
		for q := 0; q < s.n; q++ {
			s.dist[q][pos] = row[q]
		}
	}
	s.sum = d.sum
}

// pairingOf derives the induced pairing of quartet q from the distance
// table, consulting override rows from an uncommitted delta first.
func (s *Scorer) pairingOf(t *qtree.Tree, q qtree.Quartet, rows map[int][]int) qtree.Pairing {
	pa, pb := t.LeafPos(q[0]), t.LeafPos(q[1])
	pc, pd := t.LeafPos(q[2]), t.LeafPos(q[3])

	lookup := func(p, r int) int {
		if row, ok := rows[p]; ok {
			return row[r]
		}
		if row, ok := rows[r]; ok {
			return row[p]
		}
		return s.dist[p][r]
	}

	return qtree.PairingFromSums(
		lookup(pa, pb)+lookup(pc, pd),
		lookup(pa, pc)+lookup(pb, pd),
		lookup(pa, pd)+lookup(pb, pc),
	)
}

// forQuartetsWith visits every quartet containing the given label along
// with its rank.
func (s *Scorer) forQuartetsWith(label int, fn func(rank int, q qtree.Quartet)) {
	for a := 0; a < s.n-2; a++ {
		if a == label {
			continue
		}
		for b := a + 1; b < s.n-1; b++ {
			if b == label {
				continue
			}
			for c := b + 1; c < s.n; c++ {
				if c == label {
					continue
				}
				q := sortedQuartet(label, a, b, c)
				fn(s.rank(q), q)
			}
		}
	}
}

// sortedQuartet inserts x into the ascending triple (a, b, c).
func sortedQuartet(x, a, b, c int) qtree.Quartet {
	switch {
	case x < a:
		return qtree.Quartet{x, a, b, c}
	case x < b:
		return qtree.Quartet{a, x, b, c}
	case x < c:
		return qtree.Quartet{a, b, x, c}
	default:
		return qtree.Quartet{a, b, c, x}
	}
}

// rank returns the lexicographic index of a sorted quartet, matching the
// iteration order of [qtree.ForEachQuartet].
func (s *Scorer) rank(q qtree.Quartet) int {
	n := s.n
	return s.binom[n][4] - s.binom[n-q[0]][4] +
		s.binom[n-1-q[0]][3] - s.binom[n-q[1]][3] +
		s.binom[n-1-q[1]][2] - s.binom[n-q[2]][2] +
		q[3] - q[2] - 1
}

// binomTable precomputes C(x,k) for x <= n, k <= 4.
func binomTable(n int) [][5]int {
	table := make([][5]int, n+1)
	for x := 0; x <= n; x++ {
		table[x][0] = 1
		for k := 1; k <= 4 && k <= x; k++ {
			if x == k {
				table[x][k] = 1
				continue
			}
			table[x][k] = table[x-1][k-1] + table[x-1][k]
		}
	}
	return table
}

// Score computes a tree's fitness in one call, without retaining state.
// Convenience wrapper over [NewScorer] and [Scorer.Bind] for callers that
// only need a single evaluation.
func Score(t *qtree.Tree, m *distmatrix.Matrix) (float64, error) {
	s, err := NewScorer(m)
	if err != nil {
		return 0, err
	}
	return s.Bind(t)
}
