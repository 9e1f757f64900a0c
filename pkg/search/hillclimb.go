package search

import (
	"context"
	"math/rand"

	"github.com/matzehuels/dendro/pkg/distmatrix"
	"github.com/matzehuels/dendro/pkg/errors"
	"github.com/matzehuels/dendro/pkg/qtree"
	"github.com/matzehuels/dendro/pkg/score"
)

// State is the hill climb's lifecycle state. Transitions run strictly
// forward: INITIALIZED -> RUNNING -> CONVERGED.
type State int

const (
	// StateInitialized means the climb holds a scored random start tree
	// and has not consumed any of its budget.
	StateInitialized State = iota
	// StateRunning means Run is consuming the iteration budget.
	StateRunning
	// StateConverged is the terminal state, reached on budget exhaustion -
	// never by detecting a local optimum.
	StateConverged
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateInitialized:
		return "initialized"
	case StateRunning:
		return "running"
	default:
		return "converged"
	}
}

// HillClimb is a single-worker randomized local search over tree space.
//
// Each iteration clones the current best tree, applies one random
// mutation, and scores the candidate incrementally. Only strict
// improvements are accepted; ties are rejected so no-op moves cannot
// masquerade as progress. The climb owns its tree, scorer, and random
// source outright - nothing is shared with other workers.
type HillClimb struct {
	scorer *score.Scorer
	rng    *rand.Rand
	iters  int

	state   State
	best    *qtree.Tree
	score   float64
	history []float64
}

// NewHillClimb builds a climb with a seeded random start tree.
// Fails immediately with TOO_FEW_LEAVES when the matrix covers fewer than
// 4 labels, and with MISSING_DISTANCE when the matrix has gaps - both
// before any search work happens.
func NewHillClimb(m *distmatrix.Matrix, iters int, seed int64) (*HillClimb, error) {
	if iters <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidOptions, "iteration budget must be positive, got %d", iters)
	}

	scorer, err := score.NewScorer(m)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(seed))
	tree, err := qtree.NewRandom(m.Labels(), rng)
	if err != nil {
		return nil, err
	}

	s, err := scorer.Bind(tree)
	if err != nil {
		return nil, err
	}

	return &HillClimb{
		scorer: scorer,
		rng:    rng,
		iters:  iters,
		best:   tree,
		score:  s,
	}, nil
}

// State returns the current lifecycle state.
func (h *HillClimb) State() State { return h.state }

// Best returns the current best tree and score. After Run has returned
// the tree is final; before that it is the scored random start.
func (h *HillClimb) Best() (*qtree.Tree, float64) { return h.best, h.score }

// History returns the best score recorded after each iteration. The
// sequence is monotonically non-decreasing by construction.
func (h *HillClimb) History() []float64 { return h.history }

// Run consumes the full iteration budget and returns the best tree found.
// It can be called once; the climb then rests in StateConverged. The
// context is checked each iteration so a caller-supplied timeout or
// cancellation aborts promptly.
func (h *HillClimb) Run(ctx context.Context) (*qtree.Tree, float64, error) {
	if h.state != StateInitialized {
		return nil, 0, errors.New(errors.ErrCodeSearchFailed, "hill climb already %s", h.state)
	}
	h.state = StateRunning
	h.history = make([]float64, 0, h.iters)

	for i := 0; i < h.iters; i++ {
		if err := ctx.Err(); err != nil {
			h.state = StateConverged
			return nil, 0, err
		}

		candidate := h.best.Clone()
		mut := candidate.RandomMutation(h.rng)
		delta := h.scorer.ScoreMutated(candidate, mut)

		// Strict improvement only: accepting ties would let no-op moves
		// plateau the climb.
		if delta.Score > h.score {
			h.scorer.Commit(delta)
			h.best = candidate
			h.score = delta.Score
		}
		h.history = append(h.history, h.score)
	}

	h.state = StateConverged
	return h.best, h.score, nil
}
