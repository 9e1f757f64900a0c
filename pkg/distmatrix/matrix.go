// Package distmatrix provides the pairwise distance matrix consumed by the
// quartet tree search.
//
// A Matrix maps ordered pairs of distinct object labels to non-negative
// distances. The matrix is produced entirely by an external collaborator
// (compression distance, web distance, sketch distance); dendro only
// validates and reads it. After [Matrix.Validate] succeeds the matrix is
// treated as read-only for the lifetime of a search, which makes it safe to
// share across parallel workers without synchronization.
//
// # Basic Usage
//
// Create a matrix over a fixed label set with [New], fill it with
// [Matrix.Set] (both directions must be set), then validate:
//
//	m, _ := distmatrix.New([]string{"a", "b", "c", "d"})
//	m.Set("a", "b", 0.1)
//	m.Set("b", "a", 0.1)
//	// ... remaining pairs ...
//	if err := m.Validate(); err != nil {
//	    return err
//	}
//
// Labels are kept in sorted order so index-based access (used by the scorer
// hot path) is deterministic across runs.
package distmatrix

import (
	"math"
	"slices"

	"github.com/matzehuels/dendro/pkg/errors"
)

// cell is one directed distance entry. set distinguishes an explicit zero
// distance from a missing entry.
type cell struct {
	value float64
	set   bool
}

// Matrix holds pairwise distances over a fixed, sorted label set.
//
// The zero value is not usable - use New to create a Matrix. Matrix is not
// safe for concurrent mutation; once validated it must no longer be written.
type Matrix struct {
	labels []string
	index  map[string]int
	cells  [][]cell
}

// New creates an empty matrix over the given labels.
// Labels are sorted internally; duplicates and empty labels are rejected
// with an INVALID_MATRIX error.
func New(labels []string) (*Matrix, error) {
	if len(labels) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidMatrix, "label set is empty")
	}

	sorted := slices.Clone(labels)
	slices.Sort(sorted)

	index := make(map[string]int, len(sorted))
	for i, l := range sorted {
		if l == "" {
			return nil, errors.New(errors.ErrCodeInvalidMatrix, "empty label at position %d", i)
		}
		if _, dup := index[l]; dup {
			return nil, errors.New(errors.ErrCodeInvalidMatrix, "duplicate label %q", l)
		}
		index[l] = i
	}

	cells := make([][]cell, len(sorted))
	for i := range cells {
		cells[i] = make([]cell, len(sorted))
	}

	return &Matrix{labels: sorted, index: index, cells: cells}, nil
}

// Len returns the number of labels (leaves) covered by the matrix.
func (m *Matrix) Len() int { return len(m.labels) }

// Labels returns the sorted label set as a copy.
func (m *Matrix) Labels() []string { return slices.Clone(m.labels) }

// Index returns the sorted position of a label and whether it exists.
func (m *Matrix) Index(label string) (int, bool) {
	i, ok := m.index[label]
	return i, ok
}

// Label returns the label at sorted position i.
// Panics if i is out of range, like a slice access.
func (m *Matrix) Label(i int) string { return m.labels[i] }

// Set records the directed distance from a to b.
// Both directions must be set for the matrix to validate. Returns an
// INVALID_MATRIX error for unknown labels, self-pairs, negative or
// non-finite distances.
func (m *Matrix) Set(a, b string, d float64) error {
	i, ok := m.index[a]
	if !ok {
		return errors.New(errors.ErrCodeInvalidMatrix, "unknown label %q", a)
	}
	j, ok := m.index[b]
	if !ok {
		return errors.New(errors.ErrCodeInvalidMatrix, "unknown label %q", b)
	}
	if i == j {
		return errors.New(errors.ErrCodeInvalidMatrix, "self-distance entry for %q", a)
	}
	if d < 0 || math.IsNaN(d) || math.IsInf(d, 0) {
		return errors.New(errors.ErrCodeInvalidMatrix, "distance %s-%s must be a non-negative finite number, got %v", a, b, d)
	}
	m.cells[i][j] = cell{value: d, set: true}
	return nil
}

// Distance returns the distance between two labels.
// Returns a MISSING_DISTANCE error when the entry was never set - the
// caller must abort rather than substitute a default.
func (m *Matrix) Distance(a, b string) (float64, error) {
	i, ok := m.index[a]
	if !ok {
		return 0, errors.New(errors.ErrCodeMissingDistance, "unknown label %q", a)
	}
	j, ok := m.index[b]
	if !ok {
		return 0, errors.New(errors.ErrCodeMissingDistance, "unknown label %q", b)
	}
	return m.DistanceAt(i, j)
}

// DistanceAt returns the distance between the labels at sorted positions
// i and j. This is the scorer's hot path; it performs no map lookups.
func (m *Matrix) DistanceAt(i, j int) (float64, error) {
	c := m.cells[i][j]
	if !c.set {
		return 0, errors.New(errors.ErrCodeMissingDistance,
			"no distance entry for (%s, %s)", m.labels[i], m.labels[j])
	}
	return c.value, nil
}

// Validate checks the matrix invariants required by the tree search:
//
//  1. Every off-diagonal pair has entries in both directions (completeness)
//  2. d(a,b) == d(b,a) for every pair (symmetry)
//
// Returns an INVALID_MATRIX or ASYMMETRIC_MATRIX error naming the first
// offending pair. Non-negativity is enforced at Set time.
func (m *Matrix) Validate() error {
	n := len(m.labels)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			fwd, bwd := m.cells[i][j], m.cells[j][i]
			if !fwd.set || !bwd.set {
				return errors.New(errors.ErrCodeInvalidMatrix,
					"incomplete matrix: no entry for (%s, %s)", m.labels[i], m.labels[j])
			}
			if fwd.value != bwd.value {
				return errors.New(errors.ErrCodeAsymmetricMatrix,
					"asymmetric entry: d(%s, %s)=%v but d(%s, %s)=%v",
					m.labels[i], m.labels[j], fwd.value,
					m.labels[j], m.labels[i], bwd.value)
			}
		}
	}
	return nil
}
