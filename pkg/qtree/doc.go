// Package qtree provides the unrooted binary tree at the heart of the
// quartet tree search.
//
// # Overview
//
// The search space of the Minimum Quartet Tree Cost problem is the set of
// unrooted binary trees over a fixed leaf set: n leaves of degree 1 joined
// through exactly n-2 internal nodes of degree 3, connected and acyclic,
// for n >= 4. This package owns that representation together with the
// operations the hill-climbing search needs:
//
//   - random construction of a valid initial topology ([NewRandom])
//   - the topology query that maps a quartet of leaves to the one pairing
//     the tree induces for it ([Tree.InducedPairing])
//   - the two structure-preserving mutation operators ([Tree.LeafSwap],
//     [Tree.SubtreeSwap]) and the uniform mutation policy
//     ([Tree.RandomMutation])
//
// # Ownership
//
// A Tree is owned by exactly one search worker at a time. Trees are copied
// with [Tree.Clone] when handed between workers or returned as results -
// never shared. None of the methods are safe for concurrent use on the
// same instance.
//
// # Determinism
//
// All randomized operations take a *rand.Rand supplied by the caller, so a
// fixed seed reproduces the exact same construction and mutation sequence.
package qtree
