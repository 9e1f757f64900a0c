// Package search coordinates the randomized local search that turns a
// distance matrix into a quartet tree.
//
// # Overview
//
// Quartet tree optimization is NP-hard, so the engine does not promise a
// global optimum. Instead, [Coordinator.FitTransform] runs one or more
// independent [HillClimb] workers - each owning a private tree, scorer,
// and seeded random source - and keeps the best result. Workers never
// communicate during a run; the only synchronization point is the final
// join, where results are reduced by maximum score with ties broken by
// worker index, so the outcome never depends on wall-clock arrival order.
//
// # Strategies
//
// Two strategies share the (tree, score) result contract and are selected
// once at coordinator construction:
//
//   - local-search: the in-process hill climb described above
//   - delegate: hand the matrix to an external solver executable and
//     adapt its output; the solver owns its own search policy
//
// # Determinism
//
// Worker i derives its seed as baseSeed + i. Given the same matrix,
// worker count, iteration budget, and base seed, two invocations produce
// identical trees and scores. When no seed is supplied a time-derived
// base seed keeps workers distinct but reproducibility is up to the
// caller to capture.
package search
