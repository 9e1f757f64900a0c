package search

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/dendro/pkg/distmatrix"
	"github.com/matzehuels/dendro/pkg/errors"
	"github.com/matzehuels/dendro/pkg/observability"
	"github.com/matzehuels/dendro/pkg/qtree"
)

// Result is the outcome of a coordinated search: the output contract
// handed to the visualization collaborator.
type Result struct {
	// Tree is the best tree found. The caller owns it outright.
	Tree *qtree.Tree

	// Score is the tree's fitness in [0,1].
	Score float64

	// Worker is the index of the winning hill-climb worker, or -1 when
	// the delegate strategy produced the result.
	Worker int

	// Strategy names the strategy that produced the result.
	Strategy string
}

// strategy is the internal search contract shared by the local-search and
// delegate implementations. The variant is picked once at coordinator
// construction, never re-dispatched inside the search loop.
type strategy interface {
	name() string
	search(ctx context.Context, m *distmatrix.Matrix) (*Result, error)
}

// Coordinator validates inputs, runs the configured strategy, and reduces
// worker results deterministically.
type Coordinator struct {
	opts  Options
	strat strategy
}

// New creates a coordinator for the given options.
// Options are validated and defaulted here; the strategy variant is fixed
// for the coordinator's lifetime.
func New(opts Options) (*Coordinator, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	c := &Coordinator{opts: opts}
	switch opts.Strategy {
	case StrategyDelegate:
		c.strat = &delegateSolver{
			path:   opts.DelegatePath,
			args:   opts.DelegateArgs,
			logger: opts.Logger,
		}
	default:
		c.strat = &localSearch{opts: opts}
	}
	return c, nil
}

// FitTransform runs the search over a validated matrix and returns the
// best (tree, score) pair.
//
// Precondition violations (invalid or undersized matrix) fail before any
// worker starts. Individual worker failures are tolerated as long as one
// worker succeeds; context cancellation aborts every worker uniformly.
func (c *Coordinator) FitTransform(ctx context.Context, m *distmatrix.Matrix) (*Result, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if m.Len() < qtree.MinLeaves {
		return nil, errors.New(errors.ErrCodeTooFewLeaves, "need at least %d leaves, got %d", qtree.MinLeaves, m.Len())
	}

	start := time.Now()
	observability.Search().OnSearchStart(ctx, c.strat.name(), m.Len())

	res, err := c.strat.search(ctx, m)

	var scoreOut float64
	if res != nil {
		scoreOut = res.Score
	}
	observability.Search().OnSearchComplete(ctx, c.strat.name(), scoreOut, time.Since(start), err)
	return res, err
}

// =============================================================================
// Local-Search Strategy
// =============================================================================

// localSearch fans out independent hill-climb workers and reduces by
// maximum score with worker-index tie-breaking.
type localSearch struct {
	opts Options
}

func (s *localSearch) name() string { return StrategyLocalSearch }

// workerSlot is one worker's private result cell. Workers never share
// state; each writes exactly its own slot before the final join.
type workerSlot struct {
	tree     *qtree.Tree
	score    float64
	duration time.Duration
	err      error
}

func (s *localSearch) search(ctx context.Context, m *distmatrix.Matrix) (*Result, error) {
	base := s.baseSeed()
	slots := make([]workerSlot, s.opts.Jobs)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < s.opts.Jobs; i++ {
		g.Go(func() error {
			slot := &slots[i]
			start := time.Now()

			hc, err := NewHillClimb(m, s.opts.Iters, base+int64(i))
			if err == nil {
				slot.tree, slot.score, err = hc.Run(gctx)
			}
			slot.duration = time.Since(start)
			slot.err = err

			observability.Search().OnWorkerComplete(gctx, i, slot.score, s.opts.Iters, slot.duration, err)
			if err != nil {
				s.opts.Logger.Warn("search worker failed", "worker", i, "err", err)
			} else {
				s.opts.Logger.Debug("search worker converged",
					"worker", i,
					"seed", base+int64(i),
					"score", slot.score,
					"duration", slot.duration)
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Reduce by maximum score. Strict comparison keeps the lowest worker
	// index on ties, so the winner never depends on arrival order.
	winner := -1
	for i := range slots {
		if slots[i].err != nil {
			continue
		}
		if winner < 0 || slots[i].score > slots[winner].score {
			winner = i
		}
	}
	if winner < 0 {
		return nil, errors.Wrap(errors.ErrCodeSearchFailed, slots[0].err, "all %d workers failed", s.opts.Jobs)
	}

	return &Result{
		Tree:     slots[winner].tree,
		Score:    slots[winner].score,
		Worker:   winner,
		Strategy: StrategyLocalSearch,
	}, nil
}

// baseSeed returns the configured base seed, or a time-derived one when
// the caller supplied none. Workers always add their index, so derived
// seeds stay distinct either way.
func (s *localSearch) baseSeed() int64 {
	if s.opts.Seed != nil {
		return *s.opts.Seed
	}
	return time.Now().UnixNano()
}
