package search

import (
	"runtime"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/dendro/pkg/errors"
)

// Strategy names accepted by [Options].
const (
	StrategyLocalSearch = "local-search"
	StrategyDelegate    = "delegate"
)

// Default budgets applied by [Options.ValidateAndSetDefaults].
const (
	// DefaultIters is the per-worker mutation budget.
	DefaultIters = 1000
)

// Options configures a [Coordinator].
//
// The zero value plus ValidateAndSetDefaults yields a local search with
// one worker per CPU and the default iteration budget. All configuration
// is explicit here - including the delegate executable path - so there is
// no ambient global state and the delegate strategy is testable with a
// stub executable.
type Options struct {
	// Jobs is the number of independent hill-climb workers.
	// Defaults to runtime.NumCPU(). Ignored by the delegate strategy.
	Jobs int

	// Iters is the per-worker iteration budget. Each worker runs exactly
	// this many mutations; the search stops on budget exhaustion, never on
	// detecting a local optimum. Defaults to DefaultIters. Ignored by the
	// delegate strategy.
	Iters int

	// Seed is the optional base random seed. Worker i runs with Seed+i.
	// When nil, a time-derived base seed is chosen so workers are still
	// distinct and results non-degenerate.
	Seed *int64

	// Strategy selects the search implementation: StrategyLocalSearch
	// (default) or StrategyDelegate.
	Strategy string

	// DelegatePath is the external solver executable, required by the
	// delegate strategy.
	DelegatePath string

	// DelegateArgs are extra arguments placed before the matrix file path.
	DelegateArgs []string

	// Logger receives structured progress output. Defaults to log.Default().
	Logger *log.Logger
}

// ValidateAndSetDefaults normalizes the options in place.
// Returns an INVALID_OPTIONS error for non-positive explicit budgets, an
// unknown strategy, or a delegate strategy without an executable path.
func (o *Options) ValidateAndSetDefaults() error {
	if o.Jobs < 0 {
		return errors.New(errors.ErrCodeInvalidOptions, "jobs must be positive, got %d", o.Jobs)
	}
	if o.Jobs == 0 {
		o.Jobs = runtime.NumCPU()
	}

	if o.Iters < 0 {
		return errors.New(errors.ErrCodeInvalidOptions, "iters must be positive, got %d", o.Iters)
	}
	if o.Iters == 0 {
		o.Iters = DefaultIters
	}

	switch o.Strategy {
	case "":
		o.Strategy = StrategyLocalSearch
	case StrategyLocalSearch:
	case StrategyDelegate:
		if o.DelegatePath == "" {
			return errors.New(errors.ErrCodeInvalidOptions, "delegate strategy requires an executable path")
		}
	default:
		return errors.New(errors.ErrCodeInvalidOptions, "unknown strategy %q", o.Strategy)
	}

	if o.Logger == nil {
		o.Logger = log.Default()
	}
	return nil
}
