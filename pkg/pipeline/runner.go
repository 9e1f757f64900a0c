package pipeline

import (
	"bytes"
	"context"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/dendro/pkg/cache"
	"github.com/matzehuels/dendro/pkg/distmatrix"
	"github.com/matzehuels/dendro/pkg/export"
	"github.com/matzehuels/dendro/pkg/observability"
	"github.com/matzehuels/dendro/pkg/qtree"
	"github.com/matzehuels/dendro/pkg/render"
	"github.com/matzehuels/dendro/pkg/search"
)

// cacheKeyResult is the key type reported to cache hooks.
const cacheKeyResult = "result"

// Runner encapsulates pipeline execution with caching.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// Execute runs the complete load → search → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	result := &Result{
		RunID:     uuid.NewString(),
		Artifacts: make(map[string][]byte),
	}

	// Stage 1: Load
	loadStart := time.Now()
	m, err := r.Load(opts)
	if err != nil {
		return nil, err
	}
	result.Stats.LoadTime = time.Since(loadStart)
	result.Stats.Leaves = m.Len()
	result.Stats.Quartets = qtree.QuartetCount(m.Len())
	result.MatrixHash = matrixHash(m)

	r.Logger.Info("loaded distance matrix",
		"leaves", result.Stats.Leaves,
		"quartets", result.Stats.Quartets,
		"duration", result.Stats.LoadTime)

	// Stage 2: Search
	searchStart := time.Now()
	res, searchHit, err := r.SearchWithCacheInfo(ctx, m, result.MatrixHash, opts)
	if err != nil {
		return nil, err
	}
	result.Search = res
	result.Stats.SearchTime = time.Since(searchStart)
	result.CacheInfo.SearchHit = searchHit

	r.Logger.Info("search complete",
		"strategy", res.Strategy,
		"score", res.Score,
		"cached", searchHit,
		"duration", result.Stats.SearchTime)

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, err := r.Render(res, opts)
	if err != nil {
		return nil, err
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Load reads and validates the distance matrix.
func (r *Runner) Load(opts Options) (*distmatrix.Matrix, error) {
	m := opts.Matrix
	if m == nil {
		var err error
		if m, err = distmatrix.ReadFile(opts.MatrixPath); err != nil {
			return nil, err
		}
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// SearchWithCacheInfo runs the configured search with caching and reports
// whether the result came from cache.
//
// Only reproducible runs are cached: an unseeded local search would pin
// an arbitrary outcome, so it always executes.
func (r *Runner) SearchWithCacheInfo(ctx context.Context, m *distmatrix.Matrix, hash string, opts Options) (*search.Result, bool, error) {
	keyOpts := cache.ResultKeyOpts{
		Strategy: opts.Search.Strategy,
		Jobs:     opts.Search.Jobs,
		Iters:    opts.Search.Iters,
		Seed:     opts.Search.Seed,
	}
	cacheable := keyOpts.Cacheable()
	cacheKey := r.Keyer.ResultKey(hash, keyOpts)

	if cacheable && !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			if res, err := decodeCached(data); err == nil {
				observability.Cache().OnCacheHit(ctx, cacheKeyResult)
				return res, true, nil
			}
			// Corrupt entry: drop it and recompute
			_ = r.Cache.Delete(ctx, cacheKey)
		}
		observability.Cache().OnCacheMiss(ctx, cacheKeyResult)
	}

	coord, err := search.New(opts.Search)
	if err != nil {
		return nil, false, err
	}
	res, err := coord.FitTransform(ctx, m)
	if err != nil {
		return nil, false, err
	}

	if cacheable {
		if data, err := export.Marshal(res); err == nil {
			if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLResult); err == nil {
				observability.Cache().OnCacheSet(ctx, cacheKeyResult, len(data))
			}
		}
	}
	return res, false, nil
}

// Render generates the requested artifacts for a search result.
func (r *Runner) Render(res *search.Result, opts Options) (map[string][]byte, error) {
	renderOpts := render.Options{ShowInternal: opts.ShowInternal}
	if opts.Caption {
		renderOpts.Caption = scoreCaption(res.Score)
	}

	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		switch format {
		case FormatJSON:
			data, err := export.Marshal(res)
			if err != nil {
				return nil, err
			}
			artifacts[format] = data
		case FormatDOT:
			artifacts[format] = []byte(render.ToDOT(res.Tree, renderOpts))
		case FormatSVG:
			data, err := render.RenderSVG(render.ToDOT(res.Tree, renderOpts))
			if err != nil {
				return nil, err
			}
			artifacts[format] = data
		case FormatPNG:
			data, err := render.RenderPNG(render.ToDOT(res.Tree, renderOpts))
			if err != nil {
				return nil, err
			}
			artifacts[format] = data
		}
	}
	return artifacts, nil
}

func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
		opts.Search.Logger = r.Logger
	}
}

// matrixHash returns the content hash of the matrix's canonical TSV
// encoding. Label sorting in the matrix makes the hash independent of
// input file ordering.
func matrixHash(m *distmatrix.Matrix) string {
	var buf bytes.Buffer
	_ = m.WriteTSV(&buf)
	return cache.Hash(buf.Bytes())
}

// decodeCached reconstructs a search result from a cached document.
func decodeCached(data []byte) (*search.Result, error) {
	doc, err := export.Read(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	tree, err := doc.Tree()
	if err != nil {
		return nil, err
	}
	return &search.Result{
		Tree:     tree,
		Score:    doc.Score,
		Worker:   -1,
		Strategy: doc.Strategy,
	}, nil
}

// scoreCaption formats a score for image captions.
func scoreCaption(score float64) string {
	return "S(T) = " + strconv.FormatFloat(score, 'f', 4, 64)
}
