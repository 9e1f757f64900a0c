// Package pipeline provides the core load → search → render pipeline.
//
// This package implements the complete run that the CLI exposes: read a
// distance matrix, search for the best-scoring tree, and render output
// artifacts. Centralizing it keeps caching and validation behavior
// identical across entry points.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: Read and validate the distance matrix
//  2. Search: Run the configured search strategy (cached when reproducible)
//  3. Render: Generate output artifacts (JSON, DOT, SVG, PNG)
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    MatrixPath: "distances.tsv",
//	    Formats:    []string{"json", "svg"},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/dendro/pkg/distmatrix"
	"github.com/matzehuels/dendro/pkg/errors"
	"github.com/matzehuels/dendro/pkg/search"
)

// =============================================================================
// Defaults and Formats - Single Source of Truth for CLI Entry Points
// =============================================================================

// Format constants for output artifacts.
const (
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
	FormatPNG  = "png"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatJSON: true,
	FormatDOT:  true,
	FormatSVG:  true,
	FormatPNG:  true,
}

// DefaultFormats are produced when the caller requests none.
var DefaultFormats = []string{FormatJSON}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidOptions, "invalid format: %q (must be one of: json, dot, svg, png)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for a pipeline run.
type Options struct {
	// MatrixPath is the distance matrix file to load. Ignored when
	// Matrix is set directly.
	MatrixPath string `json:"matrix_path,omitempty"`

	// Matrix is an already-loaded matrix, used by callers that parse
	// input themselves.
	Matrix *distmatrix.Matrix `json:"-"`

	// Search configures the search strategy.
	Search search.Options `json:"search"`

	// Formats are the artifacts to render. Defaults to DefaultFormats.
	Formats []string `json:"formats,omitempty"`

	// Caption adds the score as a caption to rendered images.
	Caption bool `json:"caption,omitempty"`

	// ShowInternal labels internal nodes in rendered images.
	ShowInternal bool `json:"show_internal,omitempty"`

	// Refresh bypasses the cache on read. The fresh result is still
	// written back.
	Refresh bool `json:"refresh,omitempty"`

	// Logger receives structured progress output.
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// ValidateAndSetDefaults checks required fields and applies defaults.
// This method is idempotent - calling it multiple times has the same
// effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Matrix == nil && o.MatrixPath == "" {
		return errors.New(errors.ErrCodeInvalidOptions, "either a matrix or a matrix path is required")
	}
	if len(o.Formats) == 0 {
		o.Formats = DefaultFormats
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.Logger == nil {
		o.Logger = log.Default()
	}
	o.Search.Logger = o.Logger
	if err := o.Search.ValidateAndSetDefaults(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// =============================================================================
// Result - Pipeline Outputs
// =============================================================================

// Result contains the outputs of a pipeline run.
type Result struct {
	// RunID uniquely identifies this execution.
	RunID string

	// Search is the winning tree and score.
	Search *search.Result

	// MatrixHash is the content hash of the canonical matrix encoding.
	MatrixHash string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks whether the search came from cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Leaves     int
	Quartets   int
	LoadTime   time.Duration
	SearchTime time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits.
type CacheInfo struct {
	SearchHit bool // Whether the search result came from cache
}

