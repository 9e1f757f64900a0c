package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/dendro/pkg/pipeline"
	"github.com/matzehuels/dendro/pkg/search"
)

// buildCommand creates the build command, the main entry point.
func (c *CLI) buildCommand() *cobra.Command {
	var (
		jobs         int
		iters        int
		seed         int64
		strategy     string
		delegate     string
		delegateArgs []string
		formatsStr   string
		output       string
		noCache      bool
		refresh      bool
		caption      bool
		showInternal bool
	)

	cmd := &cobra.Command{
		Use:   "build [matrix]",
		Short: "Search for the best-scoring tree for a distance matrix",
		Long: `Search for the best-scoring tree for a distance matrix.

The build command reads a distance matrix (TSV, PHYLIP-style, or JSON),
runs parallel hill-climb workers over the space of unrooted binary trees,
and writes the best tree found. Scores are in [0,1]; 1.0 means every
four-leaf subset of the tree agrees with the input distances.

Seeded runs are reproducible and their results are cached locally. Use
--strategy delegate with --delegate to hand the search to an external
solver instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := pipeline.Options{
				MatrixPath:   args[0],
				Formats:      parseFormats(formatsStr),
				Caption:      caption,
				ShowInternal: showInternal,
				Refresh:      refresh,
				Logger:       c.Logger,
				Search: search.Options{
					Jobs:         jobs,
					Iters:        iters,
					Strategy:     strategy,
					DelegatePath: delegate,
					DelegateArgs: delegateArgs,
				},
			}
			if cmd.Flags().Changed("seed") {
				opts.Search.Seed = &seed
			}
			c.applyConfigDefaults(cmd, &opts)

			return c.runBuild(cmd.Context(), args[0], opts, output, noCache)
		},
	}

	cmd.Flags().IntVarP(&jobs, "jobs", "j", 0, "parallel search workers (default: number of CPUs)")
	cmd.Flags().IntVarP(&iters, "iters", "n", 0, fmt.Sprintf("mutation budget per worker (default: %d)", search.DefaultIters))
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed for reproducible runs")
	cmd.Flags().StringVar(&strategy, "strategy", search.StrategyLocalSearch, "search strategy: local-search, delegate")
	cmd.Flags().StringVar(&delegate, "delegate", "", "external solver executable (delegate strategy)")
	cmd.Flags().StringArrayVar(&delegateArgs, "delegate-arg", nil, "extra argument for the external solver (repeatable)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): json (default), dot, svg, png (comma-separated)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable result caching")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "recompute even if a cached result exists")
	cmd.Flags().BoolVar(&caption, "caption", false, "add the score as a caption to rendered images")
	cmd.Flags().BoolVar(&showInternal, "show-internal", false, "label internal nodes in rendered images")

	return cmd
}

// applyConfigDefaults fills in search options from the config file for
// flags the user did not set explicitly.
func (c *CLI) applyConfigDefaults(cmd *cobra.Command, opts *pipeline.Options) {
	if !cmd.Flags().Changed("jobs") && c.Config.Search.Jobs > 0 {
		opts.Search.Jobs = c.Config.Search.Jobs
	}
	if !cmd.Flags().Changed("iters") && c.Config.Search.Iters > 0 {
		opts.Search.Iters = c.Config.Search.Iters
	}
	if opts.Search.Strategy == search.StrategyDelegate {
		if opts.Search.DelegatePath == "" {
			opts.Search.DelegatePath = c.Config.Delegate.Path
		}
		if len(opts.Search.DelegateArgs) == 0 {
			opts.Search.DelegateArgs = c.Config.Delegate.Args
		}
	}
}

// runBuild executes the pipeline and writes the artifacts.
func (c *CLI) runBuild(ctx context.Context, input string, opts pipeline.Options, output string, noCache bool) error {
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return err
	}
	defer runner.Cache.Close()

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Building tree from %s...", filepath.Base(input)))
	spinner.Start()

	result, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Build failed")
		return err
	}
	spinner.Stop()

	printSuccess("Built tree from %s", filepath.Base(input))
	printScore(result.Search.Score)
	printStats(result.Stats.Leaves, result.Stats.Quartets, result.CacheInfo.SearchHit)

	return writeArtifacts(result.Artifacts, opts.Formats, input, output)
}

// writeArtifacts writes rendered artifacts next to the input file unless
// an explicit output path is given. With a single format and an output
// path the artifact goes exactly there; otherwise the format is appended
// as extension.
func writeArtifacts(artifacts map[string][]byte, formats []string, input, output string) error {
	base := output
	if base == "" {
		base = strings.TrimSuffix(input, filepath.Ext(input))
	}

	for _, format := range formats {
		path := base + "." + format
		if output != "" && len(formats) == 1 {
			path = output
		}
		if err := os.WriteFile(path, artifacts[format], 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printFile(path)
	}
	return nil
}
