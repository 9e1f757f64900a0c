package search

import (
	"bufio"
	"bytes"
	"context"
	stderrors "errors"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/dendro/pkg/distmatrix"
	"github.com/matzehuels/dendro/pkg/errors"
	"github.com/matzehuels/dendro/pkg/qtree"
)

// delegateSolver forwards the search to an external executable.
//
// Protocol: the matrix is written to a temporary file in the TSV form of
// [distmatrix.Matrix.WriteTSV] and its path appended to the configured
// arguments. The solver must print to stdout a line "score <float>"
// followed by one whitespace-separated edge per line, naming leaves by
// label and internal nodes arbitrarily (conventionally i0..i{n-3}).
//
// Any non-zero exit, missing executable, or unparseable output is fatal
// for the run - there is no fallback to local search. Cancelling the
// context kills the solver process.
type delegateSolver struct {
	path   string
	args   []string
	logger *log.Logger
}

func (d *delegateSolver) name() string { return StrategyDelegate }

func (d *delegateSolver) search(ctx context.Context, m *distmatrix.Matrix) (*Result, error) {
	tmp, err := os.CreateTemp("", "dendro-matrix-*.tsv")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "create matrix temp file")
	}
	defer os.Remove(tmp.Name())

	if err := m.WriteTSV(tmp); err != nil {
		tmp.Close()
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "write matrix to %s", tmp.Name())
	}
	if err := tmp.Close(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "close %s", tmp.Name())
	}

	args := append(append([]string{}, d.args...), tmp.Name())
	d.logger.Debug("invoking delegate solver", "path", d.path, "args", args)

	cmd := exec.CommandContext(ctx, d.path, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if stderrors.Is(err, exec.ErrNotFound) || os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeDelegateNotFound, err, "delegate solver %s", d.path)
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = "no stderr output"
		}
		return nil, errors.Wrap(errors.ErrCodeDelegateFailed, err, "delegate solver %s: %s", d.path, msg)
	}

	tree, reported, err := parseDelegateOutput(m.Labels(), stdout.Bytes())
	if err != nil {
		return nil, err
	}

	return &Result{
		Tree:     tree,
		Score:    reported,
		Worker:   -1,
		Strategy: StrategyDelegate,
	}, nil
}

// parseDelegateOutput decodes the solver's stdout: a score line followed
// by an edge list. The reconstructed tree is validated against the full
// structural invariants before it is accepted.
func parseDelegateOutput(labels []string, out []byte) (*qtree.Tree, float64, error) {
	var (
		edges     []qtree.Edge
		reported  float64
		haveScore bool
	)

	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if !haveScore {
			if len(fields) != 2 || fields[0] != "score" {
				return nil, 0, errors.New(errors.ErrCodeDelegateOutput, "expected score line, got %q", line)
			}
			v, err := strconv.ParseFloat(fields[1], 64)
			if err != nil {
				return nil, 0, errors.New(errors.ErrCodeDelegateOutput, "invalid score %q", fields[1])
			}
			if v < 0 || v > 1 {
				return nil, 0, errors.New(errors.ErrCodeDelegateOutput, "score %v outside [0,1]", v)
			}
			reported = v
			haveScore = true
			continue
		}

		if len(fields) != 2 {
			return nil, 0, errors.New(errors.ErrCodeDelegateOutput, "expected edge line, got %q", line)
		}
		edges = append(edges, qtree.Edge{From: fields[0], To: fields[1]})
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, errors.Wrap(errors.ErrCodeDelegateOutput, err, "read solver output")
	}
	if !haveScore {
		return nil, 0, errors.New(errors.ErrCodeDelegateOutput, "solver produced no output")
	}

	tree, err := qtree.FromEdges(labels, edges)
	if err != nil {
		return nil, 0, errors.Wrap(errors.ErrCodeDelegateOutput, err, "solver edge list is not a valid tree")
	}
	return tree, reported, nil
}
