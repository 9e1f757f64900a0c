package search

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/matzehuels/dendro/pkg/errors"
)

// writeStubSolver drops an executable shell script into a temp dir.
func writeStubSolver(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("stub solver scripts need a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "solver")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDelegateRoundTrip(t *testing.T) {
	// The stub checks it actually received a readable matrix file, then
	// emits a fixed 4-leaf tree.
	stub := writeStubSolver(t, `
[ -r "$1" ] || exit 3
echo "score 0.75"
echo "a i0"
echo "b i0"
echo "i0 i1"
echo "c i1"
echo "d i1"
`)

	c, err := New(Options{Strategy: StrategyDelegate, DelegatePath: stub})
	if err != nil {
		t.Fatal(err)
	}
	res, err := c.FitTransform(context.Background(), pairMatrix(t))
	if err != nil {
		t.Fatal(err)
	}
	if res.Score != 0.75 {
		t.Fatalf("score = %v, want 0.75", res.Score)
	}
	if res.Worker != -1 {
		t.Fatalf("worker = %d, want -1", res.Worker)
	}
	if res.Strategy != StrategyDelegate {
		t.Fatalf("strategy = %q", res.Strategy)
	}
	if err := res.Tree.Validate(); err != nil {
		t.Fatalf("reconstructed tree invalid: %v", err)
	}
}

func TestDelegateForwardsArgs(t *testing.T) {
	stub := writeStubSolver(t, `
[ "$1" = "--fast" ] || exit 3
echo "score 1.0"
echo "a i0"
echo "b i0"
echo "i0 i1"
echo "c i1"
echo "d i1"
`)

	c, err := New(Options{
		Strategy:     StrategyDelegate,
		DelegatePath: stub,
		DelegateArgs: []string{"--fast"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.FitTransform(context.Background(), pairMatrix(t)); err != nil {
		t.Fatal(err)
	}
}

func TestDelegateNotFound(t *testing.T) {
	c, err := New(Options{
		Strategy:     StrategyDelegate,
		DelegatePath: filepath.Join(t.TempDir(), "missing-solver"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.FitTransform(context.Background(), pairMatrix(t)); !errors.Is(err, errors.ErrCodeDelegateNotFound) {
		t.Fatalf("error = %v, want DELEGATE_NOT_FOUND", err)
	}
}

func TestDelegateNonZeroExit(t *testing.T) {
	stub := writeStubSolver(t, `
echo "matrix rejected" >&2
exit 2
`)

	c, err := New(Options{Strategy: StrategyDelegate, DelegatePath: stub})
	if err != nil {
		t.Fatal(err)
	}
	_, err = c.FitTransform(context.Background(), pairMatrix(t))
	if !errors.Is(err, errors.ErrCodeDelegateFailed) {
		t.Fatalf("error = %v, want DELEGATE_FAILED", err)
	}
}

func TestParseDelegateOutput(t *testing.T) {
	labels := []string{"a", "b", "c", "d"}
	valid := "score 0.5\na i0\nb i0\ni0 i1\nc i1\nd i1\n"

	tests := []struct {
		name    string
		out     string
		wantErr bool
	}{
		{name: "Valid", out: valid},
		{name: "CommentsAndBlanks", out: "# solver v2\n\n" + valid},
		{name: "Empty", out: "", wantErr: true},
		{name: "MissingScoreLine", out: "a i0\nb i0\n", wantErr: true},
		{name: "ScoreNotFloat", out: "score best\n", wantErr: true},
		{name: "ScoreOutOfRange", out: "score 1.5\n" + valid[10:], wantErr: true},
		{name: "MalformedEdge", out: "score 0.5\na i0 i1\n", wantErr: true},
		{name: "UnknownLeaf", out: "score 0.5\nz i0\nb i0\ni0 i1\nc i1\nd i1\n", wantErr: true},
		{name: "NotATree", out: "score 0.5\na i0\nb i0\nc i1\nd i1\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree, score, err := parseDelegateOutput(labels, []byte(tt.out))
			if tt.wantErr {
				if !errors.Is(err, errors.ErrCodeDelegateOutput) {
					t.Fatalf("error = %v, want DELEGATE_OUTPUT", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if score != 0.5 {
				t.Fatalf("score = %v, want 0.5", score)
			}
			if err := tree.Validate(); err != nil {
				t.Fatalf("tree invalid: %v", err)
			}
		})
	}
}
