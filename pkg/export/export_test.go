package export

import (
	"bytes"
	"math/rand"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/dendro/pkg/errors"
	"github.com/matzehuels/dendro/pkg/qtree"
	"github.com/matzehuels/dendro/pkg/search"
)

func testResult(t *testing.T, n int, seed int64) *search.Result {
	t.Helper()
	labels := make([]string, n)
	for i := range labels {
		labels[i] = string(rune('a' + i))
	}
	tree, err := qtree.NewRandom(labels, rand.New(rand.NewSource(seed)))
	if err != nil {
		t.Fatal(err)
	}
	return &search.Result{Tree: tree, Score: 0.875, Worker: 2, Strategy: search.StrategyLocalSearch}
}

func TestRoundTrip(t *testing.T) {
	res := testResult(t, 7, 11)

	data, err := Marshal(res)
	if err != nil {
		t.Fatal(err)
	}
	doc, err := Read(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if doc.Score != res.Score {
		t.Fatalf("score = %v, want %v", doc.Score, res.Score)
	}
	if doc.Strategy != search.StrategyLocalSearch {
		t.Fatalf("strategy = %q", doc.Strategy)
	}

	tree, err := doc.Tree()
	if err != nil {
		t.Fatal(err)
	}
	want, got := res.Tree.Edges(), tree.Edges()
	if len(want) != len(got) {
		t.Fatalf("edge counts differ: %d vs %d", len(want), len(got))
	}
	for i := range want {
		if want[i] != got[i] {
			t.Fatalf("edge %d differs: %v vs %v", i, want[i], got[i])
		}
	}
}

func TestDeterministicBytes(t *testing.T) {
	res := testResult(t, 6, 5)

	d1, err := Marshal(res)
	if err != nil {
		t.Fatal(err)
	}
	d2, err := Marshal(res)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(d1, d2) {
		t.Fatal("marshaling the same result twice produced different bytes")
	}
}

func TestFileRoundTrip(t *testing.T) {
	res := testResult(t, 5, 3)
	path := filepath.Join(t.TempDir(), "result.json")

	if err := WriteFile(res, path); err != nil {
		t.Fatal(err)
	}
	doc, err := ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := doc.Tree(); err != nil {
		t.Fatal(err)
	}
}

func TestReadFileMissing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "nope.json"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Fatalf("error = %v, want FILE_NOT_FOUND", err)
	}
}

func TestReadMalformed(t *testing.T) {
	if _, err := Read(strings.NewReader("{not json")); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Fatalf("error = %v, want INVALID_FORMAT", err)
	}
}

func TestDocumentTreeValidation(t *testing.T) {
	res := testResult(t, 5, 3)
	doc := FromResult(res)

	bad := doc
	bad.Score = 1.5
	if _, err := bad.Tree(); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Fatalf("error = %v, want INVALID_FORMAT for out-of-range score", err)
	}

	bad = doc
	bad.Edges = doc.Edges[:len(doc.Edges)-1]
	if _, err := bad.Tree(); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Fatalf("error = %v, want INVALID_FORMAT for truncated edge list", err)
	}
}
