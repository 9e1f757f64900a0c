// Package export defines the canonical JSON format for scored trees.
//
// The format is human-readable and designed for round-trip fidelity:
// search → export → re-import produces an identical tree and score. It is
// also the payload stored by the result cache, so changing a field here
// invalidates previously cached runs.
package export

import (
	"bytes"
	"encoding/json"
	"io"
	"os"

	"github.com/matzehuels/dendro/pkg/errors"
	"github.com/matzehuels/dendro/pkg/qtree"
	"github.com/matzehuels/dendro/pkg/search"
)

// =============================================================================
// Document - Scored Tree Serialization
// =============================================================================

// Document is the canonical serialization format for a search result.
// Leaf labels are sorted and edges follow the deterministic order of
// [qtree.Tree.Edges], so equal trees serialize to equal bytes.
type Document struct {
	Labels   []string     `json:"labels"`
	Internal []string     `json:"internal"`
	Edges    []qtree.Edge `json:"edges"`
	Score    float64      `json:"score"`
	Strategy string       `json:"strategy,omitempty"`
}

// FromResult converts a search result to its serialization format.
func FromResult(res *search.Result) Document {
	return Document{
		Labels:   res.Tree.Labels(),
		Internal: res.Tree.InternalNames(),
		Edges:    res.Tree.Edges(),
		Score:    res.Score,
		Strategy: res.Strategy,
	}
}

// Tree reconstructs the tree from the document's edge list.
// The full structural invariants are re-checked, so a hand-edited
// document cannot smuggle in a malformed tree.
func (d Document) Tree() (*qtree.Tree, error) {
	if d.Score < 0 || d.Score > 1 {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "score %v outside [0,1]", d.Score)
	}
	t, err := qtree.FromEdges(d.Labels, d.Edges)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "document edge list is not a valid tree")
	}
	return t, nil
}

// =============================================================================
// Serialization API
// =============================================================================

// Marshal converts a search result to JSON bytes.
func Marshal(res *search.Result) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeTo(res, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write writes a search result as JSON to an io.Writer.
// Use Marshal for in-memory serialization or WriteFile for files.
func Write(res *search.Result, w io.Writer) error {
	return writeTo(res, w)
}

// WriteFile writes a search result to a JSON file.
// The file is created with 0644 permissions.
func WriteFile(res *search.Result, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "create %s", path)
	}
	defer f.Close()
	return writeTo(res, f)
}

// Read decodes a JSON document from an io.Reader.
// Use ReadFile for files or pass bytes.NewReader for in-memory data.
func Read(r io.Reader) (Document, error) {
	return readFrom(r)
}

// ReadFile reads a JSON file and returns the decoded document.
func ReadFile(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Document{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return Document{}, errors.Wrap(errors.ErrCodeInternal, err, "open %s", path)
	}
	defer f.Close()
	return readFrom(f)
}

// =============================================================================
// Internal Implementation
// =============================================================================

func writeTo(res *search.Result, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(FromResult(res)); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode result")
	}
	return nil
}

func readFrom(r io.Reader) (Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return Document{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode result document")
	}
	return doc, nil
}
