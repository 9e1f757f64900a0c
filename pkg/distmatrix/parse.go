package distmatrix

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/matzehuels/dendro/pkg/errors"
)

// =============================================================================
// Matrix Ingestion API
// =============================================================================

// ReadFile reads a matrix file, dispatching on extension:
// ".json" is parsed with [ReadJSON], everything else with [ReadTSV].
func ReadFile(path string) (*Matrix, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open matrix file %s", path)
	}
	defer f.Close()

	if strings.HasSuffix(path, ".json") {
		return ReadJSON(f)
	}
	return ReadTSV(f)
}

// ReadTSV parses a whitespace-separated square matrix in the PHYLIP style:
//
//	4
//	a	0	0.1	0.9	0.9
//	b	0.1	0	0.9	0.9
//	c	0.9	0.9	0	0.1
//	d	0.9	0.9	0.1	0
//
// The leading count line is optional. Each row starts with a label followed
// by one distance per label in row order. Diagonal entries must be present
// and are ignored (self-distances are not stored).
func ReadTSV(r io.Reader) (*Matrix, error) {
	var rows [][]string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		rows = append(rows, strings.Fields(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "read matrix")
	}

	// Optional PHYLIP-style count header.
	if len(rows) > 0 && len(rows[0]) == 1 {
		want, err := strconv.Atoi(rows[0][0])
		if err != nil {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "invalid count header %q", rows[0][0])
		}
		rows = rows[1:]
		if len(rows) != want {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "header says %d rows, found %d", want, len(rows))
		}
	}

	if len(rows) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "empty matrix input")
	}

	labels := make([]string, len(rows))
	for i, row := range rows {
		if len(row) != len(rows)+1 {
			return nil, errors.New(errors.ErrCodeInvalidFormat,
				"row %d has %d values, want %d", i+1, len(row)-1, len(rows))
		}
		labels[i] = row[0]
	}

	m, err := New(labels)
	if err != nil {
		return nil, err
	}

	for i, row := range rows {
		for j := range rows {
			if i == j {
				continue
			}
			d, err := strconv.ParseFloat(row[j+1], 64)
			if err != nil {
				return nil, errors.New(errors.ErrCodeInvalidFormat,
					"row %q column %d: invalid distance %q", labels[i], j+1, row[j+1])
			}
			if err := m.Set(labels[i], labels[j], d); err != nil {
				return nil, err
			}
		}
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Document is the JSON serialization format for distance matrices.
// The distances slice is a full square matrix in label order; diagonal
// entries are ignored.
type Document struct {
	Labels    []string    `json:"labels"`
	Distances [][]float64 `json:"distances"`
}

// ReadJSON parses a matrix from its JSON document form.
func ReadJSON(r io.Reader) (*Matrix, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode matrix JSON")
	}
	return FromDocument(doc)
}

// FromDocument converts a Document into a validated Matrix.
func FromDocument(doc Document) (*Matrix, error) {
	if len(doc.Distances) != len(doc.Labels) {
		return nil, errors.New(errors.ErrCodeInvalidFormat,
			"document has %d labels but %d distance rows", len(doc.Labels), len(doc.Distances))
	}

	m, err := New(doc.Labels)
	if err != nil {
		return nil, err
	}

	for i, row := range doc.Distances {
		if len(row) != len(doc.Labels) {
			return nil, errors.New(errors.ErrCodeInvalidFormat,
				"distance row %d has %d values, want %d", i, len(row), len(doc.Labels))
		}
		for j, d := range row {
			if i == j {
				continue
			}
			if err := m.Set(doc.Labels[i], doc.Labels[j], d); err != nil {
				return nil, err
			}
		}
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// ToDocument converts the matrix to its JSON document form.
// Labels are already sorted, so output is deterministic. Missing entries
// (on an unvalidated matrix) serialize as zero.
func (m *Matrix) ToDocument() Document {
	n := len(m.labels)
	doc := Document{
		Labels:    m.Labels(),
		Distances: make([][]float64, n),
	}
	for i := 0; i < n; i++ {
		doc.Distances[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			doc.Distances[i][j] = m.cells[i][j].value
		}
	}
	return doc
}

// WriteTSV writes the matrix in the tab-separated form read by [ReadTSV].
// This is also the transport format handed to delegate solvers.
func (m *Matrix) WriteTSV(w io.Writer) error {
	n := len(m.labels)
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "%d\n", n)
	for i := 0; i < n; i++ {
		bw.WriteString(m.labels[i])
		for j := 0; j < n; j++ {
			fmt.Fprintf(bw, "\t%g", m.cells[i][j].value)
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}
