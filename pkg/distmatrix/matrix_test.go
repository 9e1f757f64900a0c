package distmatrix

import (
	"bytes"
	"strings"
	"testing"

	"github.com/matzehuels/dendro/pkg/errors"
)

// fill sets both directions for every pair using the given default,
// with overrides keyed by "a|b".
func fill(t *testing.T, m *Matrix, def float64, overrides map[string]float64) {
	t.Helper()
	labels := m.Labels()
	for _, a := range labels {
		for _, b := range labels {
			if a == b {
				continue
			}
			d := def
			if v, ok := overrides[a+"|"+b]; ok {
				d = v
			} else if v, ok := overrides[b+"|"+a]; ok {
				d = v
			}
			if err := m.Set(a, b, d); err != nil {
				t.Fatalf("Set(%s, %s): %v", a, b, err)
			}
		}
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		labels   []string
		wantCode errors.Code
	}{
		{name: "Valid", labels: []string{"d", "a", "c", "b"}},
		{name: "Empty", labels: nil, wantCode: errors.ErrCodeInvalidMatrix},
		{name: "Duplicate", labels: []string{"a", "b", "a"}, wantCode: errors.ErrCodeInvalidMatrix},
		{name: "EmptyLabel", labels: []string{"a", ""}, wantCode: errors.ErrCodeInvalidMatrix},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := New(tt.labels)
			if tt.wantCode != "" {
				if !errors.Is(err, tt.wantCode) {
					t.Fatalf("New() error = %v, want code %s", err, tt.wantCode)
				}
				return
			}
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			got := m.Labels()
			for i := 1; i < len(got); i++ {
				if got[i-1] >= got[i] {
					t.Errorf("labels not sorted: %v", got)
				}
			}
		})
	}
}

func TestSetRejectsBadEntries(t *testing.T) {
	m, _ := New([]string{"a", "b", "c", "d"})

	if err := m.Set("a", "a", 0.5); !errors.Is(err, errors.ErrCodeInvalidMatrix) {
		t.Errorf("self-pair: got %v", err)
	}
	if err := m.Set("a", "z", 0.5); !errors.Is(err, errors.ErrCodeInvalidMatrix) {
		t.Errorf("unknown label: got %v", err)
	}
	if err := m.Set("a", "b", -0.1); !errors.Is(err, errors.ErrCodeInvalidMatrix) {
		t.Errorf("negative distance: got %v", err)
	}
}

func TestValidate(t *testing.T) {
	t.Run("Complete", func(t *testing.T) {
		m, _ := New([]string{"a", "b", "c", "d"})
		fill(t, m, 0.5, nil)
		if err := m.Validate(); err != nil {
			t.Fatalf("Validate() = %v", err)
		}
	})

	t.Run("Incomplete", func(t *testing.T) {
		m, _ := New([]string{"a", "b", "c", "d"})
		fill(t, m, 0.5, nil)
		// Knock out one direction only.
		m.cells[0][1] = cell{}
		if err := m.Validate(); !errors.Is(err, errors.ErrCodeInvalidMatrix) {
			t.Fatalf("Validate() = %v, want INVALID_MATRIX", err)
		}
	})

	t.Run("Asymmetric", func(t *testing.T) {
		m, _ := New([]string{"a", "b", "c", "d"})
		fill(t, m, 0.5, nil)
		m.Set("a", "b", 0.1)
		m.Set("b", "a", 0.2)
		if err := m.Validate(); !errors.Is(err, errors.ErrCodeAsymmetricMatrix) {
			t.Fatalf("Validate() = %v, want ASYMMETRIC_MATRIX", err)
		}
	})
}

func TestDistanceMissingEntry(t *testing.T) {
	m, _ := New([]string{"a", "b", "c", "d"})
	if _, err := m.Distance("a", "b"); !errors.Is(err, errors.ErrCodeMissingDistance) {
		t.Fatalf("Distance() on unset entry = %v, want MISSING_DISTANCE", err)
	}
}

func TestReadTSV(t *testing.T) {
	input := `4
a	0	0.1	0.9	0.9
b	0.1	0	0.9	0.9
c	0.9	0.9	0	0.1
d	0.9	0.9	0.1	0
`
	m, err := ReadTSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadTSV() = %v", err)
	}
	if m.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", m.Len())
	}
	d, err := m.Distance("a", "b")
	if err != nil || d != 0.1 {
		t.Errorf("Distance(a, b) = %v, %v; want 0.1", d, err)
	}
	d, _ = m.Distance("b", "c")
	if d != 0.9 {
		t.Errorf("Distance(b, c) = %v, want 0.9", d)
	}
}

func TestReadTSVWithoutHeader(t *testing.T) {
	input := "x 0 1 2 3\ny 1 0 4 5\nz 2 4 0 6\nw 3 5 6 0\n"
	m, err := ReadTSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadTSV() = %v", err)
	}
	d, _ := m.Distance("z", "w")
	if d != 6 {
		t.Errorf("Distance(z, w) = %v, want 6", d)
	}
}

func TestReadTSVErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "Empty", input: ""},
		{name: "RaggedRow", input: "a 0 1\nb 1 0 2\n"},
		{name: "BadNumber", input: "a 0 x\nb x 0\n"},
		{name: "HeaderMismatch", input: "3\na 0 1\nb 1 0\n"},
		{name: "Asymmetric", input: "a 0 1 2 3\nb 9 0 4 5\nc 2 4 0 6\nd 3 5 6 0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadTSV(strings.NewReader(tt.input)); err == nil {
				t.Error("ReadTSV() should fail")
			}
		})
	}
}

func TestTSVRoundTrip(t *testing.T) {
	m, _ := New([]string{"a", "b", "c", "d"})
	fill(t, m, 0.9, map[string]float64{"a|b": 0.1, "c|d": 0.1})

	var buf bytes.Buffer
	if err := m.WriteTSV(&buf); err != nil {
		t.Fatalf("WriteTSV() = %v", err)
	}

	back, err := ReadTSV(&buf)
	if err != nil {
		t.Fatalf("ReadTSV() = %v", err)
	}
	for _, a := range m.Labels() {
		for _, b := range m.Labels() {
			if a == b {
				continue
			}
			want, _ := m.Distance(a, b)
			got, _ := back.Distance(a, b)
			if got != want {
				t.Errorf("Distance(%s, %s) = %v, want %v", a, b, got, want)
			}
		}
	}
}

func TestJSONRoundTrip(t *testing.T) {
	m, _ := New([]string{"n1", "n2", "n3", "n4"})
	fill(t, m, 0.7, map[string]float64{"n1|n2": 0.2})

	doc := m.ToDocument()
	back, err := FromDocument(doc)
	if err != nil {
		t.Fatalf("FromDocument() = %v", err)
	}
	d, _ := back.Distance("n1", "n2")
	if d != 0.2 {
		t.Errorf("Distance(n1, n2) = %v, want 0.2", d)
	}
}
