// Package render turns trees into Graphviz DOT and rasterized images.
//
// Trees are undirected, so the DOT output uses graph/edge syntax with a
// force-directed layout rather than the ranked digraph layout used for
// dependency-style graphs. Leaves are drawn as labeled boxes; internal
// nodes as small unlabeled points.
package render

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/dendro/pkg/errors"
	"github.com/matzehuels/dendro/pkg/qtree"
)

// Options configures DOT generation.
type Options struct {
	// Caption is an optional graph-level label, conventionally the
	// tree's score. Empty means no caption.
	Caption string

	// ShowInternal labels internal nodes with their names instead of
	// drawing them as anonymous points.
	ShowInternal bool
}

// ToDOT converts a tree to Graphviz DOT format.
// The resulting DOT string can be rendered with [RenderSVG] or [RenderPNG].
// Node and edge order follow the tree's deterministic enumeration, so
// equal trees produce equal DOT strings.
func ToDOT(t *qtree.Tree, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  overlap=false;\n")
	buf.WriteString("  splines=true;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.15,0.08\"];\n")
	if opts.Caption != "" {
		fmt.Fprintf(&buf, "  label=%q;\n", opts.Caption)
		buf.WriteString("  labelloc=b;\n")
	}
	buf.WriteString("\n")

	for _, label := range t.Labels() {
		fmt.Fprintf(&buf, "  %q;\n", label)
	}
	for _, name := range t.InternalNames() {
		if opts.ShowInternal {
			fmt.Fprintf(&buf, "  %q [shape=circle, fillcolor=lightgrey, fontsize=10];\n", name)
		} else {
			fmt.Fprintf(&buf, "  %q [shape=point, width=0.08, fillcolor=black];\n", name)
		}
	}

	buf.WriteString("\n")
	for _, e := range t.Edges() {
		fmt.Fprintf(&buf, "  %q -- %q;\n", e.From, e.To)
	}

	buf.WriteString("}\n")
	return buf.String()
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	return renderFormat(dot, graphviz.SVG, normalizeViewBox)
}

// RenderPNG renders a DOT graph to PNG using Graphviz.
func RenderPNG(dot string) ([]byte, error) {
	return renderFormat(dot, graphviz.PNG, nil)
}

func renderFormat(dot string, format graphviz.Format, post func([]byte) []byte) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "init graphviz")
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "parse DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "render %s", format)
	}
	out := buf.Bytes()
	if post != nil {
		out = post(out)
	}
	return out, nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the SVG root so the viewBox starts at the
// origin. Graphviz emits translated viewBoxes that confuse some viewers.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
