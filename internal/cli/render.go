package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/dendro/pkg/errors"
	"github.com/matzehuels/dendro/pkg/export"
	"github.com/matzehuels/dendro/pkg/pipeline"
	"github.com/matzehuels/dendro/pkg/render"
)

// renderCommand creates the render command for drawing saved trees.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		formatsStr   string
		output       string
		caption      bool
		showInternal bool
	)

	cmd := &cobra.Command{
		Use:   "render [tree.json]",
		Short: "Generate DOT, SVG, or PNG images from a saved tree",
		Long: `Generate DOT, SVG, or PNG images from a saved tree.

The render command takes a tree.json file (produced by 'build') and draws
it without re-running the search. Internal nodes are drawn as unlabeled
points unless --show-internal is set.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formats := parseFormats(formatsStr)
			if formatsStr == "" {
				formats = []string{pipeline.FormatSVG}
			}
			for _, f := range formats {
				if f == pipeline.FormatJSON {
					return errors.New(errors.ErrCodeInvalidOptions, "render produces images; the input already is json")
				}
				if err := pipeline.ValidateFormat(f); err != nil {
					return err
				}
			}
			return c.runRender(args[0], formats, output, caption, showInternal)
		},
	}

	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), dot, png (comma-separated)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().BoolVar(&caption, "caption", false, "add the score as a caption")
	cmd.Flags().BoolVar(&showInternal, "show-internal", false, "label internal nodes")

	return cmd
}

func (c *CLI) runRender(input string, formats []string, output string, caption, showInternal bool) error {
	doc, err := export.ReadFile(input)
	if err != nil {
		return err
	}
	tree, err := doc.Tree()
	if err != nil {
		return err
	}

	renderOpts := render.Options{ShowInternal: showInternal}
	if caption {
		renderOpts.Caption = "S(T) = " + strconv.FormatFloat(doc.Score, 'f', 4, 64)
	}
	dot := render.ToDOT(tree, renderOpts)

	artifacts := make(map[string][]byte, len(formats))
	for _, format := range formats {
		switch format {
		case pipeline.FormatDOT:
			artifacts[format] = []byte(dot)
		case pipeline.FormatSVG:
			data, err := render.RenderSVG(dot)
			if err != nil {
				return fmt.Errorf("render svg: %w", err)
			}
			artifacts[format] = data
		case pipeline.FormatPNG:
			data, err := render.RenderPNG(dot)
			if err != nil {
				return fmt.Errorf("render png: %w", err)
			}
			artifacts[format] = data
		}
	}

	printSuccess("Rendered %s", input)
	return writeArtifacts(artifacts, formats, input, output)
}
