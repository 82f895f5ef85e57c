package cli

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"

	"github.com/matzehuels/mvnfetch/pkg/errors"
	mvnio "github.com/matzehuels/mvnfetch/pkg/io"
	"github.com/matzehuels/mvnfetch/pkg/render"
)

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		format   string
		output   string
		detailed bool
	)

	cmd := &cobra.Command{
		Use:   "render <file.json>",
		Short: "Draw a saved resolution graph",
		Long: heredoc.Doc(`
			Render a graph saved with "mvnfetch resolve --format json" (or a
			bare graph export) as an indented tree, Graphviz DOT or SVG.

			The format defaults to the extension of --output, or tree when
			writing to stdout.
		`),
		Example: heredoc.Doc(`
			$ mvnfetch resolve com.example:app:1.0 -f json -o app.json
			$ mvnfetch render app.json -o app.svg
		`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := mvnio.ImportJSON(args[0])
			if err != nil {
				return errors.Wrap(errors.ErrCodeInvalidInput, err, "load graph")
			}
			if err := g.Validate(); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidInput, err, "graph in %s", args[0])
			}

			if format == "" {
				format = formatFromPath(output)
			}

			var buf bytes.Buffer
			switch format {
			case formatTree:
				if err := render.WriteTree(&buf, g); err != nil {
					return err
				}
			case formatDOT:
				buf.WriteString(render.ToDOT(g, render.Options{Detailed: detailed}))
			case formatSVG:
				svg, err := render.RenderSVG(cmd.Context(), render.ToDOT(g, render.Options{Detailed: detailed}))
				if err != nil {
					return errors.Wrap(errors.ErrCodeInternal, err, "render svg")
				}
				buf.Write(svg)
			default:
				return errors.New(errors.ErrCodeInvalidInput, "unknown format %q (want tree, dot or svg)", format)
			}
			return writeOutput(output, buf.Bytes())
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "output format: tree, dot or svg")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "include depth and scope in dot/svg labels")

	return cmd
}

// formatFromPath picks a render format from an output file extension.
func formatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".svg":
		return formatSVG
	case ".dot", ".gv":
		return formatDOT
	default:
		return formatTree
	}
}
