package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"slices"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"

	"github.com/matzehuels/mvnfetch/pkg/errors"
	mvnio "github.com/matzehuels/mvnfetch/pkg/io"
	"github.com/matzehuels/mvnfetch/pkg/pipeline"
	"github.com/matzehuels/mvnfetch/pkg/render"
	"github.com/matzehuels/mvnfetch/pkg/resolve"
)

// Output formats for the resolve command.
const (
	formatOrder = "order"
	formatTree  = "tree"
	formatJSON  = "json"
	formatDOT   = "dot"
	formatSVG   = "svg"
)

var resolveFormats = []string{formatOrder, formatTree, formatJSON, formatDOT, formatSVG}

// requestFlags are the resolution options shared by resolve and fetch.
type requestFlags struct {
	excludes []string
	policy   string
	scopes   []string
	optional bool
	refresh  bool
}

func (f *requestFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringArrayVarP(&f.excludes, "exclude", "x", nil, "exclude group:artifact (wildcards allowed, repeatable)")
	fl.StringVar(&f.policy, "policy", "", "conflict policy: nearest or highest")
	fl.StringSliceVar(&f.scopes, "scope", nil, "scopes to include (default compile,runtime)")
	fl.BoolVar(&f.optional, "optional", false, "follow optional dependencies")
	fl.BoolVar(&f.refresh, "refresh", false, "ignore cached resolutions")
}

// request builds a pipeline request; flags override the config file.
func (f *requestFlags) request(cmd *cobra.Command, c *CLI, roots []string) pipeline.Request {
	req := pipeline.Request{
		Roots:           roots,
		Excludes:        f.excludes,
		Policy:          resolve.Policy(c.Config.Policy),
		Scopes:          c.Config.Scopes,
		IncludeOptional: c.Config.IncludeOptional,
		Refresh:         f.refresh,
	}
	if cmd.Flags().Changed("policy") {
		req.Policy = resolve.Policy(f.policy)
	}
	if cmd.Flags().Changed("scope") {
		req.Scopes = f.scopes
	}
	if cmd.Flags().Changed("optional") {
		req.IncludeOptional = f.optional
	}
	return req
}

// resolveCommand creates the resolve command.
func (c *CLI) resolveCommand() *cobra.Command {
	var (
		flags    requestFlags
		format   string
		output   string
		detailed bool
	)

	cmd := &cobra.Command{
		Use:   "resolve <coordinate>...",
		Short: "Resolve transitive dependencies without downloading",
		Long: heredoc.Doc(`
			Resolve the transitive dependencies of one or more coordinates and
			print the result. Conflicts are settled nearest-first by default:
			the declaration closest to a root wins, and the first declaration
			wins a tie.

			Formats:
			  order  one coordinate per line, roots first (default)
			  tree   indented dependency tree
			  json   full report with diagnostics and graph
			  dot    Graphviz DOT
			  svg    rendered graph
		`),
		Example: heredoc.Doc(`
			$ mvnfetch resolve com.google.guava:guava:32.1.3-jre
			$ mvnfetch resolve org.slf4j:slf4j-simple:2.0.9 --format tree
			$ mvnfetch resolve com.example:app:1.0 -r https://maven.example.com/releases -x 'commons-logging:*'
		`),
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(resolveFormats, format) {
				return errors.New(errors.ErrCodeInvalidInput, "unknown format %q (want one of %v)", format, resolveFormats)
			}
			ctx := cmd.Context()

			runner, err := c.newRunner(ctx)
			if err != nil {
				return err
			}
			defer runner.Close()

			spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Resolving %d root(s)...", len(args)))
			spinner.Start()
			res, err := runner.Resolve(ctx, flags.request(cmd, c, args))
			spinner.Stop()
			if err != nil {
				return err
			}

			c.reportDiagnostics(res.Resolution)
			c.Logger.Debug("resolved", "artifacts", len(res.Resolution.Order),
				"nodes", res.Resolution.Graph.NodeCount(), "edges", res.Resolution.Graph.EdgeCount(), "cached", res.CacheHit)

			data, err := formatResolution(ctx, format, args, res.Resolution, detailed)
			if err != nil {
				return err
			}
			return writeOutput(output, data)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", formatOrder, "output format: order, tree, json, dot or svg")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "include depth and scope in dot/svg labels")

	return cmd
}

// formatResolution renders res in the requested format.
func formatResolution(ctx context.Context, format string, roots []string, res *resolve.Result, detailed bool) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case formatOrder:
		for _, c := range res.Order {
			fmt.Fprintln(&buf, c.String())
		}
	case formatTree:
		if err := render.WriteTree(&buf, res.Graph); err != nil {
			return nil, err
		}
	case formatJSON:
		if err := mvnio.WriteReport(&buf, roots, res, nil); err != nil {
			return nil, err
		}
	case formatDOT:
		buf.WriteString(render.ToDOT(res.Graph, render.Options{Detailed: detailed}))
	case formatSVG:
		svg, err := render.RenderSVG(ctx, render.ToDOT(res.Graph, render.Options{Detailed: detailed}))
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "render svg")
		}
		buf.Write(svg)
	}
	return buf.Bytes(), nil
}

// reportDiagnostics logs what the resolver noticed but tolerated.
func (c *CLI) reportDiagnostics(res *resolve.Result) {
	for _, d := range res.Diagnostics {
		switch d.Kind {
		case resolve.VersionConflict, resolve.Relocated:
			c.Logger.Debug(d.Message, "kind", d.Kind)
		default:
			c.Logger.Warn(d.Message, "kind", d.Kind)
		}
	}
}

// writeOutput writes data to path, or stdout when path is empty.
func writeOutput(path string, data []byte) error {
	if path == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "write %s", path)
	}
	printFile(path)
	return nil
}
