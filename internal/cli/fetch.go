package cli

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"os"
	"strings"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"

	"github.com/matzehuels/mvnfetch/pkg/download"
	"github.com/matzehuels/mvnfetch/pkg/errors"
	mvnio "github.com/matzehuels/mvnfetch/pkg/io"
)

// fetchCommand creates the fetch command.
func (c *CLI) fetchCommand() *cobra.Command {
	var (
		flags     requestFlags
		jsonOut   bool
		classpath bool
		output    string
	)

	cmd := &cobra.Command{
		Use:   "fetch <coordinate>...",
		Short: "Resolve and download artifacts into the local cache",
		Long: heredoc.Doc(`
			Resolve the transitive dependencies of one or more coordinates and
			download every artifact into the local store. Artifacts already in
			the store are verified against their recorded SHA-1 and reused.

			Either every artifact is downloaded or the command fails listing
			each artifact that could not be fetched.
		`),
		Example: heredoc.Doc(`
			$ mvnfetch fetch com.google.guava:guava:32.1.3-jre
			$ mvnfetch fetch org.slf4j:slf4j-simple:2.0.9 --classpath
			$ mvnfetch fetch com.example:app:1.0 --json -o report.json
		`),
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if jsonOut && classpath {
				return errors.New(errors.ErrCodeInvalidInput, "--json and --classpath are mutually exclusive")
			}
			ctx := cmd.Context()
			prog := newProgress(c.Logger)

			runner, err := c.newRunner(ctx)
			if err != nil {
				return err
			}
			defer runner.Close()

			spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Resolving %d root(s)...", len(args)))
			spinner.Start()
			res, err := runner.Resolve(ctx, flags.request(cmd, c, args))
			if err != nil {
				spinner.Stop()
				return err
			}
			c.reportDiagnostics(res.Resolution)

			spinner.Update(fmt.Sprintf("Downloading %d artifacts...", len(res.Resolution.Order)))
			files, err := runner.Materialize(ctx, res.Resolution.Order)
			spinner.Stop()
			if err != nil {
				var partial *errors.PartialResolutionError
				if stderrors.As(err, &partial) {
					printFailures(partial)
				}
				return err
			}
			prog.done(fmt.Sprintf("Fetched %d artifacts", len(files)))

			switch {
			case jsonOut:
				var buf bytes.Buffer
				if err := mvnio.WriteReport(&buf, args, res.Resolution, files); err != nil {
					return err
				}
				return writeOutput(output, buf.Bytes())
			case classpath:
				return writeOutput(output, []byte(buildClasspath(files)+"\n"))
			default:
				fmt.Println(artifactTable(files))
				printFetchStats(files)
				printDetail("Store: %s", runner.Store.Root())
				return nil
			}
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print a JSON report including local paths")
	cmd.Flags().BoolVar(&classpath, "classpath", false, "print a classpath of the downloaded jars")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the report or classpath to a file")

	return cmd
}

// buildClasspath joins the paths of every non-POM artifact in resolution
// order.
func buildClasspath(files []download.ResolvedArtifact) string {
	paths := make([]string, 0, len(files))
	for _, f := range files {
		if f.Coordinate.Extension() == "pom" {
			continue
		}
		paths = append(paths, f.Path)
	}
	return strings.Join(paths, string(os.PathListSeparator))
}

func printFailures(e *errors.PartialResolutionError) {
	printError("%d of %d artifacts failed", len(e.Failures), e.Total)
	for _, f := range e.Failures {
		printDetail("%s: %s", f.Coordinate, errors.UserMessage(f.Err))
	}
}
