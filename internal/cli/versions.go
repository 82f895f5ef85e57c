package cli

import (
	"fmt"
	"slices"
	"strings"

	"github.com/MakeNowJust/heredoc"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/mvnfetch/pkg/coord"
	"github.com/matzehuels/mvnfetch/pkg/errors"
	"github.com/matzehuels/mvnfetch/pkg/version"
)

// versionsCommand creates the versions command.
func (c *CLI) versionsCommand() *cobra.Command {
	var (
		limit     int
		snapshots bool
		pick      bool
	)

	cmd := &cobra.Command{
		Use:   "versions <group:artifact>",
		Short: "List published versions of an artifact",
		Long: heredoc.Doc(`
			List the versions published in maven-metadata.xml, newest first.
			The first repository that lists any version is used.

			With --pick, choose a version interactively and print the full
			coordinate, e.g. for use in $(mvnfetch versions g:a --pick).
		`),
		Example: heredoc.Doc(`
			$ mvnfetch versions com.google.guava:guava
			$ mvnfetch fetch $(mvnfetch versions org.slf4j:slf4j-api --pick)
		`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ga, err := parseGA(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			runner, err := c.newRunner(ctx)
			if err != nil {
				return err
			}
			defer runner.Close()

			spinner := newSpinnerWithContext(ctx, "Fetching "+ga.GA()+" metadata...")
			spinner.Start()
			meta, err := runner.Client.FetchVersioning(ctx, ga)
			spinner.Stop()
			if err != nil {
				return err
			}

			versions := newestFirst(meta.Versioning.Versions, snapshots)
			if len(versions) == 0 {
				return errors.New(errors.ErrCodeNoMatchingVersion, "no release versions published").WithCoordinate(ga.GA())
			}

			if pick {
				model := NewVersionListModel(ga, versions, meta.Versioning.Release)
				final, err := tea.NewProgram(model).Run()
				if err != nil {
					return errors.Wrap(errors.ErrCodeInternal, err, "version picker")
				}
				if m, ok := final.(VersionListModel); ok && m.Selected != "" {
					fmt.Println(ga.WithVersion(m.Selected).String())
				}
				return nil
			}

			if limit > 0 && len(versions) > limit {
				versions = versions[:limit]
			}
			printVersions(ga, versions, meta.Versioning.Release)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "show at most N versions (0 for all)")
	cmd.Flags().BoolVar(&snapshots, "snapshots", false, "include SNAPSHOT versions")
	cmd.Flags().BoolVar(&pick, "pick", false, "choose a version interactively")

	return cmd
}

// parseGA accepts "group:artifact" or a full coordinate whose version is
// ignored.
func parseGA(s string) (coord.Coordinate, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		c, err := coord.Parse(s)
		if err != nil {
			return coord.Coordinate{}, errors.New(errors.ErrCodeMalformedCoordinate,
				"invalid artifact %q (expected group:artifact)", s)
		}
		return coord.Coordinate{Group: c.Group, Artifact: c.Artifact}, nil
	}
	for i, name := range []string{"groupId", "artifactId"} {
		if err := errors.ValidateSegment(name, parts[i]); err != nil {
			return coord.Coordinate{}, err.(*errors.Error).WithCoordinate(s)
		}
	}
	return coord.Coordinate{Group: parts[0], Artifact: parts[1]}, nil
}

// newestFirst sorts a copy of vs descending, dropping snapshots unless
// asked to keep them.
func newestFirst(vs []string, snapshots bool) []string {
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		if !snapshots && version.IsSnapshot(v) {
			continue
		}
		out = append(out, v)
	}
	version.Sort(out)
	slices.Reverse(out)
	return out
}

func printVersions(ga coord.Coordinate, versions []string, release string) {
	fmt.Println(StyleTitle.Render(ga.GA()))
	for _, v := range versions {
		line := "  " + StyleValue.Render(v)
		if v == release {
			line += " " + StyleSuccess.Render("(release)")
		}
		fmt.Println(line)
	}
}
