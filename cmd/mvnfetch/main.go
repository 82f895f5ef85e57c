package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/matzehuels/mvnfetch/internal/cli"
	"github.com/matzehuels/mvnfetch/pkg/errors"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		if stderrors.Is(err, context.Canceled) || errors.Is(err, errors.ErrCodeCancelled) {
			os.Exit(130) // Standard shell convention for SIGINT
		}
		var partial *errors.PartialResolutionError
		if stderrors.As(err, &partial) {
			// fetch has already listed each failure
			fmt.Fprintf(os.Stderr, "Error: %d of %d artifacts failed\n", len(partial.Failures), partial.Total)
		} else {
			fmt.Fprintln(os.Stderr, "Error:", errors.UserMessage(err))
		}
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var verbose bool

	c := cli.New(os.Stderr, cli.LogInfo)
	root := c.RootCommand()
	root.SilenceErrors = true

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	// Apply the log level before the root's own pre-run loads the config.
	originalPreRun := root.PersistentPreRunE
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		level := cli.LogInfo
		if verbose {
			level = cli.LogDebug
		}
		c.SetLogLevel(level)

		if originalPreRun != nil {
			return originalPreRun(cmd, args)
		}
		return nil
	}

	return root.ExecuteContext(ctx)
}
