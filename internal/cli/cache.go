package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/mvnfetch/pkg/cache"
	"github.com/matzehuels/mvnfetch/pkg/errors"
	"github.com/matzehuels/mvnfetch/pkg/store"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the local artifact store and metadata cache",
	}

	cmd.AddCommand(c.cachePathCommand())
	cmd.AddCommand(c.cacheListCommand())
	cmd.AddCommand(c.cacheVerifyCommand())
	cmd.AddCommand(c.cacheClearCommand())

	return cmd
}

// openStore opens the configured artifact store.
func (c *CLI) openStore() (*store.Store, error) {
	dir, err := c.Config.StoreDir()
	if err != nil {
		return nil, err
	}
	return store.New(dir)
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			storeDir, err := c.Config.StoreDir()
			if err != nil {
				return err
			}
			opts, err := c.Config.CacheOptions()
			if err != nil {
				return err
			}
			printKeyValue("artifacts", storeDir)
			switch opts.Backend {
			case cache.BackendRedis:
				printKeyValue("metadata", opts.RedisURL)
			case cache.BackendNone:
				printKeyValue("metadata", "disabled")
			default:
				printKeyValue("metadata", opts.Dir)
			}
			return nil
		},
	}
}

// cacheListCommand creates the "cache list" subcommand.
func (c *CLI) cacheListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored artifacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := c.openStore()
			if err != nil {
				return err
			}
			var total int64
			count := 0
			err = st.Walk(func(e store.Entry) error {
				fmt.Printf("%s  %s\n", StyleValue.Render(e.Coordinate.String()), StyleDim.Render(formatSize(e.Size)))
				total += e.Size
				count++
				return nil
			})
			if err != nil {
				return err
			}
			if count == 0 {
				printInfo("Store is empty")
				return nil
			}
			printDetail("%d artifacts, %s", count, formatSize(total))
			return nil
		},
	}
}

// cacheVerifyCommand creates the "cache verify" subcommand.
func (c *CLI) cacheVerifyCommand() *cobra.Command {
	var remove bool

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check stored artifacts against their recorded SHA-1",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := c.openStore()
			if err != nil {
				return err
			}

			spinner := newSpinnerWithContext(cmd.Context(), "Verifying artifacts...")
			spinner.Start()
			bad, err := st.VerifyAll()
			if err != nil {
				spinner.StopWithError("Verification failed")
				return err
			}
			spinner.Stop()
			if len(bad) == 0 {
				printSuccess("All stored artifacts match their checksums")
				return nil
			}

			for _, e := range bad {
				printError("%s", e.Coordinate)
				printDetail("%s", e.Path)
				if remove {
					if err := st.Remove(e.Coordinate); err != nil {
						return err
					}
				}
			}
			if remove {
				printSuccess("Removed %d corrupt artifacts; they will be downloaded again", len(bad))
				return nil
			}
			printNextStep("Remove them with", "mvnfetch cache verify --remove")
			return errors.New(errors.ErrCodeCacheCorruption, "%d stored artifacts are corrupt", len(bad))
		},
	}

	cmd.Flags().BoolVar(&remove, "remove", false, "delete corrupt artifacts")
	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	var metadataOnly bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete stored artifacts and cached metadata",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := c.Config.CacheOptions()
			if err != nil {
				return err
			}
			switch opts.Backend {
			case "", cache.BackendFile:
				fc, err := cache.NewFileCache(opts.Dir)
				if err != nil {
					return err
				}
				if err := fc.Clear(); err != nil {
					return errors.Wrap(errors.ErrCodeInternal, err, "clear %s", opts.Dir)
				}
				printSuccess("Cleared metadata cache")
				printDetail("Directory: %s", opts.Dir)
			case cache.BackendRedis:
				printWarning("Redis metadata expires on its own; not cleared")
			}

			if metadataOnly {
				return nil
			}
			st, err := c.openStore()
			if err != nil {
				return err
			}
			if err := st.Clear(); err != nil {
				return err
			}
			printSuccess("Cleared artifact store")
			printDetail("Directory: %s", st.Root())
			return nil
		},
	}

	cmd.Flags().BoolVar(&metadataOnly, "metadata", false, "clear cached metadata only")
	return cmd
}
