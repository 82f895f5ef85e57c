package cli

import (
	"context"
	"io"

	"github.com/MakeNowJust/heredoc"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/mvnfetch/pkg/buildinfo"
	"github.com/matzehuels/mvnfetch/pkg/cache"
	"github.com/matzehuels/mvnfetch/pkg/config"
	"github.com/matzehuels/mvnfetch/pkg/pipeline"
	"github.com/matzehuels/mvnfetch/pkg/repository"
)

// appName is the application name used for directories and display.
const appName = "mvnfetch"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config *config.Config

	configPath string
	repos      []string
	cacheDir   string
	workers    int
	checksums  string
	noCache    bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "mvnfetch resolves and downloads Maven dependencies",
		Long: heredoc.Doc(`
			mvnfetch resolves the transitive dependencies of Maven coordinates
			and downloads the artifacts into a local cache.

			Coordinates use the form group:artifact:version or
			group:artifact:classifier:version. Repositories are queried in the
			order given; Maven Central is used when none is configured.
		`),
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := c.loadConfig(cmd); err != nil {
				return err
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	pf := root.PersistentFlags()
	pf.StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/mvnfetch/config.toml)")
	pf.StringArrayVarP(&c.repos, "repo", "r", nil, "repository URL, queried in order (repeatable)")
	pf.StringVar(&c.cacheDir, "cache-dir", "", "cache root directory (default $XDG_CACHE_HOME/mvnfetch)")
	pf.IntVarP(&c.workers, "workers", "j", 0, "concurrent fetches (default 8)")
	pf.StringVar(&c.checksums, "checksums", "", "missing checksum handling: fail, warn or ignore")
	pf.BoolVar(&c.noCache, "no-cache", false, "disable the metadata cache")

	root.AddCommand(c.resolveCommand())
	root.AddCommand(c.fetchCommand())
	root.AddCommand(c.versionsCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig reads the config file and applies persistent flag overrides.
func (c *CLI) loadConfig(cmd *cobra.Command) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("cache-dir") {
		cfg.CacheDir = c.cacheDir
	}
	if flags.Changed("workers") {
		cfg.Workers = c.workers
	}
	if flags.Changed("checksums") {
		cfg.Checksums = c.checksums
	}
	if len(c.repos) > 0 {
		cfg.Repositories = repository.FromURLs(c.repos)
	}
	if c.noCache {
		cfg.Cache.Backend = cache.BackendNone
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	c.Config = cfg
	return nil
}

// pipelineConfig translates the loaded config for [pipeline.NewRunner].
func (c *CLI) pipelineConfig(ctx context.Context) (pipeline.Config, error) {
	cfg := c.Config
	storeDir, err := cfg.StoreDir()
	if err != nil {
		return pipeline.Config{}, err
	}
	cacheOpts, err := cfg.CacheOptions()
	if err != nil {
		return pipeline.Config{}, err
	}
	metadata, err := cache.Open(ctx, cacheOpts)
	if err != nil {
		return pipeline.Config{}, err
	}
	checksums, _ := repository.ParseChecksumPolicy(cfg.Checksums)

	return pipeline.Config{
		Repositories: cfg.Repositories,
		StoreDir:     storeDir,
		Cache:        metadata,
		Retry:        cfg.RetryPolicy(),
		Checksums:    checksums,
		MetadataTTL:  cfg.Cache.TTL,
		Workers:      cfg.Workers,
		Logger:       loggerFromContext(ctx),
	}, nil
}

// newRunner creates a pipeline runner for CLI use. Callers must Close it.
func (c *CLI) newRunner(ctx context.Context) (*pipeline.Runner, error) {
	cfg, err := c.pipelineConfig(ctx)
	if err != nil {
		return nil, err
	}
	runner, err := pipeline.NewRunner(cfg)
	if err != nil {
		_ = cfg.Cache.Close()
		return nil, err
	}
	return runner, nil
}
