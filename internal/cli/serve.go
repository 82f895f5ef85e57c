package cli

import (
	"context"
	"time"

	"github.com/MakeNowJust/heredoc"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/matzehuels/mvnfetch/internal/server"
	"github.com/matzehuels/mvnfetch/pkg/history"
	"github.com/matzehuels/mvnfetch/pkg/observability"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the resolution HTTP service",
		Long: heredoc.Doc(`
			Serve resolutions over HTTP. Requests share the artifact store and
			metadata cache configured for the CLI.

			Run history is kept in MongoDB when history.mongo_uri (or
			MVNFETCH_MONGO_URI) is set, in memory otherwise. Prometheus
			metrics are exported on /metrics.
		`),
		Example: heredoc.Doc(`
			$ mvnfetch serve --addr :9000
			$ curl -s localhost:9000/v1/resolve -d '{"roots":["org.slf4j:slf4j-simple:2.0.9"]}'
		`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if !cmd.Flags().Changed("addr") {
				addr = c.Config.ServerAddr()
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			observability.SetAll(observability.NewPrometheusHooks(reg))
			defer observability.Reset()

			runs, err := c.openHistory(ctx)
			if err != nil {
				return err
			}

			cfg, err := c.pipelineConfig(ctx)
			if err != nil {
				_ = runs.Close(context.Background())
				return err
			}

			srv, err := server.New(server.Options{
				Pipeline:       cfg,
				History:        runs,
				Gatherer:       reg,
				Logger:         c.Logger,
				RequestTimeout: timeout,
			})
			if err != nil {
				_ = cfg.Cache.Close()
				_ = runs.Close(context.Background())
				return err
			}
			defer func() {
				closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := srv.Close(closeCtx); err != nil {
					c.Logger.Warn("shutdown", "err", err)
				}
			}()

			return srv.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default :8080)")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "per-request resolution timeout")

	return cmd
}

// openHistory connects the configured run history.
func (c *CLI) openHistory(ctx context.Context) (history.Store, error) {
	h := c.Config.History
	if h.MongoURI == "" {
		c.Logger.Debug("run history in memory")
		return history.NewMemoryStore(0), nil
	}
	c.Logger.Debug("run history in mongodb", "database", h.Database)
	return history.NewMongoStore(ctx, h.MongoURI, h.Database)
}
