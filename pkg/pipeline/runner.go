package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/mvnfetch/pkg/cache"
	"github.com/matzehuels/mvnfetch/pkg/coord"
	"github.com/matzehuels/mvnfetch/pkg/download"
	"github.com/matzehuels/mvnfetch/pkg/errors"
	"github.com/matzehuels/mvnfetch/pkg/httputil"
	mvnio "github.com/matzehuels/mvnfetch/pkg/io"
	"github.com/matzehuels/mvnfetch/pkg/repository"
	"github.com/matzehuels/mvnfetch/pkg/resolve"
	"github.com/matzehuels/mvnfetch/pkg/store"
)

// Config configures a [Runner]. Zero values select defaults.
type Config struct {
	Repositories []repository.Config       // Query order (default Maven Central)
	StoreDir     string                    // Artifact store (default store.DefaultRoot)
	Cache        cache.Cache               // Metadata and resolution cache (default none)
	Keyer        cache.Keyer               // Cache key builder (default DefaultKeyer)
	Retry        httputil.Policy           // Network retry policy
	Checksums    repository.ChecksumPolicy // Missing .sha1 handling
	MetadataTTL  time.Duration             // TTL for metadata and snapshot POMs
	ResolveTTL   time.Duration             // TTL for cached resolutions (default DefaultResolveTTL)
	HTTPClient   *http.Client              // HTTP client for remote repositories
	Workers      int                       // Concurrent POM fetches and downloads
	Logger       *log.Logger               // Logger (default discards)
}

// Runner executes resolutions with a shared repository client, store and
// cache. It holds no per-request state, so one Runner can serve concurrent
// requests.
type Runner struct {
	Client *repository.Client
	Store  *store.Store
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	workers    int
	resolveTTL time.Duration
	downloads  *download.Manager
}

// NewRunner creates a runner from cfg.
func NewRunner(cfg Config) (*Runner, error) {
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard)
	}
	if cfg.Cache == nil {
		cfg.Cache = cache.NewNullCache()
	}
	if cfg.Keyer == nil {
		cfg.Keyer = cache.NewDefaultKeyer()
	}
	if cfg.ResolveTTL == 0 {
		cfg.ResolveTTL = DefaultResolveTTL
	}
	if cfg.StoreDir == "" {
		dir, err := store.DefaultRoot()
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "locate artifact store")
		}
		cfg.StoreDir = dir
	}

	st, err := store.New(cfg.StoreDir)
	if err != nil {
		return nil, err
	}
	client, err := repository.New(cfg.Repositories, repository.Options{
		Retry:       cfg.Retry,
		Checksums:   cfg.Checksums,
		Cache:       cfg.Cache,
		Keyer:       cfg.Keyer,
		MetadataTTL: cfg.MetadataTTL,
		HTTPClient:  cfg.HTTPClient,
		Logger:      cfg.Logger,
	})
	if err != nil {
		return nil, err
	}
	for _, repo := range client.Repositories() {
		cfg.Logger.Debug("repository", "id", repo.ID, "config", repo.Redacted())
	}

	return &Runner{
		Client:     client,
		Store:      st,
		Cache:      cfg.Cache,
		Keyer:      cfg.Keyer,
		Logger:     cfg.Logger,
		workers:    cfg.Workers,
		resolveTTL: cfg.ResolveTTL,
		downloads:  download.New(client, st, download.Options{Workers: cfg.Workers, Logger: cfg.Logger}),
	}, nil
}

// Resolve parses the request, resolves it (reusing a cached resolution
// unless req.Refresh is set) and, when req.Fetch is set, materializes every
// artifact.
func (r *Runner) Resolve(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	roots, err := coord.ParseAll(req.Roots)
	if err != nil {
		return nil, err
	}
	excludes, err := coord.ParseExclusions(req.Excludes)
	if err != nil {
		return nil, err
	}
	policy, _ := resolve.ParsePolicy(string(req.Policy))

	result := &Result{}

	start := time.Now()
	key := r.Keyer.ResolveKey(cache.ResolveKeyOpts{
		Roots:           req.Roots,
		Repositories:    r.repositoryKeys(),
		Excludes:        req.Excludes,
		Policy:          string(policy),
		Scopes:          req.Scopes,
		IncludeOptional: req.IncludeOptional,
	})
	if !req.Refresh {
		if res, ok := r.cached(ctx, key); ok {
			result.Resolution = res
			result.CacheHit = true
		}
	}
	if result.Resolution == nil {
		res, err := resolve.Resolve(ctx, r.Client, roots, resolve.Options{
			Policy:          policy,
			Excludes:        excludes,
			Scopes:          req.Scopes,
			IncludeOptional: req.IncludeOptional,
			Workers:         r.workers,
			Logger:          r.Logger,
		})
		if err != nil {
			return nil, err
		}
		result.Resolution = res
		r.store(ctx, key, res)
	}
	result.Stats.ResolveTime = time.Since(start)
	result.Stats.Artifacts = len(result.Resolution.Order)

	r.Logger.Info("resolved dependencies",
		"roots", len(roots),
		"artifacts", result.Stats.Artifacts,
		"diagnostics", len(result.Resolution.Diagnostics),
		"cached", result.CacheHit,
		"duration", result.Stats.ResolveTime)

	if !req.Fetch {
		return result, nil
	}

	fetchStart := time.Now()
	files, err := r.downloads.Materialize(ctx, result.Resolution.Order)
	if err != nil {
		return nil, err
	}
	result.Files = files
	result.Stats.FetchTime = time.Since(fetchStart)

	r.Logger.Info("materialized artifacts",
		"artifacts", len(files),
		"store", r.Store.Root(),
		"duration", result.Stats.FetchTime)

	return result, nil
}

// Materialize downloads coords without resolving their dependencies.
func (r *Runner) Materialize(ctx context.Context, coords []coord.Coordinate) ([]download.ResolvedArtifact, error) {
	return r.downloads.Materialize(ctx, coords)
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// repositoryKeys identifies the configured repositories for resolution
// cache keys. Credentials contribute a hash of the user name only.
func (r *Runner) repositoryKeys() []string {
	repos := r.Client.Repositories()
	out := make([]string, len(repos))
	for i, c := range repos {
		out[i] = c.URL
		if c.HasCredentials() {
			out[i] += "@" + cache.ShortHash(c.Username)
		}
	}
	return out
}

type cachedResolution struct {
	Artifacts   []resolve.Artifact   `json:"artifacts"`
	Diagnostics []resolve.Diagnostic `json:"diagnostics"`
	Graph       json.RawMessage      `json:"graph"`
}

func (r *Runner) cached(ctx context.Context, key string) (*resolve.Result, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil || !hit {
		return nil, false
	}

	var c cachedResolution
	if err := json.Unmarshal(data, &c); err != nil {
		r.Logger.Debug("discarding unreadable cached resolution", "err", err)
		return nil, false
	}
	g, err := mvnio.ReadJSON(bytes.NewReader(c.Graph))
	if err != nil {
		r.Logger.Debug("discarding unreadable cached graph", "err", err)
		return nil, false
	}

	res := &resolve.Result{
		Order:       make([]coord.Coordinate, len(c.Artifacts)),
		Artifacts:   c.Artifacts,
		Diagnostics: c.Diagnostics,
		Graph:       g,
	}
	for i, a := range c.Artifacts {
		res.Order[i] = a.Coordinate
	}
	return res, true
}

func (r *Runner) store(ctx context.Context, key string, res *resolve.Result) {
	var graph bytes.Buffer
	if err := mvnio.WriteJSON(res.Graph, &graph); err != nil {
		return
	}
	data, err := json.Marshal(cachedResolution{
		Artifacts:   res.Artifacts,
		Diagnostics: res.Diagnostics,
		Graph:       graph.Bytes(),
	})
	if err != nil {
		return
	}
	if err := r.Cache.Set(ctx, key, data, r.resolveTTL); err != nil {
		r.Logger.Debug("cache resolution failed", "err", err)
	}
}
