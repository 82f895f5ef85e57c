// Package download materializes resolved coordinates into the local store.
//
// [Manager.Materialize] checks the store first and downloads only what is
// missing. Downloads run on a bounded worker pool; concurrent requests for
// the same coordinate share a single network fetch. A failure never aborts
// sibling downloads: every coordinate is attempted and all failures are
// reported together in one [errors.PartialResolutionError].
package download

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/matzehuels/mvnfetch/pkg/coord"
	"github.com/matzehuels/mvnfetch/pkg/errors"
	"github.com/matzehuels/mvnfetch/pkg/observability"
	"github.com/matzehuels/mvnfetch/pkg/repository"
	"github.com/matzehuels/mvnfetch/pkg/store"
)

// DefaultWorkers is the download concurrency when none is configured.
const DefaultWorkers = 8

// ResolvedArtifact is a coordinate materialized on local disk.
type ResolvedArtifact struct {
	Coordinate coord.Coordinate `json:"coordinate"`
	Path       string           `json:"path"`
	Checksum   string           `json:"sha1"`
	Repository string           `json:"repository,omitempty"` // empty when served from the store
	Size       int64            `json:"size"`
	Cached     bool             `json:"cached"`
}

// Fetcher downloads one verified artifact. [*repository.Client] implements it.
type Fetcher interface {
	FetchArtifact(ctx context.Context, c coord.Coordinate) (*repository.Artifact, error)
}

// Options configures a [Manager].
type Options struct {
	Workers int         // Concurrent downloads (default DefaultWorkers)
	Logger  *log.Logger // Logger (default discards)
}

// Manager downloads artifacts into a [store.Store]. It is safe for
// concurrent use; in-flight downloads are shared across Materialize calls.
type Manager struct {
	fetcher Fetcher
	store   *store.Store
	workers int
	logger  *log.Logger
	flight  singleflight.Group

	mu       sync.Mutex
	inflight map[string]*sharedFetch
}

// sharedFetch is the context a shared download runs under. It is cancelled
// only when every caller waiting on it has gone.
type sharedFetch struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

// New creates a download manager.
func New(f Fetcher, s *store.Store, opts Options) *Manager {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	return &Manager{
		fetcher:  f,
		store:    s,
		workers:  opts.Workers,
		logger:   opts.Logger,
		inflight: make(map[string]*sharedFetch),
	}
}

// Materialize ensures every coordinate is in the store and returns the
// results in input order. Either all coordinates succeed or the error is a
// *errors.PartialResolutionError listing every failure. Cancelling ctx
// returns CANCELLED; artifacts already written stay in the store.
func (m *Manager) Materialize(ctx context.Context, coords []coord.Coordinate) ([]ResolvedArtifact, error) {
	results := make([]ResolvedArtifact, len(coords))
	errs := make([]error, len(coords))

	var g errgroup.Group
	g.SetLimit(m.workers)
	for i, c := range coords {
		g.Go(func() error {
			results[i], errs[i] = m.materialize(ctx, c)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, errors.Cancelled(err)
	}

	var failures []errors.Failure
	for i, err := range errs {
		if err != nil {
			failures = append(failures, errors.Failure{Coordinate: coords[i].String(), Err: err})
		}
	}
	if len(failures) > 0 {
		return nil, &errors.PartialResolutionError{Failures: failures, Total: len(coords)}
	}
	return results, nil
}

func (m *Manager) materialize(ctx context.Context, c coord.Coordinate) (ResolvedArtifact, error) {
	hooks := observability.Download()
	hooks.OnDownloadStart(ctx, c.String())
	start := time.Now()

	v, err := m.shared(ctx, c)
	if err != nil {
		hooks.OnDownloadComplete(ctx, c.String(), 0, false, time.Since(start), err)
		return ResolvedArtifact{}, err
	}

	r := v.(ResolvedArtifact)
	r.Coordinate = c
	hooks.OnDownloadComplete(ctx, c.String(), r.Size, r.Cached, time.Since(start), nil)
	return r, nil
}

// shared waits for the single in-flight fetch of c. The fetch is not tied
// to ctx: a caller that gives up leaves it running for the others. A
// CANCELLED result from a fetch whose callers all left before this one
// joined is retried.
func (m *Manager) shared(ctx context.Context, c coord.Coordinate) (any, error) {
	key := flightKey(c)
	for {
		sf := m.join(ctx, key)
		ch := m.flight.DoChan(key, func() (any, error) {
			return m.fetch(sf.ctx, c)
		})

		select {
		case res := <-ch:
			m.leave(key, sf)
			if res.Err != nil && errors.Is(res.Err, errors.ErrCodeCancelled) && ctx.Err() == nil {
				continue
			}
			return res.Val, res.Err
		case <-ctx.Done():
			m.leave(key, sf)
			return nil, errors.Cancelled(ctx.Err())
		}
	}
}

func (m *Manager) join(ctx context.Context, key string) *sharedFetch {
	m.mu.Lock()
	defer m.mu.Unlock()
	sf, ok := m.inflight[key]
	if !ok {
		sctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		sf = &sharedFetch{ctx: sctx, cancel: cancel}
		m.inflight[key] = sf
	}
	sf.waiters++
	return sf
}

func (m *Manager) leave(key string, sf *sharedFetch) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sf.waiters--
	if sf.waiters > 0 {
		return
	}
	sf.cancel()
	if m.inflight[key] == sf {
		delete(m.inflight, key)
	}
}

func flightKey(c coord.Coordinate) string {
	k := c.Key()
	return k.String() + ":" + k.Packaging + ":" + c.Version
}

func (m *Manager) fetch(ctx context.Context, c coord.Coordinate) (ResolvedArtifact, error) {
	if err := ctx.Err(); err != nil {
		return ResolvedArtifact{}, errors.Cancelled(err)
	}

	if e, ok, err := m.store.Get(c); err != nil {
		return ResolvedArtifact{}, err
	} else if ok {
		m.logger.Debug("cached", "coordinate", c.String(), "path", e.Path)
		return ResolvedArtifact{Coordinate: c, Path: e.Path, Checksum: e.Checksum, Size: e.Size, Cached: true}, nil
	}

	start := time.Now()
	a, err := m.fetcher.FetchArtifact(ctx, c)
	if err != nil {
		return ResolvedArtifact{}, err
	}
	path, err := m.store.Put(c, a.Data, a.Checksum)
	if err != nil {
		return ResolvedArtifact{}, err
	}
	m.logger.Debug("downloaded", "coordinate", c.String(), "repo", a.Repository, "duration", time.Since(start))

	return ResolvedArtifact{
		Coordinate: c,
		Path:       path,
		Checksum:   a.Checksum,
		Repository: a.Repository,
		Size:       int64(len(a.Data)),
	}, nil
}
