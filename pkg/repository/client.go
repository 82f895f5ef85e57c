package repository

import (
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/mvnfetch/pkg/buildinfo"
	"github.com/matzehuels/mvnfetch/pkg/cache"
	"github.com/matzehuels/mvnfetch/pkg/coord"
	"github.com/matzehuels/mvnfetch/pkg/errors"
	"github.com/matzehuels/mvnfetch/pkg/httputil"
	"github.com/matzehuels/mvnfetch/pkg/pom"
	"github.com/matzehuels/mvnfetch/pkg/version"
)

// DefaultMetadataTTL is how long maven-metadata.xml and snapshot POMs are
// cached when no TTL is configured.
const DefaultMetadataTTL = 24 * time.Hour

// Options configures a [Client]. Zero values are replaced by defaults in
// [Options.WithDefaults].
type Options struct {
	Retry       httputil.Policy // Retry policy for every request
	Checksums   ChecksumPolicy  // Missing .sha1 handling (default warn)
	Cache       cache.Cache     // Metadata cache (default none)
	Keyer       cache.Keyer     // Cache key builder (default DefaultKeyer)
	MetadataTTL time.Duration   // TTL for metadata and snapshot POMs
	HTTPClient  *http.Client    // HTTP client (default 60s timeout)
	UserAgent   string          // User-Agent header
	Logger      *log.Logger     // Logger (default discards)
}

// WithDefaults returns a copy of o with zero values replaced.
func (o Options) WithDefaults() Options {
	if o.Retry.MaxAttempts == 0 {
		o.Retry = httputil.DefaultPolicy
	}
	if o.Checksums == "" {
		o.Checksums = ChecksumWarn
	}
	if o.Cache == nil {
		o.Cache = cache.NewNullCache()
	}
	if o.Keyer == nil {
		o.Keyer = cache.NewDefaultKeyer()
	}
	if o.MetadataTTL == 0 {
		o.MetadataTTL = DefaultMetadataTTL
	}
	if o.HTTPClient == nil {
		o.HTTPClient = NewHTTPClient()
	}
	if o.UserAgent == "" {
		o.UserAgent = buildinfo.UserAgent()
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
	return o
}

// Artifact is a downloaded and verified file.
type Artifact struct {
	Coordinate coord.Coordinate
	Data       []byte
	Checksum   string // SHA-1 of Data, lowercase hex
	Verified   bool   // Checksum matched the published .sha1
	Repository string // URL of the repository that served the file
}

type remote struct {
	cfg   Config
	tr    transport
	keyer cache.Keyer
}

// Client queries an ordered list of repositories.
// All methods are safe for concurrent use.
type Client struct {
	remotes []*remote
	opts    Options

	// preferred remembers which repository served each group:artifact.
	preferred   map[string]int
	preferredMu sync.RWMutex
}

// New creates a client for cfgs, which are normalized with [Normalize].
func New(cfgs []Config, opts Options) (*Client, error) {
	cfgs, err := Normalize(cfgs)
	if err != nil {
		return nil, err
	}
	opts = opts.WithDefaults()

	c := &Client{opts: opts, preferred: make(map[string]int)}
	for _, cfg := range cfgs {
		r := &remote{cfg: cfg, keyer: opts.Keyer}
		if cfg.HasCredentials() {
			scope := "auth:" + cache.ShortHash(cfg.URL, cfg.Username) + ":"
			r.keyer = cache.NewScopedKeyer(opts.Keyer, scope)
		}

		if cfg.IsLocal() {
			root, err := localRoot(cfg.URL)
			if err != nil {
				return nil, err
			}
			r.tr = &fileTransport{root: root}
		} else {
			tr, err := newHTTPTransport(cfg, opts.HTTPClient, opts.UserAgent)
			if err != nil {
				return nil, err
			}
			r.tr = tr
		}
		c.remotes = append(c.remotes, r)
	}
	return c, nil
}

// Repositories returns the normalized repository list in query order.
func (c *Client) Repositories() []Config {
	out := make([]Config, len(c.remotes))
	for i, r := range c.remotes {
		out[i] = r.cfg
	}
	return out
}

// order returns remote indices to try for ga, remembered repository first.
func (c *Client) order(ga string) []int {
	c.preferredMu.RLock()
	pref, found := c.preferred[ga]
	c.preferredMu.RUnlock()

	idx := make([]int, 0, len(c.remotes))
	if found {
		idx = append(idx, pref)
	}
	for i := range c.remotes {
		if !found || i != pref {
			idx = append(idx, i)
		}
	}
	return idx
}

func (c *Client) remember(ga string, i int) {
	c.preferredMu.Lock()
	if _, exists := c.preferred[ga]; !exists {
		c.preferred[ga] = i
	}
	c.preferredMu.Unlock()
}

// get fetches one file through the retry policy.
func (c *Client) get(ctx context.Context, r *remote, path string) ([]byte, error) {
	policy := c.opts.Retry
	policy.OnRetry = func(attempt int, err error, delay time.Duration) {
		c.opts.Logger.Debug("retrying", "repo", r.cfg.ID, "path", path, "attempt", attempt, "delay", delay, "err", err)
	}

	var data []byte
	err := policy.Do(ctx, func(int) error {
		var err error
		data, err = r.tr.get(ctx, path)
		return err
	})
	if err != nil {
		var re *httputil.RetryableError
		if stderrors.As(err, &re) {
			err = re.Err
		}
		if ctx.Err() != nil {
			return nil, errors.Cancelled(ctx.Err())
		}
		return nil, err
	}
	return data, nil
}

// fetchVerified downloads path and checks it against path.sha1. A mismatch
// is retried once before failing with CHECKSUM_MISMATCH.
func (c *Client) fetchVerified(ctx context.Context, r *remote, path string) (data []byte, sum string, verified bool, err error) {
	var expected string
	for attempt := 1; attempt <= 2; attempt++ {
		data, err = c.get(ctx, r, path)
		if err != nil {
			return nil, "", false, err
		}
		sum = SHA1(data)

		published, err := c.get(ctx, r, path+".sha1")
		if err != nil && !errors.Is(err, errors.ErrCodeNotFound) {
			return nil, "", false, err
		}
		var ok bool
		if err == nil {
			expected, ok = parseChecksumFile(published)
		}
		if !ok {
			switch c.opts.Checksums {
			case ChecksumFail:
				return nil, "", false, errors.New(errors.ErrCodeChecksumUnavailable, "no usable checksum for %s/%s", r.cfg.URL, path)
			case ChecksumWarn:
				c.opts.Logger.Warn("checksum unavailable", "repo", r.cfg.ID, "path", path)
			}
			return data, sum, false, nil
		}

		if expected == sum {
			return data, sum, true, nil
		}
		c.opts.Logger.Warn("checksum mismatch", "repo", r.cfg.ID, "path", path, "attempt", attempt, "expected", expected, "actual", sum)
	}
	return nil, "", false, errors.New(errors.ErrCodeChecksumMismatch,
		"%s/%s: expected sha1 %s, got %s", r.cfg.URL, path, expected, sum)
}

// FetchMetadata returns the versions listed in maven-metadata.xml by the
// first repository that lists any. Only c's group and artifact are used.
func (c *Client) FetchMetadata(ctx context.Context, co coord.Coordinate) ([]string, error) {
	m, err := c.FetchVersioning(ctx, co)
	if err != nil {
		return nil, err
	}
	return m.Versioning.Versions, nil
}

// FetchVersioning is like [Client.FetchMetadata] but returns the whole
// document, including the latest and release markers.
func (c *Client) FetchVersioning(ctx context.Context, co coord.Coordinate) (*Metadata, error) {
	path := co.MetadataPath()
	var failures []error

	for _, r := range c.remotes {
		key := r.keyer.MetadataKey(r.cfg.URL, co)
		data, hit, _ := c.opts.Cache.Get(ctx, key)
		if !hit {
			var err error
			data, err = c.get(ctx, r, path)
			if err != nil {
				if errors.Is(err, errors.ErrCodeCancelled) {
					return nil, err
				}
				failures = append(failures, err)
				continue
			}
		}

		m, err := ParseMetadata(data)
		if err != nil {
			c.opts.Logger.Warn("invalid metadata", "repo", r.cfg.ID, "path", path, "err", err)
			failures = append(failures, err)
			continue
		}
		if !hit {
			if err := c.opts.Cache.Set(ctx, key, data, c.opts.MetadataTTL); err != nil {
				c.opts.Logger.Debug("cache write failed", "key", key, "err", err)
			}
		}
		if len(m.Versioning.Versions) > 0 {
			return m, nil
		}
	}
	return nil, notFound(co.GA(), "no versions listed in any repository", failures)
}

// FetchPOM downloads, verifies and parses the POM for co.
func (c *Client) FetchPOM(ctx context.Context, co coord.Coordinate) (*pom.Project, error) {
	data, _, err := c.fetchPOMBytes(ctx, co)
	if err != nil {
		return nil, err
	}
	p, err := pom.Parse(data)
	if err != nil {
		return nil, withCoordinate(err, co.POM())
	}
	return p, nil
}

// LoadPOM implements [pom.Loader].
func (c *Client) LoadPOM(ctx context.Context, co coord.Coordinate) (*pom.Project, error) {
	return c.FetchPOM(ctx, co)
}

func (c *Client) fetchPOMBytes(ctx context.Context, co coord.Coordinate) ([]byte, string, error) {
	pc := co.POM()
	order := c.order(pc.GA())

	// A POM cached from any repository beats a network round trip to an
	// earlier one.
	for _, i := range order {
		r := c.remotes[i]
		if data, hit, _ := c.opts.Cache.Get(ctx, r.keyer.POMKey(r.cfg.URL, pc)); hit {
			c.remember(pc.GA(), i)
			return data, r.cfg.URL, nil
		}
	}

	var failures []error
	for _, i := range order {
		r := c.remotes[i]
		key := r.keyer.POMKey(r.cfg.URL, pc)
		data, _, _, err := c.fetchVerified(ctx, r, pc.POMPath())
		if err != nil {
			if fatal(err) {
				return nil, "", withCoordinate(err, pc)
			}
			failures = append(failures, err)
			continue
		}

		ttl := time.Duration(0)
		if version.IsSnapshot(pc.Version) {
			ttl = c.opts.MetadataTTL
		}
		if err := c.opts.Cache.Set(ctx, key, data, ttl); err != nil {
			c.opts.Logger.Debug("cache write failed", "key", key, "err", err)
		}
		c.remember(pc.GA(), i)
		return data, r.cfg.URL, nil
	}
	return nil, "", notFound(pc.String(), "pom not found in any repository", failures)
}

// FetchArtifact downloads and verifies the file for co. Packaging "pom"
// resolves to the POM itself.
func (c *Client) FetchArtifact(ctx context.Context, co coord.Coordinate) (*Artifact, error) {
	path := co.RepositoryPath()
	var failures []error

	for _, i := range c.order(co.GA()) {
		r := c.remotes[i]
		c.opts.Logger.Debug("fetching artifact", "coordinate", co.String(), "repo", r.cfg.ID)

		data, sum, verified, err := c.fetchVerified(ctx, r, path)
		if err != nil {
			if fatal(err) {
				return nil, withCoordinate(err, co)
			}
			failures = append(failures, err)
			continue
		}

		c.remember(co.GA(), i)
		return &Artifact{
			Coordinate: co,
			Data:       data,
			Checksum:   sum,
			Verified:   verified,
			Repository: r.cfg.URL,
		}, nil
	}
	return nil, notFound(co.String(), "artifact not found in any repository", failures)
}

// fatal errors stop the repository walk instead of falling through to the
// next repository.
func fatal(err error) bool {
	return errors.Is(err, errors.ErrCodeCancelled) ||
		errors.Is(err, errors.ErrCodeChecksumMismatch) ||
		errors.Is(err, errors.ErrCodeChecksumUnavailable)
}

// notFound summarizes a failed repository walk. When every repository said
// 404 the result is NOT_FOUND; otherwise the first other failure decides
// the code so network trouble isn't reported as a missing artifact.
func notFound(what, msg string, failures []error) error {
	for _, f := range failures {
		if !errors.Is(f, errors.ErrCodeNotFound) {
			code := errors.GetCode(f)
			if code == "" {
				code = errors.ErrCodeNetwork
			}
			return errors.Wrap(code, f, "%s", strings.TrimSuffix(msg, " in any repository")).WithCoordinate(what)
		}
	}
	var cause error
	if len(failures) > 0 {
		cause = failures[len(failures)-1]
	}
	return errors.Wrap(errors.ErrCodeNotFound, cause, "%s", msg).WithCoordinate(what)
}

func withCoordinate(err error, co coord.Coordinate) error {
	var e *errors.Error
	if stderrors.As(err, &e) && e.Coordinate == "" {
		e.Coordinate = co.String()
	}
	return err
}
