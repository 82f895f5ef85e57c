package repository

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/matzehuels/mvnfetch/pkg/errors"
	"github.com/matzehuels/mvnfetch/pkg/httputil"
	"github.com/matzehuels/mvnfetch/pkg/observability"
)

const httpTimeout = 60 * time.Second

// transport reads a file relative to a repository root. Errors carry
// NOT_FOUND, UNAUTHORIZED or NETWORK_ERROR codes; transient ones are wrapped
// in [httputil.RetryableError].
type transport interface {
	get(ctx context.Context, path string) ([]byte, error)
}

// NewHTTPClient creates an HTTP client with a standard timeout for
// repository requests.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: httpTimeout}
}

type httpTransport struct {
	base      string
	host      string
	client    *http.Client
	username  string
	password  string
	userAgent string
}

func newHTTPTransport(cfg Config, client *http.Client, userAgent string) (*httpTransport, error) {
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeUnsupportedRepoURL, err, "invalid repository URL %q", cfg.URL)
	}
	return &httpTransport{
		base:      strings.TrimRight(cfg.URL, "/"),
		host:      u.Host,
		client:    client,
		username:  cfg.Username,
		password:  cfg.Password,
		userAgent: userAgent,
	}, nil
}

func (t *httpTransport) get(ctx context.Context, path string) ([]byte, error) {
	if err := errors.ValidateRelativePath(path); err != nil {
		return nil, err
	}
	reqURL := t.base + "/" + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "build request")
	}
	if t.userAgent != "" {
		req.Header.Set("User-Agent", t.userAgent)
	}
	if t.username != "" || t.password != "" {
		req.SetBasicAuth(t.username, t.password)
	}

	hooks := observability.HTTP()
	hooks.OnRequest(ctx, http.MethodGet, t.host, req.URL.Path)
	start := time.Now()

	resp, err := t.client.Do(req)
	if err != nil {
		hooks.OnError(ctx, http.MethodGet, t.host, req.URL.Path, err)
		if ctx.Err() != nil {
			return nil, errors.Cancelled(ctx.Err())
		}
		return nil, httputil.Retryable(errors.Wrap(errors.ErrCodeNetwork, err, "GET %s", reqURL))
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, http.MethodGet, t.host, req.URL.Path, resp.StatusCode, time.Since(start))

	if err := checkStatus(resp.StatusCode, reqURL); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.Cancelled(ctx.Err())
		}
		return nil, httputil.Retryable(errors.Wrap(errors.ErrCodeNetwork, err, "read %s", reqURL))
	}
	return data, nil
}

func checkStatus(code int, reqURL string) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound || code == http.StatusGone:
		return errors.New(errors.ErrCodeNotFound, "%s: status %d", reqURL, code)
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return errors.New(errors.ErrCodeUnauthorized, "%s: status %d", reqURL, code)
	case code == http.StatusTooManyRequests || code >= 500:
		return httputil.Retryable(errors.New(errors.ErrCodeNetwork, "%s: status %d", reqURL, code))
	default:
		return errors.New(errors.ErrCodeNetwork, "%s: status %d", reqURL, code)
	}
}

type fileTransport struct {
	root string
}

func (t *fileTransport) get(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Cancelled(err)
	}
	if err := errors.ValidateRelativePath(path); err != nil {
		return nil, err
	}
	full := filepath.Join(t.root, filepath.FromSlash(path))

	data, err := os.ReadFile(full)
	if os.IsNotExist(err) {
		return nil, errors.New(errors.ErrCodeNotFound, "%s does not exist", full)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "read %s", full)
	}
	return data, nil
}
