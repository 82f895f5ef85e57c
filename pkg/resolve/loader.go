package resolve

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/matzehuels/mvnfetch/pkg/coord"
	"github.com/matzehuels/mvnfetch/pkg/errors"
	"github.com/matzehuels/mvnfetch/pkg/pom"
	"github.com/matzehuels/mvnfetch/pkg/version"
)

// Source supplies POMs and version listings. *repository.Client implements it.
type Source interface {
	pom.Loader
	FetchMetadata(ctx context.Context, c coord.Coordinate) ([]string, error)
}

// loader memoizes POMs, effective models and version listings for the
// lifetime of one Resolve call, including every HighestVersion iteration.
// Cancelled lookups are not remembered.
type loader struct {
	src    Source
	flight singleflight.Group

	mu       sync.Mutex
	projects map[coord.Coordinate]result[*pom.Project]
	models   map[coord.Coordinate]result[*pom.Model]
	versions map[string]result[[]string]
}

type result[T any] struct {
	val T
	err error
}

func newLoader(src Source) *loader {
	return &loader{
		src:      src,
		projects: make(map[coord.Coordinate]result[*pom.Project]),
		models:   make(map[coord.Coordinate]result[*pom.Model]),
		versions: make(map[string]result[[]string]),
	}
}

func memo[K comparable, T any](ctx context.Context, l *loader, cache map[K]result[T], key K, flightKey string, fn func() (T, error)) (T, error) {
	l.mu.Lock()
	r, ok := cache[key]
	l.mu.Unlock()
	if ok {
		return r.val, r.err
	}

	v, err, _ := l.flight.Do(flightKey, func() (any, error) {
		val, err := fn()
		if !errors.Is(err, errors.ErrCodeCancelled) && ctx.Err() == nil {
			l.mu.Lock()
			cache[key] = result[T]{val: val, err: err}
			l.mu.Unlock()
		}
		return val, err
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// LoadPOM implements pom.Loader so parents and BOMs go through the memo.
func (l *loader) LoadPOM(ctx context.Context, c coord.Coordinate) (*pom.Project, error) {
	pc := c.POM()
	return memo(ctx, l, l.projects, pc, "pom:"+pc.String(), func() (*pom.Project, error) {
		return l.src.LoadPOM(ctx, pc)
	})
}

// model returns the effective POM for c.
func (l *loader) model(ctx context.Context, c coord.Coordinate) (*pom.Model, error) {
	pc := c.POM()
	return memo(ctx, l, l.models, pc, "model:"+pc.String(), func() (*pom.Model, error) {
		p, err := l.LoadPOM(ctx, pc)
		if err != nil {
			return nil, err
		}
		return pom.Build(ctx, p, l)
	})
}

// available returns the versions published for c's group and artifact.
func (l *loader) available(ctx context.Context, c coord.Coordinate) ([]string, error) {
	ga := c.GA()
	return memo(ctx, l, l.versions, ga, "meta:"+ga, func() ([]string, error) {
		return l.src.FetchMetadata(ctx, c)
	})
}

// selectVersion turns a declared version into a concrete one. Plain
// versions are used as-is; ranges and missing versions consult the
// repository metadata.
func (l *loader) selectVersion(ctx context.Context, c coord.Coordinate) (string, error) {
	declared := c.Version
	switch {
	case pom.Unresolved(declared):
		return "", errors.New(errors.ErrCodeInvalidDescriptor, "unresolved expression in version %q", declared).WithCoordinate(c.String())

	case declared == "":
		vs, err := l.available(ctx, c)
		if err != nil {
			return "", err
		}
		if v := newestRelease(vs); v != "" {
			return v, nil
		}
		return "", errors.New(errors.ErrCodeNoMatchingVersion, "no versions published for %s", c.GA()).WithCoordinate(c.GA())

	case version.IsRange(declared):
		r, err := version.ParseRange(declared)
		if err != nil {
			return "", err
		}
		vs, err := l.available(ctx, c)
		if err != nil {
			return "", err
		}
		if v, ok := r.Select(vs); ok {
			return v, nil
		}
		return "", errors.New(errors.ErrCodeNoMatchingVersion, "no version of %s matches %s", c.GA(), declared).WithCoordinate(c.String())

	default:
		return declared, nil
	}
}

// newestRelease prefers the highest non-snapshot version.
func newestRelease(vs []string) string {
	var releases []string
	for _, v := range vs {
		if !version.IsSnapshot(v) {
			releases = append(releases, v)
		}
	}
	if len(releases) > 0 {
		return version.Max(releases)
	}
	return version.Max(vs)
}
