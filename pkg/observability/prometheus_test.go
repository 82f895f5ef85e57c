package observability

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/matzehuels/mvnfetch/pkg/errors"
)

func TestPrometheusHooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	h := NewPrometheusHooks(reg)
	ctx := context.Background()

	h.OnResolveComplete(ctx, nil, 3, time.Second, nil)
	h.OnResolveComplete(ctx, nil, 0, time.Second, errors.New(errors.ErrCodeMissingDependency, "gone"))
	h.OnDiagnostic(ctx, "CycleDetected", "g:a:1")
	h.OnDownloadComplete(ctx, "g:a:1", 100, false, time.Millisecond, nil)
	h.OnDownloadComplete(ctx, "g:b:1", 50, true, time.Millisecond, nil)
	h.OnCacheHit(ctx, "pom")
	h.OnCacheMiss(ctx, "pom")
	h.OnResponse(ctx, "GET", "repo.example", "/x", 404, time.Millisecond)
	h.OnError(ctx, "GET", "repo.example", "/x", nil)

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"resolve ok", testutil.ToFloat64(h.resolveTotal.WithLabelValues("ok")), 1},
		{"resolve missing", testutil.ToFloat64(h.resolveTotal.WithLabelValues("MISSING_DEPENDENCY")), 1},
		{"cycle diagnostics", testutil.ToFloat64(h.diagnosticsTotal.WithLabelValues("CycleDetected")), 1},
		{"remote downloads", testutil.ToFloat64(h.downloadTotal.WithLabelValues("remote", "ok")), 1},
		{"cached downloads", testutil.ToFloat64(h.downloadTotal.WithLabelValues("cache", "ok")), 1},
		{"remote bytes only", testutil.ToFloat64(h.downloadBytes), 100},
		{"cache hits", testutil.ToFloat64(h.cacheTotal.WithLabelValues("pom", "hit")), 1},
		{"cache misses", testutil.ToFloat64(h.cacheTotal.WithLabelValues("pom", "miss")), 1},
		{"http 404", testutil.ToFloat64(h.httpRequestsTotal.WithLabelValues("repo.example", "404")), 1},
		{"http errors", testutil.ToFloat64(h.httpErrorsTotal.WithLabelValues("repo.example")), 1},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestPrometheusHooksDoubleRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewPrometheusHooks(reg)

	defer func() {
		if recover() == nil {
			t.Error("registering twice on one registry should panic")
		}
	}()
	NewPrometheusHooks(reg)
}
