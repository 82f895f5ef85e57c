package download

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/mvnfetch/pkg/coord"
	"github.com/matzehuels/mvnfetch/pkg/errors"
	"github.com/matzehuels/mvnfetch/pkg/repository"
	"github.com/matzehuels/mvnfetch/pkg/store"
)

// countingFetcher serves artifacts whose content is their coordinate and
// counts calls per coordinate.
type countingFetcher struct {
	mu      sync.Mutex
	calls   map[string]int
	missing map[string]bool
	delay   map[string]time.Duration
	active  int
	maxSeen int
}

func newCountingFetcher() *countingFetcher {
	return &countingFetcher{
		calls:   map[string]int{},
		missing: map[string]bool{},
		delay:   map[string]time.Duration{},
	}
}

func (f *countingFetcher) FetchArtifact(ctx context.Context, c coord.Coordinate) (*repository.Artifact, error) {
	f.mu.Lock()
	f.calls[c.String()]++
	f.active++
	f.maxSeen = max(f.maxSeen, f.active)
	delay := f.delay[c.String()]
	missing := f.missing[c.String()]
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.active--
		f.mu.Unlock()
	}()

	select {
	case <-time.After(delay):
	case <-ctx.Done():
		return nil, errors.Cancelled(ctx.Err())
	}
	if missing {
		return nil, errors.New(errors.ErrCodeNotFound, "artifact not found in any repository").WithCoordinate(c.String())
	}
	data := []byte(c.String())
	return &repository.Artifact{
		Coordinate: c,
		Data:       data,
		Checksum:   repository.SHA1(data),
		Verified:   true,
		Repository: "https://repo.example.com",
	}, nil
}

func (f *countingFetcher) count(c string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[c]
}

func newTestManager(t *testing.T, f Fetcher, workers int) *Manager {
	t.Helper()
	s, err := store.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return New(f, s, Options{Workers: workers})
}

func TestMaterializePreservesOrder(t *testing.T) {
	f := newCountingFetcher()
	f.delay["org.example:a:1.0"] = 30 * time.Millisecond
	f.delay["org.example:b:1.0"] = 10 * time.Millisecond
	m := newTestManager(t, f, 4)

	coords := []coord.Coordinate{
		coord.MustParse("org.example:a:1.0"),
		coord.MustParse("org.example:b:1.0"),
		coord.MustParse("org.example:c:1.0"),
	}
	got, err := m.Materialize(context.Background(), coords)
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	for i, r := range got {
		if r.Coordinate != coords[i] {
			t.Errorf("result[%d] = %s, want %s", i, r.Coordinate, coords[i])
		}
		if r.Cached || r.Repository == "" || r.Path == "" {
			t.Errorf("result[%d] = %+v", i, r)
		}
	}
}

func TestMaterializeFetchesOncePerCoordinate(t *testing.T) {
	f := newCountingFetcher()
	m := newTestManager(t, f, 4)
	ctx := context.Background()

	coords := []coord.Coordinate{
		coord.MustParse("org.example:a:1.0"),
		coord.MustParse("org.example:b:1.0"),
		coord.MustParse("org.example:a:1.0"),
	}
	if _, err := m.Materialize(ctx, coords); err != nil {
		t.Fatal(err)
	}
	second, err := m.Materialize(ctx, coords)
	if err != nil {
		t.Fatal(err)
	}

	for _, c := range []string{"org.example:a:1.0", "org.example:b:1.0"} {
		if n := f.count(c); n != 1 {
			t.Errorf("%s fetched %d times, want 1", c, n)
		}
	}
	for _, r := range second {
		if !r.Cached || r.Repository != "" {
			t.Errorf("second call result %+v should come from the store", r)
		}
	}
}

func TestMaterializeConcurrentCalls(t *testing.T) {
	f := newCountingFetcher()
	f.delay["org.example:slow:1.0"] = 50 * time.Millisecond
	m := newTestManager(t, f, 4)
	coords := []coord.Coordinate{coord.MustParse("org.example:slow:1.0")}

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.Materialize(context.Background(), coords); err != nil {
				t.Errorf("Materialize: %v", err)
			}
		}()
	}
	wg.Wait()

	if n := f.count("org.example:slow:1.0"); n != 1 {
		t.Errorf("fetched %d times, want 1", n)
	}
}

func TestMaterializeWorkerLimit(t *testing.T) {
	f := newCountingFetcher()
	var coords []coord.Coordinate
	for _, a := range []string{"a", "b", "c", "d", "e", "f"} {
		c := coord.MustParse("org.example:" + a + ":1.0")
		f.delay[c.String()] = 20 * time.Millisecond
		coords = append(coords, c)
	}
	m := newTestManager(t, f, 2)

	if _, err := m.Materialize(context.Background(), coords); err != nil {
		t.Fatal(err)
	}
	if f.maxSeen > 2 {
		t.Errorf("saw %d concurrent fetches, limit is 2", f.maxSeen)
	}
}

func TestMaterializePartialFailure(t *testing.T) {
	f := newCountingFetcher()
	f.missing["org.example:gone:1.0"] = true
	f.missing["org.example:lost:1.0"] = true
	m := newTestManager(t, f, 1)

	coords := []coord.Coordinate{
		coord.MustParse("org.example:gone:1.0"),
		coord.MustParse("org.example:ok:1.0"),
		coord.MustParse("org.example:lost:1.0"),
	}
	got, err := m.Materialize(context.Background(), coords)
	if got != nil {
		t.Errorf("results = %v, want nil on failure", got)
	}
	var pe *errors.PartialResolutionError
	if !asPartial(err, &pe) {
		t.Fatalf("err = %v, want PartialResolutionError", err)
	}
	if pe.Total != 3 || len(pe.Failures) != 2 {
		t.Fatalf("failures = %+v", pe)
	}
	if pe.Failures[0].Coordinate != "org.example:gone:1.0" || pe.Failures[1].Coordinate != "org.example:lost:1.0" {
		t.Errorf("coordinates = %v", pe.Coordinates())
	}
	if !errors.Is(err, errors.ErrCodePartialResolution) {
		t.Error("errors.Is(PARTIAL_RESOLUTION) = false")
	}
	// the good artifact was still stored
	if n := f.count("org.example:ok:1.0"); n != 1 {
		t.Errorf("ok fetched %d times, want 1", n)
	}
}

func TestMaterializeCancelled(t *testing.T) {
	f := newCountingFetcher()
	f.delay["org.example:slow:1.0"] = time.Second
	m := newTestManager(t, f, 2)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := m.Materialize(ctx, []coord.Coordinate{coord.MustParse("org.example:slow:1.0")})
	if !errors.Is(err, errors.ErrCodeCancelled) {
		t.Fatalf("err = %v, want CANCELLED", err)
	}
}

// waiting reports how many callers wait on the fetch of c.
func (m *Manager) waiting(c coord.Coordinate) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sf, ok := m.inflight[flightKey(c)]; ok {
		return sf.waiters
	}
	return 0
}

func TestMaterializeSharedFetchSurvivesCallerCancel(t *testing.T) {
	f := newCountingFetcher()
	slow := coord.MustParse("org.example:slow:1.0")
	f.delay[slow.String()] = 200 * time.Millisecond
	m := newTestManager(t, f, 2)

	ctx1, cancel1 := context.WithCancel(context.Background())
	defer cancel1()
	err1 := make(chan error, 1)
	go func() {
		_, err := m.Materialize(ctx1, []coord.Coordinate{slow})
		err1 <- err
	}()
	waitFor(t, func() bool { return f.count(slow.String()) == 1 })

	type result struct {
		files []ResolvedArtifact
		err   error
	}
	res2 := make(chan result, 1)
	go func() {
		files, err := m.Materialize(context.Background(), []coord.Coordinate{slow})
		res2 <- result{files, err}
	}()
	waitFor(t, func() bool { return m.waiting(slow) == 2 })

	cancel1()
	if err := <-err1; !errors.Is(err, errors.ErrCodeCancelled) {
		t.Errorf("cancelled caller err = %v, want CANCELLED", err)
	}

	r := <-res2
	if r.err != nil {
		t.Fatalf("live caller failed: %v", r.err)
	}
	if len(r.files) != 1 || r.files[0].Coordinate != slow {
		t.Errorf("live caller files = %+v", r.files)
	}
	if n := f.count(slow.String()); n != 1 {
		t.Errorf("slow fetched %d times, want 1", n)
	}
}

func TestMaterializeLastCallerCancelStopsFetch(t *testing.T) {
	f := newCountingFetcher()
	slow := coord.MustParse("org.example:slow:1.0")
	f.delay[slow.String()] = time.Minute
	m := newTestManager(t, f, 1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := m.Materialize(ctx, []coord.Coordinate{slow})
		done <- err
	}()
	waitFor(t, func() bool { return m.waiting(slow) == 1 })
	cancel()
	if err := <-done; !errors.Is(err, errors.ErrCodeCancelled) {
		t.Fatalf("err = %v, want CANCELLED", err)
	}
	waitFor(t, func() bool {
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.active == 0
	})
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not reached")
		}
		time.Sleep(time.Millisecond)
	}
}

func asPartial(err error, target **errors.PartialResolutionError) bool {
	pe, ok := err.(*errors.PartialResolutionError)
	if ok {
		*target = pe
	}
	return ok
}
