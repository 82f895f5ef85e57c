package resolve

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/matzehuels/mvnfetch/pkg/coord"
	"github.com/matzehuels/mvnfetch/pkg/errors"
	"github.com/matzehuels/mvnfetch/pkg/pom"
)

// dep describes a declared dependency in a fake POM.
type dep struct {
	gav      string
	scope    string
	optional bool
	excludes []string
}

func d(gav string) dep { return dep{gav: gav} }

// fakeSource serves POMs built from declarations and counts loads.
type fakeSource struct {
	mu       sync.Mutex
	poms     map[string]string
	versions map[string][]string
	loads    map[string]int
}

func newFakeSource() *fakeSource {
	return &fakeSource{poms: map[string]string{}, versions: map[string][]string{}, loads: map[string]int{}}
}

func (f *fakeSource) add(gav string, deps ...dep) *fakeSource {
	f.raw(gav, "", "", deps...)
	return f
}

// raw registers a POM with optional extra project XML and management XML.
func (f *fakeSource) raw(gav, extra, managed string, deps ...dep) {
	c := coord.MustParse(gav)
	var b strings.Builder
	fmt.Fprintf(&b, "<project><groupId>%s</groupId><artifactId>%s</artifactId><version>%s</version>%s", c.Group, c.Artifact, c.Version, extra)
	if managed != "" {
		fmt.Fprintf(&b, "<dependencyManagement><dependencies>%s</dependencies></dependencyManagement>", managed)
	}
	b.WriteString("<dependencies>")
	for _, dp := range deps {
		b.WriteString(depXML(dp))
	}
	b.WriteString("</dependencies></project>")

	f.mu.Lock()
	f.poms[c.String()] = b.String()
	f.versions[c.GA()] = append(f.versions[c.GA()], c.Version)
	f.mu.Unlock()
}

func depXML(dp dep) string {
	parts := strings.Split(dp.gav, ":")
	var b strings.Builder
	fmt.Fprintf(&b, "<dependency><groupId>%s</groupId><artifactId>%s</artifactId>", parts[0], parts[1])
	if len(parts) > 2 && parts[2] != "" {
		fmt.Fprintf(&b, "<version>%s</version>", parts[2])
	}
	if dp.scope != "" {
		fmt.Fprintf(&b, "<scope>%s</scope>", dp.scope)
	}
	if dp.optional {
		b.WriteString("<optional>true</optional>")
	}
	if len(dp.excludes) > 0 {
		b.WriteString("<exclusions>")
		for _, e := range dp.excludes {
			ga := strings.Split(e, ":")
			fmt.Fprintf(&b, "<exclusion><groupId>%s</groupId><artifactId>%s</artifactId></exclusion>", ga[0], ga[1])
		}
		b.WriteString("</exclusions>")
	}
	b.WriteString("</dependency>")
	return b.String()
}

func (f *fakeSource) LoadPOM(ctx context.Context, c coord.Coordinate) (*pom.Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Cancelled(err)
	}
	key := c.Group + ":" + c.Artifact + ":" + c.Version
	f.mu.Lock()
	f.loads[key]++
	data, ok := f.poms[key]
	f.mu.Unlock()
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "pom not found in any repository").WithCoordinate(key)
	}
	return pom.Parse([]byte(data))
}

func (f *fakeSource) FetchMetadata(_ context.Context, c coord.Coordinate) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	vs, ok := f.versions[c.GA()]
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "no versions listed in any repository").WithCoordinate(c.GA())
	}
	return slices.Clone(vs), nil
}

func resolveStrings(t *testing.T, src Source, opts Options, roots ...string) *Result {
	t.Helper()
	cs := make([]coord.Coordinate, len(roots))
	for i, r := range roots {
		cs[i] = coord.MustParse(r)
	}
	res, err := Resolve(context.Background(), src, cs, opts)
	if err != nil {
		t.Fatalf("Resolve(%v): %v", roots, err)
	}
	return res
}

func orderStrings(res *Result) []string {
	out := make([]string, len(res.Order))
	for i, c := range res.Order {
		out[i] = c.String()
	}
	return out
}

func TestResolveChain(t *testing.T) {
	src := newFakeSource().
		add("com.example:app:1.0", d("com.example:lib:2.0")).
		add("com.example:lib:2.0", d("com.example:util:1.5")).
		add("com.example:util:1.5")

	res := resolveStrings(t, src, Options{}, "com.example:app:1.0")

	want := []string{"com.example:app:1.0", "com.example:lib:2.0", "com.example:util:1.5"}
	if got := orderStrings(res); !slices.Equal(got, want) {
		t.Errorf("Order = %v, want %v", got, want)
	}
	if len(res.Diagnostics) != 0 {
		t.Errorf("Diagnostics = %v", res.Diagnostics)
	}
}

func TestShallowerDeclarationWins(t *testing.T) {
	for _, first := range []string{"direct", "transitive"} {
		t.Run(first+" first", func(t *testing.T) {
			direct := d("com.example:lib:2.0")
			via := d("com.example:other:1.0")
			deps := []dep{direct, via}
			if first == "transitive" {
				deps = []dep{via, direct}
			}
			src := newFakeSource().
				add("com.example:app:1.0", deps...).
				add("com.example:other:1.0", d("com.example:lib:1.0")).
				add("com.example:lib:1.0").
				add("com.example:lib:2.0")

			res := resolveStrings(t, src, Options{}, "com.example:app:1.0")

			if !slices.Contains(orderStrings(res), "com.example:lib:2.0") {
				t.Errorf("Order = %v, want lib 2.0", orderStrings(res))
			}
			if slices.Contains(orderStrings(res), "com.example:lib:1.0") {
				t.Errorf("Order = %v contains the deeper lib 1.0", orderStrings(res))
			}
			if n := res.Count(VersionConflict); n != 1 {
				t.Errorf("VersionConflict diagnostics = %d, want 1", n)
			}
			if n := src.loads["com.example:lib:1.0"]; n != 0 {
				t.Errorf("losing lib 1.0 POM loaded %d times", n)
			}
		})
	}
}

func TestFirstDeclarationBreaksTies(t *testing.T) {
	src := newFakeSource().
		add("com.example:app:1.0", d("com.example:a:1.0"), d("com.example:b:1.0")).
		add("com.example:a:1.0", d("com.example:x:1.0")).
		add("com.example:b:1.0", d("com.example:x:2.0")).
		add("com.example:x:1.0").
		add("com.example:x:2.0")

	res := resolveStrings(t, src, Options{}, "com.example:app:1.0")

	want := []string{"com.example:app:1.0", "com.example:a:1.0", "com.example:b:1.0", "com.example:x:1.0"}
	if got := orderStrings(res); !slices.Equal(got, want) {
		t.Errorf("Order = %v, want %v", got, want)
	}
}

func TestCycleDetected(t *testing.T) {
	src := newFakeSource().
		add("com.example:a:1.0", d("com.example:b:1.0")).
		add("com.example:b:1.0", d("com.example:a:1.0"))

	res := resolveStrings(t, src, Options{}, "com.example:a:1.0")

	want := []string{"com.example:a:1.0", "com.example:b:1.0"}
	if got := orderStrings(res); !slices.Equal(got, want) {
		t.Errorf("Order = %v, want %v", got, want)
	}
	if n := res.Count(CycleDetected); n != 1 {
		t.Fatalf("CycleDetected = %d, want 1: %v", n, res.Diagnostics)
	}
	diag := res.Diagnostics[0]
	if diag.Coordinate != "com.example:a:1.0" {
		t.Errorf("diagnostic coordinate = %s", diag.Coordinate)
	}
	if err := res.Graph.Validate(); err != nil {
		t.Errorf("graph not acyclic: %v", err)
	}
}

func TestCrossEdgeCycleBrokenInGraph(t *testing.T) {
	src := newFakeSource().
		add("com.example:app:1.0", d("com.example:b:1.0"), d("com.example:c:1.0")).
		add("com.example:b:1.0", d("com.example:c:1.0")).
		add("com.example:c:1.0", d("com.example:b:1.0"))

	res := resolveStrings(t, src, Options{}, "com.example:app:1.0")

	if n := res.Count(CycleDetected); n != 1 {
		t.Errorf("CycleDetected = %d, want 1: %v", n, res.Diagnostics)
	}
	if err := res.Graph.Validate(); err != nil {
		t.Errorf("graph not acyclic: %v", err)
	}
	if got := len(res.Order); got != 3 {
		t.Errorf("len(Order) = %d, want 3", got)
	}
}

func TestExclusions(t *testing.T) {
	src := newFakeSource().
		add("com.example:app:1.0",
			dep{gav: "com.example:lib:1.0", excludes: []string{"com.example:util"}},
			d("com.example:other:1.0")).
		add("com.example:lib:1.0", d("com.example:util:1.0")).
		add("com.example:other:1.0", d("org.noise:logging:1.0")).
		add("com.example:util:1.0").
		add("org.noise:logging:1.0")

	global, err := coord.ParseExclusions([]string{"org.noise:*"})
	if err != nil {
		t.Fatal(err)
	}
	res := resolveStrings(t, src, Options{Excludes: global}, "com.example:app:1.0")

	want := []string{"com.example:app:1.0", "com.example:lib:1.0", "com.example:other:1.0"}
	if got := orderStrings(res); !slices.Equal(got, want) {
		t.Errorf("Order = %v, want %v", got, want)
	}
}

func TestExclusionAppliesBeforeDepthComparison(t *testing.T) {
	src := newFakeSource().
		add("com.example:app:1.0",
			dep{gav: "com.example:a:1.0", excludes: []string{"com.example:x"}},
			d("com.example:b:1.0")).
		add("com.example:a:1.0", d("com.example:x:1.0")).
		add("com.example:b:1.0", d("com.example:c:1.0")).
		add("com.example:c:1.0", d("com.example:x:2.0")).
		add("com.example:x:1.0").
		add("com.example:x:2.0")

	res := resolveStrings(t, src, Options{}, "com.example:app:1.0")

	if !slices.Contains(orderStrings(res), "com.example:x:2.0") {
		t.Errorf("Order = %v, want x 2.0 from the non-excluded path", orderStrings(res))
	}
}

func TestScopes(t *testing.T) {
	src := newFakeSource().
		add("com.example:app:1.0",
			d("com.example:lib:1.0"),
			dep{gav: "javax.servlet:servlet-api:3.0", scope: "provided"}).
		add("com.example:lib:1.0",
			dep{gav: "junit:junit:4.13", scope: "test"},
			dep{gav: "com.example:rt:1.0", scope: "runtime"}).
		add("com.example:rt:1.0", d("com.example:deep:1.0")).
		add("com.example:deep:1.0").
		add("javax.servlet:servlet-api:3.0").
		add("junit:junit:4.13")

	res := resolveStrings(t, src, Options{}, "com.example:app:1.0")

	want := []string{"com.example:app:1.0", "com.example:lib:1.0", "com.example:rt:1.0", "com.example:deep:1.0"}
	if got := orderStrings(res); !slices.Equal(got, want) {
		t.Errorf("Order = %v, want %v", got, want)
	}
	for _, a := range res.Artifacts {
		if a.Coordinate.Artifact == "deep" && a.Scope != "runtime" {
			t.Errorf("deep scope = %s, want runtime", a.Scope)
		}
	}

	res = resolveStrings(t, src, Options{Scopes: []string{"compile", "runtime", "provided"}}, "com.example:app:1.0")
	if !slices.Contains(orderStrings(res), "javax.servlet:servlet-api:3.0") {
		t.Errorf("provided scope requested but missing: %v", orderStrings(res))
	}
	if slices.Contains(orderStrings(res), "junit:junit:4.13") {
		t.Error("transitive test dependency resolved")
	}
}

func TestOptionalDependencies(t *testing.T) {
	src := newFakeSource().
		add("com.example:app:1.0", d("com.example:lib:1.0")).
		add("com.example:lib:1.0",
			dep{gav: "com.example:opt:1.0", optional: true},
			dep{gav: "com.example:gone:1.0", optional: true}).
		add("com.example:opt:1.0")

	res := resolveStrings(t, src, Options{}, "com.example:app:1.0")
	if got := len(res.Order); got != 2 {
		t.Errorf("Order = %v, want optional dependencies skipped", orderStrings(res))
	}

	res = resolveStrings(t, src, Options{IncludeOptional: true}, "com.example:app:1.0")
	if !slices.Contains(orderStrings(res), "com.example:opt:1.0") {
		t.Errorf("Order = %v, want opt included", orderStrings(res))
	}
	if n := res.Count(MissingOptional); n != 1 {
		t.Errorf("MissingOptional = %d, want 1", n)
	}
}

func TestMissingDependency(t *testing.T) {
	src := newFakeSource().
		add("com.example:app:1.0", d("com.example:gone:1.0"))

	_, err := Resolve(context.Background(), src, []coord.Coordinate{coord.MustParse("com.example:app:1.0")}, Options{})
	if !errors.Is(err, errors.ErrCodeMissingDependency) {
		t.Fatalf("err = %v, want MISSING_DEPENDENCY", err)
	}
	if got := errors.CoordinateOf(err); got != "com.example:gone:1.0" {
		t.Errorf("CoordinateOf = %q", got)
	}
}

func TestMissingRoot(t *testing.T) {
	_, err := Resolve(context.Background(), newFakeSource(), []coord.Coordinate{coord.MustParse("com.example:nope:1.0")}, Options{})
	if !errors.Is(err, errors.ErrCodeMissingDependency) {
		t.Fatalf("err = %v, want MISSING_DEPENDENCY", err)
	}
}

func TestVersionRange(t *testing.T) {
	src := newFakeSource().
		add("com.example:app:1.0", d("com.example:lib:[1.0,2.0)")).
		add("com.example:lib:1.0").
		add("com.example:lib:1.5").
		add("com.example:lib:2.0")

	res := resolveStrings(t, src, Options{}, "com.example:app:1.0")
	if !slices.Contains(orderStrings(res), "com.example:lib:1.5") {
		t.Errorf("Order = %v, want lib 1.5", orderStrings(res))
	}
}

func TestVersionRangeNoMatch(t *testing.T) {
	src := newFakeSource().
		add("com.example:app:1.0", d("com.example:lib:[3.0,)")).
		add("com.example:lib:1.0")

	_, err := Resolve(context.Background(), src, []coord.Coordinate{coord.MustParse("com.example:app:1.0")}, Options{})
	if !errors.Is(err, errors.ErrCodeMissingDependency) || !errors.Is(err, errors.ErrCodeNoMatchingVersion) {
		t.Fatalf("err = %v, want MISSING_DEPENDENCY caused by NO_MATCHING_VERSION", err)
	}
}

func TestManagedVersions(t *testing.T) {
	src := newFakeSource()
	src.raw("com.example:parent:1.0", "<packaging>pom</packaging>",
		depXML(d("com.example:lib:1.2"))+depXML(d("com.example:util:3.0")))
	src.raw("com.example:app:1.0",
		"<parent><groupId>com.example</groupId><artifactId>parent</artifactId><version>1.0</version></parent>",
		"", d("com.example:lib"))
	src.add("com.example:lib:1.2", d("com.example:util:2.0"))
	src.add("com.example:util:2.0")
	src.add("com.example:util:3.0")

	res := resolveStrings(t, src, Options{}, "com.example:app:1.0")

	want := []string{"com.example:app:1.0", "com.example:lib:1.2", "com.example:util:3.0"}
	if got := orderStrings(res); !slices.Equal(got, want) {
		t.Errorf("Order = %v, want %v", got, want)
	}
}

func TestHighestVersionPolicy(t *testing.T) {
	src := newFakeSource().
		add("com.example:app:1.0", d("com.example:lib:1.0"), d("com.example:other:1.0")).
		add("com.example:other:1.0", d("com.example:lib:2.0")).
		add("com.example:lib:1.0").
		add("com.example:lib:2.0")

	nearest := resolveStrings(t, src, Options{}, "com.example:app:1.0")
	if !slices.Contains(orderStrings(nearest), "com.example:lib:1.0") {
		t.Errorf("nearest Order = %v, want lib 1.0", orderStrings(nearest))
	}

	highest := resolveStrings(t, src, Options{Policy: HighestVersion}, "com.example:app:1.0")
	want := []string{"com.example:app:1.0", "com.example:lib:2.0", "com.example:other:1.0"}
	if got := orderStrings(highest); !slices.Equal(got, want) {
		t.Errorf("highest Order = %v, want %v", got, want)
	}
}

func TestRelocation(t *testing.T) {
	src := newFakeSource()
	src.raw("com.example:old:1.0",
		"<distributionManagement><relocation><groupId>com.example.new</groupId></relocation></distributionManagement>", "")
	src.add("com.example:app:1.0", d("com.example:old:1.0"))
	src.add("com.example.new:old:1.0")

	res := resolveStrings(t, src, Options{}, "com.example:app:1.0")

	want := []string{"com.example:app:1.0", "com.example.new:old:1.0"}
	if got := orderStrings(res); !slices.Equal(got, want) {
		t.Errorf("Order = %v, want %v", got, want)
	}
	if n := res.Count(Relocated); n != 1 {
		t.Errorf("Relocated = %d, want 1", n)
	}
}

func TestGraph(t *testing.T) {
	src := newFakeSource().
		add("com.example:app:1.0", d("com.example:lib:1.0"), d("com.example:log:1.0")).
		add("com.example:lib:1.0", d("com.example:util:1.0")).
		add("com.example:log:1.0", d("com.example:util:1.0")).
		add("com.example:util:1.0")

	res := resolveStrings(t, src, Options{}, "com.example:app:1.0")
	g := res.Graph

	if g.NodeCount() != 4 || g.EdgeCount() != 4 {
		t.Errorf("graph has %d nodes and %d edges, want 4 and 4", g.NodeCount(), g.EdgeCount())
	}
	n, ok := g.Node("com.example:util")
	if !ok {
		t.Fatal("util node missing")
	}
	if n.Row != 2 || n.Meta["version"] != "1.0" {
		t.Errorf("util node = %+v", n)
	}
	for _, from := range []string{"com.example:lib", "com.example:log"} {
		if !g.HasEdge(from, "com.example:util") {
			t.Errorf("missing edge %s -> util", from)
		}
	}
}

func TestDuplicateRoots(t *testing.T) {
	src := newFakeSource().
		add("com.example:a:1.0").
		add("com.example:a:2.0")

	res := resolveStrings(t, src, Options{}, "com.example:a:1.0", "com.example:a:2.0")
	if got := orderStrings(res); !slices.Equal(got, []string{"com.example:a:1.0"}) {
		t.Errorf("Order = %v, want the first root only", got)
	}
}

func TestCancelled(t *testing.T) {
	src := newFakeSource().add("com.example:app:1.0")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Resolve(ctx, src, []coord.Coordinate{coord.MustParse("com.example:app:1.0")}, Options{})
	if !errors.Is(err, errors.ErrCodeCancelled) {
		t.Fatalf("err = %v, want CANCELLED", err)
	}
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in   string
		want Policy
		ok   bool
	}{
		{"", NearestWins, true},
		{"nearest", NearestWins, true},
		{"HIGHEST", HighestVersion, true},
		{"newest", "", false},
	}
	for _, tt := range tests {
		got, err := ParsePolicy(tt.in)
		if (err == nil) != tt.ok || got != tt.want {
			t.Errorf("ParsePolicy(%q) = %q, %v", tt.in, got, err)
		}
	}
}
