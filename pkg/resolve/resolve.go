package resolve

import (
	"context"
	"fmt"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/mvnfetch/pkg/coord"
	"github.com/matzehuels/mvnfetch/pkg/dag"
	"github.com/matzehuels/mvnfetch/pkg/dag/transform"
	"github.com/matzehuels/mvnfetch/pkg/errors"
	"github.com/matzehuels/mvnfetch/pkg/observability"
	"github.com/matzehuels/mvnfetch/pkg/pom"
	"github.com/matzehuels/mvnfetch/pkg/version"
)

// Artifact is one resolved coordinate with the context it won in.
type Artifact struct {
	Coordinate coord.Coordinate `json:"coordinate"`
	Depth      int              `json:"depth"`
	Scope      string           `json:"scope"`
	Optional   bool             `json:"optional,omitempty"`
}

// Result is the outcome of a resolution.
type Result struct {
	Order       []coord.Coordinate // Winners in first-resolution order
	Artifacts   []Artifact         // Same order as Order
	Diagnostics []Diagnostic
	Graph       *dag.DAG // Winners and the references between them
}

// Count returns the number of diagnostics of the given kind.
func (r *Result) Count(kind DiagnosticKind) int {
	n := 0
	for _, d := range r.Diagnostics {
		if d.Kind == kind {
			n++
		}
	}
	return n
}

// Resolver resolves coordinates against a [Source]. A Resolver memoizes
// nothing between calls and is safe for concurrent use.
type Resolver struct {
	src  Source
	opts Options
}

// New creates a resolver.
func New(src Source, opts Options) *Resolver {
	return &Resolver{src: src, opts: opts.WithDefaults()}
}

// Resolve is shorthand for New(src, opts).Resolve(ctx, roots).
func Resolve(ctx context.Context, src Source, roots []coord.Coordinate, opts Options) (*Result, error) {
	return New(src, opts).Resolve(ctx, roots)
}

// Resolve computes the transitive closure of roots. Missing required
// artifacts fail with MISSING_DEPENDENCY; network and integrity errors are
// returned with their own codes; cancellation returns CANCELLED.
func (r *Resolver) Resolve(ctx context.Context, roots []coord.Coordinate) (*Result, error) {
	hooks := observability.Resolve()
	names := make([]string, len(roots))
	for i, c := range roots {
		names[i] = c.String()
	}
	hooks.OnResolveStart(ctx, names)
	start := time.Now()

	res, err := r.resolve(ctx, roots)
	if err != nil {
		hooks.OnResolveComplete(ctx, names, 0, time.Since(start), err)
		return nil, err
	}
	for _, d := range res.Diagnostics {
		hooks.OnDiagnostic(ctx, string(d.Kind), d.Coordinate)
	}
	hooks.OnResolveComplete(ctx, names, len(res.Order), time.Since(start), nil)
	r.opts.Logger.Debug("resolved", "roots", len(roots), "artifacts", len(res.Order), "diagnostics", len(res.Diagnostics), "duration", time.Since(start))
	return res, nil
}

func (r *Resolver) resolve(ctx context.Context, roots []coord.Coordinate) (*Result, error) {
	l := newLoader(r.src)
	pins := make(map[coord.Key]string)

	for iter := 1; ; iter++ {
		w := &walk{
			ctx:     ctx,
			opts:    r.opts,
			load:    l,
			pins:    pins,
			claimed: make(map[coord.Key]*node),
			seen:    make(map[coord.Key][]string),
		}
		res, err := w.run(roots)
		if err != nil {
			return nil, err
		}
		if r.opts.Policy != HighestVersion {
			return res, nil
		}

		changed := false
		for k, vs := range w.seen {
			if p, ok := pins[k]; ok {
				vs = append(vs, p)
			}
			if best := version.Max(vs); best != "" && best != pins[k] {
				pins[k] = best
				changed = true
			}
		}
		if !changed {
			return res, nil
		}
		if iter == maxPolicyIterations {
			r.opts.Logger.Warn("highest-version policy did not converge", "iterations", iter)
			return res, nil
		}
		r.opts.Logger.Debug("re-resolving with pinned versions", "iteration", iter, "pins", len(pins))
	}
}

// node is a claimed dependency. It is owned by one walk and never shared
// across goroutines except during the load phase of its own level.
type node struct {
	coord    coord.Coordinate
	key      coord.Key // Key the node was claimed under
	declared string    // Version as declared by the parent
	depth    int
	scope    string
	optional bool
	excl     coord.Exclusions
	path     []coord.Key // Ancestors, root first, including this node
	parent   *node
	managed  map[string]pom.Dependency // Root dependencyManagement

	model     *pom.Model
	relocated *coord.Coordinate // Original coordinate when relocated
	err       error
}

func (n *node) pathStrings() []string {
	out := make([]string, 0, len(n.path))
	for p := n; p != nil; p = p.parent {
		out = append(out, p.coord.String())
	}
	slices.Reverse(out)
	return out
}

// ref is a dependency reference between two claimed keys.
type ref struct {
	from, to coord.Key
	declared string
	scope    string
}

// loser is a declaration that lost to an existing claim.
type loser struct {
	parent *node
	coord  coord.Coordinate
}

type walk struct {
	ctx  context.Context
	opts Options
	load *loader
	pins map[coord.Key]string

	claimed map[coord.Key]*node
	order   []*node
	refs    []ref
	losers  []loser
	probes  []*node // Losing candidates whose versions feed HighestVersion
	diags   []Diagnostic
	seen    map[coord.Key][]string
}

func (w *walk) run(roots []coord.Coordinate) (*Result, error) {
	var level []*node
	for _, c := range roots {
		k := c.Key()
		if _, dup := w.claimed[k]; dup {
			continue
		}
		n := &node{
			coord:    c,
			key:      k,
			declared: c.Version,
			scope:    pom.ScopeCompile,
			excl:     w.opts.Excludes,
			path:     []coord.Key{k},
		}
		w.claimed[k] = n
		level = append(level, n)
	}

	for len(level) > 0 || len(w.probes) > 0 {
		if err := w.ctx.Err(); err != nil {
			return nil, errors.Cancelled(err)
		}
		if err := w.loadLevel(level); err != nil {
			return nil, err
		}

		winners, err := w.register(level)
		if err != nil {
			return nil, err
		}

		level = nil
		for _, n := range winners {
			level = append(level, w.expand(n)...)
		}
	}
	return w.result(), nil
}

// loadLevel resolves versions and loads models for every node of one depth,
// plus versions of losing candidates when they matter. Failures are stored
// on the node and judged in register.
func (w *walk) loadLevel(level []*node) error {
	probes := w.probes
	w.probes = nil

	var g errgroup.Group
	g.SetLimit(w.opts.Workers)
	for _, n := range level {
		g.Go(func() error {
			n.err = w.loadNode(n)
			return nil
		})
	}
	for _, p := range probes {
		g.Go(func() error {
			if v, err := w.load.selectVersion(w.ctx, p.coord); err == nil {
				p.coord.Version = v
			} else {
				p.coord.Version = ""
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := w.ctx.Err(); err != nil {
		return errors.Cancelled(err)
	}
	for _, p := range probes {
		if p.coord.Version != "" {
			w.seen[p.key] = append(w.seen[p.key], p.coord.Version)
		}
	}
	return nil
}

func (w *walk) loadNode(n *node) error {
	if pin, ok := w.pins[n.key]; ok {
		n.coord.Version = pin
	} else {
		v, err := w.load.selectVersion(w.ctx, n.coord)
		if err != nil {
			return err
		}
		n.coord.Version = v
	}

	m, err := w.load.model(w.ctx, n.coord)
	if err != nil {
		return err
	}
	if m.Relocation != nil {
		orig := n.coord
		target := *m.Relocation
		target.Classifier = orig.Classifier
		target.Packaging = orig.Packaging
		if m, err = w.load.model(w.ctx, target); err != nil {
			return err
		}
		n.relocated = &orig
		n.coord = target
	}
	if n.depth == 0 && n.coord.Packaging == "" && m.Packaging == "pom" {
		n.coord.Packaging = "pom"
	}
	n.model = m
	return nil
}

// register turns loaded nodes into winners in declaration order.
func (w *walk) register(level []*node) ([]*node, error) {
	var winners []*node
	for _, n := range level {
		if n.err != nil {
			if err := w.fail(n); err != nil {
				return nil, err
			}
			continue
		}

		if n.relocated != nil {
			w.diag(Diagnostic{
				Kind:       Relocated,
				Coordinate: n.relocated.String(),
				Path:       n.pathStrings(),
				Message:    fmt.Sprintf("%s relocated to %s", n.relocated, n.coord),
			})
		}

		// Relocation or root packaging can change identity.
		if k := n.coord.Key(); k != n.key {
			delete(w.claimed, n.key)
			if other, ok := w.claimed[k]; ok {
				w.retarget(n.key, other.key)
				continue
			}
			w.retarget(n.key, k)
			n.key = k
			n.path[len(n.path)-1] = k
			w.claimed[k] = n
		}

		if n.depth == 0 {
			n.managed = n.model.ManagedVersions()
		}
		w.seen[n.key] = append(w.seen[n.key], n.coord.Version)
		w.order = append(w.order, n)
		winners = append(winners, n)
	}
	return winners, nil
}

// retarget points references at from to to.
func (w *walk) retarget(from, to coord.Key) {
	for i := range w.refs {
		if w.refs[i].to == from {
			w.refs[i].to = to
		}
	}
}

// fail decides whether a node's load error is fatal.
func (w *walk) fail(n *node) error {
	err := n.err
	delete(w.claimed, n.key)

	missing := errors.Is(err, errors.ErrCodeNotFound) ||
		errors.Is(err, errors.ErrCodeNoMatchingVersion) ||
		errors.Is(err, errors.ErrCodeInvalidDescriptor)
	if !missing {
		if errors.CoordinateOf(err) != "" {
			return err
		}
		code := errors.GetCode(err)
		if code == "" {
			code = errors.ErrCodeInternal
		}
		return errors.Wrap(code, err, "resolve %s", n.coord).WithCoordinate(n.coord.String())
	}

	if n.optional {
		w.diag(Diagnostic{
			Kind:       MissingOptional,
			Coordinate: n.coord.String(),
			Path:       n.pathStrings(),
			Message:    fmt.Sprintf("optional dependency %s is unavailable: %s", n.coord, errors.UserMessage(err)),
		})
		return nil
	}

	msg := fmt.Sprintf("%s cannot be resolved", n.coord)
	if n.parent != nil {
		msg = fmt.Sprintf("%s (required by %s) cannot be resolved", n.coord, n.parent.coord)
	}
	return errors.Wrap(errors.ErrCodeMissingDependency, err, "%s", msg).WithCoordinate(n.coord.String())
}

// expand claims n's dependencies for the next depth.
func (w *walk) expand(n *node) []*node {
	var next []*node
	for _, d := range n.model.Dependencies {
		child, ok := w.candidate(n, d)
		if !ok {
			continue
		}

		if winner, taken := w.claimed[child.key]; taken {
			w.refs = append(w.refs, ref{from: n.key, to: winner.key, declared: child.declared, scope: child.scope})
			w.losers = append(w.losers, loser{parent: n, coord: child.coord})
			if w.opts.Policy == HighestVersion {
				w.probes = append(w.probes, child)
			}
			continue
		}
		w.claimed[child.key] = child
		w.refs = append(w.refs, ref{from: n.key, to: child.key, declared: child.declared, scope: child.scope})
		next = append(next, child)
	}
	return next
}

// candidate applies scope, optional, exclusion and cycle filtering to one
// declared dependency of n.
func (w *walk) candidate(n *node, d pom.Dependency) (*node, bool) {
	c := d.Coordinate()
	scope := d.EffectiveScope()
	if scope == pom.ScopeImport {
		return nil, false
	}

	if n.depth > 0 {
		if md, ok := n.managed[d.ManagementKey()]; ok {
			if md.Version != "" {
				c.Version = md.Version
			}
			if md.Scope != "" {
				scope = md.Scope
			}
		}
	}

	childScope, ok := propagateScope(n, scope)
	if !ok || !w.opts.keepsScope(childScope) {
		return nil, false
	}
	if d.IsOptional() && !w.opts.IncludeOptional {
		return nil, false
	}
	if n.excl.Matches(c) {
		w.opts.Logger.Debug("excluded", "coordinate", c.String(), "by", n.coord.String())
		return nil, false
	}

	k := c.Key()
	if slices.Contains(n.path, k) {
		w.diag(Diagnostic{
			Kind:       CycleDetected,
			Coordinate: c.String(),
			Path:       append(n.pathStrings(), c.String()),
			Message:    fmt.Sprintf("%s depends on its ancestor %s:%s", n.coord, c.Group, c.Artifact),
		})
		return nil, false
	}

	declared := c.Version
	if pin, ok := w.pins[k]; ok {
		c.Version = pin
	}

	excl := n.excl
	for _, e := range d.Exclusions {
		ex, err := coord.NewExclusion(e.GroupID, e.ArtifactID)
		if err != nil {
			w.opts.Logger.Warn("ignoring invalid exclusion", "coordinate", n.coord.String(), "exclusion", e.GroupID+":"+e.ArtifactID, "err", err)
			continue
		}
		excl = excl.With(ex)
	}

	return &node{
		coord:    c,
		key:      k,
		declared: declared,
		depth:    n.depth + 1,
		scope:    childScope,
		optional: n.optional || d.IsOptional(),
		excl:     excl,
		path:     append(slices.Clone(n.path), k),
		parent:   n,
		managed:  n.managed,
	}, true
}

// propagateScope returns the scope a dependency declared with scope gets
// under parent, and false when it is not transitive.
func propagateScope(parent *node, scope string) (string, bool) {
	switch scope {
	case pom.ScopeCompile, pom.ScopeRuntime:
		if parent.scope == pom.ScopeCompile {
			return scope, true
		}
		return parent.scope, true
	case pom.ScopeProvided, pom.ScopeTest:
		// Only a root's own test and provided dependencies are visible.
		return scope, parent.depth == 0
	case pom.ScopeSystem:
		return "", false
	default:
		return parent.scope, true
	}
}

func (w *walk) diag(d Diagnostic) {
	w.opts.Logger.Debug("diagnostic", "kind", string(d.Kind), "coordinate", d.Coordinate)
	w.diags = append(w.diags, d)
}

// result assembles the output and the graph. Reference edges that close a
// cycle through different paths are removed and reported.
func (w *walk) result() *Result {
	res := &Result{Graph: dag.New(dag.Metadata{"policy": string(w.opts.Policy)})}

	for _, n := range w.order {
		res.Order = append(res.Order, n.coord)
		res.Artifacts = append(res.Artifacts, Artifact{
			Coordinate: n.coord,
			Depth:      n.depth,
			Scope:      n.scope,
			Optional:   n.optional,
		})

		meta := dag.Metadata{
			"coordinate": n.coord.String(),
			"version":    n.coord.Version,
			"scope":      n.scope,
		}
		if n.optional {
			meta["optional"] = true
		}
		if n.relocated != nil {
			meta["relocated_from"] = n.relocated.String()
		}
		_ = res.Graph.AddNode(dag.Node{ID: NodeID(n.key), Row: n.depth, Meta: meta})
	}

	for _, l := range w.losers {
		winner, ok := w.claimed[l.coord.Key()]
		if !ok || winner.model == nil || l.coord.Version == "" || version.IsRange(l.coord.Version) {
			continue
		}
		if version.Equal(l.coord.Version, winner.coord.Version) {
			continue
		}
		w.diag(Diagnostic{
			Kind:       VersionConflict,
			Coordinate: l.coord.String(),
			Path:       append(l.parent.pathStrings(), l.coord.String()),
			Message:    fmt.Sprintf("%s omitted for conflict with %s", l.coord, winner.coord.Version),
		})
	}

	for _, r := range w.refs {
		from, to := NodeID(r.from), NodeID(r.to)
		if _, ok := res.Graph.Node(from); !ok {
			continue
		}
		if _, ok := res.Graph.Node(to); !ok {
			continue
		}
		_ = res.Graph.AddEdge(dag.Edge{From: from, To: to, Meta: dag.Metadata{"version": r.declared, "scope": r.scope}})
	}

	for _, e := range transform.BreakCycles(res.Graph) {
		w.diag(Diagnostic{
			Kind:       CycleDetected,
			Coordinate: e.To,
			Path:       []string{e.From, e.To},
			Message:    fmt.Sprintf("%s and %s depend on each other", e.From, e.To),
		})
	}

	res.Diagnostics = w.diags
	return res
}

// NodeID is the graph node ID for an artifact key: "group:artifact", plus
// ":classifier" and "@packaging" when they are not the defaults.
func NodeID(k coord.Key) string {
	id := k.String()
	if k.Packaging != "" && k.Packaging != coord.DefaultPackaging {
		id += "@" + k.Packaging
	}
	return id
}
