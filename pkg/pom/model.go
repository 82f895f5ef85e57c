package pom

import (
	"context"

	"github.com/matzehuels/mvnfetch/pkg/coord"
	"github.com/matzehuels/mvnfetch/pkg/errors"
)

// MaxParentDepth bounds parent chains and nested BOM imports.
const MaxParentDepth = 32

// Loader fetches the raw POM for a coordinate. The repository client
// implements it.
type Loader interface {
	LoadPOM(ctx context.Context, c coord.Coordinate) (*Project, error)
}

// LoaderFunc adapts a function to [Loader].
type LoaderFunc func(ctx context.Context, c coord.Coordinate) (*Project, error)

// LoadPOM calls f.
func (f LoaderFunc) LoadPOM(ctx context.Context, c coord.Coordinate) (*Project, error) {
	return f(ctx, c)
}

// Model is an effective POM: inheritance applied, BOMs imported, expressions
// interpolated and managed versions filled in.
type Model struct {
	Coordinate   coord.Coordinate
	Packaging    string
	Properties   map[string]string
	Dependencies []Dependency
	Managed      []Dependency
	Relocation   *coord.Coordinate
	Parents      []coord.Coordinate
}

// ManagedVersions returns the dependencyManagement entries keyed by
// [Dependency.ManagementKey].
func (m *Model) ManagedVersions() map[string]Dependency {
	out := make(map[string]Dependency, len(m.Managed))
	for _, d := range m.Managed {
		out[d.ManagementKey()] = d
	}
	return out
}

// Build computes the effective model of p. The loader is used for parents
// and imported BOMs; it may be nil when p has neither.
func Build(ctx context.Context, p *Project, load Loader) (*Model, error) {
	return build(ctx, p, load, 0)
}

func build(ctx context.Context, p *Project, load Loader, depth int) (*Model, error) {
	chain, err := parentChain(ctx, p, load)
	if err != nil {
		return nil, err
	}

	self := p.Coordinate()
	m := &Model{
		Packaging:  p.Packaging,
		Properties: make(map[string]string),
	}
	if m.Packaging == "" {
		m.Packaging = coord.DefaultPackaging
	}

	// Root-most ancestor first so children override.
	for i := len(chain) - 1; i >= 0; i-- {
		for k, v := range chain[i].Properties {
			m.Properties[k] = v
		}
	}
	for _, anc := range chain[1:] {
		m.Parents = append(m.Parents, anc.Coordinate())
	}
	addBuiltins(m.Properties, p)

	m.Dependencies = mergeDependencies(chain, func(pr *Project) []Dependency { return pr.Dependencies })
	managed := mergeDependencies(chain, func(pr *Project) []Dependency { return pr.DependencyManagement.Dependencies })

	in := interpolator{props: m.Properties}
	m.Coordinate.Group = in.expand(self.Group)
	m.Coordinate.Artifact = in.expand(self.Artifact)
	m.Coordinate.Version = in.expand(self.Version)
	for i := range m.Dependencies {
		m.Dependencies[i] = in.dependency(m.Dependencies[i])
	}
	for i := range managed {
		managed[i] = in.dependency(managed[i])
	}

	m.Managed, err = importBOMs(ctx, managed, load, depth)
	if err != nil {
		return nil, err
	}

	applyManagement(m.Dependencies, m.ManagedVersions())

	if r := p.DistributionManagement.Relocation; r != nil {
		target := m.Coordinate
		if v := in.expand(r.GroupID); v != "" {
			target.Group = v
		}
		if v := in.expand(r.ArtifactID); v != "" {
			target.Artifact = v
		}
		if v := in.expand(r.Version); v != "" {
			target.Version = v
		}
		if target != m.Coordinate {
			m.Relocation = &target
		}
	}
	return m, nil
}

// parentChain returns p followed by its ancestors, nearest first.
func parentChain(ctx context.Context, p *Project, load Loader) ([]*Project, error) {
	chain := []*Project{p}
	seen := map[string]bool{p.Coordinate().String(): true}

	for cur := p; cur.Parent != nil; {
		if len(chain) > MaxParentDepth {
			return nil, errors.New(errors.ErrCodeParentChainTooDeep,
				"parent chain exceeds %d levels", MaxParentDepth).WithCoordinate(p.Coordinate().String())
		}
		pc := cur.Parent.Coordinate()
		if seen[pc.String()] {
			return nil, errors.New(errors.ErrCodeInvalidDescriptor,
				"parent cycle at %s", pc).WithCoordinate(p.Coordinate().String())
		}
		seen[pc.String()] = true

		if load == nil {
			return nil, errors.New(errors.ErrCodeInternal, "no loader for parent %s", pc)
		}
		parent, err := load.LoadPOM(ctx, pc)
		if err != nil {
			return nil, err
		}
		chain = append(chain, parent)
		cur = parent
	}
	return chain, nil
}

// mergeDependencies collects entries from the chain, child first; ancestors
// only contribute keys the descendants don't already declare.
func mergeDependencies(chain []*Project, get func(*Project) []Dependency) []Dependency {
	var out []Dependency
	seen := make(map[string]bool)
	for _, pr := range chain {
		for _, d := range get(pr) {
			k := d.ManagementKey()
			if seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, d)
		}
	}
	return out
}

// importBOMs replaces scope=import entries with the managed dependencies of
// the referenced POMs. Entries declared locally win over imported ones, and
// earlier imports win over later ones.
func importBOMs(ctx context.Context, managed []Dependency, load Loader, depth int) ([]Dependency, error) {
	var out, imports []Dependency
	seen := make(map[string]bool)
	for _, d := range managed {
		if d.Scope == ScopeImport && d.Type == "pom" {
			imports = append(imports, d)
			continue
		}
		seen[d.ManagementKey()] = true
		out = append(out, d)
	}
	if len(imports) == 0 {
		return out, nil
	}
	if depth >= MaxParentDepth {
		return nil, errors.New(errors.ErrCodeParentChainTooDeep, "bom imports exceed %d levels", MaxParentDepth)
	}
	if load == nil {
		return nil, errors.New(errors.ErrCodeInternal, "no loader for bom imports")
	}

	for _, imp := range imports {
		bc := imp.Coordinate().WithPackaging("pom")
		raw, err := load.LoadPOM(ctx, bc)
		if err != nil {
			return nil, err
		}
		bom, err := build(ctx, raw, load, depth+1)
		if err != nil {
			return nil, err
		}
		for _, d := range bom.Managed {
			if k := d.ManagementKey(); !seen[k] {
				seen[k] = true
				out = append(out, d)
			}
		}
	}
	return out, nil
}

// applyManagement fills versions, scopes and exclusions from management.
func applyManagement(deps []Dependency, managed map[string]Dependency) {
	for i, d := range deps {
		md, ok := managed[d.ManagementKey()]
		if !ok {
			continue
		}
		if d.Version == "" {
			deps[i].Version = md.Version
		}
		if d.Scope == "" {
			deps[i].Scope = md.Scope
		}
		if len(d.Exclusions) == 0 && len(md.Exclusions) > 0 {
			deps[i].Exclusions = append([]Exclusion(nil), md.Exclusions...)
		}
	}
}

func addBuiltins(props map[string]string, p *Project) {
	c := p.Coordinate()
	packaging := p.Packaging
	if packaging == "" {
		packaging = coord.DefaultPackaging
	}
	for _, prefix := range []string{"project.", "pom."} {
		props[prefix+"groupId"] = c.Group
		props[prefix+"artifactId"] = c.Artifact
		props[prefix+"version"] = c.Version
		props[prefix+"packaging"] = packaging
		if p.Parent != nil {
			props[prefix+"parent.groupId"] = p.Parent.GroupID
			props[prefix+"parent.artifactId"] = p.Parent.ArtifactID
			props[prefix+"parent.version"] = p.Parent.Version
		}
	}
	if p.Parent != nil {
		props["parent.groupId"] = p.Parent.GroupID
		props["parent.artifactId"] = p.Parent.ArtifactID
		props["parent.version"] = p.Parent.Version
	}
	props["groupId"] = c.Group
	props["artifactId"] = c.Artifact
	props["version"] = c.Version
}
