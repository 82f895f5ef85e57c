package pom

import (
	"context"
	"testing"

	"github.com/matzehuels/mvnfetch/pkg/coord"
	"github.com/matzehuels/mvnfetch/pkg/errors"
)

const libPOM = `<?xml version="1.0" encoding="UTF-8"?>
<project xmlns="http://maven.apache.org/POM/4.0.0">
  <modelVersion>4.0.0</modelVersion>
  <parent>
    <groupId>com.example</groupId>
    <artifactId>parent</artifactId>
    <version>1.0</version>
  </parent>
  <artifactId>lib</artifactId>
  <version>2.0</version>
  <properties>
    <util.version>1.5</util.version>
  </properties>
  <dependencies>
    <dependency>
      <groupId>com.example</groupId>
      <artifactId>util</artifactId>
      <version>${util.version}</version>
      <exclusions>
        <exclusion>
          <groupId>org.slf4j</groupId>
          <artifactId>*</artifactId>
        </exclusion>
      </exclusions>
    </dependency>
    <dependency>
      <groupId>com.example</groupId>
      <artifactId>managed</artifactId>
    </dependency>
    <dependency>
      <groupId>junit</groupId>
      <artifactId>junit</artifactId>
      <version>4.13.2</version>
      <scope>test</scope>
    </dependency>
    <dependency>
      <groupId>com.example</groupId>
      <artifactId>extra</artifactId>
      <version>${project.version}</version>
      <optional>true</optional>
    </dependency>
  </dependencies>
</project>`

const parentPOM = `<project>
  <groupId>com.example</groupId>
  <artifactId>parent</artifactId>
  <version>1.0</version>
  <packaging>pom</packaging>
  <properties>
    <util.version>1.0</util.version>
    <managed.version>3.1</managed.version>
  </properties>
  <dependencyManagement>
    <dependencies>
      <dependency>
        <groupId>com.example</groupId>
        <artifactId>managed</artifactId>
        <version>${managed.version}</version>
        <scope>runtime</scope>
      </dependency>
      <dependency>
        <groupId>com.example</groupId>
        <artifactId>bom</artifactId>
        <version>1.0</version>
        <type>pom</type>
        <scope>import</scope>
      </dependency>
    </dependencies>
  </dependencyManagement>
  <dependencies>
    <dependency>
      <groupId>com.example</groupId>
      <artifactId>inherited</artifactId>
      <version>0.1</version>
    </dependency>
  </dependencies>
</project>`

const bomPOM = `<project>
  <groupId>com.example</groupId>
  <artifactId>bom</artifactId>
  <version>1.0</version>
  <packaging>pom</packaging>
  <dependencyManagement>
    <dependencies>
      <dependency>
        <groupId>com.example</groupId>
        <artifactId>managed</artifactId>
        <version>9.9</version>
      </dependency>
      <dependency>
        <groupId>com.example</groupId>
        <artifactId>from-bom</artifactId>
        <version>4.2</version>
      </dependency>
    </dependencies>
  </dependencyManagement>
</project>`

// fakeLoader serves POMs from memory and counts loads.
type fakeLoader struct {
	poms  map[string]string
	calls int
}

func (f *fakeLoader) LoadPOM(_ context.Context, c coord.Coordinate) (*Project, error) {
	f.calls++
	data, ok := f.poms[c.GA()+":"+c.Version]
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "no pom").WithCoordinate(c.String())
	}
	return Parse([]byte(data))
}

func TestParse(t *testing.T) {
	p, err := Parse([]byte(libPOM))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	c := p.Coordinate()
	if c.String() != "com.example:lib:2.0" {
		t.Errorf("Coordinate() = %s", c)
	}
	if p.Parent == nil || p.Parent.ArtifactID != "parent" {
		t.Fatalf("Parent = %+v", p.Parent)
	}
	if got := p.Properties["util.version"]; got != "1.5" {
		t.Errorf("util.version = %q", got)
	}
	if len(p.Dependencies) != 4 {
		t.Fatalf("len(Dependencies) = %d, want 4", len(p.Dependencies))
	}
	if ex := p.Dependencies[0].Exclusions; len(ex) != 1 || ex[0].GroupID != "org.slf4j" {
		t.Errorf("Exclusions = %+v", ex)
	}
	if !p.Dependencies[3].IsOptional() {
		t.Error("extra should be optional")
	}
}

func TestParseInvalid(t *testing.T) {
	_, err := Parse([]byte("not xml"))
	if !errors.Is(err, errors.ErrCodeInvalidDescriptor) {
		t.Errorf("expected INVALID_DESCRIPTOR, got %v", err)
	}
}

func TestParseLatin1(t *testing.T) {
	data := []byte("<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?><project><groupId>g</groupId><artifactId>a</artifactId><version>1</version><name>Caf\xe9</name></project>")
	p, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if p.Name != "Café" {
		t.Errorf("Name = %q", p.Name)
	}
}

func TestParentInheritsCoordinate(t *testing.T) {
	p, err := Parse([]byte(`<project><parent><groupId>g</groupId><artifactId>p</artifactId><version>7</version></parent><artifactId>child</artifactId></project>`))
	if err != nil {
		t.Fatal(err)
	}
	if got := p.Coordinate().String(); got != "g:child:7" {
		t.Errorf("Coordinate() = %s, want g:child:7", got)
	}
}

func TestBuild(t *testing.T) {
	loader := &fakeLoader{poms: map[string]string{
		"com.example:parent:1.0": parentPOM,
		"com.example:bom:1.0":    bomPOM,
	}}
	p, err := Parse([]byte(libPOM))
	if err != nil {
		t.Fatal(err)
	}

	m, err := Build(context.Background(), p, loader)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	byArtifact := make(map[string]Dependency)
	var order []string
	for _, d := range m.Dependencies {
		byArtifact[d.ArtifactID] = d
		order = append(order, d.ArtifactID)
	}

	wantOrder := []string{"util", "managed", "junit", "extra", "inherited"}
	if len(order) != len(wantOrder) {
		t.Fatalf("dependencies = %v, want %v", order, wantOrder)
	}
	for i := range wantOrder {
		if order[i] != wantOrder[i] {
			t.Fatalf("dependencies = %v, want %v", order, wantOrder)
		}
	}

	tests := []struct {
		artifact string
		version  string
		scope    string
	}{
		{"util", "1.5", ""},           // child property overrides parent
		{"managed", "3.1", "runtime"}, // parent management beats imported bom
		{"extra", "2.0", ""},          // ${project.version}
		{"inherited", "0.1", ""},      // parent dependency
	}
	for _, tt := range tests {
		d := byArtifact[tt.artifact]
		if d.Version != tt.version {
			t.Errorf("%s version = %q, want %q", tt.artifact, d.Version, tt.version)
		}
		if d.Scope != tt.scope {
			t.Errorf("%s scope = %q, want %q", tt.artifact, d.Scope, tt.scope)
		}
	}

	managed := m.ManagedVersions()
	if d, ok := managed["com.example:from-bom:jar:"]; !ok || d.Version != "4.2" {
		t.Errorf("bom import missing: %+v", d)
	}
	if _, ok := managed["com.example:bom:pom:"]; ok {
		t.Error("import entries must not stay in management")
	}

	if len(m.Parents) != 1 || m.Parents[0].Artifact != "parent" {
		t.Errorf("Parents = %v", m.Parents)
	}
}

func TestBuildParentCycle(t *testing.T) {
	loader := &fakeLoader{poms: map[string]string{
		"g:a:1": `<project><parent><groupId>g</groupId><artifactId>b</artifactId><version>1</version></parent><artifactId>a</artifactId></project>`,
		"g:b:1": `<project><parent><groupId>g</groupId><artifactId>a</artifactId><version>1</version></parent><artifactId>b</artifactId></project>`,
	}}
	p, _ := loader.LoadPOM(context.Background(), coord.MustParse("g:a:1"))

	_, err := Build(context.Background(), p, loader)
	if !errors.Is(err, errors.ErrCodeInvalidDescriptor) {
		t.Errorf("expected INVALID_DESCRIPTOR for parent cycle, got %v", err)
	}
}

func TestBuildMissingParent(t *testing.T) {
	loader := &fakeLoader{poms: map[string]string{}}
	p, err := Parse([]byte(libPOM))
	if err != nil {
		t.Fatal(err)
	}
	_, err = Build(context.Background(), p, loader)
	if !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
}

func TestRelocation(t *testing.T) {
	p, err := Parse([]byte(`<project>
  <groupId>old.group</groupId>
  <artifactId>thing</artifactId>
  <version>1.0</version>
  <distributionManagement>
    <relocation>
      <groupId>new.group</groupId>
    </relocation>
  </distributionManagement>
</project>`))
	if err != nil {
		t.Fatal(err)
	}

	m, err := Build(context.Background(), p, nil)
	if err != nil {
		t.Fatal(err)
	}
	if m.Relocation == nil || m.Relocation.String() != "new.group:thing:1.0" {
		t.Errorf("Relocation = %v", m.Relocation)
	}
}

func TestInterpolate(t *testing.T) {
	in := interpolator{props: map[string]string{
		"a":       "${b}",
		"b":       "value",
		"loop":    "${loop}",
		"version": "1.0",
	}}

	tests := map[string]string{
		"${a}":           "value",
		"x-${version}-y": "x-1.0-y",
		"${missing}":     "${missing}",
		"${loop}":        "${loop}",
		"no expr":        "no expr",
		"${unterminated": "${unterminated",
		"${version}${b}": "1.0value",
	}
	for input, want := range tests {
		if got := in.expand(input); got != want {
			t.Errorf("expand(%q) = %q, want %q", input, got, want)
		}
	}
}
