package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/mvnfetch/pkg/coord"
	"github.com/matzehuels/mvnfetch/pkg/errors"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestPutGet(t *testing.T) {
	s := newTestStore(t)
	c := coord.MustParse("org.example:lib:1.0")

	if _, ok, err := s.Get(c); err != nil || ok {
		t.Fatalf("Get before Put = %v, %v", ok, err)
	}

	path, err := s.Put(c, []byte("jar-bytes"), "")
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if want := filepath.Join(s.Root(), "org", "example", "lib", "1.0", "lib-1.0.jar"); path != want {
		t.Errorf("path = %s, want %s", path, want)
	}

	e, ok, err := s.Get(c)
	if err != nil || !ok {
		t.Fatalf("Get = %v, %v", ok, err)
	}
	if e.Checksum != sha1Hex([]byte("jar-bytes")) || e.Size != 9 {
		t.Errorf("entry = %+v", e)
	}
}

func TestPutIdempotent(t *testing.T) {
	s := newTestStore(t)
	c := coord.MustParse("org.example:lib:1.0")
	data := []byte("jar-bytes")
	sum := sha1Hex(data)

	first, err := s.Put(c, data, sum)
	if err != nil {
		t.Fatal(err)
	}
	info, _ := os.Stat(first)

	second, err := s.Put(c, data, sum)
	if err != nil {
		t.Fatalf("second Put: %v", err)
	}
	if first != second {
		t.Errorf("paths differ: %s vs %s", first, second)
	}
	if again, _ := os.Stat(second); !again.ModTime().Equal(info.ModTime()) {
		t.Error("idempotent Put rewrote the file")
	}
}

func TestPutDifferentBytes(t *testing.T) {
	s := newTestStore(t)
	c := coord.MustParse("org.example:lib:1.0")

	path, err := s.Put(c, []byte("original"), "")
	if err != nil {
		t.Fatal(err)
	}
	_, err = s.Put(c, []byte("tampered"), "")
	if !errors.Is(err, errors.ErrCodeCacheCorruption) {
		t.Fatalf("err = %v, want CACHE_CORRUPTION", err)
	}
	if got, _ := os.ReadFile(path); string(got) != "original" {
		t.Errorf("stored file changed to %q", got)
	}
}

func TestPutChecksumMismatch(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Put(coord.MustParse("org.example:lib:1.0"), []byte("x"), sha1Hex([]byte("y")))
	if !errors.Is(err, errors.ErrCodeChecksumMismatch) {
		t.Fatalf("err = %v, want CHECKSUM_MISMATCH", err)
	}
}

func TestPutStoredEntryWins(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		checksum string
	}{
		{"different checksum", "original", sha1Hex([]byte("other"))},
		{"different bytes with stored checksum", "tampered", sha1Hex([]byte("original"))},
		{"different bytes and checksum", "tampered", sha1Hex([]byte("elsewhere"))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t)
			c := coord.MustParse("org.example:lib:1.0")
			path, err := s.Put(c, []byte("original"), "")
			if err != nil {
				t.Fatal(err)
			}
			_, err = s.Put(c, []byte(tt.data), tt.checksum)
			if !errors.Is(err, errors.ErrCodeCacheCorruption) {
				t.Fatalf("err = %v, want CACHE_CORRUPTION", err)
			}
			if got, _ := os.ReadFile(path); string(got) != "original" {
				t.Errorf("stored file changed to %q", got)
			}
		})
	}
}

func TestGetAdoptsFileWithoutSidecar(t *testing.T) {
	s := newTestStore(t)
	c := coord.MustParse("org.example:lib:1.0")
	path := s.Path(c)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("copied"), 0o644); err != nil {
		t.Fatal(err)
	}

	e, ok, err := s.Get(c)
	if err != nil || !ok {
		t.Fatalf("Get = %v, %v", ok, err)
	}
	if e.Checksum != sha1Hex([]byte("copied")) {
		t.Errorf("Checksum = %s", e.Checksum)
	}
	if _, err := os.Stat(path + ".sha1"); err != nil {
		t.Errorf("sidecar not written: %v", err)
	}
}

func TestVerify(t *testing.T) {
	s := newTestStore(t)
	c := coord.MustParse("org.example:lib:1.0")

	if err := s.Verify(c); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("Verify(missing) = %v, want NOT_FOUND", err)
	}

	path, err := s.Put(c, []byte("jar-bytes"), "")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Verify(c); err != nil {
		t.Errorf("Verify = %v", err)
	}

	if err := os.WriteFile(path, []byte("bit rot"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := s.Verify(c); !errors.Is(err, errors.ErrCodeCacheCorruption) {
		t.Errorf("Verify(corrupt) = %v, want CACHE_CORRUPTION", err)
	}

	bad, err := s.VerifyAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(bad) != 1 || bad[0].Coordinate != c {
		t.Errorf("VerifyAll = %+v", bad)
	}
}

func TestWalk(t *testing.T) {
	s := newTestStore(t)
	coords := []coord.Coordinate{
		coord.MustParse("org.example:lib:1.0"),
		coord.MustParse("org.example:lib:tests:1.0"),
		coord.MustParse("org.example:parent:1.0").WithPackaging("pom"),
	}
	for _, c := range coords {
		if _, err := s.Put(c, []byte(c.String()), ""); err != nil {
			t.Fatal(err)
		}
	}

	seen := map[coord.Coordinate]bool{}
	err := s.Walk(func(e Entry) error {
		seen[e.Coordinate] = true
		if e.Checksum == "" {
			t.Errorf("%s has no checksum", e.Coordinate)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	for _, c := range coords {
		if !seen[c] {
			t.Errorf("Walk missed %s", c)
		}
	}
	if len(seen) != len(coords) {
		t.Errorf("Walk visited %d entries, want %d", len(seen), len(coords))
	}
}

func TestClear(t *testing.T) {
	s := newTestStore(t)
	c := coord.MustParse("org.example:lib:1.0")
	if _, err := s.Put(c, []byte("x"), ""); err != nil {
		t.Fatal(err)
	}
	if err := s.Clear(); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := s.Get(c); ok {
		t.Error("entry survived Clear")
	}
	if _, err := os.Stat(s.Root()); err != nil {
		t.Errorf("root removed: %v", err)
	}
}

func TestCoordinateFromPath(t *testing.T) {
	tests := []struct {
		path string
		want string
		ok   bool
	}{
		{"org/example/lib/1.0/lib-1.0.jar", "org.example:lib:1.0", true},
		{"org/example/lib/1.0/lib-1.0-sources.jar", "org.example:lib:sources:1.0", true},
		{"lib/1.0/lib-1.0.jar", "", false},
		{"org/example/lib/1.0/other-1.0.jar", "", false},
		{"org/example/lib/1.0/lib-1.0x.jar", "", false},
	}
	for _, tt := range tests {
		c, ok := coordinateFromPath(tt.path)
		if ok != tt.ok || (ok && c.String() != tt.want) {
			t.Errorf("coordinateFromPath(%q) = %s, %v; want %s, %v", tt.path, c, ok, tt.want, tt.ok)
		}
	}
}

func TestRemove(t *testing.T) {
	s := newTestStore(t)
	c := coord.MustParse("org.example:lib:1.0")
	path, err := s.Put(c, []byte("jar-bytes"), "")
	if err != nil {
		t.Fatalf("Put: %v", err)
	}

	if err := s.Remove(c); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	for _, p := range []string{path, path + ".sha1"} {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Errorf("%s still exists", p)
		}
	}
	if err := s.Remove(c); err != nil {
		t.Errorf("second Remove: %v", err)
	}
}
