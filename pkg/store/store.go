package store

import (
	"crypto/sha1"
	"encoding/hex"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/matzehuels/mvnfetch/pkg/coord"
	"github.com/matzehuels/mvnfetch/pkg/errors"
)

const checksumExt = ".sha1"

// Entry describes a stored artifact.
type Entry struct {
	Coordinate coord.Coordinate
	Path       string // Absolute path of the artifact file
	Checksum   string // SHA-1 recorded in the sidecar, lowercase hex
	Size       int64
}

// Store is a Maven-layout artifact directory. It is safe for concurrent use
// by multiple goroutines and processes.
type Store struct {
	root string
}

// DefaultRoot returns $XDG_CACHE_HOME/mvnfetch/repository, falling back to
// ~/.cache/mvnfetch/repository.
func DefaultRoot() (string, error) {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, "mvnfetch", "repository"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidConfig, err, "locate home directory")
	}
	return filepath.Join(home, ".cache", "mvnfetch", "repository"), nil
}

// New opens the store rooted at root, creating the directory if needed.
// An empty root selects [DefaultRoot].
func New(root string) (*Store, error) {
	if root == "" {
		var err error
		if root, err = DefaultRoot(); err != nil {
			return nil, err
		}
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "resolve store root %q", root)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "create store root %q", root)
	}
	return &Store{root: root}, nil
}

// Root returns the absolute store directory.
func (s *Store) Root() string { return s.root }

// Path returns where c is stored, whether or not it exists.
func (s *Store) Path(c coord.Coordinate) string {
	return filepath.Join(s.root, filepath.FromSlash(c.RepositoryPath()))
}

// Get returns the entry for c. A file without a sidecar is hashed and the
// sidecar written, so artifacts copied in by other tools are adopted.
func (s *Store) Get(c coord.Coordinate) (Entry, bool, error) {
	path := s.Path(c)
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, errors.Wrap(errors.ErrCodeInternal, err, "stat %s", path).WithCoordinate(c.String())
	}

	sum, err := readChecksum(path + checksumExt)
	if err != nil {
		if !os.IsNotExist(err) {
			return Entry{}, false, errors.Wrap(errors.ErrCodeInternal, err, "read checksum for %s", path).WithCoordinate(c.String())
		}
		if sum, err = hashFile(path); err != nil {
			return Entry{}, false, errors.Wrap(errors.ErrCodeInternal, err, "hash %s", path).WithCoordinate(c.String())
		}
		if err := writeAtomic(path+checksumExt, []byte(sum)); err != nil {
			return Entry{}, false, errors.Wrap(errors.ErrCodeInternal, err, "write checksum for %s", path).WithCoordinate(c.String())
		}
	}
	return Entry{Coordinate: c, Path: path, Checksum: sum, Size: info.Size()}, true, nil
}

// Put stores data for c and returns its path. An empty checksum is
// computed; a non-empty one must match data. Putting identical bytes again
// is a no-op. Once c is stored, any other bytes or checksum fail with
// CACHE_CORRUPTION and leave the stored file untouched; this takes
// precedence over the CHECKSUM_MISMATCH a new entry would get.
func (s *Store) Put(c coord.Coordinate, data []byte, checksum string) (string, error) {
	actual := sha1Hex(data)
	if checksum == "" {
		checksum = actual
	}
	checksum = strings.ToLower(checksum)

	existing, ok, err := s.Get(c)
	if err != nil {
		return "", err
	}
	if ok {
		if existing.Checksum == actual && existing.Checksum == checksum {
			return existing.Path, nil
		}
		return "", errors.New(errors.ErrCodeCacheCorruption,
			"%s already holds sha1 %s, new download is %s", existing.Path, existing.Checksum, checksum).WithCoordinate(c.String())
	}

	if checksum != actual {
		return "", errors.New(errors.ErrCodeChecksumMismatch,
			"refusing to store %s: data hashes to %s, expected %s", c, actual, checksum).WithCoordinate(c.String())
	}

	path := s.Path(c)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "create %s", filepath.Dir(path))
	}
	if err := writeAtomic(path, data); err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "write %s", path).WithCoordinate(c.String())
	}
	if err := writeAtomic(path+checksumExt, []byte(checksum)); err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "write checksum for %s", path).WithCoordinate(c.String())
	}
	return path, nil
}

// Verify re-hashes the stored file for c and compares it with the sidecar.
func (s *Store) Verify(c coord.Coordinate) error {
	path := s.Path(c)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return errors.New(errors.ErrCodeNotFound, "%s is not in the store", c).WithCoordinate(c.String())
	}
	return verifyFile(path, c.String())
}

// Walk calls fn for every stored artifact in lexical path order. The
// coordinate is reconstructed from the path; files that don't follow the
// repository layout are skipped.
func (s *Store) Walk(fn func(Entry) error) error {
	return filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasSuffix(path, checksumExt) || strings.HasPrefix(d.Name(), ".tmp-") {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		c, ok := coordinateFromPath(filepath.ToSlash(rel))
		if !ok {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		sum, _ := readChecksum(path + checksumExt)
		return fn(Entry{Coordinate: c, Path: path, Checksum: sum, Size: info.Size()})
	})
}

// VerifyAll checks every stored artifact and returns the entries whose bytes
// no longer match their sidecar.
func (s *Store) VerifyAll() ([]Entry, error) {
	var bad []Entry
	err := s.Walk(func(e Entry) error {
		if e.Checksum == "" {
			return nil
		}
		if err := verifyFile(e.Path, e.Coordinate.String()); err != nil {
			if !errors.Is(err, errors.ErrCodeCacheCorruption) {
				return err
			}
			bad = append(bad, e)
		}
		return nil
	})
	return bad, err
}

// Remove deletes c and its sidecar. Removing a missing artifact is not an
// error.
func (s *Store) Remove(c coord.Coordinate) error {
	path := s.Path(c)
	for _, p := range []string{path, path + checksumExt} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return errors.Wrap(errors.ErrCodeInternal, err, "remove %s", p).WithCoordinate(c.String())
		}
	}
	return nil
}

// Clear removes every stored artifact.
func (s *Store) Clear() error {
	if err := os.RemoveAll(s.root); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "clear %s", s.root)
	}
	return os.MkdirAll(s.root, 0o755)
}

func verifyFile(path, coordinate string) error {
	want, err := readChecksum(path + checksumExt)
	if err != nil {
		return errors.Wrap(errors.ErrCodeCacheCorruption, err, "missing checksum for %s", path).WithCoordinate(coordinate)
	}
	got, err := hashFile(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "hash %s", path).WithCoordinate(coordinate)
	}
	if got != want {
		return errors.New(errors.ErrCodeCacheCorruption, "%s hashes to %s, recorded %s", path, got, want).WithCoordinate(coordinate)
	}
	return nil
}

// coordinateFromPath inverts coord.Coordinate.RepositoryPath.
func coordinateFromPath(rel string) (coord.Coordinate, bool) {
	parts := strings.Split(rel, "/")
	if len(parts) < 4 {
		return coord.Coordinate{}, false
	}
	n := len(parts)
	artifact, ver, file := parts[n-3], parts[n-2], parts[n-1]
	prefix := artifact + "-" + ver
	if !strings.HasPrefix(file, prefix) {
		return coord.Coordinate{}, false
	}
	rest := strings.TrimPrefix(file, prefix)
	dot := strings.LastIndex(rest, ".")
	if dot < 0 {
		return coord.Coordinate{}, false
	}
	ext := rest[dot+1:]
	classifier := strings.TrimPrefix(rest[:dot], "-")
	if rest[:dot] != "" && !strings.HasPrefix(rest[:dot], "-") {
		return coord.Coordinate{}, false
	}

	c := coord.Coordinate{
		Group:      strings.Join(parts[:n-3], "."),
		Artifact:   artifact,
		Version:    ver,
		Classifier: classifier,
	}
	if ext != coord.DefaultPackaging {
		c.Packaging = ext
	}
	return c, true
}

func readChecksum(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	fields := strings.Fields(string(data))
	if len(fields) == 0 {
		return "", os.ErrNotExist
	}
	return strings.ToLower(fields[0]), nil
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha1.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func sha1Hex(data []byte) string {
	sum := sha1.Sum(data)
	return hex.EncodeToString(sum[:])
}

// writeAtomic writes data to a temporary file next to path and renames it
// into place.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return nil
}
