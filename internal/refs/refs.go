// Package refs implements the reference store (C7): plain textual refs under
// a repository's metadata directory, symbolic-chain resolution, and
// enumeration for name resolution and show-ref.
//
// Generalizes the teacher's RefsManager (internal/refs/refs.go) from its
// Timeline/bbolt-backed branch model down to spec §4.7's much smaller
// contract: a ref file either holds "ref: <other-ref>\n" or a bare hex
// digest. The directory bootstrap (heads/remotes/tags subdirectories) and the
// HEAD get/set helpers are kept from the teacher's shape; the bbolt-backed
// ref/abbreviation cache moves to internal/store.ObjectStore's sibling,
// store.DB, as a best-effort speedup rather than a source of truth.
package refs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/javanhut/minit/internal/digest"
)

// MaxSymbolicDepth bounds the number of "ref: X" hops resolve will follow
// before declaring a cycle (spec §4.7, property 5).
const MaxSymbolicDepth = 8

var (
	ErrSymbolicRefCycle = errors.New("symbolic ref cycle")
	ErrNameEmpty        = errors.New("empty reference name")
	ErrInvalidPath      = errors.New("invalid reference path")
	ErrRefNotFound      = errors.New("reference not found")
)

var hexDigestRE = regexp.MustCompile(`^[0-9a-f]+$`)

// Store reads and writes textual refs rooted at a repository's metadata
// directory.
type Store struct {
	metaDir string
}

// New returns a Store rooted at metaDir (a repository's ".minit" directory).
// It does not create any files; callers that want the conventional
// subdirectories bootstrapped should call EnsureLayout.
func New(metaDir string) *Store {
	return &Store{metaDir: metaDir}
}

// EnsureLayout creates the conventional refs/heads, refs/remotes and
// refs/tags subdirectories if absent.
func (s *Store) EnsureLayout() error {
	for _, sub := range []string{filepath.Join("refs", "heads"), filepath.Join("refs", "remotes"), filepath.Join("refs", "tags")} {
		if err := os.MkdirAll(filepath.Join(s.metaDir, sub), 0o755); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidPath, err)
		}
	}
	return nil
}

func (s *Store) pathFor(refPath string) (string, error) {
	if refPath == "" {
		return "", ErrNameEmpty
	}
	clean := filepath.Clean(refPath)
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) || filepath.IsAbs(clean) {
		return "", fmt.Errorf("%w: %q escapes the metadata directory", ErrInvalidPath, refPath)
	}
	return filepath.Join(s.metaDir, clean), nil
}

// ReadRaw returns the trimmed literal contents of the ref file at refPath,
// without following a symbolic chain.
func (s *Store) ReadRaw(refPath string) (string, error) {
	path, err := s.pathFor(refPath)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrRefNotFound, refPath)
		}
		return "", err
	}
	return strings.TrimRight(string(data), "\n"), nil
}

// WriteSymbolic points refPath at target ("ref: <target>\n"). The new
// contents are written to a temporary file that is then renamed over the ref.
func (s *Store) WriteSymbolic(refPath, target string) error {
	path, err := s.pathFor(refPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPath, err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(fmt.Sprintf("ref: %s\n", target)), 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// WriteDigest points refPath directly at a digest, overwriting any prior
// contents in full (spec §9: a new digest always replaces the whole file,
// never just a byte range).
func (s *Store) WriteDigest(refPath string, h digest.Hash) error {
	path, err := s.pathFor(refPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPath, err)
	}
	return os.WriteFile(path, []byte(h.String()+"\n"), 0o644)
}

// Resolve follows refPath to its terminal digest, recursing through
// "ref: X" chains. It reads at most MaxSymbolicDepth ref files, so a chain of
// MaxSymbolicDepth or more hops is reported as ErrSymbolicRefCycle.
func (s *Store) Resolve(refPath string) (digest.Hash, error) {
	current := refPath
	for depth := 0; depth < MaxSymbolicDepth; depth++ {
		raw, err := s.ReadRaw(current)
		if err != nil {
			return digest.Hash{}, err
		}

		if target, ok := strings.CutPrefix(raw, "ref: "); ok {
			current = strings.TrimSpace(target)
			continue
		}

		token := strings.Fields(raw)
		if len(token) == 0 || !hexDigestRE.MatchString(token[0]) {
			return digest.Hash{}, fmt.Errorf("%w: %q is not a digest", digest.ErrMalformedObject, raw)
		}
		return digest.Parse(token[0])
	}
	return digest.Hash{}, fmt.Errorf("%w: %q exceeds depth %d", ErrSymbolicRefCycle, refPath, MaxSymbolicDepth)
}

// Exists reports whether a ref file is present at refPath.
func (s *Store) Exists(refPath string) bool {
	path, err := s.pathFor(refPath)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// ListUnder enumerates all ref paths (relative to the metadata directory)
// found beneath a namespace root such as "refs/heads", in sorted order.
func (s *Store) ListUnder(namespace string) ([]string, error) {
	root, err := s.pathFor(namespace)
	if err != nil {
		return nil, err
	}

	var names []string
	err = filepath.Walk(root, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			if os.IsNotExist(walkErr) {
				return nil
			}
			return walkErr
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.metaDir, path)
		if err != nil {
			return err
		}
		names = append(names, filepath.ToSlash(rel))
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPath, err)
	}

	sort.Strings(names)
	return names, nil
}

// Entry is one resolved ref in the ordered mapping returned by List.
type Entry struct {
	Path   string
	Digest digest.Hash
}

// List resolves every leaf ref beneath namespace, in the same deterministic,
// lexicographically sorted order as ListUnder (spec §4.7).
func (s *Store) List(namespace string) ([]Entry, error) {
	names, err := s.ListUnder(namespace)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(names))
	for _, name := range names {
		h, err := s.Resolve(name)
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{Path: name, Digest: h})
	}
	return entries, nil
}

// CurrentHead reads HEAD's symbolic target, e.g. "refs/heads/master". It
// returns ok=false if HEAD is detached (points directly at a digest).
func (s *Store) CurrentHead() (target string, ok bool, err error) {
	raw, err := s.ReadRaw("HEAD")
	if err != nil {
		return "", false, err
	}
	if t, isSymbolic := strings.CutPrefix(raw, "ref: "); isSymbolic {
		return strings.TrimSpace(t), true, nil
	}
	return "", false, nil
}

// SetHead repoints HEAD at a branch ref, e.g. "refs/heads/master".
func (s *Store) SetHead(target string) error {
	return s.WriteSymbolic("HEAD", target)
}

// DetachHead points HEAD directly at a digest.
func (s *Store) DetachHead(h digest.Hash) error {
	return s.WriteDigest("HEAD", h)
}
