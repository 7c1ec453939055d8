// Package resolve implements the name resolver (C8): turning a name typed by
// a caller (HEAD, an abbreviated hex digest, a tag, a branch, a remote
// branch) into a concrete digest, detecting ambiguity across namespaces, and
// peeling through tags and commits to the kind the caller actually wants.
//
// Grounded on the teacher's resolution passes for branch/tag/remote lookup
// (internal/refs.RefsManager.GetTimeline, which probed type-specific
// subdirectories one at a time); generalized here into the enumerate-then-
// filter, deduplicate-preserving-order algorithm spec §4.8 describes.
package resolve

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/javanhut/minit/internal/digest"
	"github.com/javanhut/minit/internal/objects"
	"github.com/javanhut/minit/internal/refs"
	"github.com/javanhut/minit/internal/store"
)

// MaxPeelIterations bounds the tag/commit peeling loop in Find (spec §4.8).
const MaxPeelIterations = 10

var hexPrefixRE = regexp.MustCompile(`^[0-9a-fA-F]{4,64}$`)

// ErrNameEmpty is returned when resolving the empty string.
var ErrNameEmpty = errors.New("empty reference name")

// ErrObjectNotFound is returned when a name resolves to zero candidates, or
// when peeling cannot reach the requested kind.
var ErrObjectNotFound = errors.New("object not found")

// AmbiguousReferenceError reports that a name resolved to more than one
// distinct digest.
type AmbiguousReferenceError struct {
	Name       string
	Candidates []digest.Hash
}

func (e *AmbiguousReferenceError) Error() string {
	hexes := make([]string, len(e.Candidates))
	for i, c := range e.Candidates {
		hexes[i] = c.String()
	}
	return fmt.Sprintf("ambiguous reference %q: %s", e.Name, strings.Join(hexes, ", "))
}

// Resolver turns names into digests against an object store and a ref store.
type Resolver struct {
	objects *store.ObjectStore
	refs    *refs.Store
	cache   *store.DB
}

// New returns a Resolver backed by objs and refStore.
func New(objs *store.ObjectStore, refStore *refs.Store) *Resolver {
	return &Resolver{objects: objs, refs: refStore}
}

// UseCache attaches a ref/abbreviation cache that Candidates consults before
// falling back to a directory walk or ref read. The cache is never
// authoritative: every ref/HEAD hit is re-verified against the object store
// before it is trusted, and a nil cache (the default) simply disables the
// fast path. Cached abbreviations are trusted as unique only because callers
// that write new objects invalidate any abbreviation the new digest collides
// with (see internal/cli's invalidateAbbrevsForWrite); Candidates itself only
// re-checks that the cached digest is still present, not still unique.
func (r *Resolver) UseCache(c *store.DB) {
	r.cache = c
}

// Candidates enumerates every digest name could plausibly mean, deduplicated
// while preserving first-seen order (spec §4.8).
func (r *Resolver) Candidates(name string) ([]digest.Hash, error) {
	if name == "" {
		return nil, ErrNameEmpty
	}

	var out []digest.Hash
	seen := make(map[digest.Hash]bool)
	add := func(h digest.Hash) {
		if !seen[h] {
			seen[h] = true
			out = append(out, h)
		}
	}

	if name == "HEAD" {
		if h, ok := r.cachedRef("HEAD"); ok {
			add(h)
			return out, nil
		}
		h, err := r.refs.Resolve("HEAD")
		if err == nil {
			add(h)
			r.cacheRef("HEAD", h)
		}
		return out, nil
	}

	if hexPrefixRE.MatchString(name) {
		lower := strings.ToLower(name)
		if h, ok := r.cachedAbbrev(lower); ok {
			add(h)
		} else {
			var found []digest.Hash
			err := r.objects.WalkPrefix(lower, func(h digest.Hash) error {
				found = append(found, h)
				add(h)
				return nil
			})
			if err != nil {
				return nil, err
			}
			if len(found) == 1 {
				r.cacheAbbrev(lower, found[0])
			}
		}
	}

	for _, namespace := range []string{"refs/tags", "refs/heads", "refs/remotes"} {
		refPath := namespace + "/" + name
		if h, ok := r.cachedRef(refPath); ok {
			add(h)
			continue
		}
		h, err := r.refs.Resolve(refPath)
		if err == nil {
			add(h)
			r.cacheRef(refPath, h)
		}
	}

	return out, nil
}

// cachedRef returns the cached digest for refPath if that digest is still
// present in the object store. It does not re-read the ref file: a ref
// rewritten without a matching store.DB.InvalidateRef call keeps resolving
// to the cached digest for as long as that object exists.
func (r *Resolver) cachedRef(refPath string) (digest.Hash, bool) {
	if r.cache == nil {
		return digest.Hash{}, false
	}
	hex, err := r.cache.LookupRefDigest(refPath)
	if err != nil {
		return digest.Hash{}, false
	}
	h, err := digest.Parse(hex)
	if err != nil || !r.objects.Has(h) {
		return digest.Hash{}, false
	}
	return h, true
}

func (r *Resolver) cacheRef(refPath string, h digest.Hash) {
	if r.cache == nil {
		return
	}
	_ = r.cache.CacheRefDigest(refPath, h.String())
}

// cachedAbbrev returns the cached full digest for a hex prefix, if any. This
// only re-checks that the cached digest still exists, not that the prefix is
// still unique: uniqueness is maintained at write time instead, by callers
// that write a new object invalidating every cached prefix the new digest
// now collides with (store.DB.InvalidateAbbrevsMatching), so a hit here can
// still be trusted as the sole match.
func (r *Resolver) cachedAbbrev(lower string) (digest.Hash, bool) {
	if r.cache == nil {
		return digest.Hash{}, false
	}
	full, err := r.cache.LookupAbbrev(lower)
	if err != nil {
		return digest.Hash{}, false
	}
	h, err := digest.Parse(full)
	if err != nil || !r.objects.Has(h) {
		return digest.Hash{}, false
	}
	return h, true
}

func (r *Resolver) cacheAbbrev(lower string, h digest.Hash) {
	if r.cache == nil {
		return
	}
	_ = r.cache.CacheAbbrev(lower, h.String())
}

// Find resolves name to a single digest, optionally peeling through tags and
// commits until an object of the requested kind is reached.
func (r *Resolver) Find(name string, kind *objects.Kind, follow bool) (digest.Hash, error) {
	candidates, err := r.Candidates(name)
	if err != nil {
		return digest.Hash{}, err
	}
	if len(candidates) == 0 {
		return digest.Hash{}, fmt.Errorf("%w: %q", ErrObjectNotFound, name)
	}
	if len(candidates) > 1 {
		return digest.Hash{}, &AmbiguousReferenceError{Name: name, Candidates: candidates}
	}

	h := candidates[0]
	if kind == nil {
		return h, nil
	}

	for i := 0; i < MaxPeelIterations; i++ {
		obj, err := r.objects.Read(h)
		if err != nil {
			return digest.Hash{}, err
		}
		if obj.Kind() == *kind {
			return h, nil
		}
		if !follow {
			return digest.Hash{}, fmt.Errorf("%w: %q is %q, not %q", ErrObjectNotFound, name, obj.Kind(), *kind)
		}

		switch v := obj.(type) {
		case *objects.Tag:
			target, ok := v.Headers.GetOne(objects.HeaderObject)
			if !ok {
				return digest.Hash{}, fmt.Errorf("%w: tag missing object header", ErrObjectNotFound)
			}
			h, err = digest.Parse(target)
			if err != nil {
				return digest.Hash{}, err
			}
		case *objects.Commit:
			if *kind != objects.KindTree {
				return digest.Hash{}, fmt.Errorf("%w: commit cannot peel to %q", ErrObjectNotFound, *kind)
			}
			target, ok := v.Headers.GetOne(objects.HeaderTree)
			if !ok {
				return digest.Hash{}, fmt.Errorf("%w: commit missing tree header", ErrObjectNotFound)
			}
			h, err = digest.Parse(target)
			if err != nil {
				return digest.Hash{}, err
			}
		default:
			return digest.Hash{}, fmt.Errorf("%w: cannot peel %q to %q", ErrObjectNotFound, obj.Kind(), *kind)
		}
	}

	return digest.Hash{}, fmt.Errorf("%w: peeling %q exceeded %d iterations", ErrObjectNotFound, name, MaxPeelIterations)
}
