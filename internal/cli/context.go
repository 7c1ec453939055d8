package cli

import (
	"fmt"
	"os"

	"github.com/javanhut/minit/internal/digest"
	"github.com/javanhut/minit/internal/refs"
	"github.com/javanhut/minit/internal/repo"
	"github.com/javanhut/minit/internal/resolve"
	"github.com/javanhut/minit/internal/store"
)

// engine bundles the opened repository and its component stores, the unit
// every subcommand works against.
type engine struct {
	repo     *repo.Repository
	objects  *store.ObjectStore
	refs     *refs.Store
	resolver *resolve.Resolver
	cache    *store.DB
}

func openEngine() (*engine, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getwd: %w", err)
	}

	r, err := repo.Discover(cwd, true)
	if err != nil {
		return nil, err
	}

	objs := store.NewObjectStore(r.Path("objects"))
	refStore := refs.New(r.MetaDir)
	resolver := resolve.New(objs, refStore)

	// The ref/abbreviation cache is a best-effort speedup; a repository
	// whose cache can't be opened (for example on a read-only filesystem)
	// still resolves names correctly, just without the fast path. Opening
	// waits for the cache file's lock while another process holds it.
	cache, err := store.OpenCache(r.MetaDir)
	if err == nil {
		resolver.UseCache(cache)
	}

	return &engine{repo: r, objects: objs, refs: refStore, resolver: resolver, cache: cache}, nil
}

// invalidateRef drops any cached resolution for refPath after a write, so a
// stale cache entry can never survive the write it should reflect. Safe to
// call when no cache was opened.
func (e *engine) invalidateRef(refPath string) {
	if e.cache == nil {
		return
	}
	_ = e.cache.InvalidateRef(refPath)
}

// invalidateAbbrevsForWrite drops any cached abbreviation that h's digest
// would now make ambiguous, so a hex prefix cached as a unique match before h
// was written can never be trusted as still-unique afterward.
func (e *engine) invalidateAbbrevsForWrite(h digest.Hash) {
	if e.cache == nil {
		return
	}
	_ = e.cache.InvalidateAbbrevsMatching(h.String())
}

// Close releases the engine's cache connection. Safe to call when no cache
// was opened.
func (e *engine) Close() error {
	if e.cache == nil {
		return nil
	}
	return e.cache.Close()
}
