package resolve

import (
	"path/filepath"
	"strconv"
	"testing"

	"github.com/javanhut/minit/internal/kvlm"
	"github.com/javanhut/minit/internal/objects"
	"github.com/javanhut/minit/internal/refs"
	"github.com/javanhut/minit/internal/store"
)

func newFixture(t *testing.T) (*Resolver, *store.ObjectStore, *refs.Store) {
	t.Helper()
	dir := t.TempDir()
	objs := store.NewObjectStore(filepath.Join(dir, "objects"))
	refStore := refs.New(dir)
	if err := refStore.EnsureLayout(); err != nil {
		t.Fatalf("EnsureLayout failed: %v", err)
	}
	return New(objs, refStore), objs, refStore
}

func TestResolveHeadScenario(t *testing.T) {
	r, objs, refStore := newFixture(t)
	h, err := objs.Write(&objects.Blob{Content: []byte("seeded")})
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := refStore.WriteDigest("refs/heads/master", h); err != nil {
		t.Fatalf("WriteDigest failed: %v", err)
	}
	if err := refStore.SetHead("refs/heads/master"); err != nil {
		t.Fatalf("SetHead failed: %v", err)
	}

	got, err := r.Find("HEAD", nil, false)
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if got != h {
		t.Errorf("got %s, want %s", got, h)
	}
}

func TestResolveEmptyNameErrors(t *testing.T) {
	r, _, _ := newFixture(t)
	if _, err := r.Find("", nil, false); err == nil {
		t.Fatal("expected ErrNameEmpty")
	}
}

func TestResolveNoCandidatesErrors(t *testing.T) {
	r, _, _ := newFixture(t)
	if _, err := r.Find("nonexistent", nil, false); err == nil {
		t.Fatal("expected ErrObjectNotFound")
	}
}

func TestResolveAmbiguousPrefix(t *testing.T) {
	r, objs, refStore := newFixture(t)

	h, err := objs.Write(&objects.Blob{Content: []byte("unique content for prefix test")})
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	prefix := h.String()[:4]

	// A branch literally named after the hex prefix resolves to a different
	// digest, so the same input name yields two distinct candidates.
	other, err := objs.Write(&objects.Blob{Content: []byte("a completely different blob")})
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := refStore.WriteDigest("refs/heads/"+prefix, other); err != nil {
		t.Fatalf("WriteDigest failed: %v", err)
	}

	_, err = r.Find(prefix, nil, false)
	var ambiguous *AmbiguousReferenceError
	if err == nil {
		t.Fatal("expected AmbiguousReferenceError")
	}
	if !asAmbiguous(err, &ambiguous) {
		t.Fatalf("expected AmbiguousReferenceError, got %T: %v", err, err)
	}
	if len(ambiguous.Candidates) != 2 {
		t.Errorf("expected 2 candidates, got %d", len(ambiguous.Candidates))
	}
}

func asAmbiguous(err error, target **AmbiguousReferenceError) bool {
	if e, ok := err.(*AmbiguousReferenceError); ok {
		*target = e
		return true
	}
	return false
}

func TestFindPeelsTagToCommitToTree(t *testing.T) {
	r, objs, refStore := newFixture(t)

	treeHash, err := objs.Write(&objects.Tree{})
	if err != nil {
		t.Fatalf("Write tree failed: %v", err)
	}

	commitHeaders := kvlm.New()
	_ = commitHeaders.Set(objects.HeaderTree, treeHash.String())
	_ = commitHeaders.Set(objects.HeaderAuthor, "a <a@b> 1 +0000")
	_ = commitHeaders.Set(objects.HeaderCommitter, "a <a@b> 1 +0000")
	commitHeaders.SetMessage("initial\n")
	commitHash, err := objs.Write(&objects.Commit{Headers: commitHeaders})
	if err != nil {
		t.Fatalf("Write commit failed: %v", err)
	}

	tagHeaders := kvlm.New()
	_ = tagHeaders.Set(objects.HeaderObject, commitHash.String())
	_ = tagHeaders.Set(objects.HeaderType, "commit")
	_ = tagHeaders.Set(objects.HeaderTag, "v1")
	_ = tagHeaders.Set(objects.HeaderTagger, "a <a@b> 1 +0000")
	tagHeaders.SetMessage("release\n")
	tagHash, err := objs.Write(&objects.Tag{Headers: tagHeaders})
	if err != nil {
		t.Fatalf("Write tag failed: %v", err)
	}
	if err := refStore.WriteDigest("refs/tags/v1", tagHash); err != nil {
		t.Fatalf("WriteDigest failed: %v", err)
	}

	treeKind := objects.KindTree
	got, err := r.Find("v1", &treeKind, true)
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if got != treeHash {
		t.Errorf("got %s, want %s", got, treeHash)
	}
}

func TestCandidatesUseCacheWhenPresent(t *testing.T) {
	dir := t.TempDir()
	objs := store.NewObjectStore(filepath.Join(dir, "objects"))
	refStore := refs.New(dir)
	if err := refStore.EnsureLayout(); err != nil {
		t.Fatalf("EnsureLayout failed: %v", err)
	}
	r := New(objs, refStore)

	cache, err := store.OpenCache(dir)
	if err != nil {
		t.Fatalf("OpenCache failed: %v", err)
	}
	defer cache.Close()
	r.UseCache(cache)

	h, err := objs.Write(&objects.Blob{Content: []byte("cached")})
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := refStore.WriteDigest("refs/heads/master", h); err != nil {
		t.Fatalf("WriteDigest failed: %v", err)
	}

	// First resolution populates the cache.
	got, err := r.Find("master", nil, false)
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if got != h {
		t.Fatalf("got %s, want %s", got, h)
	}

	cached, err := cache.LookupRefDigest("refs/heads/master")
	if err != nil {
		t.Fatalf("expected cache entry after resolution: %v", err)
	}
	if cached != h.String() {
		t.Errorf("cached digest %q, want %q", cached, h.String())
	}

	// A second resolution must still succeed by reading the cache.
	got2, err := r.Find("master", nil, false)
	if err != nil {
		t.Fatalf("second Find failed: %v", err)
	}
	if got2 != h {
		t.Errorf("second resolution got %s, want %s", got2, h)
	}
}

func TestCachedRefIgnoredWhenObjectMissing(t *testing.T) {
	dir := t.TempDir()
	objs := store.NewObjectStore(filepath.Join(dir, "objects"))
	refStore := refs.New(dir)
	if err := refStore.EnsureLayout(); err != nil {
		t.Fatalf("EnsureLayout failed: %v", err)
	}
	r := New(objs, refStore)

	cache, err := store.OpenCache(dir)
	if err != nil {
		t.Fatalf("OpenCache failed: %v", err)
	}
	defer cache.Close()
	r.UseCache(cache)

	// A cache entry pointing at a digest that was never written must never
	// be trusted: resolution should fall through to the real ref file.
	stale := "00112233445566778899aabbccddeeff00112233445566778899aabbccddee"
	if err := cache.CacheRefDigest("refs/heads/master", stale); err != nil {
		t.Fatalf("CacheRefDigest failed: %v", err)
	}

	h, err := objs.Write(&objects.Blob{Content: []byte("real")})
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := refStore.WriteDigest("refs/heads/master", h); err != nil {
		t.Fatalf("WriteDigest failed: %v", err)
	}

	got, err := r.Find("master", nil, false)
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if got != h {
		t.Errorf("got %s, want %s (stale cache entry should have been ignored)", got, h)
	}
}

// TestAbbrevCacheInvalidatedOnCollidingWrite reproduces the scenario where a
// prefix is cached as a unique match, then a second object sharing that
// prefix is written; once the write invalidates the colliding cache entry
// (the contract internal/cli's invalidateAbbrevsForWrite upholds), resolving
// the prefix again must report it as ambiguous rather than silently
// returning the stale single digest.
func TestAbbrevCacheInvalidatedOnCollidingWrite(t *testing.T) {
	dir := t.TempDir()
	objs := store.NewObjectStore(filepath.Join(dir, "objects"))
	refStore := refs.New(dir)
	if err := refStore.EnsureLayout(); err != nil {
		t.Fatalf("EnsureLayout failed: %v", err)
	}
	r := New(objs, refStore)

	cache, err := store.OpenCache(dir)
	if err != nil {
		t.Fatalf("OpenCache failed: %v", err)
	}
	defer cache.Close()
	r.UseCache(cache)

	first, err := objs.Write(&objects.Blob{Content: []byte("a.txt")})
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	prefix := first.String()[:4]

	// Resolving now caches prefix -> first, since it is the only match.
	if _, err := r.Find(prefix, nil, false); err != nil {
		t.Fatalf("first Find failed: %v", err)
	}
	if _, err := cache.LookupAbbrev(prefix); err != nil {
		t.Fatalf("expected prefix to be cached: %v", err)
	}

	// Find a second blob whose digest happens to share the cached prefix
	// (without writing it yet), then write it and invalidate the cache the
	// way internal/cli does after every write.
	var second objects.Blob
	found := false
	for attempt := 0; attempt < 100000; attempt++ {
		candidate := objects.Blob{Content: []byte(strconv.Itoa(attempt) + " b.txt")}
		h, _, err := objects.Write(&candidate)
		if err != nil {
			t.Fatalf("Write (probe) failed: %v", err)
		}
		if h.String()[:4] == prefix {
			second = candidate
			found = true
			break
		}
	}
	if !found {
		t.Fatal("failed to find a colliding prefix in a reasonable number of attempts")
	}
	secondHash, err := objs.Write(&second)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if secondHash.String()[:4] != prefix {
		t.Fatalf("test setup error: second digest %s does not share prefix %s", secondHash, prefix)
	}
	if err := cache.InvalidateAbbrevsMatching(secondHash.String()); err != nil {
		t.Fatalf("InvalidateAbbrevsMatching failed: %v", err)
	}

	_, err = r.Find(prefix, nil, false)
	var ambiguous *AmbiguousReferenceError
	if err == nil {
		t.Fatal("expected AmbiguousReferenceError after the colliding write")
	}
	if !asAmbiguous(err, &ambiguous) {
		t.Fatalf("expected AmbiguousReferenceError, got %T: %v", err, err)
	}
	if len(ambiguous.Candidates) != 2 {
		t.Errorf("expected 2 candidates, got %d", len(ambiguous.Candidates))
	}
}

func TestFindWithoutFollowStopsAtMismatch(t *testing.T) {
	r, objs, refStore := newFixture(t)
	h, err := objs.Write(&objects.Blob{Content: []byte("plain blob")})
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := refStore.WriteDigest("refs/heads/master", h); err != nil {
		t.Fatalf("WriteDigest failed: %v", err)
	}

	treeKind := objects.KindTree
	if _, err := r.Find("master", &treeKind, false); err == nil {
		t.Fatal("expected ErrObjectNotFound when not following and kind mismatches")
	}
}
