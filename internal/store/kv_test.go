package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRefCacheRoundTrip(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(filepath.Join(dir, "refcache.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer db.Close()

	if err := db.CacheRefDigest("refs/heads/master", "abc123"); err != nil {
		t.Fatalf("CacheRefDigest failed: %v", err)
	}

	got, err := db.LookupRefDigest("refs/heads/master")
	if err != nil {
		t.Fatalf("LookupRefDigest failed: %v", err)
	}
	if got != "abc123" {
		t.Errorf("got %q, want %q", got, "abc123")
	}

	if err := db.InvalidateRef("refs/heads/master"); err != nil {
		t.Fatalf("InvalidateRef failed: %v", err)
	}
	if _, err := db.LookupRefDigest("refs/heads/master"); err != ErrCacheMiss {
		t.Errorf("expected ErrCacheMiss after invalidation, got %v", err)
	}
}

func TestAbbrevCacheRoundTrip(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(filepath.Join(dir, "refcache.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer db.Close()

	if err := db.CacheAbbrev("abc1", "abc123456789"); err != nil {
		t.Fatalf("CacheAbbrev failed: %v", err)
	}
	got, err := db.LookupAbbrev("abc1")
	if err != nil {
		t.Fatalf("LookupAbbrev failed: %v", err)
	}
	if got != "abc123456789" {
		t.Errorf("got %q, want %q", got, "abc123456789")
	}
}

func TestOpenCacheUsesMetaDirPath(t *testing.T) {
	dir := t.TempDir()

	db, err := OpenCache(dir)
	if err != nil {
		t.Fatalf("OpenCache failed: %v", err)
	}
	defer db.Close()

	if err := db.CacheRefDigest("refs/heads/master", "deadbeef"); err != nil {
		t.Fatalf("CacheRefDigest failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "refcache.db")); err != nil {
		t.Errorf("expected refcache.db under metaDir: %v", err)
	}
}

func TestInvalidateAbbrevsMatchingDropsCollidingPrefixes(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(filepath.Join(dir, "refcache.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer db.Close()

	oldAb12 := "ab12" + strings.Repeat("0", 60)
	cachedFfff := "ffff" + strings.Repeat("0", 60)
	if err := db.CacheAbbrev("ab12", oldAb12); err != nil {
		t.Fatalf("CacheAbbrev failed: %v", err)
	}
	if err := db.CacheAbbrev("ffff", cachedFfff); err != nil {
		t.Fatalf("CacheAbbrev failed: %v", err)
	}

	newHex := "ab12" + strings.Repeat("9", 60)
	if err := db.InvalidateAbbrevsMatching(newHex); err != nil {
		t.Fatalf("InvalidateAbbrevsMatching failed: %v", err)
	}

	if _, err := db.LookupAbbrev("ab12"); err != ErrCacheMiss {
		t.Errorf("expected ab12 entry to be invalidated, got %v", err)
	}
	if _, err := db.LookupAbbrev("ffff"); err != nil {
		t.Errorf("unrelated prefix should survive invalidation: %v", err)
	}
}
