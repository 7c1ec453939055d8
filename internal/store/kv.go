package store

import (
	"errors"
	"path/filepath"
	"strings"

	"go.etcd.io/bbolt"
)

// Buckets for the ref/abbreviation cache. This cache is never authoritative:
// the textual files under refs/** remain the source of truth (spec §4.7);
// losing or deleting the cache file only costs a rebuild, never correctness.
var (
	BucketRefDigest = []byte("ref->digest")  // ref path -> resolved digest hex
	BucketAbbrev    = []byte("abbrev->full") // hex prefix -> full digest hex
)

// ErrCacheMiss is returned by lookups that find no cached entry.
var ErrCacheMiss = errors.New("cache miss")

// DB wraps a bbolt database holding the ref/abbreviation cache.
type DB struct{ *bbolt.DB }

// Open opens (creating if absent) the cache database at path, ensuring its
// buckets exist.
func Open(path string) (*DB, error) {
	db, err := bbolt.Open(path, 0o666, nil)
	if err != nil {
		return nil, err
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		if _, e := tx.CreateBucketIfNotExists(BucketRefDigest); e != nil {
			return e
		}
		if _, e := tx.CreateBucketIfNotExists(BucketAbbrev); e != nil {
			return e
		}
		return nil
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &DB{db}, nil
}

func (db *DB) Close() error { return db.DB.Close() }

// OpenCache opens the ref/abbreviation cache for a repository's metadata
// directory. minit is a short-lived, one-shot-per-invocation process (unlike
// a long-running daemon juggling several components against the same
// repository), so each call simply gets its own handle; there is nothing to
// share or reference-count.
func OpenCache(metaDir string) (*DB, error) {
	return Open(filepath.Join(metaDir, "refcache.db"))
}

// CacheRefDigest records the resolved digest hex for a ref path.
func (db *DB) CacheRefDigest(refPath, digestHex string) error {
	return db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(BucketRefDigest).Put([]byte(refPath), []byte(digestHex))
	})
}

// LookupRefDigest returns the cached digest hex for a ref path, if any.
func (db *DB) LookupRefDigest(refPath string) (string, error) {
	var out string
	err := db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(BucketRefDigest).Get([]byte(refPath))
		if v == nil {
			return ErrCacheMiss
		}
		out = string(v)
		return nil
	})
	return out, err
}

// InvalidateRef drops any cached digest for a ref path. Callers invoke this
// whenever they write a ref, so the cache can never outlive the file it
// mirrors.
func (db *DB) InvalidateRef(refPath string) error {
	return db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(BucketRefDigest).Delete([]byte(refPath))
	})
}

// CacheAbbrev records that hexPrefix uniquely abbreviates fullHex.
func (db *DB) CacheAbbrev(hexPrefix, fullHex string) error {
	return db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(BucketAbbrev).Put([]byte(hexPrefix), []byte(fullHex))
	})
}

// LookupAbbrev returns the full digest hex cached for hexPrefix, if any.
func (db *DB) LookupAbbrev(hexPrefix string) (string, error) {
	var out string
	err := db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(BucketAbbrev).Get([]byte(hexPrefix))
		if v == nil {
			return ErrCacheMiss
		}
		out = string(v)
		return nil
	})
	return out, err
}

// InvalidateAbbrevsMatching drops every cached abbreviation that hex (a full
// digest hex string) would now collide with. A cached entry records that its
// key uniquely abbreviated some earlier digest; if hex also starts with that
// key, the abbreviation is no longer unique and must be re-verified against
// the object store on next lookup instead of trusted from cache (spec §4.6,
// property 6).
func (db *DB) InvalidateAbbrevsMatching(hex string) error {
	return db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(BucketAbbrev)
		var stale [][]byte
		err := b.ForEach(func(k, v []byte) error {
			if strings.HasPrefix(hex, string(k)) {
				stale = append(stale, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}
