// Package store implements the content-addressed object store (C6) and a
// non-authoritative ref/abbreviation cache used to speed up name resolution.
//
// The object store's Put/Get shape is grounded on the teacher's deleted
// internal/cas.FileCAS (digest-sharded files under a root directory, with a
// no-op write on an already-present digest); the framing and compression are
// generalized to the four-kind object union in internal/objects instead of
// FileCAS's blob-only payloads.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/javanhut/minit/internal/digest"
	"github.com/javanhut/minit/internal/objects"
)

// ErrObjectNotFound is returned when no object exists under a given digest.
var ErrObjectNotFound = errors.New("object not found")

// ObjectStore is a content-addressed store of frame+zlib encoded objects
// rooted at a repository's "objects" directory.
type ObjectStore struct {
	root string
}

// NewObjectStore returns an ObjectStore rooted at root (normally
// <metadata-dir>/objects).
func NewObjectStore(root string) *ObjectStore {
	return &ObjectStore{root: root}
}

func (s *ObjectStore) pathFor(h digest.Hash) string {
	hex := h.String()
	return filepath.Join(s.root, hex[:2], hex[2:])
}

// Read loads and decodes the object stored under h.
func (s *ObjectStore) Read(h digest.Hash) (objects.Object, error) {
	path := s.pathFor(h)
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, h)
		}
		return nil, fmt.Errorf("%w: %v", digest.ErrMalformedObject, err)
	}

	framed, err := digest.Inflate(raw)
	if err != nil {
		return nil, err
	}

	kind, payload, err := objects.ParseFrame(framed)
	if err != nil {
		return nil, err
	}
	return objects.Parse(kind, payload)
}

// Write serializes, frames, hashes and stores o. If an object with the same
// digest already exists, the existing file is left untouched and the digest
// is returned unchanged (content-addressed no-op, spec §4.6).
func (s *ObjectStore) Write(o objects.Object) (digest.Hash, error) {
	h, framed, err := objects.Write(o)
	if err != nil {
		return digest.Hash{}, err
	}

	path := s.pathFor(h)
	if _, err := os.Stat(path); err == nil {
		return h, nil
	} else if !os.IsNotExist(err) {
		return digest.Hash{}, fmt.Errorf("%w: %v", digest.ErrMalformedObject, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return digest.Hash{}, fmt.Errorf("%w: %v", digest.ErrMalformedObject, err)
	}

	compressed := digest.Deflate(framed)

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return digest.Hash{}, fmt.Errorf("%w: %v", digest.ErrMalformedObject, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(compressed); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return digest.Hash{}, fmt.Errorf("%w: %v", digest.ErrMalformedObject, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return digest.Hash{}, fmt.Errorf("%w: %v", digest.ErrMalformedObject, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return digest.Hash{}, fmt.Errorf("%w: %v", digest.ErrMalformedObject, err)
	}

	return h, nil
}

// Has reports whether an object with digest h is present, without reading it.
func (s *ObjectStore) Has(h digest.Hash) bool {
	_, err := os.Stat(s.pathFor(h))
	return err == nil
}

// WalkPrefix calls fn for every stored digest beginning with hexPrefix. It is
// used by name resolution to enumerate abbreviated-hash candidates.
func (s *ObjectStore) WalkPrefix(hexPrefix string, fn func(digest.Hash) error) error {
	if len(hexPrefix) < 2 {
		return walkAllShards(s.root, hexPrefix, fn)
	}

	shard := hexPrefix[:2]
	rest := hexPrefix[2:]
	dir := filepath.Join(s.root, shard)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("%w: %v", digest.ErrMalformedObject, err)
	}

	for _, e := range entries {
		if e.IsDir() || len(e.Name()) < len(rest) || e.Name()[:len(rest)] != rest {
			continue
		}
		h, err := digest.Parse(shard + e.Name())
		if err != nil {
			continue
		}
		if err := fn(h); err != nil {
			return err
		}
	}
	return nil
}

func walkAllShards(root, hexPrefix string, fn func(digest.Hash) error) error {
	shards, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("%w: %v", digest.ErrMalformedObject, err)
	}
	for _, shard := range shards {
		if !shard.IsDir() {
			continue
		}
		entries, err := os.ReadDir(filepath.Join(root, shard.Name()))
		if err != nil {
			continue
		}
		for _, e := range entries {
			full := shard.Name() + e.Name()
			if len(full) < len(hexPrefix) || full[:len(hexPrefix)] != hexPrefix {
				continue
			}
			h, err := digest.Parse(full)
			if err != nil {
				continue
			}
			if err := fn(h); err != nil {
				return err
			}
		}
	}
	return nil
}
