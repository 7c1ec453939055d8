// Package objects implements the tagged object union (C4) over {Blob, Tree,
// Commit, Tag} and the uniform on-disk framing that gives every object its
// digest identity: "<kind> SP <size> NUL <payload>".
//
// Generalizes the teacher's blob-only gitHeader/canonicalBlobBytes helpers
// (internal/objects/object.go in the teacher tree) into one frame-and-hash
// routine shared by all four kinds, per the design note in spec §9 that
// warns against a per-kind dispatch hierarchy.
package objects

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"

	"github.com/javanhut/minit/internal/digest"
	"github.com/javanhut/minit/internal/kvlm"
)

// Kind identifies one of the four object kinds. It is also the literal
// on-disk frame header token.
type Kind string

const (
	KindBlob   Kind = "blob"
	KindTree   Kind = "tree"
	KindCommit Kind = "commit"
	KindTag    Kind = "tag"
)

func (k Kind) valid() bool {
	switch k {
	case KindBlob, KindTree, KindCommit, KindTag:
		return true
	default:
		return false
	}
}

// Object is any of the four immutable object kinds.
type Object interface {
	Kind() Kind
}

// Blob holds opaque file content.
type Blob struct {
	Content []byte
}

// Kind implements Object.
func (*Blob) Kind() Kind { return KindBlob }

// Tree holds an ordered sequence of directory leaves.
type Tree struct {
	Leaves []Leaf
}

// Kind implements Object.
func (*Tree) Kind() Kind { return KindTree }

// Commit holds the KVLM header/message payload for a commit.
type Commit struct {
	Headers *kvlm.Map
}

// Kind implements Object.
func (*Commit) Kind() Kind { return KindCommit }

// Tag holds the KVLM header/message payload for an annotated tag.
type Tag struct {
	Headers *kvlm.Map
}

// Kind implements Object.
func (*Tag) Kind() Kind { return KindTag }

// Conventional commit/tag header keys (spec §4.4).
const (
	HeaderTree      = "tree"
	HeaderParent    = "parent"
	HeaderAuthor    = "author"
	HeaderCommitter = "committer"
	HeaderGPGSig    = "gpgsig"
	HeaderObject    = "object"
	HeaderType      = "type"
	HeaderTag       = "tag"
	HeaderTagger    = "tagger"
)

// ErrUnknownKind is returned when a frame header names a kind outside
// {blob, tree, commit, tag}.
var ErrUnknownKind = errors.New("unknown object kind")

// Serialize returns the payload bytes for o (no frame), dispatching to the
// kind-specific codec.
func Serialize(o Object) ([]byte, error) {
	switch v := o.(type) {
	case *Blob:
		return v.Content, nil
	case *Tree:
		return EncodeTree(v.Leaves)
	case *Commit:
		return v.Headers.Serialize(), nil
	case *Tag:
		return v.Headers.Serialize(), nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownKind, o)
	}
}

// Parse dispatches raw payload bytes to the kind-specific decoder and
// returns the typed Object.
func Parse(kind Kind, payload []byte) (Object, error) {
	switch kind {
	case KindBlob:
		return &Blob{Content: payload}, nil
	case KindTree:
		leaves, err := DecodeTree(payload)
		if err != nil {
			return nil, err
		}
		return &Tree{Leaves: leaves}, nil
	case KindCommit:
		m, err := kvlm.Parse(payload)
		if err != nil {
			return nil, err
		}
		return &Commit{Headers: m}, nil
	case KindTag:
		m, err := kvlm.Parse(payload)
		if err != nil {
			return nil, err
		}
		return &Tag{Headers: m}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

// Frame composes the on-disk, pre-zlib object frame:
// "<kind> SP <ascii-decimal-size> NUL <payload>".
func Frame(kind Kind, payload []byte) []byte {
	header := fmt.Sprintf("%s %d\x00", kind, len(payload))
	out := make([]byte, 0, len(header)+len(payload))
	out = append(out, header...)
	out = append(out, payload...)
	return out
}

// ParseFrame splits a frame into its kind and payload, re-verifying the
// declared size against the actual payload length (spec §4.4).
func ParseFrame(framed []byte) (Kind, []byte, error) {
	sp := bytes.IndexByte(framed, ' ')
	if sp < 0 {
		return "", nil, fmt.Errorf("%w: missing SP in frame header", digest.ErrMalformedObject)
	}
	kind := Kind(framed[:sp])
	if !kind.valid() {
		return "", nil, fmt.Errorf("%w: %v", ErrUnknownKind, kind)
	}

	rest := framed[sp+1:]
	nul := bytes.IndexByte(rest, 0)
	if nul < 0 {
		return "", nil, fmt.Errorf("%w: missing NUL in frame header", digest.ErrMalformedObject)
	}

	sizeStr := string(rest[:nul])
	size, err := strconv.Atoi(sizeStr)
	if err != nil || size < 0 {
		return "", nil, fmt.Errorf("%w: invalid size %q", digest.ErrMalformedObject, sizeStr)
	}

	payload := rest[nul+1:]
	if size != len(payload) {
		return "", nil, fmt.Errorf("%w: declared size %d, got %d bytes", digest.ErrMalformedObject, size, len(payload))
	}

	return kind, payload, nil
}

// Write composes the frame for o, computes its digest, and returns both
// (frame bytes are not yet zlib-compressed; that is the object store's job).
func Write(o Object) (digest.Hash, []byte, error) {
	payload, err := Serialize(o)
	if err != nil {
		return digest.Hash{}, nil, err
	}
	framed := Frame(o.Kind(), payload)
	return digest.Sum(framed), framed, nil
}
