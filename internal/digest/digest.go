// Package digest provides the content-hashing and framing primitives shared by
// every object kind: a fixed-width BLAKE3-256 digest rendered as lowercase hex,
// and the zlib framing used for on-disk object storage (C1).
package digest

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
	"lukechampine.com/blake3"
)

// Size is the width of a digest in bytes (BLAKE3-256).
const Size = 32

// ErrMalformedObject is returned when inflating a stored object fails structurally.
var ErrMalformedObject = errors.New("malformed object")

// Hash is a 256-bit content digest. Object identity is the full hex string.
type Hash [Size]byte

// String renders the digest as lowercase hex.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// IsZero reports whether h is the zero-value digest.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// Parse decodes a hex string into a Hash. It requires exactly Size*2 hex
// characters; shorter strings are rejected.
func Parse(s string) (Hash, error) {
	if len(s) != Size*2 {
		return Hash{}, fmt.Errorf("digest: invalid length %d, want %d", len(s), Size*2)
	}
	var h Hash
	if _, err := hex.Decode(h[:], []byte(s)); err != nil {
		return Hash{}, fmt.Errorf("digest: invalid hex: %w", err)
	}
	return h, nil
}

// Sum computes the BLAKE3-256 digest of b.
func Sum(b []byte) Hash {
	return blake3.Sum256(b)
}

// Deflate zlib-compresses b, matching the on-disk object framing of spec §6.
func Deflate(b []byte) []byte {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	// A bytes.Buffer writer never errors; only Close can surface the
	// flate encoder's internal state.
	_, _ = w.Write(b)
	_ = w.Close()
	return buf.Bytes()
}

// Inflate zlib-decompresses b. Checksum or structural errors are reported as
// ErrMalformedObject, matching spec §7.
func Inflate(b []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedObject, err)
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedObject, err)
	}
	return out, nil
}
