// Tree leaf codec (C3): mode, path, digest records concatenated with no
// separator beyond the NUL that terminates each path.
//
// Grounded on the teacher's fsmerkle.TreeNode canonical-bytes/sort-invariant
// idea (internal/fsmerkle/types.go), adapted from that package's varint-framed
// directory encoding to the flat "mode SP path NUL digest" grammar spec §4.3
// mandates, and on commit.go's TreeEntry shape for the leaf fields themselves.
package objects

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/javanhut/minit/internal/digest"
)

// Mode is the ASCII-digit file mode string stored in a tree leaf.
type Mode string

// Conventional modes (spec §4.3, EXPANSION in SPEC_FULL.md §3).
const (
	ModeRegular    Mode = "100644"
	ModeExecutable Mode = "100755"
	ModeSymlink    Mode = "120000"
	ModeTree       Mode = "40000"
	ModeSubmodule  Mode = "160000"
)

// ErrInvalidLeafMode is returned for a mode whose prefix doesn't match any
// known peel type.
var ErrInvalidLeafMode = errors.New("invalid leaf mode")

// Leaf is one entry in a Tree: a mode, a path component, and the digest of
// the referenced object.
type Leaf struct {
	Mode   Mode
	Path   string
	Target digest.Hash
}

// normalizedPrefix zero-pads m to 6 digits (matching git's convention of
// omitting the leading zero for directory modes, e.g. "40000") and returns
// its first two characters for peel-type dispatch.
func normalizedPrefix(m Mode) string {
	s := string(m)
	for len(s) < 6 {
		s = "0" + s
	}
	return s[:2]
}

// PeelKind maps a leaf mode to the kind of object it references, per the
// mode-prefix table in spec §4.3.
func PeelKind(m Mode) (Kind, error) {
	switch normalizedPrefix(m) {
	case "10", "12":
		return KindBlob, nil
	case "04":
		return KindTree, nil
	case "16":
		return KindCommit, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidLeafMode, m)
	}
}

// sortKey returns the canonical ordering key for a leaf: its path, with a
// trailing '/' appended when the mode denotes a subdirectory (spec §3
// invariant 3, required for digest stability).
func sortKey(l Leaf) (string, error) {
	kind, err := PeelKind(l.Mode)
	if err != nil {
		return "", err
	}
	if kind == KindTree {
		return l.Path + "/", nil
	}
	return l.Path, nil
}

func validatePath(path string) error {
	if path == "" {
		return fmt.Errorf("%w: empty path", ErrInvalidLeafMode)
	}
	if strings.IndexByte(path, 0) >= 0 {
		return fmt.Errorf("%w: path contains NUL", ErrInvalidLeafMode)
	}
	if strings.IndexByte(path, ' ') >= 0 {
		return fmt.Errorf("%w: path contains SP", ErrInvalidLeafMode)
	}
	return nil
}

// EncodeTree serializes leaves into the canonical tree payload. Leaves are
// always re-sorted by their canonical key before emission, so two trees with
// the same leaf set produce byte-identical payloads regardless of input
// order (spec §8 property 4).
func EncodeTree(leaves []Leaf) ([]byte, error) {
	sorted := make([]Leaf, len(leaves))
	copy(sorted, leaves)

	keys := make([]string, len(sorted))
	for i, l := range sorted {
		if err := validatePath(l.Path); err != nil {
			return nil, err
		}
		k, err := sortKey(l)
		if err != nil {
			return nil, err
		}
		keys[i] = k
	}

	idx := make([]int, len(sorted))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(i, j int) bool { return keys[idx[i]] < keys[idx[j]] })

	var buf bytes.Buffer
	for _, i := range idx {
		l := sorted[i]
		buf.WriteString(string(l.Mode))
		buf.WriteByte(' ')
		buf.WriteString(l.Path)
		buf.WriteByte(0)
		buf.Write(l.Target[:])
	}
	return buf.Bytes(), nil
}

// DecodeTree parses a tree payload into its leaves, in the canonical order
// they were stored.
func DecodeTree(data []byte) ([]Leaf, error) {
	var leaves []Leaf

	for len(data) > 0 {
		sp := bytes.IndexByte(data, ' ')
		if sp < 0 {
			return nil, fmt.Errorf("%w: missing SP after mode", ErrInvalidLeafMode)
		}
		mode := Mode(data[:sp])
		rest := data[sp+1:]

		nul := bytes.IndexByte(rest, 0)
		if nul < 0 {
			return nil, fmt.Errorf("%w: missing NUL after path", ErrInvalidLeafMode)
		}
		path := string(rest[:nul])

		after := rest[nul+1:]
		if len(after) < digest.Size {
			return nil, fmt.Errorf("%w: truncated digest for %q", ErrInvalidLeafMode, path)
		}
		var target digest.Hash
		copy(target[:], after[:digest.Size])

		if _, err := PeelKind(mode); err != nil {
			return nil, err
		}

		leaves = append(leaves, Leaf{Mode: mode, Path: path, Target: target})
		data = after[digest.Size:]
	}

	return leaves, nil
}
