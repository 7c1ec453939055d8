// Package kvlm implements the key-value-list-message grammar shared by commit
// and tag object payloads (C2):
//
//	payload := (header '\n')* '\n' message
//	header  := key ' ' value
//	value   := line ('\n' ' ' line)*      ; continuation lines begin with SP
//
// Keys are ordered and may repeat, forming a multi-value under the same key in
// arrival order. The blank line separates headers from the message, which is
// stored under the reserved key "message" and is never duplicated as a header.
//
// Generalizes the teacher's per-field commit parser (internal/commit/commit.go)
// into a single codec usable for both Commit and Tag payloads.
package kvlm

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
)

// MessageKey is the reserved sentinel under which the trailing message is stored.
// It cannot appear as a regular header key.
const MessageKey = "message"

// ErrMalformedHeader reports a grammar violation: a non-continuation,
// non-blank line lacking a SP before its first byte, or a reserved key used
// as a real header.
var ErrMalformedHeader = errors.New("malformed header")

// Map is an insertion-ordered multimap of headers plus a terminal message.
type Map struct {
	keys       []string
	values     map[string][]string
	message    string
	hasMessage bool
}

// New returns an empty Map.
func New() *Map {
	return &Map{values: make(map[string][]string)}
}

// Keys returns header keys in first-insertion order. The reserved message key
// is never included.
func (m *Map) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Get returns all values recorded for key, in arrival order.
func (m *Map) Get(key string) []string {
	return m.values[key]
}

// GetOne returns the first value for key, if any.
func (m *Map) GetOne(key string) (string, bool) {
	vs := m.values[key]
	if len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}

// Append adds a value under key, preserving arrival order. It rejects the
// reserved message key.
func (m *Map) Append(key, value string) error {
	if key == MessageKey {
		return fmt.Errorf("%w: %q is reserved for the message", ErrMalformedHeader, MessageKey)
	}
	if key == "" {
		return fmt.Errorf("%w: empty key", ErrMalformedHeader)
	}
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = append(m.values[key], value)
	return nil
}

// Set replaces all values for key with a single value.
func (m *Map) Set(key, value string) error {
	if key == MessageKey {
		return fmt.Errorf("%w: use SetMessage for the message key", ErrMalformedHeader)
	}
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = []string{value}
	return nil
}

// SetMessage sets the terminal message. It is the only way to populate the
// reserved message key.
func (m *Map) SetMessage(msg string) {
	m.message = msg
	m.hasMessage = true
}

// Message returns the terminal message and whether it has been set.
func (m *Map) Message() (string, bool) {
	return m.message, m.hasMessage
}

// Parse decodes KVLM payload bytes into a Map.
func Parse(data []byte) (*Map, error) {
	lines := strings.Split(string(data), "\n")
	m := New()

	i := 0
	for i < len(lines) {
		line := lines[i]
		if line == "" {
			// Blank line: everything after it (rejoined with '\n') is the message.
			m.SetMessage(strings.Join(lines[i+1:], "\n"))
			return m, nil
		}

		if line[0] == ' ' {
			return nil, fmt.Errorf("%w: continuation line with no preceding key", ErrMalformedHeader)
		}

		idx := strings.IndexByte(line, ' ')
		if idx < 0 {
			return nil, fmt.Errorf("%w: line %q has no SP before a value", ErrMalformedHeader, line)
		}
		key := line[:idx]

		parts := []string{line[idx+1:]}
		j := i + 1
		for j < len(lines) && len(lines[j]) > 0 && lines[j][0] == ' ' {
			parts = append(parts, lines[j][1:])
			j++
		}

		if err := m.Append(key, strings.Join(parts, "\n")); err != nil {
			return nil, err
		}
		i = j
	}

	return nil, fmt.Errorf("%w: missing blank line before message", ErrMalformedHeader)
}

// Serialize encodes the Map back to KVLM payload bytes. Each value in a
// multi-value is emitted as its own "key SP value" record; embedded newlines
// within a value are re-folded by prefixing each continuation line with SP.
func (m *Map) Serialize() []byte {
	var buf bytes.Buffer

	for _, key := range m.keys {
		for _, value := range m.values[key] {
			folded := strings.ReplaceAll(value, "\n", "\n ")
			buf.WriteString(key)
			buf.WriteByte(' ')
			buf.WriteString(folded)
			buf.WriteByte('\n')
		}
	}
	buf.WriteByte('\n')
	buf.WriteString(m.message)

	return buf.Bytes()
}
