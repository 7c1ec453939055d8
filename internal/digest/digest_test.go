package digest

import "testing"

func TestSumDeterministic(t *testing.T) {
	data := []byte("hello\n")
	h1 := Sum(data)
	h2 := Sum(data)
	if h1 != h2 {
		t.Error("same data should produce same digest")
	}

	h3 := Sum([]byte("hello\n\n"))
	if h1 == h3 {
		t.Error("different data should produce different digests")
	}
}

func TestParseRoundTrip(t *testing.T) {
	h := Sum([]byte("round trip"))
	parsed, err := Parse(h.String())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if parsed != h {
		t.Errorf("parsed digest mismatch: got %s, want %s", parsed, h)
	}
}

func TestParseInvalidLength(t *testing.T) {
	if _, err := Parse("abcd"); err == nil {
		t.Error("expected error for short hex string")
	}
}

func TestParseInvalidHex(t *testing.T) {
	bad := make([]byte, Size*2)
	for i := range bad {
		bad[i] = 'z'
	}
	if _, err := Parse(string(bad)); err == nil {
		t.Error("expected error for non-hex string")
	}
}

func TestDeflateInflateRoundTrip(t *testing.T) {
	original := []byte("blob 6\x00hello\n")
	compressed := Deflate(original)
	restored, err := Inflate(compressed)
	if err != nil {
		t.Fatalf("Inflate failed: %v", err)
	}
	if string(restored) != string(original) {
		t.Errorf("round trip mismatch: got %q, want %q", restored, original)
	}
}

func TestInflateMalformed(t *testing.T) {
	_, err := Inflate([]byte("not zlib data"))
	if err == nil {
		t.Fatal("expected error for malformed zlib stream")
	}
}
