package digest

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// Standard SHA-256 test vectors.
const (
	helloDigest = "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
	emptyDigest = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
)

func writeFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

// TestSumKnownVectors verifies the digest against standard SHA-256 vectors.
func TestSumKnownVectors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content []byte
		want    string
	}{
		{"hello", []byte("hello"), helloDigest},
		{"empty", nil, emptyDigest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, tt.name, tt.content)
			got, err := Sum(path, DefaultBufferSize)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Sum() = %s, want %s", got, tt.want)
			}
			if len(got) != HexLength {
				t.Errorf("digest length = %d, want %d", len(got), HexLength)
			}
		})
	}
}

// TestSumBufferSizeInvariance verifies the digest is identical for any
// buffer size, including sizes smaller than the file.
func TestSumBufferSizeInvariance(t *testing.T) {
	dir := t.TempDir()

	content := make([]byte, 10000)
	if _, err := rand.Read(content); err != nil {
		t.Fatalf("generating content: %v", err)
	}
	path := writeFile(t, dir, "random.bin", content)

	raw := sha256.Sum256(content)
	want := hex.EncodeToString(raw[:])

	for _, bufferSize := range []int{1, 7, 1024, 10000, 1 << 20} {
		got, err := Sum(path, bufferSize)
		if err != nil {
			t.Fatalf("Sum with buffer %d: %v", bufferSize, err)
		}
		if got != want {
			t.Errorf("buffer %d: digest = %s, want %s", bufferSize, got, want)
		}
	}
}

// TestHasherReuse verifies a Hasher produces correct digests across
// multiple files with one buffer.
func TestHasherReuse(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a", []byte("hello"))
	b := writeFile(t, dir, "b", nil)

	h, err := NewHasher(8)
	if err != nil {
		t.Fatalf("NewHasher: %v", err)
	}

	got, err := h.Sum(a)
	if err != nil || got != helloDigest {
		t.Errorf("first Sum = %s, %v; want %s", got, err, helloDigest)
	}
	got, err = h.Sum(b)
	if err != nil || got != emptyDigest {
		t.Errorf("second Sum = %s, %v; want %s", got, err, emptyDigest)
	}
}

// TestSumMissingFile verifies an IO error is returned for unreadable files.
func TestSumMissingFile(t *testing.T) {
	_, err := Sum(filepath.Join(t.TempDir(), "nope"), DefaultBufferSize)
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

// TestNewHasherBufferSize verifies rejection of non-positive buffer sizes.
func TestNewHasherBufferSize(t *testing.T) {
	for _, size := range []int{0, -1} {
		if _, err := NewHasher(size); !errors.Is(err, ErrBufferSize) {
			t.Errorf("NewHasher(%d) error = %v, want ErrBufferSize", size, err)
		}
	}
}
