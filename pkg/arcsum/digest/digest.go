// Package digest computes streaming SHA-256 digests of file contents.
// Files are read through a fixed-size reusable buffer so memory usage is
// constant regardless of file size, and the resulting digest is identical
// for any buffer size of at least one byte.
package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/davidhaslett/arcsum/pkg/arcsum/types"
)

// DefaultBufferSize is the read buffer size used when none is configured.
const DefaultBufferSize = int(types.MiB)

// ErrBufferSize is returned when a non-positive buffer size is requested.
var ErrBufferSize = errors.New("buffer size must be at least 1 byte")

// HexLength is the length of a rendered SHA-256 digest.
const HexLength = sha256.Size * 2

// Hasher computes file digests with a single reusable read buffer.
// A Hasher is not safe for concurrent use; give each worker its own.
type Hasher struct {
	buf []byte
}

// NewHasher creates a Hasher with the given read buffer size.
func NewHasher(bufferSize int) (*Hasher, error) {
	if bufferSize < 1 {
		return nil, ErrBufferSize
	}
	return &Hasher{buf: make([]byte, bufferSize)}, nil
}

// Sum streams the file at path through SHA-256 and returns the digest as
// a lowercase hex string.
func (h *Hasher) Sum(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s for hashing: %w", path, err)
	}
	defer file.Close()

	hasher := sha256.New()
	for {
		n, err := file.Read(h.buf)
		if n > 0 {
			hasher.Write(h.buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("hashing %s: %w", path, err)
		}
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// Sum is a convenience wrapper that allocates a one-shot Hasher with the
// given buffer size and digests the file at path.
func Sum(path string, bufferSize int) (string, error) {
	h, err := NewHasher(bufferSize)
	if err != nil {
		return "", err
	}
	return h.Sum(path)
}
