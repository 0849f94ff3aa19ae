// Package scanner enumerates the regular files of an archive tree using
// fastwalk. Symbolic links are never followed, macOS metadata sidecar
// files are skipped, and unreadable entries are logged and skipped
// without aborting the pass.
package scanner

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charlievieth/fastwalk"
	"github.com/davidhaslett/arcsum/pkg/arcsum/logging"
	"github.com/davidhaslett/arcsum/pkg/arcsum/types"
)

var logger = logging.Get("scanner")

// ErrNotDirectory is returned when the archive root is not a directory.
var ErrNotDirectory = errors.New("archive path is not a directory")

// metadataPrefix marks OS-generated sidecar files (e.g. AppleDouble
// "._foo" companions) that never belong in a manifest.
const metadataPrefix = "._"

// Result contains the outcome of one enumeration pass.
type Result struct {
	// Files lists every regular file found, in walk order.
	Files []types.FileInfo

	// DirsScanned is the number of directories traversed.
	DirsScanned int64

	// Skipped is the number of entries skipped because their metadata
	// could not be read.
	Skipped int64

	// TotalSize is the sum of all file sizes in bytes.
	TotalSize int64

	// Elapsed is the time taken to complete the pass.
	Elapsed time.Duration
}

// Scanner walks an archive root and collects file descriptors.
type Scanner struct {
	root string

	dirsScanned atomic.Int64
	skipped     atomic.Int64
	totalSize   atomic.Int64

	files   []types.FileInfo
	filesMu sync.Mutex
}

// New creates a Scanner for the given archive root.
func New(root string) *Scanner {
	return &Scanner{root: root}
}

// Scan enumerates the archive and returns the collected descriptors.
// It blocks until the walk completes or the context is cancelled.
func (s *Scanner) Scan(ctx context.Context) (*Result, error) {
	startTime := time.Now()

	root, err := s.validateRoot()
	if err != nil {
		return nil, err
	}
	s.root = root

	conf := fastwalk.Config{
		Follow: false, // never follow symlinks out of the archive
	}

	err = fastwalk.Walk(&conf, root, s.walkCallback(ctx))
	if err != nil {
		return nil, err
	}

	return &Result{
		Files:       s.files,
		DirsScanned: s.dirsScanned.Load(),
		Skipped:     s.skipped.Load(),
		TotalSize:   s.totalSize.Load(),
		Elapsed:     time.Since(startTime),
	}, nil
}

// validateRoot resolves the root path to absolute and verifies it is an
// existing directory.
func (s *Scanner) validateRoot() (string, error) {
	root, err := filepath.Abs(s.root)
	if err != nil {
		return "", err
	}

	rootInfo, err := os.Stat(root)
	if err != nil {
		return "", err
	}
	if !rootInfo.IsDir() {
		return "", ErrNotDirectory
	}

	return root, nil
}

// walkCallback returns the callback function for fastwalk.Walk.
func (s *Scanner) walkCallback(ctx context.Context) fs.WalkDirFunc {
	return func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		// Unreadable entries are warnings, not failures.
		if err != nil {
			logger.Warn("skipping unreadable entry", "path", path, "error", err)
			s.skipped.Add(1)
			return nil
		}

		if d.IsDir() {
			s.dirsScanned.Add(1)
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}

		if strings.HasPrefix(filepath.Base(path), metadataPrefix) {
			return nil
		}

		s.processFile(path, d)
		return nil
	}
}

// processFile stats a regular file and records its descriptor.
func (s *Scanner) processFile(path string, d fs.DirEntry) {
	info, err := d.Info()
	if err != nil {
		logger.Warn("skipping file with unreadable metadata", "path", path, "error", err)
		s.skipped.Add(1)
		return
	}

	size := info.Size()
	s.totalSize.Add(size)

	s.filesMu.Lock()
	s.files = append(s.files, types.FileInfo{Path: path, Size: size})
	s.filesMu.Unlock()
}
