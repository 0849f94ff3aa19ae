// Package manifest defines the archive manifest: a mapping from
// canonical archive paths to SHA-256 content digests, persisted as
// "<digest> <path>" lines. It owns the canonical path-naming scheme and
// the on-disk load/save round trip.
package manifest

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/davidhaslett/arcsum/pkg/arcsum/logging"
	"github.com/google/uuid"
)

var logger = logging.Get("manifest")

// Entry is a single manifest line: a canonical path and the lowercase
// hex SHA-256 digest of the file's content.
type Entry struct {
	Path   string `json:"path"`
	Digest string `json:"digest"`
}

// Manifest is an in-memory mapping from canonical path to digest. It is
// owned exclusively by one reconciliation run and carries no
// synchronization of its own.
type Manifest struct {
	entries map[string]string
}

// New returns an empty manifest.
func New() *Manifest {
	return &Manifest{entries: make(map[string]string)}
}

// Get returns the digest recorded for the given canonical path.
func (m *Manifest) Get(path string) (string, bool) {
	digest, ok := m.entries[path]
	return digest, ok
}

// Set records or overwrites the digest for the given canonical path.
func (m *Manifest) Set(path, digest string) {
	m.entries[path] = digest
}

// Delete removes the entry for the given canonical path.
func (m *Manifest) Delete(path string) {
	delete(m.entries, path)
}

// Len returns the number of entries.
func (m *Manifest) Len() int {
	return len(m.entries)
}

// Paths returns all canonical paths in sorted order.
func (m *Manifest) Paths() []string {
	paths := make([]string, 0, len(m.entries))
	for path := range m.entries {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// Entries returns all entries sorted by canonical path.
func (m *Manifest) Entries() []Entry {
	entries := make([]Entry, 0, len(m.entries))
	for _, path := range m.Paths() {
		entries = append(entries, Entry{Path: path, Digest: m.entries[path]})
	}
	return entries
}

// Load reads a manifest from disk. A missing file is not an error: it
// yields an empty manifest, the valid "no baseline yet" state. Malformed
// lines are logged with their line number and skipped; on duplicate
// paths the last occurrence wins.
func Load(path string) (*Manifest, error) {
	m := New()

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return m, nil
		}
		return nil, fmt.Errorf("opening manifest %s: %w", path, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	// Manifest lines are short, but allow for deep path hierarchies.
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		digest, entryPath, found := strings.Cut(line, " ")
		if !found || digest == "" || entryPath == "" {
			logger.Warn("skipping malformed manifest line", "file", path, "line", lineNum)
			continue
		}

		m.entries[entryPath] = digest
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}

	return m, nil
}

// Save writes the manifest to path, one "<digest> <path>" line per entry
// sorted by canonical path. The file is written to a temporary sibling
// and renamed into place so a crash mid-write cannot truncate an
// existing manifest.
func (m *Manifest) Save(path string) error {
	lines := make([]string, 0, len(m.entries))
	for _, entry := range m.Entries() {
		lines = append(lines, entry.Digest+" "+entry.Path)
	}
	return WriteLines(path, lines)
}

// WriteLines writes manifest lines to path atomically, in the order
// given. Generate uses this directly so its output preserves enumeration
// order rather than sorted order.
func WriteLines(path string, lines []string) error {
	dir := filepath.Dir(path)
	tmpPath := filepath.Join(dir, fmt.Sprintf(".%s.%s.tmp", filepath.Base(path), uuid.NewString()))

	tmp, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("creating temp manifest: %w", err)
	}

	w := bufio.NewWriter(tmp)
	for _, line := range lines {
		if _, err := w.WriteString(line + "\n"); err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
			return fmt.Errorf("writing manifest: %w", err)
		}
	}

	if err := w.Flush(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("flushing manifest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("closing temp manifest: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replacing manifest %s: %w", path, err)
	}

	return nil
}
