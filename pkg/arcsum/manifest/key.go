package manifest

import (
	"path/filepath"
	"strings"
)

// Key maps an absolute file path to its canonical manifest key:
// "<label>/<path relative to root>" with forward-slash separators on
// every platform. The degenerate case of an empty relative path yields
// just the label. Canonicalization is a pure function of its inputs, so
// the same file always produces the same key across runs and machines.
//
// If absPath does not live under root the absolute path is used verbatim
// (slash-normalized). Paths reaching this function come from a walk
// rooted at root, so that branch is not hit in normal operation.
func Key(root, label, absPath string) string {
	rel, ok := strings.CutPrefix(absPath, root)
	if !ok {
		return filepath.ToSlash(absPath)
	}

	rel = strings.TrimPrefix(rel, string(filepath.Separator))
	rel = filepath.ToSlash(rel)
	if rel == "" {
		return label
	}
	return label + "/" + rel
}

// DefaultLabel returns the label used when none is configured: the base
// name of the archive root. It is resolved once per run and passed to
// every Key call so the prefix cannot drift mid-operation.
func DefaultLabel(root string) string {
	return filepath.Base(filepath.Clean(root))
}
