// Package reconcile implements the three manifest operations: Generate,
// Verify, and Update. All three share the same substrate: enumerate the
// archive with the scanner, digest file contents through a bounded
// worker pool, and reconcile the results against the manifest store.
package reconcile

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"time"

	"github.com/davidhaslett/arcsum/pkg/arcsum/digest"
	"github.com/davidhaslett/arcsum/pkg/arcsum/logging"
	"github.com/davidhaslett/arcsum/pkg/arcsum/manifest"
)

var logger = logging.Get("reconcile")

// ErrVerificationFailed is returned by Verify when the archive has
// drifted from its manifest: at least one digest mismatch or missing
// file. The report returned alongside is always complete; verification
// never short-circuits on the first failure.
var ErrVerificationFailed = errors.New("verification failed")

// Progress is a snapshot delivered to the progress sink, once per file
// processed. Counters are cumulative for the run.
type Progress struct {
	// Done is the number of files processed so far.
	Done int64

	// Total is the number of files the run will process.
	Total int64

	// Bytes is the total size of the files processed so far.
	Bytes int64

	// Path is the file that just finished.
	Path string
}

// ProgressFunc receives progress snapshots. It must be safe to call from
// multiple goroutines.
type ProgressFunc func(Progress)

// Options configures a reconciliation run.
type Options struct {
	// Root is the archive root directory. Relative paths are resolved
	// against the working directory in Validate.
	Root string

	// Label is the prefix for canonical manifest paths. Empty means the
	// base name of Root. It is resolved once in Validate and never
	// recomputed mid-run.
	Label string

	// ManifestPath is the manifest file to write (Generate) or to load
	// and reconcile against (Verify, Update).
	ManifestPath string

	// BufferSize is the read buffer size for hashing, in bytes. It is a
	// performance knob only; digests are identical for any size >= 1.
	BufferSize int

	// Workers bounds the parallel digest fan-out. Zero or negative
	// means one worker per CPU core.
	Workers int

	// OnProgress, when non-nil, is invoked once per file processed.
	// Operations behave identically whether or not it is set.
	OnProgress ProgressFunc
}

// Validate applies defaults and rejects unusable options.
func (o *Options) Validate() error {
	if o.Root == "" {
		return errors.New("archive root is required")
	}
	if o.ManifestPath == "" {
		return errors.New("manifest path is required")
	}

	// The scanner reports absolute file paths, so the root must be
	// absolute too or the prefix strip during canonicalization misses
	// every file.
	root, err := filepath.Abs(o.Root)
	if err != nil {
		return fmt.Errorf("resolving archive root: %w", err)
	}
	o.Root = root

	if o.Label == "" {
		o.Label = manifest.DefaultLabel(o.Root)
	}
	if o.BufferSize < 1 {
		o.BufferSize = digest.DefaultBufferSize
	}
	if o.Workers < 1 {
		o.Workers = runtime.NumCPU()
	}
	return nil
}

// Engine runs reconciliation operations over one archive.
type Engine struct {
	opts Options
}

// New creates an Engine, validating the options.
func New(opts Options) (*Engine, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	return &Engine{opts: opts}, nil
}

// GenerateCounts reports the outcome of a Generate run.
type GenerateCounts struct {
	// Succeeded is the number of files whose digest was written.
	Succeeded int `json:"succeeded"`

	// Failed is the number of files that could not be digested and
	// were excluded from the manifest.
	Failed int `json:"failed"`
}

// VerifyCounts reports the outcome of a Verify run. Every file occupies
// exactly one of the four classes.
type VerifyCounts struct {
	Valid   int `json:"valid"`
	Invalid int `json:"invalid"`
	New     int `json:"new"`
	Missing int `json:"missing"`
}

// Failed reports whether the verification outcome is a failure. New
// files alone are a warning, not a failure.
func (c VerifyCounts) Failed() bool {
	return c.Invalid > 0 || c.Missing > 0
}

// UpdateCounts reports the outcome of an Update run. Every file occupies
// exactly one of the four classes.
type UpdateCounts struct {
	Unchanged int `json:"unchanged"`
	Updated   int `json:"updated"`
	New       int `json:"new"`
	Removed   int `json:"removed"`
}

// Report is the result of one reconciliation run, shared by all three
// operations. Exactly one of Generate, Verify, or Update is set.
type Report struct {
	Operation    string `json:"operation"`
	Archive      string `json:"archive"`
	Label        string `json:"label"`
	ManifestPath string `json:"manifest_path"`

	// Files is the number of live files enumerated.
	Files int `json:"files"`

	// TotalSize is the combined size of the enumerated files in bytes.
	TotalSize int64 `json:"total_size"`

	Elapsed time.Duration `json:"elapsed"`

	Generate *GenerateCounts `json:"generate,omitempty"`
	Verify   *VerifyCounts   `json:"verify,omitempty"`
	Update   *UpdateCounts   `json:"update,omitempty"`

	// Warnings lists non-fatal per-file problems encountered.
	Warnings []string `json:"warnings,omitempty"`
}

func (r *Report) warnf(format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

func (e *Engine) newReport(operation string) *Report {
	return &Report{
		Operation:    operation,
		Archive:      e.opts.Root,
		Label:        e.opts.Label,
		ManifestPath: e.opts.ManifestPath,
	}
}
