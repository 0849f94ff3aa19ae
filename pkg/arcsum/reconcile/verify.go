package reconcile

import (
	"context"
	"time"

	"github.com/davidhaslett/arcsum/pkg/arcsum/manifest"
	"github.com/davidhaslett/arcsum/pkg/arcsum/scanner"
	"github.com/davidhaslett/arcsum/pkg/arcsum/types"
)

// Verify loads the manifest and checks the live archive against it.
// Every live file is classified as valid, invalid, or new; every
// manifest entry without a live counterpart is missing. The four classes
// are mutually exclusive and exhaustive over (live files ∪ manifest
// keys). The returned report is always complete; if the archive has
// drifted (invalid or missing files) the error is ErrVerificationFailed.
func (e *Engine) Verify(ctx context.Context) (*Report, error) {
	startTime := time.Now()
	report := e.newReport("verify")

	m, err := manifest.Load(e.opts.ManifestPath)
	if err != nil {
		return nil, err
	}

	scan, err := scanner.New(e.opts.Root).Scan(ctx)
	if err != nil {
		return nil, err
	}
	report.Files = len(scan.Files)
	report.TotalSize = scan.TotalSize

	logger.Info("verifying archive",
		"root", e.opts.Root,
		"manifest", e.opts.ManifestPath,
		"files", len(scan.Files),
		"entries", m.Len())

	// Only files the manifest tracks need digesting; new files are
	// classified by key membership alone.
	keys := make([]string, len(scan.Files))
	var tracked []types.FileInfo
	var trackedIdx []int
	for i, f := range scan.Files {
		keys[i] = manifest.Key(e.opts.Root, e.opts.Label, f.Path)
		if _, ok := m.Get(keys[i]); ok {
			tracked = append(tracked, f)
			trackedIdx = append(trackedIdx, i)
		}
	}

	tr := newTracker(e.opts.OnProgress, len(scan.Files))
	results, err := e.digestFiles(ctx, tracked, tr)
	if err != nil {
		return nil, err
	}

	actual := make(map[int]fileResult, len(tracked))
	for j, i := range trackedIdx {
		actual[i] = results[j]
	}

	counts := &VerifyCounts{}
	liveKeys := make(map[string]struct{}, len(scan.Files))
	for i, f := range scan.Files {
		key := keys[i]
		liveKeys[key] = struct{}{}

		res, ok := actual[i]
		if !ok {
			counts.New++
			logger.Info("new file not in manifest", "path", key)
			tr.tick(f.Path, f.Size)
			continue
		}

		expected, _ := m.Get(key)
		switch {
		case res.err != nil:
			// A tracked file that cannot be read cannot be confirmed
			// intact; it counts against the archive.
			counts.Invalid++
			logger.Warn("cannot verify unreadable file", "path", key, "error", res.err)
			report.warnf("%s: %v", key, res.err)
		case res.digest == expected:
			counts.Valid++
		default:
			counts.Invalid++
			logger.Error("digest mismatch",
				"path", key,
				"expected", expected,
				"actual", res.digest)
			report.warnf("digest mismatch for %s: expected %s, got %s", key, expected, res.digest)
		}
	}

	for _, key := range m.Paths() {
		if _, ok := liveKeys[key]; !ok {
			counts.Missing++
			logger.Error("missing file", "path", key)
			report.warnf("missing file: %s", key)
		}
	}

	report.Verify = counts
	report.Elapsed = time.Since(startTime)

	logger.Info("verification complete",
		"valid", counts.Valid,
		"invalid", counts.Invalid,
		"new", counts.New,
		"missing", counts.Missing,
		"elapsed", report.Elapsed)

	if counts.Failed() {
		return report, ErrVerificationFailed
	}
	return report, nil
}
