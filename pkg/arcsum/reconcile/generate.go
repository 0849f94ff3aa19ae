package reconcile

import (
	"context"
	"time"

	"github.com/davidhaslett/arcsum/pkg/arcsum/manifest"
	"github.com/davidhaslett/arcsum/pkg/arcsum/scanner"
)

// Generate enumerates the archive, digests every file in parallel, and
// writes a fresh manifest to ManifestPath, replacing any existing file.
// Output lines follow enumeration order. Files that cannot be read are
// logged, counted as failed, and excluded; they do not abort the run.
func (e *Engine) Generate(ctx context.Context) (*Report, error) {
	startTime := time.Now()
	report := e.newReport("generate")

	scan, err := scanner.New(e.opts.Root).Scan(ctx)
	if err != nil {
		return nil, err
	}
	report.Files = len(scan.Files)
	report.TotalSize = scan.TotalSize

	logger.Info("archive enumerated",
		"root", e.opts.Root,
		"files", len(scan.Files),
		"bytes", scan.TotalSize,
		"workers", e.opts.Workers)

	tr := newTracker(e.opts.OnProgress, len(scan.Files))
	results, err := e.digestFiles(ctx, scan.Files, tr)
	if err != nil {
		return nil, err
	}

	counts := &GenerateCounts{}
	lines := make([]string, 0, len(scan.Files))
	for i, f := range scan.Files {
		if results[i].err != nil {
			counts.Failed++
			logger.Warn("excluding unreadable file", "path", f.Path, "error", results[i].err)
			report.warnf("%s: %v", f.Path, results[i].err)
			continue
		}
		key := manifest.Key(e.opts.Root, e.opts.Label, f.Path)
		lines = append(lines, results[i].digest+" "+key)
		counts.Succeeded++
	}

	if err := manifest.WriteLines(e.opts.ManifestPath, lines); err != nil {
		return nil, err
	}

	report.Generate = counts
	report.Elapsed = time.Since(startTime)

	logger.Info("manifest written",
		"path", e.opts.ManifestPath,
		"succeeded", counts.Succeeded,
		"failed", counts.Failed,
		"elapsed", report.Elapsed)

	return report, nil
}
