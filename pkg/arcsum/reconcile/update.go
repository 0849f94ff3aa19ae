package reconcile

import (
	"context"
	"time"

	"github.com/davidhaslett/arcsum/pkg/arcsum/manifest"
	"github.com/davidhaslett/arcsum/pkg/arcsum/scanner"
)

// Update loads the manifest and mutates it to match the live archive:
// untracked files are inserted, changed digests overwritten, entries for
// vanished files removed, and matching entries left untouched. The
// mutated manifest is persisted back to ManifestPath. Digesting runs
// through the same worker pool as Generate; classification happens at
// fan-in against the exclusively-owned mapping, so counts and the final
// manifest are identical to a sequential pass.
func (e *Engine) Update(ctx context.Context) (*Report, error) {
	startTime := time.Now()
	report := e.newReport("update")

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

	logger.Info("updating manifest",
		"root", e.opts.Root,
		"manifest", e.opts.ManifestPath,
		"files", len(scan.Files),
		"entries", m.Len())

	tr := newTracker(e.opts.OnProgress, len(scan.Files))
	results, err := e.digestFiles(ctx, scan.Files, tr)
	if err != nil {
		return nil, err
	}

	counts := &UpdateCounts{}
	liveKeys := make(map[string]struct{}, len(scan.Files))
	for i, f := range scan.Files {
		key := manifest.Key(e.opts.Root, e.opts.Label, f.Path)
		liveKeys[key] = struct{}{}

		if results[i].err != nil {
			// The file exists but cannot be read; keep whatever the
			// manifest already records for it.
			logger.Warn("skipping unreadable file", "path", key, "error", results[i].err)
			report.warnf("%s: %v", key, results[i].err)
			continue
		}

		actual := results[i].digest
		if expected, ok := m.Get(key); ok {
			if actual == expected {
				counts.Unchanged++
			} else {
				m.Set(key, actual)
				counts.Updated++
				logger.Info("updated digest", "path", key, "old", expected, "new", actual)
			}
		} else {
			m.Set(key, actual)
			counts.New++
			logger.Info("added new file", "path", key)
		}
	}

	for _, key := range m.Paths() {
		if _, ok := liveKeys[key]; !ok {
			m.Delete(key)
			counts.Removed++
			logger.Info("removed vanished file", "path", key)
		}
	}

	if err := m.Save(e.opts.ManifestPath); err != nil {
		return nil, err
	}

	report.Update = counts
	report.Elapsed = time.Since(startTime)

	logger.Info("manifest updated",
		"unchanged", counts.Unchanged,
		"updated", counts.Updated,
		"new", counts.New,
		"removed", counts.Removed,
		"elapsed", report.Elapsed)

	return report, nil
}
