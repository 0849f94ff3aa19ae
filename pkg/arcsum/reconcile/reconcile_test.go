package reconcile

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidhaslett/arcsum/pkg/arcsum/digest"
	"github.com/davidhaslett/arcsum/pkg/arcsum/manifest"
	"github.com/davidhaslett/arcsum/pkg/arcsum/scanner"
)

// Standard SHA-256 test vectors for the fixture contents.
const (
	helloDigest = "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
	worldDigest = "486ea46224d1bb4fb680f34f7c9ad96a8f24ec88be73ea8e5a6c65260e9cb8a7"
)

// newArchive creates an archive root named "arc" with a.txt ("hello")
// and sub/b.txt ("world"), and returns the root plus a manifest path in
// a sibling directory.
func newArchive(t *testing.T) (root, manifestPath string) {
	t.Helper()
	base := t.TempDir()
	root = filepath.Join(base, "arc")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("hello"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "b.txt"), []byte("world"), 0o644))
	return root, filepath.Join(base, "manifest.txt")
}

func newEngine(t *testing.T, root, manifestPath string) *Engine {
	t.Helper()
	e, err := New(Options{
		Root:         root,
		ManifestPath: manifestPath,
		Workers:      2,
	})
	require.NoError(t, err)
	return e
}

func TestOptionsValidateDefaults(t *testing.T) {
	opts := Options{Root: "/data/arc", ManifestPath: "/data/manifest.txt"}
	require.NoError(t, opts.Validate())

	assert.Equal(t, "arc", opts.Label, "label defaults to the root base name")
	assert.Greater(t, opts.BufferSize, 0)
	assert.Greater(t, opts.Workers, 0)
}

func TestOptionsValidateRejectsEmpty(t *testing.T) {
	_, err := New(Options{ManifestPath: "m.txt"})
	assert.Error(t, err)

	_, err = New(Options{Root: "/data/arc"})
	assert.Error(t, err)
}

func TestGenerateWritesManifest(t *testing.T) {
	root, manifestPath := newArchive(t)
	e := newEngine(t, root, manifestPath)

	report, err := e.Generate(context.Background())
	require.NoError(t, err)

	require.NotNil(t, report.Generate)
	assert.Equal(t, 2, report.Generate.Succeeded)
	assert.Equal(t, 0, report.Generate.Failed)
	assert.Equal(t, 2, report.Files)
	assert.Equal(t, int64(10), report.TotalSize)

	m, err := manifest.Load(manifestPath)
	require.NoError(t, err)
	assert.Equal(t, 2, m.Len())

	sum, ok := m.Get("arc/a.txt")
	require.True(t, ok)
	assert.Equal(t, helloDigest, sum)

	sum, ok = m.Get("arc/sub/b.txt")
	require.True(t, ok)
	assert.Equal(t, worldDigest, sum)
}

func TestGenerateEmptyArchive(t *testing.T) {
	base := t.TempDir()
	root := filepath.Join(base, "arc")
	require.NoError(t, os.MkdirAll(root, 0o755))
	manifestPath := filepath.Join(base, "manifest.txt")

	e := newEngine(t, root, manifestPath)
	report, err := e.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.Generate.Succeeded)

	// The manifest file exists and is empty.
	data, err := os.ReadFile(manifestPath)
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestGenerateReplacesExistingManifest(t *testing.T) {
	root, manifestPath := newArchive(t)
	require.NoError(t, os.WriteFile(manifestPath, []byte("stale stale/entry\n"), 0o644))

	e := newEngine(t, root, manifestPath)
	_, err := e.Generate(context.Background())
	require.NoError(t, err)

	m, err := manifest.Load(manifestPath)
	require.NoError(t, err)
	_, ok := m.Get("stale/entry")
	assert.False(t, ok, "old entries are replaced, not merged")
	assert.Equal(t, 2, m.Len())
}

func TestVerifyCleanArchive(t *testing.T) {
	root, manifestPath := newArchive(t)
	e := newEngine(t, root, manifestPath)

	_, err := e.Generate(context.Background())
	require.NoError(t, err)

	report, err := e.Verify(context.Background())
	require.NoError(t, err)

	require.NotNil(t, report.Verify)
	assert.Equal(t, VerifyCounts{Valid: 2}, *report.Verify)
	assert.False(t, report.Verify.Failed())
}

func TestVerifyDetectsCorruption(t *testing.T) {
	root, manifestPath := newArchive(t)
	e := newEngine(t, root, manifestPath)

	_, err := e.Generate(context.Background())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("tampered"), 0o644))

	report, err := e.Verify(context.Background())
	require.ErrorIs(t, err, ErrVerificationFailed)

	require.NotNil(t, report, "a failed verification still returns its full report")
	assert.Equal(t, VerifyCounts{Valid: 1, Invalid: 1}, *report.Verify)
	assert.NotEmpty(t, report.Warnings)
}

func TestVerifyDetectsMissingFile(t *testing.T) {
	root, manifestPath := newArchive(t)
	e := newEngine(t, root, manifestPath)

	_, err := e.Generate(context.Background())
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(root, "sub", "b.txt")))

	report, err := e.Verify(context.Background())
	require.ErrorIs(t, err, ErrVerificationFailed)
	assert.Equal(t, VerifyCounts{Valid: 1, Missing: 1}, *report.Verify)
}

func TestVerifyNewFileIsWarningOnly(t *testing.T) {
	root, manifestPath := newArchive(t)
	e := newEngine(t, root, manifestPath)

	_, err := e.Generate(context.Background())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(root, "c.txt"), []byte("extra"), 0o644))

	report, err := e.Verify(context.Background())
	require.NoError(t, err, "new files do not fail verification")
	assert.Equal(t, VerifyCounts{Valid: 2, New: 1}, *report.Verify)
}

func TestVerifyEmptyManifestEmptyArchive(t *testing.T) {
	base := t.TempDir()
	root := filepath.Join(base, "arc")
	require.NoError(t, os.MkdirAll(root, 0o755))

	e := newEngine(t, root, filepath.Join(base, "manifest.txt"))
	report, err := e.Verify(context.Background())
	require.NoError(t, err, "an empty archive matches an absent manifest")
	assert.Equal(t, VerifyCounts{}, *report.Verify)
}

func TestVerifyAbsentManifestFlagsAllFilesNew(t *testing.T) {
	root, manifestPath := newArchive(t)
	e := newEngine(t, root, manifestPath)

	report, err := e.Verify(context.Background())
	require.NoError(t, err)
	assert.Equal(t, VerifyCounts{New: 2}, *report.Verify)
}

func TestUpdateNoChanges(t *testing.T) {
	root, manifestPath := newArchive(t)
	e := newEngine(t, root, manifestPath)

	_, err := e.Generate(context.Background())
	require.NoError(t, err)

	report, err := e.Update(context.Background())
	require.NoError(t, err)

	require.NotNil(t, report.Update)
	assert.Equal(t, UpdateCounts{Unchanged: 2}, *report.Update)
}

func TestUpdateReconcilesDrift(t *testing.T) {
	root, manifestPath := newArchive(t)
	e := newEngine(t, root, manifestPath)

	_, err := e.Generate(context.Background())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("changed"), 0o644))
	require.NoError(t, os.Remove(filepath.Join(root, "sub", "b.txt")))
	require.NoError(t, os.WriteFile(filepath.Join(root, "c.txt"), []byte("added"), 0o644))

	report, err := e.Update(context.Background())
	require.NoError(t, err)
	assert.Equal(t, UpdateCounts{Updated: 1, New: 1, Removed: 1}, *report.Update)

	m, err := manifest.Load(manifestPath)
	require.NoError(t, err)
	assert.Equal(t, 2, m.Len())
	_, ok := m.Get("arc/sub/b.txt")
	assert.False(t, ok, "vanished files are dropped from the manifest")
	_, ok = m.Get("arc/c.txt")
	assert.True(t, ok)

	// The reconciled manifest verifies clean.
	vreport, err := e.Verify(context.Background())
	require.NoError(t, err)
	assert.Equal(t, VerifyCounts{Valid: 2}, *vreport.Verify)
}

func TestUpdateAbsentManifestActsLikeGenerate(t *testing.T) {
	root, manifestPath := newArchive(t)
	e := newEngine(t, root, manifestPath)

	report, err := e.Update(context.Background())
	require.NoError(t, err)
	assert.Equal(t, UpdateCounts{New: 2}, *report.Update)

	m, err := manifest.Load(manifestPath)
	require.NoError(t, err)
	assert.Equal(t, 2, m.Len())
}

func TestProgressSink(t *testing.T) {
	root, manifestPath := newArchive(t)

	var mu sync.Mutex
	var snapshots []Progress
	e, err := New(Options{
		Root:         root,
		ManifestPath: manifestPath,
		Workers:      2,
		OnProgress: func(p Progress) {
			mu.Lock()
			snapshots = append(snapshots, p)
			mu.Unlock()
		},
	})
	require.NoError(t, err)

	_, err = e.Generate(context.Background())
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, snapshots, 2, "one snapshot per file")
	last := snapshots[len(snapshots)-1]
	assert.Equal(t, int64(2), last.Done)
	assert.Equal(t, int64(2), last.Total)
	assert.Equal(t, int64(10), last.Bytes)
}

func TestRelativeRootCanonicalKeys(t *testing.T) {
	root, manifestPath := newArchive(t)
	t.Chdir(filepath.Dir(root))

	e, err := New(Options{
		Root:         "arc",
		ManifestPath: manifestPath,
		Workers:      2,
	})
	require.NoError(t, err)

	_, err = e.Generate(context.Background())
	require.NoError(t, err)

	// A relative root must yield the same keys as an absolute one, not
	// absolute-path fallbacks.
	m, err := manifest.Load(manifestPath)
	require.NoError(t, err)

	sum, ok := m.Get("arc/a.txt")
	require.True(t, ok, "keys must be label-relative regardless of how the root was spelled")
	assert.Equal(t, helloDigest, sum)

	_, ok = m.Get("arc/sub/b.txt")
	assert.True(t, ok)
}

func TestDigestFilesRejectsBadBufferSize(t *testing.T) {
	root, _ := newArchive(t)

	scan, err := scanner.New(root).Scan(context.Background())
	require.NoError(t, err)

	// An Engine built without New never had its options validated; a bad
	// buffer size must come back as an error, not a worker panic.
	e := &Engine{opts: Options{Root: root, BufferSize: -1, Workers: 2}}
	_, err = e.digestFiles(context.Background(), scan.Files, newTracker(nil, len(scan.Files)))
	require.ErrorIs(t, err, digest.ErrBufferSize)
}

func TestGenerateCancelledContext(t *testing.T) {
	root, manifestPath := newArchive(t)
	e := newEngine(t, root, manifestPath)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Generate(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
