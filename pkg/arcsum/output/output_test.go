package output

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidhaslett/arcsum/pkg/arcsum/reconcile"
)

func verifyReport(failed bool) *reconcile.Report {
	counts := &reconcile.VerifyCounts{Valid: 3}
	if failed {
		counts.Invalid = 1
	}
	return &reconcile.Report{
		Operation:    "verify",
		Archive:      "/data/arc",
		Label:        "arc",
		ManifestPath: "/data/manifest.txt",
		Files:        3,
		TotalSize:    4096,
		Elapsed:      1500 * time.Millisecond,
		Verify:       counts,
	}
}

func TestRegistry(t *testing.T) {
	assert.Equal(t, []string{"json", "plain", "pretty"}, Available())

	for _, name := range Available() {
		f, err := Get(name)
		require.NoError(t, err)
		assert.NotNil(t, f)
	}

	_, err := Get("yaml")
	assert.Error(t, err)
}

func TestPlainFormatterVerify(t *testing.T) {
	f, err := Get("plain")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, f.Format(&buf, verifyReport(false)))

	out := buf.String()
	assert.Contains(t, out, "verify: /data/arc (3 files, 1.5s)")
	assert.Contains(t, out, "valid=3 invalid=0 new=0 missing=0")
	assert.Contains(t, out, "result=ok")
}

func TestPlainFormatterVerifyFailed(t *testing.T) {
	f, err := Get("plain")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, f.Format(&buf, verifyReport(true)))
	assert.Contains(t, buf.String(), "result=failed")
}

func TestPlainFormatterGenerate(t *testing.T) {
	report := &reconcile.Report{
		Operation: "generate",
		Archive:   "/data/arc",
		Files:     5,
		Generate:  &reconcile.GenerateCounts{Succeeded: 4, Failed: 1},
		Warnings:  []string{"a.txt: permission denied"},
	}

	f, err := Get("plain")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, f.Format(&buf, report))

	out := buf.String()
	assert.Contains(t, out, "succeeded=4 failed=1")
	assert.Contains(t, out, "warning: a.txt: permission denied")
}

func TestJSONFormatter(t *testing.T) {
	f, err := Get("json")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, f.Format(&buf, verifyReport(false)))

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))

	assert.Equal(t, "verify", decoded["operation"])
	assert.Equal(t, "1.5s", decoded["elapsed"])
	assert.Equal(t, true, decoded["ok"])

	verify, ok := decoded["verify"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(3), verify["valid"])
}

func TestJSONFormatterFailed(t *testing.T) {
	f, err := Get("json")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, f.Format(&buf, verifyReport(true)))

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, false, decoded["ok"])
}

func TestPrettyFormatterVerify(t *testing.T) {
	f, err := Get("pretty")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, f.Format(&buf, verifyReport(false)))

	out := buf.String()
	assert.Contains(t, out, "Manifest verification")
	assert.Contains(t, out, "/data/manifest.txt")
	assert.Contains(t, out, "4.0 KiB")
	assert.Contains(t, out, "verification OK")
}

func TestPrettyFormatterUpdate(t *testing.T) {
	report := &reconcile.Report{
		Operation: "update",
		Archive:   "/data/arc",
		Files:     2,
		Update:    &reconcile.UpdateCounts{Unchanged: 1, New: 1},
	}

	f, err := Get("pretty")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, f.Format(&buf, report))

	out := buf.String()
	assert.Contains(t, out, "Manifest updated")
	assert.Contains(t, out, "unchanged:")
}
