package output

import (
	"encoding/json"
	"io"

	"github.com/davidhaslett/arcsum/pkg/arcsum/reconcile"
)

// jsonReport wraps the report with string durations for readability.
type jsonReport struct {
	*reconcile.Report
	Elapsed string `json:"elapsed"`
	OK      bool   `json:"ok"`
}

// JSONFormatter renders the report as a single indented JSON object.
// Intended for scripting and CI verification jobs.
type JSONFormatter struct{}

// Format writes the formatted report to w.
func (f *JSONFormatter) Format(w io.Writer, r *reconcile.Report) error {
	ok := true
	if r.Verify != nil && r.Verify.Failed() {
		ok = false
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(jsonReport{
		Report:  r,
		Elapsed: r.Elapsed.String(),
		OK:      ok,
	})
}
