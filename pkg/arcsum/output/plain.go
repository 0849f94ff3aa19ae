package output

import (
	"fmt"
	"io"
	"time"

	"github.com/davidhaslett/arcsum/pkg/arcsum/reconcile"
)

// titleFor returns the report heading for the operation.
func titleFor(r *reconcile.Report) string {
	switch r.Operation {
	case "generate":
		return "Manifest generated"
	case "verify":
		return "Manifest verification"
	case "update":
		return "Manifest updated"
	default:
		return r.Operation
	}
}

// PlainFormatter renders an unstyled report suitable for logs and
// non-terminal output.
type PlainFormatter struct{}

// Format writes the formatted report to w.
func (f *PlainFormatter) Format(w io.Writer, r *reconcile.Report) error {
	fmt.Fprintf(w, "%s: %s (%d files, %s)\n",
		r.Operation, r.Archive, r.Files, r.Elapsed.Round(time.Millisecond))

	switch {
	case r.Generate != nil:
		fmt.Fprintf(w, "succeeded=%d failed=%d\n", r.Generate.Succeeded, r.Generate.Failed)
	case r.Verify != nil:
		fmt.Fprintf(w, "valid=%d invalid=%d new=%d missing=%d\n",
			r.Verify.Valid, r.Verify.Invalid, r.Verify.New, r.Verify.Missing)
		if r.Verify.Failed() {
			fmt.Fprintln(w, "result=failed")
		} else {
			fmt.Fprintln(w, "result=ok")
		}
	case r.Update != nil:
		fmt.Fprintf(w, "unchanged=%d updated=%d new=%d removed=%d\n",
			r.Update.Unchanged, r.Update.Updated, r.Update.New, r.Update.Removed)
	}

	for _, warning := range r.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warning)
	}

	return nil
}
