package output

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/davidhaslett/arcsum/pkg/arcsum/reconcile"
	"github.com/davidhaslett/arcsum/pkg/arcsum/types"
)

// PrettyFormatter renders a styled, human-readable report. This is the
// default format for terminal use.
type PrettyFormatter struct{}

// Format writes the formatted report to w.
func (f *PrettyFormatter) Format(w io.Writer, r *reconcile.Report) error {
	fmt.Fprintln(w, TitleStyle.Render(titleFor(r)))
	fmt.Fprintf(w, "%s %s\n", LabelStyle.Render("Archive: "), r.Archive)
	fmt.Fprintf(w, "%s %s\n", LabelStyle.Render("Manifest:"), r.ManifestPath)
	fmt.Fprintf(w, "%s %d files, %s, %s\n",
		LabelStyle.Render("Scanned: "),
		r.Files,
		types.FormatSize(r.TotalSize),
		r.Elapsed.Round(time.Millisecond))

	switch {
	case r.Generate != nil:
		f.formatGenerate(w, r.Generate)
	case r.Verify != nil:
		f.formatVerify(w, r.Verify)
	case r.Update != nil:
		f.formatUpdate(w, r.Update)
	}

	for _, warning := range r.Warnings {
		fmt.Fprintf(w, "%s %s\n", WarningStyle.Render("warning:"), warning)
	}

	return nil
}

func (f *PrettyFormatter) formatGenerate(w io.Writer, c *reconcile.GenerateCounts) {
	fmt.Fprintf(w, "  %s %s\n", LabelStyle.Render("succeeded:"), strconv.Itoa(c.Succeeded))
	failed := strconv.Itoa(c.Failed)
	if c.Failed > 0 {
		failed = ErrorStyle.Render(failed)
	}
	fmt.Fprintf(w, "  %s %s\n", LabelStyle.Render("failed:   "), failed)
}

func (f *PrettyFormatter) formatVerify(w io.Writer, c *reconcile.VerifyCounts) {
	fmt.Fprintf(w, "  %s %d\n", LabelStyle.Render("valid:  "), c.Valid)
	fmt.Fprintf(w, "  %s %s\n", LabelStyle.Render("invalid:"), countStyled(c.Invalid, ErrorStyle))
	fmt.Fprintf(w, "  %s %s\n", LabelStyle.Render("new:    "), countStyled(c.New, WarningStyle))
	fmt.Fprintf(w, "  %s %s\n", LabelStyle.Render("missing:"), countStyled(c.Missing, ErrorStyle))

	if c.Failed() {
		fmt.Fprintln(w, ErrorStyle.Render("verification FAILED"))
	} else {
		fmt.Fprintln(w, SuccessStyle.Render("verification OK"))
	}
}

func (f *PrettyFormatter) formatUpdate(w io.Writer, c *reconcile.UpdateCounts) {
	fmt.Fprintf(w, "  %s %d\n", LabelStyle.Render("unchanged:"), c.Unchanged)
	fmt.Fprintf(w, "  %s %s\n", LabelStyle.Render("updated:  "), countStyled(c.Updated, WarningStyle))
	fmt.Fprintf(w, "  %s %s\n", LabelStyle.Render("new:      "), countStyled(c.New, SuccessStyle))
	fmt.Fprintf(w, "  %s %s\n", LabelStyle.Render("removed:  "), countStyled(c.Removed, WarningStyle))
}

// countStyled highlights non-zero counts with the given style.
func countStyled(n int, style lipgloss.Style) string {
	s := strconv.Itoa(n)
	if n > 0 {
		return style.Render(s)
	}
	return s
}
