// Package progress renders a single-line terminal progress bar for
// reconciliation runs. The renderer implements the reconcile progress
// sink and throttles repaints so concurrent digest workers don't flood
// the terminal.
package progress

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"github.com/davidhaslett/arcsum/pkg/arcsum/reconcile"
	"github.com/davidhaslett/arcsum/pkg/arcsum/types"
)

// repaintInterval bounds how often the bar is redrawn.
const repaintInterval = 60 * time.Millisecond

// barWidth is the rendered width of the bar itself.
const barWidth = 40

var countStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

// Renderer draws progress updates to a terminal. Its Update method is
// safe to call from multiple goroutines.
type Renderer struct {
	mu       sync.Mutex
	out      io.Writer
	bar      progress.Model
	last     time.Time
	latest   reconcile.Progress
	finished bool
}

// NewRenderer creates a Renderer writing to out (typically stderr).
func NewRenderer(out io.Writer) *Renderer {
	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = barWidth
	bar.ShowPercentage = false

	return &Renderer{out: out, bar: bar}
}

// Update receives a progress snapshot. Repaints are throttled; the final
// state is always painted by Finish.
func (r *Renderer) Update(p reconcile.Progress) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.latest = p
	if r.finished || time.Since(r.last) < repaintInterval {
		return
	}
	r.last = time.Now()
	r.paint()
}

// Finish paints the final state and terminates the progress line.
func (r *Renderer) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.finished {
		return
	}
	r.finished = true
	r.paint()
	fmt.Fprintln(r.out)
}

// paint redraws the line. Caller holds r.mu.
func (r *Renderer) paint() {
	p := r.latest

	frac := 0.0
	if p.Total > 0 {
		frac = float64(p.Done) / float64(p.Total)
	}

	line := fmt.Sprintf("%s %s %s",
		r.bar.ViewAs(frac),
		countStyle.Render(fmt.Sprintf("%d/%d files", p.Done, p.Total)),
		countStyle.Render(types.FormatSize(p.Bytes)))

	// Pad with spaces so a shorter line fully overwrites a longer one.
	fmt.Fprintf(r.out, "\r%s%s", line, strings.Repeat(" ", 4))
}
