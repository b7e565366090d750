package output

import (
	"fmt"
	"io"

	"github.com/keysweep/keysweep/internal/probe"
)

// ANSI color codes.
const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorCyan   = "\033[36m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
)

// Progress prints one line per completed probe.
type Progress struct {
	w       io.Writer
	total   int
	noColor bool
	quiet   bool
}

// NewProgress creates a per-completion progress printer.
func NewProgress(w io.Writer, total int, quiet, noColor bool) *Progress {
	return &Progress{w: w, total: total, quiet: quiet, noColor: noColor}
}

// Print reports one completed probe. done is the completion index,
// which tracks finish order rather than input order.
func (p *Progress) Print(result *probe.Result, done int) {
	if p.quiet {
		return
	}
	color := p.colorFor(result.Category)
	reset := colorReset
	if p.noColor {
		color, reset = "", ""
	}
	fmt.Fprintf(p.w, "[%d/%d] key=%s status=%s%s%s http=%d t=%.2fs\n",
		done, p.total,
		probe.Abbrev(result.Key),
		color, result.Category, reset,
		result.HTTPStatus,
		result.ElapsedSeconds,
	)
}

func (p *Progress) colorFor(category probe.Category) string {
	switch category {
	case probe.CategoryValid:
		return colorGreen
	case probe.CategoryInvalid:
		return colorYellow
	case probe.CategoryModelNotFound:
		return colorCyan
	default:
		return colorRed
	}
}
