// Package output renders pipeline progress to the terminal.
//
// The printer draws banners around pipeline runs, headers before each step,
// and a per-step duration summary at the end, with tool output relayed
// line by line in between.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// StepResult records one step's outcome for the summary table.
type StepResult struct {
	Name     string
	Duration time.Duration
	OK       bool
}

// Printer writes styled progress output.
//
// Use [NewPrinter] for stdout or [NewPrinterWithWriter] to capture output
// in tests.
type Printer struct {
	w io.Writer

	banner  lipgloss.Style
	step    lipgloss.Style
	success lipgloss.Style
	failure lipgloss.Style
	dim     lipgloss.Style
}

// NewPrinter creates a [Printer] writing to stdout.
func NewPrinter() *Printer {
	return NewPrinterWithWriter(os.Stdout)
}

// NewPrinterWithWriter creates a [Printer] writing to w.
func NewPrinterWithWriter(w io.Writer) *Printer {
	return &Printer{
		w: w,
		banner: lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("#5B8DEF")).
			Padding(0, 2),
		step: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1),
		success: lipgloss.NewStyle().Foreground(lipgloss.Color("#2ECC71")),
		failure: lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")),
		dim:     lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")),
	}
}

// Banner prints a prominent box with a title line and optional detail lines.
func (p *Printer) Banner(title string, lines ...string) {
	content := title
	if len(lines) > 0 {
		content += "\n" + strings.Join(lines, "\n")
	}
	fmt.Fprintln(p.w, p.banner.Render(content))
}

// StepHeader prints the header shown before a pipeline step runs.
func (p *Printer) StepHeader(index, total int, name string) {
	fmt.Fprintln(p.w, p.step.Render(fmt.Sprintf("[%d/%d] %s", index, total, name)))
}

// Success prints a success line.
func (p *Printer) Success(msg string) {
	fmt.Fprintln(p.w, p.success.Render("✓ "+msg))
}

// Failure prints a failure line.
func (p *Printer) Failure(msg string) {
	fmt.Fprintln(p.w, p.failure.Render("✗ "+msg))
}

// Info prints an informational line.
func (p *Printer) Info(msg string) {
	fmt.Fprintln(p.w, p.dim.Render(msg))
}

// ToolLine relays one line of external tool output. Stderr lines are
// prefixed so diagnostics stay distinguishable in a merged stream.
func (p *Printer) ToolLine(line string, stderr bool) {
	if stderr {
		fmt.Fprintln(p.w, p.dim.Render("! ")+line)
		return
	}
	fmt.Fprintln(p.w, "  "+line)
}

// Summary prints the final per-step duration table inside a banner box.
func (p *Printer) Summary(tag string, results []StepResult, total time.Duration) {
	ok := true
	for _, r := range results {
		if !r.OK {
			ok = false
		}
	}

	var b strings.Builder
	if ok {
		b.WriteString(p.success.Render("✓ PIPELINE COMPLETE"))
	} else {
		b.WriteString(p.failure.Render("✗ PIPELINE FAILED"))
	}
	b.WriteString("\nTag: " + tag + "\n")
	for i, r := range results {
		mark := p.success.Render("✓")
		if !r.OK {
			mark = p.failure.Render("✗")
		}
		b.WriteString(fmt.Sprintf("%s [%d] %-10s %s\n", mark, i+1, r.Name, r.Duration.Round(time.Millisecond)))
	}
	b.WriteString("Total: " + total.Round(time.Millisecond).String())
	fmt.Fprintln(p.w, p.banner.Render(b.String()))
}
