// Package ui renders extraction progress and results for the terminal.
// Styling is dropped when the output is not a terminal so that redirected
// output stays plain text.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"golang.org/x/term"

	"bookextract/internal/book"
)

var (
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	failStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	skipStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	titleStyle = lipgloss.NewStyle().Bold(true).Underline(true)
)

const barWidth = 30

// Printer writes human-readable output.
type Printer struct {
	out   io.Writer
	color bool
	bar   progress.Model
}

// New returns a Printer writing to out. Colors are enabled only when out
// is a terminal.
func New(out io.Writer) *Printer {
	color := false
	if f, ok := out.(*os.File); ok {
		color = term.IsTerminal(int(f.Fd()))
	}
	return &Printer{
		out:   out,
		color: color,
		bar:   progress.New(progress.WithDefaultGradient(), progress.WithWidth(barWidth), progress.WithoutPercentage()),
	}
}

func (p *Printer) style(s lipgloss.Style, text string) string {
	if !p.color {
		return text
	}
	return s.Render(text)
}

// Result prints the outcome of a single extraction.
func (p *Printer) Result(r *book.Result) {
	if r.Success {
		fmt.Fprintf(p.out, "%s %s\n", p.style(okStyle, "✓"), r.Identifier)
		p.field("file", r.OutputPath)
		p.field("size", humanize.IBytes(uint64(r.ByteSize)))
		if r.Source != nil {
			p.field("frame", fmt.Sprintf("%s (depth %d, %s)", r.Source.Frame.Path, r.Source.Frame.Depth, r.Source.Via))
		}
		p.field("took", r.Duration.Round(time.Millisecond).String())
		return
	}
	fmt.Fprintf(p.out, "%s %s\n", p.style(failStyle, "✗"), r.Identifier)
	p.field("stage", string(r.Stage))
	p.field("error", r.Error)
	if r.MetadataPath != "" {
		p.field("record", r.MetadataPath)
	}
}

func (p *Printer) field(label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(p.out, "  %s %s\n", p.style(labelStyle, fmt.Sprintf("%-6s", label)), value)
}

// Progress prints one line per finished batch item.
func (p *Printer) Progress(item book.BatchItem, done, total int) {
	var mark string
	switch item.Status {
	case book.StatusSucceeded:
		mark = p.style(okStyle, "✓")
	case book.StatusFailed:
		mark = p.style(failStyle, "✗")
	default:
		mark = p.style(skipStyle, "-")
	}

	detail := item.URL
	if r := item.Result; r != nil {
		detail = string(r.Identifier)
		if r.Success {
			detail += " " + humanize.IBytes(uint64(r.ByteSize))
		} else {
			detail += ": " + r.Error
		}
	}

	counter := fmt.Sprintf("[%d/%d]", done, total)
	if p.color && total > 0 {
		counter = p.bar.ViewAs(float64(done)/float64(total)) + " " + counter
	}
	fmt.Fprintf(p.out, "%s %s %s\n", counter, mark, detail)
}

// Summary prints batch totals.
func (p *Printer) Summary(s *book.BatchSummary, path string) {
	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, p.style(titleStyle, "Batch summary"))
	p.field("run", s.RunID)
	p.field("policy", string(s.Policy))
	p.field("total", fmt.Sprint(s.Total))
	p.field("ok", p.style(okStyle, fmt.Sprint(s.Succeeded)))
	p.field("failed", p.style(failStyle, fmt.Sprint(s.Failed)))
	p.field("skip", fmt.Sprint(s.Skipped))
	p.field("rate", fmt.Sprintf("%.1f%%", s.SuccessRate))
	p.field("took", s.FinishedAt.Sub(s.StartedAt).Round(time.Second).String())
	if s.Fatal != "" {
		p.field("fatal", s.Fatal)
	}
	p.field("saved", path)
}

// Table prints rows as aligned key/value pairs under a title.
func (p *Printer) Table(title string, rows [][2]string) {
	fmt.Fprintln(p.out, p.style(titleStyle, title))
	width := 0
	for _, r := range rows {
		width = max(width, len(r[0]))
	}
	for _, r := range rows {
		key := r[0] + strings.Repeat(" ", width-len(r[0]))
		fmt.Fprintf(p.out, "  %s  %s\n", p.style(labelStyle, key), r[1])
	}
}

// Lines prints each line as is.
func (p *Printer) Lines(lines []string) {
	for _, l := range lines {
		fmt.Fprintln(p.out, l)
	}
}

// Printf prints a plain message.
func (p *Printer) Printf(format string, args ...any) {
	fmt.Fprintf(p.out, format, args...)
}
