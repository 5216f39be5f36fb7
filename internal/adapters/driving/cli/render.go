package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/custodia-labs/sanad/internal/core/domain"
)

// Palette used when writing to a terminal.
var (
	colourPrimary = lipgloss.Color("#7C3AED") // Purple
	colourAccent  = lipgloss.Color("#06B6D4") // Cyan
	colourMuted   = lipgloss.Color("#6C7086") // Medium gray
	colourWarning = lipgloss.Color("#F9E2AF") // Yellow
)

// printer writes command output, styled when out is a terminal.
type printer struct {
	out    io.Writer
	styled bool

	title lipgloss.Style
	label lipgloss.Style
	score lipgloss.Style
	muted lipgloss.Style
	warn  lipgloss.Style
}

func newPrinter(out io.Writer) *printer {
	return &printer{
		out:    out,
		styled: isTerminal(out),
		title:  lipgloss.NewStyle().Bold(true).Foreground(colourPrimary),
		label:  lipgloss.NewStyle().Bold(true).Foreground(colourAccent),
		score:  lipgloss.NewStyle().Foreground(colourMuted),
		muted:  lipgloss.NewStyle().Foreground(colourMuted),
		warn:   lipgloss.NewStyle().Foreground(colourWarning),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (p *printer) render(style lipgloss.Style, s string) string {
	if !p.styled {
		return s
	}
	return style.Render(s)
}

func (p *printer) printf(format string, args ...any) {
	fmt.Fprintf(p.out, format, args...)
}

func (p *printer) heading(s string) {
	p.printf("%s\n", p.render(p.title, s))
}

// citations prints one numbered entry per citation with its chunk text
// indented below.
func (p *printer) citations(citations []domain.Citation) {
	if len(citations) == 0 {
		p.printf("No citations found.\n")
		return
	}
	for i, c := range citations {
		p.printf("  [%d] %s %s\n", i+1,
			p.render(p.label, c.Label()),
			p.render(p.score, fmt.Sprintf("(%.3f)", c.Score)))
		p.printf("%s\n\n", indent(c.ChunkText, "      "))
	}
}

func (p *printer) chunk(c domain.Chunk) {
	spans := make([]string, len(c.OriginalSpans))
	for i, s := range c.OriginalSpans {
		spans[i] = s.String()
	}
	p.printf("  #%d %s %s\n", c.Position,
		p.render(p.label, strings.Join(spans, ", ")),
		p.render(p.muted, fmt.Sprintf("[%d:%d] %d runes", c.NormalisedStart, c.NormalisedEnd, c.Len())))
	p.printf("%s\n\n", indent(c.Content, "      "))
}

func (p *printer) evicted(e domain.DocumentEvicted) {
	p.printf("%s\n", p.render(p.warn,
		fmt.Sprintf("Evicted %s (%d chunks, %s) to stay within the document cap", e.Filename, e.ChunkCount, e.Reason)))
}

func (p *printer) warning(format string, args ...any) {
	p.printf("%s\n", p.render(p.warn, fmt.Sprintf(format, args...)))
}

func indent(text, prefix string) string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}
