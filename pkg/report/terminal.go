package report

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/mattn/go-runewidth"

	"github.com/ormasoftchile/mcpstd/pkg/manager"
)

var (
	colorGreen  = lipgloss.Color("42")
	colorRed    = lipgloss.Color("196")
	colorYellow = lipgloss.Color("214")
	colorDim    = lipgloss.Color("240")

	badgeStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Padding(0, 1)
	passStyle  = badgeStyle.Background(colorGreen)
	failStyle  = badgeStyle.Background(colorRed)
	partStyle  = badgeStyle.Background(colorYellow)
	dimStyle   = lipgloss.NewStyle().Foreground(colorDim)
)

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Print writes rep to w: styled through glamour when w is a terminal and
// plain Markdown otherwise. width bounds word wrapping; 0 disables it.
func Print(w io.Writer, rep *manager.Report, width int) error {
	md := Markdown(rep)
	if IsTerminal(w) {
		md = renderMarkdown(md, width)
	}
	_, err := io.WriteString(w, md)
	return err
}

// renderMarkdown converts Markdown to styled terminal output, falling back
// to the input when rendering fails.
func renderMarkdown(md string, width int) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}

// SummaryLine is a one-line status of rep, truncated to width display
// columns when width > 0. Styling is applied only when styled is true.
func SummaryLine(rep *manager.Report, width int, styled bool) string {
	status := Status(rep)
	text := fmt.Sprintf("%d errors (%d critical), %d warnings in %s",
		rep.ErrorCount, rep.Critical(), rep.WarningCount, rep.Root)
	if first := firstError(rep); first != "" {
		text += ": " + first
	}

	if width > 0 {
		budget := width - runewidth.StringWidth(status) - 3
		if budget < 1 {
			budget = 1
		}
		text = runewidth.Truncate(text, budget, "…")
	}
	if !styled {
		return status + "  " + text
	}

	badge := passStyle
	switch status {
	case "FAILED":
		badge = failStyle
	case "INCOMPLETE":
		badge = partStyle
	}
	return badge.Render(status) + " " + dimStyle.Render(text)
}

func firstError(rep *manager.Report) string {
	for _, r := range Sorted(rep.Results) {
		if r.IsCritical() {
			return strings.TrimSpace(r.Message)
		}
	}
	return ""
}
