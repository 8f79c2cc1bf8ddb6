// Package report renders a validation run as Markdown or JSON and writes it
// next to the validated tree.
package report

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ormasoftchile/mcpstd/pkg/document"
	"github.com/ormasoftchile/mcpstd/pkg/manager"
	"github.com/ormasoftchile/mcpstd/pkg/result"
)

// Format names an output rendering.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
)

// ParseFormat accepts "markdown" (or "md") and "json".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "markdown", "md":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unknown report format %q (want markdown or json)", s)
}

// Render renders rep in format f.
func Render(rep *manager.Report, f Format) ([]byte, error) {
	switch f {
	case FormatJSON:
		return JSON(rep)
	case FormatMarkdown, "":
		return []byte(Markdown(rep)), nil
	}
	return nil, fmt.Errorf("unknown report format %q", f)
}

// JSON renders rep as indented JSON with findings in report order.
func JSON(rep *manager.Report) ([]byte, error) {
	out := *rep
	out.Results = Sorted(rep.Results)
	data, err := json.MarshalIndent(&out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}
	return append(data, '\n'), nil
}

// rank orders critical errors first, then other errors, then warnings.
func rank(r result.Result) int {
	switch {
	case r.IsCritical():
		return 0
	case r.Level == result.LevelError:
		return 1
	}
	return 2
}

// Sorted returns a copy of results in report order. Findings of equal rank
// keep the order they were recorded in.
func Sorted(results []result.Result) []result.Result {
	out := make([]result.Result, len(results))
	copy(out, results)
	sort.SliceStable(out, func(i, j int) bool { return rank(out[i]) < rank(out[j]) })
	return out
}

// Markdown renders rep as the validation_report.md document.
func Markdown(rep *manager.Report) string {
	var b strings.Builder

	b.WriteString(header(1, "Validation Report"))
	b.WriteString(list([]string{
		"Run: `" + rep.RunID + "`",
		"Root: `" + rep.Root + "`",
		"Standard: " + rep.StandardVersion,
		"Started: " + rep.StartedAt.Format(time.RFC3339),
		fmt.Sprintf("Duration: %.3fs", rep.Duration.Std().Seconds()),
		"Status: " + Status(rep),
	}))
	b.WriteString("\n")

	b.WriteString(header(2, "Summary"))
	b.WriteString(list([]string{
		fmt.Sprintf("Errors: %d (critical: %d)", rep.ErrorCount, rep.Critical()),
		fmt.Sprintf("Warnings: %d", rep.WarningCount),
		fmt.Sprintf("Files: %d schemas, %d contexts", rep.Files[document.KindSchema], rep.Files[document.KindContext]),
	}))
	b.WriteString("\n")

	rows := make([][]string, 0, len(rep.PerValidator))
	for _, c := range rep.PerValidator {
		rows = append(rows, []string{c.Validator, fmt.Sprint(c.Errors), fmt.Sprint(c.Warnings)})
	}
	b.WriteString(table([]string{"Validator", "Errors", "Warnings"}, rows))
	b.WriteString("\n")

	b.WriteString(header(2, "Findings"))
	if len(rep.Results) == 0 {
		b.WriteString("No problems found.\n")
		return b.String()
	}
	items := make([]string, 0, len(rep.Results))
	for _, r := range Sorted(rep.Results) {
		items = append(items, finding(r))
	}
	b.WriteString(list(items))
	return b.String()
}

// Status is the one-word outcome of rep.
func Status(rep *manager.Report) string {
	switch {
	case !rep.Success():
		return "FAILED"
	case !rep.Finished:
		return "INCOMPLETE"
	}
	return "PASSED"
}

func finding(r result.Result) string {
	var b strings.Builder
	if r.Level == result.LevelWarning {
		fmt.Fprintf(&b, "[%s]", r.Level)
	} else {
		fmt.Fprintf(&b, "[%s - %s] (response time: %d min)", r.Level, strings.ToUpper(r.Severity.String()), r.ResponseTime)
	}
	if r.File != "" {
		fmt.Fprintf(&b, " `%s`", r.File)
	}
	b.WriteString(" " + escapeMarkdown(r.Message))
	return b.String()
}

// Messages quote user YAML. Underscores stay as they are since file names
// use them intraword.
var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"`", "\\`",
	"*", `\*`,
	"[", `\[`,
	"]", `\]`,
	"<", `\<`,
	"\r\n", " ",
	"\n", " ",
)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

func header(level int, text string) string {
	return fmt.Sprintf("%s %s\n\n", strings.Repeat("#", level), text)
}

func list(items []string) string {
	var b strings.Builder
	for _, item := range items {
		b.WriteString("- " + item + "\n")
	}
	return b.String()
}

// table renders a Markdown table; rows are written in the order given.
func table(headers []string, rows [][]string) string {
	var b strings.Builder
	b.WriteString("| " + strings.Join(headers, " | ") + " |\n")
	b.WriteString("|")
	for range headers {
		b.WriteString(" --- |")
	}
	b.WriteString("\n")
	for _, row := range rows {
		b.WriteString("| " + strings.Join(row, " | ") + " |\n")
	}
	return b.String()
}
