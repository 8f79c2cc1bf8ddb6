package main

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/ormasoftchile/mcpstd/pkg/history"
	"github.com/ormasoftchile/mcpstd/pkg/report"
)

var (
	historyLimit int
	historyRoot  string
	historyRun   string
	historyPrune int
	historyJSON  bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded validation runs",
	Long: `List runs recorded with --history, newest first. --run prints the
findings of one run; --prune deletes all but the newest N runs.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	if flagHistory == "" {
		return fmt.Errorf("--history <db> is required")
	}
	cmd.SilenceUsage = true

	st, err := history.Open(flagHistory)
	if err != nil {
		return exitWrap(exitInfra, "open history", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if historyPrune > 0 {
		n, err := st.Prune(ctx, historyPrune)
		if err != nil {
			return exitWrap(exitInfra, "prune history", err)
		}
		fmt.Fprintf(out, "pruned %d runs\n", n)
		return nil
	}

	if historyRun != "" {
		findings, err := st.Findings(ctx, historyRun)
		if err != nil {
			return exitWrap(exitInfra, "read findings", err)
		}
		if historyJSON {
			return writeJSON(out, findings)
		}
		if len(findings) == 0 {
			fmt.Fprintln(out, "No problems found.")
		}
		for _, r := range report.Sorted(findings) {
			fmt.Fprintf(out, "%s %s: %s\n", r.Level, r.File, r.Message)
		}
		return nil
	}

	root := historyRoot
	if root != "" {
		if abs, err := filepath.Abs(root); err == nil {
			root = abs
		}
	}
	runs, err := st.Recent(ctx, root, historyLimit)
	if err != nil {
		return exitWrap(exitInfra, "read history", err)
	}
	if historyJSON {
		return writeJSON(out, runs)
	}
	printRuns(out, runs)
	return nil
}

func printRuns(w io.Writer, runs []history.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("RUN", "STARTED", "STATUS", "ERRORS", "WARNINGS", "DURATION", "ROOT")
	for _, r := range runs {
		t.Row(
			shortID(r.ID),
			r.StartedAt.Local().Format(time.DateTime),
			statusIcon(r)+" "+runStatus(r),
			strconv.Itoa(r.ErrorCount),
			strconv.Itoa(r.WarningCount),
			r.Duration.Round(time.Millisecond).String(),
			r.Root,
		)
	}
	fmt.Fprintln(w, t.String())
}

func runStatus(r history.Run) string {
	switch {
	case !r.Finished:
		return "incomplete"
	case r.Success:
		return "passed"
	default:
		return "failed"
	}
}

func statusIcon(r history.Run) string {
	switch runStatus(r) {
	case "passed":
		return "✓"
	case "failed":
		return "✗"
	default:
		return "!"
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum runs to list")
	historyCmd.Flags().StringVar(&historyRoot, "root", "", "Only list runs over this directory")
	historyCmd.Flags().StringVar(&historyRun, "run", "", "Print the findings of this run ID")
	historyCmd.Flags().IntVar(&historyPrune, "prune", 0, "Keep only the newest N runs")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "Output as JSON")
}
