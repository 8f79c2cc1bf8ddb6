// Package main provides the mcpstd binary: validates a tree of MCP standard
// schemas and contexts and writes validation_report.md.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ormasoftchile/mcpstd/pkg/manager"
	"github.com/ormasoftchile/mcpstd/pkg/report"
)

// Version is set at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCodeOf(err))
	}
}

var (
	flagConfig      string
	flagVerbose     bool
	flagNoReport    bool
	flagHistory     string
	flagMetricsFile string
	flagFormat      string
)

var rootCmd = &cobra.Command{
	Use:   "mcpstd <root>",
	Short: "Validate an MCP standard configuration tree",
	Long: `Validate the schemas/, contexts/ and tests/ layout under <root>, every
schema and context document in it, and the references between contexts.
The report is written to <root>/validation_report.md.

Exit codes:
  0  no errors found (warnings allowed)
  1  validation found errors, or bad usage
  2  the run could not complete (config, report, history or metrics failure)`,
	Args:          cobra.ExactArgs(1),
	SilenceErrors: true,
	RunE:          runValidate,
}

func sessionFlags() sessionOptions {
	return sessionOptions{
		ConfigPath:  flagConfig,
		NoReport:    flagNoReport,
		HistoryPath: flagHistory,
		MetricsPath: flagMetricsFile,
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	format, err := report.ParseFormat(flagFormat)
	if err != nil {
		return err
	}
	cmd.SilenceUsage = true

	log, err := newLogger(flagVerbose)
	if err != nil {
		return exitWrap(exitInfra, "init logger", err)
	}
	defer log.Sync()

	sess, err := newSession(sessionFlags(), log)
	if err != nil {
		return err
	}
	defer sess.Close()

	rep, runErr := sess.validate(cmd.Context(), args[0])
	if rep != nil {
		if err := printReport(cmd.OutOrStdout(), rep, format); err != nil {
			return exitWrap(exitInfra, "print report", err)
		}
	}
	if runErr != nil {
		return runErr
	}
	return verdict(rep)
}

// verdict maps a finished report to the command result.
func verdict(rep *manager.Report) error {
	if rep.Success() {
		return nil
	}
	return exitErrorf(exitFailed, "validation failed: %d errors (%d critical), %d warnings",
		rep.ErrorCount, rep.Critical(), rep.WarningCount)
}

func printReport(w io.Writer, rep *manager.Report, format report.Format) error {
	if format == report.FormatJSON {
		data, err := report.JSON(rep)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}
	return report.Print(w, rep, termWidth())
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "mcpstd %s (build: %s)\n", version, commit)
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "Config file (default $MCPSTD_CONFIG, then <root>/.mcpstd.yaml)")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "Debug logging on stderr")
	pf.BoolVar(&flagNoReport, "no-report", false, "Do not write validation_report.md")
	pf.StringVar(&flagHistory, "history", "", "Record runs in this SQLite database")
	pf.StringVar(&flagMetricsFile, "metrics-file", "", "Write Prometheus textfile metrics to this path")

	rootCmd.Flags().StringVar(&flagFormat, "format", "markdown", "Output format: markdown or json")

	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(graphCmd)
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(testCmd)
	rootCmd.AddCommand(versionCmd)
}
