package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/ormasoftchile/mcpstd/pkg/scenario"
)

var (
	testScenario string
	testFormat   string
	testFailFast bool
	testTimeout  time.Duration
	testTags     []string
)

var testCmd = &cobra.Command{
	Use:   "test <scenarios-dir>",
	Short: "Validate scenario trees and check them against expect.yaml",
	Long: `Every subdirectory of <scenarios-dir> is a complete tree to validate.
Its expect.yaml states the expected outcome (success, counts, messages).
Scenarios without expect.yaml are reported as skipped. Only the tree's own
.mcpstd.yaml applies; --config and $MCPSTD_CONFIG are ignored.

Exit codes:
  0  all asserted scenarios passed
  1  at least one scenario failed or errored
  2  the scenarios directory could not be read`,
	Args: cobra.ExactArgs(1),
	RunE: runTest,
}

func runTest(cmd *cobra.Command, args []string) error {
	if testFormat != "text" && testFormat != "json" {
		return fmt.Errorf("invalid --format %q: want text or json", testFormat)
	}
	cmd.SilenceUsage = true

	log, err := newLogger(flagVerbose)
	if err != nil {
		return exitWrap(exitInfra, "init logger", err)
	}
	defer log.Sync()

	runner := &scenario.Runner{Timeout: testTimeout, Tags: testTags, Log: log}
	ctx := cmd.Context()
	dir := args[0]

	var output *scenario.Output
	if testScenario != "" {
		res, err := runner.RunScenario(ctx, dir, testScenario)
		if err != nil {
			return exitWrap(exitInfra, "run scenario", err)
		}
		output = &scenario.Output{Dir: dir, Scenarios: []scenario.Result{*res}}
		output.Summary.Add(*res)
	} else {
		output, err = runner.RunAll(ctx, dir, testFailFast)
		if err != nil {
			return exitWrap(exitInfra, "run scenarios", err)
		}
	}

	out := cmd.OutOrStdout()
	if testFormat == "json" {
		if err := writeJSON(out, output); err != nil {
			return exitWrap(exitInfra, "write output", err)
		}
	} else {
		printTestOutput(out, output)
	}

	if !output.Summary.OK() {
		return exitErrorf(exitFailed, "%d failed, %d errors", output.Summary.Failed, output.Summary.Errors)
	}
	return nil
}

func printTestOutput(w io.Writer, output *scenario.Output) {
	fmt.Fprintf(w, "\n  %s\n", output.Dir)
	for _, s := range output.Scenarios {
		switch s.Status {
		case scenario.StatusPassed:
			fmt.Fprintf(w, "    ✓ %-30s %dms\n", s.Name, s.DurationMs)
		case scenario.StatusFailed:
			fmt.Fprintf(w, "    ✗ %-30s %dms\n", s.Name, s.DurationMs)
			for _, a := range s.Assertions {
				if !a.Passed {
					fmt.Fprintf(w, "        %s\n", a.Message)
				}
			}
		case scenario.StatusSkipped:
			fmt.Fprintf(w, "    - %-30s (no %s)\n", s.Name, scenario.ExpectFile)
		default:
			fmt.Fprintf(w, "    ! %-30s %s\n", s.Name, s.Error)
		}
	}
	sum := output.Summary
	fmt.Fprintf(w, "\n  %d scenarios: %d passed, %d failed, %d skipped, %d errors\n",
		sum.Total, sum.Passed, sum.Failed, sum.Skipped, sum.Errors)
}

func init() {
	testCmd.Flags().StringVar(&testScenario, "scenario", "", "Run only this scenario")
	testCmd.Flags().StringVar(&testFormat, "format", "text", "Output format: text or json")
	testCmd.Flags().BoolVar(&testFailFast, "fail-fast", false, "Stop at the first failing scenario")
	testCmd.Flags().DurationVar(&testTimeout, "timeout", 30*time.Second, "Per-scenario timeout")
	testCmd.Flags().StringSliceVar(&testTags, "tag", nil, "Only run scenarios carrying one of these tags")
}
