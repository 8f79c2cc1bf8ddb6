package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ormasoftchile/mcpstd/pkg/report"
	"github.com/ormasoftchile/mcpstd/pkg/watch"
)

var watchDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch <root>",
	Short: "Re-validate whenever schemas, contexts or the config change",
	Long: `Validate <root> once, then again each time files under the layout
directories or the config file settle after a change. One summary line is
printed per run. Stop with Ctrl-C.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	root := args[0]

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

	w, err := watch.New(root, watch.Config{Debounce: watchDebounce}, log)
	if err != nil {
		return exitWrap(exitInfra, "start watcher", err)
	}
	defer w.Close()

	out := cmd.OutOrStdout()
	styled := report.IsTerminal(out)
	width := termWidth()

	run := func(ctx context.Context) {
		rep, err := sess.validate(ctx, root)
		if ctx.Err() != nil {
			return
		}
		if rep != nil {
			fmt.Fprintf(out, "%s %s\n", stamp(), report.SummaryLine(rep, width-len(stamp())-1, styled))
		}
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "  ✗ %v\n", err)
		}
	}

	ctx := cmd.Context()
	run(ctx)
	err = w.Run(ctx, func(ctx context.Context, changes []watch.Change) {
		log.Debug("re-validating", zap.Int("changes", len(changes)))
		printChanges(out, changes)
		run(ctx)
	})
	if err != nil {
		return exitWrap(exitInfra, "watch", err)
	}
	return nil
}

func stamp() string {
	return time.Now().Format("15:04:05")
}

func printChanges(w io.Writer, changes []watch.Change) {
	if len(changes) == 1 {
		fmt.Fprintf(w, "%s %s %s\n", stamp(), changes[0].Op, changes[0].Path)
		return
	}
	fmt.Fprintf(w, "%s %d files changed\n", stamp(), len(changes))
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watch.DefaultDebounce, "Quiet period before re-validating")
}
