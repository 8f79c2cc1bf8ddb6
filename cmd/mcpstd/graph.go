package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ormasoftchile/mcpstd/pkg/diagram"
	"github.com/ormasoftchile/mcpstd/pkg/document"
	"github.com/ormasoftchile/mcpstd/pkg/standard"
)

var (
	graphFormat string
	graphStrict bool
)

var graphCmd = &cobra.Command{
	Use:   "graph <root>",
	Short: "Draw the context reference graph",
	Long: `Draw one node per file under <root>/contexts and one edge per
context_references entry, as a Mermaid flowchart or ASCII boxes. Missing
targets and edges closing a cycle are marked.

With --strict the command exits 1 when the graph has a cycle or a
missing target.`,
	Args: cobra.ExactArgs(1),
	RunE: runGraph,
}

func runGraph(cmd *cobra.Command, args []string) error {
	format, err := diagram.ParseFormat(graphFormat)
	if err != nil {
		return err
	}
	cmd.SilenceUsage = true
	root := args[0]

	log, err := newLogger(flagVerbose)
	if err != nil {
		return exitWrap(exitInfra, "init logger", err)
	}
	defer log.Sync()

	std, _, err := standard.Resolve(root, flagConfig)
	if err != nil {
		return exitWrap(exitInfra, "load config", err)
	}
	skip := func(name string) bool { return std.Ignored(standard.DirContexts + "/" + name) }
	g, err := diagram.Build(filepath.Join(root, standard.DirContexts), document.NewLoader(false, log), skip)
	if err != nil {
		return exitWrap(exitInfra, "build graph", err)
	}

	out, err := diagram.Generate(g, format)
	if err != nil {
		return exitWrap(exitInfra, "render graph", err)
	}
	fmt.Fprint(cmd.OutOrStdout(), out)

	if graphStrict {
		if g.HasCycle() {
			return exitErrorf(exitFailed, "reference graph has a cycle")
		}
		for _, e := range g.Edges {
			if e.Missing {
				return exitErrorf(exitFailed, "%s references missing context %s", e.From, e.To)
			}
		}
	}
	return nil
}

func init() {
	graphCmd.Flags().StringVar(&graphFormat, "format", "mermaid", "Diagram format: mermaid or ascii")
	graphCmd.Flags().BoolVar(&graphStrict, "strict", false, "Fail on cycles and missing references")
}
