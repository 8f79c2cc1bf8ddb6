// Package diagram draws the context reference graph: one node per context
// file, one edge per context_references entry. Missing targets and edges
// that close a cycle are marked. Supports Mermaid flowchart and ASCII formats.
package diagram

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/ormasoftchile/mcpstd/pkg/document"
)

// Format represents the output diagram format.
type Format string

const (
	FormatMermaid Format = "mermaid"
	FormatASCII   Format = "ascii"
)

// ParseFormat accepts "mermaid" and "ascii".
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case "", FormatMermaid:
		return FormatMermaid, nil
	case FormatASCII:
		return FormatASCII, nil
	}
	return "", fmt.Errorf("unsupported diagram format: %s", s)
}

// Node is one context file.
type Node struct {
	Name    string `json:"name"` // file name, e.g. "global_context.yaml"
	Type    string `json:"type,omitempty"`
	Version string `json:"version,omitempty"`
	Broken  string `json:"broken,omitempty"` // load error, when the file could not be read
}

// Edge is one context_references entry.
type Edge struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Missing bool   `json:"missing,omitempty"` // target file does not exist
	Cycle   bool   `json:"cycle,omitempty"`   // edge leads back to an ancestor
}

// Graph is the reference graph of a contexts directory.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Build loads every *.yaml file of contextsDir and returns its reference
// graph. Files that fail to load become Broken nodes without edges. skip,
// when non-nil, excludes files by name.
func Build(contextsDir string, loader *document.Loader, skip func(name string) bool) (*Graph, error) {
	if _, err := os.Stat(contextsDir); err != nil {
		return nil, fmt.Errorf("contexts directory: %w", err)
	}
	matches, err := filepath.Glob(filepath.Join(contextsDir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	if loader == nil {
		loader = document.NewLoader(false, nil)
	}

	g := &Graph{}
	present := make(map[string]bool, len(matches))
	refs := make(map[string][]string)
	for _, path := range matches {
		name := filepath.Base(path)
		if skip != nil && skip(name) {
			continue
		}
		present[name] = true
		n := Node{Name: name}
		doc, err := loader.LoadContext(path)
		if err != nil {
			n.Broken = err.Error()
		} else {
			n.Type = doc.Type.Text()
			n.Version = doc.Version.Text()
			refs[name] = doc.ContextReferences
		}
		g.Nodes = append(g.Nodes, n)
	}

	for _, n := range g.Nodes {
		for _, ref := range refs[n.Name] {
			to := ref + ".yaml"
			g.Edges = append(g.Edges, Edge{From: n.Name, To: to, Missing: !present[to]})
		}
	}
	g.markCycles()
	return g, nil
}

// markCycles flags back edges found by a depth-first walk that visits roots
// and neighbours in name order.
func (g *Graph) markCycles() {
	out := make(map[string][]int)
	for i, e := range g.Edges {
		if !e.Missing {
			out[e.From] = append(out[e.From], i)
		}
	}
	const (
		white = iota
		grey
		black
	)
	state := make(map[string]int)
	var visit func(string)
	visit = func(n string) {
		state[n] = grey
		for _, i := range out[n] {
			switch state[g.Edges[i].To] {
			case grey:
				g.Edges[i].Cycle = true
			case white:
				visit(g.Edges[i].To)
			}
		}
		state[n] = black
	}
	for _, n := range g.Nodes {
		if state[n.Name] == white {
			visit(n.Name)
		}
	}
}

// HasCycle reports whether any edge closes a cycle.
func (g *Graph) HasCycle() bool {
	for _, e := range g.Edges {
		if e.Cycle {
			return true
		}
	}
	return false
}

// Generate produces a diagram string from g.
func Generate(g *Graph, format Format) (string, error) {
	if g == nil {
		return "", fmt.Errorf("nil graph")
	}
	switch format {
	case FormatMermaid:
		return generateMermaid(g), nil
	case FormatASCII:
		return generateASCII(g), nil
	default:
		return "", fmt.Errorf("unsupported diagram format: %s", format)
	}
}

// --- Mermaid flowchart ---

func generateMermaid(g *Graph) string {
	var b strings.Builder
	b.WriteString("flowchart LR\n")

	for _, n := range g.Nodes {
		b.WriteString("    " + nodeDefinition(n) + "\n")
	}

	missing := make(map[string]bool)
	var cycleLinks []int
	for i, e := range g.Edges {
		switch {
		case e.Missing:
			id := safeID("missing_" + e.To)
			if !missing[e.To] {
				missing[e.To] = true
				b.WriteString(fmt.Sprintf("    %s[/\"%s (missing)\"/]\n", id, escMermaid(e.To)))
				b.WriteString(fmt.Sprintf("    style %s fill:#e60,stroke:#c40,color:#fff\n", id))
			}
			b.WriteString(fmt.Sprintf("    %s -.->|\"missing\"| %s\n", safeID(e.From), id))
		case e.Cycle:
			b.WriteString(fmt.Sprintf("    %s -->|\"cycle\"| %s\n", safeID(e.From), safeID(e.To)))
			cycleLinks = append(cycleLinks, i)
		default:
			b.WriteString(fmt.Sprintf("    %s --> %s\n", safeID(e.From), safeID(e.To)))
		}
	}

	for _, i := range cycleLinks {
		b.WriteString(fmt.Sprintf("    linkStyle %d stroke:#e00,stroke-width:2px\n", i))
	}
	for _, n := range g.Nodes {
		if n.Broken != "" {
			b.WriteString(fmt.Sprintf("    style %s fill:#a00,stroke:#800,color:#fff\n", safeID(n.Name)))
		}
	}
	return b.String()
}

func nodeDefinition(n Node) string {
	label := escMermaid(n.Name)
	switch {
	case n.Broken != "":
		label += "<br/>unreadable"
	case n.Type != "":
		label += "<br/>" + escMermaid(n.Type)
	}
	return fmt.Sprintf(`%s["%s"]`, safeID(n.Name), label)
}

// --- ASCII ---

func generateASCII(g *Graph) string {
	var b strings.Builder
	const title = "Context references"

	if len(g.Nodes) == 0 {
		b.WriteString(title + " (empty)\n")
		return b.String()
	}

	const indent = 2
	boxWidth := computeUniformBoxWidth(g.Nodes, title)
	pad := strings.Repeat(" ", indent)

	b.WriteString(pad + "╔" + strings.Repeat("═", boxWidth) + "╗\n")
	b.WriteString(pad + "║" + centerPad(title, boxWidth) + "║\n")
	b.WriteString(pad + "╚" + strings.Repeat("═", boxWidth) + "╝\n")

	edges := make(map[string][]Edge)
	for _, e := range g.Edges {
		edges[e.From] = append(edges[e.From], e)
	}

	for _, n := range g.Nodes {
		content := " " + nodeIcon(n) + " " + n.Name + " "
		cw := runewidth.StringWidth(content)
		b.WriteString(pad + "┌" + strings.Repeat("─", boxWidth) + "┐\n")
		b.WriteString(pad + "│" + content + strings.Repeat(" ", boxWidth-cw) + "│\n")
		b.WriteString(pad + "└" + strings.Repeat("─", boxWidth) + "┘\n")

		out := edges[n.Name]
		for i, e := range out {
			branch := "├─▶ "
			if i == len(out)-1 {
				branch = "└─▶ "
			}
			b.WriteString(pad + "    " + branch + e.To + edgeMarker(e) + "\n")
		}
	}
	return b.String()
}

// computeUniformBoxWidth returns the widest interior width needed across
// all nodes and the title.
func computeUniformBoxWidth(nodes []Node, title string) int {
	w := 22
	if tw := runewidth.StringWidth(title) + 4; tw > w {
		w = tw
	}
	for _, n := range nodes {
		if nw := runewidth.StringWidth(" " + nodeIcon(n) + " " + n.Name + " "); nw > w {
			w = nw
		}
	}
	return w
}

// centerPad centers s within width using spaces, based on display width.
func centerPad(s string, width int) string {
	sw := runewidth.StringWidth(s)
	if sw >= width {
		return s
	}
	total := width - sw
	left := total / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", total-left)
}

func nodeIcon(n Node) string {
	if n.Broken != "" {
		return "✗"
	}
	return "○"
}

func edgeMarker(e Edge) string {
	switch {
	case e.Missing:
		return "  ✗ missing"
	case e.Cycle:
		return "  ⟳ cycle"
	}
	return ""
}

// --- string helpers ---

func safeID(id string) string {
	r := strings.NewReplacer("-", "_", " ", "_", ".", "_")
	return r.Replace(id)
}

func escMermaid(s string) string {
	s = strings.ReplaceAll(s, `"`, "#quot;")
	s = strings.ReplaceAll(s, `'`, "#apos;")
	return s
}
