// Package render serializes analysis results into Mermaid diagrams and
// textual summaries.
package render

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"anchorscope/internal/analyze"
	"anchorscope/internal/graph"
)

const (
	colorTrusted = "#0f0"
	colorReview  = "#f80"
	colorDanger  = "#f00"
)

// Mermaid renders one construct's definition graph as a Mermaid flowchart.
// Output is deterministic: declaration order equals discovery order, so
// unchanged input produces byte-identical diagrams.
func Mermaid(res *analyze.Result) string {
	var b strings.Builder
	b.WriteString("%%{ init: { 'flowchart': { 'defaultRenderer': 'elk' } } }%%\n")
	b.WriteString("graph BT")

	var styles []string
	displayID := make([]string, len(res.Graph.Nodes))

	var accounts, args, constants int
	for i, node := range res.Graph.Nodes {
		var id string
		switch node.Kind {
		case graph.KindInstructionArg:
			args++
			id = fmt.Sprintf("i%d", args)
			fmt.Fprintf(&b, "\n\t%s([\"%s\"])", id, node.Label)
			styles = append(styles, fmt.Sprintf("style %s stroke:%s", id, colorReview))
		case graph.KindConstant:
			constants++
			id = fmt.Sprintf("c%d", constants)
			fmt.Fprintf(&b, "\n\t%s(\"%s\")", id, node.Label)
			styles = append(styles, fmt.Sprintf("style %s stroke:%s", id, colorTrusted))
		default:
			accounts++
			id = fmt.Sprintf("a%d", accounts)
			fmt.Fprintf(&b, "\n\t%s[\"%s\"]", id, node.Label)
			if node.Kind == graph.KindSystemAccount {
				styles = append(styles, fmt.Sprintf("style %s stroke:%s", id, colorTrusted))
			}
		}
		displayID[i] = id
	}

	b.WriteString("\n")

	// Identical links collapse to one declaration; the linkStyle index
	// counts emitted links only.
	seen := make(map[string]bool)
	links := 0
	for _, e := range res.Graph.Edges {
		link := fmt.Sprintf("\n\t%s -->|%s| %s", displayID[e.From], e.Relation, displayID[e.To])
		if seen[link] {
			continue
		}
		seen[link] = true
		b.WriteString(link)
		if e.Review {
			styles = append(styles, fmt.Sprintf("linkStyle %d stroke:%s", links, colorReview))
		}
		links++
	}

	for _, f := range res.Findings {
		if f.Trusted {
			continue
		}
		switch {
		case f.Status == analyze.StatusUndefined && !f.Review:
			styles = append(styles, fmt.Sprintf("style %s stroke:%s", displayID[f.NodeID], colorDanger))
		case f.Review:
			styles = append(styles, fmt.Sprintf("style %s stroke:%s", displayID[f.NodeID], colorReview))
		}
	}

	b.WriteString("\n")
	for _, style := range styles {
		b.WriteString("\n\t")
		b.WriteString(style)
	}

	return b.String()
}

// Report concatenates the diagrams of several constructs into one fenced
// Markdown document.
func Report(results []*analyze.Result) string {
	var blocks []string
	for _, res := range results {
		blocks = append(blocks, fmt.Sprintf("```mermaid\n%s\n```", Mermaid(res)))
	}
	return strings.Join(blocks, "\n\n") + "\n"
}

// WriteReport writes the combined report to a file, creating parent
// directories as needed.
func WriteReport(path string, results []*analyze.Result) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create report dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(Report(results)), 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
