package render

import (
	"fmt"
	"strings"

	"anchorscope/internal/analyze"
	"anchorscope/internal/graph"
)

const rule = "================================================================================"

// Summary renders the human-readable triage report for one construct.
func Summary(res *analyze.Result) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\nDEFINITION ANALYSIS: %s\n%s\n", rule, res.Construct, rule)
	fmt.Fprintf(&b, "Source: %s\n", res.SourceFile)

	var args []string
	for _, n := range res.Graph.Nodes {
		if n.Kind == graph.KindInstructionArg {
			args = append(args, n.Label)
		}
	}
	if len(args) > 0 {
		fmt.Fprintf(&b, "Instruction arguments: %s\n", strings.Join(args, ", "))
	}

	defined := 0
	var problems []analyze.Finding
	for _, f := range res.Findings {
		if f.Status == analyze.StatusUndefined || f.Review {
			problems = append(problems, f)
		} else {
			defined++
		}
	}

	fmt.Fprintf(&b, "\nStatistics:\n")
	fmt.Fprintf(&b, "  Total accounts: %d\n", len(res.Findings))
	fmt.Fprintf(&b, "  Properly defined: %d\n", defined)
	fmt.Fprintf(&b, "  Undefined / needs review: %d\n", len(problems))

	if len(problems) > 0 {
		fmt.Fprintf(&b, "\nACCOUNTS NEEDING MANUAL REVIEW (%d):\n", len(problems))
		for _, f := range problems {
			fmt.Fprintf(&b, "\n  %s [%s] (line %d)\n", f.Account, f.Status, f.Line)
			writeSources(&b, f)
			if len(f.Issues) > 0 {
				fmt.Fprintf(&b, "    Issues:\n")
				for _, issue := range f.Issues {
					fmt.Fprintf(&b, "      - %s\n", issue)
				}
			}
		}
	}

	if defined > 0 {
		fmt.Fprintf(&b, "\nPROPERLY DEFINED ACCOUNTS (%d):\n", defined)
		for _, f := range res.Findings {
			if f.Status == analyze.StatusUndefined || f.Review {
				continue
			}
			fmt.Fprintf(&b, "\n  %s [%s] (line %d)\n", f.Account, f.Status, f.Line)
			writeSources(&b, f)
		}
	}

	for _, w := range res.Warnings {
		fmt.Fprintf(&b, "\nWarning: %s\n", w)
	}

	return b.String()
}

func writeSources(b *strings.Builder, f analyze.Finding) {
	if len(f.DefinedBy) == 0 {
		fmt.Fprintf(b, "    Not defined by anything\n")
		return
	}
	fmt.Fprintf(b, "    Defined by:\n")
	for _, src := range f.DefinedBy {
		fmt.Fprintf(b, "      - %s\n", src)
	}
}
