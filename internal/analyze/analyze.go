// Package analyze derives definition relations from a constraint struct and
// classifies every account's definedness.
package analyze

import (
	"fmt"

	"anchorscope/internal/constraint"
	"anchorscope/internal/extract"
	"anchorscope/internal/graph"
)

// Status classifies how an account's legitimacy is established.
type Status string

const (
	// StatusInitialized marks accounts created by this instruction; they are
	// the trust root and exempt from the undefined check.
	StatusInitialized Status = "initialized"
	// StatusDefaultDefined marks accounts verified against their own PDA
	// derivation (seeds present, not initialized).
	StatusDefaultDefined Status = "default_defined"
	// StatusRelationDefined marks accounts vouched for by another entity
	// through a seed reference, equality check, has_one or associated-token
	// derivation.
	StatusRelationDefined Status = "relation_defined"
	// StatusUndefined marks accounts with no qualifying relation at all.
	StatusUndefined Status = "undefined"
)

// Finding is the per-account analysis result.
type Finding struct {
	Account   string
	TypeName  string
	Status    Status
	Review    bool
	Trusted   bool
	NodeID    int
	Line      int
	DefinedBy []string
	Issues    []string
}

// Result is the complete analysis of one constraint struct.
type Result struct {
	Construct  string
	SourceFile string
	Graph      *graph.Graph
	Findings   []Finding
	Warnings   []string
}

// Undefined returns the findings with no qualifying definition.
func (r *Result) Undefined() []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if f.Status == StatusUndefined {
			out = append(out, f)
		}
	}
	return out
}

// NeedsReview returns the findings flagged for manual review.
func (r *Result) NeedsReview() []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if f.Review {
			out = append(out, f)
		}
	}
	return out
}

// Well-known accounts that are always trusted and never flagged.
var defaultTrusted = []string{
	"system_program",
	"token_program",
	"associated_token_program",
	"rent",
	"clock",
	"recent_slothashes",
	"instruction_sysvar_account",
}

// Analyzer runs the rule engine over constraint structs. Safe for concurrent
// use: Analyze only reads the trusted set.
type Analyzer struct {
	trusted map[string]bool
}

// New creates an analyzer. Extra names extend the well-known trusted set.
func New(extraTrusted ...string) *Analyzer {
	trusted := make(map[string]bool, len(defaultTrusted)+len(extraTrusted))
	for _, name := range defaultTrusted {
		trusted[name] = true
	}
	for _, name := range extraTrusted {
		trusted[name] = true
	}
	return &Analyzer{trusted: trusted}
}

// Analyze builds the definition graph for one construct and classifies every
// account. It never fails: partial information degrades to review hints.
func (a *Analyzer) Analyze(c extract.Construct) *Result {
	res := &Result{
		Construct:  c.Name,
		SourceFile: c.SourceFile,
		Graph:      graph.New(),
	}

	b := &builder{Result: res, analyzer: a, args: make(map[string]string)}

	// Node discovery order is fixed: account fields first, then instruction
	// arguments, then constants as clauses reference them. The renderer
	// depends on this order for reproducible output.
	sets := make([]constraint.Set, len(c.Fields))
	ids := make([]int, len(c.Fields))
	for i, field := range c.Fields {
		sets[i] = constraint.Parse(field.RawClauses)
		kind := graph.KindAccount
		if a.trusted[field.Name] {
			kind = graph.KindSystemAccount
		}
		ids[i] = res.Graph.Ensure(field.Name, kind)
	}
	for _, arg := range c.Args {
		b.args[arg.Name] = arg.TypeName
		res.Graph.Ensure(arg.Name, graph.KindInstructionArg)
	}

	for i, field := range c.Fields {
		b.relate(field, ids[i], sets[i])
	}

	for i, field := range c.Fields {
		res.Findings = append(res.Findings, b.classify(field, ids[i], sets[i]))
	}

	return res
}

// builder accumulates edges and warnings for one construct.
type builder struct {
	*Result
	analyzer *Analyzer
	args     map[string]string
}

// resolve maps a path root to a node id, creating a best-effort reviewed
// node for names that match neither a field nor an instruction argument.
// Returns the id and whether the reference needs review.
func (b *builder) resolve(p constraint.Path) (int, bool) {
	if p.Root == "" {
		return -1, true
	}
	if id, ok := b.Graph.Lookup(p.Root); ok {
		node := b.Graph.Node(id)
		return id, node.Review || node.Kind == graph.KindInstructionArg
	}

	// Ambiguous name: still emitted, flagged for review, never suppressed.
	id := b.Graph.Ensure(p.Root, graph.KindAccount)
	b.Graph.Node(id).Review = true
	b.Warnings = append(b.Warnings, fmt.Sprintf("unknown reference %q", p.Root))
	return id, true
}

// relate applies the definition rules for one field, appending edges.
func (b *builder) relate(field extract.Field, id int, set constraint.Set) {
	inited := set.Initialized()

	if seeds, ok := set.Last(constraint.KindSeeds); ok {
		// An account being created cannot define itself by prior seed
		// identity, so initialized accounts get component edges only.
		if !inited {
			b.Graph.AddEdge(id, id, graph.RelationFieldsSeed, false)
		}
		for _, comp := range seeds.Seeds {
			if comp.Constant {
				cid := b.Graph.Ensure(comp.Literal, graph.KindConstant)
				b.Graph.AddEdge(cid, id, graph.RelationConstantSeed, false)
				continue
			}
			tid, review := b.resolve(comp.Ref)
			if tid < 0 {
				b.Warnings = append(b.Warnings, fmt.Sprintf("%s: unreadable seed %q", field.Name, comp.Raw))
				continue
			}
			relation := graph.RelationSeed
			if comp.Ref.Field != "" {
				relation = graph.RelationContainsAsSeed
			}
			b.Graph.AddEdge(id, tid, relation, review)
		}
	}

	for _, check := range set.All(constraint.KindCustom) {
		if check.Check == nil {
			continue
		}
		for _, definer := range definers(field.Name, check.Check) {
			tid, _ := b.resolve(definer)
			if tid < 0 {
				continue
			}
			b.Graph.AddEdge(tid, id, graph.RelationCustom, true)
		}
	}

	for _, c := range set.All(constraint.KindATMint) {
		b.associated(field.Name, id, c, graph.RelationATMint)
	}
	for _, c := range set.All(constraint.KindATAuthority) {
		b.associated(field.Name, id, c, graph.RelationATAuthority)
	}

	for _, c := range set.All(constraint.KindHasOne) {
		tid, review := b.resolve(c.Ref)
		if tid < 0 {
			b.Warnings = append(b.Warnings, fmt.Sprintf("%s: unreadable has_one target %q", field.Name, c.Value))
			continue
		}
		b.Graph.AddEdge(tid, id, graph.RelationCustom, review)
	}

	if addr, ok := set.Last(constraint.KindAddress); ok && addr.Value != "" {
		cid := b.Graph.Ensure(addr.Value, graph.KindConstant)
		b.Graph.AddEdge(cid, id, graph.RelationCustom, false)
	}
}

func (b *builder) associated(fieldName string, id int, c constraint.Constraint, relation string) {
	tid, review := b.resolve(c.Ref)
	if tid < 0 {
		b.Warnings = append(b.Warnings, fmt.Sprintf("%s: unreadable %s target %q", fieldName, c.Kind, c.Value))
		return
	}
	b.Graph.AddEdge(tid, id, relation, review)
}

// definers selects the authoritative side(s) of an equality check: every
// side whose root is not the constrained field itself. Symmetric, so
// a == b and b == a yield the same edge.
func definers(fieldName string, check *constraint.Check) []constraint.Path {
	var out []constraint.Path
	for _, side := range []constraint.Path{check.LHS, check.RHS} {
		if side.Root != "" && side.Root != fieldName {
			out = append(out, side)
		}
	}
	return out
}

// Relations that establish definedness when incoming.
func qualifying(relation string) bool {
	switch relation {
	case graph.RelationSeed, graph.RelationContainsAsSeed, graph.RelationCustom,
		graph.RelationATMint, graph.RelationATAuthority:
		return true
	}
	return false
}

// classify assigns the definition status for one field. Definedness is a
// local property: one pass over direct incoming edges suffices.
func (b *builder) classify(field extract.Field, id int, set constraint.Set) Finding {
	f := Finding{
		Account:  field.Name,
		TypeName: field.TypeName,
		NodeID:   id,
		Line:     field.Line,
	}

	for _, opaque := range set.Opaque() {
		f.Issues = append(f.Issues, fmt.Sprintf("unrecognized clause: %s", opaque.Raw))
	}

	if b.analyzer.trusted[field.Name] {
		f.Trusted = true
		f.Status = StatusDefaultDefined
		f.DefinedBy = append(f.DefinedBy, "well-known account")
		return f
	}

	var defined []graph.Edge
	for _, e := range b.Graph.Incoming(id) {
		if qualifying(e.Relation) {
			defined = append(defined, e)
			f.DefinedBy = append(f.DefinedBy, fmt.Sprintf("%s (%s)", b.Graph.Node(e.From).Label, e.Relation))
		}
	}

	switch {
	case set.Initialized():
		f.Status = StatusInitialized
		f.DefinedBy = append([]string{"initialized here"}, f.DefinedBy...)
	case set.Has(constraint.KindSeeds):
		f.Status = StatusDefaultDefined
		f.DefinedBy = append([]string{"own seed derivation"}, f.DefinedBy...)
	case len(defined) > 0:
		f.Status = StatusRelationDefined
		// Definitions resting solely on reviewed relations still need a
		// human to confirm the check actually pins the account.
		all := true
		for _, e := range defined {
			if !e.Review {
				all = false
				break
			}
		}
		f.Review = all
	default:
		f.Status = StatusUndefined
		if len(set.Opaque()) > 0 {
			// Opaque clauses route to review, not to a hard undefined call.
			f.Review = true
			f.Issues = append(f.Issues, "only unrecognized constraints present; review manually")
		} else {
			f.Issues = append(f.Issues, "account is not defined by any constraints")
		}
	}

	if b.Graph.Node(id).Review {
		f.Review = true
	}

	return f
}
