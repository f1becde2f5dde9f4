// Package constraint turns raw #[account(...)] clause tokens into a typed
// constraint set. Parsing is best-effort: anything outside the interpreted
// subset becomes an Opaque constraint, never an error.
package constraint

import (
	"regexp"
	"strings"

	"anchorscope/util"
)

// Kind identifies a constraint clause variant.
type Kind string

const (
	KindMut            Kind = "mut"
	KindSigner         Kind = "signer"
	KindInit           Kind = "init"
	KindInitIfNeeded   Kind = "init_if_needed"
	KindSeeds          Kind = "seeds"
	KindBump           Kind = "bump"
	KindHasOne         Kind = "has_one"
	KindCustom         Kind = "constraint"
	KindATMint         Kind = "associated_token::mint"
	KindATAuthority    Kind = "associated_token::authority"
	KindATTokenProgram Kind = "associated_token::token_program"
	KindAddress        Kind = "address"
	KindPayer          Kind = "payer"
	KindSpace          Kind = "space"
	KindSeedsProgram   Kind = "seeds::program"
	KindOpaque         Kind = "opaque"
)

// Path is an interpreted dotted access chain such as authority.key() or
// order.maker. Method-call segments are recorded in Raw but never evaluated.
type Path struct {
	Raw   string
	Root  string // root identifier, "" when the expression has no usable root
	Field string // first stored-field segment after the root, "" for bare identity
}

// SeedComponent is one element of a seeds array.
type SeedComponent struct {
	Raw      string
	Constant bool
	Literal  string // display label for constant components
	Ref      Path   // populated for field references
}

// Check is an interpreted binary equality from a constraint = clause.
type Check struct {
	LHS Path
	RHS Path
}

// Constraint is one parsed clause.
type Constraint struct {
	Kind      Kind
	Raw       string
	Value     string // right-hand side text for key = value clauses
	ErrorCode string // @ ErrorCode suffix on constraint clauses
	Seeds     []SeedComponent
	Check     *Check // non-nil for interpreted equality checks
	Ref       Path   // target path for has_one, bump and associated_token clauses
}

// Set is the ordered constraint set of one field.
type Set []Constraint

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
var fieldRootRe = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Method-call tails that carry no field information. Mirrors the access
// chains Anchor code conventionally applies to account identities.
var methodNames = map[string]bool{
	"key":         true,
	"as_ref":      true,
	"as_bytes":    true,
	"to_le_bytes": true,
	"to_be_bytes": true,
	"clone":       true,
	"to_string":   true,
	"unwrap":      true,
	"expect":      true,
}

// Parse converts raw clause tokens into a constraint set. It never fails:
// malformed or unrecognized clauses degrade to KindOpaque.
func Parse(clauses []string) Set {
	var set Set
	for _, raw := range clauses {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		set = append(set, parseClause(raw))
	}
	return set
}

func parseClause(raw string) Constraint {
	key := raw
	value := ""
	if idx := strings.Index(raw, "="); idx >= 0 {
		key = strings.TrimSpace(raw[:idx])
		value = strings.TrimSpace(raw[idx+1:])
	}

	switch Kind(key) {
	case KindMut, KindSigner, KindInit, KindInitIfNeeded:
		return Constraint{Kind: Kind(key), Raw: raw}
	case KindBump:
		c := Constraint{Kind: KindBump, Raw: raw, Value: value}
		if value != "" {
			c.Ref = ParsePath(value)
		}
		return c
	case KindSeeds:
		return Constraint{Kind: KindSeeds, Raw: raw, Value: value, Seeds: parseSeedsArray(value)}
	case KindHasOne:
		return Constraint{Kind: KindHasOne, Raw: raw, Value: value, Ref: ParsePath(value)}
	case KindCustom:
		return parseCustom(raw, value)
	case KindATMint, KindATAuthority, KindATTokenProgram:
		return Constraint{Kind: Kind(key), Raw: raw, Value: value, Ref: ParsePath(value)}
	case KindAddress, KindPayer, KindSpace, KindSeedsProgram:
		return Constraint{Kind: Kind(key), Raw: raw, Value: value}
	}

	return Constraint{Kind: KindOpaque, Raw: raw}
}

// parseCustom interprets constraint = <expr> clauses. Only binary equality
// between two access paths is recognized; everything else stays opaque so it
// routes to manual review instead of silently narrowing the check.
func parseCustom(raw, value string) Constraint {
	expr := value
	errorCode := ""
	if idx := strings.Index(expr, "@"); idx >= 0 {
		errorCode = strings.TrimSpace(expr[idx+1:])
		expr = strings.TrimSpace(expr[:idx])
	}

	if strings.Contains(expr, "&&") || strings.Contains(expr, "||") {
		return Constraint{Kind: KindOpaque, Raw: raw, ErrorCode: errorCode}
	}

	sides := splitEquality(expr)
	if len(sides) != 2 {
		return Constraint{Kind: KindOpaque, Raw: raw, ErrorCode: errorCode}
	}

	lhs := ParsePath(sides[0])
	rhs := ParsePath(sides[1])
	if lhs.Root == "" && rhs.Root == "" {
		return Constraint{Kind: KindOpaque, Raw: raw, ErrorCode: errorCode}
	}

	return Constraint{
		Kind:      KindCustom,
		Raw:       raw,
		Value:     expr,
		ErrorCode: errorCode,
		Check:     &Check{LHS: lhs, RHS: rhs},
	}
}

// splitEquality splits an expression on a single top-level ==. Other
// comparison operators disqualify the expression.
func splitEquality(expr string) []string {
	var parts []string
	depth := 0
	last := 0
	for i := 0; i < len(expr); i++ {
		switch expr[i] {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case '=':
			if depth != 0 {
				continue
			}
			if i+1 < len(expr) && expr[i+1] == '=' {
				if i > 0 && (expr[i-1] == '!' || expr[i-1] == '<' || expr[i-1] == '>') {
					return nil
				}
				parts = append(parts, strings.TrimSpace(expr[last:i]))
				last = i + 2
				i++
			}
		case '<', '>', '!':
			if depth == 0 && i+1 < len(expr) && expr[i+1] == '=' {
				return nil
			}
		}
	}
	parts = append(parts, strings.TrimSpace(expr[last:]))
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil
	}
	return parts
}

// ParsePath interprets a dotted access chain. The root identifier and the
// first stored-field segment are extracted; method-call segments are skipped.
func ParsePath(expr string) Path {
	p := Path{Raw: strings.TrimSpace(expr)}

	s := strings.TrimPrefix(p.Raw, "&")
	s = strings.TrimSpace(s)

	segments := util.SplitBalanced(s, '.')
	if len(segments) == 0 {
		return p
	}

	root := strings.TrimSpace(segments[0])
	if !identRe.MatchString(root) {
		return p
	}
	p.Root = root

	for _, seg := range segments[1:] {
		seg = strings.TrimSpace(seg)
		if idx := strings.Index(seg, "("); idx >= 0 {
			seg = seg[:idx]
		}
		if seg == "" || methodNames[seg] || !identRe.MatchString(seg) {
			continue
		}
		p.Field = seg
		break
	}

	return p
}

// parseSeedsArray splits a seeds array literal into classified components.
func parseSeedsArray(value string) []SeedComponent {
	s := strings.TrimSpace(value)
	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		s = s[1 : len(s)-1]
	}

	var components []SeedComponent
	for _, part := range util.SplitBalanced(s, ',') {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		components = append(components, ParseSeedComponent(part))
	}
	return components
}

// ParseSeedComponent classifies one seed element as constant bytes or a
// field reference.
func ParseSeedComponent(raw string) SeedComponent {
	c := SeedComponent{Raw: raw}

	s := strings.TrimPrefix(raw, "&")
	s = strings.TrimSpace(s)

	if lit, ok := quotedLiteral(s); ok {
		c.Constant = true
		c.Literal = lit
		return c
	}

	ref := ParsePath(s)
	if ref.Root != "" && fieldRootRe.MatchString(ref.Root) {
		c.Ref = ref
		return c
	}

	// Uppercase constants, numeric literals and anything else without a
	// lowercase root are treated as constant derivation inputs.
	c.Constant = true
	c.Literal = constantLabel(s)
	return c
}

// quotedLiteral extracts the inner text of a leading string or byte-string
// literal, tolerating .as_bytes()/.as_ref() wrappers.
func quotedLiteral(s string) (string, bool) {
	s = strings.TrimPrefix(s, "b")
	if !strings.HasPrefix(s, "\"") {
		return "", false
	}
	end := strings.Index(s[1:], "\"")
	if end < 0 {
		return "", false
	}
	return s[1 : end+1], true
}

func constantLabel(s string) string {
	s = strings.ReplaceAll(s, "\"", "'")
	if len(s) > 50 {
		s = s[:50]
	}
	return s
}

// Has reports whether the set contains a clause of the given kind.
func (s Set) Has(kind Kind) bool {
	for _, c := range s {
		if c.Kind == kind {
			return true
		}
	}
	return false
}

// Last returns the last clause of the given kind. Later clauses override
// earlier ones of the same kind.
func (s Set) Last(kind Kind) (Constraint, bool) {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i].Kind == kind {
			return s[i], true
		}
	}
	return Constraint{}, false
}

// All returns every clause of the given kind in source order.
func (s Set) All(kind Kind) []Constraint {
	var out []Constraint
	for _, c := range s {
		if c.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}

// Initialized reports whether the field is being created by this
// instruction.
func (s Set) Initialized() bool {
	return s.Has(KindInit) || s.Has(KindInitIfNeeded)
}

// Opaque returns the clauses that could not be interpreted.
func (s Set) Opaque() []Constraint {
	return s.All(KindOpaque)
}
