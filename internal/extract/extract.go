// Package extract locates Anchor account-validation structs in a parsed Rust
// file and collects their raw constraint clauses. No semantic interpretation
// happens here; clause text is handed to the constraint package as-is.
package extract

import (
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"anchorscope/internal/rustparse"
	"anchorscope/util"
)

// InstructionArg is one parameter declared in an #[instruction(...)] macro.
type InstructionArg struct {
	Name     string
	TypeName string
}

// Field is one declared account or argument of a constraint struct, with its
// raw clause tokens in source order.
type Field struct {
	Name       string
	TypeName   string
	RawClauses []string
	Line       int
}

// Construct is one #[derive(Accounts)] struct.
type Construct struct {
	Name       string
	SourceFile string
	Args       []InstructionArg
	Fields     []Field
	LineStart  int
	LineEnd    int
}

var instructionRe = regexp.MustCompile(`(?s)#\[\s*instruction\s*\((.*)\)\s*\]`)

// Constructs returns every account-validation struct found in the file, in
// source order. A struct with a malformed field list contributes what could
// be read; it is never dropped wholesale.
func Constructs(f *rustparse.File) []Construct {
	var constructs []Construct

	for _, structNode := range rustparse.FindNodesByType(f.Root(), "struct_item") {
		if !hasDeriveAccounts(f, structNode) {
			continue
		}

		nameNode := rustparse.ChildByType(structNode, "type_identifier")
		if nameNode == nil {
			continue
		}

		constructs = append(constructs, Construct{
			Name:       f.Text(nameNode),
			SourceFile: f.Path,
			Args:       instructionArgs(f, structNode),
			Fields:     accountFields(f, structNode),
			LineStart:  int(structNode.StartPoint().Row) + 1,
			LineEnd:    int(structNode.EndPoint().Row) + 1,
		})
	}

	return constructs
}

// hasDeriveAccounts checks the attribute items preceding a struct for
// #[derive(Accounts)].
func hasDeriveAccounts(f *rustparse.File, structNode *sitter.Node) bool {
	found := false
	precedingAttributes(structNode, func(attr *sitter.Node) bool {
		text := f.Text(attr)
		if strings.Contains(text, "derive") && strings.Contains(text, "Accounts") {
			found = true
			return false
		}
		return true
	})
	return found
}

// instructionArgs parses the #[instruction(...)] attribute preceding a
// struct, if any.
func instructionArgs(f *rustparse.File, structNode *sitter.Node) []InstructionArg {
	var args []InstructionArg

	precedingAttributes(structNode, func(attr *sitter.Node) bool {
		text := f.Text(attr)
		m := instructionRe.FindStringSubmatch(text)
		if m == nil {
			return true
		}
		for _, part := range util.SplitBalanced(m[1], ',') {
			part = strings.TrimSpace(part)
			name, typeName, ok := strings.Cut(part, ":")
			if !ok {
				continue
			}
			args = append(args, InstructionArg{
				Name:     strings.TrimSpace(name),
				TypeName: strings.TrimSpace(typeName),
			})
		}
		return false
	})

	return args
}

// precedingAttributes walks the attribute_item siblings immediately before a
// node, stopping at the first non-attribute, non-comment sibling. The
// visitor returns false to stop early.
func precedingAttributes(node *sitter.Node, visit func(*sitter.Node) bool) {
	parent := node.Parent()
	if parent == nil {
		return
	}

	// Locate node among the parent's children, then scan backwards.
	idx := -1
	for i := 0; i < int(parent.ChildCount()); i++ {
		if parent.Child(i).Equal(node) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}

	for j := idx - 1; j >= 0; j-- {
		prev := parent.Child(j)
		switch prev.Type() {
		case "attribute_item":
			if !visit(prev) {
				return
			}
		case "line_comment", "block_comment":
			continue
		default:
			return
		}
	}
}

// accountFields parses every field declaration in the struct body.
func accountFields(f *rustparse.File, structNode *sitter.Node) []Field {
	var fields []Field

	body := rustparse.ChildByType(structNode, "field_declaration_list")
	if body == nil {
		return fields
	}

	for i := 0; i < int(body.ChildCount()); i++ {
		child := body.Child(i)
		if child.Type() != "field_declaration" {
			continue
		}
		if field, ok := accountField(f, child); ok {
			fields = append(fields, field)
		}
	}

	return fields
}

func accountField(f *rustparse.File, fieldNode *sitter.Node) (Field, bool) {
	nameNode := rustparse.ChildByType(fieldNode, "field_identifier")
	if nameNode == nil {
		return Field{}, false
	}

	typeNode := fieldNode.ChildByFieldName("type")
	if typeNode == nil {
		return Field{}, false
	}

	field := Field{
		Name:     f.Text(nameNode),
		TypeName: f.Text(typeNode),
		Line:     int(fieldNode.StartPoint().Row) + 1,
	}

	precedingAttributes(fieldNode, func(attr *sitter.Node) bool {
		text := f.Text(attr)
		if strings.HasPrefix(text, "#[account") {
			// Attributes are scanned backwards; clause order within one
			// attribute is preserved, and multiple attributes concatenate
			// in source order.
			field.RawClauses = append(accountClauses(text), field.RawClauses...)
		}
		return true
	})

	return field, true
}

// accountClauses splits the argument list of one #[account(...)] attribute
// into raw clause tokens.
func accountClauses(attrText string) []string {
	content, ok := attributeContent(attrText)
	if !ok {
		return nil
	}
	content = stripLineComments(content)

	var clauses []string
	for _, clause := range util.SplitBalanced(content, ',') {
		clause = strings.TrimSpace(clause)
		if clause != "" {
			clauses = append(clauses, clause)
		}
	}
	return clauses
}

// attributeContent extracts the text between the parentheses of
// #[account(...)], handling nesting. A bare #[account] yields no content.
func attributeContent(attrText string) (string, bool) {
	const prefix = "#[account("
	start := strings.Index(attrText, prefix)
	if start < 0 {
		return "", false
	}
	start += len(prefix)

	depth := 1
	for i := start; i < len(attrText); i++ {
		switch attrText[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return attrText[start:i], true
			}
		}
	}
	return "", false
}

// stripLineComments removes // comments so they cannot break clause
// splitting.
func stripLineComments(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if idx := strings.Index(line, "//"); idx >= 0 {
			lines[i] = line[:idx]
		}
	}
	return strings.Join(lines, "\n")
}
