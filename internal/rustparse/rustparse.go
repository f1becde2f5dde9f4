// Package rustparse provides Tree-sitter based parsing for Rust source files.
package rustparse

import (
	"context"
	"fmt"
	"os"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/rust"
)

// File contains the parsed syntax tree for one Rust source file.
type File struct {
	Path   string
	Tree   *sitter.Tree
	Source []byte
}

// Parse parses Rust source code and returns the syntax tree. A fresh parser
// is created per call so callers can parse from multiple goroutines.
func Parse(ctx context.Context, source []byte) (*sitter.Tree, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(rust.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("parsing failed: %w", err)
	}
	return tree, nil
}

// ParseFile reads and parses a Rust file.
func ParseFile(ctx context.Context, path string) (*File, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}

	tree, err := Parse(ctx, source)
	if err != nil {
		return nil, err
	}

	return &File{Path: path, Tree: tree, Source: source}, nil
}

// Close releases the underlying tree.
func (f *File) Close() {
	if f.Tree != nil {
		f.Tree.Close()
	}
}

// Root returns the root node of the file's syntax tree.
func (f *File) Root() *sitter.Node {
	return f.Tree.RootNode()
}

// Text returns the source text covered by a node.
func (f *File) Text(n *sitter.Node) string {
	return n.Content(f.Source)
}

// FindNodesByType collects all nodes of a given type in depth-first order.
func FindNodesByType(node *sitter.Node, nodeType string) []*sitter.Node {
	var results []*sitter.Node

	iter := sitter.NewIterator(node, sitter.DFSMode)
	for {
		n, err := iter.Next()
		if err != nil || n == nil {
			break
		}
		if n.Type() == nodeType {
			results = append(results, n)
		}
	}

	return results
}

// ChildByType returns the first direct child of the given type, or nil.
func ChildByType(node *sitter.Node, childType string) *sitter.Node {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == childType {
			return child
		}
	}
	return nil
}
