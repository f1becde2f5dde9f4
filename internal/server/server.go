// Package server exposes the analyzer over MCP so audit assistants can
// query a workspace's constraint graphs.
package server

import (
	"context"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"anchorscope/internal/analyze"
	"anchorscope/internal/scanner"
	"anchorscope/internal/store"
)

const serverName = "anchorscope"

const systemPrompt = `# AnchorScope MCP Server

AnchorScope statically analyzes Anchor account-validation structs and builds
a definition graph per struct: which accounts are verified by PDA seeds,
equality constraints, has_one links or associated-token derivations, and
which are left unchecked.

## Workflow
1. Call ` + "`analyze`" + ` to scan the workspace and refresh the findings database.
2. Call ` + "`find_undefined`" + ` to list accounts with no qualifying definition.
3. Call ` + "`get_diagram`" + ` with a struct name to get its Mermaid definition graph.

Undefined accounts are rendered red, review items orange, trusted system
accounts and constants green. An undefined account is a triage lead, not a
proven vulnerability.`

// Server wires the scanner and findings store into an MCP server.
type Server struct {
	mcpServer *mcp.Server
	scanner   *scanner.Scanner
	store     *store.Store
	root      string

	mu          sync.RWMutex
	lastResults []*analyze.Result
	lastErrs    []string
}

// New creates an MCP server rooted at the given workspace directory.
func New(version, root string, sc *scanner.Scanner, st *store.Store) *Server {
	s := &Server{
		mcpServer: mcp.NewServer(&mcp.Implementation{Name: serverName, Version: version}, nil),
		scanner:   sc,
		store:     st,
		root:      root,
	}
	s.registerTools()
	s.registerResources()
	return s
}

// Run serves MCP over stdio until the context is canceled.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) setResults(results []*analyze.Result, errs []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastResults = results
	s.lastErrs = errs
}

func (s *Server) results() []*analyze.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastResults
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}
}
