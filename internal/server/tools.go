package server

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"anchorscope/internal/analyze"
	"anchorscope/internal/render"
	"anchorscope/util"
)

// Arguments structs

type AnalyzeArgs struct {
	Path string `json:"path" jsonschema:"description:Path to analyze relative to the workspace root; defaults to the whole workspace"`
}

type GetDiagramArgs struct {
	StructName string `json:"struct_name" jsonschema:"required,description:Name of the constraint struct to render"`
}

type FindUndefinedArgs struct {
	IncludeReview bool `json:"include_review" jsonschema:"description:Also include accounts flagged for manual review"`
}

type ListConstructsArgs struct{}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "analyze",
		Description: "Scans the workspace for account-validation structs and updates the findings database",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args AnalyzeArgs) (*mcp.CallToolResult, any, error) {
		target := s.root
		if args.Path != "" {
			target = filepath.Join(s.root, args.Path)
		}

		startTime := time.Now()
		fileResults, err := s.scanner.Scan(ctx, target)
		if err != nil {
			return errorResult(fmt.Sprintf("Scan failed: %v", err)), nil, nil
		}

		var results []*analyze.Result
		var parseErrs []string
		var validFiles []string
		for _, fr := range fileResults {
			if fr.Err != nil {
				parseErrs = append(parseErrs, fmt.Sprintf("%s: %v", fr.Path, fr.Err))
				continue
			}
			validFiles = append(validFiles, fr.Path)
			results = append(results, fr.Results...)
		}
		s.setResults(results, parseErrs)

		if err := s.store.BulkUpsertResults(ctx, results); err != nil {
			return errorResult(fmt.Sprintf("Failed to store findings: %v", err)), nil, nil
		}
		if err := s.store.PruneStaleFiles(ctx, validFiles); err != nil {
			// Stale rows are an annoyance, not a failure.
			parseErrs = append(parseErrs, fmt.Sprintf("prune failed: %v", err))
		}

		undefined := 0
		for _, res := range results {
			undefined += len(res.Undefined())
		}

		duration := time.Since(startTime)
		msg := fmt.Sprintf("Analyzed %d files, %d structs, %d undefined accounts in %.2fs",
			len(validFiles), len(results), undefined, duration.Seconds())
		for _, e := range parseErrs {
			msg += "\nWarning: " + e
		}
		return textResult(msg), nil, nil
	})

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_diagram",
		Description: "Returns the Mermaid definition graph for one constraint struct",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args GetDiagramArgs) (*mcp.CallToolResult, any, error) {
		results := s.results()
		if results == nil {
			return errorResult("No analysis results yet; run the analyze tool first"), nil, nil
		}

		for _, res := range results {
			if res.Construct == args.StructName {
				return textResult(render.Mermaid(res)), nil, nil
			}
		}
		return errorResult(fmt.Sprintf("Struct not found: %q", args.StructName)), nil, nil
	})

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "find_undefined",
		Description: "Lists accounts with no qualifying definition relation",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args FindUndefinedArgs) (*mcp.CallToolResult, any, error) {
		findings, err := s.store.FindByStatus(ctx, string(analyze.StatusUndefined), args.IncludeReview)
		if err != nil {
			return errorResult(fmt.Sprintf("Query failed: %v", err)), nil, nil
		}

		if len(findings) == 0 {
			return textResult("No undefined accounts found."), nil, nil
		}

		jsonBytes, _ := json.MarshalIndent(findings, "", "  ")
		return textResult(string(jsonBytes)), nil, nil
	})

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_constructs",
		Description: "Summarizes every analyzed constraint struct",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args ListConstructsArgs) (*mcp.CallToolResult, any, error) {
		constructs, err := s.store.ListConstructs(ctx)
		if err != nil {
			return errorResult(fmt.Sprintf("Query failed: %v", err)), nil, nil
		}

		if len(constructs) == 0 {
			return textResult("No constructs stored; run the analyze tool first."), nil, nil
		}

		type ConstructInfo struct {
			StructName string `json:"struct_name"`
			FileURI    string `json:"file_uri"`
			Accounts   int    `json:"accounts"`
			Undefined  int    `json:"undefined"`
			Review     int    `json:"review"`
		}
		var infos []ConstructInfo
		for _, c := range constructs {
			infos = append(infos, ConstructInfo{
				StructName: c.StructName,
				FileURI:    util.PathToURI(c.File),
				Accounts:   c.Accounts,
				Undefined:  c.Undefined,
				Review:     c.Review,
			})
		}

		jsonBytes, _ := json.MarshalIndent(infos, "", "  ")
		return textResult(string(jsonBytes)), nil, nil
	})
}
