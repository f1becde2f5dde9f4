// Package main provides the anchorscope CLI.
package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"anchorscope/internal/analyze"
	"anchorscope/internal/config"
	"anchorscope/internal/render"
	"anchorscope/internal/scanner"
	"anchorscope/internal/server"
	"anchorscope/internal/store"
	"anchorscope/util"
)

// Version is the current anchorscope version.
var Version = "0.3.0"

var rootCmd = &cobra.Command{
	Use:     "anchorscope",
	Short:   "AnchorScope - definition analysis for Anchor account constraints",
	Long:    `AnchorScope statically analyzes Anchor #[derive(Accounts)] structs, builds a definition graph per struct, and flags accounts whose legitimacy is not established by any recognized check.`,
	Version: Version,
}

var (
	flagOut     string
	flagQuiet   bool
	flagDB      string
	flagWorkers int
	flagRoot    string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <path>",
	Short: "Analyze a Rust file or directory and report undefined accounts",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the analyzer over MCP (stdio)",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	analyzeCmd.Flags().StringVarP(&flagOut, "out", "o", "", "write the combined Mermaid report to this path")
	analyzeCmd.Flags().BoolVarP(&flagQuiet, "quiet", "q", false, "suppress per-account summaries")
	analyzeCmd.Flags().StringVar(&flagDB, "db", "", "findings database path (default <root>/.anchorscope/db.sqlite)")
	analyzeCmd.Flags().IntVar(&flagWorkers, "workers", 0, "number of analysis workers (default: number of CPUs)")

	serveCmd.Flags().StringVar(&flagRoot, "root", "", "workspace root (default: enclosing git repository)")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(serveCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	path := args[0]

	root := path
	if info, err := os.Stat(path); err != nil {
		return fmt.Errorf("cannot read %s: %w", path, err)
	} else if !info.IsDir() {
		root = filepath.Dir(path)
	}

	cfg, err := config.Load(root)
	if err != nil {
		return err
	}

	analyzer := analyze.New(cfg.TrustedAccounts...)
	sc := scanner.New(analyzer, cfg.Ignore, flagWorkers)

	fileResults, err := sc.Scan(cmd.Context(), path)
	if err != nil {
		return err
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

	dbPath := flagDB
	if dbPath == "" {
		dbPath = cfg.DBPath(root)
	}
	if st, err := store.Open(dbPath); err != nil {
		log.Printf("Warning: findings database unavailable: %v", err)
	} else {
		defer st.Close()
		if err := st.BulkUpsertResults(cmd.Context(), results); err != nil {
			log.Printf("Warning: failed to store findings: %v", err)
		} else if err := st.PruneStaleFiles(cmd.Context(), validFiles); err != nil {
			log.Printf("Warning: failed to prune stale files: %v", err)
		}
	}

	undefinedStructs := 0
	for _, res := range results {
		if !flagQuiet {
			fmt.Println(render.Summary(res))
		}
		if len(res.Undefined()) > 0 {
			undefinedStructs++
		}
	}

	if flagOut != "" && len(results) > 0 {
		if err := render.WriteReport(flagOut, results); err != nil {
			return err
		}
		if !flagQuiet {
			fmt.Printf("Definition graphs saved to %s\n", flagOut)
		}
	}

	for _, e := range parseErrs {
		fmt.Fprintf(os.Stderr, "Warning: parse failed: %s\n", e)
	}
	if undefinedStructs > 0 {
		fmt.Fprintf(os.Stderr, "Warning: %d struct(s) contain undefined accounts\n", undefinedStructs)
	}

	// Undefined accounts are a warning outcome, not a failure.
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	root := flagRoot
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return err
		}
		root, err = util.FindGitRoot(cwd)
		if err != nil {
			return err
		}
	}

	cfg, err := config.Load(root)
	if err != nil {
		return err
	}

	analyzer := analyze.New(cfg.TrustedAccounts...)
	sc := scanner.New(analyzer, cfg.Ignore, 0)

	st, err := store.Open(cfg.DBPath(root))
	if err != nil {
		return fmt.Errorf("failed to open findings database: %w", err)
	}
	defer st.Close()

	log.Printf("Serving MCP for workspace %s", root)
	return server.New(Version, root, sc, st).Run(cmd.Context())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
