// Package scanner discovers Rust source files and runs the analysis
// pipeline over them.
package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	ignore "github.com/sabhiram/go-gitignore"

	"anchorscope/internal/analyze"
	"anchorscope/internal/extract"
	"anchorscope/internal/rustparse"
)

// Scanner walks a workspace and analyzes every constraint struct it finds.
type Scanner struct {
	analyzer    *analyze.Analyzer
	extraIgnore []string
	workers     int
}

// FileResult is the outcome for one source file. Err is set when the file
// could not be read or parsed; sibling files are unaffected.
type FileResult struct {
	Path    string
	Results []*analyze.Result
	Err     error
}

// New creates a scanner. Extra ignore patterns supplement the workspace
// .gitignore. workers <= 0 selects one worker per CPU.
func New(analyzer *analyze.Analyzer, extraIgnore []string, workers int) *Scanner {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Scanner{analyzer: analyzer, extraIgnore: extraIgnore, workers: workers}
}

// Scan analyzes the file or directory at root. Files are processed
// concurrently; results come back in discovery order so repeated runs on
// unchanged input produce identical reports. The returned error is reserved
// for total inability to read input.
func (s *Scanner) Scan(ctx context.Context, root string) ([]FileResult, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", root, err)
	}

	var paths []string
	if info.IsDir() {
		paths, err = s.discover(root)
		if err != nil {
			return nil, err
		}
	} else {
		paths = []string{root}
	}

	if len(paths) == 0 {
		return nil, fmt.Errorf("no Rust source files found under %s", root)
	}

	results := make([]FileResult, len(paths))
	jobs := make(chan int)

	var wg sync.WaitGroup
	workers := s.workers
	if workers > len(paths) {
		workers = len(paths)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = s.analyzeFile(ctx, paths[i])
			}
		}()
	}

	for i := range paths {
		select {
		case jobs <- i:
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return nil, ctx.Err()
		}
	}
	close(jobs)
	wg.Wait()

	return results, nil
}

// discover collects .rs files under root in walk order, honoring the
// workspace .gitignore and any extra patterns.
func (s *Scanner) discover(root string) ([]string, error) {
	matcher := s.ignoreMatcher(root)

	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable subtree: skip it, keep scanning siblings.
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			if rel != "." && matcher != nil && matcher.MatchesPath(rel+"/") {
				return filepath.SkipDir
			}
			return nil
		}

		if !strings.HasSuffix(path, ".rs") {
			return nil
		}
		if matcher != nil && matcher.MatchesPath(rel) {
			return nil
		}

		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}

	return paths, nil
}

func (s *Scanner) ignoreMatcher(root string) *ignore.GitIgnore {
	var lines []string

	if data, err := os.ReadFile(filepath.Join(root, ".gitignore")); err == nil {
		lines = append(lines, strings.Split(string(data), "\n")...)
	}
	lines = append(lines, s.extraIgnore...)

	if len(lines) == 0 {
		return nil
	}
	return ignore.CompileIgnoreLines(lines...)
}

// analyzeFile runs the full pipeline for one file. All failures are
// captured in the result; nothing aborts the surrounding scan.
func (s *Scanner) analyzeFile(ctx context.Context, path string) FileResult {
	res := FileResult{Path: path}

	file, err := rustparse.ParseFile(ctx, path)
	if err != nil {
		res.Err = err
		return res
	}
	defer file.Close()

	for _, construct := range extract.Constructs(file) {
		res.Results = append(res.Results, s.analyzer.Analyze(construct))
	}

	return res
}
