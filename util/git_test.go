package util

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFindGitRoot(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, ".git"), 0755); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(root, "programs", "src")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	got, err := FindGitRoot(nested)
	if err != nil {
		t.Fatalf("FindGitRoot: %v", err)
	}
	if got != root {
		t.Errorf("root = %q, want %q", got, root)
	}
}

func TestFindGitRootNoRepo(t *testing.T) {
	dir := t.TempDir()

	got, err := FindGitRoot(dir)
	if err != nil {
		t.Fatalf("FindGitRoot: %v", err)
	}
	if got != dir {
		t.Errorf("without a repo the start dir should come back, got %q", got)
	}
}

func TestPathURIRoundTrip(t *testing.T) {
	uri := PathToURI("/workspace/programs/src/lib.rs")
	if !strings.HasPrefix(uri, "file:///") {
		t.Errorf("uri = %q", uri)
	}
	if got := URIToPath(uri); got != "/workspace/programs/src/lib.rs" {
		t.Errorf("round trip = %q", got)
	}
	if got := URIToPath("not-a-uri"); got != "not-a-uri" {
		t.Errorf("non-uri input should pass through, got %q", got)
	}
}
