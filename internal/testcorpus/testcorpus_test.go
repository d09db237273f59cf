package testcorpus

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewSowsFilesUnderLabeledRepoRoots(t *testing.T) {
	c := New(t, Tree{
		Repos: []Repo{
			{Label: "alpha", Files: []File{
				{Path: "main.go", Content: "package main\n"},
				{Path: "sub/util.go", Content: "package sub\n"},
			}},
			{Label: "beta", Files: []File{
				{Path: "main.go", Content: "package main\n"},
			}},
		},
	})

	repos := c.Repos()
	if len(repos) != 2 {
		t.Fatalf("expected 2 repos, got %d", len(repos))
	}
	if repos[0].ID != 0 || repos[1].ID != 1 {
		t.Fatalf("expected repo IDs 0 and 1, got %d and %d", repos[0].ID, repos[1].ID)
	}
	if repos[0].Label != "alpha" || repos[1].Label != "beta" {
		t.Fatalf("expected labels alpha/beta, got %s/%s", repos[0].Label, repos[1].Label)
	}

	data, err := os.ReadFile(filepath.Join(repos[0].Root, "sub", "util.go"))
	if err != nil {
		t.Fatalf("read nested file: %v", err)
	}
	if string(data) != "package sub\n" {
		t.Fatalf("unexpected content: %q", data)
	}

	roots := c.RepoRoots()
	if len(roots) != 2 || roots[0] != repos[0].Root || roots[1] != repos[1].Root {
		t.Fatalf("RepoRoots() mismatch: %v", roots)
	}
}

func TestNewCreatesIndependentRootsAcrossCorpora(t *testing.T) {
	a := New(t, Tree{Repos: []Repo{{Label: "r", Files: []File{{Path: "f.go", Content: "x"}}}}})
	b := New(t, Tree{Repos: []Repo{{Label: "r", Files: []File{{Path: "f.go", Content: "y"}}}}})

	if a.Root() == b.Root() {
		t.Fatalf("expected distinct corpus roots, got the same: %s", a.Root())
	}
}
