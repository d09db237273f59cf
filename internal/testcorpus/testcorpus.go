// Package testcorpus provides declarative test fixtures for multi-repo
// source trees, adapted from the teacher's testfs.FileTree idiom: a
// spec is authored as data, then sown onto disk once under t.TempDir(),
// rather than hand-rolled per test with os.WriteFile/os.MkdirAll calls
// (internal/testfs/types.go, internal/testfs/sow.go).
//
// Where the teacher's FileTree describes hardlinked binary chunks across
// tmpfs volumes for dedupe verification, a Tree here describes plain
// source files (by text content) across repo roots for duplication
// detection tests.
package testcorpus

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/ivoronin/clonewatch/internal/types"
)

// Tree describes a set of repos to create on disk.
type Tree struct {
	Repos []Repo
}

// Repo is one scan root: a label used only to pick the repo's
// subdirectory name under the corpus root, plus its files.
type Repo struct {
	Label string
	Files []File
}

// File is a single source file, keyed by its path relative to the repo
// root (forward slashes; nested directories are created automatically).
type File struct {
	Path    string
	Content string
}

// Corpus is a Tree sown onto a temporary directory.
type Corpus struct {
	t     *testing.T
	root  string
	repos []types.Repo
}

// New sows tree onto a fresh t.TempDir() and returns a Corpus ready to
// feed into the scanning/reporting pipeline.
func New(t *testing.T, tree Tree) *Corpus {
	t.Helper()

	root := t.TempDir()
	c := &Corpus{t: t, root: root}

	for i, r := range tree.Repos {
		repoRoot := filepath.Join(root, r.Label)
		if err := sowRepo(repoRoot, r); err != nil {
			t.Fatalf("sow repo %s: %v", r.Label, err)
		}
		c.repos = append(c.repos, types.NewRepo(i, repoRoot))
	}

	return c
}

// Root returns the corpus's temporary directory root.
func (c *Corpus) Root() string { return c.root }

// Repos returns the sown repos as types.Repo, ready for
// internal/report's entry points.
func (c *Corpus) Repos() []types.Repo { return c.repos }

// RepoRoots returns the sown repos' absolute root paths, in the order
// they were declared, ready for the facade's []string roots parameter.
func (c *Corpus) RepoRoots() []string {
	roots := make([]string, len(c.repos))
	for i, r := range c.repos {
		roots[i] = r.Root
	}
	return roots
}

func sowRepo(repoRoot string, r Repo) error {
	for _, f := range r.Files {
		path := filepath.Join(repoRoot, filepath.FromSlash(f.Path))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("mkdir %s: %w", filepath.Dir(path), err)
		}
		if err := os.WriteFile(path, []byte(f.Content), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	return nil
}
