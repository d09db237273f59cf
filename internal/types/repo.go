package types

import (
	"fmt"
	"path/filepath"
)

// Repo identifies a scan root.
type Repo struct {
	ID    int
	Root  string // absolute root path
	Label string // the root's final path component, or "repo{id}" if empty
}

// NewRepo builds a Repo, deriving Label per spec.md §3.
func NewRepo(id int, root string) Repo {
	label := filepath.Base(root)
	if label == "" || label == "." || label == string(filepath.Separator) {
		label = fmt.Sprintf("repo%d", id)
	}
	return Repo{ID: id, Root: root, Label: label}
}
