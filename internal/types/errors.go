package types

import "errors"

// ErrInvalidOption constructs a fatal validation error for a bad ScanOptions value.
func ErrInvalidOption(msg string) error { return errors.New("invalid option: " + msg) }

// Fatal sentinel errors surfaced by the library façade (spec.md §7).
var (
	ErrRootNotExist      = errors.New("root does not exist")
	ErrRootNotDirectory  = errors.New("root is not a directory")
	ErrCrossRepoNeedsTwo = errors.New("cross-repo-only requires at least two roots")
)
