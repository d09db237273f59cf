package scanner

// ScannedFile is one regular file read from under a repo root: a
// forward-slash relative path and its raw bytes (spec.md §4.3).
type ScannedFile struct {
	RelPath string
	Data    []byte
}

// FileFunc is the per-file callback invoked serially, once per matched
// file, by the single collector goroutine (spec.md §5: "all user callbacks
// see serialized calls"). Returning false is the cooperative "break"
// signal: the current root's scan is aborted deterministically.
type FileFunc func(ScannedFile) (cont bool)

// candidate is a file path discovered by either scan path, not yet read.
type candidate struct {
	absPath string
	relPath string
}
