package dupefiles

import (
	"strconv"
	"testing"
)

func candidate(repoID int, rel string) FileCandidate {
	return FileCandidate{RepoID: repoID, RepoLabel: "repo", RelPath: rel}
}

func TestIndexAndVerifyFindsIdenticalFiles(t *testing.T) {
	data := map[string][]byte{
		"0:a.txt": []byte("package main\n\nfunc main() {}\n"),
		"1:b.txt": []byte("package  main\n\nfunc main()  {}\n"), // whitespace-different, same stripped
	}

	entries := []IndexEntry{
		{Candidate: candidate(0, "a.txt"), Data: data["0:a.txt"]},
		{Candidate: candidate(1, "b.txt"), Data: data["1:b.txt"]},
	}

	index := Index(entries)
	groups := Verify(index, false, func(repoID int, rel string) ([]byte, error) {
		return data[strconv.Itoa(repoID)+":"+rel], nil
	})

	if len(groups) != 1 {
		t.Fatalf("expected 1 duplicate group, got %d", len(groups))
	}
	if len(groups[0].Occurrences) != 2 {
		t.Fatalf("expected 2 occurrences, got %d", len(groups[0].Occurrences))
	}
}

func TestVerifyDropsChangedFiles(t *testing.T) {
	indexTimeData := map[string][]byte{
		"0:a.txt": []byte("identical content here"),
		"1:b.txt": []byte("identical content here"),
	}
	entries := []IndexEntry{
		{Candidate: candidate(0, "a.txt"), Data: indexTimeData["0:a.txt"]},
		{Candidate: candidate(1, "b.txt"), Data: indexTimeData["1:b.txt"]},
	}
	index := Index(entries)

	groups := Verify(index, false, func(repoID int, rel string) ([]byte, error) {
		if repoID == 1 {
			return []byte("changed since indexing"), nil
		}
		return indexTimeData["0:a.txt"], nil
	})

	if len(groups) != 0 {
		t.Fatalf("expected 0 groups once one file changed, got %d", len(groups))
	}
}

func TestVerifyDropsBinaryContent(t *testing.T) {
	data := map[string][]byte{
		"0:a.bin": {0x01, 0x00, 0x02},
		"1:b.bin": {0x01, 0x00, 0x02},
	}
	entries := []IndexEntry{
		{Candidate: candidate(0, "a.bin"), Data: data["0:a.bin"]},
		{Candidate: candidate(1, "b.bin"), Data: data["1:b.bin"]},
	}
	index := Index(entries)

	groups := Verify(index, false, func(repoID int, rel string) ([]byte, error) {
		return data[strconv.Itoa(repoID)+":"+rel], nil
	})
	if len(groups) != 0 {
		t.Fatalf("expected binary content to be dropped, got %d groups", len(groups))
	}
}

func TestVerifyCrossRepoOnly(t *testing.T) {
	data := map[string][]byte{
		"0:a.txt": []byte("shared content for same repo test"),
		"0:b.txt": []byte("shared content for same repo test"),
	}
	entries := []IndexEntry{
		{Candidate: candidate(0, "a.txt"), Data: data["0:a.txt"]},
		{Candidate: candidate(0, "b.txt"), Data: data["0:b.txt"]},
	}
	index := Index(entries)

	groups := Verify(index, true, func(repoID int, rel string) ([]byte, error) {
		return data[strconv.Itoa(repoID)+":"+rel], nil
	})
	if len(groups) != 0 {
		t.Fatalf("expected cross-repo-only to drop a same-repo duplicate, got %d", len(groups))
	}
}
