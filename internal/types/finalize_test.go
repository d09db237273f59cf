package types

import "testing"

func TestFinalizeSpanGroupsDropsSingletons(t *testing.T) {
	groups := []DuplicateSpanGroup{
		{ContentHash: 1, Occurrences: []DuplicateSpanOccurrence{{RepoID: 0, RelPath: "a.go"}}},
		{ContentHash: 2, Occurrences: []DuplicateSpanOccurrence{
			{RepoID: 0, RelPath: "a.go"}, {RepoID: 0, RelPath: "b.go"},
		}},
	}
	out := FinalizeSpanGroups(groups, false)
	if len(out) != 1 {
		t.Fatalf("expected 1 group to survive, got %d", len(out))
	}
	if out[0].ContentHash != 2 {
		t.Fatalf("expected surviving group hash 2, got %d", out[0].ContentHash)
	}
}

func TestFinalizeSpanGroupsCrossRepoOnly(t *testing.T) {
	sameRepo := DuplicateSpanGroup{ContentHash: 1, Occurrences: []DuplicateSpanOccurrence{
		{RepoID: 0, RelPath: "a.go"}, {RepoID: 0, RelPath: "b.go"},
	}}
	crossRepo := DuplicateSpanGroup{ContentHash: 2, Occurrences: []DuplicateSpanOccurrence{
		{RepoID: 0, RelPath: "a.go"}, {RepoID: 1, RelPath: "b.go"},
	}}
	out := FinalizeSpanGroups([]DuplicateSpanGroup{sameRepo, crossRepo}, true)
	if len(out) != 1 || out[0].ContentHash != 2 {
		t.Fatalf("expected only the cross-repo group to survive, got %+v", out)
	}
}

func TestFinalizeSpanGroupsSortsOccurrences(t *testing.T) {
	g := DuplicateSpanGroup{ContentHash: 1, Occurrences: []DuplicateSpanOccurrence{
		{RepoID: 1, RelPath: "z.go", StartLine: 5},
		{RepoID: 0, RelPath: "a.go", StartLine: 1},
	}}
	out := FinalizeSpanGroups([]DuplicateSpanGroup{g}, false)
	if out[0].Occurrences[0].RepoID != 0 {
		t.Fatalf("expected repo 0 occurrence first, got %+v", out[0].Occurrences)
	}
}

func TestSortAndCapSpanGroupsOrdersByCountThenLenThenHash(t *testing.T) {
	small := DuplicateSpanGroup{ContentHash: 5, NormalizedLen: 10, Occurrences: make([]DuplicateSpanOccurrence, 2)}
	bigger := DuplicateSpanGroup{ContentHash: 1, NormalizedLen: 10, Occurrences: make([]DuplicateSpanOccurrence, 3)}
	out := SortAndCapSpanGroups([]DuplicateSpanGroup{small, bigger}, -1)
	if out[0].ContentHash != 1 {
		t.Fatalf("expected group with more occurrences first, got %+v", out)
	}
}

func TestSortAndCapSpanGroupsTruncates(t *testing.T) {
	groups := make([]DuplicateSpanGroup, 5)
	for i := range groups {
		groups[i] = DuplicateSpanGroup{ContentHash: uint64(i), Occurrences: make([]DuplicateSpanOccurrence, 2)}
	}
	out := SortAndCapSpanGroups(groups, 2)
	if len(out) != 2 {
		t.Fatalf("expected truncation to 2 items, got %d", len(out))
	}
}

func TestSortAndCapPairsDescendingScore(t *testing.T) {
	pairs := []SimilarityPair{
		{Score: 0.5, A: DuplicateSpanOccurrence{RelPath: "a"}},
		{Score: 0.9, A: DuplicateSpanOccurrence{RelPath: "b"}},
	}
	out := SortAndCapPairs(pairs, -1)
	if out[0].Score != 0.9 {
		t.Fatalf("expected highest score first, got %+v", out)
	}
}
