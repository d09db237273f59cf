package winnow

import (
	"testing"

	"github.com/ivoronin/clonewatch/internal/normalize"
)

func view(id, repoID int, text string) View {
	cc := normalize.CodeChars([]byte(text))
	symbols := make([]uint32, len(cc.Codepoints))
	for i, r := range cc.Codepoints {
		symbols[i] = uint32(r)
	}
	return View{
		FileID:    id,
		RepoID:    repoID,
		RepoLabel: "repo",
		RelPath:   "file.txt",
		Symbols:   symbols,
		LineMap:   cc.LineMap,
	}
}

func TestMatchFindsSharedSpan(t *testing.T) {
	shared := "functionBodyThatIsLongEnoughToBeAMatch"
	a := view(1, 0, "prefixA"+shared+"suffixA")
	b := view(2, 1, "prefixB"+shared+"suffixB")

	groups := Match([]View{a, b}, 10, 5, 6, false, nil, nil, nil)
	if len(groups) == 0 {
		t.Fatalf("expected at least one matched group")
	}
	if len(groups[0].Occurrences) != 2 {
		t.Fatalf("expected 2 occurrences, got %d", len(groups[0].Occurrences))
	}
}

func TestMatchRejectsBelowMinLen(t *testing.T) {
	a := view(1, 0, "abcdefgh")
	b := view(2, 1, "abcdefgh")

	groups := Match([]View{a, b}, 100, 5, 96, false, nil, nil, nil)
	if len(groups) != 0 {
		t.Fatalf("expected no groups below min_len, got %d", len(groups))
	}
}

func TestMatchCrossRepoOnlyExcludesSameRepo(t *testing.T) {
	shared := "functionBodyThatIsLongEnoughToBeAMatch"
	a := view(1, 0, shared)
	b := view(2, 0, shared)

	groups := Match([]View{a, b}, 10, 5, 6, true, nil, nil, nil)
	if len(groups) != 0 {
		t.Fatalf("expected cross-repo-only to exclude same-repo match, got %d groups", len(groups))
	}
}

func TestMatchDeduplicatesIdenticalPositions(t *testing.T) {
	shared := "functionBodyThatIsLongEnoughToBeAMatch"
	a := view(1, 0, shared)
	b := view(2, 1, shared)

	groups := Match([]View{a, b}, 10, 5, 6, false, nil, nil, nil)
	if len(groups) != 1 {
		t.Fatalf("expected exactly 1 group, got %d", len(groups))
	}
}

func TestMaximalMatchExpandsBothDirections(t *testing.T) {
	a := view(1, 0, "XXXsharedcontentYYY")
	b := view(2, 1, "ZZZsharedcontentWWW")
	startA, startB, length, ok := maximalMatch(&a, &b, 3, 3, 3)
	if !ok {
		t.Fatalf("expected match")
	}
	if length < len("sharedcontent") {
		t.Fatalf("expected match to cover full shared content, got length %d", length)
	}
	if startA != 3 || startB != 3 {
		t.Fatalf("expected both starts at 3, got %d, %d", startA, startB)
	}
}

func TestIntervalsOverlap(t *testing.T) {
	if !intervalsOverlap(0, 5, 10) {
		t.Fatalf("expected overlap")
	}
	if intervalsOverlap(0, 20, 10) {
		t.Fatalf("expected no overlap")
	}
}
