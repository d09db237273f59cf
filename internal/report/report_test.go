package report

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ivoronin/clonewatch/internal/progress"
	"github.com/ivoronin/clonewatch/internal/types"
)

func writeRepo(t *testing.T, files map[string]string) types.Repo {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	return types.NewRepo(0, dir)
}

func noopBar() *progress.Bar { return progress.New(false, -1) }

func TestFilesFindsWhitespaceInsensitiveDuplicate(t *testing.T) {
	repo := writeRepo(t, map[string]string{
		"a.txt": "a b\nc",
		"b.txt": "ab\tc",
	})
	opts := types.DefaultScanOptions()

	groups, stats := Files([]types.Repo{repo}, opts, noopBar())
	if len(groups) != 1 {
		t.Fatalf("expected 1 duplicate group, got %d", len(groups))
	}
	if len(groups[0].Occurrences) != 2 {
		t.Fatalf("expected 2 occurrences, got %d", len(groups[0].Occurrences))
	}
	if stats.ScannedFiles.Load() != 2 {
		t.Fatalf("expected 2 scanned files, got %d", stats.ScannedFiles.Load())
	}
}

func TestCodeSpansFindsCrossRepoMatch(t *testing.T) {
	shared := "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	repoA := writeRepo(t, map[string]string{"x.txt": "zzzqqqq(" + shared + ")wwwwrrr\n"})
	repoB := writeRepo(t, map[string]string{"y.txt": "mmmnnnn(" + shared + ")kkkkjjj\n"})
	repoA.ID, repoB.ID = 0, 1

	opts := types.DefaultScanOptions()
	opts.MinMatchLen = 50

	groups, _ := CodeSpans([]types.Repo{repoA, repoB}, opts, noopBar())
	if len(groups) != 1 {
		t.Fatalf("expected 1 span group, got %d", len(groups))
	}
	if groups[0].NormalizedLen != len(shared) {
		t.Fatalf("expected normalized_len %d, got %d", len(shared), groups[0].NormalizedLen)
	}
}

func TestGenerateProducesTokenSpanAndBlockSections(t *testing.T) {
	repoA := writeRepo(t, map[string]string{"a.js": "function f(x) { return x + 1; }\n"})
	repoB := writeRepo(t, map[string]string{"b.js": "function g(y) { return y + 1; }\n"})
	repoA.ID, repoB.ID = 0, 1

	opts := types.DefaultScanOptions()
	opts.MinTokenLen = 5
	opts.CrossRepoOnly = true

	rep, stats := Generate([]types.Repo{repoA, repoB}, opts, noopBar())
	if len(rep.TokenSpanDuplicates) == 0 {
		t.Fatalf("expected non-empty token span duplicates")
	}
	if len(rep.BlockDuplicates) == 0 {
		t.Fatalf("expected non-empty block duplicates")
	}
	if stats.ScannedFiles.Load() != 2 {
		t.Fatalf("expected 2 scanned files, got %d", stats.ScannedFiles.Load())
	}
}

func TestGenerateFindsLineSpanDuplicateAcrossRepos(t *testing.T) {
	// The line-span detector winnows 2-line fingerprints with a window of 8,
	// so only a shared run of at least 9 lines is sure to share a fingerprint.
	shared := "const shared_total_accumulator = compute_running_subtotal(a, b, c);\n" +
		"const shared_result_value = finalize_computed_subtotal(shared_total_accumulator);\n" +
		"const shared_tax_rate = lookup_regional_tax_rate(shared_result_value);\n" +
		"const shared_tax_amount = apply_tax_rate(shared_result_value, shared_tax_rate);\n" +
		"const shared_discount = compute_loyalty_discount(shared_result_value);\n" +
		"const shared_grand_total = shared_result_value + shared_tax_amount - shared_discount;\n" +
		"const shared_rounded_total = round_to_cents(shared_grand_total);\n" +
		"const shared_receipt_line = format_receipt_line(shared_rounded_total);\n" +
		"emit_receipt_line_to_ledger(shared_receipt_line);\n"
	repoA := writeRepo(t, map[string]string{"a.js": "let x = 1;\n" + shared + "let y = 2;\n"})
	repoB := writeRepo(t, map[string]string{"b.js": "let z = 3;\n" + shared + "let w = 4;\n"})
	repoA.ID, repoB.ID = 0, 1

	opts := types.DefaultScanOptions()
	opts.MinMatchLen = 50
	opts.CrossRepoOnly = true

	rep, _ := Generate([]types.Repo{repoA, repoB}, opts, noopBar())
	if len(rep.LineSpanDuplicates) == 0 {
		t.Fatalf("expected a non-empty line-span duplicates section")
	}
	if len(rep.LineSpanDuplicates[0].Occurrences) < 2 {
		t.Fatalf("expected at least 2 occurrences in the line-span group")
	}
}

func TestAcceptLineSpanRejectsShortTotalCharCount(t *testing.T) {
	a := newAccum()
	a.lineCharCounts[0] = []int{1, 1, 1}

	accept := a.acceptLineSpan(10)
	if accept(0, 0, 3) {
		t.Fatalf("expected accept_match to reject a total char count below min_char_len")
	}

	accept = a.acceptLineSpan(2)
	if !accept(0, 0, 3) {
		t.Fatalf("expected accept_match to accept once the running total reaches min_char_len")
	}
}

func TestGenerateFillsEmptyPreviews(t *testing.T) {
	repoA := writeRepo(t, map[string]string{"a.js": "function f(x) { return x + 1; }\n"})
	repoB := writeRepo(t, map[string]string{"b.js": "function g(y) { return y + 1; }\n"})
	repoA.ID, repoB.ID = 0, 1

	opts := types.DefaultScanOptions()
	opts.MinTokenLen = 5
	opts.CrossRepoOnly = true

	rep, _ := Generate([]types.Repo{repoA, repoB}, opts, noopBar())
	for _, g := range rep.TokenSpanDuplicates {
		if g.Occurrences[0].Preview == "" {
			t.Fatalf("expected first occurrence's preview to be filled")
		}
	}
}

func TestResolveReportBudgetsDefaults(t *testing.T) {
	opts := types.DefaultScanOptions()
	resolved := resolveReportBudgets(opts)
	if resolved.MaxTotalBytes != defaultMaxTotalBytes {
		t.Fatalf("expected default max_total_bytes, got %d", resolved.MaxTotalBytes)
	}
	if resolved.MaxNormalizedChars != resolved.MaxTotalBytes {
		t.Fatalf("expected max_normalized_chars to default to max_total_bytes")
	}
	if resolved.MaxTokens != resolved.MaxTotalBytes/4 {
		t.Fatalf("expected max_tokens to default to max_total_bytes/4")
	}
}

func TestClampFingerprint(t *testing.T) {
	fp, win := clampFingerprint(50)
	if fp != 25 {
		t.Fatalf("expected fingerprint_len clamped to 25, got %d", fp)
	}
	if win != 50-25+1 {
		t.Fatalf("expected window_size %d, got %d", 50-25+1, win)
	}

	fp, win = clampFingerprint(5)
	if fp != 5 || win != 1 {
		t.Fatalf("expected fingerprint_len=5, window_size=1 for min_len=5, got %d/%d", fp, win)
	}
}
