// Package report runs the scan-and-detect pipeline of spec.md §4.9: one
// pass over every root accumulating the per-file artifacts each detector
// needs, then each detector in a fixed order, assembled into either a
// single-detector result (FindDuplicateFiles/FindDuplicateCodeSpans) or the
// composite DuplicationReport. Grounded on the teacher's
// cmd/dupedog/dedupe.go:runDedupe phase-sequenced orchestration (scan →
// screen → verify → dedupe), adapted to a single scan feeding independent,
// order-fixed detector phases instead of a strictly linear pipeline.
// Detectors run strictly sequentially, not fanned out across goroutines:
// spec.md §5 treats the whole core as single-threaded per invocation past
// the scanner's internal directory-walk concurrency.
package report

import (
	"bytes"
	"context"
	"os"
	"path/filepath"

	"github.com/ivoronin/clonewatch/internal/blockdup"
	"github.com/ivoronin/clonewatch/internal/dupefiles"
	"github.com/ivoronin/clonewatch/internal/normalize"
	"github.com/ivoronin/clonewatch/internal/progress"
	"github.com/ivoronin/clonewatch/internal/scanner"
	"github.com/ivoronin/clonewatch/internal/similarity"
	"github.com/ivoronin/clonewatch/internal/types"
	"github.com/ivoronin/clonewatch/internal/winnow"
)

// defaultMaxTotalBytes is the 256 MiB ceiling spec.md §4.9 assigns the
// report pipeline when the caller left max_total_bytes unset; the two
// narrower finder entry points leave an unset budget as scanner-level
// "unbounded" (spec.md §3), so this default is resolved here, not in
// types.ScanOptions.
const defaultMaxTotalBytes = 256 << 20

// resolveReportBudgets fills max_total_bytes / max_normalized_chars /
// max_tokens defaults that spec.md §4.9 scopes specifically to the report
// pipeline.
func resolveReportBudgets(opts types.ScanOptions) types.ScanOptions {
	if opts.MaxTotalBytes == 0 {
		opts.MaxTotalBytes = defaultMaxTotalBytes
	}
	if opts.MaxNormalizedChars == 0 {
		opts.MaxNormalizedChars = opts.MaxTotalBytes
	}
	if opts.MaxTokens == 0 {
		opts.MaxTokens = opts.MaxTotalBytes / 4
	}
	return opts
}

// clampFingerprint derives fingerprint_len/window_size from min_len per
// spec.md §4.4's default relationship.
func clampFingerprint(minLen int) (fingerprintLen, windowSize int) {
	fingerprintLen = minLen
	if fingerprintLen < 1 {
		fingerprintLen = 1
	}
	if fingerprintLen > 25 {
		fingerprintLen = 25
	}
	windowSize = minLen - fingerprintLen + 1
	if windowSize < 1 {
		windowSize = 1
	}
	return fingerprintLen, windowSize
}

// needs selects which per-file artifacts a given entry point requires, so
// FindDuplicateFiles and FindDuplicateCodeSpans avoid computing streams
// only the full report consumes.
type needs struct {
	files      bool
	lineSpans  bool
	exactSpans bool
	tokenSpans bool
	blocks     bool
	similarity bool
}

// reportNeeds is every artifact at once, used by Generate.
var reportNeeds = needs{files: true, lineSpans: true, exactSpans: true, tokenSpans: true, blocks: true, similarity: true}

// lineSpanMinLen, lineSpanFingerprintLen, lineSpanWindowSize are the
// line-span detector's fixed winnowing parameters (spec.md §4.4 point 4's
// "used by line-span detector" accept_match, concretized in
// original_source/crates/core/src/report/detect/line_spans.rs): unlike the
// code-char/token-span detectors, these never derive from min_match_len —
// the line-level length filter is applied entirely via acceptLineSpan's
// summed character-count check instead.
const (
	lineSpanMinLen         = 2
	lineSpanFingerprintLen = 2
	lineSpanWindowSize     = 8
)

// fileLocation records enough to re-seek a file's source lines for a
// preview after detection (spec.md §4.9's last step).
type fileLocation struct {
	repoID  int
	relPath string
	absPath string
}

// accum collects every per-file artifact produced during the single scan
// pass, keyed by a process-wide file ID so every detector's View shares
// file identity.
type accum struct {
	nextFileID int

	dupEntries    []dupefiles.IndexEntry
	lineSpanViews []winnow.View
	exactViews    []winnow.View
	tokenViews    []winnow.View
	blockViews    []blockdup.View
	simViews      []similarity.View

	lineCharCounts map[int][]int // fileID -> per-line-token character count, for the line-span accept_match filter

	locations []fileLocation
	repoRoots map[int]string
}

func newAccum() *accum {
	return &accum{repoRoots: make(map[int]string), lineCharCounts: make(map[int][]int)}
}

// scanAndAccumulate runs scanner.ScanRoot over every repo, building exactly
// the artifacts `need` selects, enforcing the report-pipeline-scoped
// normalized-chars/tokens budgets only when the full report requests every
// stream (spec.md §4.3, §4.9).
func scanAndAccumulate(repos []types.Repo, opts types.ScanOptions, bar *progress.Bar, need needs) (*accum, *types.ScanStats) {
	stats := types.NewScanStats()
	a := newAccum()

	var cumChars, cumTokens int64
	enforceCharsBudget := need == reportNeeds

	for _, repo := range repos {
		a.repoRoots[repo.ID] = repo.Root

		scanner.ScanRoot(context.Background(), repo, opts, stats, bar, func(f scanner.ScannedFile) bool {
			var cc normalize.CodeCharStream
			var ts normalize.TokenStream
			var blocks []types.Block

			if need.exactSpans || enforceCharsBudget {
				cc = normalize.CodeChars(f.Data)
			}
			if need.tokenSpans || need.blocks || need.similarity || enforceCharsBudget {
				ts = normalize.Tokenize(f.Data)
			}
			if need.blocks || need.similarity {
				blocks = normalize.ParseBlocks(ts.Tokens, ts.Lines)
			}

			if enforceCharsBudget {
				if cumChars+int64(len(cc.Codepoints)) > opts.MaxNormalizedChars {
					stats.SkippedBudgetMaxChars.Add(1)
					return false
				}
				if cumTokens+int64(len(ts.Tokens)) > opts.MaxTokens {
					stats.SkippedBudgetMaxTokens.Add(1)
					return false
				}
				cumChars += int64(len(cc.Codepoints))
				cumTokens += int64(len(ts.Tokens))
			}

			fileID := a.nextFileID
			a.nextFileID++
			a.locations = append(a.locations, fileLocation{
				repoID:  repo.ID,
				relPath: f.RelPath,
				absPath: filepath.Join(repo.Root, filepath.FromSlash(f.RelPath)),
			})

			if need.files {
				a.dupEntries = append(a.dupEntries, dupefiles.IndexEntry{
					Candidate: dupefiles.FileCandidate{RepoID: repo.ID, RepoLabel: repo.Label, RelPath: f.RelPath},
					Data:      f.Data,
				})
			}

			if need.exactSpans {
				symbols := make([]uint32, len(cc.Codepoints))
				for i, r := range cc.Codepoints {
					symbols[i] = uint32(r)
				}
				a.exactViews = append(a.exactViews, winnow.View{
					FileID: fileID, RepoID: repo.ID, RepoLabel: repo.Label, RelPath: f.RelPath,
					Symbols: symbols, LineMap: cc.LineMap,
				})
			}

			if need.tokenSpans {
				a.tokenViews = append(a.tokenViews, winnow.View{
					FileID: fileID, RepoID: repo.ID, RepoLabel: repo.Label, RelPath: f.RelPath,
					Symbols: ts.Tokens, LineMap: ts.Lines,
				})
			}

			if need.lineSpans {
				lt := normalize.LineTokens(f.Data)
				if len(lt.Tokens) > 0 {
					a.lineSpanViews = append(a.lineSpanViews, winnow.View{
						FileID: fileID, RepoID: repo.ID, RepoLabel: repo.Label, RelPath: f.RelPath,
						Symbols: lt.Tokens, LineMap: lt.LineNumbers,
					})
					a.lineCharCounts[fileID] = lt.CharCounts
				}
			}

			if need.blocks {
				a.blockViews = append(a.blockViews, blockdup.View{
					FileID: fileID, RepoID: repo.ID, RepoLabel: repo.Label, RelPath: f.RelPath,
					Tokens: ts.Tokens, TokenLines: ts.Lines, Blocks: blocks,
				})
			}

			if need.similarity {
				a.simViews = append(a.simViews, similarity.View{
					FileID: fileID, RepoID: repo.ID, RepoLabel: repo.Label, RelPath: f.RelPath,
					Tokens: ts.Tokens, Blocks: blocks,
				})
			}

			return true
		})
	}

	return a, stats
}

func (a *accum) readBytes(repoID int, relPath string) ([]byte, error) {
	root, ok := a.repoRoots[repoID]
	if !ok {
		return nil, os.ErrNotExist
	}
	return os.ReadFile(filepath.Join(root, filepath.FromSlash(relPath)))
}

func (a *accum) findAbsPath(repoID int, relPath string) string {
	for _, loc := range a.locations {
		if loc.repoID == repoID && loc.relPath == relPath {
			return loc.absPath
		}
	}
	return ""
}

// acceptLineSpan implements spec.md §4.4 point 4's accept_match for the
// line-span detector: sum the matched lines' surviving-character counts
// and accept as soon as the running total reaches minCharLen, rejecting a
// match of many short lines that never reaches it (grounded on
// original_source/crates/core/src/report/detect/line_spans.rs).
func (a *accum) acceptLineSpan(minCharLen int) winnow.AcceptMatchFunc {
	return func(fileID, start, length int) bool {
		lens := a.lineCharCounts[fileID]
		total := 0
		for i := start; i < start+length && i < len(lens); i++ {
			total += lens[i]
			if total >= minCharLen {
				return true
			}
		}
		return false
	}
}

// Files implements find_duplicate_files: one scan accumulating only
// whitespace-stripped-key candidates, then the dupefiles two-phase grouper.
func Files(repos []types.Repo, opts types.ScanOptions, bar *progress.Bar) ([]types.DuplicateGroup, *types.ScanStats) {
	a, stats := scanAndAccumulate(repos, opts, bar, needs{files: true})
	index := dupefiles.Index(a.dupEntries)
	groups := dupefiles.Verify(index, opts.CrossRepoOnly, a.readBytes)
	return types.SortAndCapFileGroups(groups, opts.MaxReportItems), stats
}

// CodeSpans implements find_duplicate_code_spans: one scan accumulating
// only code-char streams, then the winnowing match engine.
func CodeSpans(repos []types.Repo, opts types.ScanOptions, bar *progress.Bar) ([]types.DuplicateSpanGroup, *types.ScanStats) {
	a, stats := scanAndAccumulate(repos, opts, bar, needs{exactSpans: true})
	fingerprintLen, windowSize := clampFingerprint(opts.MinMatchLen)
	groups := winnow.Match(a.exactViews, opts.MinMatchLen, fingerprintLen, windowSize, opts.CrossRepoOnly, nil, nil, stats)
	a.fillSpanPreviews(groups)
	return types.SortAndCapSpanGroups(groups, opts.MaxReportItems), stats
}

// Generate implements generate_duplication_report: one scan accumulating
// every artifact, every detector run in the fixed order spec.md §4.9
// names, every section truncated to max_report_items, with empty previews
// filled by seeking source lines on disk.
func Generate(repos []types.Repo, opts types.ScanOptions, bar *progress.Bar) (types.DuplicationReport, *types.ScanStats) {
	opts = resolveReportBudgets(opts)

	a, stats := scanAndAccumulate(repos, opts, bar, reportNeeds)

	minCharLen := opts.MinMatchLen
	if minCharLen < 1 {
		minCharLen = 1
	}
	lineSpans := winnow.Match(a.lineSpanViews, lineSpanMinLen, lineSpanFingerprintLen, lineSpanWindowSize,
		opts.CrossRepoOnly, a.acceptLineSpan(minCharLen), nil, stats)

	exactFP, exactWin := clampFingerprint(opts.MinMatchLen)
	exact := winnow.Match(a.exactViews, opts.MinMatchLen, exactFP, exactWin, opts.CrossRepoOnly, nil, nil, stats)

	tokenFP, tokenWin := clampFingerprint(opts.MinTokenLen)
	tokenSpans := winnow.Match(a.tokenViews, opts.MinTokenLen, tokenFP, tokenWin, opts.CrossRepoOnly, nil, nil, stats)

	blockGroups := blockdup.FindBlockDuplicates(a.blockViews, opts.MinTokenLen, opts.CrossRepoOnly, nil)
	subtreeGroups := blockdup.FindSubtreeDuplicates(a.blockViews, opts.MinTokenLen, opts.CrossRepoOnly, nil)
	minhash := similarity.FindMinHashSimilar(a.simViews, opts.MinTokenLen, opts.SimilarityThreshold, opts.CrossRepoOnly)
	simhash := similarity.FindSimHashSimilar(a.simViews, opts.MinTokenLen, opts.SimHashMaxDistance, opts.CrossRepoOnly)

	fileGroups := dupefiles.Verify(dupefiles.Index(a.dupEntries), opts.CrossRepoOnly, a.readBytes)

	for _, groups := range [][]types.DuplicateSpanGroup{lineSpans, exact, tokenSpans, blockGroups, subtreeGroups} {
		a.fillSpanPreviews(groups)
	}

	rep := types.DuplicationReport{
		FileDuplicates:      types.SortAndCapFileGroups(fileGroups, opts.MaxReportItems),
		LineSpanDuplicates:  types.SortAndCapSpanGroups(lineSpans, opts.MaxReportItems),
		ExactSpanDuplicates: types.SortAndCapSpanGroups(exact, opts.MaxReportItems),
		TokenSpanDuplicates: types.SortAndCapSpanGroups(tokenSpans, opts.MaxReportItems),
		BlockDuplicates:     types.SortAndCapSpanGroups(blockGroups, opts.MaxReportItems),
		SubtreeDuplicates:   types.SortAndCapSpanGroups(subtreeGroups, opts.MaxReportItems),
		MinHashSimilar:      types.SortAndCapPairs(minhash, opts.MaxReportItems),
		SimHashSimilar:      types.SortAndCapPairs(simhash, opts.MaxReportItems),
	}
	return rep, stats
}

const previewMaxChars = 120

// fillSpanPreviews implements spec.md §4.9's last step: for any group whose
// first occurrence's preview is still empty after detection, seek that
// file on disk and concatenate [start_line, end_line] up to
// previewMaxChars.
func (a *accum) fillSpanPreviews(groups []types.DuplicateSpanGroup) {
	for gi := range groups {
		if len(groups[gi].Occurrences) == 0 || groups[gi].Occurrences[0].Preview != "" {
			continue
		}
		occ := groups[gi].Occurrences[0]
		absPath := a.findAbsPath(occ.RepoID, occ.RelPath)
		if absPath == "" {
			continue
		}
		groups[gi].Occurrences[0].Preview = readLinesPreview(absPath, occ.StartLine, occ.EndLine)
	}
}

func readLinesPreview(absPath string, startLine, endLine int) string {
	data, err := os.ReadFile(absPath)
	if err != nil {
		return ""
	}
	lines := bytes.Split(data, []byte("\n"))
	if startLine < 1 || startLine > len(lines) {
		return ""
	}
	if endLine > len(lines) {
		endLine = len(lines)
	}

	var out bytes.Buffer
	for i := startLine; i <= endLine && out.Len() < previewMaxChars; i++ {
		if out.Len() > 0 {
			out.WriteByte('\n')
		}
		out.Write(lines[i-1])
	}

	s := out.String()
	if len(s) > previewMaxChars {
		s = s[:previewMaxChars]
	}
	return s
}
