package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ivoronin/clonewatch/internal/types"
	"github.com/spf13/cobra"
)

// maxSafeInt is 2^53-1, the largest integer exactly representable in a
// float64 (spec.md §6: "numeric parsing rejects values that exceed 2^53-1").
const maxSafeInt = 1<<53 - 1

// lastExitCode is set by a subcommand's RunE before it returns, so main can
// report the exit code spec.md §6 assigns even though cobra itself only
// distinguishes "no error" from "error".
var lastExitCode int

// cliOptions holds every ScanOptions-bound flag plus CLI-only knobs.
type cliOptions struct {
	types.ScanOptions

	ignoreDirs  []string
	noGitignore bool
	noProgress  bool
	strict      bool
	jsonOutput  bool
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "clonewatch",
		Short:         "Find duplicated and near-duplicated content across source trees",
		Version:       version + " (" + commit + ")",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newFilesCmd())
	root.AddCommand(newSpansCmd())
	root.AddCommand(newReportCmd())

	return root
}

// bindOptionFlags binds every ScanOptions field to a flag, 1:1, on cmd.
func bindOptionFlags(cmd *cobra.Command, o *cliOptions) {
	defaults := types.DefaultScanOptions()
	o.ScanOptions = defaults

	flags := cmd.Flags()
	flags.StringSliceVar(&o.ignoreDirs, "ignore-dir", defaults.IgnoreDirs, "directory name excluded at any depth (repeatable)")
	flags.Int64Var(&o.MaxFileSize, "max-file-size", defaults.MaxFileSize, "per-file byte ceiling")
	flags.Int64Var(&o.MaxFiles, "max-files", defaults.MaxFiles, "cumulative file budget (0 = unbounded)")
	flags.Int64Var(&o.MaxTotalBytes, "max-total-bytes", defaults.MaxTotalBytes, "cumulative byte budget (0 = default)")
	flags.Int64Var(&o.MaxNormalizedChars, "max-normalized-chars", defaults.MaxNormalizedChars, "cumulative normalized-char budget (0 = default)")
	flags.Int64Var(&o.MaxTokens, "max-tokens", defaults.MaxTokens, "cumulative token budget (0 = default)")
	flags.IntVar(&o.MinMatchLen, "min-match-len", defaults.MinMatchLen, "minimum normalized-char length for an exact code-span match")
	flags.IntVar(&o.MinTokenLen, "min-token-len", defaults.MinTokenLen, "minimum token count for token-span/block/subtree/similarity detectors")
	flags.Float64Var(&o.SimilarityThreshold, "similarity-threshold", defaults.SimilarityThreshold, "MinHash Jaccard estimate floor, in [0,1]")
	flags.IntVar(&o.SimHashMaxDistance, "simhash-max-distance", defaults.SimHashMaxDistance, "SimHash Hamming ceiling, in [0,64]")
	flags.IntVar(&o.MaxReportItems, "max-report-items", defaults.MaxReportItems, "per-section item cap after sorting (0 = empty report)")
	flags.BoolVar(&o.noGitignore, "no-gitignore", false, "do not honor .gitignore rules")
	flags.BoolVar(&o.CrossRepoOnly, "cross-repo-only", defaults.CrossRepoOnly, "only report groups spanning at least two roots")
	flags.BoolVar(&o.FollowSymlinks, "follow-symlinks", defaults.FollowSymlinks, "follow symlinks during the directory walk")
	flags.IntVar(&o.Workers, "workers", defaults.Workers, "directory-read concurrency")
	flags.BoolVar(&o.noProgress, "no-progress", false, "disable the progress bar")
	flags.BoolVar(&o.strict, "strict", false, "demote the exit code to 1 when any fatal skip counter is non-zero")
	flags.BoolVar(&o.jsonOutput, "json", false, "print results as JSON")
	flags.StringVar(&o.GitOverrideBinary, "git-binary", "", "absolute path overriding the git fast-path binary (requires CLONEWATCH_GIT_OVERRIDE=1)")
}

// finalizeOptions applies flag-derived adjustments that don't map directly
// onto a single ScanOptions field, and enforces the numeric-overflow rule.
func finalizeOptions(o *cliOptions) error {
	o.IgnoreDirs = o.ignoreDirs
	o.RespectGitignore = !o.noGitignore
	o.ShowProgress = !o.noProgress
	o.GitOverrideEnabled = os.Getenv("CLONEWATCH_GIT_OVERRIDE") == "1"

	for name, v := range map[string]int64{
		"max-file-size":        o.MaxFileSize,
		"max-files":            o.MaxFiles,
		"max-total-bytes":      o.MaxTotalBytes,
		"max-normalized-chars": o.MaxNormalizedChars,
		"max-tokens":           o.MaxTokens,
	} {
		if v > maxSafeInt {
			return argErrorf("--%s exceeds the maximum supported value (2^53-1)", name)
		}
	}
	return nil
}

// argError marks a CLI-level validation failure (spec.md §6 exit code 2),
// as distinct from errors the library façade raises about roots or options.
type argError struct{ msg string }

func (e *argError) Error() string { return e.msg }

func argErrorf(format string, args ...any) error {
	return &argError{msg: fmt.Sprintf(format, args...)}
}

func rootsOrCwd(args []string) []string {
	if len(args) > 0 {
		return args
	}
	cwd, err := os.Getwd()
	if err != nil {
		return []string{"."}
	}
	return []string{cwd}
}

// exitCodeFor classifies an error cobra itself raised (flag parsing, before
// any RunE ran) as spec.md §6's "invalid arguments" tier.
func exitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	return 2
}

// classifyRunError maps an error returned from the library façade or CLI
// validation to spec.md §6's exit-code scheme, prints it, and returns the
// chosen code.
func classifyRunError(err error) int {
	var ae *argError
	switch {
	case errors.As(err, &ae):
		fmt.Fprintln(os.Stderr, "error:", err)
		return 2
	case errors.Is(err, types.ErrCrossRepoNeedsTwo),
		errors.Is(err, types.ErrRootNotExist),
		errors.Is(err, types.ErrRootNotDirectory),
		strings.HasPrefix(err.Error(), "invalid option:"):
		fmt.Fprintln(os.Stderr, "error:", err)
		return 2
	default:
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
}

// finalExitCode applies --strict's exit-code demotion on top of a
// successful run (spec.md §6).
func finalExitCode(strict bool, stats types.ScanStats) int {
	if strict && stats.HasFatalSkips() {
		return 1
	}
	return 0
}
