package main

import (
	"errors"
	"testing"

	"github.com/ivoronin/clonewatch/internal/types"
	"github.com/spf13/cobra"
)

func TestFinalizeOptionsRejectsOverflow(t *testing.T) {
	var o cliOptions
	bindOptionFlags(&cobra.Command{}, &o)
	o.MaxTotalBytes = maxSafeInt + 1

	err := finalizeOptions(&o)
	if err == nil {
		t.Fatalf("expected an overflow error")
	}
	var ae *argError
	if !errors.As(err, &ae) {
		t.Fatalf("expected an *argError, got %T: %v", err, err)
	}
}

func TestFinalizeOptionsAcceptsMaxSafeInt(t *testing.T) {
	var o cliOptions
	bindOptionFlags(&cobra.Command{}, &o)
	o.MaxTotalBytes = maxSafeInt

	if err := finalizeOptions(&o); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestFinalizeOptionsTogglesGitignoreAndProgress(t *testing.T) {
	var o cliOptions
	bindOptionFlags(&cobra.Command{}, &o)
	o.noGitignore, o.noProgress = true, true

	if err := finalizeOptions(&o); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.RespectGitignore {
		t.Fatalf("expected --no-gitignore to clear RespectGitignore")
	}
	if o.ShowProgress {
		t.Fatalf("expected --no-progress to clear ShowProgress")
	}
}

func TestBindOptionFlagsAppliesDefaults(t *testing.T) {
	var o cliOptions
	defaults := types.DefaultScanOptions()
	bindOptionFlags(&cobra.Command{}, &o)

	if o.MinMatchLen != defaults.MinMatchLen {
		t.Errorf("MinMatchLen = %d, want default %d", o.MinMatchLen, defaults.MinMatchLen)
	}
	if o.SimilarityThreshold != defaults.SimilarityThreshold {
		t.Errorf("SimilarityThreshold = %v, want default %v", o.SimilarityThreshold, defaults.SimilarityThreshold)
	}
}

func TestClassifyRunErrorExitCodes(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{argErrorf("bad arg"), 2},
		{types.ErrCrossRepoNeedsTwo, 2},
		{types.ErrRootNotExist, 2},
		{types.ErrRootNotDirectory, 2},
		{types.ErrInvalidOption("min_match_len must be >= 1"), 2},
		{errors.New("some unexpected disk error"), 1},
	}
	for _, c := range cases {
		if got := classifyRunError(c.err); got != c.want {
			t.Errorf("classifyRunError(%v) = %d, want %d", c.err, got, c.want)
		}
	}
}

func TestExitCodeForFlagParseError(t *testing.T) {
	if got := exitCodeFor(nil); got != 0 {
		t.Errorf("exitCodeFor(nil) = %d, want 0", got)
	}
	if got := exitCodeFor(errors.New("unknown flag")); got != 2 {
		t.Errorf("exitCodeFor(err) = %d, want 2", got)
	}
}

func TestFinalExitCodeStrictDemotesOnFatalSkip(t *testing.T) {
	var stats types.ScanStats
	if finalExitCode(true, stats) != 0 {
		t.Fatalf("expected exit 0 with no fatal skips")
	}
	stats.SkippedPermissionDenied.Store(1)
	if finalExitCode(true, stats) != 1 {
		t.Fatalf("expected --strict to demote exit code to 1 on a fatal skip")
	}
	if finalExitCode(false, stats) != 0 {
		t.Fatalf("expected exit 0 without --strict regardless of fatal skips")
	}
}

func TestRootsOrCwdDefaultsToCurrentDirectory(t *testing.T) {
	if got := rootsOrCwd(nil); len(got) != 1 {
		t.Fatalf("expected exactly one default root, got %v", got)
	}
	if got := rootsOrCwd([]string{"/a", "/b"}); len(got) != 2 {
		t.Fatalf("expected explicit roots to pass through unchanged, got %v", got)
	}
}
