package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ivoronin/clonewatch"
	"github.com/ivoronin/clonewatch/internal/types"
	"github.com/spf13/cobra"
)

func newSpansCmd() *cobra.Command {
	var o cliOptions

	cmd := &cobra.Command{
		Use:   "spans [roots...]",
		Short: "Find exact duplicate code spans via winnowed matching",
		RunE: func(_ *cobra.Command, args []string) error {
			if err := finalizeOptions(&o); err != nil {
				lastExitCode = classifyRunError(err)
				return nil
			}

			groups, stats, err := clonewatch.FindDuplicateCodeSpansWithStats(rootsOrCwd(args), o.ScanOptions)
			if err != nil {
				lastExitCode = classifyRunError(err)
				return nil
			}

			printSpanGroups(groups, o.jsonOutput)
			lastExitCode = finalExitCode(o.strict, stats)
			return nil
		},
	}

	bindOptionFlags(cmd, &o)
	return cmd
}

func printSpanGroups(groups []types.DuplicateSpanGroup, asJSON bool) {
	if asJSON {
		_ = json.NewEncoder(os.Stdout).Encode(groups)
		return
	}
	for _, g := range groups {
		fmt.Printf("duplicate span group (%d chars, %d copies):\n", g.NormalizedLen, len(g.Occurrences))
		for _, occ := range g.Occurrences {
			fmt.Printf("  %s:%s:%d-%d\n", occ.RepoLabel, occ.RelPath, occ.StartLine, occ.EndLine)
		}
	}
}
