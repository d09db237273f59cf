package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ivoronin/clonewatch"
	"github.com/ivoronin/clonewatch/internal/types"
	"github.com/spf13/cobra"
)

func newFilesCmd() *cobra.Command {
	var o cliOptions

	cmd := &cobra.Command{
		Use:   "files [roots...]",
		Short: "Find whole-file, whitespace-insensitive duplicates",
		RunE: func(_ *cobra.Command, args []string) error {
			if err := finalizeOptions(&o); err != nil {
				lastExitCode = classifyRunError(err)
				return nil
			}

			groups, stats, err := clonewatch.FindDuplicateFilesWithStats(rootsOrCwd(args), o.ScanOptions)
			if err != nil {
				lastExitCode = classifyRunError(err)
				return nil
			}

			printFileGroups(groups, o.jsonOutput)
			lastExitCode = finalExitCode(o.strict, stats)
			return nil
		},
	}

	bindOptionFlags(cmd, &o)
	return cmd
}

func printFileGroups(groups []types.DuplicateGroup, asJSON bool) {
	if asJSON {
		_ = json.NewEncoder(os.Stdout).Encode(groups)
		return
	}
	for _, g := range groups {
		fmt.Printf("duplicate file group (%d bytes, %d copies):\n", g.NormalizedLen, len(g.Occurrences))
		for _, occ := range g.Occurrences {
			fmt.Printf("  %s:%s\n", occ.RepoLabel, occ.RelPath)
		}
	}
}
