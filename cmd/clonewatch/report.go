package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ivoronin/clonewatch"
	"github.com/ivoronin/clonewatch/internal/types"
	"github.com/spf13/cobra"
)

func newReportCmd() *cobra.Command {
	var o cliOptions

	cmd := &cobra.Command{
		Use:   "report [roots...]",
		Short: "Generate the composite duplication report across every detector",
		RunE: func(_ *cobra.Command, args []string) error {
			if err := finalizeOptions(&o); err != nil {
				lastExitCode = classifyRunError(err)
				return nil
			}

			rep, stats, err := clonewatch.GenerateDuplicationReportWithStats(rootsOrCwd(args), o.ScanOptions)
			if err != nil {
				lastExitCode = classifyRunError(err)
				return nil
			}

			printReport(rep, o.jsonOutput)
			lastExitCode = finalExitCode(o.strict, stats)
			return nil
		},
	}

	bindOptionFlags(cmd, &o)
	return cmd
}

func printReport(rep types.DuplicationReport, asJSON bool) {
	if asJSON {
		_ = json.NewEncoder(os.Stdout).Encode(rep)
		return
	}

	fmt.Printf("file duplicates: %d groups\n", len(rep.FileDuplicates))
	printFileGroups(rep.FileDuplicates, false)
	fmt.Printf("line-span duplicates: %d groups\n", len(rep.LineSpanDuplicates))
	printSpanGroups(rep.LineSpanDuplicates, false)
	fmt.Printf("exact span duplicates: %d groups\n", len(rep.ExactSpanDuplicates))
	printSpanGroups(rep.ExactSpanDuplicates, false)
	fmt.Printf("token-span duplicates: %d groups\n", len(rep.TokenSpanDuplicates))
	printSpanGroups(rep.TokenSpanDuplicates, false)
	fmt.Printf("block duplicates: %d groups\n", len(rep.BlockDuplicates))
	printSpanGroups(rep.BlockDuplicates, false)
	fmt.Printf("subtree duplicates: %d groups\n", len(rep.SubtreeDuplicates))
	printSpanGroups(rep.SubtreeDuplicates, false)

	fmt.Printf("minhash-similar pairs: %d\n", len(rep.MinHashSimilar))
	for _, p := range rep.MinHashSimilar {
		fmt.Printf("  %.2f %s:%s:%d-%d <-> %s:%s:%d-%d\n",
			p.Score, p.A.RepoLabel, p.A.RelPath, p.A.StartLine, p.A.EndLine,
			p.B.RepoLabel, p.B.RelPath, p.B.StartLine, p.B.EndLine)
	}

	fmt.Printf("simhash-similar pairs: %d\n", len(rep.SimHashSimilar))
	for _, p := range rep.SimHashSimilar {
		fmt.Printf("  %.2f (dist %d) %s:%s:%d-%d <-> %s:%s:%d-%d\n",
			p.Score, p.Distance, p.A.RepoLabel, p.A.RelPath, p.A.StartLine, p.A.EndLine,
			p.B.RepoLabel, p.B.RelPath, p.B.StartLine, p.B.EndLine)
	}
}
