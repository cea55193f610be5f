package cmd

import (
	"flag"
	"fmt"

	"svgsmith/internal/session"
)

func cmdRuns(args []string) error {
	fs := flag.NewFlagSet("runs", flag.ExitOnError)
	outputDir := fs.String("output", "./output", "Output directory to scan")
	fs.StringVar(outputDir, "o", "./output", "Output directory (shorthand)")
	fs.Parse(args)

	results, err := session.ListResults(*outputDir)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Printf("No runs found under %s\n", *outputDir)
		return nil
	}

	for _, res := range results {
		best := "-"
		if res.BestIndex >= 0 {
			best = fmt.Sprintf("%d", res.BestIndex)
		}
		fmt.Printf("%-20s %-10s best=%-3s candidates=%-2d %s\n",
			res.Target, res.Status, best, len(res.Candidates), res.UpdatedAt.Format("2006-01-02 15:04:05"))
		if res.Error != "" {
			fmt.Printf("  error: %s\n", res.Error)
		}
	}
	return nil
}
