package main

import (
	"fmt"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/slopwatch/slopwatch/internal/score"
	"github.com/slopwatch/slopwatch/internal/types"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Summarize tracked state across languages",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		langs, err := store.Languages()
		if err != nil {
			return err
		}
		if langFlag != "" {
			langs = []string{langFlag}
		}
		if len(langs) == 0 {
			fmt.Println("No tracked state yet. Run: slopwatch scan --lang <lang>")
			return nil
		}

		cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
		yellow := color.New(color.FgYellow).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()

		for _, language := range langs {
			st, err := store.Load(language)
			if err != nil {
				return err
			}
			res := score.Compute(st, policies)
			counts := st.CountByStatus()

			fmt.Printf("\n%s\n", cyan(fmt.Sprintf("=== %s ===", language)))
			fmt.Printf("  Scans:        %d\n", st.ScanCount)
			if st.LastScan != nil {
				fmt.Printf("  Last scan:    %s\n", st.LastScan.Format("2006-01-02 15:04:05"))
			}
			fmt.Printf("  Open:         %d\n", counts[types.StatusOpen])
			if held := counts[types.StatusSuspectHeld]; held > 0 {
				fmt.Printf("  %s\n", yellow(fmt.Sprintf("Held:         %d (suspect detector silence)", held)))
			}
			fmt.Printf("  Resolved:     %d fixed, %d wontfix, %d false-positive, %d ignored\n",
				counts[types.StatusFixed], counts[types.StatusWontfix],
				counts[types.StatusFalsePositive], counts[types.StatusIgnored])
			fmt.Printf("  Strict:       %s (target %.1f)\n", scoreColor(res.Strict), cfg.TargetStrict)

			open := st.OpenCountByDetector()
			if len(open) > 0 {
				detectors := make([]string, 0, len(open))
				for d := range open {
					detectors = append(detectors, d)
				}
				sort.Strings(detectors)
				fmt.Printf("  %s ", gray("By detector:"))
				for i, d := range detectors {
					if i > 0 {
						fmt.Print(", ")
					}
					fmt.Printf("%s=%d", d, open[d])
				}
				fmt.Println()
			}
		}
		fmt.Println()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
