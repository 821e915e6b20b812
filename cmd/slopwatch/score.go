package main

import (
	"fmt"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/slopwatch/slopwatch/internal/score"
	"github.com/slopwatch/slopwatch/internal/types"
)

var scoreVerbose bool

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Show health scores for the current state",
	Long: `Compute scores from persisted state without scanning.

Lenient counts open debt only: resolving a finding any terminal way raises
it. Strict also counts wontfix, so deliberately accepted debt keeps pulling
it down. Strict-all additionally includes excluded zones and ignored
findings; only confirmed false positives escape it.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		language, err := lang()
		if err != nil {
			return err
		}
		st, err := store.Load(language)
		if err != nil {
			return err
		}
		res := score.Compute(st, policies)

		cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()

		fmt.Printf("\n%s\n\n", cyan(fmt.Sprintf("=== Scores (%s) ===", language)))
		fmt.Printf("  Lenient:     %s\n", scoreColor(res.Lenient))
		fmt.Printf("  Strict:      %s  (target %.1f)\n", scoreColor(res.Strict), cfg.TargetStrict)
		fmt.Printf("  Strict-all:  %s\n", scoreColor(res.StrictAllDetected))
		fmt.Printf("  Mechanical:  %s\n", scoreColor(res.Mechanical))
		if res.Subjective != nil {
			fmt.Printf("  Subjective:  %s\n", scoreColor(*res.Subjective))
		} else {
			fmt.Printf("  Subjective:  %s\n", gray("none imported"))
		}
		fmt.Printf("  Overall:     %s\n", scoreColor(res.Overall))

		if scoreVerbose {
			fmt.Printf("\n%s\n", cyan("By tier:"))
			tiers := make([]int, 0, len(res.ByTier))
			for t := range res.ByTier {
				tiers = append(tiers, int(t))
			}
			sort.Ints(tiers)
			for _, t := range tiers {
				b := res.ByTier[types.Tier(t)]
				fmt.Printf("  T%d: %d open, %d held, %d wontfix, %d fixed\n",
					t, b.Open, b.SuspectHeld, b.Wontfix, b.Fixed)
			}
		}
		fmt.Println()
		return nil
	},
}

func init() {
	scoreCmd.Flags().BoolVar(&scoreVerbose, "by-tier", false, "Show per-tier breakdown")
	rootCmd.AddCommand(scoreCmd)
}
