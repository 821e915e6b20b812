package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/slopwatch/slopwatch/internal/state"
	"github.com/slopwatch/slopwatch/internal/types"
)

var (
	findingsStatus string
	findingsLimit  int
)

var findingsCmd = &cobra.Command{
	Use:   "findings [pattern]",
	Short: "List tracked findings",
	Long: `List findings, optionally filtered by a pattern (exact identity,
detector name, directory prefix, or glob) and by status.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		language, err := lang()
		if err != nil {
			return err
		}
		st, err := store.Load(language)
		if err != nil {
			return err
		}

		pattern := "*"
		if len(args) == 1 {
			pattern = args[0]
		}
		matches := state.MatchFindings(st, pattern, findingsStatus)

		if len(matches) == 0 {
			fmt.Println("No findings match.")
			return nil
		}

		gray := color.New(color.FgHiBlack).SprintFunc()
		shown := 0
		for _, f := range matches {
			if findingsLimit > 0 && shown >= findingsLimit {
				fmt.Printf("%s\n", gray(fmt.Sprintf("... and %d more", len(matches)-shown)))
				break
			}
			fmt.Printf("%s %s T%d %s\n", statusBadge(f.Status), f.ID, f.Tier, gray(f.Message))
			if f.Note != "" {
				fmt.Printf("    %s\n", gray("note: "+f.Note))
			}
			shown++
		}
		fmt.Printf("\n%d finding(s)\n", len(matches))
		return nil
	},
}

func statusBadge(s types.Status) string {
	switch s {
	case types.StatusOpen:
		return color.New(color.FgRed).Sprint("●")
	case types.StatusSuspectHeld:
		return color.New(color.FgYellow).Sprint("⚠")
	case types.StatusFixed:
		return color.New(color.FgGreen).Sprint("✓")
	case types.StatusWontfix:
		return color.New(color.FgYellow).Sprint("~")
	case types.StatusFalsePositive, types.StatusIgnored:
		return color.New(color.FgHiBlack).Sprint("○")
	default:
		return "?"
	}
}

func init() {
	findingsCmd.Flags().StringVarP(&findingsStatus, "status", "s", "", "Filter by status (open, fixed, wontfix, false_positive, ignored, suspect_held)")
	findingsCmd.Flags().IntVar(&findingsLimit, "limit", 50, "Maximum findings to print (0 for all)")
	rootCmd.AddCommand(findingsCmd)
}
