package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent scan history and score trend",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		language, err := lang()
		if err != nil {
			return err
		}
		st, err := store.Load(language)
		if err != nil {
			return err
		}
		if len(st.History) == 0 {
			fmt.Println("No scans recorded yet.")
			return nil
		}

		cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()

		fmt.Printf("\n%s\n\n", cyan(fmt.Sprintf("=== Scan history (%s) ===", language)))
		for _, h := range st.History {
			fmt.Printf("  #%-4d %s  %s  open=%-4d lenient=%s strict=%s",
				h.ScanID,
				h.Timestamp.Format("2006-01-02 15:04"),
				gray(fmt.Sprintf("%-12s", h.ScanPath)),
				h.Open,
				scoreColor(h.Lenient),
				scoreColor(h.Strict))
			if h.New > 0 {
				fmt.Printf("  +%d new", h.New)
			}
			if h.AutoResolved > 0 {
				fmt.Printf("  -%d resolved", h.AutoResolved)
			}
			if h.Reopened > 0 {
				fmt.Printf("  %s", color.New(color.FgRed).Sprintf("%d reopened", h.Reopened))
			}
			if h.SuspectHeld > 0 {
				fmt.Printf("  %s", color.New(color.FgYellow).Sprintf("%d held", h.SuspectHeld))
			}
			fmt.Println()
		}

		first, last := st.History[0], st.History[len(st.History)-1]
		delta := last.Strict - first.Strict
		trend := fmt.Sprintf("%+.1f strict over %d scan(s)", delta, len(st.History))
		switch {
		case delta > 0:
			fmt.Printf("\n  %s\n\n", color.New(color.FgGreen).Sprint(trend))
		case delta < 0:
			fmt.Printf("\n  %s\n\n", color.New(color.FgRed).Sprint(trend))
		default:
			fmt.Printf("\n  %s\n\n", gray(trend))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
}
