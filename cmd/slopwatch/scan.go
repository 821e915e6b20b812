package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/slopwatch/slopwatch/internal/scan"
)

var (
	scanForceResolve bool
)

var scanCmd = &cobra.Command{
	Use:   "scan [path]",
	Short: "Scan the tree and reconcile findings against state",
	Long: `Run the language's detector phases over the tree (or a subtree), then
merge the results into persisted state: new findings open, previously seen
ones refresh, and in-scope findings that disappeared auto-resolve.

A detector that suddenly reports zero findings after many is held suspect
instead of auto-resolving; pass --force-resolve once you have confirmed the
fixes are real.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		language, err := lang()
		if err != nil {
			return err
		}
		path := "."
		if len(args) == 1 {
			path = args[0]
		}

		p := &scan.Pipeline{
			Registry: reg,
			Store:    store,
			Policies: policies,
			Audit:    auditLog,
			Log:      logger.Named("scan"),
		}
		res, err := p.Run(cmd.Context(), scan.Options{
			Lang:          language,
			Path:          path,
			Root:          projectRoot,
			ForceResolve:  scanForceResolve,
			Ignore:        cfg.Ignore,
			Exclude:       cfg.Exclude,
			ZoneOverrides: cfg.Zones(),
		})
		if err != nil {
			return err
		}

		printScanResult(language, res)
		return nil
	},
}

func printScanResult(language string, res *scan.Result) {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()

	fmt.Printf("\n%s\n\n", cyan(fmt.Sprintf("=== Scan #%d (%s) ===", res.Scan.ScanID, language)))
	fmt.Printf("  Files scanned:  %d\n", res.FilesScanned)
	fmt.Printf("  New:            %d\n", res.Summary.New)
	fmt.Printf("  Auto-resolved:  %d\n", res.Summary.AutoResolved)
	fmt.Printf("  Reopened:       %d\n", res.Summary.Reopened)
	fmt.Printf("  Open now:       %d\n", res.Summary.TotalCurrent)
	if res.Summary.SkippedMalformed > 0 {
		fmt.Printf("  %s\n", gray(fmt.Sprintf("Skipped %d malformed record(s)", res.Summary.SkippedMalformed)))
	}

	if len(res.Summary.SuspectDetectors) > 0 {
		fmt.Printf("\n%s\n", yellow(fmt.Sprintf(
			"⚠ Suspect: %s reported zero findings after many. Held for review; re-run with --force-resolve if the fixes are real.",
			strings.Join(res.Summary.SuspectDetectors, ", "))))
	}
	if len(res.Summary.ChronicReopeners) > 0 {
		fmt.Printf("\n%s\n", red(fmt.Sprintf("%d finding(s) have reopened repeatedly:", len(res.Summary.ChronicReopeners))))
		for _, id := range res.Summary.ChronicReopeners {
			fmt.Printf("  %s\n", id)
		}
	}
	for _, pe := range res.PhaseErrors {
		fmt.Printf("\n%s\n", red("detector failed: "+pe))
	}

	fmt.Printf("\n  Lenient: %s   Strict: %s\n\n",
		scoreColor(res.Scores.Lenient), scoreColor(res.Scores.Strict))
}

func scoreColor(v float64) string {
	s := fmt.Sprintf("%.1f", v)
	switch {
	case v >= 90:
		return color.New(color.FgGreen).Sprint(s)
	case v >= 70:
		return color.New(color.FgYellow).Sprint(s)
	default:
		return color.New(color.FgRed).Sprint(s)
	}
}

func init() {
	scanCmd.Flags().BoolVar(&scanForceResolve, "force-resolve", false, "Bypass the suspect guard and auto-resolve anyway")
	rootCmd.AddCommand(scanCmd)
}
