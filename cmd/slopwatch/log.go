package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/slopwatch/slopwatch/internal/audit"
)

var logLimit int

var logCmd = &cobra.Command{
	Use:   "log [finding-id]",
	Short: "Show the audit trail",
	Long: `Show recent audit events for the language, or the full trail for one
finding identity.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if auditLog == nil {
			return fmt.Errorf("audit log is disabled (audit_log: false)")
		}
		language, err := lang()
		if err != nil {
			return err
		}

		var events []*audit.Event
		if len(args) == 1 {
			events, err = auditLog.ByFinding(cmd.Context(), args[0], logLimit)
		} else {
			events, err = auditLog.Recent(cmd.Context(), language, logLimit)
		}
		if err != nil {
			return err
		}
		if len(events) == 0 {
			fmt.Println("No audit events.")
			return nil
		}

		gray := color.New(color.FgHiBlack).SprintFunc()
		for _, ev := range events {
			fmt.Printf("%s %-10s", ev.CreatedAt.Format("2006-01-02 15:04:05"), ev.Type)
			switch ev.Type {
			case audit.EventScan:
				fmt.Printf(" scan #%d %s", ev.ScanID, gray(ev.Detail))
			case audit.EventResolve:
				fmt.Printf(" %s -> %s", ev.FindingID, ev.NewStatus)
				if ev.Note != "" {
					fmt.Printf(" %s", gray(ev.Note))
				}
			default:
				fmt.Printf(" %s %s", ev.FindingID, gray(ev.Detail))
			}
			fmt.Println()
		}
		return nil
	},
}

func init() {
	logCmd.Flags().IntVar(&logLimit, "limit", 20, "Maximum events to show")
	rootCmd.AddCommand(logCmd)
}
