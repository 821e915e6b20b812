package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/slopwatch/slopwatch/internal/state"
	"github.com/slopwatch/slopwatch/internal/types"
)

var (
	resolveStatus string
	resolveNote   string
	resolveAttest string
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <pattern>...",
	Short: "Mark findings fixed, wontfix, false-positive, or ignored",
	Long: `Resolve findings matched by exact identity, detector name, directory
prefix, or glob pattern. The whole batch is validated before anything is
written: a pattern that matches nothing aborts the command with no changes.

wontfix and false-positive require a justification via --note. When the
project requires attestation, fixed and wontfix also need --attest with a
statement starting "` + state.AttestationMarker + `".`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		language, err := lang()
		if err != nil {
			return err
		}
		status := types.Status(resolveStatus)
		if !status.IsValid() || !status.IsTerminal() {
			return fmt.Errorf("invalid resolution status %q (want fixed, wontfix, false_positive, or ignored)", resolveStatus)
		}

		var updated []*types.FindingState
		err = store.WithState(language, func(st *state.ProjectState) error {
			updated, err = state.Resolve(st, args, status, state.ResolveOptions{
				Note:               resolveNote,
				Attestation:        resolveAttest,
				RequireAttestation: cfg.RequireAttestation,
			})
			return err
		})
		if err != nil {
			return err
		}

		green := color.New(color.FgGreen).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()
		for _, f := range updated {
			fmt.Printf("%s %s %s\n", green("✓"), f.ID, gray(string(f.Status)))
			if auditLog != nil {
				auditLog.RecordResolution(cmd.Context(), language, f.ID, "", string(f.Status), resolveNote)
			}
		}
		fmt.Printf("\n%d finding(s) resolved as %s\n", len(updated), status)
		return nil
	},
}

func init() {
	resolveCmd.Flags().StringVar(&resolveStatus, "as", "fixed", "Resolution status: fixed, wontfix, false_positive, ignored")
	resolveCmd.Flags().StringVarP(&resolveNote, "note", "n", "", "Justification note")
	resolveCmd.Flags().StringVar(&resolveAttest, "attest", "", "Verification attestation")
	rootCmd.AddCommand(resolveCmd)
}
