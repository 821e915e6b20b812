package main

import (
	"fmt"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/slopwatch/slopwatch/internal/review"
	"github.com/slopwatch/slopwatch/internal/score"
	"github.com/slopwatch/slopwatch/internal/state"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Manage subjective assessments",
}

var reviewImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import subjective assessment scores",
	Long: `Import a YAML file of subjective assessments. Each dimension carries a
0-100 score; their average becomes the subjective component blended into the
overall score.

Example file:

  assessments:
    naming:
      score: 72
      note: inconsistent receiver names
    architecture:
      score: 85`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		language, err := lang()
		if err != nil {
			return err
		}
		entries, err := review.Load(args[0])
		if err != nil {
			return err
		}

		var res score.Result
		err = store.WithState(language, func(st *state.ProjectState) error {
			review.Apply(st, entries)
			res = score.Compute(st, policies)
			return nil
		})
		if err != nil {
			return err
		}

		green := color.New(color.FgGreen).SprintFunc()
		for _, e := range entries {
			fmt.Printf("%s %-20s %.1f\n", green("✓"), e.Dimension, e.Score)
		}
		if res.Subjective != nil {
			fmt.Printf("\nSubjective: %s   Overall: %s\n", scoreColor(*res.Subjective), scoreColor(res.Overall))
		}
		return nil
	},
}

var reviewShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show imported assessments",
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
		if len(st.Assessments) == 0 {
			fmt.Println("No assessments imported.")
			return nil
		}
		dims := make([]string, 0, len(st.Assessments))
		for dim := range st.Assessments {
			dims = append(dims, dim)
		}
		sort.Strings(dims)

		gray := color.New(color.FgHiBlack).SprintFunc()
		for _, dim := range dims {
			a := st.Assessments[dim]
			fmt.Printf("%-20s %s  %s", dim, scoreColor(a.Score), gray(a.ImportedAt.Format("2006-01-02")))
			if a.Note != "" {
				fmt.Printf("  %s", gray(a.Note))
			}
			fmt.Println()
		}
		return nil
	},
}

func init() {
	reviewCmd.AddCommand(reviewImportCmd)
	reviewCmd.AddCommand(reviewShowCmd)
	rootCmd.AddCommand(reviewCmd)
}
