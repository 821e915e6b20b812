package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/slopwatch/slopwatch/internal/state"
)

var ignoreCmd = &cobra.Command{
	Use:   "ignore",
	Short: "Manage persistent ignore patterns",
}

var ignoreAddCmd = &cobra.Command{
	Use:   "add <pattern>",
	Short: "Add an ignore pattern and purge matching findings",
	Long: `Record a pattern (finding identity glob, detector name, or path) that
suppresses matching findings in every future scan, and purge what it matches
from current state.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		language, err := lang()
		if err != nil {
			return err
		}
		var removed int
		var added bool
		err = store.WithState(language, func(st *state.ProjectState) error {
			removed, added = state.AddIgnorePattern(st, args[0])
			return nil
		})
		if err != nil {
			return err
		}
		if !added {
			fmt.Printf("pattern already present; %d matching finding(s) purged\n", removed)
			return nil
		}
		fmt.Printf("added %q; %d matching finding(s) purged\n", args[0], removed)
		return nil
	},
}

var ignoreRemoveCmd = &cobra.Command{
	Use:   "remove <pattern>",
	Short: "Remove an ignore pattern",
	Long: `Stop suppressing a pattern. Findings it was hiding come back as new on
the next scan.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		language, err := lang()
		if err != nil {
			return err
		}
		found := false
		err = store.WithState(language, func(st *state.ProjectState) error {
			found = state.RemoveIgnorePattern(st, args[0])
			return nil
		})
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("pattern %q is not in the ignore list", args[0])
		}
		fmt.Printf("removed %q\n", args[0])
		return nil
	},
}

var ignoreListCmd = &cobra.Command{
	Use:   "list",
	Short: "List ignore patterns",
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
		if len(st.IgnorePatterns) == 0 && len(cfg.Ignore) == 0 {
			fmt.Println("No ignore patterns.")
			return nil
		}
		for _, p := range st.IgnorePatterns {
			fmt.Println(p)
		}
		for _, p := range cfg.Ignore {
			fmt.Printf("%s (from config)\n", p)
		}
		return nil
	},
}

func init() {
	ignoreCmd.AddCommand(ignoreAddCmd)
	ignoreCmd.AddCommand(ignoreRemoveCmd)
	ignoreCmd.AddCommand(ignoreListCmd)
	rootCmd.AddCommand(ignoreCmd)
}
