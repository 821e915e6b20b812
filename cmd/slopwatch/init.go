package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/slopwatch/slopwatch/internal/config"
)

const configTemplate = `# slopwatch project configuration
default_lang: %s
target_strict: 90

# Demand a verification attestation on fixed/wontfix resolutions.
require_attestation: false

# Finding patterns dropped at merge time.
# ignore:
#   - "debris::scripts/**"

# Path patterns never handed to detectors.
# exclude:
#   - "third_party/"

# Pin specific paths to a zone.
# zone_overrides:
#   tools/gen.go: generated

audit_log: true
`

var initLang string

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the project configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := filepath.Join(projectRoot, config.Dir)
		path := filepath.Join(dir, "config.yaml")
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
		content := fmt.Sprintf(configTemplate, initLang)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s wrote %s\n", green("✓"), path)
		fmt.Println("Next: slopwatch scan")
		return nil
	},
}

func init() {
	initCmd.Flags().StringVar(&initLang, "default-lang", "go", "Default language for scans")
	rootCmd.AddCommand(initCmd)
}
