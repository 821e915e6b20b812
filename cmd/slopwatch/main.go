// slopwatch tracks technical debt findings across scans: detectors report,
// the merge engine reconciles against persisted state, and scores summarize
// what is left.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/slopwatch/slopwatch/internal/audit"
	"github.com/slopwatch/slopwatch/internal/config"
	"github.com/slopwatch/slopwatch/internal/findings"
	"github.com/slopwatch/slopwatch/internal/languages"
	"github.com/slopwatch/slopwatch/internal/registry"
	"github.com/slopwatch/slopwatch/internal/state"
	"github.com/slopwatch/slopwatch/internal/types"
)

var (
	projectRoot string
	langFlag    string
	verbose     bool

	logger   hclog.Logger
	cfg      *config.Config
	store    *state.Store
	reg      *registry.Registry
	policies *findings.PolicyTable
	auditLog *audit.Log
)

var rootCmd = &cobra.Command{
	Use:   "slopwatch",
	Short: "Track technical debt findings across scans",
	Long: `slopwatch reconciles static-analysis findings against persisted state:
new findings open, fixed ones auto-resolve, resolved ones that reappear
regress, and suspicious detector silences are held for review.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if auditLog != nil {
			auditLog.Close()
		}
	},
}

func setup() error {
	level := hclog.Warn
	if verbose {
		level = hclog.Debug
	}
	logger = hclog.New(&hclog.LoggerOptions{
		Name:   "slopwatch",
		Level:  level,
		Output: os.Stderr,
	})

	abs, err := filepath.Abs(projectRoot)
	if err != nil {
		return fmt.Errorf("invalid project root %q: %w", projectRoot, err)
	}
	projectRoot = abs

	cfg, err = config.Load(projectRoot)
	if err != nil {
		return err
	}

	stateDir := filepath.Join(projectRoot, config.Dir)
	store = state.NewStore(stateDir, logger.Named("state"))

	if cfg.PolicyPath != "" {
		policies, err = findings.LoadPolicies(filepath.Join(projectRoot, cfg.PolicyPath))
		if err != nil {
			return err
		}
	} else {
		policies = findings.DefaultPolicies()
	}

	reg = registry.New()
	if err := languages.RegisterBuiltin(reg); err != nil {
		return err
	}

	if cfg.AuditLog {
		auditLog, err = audit.Open(filepath.Join(stateDir, "audit.db"), logger.Named("audit"))
		if err != nil {
			// Audit is advisory; a broken log must not block scans.
			logger.Warn("audit log unavailable", "error", err)
			auditLog = nil
		}
	}
	return nil
}

// lang resolves the effective language: flag, then config default.
func lang() (string, error) {
	if langFlag != "" {
		return langFlag, nil
	}
	if cfg.DefaultLang != "" {
		return cfg.DefaultLang, nil
	}
	return "", fmt.Errorf("no language selected: pass --lang or set default_lang in %s/config.yaml", config.Dir)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&projectRoot, "root", "r", ".", "Project root directory")
	rootCmd.PersistentFlags().StringVarP(&langFlag, "lang", "l", "", "Language to operate on")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging")
}

// exitCode maps the error taxonomy to distinct codes so scripts can react
// to "nothing matched" differently from "state file is broken".
func exitCode(err error) int {
	var unknown *types.UnknownIdentityError
	var justification *types.MissingJustificationError
	var persistence *types.PersistenceError
	var scope *types.ScopeViolationError
	switch {
	case errors.As(err, &unknown):
		return 2
	case errors.As(err, &justification):
		return 3
	case errors.As(err, &persistence):
		return 4
	case errors.As(err, &scope):
		return 5
	default:
		return 1
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}
