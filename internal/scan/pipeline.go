// Package scan drives a full scan: walk the tree, run the language plugin's
// detector phases, normalize and zone the output, then merge, score, and
// record in one state transaction.
package scan

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"

	"github.com/slopwatch/slopwatch/internal/audit"
	"github.com/slopwatch/slopwatch/internal/findings"
	"github.com/slopwatch/slopwatch/internal/registry"
	"github.com/slopwatch/slopwatch/internal/score"
	"github.com/slopwatch/slopwatch/internal/state"
	"github.com/slopwatch/slopwatch/internal/types"
	"github.com/slopwatch/slopwatch/internal/zones"
)

// Pipeline wires the scan stages together. All fields except Audit are
// required.
type Pipeline struct {
	Registry *registry.Registry
	Store    *state.Store
	Policies *findings.PolicyTable
	Audit    *audit.Log
	Log      hclog.Logger
}

// Options selects what one run scans and how.
type Options struct {
	Lang string
	// Path scopes the scan to a subtree, relative to Root. "." scans
	// everything.
	Path string
	Root string

	ForceResolve  bool
	Ignore        []string
	Exclude       []string
	ZoneOverrides map[string]types.Zone
}

// Result is what one scan produced.
type Result struct {
	Scan         types.ScanRecord
	Summary      state.MergeSummary
	Scores       score.Result
	FilesScanned int
	PhaseErrors  []string
	Duration     time.Duration
}

// Run executes one scan end to end. Detector phases run concurrently and
// their output is fully materialized before any state is touched; a phase
// failure drops that detector from the scan's scope rather than failing the
// run, so its previous findings are left alone.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Result, error) {
	log := p.Log
	if log == nil {
		log = hclog.NewNullLogger()
	}
	start := time.Now()

	plugin, ok := p.Registry.Get(opts.Lang)
	if !ok {
		return nil, fmt.Errorf("no language plugin registered for %q (have %s)",
			opts.Lang, strings.Join(p.Registry.Names(), ", "))
	}

	scanPath := filepath.ToSlash(filepath.Clean(opts.Path))
	if scanPath == "" || scanPath == "/" {
		scanPath = "."
	}

	files, err := collectFiles(opts.Root, scanPath, plugin.Extensions, opts.Exclude)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate files: %w", err)
	}
	log.Debug("collected files", "lang", opts.Lang, "path", scanPath, "count", len(files))

	pc := registry.PhaseContext{Root: opts.Root, ScanPath: scanPath, Files: files}
	raws, ran, phaseErrs := p.runPhases(ctx, plugin, pc, log)

	zoneMap := zones.NewMap(files, plugin.ZoneRules, opts.ZoneOverrides)
	fresh := p.normalize(raws, opts.Lang, scanPath, zoneMap, log)

	scanRec := types.ScanRecord{
		Lang:         opts.Lang,
		ScanPath:     scanPath,
		DetectorsRun: ran,
	}

	res := &Result{FilesScanned: len(files), PhaseErrors: phaseErrs}
	err = p.Store.WithState(opts.Lang, func(st *state.ProjectState) error {
		summary, err := state.Merge(st, fresh, scanRec, state.MergeOptions{
			ForceResolve: opts.ForceResolve,
			Ignore:       opts.Ignore,
			Logger:       log,
		})
		if err != nil {
			return err
		}
		scores := score.Compute(st, p.Policies)

		open := st.CountByStatus()[types.StatusOpen]
		st.AppendHistory(state.HistoryEntry{
			Timestamp:    time.Now().UTC(),
			ScanID:       summary.ScanID,
			ScanPath:     scanPath,
			New:          summary.New,
			AutoResolved: summary.AutoResolved,
			Reopened:     summary.Reopened,
			SuspectHeld:  summary.SuspectHeld,
			Open:         open,
			Lenient:      scores.Lenient,
			Strict:       scores.Strict,
		})

		res.Summary = summary
		res.Scores = scores
		res.Scan = scanRec
		res.Scan.ScanID = summary.ScanID
		return nil
	})
	if err != nil {
		return nil, err
	}

	if p.Audit != nil {
		p.Audit.RecordScan(ctx, opts.Lang, &res.Summary)
	}
	res.Duration = time.Since(start)
	return res, nil
}

// runPhases executes detector phases concurrently. Results are collected per
// phase so output order is deterministic regardless of completion order.
func (p *Pipeline) runPhases(ctx context.Context, plugin *registry.LanguagePlugin, pc registry.PhaseContext, log hclog.Logger) ([]findings.Raw, []string, []string) {
	results := make([][]findings.Raw, len(plugin.Phases))
	errs := make([]error, len(plugin.Phases))

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for i, ph := range plugin.Phases {
		i, ph := i, ph
		g.Go(func() error {
			raws, err := ph.Run(gctx, pc)
			mu.Lock()
			results[i] = raws
			errs[i] = err
			mu.Unlock()
			// Phase errors are scoped to that detector; only context
			// cancellation aborts the whole group.
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, []string{err.Error()}
	}

	var (
		all       []findings.Raw
		ran       []string
		phaseErrs []string
	)
	for i, ph := range plugin.Phases {
		if errs[i] != nil {
			log.Warn("detector phase failed, leaving its prior findings untouched",
				"phase", ph.Label, "detector", ph.Detector, "error", errs[i])
			phaseErrs = append(phaseErrs, fmt.Sprintf("%s: %v", ph.Detector, errs[i]))
			continue
		}
		ran = append(ran, ph.Detector)
		all = append(all, results[i]...)
	}
	return all, ran, phaseErrs
}

// normalize converts raw detector output to canonical findings, attaching
// zones and dropping malformed records with a warning.
func (p *Pipeline) normalize(raws []findings.Raw, lang, scanPath string, zoneMap *zones.Map, log hclog.Logger) []types.Finding {
	sc := findings.ScanContext{Lang: lang, ScanPath: scanPath}
	out := make([]types.Finding, 0, len(raws))
	dropped := 0
	for _, raw := range raws {
		f, err := findings.Normalize(raw, sc, p.Policies)
		if err != nil {
			dropped++
			log.Warn("dropping malformed finding", "detector", raw.Detector, "error", err)
			continue
		}
		f.Zone = zoneMap.Zone(f.File)
		out = append(out, f)
	}
	if dropped > 0 {
		log.Warn("malformed findings dropped", "count", dropped)
	}
	return out
}

// collectFiles walks root and returns relative slash paths under scanPath
// matching the extensions, minus excluded paths.
func collectFiles(root, scanPath string, extensions, exclude []string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		rel, rerr := filepath.Rel(root, path)
		if rerr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if rel == "." {
				return nil
			}
			if d.Name() == ".git" || d.Name() == ".slopwatch" {
				return filepath.SkipDir
			}
			if excluded(rel+"/", exclude) {
				return filepath.SkipDir
			}
			return nil
		}

		if scanPath != "." && rel != scanPath && !strings.HasPrefix(rel, scanPath+"/") {
			return nil
		}
		if excluded(rel, exclude) {
			return nil
		}
		for _, ext := range extensions {
			if strings.HasSuffix(rel, ext) {
				files = append(files, rel)
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

func excluded(rel string, exclude []string) bool {
	for _, pat := range exclude {
		if pat == "" {
			continue
		}
		if strings.HasSuffix(pat, "/") {
			if strings.Contains("/"+rel, "/"+pat) {
				return true
			}
			continue
		}
		if ok, _ := filepath.Match(pat, filepath.Base(rel)); ok {
			return true
		}
		if strings.Contains(rel, pat) {
			return true
		}
	}
	return false
}
