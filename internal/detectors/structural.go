// Package detectors holds the built-in mechanical detectors. Each detector
// is a pure function over the scanned file set that emits raw findings;
// language plugins wire them into phases with language-specific parameters.
package detectors

import (
	"bufio"
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/slopwatch/slopwatch/internal/findings"
)

// Distribution summarizes line counts across the scanned files.
type Distribution struct {
	Mean   float64
	StdDev float64
	Max    int
	Count  int
}

// StructuralConfig tunes the oversized-file detector.
type StructuralConfig struct {
	// OutlierSigma is the number of standard deviations above the mean at
	// which a file becomes an outlier. Zero means the default of 2.5.
	OutlierSigma float64

	// HardLimit flags any file over this many lines regardless of the
	// distribution. Zero disables the hard limit.
	HardLimit int

	// MinFiles is the minimum sample size for statistical detection.
	// Below it only the hard limit applies, since sigma on a handful of
	// files is noise. Zero means the default of 10.
	MinFiles int
}

const (
	defaultOutlierSigma = 2.5
	defaultMinFiles     = 10
)

type fileLines struct {
	path  string
	lines int
}

// Structural returns a phase runner that flags oversized files. A file is
// flagged when it exceeds the hard limit, or when the sample is large enough
// and the file sits more than OutlierSigma standard deviations above the
// mean line count.
func Structural(cfg StructuralConfig) func(ctx context.Context, root string, files []string) ([]findings.Raw, error) {
	sigma := cfg.OutlierSigma
	if sigma <= 0 {
		sigma = defaultOutlierSigma
	}
	minFiles := cfg.MinFiles
	if minFiles <= 0 {
		minFiles = defaultMinFiles
	}

	return func(ctx context.Context, root string, files []string) ([]findings.Raw, error) {
		sizes := make([]fileLines, 0, len(files))
		for _, f := range files {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			n, err := countLines(filepath.Join(root, f))
			if err != nil {
				// Unreadable files are skipped, not fatal: the scan
				// should survive a racing delete.
				continue
			}
			sizes = append(sizes, fileLines{path: f, lines: n})
		}

		dist := distribution(sizes)
		cutoff := math.Inf(1)
		if dist.Count >= minFiles && dist.StdDev > 0 {
			cutoff = dist.Mean + sigma*dist.StdDev
		}

		var out []findings.Raw
		for _, fs := range sizes {
			overHard := cfg.HardLimit > 0 && fs.lines > cfg.HardLimit
			overSigma := float64(fs.lines) > cutoff
			if !overHard && !overSigma {
				continue
			}
			msg := fmt.Sprintf("file has %d lines (mean %.0f, stddev %.0f)", fs.lines, dist.Mean, dist.StdDev)
			if overHard {
				msg = fmt.Sprintf("file has %d lines, over the %d-line limit", fs.lines, cfg.HardLimit)
			}
			out = append(out, findings.Raw{
				Detector: "structural",
				File:     fs.path,
				Message:  msg,
			})
		}
		sort.Slice(out, func(i, j int) bool { return out[i].File < out[j].File })
		return out, nil
	}
}

func distribution(sizes []fileLines) Distribution {
	d := Distribution{Count: len(sizes)}
	if d.Count == 0 {
		return d
	}
	sum := 0
	for _, fs := range sizes {
		sum += fs.lines
		if fs.lines > d.Max {
			d.Max = fs.lines
		}
	}
	d.Mean = float64(sum) / float64(d.Count)
	var variance float64
	for _, fs := range sizes {
		diff := float64(fs.lines) - d.Mean
		variance += diff * diff
	}
	d.StdDev = math.Sqrt(variance / float64(d.Count))
	return d
}

func countLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	n := 0
	for sc.Scan() {
		n++
	}
	return n, sc.Err()
}
