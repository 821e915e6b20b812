package detectors

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/slopwatch/slopwatch/internal/findings"
)

// DebrisConfig tunes the leftover-artifact detector.
type DebrisConfig struct {
	// DebugPatterns match leftover debug output statements, supplied per
	// language (print(...) for python, fmt.Println for go, and so on).
	DebugPatterns []*regexp.Regexp

	// MarkerThreshold is how many TODO/FIXME/HACK markers one file may
	// carry before it is flagged as a deferred-work pileup. Zero means
	// the default of 5.
	MarkerThreshold int

	// CommentedCodeRun is the number of consecutive commented-out code
	// lines that count as a dead block. Zero means the default of 6.
	CommentedCodeRun int

	// LineComment is the language's line comment prefix ("//", "#").
	LineComment string
}

const (
	defaultMarkerThreshold  = 5
	defaultCommentedCodeRun = 6
)

var markerRe = regexp.MustCompile(`\b(TODO|FIXME|HACK|XXX)\b`)

// looks-like-code heuristics for commented-out blocks
var codeLineRe = regexp.MustCompile(`[;{}=]|\breturn\b|\bif\b.*[({:]|\bfor\b.*[({:]|\w+\(.*\)`)

// Debris returns a phase runner that flags leftover development artifacts:
// debug print statements, piles of deferred-work markers, and blocks of
// commented-out code. Findings are per file and kind, so their identity is
// stable when the offending lines move around.
func Debris(cfg DebrisConfig) func(ctx context.Context, root string, files []string) ([]findings.Raw, error) {
	markerThreshold := cfg.MarkerThreshold
	if markerThreshold <= 0 {
		markerThreshold = defaultMarkerThreshold
	}
	codeRun := cfg.CommentedCodeRun
	if codeRun <= 0 {
		codeRun = defaultCommentedCodeRun
	}

	return func(ctx context.Context, root string, files []string) ([]findings.Raw, error) {
		var out []findings.Raw
		for _, f := range files {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			raws, err := debrisInFile(filepath.Join(root, f), f, cfg, markerThreshold, codeRun)
			if err != nil {
				continue
			}
			out = append(out, raws...)
		}
		sort.Slice(out, func(i, j int) bool {
			if out[i].File != out[j].File {
				return out[i].File < out[j].File
			}
			return out[i].Name < out[j].Name
		})
		return out, nil
	}
}

func debrisInFile(path, rel string, cfg DebrisConfig, markerThreshold, codeRun int) ([]findings.Raw, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var (
		debugCount  int
		firstDebug  int
		markerCount int
		firstMarker int
		deadBlocks  int
		run         int
		lineNo      int
	)

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		lineNo++
		line := sc.Text()

		for _, re := range cfg.DebugPatterns {
			if re.MatchString(line) {
				if debugCount == 0 {
					firstDebug = lineNo
				}
				debugCount++
				break
			}
		}

		if markerRe.MatchString(line) {
			if markerCount == 0 {
				firstMarker = lineNo
			}
			markerCount++
		}

		if cfg.LineComment != "" && isCommentedCode(line, cfg.LineComment) {
			run++
		} else {
			if run >= codeRun {
				deadBlocks++
			}
			run = 0
		}
	}
	if run >= codeRun {
		deadBlocks++
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	var out []findings.Raw
	if debugCount > 0 {
		out = append(out, findings.Raw{
			Detector: "debris",
			File:     rel,
			Name:     "debug_prints",
			Line:     firstDebug,
			Message:  fmt.Sprintf("%d leftover debug print statement(s)", debugCount),
		})
	}
	if markerCount >= markerThreshold {
		out = append(out, findings.Raw{
			Detector: "debris",
			File:     rel,
			Name:     "marker_pileup",
			Line:     firstMarker,
			Message:  fmt.Sprintf("%d TODO/FIXME/HACK markers in one file", markerCount),
		})
	}
	if deadBlocks > 0 {
		out = append(out, findings.Raw{
			Detector: "debris",
			File:     rel,
			Name:     "commented_code",
			Message:  fmt.Sprintf("%d block(s) of commented-out code", deadBlocks),
		})
	}
	return out, nil
}

func isCommentedCode(line, prefix string) bool {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, prefix) {
		return false
	}
	body := strings.TrimSpace(strings.TrimPrefix(trimmed, prefix))
	if body == "" {
		return false
	}
	return codeLineRe.MatchString(body)
}
