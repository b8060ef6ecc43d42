// Package patterns mines an interactive command-history stream for frequent
// commands and frequent adjacent-command pairs, and derives shortcut and
// workflow suggestions from fixed rule tables. Mining is stateless: every
// invocation recomputes from source history.
package patterns

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/dnoice/autoflow/pkg/models"
)

// sequenceWindow bounds how much recent history feeds bigram mining.
const sequenceWindow = 1000

// MineOptions control how much of the computed tables is surfaced.
type MineOptions struct {
	// TopN caps each table. Values below 1 fall back to 10.
	TopN int

	// MinFrequency drops entries seen fewer times from the surfaced tables.
	MinFrequency int
}

// Report holds one mining run's derived tables. Commands and Sequences are
// the surfaced views after the TopN/MinFrequency display cut; the full tables
// are kept so shortcut and suggestion derivation can apply their own
// actionable thresholds independently of the cut.
type Report struct {
	Commands  []models.CommandPattern  `json:"commands"`
	Sequences []models.SequencePattern `json:"sequences"`

	allCommands  []models.CommandPattern
	allSequences []models.SequencePattern
}

// Miner analyzes command history. Safe for concurrent use; it holds no state
// between runs.
type Miner struct {
	logger *slog.Logger
}

func NewMiner(logger *slog.Logger) *Miner {
	return &Miner{logger: logger.With("module", "pattern_miner")}
}

// Mine computes frequency and bigram tables from the history lines. It fails
// with models.ErrNoInput when no usable lines remain after filtering.
// Identical input and thresholds always produce identical output.
func (m *Miner) Mine(history []string, opts MineOptions) (*Report, error) {
	if opts.TopN < 1 {
		opts.TopN = 10
	}

	lines := filterHistory(history)
	if len(lines) == 0 {
		return nil, fmt.Errorf("mining history: %w", models.ErrNoInput)
	}

	report := &Report{
		allCommands:  mineCommands(lines),
		allSequences: mineSequences(lines),
	}
	report.Commands = surfaceCommands(report.allCommands, opts)
	report.Sequences = surfaceSequences(report.allSequences, opts)

	m.logger.Debug("Mining complete",
		"history_lines", len(lines),
		"commands", len(report.Commands),
		"sequences", len(report.Sequences),
	)

	return report, nil
}

// filterHistory drops blank and comment lines, preserving order.
func filterHistory(history []string) []string {
	lines := make([]string, 0, len(history))

	for _, raw := range history {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		lines = append(lines, line)
	}

	return lines
}

// mineCommands counts occurrences of every normalized command line.
func mineCommands(lines []string) []models.CommandPattern {
	counts := make(map[string]int)

	for _, line := range lines {
		counts[line]++
	}

	patterns := make([]models.CommandPattern, 0, len(counts))

	for command, count := range counts {
		patterns = append(patterns, models.CommandPattern{Command: command, Count: count})
	}

	// Secondary sort by command keeps equal counts deterministic.
	sort.Slice(patterns, func(i, j int) bool {
		if patterns[i].Count != patterns[j].Count {
			return patterns[i].Count > patterns[j].Count
		}

		return patterns[i].Command < patterns[j].Command
	})

	return patterns
}

// mineSequences counts literal adjacent-line pairs over the most recent
// window of history.
func mineSequences(lines []string) []models.SequencePattern {
	if len(lines) > sequenceWindow {
		lines = lines[len(lines)-sequenceWindow:]
	}

	type pair struct{ first, second string }

	counts := make(map[pair]int)

	for i := 1; i < len(lines); i++ {
		counts[pair{first: lines[i-1], second: lines[i]}]++
	}

	patterns := make([]models.SequencePattern, 0, len(counts))

	for p, count := range counts {
		patterns = append(patterns, models.SequencePattern{First: p.first, Second: p.second, Count: count})
	}

	sort.Slice(patterns, func(i, j int) bool {
		if patterns[i].Count != patterns[j].Count {
			return patterns[i].Count > patterns[j].Count
		}

		return patterns[i].Key() < patterns[j].Key()
	})

	return patterns
}

// surfaceCommands applies the display cut to the full frequency table.
func surfaceCommands(all []models.CommandPattern, opts MineOptions) []models.CommandPattern {
	surfaced := make([]models.CommandPattern, 0, len(all))

	for _, pattern := range all {
		if pattern.Count < opts.MinFrequency {
			continue
		}

		surfaced = append(surfaced, pattern)
	}

	if len(surfaced) > opts.TopN {
		surfaced = surfaced[:opts.TopN]
	}

	return surfaced
}

// surfaceSequences applies the display cut to the full sequence table.
func surfaceSequences(all []models.SequencePattern, opts MineOptions) []models.SequencePattern {
	surfaced := make([]models.SequencePattern, 0, len(all))

	for _, pattern := range all {
		if pattern.Count < opts.MinFrequency {
			continue
		}

		surfaced = append(surfaced, pattern)
	}

	if len(surfaced) > opts.TopN {
		surfaced = surfaced[:opts.TopN]
	}

	return surfaced
}

// ReadHistoryFile loads a shell history file. zsh extended-history prefixes
// (": <ts>:<elapsed>;command") are stripped so both bash and zsh formats mine
// the same way.
func ReadHistoryFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history file %s: %w", path, err)
	}
	defer f.Close()

	var lines []string

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()

		if strings.HasPrefix(line, ": ") {
			if idx := strings.Index(line, ";"); idx >= 0 {
				line = line[idx+1:]
			}
		}

		lines = append(lines, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history file %s: %w", path, err)
	}

	return lines, nil
}
