package patterns

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const patternsDir = "patterns"

const (
	frequencyFile   = "frequency.json"
	sequencesFile   = "sequences.json"
	shortcutsFile   = "shortcuts.sh"
	suggestionsFile = "suggestions.json"
)

// ArtifactWriter regenerates the pattern-analysis artifacts under the data
// directory. Artifacts are whole-file rewrites, never incremental updates.
type ArtifactWriter struct {
	dataDir string
}

func NewArtifactWriter(dataDir string) *ArtifactWriter {
	return &ArtifactWriter{dataDir: dataDir}
}

// Dir returns the artifact directory.
func (w *ArtifactWriter) Dir() string {
	return filepath.Join(w.dataDir, patternsDir)
}

// WriteAll regenerates every artifact from the report.
func (w *ArtifactWriter) WriteAll(report *Report) error {
	if err := w.WriteTables(report); err != nil {
		return err
	}

	if err := w.WriteShortcuts(report); err != nil {
		return err
	}

	return w.WriteSuggestions(report)
}

// WriteTables writes the frequency and sequence tables.
func (w *ArtifactWriter) WriteTables(report *Report) error {
	if err := w.writeJSON(frequencyFile, report.Commands); err != nil {
		return err
	}

	return w.writeJSON(sequencesFile, report.Sequences)
}

// WriteShortcuts writes a sourceable shell script of alias lines.
func (w *ArtifactWriter) WriteShortcuts(report *Report) error {
	var b strings.Builder

	b.WriteString("# Generated by learn-patterns; do not edit.\n")

	for _, shortcut := range report.Shortcuts() {
		fmt.Fprintf(&b, "alias %s='%s'  # seen %d times\n", shortcut.Alias, shortcut.Command, shortcut.Count)
	}

	return w.writeFile(shortcutsFile, []byte(b.String()))
}

// WriteSuggestions writes the derived workflow suggestions document.
func (w *ArtifactWriter) WriteSuggestions(report *Report) error {
	return w.writeJSON(suggestionsFile, report.Suggestions())
}

func (w *ArtifactWriter) writeJSON(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", name, err)
	}

	return w.writeFile(name, append(data, '\n'))
}

func (w *ArtifactWriter) writeFile(name string, data []byte) error {
	if err := os.MkdirAll(w.Dir(), 0o750); err != nil {
		return fmt.Errorf("failed to create patterns directory: %w", err)
	}

	path := filepath.Join(w.Dir(), name)

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}

	return nil
}
