package patterns

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dnoice/autoflow/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMiner() *Miner {
	return NewMiner(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})))
}

func TestMiner_Mine_FrequencyTable(t *testing.T) {
	history := []string{"git status", "git status", "git add", "git status"}

	report, err := testMiner().Mine(history, MineOptions{TopN: 10, MinFrequency: 2})
	require.NoError(t, err)

	// "git add" (count 1) is computed but falls below the display cut.
	require.Len(t, report.Commands, 1)
	assert.Equal(t, "git status", report.Commands[0].Command)
	assert.Equal(t, 3, report.Commands[0].Count)
}

func TestMiner_Mine_MinFrequencyCut(t *testing.T) {
	history := []string{"ls -la", "ls -la", "ls -la", "cat notes.txt"}

	report, err := testMiner().Mine(history, MineOptions{TopN: 10, MinFrequency: 2})
	require.NoError(t, err)

	require.Len(t, report.Commands, 1)
	assert.Equal(t, "ls -la", report.Commands[0].Command)
	assert.Equal(t, 3, report.Commands[0].Count)

	// The full table still carries the low-frequency entry.
	assert.Len(t, report.allCommands, 2)
}

func TestMiner_Mine_Deterministic(t *testing.T) {
	history := []string{"a one", "b two", "a one", "b two", "c three", "a one"}
	opts := MineOptions{TopN: 5, MinFrequency: 1}

	first, err := testMiner().Mine(history, opts)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := testMiner().Mine(history, opts)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestMiner_Mine_SequenceTable(t *testing.T) {
	history := []string{
		"git add .", "git commit -m x",
		"git add .", "git commit -m y",
		"ls",
	}

	report, err := testMiner().Mine(history, MineOptions{TopN: 10, MinFrequency: 1})
	require.NoError(t, err)

	require.NotEmpty(t, report.Sequences)
	top := report.Sequences[0]
	assert.Equal(t, "git add .", top.First)
	assert.Equal(t, 2, top.Count)
}

func TestMiner_Mine_SkipsCommentsAndBlanks(t *testing.T) {
	history := []string{"# comment", "", "   ", "ls"}

	report, err := testMiner().Mine(history, MineOptions{TopN: 10})
	require.NoError(t, err)

	require.Len(t, report.Commands, 1)
	assert.Equal(t, "ls", report.Commands[0].Command)
}

func TestMiner_Mine_EmptyHistory(t *testing.T) {
	_, err := testMiner().Mine(nil, MineOptions{})
	assert.ErrorIs(t, err, models.ErrNoInput)

	_, err = testMiner().Mine([]string{"", "# nothing"}, MineOptions{})
	assert.ErrorIs(t, err, models.ErrNoInput)
}

func TestMiner_Mine_TopNCut(t *testing.T) {
	history := []string{"a", "a", "a", "b", "b", "c"}

	report, err := testMiner().Mine(history, MineOptions{TopN: 2, MinFrequency: 1})
	require.NoError(t, err)

	require.Len(t, report.Commands, 2)
	assert.Equal(t, "a", report.Commands[0].Command)
	assert.Equal(t, "b", report.Commands[1].Command)
}

func TestMiner_Mine_SequenceWindowBounded(t *testing.T) {
	// The recurring pair sits beyond the most-recent-1000-line window and
	// must not surface.
	history := []string{"old one", "old two", "old one", "old two"}
	for i := 0; i < sequenceWindow; i++ {
		history = append(history, "filler")
	}

	report, err := testMiner().Mine(history, MineOptions{TopN: 10, MinFrequency: 2})
	require.NoError(t, err)

	for _, sequence := range report.Sequences {
		assert.NotEqual(t, "old one", sequence.First)
	}
}

func TestReport_Shortcuts(t *testing.T) {
	report := &Report{
		allCommands: []models.CommandPattern{
			{Command: "git status", Count: 7},
			{Command: "git pull", Count: 5},
			{Command: "docker ps", Count: 5},
			{Command: "kubectl get pods", Count: 4},       // below the shortcut bar
			{Command: "my-own-tool --verbose", Count: 40}, // not in the alias table
		},
	}

	shortcuts := report.Shortcuts()
	require.Len(t, shortcuts, 2)
	assert.Equal(t, models.Shortcut{Alias: "d", Command: "docker", Count: 5}, shortcuts[0])
	assert.Equal(t, models.Shortcut{Alias: "g", Command: "git", Count: 12}, shortcuts[1])
}

func TestReport_Suggestions(t *testing.T) {
	report := &Report{
		allSequences: []models.SequencePattern{
			{First: "git add .", Second: "git commit -m wip", Count: 6},
			{First: "docker build -t app .", Second: "docker run app", Count: 3},
			{First: "git commit -m wip", Second: "git push", Count: 2}, // below the bar
		},
	}

	suggestions := report.Suggestions()
	require.Len(t, suggestions, 2)

	assert.Equal(t, "stage-then-commit", suggestions[0].Name)
	assert.Equal(t, []string{"git add .", "git commit -m wip"}, suggestions[0].Commands)
	assert.Equal(t, "build-then-run", suggestions[1].Name)
}

func TestReadHistoryFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history")
	content := "ls -la\n: 1718000000:0;git status\nmake build\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	lines, err := ReadHistoryFile(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"ls -la", "git status", "make build"}, lines)
}

func TestReadHistoryFile_Missing(t *testing.T) {
	_, err := ReadHistoryFile(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestArtifactWriter_WriteAll(t *testing.T) {
	dataDir := t.TempDir()
	writer := NewArtifactWriter(dataDir)

	report := &Report{
		Commands:    []models.CommandPattern{{Command: "git status", Count: 9}},
		allCommands: []models.CommandPattern{{Command: "git status", Count: 9}},
		Sequences: []models.SequencePattern{
			{First: "git add .", Second: "git commit -m x", Count: 4},
		},
		allSequences: []models.SequencePattern{
			{First: "git add .", Second: "git commit -m x", Count: 4},
		},
	}

	require.NoError(t, writer.WriteAll(report))

	for _, name := range []string{"frequency.json", "sequences.json", "shortcuts.sh", "suggestions.json"} {
		assert.FileExists(t, filepath.Join(dataDir, "patterns", name))
	}

	script, err := os.ReadFile(filepath.Join(dataDir, "patterns", "shortcuts.sh"))
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(script), "alias g='git'"))
}

func TestMineInBackground_Awaitable(t *testing.T) {
	miner := testMiner()
	history := []string{"git status", "git status", "ls"}

	job := miner.MineInBackground(context.Background(), history, MineOptions{TopN: 5, MinFrequency: 1}, nil, nil)

	report, err := job.Wait(context.Background())
	require.NoError(t, err)
	require.NotNil(t, report)
	assert.NotEmpty(t, report.Commands)
}

func TestMineInBackground_Cancelled(t *testing.T) {
	miner := testMiner()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	job := miner.MineInBackground(ctx, []string{"ls"}, MineOptions{}, nil, nil)

	_, err := job.Wait(context.Background())
	assert.ErrorIs(t, err, context.Canceled)
}
