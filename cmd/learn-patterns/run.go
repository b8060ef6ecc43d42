package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dnoice/autoflow/pkg/config"
	applog "github.com/dnoice/autoflow/pkg/log"
	"github.com/dnoice/autoflow/pkg/patterns"
	"github.com/fatih/color"
	cli "github.com/urfave/cli/v3"
)

// LearnPatterns is the single entry point: the boolean flags select which
// outputs are produced from one mining run. No flag means analyze.
func LearnPatterns(ctx context.Context, command *cli.Command) error {
	cfg, err := config.Load(command.String("config"))
	if err != nil {
		return err
	}

	if dataDir := command.String("data-dir"); dataDir != "" {
		cfg.DataDir = dataDir
	}

	if level := command.String("log-level"); level != "" {
		cfg.LogLevel = level
	}

	applog.Setup(cfg.LogLevel)

	historyFile := command.String("history")
	if historyFile == "" {
		historyFile = cfg.HistoryFile
	}

	history, err := patterns.ReadHistoryFile(historyFile)
	if err != nil {
		return err
	}

	opts := patterns.MineOptions{
		TopN:         int(command.Int("top")),
		MinFrequency: int(command.Int("min-frequency")),
	}

	analyze := command.Bool("analyze-history")
	shortcuts := command.Bool("create-shortcuts")
	suggest := command.Bool("suggest-workflows")
	update := command.Bool("update-models")

	if !analyze && !shortcuts && !suggest && !update {
		analyze = true
	}

	miner := patterns.NewMiner(applog.WithModule("learn_patterns"))
	writer := patterns.NewArtifactWriter(cfg.DataDir)

	if command.Bool("background") {
		job := miner.MineInBackground(ctx, history, opts, writer, nil)

		report, err := job.Wait(ctx)
		if err != nil {
			return err
		}

		color.Green("Background mining finished: %d command(s), %d sequence(s); artifacts in %s",
			len(report.Commands), len(report.Sequences), writer.Dir())

		return nil
	}

	report, err := miner.Mine(history, opts)
	if err != nil {
		return err
	}

	if analyze {
		printTables(report)
	}

	if update {
		if err := writer.WriteAll(report); err != nil {
			return err
		}

		color.Green("Regenerated all pattern artifacts in %s", writer.Dir())

		return nil
	}

	if shortcuts {
		if err := writer.WriteShortcuts(report); err != nil {
			return err
		}

		printShortcuts(report, writer)
	}

	if suggest {
		if err := writer.WriteSuggestions(report); err != nil {
			return err
		}

		printSuggestions(report)
	}

	return nil
}

func printTables(report *patterns.Report) {
	color.Cyan("Most frequent commands:")

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)

	for _, pattern := range report.Commands {
		fmt.Fprintf(w, "  %d\t%s\n", pattern.Count, pattern.Command)
	}

	_ = w.Flush()

	if len(report.Sequences) == 0 {
		return
	}

	color.Cyan("Recurring command sequences:")

	w = tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)

	for _, sequence := range report.Sequences {
		fmt.Fprintf(w, "  %d\t%s\n", sequence.Count, sequence.Key())
	}

	_ = w.Flush()
}

func printShortcuts(report *patterns.Report, writer *patterns.ArtifactWriter) {
	derived := report.Shortcuts()
	if len(derived) == 0 {
		fmt.Println("No commands frequent enough for shortcuts yet.")

		return
	}

	color.Green("Wrote %d shortcut(s); source %s/shortcuts.sh to use them:", len(derived), writer.Dir())

	for _, shortcut := range derived {
		fmt.Printf("  alias %s='%s'\n", shortcut.Alias, shortcut.Command)
	}
}

func printSuggestions(report *patterns.Report) {
	suggestions := report.Suggestions()
	if len(suggestions) == 0 {
		fmt.Println("No recurring sequences strong enough to suggest workflows yet.")

		return
	}

	color.Green("Suggested workflows:")

	for _, suggestion := range suggestions {
		fmt.Printf("  %s (seen %d times): %s\n", suggestion.Name, suggestion.Count, suggestion.Description)

		for _, cmd := range suggestion.Commands {
			fmt.Printf("    $ %s\n", cmd)
		}
	}
}
