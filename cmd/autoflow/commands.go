package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dnoice/autoflow/pkg/cmd"
	"github.com/dnoice/autoflow/pkg/config"
	applog "github.com/dnoice/autoflow/pkg/log"
	"github.com/dnoice/autoflow/pkg/models"
	"github.com/dnoice/autoflow/pkg/workflow"
	"github.com/fatih/color"
	cli "github.com/urfave/cli/v3"
)

// setup loads the config, applies flag overrides, installs the logger and
// builds the workflow repository.
func setup(command *cli.Command) (config.Config, *workflow.Repository, error) {
	cfg, err := config.Load(command.String("config"))
	if err != nil {
		return cfg, nil, err
	}

	if dataDir := command.String("data-dir"); dataDir != "" {
		cfg.DataDir = dataDir
	}

	if level := command.String("log-level"); level != "" {
		cfg.LogLevel = level
	}

	applog.Setup(cfg.LogLevel)

	return cfg, workflow.NewRepository(cmd.NewPersistence(cfg.DataDir)), nil
}

func requireNameArg(command *cli.Command) (string, error) {
	name := command.Args().First()
	if name == "" {
		return "", fmt.Errorf("missing required <name> argument")
	}

	return name, nil
}

func CreateWorkflow(ctx context.Context, command *cli.Command) error {
	name, err := requireNameArg(command)
	if err != nil {
		return err
	}

	_, repository, err := setup(command)
	if err != nil {
		return err
	}

	steps := command.StringSlice("step")
	if len(steps) == 0 {
		return fmt.Errorf("workflow %s: at least one --step is required", name)
	}

	policy := models.ExecutionPolicy{
		Parallel:   command.Bool("parallel"),
		Timeout:    int(command.Int("timeout")),
		RetryCount: int(command.Int("retry")),
		OnFailure:  models.FailureMode(command.String("on-failure")),
	}

	triggers := models.WorkflowTriggers{
		Schedule:  command.String("schedule"),
		Condition: command.String("condition"),
	}

	created, err := repository.Create(ctx, name, command.String("description"), policy, triggers, steps)
	if err != nil {
		return err
	}

	color.Green("Created workflow %q with %d step(s)", created.Name, len(created.Steps))

	return nil
}

func RunWorkflow(ctx context.Context, command *cli.Command) error {
	name, err := requireNameArg(command)
	if err != nil {
		return err
	}

	cfg, repository, err := setup(command)
	if err != nil {
		return err
	}

	variables, err := parseVariables(command.StringSlice("var"))
	if err != nil {
		return err
	}

	executorOpts := workflow.ExecutorOptions{
		DefaultStepTimeout: time.Duration(cfg.DefaultStepTimeout) * time.Second,
		ParallelWorkers:    cfg.ParallelWorkers,
	}

	verbose := command.Bool("verbose")

	bus, err := newRunReporter(ctx, verbose)
	if err != nil {
		return err
	}

	if bus != nil {
		defer func() { _ = bus.Close() }()
	}

	executor := workflow.NewExecutor(repository, nil, bus, applog.WithModule("autoflow"), executorOpts)

	result, err := executor.Run(ctx, name, workflow.RunOptions{
		Verbose:   verbose,
		DryRun:    command.Bool("dry-run"),
		Variables: variables,
	})
	if err != nil {
		return err
	}

	printRunSummary(result)

	if !result.Success() {
		return fmt.Errorf("workflow %s failed: %d of %d step(s) failed",
			name, result.FailedSteps, result.TotalSteps)
	}

	return nil
}

func parseVariables(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	variables := make(map[string]string, len(pairs))

	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid --var %q: expected key=value", pair)
		}

		variables[key] = value
	}

	return variables, nil
}

func printRunSummary(result *models.ExecutionResult) {
	switch {
	case result.DryRun:
		color.Cyan("Dry run: %d step(s) would execute", result.TotalSteps)

		for _, step := range result.Steps {
			fmt.Printf("  %s  %s\n", step.StepID, step.Command)
		}
	case result.ConditionSkipped:
		color.Yellow("Skipped: condition not met")
	case result.Success():
		color.Green("Completed %d step(s) in %s", result.SuccessfulSteps, result.Duration.Round(time.Millisecond))
	default:
		color.Red("Failed: %d of %d step(s) failed in %s",
			result.FailedSteps, result.TotalSteps, result.Duration.Round(time.Millisecond))
	}
}

func RecordWorkflow(ctx context.Context, command *cli.Command) error {
	name, err := requireNameArg(command)
	if err != nil {
		return err
	}

	cfg, repository, err := setup(command)
	if err != nil {
		return err
	}

	recorder := workflow.NewRecorder(repository, cfg.DataDir)

	created, err := runRecordingLoop(ctx, recorder, name, os.Stdin)
	if err != nil {
		return err
	}

	color.Green("Recorded workflow %q with %d step(s)", created.Name, len(created.Steps))

	return nil
}

func ListWorkflows(ctx context.Context, command *cli.Command) error {
	_, repository, err := setup(command)
	if err != nil {
		return err
	}

	workflows, err := repository.List(ctx)
	if err != nil {
		return err
	}

	if len(workflows) == 0 {
		fmt.Println("No workflows stored yet. Create one with 'autoflow create' or 'autoflow record'.")

		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSTEPS\tMODE\tRUNS\tLAST RUN\tDESCRIPTION")

	for _, wf := range workflows {
		mode := "serial"
		if wf.Policy.Parallel {
			mode = "parallel"
		}

		lastRun := "never"
		if wf.Statistics.LastExecutedAt != nil {
			lastRun = wf.Statistics.LastExecutedAt.Local().Format("2006-01-02 15:04")
		}

		fmt.Fprintf(w, "%s\t%d\t%s\t%d\t%s\t%s\n",
			wf.Name, len(wf.Steps), mode, wf.Statistics.TotalExecutions, lastRun, wf.Description)
	}

	return w.Flush()
}

func AnalyzeWorkflows(ctx context.Context, command *cli.Command) error {
	_, repository, err := setup(command)
	if err != nil {
		return err
	}

	reports, err := repository.Analyze(ctx, command.Args().First())
	if err != nil {
		return err
	}

	if len(reports) == 0 {
		fmt.Println("Nothing to analyze: no workflows stored.")

		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tRUNS\tSUCCESS\tAVG DURATION\tLAST RUN")

	for _, report := range reports {
		successRate := "-"
		avgDuration := "-"
		lastRun := "never"

		if report.TotalExecutions > 0 {
			successRate = fmt.Sprintf("%.0f%%", report.SuccessRate*100)
			avgDuration = report.AverageDuration.Round(time.Millisecond).String()
		}

		if report.LastExecutedAt != nil {
			lastRun = report.LastExecutedAt.Local().Format("2006-01-02 15:04")
		}

		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\n",
			report.Name, report.TotalExecutions, successRate, avgDuration, lastRun)
	}

	return w.Flush()
}

func OptimizeWorkflows(ctx context.Context, command *cli.Command) error {
	_, repository, err := setup(command)
	if err != nil {
		return err
	}

	recommendations, err := repository.Optimize(ctx)
	if err != nil {
		return err
	}

	if len(recommendations) == 0 {
		color.Green("No recommendations: everything looks healthy.")

		return nil
	}

	names := make([]string, 0, len(recommendations))
	for name := range recommendations {
		names = append(names, name)
	}

	sort.Strings(names)

	for _, name := range names {
		color.Yellow("%s:", name)

		for _, suggestion := range recommendations[name] {
			fmt.Printf("  - %s\n", suggestion)
		}
	}

	return nil
}

func ExportWorkflow(ctx context.Context, command *cli.Command) error {
	name, err := requireNameArg(command)
	if err != nil {
		return err
	}

	_, repository, err := setup(command)
	if err != nil {
		return err
	}

	data, err := repository.Export(ctx, name, workflow.ExportFormat(command.String("format")))
	if err != nil {
		return err
	}

	if output := command.String("output"); output != "" {
		return os.WriteFile(output, data, 0o600)
	}

	_, err = os.Stdout.Write(data)

	return err
}

func ImportWorkflow(ctx context.Context, command *cli.Command) error {
	path := command.Args().First()
	if path == "" {
		return fmt.Errorf("missing required <file> argument")
	}

	_, repository, err := setup(command)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	format := workflow.FormatJSON

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		format = workflow.FormatYAML
	}

	imported, err := repository.Import(ctx, data, format)
	if err != nil {
		return err
	}

	color.Green("Imported workflow %q with %d step(s)", imported.Name, len(imported.Steps))

	return nil
}

func DeleteWorkflow(ctx context.Context, command *cli.Command) error {
	name, err := requireNameArg(command)
	if err != nil {
		return err
	}

	_, repository, err := setup(command)
	if err != nil {
		return err
	}

	if err := repository.Delete(ctx, name); err != nil {
		return err
	}

	color.Green("Deleted workflow %q", name)

	return nil
}
