package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dnoice/autoflow/pkg/cmd"
	"github.com/dnoice/autoflow/pkg/config"
	applog "github.com/dnoice/autoflow/pkg/log"
	"github.com/dnoice/autoflow/pkg/scheduler"
	"github.com/fatih/color"
	cli "github.com/urfave/cli/v3"
)

func setup(command *cli.Command) (*scheduler.Scheduler, error) {
	cfg, err := config.Load(command.String("config"))
	if err != nil {
		return nil, err
	}

	if dataDir := command.String("data-dir"); dataDir != "" {
		cfg.DataDir = dataDir
	}

	if level := command.String("log-level"); level != "" {
		cfg.LogLevel = level
	}

	applog.Setup(cfg.LogLevel)

	return scheduler.NewScheduler(cmd.NewPersistence(cfg.DataDir), nil, nil,
		cfg.DataDir, applog.WithModule("smartschedule")), nil
}

func AddTask(ctx context.Context, command *cli.Command) error {
	args := command.Args().Slice()
	if len(args) < 2 {
		return fmt.Errorf("usage: smartschedule add <name> <command>")
	}

	name := args[0]
	taskCommand := strings.Join(args[1:], " ")

	adaptive := command.Bool("adaptive")
	schedule := command.String("schedule")

	if !adaptive && schedule == "" {
		return fmt.Errorf("task %s: --schedule is required unless --adaptive is set", name)
	}

	s, err := setup(command)
	if err != nil {
		return err
	}

	task, err := s.Add(ctx, scheduler.TaskSpec{
		Name:       name,
		Command:    taskCommand,
		Schedule:   schedule,
		Adaptive:   adaptive,
		Condition:  command.String("condition"),
		RetryCount: int(command.Int("retry")),
	})
	if err != nil {
		return err
	}

	if task.Adaptive {
		color.Green("Stored adaptive task %q; run it with 'smartschedule run %s'", task.Name, task.Name)
	} else {
		color.Green("Scheduled task %q (%s)", task.Name, task.Schedule)
	}

	return nil
}

func ListTasks(ctx context.Context, command *cli.Command) error {
	s, err := setup(command)
	if err != nil {
		return err
	}

	tasks, err := s.List(ctx)
	if err != nil {
		return err
	}

	if len(tasks) == 0 {
		fmt.Println("No scheduled tasks yet. Add one with 'smartschedule add'.")

		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSCHEDULE\tCOMMAND")

	for _, task := range tasks {
		schedule := task.Schedule
		if task.Adaptive {
			schedule = "adaptive"
		}

		fmt.Fprintf(w, "%s\t%s\t%s\n", task.Name, schedule, task.Command)
	}

	return w.Flush()
}

func RunTask(ctx context.Context, command *cli.Command) error {
	name := command.Args().First()
	if name == "" {
		return fmt.Errorf("missing required <name> argument")
	}

	s, err := setup(command)
	if err != nil {
		return err
	}

	result, err := s.Run(ctx, name)
	if err != nil {
		return err
	}

	switch {
	case result.Skipped:
		color.Yellow("Skipped %q: condition not met", name)
	case result.Success():
		color.Green("Task %q succeeded in %s (%d attempt(s))",
			name, result.Duration.Round(time.Millisecond), result.Attempts)
	default:
		return fmt.Errorf("task %s failed with exit code %d after %d attempt(s)",
			name, result.ExitCode, result.Attempts)
	}

	return nil
}

func RemoveTask(ctx context.Context, command *cli.Command) error {
	name := command.Args().First()
	if name == "" {
		return fmt.Errorf("missing required <name> argument")
	}

	s, err := setup(command)
	if err != nil {
		return err
	}

	if err := s.Remove(ctx, name); err != nil {
		return err
	}

	color.Green("Removed task %q", name)

	return nil
}

func AnalyzeTasks(ctx context.Context, command *cli.Command) error {
	s, err := setup(command)
	if err != nil {
		return err
	}

	insights, err := s.Analyze(ctx)
	if err != nil {
		return err
	}

	if len(insights) == 0 {
		fmt.Println("Nothing to analyze: no scheduled tasks.")

		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSCHEDULE\tNEXT RUN\tNOTES")

	for _, insight := range insights {
		schedule := insight.Schedule
		if insight.Adaptive {
			schedule = "adaptive"
		}

		nextRun := "-"
		if !insight.NextRun.IsZero() {
			nextRun = insight.NextRun.Local().Format("2006-01-02 15:04")
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			insight.Name, schedule, nextRun, strings.Join(insight.Notes, "; "))
	}

	return w.Flush()
}

func OptimizeTasks(ctx context.Context, command *cli.Command) error {
	s, err := setup(command)
	if err != nil {
		return err
	}

	recommendations, err := s.Optimize(ctx)
	if err != nil {
		return err
	}

	if len(recommendations) == 0 {
		color.Green("No recommendations: schedules look healthy.")

		return nil
	}

	for _, rec := range recommendations {
		color.Yellow("%s:", rec.Task)
		fmt.Printf("  - %s\n", rec.Suggestion)
	}

	return nil
}
