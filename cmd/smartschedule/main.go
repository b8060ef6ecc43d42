package main

import (
	"context"
	"os"

	log "github.com/sirupsen/logrus"
	cli "github.com/urfave/cli/v3"
)

func main() {
	cmd := &cli.Command{
		Name:                  "smartschedule",
		Usage:                 "Schedule recurring shell tasks through the system cron table",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "Path to config file (defaults to the XDG config location)",
				Value: "",
			},
			&cli.StringFlag{
				Name:  "data-dir",
				Usage: "Override the automation data directory",
				Value: "",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error)",
				Value: "",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "add",
				Aliases:   []string{"a"},
				Usage:     "Store a task and materialize its cron table line",
				ArgsUsage: "<name> <command>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "schedule",
						Usage: "Cron expression or shorthand (daily, hourly, weekly, monthly, midnight, noon)",
						Value: "",
					},
					&cli.BoolFlag{
						Name:  "adaptive",
						Usage: "Store without a cron trigger; run only on manual invocation",
						Value: false,
					},
					&cli.StringFlag{
						Name:  "condition",
						Usage: "Gate command; a non-zero exit skips the run",
						Value: "",
					},
					&cli.IntFlag{
						Name:  "retry",
						Usage: "Re-execution count for a failing run",
						Value: 0,
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return AddTask(ctx, cmd)
				},
			},
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List stored tasks merged with tagged cron table lines",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return ListTasks(ctx, cmd)
				},
			},
			{
				Name:      "run",
				Aliases:   []string{"r"},
				Usage:     "Run a task immediately, honoring its condition and retries",
				ArgsUsage: "<name>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return RunTask(ctx, cmd)
				},
			},
			{
				Name:      "remove",
				Aliases:   []string{"rm"},
				Usage:     "Delete a task and its owned cron table line",
				ArgsUsage: "<name>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return RemoveTask(ctx, cmd)
				},
			},
			{
				Name:  "analyze",
				Usage: "Report next firing times and same-minute collisions",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return AnalyzeTasks(ctx, cmd)
				},
			},
			{
				Name:  "optimize",
				Usage: "Suggest schedule adjustments",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return OptimizeTasks(ctx, cmd)
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
