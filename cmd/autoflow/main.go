package main

import (
	"context"
	"os"

	log "github.com/sirupsen/logrus"
	cli "github.com/urfave/cli/v3"
)

func main() {
	cmd := &cli.Command{
		Name:                  "autoflow",
		Usage:                 "Create, record, run and analyze shell workflows",
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
				Name:      "create",
				Aliases:   []string{"c"},
				Usage:     "Create a workflow from ordered --step commands",
				ArgsUsage: "<name>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "description",
						Aliases: []string{"d"},
						Usage:   "Human-readable description",
						Value:   "",
					},
					&cli.StringSliceFlag{
						Name:    "step",
						Aliases: []string{"s"},
						Usage:   "Step command line (repeatable, order preserved)",
					},
					&cli.BoolFlag{
						Name:  "parallel",
						Usage: "Run steps concurrently instead of in order",
						Value: false,
					},
					&cli.IntFlag{
						Name:  "timeout",
						Usage: "Whole-run timeout in seconds (0 = none)",
						Value: 0,
					},
					&cli.IntFlag{
						Name:  "retry",
						Usage: "Per-step retry count",
						Value: 0,
					},
					&cli.StringFlag{
						Name:  "on-failure",
						Usage: "Failure policy (stop or continue)",
						Value: "stop",
					},
					&cli.StringFlag{
						Name:  "schedule",
						Usage: "Cron expression stored as trigger metadata",
						Value: "",
					},
					&cli.StringFlag{
						Name:  "condition",
						Usage: "Gate command; a non-zero exit skips the run",
						Value: "",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return CreateWorkflow(ctx, cmd)
				},
			},
			{
				Name:      "record",
				Usage:     "Record commands from stdin into a new workflow (type 'stop' to finish)",
				ArgsUsage: "<name>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return RecordWorkflow(ctx, cmd)
				},
			},
			{
				Name:      "run",
				Aliases:   []string{"r"},
				Usage:     "Execute a workflow",
				ArgsUsage: "<name>",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "verbose",
						Aliases: []string{"v"},
						Usage:   "Print per-step progress",
						Value:   false,
					},
					&cli.BoolFlag{
						Name:  "dry-run",
						Usage: "Print the step plan without executing anything",
						Value: false,
					},
					&cli.StringSliceFlag{
						Name:  "var",
						Usage: "Variable override as key=value (repeatable)",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return RunWorkflow(ctx, cmd)
				},
			},
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List stored workflows",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return ListWorkflows(ctx, cmd)
				},
			},
			{
				Name:      "analyze",
				Usage:     "Report execution statistics for one or all workflows",
				ArgsUsage: "[name]",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return AnalyzeWorkflows(ctx, cmd)
				},
			},
			{
				Name:  "optimize",
				Usage: "Suggest execution-policy improvements",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return OptimizeWorkflows(ctx, cmd)
				},
			},
			{
				Name:      "export",
				Usage:     "Serialize a workflow definition",
				ArgsUsage: "<name>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "format",
						Usage: "Output format (json or yaml)",
						Value: "json",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write to file instead of stdout",
						Value:   "",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return ExportWorkflow(ctx, cmd)
				},
			},
			{
				Name:      "import",
				Usage:     "Import a previously exported workflow document",
				ArgsUsage: "<file>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return ImportWorkflow(ctx, cmd)
				},
			},
			{
				Name:      "delete",
				Aliases:   []string{"rm"},
				Usage:     "Delete a workflow definition",
				ArgsUsage: "<name>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return DeleteWorkflow(ctx, cmd)
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
