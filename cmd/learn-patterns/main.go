package main

import (
	"context"
	"os"

	log "github.com/sirupsen/logrus"
	cli "github.com/urfave/cli/v3"
)

func main() {
	cmd := &cli.Command{
		Name:                  "learn-patterns",
		Usage:                 "Mine shell history for frequent commands and command sequences",
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
			&cli.StringFlag{
				Name:  "history",
				Usage: "History file to mine (defaults to the configured one)",
				Value: "",
			},
			&cli.BoolFlag{
				Name:  "analyze-history",
				Usage: "Print the command frequency and sequence tables (the default)",
				Value: false,
			},
			&cli.BoolFlag{
				Name:  "create-shortcuts",
				Usage: "Regenerate the sourceable alias script for frequent commands",
				Value: false,
			},
			&cli.BoolFlag{
				Name:  "suggest-workflows",
				Usage: "Propose workflows from recurring command sequences",
				Value: false,
			},
			&cli.BoolFlag{
				Name:  "update-models",
				Usage: "Regenerate every pattern artifact from current history",
				Value: false,
			},
			&cli.IntFlag{
				Name:    "top",
				Aliases: []string{"n"},
				Usage:   "Cap each table at N entries",
				Value:   10,
			},
			&cli.IntFlag{
				Name:  "min-frequency",
				Usage: "Drop entries seen fewer than N times",
				Value: 2,
			},
			&cli.BoolFlag{
				Name:  "background",
				Usage: "Run mining as a background job",
				Value: false,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return LearnPatterns(ctx, cmd)
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
