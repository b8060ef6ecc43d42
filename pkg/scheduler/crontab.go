package scheduler

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/dnoice/autoflow/pkg/models"
)

// CrontabClient abstracts the user's cron table so task materialization can
// be tested without touching the real one.
type CrontabClient interface {
	// Read returns the current table as lines, empty when no table exists.
	Read(ctx context.Context) ([]string, error)

	// Install replaces the whole table with the given lines.
	Install(ctx context.Context, lines []string) error
}

// SystemCrontab shells out to the crontab binary.
type SystemCrontab struct{}

func (SystemCrontab) Read(ctx context.Context) ([]string, error) {
	out, err := exec.CommandContext(ctx, "crontab", "-l").Output()
	if err != nil {
		// crontab -l exits non-zero when the user has no table yet.
		if _, ok := err.(*exec.ExitError); ok {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to read crontab: %w", err)
	}

	text := strings.TrimRight(string(out), "\n")
	if text == "" {
		return nil, nil
	}

	return strings.Split(text, "\n"), nil
}

func (SystemCrontab) Install(ctx context.Context, lines []string) error {
	var body string
	if len(lines) > 0 {
		body = strings.Join(lines, "\n") + "\n"
	}

	cmd := exec.CommandContext(ctx, "crontab", "-")
	cmd.Stdin = strings.NewReader(body)

	if out, err := cmd.CombinedOutput(); err != nil {
		return &models.ScheduleError{
			Err: fmt.Errorf("crontab rejected the table: %s: %w", strings.TrimSpace(string(out)), err),
		}
	}

	return nil
}
