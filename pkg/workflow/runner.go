package workflow

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
)

// CommandRunner executes one shell command line in a fresh subprocess and
// reports its exit code. An error is returned only when the command could
// not be run at all (a non-zero exit is not an error).
type CommandRunner interface {
	Run(ctx context.Context, command string, extraEnv []string) (int, error)
}

// ShellRunner runs commands through `sh -c` with the inherited environment.
type ShellRunner struct{}

func (ShellRunner) Run(ctx context.Context, command string, extraEnv []string) (int, error) {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Env = append(os.Environ(), extraEnv...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}

	return -1, fmt.Errorf("failed to start command: %w", err)
}
