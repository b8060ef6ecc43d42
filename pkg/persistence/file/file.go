// Package file provides file-based persistence for workflows, scheduled
// tasks and the execution-history log. Each workflow and task is one JSON
// document; the execution log is an append-only pipe-delimited file. All
// mutations take an exclusive advisory lock so overlapping processes (a cron
// run racing a manual run) never lose updates.
package file

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/dnoice/autoflow/pkg/flock"
	"github.com/dnoice/autoflow/pkg/persistence"
)

const (
	workflowsDir  = "workflows"
	tasksDir      = "tasks"
	executionsLog = "executions.log"
	lockFile      = ".autoflow.lock"

	dirMode  = 0o750
	fileMode = 0o600
)

// Persistence implements persistence.Persistence on the local file system.
type Persistence struct {
	root string
}

// NewPersistence creates a file-backed store rooted at the given directory.
// A "file://" prefix is accepted and stripped.
func NewPersistence(root string) persistence.Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{root: cleanRoot}
}

// Close performs any necessary cleanup. Nothing to release for files.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck verifies the root directory exists or can be created.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	return os.MkdirAll(fp.root, dirMode)
}

func (fp *Persistence) lockPath() string {
	return filepath.Join(fp.root, lockFile)
}

// withLock runs fn while holding the store-wide exclusive advisory lock.
func (fp *Persistence) withLock(fn func() error) error {
	if err := os.MkdirAll(fp.root, dirMode); err != nil {
		return err
	}

	lock, err := flock.Acquire(fp.lockPath())
	if err != nil {
		return err
	}
	defer lock.Release()

	return fn()
}

// writeFileAtomic writes data to path via a temp file and rename, so a
// crashed writer never leaves a half-written document behind.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}

	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)

		return err
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)

		return err
	}

	if err := os.Chmod(tmpName, fileMode); err != nil {
		_ = os.Remove(tmpName)

		return err
	}

	return os.Rename(tmpName, path)
}
