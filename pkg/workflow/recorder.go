package workflow

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dnoice/autoflow/pkg/flock"
	"github.com/dnoice/autoflow/pkg/models"
)

// StopWord ends a recording session. It is never captured as a step.
const StopWord = "stop"

const sessionLockFile = "recording.lock"

// Recorder captures an interactive command sequence and converts it into a
// workflow definition. Only one session may be active per store at a time.
type Recorder struct {
	repository *Repository
	dataDir    string
}

func NewRecorder(repository *Repository, dataDir string) *Recorder {
	return &Recorder{repository: repository, dataDir: dataDir}
}

// RecordingSession accumulates command lines until stopped.
type RecordingSession struct {
	recorder *Recorder
	name     string
	lines    []string
	lock     *flock.Lock
}

// Start opens a recording session for a new workflow. It fails early with
// ErrWorkflowExists when the name is taken, and with ErrRecordingActive when
// another session holds the session lock. The lock is a real flock, so a
// killed session releases it on process exit and never wedges recording.
func (r *Recorder) Start(ctx context.Context, name string) (*RecordingSession, error) {
	if _, err := r.repository.Get(ctx, name); err == nil {
		return nil, fmt.Errorf("workflow %s: %w", name, models.ErrWorkflowExists)
	} else if !errors.Is(err, models.ErrWorkflowNotFound) {
		return nil, err
	}

	if err := os.MkdirAll(r.dataDir, 0o750); err != nil {
		return nil, err
	}

	lock, err := flock.TryAcquire(filepath.Join(r.dataDir, sessionLockFile))
	if err != nil {
		if errors.Is(err, flock.ErrHeld) {
			return nil, models.ErrRecordingActive
		}

		return nil, fmt.Errorf("failed to open recording session: %w", err)
	}

	return &RecordingSession{
		recorder: r,
		name:     name,
		lock:     lock,
	}, nil
}

// Name returns the workflow name being recorded.
func (s *RecordingSession) Name() string {
	return s.name
}

// Prompt is the visible indicator shown while recording is in progress.
func (s *RecordingSession) Prompt() string {
	return fmt.Sprintf("[REC %s] > ", s.name)
}

// Add appends one command line to the session log. Blank lines, comment
// lines and the stop word are skipped; Add reports whether the line was
// retained.
func (s *RecordingSession) Add(line string) bool {
	trimmed := strings.TrimSpace(line)

	if trimmed == "" || strings.HasPrefix(trimmed, "#") || trimmed == StopWord {
		return false
	}

	s.lines = append(s.lines, trimmed)

	return true
}

// Lines returns the retained command lines in capture order.
func (s *RecordingSession) Lines() []string {
	return s.lines
}

// Stop drains the session log into a new workflow, one step per retained
// line in capture order, and releases the session lock. An empty session
// fails with ErrNoInput.
func (s *RecordingSession) Stop(ctx context.Context) (*models.Workflow, error) {
	s.release()

	if len(s.lines) == 0 {
		return nil, fmt.Errorf("recording %s: %w", s.name, models.ErrNoInput)
	}

	description := "Recorded workflow: " + s.name

	return s.recorder.repository.Create(ctx, s.name, description,
		models.ExecutionPolicy{}, models.WorkflowTriggers{}, s.lines)
}

// Abort discards the session without creating a workflow.
func (s *RecordingSession) Abort() {
	s.release()
}

func (s *RecordingSession) release() {
	s.lock.Release()
	s.lock = nil
}
