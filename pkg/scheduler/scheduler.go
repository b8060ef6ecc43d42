// Package scheduler manages recurring shell tasks. The store owns the task
// documents; non-adaptive tasks are additionally materialized as one tagged
// line each in the user's cron table, which stays the single source of
// time-based firing.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dnoice/autoflow/pkg/flock"
	"github.com/dnoice/autoflow/pkg/models"
	"github.com/dnoice/autoflow/pkg/persistence"
	"github.com/dnoice/autoflow/pkg/workflow"
	"github.com/go-playground/validator/v10"
)

// taskTagPrefix marks crontab lines owned by this tool. Lines without the
// tag are never touched.
const taskTagPrefix = "# task-tag:"

// crontabLockFile serializes read-modify-install cycles on the cron table.
// It is distinct from the store lock, which Add and Remove take through the
// persistence layer while this one is held.
const crontabLockFile = ".crontab.lock"

// TaskSpec is the caller-facing description of a new scheduled task.
type TaskSpec struct {
	Name       string
	Command    string
	Schedule   string
	Adaptive   bool
	Condition  string
	RetryCount int
}

// TaskRunResult reports one immediate task invocation.
type TaskRunResult struct {
	Name     string        `json:"name"`
	Skipped  bool          `json:"skipped"`
	ExitCode int           `json:"exit_code"`
	Attempts int           `json:"attempts"`
	Duration time.Duration `json:"duration"`
}

// Success reports whether the task ran and exited zero.
func (r *TaskRunResult) Success() bool {
	return !r.Skipped && r.ExitCode == 0
}

// TaskInsight is one task's row in an analyze report.
type TaskInsight struct {
	Name     string    `json:"name"`
	Schedule string    `json:"schedule"`
	Adaptive bool      `json:"adaptive"`
	NextRun  time.Time `json:"next_run,omitempty"`
	Notes    []string  `json:"notes,omitempty"`
}

// Recommendation is one actionable optimize finding.
type Recommendation struct {
	Task       string `json:"task"`
	Suggestion string `json:"suggestion"`
}

// Scheduler coordinates the task store, the cron table and immediate runs.
type Scheduler struct {
	persistence persistence.Persistence
	crontab     CrontabClient
	runner      workflow.CommandRunner
	dataDir     string
	validate    *validator.Validate
	logger      *slog.Logger
	now         func() time.Time
}

func NewScheduler(p persistence.Persistence, crontab CrontabClient, runner workflow.CommandRunner, dataDir string, logger *slog.Logger) *Scheduler {
	if crontab == nil {
		crontab = SystemCrontab{}
	}

	if runner == nil {
		runner = workflow.ShellRunner{}
	}

	return &Scheduler{
		persistence: p,
		crontab:     crontab,
		runner:      runner,
		dataDir:     dataDir,
		validate:    validator.New(),
		logger:      logger.With("module", "scheduler"),
		now:         time.Now,
	}
}

// withCrontabLock runs fn while holding the exclusive crontab lock, so two
// concurrent mutations never install each other's stale table.
func (s *Scheduler) withCrontabLock(fn func() error) error {
	if err := os.MkdirAll(s.dataDir, 0o750); err != nil {
		return err
	}

	lock, err := flock.Acquire(filepath.Join(s.dataDir, crontabLockFile))
	if err != nil {
		return err
	}
	defer lock.Release()

	return fn()
}

// Add stores a new task and, unless it is adaptive, appends its tagged line
// to the cron table. A rejected table propagates as *models.ScheduleError
// and the stored document is rolled back so the two sides stay consistent.
// The whole read-modify-install cycle runs under the crontab lock so
// concurrent adds never drop each other's tagged lines.
func (s *Scheduler) Add(ctx context.Context, spec TaskSpec) (*models.ScheduledTask, error) {
	if err := models.ValidateName(spec.Name); err != nil {
		return nil, fmt.Errorf("task: %w", err)
	}

	task := &models.ScheduledTask{
		Name:       spec.Name,
		Command:    spec.Command,
		Schedule:   models.ResolveSchedule(spec.Schedule),
		Adaptive:   spec.Adaptive,
		Condition:  spec.Condition,
		RetryCount: spec.RetryCount,
		CreatedAt:  s.now().UTC(),
	}

	if task.Adaptive {
		task.Schedule = ""
	}

	if err := s.validate.Struct(task); err != nil {
		return nil, fmt.Errorf("invalid task %s: %w", spec.Name, err)
	}

	err := s.withCrontabLock(func() error {
		lines, err := s.crontab.Read(ctx)
		if err != nil {
			return err
		}

		if idx := findTaggedLine(lines, task.Name); idx >= 0 {
			return fmt.Errorf("task %s: %w", task.Name, models.ErrTaskExists)
		}

		if err := s.persistence.CreateTask(ctx, task); err != nil {
			return err
		}

		if task.Adaptive {
			return nil
		}

		lines = append(lines, crontabLine(task))

		if err := s.crontab.Install(ctx, lines); err != nil {
			if rollbackErr := s.persistence.DeleteTask(ctx, task.Name); rollbackErr != nil {
				s.logger.Error("Failed to roll back task after crontab rejection",
					"task", task.Name, "error", rollbackErr)
			}

			return err
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if task.Adaptive {
		s.logger.Info("Adaptive task stored", "task", task.Name)
	} else {
		s.logger.Info("Task scheduled", "task", task.Name, "schedule", task.Schedule)
	}

	return task, nil
}

// List merges stored tasks with tagged crontab lines. A tagged line with no
// stored document still shows up, reconstructed from the line itself.
func (s *Scheduler) List(ctx context.Context) ([]*models.ScheduledTask, error) {
	tasks, err := s.persistence.Tasks(ctx)
	if err != nil {
		return nil, err
	}

	known := make(map[string]bool, len(tasks))
	for _, task := range tasks {
		known[task.Name] = true
	}

	lines, err := s.crontab.Read(ctx)
	if err != nil {
		return nil, err
	}

	for _, line := range lines {
		task, ok := parseTaggedLine(line)
		if !ok || known[task.Name] {
			continue
		}

		known[task.Name] = true
		tasks = append(tasks, task)
	}

	sort.Slice(tasks, func(i, j int) bool {
		return tasks[i].Name < tasks[j].Name
	})

	return tasks, nil
}

// Remove deletes the stored document and the single owned crontab line.
// Foreign lines pass through byte-identical. Fails with ErrTaskNotFound when
// neither side knows the name.
func (s *Scheduler) Remove(ctx context.Context, name string) error {
	err := s.withCrontabLock(func() error {
		stored := true

		if err := s.persistence.DeleteTask(ctx, name); err != nil {
			if !errors.Is(err, models.ErrTaskNotFound) {
				return err
			}

			stored = false
		}

		lines, err := s.crontab.Read(ctx)
		if err != nil {
			return err
		}

		idx := findTaggedLine(lines, name)
		if idx < 0 {
			if !stored {
				return fmt.Errorf("task %s: %w", name, models.ErrTaskNotFound)
			}

			return nil
		}

		kept := make([]string, 0, len(lines)-1)
		kept = append(kept, lines[:idx]...)
		kept = append(kept, lines[idx+1:]...)

		return s.crontab.Install(ctx, kept)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Task removed", "task", name)

	return nil
}

// Run executes the task immediately, honoring its condition gate and retry
// budget. The condition's failure means skip, not error.
func (s *Scheduler) Run(ctx context.Context, name string) (*TaskRunResult, error) {
	task, err := s.persistence.TaskByName(ctx, name)
	if err != nil {
		return nil, err
	}

	result := &TaskRunResult{Name: task.Name}
	started := s.now()

	defer func() {
		result.Duration = s.now().Sub(started)
	}()

	if task.Condition != "" {
		code, err := s.runner.Run(ctx, task.Condition, nil)
		if err != nil {
			return nil, fmt.Errorf("condition for task %s: %w", task.Name, err)
		}

		if code != 0 {
			s.logger.Info("Condition not met, skipping task", "task", task.Name, "exit_code", code)
			result.Skipped = true

			return result, nil
		}
	}

	for attempt := 0; attempt <= task.RetryCount; attempt++ {
		result.Attempts = attempt + 1

		code, err := s.runner.Run(ctx, task.Command, nil)
		if err != nil {
			return nil, fmt.Errorf("task %s: %w", task.Name, err)
		}

		result.ExitCode = code

		if code == 0 {
			break
		}

		if ctx.Err() != nil {
			break
		}

		s.logger.Warn("Task attempt failed", "task", task.Name, "attempt", attempt+1, "exit_code", code)
	}

	return result, nil
}

// Analyze reports each task's next firing time and flags same-minute
// collisions and manual-only adaptive tasks.
func (s *Scheduler) Analyze(ctx context.Context) ([]TaskInsight, error) {
	tasks, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	insights := make([]TaskInsight, 0, len(tasks))
	byMinute := make(map[string][]int)

	for i, task := range tasks {
		insight := TaskInsight{
			Name:     task.Name,
			Schedule: task.Schedule,
			Adaptive: task.Adaptive,
		}

		if task.Adaptive {
			insight.Notes = append(insight.Notes, "adaptive: runs only on manual invocation")
		} else {
			insight.NextRun = task.NextRun(now)

			if insight.NextRun.IsZero() {
				insight.Notes = append(insight.Notes, "schedule could not be parsed")
			} else {
				minute := insight.NextRun.Truncate(time.Minute).Format(time.RFC3339)
				byMinute[minute] = append(byMinute[minute], i)
			}
		}

		insights = append(insights, insight)
	}

	for _, indexes := range byMinute {
		if len(indexes) < 2 {
			continue
		}

		for _, i := range indexes {
			insights[i].Notes = append(insights[i].Notes,
				fmt.Sprintf("fires in the same minute as %d other task(s)", len(indexes)-1))
		}
	}

	return insights, nil
}

// Optimize turns analyze findings into actionable suggestions.
func (s *Scheduler) Optimize(ctx context.Context) ([]Recommendation, error) {
	insights, err := s.Analyze(ctx)
	if err != nil {
		return nil, err
	}

	var recommendations []Recommendation

	for _, insight := range insights {
		for _, note := range insight.Notes {
			switch {
			case strings.Contains(note, "same minute"):
				recommendations = append(recommendations, Recommendation{
					Task:       insight.Name,
					Suggestion: "spread the schedule: shift the minute field to avoid the collision",
				})
			case strings.Contains(note, "could not be parsed"):
				recommendations = append(recommendations, Recommendation{
					Task:       insight.Name,
					Suggestion: "fix the cron expression so the next run can be computed",
				})
			}
		}
	}

	return recommendations, nil
}

// crontabLine renders the single owned table line for a task.
func crontabLine(task *models.ScheduledTask) string {
	return fmt.Sprintf("%s %s %s%s", task.Schedule, task.Command, taskTagPrefix, task.Name)
}

// findTaggedLine returns the index of the line owned by the named task, or -1.
func findTaggedLine(lines []string, name string) int {
	tag := taskTagPrefix + name

	for i, line := range lines {
		if strings.HasSuffix(strings.TrimSpace(line), tag) {
			return i
		}
	}

	return -1
}

// parseTaggedLine reconstructs a task from an owned crontab line. The first
// five fields are the schedule, the rest up to the tag is the command.
func parseTaggedLine(line string) (*models.ScheduledTask, bool) {
	idx := strings.LastIndex(line, taskTagPrefix)
	if idx < 0 {
		return nil, false
	}

	name := strings.TrimSpace(line[idx+len(taskTagPrefix):])
	if name == "" {
		return nil, false
	}

	fields := strings.Fields(strings.TrimSpace(line[:idx]))
	if len(fields) < 6 {
		return nil, false
	}

	return &models.ScheduledTask{
		Name:     name,
		Schedule: strings.Join(fields[:5], " "),
		Command:  strings.Join(fields[5:], " "),
	}, true
}
