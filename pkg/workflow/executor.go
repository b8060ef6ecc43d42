package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dnoice/autoflow/pkg/eventbus"
	"github.com/dnoice/autoflow/pkg/events"
	"github.com/dnoice/autoflow/pkg/models"
	"github.com/google/uuid"
)

// RunOptions modify one workflow run.
type RunOptions struct {
	Verbose bool
	DryRun  bool

	// Variables override the workflow's own variables; both are exported
	// into each step's environment.
	Variables map[string]string
}

// ExecutorOptions configure the engine.
type ExecutorOptions struct {
	// DefaultStepTimeout applies to steps that declare no timeout of their
	// own. Zero disables the default.
	DefaultStepTimeout time.Duration

	// ParallelWorkers caps fan-out for parallel workflows. Values below 1
	// fall back to 4.
	ParallelWorkers int
}

const defaultParallelWorkers = 4

// Executor runs a workflow's steps, enforcing per-step timeout, retry and
// failure policy, and records outcome statistics. It is the sole writer of
// execution records.
type Executor struct {
	repository *Repository
	runner     CommandRunner
	bus        eventbus.EventPublisher
	logger     *slog.Logger
	opts       ExecutorOptions
}

// NewExecutor builds an engine. The event bus may be nil when nothing
// subscribes (e.g. scripted runs).
func NewExecutor(repository *Repository, runner CommandRunner, bus eventbus.EventPublisher, logger *slog.Logger, opts ExecutorOptions) *Executor {
	if runner == nil {
		runner = ShellRunner{}
	}

	if opts.ParallelWorkers < 1 {
		opts.ParallelWorkers = defaultParallelWorkers
	}

	return &Executor{
		repository: repository,
		runner:     runner,
		bus:        bus,
		logger:     logger.With("module", "workflow_executor"),
		opts:       opts,
	}
}

// Run executes the named workflow. It fails with models.ErrWorkflowNotFound
// when the workflow is absent. Dry runs and condition-gated skips touch no
// statistics; every live run appends exactly one execution record and folds
// the rollup in the same locked write.
func (e *Executor) Run(ctx context.Context, name string, opts RunOptions) (*models.ExecutionResult, error) {
	workflow, err := e.repository.Get(ctx, name)
	if err != nil {
		return nil, err
	}

	logger := e.logger.With("workflow", workflow.Name)

	result := &models.ExecutionResult{
		ExecutionID:  uuid.New().String(),
		WorkflowName: workflow.Name,
		StartedAt:    time.Now().UTC(),
		DryRun:       opts.DryRun,
	}

	steps := workflow.EnabledSteps()
	result.TotalSteps = len(steps)

	if opts.DryRun {
		for _, step := range steps {
			result.Steps = append(result.Steps, &models.StepResult{
				StepID:  step.ID,
				Command: step.Command,
				Status:  models.StepStatusDryRun,
			})
		}

		logger.Info("Dry run complete", "steps", len(steps))

		return result, nil
	}

	env := stepEnvironment(workflow, opts.Variables)

	if workflow.Triggers.Condition != "" {
		exitCode, err := e.runner.Run(ctx, workflow.Triggers.Condition, env)
		if err != nil {
			return nil, fmt.Errorf("failed to run condition for workflow %s: %w", workflow.Name, err)
		}

		if exitCode != 0 {
			logger.Info("Condition gate failed, skipping run", "condition", workflow.Triggers.Condition, "exit_code", exitCode)
			result.ConditionSkipped = true

			return result, nil
		}
	}

	runCtx := ctx

	if workflow.Policy.Timeout > 0 {
		var cancel context.CancelFunc

		runCtx, cancel = context.WithTimeout(ctx, time.Duration(workflow.Policy.Timeout)*time.Second)
		defer cancel()
	}

	e.publish(ctx, events.ExecutionStarted{
		BaseEvent:  e.baseEvent(events.ExecutionStartedEvent, result),
		TotalSteps: len(steps),
	})

	logger.Info("Starting execution of workflow", "execution_id", result.ExecutionID, "steps", len(steps), "parallel", workflow.Policy.Parallel)

	if workflow.Policy.Parallel {
		e.runParallel(runCtx, workflow, steps, env, result)
	} else {
		e.runSequential(runCtx, workflow, steps, env, result)
	}

	result.Duration = time.Since(result.StartedAt)

	e.publish(ctx, events.ExecutionCompleted{
		BaseEvent:       e.baseEvent(events.ExecutionCompletedEvent, result),
		Duration:        result.Duration,
		TotalSteps:      result.TotalSteps,
		SuccessfulSteps: result.SuccessfulSteps,
		FailedSteps:     result.FailedSteps,
	})

	if err := e.repository.RecordExecution(ctx, result); err != nil {
		return result, fmt.Errorf("failed to record execution of workflow %s: %w", workflow.Name, err)
	}

	logger.Info("Completed execution of workflow",
		"execution_id", result.ExecutionID,
		"duration", result.Duration,
		"successful_steps", result.SuccessfulSteps,
		"failed_steps", result.FailedSteps,
	)

	return result, nil
}

// runSequential executes steps strictly in declared order. A failing step's
// effective failure policy decides whether the remaining steps run or are
// marked skipped.
func (e *Executor) runSequential(ctx context.Context, workflow *models.Workflow, steps []*models.Step, env []string, result *models.ExecutionResult) {
	stopped := false

	for _, step := range steps {
		if stopped || ctx.Err() != nil {
			result.Steps = append(result.Steps, &models.StepResult{
				StepID:  step.ID,
				Command: step.Command,
				Status:  models.StepStatusSkipped,
			})

			continue
		}

		stepResult := e.executeStep(ctx, workflow, step, env, result)
		result.Steps = append(result.Steps, stepResult)

		if stepResult.Status == models.StepStatusSucceeded {
			result.SuccessfulSteps++

			continue
		}

		result.FailedSteps++

		if step.FailurePolicy(workflow.Policy) == models.FailureModeStop {
			stopped = true
		}
	}
}

// runParallel fans enabled steps out to a bounded worker pool. A failing
// step with stop policy cancels the shared context: running steps finish,
// unstarted steps are marked skipped.
func (e *Executor) runParallel(ctx context.Context, workflow *models.Workflow, steps []*models.Step, env []string, result *models.ExecutionResult) {
	fanCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)

	semaphore := make(chan struct{}, e.opts.ParallelWorkers)
	results := make([]*models.StepResult, len(steps))

	for i, step := range steps {
		if fanCtx.Err() != nil {
			results[i] = &models.StepResult{
				StepID:  step.ID,
				Command: step.Command,
				Status:  models.StepStatusSkipped,
			}

			continue
		}

		semaphore <- struct{}{}

		wg.Add(1)

		go func(i int, step *models.Step) {
			defer wg.Done()
			defer func() { <-semaphore }()

			stepResult := e.executeStep(fanCtx, workflow, step, env, result)

			mu.Lock()
			defer mu.Unlock()

			results[i] = stepResult

			if stepResult.Status == models.StepStatusSucceeded {
				result.SuccessfulSteps++

				return
			}

			result.FailedSteps++

			if step.FailurePolicy(workflow.Policy) == models.FailureModeStop {
				cancel()
			}
		}(i, step)
	}

	wg.Wait()

	for _, stepResult := range results {
		if stepResult != nil {
			result.Steps = append(result.Steps, stepResult)
		}
	}
}

// executeStep runs one step with its effective timeout and bounded retries.
func (e *Executor) executeStep(ctx context.Context, workflow *models.Workflow, step *models.Step, env []string, result *models.ExecutionResult) *models.StepResult {
	retries := step.Retries(workflow.Policy)
	started := time.Now()

	var (
		exitCode int
		runErr   error
	)

	attempts := 0

	runAttempt := func() (int, error) {
		stepCtx := ctx

		if timeout := e.stepTimeout(step); timeout > 0 {
			var cancel context.CancelFunc

			stepCtx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		return e.runner.Run(stepCtx, step.Command, env)
	}

	for attempt := 0; attempt <= retries; attempt++ {
		attempts++

		exitCode, runErr = runAttempt()
		if runErr == nil && exitCode == 0 {
			stepResult := &models.StepResult{
				StepID:   step.ID,
				Command:  step.Command,
				Status:   models.StepStatusSucceeded,
				Attempts: attempts,
				Duration: time.Since(started),
			}

			e.publish(ctx, events.StepFinished{
				BaseEvent: e.baseEvent(events.StepFinishedEvent, result),
				StepID:    step.ID,
				Command:   step.Command,
				Attempts:  attempts,
				Duration:  stepResult.Duration,
			})

			return stepResult
		}

		// A cancelled or timed-out run must not burn retries.
		if ctx.Err() != nil {
			break
		}

		if attempt < retries {
			e.logger.Warn("Step failed, retrying",
				"step_id", step.ID,
				"attempt", attempts,
				"exit_code", exitCode,
			)
		}
	}

	stepResult := &models.StepResult{
		StepID:   step.ID,
		Command:  step.Command,
		Status:   models.StepStatusFailed,
		ExitCode: exitCode,
		Attempts: attempts,
		Duration: time.Since(started),
	}

	if runErr != nil {
		stepResult.Error = runErr.Error()
	} else if ctx.Err() != nil {
		stepResult.Error = ctx.Err().Error()
	}

	e.logger.Error("Step failed",
		"step_id", step.ID,
		"command", step.Command,
		"exit_code", exitCode,
		"attempts", attempts,
	)

	e.publish(ctx, events.StepFailed{
		BaseEvent: e.baseEvent(events.StepFailedEvent, result),
		StepID:    step.ID,
		Command:   step.Command,
		Attempts:  attempts,
		ExitCode:  exitCode,
		Error:     stepResult.Error,
	})

	return stepResult
}

func (e *Executor) stepTimeout(step *models.Step) time.Duration {
	if step.Timeout > 0 {
		return time.Duration(step.Timeout) * time.Second
	}

	return e.opts.DefaultStepTimeout
}

func (e *Executor) baseEvent(eventType events.EventType, result *models.ExecutionResult) events.BaseEvent {
	return events.BaseEvent{
		ID:           uuid.New().String(),
		Type:         eventType,
		Timestamp:    time.Now().UTC(),
		WorkflowName: result.WorkflowName,
		ExecutionID:  result.ExecutionID,
	}
}

func (e *Executor) publish(ctx context.Context, event eventbus.Event) {
	if e.bus == nil {
		return
	}

	if err := e.bus.Publish(ctx, string(event.GetType()), event); err != nil {
		e.logger.Warn("Failed to publish event", "event_type", event.GetType(), "error", err)
	}
}

// stepEnvironment renders workflow variables plus per-run overrides as
// KEY=value pairs for the step subprocess.
func stepEnvironment(workflow *models.Workflow, overrides map[string]string) []string {
	merged := make(map[string]string, len(workflow.Variables)+len(overrides))

	for k, v := range workflow.Variables {
		merged[k] = v
	}

	for k, v := range overrides {
		merged[k] = v
	}

	env := make([]string, 0, len(merged))
	for k, v := range merged {
		env = append(env, k+"="+v)
	}

	return env
}
