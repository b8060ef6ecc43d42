package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/dnoice/autoflow/pkg/models"
)

// Optimization thresholds. A serial workflow this long with this many steps
// is a parallelization candidate; above this failure rate the steps need a
// second look.
const (
	longRunThreshold = 30 * time.Second
	parallelMinSteps = 3
	failureRateBar   = 0.5
)

// WorkflowReport is one workflow's row in an analyze report, combining the
// statistics rollup with the execution history.
type WorkflowReport struct {
	Name            string        `json:"name"`
	TotalExecutions int           `json:"total_executions"`
	SuccessRate     float64       `json:"success_rate"`
	AverageDuration time.Duration `json:"average_duration"`
	LastExecutedAt  *time.Time    `json:"last_executed_at,omitempty"`
	RecentRuns      int           `json:"recent_runs"`
}

// Analyze builds a report for the named workflow, or for every workflow when
// name is empty.
func (r *Repository) Analyze(ctx context.Context, name string) ([]WorkflowReport, error) {
	var workflows []*models.Workflow

	if name != "" {
		workflow, err := r.Get(ctx, name)
		if err != nil {
			return nil, err
		}

		workflows = []*models.Workflow{workflow}
	} else {
		all, err := r.List(ctx)
		if err != nil {
			return nil, err
		}

		workflows = all
	}

	reports := make([]WorkflowReport, 0, len(workflows))

	for _, workflow := range workflows {
		records, err := r.ExecutionHistory(ctx, workflow.Name)
		if err != nil {
			return nil, err
		}

		stats := workflow.Statistics

		report := WorkflowReport{
			Name:            workflow.Name,
			TotalExecutions: stats.TotalExecutions,
			AverageDuration: stats.AverageDuration(),
			LastExecutedAt:  stats.LastExecutedAt,
			RecentRuns:      len(records),
		}

		if stats.TotalExecutions > 0 {
			report.SuccessRate = float64(stats.SuccessfulExecutions) / float64(stats.TotalExecutions)
		}

		reports = append(reports, report)
	}

	return reports, nil
}

// Optimize derives tuning recommendations from the analyze reports and the
// workflow definitions.
func (r *Repository) Optimize(ctx context.Context) (map[string][]string, error) {
	workflows, err := r.List(ctx)
	if err != nil {
		return nil, err
	}

	recommendations := make(map[string][]string)

	for _, workflow := range workflows {
		stats := workflow.Statistics

		if stats.TotalExecutions == 0 {
			recommendations[workflow.Name] = append(recommendations[workflow.Name],
				"never executed: run it or delete it")

			continue
		}

		if !workflow.Policy.Parallel &&
			len(workflow.EnabledSteps()) >= parallelMinSteps &&
			stats.AverageDuration() >= longRunThreshold {
			recommendations[workflow.Name] = append(recommendations[workflow.Name],
				fmt.Sprintf("averages %s over %d serial steps: consider parallel execution",
					stats.AverageDuration().Round(time.Second), len(workflow.EnabledSteps())))
		}

		failureRate := float64(stats.FailedExecutions) / float64(stats.TotalExecutions)
		if failureRate > failureRateBar {
			recommendations[workflow.Name] = append(recommendations[workflow.Name],
				fmt.Sprintf("fails %.0f%% of the time: revisit the failing steps or set on_failure=continue",
					failureRate*100))
		}
	}

	return recommendations, nil
}
