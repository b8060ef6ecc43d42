package models

import (
	"time"

	"github.com/robfig/cron/v3"
)

// ScheduledTask is a name/command/trigger tuple. Non-adaptive tasks are
// materialized as one tagged line in the external cron table; adaptive tasks
// carry no trigger and run only on manual invocation.
type ScheduledTask struct {
	Name       string    `json:"name"     validate:"required,min=1"`
	Command    string    `json:"command"  validate:"required"`
	Schedule   string    `json:"schedule"`
	Adaptive   bool      `json:"adaptive"`
	Condition  string    `json:"condition,omitempty"`
	RetryCount int       `json:"retry_count" validate:"gte=0"`
	CreatedAt  time.Time `json:"created_at"`
}

// naturalSchedules maps natural-language shorthands to fixed cron
// expressions. Anything not in the table passes through unchanged and is
// only validated by the external executor.
var naturalSchedules = map[string]string{
	"daily":    "0 2 * * *",
	"hourly":   "0 * * * *",
	"weekly":   "0 3 * * 0",
	"monthly":  "0 4 1 * *",
	"midnight": "0 0 * * *",
	"noon":     "0 12 * * *",
}

// ResolveSchedule maps a natural-language shorthand to its cron expression,
// or returns the input unchanged.
func ResolveSchedule(schedule string) string {
	if expr, ok := naturalSchedules[schedule]; ok {
		return expr
	}

	return schedule
}

// NextRun computes the task's next firing time after the reference time.
// Returns the zero time for adaptive tasks and unparseable expressions.
func (t *ScheduledTask) NextRun(after time.Time) time.Time {
	if t.Adaptive || t.Schedule == "" {
		return time.Time{}
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

	schedule, err := parser.Parse(t.Schedule)
	if err != nil {
		return time.Time{}
	}

	return schedule.Next(after)
}
