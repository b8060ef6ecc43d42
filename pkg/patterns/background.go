package patterns

import (
	"context"
	"time"

	"github.com/dnoice/autoflow/pkg/eventbus"
	"github.com/dnoice/autoflow/pkg/events"
	"github.com/google/uuid"
)

// MiningJob is an explicitly spawned background mining run. Unlike an
// untracked fire-and-forget process it can be awaited and cancelled, so
// callers (and tests) observe completion deterministically.
type MiningJob struct {
	done   chan struct{}
	report *Report
	err    error
}

// MineInBackground runs mining plus artifact generation off the calling
// goroutine. The optional bus receives a MiningCompleted event on success.
func (m *Miner) MineInBackground(ctx context.Context, history []string, opts MineOptions, writer *ArtifactWriter, bus eventbus.EventPublisher) *MiningJob {
	job := &MiningJob{done: make(chan struct{})}

	go func() {
		defer close(job.done)

		if err := ctx.Err(); err != nil {
			job.err = err

			return
		}

		report, err := m.Mine(history, opts)
		if err != nil {
			job.err = err

			return
		}

		job.report = report

		if writer != nil {
			if err := writer.WriteAll(report); err != nil {
				job.err = err

				return
			}
		}

		if bus != nil {
			event := events.MiningCompleted{
				BaseEvent: events.BaseEvent{
					ID:        uuid.New().String(),
					Type:      events.MiningCompletedEvent,
					Timestamp: time.Now().UTC(),
				},
				Commands:  len(report.Commands),
				Sequences: len(report.Sequences),
			}

			if err := bus.Publish(ctx, string(events.MiningCompletedEvent), event); err != nil {
				m.logger.Warn("Failed to publish mining event", "error", err)
			}
		}
	}()

	return job
}

// Wait blocks until the job finishes or the context is cancelled, and
// returns the report or the first error.
func (j *MiningJob) Wait(ctx context.Context) (*Report, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-j.done:
		return j.report, j.err
	}
}
