package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hyperengineering/protrack/internal/types"
	"github.com/robfig/cron/v3"
)

// ReminderStore defines the store operations needed by the reminder worker.
type ReminderStore interface {
	DueReminders(ctx context.Context, date types.Date) ([]types.DueReminder, error)
	MarkRemindersSent(ctx context.Context, taskIDs []string) (int64, error)
}

// Notifier delivers one task reminder.
type Notifier interface {
	Notify(ctx context.Context, r types.DueReminder) error
}

// LogNotifier delivers reminders as structured log lines.
type LogNotifier struct{}

// Notify implements Notifier.
func (LogNotifier) Notify(ctx context.Context, r types.DueReminder) error {
	slog.Info("task reminder",
		"component", "worker",
		"worker", "reminder",
		"user_id", r.UserID,
		"roadmap_id", r.RoadmapID,
		"roadmap_title", r.RoadmapTitle,
		"task_id", r.TaskID,
		"day", r.Day,
		"title", r.Title,
	)
	return nil
}

// ReminderWorker sweeps for tasks due today on a cron schedule and hands each
// one to a Notifier exactly once.
type ReminderWorker struct {
	store    ReminderStore
	notifier Notifier
	spec     string
	schedule cron.Schedule
	now      func() time.Time
}

// NewReminderWorker creates a worker. spec is a standard five-field cron
// expression or a descriptor such as "@daily".
func NewReminderWorker(store ReminderStore, notifier Notifier, spec string) (*ReminderWorker, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid reminder schedule %q: %w", spec, err)
	}
	if notifier == nil {
		notifier = LogNotifier{}
	}
	return &ReminderWorker{
		store:    store,
		notifier: notifier,
		spec:     spec,
		schedule: schedule,
		now:      time.Now,
	}, nil
}

// Run starts the worker loop. Blocks until ctx is cancelled.
// Does NOT run immediately on start; the first sweep happens at the next
// scheduled time.
func (w *ReminderWorker) Run(ctx context.Context) {
	slog.Info("worker started",
		"component", "worker",
		"worker", "reminder",
		"schedule", w.spec,
	)

	for {
		now := w.now()
		next := w.schedule.Next(now)
		timer := time.NewTimer(next.Sub(now))

		select {
		case <-ctx.Done():
			timer.Stop()
			slog.Info("worker stopped",
				"component", "worker",
				"worker", "reminder",
				"reason", "context_cancelled",
			)
			return
		case <-timer.C:
			if _, err := w.Sweep(ctx, types.DateOf(w.now())); err != nil && ctx.Err() == nil {
				slog.Error("reminder sweep failed",
					"component", "worker",
					"action", "reminder_failed",
					"error", err,
				)
			}
		}
	}
}

// Sweep notifies every due reminder for date and marks the delivered ones as
// sent. A reminder whose delivery fails stays pending for the next sweep.
// It returns how many reminders were marked.
func (w *ReminderWorker) Sweep(ctx context.Context, date types.Date) (int64, error) {
	start := time.Now()

	due, err := w.store.DueReminders(ctx, date)
	if err != nil {
		return 0, fmt.Errorf("load due reminders: %w", err)
	}
	if len(due) == 0 {
		slog.Debug("no reminders due",
			"component", "worker",
			"date", date.String(),
		)
		return 0, nil
	}

	sent := make([]string, 0, len(due))
	for _, r := range due {
		if err := w.notifier.Notify(ctx, r); err != nil {
			if ctx.Err() != nil {
				break
			}
			slog.Warn("reminder delivery failed",
				"component", "worker",
				"task_id", r.TaskID,
				"error", err,
			)
			continue
		}
		sent = append(sent, r.TaskID)
	}

	marked, err := w.store.MarkRemindersSent(ctx, sent)
	if err != nil {
		return 0, fmt.Errorf("mark reminders sent: %w", err)
	}

	slog.Info("reminder sweep completed",
		"component", "worker",
		"action", "reminder_complete",
		"date", date.String(),
		"due", len(due),
		"sent", marked,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return marked, nil
}
