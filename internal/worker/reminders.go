// Package worker runs background jobs that drain persisted queues.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/playbud/booking/internal/domain"
	"github.com/playbud/booking/internal/notify"
	"github.com/playbud/booking/internal/repository"
	"github.com/playbud/booking/lib/logger/sl"
)

var errNotDelivered = errors.New("notification not delivered")

type ReminderOptions struct {
	Interval    time.Duration
	BatchSize   int
	Lease       time.Duration
	MaxAttempts int
	RetryBase   time.Duration
	RetryMax    time.Duration
}

func (o ReminderOptions) withDefaults() ReminderOptions {
	if o.Interval <= 0 {
		o.Interval = 30 * time.Second
	}
	if o.BatchSize <= 0 {
		o.BatchSize = 50
	}
	if o.Lease <= 0 {
		o.Lease = 2 * time.Minute
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 5
	}
	if o.RetryBase <= 0 {
		o.RetryBase = time.Minute
	}
	if o.RetryMax <= 0 {
		o.RetryMax = time.Hour
	}
	return o
}

// ReminderWorker delivers due reminders. Each claimed reminder is leased so
// concurrent workers never deliver it twice while it is in flight.
type ReminderWorker struct {
	reminders repository.ReminderRepository
	games     repository.GameRepository
	sender    notify.Sender
	opts      ReminderOptions
	log       *slog.Logger
	now       func() time.Time
}

func NewReminderWorker(
	reminders repository.ReminderRepository,
	games repository.GameRepository,
	sender notify.Sender,
	opts ReminderOptions,
	log *slog.Logger,
) *ReminderWorker {
	if log == nil {
		log = slog.Default()
	}
	return &ReminderWorker{
		reminders: reminders,
		games:     games,
		sender:    sender,
		opts:      opts.withDefaults(),
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the worker's time source.
func (w *ReminderWorker) WithClock(now func() time.Time) *ReminderWorker {
	w.now = now
	return w
}

// Run polls until ctx is cancelled.
func (w *ReminderWorker) Run(ctx context.Context) error {
	const op = "worker.reminders.run"
	log := w.log.With(slog.String("op", op))
	log.Info("reminder worker started", slog.Duration("interval", w.opts.Interval))

	if _, err := w.RunOnce(ctx); err != nil && ctx.Err() == nil {
		log.Error("reminder pass failed", sl.Err(err))
	}

	ticker := time.NewTicker(w.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("reminder worker stopped")
			return nil
		case <-ticker.C:
			if _, err := w.RunOnce(ctx); err != nil && ctx.Err() == nil {
				log.Error("reminder pass failed", sl.Err(err))
			}
		}
	}
}

// RunOnce claims one batch of due reminders and processes it. It returns
// how many were delivered.
func (w *ReminderWorker) RunOnce(ctx context.Context) (int, error) {
	const op = "worker.reminders.runOnce"

	due, err := w.reminders.ClaimDue(ctx, w.now(), w.opts.BatchSize, w.opts.Lease)
	if err != nil {
		return 0, err
	}
	if len(due) > 0 {
		w.log.Debug("claimed reminders", slog.String("op", op), slog.Int("count", len(due)))
	}

	delivered := 0
	for _, reminder := range due {
		if ctx.Err() != nil {
			break
		}
		if w.process(ctx, reminder) {
			delivered++
		}
	}
	return delivered, nil
}

func (w *ReminderWorker) process(ctx context.Context, reminder *domain.Reminder) bool {
	const op = "worker.reminders.process"
	log := w.log.With(
		slog.String("op", op),
		slog.String("reminder_id", reminder.ID.String()),
		slog.String("game_id", reminder.GameID.String()),
	)
	attempts := reminder.Attempts + 1

	game, err := w.games.GetByID(ctx, reminder.GameID)
	if err != nil {
		if errors.Is(err, repository.ErrGameNotFound) {
			log.Warn("game gone, dropping reminder")
			w.markFailed(ctx, log, reminder, attempts, err)
			return false
		}
		w.retry(ctx, log, reminder, attempts, err)
		return false
	}

	msg := notify.Message{
		Kind: notify.KindGameReminder,
		Recipient: notify.Recipient{
			UserID: reminder.RecipientID,
			Name:   reminder.RecipientName,
			Email:  reminder.RecipientEmail,
		},
		Game: game,
	}
	if !w.sender.Send(ctx, msg) {
		w.retry(ctx, log, reminder, attempts, errNotDelivered)
		return false
	}

	if err := w.reminders.MarkSent(ctx, reminder.ID, attempts, w.now()); err != nil {
		log.Error("failed to mark reminder sent", sl.Err(err))
	}
	log.Info("reminder delivered", slog.Int("attempts", attempts))
	return true
}

func (w *ReminderWorker) retry(ctx context.Context, log *slog.Logger, reminder *domain.Reminder, attempts int, cause error) {
	if attempts >= w.opts.MaxAttempts {
		log.Warn("reminder out of attempts", slog.Int("attempts", attempts), sl.Err(cause))
		w.markFailed(ctx, log, reminder, attempts, cause)
		return
	}

	next := w.now().Add(RetryDelay(attempts, w.opts.RetryBase, w.opts.RetryMax))
	if err := w.reminders.MarkRetry(ctx, reminder.ID, attempts, next, cause.Error()); err != nil {
		log.Error("failed to reschedule reminder", sl.Err(err))
		return
	}
	log.Info("reminder rescheduled", slog.Int("attempts", attempts), slog.Time("due_at", next))
}

func (w *ReminderWorker) markFailed(ctx context.Context, log *slog.Logger, reminder *domain.Reminder, attempts int, cause error) {
	if err := w.reminders.MarkFailed(ctx, reminder.ID, attempts, cause.Error()); err != nil {
		log.Error("failed to mark reminder failed", sl.Err(err))
	}
}

// RetryDelay is base doubled for every attempt after the first, capped at ceiling.
func RetryDelay(attempts int, base, ceiling time.Duration) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	delay := base
	for i := 1; i < attempts; i++ {
		delay *= 2
		if delay >= ceiling {
			return ceiling
		}
	}
	return min(delay, ceiling)
}
