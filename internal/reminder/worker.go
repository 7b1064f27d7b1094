// Package reminder notifies users about goals whose target date is near.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/goalfund/goalfund/internal/metrics"
	"github.com/goalfund/goalfund/internal/model"
	"github.com/goalfund/goalfund/internal/store"
)

const (
	// DefaultInterval is the time between scans.
	DefaultInterval = time.Hour
	// DefaultWindow is how far ahead a target date triggers a reminder.
	DefaultWindow = 7 * 24 * time.Hour
)

// Worker periodically emits reminder notifications. Each goal gets at most
// one reminder per window.
type Worker struct {
	store    store.Store
	interval time.Duration
	window   time.Duration
	currency string
	logger   *slog.Logger
	metrics  metrics.Recorder
	now      func() time.Time

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewWorker creates a reminder worker. Non-positive durations use the
// defaults.
func NewWorker(s store.Store, interval, window time.Duration, currency string, logger *slog.Logger, recorder metrics.Recorder) *Worker {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Worker{
		store:    s,
		interval: interval,
		window:   window,
		currency: currency,
		logger:   logger.With("component", "reminder.worker"),
		metrics:  recorder,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Run scans immediately and then every interval until ctx is cancelled or
// Shutdown is called.
func (w *Worker) Run(ctx context.Context) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return errors.New("worker already started")
	}
	w.started = true
	w.done = make(chan struct{})
	ctx, w.cancel = context.WithCancel(ctx)
	w.mu.Unlock()

	defer close(w.done)

	w.logger.Info("reminder worker started", "interval", w.interval, "window", w.window)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if _, err := w.RunOnce(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			w.logger.Error("reminder scan failed", "error", err)
		}

		select {
		case <-ctx.Done():
			w.logger.Info("reminder worker stopping")
			return nil
		case <-ticker.C:
		}
	}
}

// RunOnce performs one scan and returns how many reminders it sent.
func (w *Worker) RunOnce(ctx context.Context) (int, error) {
	now := w.now()
	goals, err := w.store.ListGoalsDueBetween(ctx, now, now.Add(w.window))
	if err != nil {
		return 0, fmt.Errorf("list due goals: %w", err)
	}

	sent := 0
	for _, g := range goals {
		if err := ctx.Err(); err != nil {
			return sent, err
		}

		seen, err := w.store.HasNotificationSince(ctx, g.ID, model.NotificationReminder, now.Add(-w.window))
		if err != nil {
			return sent, fmt.Errorf("check reminder history: %w", err)
		}
		if seen {
			continue
		}

		if err := w.remind(ctx, g, now); err != nil {
			if errors.Is(err, store.ErrGoalNotFound) {
				continue
			}
			return sent, err
		}
		sent++
	}

	if sent > 0 {
		w.logger.Info("reminders_sent", "count", sent)
	}
	return sent, nil
}

func (w *Worker) remind(ctx context.Context, g *model.Goal, now time.Time) error {
	note := &model.Notification{
		UserID:    g.UserID,
		GoalID:    &g.ID,
		Title:     "Goal Deadline Approaching",
		Message:   reminderMessage(g, w.currency),
		Type:      model.NotificationReminder,
		CreatedAt: now,
	}

	err := w.store.Atomic(ctx, func(tx store.Tx) error {
		if _, err := tx.GetGoalForUpdate(ctx, g.ID); err != nil {
			return err
		}
		return tx.CreateNotification(ctx, note)
	})
	if err != nil {
		return fmt.Errorf("create reminder: %w", err)
	}

	w.metrics.IncNotificationEmitted(string(note.Type))
	return nil
}

func reminderMessage(g *model.Goal, currency string) string {
	return fmt.Sprintf("Your %s goal is due on %s with %s left to save.",
		g.Name, g.TargetDate.Format("Jan 2, 2006"), model.FormatMoney(g.Remaining(), currency))
}

// Shutdown stops the worker and waits for the current scan to end.
// It implements server.ShutdownFunc.
func (w *Worker) Shutdown(ctx context.Context) error {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return nil
	}
	cancel := w.cancel
	done := w.done
	w.mu.Unlock()

	cancel()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		w.logger.Warn("reminder worker shutdown timed out")
		return ctx.Err()
	}
}
