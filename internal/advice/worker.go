package advice

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
	// DefaultWorkers is the number of insight goroutines.
	DefaultWorkers = 2
	// DefaultQueueSize is the insight job buffer.
	DefaultQueueSize = 64
)

// InsightJob asks for one insight about a goal.
type InsightJob struct {
	UserID int64
	Goal   GoalSnapshot
}

// Worker generates goal insights off the request path. Each job yields one
// Insight and one insight Notification, written together.
type Worker struct {
	store   store.Store
	advisor *Advisor
	logger  *slog.Logger
	metrics metrics.Recorder
	now     func() time.Time
	workers int
	jobs    chan InsightJob

	mu      sync.RWMutex
	started bool
	closed  bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewWorker creates an insight worker. Non-positive sizes use the defaults.
func NewWorker(s store.Store, advisor *Advisor, workers, queueSize int, logger *slog.Logger, recorder metrics.Recorder) *Worker {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Worker{
		store:   s,
		advisor: advisor,
		logger:  logger.With("component", "advice.worker"),
		metrics: recorder,
		now:     func() time.Time { return time.Now().UTC() },
		workers: workers,
		jobs:    make(chan InsightJob, queueSize),
	}
}

// Start launches the worker goroutines. Calling it twice is a no-op.
func (w *Worker) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started || w.closed {
		return
	}
	w.started = true

	ctx, w.cancel = context.WithCancel(context.WithoutCancel(ctx))
	for i := 0; i < w.workers; i++ {
		w.wg.Add(1)
		go w.loop(ctx)
	}
	w.logger.Info("insight worker started", "workers", w.workers, "queue_size", cap(w.jobs))
}

func (w *Worker) loop(ctx context.Context) {
	defer w.wg.Done()
	for job := range w.jobs {
		if _, err := w.Generate(ctx, job.UserID, job.Goal); err != nil {
			w.logJobError(job, err)
		}
	}
}

// Enqueue schedules job without blocking. When the queue is full or the
// worker has stopped, the fallback insight is written inline instead.
func (w *Worker) Enqueue(ctx context.Context, job InsightJob) {
	w.mu.RLock()
	if !w.closed {
		select {
		case w.jobs <- job:
			w.mu.RUnlock()
			return
		default:
		}
	}
	w.mu.RUnlock()

	w.metrics.IncInsightJobDropped()
	w.logger.Warn("insight_queue_full", "goal_id", job.Goal.GoalID, "user_id", job.UserID)

	s := FallbackInsight(job.Goal)
	if _, err := w.persist(ctx, job.UserID, job.Goal.GoalID, s); err != nil {
		w.logJobError(job, err)
	}
}

// Generate produces and stores an insight for goal synchronously.
func (w *Worker) Generate(ctx context.Context, userID int64, goal GoalSnapshot) (*model.Insight, error) {
	s := w.advisor.InsightForGoal(ctx, goal)
	return w.persist(ctx, userID, goal.GoalID, s)
}

func (w *Worker) persist(ctx context.Context, userID, goalID int64, s Suggestion) (*model.Insight, error) {
	now := w.now()
	insight := &model.Insight{
		UserID:    userID,
		GoalID:    &goalID,
		Title:     s.Title,
		Content:   s.Content,
		Category:  s.Category,
		Source:    s.Source,
		CreatedAt: now,
	}
	note := &model.Notification{
		UserID:    userID,
		GoalID:    &goalID,
		Title:     "New Financial Insight",
		Message:   s.Title,
		Type:      model.NotificationInsight,
		CreatedAt: now,
	}

	err := w.store.Atomic(ctx, func(tx store.Tx) error {
		if _, err := tx.GetGoalForUpdate(ctx, goalID); err != nil {
			return err
		}
		if err := tx.CreateInsight(ctx, insight); err != nil {
			return err
		}
		return tx.CreateNotification(ctx, note)
	})
	if err != nil {
		return nil, fmt.Errorf("store insight: %w", err)
	}

	w.metrics.IncInsightGenerated(string(insight.Source))
	w.metrics.IncNotificationEmitted(string(note.Type))
	w.logger.Info("insight_generated",
		"insight_id", insight.ID,
		"goal_id", goalID,
		"user_id", userID,
		"source", insight.Source,
	)
	return insight, nil
}

func (w *Worker) logJobError(job InsightJob, err error) {
	if errors.Is(err, store.ErrGoalNotFound) {
		w.logger.Info("insight_skipped", "goal_id", job.Goal.GoalID, "reason", "goal deleted")
		return
	}
	w.logger.Error("insight_failed", "goal_id", job.Goal.GoalID, "user_id", job.UserID, "error", err)
}

// Shutdown stops accepting jobs and waits for queued ones to finish. If ctx
// expires first, in-flight provider calls are cancelled and ctx's error is
// returned. It implements server.ShutdownFunc.
func (w *Worker) Shutdown(ctx context.Context) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.jobs)
	started := w.started
	cancel := w.cancel
	w.mu.Unlock()

	if !started {
		return nil
	}

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		cancel()
		w.logger.Info("insight worker stopped")
		return nil
	case <-ctx.Done():
		cancel()
		w.logger.Warn("insight worker shutdown timed out", "pending", len(w.jobs))
		return ctx.Err()
	}
}
