package reminder

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/goalfund/goalfund/internal/metrics"
	"github.com/goalfund/goalfund/internal/model"
	"github.com/goalfund/goalfund/internal/store"
	"github.com/goalfund/goalfund/internal/store/memory"
	"github.com/goalfund/goalfund/internal/testutil"
)

var now = time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC)

func newTestWorker(s store.Store, rec metrics.Recorder) *Worker {
	w := NewWorker(s, time.Hour, 7*24*time.Hour, "USD", slog.New(slog.NewTextHandler(io.Discard, nil)), rec)
	w.now = func() time.Time { return now }
	return w
}

func seed(t *testing.T, s store.Store, userID int64, due time.Time, status model.GoalStatus, current string) *model.Goal {
	t.Helper()
	ctx := context.Background()
	g := testutil.NewTestGoal(t, userID, "1000")
	g.StartDate = testutil.Date(2025, time.January, 1)
	g.TargetDate = due
	g.Status = status
	g.CurrentAmount = decimal.RequireFromString(current)
	if err := s.Atomic(ctx, func(tx store.Tx) error { return tx.CreateGoal(ctx, g) }); err != nil {
		t.Fatalf("CreateGoal failed: %v", err)
	}
	return g
}

func TestWorker_RunOnce(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := memory.New()
	user := testutil.NewTestUser(t)
	if err := s.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	due := seed(t, s, user.ID, now.Add(3*24*time.Hour), model.GoalStatusInProgress, "250")
	seed(t, s, user.ID, now.Add(30*24*time.Hour), model.GoalStatusInProgress, "0")
	seed(t, s, user.ID, now.Add(2*24*time.Hour), model.GoalStatusCompleted, "1000")
	seed(t, s, user.ID, now.Add(-24*time.Hour), model.GoalStatusInProgress, "0")
	deleted := seed(t, s, user.ID, now.Add(24*time.Hour), model.GoalStatusOnTrack, "0")
	if err := s.DeleteGoal(ctx, deleted.ID, now); err != nil {
		t.Fatalf("DeleteGoal failed: %v", err)
	}

	rec := metrics.NewInMemory()
	w := newTestWorker(s, rec)

	sent, err := w.RunOnce(ctx)
	if err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}
	if sent != 1 {
		t.Fatalf("sent = %d, want 1", sent)
	}

	notes, _ := s.ListNotificationsByUser(ctx, user.ID, false)
	if len(notes) != 1 {
		t.Fatalf("notifications = %d, want 1", len(notes))
	}
	n := notes[0]
	if n.Type != model.NotificationReminder || n.GoalID == nil || *n.GoalID != due.ID {
		t.Errorf("notification = %+v", n)
	}
	if !strings.Contains(n.Message, "$750.00 left to save") || !strings.Contains(n.Message, "Jun 4, 2025") {
		t.Errorf("Message = %q", n.Message)
	}
	if rec.Snapshot().NotificationsEmitted["reminder"] != 1 {
		t.Errorf("NotificationsEmitted = %v", rec.Snapshot().NotificationsEmitted)
	}

	// A second scan inside the window sends nothing new.
	sent, err = w.RunOnce(ctx)
	if err != nil || sent != 0 {
		t.Errorf("second RunOnce = %d, %v; want 0, nil", sent, err)
	}
}

func TestWorker_RunStopsOnCancel(t *testing.T) {
	t.Parallel()

	w := newTestWorker(memory.New(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()
	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Run returned %v, want nil", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Second)
	defer shutdownCancel()
	if err := w.Shutdown(shutdownCtx); err != nil {
		t.Errorf("Shutdown after stop = %v, want nil", err)
	}
}

func TestWorker_ShutdownBeforeRun(t *testing.T) {
	t.Parallel()

	w := newTestWorker(memory.New(), nil)
	if err := w.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown = %v, want nil", err)
	}
}
