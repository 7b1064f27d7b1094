package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/goalfund/goalfund/internal/model"
	"github.com/goalfund/goalfund/internal/store"
)

var errBoom = errors.New("boom")

func newGoal(userID int64) *model.Goal {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return &model.Goal{
		UserID:       userID,
		Name:         "Vacation",
		Category:     "travel",
		TargetAmount: decimal.NewFromInt(1000),
		StartDate:    start,
		TargetDate:   start.AddDate(0, 6, 0),
		Status:       model.GoalStatusInProgress,
		CreatedAt:    start,
		UpdatedAt:    start,
	}
}

func createGoal(t *testing.T, s *Store, g *model.Goal) *model.Goal {
	t.Helper()
	err := s.Atomic(context.Background(), func(tx store.Tx) error {
		return tx.CreateGoal(context.Background(), g)
	})
	if err != nil {
		t.Fatalf("CreateGoal: %v", err)
	}
	return g
}

func TestStore_UserUniqueness(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()

	u := &model.User{Username: "alice", Email: "alice@example.com"}
	if err := s.CreateUser(ctx, u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if u.ID != 1 {
		t.Errorf("first user id = %d, want 1", u.ID)
	}

	dupName := &model.User{Username: "ALICE", Email: "other@example.com"}
	if err := s.CreateUser(ctx, dupName); !errors.Is(err, store.ErrUserExists) {
		t.Errorf("duplicate username error = %v, want ErrUserExists", err)
	}

	dupEmail := &model.User{Username: "bob", Email: "Alice@Example.com"}
	if err := s.CreateUser(ctx, dupEmail); !errors.Is(err, store.ErrUserExists) {
		t.Errorf("duplicate email error = %v, want ErrUserExists", err)
	}

	got, err := s.GetUserByUsername(ctx, "Alice")
	if err != nil || got.ID != u.ID {
		t.Fatalf("GetUserByUsername = %v, %v", got, err)
	}
	if _, err := s.GetUser(ctx, 99); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("GetUser(missing) error = %v, want ErrNotFound", err)
	}
}

func TestStore_IDsAreMonotonicAndNeverReused(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()

	g1 := createGoal(t, s, newGoal(1))
	g2 := createGoal(t, s, newGoal(1))
	if g1.ID != 1 || g2.ID != 2 {
		t.Fatalf("ids = %d, %d, want 1, 2", g1.ID, g2.ID)
	}

	if err := s.DeleteGoal(ctx, g2.ID, time.Now()); err != nil {
		t.Fatalf("DeleteGoal: %v", err)
	}

	// A rolled back unit consumes an id that is then skipped.
	_ = s.Atomic(ctx, func(tx store.Tx) error {
		_ = tx.CreateGoal(ctx, newGoal(1))
		return errBoom
	})

	g4 := createGoal(t, s, newGoal(1))
	if g4.ID != 4 {
		t.Errorf("id after delete and rollback = %d, want 4", g4.ID)
	}
}

func TestStore_AtomicRollsBackEveryWrite(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()
	g := createGoal(t, s, newGoal(1))

	err := s.Atomic(ctx, func(tx store.Tx) error {
		if err := tx.UpdateGoalAmount(ctx, g.ID, decimal.NewFromInt(500), time.Now()); err != nil {
			return err
		}
		if err := tx.CreateTransaction(ctx, &model.Transaction{UserID: 1, GoalID: &g.ID, Amount: decimal.NewFromInt(500)}); err != nil {
			return err
		}
		if err := tx.CreateNotification(ctx, &model.Notification{UserID: 1, Type: model.NotificationGoalUpdate}); err != nil {
			return err
		}
		return errBoom
	})
	if !errors.Is(err, errBoom) {
		t.Fatalf("Atomic error = %v, want errBoom", err)
	}

	got, _ := s.GetGoal(ctx, g.ID)
	if !got.CurrentAmount.IsZero() {
		t.Errorf("CurrentAmount = %s, want 0 after rollback", got.CurrentAmount)
	}
	txs, _ := s.ListTransactionsByUser(ctx, 1, 0)
	if len(txs) != 0 {
		t.Errorf("transactions = %d, want 0 after rollback", len(txs))
	}
	notes, _ := s.ListNotificationsByUser(ctx, 1, false)
	if len(notes) != 0 {
		t.Errorf("notifications = %d, want 0 after rollback", len(notes))
	}
}

func TestStore_AtomicCommitsTogether(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()
	g := createGoal(t, s, newGoal(1))

	err := s.Atomic(ctx, func(tx store.Tx) error {
		locked, err := tx.GetGoalForUpdate(ctx, g.ID)
		if err != nil {
			return err
		}
		next := locked.CurrentAmount.Add(decimal.NewFromInt(250))
		if err := tx.UpdateGoalAmount(ctx, g.ID, next, time.Now()); err != nil {
			return err
		}
		again, err := tx.GetGoalForUpdate(ctx, g.ID)
		if err != nil {
			return err
		}
		if !again.CurrentAmount.Equal(next) {
			t.Errorf("staged amount = %s, want %s", again.CurrentAmount, next)
		}
		return tx.CreateTransaction(ctx, &model.Transaction{UserID: 1, GoalID: &g.ID, Amount: decimal.NewFromInt(250)})
	})
	if err != nil {
		t.Fatalf("Atomic: %v", err)
	}

	got, _ := s.GetGoal(ctx, g.ID)
	if !got.CurrentAmount.Equal(decimal.NewFromInt(250)) {
		t.Errorf("CurrentAmount = %s, want 250", got.CurrentAmount)
	}
	byGoal, _ := s.ListTransactionsByGoal(ctx, g.ID)
	if len(byGoal) != 1 {
		t.Errorf("goal transactions = %d, want 1", len(byGoal))
	}
}

func TestStore_ListOrdering(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	err := s.Atomic(ctx, func(tx store.Tx) error {
		dates := []time.Time{base.AddDate(0, 0, 2), base, base.AddDate(0, 0, 5), base}
		for _, d := range dates {
			if err := tx.CreateTransaction(ctx, &model.Transaction{UserID: 7, Amount: decimal.NewFromInt(1), Date: d}); err != nil {
				return err
			}
			if err := tx.CreateNotification(ctx, &model.Notification{UserID: 7, CreatedAt: d}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Atomic: %v", err)
	}

	txs, _ := s.ListTransactionsByUser(ctx, 7, 0)
	wantIDs := []int64{3, 1, 4, 2}
	for i, id := range wantIDs {
		if txs[i].ID != id {
			t.Fatalf("transaction order = %v, want %v", ids(txs), wantIDs)
		}
	}

	limited, _ := s.ListTransactionsByUser(ctx, 7, 2)
	if len(limited) != 2 || limited[0].ID != 3 {
		t.Errorf("limited list = %v, want [3 1]", ids(limited))
	}

	notes, _ := s.ListNotificationsByUser(ctx, 7, false)
	if notes[0].ID != 3 || notes[3].ID != 2 {
		t.Errorf("notification order wrong: first %d last %d", notes[0].ID, notes[3].ID)
	}

	goals := []*model.Goal{createGoal(t, s, newGoal(7)), createGoal(t, s, newGoal(7))}
	listed, _ := s.ListGoalsByUser(ctx, 7)
	if len(listed) != 2 || listed[0].ID != goals[0].ID {
		t.Errorf("goals should list in insertion order")
	}
}

func ids(ts []*model.Transaction) []int64 {
	out := make([]int64, len(ts))
	for i, t := range ts {
		out[i] = t.ID
	}
	return out
}

func TestStore_SoftDelete(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()
	g := createGoal(t, s, newGoal(1))

	if err := s.DeleteGoal(ctx, g.ID, time.Now()); err != nil {
		t.Fatalf("DeleteGoal: %v", err)
	}
	if _, err := s.GetGoal(ctx, g.ID); !errors.Is(err, store.ErrGoalNotFound) {
		t.Errorf("GetGoal after delete = %v, want ErrGoalNotFound", err)
	}
	if err := s.DeleteGoal(ctx, g.ID, time.Now()); !errors.Is(err, store.ErrGoalNotFound) {
		t.Errorf("second DeleteGoal = %v, want ErrGoalNotFound", err)
	}
	listed, _ := s.ListGoalsByUser(ctx, 1)
	if len(listed) != 0 {
		t.Errorf("deleted goal still listed")
	}
	err := s.Atomic(ctx, func(tx store.Tx) error {
		_, err := tx.GetGoalForUpdate(ctx, g.ID)
		return err
	})
	if !errors.Is(err, store.ErrGoalNotFound) {
		t.Errorf("GetGoalForUpdate on deleted goal = %v, want ErrGoalNotFound", err)
	}
}

func TestStore_UpdateGoalKeepsAmount(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()
	g := createGoal(t, s, newGoal(1))
	_ = s.Atomic(ctx, func(tx store.Tx) error {
		return tx.UpdateGoalAmount(ctx, g.ID, decimal.NewFromInt(300), time.Now())
	})

	edit := g.Clone()
	edit.Name = "Renamed"
	edit.CurrentAmount = decimal.NewFromInt(999999)
	edit.UserID = 42
	if err := s.UpdateGoal(ctx, edit); err != nil {
		t.Fatalf("UpdateGoal: %v", err)
	}

	got, _ := s.GetGoal(ctx, g.ID)
	if got.Name != "Renamed" {
		t.Errorf("Name = %q, want Renamed", got.Name)
	}
	if !got.CurrentAmount.Equal(decimal.NewFromInt(300)) {
		t.Errorf("CurrentAmount = %s, want 300", got.CurrentAmount)
	}
	if got.UserID != 1 {
		t.Errorf("UserID = %d, want 1", got.UserID)
	}
}

func TestStore_ReturnsCopies(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()
	g := createGoal(t, s, newGoal(1))

	got, _ := s.GetGoal(ctx, g.ID)
	got.CurrentAmount = decimal.NewFromInt(1)

	again, _ := s.GetGoal(ctx, g.ID)
	if !again.CurrentAmount.IsZero() {
		t.Error("mutating a returned goal changed stored state")
	}
}

func TestStore_GoalsDueAndReminderLookup(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	soon := newGoal(1)
	soon.StartDate = now.AddDate(0, -1, 0)
	soon.TargetDate = now.AddDate(0, 0, 3)
	createGoal(t, s, soon)

	done := newGoal(1)
	done.StartDate = soon.StartDate
	done.TargetDate = soon.TargetDate
	done.Status = model.GoalStatusCompleted
	createGoal(t, s, done)

	later := newGoal(1)
	later.StartDate = soon.StartDate
	later.TargetDate = now.AddDate(0, 2, 0)
	createGoal(t, s, later)

	due, _ := s.ListGoalsDueBetween(ctx, now, now.AddDate(0, 0, 7))
	if len(due) != 1 || due[0].ID != soon.ID {
		t.Fatalf("due goals = %d, want only goal %d", len(due), soon.ID)
	}

	has, _ := s.HasNotificationSince(ctx, soon.ID, model.NotificationReminder, now)
	if has {
		t.Fatal("unexpected reminder")
	}
	_ = s.Atomic(ctx, func(tx store.Tx) error {
		return tx.CreateNotification(ctx, &model.Notification{
			UserID: 1, GoalID: &soon.ID, Type: model.NotificationReminder, CreatedAt: now.Add(time.Hour),
		})
	})
	has, _ = s.HasNotificationSince(ctx, soon.ID, model.NotificationReminder, now)
	if !has {
		t.Error("expected reminder to be found")
	}
}

func TestStore_MarkRead(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()
	n := &model.Notification{UserID: 3, Type: model.NotificationInsight}
	in := &model.Insight{UserID: 3, Title: "tip"}
	_ = s.Atomic(ctx, func(tx store.Tx) error {
		if err := tx.CreateNotification(ctx, n); err != nil {
			return err
		}
		return tx.CreateInsight(ctx, in)
	})

	if err := s.MarkNotificationRead(ctx, n.ID); err != nil {
		t.Fatalf("MarkNotificationRead: %v", err)
	}
	unread, _ := s.ListNotificationsByUser(ctx, 3, true)
	if len(unread) != 0 {
		t.Errorf("unread = %d, want 0", len(unread))
	}
	if err := s.MarkNotificationRead(ctx, 999); !errors.Is(err, store.ErrNotificationNotFound) {
		t.Errorf("missing notification error = %v", err)
	}

	if err := s.MarkInsightRead(ctx, in.ID); err != nil {
		t.Fatalf("MarkInsightRead: %v", err)
	}
	got, _ := s.GetInsight(ctx, in.ID)
	if !got.Read {
		t.Error("insight not marked read")
	}
}
