package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/goalfund/goalfund/internal/advice"
	"github.com/goalfund/goalfund/internal/auth"
	"github.com/goalfund/goalfund/internal/ledger"
	"github.com/goalfund/goalfund/internal/metrics"
	"github.com/goalfund/goalfund/internal/model"
	"github.com/goalfund/goalfund/internal/session"
	"github.com/goalfund/goalfund/internal/store"
	"github.com/goalfund/goalfund/internal/store/memory"
	"github.com/goalfund/goalfund/internal/testutil"
)

// recordingGenerator captures scheduled jobs and delegates Generate to a
// real worker.
type recordingGenerator struct {
	mu     sync.Mutex
	jobs   []advice.InsightJob
	worker *advice.Worker
}

func (r *recordingGenerator) Enqueue(_ context.Context, job advice.InsightJob) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs = append(r.jobs, job)
}

func (r *recordingGenerator) Generate(ctx context.Context, userID int64, goal advice.GoalSnapshot) (*model.Insight, error) {
	return r.worker.Generate(ctx, userID, goal)
}

type testEnv struct {
	ctx           context.Context
	store         store.Store
	auth          *AuthService
	goals         *GoalService
	transactions  *TransactionService
	notifications *NotificationService
	insights      *InsightService
	generator     *recordingGenerator
	metrics       *metrics.InMemoryRecorder
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := memory.New()
	rec := metrics.NewInMemory()
	engine := ledger.New(s, ledger.WithLogger(logger), ledger.WithMetrics(rec))
	gen := &recordingGenerator{
		worker: advice.NewWorker(s, advice.NewAdvisor(nil), 1, 1, logger, rec),
	}
	sessions := session.NewManager(session.NewMemoryStore(64), time.Hour, logger)

	return &testEnv{
		ctx:           context.Background(),
		store:         s,
		auth:          NewAuthService(s, sessions, auth.NewPasswordHasher(auth.TestParams), logger, rec),
		goals:         NewGoalService(s, engine, gen, "USD", logger, rec),
		transactions:  NewTransactionService(s, engine),
		notifications: NewNotificationService(s),
		insights:      NewInsightService(s, gen, "USD", logger),
		generator:     gen,
		metrics:       rec,
	}
}

func (e *testEnv) register(t *testing.T) *AuthResult {
	t.Helper()
	name := testutil.UniqueName("u")
	res, err := e.auth.Register(e.ctx, RegisterInput{
		Username: name,
		Password: "password123",
		FullName: "Test User",
		Email:    name + "@example.com",
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	return res
}

func (e *testEnv) createGoal(t *testing.T, userID int64) *model.Goal {
	t.Helper()
	g, err := e.goals.Create(e.ctx, userID, ledger.GoalInput{
		Name:         "Emergency Fund",
		Category:     "Savings",
		TargetAmount: decimal.NewFromInt(1000),
		StartDate:    testutil.Date(2025, time.January, 1),
		TargetDate:   testutil.Date(2025, time.December, 31),
	})
	if err != nil {
		t.Fatalf("Create goal failed: %v", err)
	}
	return g
}

func TestAuthService_RegisterLoginLogout(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t)
	res := e.register(t)
	if res.Token == "" || res.User.ID == 0 {
		t.Fatalf("Register result = %+v", res)
	}
	if res.User.PasswordHash == "password123" {
		t.Error("password stored in plaintext")
	}

	login, err := e.auth.Login(e.ctx, res.User.Username, "password123")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if login.User.ID != res.User.ID || login.Token == res.Token {
		t.Errorf("Login = %+v, want a new session for user %d", login, res.User.ID)
	}

	me, err := e.auth.Me(e.ctx, res.User.ID)
	if err != nil || me.Username != res.User.Username {
		t.Errorf("Me = %+v, %v", me, err)
	}

	if err := e.auth.Logout(e.ctx, login.Token); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
}

func TestAuthService_LoginFailuresAreUniform(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t)
	res := e.register(t)

	tests := []struct {
		name     string
		username string
		password string
	}{
		{"wrong password", res.User.Username, "wrong-password"},
		{"unknown user", "nobody-here", "password123"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.auth.Login(e.ctx, tt.username, tt.password)
			if !errors.Is(err, ErrInvalidCredentials) {
				t.Errorf("error = %v, want ErrInvalidCredentials", err)
			}
			if !errors.Is(err, model.ErrUnauthenticated) {
				t.Error("ErrInvalidCredentials should wrap ErrUnauthenticated")
			}
		})
	}

	failures := e.metrics.Snapshot().AuthFailures
	if failures["bad_password"] != 1 || failures["unknown_user"] != 2 {
		t.Errorf("AuthFailures = %v", failures)
	}
}

func TestAuthService_RegisterValidation(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t)
	valid := RegisterInput{Username: "alice", Password: "password123", FullName: "Alice", Email: "alice@example.com"}

	tests := []struct {
		name      string
		mutate    func(*RegisterInput)
		wantField string
	}{
		{"short username", func(in *RegisterInput) { in.Username = "al" }, "username"},
		{"username with spaces", func(in *RegisterInput) { in.Username = "al ice" }, "username"},
		{"short password", func(in *RegisterInput) { in.Password = "short" }, "password"},
		{"missing full name", func(in *RegisterInput) { in.FullName = "  " }, "fullName"},
		{"bad email", func(in *RegisterInput) { in.Email = "not-an-email" }, "email"},
		{"display name email", func(in *RegisterInput) { in.Email = "Alice <alice@example.com>" }, "email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)

			_, err := e.auth.Register(e.ctx, in)
			var verr *model.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("error = %v, want ValidationError", err)
			}
			if verr.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", verr.Field, tt.wantField)
			}
		})
	}
}

func TestAuthService_RegisterDuplicate(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t)
	res := e.register(t)

	_, err := e.auth.Register(e.ctx, RegisterInput{
		Username: res.User.Username,
		Password: "password123",
		FullName: "Other",
		Email:    "other@example.com",
	})
	if !errors.Is(err, model.ErrValidation) {
		t.Errorf("duplicate username error = %v, want validation error", err)
	}
}

func TestGoalService_CreateSchedulesInsight(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t)
	u := e.register(t).User
	g := e.createGoal(t, u.ID)

	if len(e.generator.jobs) != 1 {
		t.Fatalf("scheduled jobs = %d, want 1", len(e.generator.jobs))
	}
	job := e.generator.jobs[0]
	if job.UserID != u.ID || job.Goal.GoalID != g.ID || job.Goal.Currency != "USD" {
		t.Errorf("job = %+v", job)
	}
}

func TestGoalService_Ownership(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t)
	owner := e.register(t).User
	intruder := e.register(t).User
	g := e.createGoal(t, owner.ID)
	name := "Stolen"

	checks := map[string]error{}
	_, checks["get"] = e.goals.Get(e.ctx, intruder.ID, g.ID)
	_, checks["update"] = e.goals.Update(e.ctx, intruder.ID, g.ID, GoalPatch{Name: &name})
	checks["delete"] = e.goals.Delete(e.ctx, intruder.ID, g.ID)
	_, checks["transactions"] = e.transactions.ListForGoal(e.ctx, intruder.ID, g.ID)
	_, checks["insights"] = e.insights.ListForGoal(e.ctx, intruder.ID, g.ID)
	_, checks["generate"] = e.insights.Generate(e.ctx, intruder.ID, g.ID)
	_, _, checks["post"] = e.transactions.Post(e.ctx, intruder.ID, ledger.TransactionInput{
		GoalID:      &g.ID,
		Description: "Sneaky",
		Amount:      decimal.NewFromInt(5),
		Type:        model.TransactionDeposit,
		Category:    "Misc",
		Account:     "Checking",
		Date:        time.Now(),
	})

	for op, err := range checks {
		if !errors.Is(err, model.ErrForbidden) {
			t.Errorf("%s error = %v, want forbidden", op, err)
		}
	}

	got, err := e.goals.Get(e.ctx, owner.ID, g.ID)
	if err != nil {
		t.Fatalf("owner Get failed: %v", err)
	}
	if got.Name != "Emergency Fund" || !got.CurrentAmount.IsZero() {
		t.Errorf("goal changed by intruder: %+v", got)
	}
}

func TestGoalService_NotFound(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t)
	u := e.register(t).User

	if _, err := e.goals.Get(e.ctx, u.ID, 999); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("Get error = %v, want not found", err)
	}
	if err := e.goals.Delete(e.ctx, u.ID, 999); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("Delete error = %v, want not found", err)
	}
}

func TestGoalService_Update(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t)
	u := e.register(t).User
	g := e.createGoal(t, u.ID)

	if _, _, err := e.transactions.Post(e.ctx, u.ID, ledger.TransactionInput{
		GoalID: &g.ID, Description: "Pay", Amount: decimal.NewFromInt(200),
		Type: model.TransactionDeposit, Category: "Income", Account: "Checking", Date: time.Now(),
	}); err != nil {
		t.Fatalf("Post failed: %v", err)
	}

	name := "  Rainy Day  "
	target := decimal.NewFromInt(2000)
	status := model.GoalStatusOnTrack
	got, err := e.goals.Update(e.ctx, u.ID, g.ID, GoalPatch{Name: &name, TargetAmount: &target, Status: &status})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if got.Name != "Rainy Day" || !got.TargetAmount.Equal(target) || got.Status != status {
		t.Errorf("updated goal = %+v", got)
	}
	if !got.CurrentAmount.Equal(decimal.NewFromInt(200)) {
		t.Errorf("CurrentAmount = %s, want 200", got.CurrentAmount)
	}
	if got.Progress() != 10 {
		t.Errorf("Progress = %d, want 10", got.Progress())
	}
}

func TestGoalService_UpdateValidation(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t)
	u := e.register(t).User
	g := e.createGoal(t, u.ID)

	amount := decimal.NewFromInt(5000)
	early := testutil.Date(2024, time.June, 1)
	zero := decimal.Zero
	bogus := model.GoalStatus("paused")
	empty := ""

	tests := []struct {
		name      string
		patch     GoalPatch
		wantField string
	}{
		{"current amount", GoalPatch{CurrentAmount: &amount}, "currentAmount"},
		{"target before start", GoalPatch{TargetDate: &early}, "targetDate"},
		{"zero target", GoalPatch{TargetAmount: &zero}, "targetAmount"},
		{"unknown status", GoalPatch{Status: &bogus}, "status"},
		{"blank name", GoalPatch{Name: &empty}, "name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.goals.Update(e.ctx, u.ID, g.ID, tt.patch)
			var verr *model.ValidationError
			if !errors.As(err, &verr) || verr.Field != tt.wantField {
				t.Errorf("error = %v, want validation error on %s", err, tt.wantField)
			}
		})
	}

	stored, _ := e.goals.Get(e.ctx, u.ID, g.ID)
	if stored.Name != "Emergency Fund" || !stored.TargetAmount.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("rejected updates changed the goal: %+v", stored)
	}
}

func TestGoalService_Delete(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t)
	u := e.register(t).User
	g := e.createGoal(t, u.ID)

	if err := e.goals.Delete(e.ctx, u.ID, g.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	goals, _ := e.goals.List(e.ctx, u.ID)
	if len(goals) != 0 {
		t.Errorf("List after delete = %d goals, want 0", len(goals))
	}
	if e.metrics.Snapshot().GoalsDeleted != 1 {
		t.Errorf("GoalsDeleted = %d, want 1", e.metrics.Snapshot().GoalsDeleted)
	}
}

func TestTransactionService_ListLimit(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t)
	u := e.register(t).User
	for i := 0; i < 120; i++ {
		_, _, err := e.transactions.Post(e.ctx, u.ID, ledger.TransactionInput{
			Description: "Coffee", Amount: decimal.NewFromInt(3),
			Type: model.TransactionWithdrawal, Category: "Food", Account: "Card",
			Date: time.Now().Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("Post failed: %v", err)
		}
	}

	tests := []struct {
		limit int
		want  int
	}{
		{0, DefaultTransactionLimit},
		{-3, DefaultTransactionLimit},
		{5, 5},
		{500, MaxTransactionLimit},
	}
	for _, tt := range tests {
		got, err := e.transactions.List(e.ctx, u.ID, tt.limit)
		if err != nil {
			t.Fatalf("List(%d) failed: %v", tt.limit, err)
		}
		if len(got) != tt.want {
			t.Errorf("List(%d) = %d items, want %d", tt.limit, len(got), tt.want)
		}
	}
}

func TestNotificationService_MarkRead(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t)
	owner := e.register(t).User
	other := e.register(t).User
	e.createGoal(t, owner.ID)

	notes, err := e.notifications.List(e.ctx, owner.ID, true)
	if err != nil || len(notes) != 1 {
		t.Fatalf("List = %d, %v; want one creation notification", len(notes), err)
	}
	id := notes[0].ID

	if _, err := e.notifications.MarkRead(e.ctx, other.ID, id); !errors.Is(err, model.ErrForbidden) {
		t.Errorf("MarkRead by other user error = %v, want forbidden", err)
	}

	for i := 0; i < 2; i++ {
		n, err := e.notifications.MarkRead(e.ctx, owner.ID, id)
		if err != nil || !n.Read {
			t.Fatalf("MarkRead #%d = %+v, %v", i, n, err)
		}
	}

	unread, _ := e.notifications.List(e.ctx, owner.ID, true)
	if len(unread) != 0 {
		t.Errorf("unread = %d, want 0", len(unread))
	}
	all, _ := e.notifications.List(e.ctx, owner.ID, false)
	if len(all) != 1 {
		t.Errorf("all = %d, want 1", len(all))
	}
}

func TestInsightService_GenerateAndMarkRead(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t)
	owner := e.register(t).User
	other := e.register(t).User
	g := e.createGoal(t, owner.ID)

	in, err := e.insights.Generate(e.ctx, owner.ID, g.ID)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if in.Source != model.InsightSourceFallback || in.GoalID == nil || *in.GoalID != g.ID {
		t.Errorf("insight = %+v", in)
	}

	list, _ := e.insights.ListForGoal(e.ctx, owner.ID, g.ID)
	if len(list) != 1 {
		t.Errorf("ListForGoal = %d, want 1", len(list))
	}
	if others, _ := e.insights.List(e.ctx, other.ID); len(others) != 0 {
		t.Errorf("other user sees %d insights, want 0", len(others))
	}

	if _, err := e.insights.MarkRead(e.ctx, other.ID, in.ID); !errors.Is(err, model.ErrForbidden) {
		t.Errorf("MarkRead by other user error = %v, want forbidden", err)
	}
	read, err := e.insights.MarkRead(e.ctx, owner.ID, in.ID)
	if err != nil || !read.Read {
		t.Errorf("MarkRead = %+v, %v", read, err)
	}
	if _, err := e.insights.MarkRead(e.ctx, owner.ID, 12345); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("MarkRead(missing) error = %v, want not found", err)
	}
}
