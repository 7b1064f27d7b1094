// Package memory implements store.Store with process-local maps.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"github.com/goalfund/goalfund/internal/model"
	"github.com/goalfund/goalfund/internal/store"
)

var _ store.Store = (*Store)(nil)

// Store keeps every entity in memory. All methods are safe for concurrent use.
// Returned entities are copies; mutating them does not change stored state.
type Store struct {
	mu sync.RWMutex

	users         map[int64]*model.User
	usernames     map[string]int64
	emails        map[string]int64
	goals         map[int64]*model.Goal
	transactions  map[int64]*model.Transaction
	notifications map[int64]*model.Notification
	insights      map[int64]*model.Insight

	userSeq         atomic.Int64
	goalSeq         atomic.Int64
	transactionSeq  atomic.Int64
	notificationSeq atomic.Int64
	insightSeq      atomic.Int64
}

// New creates an empty Store. Every id sequence starts at 1.
func New() *Store {
	return &Store{
		users:         make(map[int64]*model.User),
		usernames:     make(map[string]int64),
		emails:        make(map[string]int64),
		goals:         make(map[int64]*model.Goal),
		transactions:  make(map[int64]*model.Transaction),
		notifications: make(map[int64]*model.Notification),
		insights:      make(map[int64]*model.Insight),
	}
}

func foldKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() {}

// CreateUser stores user and assigns its id.
func (s *Store) CreateUser(_ context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	uname, email := foldKey(user.Username), foldKey(user.Email)
	if _, ok := s.usernames[uname]; ok {
		return store.ErrUserExists
	}
	if _, ok := s.emails[email]; ok {
		return store.ErrUserExists
	}

	user.ID = s.userSeq.Add(1)
	u := *user
	s.users[u.ID] = &u
	s.usernames[uname] = u.ID
	s.emails[email] = u.ID
	return nil
}

// GetUser returns the user with id.
func (s *Store) GetUser(_ context.Context, id int64) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	c := *u
	return &c, nil
}

// GetUserByUsername looks a user up by username.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	s.mu.RLock()
	id, ok := s.usernames[foldKey(username)]
	s.mu.RUnlock()
	if !ok {
		return nil, store.ErrUserNotFound
	}
	return s.GetUser(ctx, id)
}

// GetUserByEmail looks a user up by email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	s.mu.RLock()
	id, ok := s.emails[foldKey(email)]
	s.mu.RUnlock()
	if !ok {
		return nil, store.ErrUserNotFound
	}
	return s.GetUser(ctx, id)
}

// GetGoal returns a live goal.
func (s *Store) GetGoal(_ context.Context, id int64) (*model.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.goals[id]
	if !ok || g.IsDeleted() {
		return nil, store.ErrGoalNotFound
	}
	return g.Clone(), nil
}

// ListGoalsByUser returns the user's live goals ordered by id.
func (s *Store) ListGoalsByUser(_ context.Context, userID int64) ([]*model.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*model.Goal, 0)
	for _, g := range s.goals {
		if g.UserID == userID && !g.IsDeleted() {
			out = append(out, g.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// UpdateGoal replaces the mutable fields of a live goal. CurrentAmount,
// ownership and creation time are kept from the stored copy.
func (s *Store) UpdateGoal(_ context.Context, goal *model.Goal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.goals[goal.ID]
	if !ok || cur.IsDeleted() {
		return store.ErrGoalNotFound
	}

	next := goal.Clone()
	next.UserID = cur.UserID
	next.CurrentAmount = cur.CurrentAmount
	next.CreatedAt = cur.CreatedAt
	next.DeletedAt = nil
	s.goals[goal.ID] = next
	return nil
}

// DeleteGoal marks a live goal as deleted.
func (s *Store) DeleteGoal(_ context.Context, id int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.goals[id]
	if !ok || g.IsDeleted() {
		return store.ErrGoalNotFound
	}
	g.DeletedAt = &at
	g.UpdatedAt = at
	return nil
}

// ListGoalsDueBetween returns unfinished live goals due in [from, to).
func (s *Store) ListGoalsDueBetween(_ context.Context, from, to time.Time) ([]*model.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*model.Goal, 0)
	for _, g := range s.goals {
		if g.IsDeleted() || g.Status == model.GoalStatusCompleted {
			continue
		}
		if !g.TargetDate.Before(from) && g.TargetDate.Before(to) {
			out = append(out, g.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// GetTransaction returns the transaction with id.
func (s *Store) GetTransaction(_ context.Context, id int64) (*model.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.transactions[id]
	if !ok {
		return nil, store.ErrTransactionNotFound
	}
	return cloneTransaction(t), nil
}

// ListTransactionsByUser returns the user's transactions, newest first.
func (s *Store) ListTransactionsByUser(_ context.Context, userID int64, limit int) ([]*model.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*model.Transaction, 0)
	for _, t := range s.transactions {
		if t.UserID == userID {
			out = append(out, cloneTransaction(t))
		}
	}
	sortTransactions(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ListTransactionsByGoal returns the goal's transactions, newest first.
func (s *Store) ListTransactionsByGoal(_ context.Context, goalID int64) ([]*model.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*model.Transaction, 0)
	for _, t := range s.transactions {
		if t.GoalID != nil && *t.GoalID == goalID {
			out = append(out, cloneTransaction(t))
		}
	}
	sortTransactions(out)
	return out, nil
}

// GetNotification returns the notification with id.
func (s *Store) GetNotification(_ context.Context, id int64) (*model.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.notifications[id]
	if !ok {
		return nil, store.ErrNotificationNotFound
	}
	return cloneNotification(n), nil
}

// ListNotificationsByUser returns the user's notifications, newest first.
func (s *Store) ListNotificationsByUser(_ context.Context, userID int64, unreadOnly bool) ([]*model.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*model.Notification, 0)
	for _, n := range s.notifications {
		if n.UserID != userID || (unreadOnly && n.Read) {
			continue
		}
		out = append(out, cloneNotification(n))
	}
	sort.Slice(out, func(i, j int) bool {
		return newerFirst(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID)
	})
	return out, nil
}

// MarkNotificationRead sets the read flag.
func (s *Store) MarkNotificationRead(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notifications[id]
	if !ok {
		return store.ErrNotificationNotFound
	}
	n.Read = true
	return nil
}

// HasNotificationSince reports whether the goal received a notification of
// typ at or after since.
func (s *Store) HasNotificationSince(_ context.Context, goalID int64, typ model.NotificationType, since time.Time) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, n := range s.notifications {
		if n.GoalID != nil && *n.GoalID == goalID && n.Type == typ && !n.CreatedAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

// GetInsight returns the insight with id.
func (s *Store) GetInsight(_ context.Context, id int64) (*model.Insight, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	in, ok := s.insights[id]
	if !ok {
		return nil, store.ErrInsightNotFound
	}
	return cloneInsight(in), nil
}

// ListInsightsByUser returns the user's insights, newest first.
func (s *Store) ListInsightsByUser(_ context.Context, userID int64) ([]*model.Insight, error) {
	return s.listInsights(func(in *model.Insight) bool { return in.UserID == userID }), nil
}

// ListInsightsByGoal returns the goal's insights, newest first.
func (s *Store) ListInsightsByGoal(_ context.Context, goalID int64) ([]*model.Insight, error) {
	return s.listInsights(func(in *model.Insight) bool {
		return in.GoalID != nil && *in.GoalID == goalID
	}), nil
}

func (s *Store) listInsights(keep func(*model.Insight) bool) []*model.Insight {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*model.Insight, 0)
	for _, in := range s.insights {
		if keep(in) {
			out = append(out, cloneInsight(in))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return newerFirst(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID)
	})
	return out
}

// MarkInsightRead sets the read flag.
func (s *Store) MarkInsightRead(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	in, ok := s.insights[id]
	if !ok {
		return store.ErrInsightNotFound
	}
	in.Read = true
	return nil
}

// Atomic runs fn under the store's write lock. Writes are staged and only
// applied when fn succeeds, so readers never observe a partial unit.
func (s *Store) Atomic(ctx context.Context, fn func(tx store.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{s: s, goals: make(map[int64]*model.Goal)}
	if err := fn(tx); err != nil {
		return err
	}
	tx.commit()
	return nil
}

// memTx stages writes until commit. It runs with s.mu held.
type memTx struct {
	s             *Store
	goals         map[int64]*model.Goal
	transactions  []*model.Transaction
	notifications []*model.Notification
	insights      []*model.Insight
}

func (t *memTx) goal(id int64) (*model.Goal, bool) {
	if g, ok := t.goals[id]; ok {
		return g, true
	}
	g, ok := t.s.goals[id]
	if !ok || g.IsDeleted() {
		return nil, false
	}
	staged := g.Clone()
	t.goals[id] = staged
	return staged, true
}

func (t *memTx) GetGoalForUpdate(_ context.Context, id int64) (*model.Goal, error) {
	g, ok := t.goal(id)
	if !ok {
		return nil, store.ErrGoalNotFound
	}
	return g.Clone(), nil
}

func (t *memTx) CreateGoal(_ context.Context, goal *model.Goal) error {
	goal.ID = t.s.goalSeq.Add(1)
	t.goals[goal.ID] = goal.Clone()
	return nil
}

func (t *memTx) UpdateGoalAmount(_ context.Context, id int64, amount decimal.Decimal, updatedAt time.Time) error {
	g, ok := t.goal(id)
	if !ok {
		return store.ErrGoalNotFound
	}
	g.CurrentAmount = amount
	g.UpdatedAt = updatedAt
	return nil
}

func (t *memTx) CreateTransaction(_ context.Context, tx *model.Transaction) error {
	tx.ID = t.s.transactionSeq.Add(1)
	t.transactions = append(t.transactions, cloneTransaction(tx))
	return nil
}

func (t *memTx) CreateNotification(_ context.Context, n *model.Notification) error {
	n.ID = t.s.notificationSeq.Add(1)
	t.notifications = append(t.notifications, cloneNotification(n))
	return nil
}

func (t *memTx) CreateInsight(_ context.Context, insight *model.Insight) error {
	insight.ID = t.s.insightSeq.Add(1)
	t.insights = append(t.insights, cloneInsight(insight))
	return nil
}

func (t *memTx) commit() {
	for id, g := range t.goals {
		t.s.goals[id] = g
	}
	for _, tx := range t.transactions {
		t.s.transactions[tx.ID] = tx
	}
	for _, n := range t.notifications {
		t.s.notifications[n.ID] = n
	}
	for _, in := range t.insights {
		t.s.insights[in.ID] = in
	}
}

func cloneTransaction(t *model.Transaction) *model.Transaction {
	c := *t
	if t.GoalID != nil {
		id := *t.GoalID
		c.GoalID = &id
	}
	return &c
}

func cloneNotification(n *model.Notification) *model.Notification {
	c := *n
	if n.GoalID != nil {
		id := *n.GoalID
		c.GoalID = &id
	}
	return &c
}

func cloneInsight(in *model.Insight) *model.Insight {
	c := *in
	if in.GoalID != nil {
		id := *in.GoalID
		c.GoalID = &id
	}
	return &c
}

func sortTransactions(ts []*model.Transaction) {
	sort.Slice(ts, func(i, j int) bool {
		return newerFirst(ts[i].Date, ts[j].Date, ts[i].ID, ts[j].ID)
	})
}

// newerFirst orders by timestamp descending, breaking ties by id descending.
func newerFirst(a, b time.Time, aID, bID int64) bool {
	if !a.Equal(b) {
		return a.After(b)
	}
	return aID > bID
}
