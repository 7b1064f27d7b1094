package ledger

import "sync"

// goalLocks hands out one mutex per goal id. Entries are dropped once no
// goroutine holds or waits for them.
type goalLocks struct {
	mu    sync.Mutex
	locks map[int64]*goalLock
}

type goalLock struct {
	mu   sync.Mutex
	refs int
}

func newGoalLocks() *goalLocks {
	return &goalLocks{locks: make(map[int64]*goalLock)}
}

// lock blocks until the goal's mutex is held and returns its release func.
func (l *goalLocks) lock(id int64) func() {
	l.mu.Lock()
	gl, ok := l.locks[id]
	if !ok {
		gl = &goalLock{}
		l.locks[id] = gl
	}
	gl.refs++
	l.mu.Unlock()

	gl.mu.Lock()

	return func() {
		gl.mu.Unlock()

		l.mu.Lock()
		gl.refs--
		if gl.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}

// size reports how many goal mutexes are live.
func (l *goalLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
