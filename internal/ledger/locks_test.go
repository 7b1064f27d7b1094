package ledger

import (
	"sync"
	"testing"
	"time"
)

func TestGoalLocks_SerializesSameGoal(t *testing.T) {
	t.Parallel()

	l := newGoalLocks()
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := l.lock(1)
			v := counter
			time.Sleep(time.Microsecond)
			counter = v + 1
			unlock()
		}()
	}
	wg.Wait()

	if counter != 50 {
		t.Errorf("counter = %d, want 50", counter)
	}
	if l.size() != 0 {
		t.Errorf("size = %d, want 0", l.size())
	}
}

func TestGoalLocks_DifferentGoalsDoNotBlock(t *testing.T) {
	t.Parallel()

	l := newGoalLocks()
	unlockA := l.lock(1)
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlockB := l.lock(2)
		unlockB()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on goal 2 blocked behind goal 1")
	}
}
