package engine

import (
	"sync"
	"time"

	"github.com/coder/quartz"
	"github.com/google/uuid"
)

// TurnTimer holds one pending timeout per game for the player on turn.
type TurnTimer struct {
	clock   quartz.Clock
	timeout time.Duration
	expire  func(gameID, userID uuid.UUID, version int64)

	mu     sync.Mutex
	timers map[uuid.UUID]*quartz.Timer
}

// NewTurnTimer returns a timer that calls expire on its own goroutine once a turn has been
// idle for timeout.
func NewTurnTimer(clock quartz.Clock, timeout time.Duration, expire func(gameID, userID uuid.UUID, version int64)) *TurnTimer {
	return &TurnTimer{
		clock:   clock,
		timeout: timeout,
		expire:  expire,
		timers:  make(map[uuid.UUID]*quartz.Timer),
	}
}

// Arm replaces any pending timeout for gameID with one for userID at version.
func (t *TurnTimer) Arm(gameID, userID uuid.UUID, version int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if prev, ok := t.timers[gameID]; ok {
		prev.Stop()
	}

	var timer *quartz.Timer
	timer = t.clock.AfterFunc(t.timeout, func() {
		t.mu.Lock()
		if t.timers[gameID] == timer {
			delete(t.timers, gameID)
		}
		t.mu.Unlock()
		go t.expire(gameID, userID, version)
	}, "turn", gameID.String())
	t.timers[gameID] = timer
}

// Cancel drops the pending timeout for gameID, if any.
func (t *TurnTimer) Cancel(gameID uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if timer, ok := t.timers[gameID]; ok {
		timer.Stop()
		delete(t.timers, gameID)
	}
}

// Stop cancels every pending timeout.
func (t *TurnTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for id, timer := range t.timers {
		timer.Stop()
		delete(t.timers, id)
	}
}

// Pending returns the number of armed timeouts.
func (t *TurnTimer) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.timers)
}
