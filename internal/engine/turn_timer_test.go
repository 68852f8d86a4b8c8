package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type expiry struct {
	gameID, userID uuid.UUID
	version        int64
}

type expiryLog struct {
	mu   sync.Mutex
	seen []expiry
}

func (l *expiryLog) record(gameID, userID uuid.UUID, version int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seen = append(l.seen, expiry{gameID, userID, version})
}

func (l *expiryLog) snapshot() []expiry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]expiry(nil), l.seen...)
}

func TestTurnTimer_FiresOnceForLatestArm(t *testing.T) {
	mClock := quartz.NewMock(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var log expiryLog
	timer := NewTurnTimer(mClock, 30*time.Second, log.record)
	gameID, first, second := uuid.New(), uuid.New(), uuid.New()

	timer.Arm(gameID, first, 1)
	mClock.Advance(20 * time.Second).MustWait(ctx)
	timer.Arm(gameID, second, 2)
	assert.Equal(t, 1, timer.Pending())

	mClock.Advance(10 * time.Second).MustWait(ctx)
	assert.Empty(t, log.snapshot(), "replaced timeout must not fire")

	mClock.Advance(20 * time.Second).MustWait(ctx)
	require.Eventually(t, func() bool { return len(log.snapshot()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, expiry{gameID, second, 2}, log.snapshot()[0])
	assert.Zero(t, timer.Pending())
}

func TestTurnTimer_Cancel(t *testing.T) {
	mClock := quartz.NewMock(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var log expiryLog
	timer := NewTurnTimer(mClock, time.Second, log.record)
	a, b := uuid.New(), uuid.New()

	timer.Arm(a, uuid.New(), 1)
	timer.Arm(b, uuid.New(), 1)
	assert.Equal(t, 2, timer.Pending())

	timer.Cancel(a)
	assert.Equal(t, 1, timer.Pending())

	mClock.Advance(time.Second).MustWait(ctx)
	require.Eventually(t, func() bool { return len(log.snapshot()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, b, log.snapshot()[0].gameID)

	timer.Arm(a, uuid.New(), 2)
	timer.Stop()
	assert.Zero(t, timer.Pending())
}
