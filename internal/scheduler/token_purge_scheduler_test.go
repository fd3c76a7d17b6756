package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakePurger struct {
	calls  int
	gotNow time.Time
	n      int64
	err    error
}

func (f *fakePurger) DeleteStale(_ context.Context, now time.Time) (int64, error) {
	f.calls++
	f.gotNow = now
	return f.n, f.err
}

func TestTokenPurgeScheduler_RunOnce(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 3, 0, 0, 0, time.UTC)
	p := &fakePurger{n: 5}
	s := NewTokenPurgeScheduler(p, "0 3 * * *")
	s.now = func() time.Time { return fixed }

	assert.Equal(t, int64(5), s.RunOnce())
	assert.Equal(t, 1, p.calls)
	assert.Equal(t, fixed, p.gotNow)
}

func TestTokenPurgeScheduler_RunOnceError(t *testing.T) {
	p := &fakePurger{err: errors.New("db down")}
	s := NewTokenPurgeScheduler(p, "0 3 * * *")

	assert.Equal(t, int64(0), s.RunOnce())
}

func TestTokenPurgeScheduler_InvalidSpec(t *testing.T) {
	s := NewTokenPurgeScheduler(&fakePurger{}, "not a cron")
	assert.Error(t, s.Start())
}

func TestTokenPurgeScheduler_StartStop(t *testing.T) {
	s := NewTokenPurgeScheduler(&fakePurger{}, "@every 1h")
	assert.NoError(t, s.Start())
	s.Stop()
}
