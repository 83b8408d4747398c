package app

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type countingExpirer struct {
	calls atomic.Int32
	err   error
}

func (e *countingExpirer) ExpireStale(context.Context) (int64, error) {
	e.calls.Add(1)
	return 1, e.err
}

func TestSchedulerRunsImmediatelyAndOnTick(t *testing.T) {
	exp := &countingExpirer{}
	s := NewScheduler(exp, 10*time.Millisecond, zap.NewNop())
	s.Start(context.Background())

	assert.Eventually(t, func() bool { return exp.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)

	s.Stop()
	stopped := exp.calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, stopped, exp.calls.Load())

	// повторный Stop безопасен
	s.Stop()
}

func TestSchedulerSurvivesErrors(t *testing.T) {
	exp := &countingExpirer{err: errors.New("db down")}
	ctx, cancel := context.WithCancel(context.Background())
	s := NewScheduler(exp, 5*time.Millisecond, zap.NewNop())
	s.Start(ctx)

	assert.Eventually(t, func() bool { return exp.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	s.Stop()
}

func TestNewSchedulerDefaultInterval(t *testing.T) {
	s := NewScheduler(&countingExpirer{}, 0, zap.NewNop())
	assert.Equal(t, DefaultExpiryInterval, s.interval)
}
