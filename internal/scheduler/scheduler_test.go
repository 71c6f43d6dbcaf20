package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

type fakeExpirer struct {
	mu    sync.Mutex
	calls int
	vins  []string
	err   error
}

func (f *fakeExpirer) ExpireDue(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.vins, f.err
}

func (f *fakeExpirer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestScheduler_SweepsOnTick(t *testing.T) {
	expirer := &fakeExpirer{vins: []string{"XYZ999"}}
	s := New(expirer, 10*time.Millisecond, logrus.New())

	ctx, cancel := context.WithTimeout(context.Background(), 55*time.Millisecond)
	defer cancel()

	err := s.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// Immediate sweep plus at least a few ticks.
	assert.GreaterOrEqual(t, expirer.callCount(), 3)
}

func TestScheduler_KeepsRunningAfterSweepError(t *testing.T) {
	expirer := &fakeExpirer{err: errors.New("db gone")}
	s := New(expirer, 10*time.Millisecond, logrus.New())

	ctx, cancel := context.WithTimeout(context.Background(), 35*time.Millisecond)
	defer cancel()

	err := s.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.GreaterOrEqual(t, expirer.callCount(), 2, "a failed sweep must not stop the loop")
}

func TestScheduler_StopsOnCancel(t *testing.T) {
	expirer := &fakeExpirer{}
	s := New(expirer, time.Hour, logrus.New())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop on cancel")
	}

	// The kick-off sweep still ran.
	assert.GreaterOrEqual(t, expirer.callCount(), 1)
}
