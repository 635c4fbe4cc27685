package sched

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

func TestScheduler_FiresAfterDelay(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	s := New(clock)

	var fired atomic.Bool
	s.Schedule(10*time.Second, func() { fired.Store(true) })

	clock.Advance(9 * time.Second)
	require.False(t, fired.Load(), "fired before the delay elapsed")

	clock.Advance(time.Second)
	require.Eventually(t, fired.Load, time.Second, time.Millisecond)
	require.Equal(t, 0, s.Pending())
}

func TestScheduler_Cancel(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	s := New(clock)

	var fired atomic.Bool
	h := s.Schedule(5*time.Second, func() { fired.Store(true) })
	s.Cancel(h)

	clock.Advance(time.Minute)
	time.Sleep(20 * time.Millisecond)
	require.False(t, fired.Load(), "cancelled task still fired")
	require.Equal(t, 0, s.Pending())
}

func TestScheduler_CancelUnknownHandle(t *testing.T) {
	t.Parallel()

	s := New(clockwork.NewFakeClock())
	s.Cancel(42) // must not panic
}

func TestScheduler_Stop(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	s := New(clock)

	var fired atomic.Int32
	s.Schedule(time.Second, func() { fired.Add(1) })
	s.Schedule(2*time.Second, func() { fired.Add(1) })
	s.Stop()

	require.Equal(t, 0, s.Pending())

	// Scheduling after Stop is a no-op.
	h := s.Schedule(time.Second, func() { fired.Add(1) })
	require.Equal(t, Handle(0), h)

	clock.Advance(time.Minute)
	time.Sleep(20 * time.Millisecond)
	require.EqualValues(t, 0, fired.Load())
}
