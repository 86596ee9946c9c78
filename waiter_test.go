package crow

import (
	"testing"
	"time"

	"crow/internal/sched"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// TestWaitBlocksAcrossCPUs covers spec scenario 3: a reader on one
// simulated CPU holds a critical section open; a synchronizer on another
// must not return from Wait until the reader calls End. On return, its
// CPU binding, pinning, and priority must equal their pre-call values.
func TestWaitBlocksAcrossCPUs(t *testing.T) {
	setupEngine(t)

	reader := NewThread()
	Begin(Normal, reader)

	synchronizer := NewThread()
	synchronizer.sched.SetPriority(7)

	released := make(chan struct{})
	waitReturned := make(chan struct{})

	go func() {
		time.Sleep(20 * time.Millisecond)
		close(released)
		End(Normal, reader)
	}()

	go func() {
		Wait(Normal, synchronizer)
		close(waitReturned)
	}()

	select {
	case <-waitReturned:
		t.Fatal("Wait returned before the active reader called End")
	case <-time.After(5 * time.Millisecond):
	}

	<-released
	select {
	case <-waitReturned:
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after the reader released")
	}

	require.Equal(t, int32(7), synchronizer.sched.Priority(), "priority should be restored after Wait")
	require.Equal(t, 0, synchronizer.sched.PinCount(), "pin count should be restored after Wait")
	bound, _ := synchronizer.sched.IsBound()
	require.False(t, bound, "synchronizer was never explicitly bound before Wait, so it should not be bound after")
}

// TestWaitAdoptsRunnableReaderPriority covers spec scenario 4: a
// low-priority reader pinned on the same simulated CPU as the
// synchronizer causes the synchronizer to adopt the reader's priority
// and yield, returning only after the reader calls End.
func TestWaitAdoptsRunnableReaderPriority(t *testing.T) {
	setupEngine(t)

	// Force both threads onto CPU 0 by using a single-CPU scheduler.
	engine.scheduler = sched.NewScheduler(1)

	reader := NewThread()
	reader.sched.SetPriority(3)
	Begin(Normal, reader)

	synchronizer := NewThread()
	synchronizer.sched.SetPriority(99)

	var g errgroup.Group
	g.Go(func() error {
		time.Sleep(10 * time.Millisecond)
		End(Normal, reader)
		return nil
	})

	done := make(chan struct{})
	go func() {
		Wait(Normal, synchronizer)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait never returned")
	}
	require.NoError(t, g.Wait())
	require.Equal(t, int32(99), synchronizer.sched.Priority(), "priority restored post-wait")
}
