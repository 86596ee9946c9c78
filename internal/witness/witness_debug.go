//go:build witness

package witness

import (
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"crow/internal/klog"
)

var nonSleepableDepth atomic.Int32

// Enter marks the calling goroutine as having entered a context that
// must not sleep (the engine's non-preemptible critical sections use
// this around the epoch mark). Depth-counted so nested begin/end pairs
// compose correctly.
func Enter() { nonSleepableDepth.Add(1) }

// Exit leaves a non-sleepable context entered via Enter.
func Exit() { nonSleepableDepth.Add(-1) }

// maxConcurrentWarnings bounds how many WarnMaySleep diagnostics may be
// in flight at once. A witness build is meant to run under the same
// reader load as production, so a pathological caller that keeps
// tripping the diagnostic on every pause must not be allowed to turn
// the warning path itself into an unbounded flood of goroutines
// blocked in klog.Warnf.
const maxConcurrentWarnings = 4

var warnGate = semaphore.NewWeighted(maxConcurrentWarnings)

// WarnMaySleep logs a warning if called while any goroutine is inside a
// non-sleepable context. This is necessarily process-wide rather than
// per-goroutine, since Go has no public goroutine-local storage; it is a
// diagnostic aid, not an enforced invariant, matching spec's "behavior is
// otherwise undefined" rather than a guaranteed fault.
func WarnMaySleep(site string) {
	if nonSleepableDepth.Load() <= 0 {
		return
	}
	if !warnGate.TryAcquire(1) {
		return // maxConcurrentWarnings already in flight; drop rather than block or flood
	}
	defer warnGate.Release(1)
	klog.Warnf("%s: called while a non-sleepable critical section may be active", site)
}
