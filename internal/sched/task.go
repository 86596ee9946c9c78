// Package sched models the host-kernel scheduler primitives the RCU
// engine builds on: per-thread pin/unpin counters, CPU binding, priority
// get/set, a thread lock, and a yield that drops that lock across the
// switch. None of it is a real scheduler — Go has no portable way to bind
// a goroutine to a core — but the contract each method upholds matches
// the kernel primitive it stands in for closely enough that the engine
// built on top never has to know the difference.
package sched

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// MaxPriority is the highest priority a Task can be given; used by the
// waiter when it needs to preempt nothing but still run promptly on a
// remote CPU.
const MaxPriority int32 = 1 << 30

// Task is one schedulable unit of work (a goroutine standing in for a
// kernel thread). The zero value is not ready for use; call NewTask.
type Task struct {
	mu sync.Mutex

	cpu      atomic.Int32
	pinned   atomic.Int32
	bound    atomic.Bool
	boundCPU atomic.Int32
	priority atomic.Int32
	sleeping atomic.Bool
}

// NewTask allocates a Task with no CPU assignment and default priority.
func NewTask() *Task {
	t := &Task{}
	t.cpu.Store(-1)
	t.boundCPU.Store(-1)
	return t
}

// Lock acquires the task's scheduler lock. The waiter holds its own task's
// lock for the whole wait, including while its per-record callback
// inspects the pinned readers' priority and sleep bit (under the CPU
// record's mutex; the readers' own task locks are not taken).
func (t *Task) Lock() { t.mu.Lock() }

// Unlock releases the task's scheduler lock.
func (t *Task) Unlock() { t.mu.Unlock() }

// Yield drops the task's scheduler lock, gives the runtime a chance to
// run another goroutine, and reacquires the lock before returning. This
// is the userspace analogue of mi_switch() dropping the thread lock so
// the scheduler can take it for the runqueue.
func (t *Task) Yield() {
	t.mu.Unlock()
	runtime.Gosched()
	t.mu.Lock()
}

// CPU returns the CPU id the task is currently assigned to, or -1 if it
// has never been pinned or bound to a CPU.
func (t *Task) CPU() int { return int(t.cpu.Load()) }

func (t *Task) setCPU(cpu int) { t.cpu.Store(int32(cpu)) }

// PinCount returns the current pin depth.
func (t *Task) PinCount() int { return int(t.pinned.Load()) }

// SetPinCount overwrites the pin depth directly; used only by the waiter
// to clear and later restore pinning around a wait.
func (t *Task) SetPinCount(n int) { t.pinned.Store(int32(n)) }

// Bind explicitly CPU-binds the task, as sched_bind() does.
func (t *Task) Bind(cpu int) {
	t.bound.Store(true)
	t.boundCPU.Store(int32(cpu))
	t.setCPU(cpu)
}

// Unbind clears an explicit CPU binding, as sched_unbind() does. It does
// not affect pinning.
func (t *Task) Unbind() {
	t.bound.Store(false)
	t.boundCPU.Store(-1)
}

// IsBound reports whether the task is explicitly CPU-bound and, if so,
// to which CPU.
func (t *Task) IsBound() (bool, int) {
	return t.bound.Load(), int(t.boundCPU.Load())
}

// Priority returns the task's current priority.
func (t *Task) Priority() int32 { return t.priority.Load() }

// SetPriority sets the task's priority.
func (t *Task) SetPriority(p int32) { t.priority.Store(p) }

// IsSleeping reports whether the task is inhibited (blocked/sleeping)
// rather than runnable. RCU readers that sleep while in a critical
// section set this so the waiter can tell it apart from a merely
// low-priority runnable reader.
func (t *Task) IsSleeping() bool { return t.sleeping.Load() }

// SetSleeping records whether the task is currently inhibited.
func (t *Task) SetSleeping(v bool) { t.sleeping.Store(v) }
