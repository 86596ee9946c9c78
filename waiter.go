package crow

import (
	"sync"
	"time"

	"crow/internal/klog"
	"crow/internal/sched"
	"crow/internal/witness"
)

// schedTick is the bounded pause the waiter takes when it finds a
// sleeping reader rather than a merely low-priority one — "on the order
// of one scheduler tick", per spec.md §4.3.
const schedTick = time.Millisecond

// Waiter is the grace-period engine's centerpiece: the logic a
// synchronizing goroutine runs to drive itself to completion without
// spinning, by pinning itself, migrating among CPUs still holding up the
// epoch, boosting its own priority to match a blocking reader's, and
// yielding or pausing in its place.
type Waiter struct {
	engine *Engine

	// GlobalLock, if set, is dropped before waiting and reacquired
	// after, mirroring drmkpi_synchronize_rcu's DROP_GIANT/PICKUP_GIANT
	// around the wait. Nil by default — this module has no giant lock
	// of its own, but a host embedding the engine in a larger
	// lock-ordered system has somewhere to plug one in. See FenceLock.
	GlobalLock sync.Locker
}

func (w *Waiter) wait(typ Type, self *sched.Task) {
	witness.WarnMaySleep("crow.Wait")

	if w.GlobalLock != nil {
		w.GlobalLock.Unlock()
	}

	self.Lock()
	oldCPU := self.CPU()
	oldPinned := self.PinCount()
	oldPriority := self.Priority()
	wasBound, boundCPU := self.IsBound()

	self.SetPinCount(0)
	self.Bind(oldCPU)

	w.engine.domains[typ].synchronize(func(cpu int) {
		w.perRecordCallback(typ, cpu, self)
	})

	if wasBound {
		self.Bind(boundCPU)
	} else {
		if oldPinned != 0 {
			self.Bind(oldCPU)
		}
		self.Unbind()
	}
	self.SetPinCount(oldPinned)
	self.SetPriority(oldPriority)
	self.Unlock()

	if w.GlobalLock != nil {
		w.GlobalLock.Lock()
	}
}

// perRecordCallback is invoked by the epoch primitive once per still-
// blocking CPU record. If that CPU is the one self is currently on, it
// inspects the reader registry directly; otherwise it re-binds self to
// the blocking CPU so the next invocation (now local) can inspect it.
func (w *Waiter) perRecordCallback(typ Type, cpu int, self *sched.Task) {
	if cpu == self.CPU() {
		rec := w.engine.domains[typ].record(cpu)

		rec.mu.Lock()
		var maxPriority int32
		var anySleeping bool
		for t := rec.head; t != nil; t = t.link[typ].next {
			if p := t.sched.Priority(); p > maxPriority {
				maxPriority = p
			}
			if t.sched.IsSleeping() {
				anySleeping = true
			}
		}
		rec.mu.Unlock()

		if anySleeping {
			klog.Tracef("crow: wait(%v) pausing for a sleeping reader on cpu %d", typ, cpu)
			self.Unlock()
			time.Sleep(schedTick)
			self.Lock()
			return
		}

		klog.Tracef("crow: wait(%v) boosting to priority %d and yielding on cpu %d", typ, maxPriority, cpu)
		self.SetPriority(maxPriority)
		self.Yield()
		return
	}

	klog.Tracef("crow: wait(%v) migrating to blocking cpu %d", typ, cpu)
	self.SetPriority(sched.MaxPriority)
	self.Bind(cpu)
}
