package crow

import (
	"sync"

	"crow/internal/sched"
)

// Dispatcher is the per-type deferred-callback queue: callers submit
// nodes via enqueue, which schedules a background drain task; the drain
// task splices out the current queue, calls Wait once to amortize the
// grace period across the whole batch, and then runs every node's
// callback in FIFO order.
type Dispatcher struct {
	engine *Engine
	typ    Type

	mu         sync.Mutex
	head, tail *CallbackNode

	task      *sched.DeferredTask
	drainTask *sched.Task
}

func newDispatcher(e *Engine, typ Type) *Dispatcher {
	d := &Dispatcher{engine: e, typ: typ, drainTask: sched.NewTask()}
	d.task = sched.NewDeferredTask(d.drain)
	return d
}

func (d *Dispatcher) enqueue(node *CallbackNode, cb Callback) {
	node.cb = cb
	node.next = nil

	d.mu.Lock()
	if d.tail == nil {
		d.head = node
	} else {
		d.tail.next = node
	}
	d.tail = node
	d.mu.Unlock()

	d.task.Enqueue()
}

func (d *Dispatcher) drain() {
	d.mu.Lock()
	batch := d.head
	d.head, d.tail = nil, nil
	d.mu.Unlock()

	d.engine.waiter.wait(d.typ, d.drainTask)

	for n := batch; n != nil; {
		next := n.next
		n.next = nil
		d.run(n)
		n = next
	}
}

func (d *Dispatcher) run(n *CallbackNode) {
	if n.cb.isRelease {
		if n.cb.release != nil {
			n.cb.release()
		}
		return
	}
	if n.cb.invoke != nil {
		n.cb.invoke(n)
	}
}

// Barrier waits for the current grace period and then for any queued or
// in-flight drain to finish, guaranteeing every callback enqueued before
// this call has executed before it returns. It synchronizes using its
// own transient Task rather than the drain task's, since the two may
// race each other's wait and a Task is single-owner by design.
func (d *Dispatcher) Barrier() {
	d.engine.waiter.wait(d.typ, sched.NewTask())
	d.task.Drain()
}
