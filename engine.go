package crow

import (
	"sync"

	"crow/internal/epoch"
	"crow/internal/panicmode"
	"crow/internal/sched"
	"crow/internal/witness"
)

// Engine holds the process-wide state for every RCU domain: one per
// Type, each with its own epoch global and per-CPU records, plus the
// shared scheduler, a single waiter, and a dispatcher per type. It is legitimate
// process-wide state — see SPEC_FULL.md §11 — created once at
// subsystem initialization and torn down late in shutdown.
type Engine struct {
	scheduler   *sched.Scheduler
	domains     [numTypes]*domain
	dispatchers [numTypes]*Dispatcher
	waiter      *Waiter
}

var (
	engineMu sync.Mutex
	engine   *Engine
)

// Init brings up every RCU domain, sized to the host's GOMAXPROCS. It is
// idempotent: calling it again before Shutdown is a no-op. Calling
// Begin, End, Wait, Enqueue or Barrier before Init panics.
func Init() {
	engineMu.Lock()
	defer engineMu.Unlock()
	if engine != nil {
		return
	}
	engine = newEngine(sched.DefaultScheduler)
}

// Shutdown drains every domain's pending callbacks and releases the
// subsystem's process-wide state. Mirrors linux_rcu_runtime_uninit's
// late-shutdown teardown ordering.
func Shutdown() {
	engineMu.Lock()
	defer engineMu.Unlock()
	if engine == nil {
		return
	}
	for typ := Type(0); typ < numTypes; typ++ {
		engine.dispatchers[typ].Barrier()
	}
	engine = nil
}

func newEngine(s *sched.Scheduler) *Engine {
	e := &Engine{scheduler: s}
	cpus := s.AllCPUs()
	for typ := Type(0); typ < numTypes; typ++ {
		e.domains[typ] = newDomain(typ, cpus)
	}
	e.waiter = &Waiter{engine: e}
	for typ := Type(0); typ < numTypes; typ++ {
		e.dispatchers[typ] = newDispatcher(e, typ)
	}
	return e
}

func current() *Engine {
	engineMu.Lock()
	e := engine
	engineMu.Unlock()
	if e == nil {
		panic("crow: subsystem not initialized; call crow.Init() first")
	}
	return e
}

// Begin marks th active in typ's domain on its current CPU, pinning it
// there for the duration of the critical section. Nested Begin/End pairs
// of the same type on the same Thread are legal: only the 0->1
// transition marks the record and inserts into the registry.
func Begin(typ Type, th *Thread) {
	if panicmode.Skip() {
		return
	}
	validateType(typ)
	current().begin(typ, th)
}

// End is the symmetric release for Begin. Calling End without a matching
// Begin (depth underflow) is a programmer error and panics.
func End(typ Type, th *Thread) {
	if panicmode.Skip() {
		return
	}
	validateType(typ)
	current().end(typ, th)
}

func (e *Engine) begin(typ Type, th *Thread) {
	cpu := e.scheduler.Pin(th.sched)
	rec := e.domains[typ].record(cpu)

	witness.Enter()
	rec.mu.Lock()
	defer rec.mu.Unlock()
	defer witness.Exit()

	th.depth[typ]++
	if th.depth[typ] == 1 {
		th.cpu[typ] = cpu
		epoch.Begin(&rec.epochState, &e.domains[typ].global)
		rec.insertTail(th)
	}
}

func (e *Engine) end(typ Type, th *Thread) {
	if th.depth[typ] <= 0 {
		panic("crow: rcu end called without a matching begin")
	}

	cpu := th.cpu[typ]
	rec := e.domains[typ].record(cpu)

	witness.Enter()
	rec.mu.Lock()
	th.depth[typ]--
	if th.depth[typ] == 0 {
		rec.remove(th)
		epoch.End(&rec.epochState)
		th.cpu[typ] = -1
	}
	rec.mu.Unlock()
	witness.Exit()

	e.scheduler.Unpin(th.sched)
}

// Wait blocks the calling goroutine until every reader of typ active at
// the time of the call has released its critical section. See Waiter
// for the full save/restore and yield policy.
func Wait(typ Type, th *Thread) {
	if panicmode.Skip() {
		return
	}
	validateType(typ)
	current().waiter.wait(typ, th.sched)
}

// Enqueue submits cb to run on node after typ's next grace period
// closes.
func Enqueue(typ Type, node *CallbackNode, cb Callback) {
	if panicmode.Skip() {
		return
	}
	validateType(typ)
	current().dispatchers[typ].enqueue(node, cb)
}

// Barrier blocks until every callback enqueued to typ before this call
// has executed.
func Barrier(typ Type) {
	if panicmode.Skip() {
		return
	}
	validateType(typ)
	current().dispatchers[typ].Barrier()
}
