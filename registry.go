package crow

import (
	"sync"

	"crow/internal/epoch"
	"crow/internal/sched"
)

// cpuRecord is the per-CPU, per-type record: a back-reference to its CPU
// id and type, the embedded epoch record, and the ordered sequence of
// reader threads presently inside a critical section here.
//
// A real kernel gets this record's mutual exclusion for free: only one
// thread executes on a given core at a time, so critical_enter() (which
// merely disables preemption) is enough to serialize begin/end against
// the registry. Go has no portable way to disable preemption, and
// multiple goroutines can be assigned the same simulated CPU id
// concurrently, so mu is the userspace realization of that
// non-preemptible critical section: it brackets every mutation of both
// the embedded epoch record and the reader sequence, and the waiter
// takes it too while scanning readers for priority/sleep state.
type cpuRecord struct {
	cpu int
	typ Type

	mu         sync.Mutex
	epochState epoch.Record
	head, tail *Thread
}

func (r *cpuRecord) insertTail(th *Thread) {
	th.link[r.typ].prev = r.tail
	th.link[r.typ].next = nil
	if r.tail != nil {
		r.tail.link[r.typ].next = th
	} else {
		r.head = th
	}
	r.tail = th
}

func (r *cpuRecord) remove(th *Thread) {
	link := &th.link[r.typ]
	if link.prev != nil {
		link.prev.link[r.typ].next = link.next
	} else {
		r.head = link.next
	}
	if link.next != nil {
		link.next.link[r.typ].prev = link.prev
	} else {
		r.tail = link.prev
	}
	link.prev, link.next = nil, nil
}

// domain is an epoch global counter plus its per-CPU records, for a
// single Type. Records live in a sched.PerCPU so the same cache-line
// padded, CPU-indexed storage DPCPU_DEFINE would give a real per-CPU
// variable backs the registry, rather than a plain slice.
type domain struct {
	typ     Type
	global  epoch.Global
	records *sched.PerCPU[cpuRecord]
}

func newDomain(typ Type, cpus []int) *domain {
	d := &domain{typ: typ}
	d.records = sched.NewPerCPU(len(cpus), func(cpu int) cpuRecord {
		return cpuRecord{cpu: cpus[cpu], typ: typ}
	})
	return d
}

func (d *domain) record(cpu int) *cpuRecord { return d.records.At(cpu) }

// synchronize blocks until every record active at call time has either
// advanced past the snapshot or gone idle, invoking cb(cpu) to arrange
// progress on whichever CPU is still blocking.
func (d *domain) synchronize(cb func(cpu int)) {
	epoch.Synchronize(&d.global, d.records.Len(), func(i int) *epoch.Record {
		return &d.records.At(i).epochState
	}, cb)
}
