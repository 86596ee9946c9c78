// Package epoch implements the low-level epoch primitive that the RCU
// engine treats as an external dependency: a monotonic global counter
// plus, per CPU, "last snapshot this CPU was active against". It knows
// nothing about threads, registries, or scheduling — just enough to let
// a caller detect when every record has either advanced past a given
// snapshot or gone idle.
//
// The record's state is packed into a single atomic word, the same trick
// used for lock-free epoch encodings elsewhere (top bits carry the
// snapshot, low bit carries the active flag) so readers never need more
// than one atomic load or store on the fast path. Storage for the
// per-CPU records themselves is left to the caller — the registry needs
// to combine one with its reader list, and forcing its own allocation
// here would mean keeping two records in sync instead of one.
package epoch

import "sync/atomic"

// cacheLine is the padding width used to keep adjacent per-CPU records
// from false-sharing a cache line.
const cacheLine = 64

// Record is one CPU's epoch state. It must not be copied after use.
type Record struct {
	state atomic.Uint64
	_     [cacheLine - 8]byte
}

func pack(snapshot uint64, active bool) uint64 {
	v := snapshot << 1
	if active {
		v |= 1
	}
	return v
}

func unpack(raw uint64) (snapshot uint64, active bool) {
	return raw >> 1, raw&1 == 1
}

// Global is a domain's monotonic epoch counter.
type Global struct {
	counter atomic.Uint64
}

// Begin marks rec active against global's current value.
func Begin(rec *Record, global *Global) {
	snap := global.counter.Load()
	rec.state.Store(pack(snap, true))
}

// End marks rec idle.
func End(rec *Record) {
	rec.state.Store(0)
}

// Synchronize advances global and then, for each of the n records
// produced by at, repeatedly invokes cb until that record either goes
// idle or advances past the pre-advance snapshot. cb is expected to
// arrange for progress on the record's owning CPU (migrate there, boost
// a reader, pause) rather than busy-spin itself.
//
// Advancing the epoch before waiting is what lets new readers (those
// that call Begin after this point) avoid blocking the wait: they will
// observe the bumped counter and fall outside the snapshot being waited
// on.
func Synchronize(global *Global, n int, at func(i int) *Record, cb func(i int)) {
	target := global.counter.Load()
	global.counter.Add(1)

	for i := 0; i < n; i++ {
		rec := at(i)
		for {
			snap, active := unpack(rec.state.Load())
			if !active || snap > target {
				break
			}
			cb(i)
		}
	}
}
