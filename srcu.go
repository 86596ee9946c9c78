package crow

// SRCU is the sleepable-variant handle: not a separate engine, but an
// opaque handle for API compatibility whose methods forward to the
// engine's Sleepable-tagged entry points. Per spec.md §4.5, Init and
// Cleanup are no-ops — all domain state is process-wide and brought up
// by the package-level Init.
type SRCU struct{}

// NewSRCU returns a ready-to-use sleepable-domain handle.
func NewSRCU() *SRCU { return &SRCU{} }

// Init is a no-op; the sleepable domain is already live once crow.Init
// has run.
func (s *SRCU) Init() {}

// Cleanup is a no-op; the sleepable domain is torn down by crow.Shutdown.
func (s *SRCU) Cleanup() {}

// ReadLock marks th active in the sleepable domain. Unlike Normal
// readers, a sleepable reader is permitted to block while active.
func (s *SRCU) ReadLock(th *Thread) { Begin(Sleepable, th) }

// ReadUnlock is the symmetric release for ReadLock.
func (s *SRCU) ReadUnlock(th *Thread) { End(Sleepable, th) }

// Synchronize blocks until every sleepable reader active at the time of
// the call has released.
func (s *SRCU) Synchronize(th *Thread) { Wait(Sleepable, th) }

// Barrier waits for every sleepable-domain callback enqueued before this
// call to have executed.
func (s *SRCU) Barrier() { Barrier(Sleepable) }
