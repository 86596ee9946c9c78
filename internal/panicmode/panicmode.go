//go:build !rcu_noskip

// Package panicmode implements the RCU_SKIP interlock: when enabled
// (the default, matching drmkpi's behaviour without CONFIG_NO_RCU_SKIP),
// every entry point except initialization becomes a no-op while the
// scheduler is stopped or a kernel debugger is attached. Build with
// -tags rcu_noskip to compile this check out entirely.
package panicmode

import "sync/atomic"

var stopped atomic.Bool

// Stop marks the scheduler as stopped (or a debugger attached), causing
// Skip to report true from this point on.
func Stop() { stopped.Store(true) }

// Resume clears the stopped/debugger-active state.
func Resume() { stopped.Store(false) }

// Skip reports whether entry points should currently no-op.
func Skip() bool { return stopped.Load() }
