//go:build !witness

// Package witness stands in for the host's lockdep-style witness
// mechanism, used to warn when an entry point that must be allowed to
// sleep is called from a context that forbids it. The default build is a
// zero-cost no-op; build with -tags witness to enable the check, which
// then logs through klog instead of the original's WITNESS_WARN.
package witness

// WarnMaySleep is a no-op in the default build.
func WarnMaySleep(site string) {}

// Enter is a no-op in the default build.
func Enter() {}

// Exit is a no-op in the default build.
func Exit() {}
