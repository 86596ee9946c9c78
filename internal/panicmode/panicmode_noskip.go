//go:build rcu_noskip

package panicmode

// Built with -tags rcu_noskip: the panic-mode interlock never fires,
// matching CONFIG_NO_RCU_SKIP in the original.

// Stop is a no-op under rcu_noskip.
func Stop() {}

// Resume is a no-op under rcu_noskip.
func Resume() {}

// Skip always reports false under rcu_noskip.
func Skip() bool { return false }
