package crow

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func setupEngine(t *testing.T) {
	t.Helper()
	Shutdown()
	Init()
	t.Cleanup(Shutdown)
}

// TestNestedBeginEnd covers spec scenario 1: begin(0); begin(0); end(0);
// end(0) leaves depth at 0 and the registry empty without double
// inserting the thread.
func TestNestedBeginEnd(t *testing.T) {
	setupEngine(t)
	th := NewThread()

	Begin(Normal, th)
	Begin(Normal, th)
	require.Equal(t, 2, th.Depth(Normal))

	End(Normal, th)
	require.Equal(t, 1, th.Depth(Normal))

	rec := engine.domains[Normal].record(th.cpu[Normal])
	require.Same(t, th, rec.head, "thread should still be registered after one End of two Begins")

	End(Normal, th)
	require.Equal(t, 0, th.Depth(Normal))
	require.Equal(t, -1, th.cpu[Normal])
}

func TestEndWithoutBeginPanics(t *testing.T) {
	setupEngine(t)
	th := NewThread()

	require.Panics(t, func() { End(Normal, th) })
}

func TestInvalidTypePanics(t *testing.T) {
	setupEngine(t)
	th := NewThread()

	require.Panics(t, func() { Begin(Type(99), th) })
}

func TestRegistryInsertionMatchesDepthInvariant(t *testing.T) {
	setupEngine(t)
	th := NewThread()

	Begin(Normal, th)
	rec := engine.domains[Normal].record(th.cpu[Normal])
	require.Same(t, th, rec.head)
	require.Same(t, th, rec.tail)

	End(Normal, th)
	require.Nil(t, rec.head)
	require.Nil(t, rec.tail)
}
