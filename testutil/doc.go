// Package testutil extends the component lifecycle for tests. A
// TestComponent is a regular component.Component that can additionally
// reset, snapshot, and restore its state, which is what test isolation
// between cases needs. The in-memory artifact store under
// storage/testutil is the main implementation.
//
// Typical usage:
//
//	func TestResegment(t *testing.T) {
//	    store := storagetest.NewComponent()
//	    testutil.T(t).Setup(store)
//	    // store is stopped automatically when the test ends
//	}
package testutil
