// Package bridge lets host threads wait on native primitives without
// stalling the rest of the host runtime.
//
// A host runtime may serialize execution of host code behind a global lock.
// A host thread that parks on a native lock or queue while still holding that
// lock would freeze every other host thread, including the one that is about
// to release what it waits for. Block releases the runtime lock for the span
// of a native wait and reacquires it on every exit path; Call does the reverse
// for short excursions back into host code (update callbacks, equality
// checks) from native code.
//
// Goroutines that never Attach are treated as free-running native threads:
// Block and Call run their function directly.
//
// Basic usage:
//
//	rt := bridge.NewSerialized()
//	ctx, th := bridge.Attach(context.Background(), rt)
//	defer th.Detach()
//
//	ok, err := mu.Acquire(ctx) // parks with the runtime lock released
package bridge
