// Package registry maintains the process-wide mapping from bundle ids and
// working-directory paths to loading contexts.
//
// The registry is an explicitly constructed object rather than package
// state: the embedding process creates exactly one, loads it once, and
// hands references to anything that needs lookups. Load is single-shot;
// the first caller through the gate does the whole scan/resolve/publish,
// and every later caller gets ErrAlreadyInitialized. After that the
// registry only ever grows, one bundle at a time, through SideLoad.
//
// All published state lives behind a single atomic pointer to an immutable
// snapshot, so queries are lock-free and the id and path maps can never be
// observed out of step with each other. SideLoad does its file I/O and
// context construction up front, then merges with a copy-on-write
// compare-and-swap retry loop; concurrent side-loads of distinct bundles
// both land.
package registry
