// Package loader builds isolated loading contexts for extension bundles
// and resolves the dependency forest between them.
//
// Each bundle gets exactly one Context: an immutable symbol scope bound to
// the bundle's working directory, delegating unresolved lookups to a single
// parent context. Parents are always constructed before children, so a
// context can hold a plain reference to its parent for its whole lifetime.
//
// ResolveAll turns a set of descriptors into a context per bundle. The
// dependency model is deliberately a forest: zero or one dependency per
// bundle, all dependency-less bundles hanging off the distinguished base
// bundle, which in turn hangs off the embedder's root context. Bundles
// whose dependency never materializes are reported, logged, and skipped;
// they never abort the load.
package loader
