// Package app wires the bundle registry into a runnable process: logger
// construction, configuration (flags merged over an optional TOML file),
// the root context the base bundle hangs off, and the admin HTTP surface
// that exposes lookups and the side-load trigger.
package app
