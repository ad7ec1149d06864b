package loader

import "fmt"

// ContextError reports that a bundle's working directory could not be
// opened or its exports payload could not be parsed.
type ContextError struct {
	Dir string
	Err error
}

func (e *ContextError) Error() string {
	return fmt.Sprintf("failed to construct loading context for %s: %v", e.Dir, e.Err)
}

func (e *ContextError) Unwrap() error { return e.Err }

// BaseBundleNotFoundError is fatal: without the base bundle no other
// bundle has an anchor and the process cannot start.
type BaseBundleNotFoundError struct {
	BaseID string
}

func (e *BaseBundleNotFoundError) Error() string {
	return fmt.Sprintf("unable to locate base bundle %q", e.BaseID)
}

// UnresolvedDependencyError reports a bundle whose declared dependency id
// is not (or not yet) present.
type UnresolvedDependencyError struct {
	BundleID     string
	DependencyID string
	Dir          string
}

func (e *UnresolvedDependencyError) Error() string {
	return fmt.Sprintf("bundle %q in %s depends on unknown bundle %q", e.BundleID, e.Dir, e.DependencyID)
}
