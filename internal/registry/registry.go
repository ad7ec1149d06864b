package registry

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/vk/bundlegrid/internal/ctxlog"
	"github.com/vk/bundlegrid/internal/fsutil"
	"github.com/vk/bundlegrid/internal/loader"
	"github.com/vk/bundlegrid/internal/manifest"
)

// ErrAlreadyInitialized is returned by Load when the registry's one-shot
// gate has already been consumed. Existing state is left untouched.
var ErrAlreadyInitialized = errors.New("bundle registry has already been loaded")

// ErrNotInitialized is returned by every query invoked before a successful
// Load has published the registry's state.
var ErrNotInitialized = errors.New("bundle registry has not been loaded")

// Options configures a Registry instance.
type Options struct {
	// BaseBundleID identifies the distinguished bundle that anchors the
	// dependency forest. Load fails fatally when no descriptor carries it.
	BaseBundleID string

	// Root is the system context supplied by the embedding process. It
	// becomes the parent of the base bundle's context.
	Root *loader.Context
}

// state is one immutable snapshot of the registry's maps. Snapshots are
// never mutated after publication; every change builds a fresh one.
type state struct {
	byPath     map[string]*loader.Context
	byID       map[string]*loader.Context
	sideLoaded map[string]*loader.Context
}

// Registry is the process-wide bundle registry. The zero value is not
// usable; construct instances with New.
type Registry struct {
	baseID string
	root   *loader.Context

	initialized atomic.Bool
	state       atomic.Pointer[state]
}

// New creates an unloaded Registry. Nothing is scanned until Load.
func New(opts Options) *Registry {
	return &Registry{
		baseID: opts.BaseBundleID,
		root:   opts.Root,
	}
}

// Load scans the given root directories, resolves every discovered bundle
// in dependency order, and publishes the result. It runs its body at most
// once per Registry: the winner of a concurrent first-call race does the
// work, all other callers get ErrAlreadyInitialized immediately.
//
// A missing or inaccessible root directory and a missing base bundle are
// fatal; the gate stays consumed and the registry remains unready, so the
// embedding process must restart. Per-bundle manifest problems only cost
// the affected bundle.
func (r *Registry) Load(ctx context.Context, roots ...string) error {
	if !r.initialized.CompareAndSwap(false, true) {
		return ErrAlreadyInitialized
	}
	logger := ctxlog.FromContext(ctx)

	var descriptors []manifest.Descriptor
	for _, root := range roots {
		if err := fsutil.EnsureDirAccessible(root); err != nil {
			return err
		}

		subdirs, err := fsutil.ListSubdirectories(root)
		if err != nil {
			return err
		}
		for _, dir := range subdirs {
			desc, err := manifest.Read(dir)
			if err != nil {
				logger.Warn("Failed to read bundle manifest, skipping.", "path", dir, "error", err)
				continue
			}
			descriptors = append(descriptors, *desc)
		}
	}
	logger.Debug("Bundle scan complete.", "roots", len(roots), "descriptors", len(descriptors))

	res, err := loader.ResolveAll(ctx, descriptors, r.baseID, r.root)
	if err != nil {
		return fmt.Errorf("failed to resolve bundles: %w", err)
	}

	// Single store publishes both lookup maps together.
	r.state.Store(&state{
		byPath:     res.ByPath,
		byID:       res.ByID,
		sideLoaded: map[string]*loader.Context{},
	})
	logger.Info("Bundle registry ready.",
		"loaded", len(res.ByID), "unresolved", len(res.Unresolved))
	return nil
}

// SideLoad admits one additional bundle into a ready registry. The new
// bundle may depend on anything already present, including previously
// side-loaded bundles. It returns true only when the bundle was actually
// merged.
//
// A descriptor without an id is a logged no-op. An unknown dependency id
// is a reported failure; previously published state is never touched.
func (r *Registry) SideLoad(ctx context.Context, dir string) (bool, error) {
	if r.state.Load() == nil {
		return false, ErrNotInitialized
	}
	logger := ctxlog.FromContext(ctx)

	desc, err := manifest.Read(dir)
	if err != nil {
		return false, err
	}
	if desc.ID == "" {
		logger.Warn("No bundle id found, skipping side-load.", "path", dir)
		return false, nil
	}

	// Resolve the parent against the current snapshot. The parent context
	// is immutable and cannot disappear from later snapshots, so holding
	// it across the construction below is safe even if the snapshot moves.
	snap := r.state.Load()
	var parent *loader.Context
	if desc.DependencyID == "" {
		parent = snap.byID[r.baseID]
	} else if seated, ok := snap.byID[desc.DependencyID]; ok {
		parent = seated
	} else {
		return false, &loader.UnresolvedDependencyError{
			BundleID:     desc.ID,
			DependencyID: desc.DependencyID,
			Dir:          dir,
		}
	}

	constructed, err := loader.NewContext(dir, parent)
	if err != nil {
		return false, err
	}

	// Merge via copy-on-write so concurrent side-loads never lose updates
	// and readers never see a half-merged bundle.
	for {
		prev := r.state.Load()
		next := &state{
			byPath:     cloneWith(prev.byPath, constructed.WorkingDir(), constructed),
			byID:       cloneWith(prev.byID, desc.ID, constructed),
			sideLoaded: cloneWith(prev.sideLoaded, constructed.WorkingDir(), constructed),
		}
		if r.state.CompareAndSwap(prev, next) {
			break
		}
	}

	logger.Info("Bundle side-loaded.", "id", desc.ID, "path", constructed.WorkingDir())
	return true, nil
}

// LookupByPath returns the context bound to the given working directory,
// or nil when no bundle was loaded from it. The path is canonicalized
// before the lookup; a path that cannot be canonicalized has no entry.
func (r *Registry) LookupByPath(dir string) (*loader.Context, error) {
	snap := r.state.Load()
	if snap == nil {
		return nil, ErrNotInitialized
	}
	canonical, err := fsutil.CanonicalPath(dir)
	if err != nil {
		return nil, nil
	}
	return snap.byPath[canonical], nil
}

// LookupByID returns the context for the given bundle id, or nil when the
// id is unknown.
func (r *Registry) LookupByID(id string) (*loader.Context, error) {
	snap := r.state.Load()
	if snap == nil {
		return nil, ErrNotInitialized
	}
	return snap.byID[id], nil
}

// Base returns the base bundle's context. Once the registry is ready the
// base bundle is always present.
func (r *Registry) Base() (*loader.Context, error) {
	return r.LookupByID(r.baseID)
}

// ListAll returns every loaded context, initial and side-loaded alike.
func (r *Registry) ListAll() ([]*loader.Context, error) {
	snap := r.state.Load()
	if snap == nil {
		return nil, ErrNotInitialized
	}
	all := make([]*loader.Context, 0, len(snap.byPath))
	for _, ctx := range snap.byPath {
		all = append(all, ctx)
	}
	return all, nil
}

// ListSideLoaded returns only the contexts admitted after the initial load.
func (r *Registry) ListSideLoaded() ([]*loader.Context, error) {
	snap := r.state.Load()
	if snap == nil {
		return nil, ErrNotInitialized
	}
	side := make([]*loader.Context, 0, len(snap.sideLoaded))
	for _, ctx := range snap.sideLoaded {
		side = append(side, ctx)
	}
	return side, nil
}

// Entry pairs a bundle id with its context for reporting surfaces.
type Entry struct {
	ID         string
	Context    *loader.Context
	SideLoaded bool
}

// Entries returns one entry per registered bundle id, for the admin
// listing. Order is unspecified.
func (r *Registry) Entries() ([]Entry, error) {
	snap := r.state.Load()
	if snap == nil {
		return nil, ErrNotInitialized
	}
	entries := make([]Entry, 0, len(snap.byID))
	for id, ctx := range snap.byID {
		_, side := snap.sideLoaded[ctx.WorkingDir()]
		entries = append(entries, Entry{ID: id, Context: ctx, SideLoaded: side})
	}
	return entries, nil
}

// cloneWith copies m and sets key to val in the copy. Merges are
// last-writer-wins on key collisions.
func cloneWith(m map[string]*loader.Context, key string, val *loader.Context) map[string]*loader.Context {
	next := make(map[string]*loader.Context, len(m)+1)
	for k, v := range m {
		next[k] = v
	}
	next[key] = val
	return next
}
