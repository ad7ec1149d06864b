package loader

import (
	"context"

	"github.com/vk/bundlegrid/internal/ctxlog"
	"github.com/vk/bundlegrid/internal/manifest"
)

// Resolution is the outcome of ResolveAll. ByPath and ByID reference the
// same contexts under two keys: the canonical working-directory path and
// the bundle id. Unresolved holds every descriptor whose dependency chain
// never reached the base bundle.
type Resolution struct {
	ByPath     map[string]*Context
	ByID       map[string]*Context
	Unresolved []manifest.Descriptor
}

// ResolveAll constructs a loading context for every resolvable descriptor,
// in dependency order.
//
// The base bundle is seated first on the supplied root context; its absence
// is the one fatal outcome. After that the engine sweeps the remaining
// descriptors until a full pass seats nothing: a descriptor is eligible
// once its dependency is empty (parent becomes the base context) or names
// an already-seated bundle. Descriptors arrive in arbitrary order, so
// repeated sweeps are what guarantees order-independence; the loop runs at
// most depth-of-forest passes.
func ResolveAll(ctx context.Context, descriptors []manifest.Descriptor, baseID string, root *Context) (*Resolution, error) {
	logger := ctxlog.FromContext(ctx)

	res := &Resolution{
		ByPath: make(map[string]*Context),
		ByID:   make(map[string]*Context),
	}

	// Descriptors without an id can never be loaded or depended upon.
	pending := make([]manifest.Descriptor, 0, len(descriptors))
	for _, desc := range descriptors {
		if desc.ID == "" {
			logger.Warn("No bundle id found, skipping.", "path", desc.WorkingDir)
			continue
		}
		pending = append(pending, desc)
	}

	var base *Context
	for i, desc := range pending {
		if desc.ID != baseID {
			continue
		}
		constructed, err := NewContext(desc.WorkingDir, root)
		if err != nil {
			return nil, err
		}
		base = constructed
		res.ByPath[base.WorkingDir()] = base
		res.ByID[baseID] = base
		pending = append(pending[:i], pending[i+1:]...)
		break
	}
	if base == nil {
		return nil, &BaseBundleNotFoundError{BaseID: baseID}
	}
	logger.Info("Base bundle loaded.", "id", baseID, "path", base.WorkingDir())

	for {
		before := len(pending)

		remaining := pending[:0]
		for _, desc := range pending {
			var parent *Context
			if desc.DependencyID == "" {
				parent = base
			} else if seated, ok := res.ByID[desc.DependencyID]; ok {
				parent = seated
			}

			if parent == nil {
				remaining = append(remaining, desc)
				continue
			}

			constructed, err := NewContext(desc.WorkingDir, parent)
			if err != nil {
				// A broken working directory only costs us this bundle.
				logger.Warn("Failed to construct loading context, skipping bundle.",
					"id", desc.ID, "path", desc.WorkingDir, "error", err)
				continue
			}

			if prior, ok := res.ByID[desc.ID]; ok {
				logger.Warn("Duplicate bundle id, dependents may bind to either copy.",
					"id", desc.ID, "path", constructed.WorkingDir(), "previous_path", prior.WorkingDir())
			}
			res.ByPath[constructed.WorkingDir()] = constructed
			res.ByID[desc.ID] = constructed
			logger.Debug("Bundle loaded.", "id", desc.ID, "path", constructed.WorkingDir())
		}

		pending = remaining
		if len(pending) == before {
			break
		}
	}

	for _, desc := range pending {
		logger.Warn("Unable to resolve required dependency, skipping bundle.",
			"id", desc.ID, "dependency", desc.DependencyID, "path", desc.WorkingDir)
	}
	res.Unresolved = pending

	return res, nil
}
