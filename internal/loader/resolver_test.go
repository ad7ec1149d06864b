package loader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/bundlegrid/internal/fsutil"
	"github.com/vk/bundlegrid/internal/manifest"
)

const baseID = "bundlegrid-base"

// descriptorsFor reads back the manifests of the given directories, in the
// given order, so tests control the order descriptors reach the engine.
func descriptorsFor(t *testing.T, dirs ...string) []manifest.Descriptor {
	t.Helper()
	descs := make([]manifest.Descriptor, 0, len(dirs))
	for _, dir := range dirs {
		desc, err := manifest.Read(dir)
		require.NoError(t, err)
		descs = append(descs, *desc)
	}
	return descs
}

func canonical(t *testing.T, dir string) string {
	t.Helper()
	path, err := fsutil.CanonicalPath(dir)
	require.NoError(t, err)
	return path
}

func TestResolveAll(t *testing.T) {
	t.Run("linear chain resolves regardless of descriptor order", func(t *testing.T) {
		tmp := t.TempDir()
		base := writeBundleDir(t, tmp, "base", `id = "`+baseID+`"`)
		a := writeBundleDir(t, tmp, "a", `
id         = "A"
dependency = "`+baseID+`"
`)
		b := writeBundleDir(t, tmp, "b", `
id         = "B"
dependency = "A"
`)

		root := NewRootContext(nil)
		// Children first: only repeated sweeps can seat them.
		res, err := ResolveAll(quietCtx(), descriptorsFor(t, b, a, base), baseID, root)
		require.NoError(t, err)

		assert.Len(t, res.ByID, 3)
		assert.Len(t, res.ByPath, 3)
		assert.Empty(t, res.Unresolved)

		ctxB := res.ByID["B"]
		require.NotNil(t, ctxB)
		assert.Equal(t, canonical(t, b), ctxB.WorkingDir())

		// Parent chain: B -> A -> base -> root.
		ctxA := ctxB.Parent()
		require.NotNil(t, ctxA)
		assert.Equal(t, canonical(t, a), ctxA.WorkingDir())
		ctxBase := ctxA.Parent()
		require.NotNil(t, ctxBase)
		assert.Equal(t, canonical(t, base), ctxBase.WorkingDir())
		assert.Same(t, root, ctxBase.Parent())
	})

	t.Run("dependency-less bundles hang off the base", func(t *testing.T) {
		tmp := t.TempDir()
		base := writeBundleDir(t, tmp, "base", `id = "`+baseID+`"`)
		solo := writeBundleDir(t, tmp, "solo", `id = "solo"`)

		res, err := ResolveAll(quietCtx(), descriptorsFor(t, solo, base), baseID, NewRootContext(nil))
		require.NoError(t, err)

		ctxSolo := res.ByID["solo"]
		require.NotNil(t, ctxSolo)
		assert.Same(t, res.ByID[baseID], ctxSolo.Parent())
	})

	t.Run("missing base bundle is fatal", func(t *testing.T) {
		tmp := t.TempDir()
		x := writeBundleDir(t, tmp, "x", `
id         = "X"
dependency = "missing"
`)

		_, err := ResolveAll(quietCtx(), descriptorsFor(t, x), baseID, NewRootContext(nil))
		var notFound *BaseBundleNotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, baseID, notFound.BaseID)
	})

	t.Run("unsatisfied dependency is reported, not fatal", func(t *testing.T) {
		tmp := t.TempDir()
		base := writeBundleDir(t, tmp, "base", `id = "`+baseID+`"`)
		orphan := writeBundleDir(t, tmp, "orphan", `
id         = "orphan"
dependency = "nowhere"
`)

		res, err := ResolveAll(quietCtx(), descriptorsFor(t, base, orphan), baseID, NewRootContext(nil))
		require.NoError(t, err)

		require.Len(t, res.Unresolved, 1)
		assert.Equal(t, "orphan", res.Unresolved[0].ID)
		assert.NotContains(t, res.ByID, "orphan")
		assert.NotContains(t, res.ByPath, canonical(t, orphan))
		assert.Len(t, res.ByID, 1)
	})

	t.Run("self-dependency never resolves", func(t *testing.T) {
		tmp := t.TempDir()
		base := writeBundleDir(t, tmp, "base", `id = "`+baseID+`"`)
		selfish := writeBundleDir(t, tmp, "selfish", `
id         = "selfish"
dependency = "selfish"
`)

		res, err := ResolveAll(quietCtx(), descriptorsFor(t, base, selfish), baseID, NewRootContext(nil))
		require.NoError(t, err)
		require.Len(t, res.Unresolved, 1)
		assert.Equal(t, "selfish", res.Unresolved[0].ID)
	})

	t.Run("dependency cycle leaves both unresolved", func(t *testing.T) {
		tmp := t.TempDir()
		base := writeBundleDir(t, tmp, "base", `id = "`+baseID+`"`)
		p := writeBundleDir(t, tmp, "p", `
id         = "P"
dependency = "Q"
`)
		q := writeBundleDir(t, tmp, "q", `
id         = "Q"
dependency = "P"
`)

		res, err := ResolveAll(quietCtx(), descriptorsFor(t, base, p, q), baseID, NewRootContext(nil))
		require.NoError(t, err)
		assert.Len(t, res.Unresolved, 2)
		assert.Len(t, res.ByID, 1)
	})

	t.Run("descriptor without an id is dropped silently", func(t *testing.T) {
		tmp := t.TempDir()
		base := writeBundleDir(t, tmp, "base", `id = "`+baseID+`"`)
		anon := writeBundleDir(t, tmp, "anon", `dependency = "`+baseID+`"`)

		res, err := ResolveAll(quietCtx(), descriptorsFor(t, base, anon), baseID, NewRootContext(nil))
		require.NoError(t, err)

		assert.Empty(t, res.Unresolved)
		assert.Len(t, res.ByID, 1)
		assert.NotContains(t, res.ByPath, canonical(t, anon))
	})

	t.Run("duplicate ids keep both contexts, last writer wins the id", func(t *testing.T) {
		tmp := t.TempDir()
		base := writeBundleDir(t, tmp, "base", `id = "`+baseID+`"`)
		first := writeBundleDir(t, tmp, "first", `id = "dup"`)
		second := writeBundleDir(t, tmp, "second", `id = "dup"`)

		res, err := ResolveAll(quietCtx(), descriptorsFor(t, base, first, second), baseID, NewRootContext(nil))
		require.NoError(t, err)

		// Both working directories got distinct contexts.
		assert.Contains(t, res.ByPath, canonical(t, first))
		assert.Contains(t, res.ByPath, canonical(t, second))
		assert.Len(t, res.ByPath, 3)
		// The id map holds exactly one of them.
		assert.Len(t, res.ByID, 2)
		assert.Same(t, res.ByPath[canonical(t, second)], res.ByID["dup"])
	})

	t.Run("broken working directory only costs that bundle", func(t *testing.T) {
		tmp := t.TempDir()
		base := writeBundleDir(t, tmp, "base", `id = "`+baseID+`"`)
		bad := writeBundleDir(t, tmp, "bad", `id = "bad"`)
		writeExports(t, bad, `nope = `)
		good := writeBundleDir(t, tmp, "good", `id = "good"`)

		res, err := ResolveAll(quietCtx(), descriptorsFor(t, base, bad, good), baseID, NewRootContext(nil))
		require.NoError(t, err)
		assert.Contains(t, res.ByID, "good")
		assert.NotContains(t, res.ByID, "bad")
	})

	t.Run("wide forest resolves completely", func(t *testing.T) {
		tmp := t.TempDir()
		dirs := []string{writeBundleDir(t, tmp, "base", `id = "`+baseID+`"`)}
		dirs = append(dirs,
			writeBundleDir(t, tmp, "l1a", `id = "l1a"`),
			writeBundleDir(t, tmp, "l1b", `id = "l1b"`),
			writeBundleDir(t, tmp, "l2a", "id = \"l2a\"\ndependency = \"l1a\""),
			writeBundleDir(t, tmp, "l2b", "id = \"l2b\"\ndependency = \"l1b\""),
			writeBundleDir(t, tmp, "l3a", "id = \"l3a\"\ndependency = \"l2a\""),
		)

		res, err := ResolveAll(quietCtx(), descriptorsFor(t, dirs...), baseID, NewRootContext(nil))
		require.NoError(t, err)
		assert.Empty(t, res.Unresolved)
		assert.Len(t, res.ByID, len(dirs))
		assert.Len(t, res.ByPath, len(dirs))
	})
}
