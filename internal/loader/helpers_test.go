package loader

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/bundlegrid/internal/ctxlog"
	"github.com/vk/bundlegrid/internal/manifest"
)

// quietCtx returns a context whose logger swallows everything, keeping
// warning-heavy resolution tests readable.
func quietCtx() context.Context {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return ctxlog.WithLogger(context.Background(), logger)
}

// writeBundleDir creates a bundle working directory under root with the
// given manifest body. An empty body writes no manifest at all.
func writeBundleDir(t *testing.T, root, name, manifestBody string) string {
	t.Helper()
	dir := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	if manifestBody != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, manifest.FileName), []byte(manifestBody), 0o644))
	}
	return dir
}

// writeExports drops an exports payload into an existing bundle directory.
func writeExports(t *testing.T, dir, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ExportsFileName), []byte(body), 0o644))
}
