package app

import (
	"context"
	"fmt"
	"time"

	"github.com/vk/bundlegrid/internal/ctxlog"
	"github.com/vk/bundlegrid/internal/fsutil"
)

// scratchDeleteAttempts matches the retry budget used for clearing the
// staging area before a fresh load.
const (
	scratchDeleteAttempts = 10
	scratchDeleteDelay    = 100 * time.Millisecond
)

// Run executes the main application logic: clear the scratch area if one
// is configured, load every bundle root, then serve the admin surface.
// Without an admin port Run is a one-shot load-and-report.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if a.config.ScratchDir != "" {
		a.logger.Debug("Clearing scratch directory.", "path", a.config.ScratchDir)
		if err := fsutil.DeleteRecursively(a.config.ScratchDir, scratchDeleteAttempts, scratchDeleteDelay); err != nil {
			return fmt.Errorf("failed to clear scratch directory: %w", err)
		}
	}

	if err := a.registry.Load(ctx, a.config.Roots...); err != nil {
		return fmt.Errorf("failed to load bundles: %w", err)
	}

	all, err := a.registry.ListAll()
	if err != nil {
		return err
	}
	a.logger.Info("🧩 Bundles loaded.", "count", len(all))

	if a.config.AdminPort > 0 {
		return a.serveAdmin(ctx, a.config.AdminPort)
	}

	a.logger.Debug("App.Run method finished.")
	return nil
}
