package app

import (
	"io"
	"log/slog"
	"runtime"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/bundlegrid/internal/loader"
	"github.com/vk/bundlegrid/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	registry *registry.Registry
	config   *Config
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger, root
// context, and registry. Nothing is scanned until Run.
func NewApp(outW io.Writer, cfg *Config) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	logger.Debug("Logger configured successfully.")

	root := loader.NewRootContext(rootSymbols())
	reg := registry.New(registry.Options{
		BaseBundleID: cfg.BaseBundleID,
		Root:         root,
	})
	logger.Debug("Registry constructed.", "base_bundle_id", cfg.BaseBundleID)

	return &App{
		outW:     outW,
		logger:   logger,
		registry: reg,
		config:   cfg,
	}
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// rootSymbols seeds the system context with the symbols the platform
// guarantees to every bundle, regardless of its position in the forest.
func rootSymbols() map[string]cty.Value {
	return map[string]cty.Value{
		"platform_os":   cty.StringVal(runtime.GOOS),
		"platform_arch": cty.StringVal(runtime.GOARCH),
	}
}
