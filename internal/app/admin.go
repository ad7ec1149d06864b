package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/vk/bundlegrid/internal/loader"
	"github.com/vk/bundlegrid/internal/manifest"
	"github.com/vk/bundlegrid/internal/registry"
)

// bundleView is the admin listing's JSON shape for one bundle.
type bundleView struct {
	ID         string `json:"id"`
	Path       string `json:"path"`
	ParentPath string `json:"parent_path,omitempty"`
	SideLoaded bool   `json:"side_loaded"`
}

// sideLoadRequest is the body of POST /bundles/sideload.
type sideLoadRequest struct {
	Path string `json:"path"`
}

// sideLoadResponse reports the outcome of a side-load attempt.
type sideLoadResponse struct {
	Loaded bool   `json:"loaded"`
	Error  string `json:"error,omitempty"`
}

// healthHandler reports liveness. The registry being unready is not a
// liveness failure; it just means load has not finished.
func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	a.logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

// bundlesHandler lists every registered bundle.
func (a *App) bundlesHandler(w http.ResponseWriter, r *http.Request) {
	entries, err := a.registry.Entries()
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	views := make([]bundleView, 0, len(entries))
	for _, entry := range entries {
		view := bundleView{
			ID:         entry.ID,
			Path:       entry.Context.WorkingDir(),
			SideLoaded: entry.SideLoaded,
		}
		if parent := entry.Context.Parent(); parent != nil {
			view.ParentPath = parent.WorkingDir()
		}
		views = append(views, view)
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(views); err != nil {
		a.logger.Error("Failed to encode bundle listing.", "error", err)
	}
}

// sideLoadHandler admits one new bundle into the running registry.
func (a *App) sideLoadHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req sideLoadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Path == "" {
		http.Error(w, "body must be JSON with a non-empty \"path\"", http.StatusBadRequest)
		return
	}

	loaded, err := a.registry.SideLoad(r.Context(), req.Path)
	resp := sideLoadResponse{Loaded: loaded}
	status := http.StatusOK
	if err != nil {
		resp.Error = err.Error()
		status = sideLoadStatus(err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		a.logger.Error("Failed to encode side-load response.", "error", err)
	}
}

// sideLoadStatus maps side-load failures onto HTTP status codes.
func sideLoadStatus(err error) int {
	var unresolved *loader.UnresolvedDependencyError
	var readErr *manifest.ReadError
	switch {
	case errors.Is(err, registry.ErrNotInitialized):
		return http.StatusServiceUnavailable
	case errors.As(err, &unresolved):
		return http.StatusConflict
	case errors.As(err, &readErr):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// adminMux assembles the admin server's routes.
func (a *App) adminMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", a.healthHandler)
	mux.HandleFunc("/bundles", a.bundlesHandler)
	mux.HandleFunc("/bundles/sideload", a.sideLoadHandler)
	return mux
}

// serveAdmin runs the admin HTTP server until the context is canceled or
// the listener fails.
func (a *App) serveAdmin(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	server := &http.Server{
		Addr:        addr,
		Handler:     a.adminMux(),
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	a.logger.Info("🩺 Admin server starting", "address", fmt.Sprintf("http://localhost%s/health", addr))

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		_ = server.Close()
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}
