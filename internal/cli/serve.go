package cli

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/qasmkit/qroute/pkg/config"
	"github.com/qasmkit/qroute/pkg/device"
	"github.com/qasmkit/qroute/pkg/diag"
	"github.com/qasmkit/qroute/pkg/errors"
	"github.com/qasmkit/qroute/pkg/observability"
	"github.com/qasmkit/qroute/pkg/pipeline"
)

// serveCommand creates the serve command running the routing API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr       string
		configPath string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the routing API server",
		Long: `Run the HTTP API server.

Endpoints:
  POST /v1/route   route a program onto an inline device description
  GET  /healthz    liveness probe`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			return c.serve(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().StringVar(&configPath, "config", "", "config file (default ./qroute.toml)")

	return cmd
}

func (c *CLI) serve(ctx context.Context, cfg config.Config) error {
	runner, err := c.newServerRunner(ctx, cfg)
	if err != nil {
		return err
	}
	defer runner.Close()

	api := &apiServer{runner: runner, cfg: cfg}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(hookMiddleware)
	r.Get("/healthz", api.handleHealth)
	r.Post("/v1/route", api.handleRoute)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	c.Logger.Info("serving routing API", "addr", cfg.Server.Addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

// newServerRunner builds a runner with the configured backend. The server
// prefers redis so replicas share the artifact cache.
func (c *CLI) newServerRunner(ctx context.Context, cfg config.Config) (*pipeline.Runner, error) {
	if cfg.Cache.Backend == "redis" {
		store, err := newRedisCache(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return pipeline.NewRunner(store, nil, c.Logger), nil
	}
	return c.newRunner(cfg, false)
}

// apiServer holds the handler state.
type apiServer struct {
	runner *pipeline.Runner
	cfg    config.Config
}

// routeRequest is the body of POST /v1/route.
type routeRequest struct {
	Program  string      `json:"program"`
	Device   device.File `json:"device"`
	Register string      `json:"register,omitempty"`
	NoCache  bool        `json:"no_cache,omitempty"`
}

// routeResponse is the body of a successful routing call.
type routeResponse struct {
	RunID       string            `json:"run_id"`
	Program     string            `json:"program"`
	Permutation []int             `json:"permutation"`
	Swaps       int               `json:"swaps"`
	Diagnostics []diag.Diagnostic `json:"diagnostics,omitempty"`
	Cached      bool              `json:"cached"`
}

// errorResponse is the body of a failed call.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *apiServer) handleRoute(w http.ResponseWriter, r *http.Request) {
	var req routeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
		return
	}
	if req.Program == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "program is required"})
		return
	}

	rep := diag.NewReporter(s.runner.Logger)
	dev, err := device.FromFile(req.Device, rep)
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := s.runner.Execute(r.Context(), pipeline.Options{
		Program:  req.Program,
		Device:   dev,
		Register: req.Register,
		NoCache:  req.NoCache,
		Logger:   s.runner.Logger,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	diags := rep.Diagnostics()
	diags = append(diags, result.Diagnostics...)
	writeJSON(w, http.StatusOK, routeResponse{
		RunID:       result.RunID,
		Program:     result.Program,
		Permutation: result.Permutation,
		Swaps:       result.Swaps,
		Diagnostics: diags,
		Cached:      result.CacheInfo.Hit,
	})
}

// writeError maps the error code to an HTTP status.
func writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	status := http.StatusInternalServerError
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidDevice,
		errors.ErrCodeInvalidProgram, errors.ErrCodeInvalidFormat:
		status = http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeFileNotFound, errors.ErrCodeDeviceNotFound:
		status = http.StatusNotFound
	}
	writeJSON(w, status, errorResponse{Error: errors.UserMessage(err), Code: string(code)})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// hookMiddleware mirrors requests into the observability registry.
func hookMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		observability.HTTP().OnRequest(r.Context(), r.Method, r.URL.Path)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		observability.HTTP().OnResponse(r.Context(), r.Method, r.URL.Path, ww.Status(), time.Since(start))
	})
}
