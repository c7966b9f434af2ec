package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/sells-group/mapper-cli/internal/mapping"
	"github.com/sells-group/mapper-cli/internal/model"
)

var (
	servePort    int
	serveFields  string
	serveSession string
	serveName    string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the mapping engine over HTTP",
	Long:  "Exposes one mapping session over a JSON API: instructions, mappings, conflicts, resolution, and export.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx, serveSession, serveFields, serveName)
		if err != nil {
			return err
		}
		defer env.Close()

		// Persist once up front so a fresh session has an id to report.
		if err := env.save(ctx); err != nil {
			return err
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           newRouter(env),
			ReadHeaderTimeout: 10 * time.Second,
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			zap.L().Info("starting server",
				zap.Int("port", port),
				zap.String("session_id", env.Session.ID),
			)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return eris.Wrap(err, "server listen")
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			zap.L().Info("shutting down server")
			shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return eris.Wrap(srv.Shutdown(shutCtx), "server shutdown")
		})

		return g.Wait()
	},
}

// newRouter builds the HTTP API for one mapping session.
func newRouter(env *mapperEnv) *chi.Mux {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))
	r.Use(rateLimit(rate.Limit(cfg.Server.RateLimitRPS), cfg.Server.RateLimitBurst))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":     "ok",
			"session_id": env.Session.ID,
		})
	})

	r.Post("/instructions", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Instruction string `json:"instruction"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if body.Instruction == "" {
			writeError(w, http.StatusBadRequest, "instruction is required")
			return
		}

		res := env.Proc.Process(body.Instruction)
		if err := env.save(req.Context()); err != nil {
			zap.L().Error("session save failed", zap.Error(err))
		}
		writeJSON(w, http.StatusOK, res)
	})

	r.Get("/mappings", func(w http.ResponseWriter, _ *http.Request) {
		mappings := env.Proc.Store().Mappings()
		if mappings == nil {
			mappings = []model.Mapping{}
		}
		writeJSON(w, http.StatusOK, mappings)
	})

	r.Get("/conflicts", func(w http.ResponseWriter, _ *http.Request) {
		conflicts := env.Proc.Store().Conflicts()
		if conflicts == nil {
			conflicts = []model.Conflict{}
		}
		writeJSON(w, http.StatusOK, conflicts)
	})

	r.Post("/conflicts/{id}/resolve", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Action string              `json:"action"`
			Patch  *model.MappingPatch `json:"patch,omitempty"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		id := chi.URLParam(req, "id")
		err := env.Proc.Store().ResolveConflict(id, mapping.Resolution(body.Action), body.Patch)
		if err != nil {
			if eris.Is(err, mapping.ErrNotFound) {
				writeError(w, http.StatusNotFound, "conflict not found")
				return
			}
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := env.save(req.Context()); err != nil {
			zap.L().Error("session save failed", zap.Error(err))
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "resolved", "conflict_id": id})
	})

	r.Get("/export", func(w http.ResponseWriter, req *http.Request) {
		format := req.URL.Query().Get("format")
		if format == "" {
			format = "json"
		}
		data, err := encodeMappings(env.Proc.Store().Export(), format)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		switch format {
		case "json":
			w.Header().Set("Content-Type", "application/json")
		case "yaml":
			w.Header().Set("Content-Type", "application/yaml")
		case "csv":
			w.Header().Set("Content-Type", "text/csv")
		}
		w.WriteHeader(http.StatusOK)
		w.Write(data)
	})

	return r
}

// rateLimit enforces a per-client token bucket keyed by remote IP.
func rateLimit(limit rate.Limit, burst int) func(http.Handler) http.Handler {
	var mu sync.Mutex
	limiters := make(map[string]*rate.Limiter)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			host, _, err := net.SplitHostPort(req.RemoteAddr)
			if err != nil {
				host = req.RemoteAddr
			}

			mu.Lock()
			lim, ok := limiters[host]
			if !ok {
				lim = rate.NewLimiter(limit, burst)
				limiters[host] = lim
			}
			mu.Unlock()

			if !lim.Allow() {
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, req)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().StringVar(&serveFields, "fields", "", "path to a YAML vocabulary file (for a new session)")
	serveCmd.Flags().StringVar(&serveSession, "session", "", "id of an existing session to serve")
	serveCmd.Flags().StringVar(&serveName, "name", "", "name for a new session")
	rootCmd.AddCommand(serveCmd)
}
