package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/inamate/planner/internal/asset"
	"github.com/inamate/planner/internal/auth"
	"github.com/inamate/planner/internal/collab"
	"github.com/inamate/planner/internal/config"
	"github.com/inamate/planner/internal/document"
	"github.com/inamate/planner/internal/export"
	"github.com/inamate/planner/internal/metrics"
	mw "github.com/inamate/planner/internal/middleware"
	"github.com/inamate/planner/internal/plan"
	"github.com/inamate/planner/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	if err := run(cfg); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dialect, err := store.ParseDialect(cfg.DBDriver)
	if err != nil {
		return err
	}
	db, err := store.Open(dialect, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	m := metrics.Default()
	thumbs := asset.NewThumbnails(cfg.ThumbnailDir)

	authService := auth.NewService(db, cfg.JWTSecret)
	authHandler := auth.NewHandler(authService)

	planService := plan.NewService(db, plan.WithThumbnails(thumbs), plan.WithMetrics(m))
	planHandler := plan.NewHandler(planService)

	// The hub loads and saves without a membership check; the websocket
	// handler authorizes before registering a client.
	hub := collab.NewHub(
		planService.Load,
		func(ctx context.Context, planID string, wb *document.Workbook) error {
			_, err := planService.Persist(ctx, planID, wb)
			return err
		},
		collab.WithAutosave(cfg.AutosaveSchedule),
		collab.WithMetrics(m),
	)
	planService.UseRooms(hub)
	wsHandler := collab.NewHandler(hub, authService, planService, cfg.Origins())

	exportHandler := export.NewHandler(export.DefaultOptions())

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger(m))
	r.Use(mw.CORS(cfg.Origins()))

	// Auth routes (public)
	r.HandleFunc("/auth/register", authHandler.Register).Methods("POST", "OPTIONS")
	r.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")
	r.Handle("/auth/me", authService.Middleware(http.HandlerFunc(authHandler.Me))).Methods("GET")

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Export and thumbnails (public)
	r.HandleFunc("/export/{format}", exportHandler.Export).Methods("POST", "OPTIONS")
	r.PathPrefix("/thumbnails/").Handler(thumbs.Serve()).Methods("GET")

	// Protected API routes
	api := r.PathPrefix("/api").Subrouter()
	api.Use(authService.Middleware)

	api.HandleFunc("/plans", planHandler.List).Methods("GET")
	api.HandleFunc("/plans", planHandler.Create).Methods("POST")
	api.HandleFunc("/plans/{planId}", planHandler.Get).Methods("GET")
	api.HandleFunc("/plans/{planId}", planHandler.Delete).Methods("DELETE")
	api.HandleFunc("/plans/{planId}/invite", planHandler.Invite).Methods("POST")
	api.HandleFunc("/plans/{planId}/members", planHandler.ListMembers).Methods("GET")
	api.HandleFunc("/plans/{planId}/drawings", planHandler.GetDrawings).Methods("GET")
	api.HandleFunc("/plans/{planId}/drawings", planHandler.PutDrawings).Methods("PUT")

	// WebSocket endpoint
	r.Handle("/ws/plan/{planId}", wsHandler)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return hub.Run(gctx)
	})

	g.Go(func() error {
		slog.Info("server starting", "addr", addr, "db", dialect)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// Graceful shutdown
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
