package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth"
	"github.com/joho/godotenv"
	"github.com/tendant/chi-demo/app"
	"github.com/tendant/simple-export/pkg/simpleexport"
	"github.com/tendant/simple-export/pkg/simpleexport/api"
	"github.com/tendant/simple-export/pkg/simpleexport/config"
)

func main() {
	// .env is optional
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("Failed to load .env file", "err", err)
	}

	opts := []config.Option{}
	if path := os.Getenv("EXPORT_CONFIG_FILE"); path != "" {
		opts = append(opts, config.WithFile(path))
	}
	opts = append(opts, config.WithEnv())

	cfg, err := config.Load(opts...)
	if err != nil {
		slog.Error("Failed to load configuration", "err", err)
		os.Exit(1)
	}

	ctx := context.Background()
	comps, err := cfg.Build(ctx)
	if err != nil {
		slog.Error("Failed to build export components", "err", err)
		os.Exit(1)
	}
	defer comps.Close()

	// Each request swaps in its own trigger; the template only carries collaborators.
	exporter, err := comps.Exporter(simpleexport.NewNoopHost())
	if err != nil {
		slog.Error("Failed to create exporter", "err", err)
		os.Exit(1)
	}

	handlerOpts := []api.HandlerOption{api.WithFetcher(comps.Fetcher)}
	if cfg.JWTSecret != "" {
		handlerOpts = append(handlerOpts, api.WithTokenAuth(jwtauth.New("HS256", []byte(cfg.JWTSecret), nil)))
	}
	exportHandler := api.NewExportHandler(exporter, handlerOpts...)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	if cfg.Environment == "development" {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Access-Control-Allow-Origin", "*")
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
				w.Header().Set("Access-Control-Expose-Headers", "Content-Disposition, "+api.TransferStateHeader)

				if r.Method == "OPTIONS" {
					w.WriteHeader(http.StatusOK)
					return
				}

				next.ServeHTTP(w, r)
			})
		})
	}

	app.RoutesHealthz(r)
	app.RoutesHealthzReady(r)

	r.Route("/api/v1", func(r chi.Router) {
		r.Mount("/export", exportHandler.Routes())
	})

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		slog.Info("Starting export server", "port", cfg.Port, "environment", cfg.Environment, "host", cfg.HostType)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server error", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "err", err)
	}

	slog.Info("Server exiting")
}
