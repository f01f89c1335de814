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
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/eventexplorer/eventexplorer-go/internal/auth"
	"github.com/eventexplorer/eventexplorer-go/internal/catalog"
	"github.com/eventexplorer/eventexplorer-go/internal/config"
	"github.com/eventexplorer/eventexplorer-go/internal/handler"
	"github.com/eventexplorer/eventexplorer-go/internal/middleware"
	"github.com/eventexplorer/eventexplorer-go/internal/querycache"
	"github.com/eventexplorer/eventexplorer-go/internal/registry"
	"github.com/eventexplorer/eventexplorer-go/internal/session"
	"github.com/eventexplorer/eventexplorer-go/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, using environment variables")
	}

	cfg := config.Load()

	renderer, err := handler.NewRenderer()
	if err != nil {
		slog.Error("template parsing failed", "error", err)
		os.Exit(1)
	}

	authClient := auth.NewClient(cfg.AuthBaseURL, cfg.JWTSecret)
	provider := session.NewProvider(authClient)
	provider.Resolve("") // the server boots with no ambient session

	// Connect to the hosted backend; browsing works without it.
	var regs store.Registry
	db, err := registry.NewDB(cfg.DatabaseDSN)
	if err != nil {
		slog.Warn("hosted database connection failed, running browse-only", "error", err)
	} else {
		regs = registry.NewRepository(db)
	}

	cache := querycache.New(cfg.CacheTTL, nil)
	st := store.New(cache, catalog.NewClient(cfg.CatalogBaseURL), regs)

	// Session changes invalidate the departing user's cached results.
	changes, cancelChanges := provider.Subscribe()
	defer cancelChanges()
	go func() {
		for change := range changes {
			if change.Prev != nil && change.User == nil {
				st.InvalidateUser(change.Prev.ID)
			}
		}
	}()

	pages := handler.NewPageHandler(st, renderer)
	authHandler := handler.NewAuthHandler(authClient, provider, renderer, cfg.SessionExpiry, cfg.Env == "production")

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Session(authClient))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/", pages.HandleHome)
	r.Get("/events", pages.HandleEvents)
	r.Get("/event/{id}", pages.HandleEventDetail)
	r.Get("/profile", pages.HandleProfile)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(5, 10))
		r.Get("/auth", authHandler.HandleAuthPage)
		r.Post("/auth/signin", authHandler.HandleSignIn)
		r.Post("/auth/signup", authHandler.HandleSignUp)
		r.Post("/auth/signout", authHandler.HandleSignOut)
		r.Post("/event/{id}/register", pages.HandleRegister)
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		slog.Info("server starting", "port", cfg.Port, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}
