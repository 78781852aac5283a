// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the "wiring" layer. It decides:
//   - which URL patterns map to which handler functions
//   - what middleware runs on which routes
//   - how the server starts and stops gracefully
//
// DEPENDENCY INJECTION FLOW:
//
//	main.go: config → logger → sqlstore.Store (+ optional Redis tag cache)
//	New():   Store → services → handlers → routes
//
// This is the "composition root": every dependency is wired here, in one
// place, instead of being constructed inside the packages that use it.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/sakif/blog-api/internal/auth"
	"github.com/sakif/blog-api/internal/config"
	"github.com/sakif/blog-api/internal/handler"
	"github.com/sakif/blog-api/internal/middleware"
	"github.com/sakif/blog-api/internal/repository/sqlstore"
	"github.com/sakif/blog-api/internal/service"
)

// Server owns the router and the store. The store is closed when Start
// returns.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger zerolog.Logger
	store  *sqlstore.Store
}

// New wires services and handlers on top of store. tagCache may be nil, in
// which case tags are always read from the store.
func New(cfg *config.Config, store *sqlstore.Store, tagCache service.TagCache, logger zerolog.Logger) (*Server, error) {
	tokens, err := auth.NewTokenService(cfg.JWT.Secret, cfg.JWT.TTL)
	if err != nil {
		return nil, fmt.Errorf("server: creating token service: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		store:  store,
	}
	s.setupRoutes(tokens, auth.NewPasswordService(), tagCache)
	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures middleware and routes.
//
// MIDDLEWARE ORDER MATTERS:
//  1. RequestID: assigns an id to each request, read by the logger
//  2. RealIP: takes the client IP from proxy headers
//  3. Logger: one structured line per request
//  4. Recoverer: turns a panic into a 500 instead of a crash
//  5. CORS: answers preflight requests before any route runs
func (s *Server) setupRoutes(tokens *auth.TokenService, passwords *auth.PasswordService, tagCache service.TagCache) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(s.corsHandler())

	// === Services ===
	// The store implements every repository interface; each service only
	// sees the ones it needs.
	tagService := service.NewTagService(s.store, tagCache, s.logger)
	profileService := service.NewProfileService(s.store, s.store, s.logger)
	articleService := service.NewArticleService(s.store, s.store, s.store, tagService, s.logger)
	commentService := service.NewCommentService(s.store, s.store, s.store, s.store, s.logger)
	userService := service.NewUserService(s.store, profileService, tokens, passwords, s.logger)

	// === Handlers ===
	articles := handler.NewArticleHandler(articleService)
	comments := handler.NewCommentHandler(commentService)
	profiles := handler.NewProfileHandler(profileService)
	tags := handler.NewTagHandler(tagService)
	users := handler.NewUserHandler(userService)
	health := handler.NewHealthHandler(s.store)

	requireAuth := auth.RequireAuth(tokens)
	optionalAuth := auth.OptionalAuth(tokens)

	s.router.Get("/healthz", health.HandleHealth)

	s.router.Route("/api", func(r chi.Router) {
		// public, viewer-aware reads
		r.Group(func(r chi.Router) {
			r.Use(optionalAuth)
			r.Get("/articles", articles.HandleList)
			r.Get("/articles/{slug}", articles.HandleGet)
			r.Get("/articles/{slug}/comments", comments.HandleList)
			r.Get("/profiles/{username}", profiles.HandleGet)
			r.Get("/tags", tags.HandleList)
			r.Post("/users", users.HandleRegister)
			r.Post("/users/login", users.HandleLogin)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/user", users.HandleCurrent)
			r.Put("/user", users.HandleUpdate)

			r.Get("/articles/feed", articles.HandleFeed)
			r.Post("/articles", articles.HandleCreate)
			r.Put("/articles/{slug}", articles.HandleUpdate)
			r.Delete("/articles/{slug}", articles.HandleDelete)
			r.Post("/articles/{slug}/favorite", articles.HandleFavorite)
			r.Delete("/articles/{slug}/favorite", articles.HandleUnfavorite)

			r.Post("/articles/{slug}/comments", comments.HandleCreate)
			r.Delete("/articles/{slug}/comments/{id}", comments.HandleDelete)

			r.Post("/profiles/{username}/follow", profiles.HandleFollow)
			r.Delete("/profiles/{username}/follow", profiles.HandleUnfollow)
		})
	})

	// === Auth Routes ===
	// GitHub login is only registered when credentials are configured.
	var github handler.GitHubAuthenticator
	if s.config.GitHub.Enabled() {
		github = auth.NewGitHubProvider(s.config.GitHub.ClientID, s.config.GitHub.ClientSecret, s.config.GitHub.CallbackURL)
	}
	authHandler := handler.NewAuthHandler(github, userService, tokens.TTL(), !s.config.IsDevelopment(), s.logger)
	s.router.Route("/auth", func(r chi.Router) {
		if github != nil {
			r.Get("/github/login", authHandler.HandleGitHubLogin)
			r.Get("/github/callback", authHandler.HandleGitHubCallback)
		} else {
			s.logger.Info().Msg("GitHub OAuth not configured; /auth/github routes disabled")
		}
		r.Post("/logout", authHandler.HandleLogout)
	})
}

// corsHandler allows the configured origins. Credentials (the token cookie)
// are only allowed for an explicit origin list, never for "*".
func (s *Server) corsHandler() func(http.Handler) http.Handler {
	origins := s.config.CORS.AllowedOrigins
	wildcard := len(origins) == 0
	for _, o := range origins {
		if o == "*" {
			wildcard = true
		}
	}
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: !wildcard,
		MaxAge:           300,
	})
}

// Start serves until SIGINT or SIGTERM, then shuts down gracefully:
//  1. stop accepting new connections
//  2. wait up to 30s for in-flight requests
//  3. close the store (flushes the SQLite WAL, releases the pool)
func (s *Server) Start() error {
	defer s.store.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.App.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info().
			Int("port", s.config.App.Port).
			Str("url", fmt.Sprintf("http://localhost:%d", s.config.App.Port)).
			Str("dbDriver", s.config.Database.Driver).
			Msg("server starting")
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info().Msg("server stopped gracefully")
	}
	return nil
}
