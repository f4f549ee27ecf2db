// Package server is the composition root: it opens the database, builds
// the cache, blob storage, services and handlers, mounts the routes and
// runs the HTTP server with graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/yatube/yatube/internal/auth"
	"github.com/yatube/yatube/internal/cache"
	"github.com/yatube/yatube/internal/config"
	"github.com/yatube/yatube/internal/feed"
	"github.com/yatube/yatube/internal/handler"
	"github.com/yatube/yatube/internal/middleware"
	sqliteRepo "github.com/yatube/yatube/internal/repository/sqlite"
	"github.com/yatube/yatube/internal/service"
	"github.com/yatube/yatube/internal/storage"
	"github.com/yatube/yatube/web"
)

// Server owns the database and cache connections; Close releases them.
type Server struct {
	router     *chi.Mux
	config     *config.Config
	logger     *slog.Logger
	db         *sqliteRepo.DB
	gate       *cache.Gate
	closeCache func() error
}

// New wires every dependency described by cfg. cfg must have passed
// Validate.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := OpenDB(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	store, closeCache, err := NewCacheStore(ctx, cfg)
	if err != nil {
		db.Close()
		return nil, err
	}

	s := &Server{
		router:     chi.NewRouter(),
		config:     cfg,
		logger:     logger,
		db:         db,
		gate:       cache.NewGate(store, cfg.IndexCacheTTL, logger),
		closeCache: closeCache,
	}

	if err := s.setupRoutes(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// OpenDB opens the SQLite database, creating its directory when needed.
func OpenDB(path string) (*sqliteRepo.DB, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("creating database directory %s: %w", dir, err)
			}
		}
	}

	db, err := sqliteRepo.New(path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return db, nil
}

// NewCacheStore builds the configured snapshot store. The returned func
// closes any connection it opened.
func NewCacheStore(ctx context.Context, cfg *config.Config) (cache.Store, func() error, error) {
	switch cfg.CacheBackend {
	case "redis":
		client, err := cache.NewRedisClient(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, nil, err
		}
		return cache.NewRedisStore(client, "yatube:"), client.Close, nil
	default:
		return cache.NewMemoryStore(), func() error { return nil }, nil
	}
}

// NewBlobStorage builds the configured image storage.
func NewBlobStorage(ctx context.Context, cfg *config.Config) (storage.Storage, error) {
	if cfg.StorageBackend == "s3" {
		s3, err := storage.NewS3Storage(ctx, storage.S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			PublicURL: cfg.S3PublicURL,
		})
		if err != nil {
			return nil, fmt.Errorf("creating s3 storage: %w", err)
		}
		return s3, nil
	}

	if err := os.MkdirAll(cfg.MediaDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating media directory %s: %w", cfg.MediaDir, err)
	}
	return storage.NewLocalStorage(cfg.MediaDir, cfg.MediaURL), nil
}

// setupRoutes mounts:
//
//	GET       /                                   home feed (cached)
//	GET       /group/{slug}/                      group feed
//	GET       /profile/{username}/                profile feed
//	GET       /posts/{id}/                        post detail
//	GET,POST  /create/                            new post          (login)
//	GET,POST  /posts/{id}/edit/                   edit post         (author)
//	POST      /posts/{id}/delete/                 delete post       (author)
//	POST      /posts/{id}/comment/                add comment       (login)
//	POST      /posts/{id}/comment/{cid}/delete/   delete comment    (author)
//	GET       /follow/                            following feed    (login)
//	POST      /profile/{username}/follow/         follow            (login)
//	POST      /profile/{username}/unfollow/       unfollow          (login)
//	          /auth/...                           signup, login, logout, GitHub
//
// State-changing actions accept POST only. The token cookie is SameSite=Lax,
// which browsers still send on cross-site GET navigations.
func (s *Server) setupRoutes(ctx context.Context) error {
	cfg := s.config

	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}

	blobs, err := NewBlobStorage(ctx, cfg)
	if err != nil {
		return err
	}

	flashes := handler.NewFlashStore([]byte(cfg.SessionSecret), cfg.SecureCookies, s.logger)
	render, err := handler.NewRenderer(web.Templates, blobs, flashes, s.logger)
	if err != nil {
		return fmt.Errorf("creating renderer: %w", err)
	}

	var github *auth.GitHubProvider
	if cfg.GitHubEnabled() {
		github = auth.NewGitHubProvider(cfg.GitHubClientID, cfg.GitHubClientSecret, cfg.GitHubCallbackURL)
	}

	images := storage.NewImageProcessor(cfg.ImageMaxWidth, cfg.ImageMaxHeight)
	posts := service.NewPostService(s.db, s.db, blobs, images, s.logger)
	comments := service.NewCommentService(s.db, s.db, s.logger)
	follows := service.NewFollowService(s.db, s.db, s.logger)
	groups := service.NewGroupService(s.db, s.logger)
	accounts := service.NewAuthService(s.db, tokens, auth.NewPasswordService(), s.logger)
	feeds := feed.New(s.db, s.gate, cfg.PageSize, s.logger)

	feedHandler := handler.NewFeedHandler(feeds, render, s.logger)
	postHandler := handler.NewPostHandler(posts, comments, groups, feeds, render, handler.DefaultMaxImageBytes, s.logger)
	followHandler := handler.NewFollowHandler(follows, render, s.logger)
	authHandler := handler.NewAuthHandler(accounts, github, tokens.TTL(), cfg.SecureCookies, render, s.logger)

	r := s.router
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(s.logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(auth.Authenticate(tokens))

	r.NotFound(feedHandler.HandleNotFound)

	if local, ok := blobs.(*storage.LocalStorage); ok {
		mediaURL := cfg.MediaURL
		if !strings.HasSuffix(mediaURL, "/") {
			mediaURL += "/"
		}
		fileServer := http.FileServer(http.Dir(local.Root()))
		r.Handle(mediaURL+"*", http.StripPrefix(mediaURL, fileServer))
	}

	r.Get("/", feedHandler.HandleIndex)
	r.Get("/group/{slug}/", feedHandler.HandleGroup)
	r.Get("/profile/{username}/", feedHandler.HandleProfile)
	r.Get("/posts/{id}/", feedHandler.HandlePostDetail)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireLogin(handler.LoginURL))

		getPost(r, "/create/", postHandler.HandleCreateForm, postHandler.HandleCreate)
		getPost(r, "/posts/{id}/edit/", postHandler.HandleEditForm, postHandler.HandleEdit)
		r.Post("/posts/{id}/delete/", postHandler.HandleDelete)
		r.Post("/posts/{id}/comment/", postHandler.HandleAddComment)
		r.Post("/posts/{id}/comment/{cid}/delete/", postHandler.HandleDeleteComment)

		r.Get("/follow/", feedHandler.HandleFollowIndex)
		r.Post("/profile/{username}/follow/", followHandler.HandleFollow)
		r.Post("/profile/{username}/unfollow/", followHandler.HandleUnfollow)
	})

	r.Route("/auth", func(r chi.Router) {
		getPost(r, "/signup/", authHandler.HandleSignupForm, authHandler.HandleSignup)
		getPost(r, "/login/", authHandler.HandleLoginForm, authHandler.HandleLogin)
		r.Post("/logout/", authHandler.HandleLogout)
		if github != nil {
			r.Get("/github/login", authHandler.HandleGitHubLogin)
			r.Get("/github/callback", authHandler.HandleGitHubCallback)
		}
	})

	return nil
}

func getPost(r chi.Router, pattern string, get, post http.HandlerFunc) {
	r.Get(pattern, get)
	r.Post(pattern, post)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Gate is the home feed cache.
func (s *Server) Gate() *cache.Gate {
	return s.gate
}

// Close releases the database and cache connections.
func (s *Server) Close() error {
	return errors.Join(s.closeCache(), s.db.Close())
}

// Start serves until SIGINT or SIGTERM, then drains in-flight requests for
// up to 30 seconds and closes the server's connections.
func (s *Server) Start() error {
	defer s.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
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
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("database", s.config.DBPath),
			slog.String("cache", s.config.CacheBackend),
			slog.String("storage", s.config.StorageBackend),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
