package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/anhbaysgalan1/teenpatti/internal/auth"
	"github.com/anhbaysgalan1/teenpatti/internal/config"
	"github.com/anhbaysgalan1/teenpatti/internal/database"
	"github.com/anhbaysgalan1/teenpatti/internal/engine"
	"github.com/anhbaysgalan1/teenpatti/internal/engine/repositories"
	"github.com/anhbaysgalan1/teenpatti/internal/formance"
	"github.com/anhbaysgalan1/teenpatti/internal/handlers"
	custommiddleware "github.com/anhbaysgalan1/teenpatti/internal/middleware"
	"github.com/anhbaysgalan1/teenpatti/internal/services"
	"github.com/anhbaysgalan1/teenpatti/internal/validation"
	"github.com/anhbaysgalan1/teenpatti/internal/wallet"
	"github.com/anhbaysgalan1/teenpatti/server"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type TeenPattiServer struct {
	config         *config.Config
	db             *database.DB
	redis          *redis.Client
	cache          *repositories.RedisCache
	wallets        *wallet.Gateway
	results        *services.ResultService
	engine         *engine.TeenPattiEngine
	tables         *services.TableService
	ledger         *formance.Service
	hub            *server.Hub
	jwtManager     *auth.JWTManager
	authMiddleware *auth.AuthMiddleware
	apiRateLimiter *custommiddleware.RateLimiter
	betRateLimiter *custommiddleware.RateLimiter
}

// NewTeenPattiServer connects to the configured database and wires the server.
func NewTeenPattiServer(cfg *config.Config) (*TeenPattiServer, error) {
	db, err := database.NewConnection(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return New(cfg, db)
}

// New wires the server around an open, migrated database.
func New(cfg *config.Config, db *database.DB) (*TeenPattiServer, error) {
	s := &TeenPattiServer{
		config:         cfg,
		db:             db,
		wallets:        wallet.NewGateway(db.DB),
		results:        services.NewResultService(db),
		jwtManager:     auth.NewJWTManager(cfg.JWTSecret, "teenpatti"),
		apiRateLimiter: custommiddleware.NewAPIRateLimiter(),
		betRateLimiter: custommiddleware.NewBetRateLimiter(),
	}
	s.authMiddleware = auth.NewAuthMiddleware(s.jwtManager)

	if cfg.RedisURL != "" {
		rdb, err := newRedisClient(cfg)
		if err != nil {
			return nil, err
		}
		s.redis = rdb
		s.cache = repositories.NewRedisCache(rdb, cfg.TableCacheTTL)
	}

	// With Redis, updates fan out through the pub/sub channel so every instance's hub sees them.
	notifier := engine.NotifierFunc(func(ctx context.Context, gameID uuid.UUID) {
		s.hub.GameUpdated(ctx, gameID)
	})
	opts := []engine.Option{engine.WithTurnTimeout(cfg.TurnTimeout)}
	if s.cache != nil {
		opts = append(opts, engine.WithNotifier(s.cache))
	} else {
		opts = append(opts, engine.WithNotifier(notifier))
	}
	s.engine = engine.NewTeenPattiEngine(db.DB, s.wallets, s.results, opts...)
	s.hub = server.NewHub(s.engine, server.WithBetLimiter(s.betRateLimiter))

	var cache services.TableCache
	if s.cache != nil {
		cache = s.cache
	}
	s.tables = services.NewTableService(db, s.wallets, s.engine, cache)

	if cfg.FormanceAPIURL != "" {
		s.ledger = formance.NewService(cfg, s.wallets)
	}
	return s, nil
}

func newRedisClient(cfg *config.Config) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	if cfg.RedisPassword != "" {
		opts.Password = cfg.RedisPassword
	}
	return redis.NewClient(opts), nil
}

// Start serves HTTP and the background loops until ctx is cancelled, then shuts down.
func (s *TeenPattiServer) Start(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              ":" + s.config.Port,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.ledger != nil {
		if err := s.ledger.Initialize(ctx); err != nil {
			return err
		}
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return s.hub.Run(ctx) })

	if s.ledger != nil {
		g.Go(func() error { return s.ledger.Run(ctx) })
	}

	if s.cache != nil {
		updates, err := s.cache.SubscribeGameUpdates(ctx)
		if err != nil {
			return fmt.Errorf("failed to subscribe to game updates: %w", err)
		}
		g.Go(func() error {
			for gameID := range updates {
				s.hub.GameUpdated(ctx, gameID)
			}
			return nil
		})
	}

	g.Go(func() error {
		slog.Info("Starting teen patti server", "port", s.config.Port, "environment", s.config.Environment)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		slog.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server forced to shutdown", "error", err)
		}
		return nil
	})

	err := g.Wait()
	s.Close()
	return err
}

// Close releases everything New acquired.
func (s *TeenPattiServer) Close() {
	s.engine.Close()
	s.apiRateLimiter.Close()
	s.betRateLimiter.Close()

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			slog.Error("Failed to close redis client", "error", err)
		}
	}
	if err := s.db.Close(); err != nil {
		slog.Error("Failed to close database connection", "error", err)
	}

	slog.Info("Server shutdown complete")
}

func (s *TeenPattiServer) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(auth.SecurityHeaders)
	r.Use(s.apiRateLimiter.RateLimit)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", s.health)
	r.Get("/ws", s.serveWebSocket)

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware.OptionalAuth)
			r.Mount("/tables", handlers.NewTableHandler(s.tables).Routes())
		})

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware.RequireAuth)
			r.With(s.betRateLimiter.RateLimit).Mount("/games", handlers.NewGameHandler(s.engine, s.results).Routes())
			var reconciler handlers.Reconciler
			if s.ledger != nil {
				reconciler = s.ledger
			}
			r.Mount("/wallet", handlers.NewWalletHandler(s.wallets, reconciler).Routes())
		})
	})

	return r
}

func (s *TeenPattiServer) health(w http.ResponseWriter, r *http.Request) {
	sqlDB, err := s.db.DB.DB()
	if err == nil {
		err = sqlDB.PingContext(r.Context())
	}
	if err == nil && s.cache != nil {
		err = s.cache.Ping(r.Context())
	}
	if err != nil {
		slog.Error("Health check failed", "error", err)
		http.Error(w, "UNAVAILABLE", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// serveWebSocket handles WebSocket upgrade with authentication
func (s *TeenPattiServer) serveWebSocket(w http.ResponseWriter, r *http.Request) {
	// Browsers cannot set headers on the upgrade, so the token may come as a query parameter.
	token := s.jwtManager.ExtractTokenFromBearer(r.Header.Get("Authorization"))
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	claims, err := s.authMiddleware.Authenticate(token)
	if err != nil {
		http.Error(w, "Invalid token", http.StatusUnauthorized)
		return
	}

	gameID, err := validation.ParseUUID("game_id", r.URL.Query().Get("game_id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if _, err := s.engine.GameState(r.Context(), gameID, claims.UserID); err != nil {
		if errors.Is(err, engine.ErrGameNotFound) {
			http.Error(w, "Game not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	server.ServeWs(s.hub, w, r, claims.UserID, gameID)
}
