package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/aquadic/souq4u/domain"
	"github.com/aquadic/souq4u/internal/backend"
	"github.com/aquadic/souq4u/internal/config"
	httpx "github.com/aquadic/souq4u/internal/http"
	"github.com/aquadic/souq4u/internal/http/handlers"
	"github.com/aquadic/souq4u/internal/http/middleware"
	"github.com/aquadic/souq4u/internal/infrastructure/auth"
	"github.com/aquadic/souq4u/internal/infrastructure/database"
	"github.com/aquadic/souq4u/internal/infrastructure/notifications"
	"github.com/aquadic/souq4u/internal/infrastructure/repositories"
	"github.com/aquadic/souq4u/internal/logutil"
)

// Server holds the development backend dependencies
type Server struct {
	Config *config.Config
	Logger *slog.Logger

	// Infrastructure
	DB          *gorm.DB
	RedisClient *redis.Client

	// Repositories
	UserRepo         domain.UserRepository
	SessionRepo      domain.SessionRepository
	VerificationRepo domain.VerificationRepository

	// Services
	CodeHasher      domain.CodeHasher
	TokenSvc        domain.TokenService
	NotificationSvc domain.NotificationService
	VerificationSvc domain.VerificationService
	AccountSvc      domain.AccountService
	PolicySvc       domain.PolicyService

	Router *gin.Engine
}

// ServerOption configures NewServer
type ServerOption func(*Server)

// WithNotificationService replaces the Twilio sender
func WithNotificationService(n domain.NotificationService) ServerOption {
	return func(s *Server) { s.NotificationSvc = n }
}

// WithCodeHasher replaces the bcrypt hasher
func WithCodeHasher(h domain.CodeHasher) ServerOption {
	return func(s *Server) { s.CodeHasher = h }
}

// NewServer creates and initializes all backend dependencies
func NewServer(cfg *config.Config, logger *slog.Logger, opts ...ServerOption) (*Server, error) {
	if logger == nil {
		logger = logutil.Discard()
	}
	s := &Server{Config: cfg, Logger: logger}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.initDatabase(); err != nil {
		_ = s.Close()
		return nil, err
	}
	if err := s.initRedis(); err != nil {
		_ = s.Close()
		return nil, err
	}
	s.initRepositories()
	if err := s.initServices(); err != nil {
		_ = s.Close()
		return nil, err
	}
	s.initRouter()
	return s, nil
}

func (s *Server) initDatabase() error {
	db, err := database.Open(s.Config.DevDSN, s.Logger)
	if err != nil {
		return err
	}
	if err := database.AutoMigrate(db); err != nil {
		return err
	}
	s.DB = db
	return nil
}

func (s *Server) initRedis() error {
	rdb := database.NewRedis(s.Config.RedisAddr, s.Config.RedisPassword, s.Config.RedisDB)
	s.RedisClient = rdb.Client
	if err := rdb.Ping(context.Background()); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	return nil
}

func (s *Server) initRepositories() {
	s.UserRepo = repositories.NewUserRepository(s.DB)
	s.SessionRepo = repositories.NewSessionRepository(s.RedisClient, s.Config.JWTTTL)
	s.VerificationRepo = repositories.NewVerificationRepository(s.RedisClient, s.Config.ResendWindow)
}

func (s *Server) initServices() error {
	cfg := s.Config
	if s.CodeHasher == nil {
		s.CodeHasher = auth.NewCodeHasher(0)
	}
	if s.NotificationSvc == nil {
		s.NotificationSvc = notifications.NewTwilioService(cfg.TwilioSID, cfg.TwilioToken, cfg.TwilioFrom, s.Logger.With("component", "twilio"))
	}
	s.TokenSvc = auth.NewJWTService(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)

	s.VerificationSvc = backend.NewVerificationService(s.VerificationRepo, s.CodeHasher, s.NotificationSvc, backend.VerificationConfig{
		Length:      cfg.VerificationLength,
		TTL:         cfg.VerificationTTL,
		MaxAttempts: cfg.VerificationAttempts,
		Scheme:      cfg.VerificationScheme,
		CallbackURL: cfg.CallbackURL,
	}, s.Logger.With("component", "verification"))

	s.AccountSvc = backend.NewAccountService(s.UserRepo, s.SessionRepo, s.VerificationSvc, s.TokenSvc, cfg.JWTTTL, s.Logger.With("component", "accounts"))

	policy, err := auth.NewCasbinService(auth.DefaultPolicies)
	if err != nil {
		return err
	}
	s.PolicySvc = policy
	return nil
}

func (s *Server) initRouter() {
	if s.Config.DevGinMode != "" {
		gin.SetMode(s.Config.DevGinMode)
	}
	s.Router = httpx.BuildRouter(
		handlers.NewAuthHandlers(s.AccountSvc, s.Logger.With("component", "handlers")),
		middleware.NewAuthMW(s.TokenSvc, s.SessionRepo),
		middleware.NewCasbinMW(s.PolicySvc),
		s.Logger.With("component", "http"),
	)
}

// Run serves the router until ctx is done, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + s.Config.DevPort,
		Handler:           s.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.Logger.Info("dev server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.Logger.Info("dev server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

// Close closes all connections
func (s *Server) Close() error {
	var errs []error
	if s.RedisClient != nil {
		errs = append(errs, s.RedisClient.Close())
	}
	if s.DB != nil {
		sqlDB, err := s.DB.DB()
		if err != nil {
			errs = append(errs, err)
		} else {
			errs = append(errs, sqlDB.Close())
		}
	}
	return errors.Join(errs...)
}
