package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/adminblog/core/internal/config"
	"github.com/adminblog/core/internal/middleware"
	"github.com/adminblog/core/internal/pkg/filestore"
	jwtpkg "github.com/adminblog/core/internal/pkg/jwt"
	pkgredis "github.com/adminblog/core/internal/pkg/redis"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// App holds all application dependencies.
type App struct {
	cfg    *config.AppConfig
	router *gin.Engine
	store  filestore.Store
	redis  *pkgredis.Client
	logger *zap.Logger
}

// New initializes the application: config → file store → Redis → routes.
func New(logger *zap.Logger, cfg *config.AppConfig) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if cfg.Auth.EphemeralSecret {
		logger.Warn("auth.jwt_secret is empty, using a per-process secret; tokens end with the process")
	}

	store, err := newFileStore(cfg.Store, logger)
	if err != nil {
		return nil, fmt.Errorf("file store: %w", err)
	}
	logger.Info("file store ready", zap.String("driver", cfg.Store.Driver), zap.Duration("timeout", cfg.Store.Timeout))

	var rc *pkgredis.Client
	if cfg.Redis.URL != "" {
		rc, err = pkgredis.Connect(context.Background(), cfg.Redis.URL)
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
	} else {
		logger.Info("redis not configured, login throttling and idempotence disabled")
	}

	if cfg.IsDev() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	var rdb redis.Cmdable
	if rc != nil {
		rdb = rc.Raw()
	}
	app, err := build(logger, cfg, store, rdb)
	if err != nil {
		if rc != nil {
			_ = rc.Close()
		}
		return nil, err
	}
	app.redis = rc
	return app, nil
}

// build assembles the router around an existing store. rdb may be nil.
func build(logger *zap.Logger, cfg *config.AppConfig, store filestore.Store, rdb redis.Cmdable) (*App, error) {
	signer, err := jwtpkg.NewSigner(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("jwt: %w", err)
	}

	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger))
	router.Use(newCORS(cfg.AllowedOrigins, cfg.IsDev()))

	app := &App{cfg: cfg, router: router, store: store, logger: logger}
	if err := app.registerRoutes(signer, rdb); err != nil {
		return nil, err
	}
	return app, nil
}

// Addr returns the listen address.
func (a *App) Addr() string { return fmt.Sprintf(":%d", a.cfg.Port) }

// Router returns the HTTP handler.
func (a *App) Router() http.Handler { return a.router }

// Shutdown releases connections held by the app.
func (a *App) Shutdown() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("redis close", zap.Error(err))
		}
	}
}
