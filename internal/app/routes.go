package app

import (
	"net/http"
	"time"

	"github.com/adminblog/core/internal/middleware"
	"github.com/adminblog/core/internal/modules/auth/auth"
	"github.com/adminblog/core/internal/modules/content/post"
	"github.com/adminblog/core/internal/modules/content/resource"
	"github.com/adminblog/core/internal/modules/render"
	jwtpkg "github.com/adminblog/core/internal/pkg/jwt"
	"github.com/adminblog/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func (a *App) registerRoutes(signer *jwtpkg.Signer, rdb redis.Cmdable) error {
	r := a.router
	cfg := a.cfg

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c)
	})
	r.NoMethod(func(c *gin.Context) {
		response.MethodNotAllowed(c)
	})

	authSvc, err := auth.NewService(signer, auth.Options{
		Password:     cfg.Auth.Password,
		PasswordHash: cfg.Auth.PasswordHash,
	})
	if err != nil {
		return err
	}
	authMW := middleware.Auth(authSvc)

	// Writes run the auth gate first, so an unauthenticated request never
	// touches Redis or the store.
	writeMW := []gin.HandlerFunc{authMW}
	var loginMW []gin.HandlerFunc
	if rdb != nil {
		writeMW = append(writeMW, middleware.Idempotence(rdb))
		loginMW = append(loginMW, middleware.LoginRateLimit(rdb, cfg.RateLimit.LoginPerMinute, a.logger))
	}

	root := &r.RouterGroup
	root.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"data": "pong"}) })
	root.GET("/uptime", func(c *gin.Context) {
		uptime := time.Since(processStart)
		c.JSON(http.StatusOK, gin.H{
			"timestamp": uptime.Milliseconds(),
			"humanize":  humanizeDuration(uptime),
		})
	})

	postSvc := post.NewService(a.store, cfg.Store.PostsDir, a.logger)
	resourceSvc := resource.NewService(a.store, cfg.Store.ResourcesPath, a.logger)

	auth.NewHandler(authSvc, a.logger).RegisterRoutes(root, authMW, loginMW...)
	post.NewHandler(postSvc).RegisterRoutes(root, writeMW...)
	resource.NewHandler(resourceSvc).RegisterRoutes(root, writeMW...)
	render.NewHandler(postSvc, render.Site{
		Title:       cfg.Site.Title,
		Description: cfg.Site.Description,
	}, a.logger).RegisterRoutes(root, authMW)
	return nil
}
