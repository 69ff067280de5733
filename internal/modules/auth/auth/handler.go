package auth

import (
	"errors"

	"github.com/adminblog/core/internal/middleware"
	"github.com/adminblog/core/internal/pkg/apperr"
	"github.com/adminblog/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	svc *Service
	log *zap.Logger
}

func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, log: logger}
}

// RegisterRoutes mounts /auth. loginMW runs in front of the login handler
// only (rate limiting); authMW guards the session probe.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc, loginMW ...gin.HandlerFunc) {
	a := rg.Group("/auth")
	a.POST("", append(loginMW, h.login)...)
	a.GET("", authMW, h.session)
}

// login POST /auth
func (h *Handler) login(c *gin.Context) {
	var dto LoginDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	token, expires, err := h.svc.Issue(dto.Password)
	if err != nil {
		if errors.Is(err, apperr.ErrUnauthorized) {
			h.log.Warn("admin login rejected", zap.String("ip", c.ClientIP()))
			response.UnauthorizedMsg(c, "Invalid password")
			return
		}
		response.InternalError(c, err)
		return
	}
	h.log.Info("admin login", zap.String("ip", c.ClientIP()), zap.Time("expires", expires))
	response.OK(c, loginResponse{Token: token, ExpiresAt: expires})
}

// session GET /auth  [auth]
func (h *Handler) session(c *gin.Context) {
	claims := middleware.CurrentClaims(c)
	if claims == nil || claims.ExpiresAt == nil {
		response.Unauthorized(c)
		return
	}
	response.OK(c, sessionResponse{OK: true, Admin: claims.Admin, ExpiresAt: claims.ExpiresAt.Time})
}
