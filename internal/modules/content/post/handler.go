package post

import (
	"github.com/adminblog/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

// Handler handles post HTTP requests.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts post routes onto the given router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, writeMW ...gin.HandlerFunc) {
	posts := rg.Group("/posts")

	posts.GET("", h.list)
	posts.GET("/:slug", h.get)

	authed := posts.Group("", writeMW...)
	authed.POST("", h.create)
	authed.PUT("", h.update)
	authed.DELETE("", h.delete)
}

// list GET /posts
func (h *Handler) list(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, items)
}

// get GET /posts/:slug
func (h *Handler) get(c *gin.Context) {
	d, err := h.svc.Get(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toResponse(d))
}

// create POST /posts
func (h *Handler) create(c *gin.Context) {
	var dto CreatePostDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "title and content are required")
		return
	}
	slug, err := h.svc.Create(c.Request.Context(), dto)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Done(c, gin.H{"slug": slug})
}

// update PUT /posts
func (h *Handler) update(c *gin.Context) {
	var dto UpdatePostDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "slug, title and content are required")
		return
	}
	if err := h.svc.Update(c.Request.Context(), dto); err != nil {
		response.Error(c, err)
		return
	}
	response.Done(c, nil)
}

// delete DELETE /posts
func (h *Handler) delete(c *gin.Context) {
	var dto DeletePostDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "slug is required")
		return
	}
	if err := h.svc.Delete(c.Request.Context(), dto.Slug); err != nil {
		response.Error(c, err)
		return
	}
	response.Done(c, nil)
}
