// Package render serves the public HTML pages: the post index and single
// posts, rendered from the same post service the JSON API uses.
package render

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"strings"

	"github.com/adminblog/core/internal/modules/content/post"
	"github.com/adminblog/core/internal/modules/processing/markdown"
	"github.com/adminblog/core/internal/pkg/apperr"
	"github.com/adminblog/core/internal/pkg/pagination"
	"github.com/adminblog/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
	ginrender "github.com/gin-gonic/gin/render"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.New("").Funcs(template.FuncMap{
	"inc": func(n int) int { return n + 1 },
	"dec": func(n int) int { return n - 1 },
}).ParseFS(templateFS, "templates/*.html"))

// Posts is the read side of the post service.
type Posts interface {
	List(ctx context.Context) ([]post.Summary, error)
	Get(ctx context.Context, slug string) (*post.Detail, error)
}

// Site holds the blog-wide texts shown on every page.
type Site struct {
	Title       string
	Description string
}

type Handler struct {
	posts Posts
	site  Site
	log   *zap.Logger
}

func NewHandler(posts Posts, site Site, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{posts: posts, site: site, log: logger.Named("render")}
}

// RegisterRoutes mounts the HTML pages. "/:slug" sits next to the API's
// static top-level paths, which take precedence.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	rg.GET("/", h.index)
	rg.GET("/:slug", h.article)
	rg.POST("/render/markdown", authMW, h.previewMarkdown)
}

type page struct {
	SiteTitle       string
	SiteDescription string
	PageTitle       string
	Description     string

	Posts   []post.Summary
	Pager   pagination.Page
	Title   string
	Date    string
	Body    template.HTML
	Heading string
	Message string
}

func (h *Handler) page(title, description string) page {
	p := page{
		SiteTitle:       h.site.Title,
		SiteDescription: h.site.Description,
		PageTitle:       h.site.Title,
		Description:     description,
	}
	if title != "" {
		p.PageTitle = title + " | " + h.site.Title
	}
	return p
}

func (h *Handler) index(c *gin.Context) {
	items, err := h.posts.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	p := h.page("", h.site.Description)
	p.Posts, p.Pager = pagination.Slice(items, pagination.FromContext(c))
	h.html(c, http.StatusOK, "index.html", p)
}

func (h *Handler) article(c *gin.Context) {
	d, err := h.posts.Get(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.fail(c, err)
		return
	}
	p := h.page(d.Title, markdown.Description(d.Content))
	p.Title = d.Title
	p.Date = d.Date
	p.Body = template.HTML(markdown.Render(d.Content))
	h.html(c, http.StatusOK, "post.html", p)
}

type markdownPreviewDTO struct {
	MD    string `json:"md" binding:"required"`
	Title string `json:"title"`
}

// previewMarkdown renders unsaved markdown exactly as the post page would.
func (h *Handler) previewMarkdown(c *gin.Context) {
	var dto markdownPreviewDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "md is required")
		return
	}
	title := strings.TrimSpace(dto.Title)
	p := h.page(title, markdown.Description(dto.MD))
	p.Title = title
	p.Body = template.HTML(markdown.Render(dto.MD))
	h.html(c, http.StatusOK, "preview.html", p)
}

// fail renders the error page. Anything but a missing post means the store
// could not be read, which is reported as such rather than as an empty blog.
func (h *Handler) fail(c *gin.Context, err error) {
	_ = c.Error(err)
	if errors.Is(err, apperr.ErrNotFound) {
		p := h.page("Not found", "")
		p.Heading = "Not found"
		p.Message = "There is no post at this address."
		h.html(c, http.StatusNotFound, "error.html", p)
		return
	}
	h.log.Warn("page unavailable", zap.String("path", c.Request.URL.Path), zap.Error(err))
	p := h.page("Unavailable", "")
	p.Heading = "Temporarily unavailable"
	p.Message = "Posts could not be loaded right now. Please try again shortly."
	h.html(c, http.StatusServiceUnavailable, "error.html", p)
}

func (h *Handler) html(c *gin.Context, status int, name string, data page) {
	c.Render(status, ginrender.HTML{Template: templates, Name: name, Data: data})
}
