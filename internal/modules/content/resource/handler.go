package resource

import (
	"encoding/json"

	"github.com/adminblog/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

// Handler handles resource HTTP requests.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts resource routes onto the given router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, writeMW ...gin.HandlerFunc) {
	resources := rg.Group("/resources")

	resources.GET("", h.list)

	authed := resources.Group("", writeMW...)
	authed.POST("", h.create)
	authed.PUT("", h.update)
	authed.DELETE("", h.delete)
}

// list GET /resources
func (h *Handler) list(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, items)
}

// create POST /resources; the body is the resource itself.
func (h *Handler) create(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil || len(body) == 0 || !json.Valid(body) {
		response.BadRequest(c, "request body must be a JSON value")
		return
	}
	if err := h.svc.Append(c.Request.Context(), json.RawMessage(body)); err != nil {
		response.Error(c, err)
		return
	}
	response.Done(c, nil)
}

// update PUT /resources
func (h *Handler) update(c *gin.Context) {
	var dto ReplaceResourceDTO
	if err := c.ShouldBindJSON(&dto); err != nil || dto.Index == nil || len(dto.Resource) == 0 {
		response.BadRequest(c, "index and resource are required")
		return
	}
	if err := h.svc.Replace(c.Request.Context(), *dto.Index, dto.Resource); err != nil {
		response.Error(c, err)
		return
	}
	response.Done(c, nil)
}

// delete DELETE /resources
func (h *Handler) delete(c *gin.Context) {
	var dto RemoveResourceDTO
	if err := c.ShouldBindJSON(&dto); err != nil || dto.Index == nil {
		response.BadRequest(c, "index is required")
		return
	}
	if err := h.svc.Remove(c.Request.Context(), *dto.Index); err != nil {
		response.Error(c, err)
		return
	}
	response.Done(c, nil)
}
