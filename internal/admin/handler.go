package admin

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"intake-backend/internal/applications"
	"intake-backend/internal/attachments"
	"intake-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the review console service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches console routes to the (already authenticated)
// router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/applications", h.list)
	rg.GET("/applications/:subjectId", h.get)
	rg.GET("/applications/:subjectId/attachments/:field", h.download)
	rg.GET("/export", h.export)
	rg.GET("/stats", h.stats)
	rg.GET("/activity", h.activity)
	rg.DELETE("/data", h.clear)
}

func (h *Handler) list(c *gin.Context) {
	apps, err := h.Svc.List(c.Request.Context(), c.Query("q"))
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list applications", nil)
		return
	}
	respond.OK(c, gin.H{"applications": apps, "count": len(apps)})
}

func (h *Handler) get(c *gin.Context) {
	detail, err := h.Svc.Get(c.Request.Context(), c.Param("subjectId"))
	if err != nil {
		if errors.Is(err, applications.ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "application not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load application", nil)
		return
	}
	respond.OK(c, detail)
}

func (h *Handler) download(c *gin.Context) {
	att, data, err := h.Svc.OpenAttachment(c.Request.Context(), c.Param("subjectId"), c.Param("field"))
	if err != nil {
		if errors.Is(err, attachments.ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "attachment not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "storage_error", "failed to load attachment", nil)
		return
	}

	disposition := "attachment"
	if strings.HasPrefix(att.MimeType, "image/") {
		disposition = "inline"
	}
	c.Header("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, att.OriginalName))
	c.Data(http.StatusOK, att.MimeType, data)
}

func (h *Handler) export(c *gin.Context) {
	export, err := h.Svc.BuildExport(c.Request.Context())
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to build export", nil)
		return
	}
	respond.OK(c, export)
}

func (h *Handler) stats(c *gin.Context) {
	stats, err := h.Svc.BuildStats(c.Request.Context())
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to build stats", nil)
		return
	}
	respond.OK(c, stats)
}

func (h *Handler) activity(c *gin.Context) {
	respond.OK(c, gin.H{"activity": h.Svc.Activity.Snapshot()})
}

func (h *Handler) clear(c *gin.Context) {
	if err := h.Svc.ClearAll(c.Request.Context()); err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to clear data", nil)
		return
	}
	respond.OK(c, gin.H{"cleared": true})
}
