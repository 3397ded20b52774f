package wizard

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"intake-backend/internal/applications"
	"intake-backend/internal/attachments"
	"intake-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the wizard service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches wizard routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/steps", h.steps)
	rg.POST("/sessions", h.start)
	rg.GET("/sessions/:subjectId", h.get)
	rg.POST("/sessions/:subjectId/next", h.next)
	rg.POST("/sessions/:subjectId/previous", h.previous)
	rg.POST("/sessions/:subjectId/submit", h.submit)
	rg.POST("/sessions/:subjectId/attachments/:field", h.upload)
}

func (h *Handler) steps(c *gin.Context) {
	respond.OK(c, gin.H{"steps": Steps})
}

type startRequest struct {
	Category    string                   `json:"category"`
	Environment applications.Environment `json:"environment"`
}

func (h *Handler) start(c *gin.Context) {
	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if req.Environment.UserAgent == "" {
		req.Environment.UserAgent = c.Request.UserAgent()
	}

	state, err := h.Svc.Start(req.Category, req.Environment)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		return
	}
	respond.Created(c, state)
}

func (h *Handler) get(c *gin.Context) {
	state, err := h.Svc.Get(c.Param("subjectId"))
	if err != nil {
		respond.Error(c, http.StatusNotFound, "not_found", "session not found", nil)
		return
	}
	respond.OK(c, state)
}

type transitionRequest struct {
	Fields map[string]any `json:"fields"`
}

func (h *Handler) next(c *gin.Context) {
	var req transitionRequest
	if err := decodeOptionalJSON(c.Request.Body, &req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		return
	}

	state, err := h.Svc.Next(c.Request.Context(), c.Param("subjectId"), req.Fields)
	if err != nil {
		writeTransitionError(c, err, "failed to advance")
		return
	}
	c.Set("wizardStep", state.Step)
	respond.OK(c, state)
}

func (h *Handler) previous(c *gin.Context) {
	state, err := h.Svc.Previous(c.Param("subjectId"))
	if err != nil {
		writeTransitionError(c, err, "failed to go back")
		return
	}
	c.Set("wizardStep", state.Step)
	respond.OK(c, state)
}

func (h *Handler) submit(c *gin.Context) {
	var req transitionRequest
	if err := decodeOptionalJSON(c.Request.Body, &req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		return
	}

	completionID, err := h.Svc.Submit(c.Request.Context(), c.Param("subjectId"), req.Fields)
	if err != nil {
		writeTransitionError(c, err, "failed to submit")
		return
	}
	respond.OK(c, gin.H{"completionId": completionID, "status": string(applications.StatusCompleted)})
}

// uploadFormOverhead leaves room for multipart boundaries and headers on top
// of the file ceiling when capping the request body.
const uploadFormOverhead = 64 << 10

func (h *Handler) upload(c *gin.Context) {
	subjectID := c.Param("subjectId")
	fieldName := c.Param("field")

	maxBytes := h.Svc.Attachments.MaxBytes
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes+uploadFormOverhead)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "multipart field \"file\" is required", nil)
		return
	}
	defer file.Close()

	if header.Size > maxBytes {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file exceeds the size limit", nil)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "failed to read file", nil)
		return
	}

	ref, err := h.Svc.Upload(c.Request.Context(), subjectID, fieldName, header.Filename, header.Header.Get("Content-Type"), data)
	if err != nil {
		switch {
		case errors.Is(err, ErrSessionNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "session not found", nil)
		case errors.Is(err, ErrTransitionBusy):
			respond.Error(c, http.StatusConflict, "transition_in_flight", "another transition is in flight", nil)
		case errors.Is(err, attachments.ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		case errors.Is(err, attachments.ErrStorage):
			respond.Error(c, http.StatusInternalServerError, "storage_error", "failed to store file", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to store file", nil)
		}
		return
	}
	respond.Created(c, ref)
}

func writeTransitionError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, applications.ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "session not found", nil)
	case errors.Is(err, ErrTransitionBusy):
		respond.Error(c, http.StatusConflict, "transition_in_flight", "another transition is in flight", nil)
	case errors.Is(err, ErrValidation):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", fallback, nil)
	}
}

// decodeOptionalJSON decodes the body when present; an empty body is fine.
func decodeOptionalJSON(body io.ReadCloser, out any) error {
	if body == nil {
		return nil
	}
	decoder := json.NewDecoder(body)
	if err := decoder.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return errors.New("invalid json body")
	}
	return nil
}
