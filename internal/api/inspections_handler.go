// inspections_handler.go exposes the inspection lifecycle over HTTP: the
// complete/approve/reject transitions, the audit trail, the derived artifact
// listings, and the manual trigger for the recurring generator.
package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/facilityhub/facilityhub/internal/db/models"
	"github.com/facilityhub/facilityhub/internal/inspections"
	"github.com/facilityhub/facilityhub/internal/jobs"
	"github.com/facilityhub/facilityhub/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// InspectionsHandler handles inspection lifecycle endpoints.
type InspectionsHandler struct {
	service   *inspections.Service
	generator *jobs.RecurringInspectionGenerator
}

// NewInspectionsHandler creates a new InspectionsHandler.
func NewInspectionsHandler(service *inspections.Service, generator *jobs.RecurringInspectionGenerator) *InspectionsHandler {
	return &InspectionsHandler{service: service, generator: generator}
}

// completeRequest is the JSON payload for the complete endpoint. All fields
// are optional; nil pointers leave stored values untouched.
type completeRequest struct {
	Findings       *string  `json:"findings"`
	Notes          *string  `json:"notes"`
	Tags           []string `json:"tags"`
	AutoCreateJobs *bool    `json:"auto_create_jobs"`
	PreviewOnly    bool     `json:"preview_only"`
}

// rejectRequest is the JSON payload for the reject endpoint.
type rejectRequest struct {
	Reason     string     `json:"reason" binding:"required"`
	ReassignTo *uuid.UUID `json:"reassign_to"`
}

// signatureRequest is the JSON payload for the signature endpoint.
type signatureRequest struct {
	Signature string `json:"signature" binding:"required"`
}

// @Summary      Get inspection
// @Description  Returns an inspection with its rooms and checklist items.
// @Tags         Inspections
// @Produce      json
// @Param        id  path  string  true  "Inspection UUID"
// @Success      200  {object}  models.Inspection
// @Failure      404  {object}  map[string]string
// @Router       /v1/inspections/{id} [get]
func (h *InspectionsHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	insp, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, insp)
}

// @Summary      Complete inspection
// @Description  Marks an inspection complete. Technicians land in PENDING_APPROVAL; other roles complete and self-approve. Creates follow-up jobs and recommendations in the same transaction. Set preview_only to inspect the outcome without persisting it.
// @Tags         Inspections
// @Accept       json
// @Produce      json
// @Param        id  path  string  true  "Inspection UUID"
// @Success      200  {object}  inspections.CompletionResult
// @Failure      404  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /v1/inspections/{id}/complete [post]
func (h *InspectionsHandler) Complete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	var req completeRequest
	// An empty body is legal for this endpoint: everything defaults.
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	// Job auto-creation defaults to on; callers opt out explicitly.
	autoCreate := true
	if req.AutoCreateJobs != nil {
		autoCreate = *req.AutoCreateJobs
	}

	result, err := h.service.Complete(c.Request.Context(), id, actor, inspections.CompletionRequest{
		Findings:       req.Findings,
		Notes:          req.Notes,
		Tags:           req.Tags,
		AutoCreateJobs: autoCreate,
		PreviewOnly:    req.PreviewOnly,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// @Summary      Approve inspection
// @Description  Approves a PENDING_APPROVAL inspection, moving it to COMPLETED.
// @Tags         Inspections
// @Produce      json
// @Param        id  path  string  true  "Inspection UUID"
// @Success      200  {object}  models.Inspection
// @Failure      404  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /v1/inspections/{id}/approve [post]
func (h *InspectionsHandler) Approve(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	insp, err := h.service.Approve(c.Request.Context(), id, actor)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, insp)
}

// @Summary      Reject inspection
// @Description  Rejects a PENDING_APPROVAL inspection back to IN_PROGRESS with a reason, optionally reassigning it.
// @Tags         Inspections
// @Accept       json
// @Produce      json
// @Param        id  path  string  true  "Inspection UUID"
// @Success      200  {object}  models.Inspection
// @Failure      404  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /v1/inspections/{id}/reject [post]
func (h *InspectionsHandler) Reject(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	var req rejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	insp, err := h.service.Reject(c.Request.Context(), id, actor, req.Reason, req.ReassignTo)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, insp)
}

// @Summary      Add tenant signature
// @Description  Records a tenant signature on a move-in or move-out inspection.
// @Tags         Inspections
// @Accept       json
// @Produce      json
// @Param        id  path  string  true  "Inspection UUID"
// @Success      200  {object}  models.Inspection
// @Failure      404  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /v1/inspections/{id}/signature [post]
func (h *InspectionsHandler) AddSignature(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	var req signatureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	insp, err := h.service.AddSignature(c.Request.Context(), id, actor, req.Signature)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, insp)
}

// @Summary      Inspection audit trail
// @Description  Returns the audit entries of one inspection, newest first.
// @Tags         Inspections
// @Produce      json
// @Param        id      path   string  true   "Inspection UUID"
// @Param        limit   query  int     false  "Page size (default 50, max 200)"
// @Param        offset  query  int     false  "Page offset"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]string
// @Router       /v1/inspections/{id}/audit [get]
func (h *InspectionsHandler) AuditTrail(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	limit := parseIntQuery(c, "limit", 50)
	if limit < 1 || limit > 200 {
		limit = 50
	}
	offset := parseIntQuery(c, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	entries, total, err := h.service.AuditTrail(c.Request.Context(), id, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"entries": entries,
		"total":   total,
		"limit":   limit,
		"offset":  offset,
	})
}

// @Summary      List follow-up jobs
// @Description  Returns the follow-up jobs created from one inspection.
// @Tags         Inspections
// @Produce      json
// @Param        id  path  string  true  "Inspection UUID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]string
// @Router       /v1/inspections/{id}/jobs [get]
func (h *InspectionsHandler) ListJobs(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	list, err := h.service.Jobs(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"jobs": list})
}

// @Summary      List recommendations
// @Description  Returns the recommendations created from one inspection.
// @Tags         Inspections
// @Produce      json
// @Param        id  path  string  true  "Inspection UUID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]string
// @Router       /v1/inspections/{id}/recommendations [get]
func (h *InspectionsHandler) ListRecommendations(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	list, err := h.service.Recommendations(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"recommendations": list})
}

// @Summary      Trigger recurring generation
// @Description  Runs one recurring-inspection generation pass immediately. Safe to call at any time; a pass already in flight yields 409.
// @Tags         Inspections
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      409  {object}  map[string]string
// @Router       /v1/recurring-inspections/generate [post]
func (h *InspectionsHandler) TriggerGeneration(c *gin.Context) {
	created, err := h.generator.RunOnce(c.Request.Context())
	if err != nil {
		if errors.Is(err, jobs.ErrPassInProgress) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		slog.Error("manual generation pass failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "generation pass failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"created": created})
}

// parseID extracts and validates the :id path parameter, responding 400 on a
// malformed UUID.
func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid inspection id"})
		return uuid.Nil, false
	}
	return id, true
}

// actorFromContext resolves the caller identity placed in the context by the
// identity middleware, responding 401 when it is absent or malformed.
func actorFromContext(c *gin.Context) (inspections.Actor, bool) {
	rawID := c.GetString(middleware.UserIDKey)
	if rawID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing " + middleware.UserIDHeader + " header"})
		return inspections.Actor{}, false
	}

	id, err := uuid.Parse(rawID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid " + middleware.UserIDHeader + " header"})
		return inspections.Actor{}, false
	}

	role := strings.ToUpper(c.GetString(middleware.UserRoleKey))
	if role == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing " + middleware.UserRoleHeader + " header"})
		return inspections.Actor{}, false
	}

	return inspections.Actor{ID: id, Role: models.Role(role)}, true
}

// respondError maps service errors to HTTP status codes.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, inspections.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, inspections.ErrInvalidState):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		slog.Error("inspection request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func parseIntQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
