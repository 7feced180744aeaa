package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/finops-intake/backend/internal/models"
	"github.com/finops-intake/backend/internal/review"
)

type FieldEdit struct {
	Field string `json:"field" validate:"required"`
	Value any    `json:"value"`
}

type EditFieldsRequest struct {
	Edits []FieldEdit `json:"edits" validate:"required,min=1,dive"`
}

type ClassificationRequest struct {
	RequestType string `json:"request_type" validate:"required"`
}

type RoutingRequest struct {
	Queue          string `json:"queue" validate:"required"`
	Assignee       string `json:"assignee" validate:"required"`
	Priority       string `json:"priority" validate:"required"`
	OverrideReason string `json:"override_reason"`
}

// @Summary Open an email for review
// @Description Restores saved review state or seeds a new session from the agent suggestion
// @Tags review
// @Produce json
// @Param id path string true "Email ID"
// @Param X-Reviewer header string false "Reviewer name"
// @Success 200 {object} service.View
// @Failure 404 {object} map[string]any
// @Router /api/emails/{id}/review [post]
func (h *Handler) OpenReview(c *gin.Context) {
	v, err := h.workspace(c).Open(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err, "Suggestion not found")
		return
	}
	c.JSON(http.StatusOK, v)
}

// @Summary Active review session
// @Tags review
// @Produce json
// @Success 200 {object} service.View
// @Failure 409 {object} map[string]any
// @Router /api/review [get]
func (h *Handler) CurrentReview(c *gin.Context) {
	v, err := h.workspace(c).Current(c.Request.Context())
	if err != nil {
		h.fail(c, err, "Failed to load review")
		return
	}
	c.JSON(http.StatusOK, v)
}

// @Summary Edit extracted fields or the draft reply
// @Tags review
// @Accept json
// @Produce json
// @Param request body EditFieldsRequest true "Field edits"
// @Success 200 {object} service.View
// @Router /api/review/fields [patch]
func (h *Handler) EditFields(c *gin.Context) {
	var req EditFieldsRequest
	if !h.bind(c, &req) {
		return
	}
	edits := make([]review.Edit, 0, len(req.Edits))
	for _, fe := range req.Edits {
		e, err := review.ParseEdit(fe.Field, fe.Value)
		if err != nil {
			h.fail(c, err, "Invalid edit")
			return
		}
		edits = append(edits, e)
	}
	v, err := h.workspace(c).Edit(c.Request.Context(), edits...)
	if err != nil {
		h.fail(c, err, "Failed to apply edit")
		return
	}
	c.JSON(http.StatusOK, v)
}

// @Summary Change request type
// @Tags review
// @Accept json
// @Produce json
// @Param request body ClassificationRequest true "Request type"
// @Success 200 {object} service.View
// @Router /api/review/classification [put]
func (h *Handler) ChangeClassification(c *gin.Context) {
	var req ClassificationRequest
	if !h.bind(c, &req) {
		return
	}
	v, err := h.workspace(c).ChangeClassification(c.Request.Context(), models.RequestType(req.RequestType))
	if err != nil {
		h.fail(c, err, "Failed to change classification")
		return
	}
	c.JSON(http.StatusOK, v)
}

// @Summary Change routing
// @Description Any difference from the current routing marks it overridden
// @Tags review
// @Accept json
// @Produce json
// @Param request body RoutingRequest true "Routing"
// @Success 200 {object} service.View
// @Router /api/review/routing [put]
func (h *Handler) ChangeRouting(c *gin.Context) {
	var req RoutingRequest
	if !h.bind(c, &req) {
		return
	}
	next := models.Routing{Queue: req.Queue, Assignee: req.Assignee, Priority: req.Priority}
	v, err := h.workspace(c).ChangeRouting(c.Request.Context(), next, req.OverrideReason)
	if err != nil {
		h.fail(c, err, "Failed to change routing")
		return
	}
	c.JSON(http.StatusOK, v)
}

// @Summary Reset to the agent suggestion
// @Tags review
// @Produce json
// @Success 200 {object} service.View
// @Router /api/review/reset [post]
func (h *Handler) ResetReview(c *gin.Context) {
	v, err := h.workspace(c).Reset(c.Request.Context())
	if err != nil {
		h.fail(c, err, "Failed to reset review")
		return
	}
	c.JSON(http.StatusOK, v)
}

// @Summary Save draft
// @Tags review
// @Produce json
// @Success 200 {object} service.View
// @Router /api/review/save [post]
func (h *Handler) SaveReview(c *gin.Context) {
	v, err := h.workspace(c).Save(c.Request.Context())
	if err != nil {
		h.fail(c, err, "Failed to save review")
		return
	}
	c.JSON(http.StatusOK, v)
}

// @Summary Request more information
// @Description Marks the email NEEDS_INFO and opens a ticket waiting on the requester
// @Tags review
// @Produce json
// @Success 200 {object} service.View
// @Router /api/review/request-info [post]
func (h *Handler) RequestMoreInfo(c *gin.Context) {
	v, err := h.workspace(c).RequestMoreInfo(c.Request.Context())
	if err != nil {
		h.fail(c, err, "Failed to request more info")
		return
	}
	c.JSON(http.StatusOK, v)
}

// @Summary Approve and create ticket
// @Tags review
// @Produce json
// @Success 200 {object} map[string]any
// @Failure 409 {object} map[string]any
// @Router /api/review/approve [post]
func (h *Handler) Approve(c *gin.Context) {
	d, v, err := h.workspace(c).Approve(c.Request.Context())
	if err != nil {
		h.fail(c, err, "Failed to approve")
		return
	}
	if d.Blocked {
		writeError(c, http.StatusConflict, "APPROVAL_BLOCKED", d.Reason, d)
		return
	}
	c.JSON(http.StatusOK, gin.H{"decision": d, "review": v})
}
