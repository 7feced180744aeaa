package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/finops-intake/backend/internal/models"
	"github.com/finops-intake/backend/internal/service"
)

// @Summary Routing directory
// @Tags directory
// @Produce json
// @Success 200 {object} map[string]any
// @Router /api/directory [get]
func (h *Handler) Directory(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"directory":       h.Catalog.Directory,
		"request_types":   models.RequestTypes(),
		"ticket_statuses": models.TicketStatuses,
	})
}

// @Summary Inbox
// @Description Every email with its review status, suggestion summary and ticket link
// @Tags inbox
// @Produce json
// @Param status query string false "Review status or All"
// @Param request_type query string false "Request type or All"
// @Param has_ticket query string false "Yes, No or All"
// @Param q query string false "Search over id, sender and subject"
// @Success 200 {object} map[string]any
// @Router /api/inbox [get]
func (h *Handler) InboxList(c *gin.Context) {
	var f service.InboxFilter
	if err := c.ShouldBindQuery(&f); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid filter", err.Error())
		return
	}
	rows, err := h.Inbox.List(c.Request.Context(), f)
	if err != nil {
		h.fail(c, err, "Failed to list inbox")
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": rows})
}

// @Summary Email details
// @Tags inbox
// @Produce json
// @Param id path string true "Email ID"
// @Success 200 {object} map[string]any
// @Failure 404 {object} map[string]any
// @Router /api/emails/{id} [get]
func (h *Handler) EmailDetails(c *gin.Context) {
	email, err := h.Catalog.Email(c.Param("id"))
	if err != nil {
		h.fail(c, err, "Email not found")
		return
	}
	resp := gin.H{"email": email}
	id, ok, err := h.Tickets.TicketIDForEmail(c.Request.Context(), email.EmailID)
	if err != nil {
		h.fail(c, err, "Failed to look up ticket")
		return
	}
	if ok {
		resp["ticket_id"] = id
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Email audit trail
// @Tags audit
// @Produce json
// @Param id path string true "Email ID"
// @Success 200 {object} map[string]any
// @Router /api/emails/{id}/audit [get]
func (h *Handler) EmailAudit(c *gin.Context) {
	email, err := h.Catalog.Email(c.Param("id"))
	if err != nil {
		h.fail(c, err, "Email not found")
		return
	}
	events, err := h.Audit.List(c.Request.Context(), email.EmailID)
	if err != nil {
		h.fail(c, err, "Failed to list audit events")
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": events})
}
