package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/finops-intake/backend/internal/models"
)

type StatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// @Summary List tickets
// @Tags tickets
// @Produce json
// @Param status query string false "Ticket status or All"
// @Param queue query string false "Queue or All"
// @Param assignee query string false "Assignee or All"
// @Success 200 {object} map[string]any
// @Router /api/tickets [get]
func (h *Handler) TicketsList(c *gin.Context) {
	var f models.TicketFilter
	if err := c.ShouldBindQuery(&f); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid filter", err.Error())
		return
	}
	if models.Active(f.Status) && !models.TicketStatus(f.Status).Valid() {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Unknown ticket status", f.Status)
		return
	}
	items, err := h.Tickets.List(c.Request.Context(), f)
	if err != nil {
		h.fail(c, err, "Failed to list tickets")
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// @Summary Ticket counts by status
// @Tags tickets
// @Produce json
// @Success 200 {object} map[string]any
// @Router /api/tickets/metrics [get]
func (h *Handler) TicketMetrics(c *gin.Context) {
	counts, err := h.Tickets.Metrics(c.Request.Context())
	if err != nil {
		h.fail(c, err, "Failed to count tickets")
		return
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	c.JSON(http.StatusOK, gin.H{"counts": counts, "total": total})
}

// @Summary Ticket details
// @Tags tickets
// @Produce json
// @Param id path string true "Ticket ID"
// @Success 200 {object} map[string]any
// @Failure 404 {object} map[string]any
// @Router /api/tickets/{id} [get]
func (h *Handler) TicketDetails(c *gin.Context) {
	ctx := c.Request.Context()
	t, err := h.Tickets.Get(ctx, c.Param("id"))
	if err != nil {
		h.fail(c, err, "Ticket not found")
		return
	}
	events, err := h.Audit.List(ctx, t.TicketID)
	if err != nil {
		h.fail(c, err, "Failed to list audit events")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ticket": t, "audit": events})
}

// @Summary Update ticket status
// @Description Downstream status change; follows the ticket transition table
// @Tags tickets
// @Accept json
// @Produce json
// @Param id path string true "Ticket ID"
// @Param X-Admin-Key header string true "Admin key"
// @Param request body StatusRequest true "New status"
// @Success 200 {object} models.Ticket
// @Failure 409 {object} map[string]any
// @Router /api/tickets/{id}/status [post]
func (h *Handler) UpdateTicketStatus(c *gin.Context) {
	var req StatusRequest
	if !h.bind(c, &req) {
		return
	}
	t, err := h.Tickets.UpdateStatus(c.Request.Context(), c.Param("id"), models.TicketStatus(req.Status), reviewer(c))
	if err != nil {
		h.fail(c, err, "Ticket not found")
		return
	}
	c.JSON(http.StatusOK, t)
}
