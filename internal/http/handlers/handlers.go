package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/finops-intake/backend/internal/audit"
	"github.com/finops-intake/backend/internal/http/middleware"
	"github.com/finops-intake/backend/internal/models"
	"github.com/finops-intake/backend/internal/review"
	"github.com/finops-intake/backend/internal/service"
	"github.com/finops-intake/backend/internal/source"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	Store      Pinger
	Catalog    *source.Catalog
	Inbox      *service.Inbox
	Tickets    *service.TicketService
	Audit      *audit.Trail
	Workspaces *service.Workspaces
	Validator  *validator.Validate
	Logger     zerolog.Logger
}

func (h *Handler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()
	if err := h.Store.Ping(ctx); err != nil {
		writeError(c, http.StatusServiceUnavailable, "DB_UNAVAILABLE", "Database unavailable", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func reviewer(c *gin.Context) string {
	return c.GetString(middleware.ReviewerKey)
}

func (h *Handler) workspace(c *gin.Context) *service.Workspace {
	return h.Workspaces.For(reviewer(c))
}

// bind decodes and validates a JSON body, writing the error response itself.
func (h *Handler) bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return false
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return false
	}
	return true
}

// fail maps service errors onto HTTP responses.
func (h *Handler) fail(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, source.ErrUnknownEmail):
		writeError(c, http.StatusNotFound, "NOT_FOUND", "Email not found", err.Error())
	case errors.Is(err, models.ErrNotFound):
		writeError(c, http.StatusNotFound, "NOT_FOUND", message, err.Error())
	case errors.Is(err, service.ErrNoSession):
		writeError(c, http.StatusConflict, "NO_SESSION", "Open an email for review first", nil)
	case errors.Is(err, service.ErrInvalidTransition):
		writeError(c, http.StatusConflict, "INVALID_TRANSITION", err.Error(), nil)
	case errors.Is(err, review.ErrUnknownRequestType),
		errors.Is(err, review.ErrInvalidEdit),
		errors.Is(err, service.ErrInvalidRouting),
		errors.Is(err, service.ErrInvalidOverrideReason):
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
	case errors.Is(err, context.DeadlineExceeded):
		writeError(c, http.StatusGatewayTimeout, "TIMEOUT", message, err.Error())
	default:
		h.Logger.Error().Err(err).Str("request_id", c.GetString(middleware.RequestIDHeader)).Msg(message)
		writeError(c, http.StatusInternalServerError, "DB_ERROR", message, err.Error())
	}
}

func writeError(c *gin.Context, status int, code string, message string, details any) {
	c.JSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}
