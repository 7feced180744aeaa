package httpapi

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/finops-intake/backend/internal/audit"
	"github.com/finops-intake/backend/internal/config"
	"github.com/finops-intake/backend/internal/http/handlers"
	"github.com/finops-intake/backend/internal/http/middleware"
	"github.com/finops-intake/backend/internal/service"
	"github.com/finops-intake/backend/internal/source"

	_ "github.com/finops-intake/backend/docs"
)

// Deps are the wired services the router exposes.
type Deps struct {
	Store      handlers.Pinger
	Catalog    *source.Catalog
	Inbox      *service.Inbox
	Tickets    *service.TicketService
	Audit      *audit.Trail
	Workspaces *service.Workspaces
}

func Router(cfg config.Config, deps Deps, logger zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Reviewer(cfg.ReviewerName))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Admin-Key", "X-Request-Id", "X-Reviewer"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if cfg.CORSAllowed == "*" {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = []string{cfg.CORSAllowed}
	}
	r.Use(cors.New(corsCfg))

	h := &handlers.Handler{
		Store:      deps.Store,
		Catalog:    deps.Catalog,
		Inbox:      deps.Inbox,
		Tickets:    deps.Tickets,
		Audit:      deps.Audit,
		Workspaces: deps.Workspaces,
		Validator:  validator.New(),
		Logger:     logger,
	}

	r.GET("/healthz", h.Healthz)

	api := r.Group("/api")
	{
		api.GET("/directory", h.Directory)
		api.GET("/inbox", h.InboxList)
		api.GET("/emails/:id", h.EmailDetails)
		api.GET("/emails/:id/audit", h.EmailAudit)
		api.POST("/emails/:id/review", h.OpenReview)

		api.GET("/review", h.CurrentReview)
		api.PATCH("/review/fields", h.EditFields)
		api.PUT("/review/classification", h.ChangeClassification)
		api.PUT("/review/routing", h.ChangeRouting)
		api.POST("/review/reset", h.ResetReview)
		api.POST("/review/save", h.SaveReview)
		api.POST("/review/request-info", h.RequestMoreInfo)
		api.POST("/review/approve", h.Approve)

		api.GET("/tickets", h.TicketsList)
		api.GET("/tickets/metrics", h.TicketMetrics)
		api.GET("/tickets/:id", h.TicketDetails)
	}

	admin := api.Group("")
	admin.Use(middleware.AdminKey(cfg.AdminKey))
	{
		admin.POST("/tickets/:id/status", h.UpdateTicketStatus)
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}
