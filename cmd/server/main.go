package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/finops-intake/backend/internal/audit"
	"github.com/finops-intake/backend/internal/config"
	"github.com/finops-intake/backend/internal/db"
	"github.com/finops-intake/backend/internal/db/sqlite"
	httpapi "github.com/finops-intake/backend/internal/http"
	"github.com/finops-intake/backend/internal/service"
	"github.com/finops-intake/backend/internal/source"
)

type store interface {
	service.Store
	Ping(ctx context.Context) error
	Close()
}

func openStore(ctx context.Context, cfg config.Config) (store, error) {
	if cfg.StoreDriver == config.DriverPostgres {
		pg, err := db.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := pg.Migrate(ctx); err != nil {
			pg.Close()
			return nil, err
		}
		return pg, nil
	}
	lite, err := sqlite.Open(cfg.SQLitePath)
	if err != nil {
		return nil, err
	}
	return lite, nil
}

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		panic(err)
	}

	zerolog.TimeFieldFormat = time.RFC3339
	level, _ := zerolog.ParseLevel(cfg.LogLevel)
	logger := log.Level(level).With().Str("service", "finops-intake").Logger()

	ctx := context.Background()
	st, err := openStore(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("failed to open store")
	}
	defer st.Close()

	paths := source.Paths{
		Emails:      cfg.EmailsPath,
		Suggestions: cfg.SuggestionsPath,
		Directory:   cfg.DirectoryPath,
	}
	if cfg.SuggestionsURL != "" {
		paths.Suggestions = ""
	}
	catalog, err := source.Load(paths, validator.New())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load inbox data")
	}

	var suggestions source.Suggestions = catalog
	if cfg.SuggestionsURL != "" {
		suggestions = &source.HTTPSuggestions{
			BaseURL: cfg.SuggestionsURL,
			Client:  &http.Client{Timeout: cfg.RequestTimeout},
		}
		logger.Info().Str("url", cfg.SuggestionsURL).Msg("using remote suggestion cache")
	}

	trail := audit.New(st, logger)
	tickets := &service.TicketService{Store: st, Audit: trail, Logger: logger}
	reviews := &service.ReviewService{
		Store:       st,
		Tickets:     tickets,
		Audit:       trail,
		Emails:      catalog,
		Suggestions: suggestions,
		Directory:   catalog.Directory,
		Logger:      logger,
	}

	if cfg.AdminKey == "" {
		logger.Warn().Msg("ADMIN_KEY not set, ticket status updates are unauthenticated")
	}

	router := httpapi.Router(cfg, httpapi.Deps{
		Store:      st,
		Catalog:    catalog,
		Inbox:      &service.Inbox{Emails: catalog, Suggestions: suggestions, Store: st},
		Tickets:    tickets,
		Audit:      trail,
		Workspaces: service.NewWorkspaces(reviews),
	}, logger)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Str("store", cfg.StoreDriver).Int("emails", len(catalog.Emails())).Msg("server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctxShutdown)
	logger.Info().Msg("server stopped")
}
