package service

import (
	"context"
	"errors"
	"time"

	"github.com/finops-intake/backend/internal/audit"
	"github.com/finops-intake/backend/internal/models"
)

var (
	ErrInvalidRouting        = errors.New("invalid routing")
	ErrInvalidOverrideReason = errors.New("invalid override reason")
	ErrInvalidTransition     = errors.New("invalid ticket status transition")
	ErrNoSession             = errors.New("no review session open")
)

// Transactor runs fn in one transaction. Store calls made with the ctx passed
// to fn join it; an error from fn rolls every one of them back.
type Transactor interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type ReviewStore interface {
	Transactor
	GetReviewState(ctx context.Context, emailID string) (*models.ReviewStateRecord, error)
	UpsertReviewState(ctx context.Context, rec models.ReviewStateRecord) error
	ReviewStatuses(ctx context.Context) (map[string]models.ReviewStatus, error)
}

type TicketStore interface {
	Transactor
	TicketIDForEmail(ctx context.Context, emailID string) (string, bool, error)
	TicketIDsByEmail(ctx context.Context) (map[string]string, error)
	LastTicketID(ctx context.Context) (string, bool, error)
	InsertTicket(ctx context.Context, t models.Ticket) error
	UpdateTicket(ctx context.Context, t models.Ticket) error
	UpdateTicketStatus(ctx context.Context, ticketID string, from, to models.TicketStatus, at time.Time) error
	GetTicket(ctx context.Context, ticketID string) (models.Ticket, error)
	ListTickets(ctx context.Context, f models.TicketFilter) ([]models.Ticket, error)
	CountTicketsByStatus(ctx context.Context) (map[models.TicketStatus]int, error)
}

// Store is satisfied by both db.Store (Postgres) and sqlite.Store.
type Store interface {
	ReviewStore
	TicketStore
	audit.Store
}
