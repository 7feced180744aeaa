package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/finops-intake/backend/internal/audit"
	"github.com/finops-intake/backend/internal/models"
)

type TicketService struct {
	Store  TicketStore
	Audit  *audit.Trail
	Logger zerolog.Logger
	Now    func() time.Time
}

// TicketRequest carries everything needed to create or refresh the ticket for
// one email.
type TicketRequest struct {
	EmailID     string
	Status      models.TicketStatus
	RequestType models.RequestType
	Routing     models.Routing
	Title       string
	FromEmail   string
	Subject     string
	Payload     models.ReviewBody
}

func (s *TicketService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *TicketService) TicketIDForEmail(ctx context.Context, emailID string) (string, bool, error) {
	return s.Store.TicketIDForEmail(ctx, emailID)
}

// AllocateNextID reads the highest existing ID and returns the next one.
// This is read-then-insert; two concurrent writers could pick the same ID and
// the second insert fails on the primary key.
//
// When the highest ID is malformed every ID is scanned and the next one
// follows the highest well-formed suffix instead.
func (s *TicketService) AllocateNextID(ctx context.Context) (string, error) {
	last, _, err := s.Store.LastTicketID(ctx)
	if err != nil {
		return "", fmt.Errorf("read last ticket id: %w", err)
	}
	next, ok := models.NextTicketID(last)
	if ok {
		return next, nil
	}
	byEmail, err := s.Store.TicketIDsByEmail(ctx)
	if err != nil {
		return "", fmt.Errorf("scan ticket ids: %w", err)
	}
	ids := make([]string, 0, len(byEmail))
	for _, id := range byEmail {
		ids = append(ids, id)
	}
	next = models.NextTicketIDAfter(ids)
	s.Logger.Warn().Str("last_ticket_id", last).Str("next_ticket_id", next).Msg("malformed ticket id, skipped")
	return next, nil
}

// CreateOrUpdate keeps at most one ticket per email. An existing ticket keeps
// its id and created_at; everything else is overwritten.
func (s *TicketService) CreateOrUpdate(ctx context.Context, req TicketRequest) (string, bool, error) {
	now := s.now()
	t := models.Ticket{
		EmailID:     req.EmailID,
		UpdatedAt:   now,
		Status:      req.Status,
		RequestType: req.RequestType,
		Queue:       req.Routing.Queue,
		Assignee:    req.Routing.Assignee,
		Priority:    req.Routing.Priority,
		Title:       req.Title,
		FromEmail:   req.FromEmail,
		Subject:     req.Subject,
		Payload:     req.Payload,
	}

	id, exists, err := s.Store.TicketIDForEmail(ctx, req.EmailID)
	if err != nil {
		return "", false, fmt.Errorf("lookup ticket for %s: %w", req.EmailID, err)
	}
	if exists {
		t.TicketID = id
		if err := s.Store.UpdateTicket(ctx, t); err != nil {
			s.Logger.Error().Err(err).Str("ticket_id", id).Msg("update ticket failed")
			return "", false, fmt.Errorf("update ticket %s: %w", id, err)
		}
		return id, false, nil
	}

	id, err = s.AllocateNextID(ctx)
	if err != nil {
		return "", false, err
	}
	t.TicketID = id
	t.CreatedAt = now
	if err := s.Store.InsertTicket(ctx, t); err != nil {
		s.Logger.Error().Err(err).Str("ticket_id", id).Msg("insert ticket failed")
		return "", false, fmt.Errorf("insert ticket %s: %w", id, err)
	}
	s.Logger.Info().Str("ticket_id", id).Str("email_id", req.EmailID).Msg("ticket created")
	return id, true, nil
}

func (s *TicketService) List(ctx context.Context, f models.TicketFilter) ([]models.Ticket, error) {
	return s.Store.ListTickets(ctx, f)
}

func (s *TicketService) Get(ctx context.Context, ticketID string) (models.Ticket, error) {
	return s.Store.GetTicket(ctx, ticketID)
}

// Metrics counts tickets per status. Every status is present, zero or not.
func (s *TicketService) Metrics(ctx context.Context) (map[models.TicketStatus]int, error) {
	counts, err := s.Store.CountTicketsByStatus(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[models.TicketStatus]int, len(models.TicketStatuses))
	for _, st := range models.TicketStatuses {
		out[st] = counts[st]
	}
	return out, nil
}

// UpdateStatus advances a ticket along the status transition table and
// records the change against the ticket.
func (s *TicketService) UpdateStatus(ctx context.Context, ticketID string, next models.TicketStatus, actor string) (models.Ticket, error) {
	if !next.Valid() {
		return models.Ticket{}, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, next)
	}
	t, err := s.Store.GetTicket(ctx, ticketID)
	if err != nil {
		return models.Ticket{}, err
	}
	if !t.Status.CanTransition(next) {
		return models.Ticket{}, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, t.Status, next)
	}

	now := s.now()
	err = s.Store.WithTx(ctx, func(ctx context.Context) error {
		if err := s.Store.UpdateTicketStatus(ctx, ticketID, t.Status, next, now); err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return fmt.Errorf("%w: %s is no longer %s", ErrInvalidTransition, ticketID, t.Status)
			}
			return fmt.Errorf("update status of %s: %w", ticketID, err)
		}
		details := map[string]any{"before": string(t.Status), "after": string(next)}
		_, err := s.Audit.Write(ctx, models.EntityTicket, ticketID, models.ActionTicketStatusChanged, actor, details)
		return err
	})
	if err != nil {
		return models.Ticket{}, err
	}
	t.Status = next
	t.UpdatedAt = now
	return t, nil
}
