package service

import (
	"context"
	"errors"
	"strings"

	"github.com/finops-intake/backend/internal/models"
	"github.com/finops-intake/backend/internal/source"
)

type InboxRow struct {
	EmailID     string              `json:"email_id"`
	ReceivedAt  string              `json:"received_at"`
	From        string              `json:"from"`
	Subject     string              `json:"subject"`
	Status      models.ReviewStatus `json:"status"`
	RequestType models.RequestType  `json:"request_type"`
	Confidence  float64             `json:"confidence"`
	Queue       string              `json:"queue"`
	Assignee    string              `json:"assignee"`
	HasTicket   bool                `json:"has_ticket"`
	TicketID    string              `json:"ticket_id,omitempty"`
}

// InboxFilter narrows the inbox. Empty values and "All" match everything.
type InboxFilter struct {
	Status      string `form:"status"`
	RequestType string `form:"request_type"`
	HasTicket   string `form:"has_ticket" binding:"omitempty,oneof=All Yes No"`
	Query       string `form:"q"`
}

type InboxEmails interface {
	Emails() []models.Email
}

type InboxStore interface {
	ReviewStatuses(ctx context.Context) (map[string]models.ReviewStatus, error)
	TicketIDsByEmail(ctx context.Context) (map[string]string, error)
}

type Inbox struct {
	Emails      InboxEmails
	Suggestions source.Suggestions
	Store       InboxStore
}

// List returns one row per email, newest first.
func (in *Inbox) List(ctx context.Context, f InboxFilter) ([]InboxRow, error) {
	statuses, err := in.Store.ReviewStatuses(ctx)
	if err != nil {
		return nil, err
	}
	tickets, err := in.Store.TicketIDsByEmail(ctx)
	if err != nil {
		return nil, err
	}

	rows := []InboxRow{}
	query := strings.ToLower(strings.TrimSpace(f.Query))
	for _, e := range in.Emails.Emails() {
		row := InboxRow{
			EmailID:    e.EmailID,
			ReceivedAt: e.ReceivedAt,
			From:       e.From.Email,
			Subject:    e.Subject,
			Status:     models.ReviewNew,
		}
		if st, ok := statuses[e.EmailID]; ok {
			row.Status = st
		}
		if id, ok := tickets[e.EmailID]; ok {
			row.HasTicket = true
			row.TicketID = id
		}
		sug, err := in.Suggestions.Suggestion(ctx, e.EmailID)
		switch {
		case err == nil:
			row.RequestType = sug.Classification.RequestType
			row.Confidence = sug.Classification.Confidence
			row.Queue = sug.RoutingSuggestion.Queue
			row.Assignee = sug.RoutingSuggestion.Assignee
		case !errors.Is(err, models.ErrNotFound):
			return nil, err
		}

		if models.Active(f.Status) && string(row.Status) != f.Status {
			continue
		}
		if models.Active(f.RequestType) && string(row.RequestType) != f.RequestType {
			continue
		}
		if models.Active(f.HasTicket) && row.HasTicket != (f.HasTicket == "Yes") {
			continue
		}
		if query != "" && !matches(query, e.EmailID, e.From.Email, e.From.Name, e.Subject) {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func matches(query string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), query) {
			return true
		}
	}
	return false
}
