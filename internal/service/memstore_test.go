package service

import (
	"context"
	"errors"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/finops-intake/backend/internal/models"
)

var errStoreDown = errors.New("store down")

// memStore is an in-memory Store. Setting fail makes every write error out;
// failTickets only fails ticket inserts.
type memStore struct {
	mu          sync.Mutex
	states      map[string]models.ReviewStateRecord
	tickets     map[string]models.Ticket
	events      []models.AuditEvent
	fail        bool
	failTickets bool
}

func newMemStore() *memStore {
	return &memStore{
		states:  map[string]models.ReviewStateRecord{},
		tickets: map[string]models.Ticket{},
	}
}

// WithTx snapshots the store and restores it when fn fails.
func (m *memStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	states, tickets, n := maps.Clone(m.states), maps.Clone(m.tickets), len(m.events)
	m.mu.Unlock()
	if err := fn(ctx); err != nil {
		m.mu.Lock()
		m.states, m.tickets, m.events = states, tickets, m.events[:n]
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *memStore) GetReviewState(_ context.Context, emailID string) (*models.ReviewStateRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.states[emailID]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &rec, nil
}

func (m *memStore) UpsertReviewState(_ context.Context, rec models.ReviewStateRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errStoreDown
	}
	m.states[rec.EmailID] = rec
	return nil
}

func (m *memStore) ReviewStatuses(context.Context) (map[string]models.ReviewStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]models.ReviewStatus{}
	for id, rec := range m.states {
		out[id] = rec.ReviewStatus
	}
	return out, nil
}

func (m *memStore) InsertAuditEvent(_ context.Context, ev models.AuditEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errStoreDown
	}
	m.events = append(m.events, ev)
	return nil
}

func (m *memStore) ListAuditEvents(_ context.Context, entityID string) ([]models.AuditEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.AuditEvent{}
	for _, ev := range m.events {
		if ev.EntityID == entityID {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (m *memStore) actions(entityID string) []string {
	evs, _ := m.ListAuditEvents(context.Background(), entityID)
	out := []string{}
	for _, ev := range evs {
		out = append(out, ev.Action)
	}
	return out
}

func (m *memStore) TicketIDForEmail(_ context.Context, emailID string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, t := range m.tickets {
		if t.EmailID == emailID {
			return id, true, nil
		}
	}
	return "", false, nil
}

func (m *memStore) TicketIDsByEmail(context.Context) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]string{}
	for id, t := range m.tickets {
		out[t.EmailID] = id
	}
	return out, nil
}

func (m *memStore) LastTicketID(context.Context) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	last := ""
	for id := range m.tickets {
		if len(id) > len(last) || (len(id) == len(last) && id > last) {
			last = id
		}
	}
	return last, last != "", nil
}

func (m *memStore) InsertTicket(_ context.Context, t models.Ticket) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail || m.failTickets {
		return errStoreDown
	}
	if _, dup := m.tickets[t.TicketID]; dup {
		return errors.New("duplicate ticket_id")
	}
	m.tickets[t.TicketID] = t
	return nil
}

func (m *memStore) UpdateTicket(_ context.Context, t models.Ticket) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errStoreDown
	}
	cur, ok := m.tickets[t.TicketID]
	if !ok {
		return models.ErrNotFound
	}
	t.EmailID = cur.EmailID
	t.CreatedAt = cur.CreatedAt
	m.tickets[t.TicketID] = t
	return nil
}

func (m *memStore) UpdateTicketStatus(_ context.Context, ticketID string, from, to models.TicketStatus, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errStoreDown
	}
	t, ok := m.tickets[ticketID]
	if !ok || t.Status != from {
		return models.ErrNotFound
	}
	t.Status = to
	t.UpdatedAt = at
	m.tickets[ticketID] = t
	return nil
}

func (m *memStore) GetTicket(_ context.Context, ticketID string) (models.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tickets[ticketID]
	if !ok {
		return models.Ticket{}, models.ErrNotFound
	}
	return t, nil
}

func (m *memStore) ListTickets(_ context.Context, f models.TicketFilter) ([]models.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Ticket{}
	for _, t := range m.tickets {
		if models.Active(f.Status) && string(t.Status) != f.Status {
			continue
		}
		if models.Active(f.Queue) && t.Queue != f.Queue {
			continue
		}
		if models.Active(f.Assignee) && t.Assignee != f.Assignee {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (m *memStore) CountTicketsByStatus(context.Context) (map[models.TicketStatus]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[models.TicketStatus]int{}
	for _, t := range m.tickets {
		out[t.Status]++
	}
	return out, nil
}
