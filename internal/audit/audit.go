// Package audit appends compliance events for every state-changing action.
// Events are never updated or deleted.
package audit

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/finops-intake/backend/internal/models"
)

type Store interface {
	InsertAuditEvent(ctx context.Context, ev models.AuditEvent) error
	ListAuditEvents(ctx context.Context, entityID string) ([]models.AuditEvent, error)
}

type Trail struct {
	Store  Store
	IDs    *IDGenerator
	Logger zerolog.Logger
}

func New(store Store, logger zerolog.Logger) *Trail {
	return &Trail{Store: store, IDs: NewIDGenerator(), Logger: logger}
}

// Write appends one event and returns its ID.
func (t *Trail) Write(ctx context.Context, entityType models.EntityType, entityID, action, actor string, details map[string]any) (string, error) {
	if details == nil {
		details = map[string]any{}
	}
	id, ts := t.IDs.Next()
	ev := models.AuditEvent{
		EventID:    id,
		Timestamp:  ts,
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		ActorName:  actor,
		Details:    details,
	}
	if err := t.Store.InsertAuditEvent(ctx, ev); err != nil {
		t.Logger.Error().Err(err).Str("entity_id", entityID).Str("action", action).Msg("audit write failed")
		return "", fmt.Errorf("write audit %s: %w", action, err)
	}
	t.Logger.Debug().Str("event_id", id).Str("entity_id", entityID).Str("action", action).Msg("audit")
	return id, nil
}

// List returns the events recorded for one entity, oldest first.
func (t *Trail) List(ctx context.Context, entityID string) ([]models.AuditEvent, error) {
	return t.Store.ListAuditEvents(ctx, entityID)
}

// IDGenerator issues event IDs of the form AUD-<yyyymmddhhmmss><ns>-<rand>.
// Timestamps are forced to be strictly increasing, so IDs from one generator
// sort in issue order even when the clock does not advance between calls.
type IDGenerator struct {
	mu   sync.Mutex
	last time.Time
	now  func() time.Time
}

func NewIDGenerator() *IDGenerator {
	return &IDGenerator{now: time.Now}
}

func (g *IDGenerator) Next() (string, time.Time) {
	g.mu.Lock()
	ts := g.now().UTC()
	if !ts.After(g.last) {
		ts = g.last.Add(time.Nanosecond)
	}
	g.last = ts
	g.mu.Unlock()

	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return fmt.Sprintf("AUD-%s%09d-%s", ts.Format("20060102150405"), ts.Nanosecond(), suffix), ts
}
