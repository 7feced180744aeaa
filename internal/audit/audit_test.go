package audit

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finops-intake/backend/internal/models"
)

type memStore struct {
	events []models.AuditEvent
	err    error
}

func (m *memStore) InsertAuditEvent(_ context.Context, ev models.AuditEvent) error {
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, ev)
	return nil
}

func (m *memStore) ListAuditEvents(_ context.Context, entityID string) ([]models.AuditEvent, error) {
	var out []models.AuditEvent
	for _, ev := range m.events {
		if ev.EntityID == entityID {
			out = append(out, ev)
		}
	}
	return out, nil
}

func TestIDGeneratorUniqueAndSorted(t *testing.T) {
	g := NewIDGenerator()
	frozen := time.Date(2026, 10, 1, 9, 30, 0, 0, time.UTC)
	g.now = func() time.Time { return frozen }

	const n = 10000
	ids := make([]string, 0, n)
	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		id, _ := g.Next()
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %s", id)
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	assert.True(t, sort.StringsAreSorted(ids), "ids must sort in issue order")
	assert.True(t, strings.HasPrefix(ids[0], "AUD-20261001093000000000000-"))
}

func TestIDGeneratorClockGoingBackwards(t *testing.T) {
	g := NewIDGenerator()
	base := time.Date(2026, 10, 1, 9, 30, 0, 500, time.UTC)
	calls := 0
	g.now = func() time.Time {
		calls++
		if calls == 1 {
			return base
		}
		return base.Add(-time.Second)
	}
	id1, ts1 := g.Next()
	id2, ts2 := g.Next()
	assert.True(t, ts2.After(ts1))
	assert.Less(t, id1, id2)
}

func TestWriteAppendsEvent(t *testing.T) {
	store := &memStore{}
	trail := New(store, zerolog.Nop())

	id, err := trail.Write(context.Background(), models.EntityEmail, "E-1", models.ActionAgentLoaded, "Demo Reviewer", map[string]any{"source": "agent_cache"})
	require.NoError(t, err)
	require.Len(t, store.events, 1)

	ev := store.events[0]
	assert.Equal(t, id, ev.EventID)
	assert.Equal(t, models.EntityEmail, ev.EntityType)
	assert.Equal(t, "E-1", ev.EntityID)
	assert.Equal(t, "agent_cache", ev.Details["source"])

	_, err = trail.Write(context.Background(), models.EntityEmail, "E-1", models.ActionDraftSaved, "Demo Reviewer", nil)
	require.NoError(t, err)
	assert.NotNil(t, store.events[1].Details)

	events, err := trail.List(context.Background(), "E-1")
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestWritePropagatesStoreError(t *testing.T) {
	boom := errors.New("disk full")
	trail := New(&memStore{err: boom}, zerolog.Nop())

	_, err := trail.Write(context.Background(), models.EntityTicket, "FIN-1001", models.ActionTicketUpserted, "r", nil)
	assert.ErrorIs(t, err, boom)
}
