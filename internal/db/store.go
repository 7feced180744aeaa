package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finops-intake/backend/internal/models"
)

type Store struct {
	Pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Store{Pool: pool}, nil
}

func (s *Store) Close() {
	s.Pool.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.Pool.Ping(ctx)
}

// dbtx is satisfied by both *pgxpool.Pool and pgx.Tx.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type txKey struct{}

// conn returns the transaction carried by ctx, or the pool outside one.
func (s *Store) conn(ctx context.Context) dbtx {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return s.Pool
}

// WithTx runs fn inside a transaction. Store calls made with the ctx handed to
// fn use that transaction. Nested calls join the outer one.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return fn(ctx)
	}
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

const schema = `
CREATE TABLE IF NOT EXISTS audit_log (
	event_id     TEXT PRIMARY KEY,
	timestamp    TIMESTAMPTZ NOT NULL,
	entity_type  TEXT NOT NULL,
	entity_id    TEXT NOT NULL,
	action       TEXT NOT NULL,
	actor_name   TEXT NOT NULL,
	details_json JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_audit_log_entity_id ON audit_log(entity_id);
CREATE INDEX IF NOT EXISTS idx_audit_log_timestamp ON audit_log(timestamp);

CREATE TABLE IF NOT EXISTS review_state (
	email_id       TEXT PRIMARY KEY,
	review_status  TEXT NOT NULL,
	last_saved_at  TIMESTAMPTZ NOT NULL,
	finalized_json JSONB NOT NULL
);

CREATE TABLE IF NOT EXISTS tickets (
	ticket_id    TEXT PRIMARY KEY,
	email_id     TEXT NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL,
	updated_at   TIMESTAMPTZ NOT NULL,
	status       TEXT NOT NULL,
	request_type TEXT NOT NULL,
	queue        TEXT NOT NULL,
	assignee     TEXT NOT NULL,
	priority     TEXT NOT NULL,
	title        TEXT NOT NULL,
	from_email   TEXT NOT NULL,
	subject      TEXT NOT NULL,
	payload_json JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_tickets_email_id ON tickets(email_id);
`

// Migrate creates the tables and indexes if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.Pool.Exec(ctx, schema)
	return err
}

func (s *Store) GetReviewState(ctx context.Context, emailID string) (*models.ReviewStateRecord, error) {
	var (
		rec       models.ReviewStateRecord
		status    string
		finalized []byte
	)
	err := s.conn(ctx).QueryRow(ctx, `SELECT email_id, review_status, last_saved_at, finalized_json FROM review_state WHERE email_id = $1`, emailID).
		Scan(&rec.EmailID, &status, &rec.LastSavedAt, &finalized)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	rec.ReviewStatus = models.ReviewStatus(status)
	if err := json.Unmarshal(finalized, &rec.Finalized); err != nil {
		return nil, fmt.Errorf("decode finalized_json for %s: %w", emailID, err)
	}
	return &rec, nil
}

func (s *Store) UpsertReviewState(ctx context.Context, rec models.ReviewStateRecord) error {
	b, err := json.Marshal(rec.Finalized)
	if err != nil {
		return err
	}
	_, err = s.conn(ctx).Exec(ctx, `
		INSERT INTO review_state (email_id, review_status, last_saved_at, finalized_json)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (email_id) DO UPDATE SET
			review_status = EXCLUDED.review_status,
			last_saved_at = EXCLUDED.last_saved_at,
			finalized_json = EXCLUDED.finalized_json
	`, rec.EmailID, string(rec.ReviewStatus), rec.LastSavedAt, b)
	return err
}

func (s *Store) ReviewStatuses(ctx context.Context) (map[string]models.ReviewStatus, error) {
	rows, err := s.conn(ctx).Query(ctx, `SELECT email_id, review_status FROM review_state`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]models.ReviewStatus{}
	for rows.Next() {
		var id, status string
		if err := rows.Scan(&id, &status); err != nil {
			return nil, err
		}
		out[id] = models.ReviewStatus(status)
	}
	return out, rows.Err()
}

func (s *Store) InsertAuditEvent(ctx context.Context, ev models.AuditEvent) error {
	b, err := json.Marshal(ev.Details)
	if err != nil {
		return err
	}
	_, err = s.conn(ctx).Exec(ctx, `
		INSERT INTO audit_log (event_id, timestamp, entity_type, entity_id, action, actor_name, details_json)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, ev.EventID, ev.Timestamp, string(ev.EntityType), ev.EntityID, ev.Action, ev.ActorName, b)
	return err
}

func (s *Store) ListAuditEvents(ctx context.Context, entityID string) ([]models.AuditEvent, error) {
	rows, err := s.conn(ctx).Query(ctx, `
		SELECT event_id, timestamp, entity_type, entity_id, action, actor_name, details_json
		FROM audit_log WHERE entity_id = $1
		ORDER BY timestamp ASC, event_id ASC
	`, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.AuditEvent
	for rows.Next() {
		var (
			ev         models.AuditEvent
			entityType string
			details    []byte
		)
		if err := rows.Scan(&ev.EventID, &ev.Timestamp, &entityType, &ev.EntityID, &ev.Action, &ev.ActorName, &details); err != nil {
			return nil, err
		}
		ev.EntityType = models.EntityType(entityType)
		if err := json.Unmarshal(details, &ev.Details); err != nil {
			return nil, fmt.Errorf("decode details_json for %s: %w", ev.EventID, err)
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (s *Store) TicketIDForEmail(ctx context.Context, emailID string) (string, bool, error) {
	var id string
	err := s.conn(ctx).QueryRow(ctx, `SELECT ticket_id FROM tickets WHERE email_id = $1 LIMIT 1`, emailID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return id, true, nil
}

func (s *Store) TicketIDsByEmail(ctx context.Context) (map[string]string, error) {
	rows, err := s.conn(ctx).Query(ctx, `SELECT email_id, ticket_id FROM tickets`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]string{}
	for rows.Next() {
		var emailID, ticketID string
		if err := rows.Scan(&emailID, &ticketID); err != nil {
			return nil, err
		}
		out[emailID] = ticketID
	}
	return out, rows.Err()
}

// LastTicketID returns the highest ticket ID, comparing numeric suffixes by
// length first so FIN-10000 sorts above FIN-9999.
func (s *Store) LastTicketID(ctx context.Context) (string, bool, error) {
	var id string
	err := s.conn(ctx).QueryRow(ctx, `SELECT ticket_id FROM tickets ORDER BY length(ticket_id) DESC, ticket_id DESC LIMIT 1`).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return id, true, nil
}

func (s *Store) InsertTicket(ctx context.Context, t models.Ticket) error {
	b, err := json.Marshal(t.Payload)
	if err != nil {
		return err
	}
	_, err = s.conn(ctx).Exec(ctx, `
		INSERT INTO tickets (ticket_id, email_id, created_at, updated_at, status, request_type, queue, assignee, priority, title, from_email, subject, payload_json)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	`, t.TicketID, t.EmailID, t.CreatedAt, t.UpdatedAt, string(t.Status), string(t.RequestType), t.Queue, t.Assignee, t.Priority, t.Title, t.FromEmail, t.Subject, b)
	return err
}

// UpdateTicket overwrites every mutable column. ticket_id, email_id and
// created_at are left untouched.
func (s *Store) UpdateTicket(ctx context.Context, t models.Ticket) error {
	b, err := json.Marshal(t.Payload)
	if err != nil {
		return err
	}
	tag, err := s.conn(ctx).Exec(ctx, `
		UPDATE tickets
		SET updated_at = $1, status = $2, request_type = $3, queue = $4, assignee = $5, priority = $6,
			title = $7, from_email = $8, subject = $9, payload_json = $10
		WHERE ticket_id = $11
	`, t.UpdatedAt, string(t.Status), string(t.RequestType), t.Queue, t.Assignee, t.Priority, t.Title, t.FromEmail, t.Subject, b, t.TicketID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// UpdateTicketStatus moves a ticket from one status to another. It matches no
// row, and returns ErrNotFound, when the ticket is no longer in status from.
func (s *Store) UpdateTicketStatus(ctx context.Context, ticketID string, from, to models.TicketStatus, at time.Time) error {
	tag, err := s.conn(ctx).Exec(ctx, `UPDATE tickets SET status = $1, updated_at = $2 WHERE ticket_id = $3 AND status = $4`, string(to), at, ticketID, string(from))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

const ticketColumns = `ticket_id, email_id, created_at, updated_at, status, request_type, queue, assignee, priority, title, from_email, subject, payload_json`

func scanTicket(row pgx.Row) (models.Ticket, error) {
	var (
		t           models.Ticket
		status      string
		requestType string
		payload     []byte
	)
	if err := row.Scan(&t.TicketID, &t.EmailID, &t.CreatedAt, &t.UpdatedAt, &status, &requestType, &t.Queue, &t.Assignee, &t.Priority, &t.Title, &t.FromEmail, &t.Subject, &payload); err != nil {
		return models.Ticket{}, err
	}
	t.Status = models.TicketStatus(status)
	t.RequestType = models.RequestType(requestType)
	if err := json.Unmarshal(payload, &t.Payload); err != nil {
		return models.Ticket{}, fmt.Errorf("decode payload_json for %s: %w", t.TicketID, err)
	}
	return t, nil
}

func (s *Store) GetTicket(ctx context.Context, ticketID string) (models.Ticket, error) {
	t, err := scanTicket(s.conn(ctx).QueryRow(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE ticket_id = $1`, ticketID))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Ticket{}, models.ErrNotFound
	}
	return t, err
}

func (s *Store) ListTickets(ctx context.Context, f models.TicketFilter) ([]models.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets`
	var args []any
	var wheres []string
	if models.Active(f.Status) {
		args = append(args, f.Status)
		wheres = append(wheres, fmt.Sprintf("status = $%d", len(args)))
	}
	if models.Active(f.Queue) {
		args = append(args, f.Queue)
		wheres = append(wheres, fmt.Sprintf("queue = $%d", len(args)))
	}
	if models.Active(f.Assignee) {
		args = append(args, f.Assignee)
		wheres = append(wheres, fmt.Sprintf("assignee = $%d", len(args)))
	}
	if len(wheres) > 0 {
		query += " WHERE " + strings.Join(wheres, " AND ")
	}
	query += " ORDER BY updated_at DESC, ticket_id DESC"

	rows, err := s.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Ticket{}
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) CountTicketsByStatus(ctx context.Context) (map[models.TicketStatus]int, error) {
	rows, err := s.conn(ctx).Query(ctx, `SELECT status, COUNT(*) FROM tickets GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[models.TicketStatus]int{}
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[models.TicketStatus(status)] = n
	}
	return out, rows.Err()
}
