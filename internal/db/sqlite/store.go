// Package sqlite is a single-file record store for local review sessions and
// tests. It mirrors the Postgres store in package db.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/finops-intake/backend/internal/models"
)

// timeLayout is fixed width so that text columns sort chronologically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type Store struct {
	DB *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS audit_log (
	event_id     TEXT PRIMARY KEY,
	timestamp    TEXT NOT NULL,
	entity_type  TEXT NOT NULL,
	entity_id    TEXT NOT NULL,
	action       TEXT NOT NULL,
	actor_name   TEXT NOT NULL,
	details_json TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_audit_log_entity_id ON audit_log(entity_id);
CREATE INDEX IF NOT EXISTS idx_audit_log_timestamp ON audit_log(timestamp);

CREATE TABLE IF NOT EXISTS review_state (
	email_id       TEXT PRIMARY KEY,
	review_status  TEXT NOT NULL,
	last_saved_at  TEXT NOT NULL,
	finalized_json TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS tickets (
	ticket_id    TEXT PRIMARY KEY,
	email_id     TEXT NOT NULL,
	created_at   TEXT NOT NULL,
	updated_at   TEXT NOT NULL,
	status       TEXT NOT NULL,
	request_type TEXT NOT NULL,
	queue        TEXT NOT NULL,
	assignee     TEXT NOT NULL,
	priority     TEXT NOT NULL,
	title        TEXT NOT NULL,
	from_email   TEXT NOT NULL,
	subject      TEXT NOT NULL,
	payload_json TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_tickets_email_id ON tickets(email_id);
`

// Open opens (creating if needed) the database at path and applies the schema.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, err
	}
	// One connection serializes writers, matching the single-reviewer model.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{DB: db}, nil
}

func (s *Store) Close() {
	_ = s.DB.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type txKey struct{}

func (s *Store) conn(ctx context.Context) dbtx {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return s.DB
}

// WithTx runs fn inside a transaction, as db.Store.WithTx does. With a single
// open connection every call inside fn must use the ctx it is given.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return fn(ctx)
	}
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()
	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}
	return tx.Commit()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(v string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, v)
}

func (s *Store) GetReviewState(ctx context.Context, emailID string) (*models.ReviewStateRecord, error) {
	var (
		rec       models.ReviewStateRecord
		status    string
		savedAt   string
		finalized string
	)
	err := s.conn(ctx).QueryRowContext(ctx, `SELECT email_id, review_status, last_saved_at, finalized_json FROM review_state WHERE email_id = ?`, emailID).
		Scan(&rec.EmailID, &status, &savedAt, &finalized)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	rec.ReviewStatus = models.ReviewStatus(status)
	if rec.LastSavedAt, err = parseTime(savedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(finalized), &rec.Finalized); err != nil {
		return nil, fmt.Errorf("decode finalized_json for %s: %w", emailID, err)
	}
	return &rec, nil
}

func (s *Store) UpsertReviewState(ctx context.Context, rec models.ReviewStateRecord) error {
	b, err := json.Marshal(rec.Finalized)
	if err != nil {
		return err
	}
	_, err = s.conn(ctx).ExecContext(ctx, `
		INSERT INTO review_state (email_id, review_status, last_saved_at, finalized_json)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(email_id) DO UPDATE SET
			review_status = excluded.review_status,
			last_saved_at = excluded.last_saved_at,
			finalized_json = excluded.finalized_json
	`, rec.EmailID, string(rec.ReviewStatus), formatTime(rec.LastSavedAt), string(b))
	return err
}

func (s *Store) ReviewStatuses(ctx context.Context) (map[string]models.ReviewStatus, error) {
	rows, err := s.conn(ctx).QueryContext(ctx, `SELECT email_id, review_status FROM review_state`)
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
	_, err = s.conn(ctx).ExecContext(ctx, `
		INSERT INTO audit_log (event_id, timestamp, entity_type, entity_id, action, actor_name, details_json)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, ev.EventID, formatTime(ev.Timestamp), string(ev.EntityType), ev.EntityID, ev.Action, ev.ActorName, string(b))
	return err
}

func (s *Store) ListAuditEvents(ctx context.Context, entityID string) ([]models.AuditEvent, error) {
	rows, err := s.conn(ctx).QueryContext(ctx, `
		SELECT event_id, timestamp, entity_type, entity_id, action, actor_name, details_json
		FROM audit_log WHERE entity_id = ?
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
			ts         string
			entityType string
			details    string
		)
		if err := rows.Scan(&ev.EventID, &ts, &entityType, &ev.EntityID, &ev.Action, &ev.ActorName, &details); err != nil {
			return nil, err
		}
		if ev.Timestamp, err = parseTime(ts); err != nil {
			return nil, err
		}
		ev.EntityType = models.EntityType(entityType)
		if err := json.Unmarshal([]byte(details), &ev.Details); err != nil {
			return nil, fmt.Errorf("decode details_json for %s: %w", ev.EventID, err)
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (s *Store) TicketIDForEmail(ctx context.Context, emailID string) (string, bool, error) {
	var id string
	err := s.conn(ctx).QueryRowContext(ctx, `SELECT ticket_id FROM tickets WHERE email_id = ? LIMIT 1`, emailID).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return id, true, nil
}

func (s *Store) TicketIDsByEmail(ctx context.Context) (map[string]string, error) {
	rows, err := s.conn(ctx).QueryContext(ctx, `SELECT email_id, ticket_id FROM tickets`)
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

func (s *Store) LastTicketID(ctx context.Context) (string, bool, error) {
	var id string
	err := s.conn(ctx).QueryRowContext(ctx, `SELECT ticket_id FROM tickets ORDER BY length(ticket_id) DESC, ticket_id DESC LIMIT 1`).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
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
	_, err = s.conn(ctx).ExecContext(ctx, `
		INSERT INTO tickets (ticket_id, email_id, created_at, updated_at, status, request_type, queue, assignee, priority, title, from_email, subject, payload_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, t.TicketID, t.EmailID, formatTime(t.CreatedAt), formatTime(t.UpdatedAt), string(t.Status), string(t.RequestType),
		t.Queue, t.Assignee, t.Priority, t.Title, t.FromEmail, t.Subject, string(b))
	return err
}

func (s *Store) UpdateTicket(ctx context.Context, t models.Ticket) error {
	b, err := json.Marshal(t.Payload)
	if err != nil {
		return err
	}
	res, err := s.conn(ctx).ExecContext(ctx, `
		UPDATE tickets
		SET updated_at = ?, status = ?, request_type = ?, queue = ?, assignee = ?, priority = ?,
			title = ?, from_email = ?, subject = ?, payload_json = ?
		WHERE ticket_id = ?
	`, formatTime(t.UpdatedAt), string(t.Status), string(t.RequestType), t.Queue, t.Assignee, t.Priority,
		t.Title, t.FromEmail, t.Subject, string(b), t.TicketID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *Store) UpdateTicketStatus(ctx context.Context, ticketID string, from, to models.TicketStatus, at time.Time) error {
	res, err := s.conn(ctx).ExecContext(ctx, `UPDATE tickets SET status = ?, updated_at = ? WHERE ticket_id = ? AND status = ?`,
		string(to), formatTime(at), ticketID, string(from))
	if err != nil {
		return err
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return models.ErrNotFound
	}
	return nil
}

const ticketColumns = `ticket_id, email_id, created_at, updated_at, status, request_type, queue, assignee, priority, title, from_email, subject, payload_json`

type scanner interface {
	Scan(dest ...any) error
}

func scanTicket(row scanner) (models.Ticket, error) {
	var (
		t                    models.Ticket
		createdAt, updatedAt string
		status, requestType  string
		payload              string
	)
	if err := row.Scan(&t.TicketID, &t.EmailID, &createdAt, &updatedAt, &status, &requestType, &t.Queue, &t.Assignee, &t.Priority, &t.Title, &t.FromEmail, &t.Subject, &payload); err != nil {
		return models.Ticket{}, err
	}
	var err error
	if t.CreatedAt, err = parseTime(createdAt); err != nil {
		return models.Ticket{}, err
	}
	if t.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return models.Ticket{}, err
	}
	t.Status = models.TicketStatus(status)
	t.RequestType = models.RequestType(requestType)
	if err := json.Unmarshal([]byte(payload), &t.Payload); err != nil {
		return models.Ticket{}, fmt.Errorf("decode payload_json for %s: %w", t.TicketID, err)
	}
	return t, nil
}

func (s *Store) GetTicket(ctx context.Context, ticketID string) (models.Ticket, error) {
	t, err := scanTicket(s.conn(ctx).QueryRowContext(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE ticket_id = ?`, ticketID))
	if errors.Is(err, sql.ErrNoRows) {
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
		wheres = append(wheres, "status = ?")
	}
	if models.Active(f.Queue) {
		args = append(args, f.Queue)
		wheres = append(wheres, "queue = ?")
	}
	if models.Active(f.Assignee) {
		args = append(args, f.Assignee)
		wheres = append(wheres, "assignee = ?")
	}
	if len(wheres) > 0 {
		query += " WHERE " + strings.Join(wheres, " AND ")
	}
	query += " ORDER BY updated_at DESC, ticket_id DESC"

	rows, err := s.conn(ctx).QueryContext(ctx, query, args...)
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
	rows, err := s.conn(ctx).QueryContext(ctx, `SELECT status, COUNT(*) FROM tickets GROUP BY status`)
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
