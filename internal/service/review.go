package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/finops-intake/backend/internal/audit"
	"github.com/finops-intake/backend/internal/models"
	"github.com/finops-intake/backend/internal/review"
	"github.com/finops-intake/backend/internal/source"
)

type EmailSource interface {
	Email(id string) (models.Email, error)
}

// ReviewService turns session changes into persisted state, tickets and
// audit events.
type ReviewService struct {
	Store       ReviewStore
	Tickets     *TicketService
	Audit       *audit.Trail
	Emails      EmailSource
	Suggestions source.Suggestions
	Directory   models.Directory
	Logger      zerolog.Logger
	Now         func() time.Time
}

// Decision is the outcome of an approval attempt.
type Decision struct {
	Blocked  bool     `json:"blocked"`
	Missing  []string `json:"missing,omitempty"`
	Reason   string   `json:"reason,omitempty"`
	TicketID string   `json:"ticket_id,omitempty"`
	Created  bool     `json:"created"`
}

func (s *ReviewService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Open restores the persisted review for an email, or seeds a new one from the
// agent suggestion and records AGENT_LOADED.
func (s *ReviewService) Open(ctx context.Context, emailID, actor string) (*review.Session, error) {
	if _, err := s.Emails.Email(emailID); err != nil {
		return nil, err
	}
	suggestion, err := s.Suggestions.Suggestion(ctx, emailID)
	if err != nil {
		return nil, err
	}

	persisted, err := s.Store.GetReviewState(ctx, emailID)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("load review state %s: %w", emailID, err)
		}
		persisted = nil
	}

	sess, seeded := review.Load(emailID, suggestion, persisted)
	if seeded {
		if err := s.record(ctx, sess, actor, review.Change{
			Action:  models.ActionAgentLoaded,
			Details: map[string]any{"source": "agent_cache"},
		}); err != nil {
			return nil, err
		}
	}
	return sess, nil
}

func (s *ReviewService) record(ctx context.Context, sess *review.Session, actor string, c review.Change) error {
	_, err := s.Audit.Write(ctx, models.EntityEmail, sess.EmailID, c.Action, actor, c.Details)
	return err
}

// mutate applies fn to sess and records the changes it reports in one
// transaction. If any audit write fails the session is put back as it was,
// so no edit outlives its missing audit event.
func (s *ReviewService) mutate(ctx context.Context, sess *review.Session, actor string, fn func() ([]review.Change, error)) (int, error) {
	body, status := sess.Snapshot(), sess.Status
	changes, err := fn()
	if err != nil || len(changes) == 0 {
		return 0, err
	}
	err = s.Store.WithTx(ctx, func(ctx context.Context) error {
		for _, c := range changes {
			if err := s.record(ctx, sess, actor, c); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		sess.Body, sess.Status = body, status
		s.Logger.Warn().Err(err).Str("email_id", sess.EmailID).Msg("audit failed, edit reverted")
		return 0, err
	}
	return len(changes), nil
}

// Edit applies one field edit. Unchanged values are not audited.
func (s *ReviewService) Edit(ctx context.Context, sess *review.Session, e review.Edit, actor string) (bool, error) {
	n, err := s.mutate(ctx, sess, actor, func() ([]review.Change, error) {
		c, changed, err := sess.Apply(e)
		if err != nil || !changed {
			return nil, err
		}
		return []review.Change{c}, nil
	})
	return n > 0, err
}

func (s *ReviewService) ChangeClassification(ctx context.Context, sess *review.Session, t models.RequestType, actor string) (bool, error) {
	n, err := s.mutate(ctx, sess, actor, func() ([]review.Change, error) {
		c, changed, err := sess.ChangeClassification(t)
		if err != nil || !changed {
			return nil, err
		}
		return []review.Change{c}, nil
	})
	return n > 0, err
}

// ChangeRouting validates changed routing values against the directory before
// applying them. The session is untouched when validation fails.
func (s *ReviewService) ChangeRouting(ctx context.Context, sess *review.Session, next models.Routing, reason, actor string) (int, error) {
	if err := s.validateRouting(sess.Body.Routing, next, reason); err != nil {
		return 0, err
	}
	return s.mutate(ctx, sess, actor, func() ([]review.Change, error) {
		return sess.ChangeRouting(next, reason), nil
	})
}

func (s *ReviewService) validateRouting(cur, next models.Routing, reason string) error {
	dir := s.Directory
	if next.Queue != cur.Queue {
		if _, ok := dir.QueueByName(next.Queue); !ok {
			return fmt.Errorf("%w: unknown queue %q", ErrInvalidRouting, next.Queue)
		}
	}
	if next.Queue != cur.Queue || next.Assignee != cur.Assignee {
		if !contains(dir.AssigneesFor(next.Queue), next.Assignee) {
			return fmt.Errorf("%w: %q does not serve %q", ErrInvalidRouting, next.Assignee, next.Queue)
		}
	}
	if next.Priority != cur.Priority && !dir.HasPriority(next.Priority) {
		return fmt.Errorf("%w: unknown priority %q", ErrInvalidRouting, next.Priority)
	}
	if reason != "" && !dir.HasOverrideReason(reason) {
		return fmt.Errorf("%w: %q", ErrInvalidOverrideReason, reason)
	}
	return nil
}

func (s *ReviewService) Reset(ctx context.Context, sess *review.Session, actor string) error {
	_, err := s.mutate(ctx, sess, actor, func() ([]review.Change, error) {
		return []review.Change{sess.Reset()}, nil
	})
	return err
}

// persist upserts the session with the given status. It leaves sess.Status
// alone; callers set it once their transaction has committed.
func (s *ReviewService) persist(ctx context.Context, sess *review.Session, status models.ReviewStatus) error {
	rec := models.ReviewStateRecord{
		EmailID:      sess.EmailID,
		ReviewStatus: status,
		LastSavedAt:  s.now(),
		Finalized:    sess.Snapshot(),
	}
	if err := s.Store.UpsertReviewState(ctx, rec); err != nil {
		s.Logger.Error().Err(err).Str("email_id", sess.EmailID).Str("status", string(status)).Msg("save review state failed")
		return fmt.Errorf("save review state %s: %w", sess.EmailID, err)
	}
	return nil
}

func (s *ReviewService) Save(ctx context.Context, sess *review.Session, actor string) error {
	err := s.Store.WithTx(ctx, func(ctx context.Context) error {
		if err := s.persist(ctx, sess, models.ReviewPendingApproval); err != nil {
			return err
		}
		return s.record(ctx, sess, actor, review.Change{Action: models.ActionDraftSaved, Details: map[string]any{}})
	})
	if err != nil {
		return err
	}
	sess.Status = models.ReviewPendingApproval
	return nil
}

// RequestMoreInfo parks the email as NEEDS_INFO and opens (or refreshes) a
// ticket waiting on the requester. Nothing is written unless all of it is.
func (s *ReviewService) RequestMoreInfo(ctx context.Context, sess *review.Session, actor string) (string, error) {
	missing := sess.Completeness().RequiredMissing
	var id string
	err := s.Store.WithTx(ctx, func(ctx context.Context) error {
		if err := s.persist(ctx, sess, models.ReviewNeedsInfo); err != nil {
			return err
		}
		if err := s.record(ctx, sess, actor, review.Change{
			Action:  models.ActionRequestMoreInfo,
			Details: map[string]any{"missing_required_fields": missing},
		}); err != nil {
			return err
		}
		var err error
		id, _, err = s.upsertTicket(ctx, sess, models.TicketWaitingOnRequester, actor)
		return err
	})
	if err != nil {
		return "", err
	}
	sess.Status = models.ReviewNeedsInfo
	return id, nil
}

// Approve tickets the email. A blocked decision writes nothing, and neither
// does a failed one.
func (s *ReviewService) Approve(ctx context.Context, sess *review.Session, actor string) (Decision, error) {
	if d := s.Check(sess); d.Blocked {
		return d, nil
	}
	var d Decision
	err := s.Store.WithTx(ctx, func(ctx context.Context) error {
		if err := s.persist(ctx, sess, models.ReviewTicketed); err != nil {
			return err
		}
		if err := s.record(ctx, sess, actor, review.Change{Action: models.ActionApproved, Details: map[string]any{}}); err != nil {
			return err
		}
		var err error
		d.TicketID, d.Created, err = s.upsertTicket(ctx, sess, models.TicketOpen, actor)
		return err
	})
	if err != nil {
		s.Logger.Error().Err(err).Str("email_id", sess.EmailID).Msg("approve rolled back")
		return Decision{}, err
	}
	sess.Status = models.ReviewTicketed
	return d, nil
}

// Check reports whether approval is currently blocked.
func (s *ReviewService) Check(sess *review.Session) Decision {
	missing := sess.Completeness().RequiredMissing
	switch {
	case len(missing) > 0:
		return Decision{Blocked: true, Missing: missing, Reason: "required fields missing"}
	case sess.OverrideReasonMissing():
		return Decision{Blocked: true, Reason: "routing override reason missing"}
	}
	return Decision{}
}

func (s *ReviewService) upsertTicket(ctx context.Context, sess *review.Session, status models.TicketStatus, actor string) (string, bool, error) {
	email, err := s.Emails.Email(sess.EmailID)
	if err != nil {
		return "", false, err
	}
	body := sess.Snapshot()
	id, created, err := s.Tickets.CreateOrUpdate(ctx, TicketRequest{
		EmailID:     sess.EmailID,
		Status:      status,
		RequestType: body.Classification.RequestType,
		Routing:     body.Routing,
		Title:       sess.TicketTitle(),
		FromEmail:   email.From.Email,
		Subject:     email.Subject,
		Payload:     body,
	})
	if err != nil {
		return "", false, err
	}
	if _, err := s.Audit.Write(ctx, models.EntityTicket, id, models.ActionTicketUpserted, actor, map[string]any{"status": string(status)}); err != nil {
		return "", false, err
	}
	return id, created, nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
