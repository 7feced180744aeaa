package service

import (
	"context"
	"sync"

	"github.com/finops-intake/backend/internal/models"
	"github.com/finops-intake/backend/internal/review"
)

// View is what a reviewer sees for the active session.
type View struct {
	EmailID               string                  `json:"email_id"`
	Status                models.ReviewStatus     `json:"review_status"`
	Body                  models.ReviewBody       `json:"finalized"`
	Suggested             models.SuggestionRecord `json:"suggested"`
	Completeness          review.Completeness     `json:"completeness"`
	OverrideReasonMissing bool                    `json:"override_reason_missing"`
	Blocked               bool                    `json:"blocked"`
	ReadyToApprove        bool                    `json:"ready_to_approve"`
	RiskFlags             []string                `json:"risk_flags"`
	TicketTitle           string                  `json:"ticket_title"`
	TicketID              string                  `json:"ticket_id,omitempty"`
}

// Workspace is one reviewer's editing context. It holds at most one active
// session; opening a different email replaces it and drops unsaved edits.
type Workspace struct {
	Actor string

	svc     *ReviewService
	mu      sync.Mutex
	session *review.Session
}

func NewWorkspace(svc *ReviewService, actor string) *Workspace {
	return &Workspace{svc: svc, Actor: actor}
}

// Open makes emailID the active session. Re-opening the active email keeps
// its in-memory edits.
func (w *Workspace) Open(ctx context.Context, emailID string) (View, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.session == nil || w.session.EmailID != emailID {
		sess, err := w.svc.Open(ctx, emailID, w.Actor)
		if err != nil {
			return View{}, err
		}
		w.session = sess
	}
	return w.view(ctx)
}

func (w *Workspace) Current(ctx context.Context) (View, error) {
	return w.do(ctx, func(*review.Session) error { return nil })
}

func (w *Workspace) Edit(ctx context.Context, edits ...review.Edit) (View, error) {
	return w.do(ctx, func(sess *review.Session) error {
		for _, e := range edits {
			if _, err := w.svc.Edit(ctx, sess, e, w.Actor); err != nil {
				return err
			}
		}
		return nil
	})
}

func (w *Workspace) ChangeClassification(ctx context.Context, t models.RequestType) (View, error) {
	return w.do(ctx, func(sess *review.Session) error {
		_, err := w.svc.ChangeClassification(ctx, sess, t, w.Actor)
		return err
	})
}

func (w *Workspace) ChangeRouting(ctx context.Context, next models.Routing, reason string) (View, error) {
	return w.do(ctx, func(sess *review.Session) error {
		_, err := w.svc.ChangeRouting(ctx, sess, next, reason, w.Actor)
		return err
	})
}

func (w *Workspace) Reset(ctx context.Context) (View, error) {
	return w.do(ctx, func(sess *review.Session) error {
		return w.svc.Reset(ctx, sess, w.Actor)
	})
}

func (w *Workspace) Save(ctx context.Context) (View, error) {
	return w.do(ctx, func(sess *review.Session) error {
		return w.svc.Save(ctx, sess, w.Actor)
	})
}

func (w *Workspace) RequestMoreInfo(ctx context.Context) (View, error) {
	return w.do(ctx, func(sess *review.Session) error {
		_, err := w.svc.RequestMoreInfo(ctx, sess, w.Actor)
		return err
	})
}

func (w *Workspace) Approve(ctx context.Context) (Decision, View, error) {
	var d Decision
	v, err := w.do(ctx, func(sess *review.Session) error {
		var err error
		d, err = w.svc.Approve(ctx, sess, w.Actor)
		return err
	})
	return d, v, err
}

// do runs fn against the active session and returns the resulting view. The
// view is returned even when fn fails so callers can show partial progress.
func (w *Workspace) do(ctx context.Context, fn func(*review.Session) error) (View, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.session == nil {
		return View{}, ErrNoSession
	}
	if err := fn(w.session); err != nil {
		v, _ := w.view(ctx)
		return v, err
	}
	return w.view(ctx)
}

func (w *Workspace) view(ctx context.Context) (View, error) {
	sess := w.session
	body := sess.Snapshot()
	check := w.svc.Check(sess)
	v := View{
		EmailID:               sess.EmailID,
		Status:                sess.Status,
		Body:                  body,
		Suggested:             sess.Suggested(),
		Completeness:          sess.Completeness(),
		OverrideReasonMissing: sess.OverrideReasonMissing(),
		Blocked:               check.Blocked,
		ReadyToApprove:        !check.Blocked,
		RiskFlags:             body.Extraction.RiskFlags,
		TicketTitle:           sess.TicketTitle(),
	}
	if v.RiskFlags == nil {
		v.RiskFlags = []string{}
	}
	id, ok, err := w.svc.Tickets.TicketIDForEmail(ctx, sess.EmailID)
	if err != nil {
		return v, err
	}
	if ok {
		v.TicketID = id
	}
	return v, nil
}

// Workspaces hands out one Workspace per reviewer name.
type Workspaces struct {
	svc *ReviewService
	mu  sync.Mutex
	m   map[string]*Workspace
}

func NewWorkspaces(svc *ReviewService) *Workspaces {
	return &Workspaces{svc: svc, m: map[string]*Workspace{}}
}

func (ws *Workspaces) For(actor string) *Workspace {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	w, ok := ws.m[actor]
	if !ok {
		w = NewWorkspace(ws.svc, actor)
		ws.m[actor] = w
	}
	return w
}
