// Package review holds the reviewer's working copy of one email's suggestion.
//
// A Session is a pure in-memory value: every mutating method returns the
// Changes it made so callers can record them in the audit trail. Persisting
// the session and writing audit events is left to the service layer.
package review

import (
	"errors"
	"fmt"
	"strings"

	"github.com/finops-intake/backend/internal/models"
)

var (
	ErrUnknownRequestType = errors.New("unknown request type")
	ErrInvalidEdit        = errors.New("invalid edit")
)

// Change describes one audited mutation of a session.
type Change struct {
	Action  string         `json:"action"`
	Details map[string]any `json:"details"`
}

type Session struct {
	EmailID string
	Body    models.ReviewBody
	Status  models.ReviewStatus

	suggested models.SuggestionRecord
}

// Load restores a session from persisted state when present, otherwise seeds
// a fresh one from the suggestion. seeded reports which path was taken.
func Load(emailID string, suggestion models.SuggestionRecord, persisted *models.ReviewStateRecord) (s *Session, seeded bool) {
	s = &Session{
		EmailID:   emailID,
		suggested: cloneSuggestion(suggestion),
	}
	if persisted != nil {
		s.Body = cloneBody(persisted.Finalized)
		s.Status = persisted.ReviewStatus
		return s, false
	}
	s.Body = Seed(suggestion)
	s.Status = models.ReviewNew
	return s, true
}

// Seed copies a suggestion into a fresh review body with overrides cleared.
func Seed(suggestion models.SuggestionRecord) models.ReviewBody {
	c := cloneSuggestion(suggestion)
	return models.ReviewBody{
		Classification: c.Classification,
		Extraction:     c.Extraction,
		Routing:        c.RoutingSuggestion,
		DraftResponse:  c.DraftResponse,
		Overrides:      models.Overrides{},
	}
}

// Suggested returns a copy of the suggestion this session was seeded from.
func (s *Session) Suggested() models.SuggestionRecord {
	return cloneSuggestion(s.suggested)
}

// Snapshot returns a deep copy of the body, safe to persist or hand out.
func (s *Session) Snapshot() models.ReviewBody {
	return cloneBody(s.Body)
}

// Apply writes an edit into the body. Nothing changes and no Change is
// returned when the new value equals the current one.
func (s *Session) Apply(e Edit) (Change, bool, error) {
	if err := e.validate(); err != nil {
		return Change{}, false, err
	}
	if s.Body.Extraction.Fields == nil {
		s.Body.Extraction.Fields = map[string]any{}
	}
	before := e.get(&s.Body)
	after := e.value()
	if equalValues(before, after) {
		return Change{}, false, nil
	}
	e.set(&s.Body)
	return e.change(before, after), true, nil
}

func (s *Session) ChangeClassification(t models.RequestType) (Change, bool, error) {
	if !t.Valid() {
		return Change{}, false, fmt.Errorf("%w: %s", ErrUnknownRequestType, t)
	}
	before := s.Body.Classification.RequestType
	if before == t {
		return Change{}, false, nil
	}
	s.Body.Classification.RequestType = t
	return Change{
		Action:  models.ActionClassificationChanged,
		Details: map[string]any{"before": string(before), "after": string(t)},
	}, true, nil
}

// ChangeRouting replaces the routing triple. Each sub-field that differs from
// the current routing yields its own Change. Any difference marks the routing
// as overridden with reason; no difference clears the override.
func (s *Session) ChangeRouting(next models.Routing, reason string) []Change {
	cur := s.Body.Routing
	var changes []Change
	diff := func(field, before, after string) {
		if before != after {
			changes = append(changes, Change{
				Action:  models.ActionRoutingChanged,
				Details: map[string]any{"field": field, "before": before, "after": after},
			})
		}
	}
	diff("queue", cur.Queue, next.Queue)
	diff("assignee", cur.Assignee, next.Assignee)
	diff("priority", cur.Priority, next.Priority)

	if len(changes) > 0 {
		s.Body.Overrides = models.Overrides{RoutingOverridden: true, OverrideReason: strings.TrimSpace(reason)}
	} else {
		s.Body.Overrides = models.Overrides{}
	}
	s.Body.Routing = next
	return changes
}

// Reset discards every edit and re-seeds from the original suggestion.
func (s *Session) Reset() Change {
	s.Body = Seed(s.suggested)
	s.Status = models.ReviewNew
	return Change{Action: models.ActionResetToSuggested, Details: map[string]any{}}
}

// OverrideReasonMissing reports routing that was overridden without a reason.
func (s *Session) OverrideReasonMissing() bool {
	return s.Body.Overrides.RoutingOverridden && s.Body.Overrides.OverrideReason == ""
}

// TicketTitle is the default title for a ticket created from this session.
func (s *Session) TicketTitle() string {
	fields := s.Body.Extraction.Fields
	vendor := fieldString(fields["vendor_name"])
	if vendor == "" {
		vendor = "Vendor"
	}
	title := fmt.Sprintf("%s: %s invoice %s", s.Body.Classification.RequestType, vendor, fieldString(fields["invoice_number"]))
	return strings.TrimSpace(title)
}

func fieldString(v any) string {
	if isEmpty(v) {
		return ""
	}
	return fmt.Sprint(v)
}
