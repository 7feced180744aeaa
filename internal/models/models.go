package models

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("not found")

type Requester struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Classification struct {
	RequestType RequestType `json:"request_type"`
	Confidence  float64     `json:"confidence"`
	Rationale   string      `json:"rationale"`
}

type Extraction struct {
	Requester       Requester      `json:"requester"`
	EntityCode      *string        `json:"entity_code"`
	DueDate         *string        `json:"due_date"`
	Fields          map[string]any `json:"fields"`
	RiskFlags       []string       `json:"risk_flags"`
	FreeTextSummary string         `json:"free_text_summary"`
}

type Routing struct {
	Queue    string `json:"queue"`
	Assignee string `json:"assignee"`
	Priority string `json:"priority"`
}

type DraftResponse struct {
	Subject               string   `json:"subject"`
	Body                  string   `json:"body"`
	QuestionsForRequester []string `json:"questions_for_requester"`
}

// SuggestionRecord is the cached agent output for one email. It is read-only.
type SuggestionRecord struct {
	Classification    Classification `json:"classification"`
	Extraction        Extraction     `json:"extraction"`
	RoutingSuggestion Routing        `json:"routing_suggestion"`
	DraftResponse     DraftResponse  `json:"draft_response"`
}

type Overrides struct {
	RoutingOverridden bool   `json:"routing_overridden"`
	OverrideReason    string `json:"override_reason"`
}

// ReviewBody is the reviewer's finalized copy of a suggestion. It is what gets
// persisted in review_state.finalized_json and tickets.payload_json.
type ReviewBody struct {
	Classification Classification `json:"classification"`
	Extraction     Extraction     `json:"extraction"`
	Routing        Routing        `json:"routing"`
	DraftResponse  DraftResponse  `json:"draft_response"`
	Overrides      Overrides      `json:"overrides"`
}

type ReviewStatus string

const (
	ReviewNew             ReviewStatus = "NEW"
	ReviewPendingApproval ReviewStatus = "PENDING_APPROVAL"
	ReviewNeedsInfo       ReviewStatus = "NEEDS_INFO"
	ReviewTicketed        ReviewStatus = "TICKETED"
)

type ReviewStateRecord struct {
	EmailID      string       `json:"email_id"`
	ReviewStatus ReviewStatus `json:"review_status"`
	LastSavedAt  time.Time    `json:"last_saved_at"`
	Finalized    ReviewBody   `json:"finalized"`
}

type Ticket struct {
	TicketID    string       `json:"ticket_id"`
	EmailID     string       `json:"email_id"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	Status      TicketStatus `json:"status"`
	RequestType RequestType  `json:"request_type"`
	Queue       string       `json:"queue"`
	Assignee    string       `json:"assignee"`
	Priority    string       `json:"priority"`
	Title       string       `json:"title"`
	FromEmail   string       `json:"from_email"`
	Subject     string       `json:"subject"`
	Payload     ReviewBody   `json:"payload"`
}

// TicketFilter narrows ListTickets. Empty values and FilterAll match everything.
type TicketFilter struct {
	Status   string `form:"status"`
	Queue    string `form:"queue"`
	Assignee string `form:"assignee"`
}

const FilterAll = "All"

// Active reports whether a filter value should narrow results.
func Active(v string) bool {
	return v != "" && v != FilterAll
}

type EntityType string

const (
	EntityEmail  EntityType = "email"
	EntityTicket EntityType = "ticket"
)

type AuditEvent struct {
	EventID    string         `json:"event_id"`
	Timestamp  time.Time      `json:"timestamp"`
	EntityType EntityType     `json:"entity_type"`
	EntityID   string         `json:"entity_id"`
	Action     string         `json:"action"`
	ActorName  string         `json:"actor_name"`
	Details    map[string]any `json:"details"`
}

const (
	ActionAgentLoaded           = "AGENT_LOADED"
	ActionFieldEdited           = "FIELD_EDITED"
	ActionClassificationChanged = "CLASSIFICATION_CHANGED"
	ActionRoutingChanged        = "ROUTING_CHANGED"
	ActionDraftEdited           = "DRAFT_EDITED"
	ActionResetToSuggested      = "RESET_TO_SUGGESTED"
	ActionDraftSaved            = "DRAFT_SAVED"
	ActionRequestMoreInfo       = "REQUEST_MORE_INFO"
	ActionApproved              = "APPROVED"
	ActionTicketUpserted        = "TICKET_CREATED_OR_UPDATED"
	ActionTicketStatusChanged   = "TICKET_STATUS_CHANGED"
)

type Attachment struct {
	Filename string `json:"filename"`
	Filetype string `json:"filetype"`
}

type Email struct {
	EmailID     string       `json:"email_id"`
	Subject     string       `json:"subject"`
	ReceivedAt  string       `json:"received_at"`
	From        Requester    `json:"from"`
	To          []string     `json:"to"`
	CC          []string     `json:"cc,omitempty"`
	Body        string       `json:"body"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

type Queue struct {
	QueueID     string `json:"queue_id" yaml:"queue_id" validate:"required"`
	DisplayName string `json:"display_name" yaml:"display_name" validate:"required"`
}

type Assignee struct {
	Name   string   `json:"name" yaml:"name" validate:"required"`
	Queues []string `json:"queues" yaml:"queues"`
}

// Directory drives the valid routing choices and the override reasons.
type Directory struct {
	Queues          []Queue    `json:"queues" yaml:"queues" validate:"required,min=1,dive"`
	Assignees       []Assignee `json:"assignees" yaml:"assignees" validate:"dive"`
	Priorities      []string   `json:"priorities" yaml:"priorities" validate:"required,min=1"`
	OverrideReasons []string   `json:"override_reasons" yaml:"override_reasons" validate:"required,min=1,dive,required"`
}
