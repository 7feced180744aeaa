package review

import (
	"fmt"
	"strings"

	"github.com/finops-intake/backend/internal/models"
)

// Edit is a change to one editable field of a review body. The set of
// variants is closed: RequesterName, RequesterEmail, EntityCode, DueDate,
// TypeField, DraftSubject and DraftBody.
type Edit interface {
	// Path is the dotted location of the field, recorded in audit details.
	Path() string

	validate() error
	get(b *models.ReviewBody) any
	value() any
	set(b *models.ReviewBody)
	change(before, after any) Change
}

type RequesterName struct{ Value string }

type RequesterEmail struct{ Value string }

// EntityCode sets extraction.entity_code. An empty value clears it.
type EntityCode struct{ Value string }

// DueDate sets extraction.due_date. An empty value clears it.
type DueDate struct{ Value string }

// TypeField sets one request-type specific entry of extraction.fields.
// Empty strings are stored as null.
type TypeField struct {
	Name  string
	Value any
}

type DraftSubject struct{ Value string }

type DraftBody struct{ Value string }

func fieldEdited(path string, before, after any) Change {
	return Change{
		Action:  models.ActionFieldEdited,
		Details: map[string]any{"field_path": path, "before": before, "after": after},
	}
}

func (e RequesterName) Path() string                    { return "extraction.requester.name" }
func (e RequesterName) validate() error                 { return nil }
func (e RequesterName) get(b *models.ReviewBody) any    { return b.Extraction.Requester.Name }
func (e RequesterName) value() any                      { return e.Value }
func (e RequesterName) set(b *models.ReviewBody)        { b.Extraction.Requester.Name = e.Value }
func (e RequesterName) change(before, after any) Change { return fieldEdited(e.Path(), before, after) }

func (e RequesterEmail) Path() string                    { return "extraction.requester.email" }
func (e RequesterEmail) validate() error                 { return nil }
func (e RequesterEmail) get(b *models.ReviewBody) any    { return b.Extraction.Requester.Email }
func (e RequesterEmail) value() any                      { return e.Value }
func (e RequesterEmail) set(b *models.ReviewBody)        { b.Extraction.Requester.Email = e.Value }
func (e RequesterEmail) change(before, after any) Change { return fieldEdited(e.Path(), before, after) }

func (e EntityCode) Path() string                    { return "extraction.entity_code" }
func (e EntityCode) validate() error                 { return nil }
func (e EntityCode) get(b *models.ReviewBody) any    { return optional(b.Extraction.EntityCode) }
func (e EntityCode) value() any                      { return optional(nullable(e.Value)) }
func (e EntityCode) set(b *models.ReviewBody)        { b.Extraction.EntityCode = nullable(e.Value) }
func (e EntityCode) change(before, after any) Change { return fieldEdited(e.Path(), before, after) }

func (e DueDate) Path() string                    { return "extraction.due_date" }
func (e DueDate) validate() error                 { return nil }
func (e DueDate) get(b *models.ReviewBody) any    { return optional(b.Extraction.DueDate) }
func (e DueDate) value() any                      { return optional(nullable(e.Value)) }
func (e DueDate) set(b *models.ReviewBody)        { b.Extraction.DueDate = nullable(e.Value) }
func (e DueDate) change(before, after any) Change { return fieldEdited(e.Path(), before, after) }

func (e TypeField) Path() string { return "extraction.fields." + e.Name }

func (e TypeField) validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return fmt.Errorf("%w: field name is required", ErrInvalidEdit)
	}
	return nil
}

func (e TypeField) get(b *models.ReviewBody) any { return b.Extraction.Fields[e.Name] }

func (e TypeField) value() any {
	if s, ok := e.Value.(string); ok && s == "" {
		return nil
	}
	return e.Value
}

func (e TypeField) set(b *models.ReviewBody) { b.Extraction.Fields[e.Name] = e.value() }

func (e TypeField) change(before, after any) Change { return fieldEdited(e.Path(), before, after) }

func (e DraftSubject) Path() string                 { return "draft_response.subject" }
func (e DraftSubject) validate() error              { return nil }
func (e DraftSubject) get(b *models.ReviewBody) any { return b.DraftResponse.Subject }
func (e DraftSubject) value() any                   { return e.Value }
func (e DraftSubject) set(b *models.ReviewBody)     { b.DraftResponse.Subject = e.Value }
func (e DraftSubject) change(before, after any) Change {
	return Change{
		Action:  models.ActionDraftEdited,
		Details: map[string]any{"field": "subject", "before": before, "after": after},
	}
}

func (e DraftBody) Path() string                 { return "draft_response.body" }
func (e DraftBody) validate() error              { return nil }
func (e DraftBody) get(b *models.ReviewBody) any { return b.DraftResponse.Body }
func (e DraftBody) value() any                   { return e.Value }
func (e DraftBody) set(b *models.ReviewBody)     { b.DraftResponse.Body = e.Value }

// Body text is not copied into the audit log.
func (e DraftBody) change(_, _ any) Change {
	return Change{
		Action:  models.ActionDraftEdited,
		Details: map[string]any{"field": "body", "before": "(previous)", "after": "(updated)"},
	}
}

func nullable(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func optional(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

const typeFieldPrefix = "extraction.fields."

// ParseEdit builds the Edit addressed by a dotted field path, as recorded in
// FIELD_EDITED audit details.
func ParseEdit(path string, value any) (Edit, error) {
	if name, ok := strings.CutPrefix(path, typeFieldPrefix); ok {
		e := TypeField{Name: name, Value: value}
		return e, e.validate()
	}
	s, ok := value.(string)
	if !ok && value != nil {
		return nil, fmt.Errorf("%w: %s expects a string", ErrInvalidEdit, path)
	}
	switch path {
	case RequesterName{}.Path():
		return RequesterName{Value: s}, nil
	case RequesterEmail{}.Path():
		return RequesterEmail{Value: s}, nil
	case EntityCode{}.Path():
		return EntityCode{Value: s}, nil
	case DueDate{}.Path():
		return DueDate{Value: s}, nil
	case DraftSubject{}.Path():
		return DraftSubject{Value: s}, nil
	case DraftBody{}.Path():
		return DraftBody{Value: s}, nil
	}
	return nil, fmt.Errorf("%w: unknown field %q", ErrInvalidEdit, path)
}
