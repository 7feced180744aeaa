// Package source provides the read-only inputs of the review service: inbound
// emails, the cached agent suggestions for them, and the routing directory.
package source

import (
	"context"
	"fmt"
	"sort"

	"github.com/finops-intake/backend/internal/models"
)

// ErrUnknownEmail is returned for an email id absent from the inbox.
var ErrUnknownEmail = fmt.Errorf("unknown email: %w", models.ErrNotFound)

// Suggestions resolves the cached agent output for an email.
type Suggestions interface {
	Suggestion(ctx context.Context, emailID string) (models.SuggestionRecord, error)
}

// Catalog holds emails, suggestions and the directory, loaded once at start.
type Catalog struct {
	Directory models.Directory

	emails      []models.Email
	byID        map[string]models.Email
	suggestions map[string]models.SuggestionRecord
}

func NewCatalog(emails []models.Email, suggestions map[string]models.SuggestionRecord, dir models.Directory) *Catalog {
	c := &Catalog{
		Directory:   dir,
		byID:        make(map[string]models.Email, len(emails)),
		suggestions: suggestions,
	}
	if c.suggestions == nil {
		c.suggestions = map[string]models.SuggestionRecord{}
	}
	for _, e := range emails {
		if _, dup := c.byID[e.EmailID]; dup {
			continue
		}
		c.byID[e.EmailID] = e
		c.emails = append(c.emails, e)
	}
	// Newest first; received_at is ISO-8601 so string order is time order.
	sort.SliceStable(c.emails, func(i, j int) bool {
		return c.emails[i].ReceivedAt > c.emails[j].ReceivedAt
	})
	return c
}

func (c *Catalog) Emails() []models.Email {
	return append([]models.Email(nil), c.emails...)
}

func (c *Catalog) Email(id string) (models.Email, error) {
	e, ok := c.byID[id]
	if !ok {
		return models.Email{}, fmt.Errorf("%w %s", ErrUnknownEmail, id)
	}
	return e, nil
}

func (c *Catalog) Suggestion(_ context.Context, emailID string) (models.SuggestionRecord, error) {
	s, ok := c.suggestions[emailID]
	if !ok {
		return models.SuggestionRecord{}, fmt.Errorf("suggestion for %s: %w", emailID, models.ErrNotFound)
	}
	return s, nil
}
