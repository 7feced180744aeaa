package review

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finops-intake/backend/internal/models"
)

func strPtr(s string) *string { return &s }

func invoiceSuggestion() models.SuggestionRecord {
	return models.SuggestionRecord{
		Classification: models.Classification{
			RequestType: models.APInvoiceProcessing,
			Confidence:  0.91,
			Rationale:   "Invoice attached with PO reference",
		},
		Extraction: models.Extraction{
			Requester:  models.Requester{Name: "Dana Vendor", Email: "dana@acme.example"},
			EntityCode: strPtr("US01"),
			Fields: map[string]any{
				"vendor_name":    "Acme Supplies",
				"invoice_number": "INV-2207",
				"invoice_date":   "2026-09-30",
				"invoice_amount": 1250.5,
				"po_number":      nil,
			},
			RiskFlags:       []string{"NEW_BANK_DETAILS"},
			FreeTextSummary: "Invoice for September services",
		},
		RoutingSuggestion: models.Routing{Queue: "AP Invoices", Assignee: "Alice", Priority: "Medium"},
		DraftResponse: models.DraftResponse{
			Subject:               "Re: Invoice INV-2207",
			Body:                  "Thanks, we are processing your invoice.",
			QuestionsForRequester: []string{"Please provide the PO number."},
		},
	}
}

func TestLoadSeedsFromSuggestion(t *testing.T) {
	sugg := invoiceSuggestion()
	s, seeded := Load("E-1", sugg, nil)

	require.True(t, seeded)
	assert.Equal(t, models.ReviewNew, s.Status)
	assert.Equal(t, models.Overrides{}, s.Body.Overrides)
	assert.Equal(t, sugg.RoutingSuggestion, s.Body.Routing)
	assert.Equal(t, sugg.Classification, s.Body.Classification)
}

func TestLoadRestoresPersistedState(t *testing.T) {
	body := Seed(invoiceSuggestion())
	body.Routing.Queue = "AP Exceptions"
	body.Overrides = models.Overrides{RoutingOverridden: true, OverrideReason: "Workload balancing"}

	s, seeded := Load("E-1", invoiceSuggestion(), &models.ReviewStateRecord{
		EmailID:      "E-1",
		ReviewStatus: models.ReviewNeedsInfo,
		Finalized:    body,
	})

	require.False(t, seeded)
	assert.Equal(t, models.ReviewNeedsInfo, s.Status)
	assert.Equal(t, body, s.Body)
}

func TestEditsDoNotMutateSuggestion(t *testing.T) {
	sugg := invoiceSuggestion()
	s, _ := Load("E-1", sugg, nil)

	_, changed, err := s.Apply(TypeField{Name: "po_number", Value: "PO-7781"})
	require.NoError(t, err)
	require.True(t, changed)
	_, _, err = s.Apply(EntityCode{Value: "DE02"})
	require.NoError(t, err)

	assert.Nil(t, sugg.Extraction.Fields["po_number"])
	assert.Equal(t, "US01", *sugg.Extraction.EntityCode)
	assert.Nil(t, s.Suggested().Extraction.Fields["po_number"])
}

func TestApplyUnchangedValueIsNoop(t *testing.T) {
	s, _ := Load("E-1", invoiceSuggestion(), nil)

	edits := []Edit{
		RequesterName{Value: "Dana Vendor"},
		RequesterEmail{Value: "dana@acme.example"},
		EntityCode{Value: "US01"},
		DueDate{Value: ""},
		TypeField{Name: "vendor_name", Value: "Acme Supplies"},
		TypeField{Name: "invoice_amount", Value: 1250.5},
		TypeField{Name: "po_number", Value: ""},
		DraftSubject{Value: "Re: Invoice INV-2207"},
		DraftBody{Value: "Thanks, we are processing your invoice."},
	}
	for _, e := range edits {
		_, changed, err := s.Apply(e)
		require.NoError(t, err)
		assert.False(t, changed, "edit of %s should be a no-op", e.Path())
	}
}

func TestApplyFieldEditedChange(t *testing.T) {
	s, _ := Load("E-1", invoiceSuggestion(), nil)

	c, changed, err := s.Apply(TypeField{Name: "vendor_name", Value: "Acme Supplies Ltd"})
	require.NoError(t, err)
	require.True(t, changed)
	assert.Equal(t, models.ActionFieldEdited, c.Action)
	assert.Equal(t, map[string]any{
		"field_path": "extraction.fields.vendor_name",
		"before":     "Acme Supplies",
		"after":      "Acme Supplies Ltd",
	}, c.Details)

	c, changed, err = s.Apply(EntityCode{Value: ""})
	require.NoError(t, err)
	require.True(t, changed)
	assert.Nil(t, s.Body.Extraction.EntityCode)
	assert.Equal(t, "US01", c.Details["before"])
	assert.Nil(t, c.Details["after"])
}

func TestApplyDraftBodyHidesText(t *testing.T) {
	s, _ := Load("E-1", invoiceSuggestion(), nil)

	c, changed, err := s.Apply(DraftBody{Value: "New body"})
	require.NoError(t, err)
	require.True(t, changed)
	assert.Equal(t, models.ActionDraftEdited, c.Action)
	assert.Equal(t, "(previous)", c.Details["before"])
	assert.Equal(t, "(updated)", c.Details["after"])
	assert.Equal(t, "New body", s.Body.DraftResponse.Body)
}

func TestApplyRejectsUnnamedTypeField(t *testing.T) {
	s, _ := Load("E-1", invoiceSuggestion(), nil)
	_, _, err := s.Apply(TypeField{Name: " ", Value: "x"})
	assert.ErrorIs(t, err, ErrInvalidEdit)
}

func TestChangeClassification(t *testing.T) {
	s, _ := Load("E-1", invoiceSuggestion(), nil)

	_, changed, err := s.ChangeClassification(models.APInvoiceProcessing)
	require.NoError(t, err)
	assert.False(t, changed)

	c, changed, err := s.ChangeClassification(models.AP3WayMatchException)
	require.NoError(t, err)
	require.True(t, changed)
	assert.Equal(t, models.ActionClassificationChanged, c.Action)
	assert.Equal(t, "AP_INVOICE_PROCESSING", c.Details["before"])
	assert.Equal(t, "AP_3WAY_MATCH_EXCEPTION", c.Details["after"])

	_, _, err = s.ChangeClassification("NOT_A_TYPE")
	assert.ErrorIs(t, err, ErrUnknownRequestType)
}

func TestChangeRouting(t *testing.T) {
	s, _ := Load("E-1", invoiceSuggestion(), nil)

	changes := s.ChangeRouting(models.Routing{Queue: "AP Invoices", Assignee: "Bob", Priority: "High"}, "")
	require.Len(t, changes, 2)
	assert.Equal(t, "assignee", changes[0].Details["field"])
	assert.Equal(t, "priority", changes[1].Details["field"])
	assert.True(t, s.Body.Overrides.RoutingOverridden)
	assert.True(t, s.OverrideReasonMissing())

	changes = s.ChangeRouting(models.Routing{Queue: "AP Exceptions", Assignee: "Bob", Priority: "High"}, "Workload balancing")
	require.Len(t, changes, 1)
	assert.Equal(t, "Workload balancing", s.Body.Overrides.OverrideReason)
	assert.False(t, s.OverrideReasonMissing())

	changes = s.ChangeRouting(s.Body.Routing, "ignored")
	assert.Empty(t, changes)
	assert.Equal(t, models.Overrides{}, s.Body.Overrides)
}

func TestComputeCompleteness(t *testing.T) {
	s, _ := Load("E-1", invoiceSuggestion(), nil)

	c := s.Completeness()
	assert.Equal(t, []string{"po_number"}, c.RequiredMissing)
	assert.Equal(t, 0.5, c.CompletenessRatio)

	_, _, _ = s.Apply(EntityCode{Value: ""})
	_, _, _ = s.Apply(TypeField{Name: "invoice_date", Value: ""})
	_, _, _ = s.Apply(TypeField{Name: "vendor_name", Value: ""})
	c = s.Completeness()
	assert.Equal(t, []string{"entity_code", "invoice_date", "vendor_name", "po_number"}, c.RequiredMissing)
	assert.Equal(t, -1.0, c.CompletenessRatio)

	_, _, _ = s.Apply(EntityCode{Value: "US01"})
	_, _, _ = s.Apply(TypeField{Name: "invoice_date", Value: "2026-09-30"})
	_, _, _ = s.Apply(TypeField{Name: "vendor_name", Value: "Acme"})
	_, _, _ = s.Apply(TypeField{Name: "po_number", Value: "PO-1"})
	c = s.Completeness()
	assert.Empty(t, c.RequiredMissing)
	assert.NotNil(t, c.RequiredMissing)
	assert.Equal(t, 1.0, c.CompletenessRatio)
}

func TestCompletenessTreatsZeroAmountAsMissing(t *testing.T) {
	body := models.ReviewBody{
		Classification: models.Classification{RequestType: models.ARCashApplication},
		Extraction: models.Extraction{
			EntityCode: strPtr("US01"),
			Fields:     map[string]any{"payment_amount": 0.0, "bank_reference": "REF-1"},
		},
	}
	c := ComputeCompleteness(body)
	assert.Equal(t, []string{"payment_amount"}, c.RequiredMissing)
}

func TestCompletenessUnknownTypeRequiresEntityCode(t *testing.T) {
	body := models.ReviewBody{Classification: models.Classification{RequestType: "UNLISTED"}}
	c := ComputeCompleteness(body)
	assert.Equal(t, []string{"entity_code"}, c.RequiredMissing)
	assert.Equal(t, 0.5, c.CompletenessRatio)
}

func TestReset(t *testing.T) {
	s, _ := Load("E-1", invoiceSuggestion(), nil)
	s.Status = models.ReviewPendingApproval
	_, _, _ = s.Apply(TypeField{Name: "po_number", Value: "PO-1"})
	s.ChangeRouting(models.Routing{Queue: "X", Assignee: "Y", Priority: "Z"}, "reason")

	c := s.Reset()
	assert.Equal(t, models.ActionResetToSuggested, c.Action)
	assert.Equal(t, models.ReviewNew, s.Status)
	assert.Equal(t, Seed(invoiceSuggestion()), s.Body)
}

func TestTicketTitle(t *testing.T) {
	s, _ := Load("E-1", invoiceSuggestion(), nil)
	assert.Equal(t, "AP_INVOICE_PROCESSING: Acme Supplies invoice INV-2207", s.TicketTitle())

	_, _, _ = s.Apply(TypeField{Name: "vendor_name", Value: ""})
	_, _, _ = s.Apply(TypeField{Name: "invoice_number", Value: ""})
	assert.Equal(t, "AP_INVOICE_PROCESSING: Vendor invoice", s.TicketTitle())
}

func TestParseEdit(t *testing.T) {
	e, err := ParseEdit("extraction.fields.po_number", "PO-9")
	require.NoError(t, err)
	assert.Equal(t, TypeField{Name: "po_number", Value: "PO-9"}, e)

	e, err = ParseEdit("extraction.entity_code", nil)
	require.NoError(t, err)
	assert.Equal(t, EntityCode{Value: ""}, e)

	e, err = ParseEdit("draft_response.body", "hello")
	require.NoError(t, err)
	assert.Equal(t, "draft_response.body", e.Path())

	_, err = ParseEdit("routing.queue", "AP")
	assert.ErrorIs(t, err, ErrInvalidEdit)

	_, err = ParseEdit("extraction.requester.name", 42)
	assert.ErrorIs(t, err, ErrInvalidEdit)

	_, err = ParseEdit("extraction.fields.", "x")
	assert.ErrorIs(t, err, ErrInvalidEdit)
}
