package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finops-intake/backend/internal/models"
)

const emailsJSON = `[
  {"email_id": "E-1", "subject": "Invoice 42", "received_at": "2024-03-01T09:00:00Z",
   "from": {"name": "Bob", "email": "bob@acme.test"}, "body": "please pay"},
  {"email_id": "E-2", "subject": "Vendor change", "received_at": "2024-03-02T09:00:00Z",
   "from": {"name": "Eve", "email": "eve@acme.test"}, "body": "new bank"}
]`

const suggestionsJSON = `{
  "E-1": {
    "classification": {"request_type": "AP_INVOICE_PROCESSING", "confidence": 0.9, "rationale": "invoice"},
    "extraction": {"requester": {"name": "Bob", "email": "bob@acme.test"}, "entity_code": "US01",
                   "fields": {"vendor_name": "Acme", "invoice_number": "42"}},
    "routing_suggestion": {"queue": "AP Invoices", "assignee": "Alice", "priority": "Medium"},
    "draft_response": {"subject": "Re: Invoice 42", "body": "Thanks"}
  }
}`

const directoryYAML = `
queues:
  - queue_id: ap
    display_name: AP Invoices
assignees:
  - name: Alice
    queues: [ap]
priorities: [Low, Medium, High]
override_reasons: [Wrong queue suggested]
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadCatalog(t *testing.T) {
	dir := t.TempDir()
	cat, err := Load(Paths{
		Emails:      writeFile(t, dir, "emails.json", emailsJSON),
		Suggestions: writeFile(t, dir, "suggestions.json", suggestionsJSON),
		Directory:   writeFile(t, dir, "directory.yaml", directoryYAML),
	}, validator.New())
	require.NoError(t, err)

	emails := cat.Emails()
	require.Len(t, emails, 2)
	assert.Equal(t, "E-2", emails[0].EmailID, "newest email first")

	e, err := cat.Email("E-1")
	require.NoError(t, err)
	assert.Equal(t, "bob@acme.test", e.From.Email)

	_, err = cat.Email("E-404")
	assert.True(t, errors.Is(err, ErrUnknownEmail))
	assert.True(t, errors.Is(err, models.ErrNotFound))

	s, err := cat.Suggestion(context.Background(), "E-1")
	require.NoError(t, err)
	assert.Equal(t, models.APInvoiceProcessing, s.Classification.RequestType)
	assert.Equal(t, "Alice", s.RoutingSuggestion.Assignee)

	_, err = cat.Suggestion(context.Background(), "E-2")
	assert.True(t, errors.Is(err, models.ErrNotFound))

	assert.Equal(t, []string{"Low", "Medium", "High"}, cat.Directory.Priorities)
	assert.Equal(t, []string{"Alice"}, cat.Directory.AssigneesFor("AP Invoices"))
}

func TestLoadDirectoryRejectsIncomplete(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "directory.json", `{"queues": [], "priorities": ["Low"], "override_reasons": ["x"]}`)
	_, err := LoadDirectory(path, validator.New())
	assert.Error(t, err)
}

func TestLoadMissingEmailID(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(Paths{
		Emails:    writeFile(t, dir, "emails.json", `[{"subject": "no id"}]`),
		Directory: writeFile(t, dir, "directory.yaml", directoryYAML),
	}, validator.New())
	assert.Error(t, err)
}

func TestHTTPSuggestions(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		switch r.URL.Path {
		case "/suggestions/E-1":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"classification": {"request_type": "AP_VENDOR_MASTERDATA_CHANGE"},
				"routing_suggestion": {"queue": "Vendor Master", "assignee": "Dan", "priority": "High"}}`))
		case "/suggestions/E-500":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	src := &HTTPSuggestions{BaseURL: srv.URL + "/"}
	ctx := context.Background()

	rec, err := src.Suggestion(ctx, "E-1")
	require.NoError(t, err)
	assert.Equal(t, models.APVendorMasterdataChange, rec.Classification.RequestType)
	assert.Equal(t, "Dan", rec.RoutingSuggestion.Assignee)

	_, err = src.Suggestion(ctx, "E-1")
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits), "second lookup served from cache")

	_, err = src.Suggestion(ctx, "E-404")
	assert.True(t, errors.Is(err, models.ErrNotFound))

	_, err = src.Suggestion(ctx, "E-500")
	assert.Error(t, err)
	assert.False(t, errors.Is(err, models.ErrNotFound))
}
