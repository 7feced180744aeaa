package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/finops-intake/backend/internal/models"
)

// HTTPSuggestions fetches suggestions from a remote agent cache at
// GET <BaseURL>/suggestions/<email_id>. Each record is fetched once and kept
// for the life of the process; the cache is treated as immutable.
type HTTPSuggestions struct {
	BaseURL string
	Client  *http.Client

	mu    sync.Mutex
	cache map[string]models.SuggestionRecord
}

func (h *HTTPSuggestions) Suggestion(ctx context.Context, emailID string) (models.SuggestionRecord, error) {
	h.mu.Lock()
	if rec, ok := h.cache[emailID]; ok {
		h.mu.Unlock()
		return rec, nil
	}
	h.mu.Unlock()

	client := h.Client
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}

	endpoint := strings.TrimRight(h.BaseURL, "/") + "/suggestions/" + url.PathEscape(emailID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return models.SuggestionRecord{}, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return models.SuggestionRecord{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return models.SuggestionRecord{}, fmt.Errorf("suggestion for %s: %w", emailID, models.ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return models.SuggestionRecord{}, fmt.Errorf("suggestion service returned %d", resp.StatusCode)
	}

	var rec models.SuggestionRecord
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		return models.SuggestionRecord{}, err
	}

	h.mu.Lock()
	if h.cache == nil {
		h.cache = map[string]models.SuggestionRecord{}
	}
	h.cache[emailID] = rec
	h.mu.Unlock()
	return rec, nil
}
