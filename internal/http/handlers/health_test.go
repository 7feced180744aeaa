package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/finops-intake/backend/internal/db"
	"github.com/finops-intake/backend/internal/db/sqlite"
)

func serveHealthz(t *testing.T, store Pinger) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	h := &Handler{Store: store, Logger: zerolog.Nop()}
	r := gin.New()
	r.GET("/healthz", h.Healthz)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	return w
}

func TestHealthzSQLite(t *testing.T) {
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "health.db"))
	if err != nil {
		t.Fatalf("sqlite open: %v", err)
	}

	if w := serveHealthz(t, store); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	store.Close()
	if w := serveHealthz(t, store); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 after close, got %d", w.Code)
	}
}

func TestHealthzPostgresIntegration(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	store, err := db.New(context.Background(), url)
	if err != nil {
		t.Fatalf("db connect: %v", err)
	}
	defer store.Close()

	if w := serveHealthz(t, store); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}
