package fetchd

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/yungbote/jobscribe-backend/internal/platform/logger"
)

func TestFetchPageText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/fetch" {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var body struct {
			URL    string `json:"url"`
			WaitMS int    `json:"wait_ms"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		if body.URL != "https://example.com/jobs/1" || body.WaitMS != 3000 {
			t.Fatalf("fetch body: %+v", body)
		}
		json.NewEncoder(w).Encode(map[string]string{"text": "page text"})
	}))
	defer srv.Close()

	c, err := NewClient(logger.NewNop(), Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	text, err := c.FetchPageText(context.Background(), "https://example.com/jobs/1", 3*time.Second)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if text != "page text" {
		t.Fatalf("got %q", text)
	}
}

func TestFetchDaemonError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"error": "navigation timed out"})
	}))
	defer srv.Close()

	c, err := NewClient(logger.NewNop(), Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if _, err := c.FetchPageText(context.Background(), "https://example.com/jobs/1", 0); err == nil {
		t.Fatalf("daemon error should surface")
	}
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	if _, err := NewClient(logger.NewNop(), Config{}); err == nil {
		t.Fatalf("empty base url should fail")
	}
}
