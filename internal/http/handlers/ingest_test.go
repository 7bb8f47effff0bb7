package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/jobscribe-backend/internal/extract"
	"github.com/yungbote/jobscribe-backend/internal/normalize"
	"github.com/yungbote/jobscribe-backend/internal/pipeline"
	"github.com/yungbote/jobscribe-backend/internal/platform/logger"
	"github.com/yungbote/jobscribe-backend/internal/schema"
	"github.com/yungbote/jobscribe-backend/internal/writer"
)

type failingFetcher struct{}

func (failingFetcher) FetchSchema(ctx context.Context, databaseID string) (*schema.DatabaseSchema, error) {
	return nil, errors.New("store down")
}

type noopFetcher struct{}

func (noopFetcher) FetchPageText(ctx context.Context, pageURL string, waitHint time.Duration) (string, error) {
	return "page text", nil
}

type noopExtractor struct{}

func (noopExtractor) Extract(ctx context.Context, pageText, sourceURL string, s *schema.DatabaseSchema) extract.Result {
	return extract.Result{OK: true, Fields: map[string]any{"Name": "Job"}}
}

type noopNormalizer struct{}

func (noopNormalizer) Normalize(raw map[string]any, s *schema.DatabaseSchema) normalize.Record {
	return normalize.Record{OK: true, Payload: raw}
}

type noopUpserter struct{}

func (noopUpserter) Upsert(ctx context.Context, s *schema.DatabaseSchema, payload map[string]any, forceCreate bool) writer.Result {
	return writer.Result{OK: true, Operation: writer.OperationCreated, RecordID: "rec-1"}
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	provider := schema.NewProvider(failingFetcher{}, logger.NewNop(), time.Hour, 10)
	pipe := pipeline.NewPipeline(provider, noopFetcher{}, noopExtractor{}, noopNormalizer{}, noopUpserter{}, logger.NewNop(), pipeline.Config{DatabaseID: "db1"})
	h := NewIngestHandler(pipe, logger.NewNop())

	r := gin.New()
	r.POST("/api/ingest/url", h.IngestURL)
	r.POST("/api/ingest/batch", h.IngestBatch)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIngestBatchRejectsEmptyList(t *testing.T) {
	r := newTestRouter(t)
	w := doJSON(t, r, "/api/ingest/batch", `{"urls": []}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want 400", w.Code)
	}
}

func TestIngestBatchRejectsOversizedList(t *testing.T) {
	r := newTestRouter(t)

	urls := make([]string, 51)
	for i := range urls {
		urls[i] = fmt.Sprintf("%q", fmt.Sprintf("https://example.com/jobs/%d", i))
	}
	body := fmt.Sprintf(`{"urls": [%s]}`, strings.Join(urls, ","))

	w := doJSON(t, r, "/api/ingest/batch", body)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want 400", w.Code)
	}
	if !strings.Contains(w.Body.String(), "batch_too_large") {
		t.Fatalf("error code missing: %s", w.Body.String())
	}
}

func TestIngestURLMissingBody(t *testing.T) {
	r := newTestRouter(t)
	w := doJSON(t, r, "/api/ingest/url", `{}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want 400", w.Code)
	}
}

func TestIngestSchemaFetchFailureIsBadGateway(t *testing.T) {
	r := newTestRouter(t)
	w := doJSON(t, r, "/api/ingest/url", `{"url": "https://example.com/jobs/1"}`)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("got status %d, want 502", w.Code)
	}
	if !strings.Contains(w.Body.String(), "schema_fetch_failed") {
		t.Fatalf("error code missing: %s", w.Body.String())
	}
}
