package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crestline-ai/reglens/internal/api/handlers"
	"github.com/crestline-ai/reglens/internal/domain"
	"github.com/crestline-ai/reglens/internal/metrics"
	"github.com/crestline-ai/reglens/internal/service"
)

type noopIngest struct{}

func (noopIngest) Ingest(ctx context.Context, documentBytes []byte, filename string, metadata map[string]string) (*service.IngestResult, error) {
	return &service.IngestResult{DocumentID: "doc-1"}, nil
}

type noopAnswer struct{}

func (noopAnswer) Answer(ctx context.Context, question string, topK int, auditTrail bool) (*service.QueryResult, error) {
	return &service.QueryResult{Answer: "No relevant answer found."}, nil
}

type noopEvaluation struct{}

func (noopEvaluation) Run(ctx context.Context, samples []domain.EvaluationSample) (*domain.EvaluationResult, error) {
	return &domain.EvaluationResult{SamplesEvaluated: len(samples)}, nil
}

func newTestRouter() http.Handler {
	m := metrics.New()
	return NewRouter(RouterConfig{
		IngestHandler:   handlers.NewIngestHandler(noopIngest{}, m),
		QueryHandler:    handlers.NewQueryHandler(noopAnswer{}, m),
		EvaluateHandler: handlers.NewEvaluateHandler(noopEvaluation{}),
		Metrics:         m,
	})
}

func TestRouter_Health(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Data["status"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRouter_Metrics(t *testing.T) {
	router := newTestRouter()

	// Generate one request so counters exist.
	warm := httptest.NewRequest("GET", "/health", nil)
	router.ServeHTTP(httptest.NewRecorder(), warm)

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "reglens_http_requests_total")
}

func TestRouter_Query(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest("POST", "/api/v1/query", strings.NewReader(`{"question":"q"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_UnknownRoute(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest("GET", "/api/v1/unknown", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_BodyTooLarge(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest("POST", "/api/v1/query", strings.NewReader(`{}`))
	req.ContentLength = 26 * 1024 * 1024
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}
