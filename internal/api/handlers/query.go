package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/crestline-ai/reglens/internal/api"
	"github.com/crestline-ai/reglens/internal/metrics"
	"github.com/crestline-ai/reglens/internal/service"
)

// AnswerService defines the answering surface the handler depends on.
type AnswerService interface {
	Answer(ctx context.Context, question string, topK int, auditTrail bool) (*service.QueryResult, error)
}

// QueryHandler answers questions over the indexed corpus.
type QueryHandler struct {
	answers AnswerService
	metrics *metrics.Metrics
}

func NewQueryHandler(answers AnswerService, m *metrics.Metrics) *QueryHandler {
	return &QueryHandler{answers: answers, metrics: m}
}

// QueryRequest is the API shape for a question.
type QueryRequest struct {
	Question   string `json:"question"`
	TopK       int    `json:"top_k"`
	AuditTrail bool   `json:"audit_trail"`
}

// Query handles POST /api/v1/query.
func (h *QueryHandler) Query(w http.ResponseWriter, r *http.Request) {
	// Defaults survive fields absent from the request body.
	req := QueryRequest{TopK: 8, AuditTrail: true}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.TopK <= 0 {
		req.TopK = 8
	}

	result, err := h.answers.Answer(r.Context(), req.Question, req.TopK, req.AuditTrail)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	h.metrics.ObserveQuery(result.Grounded, time.Duration(result.LatencyMS)*time.Millisecond)

	api.Success(w, http.StatusOK, result)
}
