package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/crestline-ai/reglens/internal/api"
	"github.com/crestline-ai/reglens/internal/domain"
)

// EvaluationService defines the evaluation surface the handler depends on.
type EvaluationService interface {
	Run(ctx context.Context, samples []domain.EvaluationSample) (*domain.EvaluationResult, error)
}

// EvaluateHandler runs offline quality evaluation over answered samples.
type EvaluateHandler struct {
	evaluation EvaluationService
}

func NewEvaluateHandler(evaluation EvaluationService) *EvaluateHandler {
	return &EvaluateHandler{evaluation: evaluation}
}

// EvaluateRequest is the API shape for an evaluation batch.
type EvaluateRequest struct {
	Samples []domain.EvaluationSample `json:"samples"`
}

// Evaluate handles POST /api/v1/evaluate.
func (h *EvaluateHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	var req EvaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.evaluation.Run(r.Context(), req.Samples)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, result)
}
