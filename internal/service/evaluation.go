package service

import (
	"context"
	"strings"
	"time"

	"github.com/crestline-ai/reglens/internal/domain"
)

// EvaluationService computes offline quality metrics over answered samples.
// The metrics are lexical proxies, not model-based judges, so the run is
// deterministic for a fixed sample set.
type EvaluationService struct {
	topK int
}

func NewEvaluationService(topK int) *EvaluationService {
	if topK <= 0 {
		topK = 8
	}
	return &EvaluationService{topK: topK}
}

// Run evaluates the sample batch and averages the per-sample metrics.
func (s *EvaluationService) Run(ctx context.Context, samples []domain.EvaluationSample) (*domain.EvaluationResult, error) {
	if len(samples) == 0 {
		return nil, domain.ErrNoEvaluationSamples
	}

	var faithfulness, relevancy, groundedness, recall float64
	for _, sample := range samples {
		faithfulness += tokenOverlap(sample.Answer, strings.Join(sample.Citations, " "))
		relevancy += tokenOverlap(sample.Answer, sample.Question)
		groundedness += s.groundedness(sample)
		recall += s.recallAtK(sample)
	}

	n := float64(len(samples))
	return &domain.EvaluationResult{
		SamplesEvaluated: len(samples),
		Metrics: domain.EvaluationMetrics{
			Faithfulness:    faithfulness / n,
			AnswerRelevancy: relevancy / n,
			Groundedness:    groundedness / n,
			RecallAtK:       recall / n,
		},
		GeneratedAt: time.Now().UTC(),
	}, nil
}

// groundedness is 1 when any citation contains the ground truth verbatim,
// case-insensitively, otherwise 0.
func (s *EvaluationService) groundedness(sample domain.EvaluationSample) float64 {
	truth := strings.ToLower(strings.TrimSpace(sample.GroundTruth))
	if truth == "" {
		return 0
	}
	for _, citation := range sample.Citations {
		if strings.Contains(strings.ToLower(citation), truth) {
			return 1
		}
	}
	return 0
}

// recallAtK checks whether the ground truth appears within the first k
// citations.
func (s *EvaluationService) recallAtK(sample domain.EvaluationSample) float64 {
	truth := strings.ToLower(strings.TrimSpace(sample.GroundTruth))
	if truth == "" {
		return 0
	}
	citations := sample.Citations
	if len(citations) > s.topK {
		citations = citations[:s.topK]
	}
	for _, citation := range citations {
		if strings.Contains(strings.ToLower(citation), truth) {
			return 1
		}
	}
	return 0
}

// tokenOverlap is the fraction of distinct tokens in a that also occur in b.
func tokenOverlap(a, b string) float64 {
	aTokens := strings.Fields(strings.ToLower(a))
	if len(aTokens) == 0 {
		return 0
	}

	bSet := make(map[string]struct{})
	for _, token := range strings.Fields(strings.ToLower(b)) {
		bSet[token] = struct{}{}
	}

	distinct := make(map[string]struct{}, len(aTokens))
	for _, token := range aTokens {
		distinct[token] = struct{}{}
	}

	matched := 0
	for token := range distinct {
		if _, ok := bSet[token]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(distinct))
}
