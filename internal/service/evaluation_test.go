package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crestline-ai/reglens/internal/domain"
)

func TestEvaluationRun_NoSamples(t *testing.T) {
	svc := NewEvaluationService(8)

	_, err := svc.Run(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrNoEvaluationSamples)
}

func TestEvaluationRun_PerfectSample(t *testing.T) {
	svc := NewEvaluationService(8)

	samples := []domain.EvaluationSample{
		{
			Question:    "settlement period",
			Answer:      "settlement period",
			GroundTruth: "settlement period",
			Citations:   []string{"the settlement period is two days"},
		},
	}

	result, err := svc.Run(context.Background(), samples)
	require.NoError(t, err)

	assert.Equal(t, 1, result.SamplesEvaluated)
	assert.Equal(t, 1.0, result.Metrics.Groundedness)
	assert.Equal(t, 1.0, result.Metrics.RecallAtK)
	assert.Equal(t, 1.0, result.Metrics.AnswerRelevancy)
	assert.Equal(t, 1.0, result.Metrics.Faithfulness)
	assert.False(t, result.GeneratedAt.IsZero())
}

func TestEvaluationRun_GroundednessCaseInsensitive(t *testing.T) {
	svc := NewEvaluationService(8)

	samples := []domain.EvaluationSample{
		{
			Question:    "q",
			Answer:      "a",
			GroundTruth: "Two Days",
			Citations:   []string{"settlement takes TWO DAYS at most"},
		},
	}

	result, err := svc.Run(context.Background(), samples)
	require.NoError(t, err)
	assert.Equal(t, 1.0, result.Metrics.Groundedness)
}

func TestEvaluationRun_RecallRespectsTopK(t *testing.T) {
	svc := NewEvaluationService(1)

	samples := []domain.EvaluationSample{
		{
			Question:    "q",
			Answer:      "a",
			GroundTruth: "needle",
			Citations:   []string{"no match here", "the needle is here"},
		},
	}

	result, err := svc.Run(context.Background(), samples)
	require.NoError(t, err)

	// Groundedness scans all citations, recall only the first k.
	assert.Equal(t, 1.0, result.Metrics.Groundedness)
	assert.Equal(t, 0.0, result.Metrics.RecallAtK)
}

func TestEvaluationRun_AveragesAcrossSamples(t *testing.T) {
	svc := NewEvaluationService(8)

	samples := []domain.EvaluationSample{
		{Question: "q", Answer: "a", GroundTruth: "found", Citations: []string{"found"}},
		{Question: "q", Answer: "a", GroundTruth: "missing", Citations: []string{"other"}},
	}

	result, err := svc.Run(context.Background(), samples)
	require.NoError(t, err)

	assert.Equal(t, 2, result.SamplesEvaluated)
	assert.Equal(t, 0.5, result.Metrics.Groundedness)
}

func TestTokenOverlap(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want float64
	}{
		{name: "full overlap", a: "alpha beta", b: "beta alpha gamma", want: 1.0},
		{name: "half overlap", a: "alpha beta", b: "beta", want: 0.5},
		{name: "no overlap", a: "alpha", b: "beta", want: 0.0},
		{name: "empty a", a: "", b: "beta", want: 0.0},
		{name: "case insensitive", a: "Alpha", b: "alpha", want: 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tokenOverlap(tt.a, tt.b))
		})
	}
}
