package domain

import "time"

// EvaluationSample is one question/answer pair with the citations the answer
// was grounded on and the expected ground truth.
type EvaluationSample struct {
	Question    string   `json:"question"`
	Answer      string   `json:"answer"`
	GroundTruth string   `json:"ground_truth"`
	Citations   []string `json:"citations"`
}

// EvaluationMetrics aggregates retrieval quality scores over a sample set.
type EvaluationMetrics struct {
	Faithfulness    float64 `json:"faithfulness"`
	AnswerRelevancy float64 `json:"answer_relevancy"`
	Groundedness    float64 `json:"groundedness"`
	RecallAtK       float64 `json:"recall_at_k"`
}

// EvaluationResult is the outcome of one evaluation run.
type EvaluationResult struct {
	SamplesEvaluated int               `json:"samples_evaluated"`
	Metrics          EvaluationMetrics `json:"metrics"`
	GeneratedAt      time.Time         `json:"generated_at"`
}
