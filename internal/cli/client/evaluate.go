package client

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// EvaluationSample mirrors the evaluate API sample shape.
type EvaluationSample struct {
	Question    string   `json:"question"`
	Answer      string   `json:"answer"`
	GroundTruth string   `json:"ground_truth"`
	Citations   []string `json:"citations"`
}

// EvaluateResponse represents the evaluate API response.
type EvaluateResponse struct {
	SamplesEvaluated int `json:"samples_evaluated"`
	Metrics          struct {
		Faithfulness    float64 `json:"faithfulness"`
		AnswerRelevancy float64 `json:"answer_relevancy"`
		Groundedness    float64 `json:"groundedness"`
		RecallAtK       float64 `json:"recall_at_k"`
	} `json:"metrics"`
	GeneratedAt string `json:"generated_at"`
}

// EvaluateCmd creates the evaluate command.
func EvaluateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evaluate <samples.json>",
		Short: "Run offline evaluation",
		Long:  "Runs quality metrics over a JSON file of answered samples.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runEvaluate(args[0], outputJSON)
		},
	}

	return cmd
}

func runEvaluate(samplesPath string, outputJSON bool) error {
	data, err := os.ReadFile(samplesPath)
	if err != nil {
		return fmt.Errorf("failed to read samples file: %w", err)
	}

	var samples []EvaluationSample
	if err := json.Unmarshal(data, &samples); err != nil {
		return fmt.Errorf("failed to parse samples file: %w", err)
	}

	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	resp, err := api.Post("/api/v1/evaluate", map[string]interface{}{"samples": samples})
	if err != nil {
		return fmt.Errorf("evaluation failed: %w", err)
	}

	var evalResp EvaluateResponse
	if err := json.Unmarshal(resp.Data, &evalResp); err != nil {
		return fmt.Errorf("failed to parse evaluation response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(evalResp, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Printf("Evaluated %d samples:\n", evalResp.SamplesEvaluated)
	fmt.Printf("  Faithfulness:     %.4f\n", evalResp.Metrics.Faithfulness)
	fmt.Printf("  Answer relevancy: %.4f\n", evalResp.Metrics.AnswerRelevancy)
	fmt.Printf("  Groundedness:     %.4f\n", evalResp.Metrics.Groundedness)
	fmt.Printf("  Recall@k:         %.4f\n", evalResp.Metrics.RecallAtK)

	return nil
}
