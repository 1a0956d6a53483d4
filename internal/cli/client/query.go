package client

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// QueryRequest represents the query API request.
type QueryRequest struct {
	Question   string `json:"question"`
	TopK       int    `json:"top_k,omitempty"`
	AuditTrail bool   `json:"audit_trail"`
}

// QueryReference is one cited chunk in a query response.
type QueryReference struct {
	ChunkID    string  `json:"chunk_id"`
	DocumentID string  `json:"document_id"`
	Content    string  `json:"content"`
	Level      string  `json:"level"`
	Score      float64 `json:"score"`
}

// QueryResponse represents the query API response.
type QueryResponse struct {
	Answer     string           `json:"answer"`
	References []QueryReference `json:"references,omitempty"`
	Grounded   bool             `json:"grounded"`
	LatencyMS  int64            `json:"latency_ms"`
}

// QueryCmd creates the query command.
func QueryCmd() *cobra.Command {
	var (
		topK         int
		noReferences bool
	)

	cmd := &cobra.Command{
		Use:   "query <question>",
		Short: "Ask a question",
		Long:  "Answers a question over the indexed corpus with chunk citations.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runQuery(args[0], topK, !noReferences, outputJSON)
		},
	}

	cmd.Flags().IntVarP(&topK, "top-k", "k", 8, "Number of chunks to retrieve")
	cmd.Flags().BoolVar(&noReferences, "no-references", false, "Omit chunk references from the answer")

	return cmd
}

func runQuery(question string, topK int, auditTrail, outputJSON bool) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	req := QueryRequest{
		Question:   question,
		TopK:       topK,
		AuditTrail: auditTrail,
	}

	resp, err := api.Post("/api/v1/query", req)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	var queryResp QueryResponse
	if err := json.Unmarshal(resp.Data, &queryResp); err != nil {
		return fmt.Errorf("failed to parse query response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(queryResp, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Println(queryResp.Answer)
	if len(queryResp.References) > 0 {
		fmt.Printf("\n%s\n", strings.Repeat("-", 40))
		fmt.Printf("References (%d):\n", len(queryResp.References))
		for i, ref := range queryResp.References {
			content := ref.Content
			if len(content) > 100 {
				content = content[:97] + "..."
			}
			fmt.Printf("%d. [%s] doc=%s level=%s score=%.4f\n   %s\n",
				i+1, ref.ChunkID, ref.DocumentID, ref.Level, ref.Score, content)
		}
	}

	return nil
}
