package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// IngestResponse represents the ingest API response.
type IngestResponse struct {
	DocumentID    string `json:"document_id"`
	ChunksIndexed int    `json:"chunks_indexed"`
	TablesIndexed int    `json:"tables_indexed"`
	ElapsedMS     int64  `json:"elapsed_ms"`
}

// IngestCmd creates the ingest command.
func IngestCmd() *cobra.Command {
	var metadataJSON string

	cmd := &cobra.Command{
		Use:   "ingest <file>",
		Short: "Ingest a document",
		Long:  "Uploads a document for chunking, embedding, and indexing.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runIngest(args[0], metadataJSON, outputJSON)
		},
	}

	cmd.Flags().StringVarP(&metadataJSON, "metadata", "m", "", "Flat JSON object of string metadata")

	return cmd
}

func runIngest(filePath, metadataJSON string, outputJSON bool) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	resp, err := api.PostFile("/api/v1/ingest", filePath, metadataJSON)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	var ingestResp IngestResponse
	if err := json.Unmarshal(resp.Data, &ingestResp); err != nil {
		return fmt.Errorf("failed to parse ingest response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(ingestResp, "", "  ")
		fmt.Println(string(output))
	} else {
		fmt.Printf("Ingested %s\n", filePath)
		fmt.Printf("  Document ID: %s\n", ingestResp.DocumentID)
		fmt.Printf("  Chunks indexed: %d\n", ingestResp.ChunksIndexed)
		if ingestResp.TablesIndexed > 0 {
			fmt.Printf("  Tables indexed: %d\n", ingestResp.TablesIndexed)
		}
		fmt.Printf("  Elapsed: %dms\n", ingestResp.ElapsedMS)
	}

	return nil
}
