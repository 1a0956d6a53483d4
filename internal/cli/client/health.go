package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// HealthCmd creates the health command.
func HealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := NewAPIClient()
			if err != nil {
				return err
			}

			resp, err := api.Get("/health")
			if err != nil {
				return fmt.Errorf("health check failed: %w", err)
			}

			var status map[string]string
			if err := json.Unmarshal(resp.Data, &status); err != nil {
				return fmt.Errorf("failed to parse health response: %w", err)
			}

			fmt.Printf("Server status: %s\n", status["status"])
			return nil
		},
	}
}
