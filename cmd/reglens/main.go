package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/crestline-ai/reglens/internal/cli/client"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "reglens",
		Short: "Reglens CLI",
		Long:  "Command line client for the reglens retrieval and answering API",
	}

	rootCmd.PersistentFlags().BoolP("output", "o", false, "Output raw JSON")

	rootCmd.AddCommand(client.IngestCmd())
	rootCmd.AddCommand(client.QueryCmd())
	rootCmd.AddCommand(client.EvaluateCmd())
	rootCmd.AddCommand(client.HealthCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
