package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/crestline-ai/reglens/internal/cli/admin"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "reglensd",
		Short: "Reglens daemon",
		Long:  "Reglens daemon for running the retrieval and answering API server",
	}

	rootCmd.AddCommand(admin.ServeCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
