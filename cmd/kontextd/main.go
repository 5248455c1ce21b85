package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kontext-dev/kontext/internal/cli"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "kontextd",
		Short: "Kontext session-knowledge daemon",
		Long:  "Kontext daemon for capturing, classifying and searching coding-session knowledge",
	}

	cli.AddHelpJSONFlag(rootCmd)
	rootCmd.AddCommand(cli.ServeCmd())
	rootCmd.AddCommand(cli.ClassifyCmd())

	// Running the bare binary starts the server.
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
