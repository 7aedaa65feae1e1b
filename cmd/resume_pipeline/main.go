// Package main provides the entry point for the resume pipeline CLI and API server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "resume_pipeline",
	Short: "LLM-driven resume and cover letter pipeline",
	Long:  "Resume Pipeline turns a raw job posting and a user's project inventory into a tailored resume document and cover letter, via CLI or REST API.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
