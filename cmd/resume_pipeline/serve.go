package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-pipeline/internal/pipeline"
	"github.com/jonathan/resume-pipeline/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start an HTTP server that exposes the pipeline over REST: POST /structure for extraction, POST /process for full runs, and run-history endpoints when a database is configured.

Requests are authenticated with a static bearer token when API_SECRET_KEY is set.`,
	RunE: runServe,
}

var (
	servePort       int
	serveConfigPath string
	serveAPIKey     string
)

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port to listen on")
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "Path to pipeline config JSON with slot definitions (optional; requests may carry their own slots)")
	serveCmd.Flags().StringVar(&serveAPIKey, "api-key", "", "Gemini API key (overrides GEMINI_API_KEY env var)")

	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := loadPipelineConfig(serveConfigPath)
	if err != nil {
		return err
	}

	client, err := newLLMClient(ctx, serveAPIKey)
	if err != nil {
		return err
	}
	defer client.Close()

	st, err := connectStore(ctx, "")
	if err != nil {
		return err
	}
	if st != nil {
		defer st.Close()
	}

	p := pipeline.NewPipeline(client, cfg, st)
	srv := server.New(server.Config{
		Port:   servePort,
		APIKey: os.Getenv("API_SECRET_KEY"),
	}, p, st)

	return srv.Start()
}
