package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-pipeline/internal/observability"
	"github.com/jonathan/resume-pipeline/internal/pipeline"
	"github.com/jonathan/resume-pipeline/internal/store"
	"github.com/jonathan/resume-pipeline/internal/types"
)

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Run the full resume generation pipeline end-to-end",
	Long: `Orchestrates the entire run: extraction -> coordination -> bullet generation -> skills & profile assembly -> cover letter.

The config file supplies the experience slots and model tuning; the user data file supplies the project inventory, skills and personal details.`,
	RunE: runProcess,
}

var (
	processJobFile         string
	processUserDataFile    string
	processConfigPath      string
	processSourceURL       string
	processOutDir          string
	processAPIKey          string
	processDatabaseURL     string
	processSkipCoverLetter bool
	processVerbose         bool
)

func init() {
	processCmd.Flags().StringVarP(&processJobFile, "job", "j", "", "Path to job posting text file (required)")
	processCmd.Flags().StringVarP(&processUserDataFile, "user-data", "u", "", "Path to user data JSON file (required)")
	processCmd.Flags().StringVar(&processConfigPath, "config", "", "Path to pipeline config JSON with slot definitions (required)")
	processCmd.Flags().StringVar(&processSourceURL, "source-url", "", "URL the posting was copied from, recorded in metadata")
	processCmd.Flags().StringVarP(&processOutDir, "out", "o", "", "Output directory for result files (defaults to stdout)")
	processCmd.Flags().StringVar(&processAPIKey, "api-key", "", "Gemini API key (overrides GEMINI_API_KEY env var)")
	processCmd.Flags().StringVar(&processDatabaseURL, "db-url", "", "PostgreSQL connection URL for run persistence (optional, defaults to DATABASE_URL env var)")
	processCmd.Flags().BoolVar(&processSkipCoverLetter, "skip-cover-letter", false, "Skip the cover letter stage")
	processCmd.Flags().BoolVarP(&processVerbose, "verbose", "v", false, "Print stage summaries while running")

	_ = processCmd.MarkFlagRequired("job")
	_ = processCmd.MarkFlagRequired("user-data")
	_ = processCmd.MarkFlagRequired("config")

	rootCmd.AddCommand(processCmd)
}

func runProcess(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	jobText, err := readJobText(processJobFile)
	if err != nil {
		return err
	}
	user, err := loadUserData(processUserDataFile)
	if err != nil {
		return err
	}
	cfg, err := loadPipelineConfig(processConfigPath)
	if err != nil {
		return err
	}

	client, err := newLLMClient(ctx, processAPIKey)
	if err != nil {
		return err
	}
	defer client.Close()

	st, err := connectStore(ctx, processDatabaseURL)
	if err != nil {
		return err
	}
	if st != nil {
		defer st.Close()
	}

	req := &types.ProcessRequest{
		JobText:   jobText,
		SourceURL: processSourceURL,
		UserData:  user,
	}
	if processSkipCoverLetter {
		req.Overrides = &types.ConfigOverride{SkipCoverLetter: true}
	}

	p := pipeline.NewPipeline(client, cfg, st)
	result, runErr := p.Process(ctx, req)

	if processVerbose && result != nil {
		printer := observability.NewPrinter(os.Stdout)
		printer.PrintJobRecord(result.Job)
		if result.Resume != nil {
			printer.PrintSkillsList(resumeSkillsList(result.Resume))
		}
		printer.PrintRunSummary(&result.Metadata)
	}

	if result != nil {
		if err := writeProcessResult(result); err != nil {
			return err
		}
	}

	if runErr != nil {
		return fmt.Errorf("pipeline run aborted: %w", runErr)
	}
	return nil
}

// connectStore opens the persistence store when a database URL is
// configured, falling back to the DATABASE_URL env var. No URL means no
// persistence.
func connectStore(ctx context.Context, flagValue string) (*store.Store, error) {
	databaseURL := flagValue
	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		return nil, nil
	}

	st, err := store.Connect(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := st.EnsureSchema(ctx); err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to ensure database schema: %w", err)
	}
	return st, nil
}

// writeProcessResult writes the run outputs, either as separate files under
// the --out directory or as one JSON document on stdout.
func writeProcessResult(result *pipeline.ProcessResult) error {
	if processOutDir == "" {
		return printJSON(result)
	}

	if err := os.MkdirAll(processOutDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	outputs := map[string]any{
		"metadata.json": result.Metadata,
	}
	if result.Job != nil {
		outputs["job_record.json"] = result.Job
	}
	if result.Resume != nil {
		outputs["resume.json"] = result.Resume
	}
	if result.CoverLetter != nil {
		outputs["cover_letter.json"] = result.CoverLetter
	}

	for name, content := range outputs {
		if err := writeJSON(filepath.Join(processOutDir, name), content); err != nil {
			return err
		}
	}

	fmt.Fprintf(os.Stdout, "Results written to %s\n", processOutDir)
	return nil
}
