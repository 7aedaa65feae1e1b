package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-pipeline/internal/observability"
	"github.com/jonathan/resume-pipeline/internal/pipeline"
	"github.com/jonathan/resume-pipeline/internal/types"
)

var structureCmd = &cobra.Command{
	Use:   "structure",
	Short: "Extract a structured job record from a raw posting",
	Long:  "Run only the extraction stage: turn a raw job posting text file into a schema-validated JSON job record.",
	RunE:  runStructure,
}

var (
	structureJobFile    string
	structureSourceURL  string
	structureModel      string
	structureOutFile    string
	structureAPIKey     string
	structureConfigPath string
	structureVerbose    bool
)

func init() {
	structureCmd.Flags().StringVarP(&structureJobFile, "job", "j", "", "Path to job posting text file (required)")
	structureCmd.Flags().StringVar(&structureConfigPath, "config", "", "Path to pipeline config JSON (optional)")
	structureCmd.Flags().StringVar(&structureSourceURL, "source-url", "", "URL the posting was copied from, recorded in metadata")
	structureCmd.Flags().StringVar(&structureModel, "model", "", "Model override for the extraction call")
	structureCmd.Flags().StringVarP(&structureOutFile, "out", "o", "", "Path to output JSON file (defaults to stdout)")
	structureCmd.Flags().StringVar(&structureAPIKey, "api-key", "", "Gemini API key (overrides GEMINI_API_KEY env var)")
	structureCmd.Flags().BoolVarP(&structureVerbose, "verbose", "v", false, "Print a summary of the extracted record")

	_ = structureCmd.MarkFlagRequired("job")

	rootCmd.AddCommand(structureCmd)
}

func runStructure(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	jobText, err := readJobText(structureJobFile)
	if err != nil {
		return err
	}

	cfg, err := loadPipelineConfig(structureConfigPath)
	if err != nil {
		return err
	}

	client, err := newLLMClient(ctx, structureAPIKey)
	if err != nil {
		return err
	}
	defer client.Close()

	p := pipeline.NewPipeline(client, cfg, nil)
	job, usage, err := p.Structure(ctx, &types.StructureRequest{
		JobText:   jobText,
		SourceURL: structureSourceURL,
		Model:     structureModel,
	})
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}

	if structureVerbose {
		printer := observability.NewPrinter(os.Stdout)
		printer.PrintJobRecord(job)
		fmt.Fprintf(os.Stdout, "Tokens used: %d in / %d out\n", usage.InputTokens, usage.OutputTokens)
	}

	if structureOutFile != "" {
		if err := writeJSON(structureOutFile, job); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Job record written to %s\n", structureOutFile)
		return nil
	}
	return printJSON(job)
}
