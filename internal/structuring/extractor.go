// Package structuring turns raw job-posting text into a JobRecord through
// a single schema-constrained LLM call.
package structuring

import (
	"context"
	_ "embed"
	"encoding/json"
	"time"

	"github.com/jonathan/resume-pipeline/internal/config"
	"github.com/jonathan/resume-pipeline/internal/ingestion"
	"github.com/jonathan/resume-pipeline/internal/llm"
	"github.com/jonathan/resume-pipeline/internal/prompts"
	"github.com/jonathan/resume-pipeline/internal/schemas"
	"github.com/jonathan/resume-pipeline/internal/types"
)

//go:embed schema.json
var jobSchema string

// Extractor performs structured extraction of job postings.
type Extractor struct {
	client llm.Client
	cfg    *config.Config
}

// NewExtractor creates an Extractor backed by the given LLM client.
func NewExtractor(client llm.Client, cfg *config.Config) *Extractor {
	return &Extractor{client: client, cfg: cfg}
}

// Extract runs one extraction call and validates the result against the job
// schema. The returned record's metadata (source URL, timestamp, language)
// is populated locally — model output never carries provenance.
func (e *Extractor) Extract(ctx context.Context, jobText, sourceURL, modelOverride string) (*types.JobRecord, types.Usage, error) {
	cleaned := ingestion.Normalize(jobText)

	language := e.cfg.ForceLanguage
	if language == "" {
		language = DetectLanguageWith(cleaned, e.cfg.LanguageIndicators["fr"], e.cfg.LanguageIndicators["en"])
	}

	temp := e.cfg.TemperatureFor(config.StageStructuring, nil)
	req := llm.Request{
		Model:       e.cfg.ModelFor(config.StageStructuring, modelOverride),
		Temperature: &temp,
		System:      prompts.MustGet("structuring.json", "system"),
		Prompt: prompts.Format(prompts.MustGet("structuring.json", "user"), map[string]string{
			"JobText": cleaned,
		}),
	}

	result, err := e.client.GenerateJSON(ctx, req)
	if err != nil {
		return nil, types.Usage{}, &ExtractionError{Message: "job extraction call failed", Cause: err}
	}

	// The schema re-check is independent of call success: the model can
	// answer confidently with a payload that violates the contract.
	if err := schemas.ValidateJSONString(jobSchema, result.Text); err != nil {
		return nil, result.Usage, err
	}

	var record types.JobRecord
	if err := json.Unmarshal([]byte(result.Text), &record); err != nil {
		return nil, result.Usage, &ExtractionError{Message: "failed to unmarshal job record", Cause: err}
	}

	record.Metadata = types.ExtractionMetadata{
		SourceURL:      sourceURL,
		ExtractionDate: time.Now().UTC().Format(time.RFC3339),
		Language:       language,
	}

	return &record, result.Usage, nil
}
