// Package llm wraps the Gemini API behind a provider-agnostic client
// interface so pipeline stages can be tested against fakes.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/jonathan/resume-pipeline/internal/types"
)

// Request is one generation call. Model is required; Temperature nil means
// the provider default.
type Request struct {
	Model       string
	Temperature *float64
	System      string
	Prompt      string
}

// Result carries the generated text together with token accounting for
// cost reporting.
type Result struct {
	Text  string
	Usage types.Usage
}

// Client is an abstraction over LLM providers.
type Client interface {
	// GenerateJSON generates content constrained to JSON output. The returned
	// text has any markdown code fences stripped but is NOT guaranteed to be
	// valid JSON; callers unmarshal and validate.
	GenerateJSON(ctx context.Context, req Request) (*Result, error)
	// GenerateText generates free-form prose.
	GenerateText(ctx context.Context, req Request) (*Result, error)
	// Embed returns an embedding vector for the given text.
	Embed(ctx context.Context, model, text string) ([]float32, error)
	// Close releases any resources held by the client.
	Close() error
}

// GeminiClient implements Client for Google Gemini.
type GeminiClient struct {
	client *genai.Client
}

// NewGeminiClient creates a Gemini-backed client.
func NewGeminiClient(ctx context.Context, apiKey string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{client: client}, nil
}

func (c *GeminiClient) model(req Request) (*genai.GenerativeModel, error) {
	if req.Model == "" {
		return nil, fmt.Errorf("no model specified")
	}
	model := c.client.GenerativeModel(req.Model)
	if req.Temperature != nil {
		model.SetTemperature(float32(*req.Temperature))
	}
	if req.System != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(req.System)},
		}
	}
	return model, nil
}

// GenerateJSON generates content with the response MIME type pinned to JSON.
func (c *GeminiClient) GenerateJSON(ctx context.Context, req Request) (*Result, error) {
	model, err := c.model(req)
	if err != nil {
		return nil, err
	}
	model.ResponseMIMEType = "application/json"

	resp, err := model.GenerateContent(ctx, genai.Text(req.Prompt))
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	text, err := extractTextFromResponse(resp)
	if err != nil {
		return nil, err
	}

	return &Result{Text: CleanJSONBlock(text), Usage: usageFromResponse(resp)}, nil
}

// GenerateText generates free-form prose.
func (c *GeminiClient) GenerateText(ctx context.Context, req Request) (*Result, error) {
	model, err := c.model(req)
	if err != nil {
		return nil, err
	}

	resp, err := model.GenerateContent(ctx, genai.Text(req.Prompt))
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	text, err := extractTextFromResponse(resp)
	if err != nil {
		return nil, err
	}

	return &Result{Text: strings.TrimSpace(text), Usage: usageFromResponse(resp)}, nil
}

// Embed returns the embedding vector for text using the given embedding model.
func (c *GeminiClient) Embed(ctx context.Context, model, text string) ([]float32, error) {
	if model == "" {
		return nil, fmt.Errorf("no embedding model specified")
	}
	em := c.client.EmbeddingModel(model)
	res, err := em.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("failed to embed content: %w", err)
	}
	if res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, fmt.Errorf("empty embedding in response")
	}
	return res.Embedding.Values, nil
}

// Close releases resources held by the client.
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// extractTextFromResponse extracts text from a Gemini API response.
func extractTextFromResponse(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("no content in response")
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}

	if len(parts) == 0 {
		return "", fmt.Errorf("no text parts in response")
	}

	return strings.Join(parts, ""), nil
}

// usageFromResponse reads token counts from the response metadata. Missing
// metadata yields a zero Usage rather than an error.
func usageFromResponse(resp *genai.GenerateContentResponse) types.Usage {
	if resp.UsageMetadata == nil {
		return types.Usage{}
	}
	return types.Usage{
		InputTokens:  int(resp.UsageMetadata.PromptTokenCount),
		OutputTokens: int(resp.UsageMetadata.CandidatesTokenCount),
		TotalTokens:  int(resp.UsageMetadata.TotalTokenCount),
	}
}
