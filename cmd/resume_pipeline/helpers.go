package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/jonathan/resume-pipeline/internal/config"
	"github.com/jonathan/resume-pipeline/internal/llm"
	"github.com/jonathan/resume-pipeline/internal/types"
)

// resolveAPIKey prefers the flag value over the GEMINI_API_KEY env var.
func resolveAPIKey(flagValue string) (string, error) {
	key := flagValue
	if key == "" {
		key = os.Getenv("GEMINI_API_KEY")
	}
	if key == "" {
		return "", fmt.Errorf("API key is required (set GEMINI_API_KEY environment variable or use --api-key flag)")
	}
	return key, nil
}

// newLLMClient builds the Gemini client from the flag/env API key.
func newLLMClient(ctx context.Context, flagValue string) (*llm.GeminiClient, error) {
	key, err := resolveAPIKey(flagValue)
	if err != nil {
		return nil, err
	}
	client, err := llm.NewGeminiClient(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	return client, nil
}

// loadPipelineConfig loads the JSON config file, or returns an all-defaults
// config when no path is given.
func loadPipelineConfig(path string) (*config.Config, error) {
	if path == "" {
		return &config.Config{}, nil
	}
	return config.Load(path)
}

// readJobText reads the raw posting from a text file.
func readJobText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read job posting: %w", err)
	}
	return string(data), nil
}

// loadUserData reads and validates the user's project/skill inventory.
func loadUserData(path string) (*types.UserData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read user data: %w", err)
	}

	var user types.UserData
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("failed to parse user data JSON: %w", err)
	}
	if err := user.Validate(); err != nil {
		return nil, fmt.Errorf("invalid user data: %w", err)
	}
	return &user, nil
}

// resumeSkillsList rebuilds a printable skill section from the flattened
// skills of an assembled resume document.
func resumeSkillsList(doc *types.ResumeDocument) *types.SkillsList {
	return &types.SkillsList{Technical: doc.Skills.Technical, Soft: doc.Skills.Soft}
}

// writeJSON writes v as indented JSON to path.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// printJSON writes v as indented JSON to stdout.
func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
