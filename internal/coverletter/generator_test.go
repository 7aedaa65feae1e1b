package coverletter

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-pipeline/internal/config"
	"github.com/jonathan/resume-pipeline/internal/llm"
	"github.com/jonathan/resume-pipeline/internal/types"
)

// MockLLMClient implements llm.Client for testing
type MockLLMClient struct {
	GenerateTextFunc func(ctx context.Context, req llm.Request) (*llm.Result, error)
}

func (m *MockLLMClient) GenerateJSON(_ context.Context, _ llm.Request) (*llm.Result, error) {
	return &llm.Result{Text: "{}"}, nil
}

func (m *MockLLMClient) GenerateText(ctx context.Context, req llm.Request) (*llm.Result, error) {
	if m.GenerateTextFunc != nil {
		return m.GenerateTextFunc(ctx, req)
	}
	return &llm.Result{Text: "Corps de lettre."}, nil
}

func (m *MockLLMClient) Embed(_ context.Context, _, _ string) ([]float32, error) {
	return []float32{1}, nil
}

func (m *MockLLMClient) Close() error { return nil }

func testJob(language string) *types.JobRecord {
	return &types.JobRecord{
		JobTitle:    "Data Engineer",
		CompanyName: "TargetCorp",
		Location:    types.JobLocation{City: "Paris"},
		SoftSkills:  []string{"communication", "autonomie"},
		TechnicalPriorities: types.TechnicalPriorities{
			MustHave:  []string{"Python", "Spark"},
			Preferred: []string{"Airflow"},
		},
		Keywords: []string{"ETL", "fintech", "cloud"},
		Metadata: types.ExtractionMetadata{Language: language},
	}
}

func testExperiences() []types.ExperienceResult {
	return []types.ExperienceResult{
		{
			ProjectName: "fraud-watch",
			Bullets: []types.Bullet{
				{Text: "Built Spark pipelines"},
				{Text: "Automated ETL orchestration"},
				{Text: "Third bullet that must not appear"},
			},
		},
		{ProjectName: "empty-project"},
		{
			ProjectName: "mlops-core",
			Bullets:     []types.Bullet{{Text: "Deployed scoring models"}},
		},
	}
}

func testProfile() *types.Profile {
	return &types.Profile{Text: "Data Engineer spécialisé en fintech."}
}

func testSkills() *types.SkillsList {
	return &types.SkillsList{Technical: []string{"Python", "Spark", "Airflow"}}
}

func TestGenerate_Success(t *testing.T) {
	var captured llm.Request
	client := &MockLLMClient{
		GenerateTextFunc: func(_ context.Context, req llm.Request) (*llm.Result, error) {
			captured = req
			return &llm.Result{
				Text:  "Premier paragraphe.\n\nDeuxième paragraphe.\n\nTroisième paragraphe.",
				Usage: types.Usage{InputTokens: 1000, OutputTokens: 500, TotalTokens: 1500},
			}, nil
		},
	}

	g := NewGenerator(client, &config.Config{})
	letter, err := g.Generate(context.Background(), testJob("fr"), testExperiences(), testProfile(), testSkills())
	require.NoError(t, err)

	assert.Equal(t, "fr", letter.Language)
	assert.Equal(t, 3, letter.ParagraphCount)
	assert.Equal(t, 6, letter.WordCount)
	assert.Equal(t, 1500, letter.Usage.TotalTokens)
	// default pricing: 1000*0.15/1M + 500*0.60/1M
	assert.InDelta(t, 0.00045, letter.CostUSD, 1e-9)

	assert.Contains(t, captured.System, "lettres de motivation")
	assert.Contains(t, captured.Prompt, "Poste: Data Engineer")
	assert.Contains(t, captured.Prompt, "le poste de Data Engineer chez TargetCorp")
	require.NotNil(t, captured.Temperature)
	assert.InDelta(t, 0.7, *captured.Temperature, 1e-9)
}

func TestGenerate_HighlightsSkipEmptyProjectsAndCapBullets(t *testing.T) {
	got := highlights(testExperiences())

	assert.Contains(t, got, "1. fraud-watch:")
	assert.Contains(t, got, "2. mlops-core:")
	assert.NotContains(t, got, "empty-project")
	assert.NotContains(t, got, "Third bullet that must not appear")
}

func TestGenerate_EnglishPrompt(t *testing.T) {
	client := &MockLLMClient{
		GenerateTextFunc: func(_ context.Context, req llm.Request) (*llm.Result, error) {
			assert.Contains(t, req.System, "cover letters")
			assert.Contains(t, req.Prompt, "the Data Engineer role at TargetCorp")
			return &llm.Result{Text: "First paragraph."}, nil
		},
	}

	g := NewGenerator(client, &config.Config{})
	letter, err := g.Generate(context.Background(), testJob("en"), testExperiences(), testProfile(), testSkills())
	require.NoError(t, err)
	assert.Equal(t, "en", letter.Language)
}

func TestGenerate_CallFailure(t *testing.T) {
	client := &MockLLMClient{
		GenerateTextFunc: func(_ context.Context, _ llm.Request) (*llm.Result, error) {
			return nil, errors.New("rate limited")
		},
	}

	g := NewGenerator(client, &config.Config{})
	_, err := g.Generate(context.Background(), testJob("fr"), testExperiences(), testProfile(), testSkills())

	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestFitTarget_Fallbacks(t *testing.T) {
	job := testJob("fr")
	job.JobTitle = ""
	assert.Equal(t, "ce poste chez TargetCorp", fitTarget("fr", job))

	job.CompanyName = ""
	assert.Equal(t, "cette opportunité", fitTarget("fr", job))
	assert.Equal(t, "this opportunity", fitTarget("en", job))
}
