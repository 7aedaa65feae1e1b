package profiling

import (
	"context"
	"errors"
	"strings"
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
	EmbedFunc        func(ctx context.Context, model, text string) ([]float32, error)
}

func (m *MockLLMClient) GenerateJSON(_ context.Context, _ llm.Request) (*llm.Result, error) {
	return &llm.Result{Text: "{}"}, nil
}

func (m *MockLLMClient) GenerateText(ctx context.Context, req llm.Request) (*llm.Result, error) {
	if m.GenerateTextFunc != nil {
		return m.GenerateTextFunc(ctx, req)
	}
	return &llm.Result{Text: "Profil par défaut."}, nil
}

func (m *MockLLMClient) Embed(ctx context.Context, model, text string) ([]float32, error) {
	if m.EmbedFunc != nil {
		return m.EmbedFunc(ctx, model, text)
	}
	return []float32{1, 0}, nil
}

func (m *MockLLMClient) Close() error { return nil }

// embedByText returns vectors keyed on the exact input text so tests can
// control cosine similarities.
func embedByText(vectors map[string][]float32) func(context.Context, string, string) ([]float32, error) {
	return func(_ context.Context, _, text string) ([]float32, error) {
		if v, ok := vectors[text]; ok {
			return v, nil
		}
		return []float32{0, 1}, nil
	}
}

func testUser() *types.UserData {
	return &types.UserData{
		Personal: types.PersonalInfo{Name: "Jean Dupont", Degree: "Ingénieur logiciel", Gender: "male"},
		Projects: types.ProjectInventory{"fraud-watch": {Name: "fraud-watch"}},
	}
}

func testJob(language string) *types.JobRecord {
	return &types.JobRecord{
		JobTitle:           "Data Engineer",
		CompanyName:        "TargetCorp",
		CompanyDescription: "Consulting firm delivering fintech platforms",
		TechnicalSkills:    []string{"Python", "Spark", "Airflow", "Terraform"},
		SoftSkills:         []string{"communication", "autonomie"},
		ExperienceRequired: types.ExperienceRequired{Years: "3+ ans"},
		TechnicalPriorities: types.TechnicalPriorities{
			MustHave:  []string{"Python", "Spark"},
			Preferred: []string{"Airflow"},
		},
		Responsibilities: []string{"Build data pipelines"},
		Keywords:         []string{"ETL", "fintech"},
		Metadata:         types.ExtractionMetadata{Language: language},
	}
}

func testExperiences() []types.ExperienceResult {
	return []types.ExperienceResult{
		{
			SlotIndex:   0,
			ProjectName: "fraud-watch",
			Role:        "Data Engineer",
			Context:     "Plateforme de détection de fraude",
			Domains:     []string{"fintech", "retail"},
			Bullets: []types.Bullet{
				{Text: "Built Spark pipelines processing 2TB daily", ATSScore: 0.9, KeywordsUsed: []string{"Spark", "Python"}},
				{Text: "Automated ETL orchestration", ATSScore: 0.7, KeywordsUsed: []string{"Airflow"}},
			},
		},
		{
			SlotIndex:   1,
			ProjectName: "mlops-core",
			Role:        "ML Engineer",
			Context:     "Mission de conseil en transformation",
			Bullets: []types.Bullet{
				{Text: "Deployed models behind a scoring API", ATSScore: 0.8, KeywordsUsed: []string{"Python"}},
			},
		},
	}
}

func testSkills() *types.SkillsList {
	return &types.SkillsList{
		Technical: []string{"Python", "Spark", "Airflow", "Go", "Docker"},
		Soft:      []string{"communication"},
	}
}

func TestExperienceStrategy(t *testing.T) {
	assert.Equal(t, types.ExperienceStrategyAmbiguous, experienceStrategy("3+ ans"))
	assert.Equal(t, types.ExperienceStrategyAmbiguous, experienceStrategy("5+ years"))
	assert.Equal(t, types.ExperienceStrategyAmbiguous, experienceStrategy("Deux ANS minimum"))
	assert.Equal(t, types.ExperienceStrategyExplicit, experienceStrategy("Débutant accepté"))
	assert.Equal(t, types.ExperienceStrategyExplicit, experienceStrategy(""))
}

func TestValidatedSkills_DedupesAcrossSlots(t *testing.T) {
	skills := ValidatedSkills(testExperiences())
	assert.Equal(t, []string{"Spark", "Python", "Airflow"}, skills)
}

func TestRelevantDomains_SubstringFilter(t *testing.T) {
	job := testJob("fr")
	domains := RelevantDomains([]string{"fintech", "healthcare"}, job)
	assert.Equal(t, []string{"fintech"}, domains)
}

func TestSynthesize_DirectRoleHighMatch(t *testing.T) {
	job := testJob("fr")
	var captured llm.Request
	client := &MockLLMClient{
		// job title and the first role share a vector: similarity 1.0
		EmbedFunc: embedByText(map[string][]float32{
			"Data Engineer": {1, 0},
			"ML Engineer":   {0.2, 0.98},
		}),
		GenerateTextFunc: func(_ context.Context, req llm.Request) (*llm.Result, error) {
			captured = req
			return &llm.Result{
				Text:  "Data Engineer spécialisé en fintech, maîtrisant Python et Spark.",
				Usage: types.Usage{InputTokens: 100, OutputTokens: 40, TotalTokens: 140},
			}, nil
		},
	}

	s := NewSynthesizer(client, &config.Config{})
	profile, usage, err := s.Synthesize(context.Background(), testUser(), job, testExperiences(), testSkills())
	require.NoError(t, err)

	assert.Equal(t, types.RoleStrategyDirectJobTitle, profile.Metadata.RoleStrategy)
	assert.Equal(t, "Data Engineer", profile.Metadata.ProfileRole)
	assert.Empty(t, profile.Metadata.BridgingPhrase)
	assert.InDelta(t, 1.0, profile.Metadata.RoleMatchScore, 1e-9)

	// both must-have skills validated: 2/2 overlap, high match
	assert.Equal(t, types.AuthenticityModeHighMatch, profile.Metadata.AuthenticityMode)
	assert.InDelta(t, 1.0, profile.Metadata.OverlapRatio, 1e-9)
	assert.Equal(t, 2, profile.Metadata.MustHaveOverlap)

	assert.Equal(t, types.ExperienceStrategyAmbiguous, profile.Metadata.ExperienceStrategy)
	assert.Equal(t, []string{"fintech"}, profile.Metadata.RelevantDomains)
	assert.Equal(t, 9, profile.Metadata.WordCount)
	assert.Equal(t, 140, usage.TotalTokens)

	// Python and Spark are validated and mentioned, so nothing is flagged
	assert.Empty(t, profile.Metadata.UnvalidatedClaims)
	assert.InDelta(t, 1.0, profile.Metadata.AuthenticityScore, 1e-9)

	assert.Contains(t, captured.System, "HIGH MATCH")
	assert.Contains(t, captured.Prompt, "FRENCH")
	assert.Contains(t, captured.Prompt, "Do NOT state years")
	require.NotNil(t, captured.Temperature)
	assert.InDelta(t, 0.7, *captured.Temperature, 1e-9)
}

func TestSynthesize_BridgeWhenRolesDoNotMatch(t *testing.T) {
	job := testJob("fr")
	job.JobTitle = "Product Manager"
	client := &MockLLMClient{
		EmbedFunc: embedByText(map[string][]float32{
			"Product Manager": {1, 0},
		}), // roles fall back to an orthogonal vector
		GenerateTextFunc: func(_ context.Context, req llm.Request) (*llm.Result, error) {
			assert.Contains(t, req.System, "USER_BACKGROUND_WITH_BRIDGE")
			return &llm.Result{Text: "ML Engineer avec une expérience en transformation digitale."}, nil
		},
	}

	s := NewSynthesizer(client, &config.Config{})
	profile, _, err := s.Synthesize(context.Background(), testUser(), job, testExperiences(), testSkills())
	require.NoError(t, err)

	assert.Equal(t, types.RoleStrategyBackgroundBridge, profile.Metadata.RoleStrategy)
	// most recent experience role opens the profile
	assert.Equal(t, "ML Engineer", profile.Metadata.ProfileRole)
	// the second slot's consulting context drives the bridge
	assert.Equal(t, "avec une expérience en transformation digitale", profile.Metadata.BridgingPhrase)
}

func TestSynthesize_SkillBridgeWithoutConsultingContext(t *testing.T) {
	experiences := testExperiences()
	experiences[1].Context = "Plateforme interne"

	job := testJob("fr")
	job.JobTitle = "Product Manager"
	client := &MockLLMClient{
		EmbedFunc: embedByText(map[string][]float32{
			"Product Manager": {1, 0},
		}),
	}
	s := NewSynthesizer(client, &config.Config{})
	profile, _, err := s.Synthesize(context.Background(), testUser(), job, experiences, testSkills())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(profile.Metadata.BridgingPhrase, "avec une maîtrise de "),
		"expected a skills bridge, got %q", profile.Metadata.BridgingPhrase)
	assert.Contains(t, profile.Metadata.BridgingPhrase, "Python")
}

func TestSynthesize_FlagsUnvalidatedClaims(t *testing.T) {
	experiences := []types.ExperienceResult{
		{
			SlotIndex:   0,
			ProjectName: "fraud-watch",
			Role:        "Data Engineer",
			Bullets: []types.Bullet{
				{Text: "Built pipelines", ATSScore: 0.8, KeywordsUsed: []string{"Python"}},
			},
		},
	}
	client := &MockLLMClient{
		EmbedFunc: embedByText(map[string][]float32{
			"Data Engineer": {1, 0},
		}),
		GenerateTextFunc: func(_ context.Context, _ llm.Request) (*llm.Result, error) {
			// mentions Terraform, which no bullet validates
			return &llm.Result{Text: "Expert Python et Terraform."}, nil
		},
	}

	s := NewSynthesizer(client, &config.Config{})
	profile, _, err := s.Synthesize(context.Background(), testUser(), testJob("fr"), experiences, testSkills())
	require.NoError(t, err)

	assert.Equal(t, []string{"Terraform"}, profile.Metadata.UnvalidatedClaims)
	// 2 job skills mentioned, 1 unvalidated
	assert.InDelta(t, 0.5, profile.Metadata.AuthenticityScore, 1e-9)
	// only Python of the two must-haves is validated: 1/2 overlap
	assert.Equal(t, types.AuthenticityModeModerateMatch, profile.Metadata.AuthenticityMode)
}

func TestSynthesize_EmptyExperiences(t *testing.T) {
	s := NewSynthesizer(&MockLLMClient{}, &config.Config{})
	_, _, err := s.Synthesize(context.Background(), testUser(), testJob("fr"), nil, testSkills())

	var synthErr *SynthesisError
	require.ErrorAs(t, err, &synthErr)
}

func TestSynthesize_GenerationFailure(t *testing.T) {
	client := &MockLLMClient{
		GenerateTextFunc: func(_ context.Context, _ llm.Request) (*llm.Result, error) {
			return nil, errors.New("quota exceeded")
		},
	}
	s := NewSynthesizer(client, &config.Config{})
	_, _, err := s.Synthesize(context.Background(), testUser(), testJob("fr"), testExperiences(), testSkills())

	var synthErr *SynthesisError
	require.ErrorAs(t, err, &synthErr)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestSynthesize_EnglishBridgePhrasing(t *testing.T) {
	job := testJob("en")
	job.JobTitle = "Product Manager"
	client := &MockLLMClient{
		EmbedFunc: embedByText(map[string][]float32{
			"Product Manager": {1, 0},
		}),
		GenerateTextFunc: func(_ context.Context, req llm.Request) (*llm.Result, error) {
			assert.Contains(t, req.Prompt, "ENGLISH")
			return &llm.Result{Text: "ML Engineer with experience in consulting and digital transformation."}, nil
		},
	}

	s := NewSynthesizer(client, &config.Config{})
	profile, _, err := s.Synthesize(context.Background(), testUser(), job, testExperiences(), testSkills())
	require.NoError(t, err)

	assert.Equal(t, "en", profile.Metadata.Language)
	// The consulting context ranks ahead of the transformation domain.
	assert.Equal(t, "with experience in consulting and digital transformation", profile.Metadata.BridgingPhrase)
}
