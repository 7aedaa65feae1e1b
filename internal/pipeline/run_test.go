package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-pipeline/internal/config"
	"github.com/jonathan/resume-pipeline/internal/llm"
	"github.com/jonathan/resume-pipeline/internal/types"
)

const jobJSON = `{
	"job_title": "Ingénieur Data",
	"company_name": "Acme",
	"location": {"city": "Paris", "remote_policy": "hybrid"},
	"technical_skills": ["Python", "Spark"],
	"soft_skills": ["Autonomie"],
	"experience_required": {"years": "3-5 ans", "relevant_domains": ["Data Engineering"]},
	"education_required": {"level": "Bac+5", "fields": ["Informatique"]},
	"languages": [{"name": "Anglais", "level": "Courant"}],
	"responsibilities": ["Concevoir des pipelines de données"],
	"keywords": ["ETL", "Big Data"],
	"company_values": ["Innovation"],
	"action_verbs": ["Concevoir", "Développer"],
	"technical_priorities": {"must_have": ["Python"], "preferred": ["Spark"]},
	"domain_terminology": ["data lake"]
}`

const coordinationJSON = `{
	"selected_experiences": [
		{"slot_index": 0, "selected_project": "alpha", "selection_reasoning": "best fit",
		 "role_title": "Data Engineer", "role_source": "enhanced", "content_strategy": "enhanced",
		 "keywords_to_use": ["Python"], "enhancement_level": "moderate",
		 "responsibilities_to_incorporate": ["Concevoir des pipelines de données"]},
		{"slot_index": 1, "selected_project": "beta", "selection_reasoning": "complements",
		 "role_title": "ML Engineer", "role_source": "enhanced", "content_strategy": "enhanced",
		 "keywords_to_use": ["Python"], "enhancement_level": "moderate",
		 "responsibilities_to_incorporate": []},
		{"slot_index": 2, "selected_project": "gamma", "selection_reasoning": "verbatim",
		 "role_title": "Consultant", "role_source": "direct", "content_strategy": "direct",
		 "keywords_to_use": [], "enhancement_level": "conservative",
		 "responsibilities_to_incorporate": []}
	],
	"overall_strategy": {"skill_distribution_rationale": "spread", "role_diversity_rationale": "varied",
	 "estimated_ats_coverage": 0.8, "direct_vs_enhanced_rationale": "one anchor"}
}`

const bulletsJSON = `{
	"bullets": [
		{"text": "Built Python pipelines at scale", "ats_score": 0.8, "keywords_used": ["Python"]},
		{"text": "Automated Python deployments", "ats_score": 0.8, "keywords_used": ["Python"]},
		{"text": "Tuned Python batch jobs", "ats_score": 0.8, "keywords_used": ["Python"]},
		{"text": "Documented Python tooling", "ats_score": 0.8, "keywords_used": ["Python"]}
	]
}`

const frenchJobText = "Nous recherchons un ingénieur pour notre équipe. Vous serez responsable de la conception et du développement des pipelines de données."

// fakeLLM is a deterministic pipeline-wide test double. GenerateJSON calls
// are told apart by their stage's characteristic temperature, GenerateText
// calls by their system prompt.
type fakeLLM struct {
	coordination   string
	structuringErr error
	bulletsErr     error
	coverLetterErr error
	bulletCalls    atomic.Int32
	coverCalls     atomic.Int32
	// firstBulletDelay stalls the first bullet call so the second enhanced
	// slot finishes first.
	firstBulletDelay time.Duration
}

func (f *fakeLLM) GenerateJSON(_ context.Context, req llm.Request) (*llm.Result, error) {
	usage := types.Usage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}
	switch {
	case req.Temperature != nil && *req.Temperature == 0:
		if f.structuringErr != nil {
			return nil, f.structuringErr
		}
		return &llm.Result{Text: jobJSON, Usage: usage}, nil
	case req.Temperature != nil && *req.Temperature == 0.7:
		coordination := f.coordination
		if coordination == "" {
			coordination = coordinationJSON
		}
		return &llm.Result{Text: coordination, Usage: usage}, nil
	default:
		if f.bulletsErr != nil {
			return nil, f.bulletsErr
		}
		if f.bulletCalls.Add(1) == 1 && f.firstBulletDelay > 0 {
			time.Sleep(f.firstBulletDelay)
		}
		return &llm.Result{Text: bulletsJSON, Usage: usage}, nil
	}
}

func (f *fakeLLM) GenerateText(_ context.Context, req llm.Request) (*llm.Result, error) {
	usage := types.Usage{InputTokens: 20, OutputTokens: 10, TotalTokens: 30}
	if strings.Contains(req.System, "profile descriptions") {
		return &llm.Result{Text: "Ingénieur Data spécialisé en Python.", Usage: usage}, nil
	}
	f.coverCalls.Add(1)
	if f.coverLetterErr != nil {
		return nil, f.coverLetterErr
	}
	return &llm.Result{Text: "Premier paragraphe.\n\nDeuxième paragraphe.", Usage: usage}, nil
}

func (f *fakeLLM) Embed(_ context.Context, _, _ string) ([]float32, error) {
	return []float32{1, 0}, nil
}

func (f *fakeLLM) Close() error { return nil }

func testConfig() *config.Config {
	return &config.Config{
		Experiences: []types.SlotConfig{
			{CandidateProjects: []string{"alpha"}, ContentStrategy: types.StrategyEnhanced},
			{CandidateProjects: []string{"beta"}, ContentStrategy: types.StrategyEnhanced},
			{CandidateProjects: []string{"gamma"}, ContentStrategy: types.StrategyDirect},
		},
	}
}

func testRequest() *types.ProcessRequest {
	return &types.ProcessRequest{
		JobText: frenchJobText,
		UserData: &types.UserData{
			Personal: types.PersonalInfo{Name: "Jean Dupont", Gender: "male"},
			Projects: types.ProjectInventory{
				"alpha": {Name: "alpha", Company: "Acme", Technologies: []string{"Python"}},
				"beta":  {Name: "beta", Company: "Beta SA", Technologies: []string{"Python"}},
				"gamma": {
					Name:    "gamma",
					Company: "Gamma SARL",
					Achievements: types.LocalizedList{
						"fr": []string{"Déploiement d'une plateforme interne", "Migration vers le cloud"},
					},
				},
			},
			Skills: types.SkillInventory{
				"Python": {DisplayOrder: 1},
				"Spark":  {DisplayOrder: 2},
			},
			Education: []types.Education{
				{Degree: types.LocalizedText{"fr": "Master Informatique"}, Institution: "Université de Paris"},
			},
			Languages: []types.UserLanguage{
				{Language: types.LocalizedText{"": "Anglais"}, Proficiency: types.LocalizedText{"": "Courant"}},
			},
		},
	}
}

func TestProcess_EndToEnd(t *testing.T) {
	fake := &fakeLLM{}
	p := NewPipeline(fake, testConfig(), nil)

	result, err := p.Process(context.Background(), testRequest())
	require.NoError(t, err)
	require.True(t, result.Success)

	assert.Equal(t, StateFinalized, result.Metadata.State)
	assert.Empty(t, result.Metadata.AbortReason)
	assert.Equal(t, "fr", result.Metadata.Language)

	require.NotNil(t, result.Resume)
	require.Len(t, result.Resume.Experience, 3)
	assert.Equal(t, "Data Engineer", result.Resume.Experience[0].Role)
	assert.Equal(t, "ML Engineer", result.Resume.Experience[1].Role)
	assert.Equal(t, "Consultant", result.Resume.Experience[2].Role)
	// direct slot carries the project's achievements verbatim
	assert.Equal(t, []string{"Déploiement d'une plateforme interne", "Migration vers le cloud"},
		result.Resume.Experience[2].Bullets)

	assert.Equal(t, []string{"alpha", "beta", "gamma"}, result.Metadata.SelectedProjects)
	assert.Equal(t, 2, result.Metadata.EnhancedSlots)
	assert.Equal(t, 1, result.Metadata.DirectSlots)
	// direct slot excluded from the average
	assert.InDelta(t, 0.8, result.Metadata.AverageATSScore, 1e-9)

	require.NotNil(t, result.CoverLetter)
	assert.Equal(t, result.CoverLetter.WordCount, result.Metadata.CoverLetterWords)

	assert.Equal(t, "Ingénieur Data spécialisé en Python.", result.Resume.Profile)
	assert.Contains(t, result.Resume.Skills.Technical, "Python")
	assert.Equal(t, "Master Informatique", result.Resume.Education[0].Degree)

	for _, stage := range []State{StateStructuring, StateCoordinating, StateGenerating, StateAssembling, StateFinalized} {
		_, ok := result.Metadata.StageTimingsMS[string(stage)]
		assert.True(t, ok, "missing timing for stage %s", stage)
	}
	assert.NotZero(t, result.Metadata.Usage.TotalTokens)
	assert.NotZero(t, result.Metadata.CostUSD)
	assert.Empty(t, result.Metadata.Warnings)
}

func TestBuildResume_DefaultsCompanyAndLocation(t *testing.T) {
	user := &types.UserData{Personal: types.PersonalInfo{Name: "Jean Dupont"}}
	experiences := []types.ExperienceResult{
		{Role: "Data Engineer"},
		{Role: "Consultant", Company: "Acme", Location: "Paris"},
	}

	doc := buildResume(user, nil, experiences, nil, "fr")

	require.Len(t, doc.Experience, 2)
	assert.Equal(t, "Jean Dupont", doc.Experience[0].Company)
	assert.Equal(t, "Remote", doc.Experience[0].Location)
	assert.Equal(t, "Acme", doc.Experience[1].Company)
	assert.Equal(t, "Paris", doc.Experience[1].Location)

	// No candidate name either: the entry reads as freelance work.
	doc = buildResume(&types.UserData{}, nil, experiences[:1], nil, "fr")
	assert.Equal(t, "Freelance", doc.Experience[0].Company)
}

func TestProcess_OrderIndependentOfCompletion(t *testing.T) {
	fake := &fakeLLM{firstBulletDelay: 30 * time.Millisecond}
	p := NewPipeline(fake, testConfig(), nil)

	result, err := p.Process(context.Background(), testRequest())
	require.NoError(t, err)
	require.True(t, result.Success)

	// slot 1 finishes before slot 0; document order still follows slot index
	require.Len(t, result.Resume.Experience, 3)
	assert.Equal(t, "Data Engineer", result.Resume.Experience[0].Role)
	assert.Equal(t, "ML Engineer", result.Resume.Experience[1].Role)
	assert.Equal(t, []string{"alpha", "beta", "gamma"}, result.Metadata.SelectedProjects)
}

func TestProcess_CoverLetterSoftFailure(t *testing.T) {
	fake := &fakeLLM{coverLetterErr: errors.New("quota exceeded")}
	p := NewPipeline(fake, testConfig(), nil)

	result, err := p.Process(context.Background(), testRequest())
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Nil(t, result.CoverLetter)
	assert.Equal(t, StateFinalized, result.Metadata.State)
	require.Len(t, result.Metadata.Warnings, 1)
	assert.Contains(t, result.Metadata.Warnings[0], "cover letter")
}

func TestProcess_SkipCoverLetter(t *testing.T) {
	fake := &fakeLLM{}
	p := NewPipeline(fake, testConfig(), nil)

	req := testRequest()
	req.Overrides = &types.ConfigOverride{SkipCoverLetter: true}
	result, err := p.Process(context.Background(), req)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Nil(t, result.CoverLetter)
	assert.Zero(t, fake.coverCalls.Load())
	assert.Empty(t, result.Metadata.Warnings)
}

func TestProcess_DuplicateProjectAborts(t *testing.T) {
	duplicated := strings.ReplaceAll(coordinationJSON, `"selected_project": "beta"`, `"selected_project": "alpha"`)
	fake := &fakeLLM{coordination: duplicated}
	cfg := testConfig()
	// both slots must allow alpha so the duplicate survives the candidate check
	cfg.Experiences[1].CandidateProjects = []string{"alpha", "beta"}
	p := NewPipeline(fake, cfg, nil)

	result, err := p.Process(context.Background(), testRequest())
	require.Error(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, StateAborted, result.Metadata.State)
	assert.Equal(t, AbortCoordinationIntegrity, result.Metadata.AbortReason)
	assert.NotEmpty(t, result.Error)
}

func TestProcess_StructuringFailureAborts(t *testing.T) {
	fake := &fakeLLM{structuringErr: errors.New("upstream down")}
	p := NewPipeline(fake, testConfig(), nil)

	result, err := p.Process(context.Background(), testRequest())
	require.Error(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, StateAborted, result.Metadata.State)
	assert.Equal(t, AbortStructuringFailed, result.Metadata.AbortReason)
}

func TestProcess_GenerationFailureAborts(t *testing.T) {
	fake := &fakeLLM{bulletsErr: errors.New("model overloaded")}
	p := NewPipeline(fake, testConfig(), nil)

	result, err := p.Process(context.Background(), testRequest())
	require.Error(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, AbortGenerationFailed, result.Metadata.AbortReason)
}

func TestProcess_RejectsShortJobText(t *testing.T) {
	p := NewPipeline(&fakeLLM{}, testConfig(), nil)

	req := testRequest()
	req.JobText = "trop court"
	result, err := p.Process(context.Background(), req)
	require.Error(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, AbortConfigurationInvalid, result.Metadata.AbortReason)
}

func TestProcess_MissingSlotConfigurationAborts(t *testing.T) {
	p := NewPipeline(&fakeLLM{}, &config.Config{}, nil)

	result, err := p.Process(context.Background(), testRequest())
	require.Error(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, AbortConfigurationInvalid, result.Metadata.AbortReason)
}

func TestStructure_Success(t *testing.T) {
	p := NewPipeline(&fakeLLM{}, testConfig(), nil)

	job, usage, err := p.Structure(context.Background(), &types.StructureRequest{JobText: frenchJobText})
	require.NoError(t, err)

	assert.Equal(t, "Ingénieur Data", job.JobTitle)
	assert.Equal(t, "fr", job.Metadata.Language)
	assert.Equal(t, 15, usage.TotalTokens)
}
