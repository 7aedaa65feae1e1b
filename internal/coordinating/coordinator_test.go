package coordinating

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-pipeline/internal/config"
	"github.com/jonathan/resume-pipeline/internal/llm"
	"github.com/jonathan/resume-pipeline/internal/types"
)

// MockLLMClient implements llm.Client for testing
type MockLLMClient struct {
	GenerateJSONFunc func(ctx context.Context, req llm.Request) (*llm.Result, error)
}

func (m *MockLLMClient) GenerateJSON(ctx context.Context, req llm.Request) (*llm.Result, error) {
	if m.GenerateJSONFunc != nil {
		return m.GenerateJSONFunc(ctx, req)
	}
	return &llm.Result{Text: "{}"}, nil
}

func (m *MockLLMClient) GenerateText(_ context.Context, _ llm.Request) (*llm.Result, error) {
	return &llm.Result{}, nil
}

func (m *MockLLMClient) Embed(_ context.Context, _, _ string) ([]float32, error) {
	return []float32{1}, nil
}

func (m *MockLLMClient) Close() error { return nil }

func testInventory() types.ProjectInventory {
	return types.ProjectInventory{
		"alpha": {Name: "alpha", Context: "Fraud detection platform", Technologies: []string{"Go", "Kafka"}, AvailableRoles: []string{"Backend Engineer"}},
		"beta":  {Name: "beta", Context: "Realtime analytics", Technologies: []string{"Python", "Spark"}},
		"gamma": {Name: "gamma", Context: "Internal CLI tooling", Technologies: []string{"Go"}},
	}
}

func testJob() *types.JobRecord {
	return &types.JobRecord{
		JobTitle:    "Data Engineer",
		CompanyName: "Acme",
		TechnicalPriorities: types.TechnicalPriorities{
			MustHave:  []string{"Python", "Spark"},
			Preferred: []string{"Kafka"},
		},
		TechnicalSkills:  []string{"Python", "Spark", "Kafka"},
		Responsibilities: []string{"Build data pipelines", "Own data quality"},
		Metadata:         types.ExtractionMetadata{Language: "en"},
	}
}

func testSlots() []types.SlotConfig {
	return []types.SlotConfig{
		{CandidateProjects: []string{"alpha", "beta"}, ContentStrategy: types.StrategyEnhanced},
		{CandidateProjects: []string{"beta", "gamma"}, ContentStrategy: types.StrategyDirect},
	}
}

func planJSON(t *testing.T, slots []types.SlotPlan) string {
	t.Helper()
	out, err := json.Marshal(types.CoordinationResult{
		Slots: slots,
		OverallStrategy: types.OverallStrategy{
			SkillDistributionRationale: "spread must-haves across slots",
			EstimatedATSCoverage:       80,
		},
	})
	require.NoError(t, err)
	return string(out)
}

func TestCoordinate_Success_SortsByIndex(t *testing.T) {
	mock := &MockLLMClient{
		GenerateJSONFunc: func(_ context.Context, req llm.Request) (*llm.Result, error) {
			// Prompt contains only candidate projects, never the whole inventory.
			assert.Contains(t, req.Prompt, "alpha")
			assert.Contains(t, req.Prompt, "Candidate Projects: alpha, beta")
			// Out-of-order plan to exercise re-sorting.
			return &llm.Result{Text: planJSON(t, []types.SlotPlan{
				{SlotIndex: 1, SelectedProject: "gamma", RoleTitle: "Tooling Engineer", ContentStrategy: types.StrategyDirect},
				{SlotIndex: 0, SelectedProject: "beta", RoleTitle: "Data Engineer", ContentStrategy: types.StrategyEnhanced, EnhancementLevel: types.EnhancementModerate},
			})}, nil
		},
	}

	coord := NewCoordinator(mock, &config.Config{})
	plan, _, err := coord.Coordinate(context.Background(), testSlots(), testInventory(), testJob())
	require.NoError(t, err)

	require.Len(t, plan.Slots, 2)
	assert.Equal(t, 0, plan.Slots[0].SlotIndex)
	assert.Equal(t, "beta", plan.Slots[0].SelectedProject)
	assert.Equal(t, 1, plan.Slots[1].SlotIndex)
	assert.Equal(t, "gamma", plan.Slots[1].SelectedProject)
}

func TestCoordinate_RejectsDuplicateProject(t *testing.T) {
	mock := &MockLLMClient{
		GenerateJSONFunc: func(_ context.Context, _ llm.Request) (*llm.Result, error) {
			return &llm.Result{Text: planJSON(t, []types.SlotPlan{
				{SlotIndex: 0, SelectedProject: "beta"},
				{SlotIndex: 1, SelectedProject: "beta"},
			})}, nil
		},
	}

	coord := NewCoordinator(mock, &config.Config{})
	_, _, err := coord.Coordinate(context.Background(), testSlots(), testInventory(), testJob())

	var ie *IntegrityError
	require.ErrorAs(t, err, &ie)
	assert.Contains(t, err.Error(), `"beta"`)
}

func TestCoordinate_RejectsNonCandidateProject(t *testing.T) {
	mock := &MockLLMClient{
		GenerateJSONFunc: func(_ context.Context, _ llm.Request) (*llm.Result, error) {
			// gamma is only a candidate for slot 1.
			return &llm.Result{Text: planJSON(t, []types.SlotPlan{
				{SlotIndex: 0, SelectedProject: "gamma"},
				{SlotIndex: 1, SelectedProject: "beta"},
			})}, nil
		},
	}

	coord := NewCoordinator(mock, &config.Config{})
	_, _, err := coord.Coordinate(context.Background(), testSlots(), testInventory(), testJob())

	var ie *IntegrityError
	require.ErrorAs(t, err, &ie)
	assert.Contains(t, err.Error(), "not a candidate")
}

func TestCoordinate_RejectsWrongSlotCount(t *testing.T) {
	mock := &MockLLMClient{
		GenerateJSONFunc: func(_ context.Context, _ llm.Request) (*llm.Result, error) {
			return &llm.Result{Text: planJSON(t, []types.SlotPlan{
				{SlotIndex: 0, SelectedProject: "alpha"},
			})}, nil
		},
	}

	coord := NewCoordinator(mock, &config.Config{})
	_, _, err := coord.Coordinate(context.Background(), testSlots(), testInventory(), testJob())

	var ie *IntegrityError
	require.ErrorAs(t, err, &ie)
}

func TestCoordinate_PreflightFailures(t *testing.T) {
	coord := NewCoordinator(&MockLLMClient{
		GenerateJSONFunc: func(_ context.Context, _ llm.Request) (*llm.Result, error) {
			t.Fatal("no LLM call expected when preflight fails")
			return nil, nil
		},
	}, &config.Config{})

	cases := []struct {
		name     string
		slots    []types.SlotConfig
		projects types.ProjectInventory
	}{
		{
			name:     "no slots",
			slots:    nil,
			projects: testInventory(),
		},
		{
			name:     "empty candidate pool",
			slots:    []types.SlotConfig{{CandidateProjects: nil}},
			projects: testInventory(),
		},
		{
			name:     "unknown project",
			slots:    []types.SlotConfig{{CandidateProjects: []string{"delta"}}},
			projects: testInventory(),
		},
		{
			name: "fewer candidates than slots",
			slots: []types.SlotConfig{
				{CandidateProjects: []string{"alpha"}},
				{CandidateProjects: []string{"alpha"}},
			},
			projects: testInventory(),
		},
		{
			name:     "empty inventory",
			slots:    testSlots(),
			projects: types.ProjectInventory{},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := coord.Coordinate(context.Background(), tc.slots, tc.projects, testJob())
			var ce *config.ConfigurationError
			require.ErrorAs(t, err, &ce, fmt.Sprintf("expected configuration error, got %v", err))
		})
	}
}
