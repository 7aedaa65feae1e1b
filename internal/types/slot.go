package types

// Strategy selects between verbatim and LLM-adapted content for a slot's
// role title or bullet content.
type Strategy string

// Strategy values.
const (
	StrategyDirect   Strategy = "direct"
	StrategyEnhanced Strategy = "enhanced"
)

// EnhancementLevel controls how aggressively a slot's content is adapted
// toward the job posting.
type EnhancementLevel string

// EnhancementLevel values, from most to least authentic.
const (
	EnhancementConservative EnhancementLevel = "conservative"
	EnhancementModerate     EnhancementLevel = "moderate"
	EnhancementAggressive   EnhancementLevel = "aggressive"
)

// SlotConfig configures one experience slot of the output resume: a pool
// of candidate projects and the role/content strategies to apply.
type SlotConfig struct {
	CandidateProjects []string `json:"candidate_projects" validate:"required,min=1"`
	RoleStrategy      Strategy `json:"role_strategy" validate:"omitempty,oneof=direct enhanced"`
	ContentStrategy   Strategy `json:"content_strategy" validate:"omitempty,oneof=direct enhanced"`
}

// SlotPlan is the coordinator's strategic plan for one slot. SelectedProject
// must be unique across all plans of one run; the coordinator enforces this
// post-hoc rather than trusting the model.
type SlotPlan struct {
	SlotIndex                     int              `json:"slot_index"`
	SelectedProject               string           `json:"selected_project"`
	SelectionReasoning            string           `json:"selection_reasoning"`
	RoleTitle                     string           `json:"role_title"`
	RoleSource                    Strategy         `json:"role_source"`
	ContentStrategy               Strategy         `json:"content_strategy"`
	KeywordsToUse                 []string         `json:"keywords_to_use"`
	EnhancementLevel              EnhancementLevel `json:"enhancement_level"`
	ResponsibilitiesToIncorporate []string         `json:"responsibilities_to_incorporate"`
}

// OverallStrategy is the coordinator's run-level rationale, kept for
// auditability.
type OverallStrategy struct {
	SkillDistributionRationale string  `json:"skill_distribution_rationale"`
	RoleDiversityRationale     string  `json:"role_diversity_rationale"`
	EstimatedATSCoverage       float64 `json:"estimated_ats_coverage"`
	DirectVsEnhancedRationale  string  `json:"direct_vs_enhanced_rationale"`
}

// CoordinationResult bundles the per-slot plans with the run-level strategy.
type CoordinationResult struct {
	Slots           []SlotPlan      `json:"selected_experiences"`
	OverallStrategy OverallStrategy `json:"overall_strategy"`
}
