package types

// Bullet is one generated (or copied) bullet point. For enhanced slots,
// KeywordsUsed entries must be literal case-insensitive substrings of Text
// and members of the slot's keyword plan.
type Bullet struct {
	Text         string   `json:"text"`
	ATSScore     float64  `json:"ats_score"`
	KeywordsUsed []string `json:"keywords_used"`
}

// ExperienceResult is the finished content for one slot. Created once per
// slot per run, immutable thereafter; consumed by skills assembly, profile
// synthesis, cover-letter generation, and final document assembly.
type ExperienceResult struct {
	SlotIndex        int              `json:"slot_index"`
	ProjectName      string           `json:"project_name"`
	Role             string           `json:"role"`
	Company          string           `json:"company,omitempty"`
	Location         string           `json:"location,omitempty"`
	StartDate        string           `json:"start_date,omitempty"`
	EndDate          string           `json:"end_date,omitempty"`
	Context          string           `json:"context,omitempty"`
	Domains          []string         `json:"domains,omitempty"`
	Bullets          []Bullet         `json:"bullets"`
	AverageATSScore  float64          `json:"average_ats_score"`
	SkillsCovered    []string         `json:"skills_covered"`
	EnhancementLevel EnhancementLevel `json:"enhancement_level,omitempty"`
	PlannedKeywords  []string         `json:"planned_keywords,omitempty"`
	IsDirect         bool             `json:"is_direct"`
}
