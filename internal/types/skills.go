package types

// SkillInfo carries per-skill display metadata from the user's skill
// inventory. DisplayOrder groups skills by category for the final list;
// skills without an order sort last.
type SkillInfo struct {
	Category     string `json:"category,omitempty"`
	DisplayOrder int    `json:"order,omitempty"`
}

// SkillInventory maps skill name to its inventory metadata.
type SkillInventory map[string]SkillInfo

// SkillCounts breaks down where each selected technical skill came from.
type SkillCounts struct {
	Essential     int `json:"essential_count"`
	Validated     int `json:"validated_count"`
	JobRequired   int `json:"job_required_count"`
	Complementary int `json:"complementary_count"`
	Technical     int `json:"technical_count"`
	Soft          int `json:"soft_count"`
	Total         int `json:"total_skills"`
}

// SkillsList is the assembled resume skill section. Technical skills are
// deduplicated case/punctuation-insensitively and ordered by inventory
// display order, then alphabetically.
type SkillsList struct {
	Technical []string    `json:"technical_skills"`
	Soft      []string    `json:"soft_skills"`
	Counts    SkillCounts `json:"metadata"`
}
