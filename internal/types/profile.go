package types

// Experience framing strategies for the profile paragraph.
const (
	ExperienceStrategyAmbiguous = "ambiguous"
	ExperienceStrategyExplicit  = "explicit"
)

// Role-match strategies for the profile paragraph.
const (
	RoleStrategyDirectJobTitle     = "direct_job_role"
	RoleStrategyBackgroundBridge   = "user_background_with_bridge"
	RoleMatchSimilarityThreshold   = 0.75
	AuthenticityHighMatchMinimum   = 0.7
	AuthenticityModerateMinimum    = 0.4
	AuthenticityModeHighMatch      = "high_match"
	AuthenticityModeModerateMatch  = "moderate_match"
	AuthenticityModeLowMatch       = "low_match"
)

// ProfileMetadata records every strategy decision that shaped the profile
// text, for auditability.
type ProfileMetadata struct {
	ExperienceStrategy string   `json:"experience_strategy"`
	RoleStrategy       string   `json:"role_strategy"`
	ProfileRole        string   `json:"profile_role"`
	BridgingPhrase     string   `json:"bridging_phrase,omitempty"`
	RoleMatchScore     float64  `json:"role_semantic_match_score"`
	RelevantDomains    []string `json:"ats_relevant_domains"`
	AuthenticityMode   string   `json:"authenticity_mode"`
	OverlapRatio       float64  `json:"skill_overlap_ratio"`
	ValidatedSkills    int      `json:"validated_skills_count"`
	MustHaveOverlap    int      `json:"must_have_overlap_count"`
	UnvalidatedClaims  []string `json:"unvalidated_claims"`
	AuthenticityScore  float64  `json:"authenticity_score"`
	WordCount          int      `json:"word_count"`
	Language           string   `json:"language"`
	Gender             string   `json:"gender,omitempty"`
}

// Profile is the synthesized profile paragraph plus its decision trail.
type Profile struct {
	Text     string          `json:"text"`
	Metadata ProfileMetadata `json:"metadata"`
}

// CoverLetter is the generated cover-letter body with usage accounting.
type CoverLetter struct {
	Body           string  `json:"body"`
	Language       string  `json:"language"`
	WordCount      int     `json:"word_count"`
	ParagraphCount int     `json:"paragraph_count"`
	Usage          Usage   `json:"usage"`
	CostUSD        float64 `json:"cost_usd"`
}
