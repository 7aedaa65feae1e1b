// Package types provides type definitions for structured data used throughout the resume-pipeline system.
//
//nolint:revive // types is a standard Go package name pattern
package types

// Language codes supported by the pipeline.
const (
	LanguageFrench  = "fr"
	LanguageEnglish = "en"
)

// RemotePolicy values allowed in a job location.
const (
	RemotePolicyRemote       = "remote"
	RemotePolicyHybrid       = "hybrid"
	RemotePolicyOnSite       = "on-site"
	RemotePolicyNotSpecified = "not_specified"
)

// JobRecord represents a structured job posting extracted from raw text.
// Every array field is always present, even when empty — the extraction
// schema forbids optional fields.
type JobRecord struct {
	JobTitle            string              `json:"job_title"`
	CompanyName         string              `json:"company_name"`
	CompanyDescription  string              `json:"company_description,omitempty"`
	Location            JobLocation         `json:"location"`
	TechnicalSkills     []string            `json:"technical_skills"`
	SoftSkills          []string            `json:"soft_skills"`
	ExperienceRequired  ExperienceRequired  `json:"experience_required"`
	EducationRequired   EducationRequired   `json:"education_required"`
	Languages           []LanguageRequired  `json:"languages"`
	Responsibilities    []string            `json:"responsibilities"`
	Keywords            []string            `json:"keywords"`
	CompanyValues       []string            `json:"company_values"`
	ActionVerbs         []string            `json:"action_verbs"`
	TechnicalPriorities TechnicalPriorities `json:"technical_priorities"`
	DomainTerminology   []string            `json:"domain_terminology"`
	Metadata            ExtractionMetadata  `json:"metadata"`
}

// JobLocation holds the posting's city and remote-work policy.
type JobLocation struct {
	City         string `json:"city"`
	RemotePolicy string `json:"remote_policy"`
}

// ExperienceRequired captures the posting's experience demands.
// Years stays free text ("1-3 ans", "5+ years", "Débutant accepté").
type ExperienceRequired struct {
	Years           string   `json:"years"`
	RelevantDomains []string `json:"relevant_domains"`
}

// EducationRequired captures the posting's education demands.
type EducationRequired struct {
	Level  string   `json:"level"`
	Fields []string `json:"fields"`
}

// LanguageRequired is a spoken-language requirement with proficiency level.
type LanguageRequired struct {
	Name  string `json:"name"`
	Level string `json:"level"`
}

// TechnicalPriorities partitions technical_skills by mention frequency:
// skills mentioned 2+ times (or explicitly required) are must_have, the
// rest are preferred.
type TechnicalPriorities struct {
	MustHave  []string `json:"must_have"`
	Preferred []string `json:"preferred"`
}

// ExtractionMetadata is populated locally by the extractor, never by the
// model — providers are not trusted with timestamps.
type ExtractionMetadata struct {
	SourceURL      string `json:"source_url"`
	ExtractionDate string `json:"extraction_date"`
	Language       string `json:"language"`
}

// Usage reports token counts for one LLM call.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// Add accumulates another call's usage into u.
func (u *Usage) Add(other Usage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
	u.TotalTokens += other.TotalTokens
}
