package types

// PersonalInfo is the candidate header block of the resume.
type PersonalInfo struct {
	Name   string `json:"name"`
	Title  string `json:"title,omitempty"`
	Degree string `json:"degree,omitempty"`
	Gender string `json:"gender,omitempty"`
}

// Education is one education entry from the user's data, with fields that
// may carry per-language variants.
type Education struct {
	Degree      LocalizedText `json:"degree"`
	Institution string        `json:"institution"`
	Location    LocalizedText `json:"location,omitempty"`
	StartDate   string        `json:"start,omitempty"`
	EndDate     string        `json:"end,omitempty"`
	Description LocalizedText `json:"description,omitempty"`
}

// Certification is one certification entry, passed through to the resume.
type Certification struct {
	Name   string `json:"name"`
	Issuer string `json:"issuer,omitempty"`
	Year   string `json:"year,omitempty"`
}

// UserLanguage is one spoken language of the candidate.
type UserLanguage struct {
	Language    LocalizedText `json:"language"`
	Proficiency LocalizedText `json:"proficiency"`
}

// UserData is the caller-supplied candidate data for one pipeline run.
// The core never reads it from local files: all "databases" arrive with
// the request.
type UserData struct {
	Personal        PersonalInfo      `json:"personal"`
	Contact         map[string]string `json:"contact,omitempty"`
	Projects        ProjectInventory  `json:"projects" validate:"required,min=1"`
	Skills          SkillInventory    `json:"skills,omitempty"`
	EssentialSkills []string          `json:"essential_skills,omitempty"`
	Education       []Education       `json:"education,omitempty"`
	Certifications  []Certification   `json:"certifications,omitempty"`
	Languages       []UserLanguage    `json:"languages,omitempty"`
}

// ExperienceEntry is one experience section of the final resume document,
// in display form (bullets flattened to text, location resolved).
type ExperienceEntry struct {
	Role      string   `json:"role"`
	Company   string   `json:"company"`
	Location  string   `json:"location"`
	StartDate string   `json:"start_date"`
	EndDate   string   `json:"end_date"`
	Bullets   []string `json:"bullets"`
	Context   string   `json:"context,omitempty"`
}

// EducationEntry is one education section of the final resume document.
type EducationEntry struct {
	Degree      string `json:"degree"`
	Institution string `json:"institution"`
	Location    string `json:"location,omitempty"`
	StartDate   string `json:"start_date,omitempty"`
	EndDate     string `json:"end_date,omitempty"`
	Description string `json:"description,omitempty"`
}

// LanguageEntry is one spoken-language section of the final resume document.
type LanguageEntry struct {
	Language    string `json:"language"`
	Proficiency string `json:"proficiency"`
}

// ResumeSkills is the skills section of the final resume document.
type ResumeSkills struct {
	Technical []string `json:"technical"`
	Soft      []string `json:"soft"`
}

// ResumeDocument is the final aggregate. It is owned exclusively by the
// orchestrator for the duration of one request and never persisted by the
// core itself.
type ResumeDocument struct {
	Personal       PersonalInfo      `json:"personal"`
	Contact        map[string]string `json:"contact"`
	Profile        string            `json:"profile"`
	Experience     []ExperienceEntry `json:"experience"`
	Skills         ResumeSkills      `json:"skills"`
	Education      []EducationEntry  `json:"education"`
	Certifications []Certification   `json:"certifications"`
	Languages      []LanguageEntry   `json:"languages"`
}
