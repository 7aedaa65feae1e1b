package types

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// MinJobTextLength is the minimum number of characters (after trimming) a
// job posting must contain to be worth sending to the extractor.
const MinJobTextLength = 50

// StructureRequest asks for a standalone structured extraction of a job
// posting, without running the rest of the pipeline.
type StructureRequest struct {
	JobText   string `json:"job_text" validate:"required"`
	SourceURL string `json:"source_url,omitempty" validate:"omitempty,url"`
	Model     string `json:"model,omitempty"`
}

// Validate checks the StructureRequest, including the trimmed-length floor on
// the job text.
func (r *StructureRequest) Validate() error {
	validate := validator.New()
	if err := validate.Struct(r); err != nil {
		return err
	}
	if len(strings.TrimSpace(r.JobText)) < MinJobTextLength {
		return fmt.Errorf("job_text must contain at least %d non-whitespace-padded characters", MinJobTextLength)
	}
	return nil
}

// ProcessRequest runs the full pipeline: extraction, coordination, bullet
// generation, skills, profile and cover letter.
type ProcessRequest struct {
	JobText   string          `json:"job_text" validate:"required"`
	SourceURL string          `json:"source_url,omitempty" validate:"omitempty,url"`
	UserData  *UserData       `json:"user_data" validate:"required"`
	Overrides *ConfigOverride `json:"config,omitempty"`
}

// ConfigOverride carries per-request tuning knobs. Zero values mean "use the
// configured default".
type ConfigOverride struct {
	Model                 string             `json:"model,omitempty"`
	Temperature           *float64           `json:"temperature,omitempty" validate:"omitempty,gte=0,lte=2"`
	BulletsPerSlot        int                `json:"bullets_per_slot,omitempty" validate:"omitempty,min=1,max=10"`
	MaxBulletLength       int                `json:"max_bullet_length,omitempty" validate:"omitempty,min=50"`
	TargetTechnicalSkills int                `json:"target_technical_skills,omitempty" validate:"omitempty,min=1"`
	SoftSkillCount        int                `json:"num_soft_skills,omitempty" validate:"omitempty,min=0"`
	Experiences           []SlotConfig       `json:"experiences,omitempty" validate:"omitempty,min=1,dive"`
	Stages                map[string]Stage   `json:"stages,omitempty"`
	SkipCoverLetter       bool               `json:"skip_cover_letter,omitempty"`
}

// Stage overrides model and temperature for a single pipeline stage.
type Stage struct {
	Model       string   `json:"model,omitempty"`
	Temperature *float64 `json:"temperature,omitempty" validate:"omitempty,gte=0,lte=2"`
}

// Validate checks the ProcessRequest and its nested user data.
func (r *ProcessRequest) Validate() error {
	validate := validator.New()
	if err := validate.Struct(r); err != nil {
		return err
	}
	if len(strings.TrimSpace(r.JobText)) < MinJobTextLength {
		return fmt.Errorf("job_text must contain at least %d non-whitespace-padded characters", MinJobTextLength)
	}
	return nil
}

// Validate checks that the user data carries at least one project.
func (u *UserData) Validate() error {
	validate := validator.New()
	return validate.Struct(u)
}
