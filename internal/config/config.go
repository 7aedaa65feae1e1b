// Package config provides typed configuration for the pipeline with a
// layered resolution order: per-request override, then stage-specific
// setting, then module default, then global default.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/resume-pipeline/internal/types"
)

// Pipeline stage names, used as keys into Config.Stages.
const (
	StageStructuring = "structuring"
	StageCoordinator = "coordinator"
	StageBullets     = "bullets"
	StageProfile     = "profile"
	StageCoverLetter = "cover_letter"
)

// Default knobs, applied when neither the config file nor the request
// overrides them.
const (
	DefaultModel                 = "gemini-2.5-flash"
	DefaultEmbeddingModel        = "text-embedding-004"
	DefaultBulletsPerSlot        = 4
	DefaultMaxBulletLength       = 150
	DefaultTargetTechnicalSkills = 25
	DefaultSoftSkillCount        = 5
	DefaultCoverLetterMaxWords   = 400

	defaultInputPerMillion  = 0.15
	defaultOutputPerMillion = 0.60
)

// Stage holds per-stage model tuning. A nil Temperature means "use the
// stage's built-in default".
type Stage struct {
	Model       string   `json:"model,omitempty"`
	Temperature *float64 `json:"temperature,omitempty" validate:"omitempty,gte=0,lte=2"`
}

// Pricing is the per-million-token price for one model, used for cost
// reporting in run metadata.
type Pricing struct {
	InputPerMillion  float64 `json:"input_per_million" validate:"gte=0"`
	OutputPerMillion float64 `json:"output_per_million" validate:"gte=0"`
}

// Config is the full pipeline configuration. All fields are optional in the
// JSON file; zero values fall back to defaults.
type Config struct {
	DefaultModel   string           `json:"default_model,omitempty"`
	EmbeddingModel string           `json:"embedding_model,omitempty"`
	Stages         map[string]Stage `json:"stages,omitempty" validate:"omitempty,dive"`

	BulletsPerSlot        int `json:"bullets_per_slot,omitempty" validate:"omitempty,min=1,max=10"`
	MaxBulletLength       int `json:"max_bullet_length,omitempty" validate:"omitempty,min=50"`
	TargetTechnicalSkills int `json:"target_technical_skills,omitempty" validate:"omitempty,min=1"`
	SoftSkillCount        int `json:"num_soft_skills,omitempty" validate:"omitempty,min=0"`

	// Experiences describes the resume slots to fill, in order. Empty means
	// the caller must supply slots per request.
	Experiences []types.SlotConfig `json:"experiences,omitempty" validate:"omitempty,min=1,dive"`

	// Pricing maps model name to token pricing. Models absent from the map
	// use the default pricing.
	Pricing map[string]Pricing `json:"pricing,omitempty" validate:"omitempty,dive"`

	// ForceLanguage pins the output language instead of detecting it from
	// the job posting ("fr" or "en").
	ForceLanguage string `json:"force_language,omitempty" validate:"omitempty,oneof=fr en"`

	// LanguageIndicators overrides the detection word lists, keyed by
	// "fr" and "en". Missing keys keep the built-in lists.
	LanguageIndicators map[string][]string `json:"language_indicators,omitempty" validate:"omitempty,dive,keys,oneof=fr en,endkeys,min=1"`

	DatabaseURL string `json:"database_url,omitempty"`
	Verbose     bool   `json:"verbose,omitempty"`
}

// stageTemperatureDefaults are the built-in per-stage temperatures.
var stageTemperatureDefaults = map[string]float64{
	StageStructuring: 0.0,
	StageCoordinator: 0.7,
	StageBullets:     0.6,
	StageProfile:     0.7,
	StageCoverLetter: 0.7,
}

// Load reads configuration from a JSON file.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, &ConfigurationError{Message: "config path is empty"}
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, &ConfigurationError{Message: "failed to get current directory", Cause: err}
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigurationError{Message: fmt.Sprintf("failed to read config file %s", path), Cause: err}
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, &ConfigurationError{Message: "failed to parse config JSON", Cause: err}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks numeric ranges and enum fields.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return &ConfigurationError{Message: "invalid configuration", Cause: err}
	}
	for name := range c.Stages {
		if _, ok := stageTemperatureDefaults[name]; !ok {
			return &ConfigurationError{Message: fmt.Sprintf("unknown pipeline stage %q in config", name)}
		}
	}
	return nil
}

// ModelFor resolves the model for a stage: explicit override, then the
// stage's configured model, then the configured default, then the built-in
// default.
func (c *Config) ModelFor(stage, override string) string {
	if override != "" {
		return override
	}
	if s, ok := c.Stages[stage]; ok && s.Model != "" {
		return s.Model
	}
	if c.DefaultModel != "" {
		return c.DefaultModel
	}
	return DefaultModel
}

// TemperatureFor resolves the sampling temperature for a stage: explicit
// override, then the stage's configured temperature, then the stage's
// built-in default.
func (c *Config) TemperatureFor(stage string, override *float64) float64 {
	if override != nil {
		return *override
	}
	if s, ok := c.Stages[stage]; ok && s.Temperature != nil {
		return *s.Temperature
	}
	return stageTemperatureDefaults[stage]
}

// PricingFor returns the token pricing for a model, falling back to the
// default rates for unlisted models.
func (c *Config) PricingFor(model string) Pricing {
	if p, ok := c.Pricing[model]; ok {
		return p
	}
	return Pricing{InputPerMillion: defaultInputPerMillion, OutputPerMillion: defaultOutputPerMillion}
}

// CostUSD computes the dollar cost of a usage record under the model's
// pricing.
func (c *Config) CostUSD(model string, usage types.Usage) float64 {
	p := c.PricingFor(model)
	return float64(usage.InputTokens)/1e6*p.InputPerMillion +
		float64(usage.OutputTokens)/1e6*p.OutputPerMillion
}

// EmbeddingModelName returns the configured embedding model or the default.
func (c *Config) EmbeddingModelName() string {
	if c.EmbeddingModel != "" {
		return c.EmbeddingModel
	}
	return DefaultEmbeddingModel
}

// BulletsPerSlotOrDefault returns the configured bullet count per slot.
func (c *Config) BulletsPerSlotOrDefault() int {
	if c.BulletsPerSlot > 0 {
		return c.BulletsPerSlot
	}
	return DefaultBulletsPerSlot
}

// MaxBulletLengthOrDefault returns the configured bullet length ceiling.
func (c *Config) MaxBulletLengthOrDefault() int {
	if c.MaxBulletLength > 0 {
		return c.MaxBulletLength
	}
	return DefaultMaxBulletLength
}

// TargetTechnicalSkillsOrDefault returns the technical skill list target size.
func (c *Config) TargetTechnicalSkillsOrDefault() int {
	if c.TargetTechnicalSkills > 0 {
		return c.TargetTechnicalSkills
	}
	return DefaultTargetTechnicalSkills
}

// SoftSkillCountOrDefault returns the soft skill list size.
func (c *Config) SoftSkillCountOrDefault() int {
	if c.SoftSkillCount > 0 {
		return c.SoftSkillCount
	}
	return DefaultSoftSkillCount
}

// ApplyOverrides returns a copy of the config with per-request override
// values layered on top. The receiver is not modified.
func (c *Config) ApplyOverrides(o *types.ConfigOverride) *Config {
	out := *c
	if o == nil {
		return &out
	}
	if o.Model != "" {
		out.DefaultModel = o.Model
	}
	if o.BulletsPerSlot > 0 {
		out.BulletsPerSlot = o.BulletsPerSlot
	}
	if o.MaxBulletLength > 0 {
		out.MaxBulletLength = o.MaxBulletLength
	}
	if o.TargetTechnicalSkills > 0 {
		out.TargetTechnicalSkills = o.TargetTechnicalSkills
	}
	if o.SoftSkillCount > 0 {
		out.SoftSkillCount = o.SoftSkillCount
	}
	if len(o.Experiences) > 0 {
		out.Experiences = o.Experiences
	}
	if len(o.Stages) > 0 {
		merged := make(map[string]Stage, len(c.Stages)+len(o.Stages))
		for k, v := range c.Stages {
			merged[k] = v
		}
		for k, v := range o.Stages {
			s := merged[k]
			if v.Model != "" {
				s.Model = v.Model
			}
			if v.Temperature != nil {
				s.Temperature = v.Temperature
			}
			merged[k] = s
		}
		out.Stages = merged
	}
	if o.Temperature != nil {
		// A request-level temperature applies to every stage except
		// structuring, which stays deterministic.
		merged := make(map[string]Stage, len(stageTemperatureDefaults))
		for k, v := range out.Stages {
			merged[k] = v
		}
		for _, stage := range []string{StageCoordinator, StageBullets, StageProfile, StageCoverLetter} {
			s := merged[stage]
			if s.Temperature == nil {
				s.Temperature = o.Temperature
			}
			merged[stage] = s
		}
		out.Stages = merged
	}
	return &out
}
