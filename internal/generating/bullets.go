// Package generating produces the bullet content for each resume slot:
// LLM-adapted bullets for enhanced slots, verbatim achievements for direct
// slots.
package generating

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/jonathan/resume-pipeline/internal/config"
	"github.com/jonathan/resume-pipeline/internal/llm"
	"github.com/jonathan/resume-pipeline/internal/prompts"
	"github.com/jonathan/resume-pipeline/internal/types"
)

// Generator produces experience content for resume slots.
type Generator struct {
	client llm.Client
	cfg    *config.Config
}

// NewGenerator creates a Generator backed by the given LLM client.
func NewGenerator(client llm.Client, cfg *config.Config) *Generator {
	return &Generator{client: client, cfg: cfg}
}

// bulletsResponse is the wire shape of the bullet generation call.
type bulletsResponse struct {
	Bullets []types.Bullet `json:"bullets"`
}

// GenerateEnhanced runs one LLM call for an enhanced slot and hardens the
// result: claimed keywords are re-verified locally against the bullet text
// and the planned keyword list before they count.
func (g *Generator) GenerateEnhanced(ctx context.Context, plan types.SlotPlan, project types.Project, job *types.JobRecord) (*types.ExperienceResult, types.Usage, error) {
	language := job.Metadata.Language
	numBullets := g.cfg.BulletsPerSlotOrDefault()
	maxLength := g.cfg.MaxBulletLengthOrDefault()

	level := plan.EnhancementLevel
	if level == "" {
		level = types.EnhancementModerate
	}

	temp := g.cfg.TemperatureFor(config.StageBullets, nil)
	req := llm.Request{
		Model:       g.cfg.ModelFor(config.StageBullets, ""),
		Temperature: &temp,
		System:      buildSystemPrompt(numBullets, maxLength, language, level),
		Prompt:      buildUserPrompt(plan, project, job, numBullets, language),
	}

	result, err := g.client.GenerateJSON(ctx, req)
	if err != nil {
		return nil, types.Usage{}, &GenerationError{SlotIndex: plan.SlotIndex, Message: "bullet generation call failed", Cause: err}
	}

	var resp bulletsResponse
	if err := json.Unmarshal([]byte(result.Text), &resp); err != nil {
		return nil, result.Usage, &GenerationError{SlotIndex: plan.SlotIndex, Message: "failed to unmarshal bullets", Cause: err}
	}
	if len(resp.Bullets) != numBullets {
		return nil, result.Usage, &GenerationError{SlotIndex: plan.SlotIndex, Message: fmt.Sprintf("expected %d bullets, got %d", numBullets, len(resp.Bullets))}
	}

	bullets := make([]types.Bullet, len(resp.Bullets))
	var scoreSum float64
	seen := make(map[string]struct{})
	var skillsCovered []string
	for i, b := range resp.Bullets {
		b.Text = strings.TrimSpace(b.Text)
		if b.Text == "" {
			return nil, result.Usage, &GenerationError{SlotIndex: plan.SlotIndex, Message: fmt.Sprintf("bullet %d is empty", i)}
		}
		if b.ATSScore < 0 {
			b.ATSScore = 0
		}
		if b.ATSScore > 1 {
			b.ATSScore = 1
		}
		b.KeywordsUsed = verifyKeywords(b.Text, b.KeywordsUsed, plan.KeywordsToUse)
		for _, kw := range b.KeywordsUsed {
			if _, dup := seen[kw]; !dup {
				seen[kw] = struct{}{}
				skillsCovered = append(skillsCovered, kw)
			}
		}
		scoreSum += b.ATSScore
		bullets[i] = b
	}

	exp := &types.ExperienceResult{
		SlotIndex:        plan.SlotIndex,
		ProjectName:      project.Name,
		Role:             plan.RoleTitle,
		Company:          project.Company,
		Location:         project.Location.Resolve(language),
		StartDate:        project.StartDate,
		EndDate:          project.EndDate,
		Context:          project.Context,
		Domains:          project.Domains,
		Bullets:          bullets,
		AverageATSScore:  round2(scoreSum / float64(len(bullets))),
		SkillsCovered:    skillsCovered,
		EnhancementLevel: level,
		PlannedKeywords:  plan.KeywordsToUse,
	}
	return exp, result.Usage, nil
}

// verifyKeywords keeps only keywords that are literally present in the
// bullet text (case-insensitive) AND appear in the planned list. Models
// routinely claim semantic matches; those do not count.
func verifyKeywords(text string, claimed, planned []string) []string {
	lowerText := strings.ToLower(text)
	plannedSet := make(map[string]string, len(planned))
	for _, kw := range planned {
		plannedSet[strings.ToLower(kw)] = kw
	}

	verified := make([]string, 0, len(claimed))
	seen := make(map[string]struct{}, len(claimed))
	for _, kw := range claimed {
		key := strings.ToLower(strings.TrimSpace(kw))
		if key == "" {
			continue
		}
		canonical, isPlanned := plannedSet[key]
		if !isPlanned {
			continue
		}
		if !strings.Contains(lowerText, key) {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		verified = append(verified, canonical)
	}
	return verified
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

func buildSystemPrompt(numBullets, maxLength int, language string, level types.EnhancementLevel) string {
	return prompts.Format(prompts.MustGet("bullets.json", "system"), map[string]string{
		"NumBullets":  fmt.Sprintf("%d", numBullets),
		"MaxLength":   fmt.Sprintf("%d", maxLength),
		"Format":      prompts.MustGetLang("bullets.json", "format", language),
		"Examples":    prompts.MustGetLang("bullets.json", "examples", language),
		"Enhancement": prompts.MustGet("bullets.json", "enhancement_"+string(level)),
	})
}

func buildUserPrompt(plan types.SlotPlan, project types.Project, job *types.JobRecord, numBullets int, language string) string {
	var achievements strings.Builder
	for i, a := range project.Achievements.Resolve(language) {
		fmt.Fprintf(&achievements, "  %d. %s\n", i+1, a)
	}
	var responsibilities strings.Builder
	for i, r := range plan.ResponsibilitiesToIncorporate {
		fmt.Fprintf(&responsibilities, "  %d. %s\n", i+1, r)
	}

	return prompts.Format(prompts.MustGet("bullets.json", "user"), map[string]string{
		"JobTitle":         job.JobTitle,
		"CompanyName":      job.CompanyName,
		"ProjectName":      project.Name,
		"Context":          project.Context,
		"Technologies":     strings.Join(project.Technologies, ", "),
		"Achievements":     achievements.String(),
		"Reasoning":        plan.SelectionReasoning,
		"TargetRole":       plan.RoleTitle,
		"EnhancementLevel": string(plan.EnhancementLevel),
		"Keywords":         strings.Join(plan.KeywordsToUse, ", "),
		"Responsibilities": responsibilities.String(),
		"MustHave":         strings.Join(job.TechnicalPriorities.MustHave, ", "),
		"NumBullets":       fmt.Sprintf("%d", numBullets),
	})
}
