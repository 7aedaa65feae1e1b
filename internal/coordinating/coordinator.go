// Package coordinating plans which project fills each resume slot and how
// its content should be adapted. One LLM call plans all slots at once, and
// the plan is rejected wholesale if it reuses a project.
package coordinating

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/jonathan/resume-pipeline/internal/config"
	"github.com/jonathan/resume-pipeline/internal/llm"
	"github.com/jonathan/resume-pipeline/internal/prompts"
	"github.com/jonathan/resume-pipeline/internal/types"
)

// Coordinator selects projects and content strategies for resume slots.
type Coordinator struct {
	client llm.Client
	cfg    *config.Config
}

// NewCoordinator creates a Coordinator backed by the given LLM client.
func NewCoordinator(client llm.Client, cfg *config.Config) *Coordinator {
	return &Coordinator{client: client, cfg: cfg}
}

// Coordinate produces a slot plan for every configured experience. Slots in
// the returned result are ordered by slot index regardless of the order the
// model emitted them.
func (c *Coordinator) Coordinate(ctx context.Context, slots []types.SlotConfig, projects types.ProjectInventory, job *types.JobRecord) (*types.CoordinationResult, types.Usage, error) {
	if err := preflight(slots, projects); err != nil {
		return nil, types.Usage{}, err
	}

	temp := c.cfg.TemperatureFor(config.StageCoordinator, nil)
	req := llm.Request{
		Model:       c.cfg.ModelFor(config.StageCoordinator, ""),
		Temperature: &temp,
		System:      prompts.MustGet("coordination.json", "system"),
		Prompt:      buildUserPrompt(slots, projects, job),
	}

	result, err := c.client.GenerateJSON(ctx, req)
	if err != nil {
		return nil, types.Usage{}, &IntegrityError{Message: "coordination call failed", Cause: err}
	}

	var plan types.CoordinationResult
	if err := json.Unmarshal([]byte(result.Text), &plan); err != nil {
		return nil, result.Usage, &IntegrityError{Message: "failed to unmarshal coordination plan", Cause: err}
	}

	if err := validatePlan(&plan, slots); err != nil {
		return nil, result.Usage, err
	}

	sort.Slice(plan.Slots, func(i, j int) bool {
		return plan.Slots[i].SlotIndex < plan.Slots[j].SlotIndex
	})

	return &plan, result.Usage, nil
}

// preflight rejects impossible configurations before any tokens are spent.
func preflight(slots []types.SlotConfig, projects types.ProjectInventory) error {
	if len(slots) == 0 {
		return &config.ConfigurationError{Message: "no experience slots configured"}
	}
	if len(projects) == 0 {
		return &config.ConfigurationError{Message: "project inventory is empty"}
	}
	for i, slot := range slots {
		if len(slot.CandidateProjects) == 0 {
			return &config.ConfigurationError{Message: fmt.Sprintf("slot %d has no candidate projects", i)}
		}
		for _, candidate := range slot.CandidateProjects {
			if _, ok := projects[candidate]; !ok {
				return &config.ConfigurationError{Message: fmt.Sprintf("slot %d references unknown project %q", i, candidate)}
			}
		}
	}
	// With fewer distinct candidates than slots, unique assignment cannot
	// succeed.
	distinct := make(map[string]struct{})
	for _, slot := range slots {
		for _, candidate := range slot.CandidateProjects {
			distinct[candidate] = struct{}{}
		}
	}
	if len(distinct) < len(slots) {
		return &config.ConfigurationError{Message: fmt.Sprintf("%d slots configured but only %d distinct candidate projects", len(slots), len(distinct))}
	}
	return nil
}

// validatePlan enforces the structural guarantees a usable plan must hold.
func validatePlan(plan *types.CoordinationResult, slots []types.SlotConfig) error {
	if len(plan.Slots) != len(slots) {
		return &IntegrityError{Message: fmt.Sprintf("expected %d slot plans, got %d", len(slots), len(plan.Slots))}
	}

	seenIndexes := make(map[int]struct{}, len(plan.Slots))
	usedProjects := make(map[string]int, len(plan.Slots))
	for _, sp := range plan.Slots {
		if sp.SlotIndex < 0 || sp.SlotIndex >= len(slots) {
			return &IntegrityError{Message: fmt.Sprintf("slot index %d out of range", sp.SlotIndex)}
		}
		if _, dup := seenIndexes[sp.SlotIndex]; dup {
			return &IntegrityError{Message: fmt.Sprintf("slot index %d planned twice", sp.SlotIndex)}
		}
		seenIndexes[sp.SlotIndex] = struct{}{}

		if prev, used := usedProjects[sp.SelectedProject]; used {
			return &IntegrityError{Message: fmt.Sprintf("project %q assigned to slots %d and %d", sp.SelectedProject, prev, sp.SlotIndex)}
		}
		usedProjects[sp.SelectedProject] = sp.SlotIndex

		if !contains(slots[sp.SlotIndex].CandidateProjects, sp.SelectedProject) {
			return &IntegrityError{Message: fmt.Sprintf("project %q is not a candidate for slot %d", sp.SelectedProject, sp.SlotIndex)}
		}
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

// buildUserPrompt assembles the coordination prompt. Only projects that are
// candidates for at least one slot are included, in sorted order so the
// prompt is deterministic for a given input.
func buildUserPrompt(slots []types.SlotConfig, projects types.ProjectInventory, job *types.JobRecord) string {
	lang := job.Metadata.Language

	var experiences strings.Builder
	for i, slot := range slots {
		roleStrategy := slot.RoleStrategy
		if roleStrategy == "" {
			roleStrategy = types.StrategyEnhanced
		}
		contentStrategy := slot.ContentStrategy
		if contentStrategy == "" {
			contentStrategy = types.StrategyEnhanced
		}
		fmt.Fprintf(&experiences, "\nEXPERIENCE %d:\n  Candidate Projects: %s\n  Role Strategy: %s\n  Content Strategy: %s\n",
			i, strings.Join(slot.CandidateProjects, ", "), roleStrategy, contentStrategy)
	}

	candidateSet := make(map[string]struct{})
	for _, slot := range slots {
		for _, candidate := range slot.CandidateProjects {
			candidateSet[candidate] = struct{}{}
		}
	}
	candidateNames := make([]string, 0, len(candidateSet))
	for name := range candidateSet {
		candidateNames = append(candidateNames, name)
	}
	sort.Strings(candidateNames)

	var projectsSummary strings.Builder
	for _, name := range candidateNames {
		p := projects[name]
		techs := p.Technologies
		suffix := ""
		if len(techs) > 10 {
			techs = techs[:10]
			suffix = "..."
		}
		fmt.Fprintf(&projectsSummary, "\n  %s:\n    Context: %s\n    Domains: %s\n    Technologies: %s%s\n",
			name, p.Context, strings.Join(p.Domains, ", "), strings.Join(techs, ", "), suffix)
		if len(p.AvailableRoles) > 0 {
			fmt.Fprintf(&projectsSummary, "    Available Roles: %s\n", strings.Join(p.AvailableRoles, ", "))
		}
		fmt.Fprintf(&projectsSummary, "    Achievements: %d listed\n", len(p.Achievements.Resolve(lang)))
	}

	responsibilities := job.Responsibilities
	if len(responsibilities) > 10 {
		responsibilities = responsibilities[:10]
	}
	var respLines strings.Builder
	for i, r := range responsibilities {
		fmt.Fprintf(&respLines, "  %d. %s\n", i+1, r)
	}

	return prompts.Format(prompts.MustGet("coordination.json", "user"), map[string]string{
		"JobTitle":           job.JobTitle,
		"CompanyName":        job.CompanyName,
		"MustHave":           strings.Join(job.TechnicalPriorities.MustHave, ", "),
		"Preferred":          strings.Join(job.TechnicalPriorities.Preferred, ", "),
		"AllTechnicalSkills": strings.Join(job.TechnicalSkills, ", "),
		"Responsibilities":   respLines.String(),
		"NumSlots":           fmt.Sprintf("%d", len(slots)),
		"Experiences":        experiences.String(),
		"Projects":           projectsSummary.String(),
	})
}
