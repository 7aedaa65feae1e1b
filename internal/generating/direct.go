package generating

import (
	"github.com/jonathan/resume-pipeline/internal/types"
)

// ExtractDirect builds an experience from a project's achievements verbatim,
// with no LLM involvement. Direct slots carry a zero ATS score and no
// keyword tracking: nothing was optimized, so nothing is claimed.
func ExtractDirect(plan types.SlotPlan, project types.Project, language string) *types.ExperienceResult {
	achievements := project.Achievements.Resolve(language)
	bullets := make([]types.Bullet, 0, len(achievements))
	for _, a := range achievements {
		bullets = append(bullets, types.Bullet{Text: a, ATSScore: 0.0, KeywordsUsed: []string{}})
	}

	return &types.ExperienceResult{
		SlotIndex:       plan.SlotIndex,
		ProjectName:     project.Name,
		Role:            plan.RoleTitle,
		Company:         project.Company,
		Location:        project.Location.Resolve(language),
		StartDate:       project.StartDate,
		EndDate:         project.EndDate,
		Context:         project.Context,
		Domains:         project.Domains,
		Bullets:         bullets,
		AverageATSScore: 0.0,
		SkillsCovered:   []string{},
		PlannedKeywords: plan.KeywordsToUse,
		IsDirect:        true,
	}
}

// DirectRole returns the primary role for a project when the coordinator
// did not supply one: the first available role, else a generic fallback.
func DirectRole(project types.Project) string {
	if len(project.AvailableRoles) > 0 {
		return project.AvailableRoles[0]
	}
	if project.Name != "" {
		return project.Name
	}
	return "Software Engineer"
}
