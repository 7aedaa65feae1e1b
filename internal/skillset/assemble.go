package skillset

import (
	"context"
	"sort"
	"strings"

	"github.com/jonathan/resume-pipeline/internal/config"
	"github.com/jonathan/resume-pipeline/internal/llm"
	"github.com/jonathan/resume-pipeline/internal/types"
)

// Assembler builds the resume skills section. The LLM client is used only
// for embeddings when complementary skills are needed to reach the target.
type Assembler struct {
	client llm.Client
	cfg    *config.Config
}

// NewAssembler creates an Assembler backed by the given LLM client.
func NewAssembler(client llm.Client, cfg *config.Config) *Assembler {
	return &Assembler{client: client, cfg: cfg}
}

// Assemble builds the skills list in priority order: essential skills,
// skills validated by generated bullets, job-required skills present in the
// user inventory, then complementary inventory skills ranked by embedding
// similarity — stopping once the technical target is reached. Soft skills
// come straight from the job posting.
func (a *Assembler) Assemble(ctx context.Context, user *types.UserData, job *types.JobRecord, experiences []types.ExperienceResult) (*types.SkillsList, error) {
	target := a.cfg.TargetTechnicalSkillsOrDefault()
	inventory := make([]string, 0, len(user.Skills))
	for name := range user.Skills {
		inventory = append(inventory, name)
	}
	sort.Strings(inventory)

	var technical []string
	addedNormalized := make(map[string]struct{})
	add := func(skill string) bool {
		skill = strings.TrimSpace(skill)
		if skill == "" {
			return false
		}
		norm := NormalizeSkill(skill)
		if _, dup := addedNormalized[norm]; dup {
			return false
		}
		addedNormalized[norm] = struct{}{}
		technical = append(technical, skill)
		return true
	}

	counts := types.SkillCounts{}

	// 1. Essential skills, always first.
	for _, skill := range user.EssentialSkills {
		if add(skill) {
			counts.Essential++
		}
	}

	// 2. Skills validated by bullet text.
	for _, skill := range ValidatedSkills(experiences) {
		if add(skill) {
			counts.Validated++
		}
	}

	// 3. Job-required skills the user actually has.
	if len(technical) < target {
		for _, skill := range JobRequiredSkills(job, inventory) {
			if len(technical) >= target {
				break
			}
			if add(skill) {
				counts.JobRequired++
			}
		}
	}

	// 4. Complementary inventory skills by semantic similarity.
	if len(technical) < target {
		complementary, err := a.complementarySkills(ctx, technical, inventory, target-len(technical))
		if err != nil {
			return nil, err
		}
		for _, skill := range complementary {
			if add(skill) {
				counts.Complementary++
			}
		}
	}

	technical = ArrangeByInventoryOrder(technical, user.Skills)

	soft := job.SoftSkills
	if max := a.cfg.SoftSkillCountOrDefault(); len(soft) > max {
		soft = soft[:max]
	}

	counts.Technical = len(technical)
	counts.Soft = len(soft)
	counts.Total = counts.Technical + counts.Soft

	return &types.SkillsList{Technical: technical, Soft: soft, Counts: counts}, nil
}

// ValidatedSkills collects every keyword actually used in bullet text, in
// first-use order across slots.
func ValidatedSkills(experiences []types.ExperienceResult) []string {
	seen := make(map[string]struct{})
	var validated []string
	for _, exp := range experiences {
		for _, bullet := range exp.Bullets {
			for _, kw := range bullet.KeywordsUsed {
				norm := NormalizeSkill(kw)
				if _, dup := seen[norm]; dup {
					continue
				}
				seen[norm] = struct{}{}
				validated = append(validated, kw)
			}
		}
	}
	return validated
}

// JobRequiredSkills returns inventory skills matching the job's demands,
// in priority order: must_have, then preferred, then other technical skills.
func JobRequiredSkills(job *types.JobRecord, inventory []string) []string {
	var selected []string
	selectedSet := make(map[string]struct{})

	pick := func(jobSkill string) {
		for _, dbSkill := range inventory {
			if !FuzzyMatch(jobSkill, dbSkill) {
				continue
			}
			if _, dup := selectedSet[dbSkill]; dup {
				continue
			}
			selectedSet[dbSkill] = struct{}{}
			selected = append(selected, dbSkill)
			return
		}
	}

	for _, skill := range job.TechnicalPriorities.MustHave {
		pick(skill)
	}
	for _, skill := range job.TechnicalPriorities.Preferred {
		pick(skill)
	}
	for _, skill := range job.TechnicalSkills {
		if MatchesAny(skill, job.TechnicalPriorities.MustHave) || MatchesAny(skill, job.TechnicalPriorities.Preferred) {
			continue
		}
		pick(skill)
	}
	return selected
}

// complementarySkills ranks unselected inventory skills by cosine
// similarity between their embedding and the embedding of the already
// selected set, returning the top count.
func (a *Assembler) complementarySkills(ctx context.Context, selected, inventory []string, count int) ([]string, error) {
	if count <= 0 || len(inventory) == 0 {
		return nil, nil
	}

	var candidates []string
	for _, skill := range inventory {
		if !MatchesAny(skill, selected) {
			candidates = append(candidates, skill)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	if len(selected) == 0 {
		// Nothing to be similar to; take inventory order.
		if len(candidates) > count {
			candidates = candidates[:count]
		}
		return candidates, nil
	}

	model := a.cfg.EmbeddingModelName()
	selectedVec, err := a.client.Embed(ctx, model, strings.Join(selected, ", "))
	if err != nil {
		return nil, err
	}

	type scored struct {
		skill string
		score float64
	}
	ranked := make([]scored, 0, len(candidates))
	for _, candidate := range candidates {
		vec, err := a.client.Embed(ctx, model, candidate)
		if err != nil {
			return nil, err
		}
		ranked = append(ranked, scored{skill: candidate, score: llm.CosineSimilarity(selectedVec, vec)})
	}

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	if len(ranked) > count {
		ranked = ranked[:count]
	}
	result := make([]string, len(ranked))
	for i, r := range ranked {
		result[i] = r.skill
	}
	return result, nil
}

// ArrangeByInventoryOrder sorts skills by their inventory display order,
// then alphabetically. Skills absent from the inventory sort last.
func ArrangeByInventoryOrder(skills []string, inventory types.SkillInventory) []string {
	const unknownOrder = 999

	// A skill can fuzzy-match several inventory entries; take the lowest
	// order among them so the result does not depend on map iteration.
	orderOf := func(skill string) int {
		best := unknownOrder
		for name, info := range inventory {
			if !FuzzyMatch(skill, name) {
				continue
			}
			if info.DisplayOrder > 0 && info.DisplayOrder < best {
				best = info.DisplayOrder
			}
		}
		return best
	}

	arranged := make([]string, len(skills))
	copy(arranged, skills)
	sort.SliceStable(arranged, func(i, j int) bool {
		oi, oj := orderOf(arranged[i]), orderOf(arranged[j])
		if oi != oj {
			return oi < oj
		}
		return strings.ToLower(arranged[i]) < strings.ToLower(arranged[j])
	})
	return arranged
}
