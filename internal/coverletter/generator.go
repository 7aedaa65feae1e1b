// Package coverletter generates the cover-letter body paragraphs from the
// structured job and the run's generated resume content.
package coverletter

import (
	"context"
	"fmt"
	"strings"

	"github.com/jonathan/resume-pipeline/internal/config"
	"github.com/jonathan/resume-pipeline/internal/llm"
	"github.com/jonathan/resume-pipeline/internal/prompts"
	"github.com/jonathan/resume-pipeline/internal/types"
)

const (
	maxHighlightProjects = 3
	maxBulletsPerProject = 2
)

// Generator produces cover-letter bodies. Failures here never abort a run;
// the orchestrator downgrades them to warnings.
type Generator struct {
	client llm.Client
	cfg    *config.Config
}

// NewGenerator creates a cover-letter generator.
func NewGenerator(client llm.Client, cfg *config.Config) *Generator {
	return &Generator{client: client, cfg: cfg}
}

// Generate writes the body paragraphs only: no header, greeting, or
// closing formula. The letter always follows the posting's language.
func (g *Generator) Generate(ctx context.Context, job *types.JobRecord, experiences []types.ExperienceResult, profile *types.Profile, skills *types.SkillsList) (*types.CoverLetter, error) {
	language := job.Metadata.Language
	if language == "" {
		language = types.LanguageFrench
	}

	profileText := ""
	if profile != nil {
		profileText = profile.Text
	}
	var technical []string
	if skills != nil {
		technical = skills.Technical
	}

	model := g.cfg.ModelFor(config.StageCoverLetter, "")
	temp := g.cfg.TemperatureFor(config.StageCoverLetter, nil)
	result, err := g.client.GenerateText(ctx, llm.Request{
		Model:       model,
		Temperature: &temp,
		System:      prompts.MustGetLang("cover_letter.json", "system", language),
		Prompt:      buildUserPrompt(language, job, experiences, profileText, technical),
	})
	if err != nil {
		return nil, &GenerationError{Message: "generation call failed", Cause: err}
	}

	body := strings.TrimSpace(result.Text)
	if body == "" {
		return nil, &GenerationError{Message: "model returned an empty body"}
	}

	return &types.CoverLetter{
		Body:           body,
		Language:       language,
		WordCount:      len(strings.Fields(body)),
		ParagraphCount: countParagraphs(body),
		Usage:          result.Usage,
		CostUSD:        g.cfg.CostUSD(model, result.Usage),
	}, nil
}

func buildUserPrompt(language string, job *types.JobRecord, experiences []types.ExperienceResult, profileText string, technical []string) string {
	return prompts.Format(prompts.MustGetLang("cover_letter.json", "user", language), map[string]string{
		"JobDetails":   jobDetails(language, job),
		"Requirements": requirements(language, job),
		"Keywords":     strings.Join(head(job.Keywords, 10), ", "),
		"Profile":      profileText,
		"Highlights":   highlights(experiences),
		"Skills":       strings.Join(head(technical, 12), ", "),
		"FitTarget":    fitTarget(language, job),
	})
}

func jobDetails(language string, job *types.JobRecord) string {
	position, company, location := "Position", "Company", "Location"
	if language == types.LanguageFrench {
		position, company, location = "Poste", "Entreprise", "Localisation"
	}
	var lines []string
	if job.JobTitle != "" {
		lines = append(lines, fmt.Sprintf("- %s: %s", position, job.JobTitle))
	}
	if job.CompanyName != "" {
		lines = append(lines, fmt.Sprintf("- %s: %s", company, job.CompanyName))
	}
	if job.Location.City != "" {
		lines = append(lines, fmt.Sprintf("- %s: %s", location, job.Location.City))
	}
	return strings.Join(lines, "\n")
}

func requirements(language string, job *types.JobRecord) string {
	mustLabel, prefLabel, softLabel := "Must-have skills", "Preferred skills", "Soft skills"
	if language == types.LanguageFrench {
		mustLabel, prefLabel = "Compétences essentielles", "Compétences souhaitées"
	}
	var lines []string
	if must := head(job.TechnicalPriorities.MustHave, 5); len(must) > 0 {
		lines = append(lines, fmt.Sprintf("- %s: %s", mustLabel, strings.Join(must, ", ")))
	}
	if pref := head(job.TechnicalPriorities.Preferred, 5); len(pref) > 0 {
		lines = append(lines, fmt.Sprintf("- %s: %s", prefLabel, strings.Join(pref, ", ")))
	}
	if soft := head(job.SoftSkills, 4); len(soft) > 0 {
		lines = append(lines, fmt.Sprintf("- %s: %s", softLabel, strings.Join(soft, ", ")))
	}
	return strings.Join(lines, "\n")
}

// highlights lists the first slots' top bullets: three projects, two
// bullets each. Slots arrive ordered, so the first ones carry the most
// relevant projects.
func highlights(experiences []types.ExperienceResult) string {
	var b strings.Builder
	count := 0
	for _, exp := range experiences {
		if count == maxHighlightProjects {
			break
		}
		if len(exp.Bullets) == 0 {
			continue
		}
		count++
		fmt.Fprintf(&b, "%d. %s:\n", count, exp.ProjectName)
		for i, bullet := range exp.Bullets {
			if i == maxBulletsPerProject {
				break
			}
			fmt.Fprintf(&b, "   - %s\n", bullet.Text)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func fitTarget(language string, job *types.JobRecord) string {
	fr := language == types.LanguageFrench
	switch {
	case job.JobTitle != "" && job.CompanyName != "":
		if fr {
			return fmt.Sprintf("le poste de %s chez %s", job.JobTitle, job.CompanyName)
		}
		return fmt.Sprintf("the %s role at %s", job.JobTitle, job.CompanyName)
	case job.JobTitle != "":
		if fr {
			return fmt.Sprintf("le poste de %s", job.JobTitle)
		}
		return fmt.Sprintf("the %s role", job.JobTitle)
	case job.CompanyName != "":
		if fr {
			return fmt.Sprintf("ce poste chez %s", job.CompanyName)
		}
		return fmt.Sprintf("this role at %s", job.CompanyName)
	default:
		if fr {
			return "cette opportunité"
		}
		return "this opportunity"
	}
}

func countParagraphs(body string) int {
	count := 0
	for _, p := range strings.Split(body, "\n\n") {
		if strings.TrimSpace(p) != "" {
			count++
		}
	}
	return count
}

func head(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}
