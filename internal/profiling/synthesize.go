// Package profiling synthesizes the resume's profile paragraph from
// validated experience content, with an auditable decision trail.
package profiling

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/jonathan/resume-pipeline/internal/config"
	"github.com/jonathan/resume-pipeline/internal/llm"
	"github.com/jonathan/resume-pipeline/internal/prompts"
	"github.com/jonathan/resume-pipeline/internal/skillset"
	"github.com/jonathan/resume-pipeline/internal/types"
)

// Years-of-experience markers that trigger ambiguous phrasing. When the
// posting demands a range the candidate may not clear, the profile avoids
// stating a number at all.
var ambiguousYearMarkers = []string{"2+", "3+", "4+", "5+", "ans", "years"}

// Synthesizer produces the profile paragraph for a run.
type Synthesizer struct {
	client llm.Client
	cfg    *config.Config
}

// NewSynthesizer creates a profile synthesizer.
func NewSynthesizer(client llm.Client, cfg *config.Config) *Synthesizer {
	return &Synthesizer{client: client, cfg: cfg}
}

// decisions holds everything resolved before the generation call.
type decisions struct {
	language           string
	gender             string
	experienceStrategy string
	roleStrategy       string
	profileRole        string
	bridgingPhrase     string
	roleMatchScore     float64
	roleMatches        bool
	matchedRole        string
	validatedSkills    []string
	mustHaveOverlap    []string
	overlapRatio       float64
	authenticityMode   string
	topSkills          []string
	relevantDomains    []string
	userDomains        []string
}

// Synthesize generates the profile paragraph. Only skills validated by the
// experience bullets may appear in the text; anything else the model slips
// in is counted against the authenticity score, not silently accepted.
func (s *Synthesizer) Synthesize(ctx context.Context, user *types.UserData, job *types.JobRecord, experiences []types.ExperienceResult, skills *types.SkillsList) (*types.Profile, types.Usage, error) {
	var usage types.Usage

	if len(experiences) == 0 {
		return nil, usage, &SynthesisError{Message: "no experiences to synthesize a profile from"}
	}

	d, err := s.resolve(ctx, user, job, experiences, skills)
	if err != nil {
		return nil, usage, err
	}

	system := s.buildSystemPrompt(d)
	userPrompt := s.buildUserPrompt(d, job, experiences)

	temp := s.cfg.TemperatureFor(config.StageProfile, nil)
	result, err := s.client.GenerateText(ctx, llm.Request{
		Model:       s.cfg.ModelFor(config.StageProfile, ""),
		Temperature: &temp,
		System:      system,
		Prompt:      userPrompt,
	})
	if err != nil {
		return nil, usage, &SynthesisError{Message: "generation call failed", Cause: err}
	}
	usage.Add(result.Usage)

	text := strings.TrimSpace(result.Text)
	if text == "" {
		return nil, usage, &SynthesisError{Message: "model returned an empty profile"}
	}

	unvalidated, mentioned := auditClaims(text, job.TechnicalSkills, d.validatedSkills)
	authenticityScore := 1.0
	if mentioned > 0 {
		authenticityScore = 1.0 - float64(len(unvalidated))/float64(mentioned)
	}

	return &types.Profile{
		Text: text,
		Metadata: types.ProfileMetadata{
			ExperienceStrategy: d.experienceStrategy,
			RoleStrategy:       d.roleStrategy,
			ProfileRole:        d.profileRole,
			BridgingPhrase:     d.bridgingPhrase,
			RoleMatchScore:     d.roleMatchScore,
			RelevantDomains:    d.relevantDomains,
			AuthenticityMode:   d.authenticityMode,
			OverlapRatio:       d.overlapRatio,
			ValidatedSkills:    len(d.validatedSkills),
			MustHaveOverlap:    len(d.mustHaveOverlap),
			UnvalidatedClaims:  unvalidated,
			AuthenticityScore:  authenticityScore,
			WordCount:          len(strings.Fields(text)),
			Language:           d.language,
			Gender:             d.gender,
		},
	}, usage, nil
}

func (s *Synthesizer) resolve(ctx context.Context, user *types.UserData, job *types.JobRecord, experiences []types.ExperienceResult, skills *types.SkillsList) (*decisions, error) {
	d := &decisions{
		language: job.Metadata.Language,
		gender:   user.Personal.Gender,
	}
	if d.language == "" {
		d.language = types.LanguageFrench
	}
	if d.gender == "" {
		d.gender = "male"
	}

	d.experienceStrategy = experienceStrategy(job.ExperienceRequired.Years)
	d.validatedSkills = ValidatedSkills(experiences)

	overlap, ratio := mustHaveOverlap(job.TechnicalPriorities.MustHave, d.validatedSkills)
	d.mustHaveOverlap = overlap
	d.overlapRatio = ratio

	roles := experienceRoles(experiences)
	matches, matchedRole, score, err := s.matchRole(ctx, job.JobTitle, roles)
	if err != nil {
		return nil, &SynthesisError{Message: "role similarity check failed", Cause: err}
	}
	d.roleMatches = matches
	d.matchedRole = matchedRole
	d.roleMatchScore = score

	if matches {
		d.roleStrategy = types.RoleStrategyDirectJobTitle
		d.profileRole = job.JobTitle
	} else {
		d.roleStrategy = types.RoleStrategyBackgroundBridge
		d.profileRole = backgroundRole(user, roles)
		d.bridgingPhrase = bridgingPhrase(d.language, experiences, overlap, d.validatedSkills)
	}

	switch {
	case d.overlapRatio >= types.AuthenticityHighMatchMinimum:
		d.authenticityMode = types.AuthenticityModeHighMatch
	case d.overlapRatio >= types.AuthenticityModerateMinimum:
		d.authenticityMode = types.AuthenticityModeModerateMatch
	default:
		d.authenticityMode = types.AuthenticityModeLowMatch
	}

	d.topSkills = topValidatedSkills(skills, d.validatedSkills)
	d.userDomains = experienceDomains(experiences)
	d.relevantDomains = RelevantDomains(d.userDomains, job)
	return d, nil
}

// matchRole embeds the job title and every distinct experience role and
// keeps the best cosine similarity. A match at or above the threshold lets
// the profile open with the job title itself.
func (s *Synthesizer) matchRole(ctx context.Context, jobTitle string, roles []string) (bool, string, float64, error) {
	if len(roles) == 0 || jobTitle == "" {
		return false, "", 0, nil
	}

	model := s.cfg.EmbeddingModelName()
	jobVec, err := s.client.Embed(ctx, model, jobTitle)
	if err != nil {
		return false, "", 0, fmt.Errorf("embedding job title: %w", err)
	}

	best := 0.0
	bestRole := ""
	for _, role := range roles {
		roleVec, err := s.client.Embed(ctx, model, role)
		if err != nil {
			return false, "", 0, fmt.Errorf("embedding role %q: %w", role, err)
		}
		if sim := llm.CosineSimilarity(jobVec, roleVec); sim > best {
			best = sim
			bestRole = role
		}
	}
	return best >= types.RoleMatchSimilarityThreshold, bestRole, best, nil
}

func (s *Synthesizer) buildSystemPrompt(d *decisions) string {
	langName := languageName(d.language)

	var roleInstructions string
	if d.roleStrategy == types.RoleStrategyDirectJobTitle {
		roleInstructions = prompts.Format(prompts.MustGet("profile.json", "role_direct"), map[string]string{
			"ProfileRole": d.profileRole,
		})
	} else {
		roleInstructions = prompts.Format(prompts.MustGet("profile.json", "role_bridge"), map[string]string{
			"ProfileRole":    d.profileRole,
			"BridgingPhrase": d.bridgingPhrase,
		})
	}

	var strategyInstructions string
	if d.experienceStrategy == types.ExperienceStrategyAmbiguous {
		strategyInstructions = prompts.Format(prompts.MustGet("profile.json", "strategy_ambiguous"), map[string]string{
			"AmbiguousTerms": prompts.MustGetLang("profile.json", "ambiguous_terms", d.language),
		})
	} else {
		strategyInstructions = prompts.MustGet("profile.json", "strategy_explicit")
	}

	authenticityKey := "authenticity_low"
	switch d.authenticityMode {
	case types.AuthenticityModeHighMatch:
		authenticityKey = "authenticity_high"
	case types.AuthenticityModeModerateMatch:
		authenticityKey = "authenticity_moderate"
	}
	authenticityInstructions := prompts.Format(prompts.MustGet("profile.json", authenticityKey), map[string]string{
		"OverlapRatio": percent(d.overlapRatio),
	})

	return prompts.Format(prompts.MustGet("profile.json", "system"), map[string]string{
		"LanguageUpper":            langName,
		"LanguageName":             langName,
		"Structure":                prompts.MustGetLang("profile.json", "structure", d.language),
		"StrategyUpper":            strings.ToUpper(d.experienceStrategy),
		"RoleStrategyUpper":        strings.ToUpper(d.roleStrategy),
		"Gender":                   d.gender,
		"GenderFormat":             genderFormat(d.gender, d.language),
		"RoleInstructions":         roleInstructions,
		"StrategyInstructions":     strategyInstructions,
		"AuthenticityInstructions": authenticityInstructions,
		"Example":                  prompts.MustGetLang("profile.json", "example", d.language),
	})
}

func (s *Synthesizer) buildUserPrompt(d *decisions, job *types.JobRecord, experiences []types.ExperienceResult) string {
	langName := languageName(d.language)

	roleOpening := fmt.Sprintf("Start with %q", d.profileRole)
	if d.roleStrategy == types.RoleStrategyBackgroundBridge {
		roleOpening = fmt.Sprintf("Start with %q followed by the bridging phrase %q", d.profileRole, d.bridgingPhrase)
	}

	roleMatchNote := fmt.Sprintf("NO - use the candidate's background (best similarity %s with %q)", percent(d.roleMatchScore), d.matchedRole)
	if d.roleMatches {
		roleMatchNote = "YES - use the job title directly"
	}

	topSkills := "None from job requirements"
	if len(d.topSkills) > 0 {
		topSkills = strings.Join(d.topSkills, ", ")
	}

	relevantDomains := "NONE - Do not mention domains, focus on technical skills"
	if len(d.relevantDomains) > 0 {
		relevantDomains = strings.Join(d.relevantDomains, ", ")
	}

	var achievements strings.Builder
	for i, a := range topAchievements(experiences, 3) {
		fmt.Fprintf(&achievements, "%d. %s (from %s)\n", i+1, truncate(a.text, 80), a.project)
	}

	educationLine := ""
	if job.EducationRequired.Level != "" {
		educationLine = "\n\nEDUCATION TARGET: " + job.EducationRequired.Level
	}

	strategyReminder := ""
	if d.experienceStrategy == types.ExperienceStrategyAmbiguous {
		strategyReminder = "\nREMEMBER: Do NOT state years. Use terms like: " +
			prompts.MustGetLang("profile.json", "ambiguous_terms", d.language)
	}

	return prompts.Format(prompts.MustGet("profile.json", "user"), map[string]string{
		"LanguageName":       langName,
		"JobTitle":           job.JobTitle,
		"CompanyName":        job.CompanyName,
		"RoleStrategyUpper":  strings.ToUpper(d.roleStrategy),
		"ProfileRole":        d.profileRole,
		"RoleOpening":        roleOpening,
		"AuthenticityUpper":  strings.ToUpper(d.authenticityMode),
		"OverlapPercent":     percent(d.overlapRatio),
		"OverlapCount":       strconv.Itoa(len(d.mustHaveOverlap)),
		"MustHaveCount":      strconv.Itoa(len(job.TechnicalPriorities.MustHave)),
		"RoleMatchNote":      roleMatchNote,
		"TopSkills":          topSkills,
		"ValidatedSkills":    strings.Join(head(d.validatedSkills, 10), ", "),
		"SoftSkills":         strings.Join(head(job.SoftSkills, 3), ", "),
		"RelevantDomains":    relevantDomains,
		"Roles":              strings.Join(experienceRoles(experiences), ", "),
		"Achievements":       strings.TrimRight(achievements.String(), "\n"),
		"EducationLine":      educationLine,
		"ExperienceStrategy": d.experienceStrategy,
		"StrategyReminder":   strategyReminder,
	})
}

// experienceStrategy decides whether to avoid stating years of experience.
func experienceStrategy(yearsRequired string) string {
	lower := strings.ToLower(yearsRequired)
	for _, marker := range ambiguousYearMarkers {
		if strings.Contains(lower, marker) {
			return types.ExperienceStrategyAmbiguous
		}
	}
	return types.ExperienceStrategyExplicit
}

// ValidatedSkills collects every keyword actually woven into a bullet,
// deduplicated in first-use order. These are the only skills the profile
// may claim.
func ValidatedSkills(experiences []types.ExperienceResult) []string {
	seen := make(map[string]bool)
	var out []string
	for _, exp := range experiences {
		for _, bullet := range exp.Bullets {
			for _, kw := range bullet.KeywordsUsed {
				key := skillset.NormalizeSkill(kw)
				if key == "" || seen[key] {
					continue
				}
				seen[key] = true
				out = append(out, kw)
			}
		}
	}
	return out
}

func mustHaveOverlap(mustHave, validated []string) ([]string, float64) {
	if len(mustHave) == 0 {
		return nil, 0
	}
	validatedSet := make(map[string]bool, len(validated))
	for _, s := range validated {
		validatedSet[skillset.NormalizeSkill(s)] = true
	}
	var overlap []string
	for _, s := range mustHave {
		if validatedSet[skillset.NormalizeSkill(s)] {
			overlap = append(overlap, s)
		}
	}
	return overlap, float64(len(overlap)) / float64(len(mustHave))
}

func experienceRoles(experiences []types.ExperienceResult) []string {
	seen := make(map[string]bool)
	var roles []string
	for _, exp := range experiences {
		if exp.Role == "" || seen[exp.Role] {
			continue
		}
		seen[exp.Role] = true
		roles = append(roles, exp.Role)
	}
	return roles
}

// backgroundRole picks the opening role when the job title does not match:
// the most recent experience's role, falling back to the user's degree.
func backgroundRole(user *types.UserData, roles []string) string {
	if len(roles) > 0 {
		return roles[len(roles)-1]
	}
	return user.Personal.Degree
}

// bridgingPhrase links the candidate's real background to the target job.
// Consulting or transformation contexts beat a skills-based bridge.
func bridgingPhrase(language string, experiences []types.ExperienceResult, overlap, validated []string) string {
	seen := make(map[string]bool)
	var domains []string
	addDomain := func(d string) {
		if !seen[d] {
			seen[d] = true
			domains = append(domains, d)
		}
	}
	for _, exp := range experiences {
		lower := strings.ToLower(exp.Context)
		if strings.Contains(lower, "conseil") || strings.Contains(lower, "consulting") {
			addDomain("consulting")
		}
		if strings.Contains(lower, "transformation") {
			if language == types.LanguageEnglish {
				addDomain("digital transformation")
			} else {
				addDomain("transformation digitale")
			}
		}
	}

	if len(domains) > 0 {
		joiner := " et "
		prefix := "avec une expérience en "
		if language == types.LanguageEnglish {
			joiner = " and "
			prefix = "with experience in "
		}
		return prefix + strings.Join(domains, joiner)
	}

	bridge := head(overlap, 3)
	if len(bridge) == 0 {
		bridge = head(validated, 3)
	}
	prefix := "avec une maîtrise de "
	if language == types.LanguageEnglish {
		prefix = "with proficiency in "
	}
	return prefix + strings.Join(bridge, ", ")
}

// topValidatedSkills keeps the highest-ranked assembled skills that the
// bullets actually back up: at most five of the first eight.
func topValidatedSkills(skills *types.SkillsList, validated []string) []string {
	if skills == nil {
		return nil
	}
	validatedSet := make(map[string]bool, len(validated))
	for _, s := range validated {
		validatedSet[skillset.NormalizeSkill(s)] = true
	}
	var out []string
	for _, s := range head(skills.Technical, 8) {
		if validatedSet[skillset.NormalizeSkill(s)] {
			out = append(out, s)
			if len(out) == 5 {
				break
			}
		}
	}
	return out
}

func experienceDomains(experiences []types.ExperienceResult) []string {
	seen := make(map[string]bool)
	var out []string
	for _, exp := range experiences {
		for _, d := range exp.Domains {
			if d == "" || seen[d] {
				continue
			}
			seen[d] = true
			out = append(out, d)
		}
	}
	return out
}

// RelevantDomains keeps only the candidate domains that literally appear
// somewhere in the posting. Domains the job never mentions would read as
// noise to an ATS, so the profile drops them.
func RelevantDomains(userDomains []string, job *types.JobRecord) []string {
	var parts []string
	parts = append(parts, job.JobTitle)
	parts = append(parts, job.Responsibilities...)
	parts = append(parts, job.Keywords...)
	parts = append(parts, job.CompanyDescription)
	parts = append(parts, job.TechnicalSkills...)
	jobText := strings.ToLower(strings.Join(parts, " "))

	var out []string
	for _, domain := range userDomains {
		if domain != "" && strings.Contains(jobText, strings.ToLower(domain)) {
			out = append(out, domain)
		}
	}
	return out
}

type achievement struct {
	text    string
	score   float64
	project string
}

// topAchievements picks the n highest-scoring bullets across all slots.
func topAchievements(experiences []types.ExperienceResult, n int) []achievement {
	var all []achievement
	for _, exp := range experiences {
		for _, b := range exp.Bullets {
			all = append(all, achievement{text: b.Text, score: b.ATSScore, project: exp.ProjectName})
		}
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].score > all[j].score })
	if len(all) > n {
		all = all[:n]
	}
	return all
}

// auditClaims checks which job skills the profile text mentions and how
// many of those mentions lack bullet validation.
func auditClaims(text string, jobSkills, validated []string) (unvalidated []string, mentioned int) {
	lowerText := strings.ToLower(text)
	validatedSet := make(map[string]bool, len(validated))
	for _, s := range validated {
		validatedSet[skillset.NormalizeSkill(s)] = true
	}
	for _, skill := range jobSkills {
		if skill == "" || !strings.Contains(lowerText, strings.ToLower(skill)) {
			continue
		}
		mentioned++
		if !validatedSet[skillset.NormalizeSkill(skill)] {
			unvalidated = append(unvalidated, skill)
		}
	}
	return unvalidated, mentioned
}

func languageName(language string) string {
	if language == types.LanguageEnglish {
		return "ENGLISH"
	}
	return "FRENCH"
}

func genderFormat(gender, language string) string {
	if gender == "female" {
		if language == types.LanguageFrench {
			return "féminin (ex: 'Consultante experte', 'spécialisée', 'expérimentée')"
		}
		return "female (ex: 'experienced', 'specialized')"
	}
	if language == types.LanguageFrench {
		return "masculin (ex: 'Consultant expert', 'spécialisé', 'expérimenté')"
	}
	return "male (ex: 'experienced', 'specialized')"
}

func percent(ratio float64) string {
	return strconv.Itoa(int(ratio*100+0.5)) + "%"
}

func head(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return strings.TrimSpace(s[:n]) + "..."
}
