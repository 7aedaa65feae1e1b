// Package pipeline provides the high-level orchestration for the resume
// generation process: structuring, coordinating, generating, assembling,
// and the final cover-letter pass.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/resume-pipeline/internal/config"
	"github.com/jonathan/resume-pipeline/internal/coordinating"
	"github.com/jonathan/resume-pipeline/internal/coverletter"
	"github.com/jonathan/resume-pipeline/internal/generating"
	"github.com/jonathan/resume-pipeline/internal/llm"
	"github.com/jonathan/resume-pipeline/internal/profiling"
	"github.com/jonathan/resume-pipeline/internal/skillset"
	"github.com/jonathan/resume-pipeline/internal/store"
	"github.com/jonathan/resume-pipeline/internal/structuring"
	"github.com/jonathan/resume-pipeline/internal/types"
)

// RunMetadata aggregates everything a caller may want to report about a
// finished (or aborted) run.
type RunMetadata struct {
	RunID            string           `json:"run_id,omitempty"`
	State            State            `json:"state"`
	AbortReason      string           `json:"abort_reason,omitempty"`
	Language         string           `json:"language,omitempty"`
	StageTimingsMS   map[string]int64 `json:"stage_timings_ms"`
	SelectedProjects []string         `json:"selected_projects,omitempty"`
	EnhancedSlots    int              `json:"enhanced_slots"`
	DirectSlots      int              `json:"direct_slots"`
	AverageATSScore  float64          `json:"average_ats_score"`
	TotalSkills      int              `json:"total_skills"`
	CoverLetterWords int              `json:"cover_letter_words"`
	Usage            types.Usage      `json:"usage"`
	CostUSD          float64          `json:"cost_usd"`
	Warnings         []string         `json:"warnings,omitempty"`
}

// ProcessResult is the outcome of one full pipeline run.
type ProcessResult struct {
	Success     bool                  `json:"success"`
	Job         *types.JobRecord      `json:"structured_job,omitempty"`
	Resume      *types.ResumeDocument `json:"resume,omitempty"`
	CoverLetter *types.CoverLetter    `json:"cover_letter,omitempty"`
	Metadata    RunMetadata           `json:"metadata"`
	Error       string                `json:"error,omitempty"`
}

// Pipeline orchestrates the full resume generation run.
type Pipeline struct {
	client llm.Client
	cfg    *config.Config
	store  *store.Store
}

// NewPipeline creates an orchestrator. The store may be nil; persistence
// is best-effort and never fails a run.
func NewPipeline(client llm.Client, cfg *config.Config, st *store.Store) *Pipeline {
	return &Pipeline{client: client, cfg: cfg, store: st}
}

// Structure runs just the extraction stage for a raw posting.
func (p *Pipeline) Structure(ctx context.Context, req *types.StructureRequest) (*types.JobRecord, types.Usage, error) {
	if err := req.Validate(); err != nil {
		return nil, types.Usage{}, err
	}
	extractor := structuring.NewExtractor(p.client, p.cfg)
	return extractor.Extract(ctx, req.JobText, req.SourceURL, req.Model)
}

// run carries the mutable state of one Process call.
type run struct {
	cfg     *config.Config
	state   State
	runID   uuid.UUID
	usage   types.Usage
	costUSD float64
	timings map[string]int64
	warns   []string
}

func (r *run) addCost(model string, usage types.Usage) {
	r.usage.Add(usage)
	r.costUSD += r.cfg.CostUSD(model, usage)
}

func (r *run) warn(format string, args ...any) {
	r.warns = append(r.warns, fmt.Sprintf(format, args...))
}

func (r *run) timeStage(state State, fn func() error) error {
	r.state = state
	start := time.Now()
	err := fn()
	r.timings[string(state)] = time.Since(start).Milliseconds()
	return err
}

// Process executes the full run. Fatal stage failures return a result with
// Success=false and the abort reason, alongside the error itself. Only the
// cover letter fails soft.
func (p *Pipeline) Process(ctx context.Context, req *types.ProcessRequest) (*ProcessResult, error) {
	r := &run{timings: make(map[string]int64)}
	result := &ProcessResult{Metadata: RunMetadata{StageTimingsMS: r.timings}}

	fail := func(reason string, err error) (*ProcessResult, error) {
		r.state = StateAborted
		p.completeRun(ctx, r, store.RunStatusAborted)
		result.Error = err.Error()
		p.fillMetadata(result, r, reason)
		return result, err
	}

	if err := req.Validate(); err != nil {
		r.cfg = p.cfg
		return fail(AbortConfigurationInvalid, err)
	}
	r.cfg = p.cfg.ApplyOverrides(req.Overrides)

	// Structuring
	var job *types.JobRecord
	err := r.timeStage(StateStructuring, func() error {
		extractor := structuring.NewExtractor(p.client, r.cfg)
		extracted, usage, err := extractor.Extract(ctx, req.JobText, req.SourceURL, "")
		r.addCost(r.cfg.ModelFor(config.StageStructuring, ""), usage)
		if err != nil {
			return err
		}
		job = extracted
		return nil
	})
	if err != nil {
		return fail(AbortStructuringFailed, err)
	}
	result.Job = job
	language := job.Metadata.Language

	p.createRun(ctx, r, job, req.SourceURL)
	p.saveArtifact(ctx, r, store.StepJobRecord, job)

	// Coordinating
	var plan *types.CoordinationResult
	err = r.timeStage(StateCoordinating, func() error {
		coordinator := coordinating.NewCoordinator(p.client, r.cfg)
		coordinated, usage, err := coordinator.Coordinate(ctx, r.cfg.Experiences, req.UserData.Projects, job)
		r.addCost(r.cfg.ModelFor(config.StageCoordinator, ""), usage)
		if err != nil {
			return err
		}
		plan = coordinated
		return nil
	})
	if err != nil {
		var cfgErr *config.ConfigurationError
		if errors.As(err, &cfgErr) {
			return fail(AbortConfigurationInvalid, err)
		}
		return fail(AbortCoordinationIntegrity, err)
	}
	p.saveArtifact(ctx, r, store.StepSlotPlans, plan)

	// Generating: direct slots run inline, enhanced slots fan out. Results
	// land in a fixed slice so completion order cannot leak into document
	// order; a re-sort by slot index covers plans arriving unordered.
	experiences := make([]*types.ExperienceResult, len(plan.Slots))
	err = r.timeStage(StateGenerating, func() error {
		generator := generating.NewGenerator(p.client, r.cfg)
		g, gctx := errgroup.WithContext(ctx)
		var mu sync.Mutex

		for i, slotPlan := range plan.Slots {
			project := req.UserData.Projects[slotPlan.SelectedProject]

			if slotPlan.ContentStrategy == types.StrategyDirect {
				if slotPlan.RoleTitle == "" {
					slotPlan.RoleTitle = generating.DirectRole(project)
				}
				experiences[i] = generating.ExtractDirect(slotPlan, project, language)
				continue
			}

			i, slotPlan := i, slotPlan
			g.Go(func() error {
				generated, usage, err := generator.GenerateEnhanced(gctx, slotPlan, project, job)
				mu.Lock()
				r.addCost(r.cfg.ModelFor(config.StageBullets, ""), usage)
				mu.Unlock()
				if err != nil {
					return err
				}
				experiences[i] = generated
				return nil
			})
		}
		return g.Wait()
	})
	if err != nil {
		return fail(AbortGenerationFailed, err)
	}
	sort.Slice(experiences, func(i, j int) bool { return experiences[i].SlotIndex < experiences[j].SlotIndex })

	flat := make([]types.ExperienceResult, len(experiences))
	for i, e := range experiences {
		flat[i] = *e
	}
	p.saveArtifact(ctx, r, store.StepExperiences, flat)

	// Assembling: skills first, then the profile that reads them.
	var skills *types.SkillsList
	var profile *types.Profile
	err = r.timeStage(StateAssembling, func() error {
		assembler := skillset.NewAssembler(p.client, r.cfg)
		assembled, err := assembler.Assemble(ctx, req.UserData, job, flat)
		if err != nil {
			return err
		}
		skills = assembled
		p.saveArtifact(ctx, r, store.StepSkills, skills)

		synthesizer := profiling.NewSynthesizer(p.client, r.cfg)
		synthesized, usage, err := synthesizer.Synthesize(ctx, req.UserData, job, flat, skills)
		r.addCost(r.cfg.ModelFor(config.StageProfile, ""), usage)
		if err != nil {
			return err
		}
		profile = synthesized
		p.saveArtifact(ctx, r, store.StepProfile, profile)
		return nil
	})
	if err != nil {
		return fail(AbortAssemblyFailed, err)
	}

	// Finalized: the cover letter is the only soft failure. A resume
	// without a letter is still a usable result.
	_ = r.timeStage(StateFinalized, func() error {
		if req.Overrides != nil && req.Overrides.SkipCoverLetter {
			return nil
		}
		letters := coverletter.NewGenerator(p.client, r.cfg)
		letter, err := letters.Generate(ctx, job, flat, profile, skills)
		if err != nil {
			r.warn("cover letter generation failed: %v", err)
			return nil
		}
		r.usage.Add(letter.Usage)
		r.costUSD += letter.CostUSD
		result.CoverLetter = letter
		p.saveArtifact(ctx, r, store.StepCoverLetter, letter)
		return nil
	})

	result.Resume = buildResume(req.UserData, profile, flat, skills, language)
	p.saveArtifact(ctx, r, store.StepResume, result.Resume)
	p.completeRun(ctx, r, store.RunStatusCompleted)

	result.Success = true
	p.fillMetadata(result, r, "")
	p.fillRunStats(result, flat, skills, language)
	return result, nil
}

func (p *Pipeline) fillMetadata(result *ProcessResult, r *run, abortReason string) {
	result.Metadata.State = r.state
	result.Metadata.AbortReason = abortReason
	result.Metadata.Usage = r.usage
	result.Metadata.CostUSD = r.costUSD
	result.Metadata.Warnings = r.warns
	if r.runID != uuid.Nil {
		result.Metadata.RunID = r.runID.String()
	}
}

func (p *Pipeline) fillRunStats(result *ProcessResult, experiences []types.ExperienceResult, skills *types.SkillsList, language string) {
	m := &result.Metadata
	m.Language = language

	var atsSum float64
	for _, exp := range experiences {
		m.SelectedProjects = append(m.SelectedProjects, exp.ProjectName)
		if exp.IsDirect {
			m.DirectSlots++
			continue
		}
		m.EnhancedSlots++
		atsSum += exp.AverageATSScore
	}
	if m.EnhancedSlots > 0 {
		m.AverageATSScore = math.Round(atsSum/float64(m.EnhancedSlots)*100) / 100
	}
	if skills != nil {
		m.TotalSkills = len(skills.Technical) + len(skills.Soft)
	}
	if result.CoverLetter != nil {
		m.CoverLetterWords = result.CoverLetter.WordCount
	}
}

func (p *Pipeline) createRun(ctx context.Context, r *run, job *types.JobRecord, sourceURL string) {
	if p.store == nil {
		return
	}
	id, err := p.store.CreateRun(ctx, job.JobTitle, job.CompanyName, sourceURL, job.Metadata.Language)
	if err != nil {
		r.warn("failed to create run record: %v", err)
		return
	}
	r.runID = id
}

func (p *Pipeline) saveArtifact(ctx context.Context, r *run, step string, content any) {
	if p.store == nil || r.runID == uuid.Nil {
		return
	}
	_ = p.store.SetRunState(ctx, r.runID, string(r.state))
	if err := p.store.SaveArtifact(ctx, r.runID, step, content); err != nil {
		r.warn("failed to save %s artifact: %v", step, err)
	}
}

func (p *Pipeline) completeRun(ctx context.Context, r *run, status string) {
	if p.store == nil || r.runID == uuid.Nil {
		return
	}
	if err := p.store.CompleteRun(ctx, r.runID, status); err != nil {
		r.warn("failed to complete run record: %v", err)
	}
}

// buildResume assembles the final document from the run's outputs plus the
// caller-supplied static sections.
func buildResume(user *types.UserData, profile *types.Profile, experiences []types.ExperienceResult, skills *types.SkillsList, language string) *types.ResumeDocument {
	doc := &types.ResumeDocument{
		Personal: user.Personal,
		Contact:  user.Contact,
	}
	if profile != nil {
		doc.Profile = profile.Text
	}

	for _, exp := range experiences {
		entry := types.ExperienceEntry{
			Role:      exp.Role,
			Company:   exp.Company,
			Location:  exp.Location,
			StartDate: exp.StartDate,
			EndDate:   exp.EndDate,
			Context:   exp.Context,
		}
		// Projects without a company read as self-employment under the
		// candidate's own name.
		if entry.Company == "" {
			entry.Company = user.Personal.Name
		}
		if entry.Company == "" {
			entry.Company = "Freelance"
		}
		if entry.Location == "" {
			entry.Location = "Remote"
		}
		for _, b := range exp.Bullets {
			entry.Bullets = append(entry.Bullets, b.Text)
		}
		doc.Experience = append(doc.Experience, entry)
	}

	if skills != nil {
		doc.Skills = types.ResumeSkills{Technical: skills.Technical, Soft: skills.Soft}
	}

	for _, edu := range user.Education {
		doc.Education = append(doc.Education, types.EducationEntry{
			Degree:      edu.Degree.Resolve(language),
			Institution: edu.Institution,
			Location:    edu.Location.Resolve(language),
			StartDate:   edu.StartDate,
			EndDate:     edu.EndDate,
			Description: edu.Description.Resolve(language),
		})
	}
	doc.Certifications = user.Certifications

	for _, lang := range user.Languages {
		doc.Languages = append(doc.Languages, types.LanguageEntry{
			Language:    lang.Language.Resolve(language),
			Proficiency: lang.Proficiency.Resolve(language),
		})
	}
	return doc
}
