// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/resume-pipeline/internal/pipeline"
	"github.com/jonathan/resume-pipeline/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintJobRecord outputs a human-readable summary of the structured posting.
func (p *Printer) PrintJobRecord(job *types.JobRecord) {
	if job == nil {
		return
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Company:   %s\n", job.CompanyName))
	sb.WriteString(fmt.Sprintf("Role:      %s\n", job.JobTitle))
	if job.Location.City != "" {
		sb.WriteString(fmt.Sprintf("Location:  %s (%s)\n", job.Location.City, job.Location.RemotePolicy))
	}
	sb.WriteString(fmt.Sprintf("Language:  %s\n", job.Metadata.Language))
	sb.WriteString("\n")

	if len(job.TechnicalPriorities.MustHave) > 0 {
		sb.WriteString("Must-have skills:\n")
		count := min(len(job.TechnicalPriorities.MustHave), maxItemsToShow)
		for i := 0; i < count; i++ {
			sb.WriteString(fmt.Sprintf("  • %s\n", job.TechnicalPriorities.MustHave[i]))
		}
		if len(job.TechnicalPriorities.MustHave) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(job.TechnicalPriorities.MustHave)-maxItemsToShow))
		}
		sb.WriteString("\n")
	}

	if len(job.TechnicalPriorities.Preferred) > 0 {
		sb.WriteString("Preferred skills:\n")
		count := min(len(job.TechnicalPriorities.Preferred), 3)
		for i := 0; i < count; i++ {
			sb.WriteString(fmt.Sprintf("  • %s\n", job.TechnicalPriorities.Preferred[i]))
		}
		if len(job.TechnicalPriorities.Preferred) > 3 {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(job.TechnicalPriorities.Preferred)-3))
		}
		sb.WriteString("\n")
	}

	if len(job.Keywords) > 0 {
		keywords := strings.Join(job.Keywords, ", ")
		if len(keywords) > 45 {
			keywords = keywords[:42] + "..."
		}
		sb.WriteString(fmt.Sprintf("Keywords: %s\n", keywords))
	}

	p.printBox("STRUCTURED JOB POSTING", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintSlotPlans outputs the coordinator's per-slot decisions.
func (p *Printer) PrintSlotPlans(result *types.CoordinationResult) {
	if result == nil || len(result.Slots) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Planned %d slots:\n\n", len(result.Slots)))

	for i, slot := range result.Slots {
		sb.WriteString(fmt.Sprintf("#%d  %s → %s\n", slot.SlotIndex+1, slot.SelectedProject, slot.RoleTitle))
		sb.WriteString(fmt.Sprintf("    Strategy: %s", slot.ContentStrategy))
		if slot.ContentStrategy == types.StrategyEnhanced {
			sb.WriteString(fmt.Sprintf(" (%s)", slot.EnhancementLevel))
		}
		sb.WriteString("\n")
		if len(slot.KeywordsToUse) > 0 {
			keywords := strings.Join(slot.KeywordsToUse, ", ")
			if len(keywords) > 40 {
				keywords = keywords[:37] + "..."
			}
			sb.WriteString(fmt.Sprintf("    Keywords: %s\n", keywords))
		}
		if i < len(result.Slots)-1 {
			sb.WriteString("\n")
		}
	}

	if result.OverallStrategy.EstimatedATSCoverage > 0 {
		sb.WriteString(fmt.Sprintf("\nEstimated ATS coverage: %.0f%%", result.OverallStrategy.EstimatedATSCoverage*100))
	}

	p.printBox("COORDINATION PLAN", sb.String())
}

// PrintSkillsList outputs the assembled skill section with its source
// breakdown.
func (p *Printer) PrintSkillsList(skills *types.SkillsList) {
	if skills == nil {
		return
	}

	var sb strings.Builder

	if len(skills.Technical) > 0 {
		sb.WriteString("Technical:\n")
		count := min(len(skills.Technical), maxItemsToShow)
		for i := 0; i < count; i++ {
			sb.WriteString(fmt.Sprintf("  • %s\n", skills.Technical[i]))
		}
		if len(skills.Technical) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(skills.Technical)-maxItemsToShow))
		}
		sb.WriteString("\n")
	}

	if len(skills.Soft) > 0 {
		soft := strings.Join(skills.Soft, ", ")
		if len(soft) > 45 {
			soft = soft[:42] + "..."
		}
		sb.WriteString(fmt.Sprintf("Soft: %s\n\n", soft))
	}

	// Counts are absent when the list was rebuilt from a final resume
	// document rather than taken from the assembler.
	if skills.Counts != (types.SkillCounts{}) {
		sb.WriteString(fmt.Sprintf("Sources: %d validated, %d essential, %d job-required",
			skills.Counts.Validated, skills.Counts.Essential, skills.Counts.JobRequired))
	}

	p.printBox("ASSEMBLED SKILLS", strings.TrimRight(sb.String(), "\n"))
}

// PrintProfile outputs the synthesized profile with its decision trail.
func (p *Printer) PrintProfile(profile *types.Profile) {
	if profile == nil {
		return
	}

	var sb strings.Builder

	text := profile.Text
	if len(text) > 50 {
		text = text[:47] + "..."
	}
	sb.WriteString(fmt.Sprintf("%s\n\n", text))

	sb.WriteString(fmt.Sprintf("Role strategy:  %s\n", profile.Metadata.RoleStrategy))
	sb.WriteString(fmt.Sprintf("Experience:     %s\n", profile.Metadata.ExperienceStrategy))
	sb.WriteString(fmt.Sprintf("Authenticity:   %s (%.2f)\n", profile.Metadata.AuthenticityMode, profile.Metadata.AuthenticityScore))
	sb.WriteString(fmt.Sprintf("Role match:     %.2f\n", profile.Metadata.RoleMatchScore))
	sb.WriteString(fmt.Sprintf("Word count:     %d", profile.Metadata.WordCount))

	if len(profile.Metadata.UnvalidatedClaims) > 0 {
		claims := strings.Join(profile.Metadata.UnvalidatedClaims, ", ")
		if len(claims) > 40 {
			claims = claims[:37] + "..."
		}
		sb.WriteString(fmt.Sprintf("\n⚠ Unvalidated: %s", claims))
	}

	p.printBox("PROFILE", sb.String())
}

// PrintRunSummary outputs the final run statistics.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintRunSummary(meta *pipeline.RunMetadata) {
	if meta == nil {
		return
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("State:         %s\n", meta.State))
	if meta.AbortReason != "" {
		sb.WriteString(fmt.Sprintf("Abort reason:  %s\n", meta.AbortReason))
	}
	sb.WriteString(fmt.Sprintf("Slots:         %d enhanced, %d direct\n", meta.EnhancedSlots, meta.DirectSlots))
	sb.WriteString(fmt.Sprintf("Avg ATS score: %.2f\n", meta.AverageATSScore))
	sb.WriteString(fmt.Sprintf("Skills:        %d\n", meta.TotalSkills))
	if meta.CoverLetterWords > 0 {
		sb.WriteString(fmt.Sprintf("Cover letter:  %d words\n", meta.CoverLetterWords))
	}
	sb.WriteString(fmt.Sprintf("Tokens:        %d in / %d out\n", meta.Usage.InputTokens, meta.Usage.OutputTokens))
	sb.WriteString(fmt.Sprintf("Cost:          $%.4f", meta.CostUSD))

	var total int64
	for _, ms := range meta.StageTimingsMS {
		total += ms
	}
	if total > 0 {
		sb.WriteString(fmt.Sprintf("\nDuration:      %dms", total))
	}

	p.printBox("RUN SUMMARY", sb.String())

	for _, warning := range meta.Warnings {
		fmt.Fprintf(p.out, "⚠ %s\n", warning)
	}
}
