// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/resume-tailor/internal/types"
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

	for _, line := range strings.Split(content, "\n") {
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintRubric outputs the requirements a run is selecting against.
func (p *Printer) PrintRubric(rubric *types.Rubric) {
	if rubric == nil || len(rubric.Requirements) == 0 {
		return
	}

	var sb strings.Builder
	if rubric.JobMeta.Company != "" || rubric.JobMeta.Title != "" {
		sb.WriteString(fmt.Sprintf("Company:  %s\n", rubric.JobMeta.Company))
		sb.WriteString(fmt.Sprintf("Role:     %s\n\n", rubric.JobMeta.Title))
	}

	must, nice := rubric.Totals()
	sb.WriteString(fmt.Sprintf("Requirements: %d must, %d nice\n", must, nice))

	count := min(len(rubric.Requirements), maxItemsToShow)
	for i := 0; i < count; i++ {
		req := rubric.Requirements[i]
		sb.WriteString(fmt.Sprintf("  • [%s] %s (w=%.2f)\n", req.Type, req.ReqID, req.Weight))
	}
	if len(rubric.Requirements) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(rubric.Requirements)-maxItemsToShow))
	}

	p.printBox("JOB RUBRIC", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintSelectionPlan outputs coverage, budgets and the selected bullets of a plan.
func (p *Printer) PrintSelectionPlan(plan *types.SelectionPlan) {
	if plan == nil {
		return
	}

	cov := plan.Coverage
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Must covered: %d/%d\n", cov.MustCovered, cov.MustTotal))
	sb.WriteString(fmt.Sprintf("Nice covered: %d/%d\n", cov.NiceCovered, cov.NiceTotal))
	if cov.CoveragePercent != nil {
		sb.WriteString(fmt.Sprintf("Coverage:     %d%%\n", *cov.CoveragePercent))
	}
	used := plan.BudgetsUsed
	sb.WriteString(fmt.Sprintf("Budgets: %d exp, %d proj, %d awards, %d words\n",
		used.ExperienceBullets, used.ProjectBullets, used.AwardLines, used.Words))
	p.printBox("SELECTION COVERAGE", strings.TrimSuffix(sb.String(), "\n"))

	p.printSection("WORK EXPERIENCE", plan.Selected.WorkExperience)
	p.printSection("PROJECTS", plan.Selected.Projects)
	p.printSection("AWARDS", plan.Selected.Awards)
	p.PrintUncovered(plan.Coverage.UncoveredRequirements)
}

func (p *Printer) printSection(title string, items []types.SelectedItem) {
	if len(items) == 0 {
		return
	}

	var sb strings.Builder
	for i, item := range items {
		sb.WriteString(fmt.Sprintf("%s  [%s #%d, %s]\n", item.BulletID, item.Phase, item.Sequence, item.RewriteIntent))
		sb.WriteString(fmt.Sprintf("    %s\n", item.OriginalText))
		var reqs []string
		for _, m := range item.Matches {
			if m.Counted {
				reqs = append(reqs, m.ReqID)
			}
		}
		if len(reqs) > 0 {
			sb.WriteString(fmt.Sprintf("    Covers: %s\n", strings.Join(reqs, ", ")))
		}
		if i < len(items)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox(fmt.Sprintf("%s (%d)", title, len(items)), strings.TrimSuffix(sb.String(), "\n"))
}

// PrintUncovered outputs the requirements the plan left uncovered and why.
func (p *Printer) PrintUncovered(uncovered []types.UncoveredRequirement) {
	if len(uncovered) == 0 {
		return
	}

	var sb strings.Builder
	for _, u := range uncovered {
		sb.WriteString(fmt.Sprintf("  ✗ [%s] %s: %s\n", u.Type, u.ReqID, u.Reason))
	}
	p.printBox(fmt.Sprintf("UNCOVERED REQUIREMENTS (%d)", len(uncovered)), strings.TrimSuffix(sb.String(), "\n"))
}

// PrintSelectionNotes outputs dropped bullets and degraded inputs.
func (p *Printer) PrintSelectionNotes(notes types.SelectionNotes) {
	var sb strings.Builder
	writeList := func(label string, ids []string) {
		if len(ids) == 0 {
			return
		}
		shown := ids
		if len(shown) > maxItemsToShow {
			shown = shown[:maxItemsToShow]
		}
		sb.WriteString(fmt.Sprintf("%s (%d): %s", label, len(ids), strings.Join(shown, ", ")))
		if len(ids) > maxItemsToShow {
			sb.WriteString(" ...")
		}
		sb.WriteString("\n")
	}
	writeList("Redundant", notes.DroppedDueToRedundancy)
	writeList("Over budget", notes.DroppedDueToBudget)
	writeList("No evidence", notes.MissingEvidence)
	for _, s := range notes.BudgetShortfalls {
		sb.WriteString(fmt.Sprintf("Short on %s: %d/%d\n", s.Section, s.Used, s.Minimum))
	}

	if sb.Len() == 0 {
		return
	}
	p.printBox("SELECTION NOTES", strings.TrimSuffix(sb.String(), "\n"))
}
