// cmd/matchctl/console.go
package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"school-match-workers/internal/models"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))

	tierStyles = map[models.SchoolType]lipgloss.Style{
		models.TypeReach:  lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		models.TypeTarget: lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true),
		models.TypeSafety: lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
	}

	tierOrder = models.SchoolTypes
)

type console struct {
	w io.Writer
}

func newConsole(w io.Writer) *console {
	return &console{w: w}
}

func (c *console) printf(format string, args ...interface{}) {
	fmt.Fprintf(c.w, format, args...)
}

func (c *console) Plan(out matchOutput) error {
	plan := out.Plan
	c.printf("%s\n", headerStyle.Render(plan.Name))
	c.printf("%s\n\n", dimStyle.Render(fmt.Sprintf("strategy %s · %d pairs scored · %dms",
		plan.Strategy, out.PairsScored, out.DurationMs)))

	if len(plan.Results) == 0 {
		c.printf("No matches for these criteria.\n")
		return nil
	}

	index := 0
	for _, tier := range tierOrder {
		var group []models.QuickMatchResult
		for _, r := range plan.Results {
			if r.Type == tier {
				group = append(group, r)
			}
		}
		if len(group) == 0 {
			continue
		}
		c.printf("%s %s\n", tierStyles[tier].Render(tier.Label()),
			dimStyle.Render(fmt.Sprintf("(%d of %d candidates)", len(group), out.Candidates[tier])))
		for _, r := range group {
			index++
			c.printf("  %d. %s  %s  %s\n", index, r.School.Name, r.Program.DisplayName(),
				headerStyle.Render(fmt.Sprintf("%d", r.MatchScore.Total)))
			c.printf("     %s\n", dimStyle.Render(fmt.Sprintf("%s · %s", r.School.Location, r.School.RankingLabel())))
		}
		c.printf("\n")
	}
	return nil
}

func (c *console) Explain(r models.QuickMatchResult) error {
	c.printf("%s  %s\n", headerStyle.Render(r.School.Name), r.Program.DisplayName())
	c.printf("%s  total %s\n\n", tierStyles[r.Type].Render(r.Type.Label()),
		headerStyle.Render(fmt.Sprintf("%d", r.MatchScore.Total)))

	b := r.MatchScore.Breakdown
	for _, row := range []struct {
		name  string
		score float64
	}{
		{"ranking", b.Ranking},
		{"cost", b.Cost},
		{"admission", b.Admission},
		{"program", b.Program},
		{"location", b.Location},
	} {
		c.printf("  %-10s %6.1f  %s\n", row.name, row.score, bar(row.score))
	}

	c.list("Pros", r.Reason.Pros, okStyle)
	c.list("Cons", r.Reason.Cons, errorStyle)
	c.list("Key points", r.Reason.KeyPoints, headerStyle)
	c.list("Suggestions", r.Reason.Suggestions, dimStyle)
	return nil
}

func (c *console) list(title string, items []string, style lipgloss.Style) {
	if len(items) == 0 {
		return
	}
	c.printf("\n%s\n", style.Render(title))
	for _, item := range items {
		c.printf("  - %s\n", item)
	}
}

func (c *console) RegistryReport(source string, activities int, errs []error) {
	if len(errs) == 0 {
		c.printf("%s %s: %d activities\n", okStyle.Render("✓"), source, activities)
		return
	}
	c.printf("%s %s: %d problem(s)\n", errorStyle.Render("✗"), source, len(errs))
	for _, err := range errs {
		c.printf("  - %s\n", err)
	}
}

// bar draws a 20-cell gauge for a 0-100 score.
func bar(score float64) string {
	cells := int(score/5 + 0.5)
	if cells < 0 {
		cells = 0
	}
	if cells > 20 {
		cells = 20
	}
	return strings.Repeat("█", cells) + dimStyle.Render(strings.Repeat("░", 20-cells))
}
