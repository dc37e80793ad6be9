// internal/report/report.go

// Package report renders a quick-match plan as a markdown shortlist and as a
// one-line summary suitable for SMS.
package report

import (
	"fmt"
	"strings"
	"time"

	"school-match-workers/internal/models"
)

const DefaultTitle = "智能选校报告"

var tierOrder = models.SchoolTypes

// Config controls which sections are rendered.
type Config struct {
	Title                  string `json:"title"`
	IncludeAnalysis        bool   `json:"includeAnalysis"`
	IncludeRecommendations bool   `json:"includeRecommendations"`
	AdvisorNotes           string `json:"advisorNotes,omitempty"`
}

func DefaultConfig() Config {
	return Config{Title: DefaultTitle, IncludeAnalysis: true, IncludeRecommendations: true}
}

// Render produces the markdown report. generatedAt is printed in the header.
func Render(plan *models.QuickMatchPlan, cfg Config, generatedAt time.Time) string {
	title := cfg.Title
	if title == "" {
		title = DefaultTitle
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)
	fmt.Fprintf(&b, "方案: %s\n", plan.Name)
	fmt.Fprintf(&b, "策略: %s\n", plan.Strategy)
	fmt.Fprintf(&b, "生成时间: %s\n", generatedAt.Format("2006-01-02 15:04"))

	if cfg.IncludeAnalysis {
		counts := models.TierCounts(plan.Results)
		fmt.Fprintf(&b, "\n## 概览\n\n共 %d 个推荐", len(plan.Results))
		for _, t := range tierOrder {
			fmt.Fprintf(&b, ", %s %d 个", t.Label(), counts[t])
		}
		b.WriteString("\n")
	}

	if len(plan.Results) == 0 {
		b.WriteString("\n暂无符合条件的推荐。\n")
	}

	for _, t := range tierOrder {
		section := filter(plan.Results, t)
		if len(section) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n## %s\n", t.Label())
		for _, r := range section {
			writeResult(&b, r, cfg.IncludeRecommendations)
		}
	}

	if notes := strings.TrimSpace(cfg.AdvisorNotes); notes != "" {
		fmt.Fprintf(&b, "\n## 顾问备注\n\n%s\n", notes)
	}
	return b.String()
}

func writeResult(b *strings.Builder, r models.QuickMatchResult, withReasons bool) {
	lock := ""
	if r.Locked {
		lock = " [已锁定]"
	}
	fmt.Fprintf(b, "\n### %s - %s%s\n\n", r.School.Name, r.Program.DisplayName(), lock)
	fmt.Fprintf(b, "- 排名: %s\n", r.School.RankingLabel())
	fmt.Fprintf(b, "- 位置: %s\n", r.School.Location)
	fmt.Fprintf(b, "- 匹配度: %d\n", r.MatchScore.Total)
	if r.Program.TuitionFee != "" {
		fmt.Fprintf(b, "- 学费: %s\n", r.Program.TuitionFee)
	}

	if !withReasons {
		return
	}
	writeList(b, "优势", r.Reason.Pros)
	writeList(b, "劣势", r.Reason.Cons)
	writeList(b, "关键点", r.Reason.KeyPoints)
	writeList(b, "建议", r.Reason.Suggestions)
}

func writeList(b *strings.Builder, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "\n%s:\n", heading)
	for _, item := range items {
		fmt.Fprintf(b, "  - %s\n", item)
	}
}

func filter(results []models.QuickMatchResult, t models.SchoolType) []models.QuickMatchResult {
	var out []models.QuickMatchResult
	for _, r := range results {
		if r.Type == t {
			out = append(out, r)
		}
	}
	return out
}

// Summary is a single line naming the tier counts and the best match.
func Summary(plan *models.QuickMatchPlan) string {
	counts := models.TierCounts(plan.Results)
	parts := make([]string, 0, len(tierOrder))
	for _, t := range tierOrder {
		parts = append(parts, fmt.Sprintf("%s%d", t.Label(), counts[t]))
	}

	line := fmt.Sprintf("【%s】%s", plan.Name, strings.Join(parts, " "))
	if best, ok := top(plan.Results); ok {
		line += fmt.Sprintf(", 最高匹配: %s %s (%d分)", best.School.Name, best.Program.DisplayName(), best.MatchScore.Total)
	}
	return line
}

func top(results []models.QuickMatchResult) (models.QuickMatchResult, bool) {
	if len(results) == 0 {
		return models.QuickMatchResult{}, false
	}
	best := results[0]
	for _, r := range results[1:] {
		if r.MatchScore.Total > best.MatchScore.Total {
			best = r
		}
	}
	return best, true
}
