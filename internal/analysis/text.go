package analysis

import (
	"fmt"
	"strings"

	"github.com/rewired-gh/readiness/internal/models"
)

// SummaryText renders the summary view as markdown, section by section in page order
func SummaryText(s models.Summary) string {
	var b strings.Builder
	b.WriteString("## Readiness Stats\n")
	b.WriteString(s.Narrative.Stats + "\n\n")
	writeSection(&b, "Notable Outliers", s.Narrative.Outliers)
	writeSection(&b, "Mission Pattern Insights", s.Narrative.Missions)
	writeSection(&b, "Maintenance Impact Summary", s.Narrative.Maintenance)
	writeSection(&b, "Summary", s.Narrative.Summary)
	return strings.TrimRight(b.String(), "\n") + "\n"
}

// ExtremesText renders the ranking view as markdown
func ExtremesText(ex models.Extremes) string {
	var b strings.Builder
	writeTable(&b, fmt.Sprintf("Top %d Bases by Readiness", ex.N), ex.Top)
	writeTable(&b, fmt.Sprintf("Bottom %d Bases by Readiness", ex.N), ex.Bottom)
	writeSection(&b, "Bottom Performers", ex.Bullets)
	writeSection(&b, "Top Performers", TopInsights(ex))
	return strings.TrimRight(b.String(), "\n") + "\n"
}

// ExplorerText renders the fitted plane and the static commentary as markdown
func ExplorerText(fit models.PlaneFit, qa []models.QA) string {
	var b strings.Builder
	b.WriteString("## Fitted Plane\n")
	fmt.Fprintf(&b, "Readiness = %.3f × Maintenance Issues + %.3f × Personnel Gaps + %.3f (n = %d)\n\n",
		fit.A, fit.B, fit.C, fit.N)
	for _, q := range qa {
		fmt.Fprintf(&b, "**%s**\n%s\n\n", q.Question, q.Answer)
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

func writeSection(b *strings.Builder, title string, bullets []string) {
	fmt.Fprintf(b, "## %s\n", title)
	for _, line := range bullets {
		fmt.Fprintf(b, "- %s\n", line)
	}
	b.WriteString("\n")
}

func writeTable(b *strings.Builder, title string, rows []models.BaseRecord) {
	fmt.Fprintf(b, "## %s\n", title)
	fmt.Fprintf(b, "| %s |\n", strings.Join(models.RequiredColumns, " | "))
	b.WriteString("|---|---|---|---|---|\n")
	for _, r := range rows {
		fmt.Fprintf(b, "| %s | %s | %.1f | %s | %s |\n",
			r.Base, r.Mission, r.Readiness, formatCount(r.MaintenanceIssues), formatCount(r.PersonnelGaps))
	}
	b.WriteString("\n")
}
