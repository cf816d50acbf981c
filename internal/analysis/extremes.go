package analysis

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/rewired-gh/readiness/internal/models"
)

// ErrInvalidTopN is returned for a top-N value outside the allowed choices
var ErrInvalidTopN = errors.New("invalid top-N value")

// Default extremes selector values
var (
	DefaultTopNChoices = []int{5, 10, 20}
	DefaultTopN        = 10
)

// DefaultLowMaintenanceMax is the maintenance count at or below which a top
// base counts as low-maintenance
const DefaultLowMaintenanceMax = 2

// ParseTopN validates a selector value. An empty string yields def.
func ParseTopN(raw string, choices []int, def int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTopN, raw)
	}
	if !slices.Contains(choices, n) {
		return 0, fmt.Errorf("%w: %d (allowed %v)", ErrInvalidTopN, n, choices)
	}
	return n, nil
}

// RankExtremes returns the n highest and n lowest readiness bases.
// Both lists hold min(n, t.Len()) rows; equal readiness keeps file order.
// lowMaintenanceMax bounds the maintenance count tallied for the top group.
func RankExtremes(t *models.Table, n int, lowMaintenanceMax float64) models.Extremes {
	if n < 0 {
		n = 0
	}
	rows := t.Rows()
	k := min(n, len(rows))

	desc := slices.Clone(rows)
	slices.SortStableFunc(desc, func(a, b models.BaseRecord) int {
		return cmpFloat(b.Readiness, a.Readiness)
	})
	asc := slices.Clone(rows)
	slices.SortStableFunc(asc, func(a, b models.BaseRecord) int {
		return cmpFloat(a.Readiness, b.Readiness)
	})

	ex := models.Extremes{
		N:                 n,
		Top:               desc[:k:k],
		Bottom:            asc[:k:k],
		LowMaintenanceMax: lowMaintenanceMax,
	}

	missions := make([]string, 0, k)
	for _, r := range ex.Top {
		missions = append(missions, r.Mission)
		if r.MaintenanceIssues <= lowMaintenanceMax {
			ex.LowMaintenanceCount++
		}
	}
	ex.TopMission = Mode(missions)

	ex.Bullets = make([]string, 0, k)
	for _, r := range ex.Bottom {
		ex.Bullets = append(ex.Bullets, fmt.Sprintf(
			"**%s** has readiness **%.1f**, mission **%s** with **%s** maintenance issues",
			r.Base, r.Readiness, r.Mission, formatCount(r.MaintenanceIssues)))
	}
	return ex
}

// TopInsights is the text reported for the top group
func TopInsights(ex models.Extremes) []string {
	return []string{
		fmt.Sprintf("Most common mission among the top %d bases: **%s**", len(ex.Top), ex.TopMission),
		fmt.Sprintf("**%d** of the top %d bases report %s or fewer maintenance issues",
			ex.LowMaintenanceCount, len(ex.Top), formatCount(ex.LowMaintenanceMax)),
	}
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// formatCount prints whole numbers without a fraction
func formatCount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
