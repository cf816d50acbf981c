package analysis

import (
	"errors"
	"fmt"

	"github.com/rewired-gh/readiness/internal/models"
)

// ErrInsufficientData is returned when a table has too few rows for a view
var ErrInsufficientData = errors.New("insufficient data")

// Standard deviation variants
const (
	StdDevKindSample     = "sample"
	StdDevKindPopulation = "population"
)

// SummaryOptions tunes Summarize
type SummaryOptions struct {
	// PopulationStdDev selects the n divisor for the outlier bands
	PopulationStdDev bool
}

// Stats computes the readiness distribution of t
func Stats(t *models.Table, opts SummaryOptions) (models.ReadinessStats, error) {
	values := t.Readiness()
	if len(values) == 0 {
		return models.ReadinessStats{}, fmt.Errorf("readiness stats: %w", ErrInsufficientData)
	}

	s := models.ReadinessStats{
		Count:            len(values),
		Min:              Min(values),
		Max:              Max(values),
		Mean:             Mean(values),
		Median:           Median(values),
		StdDevSample:     StdDevSample(values),
		StdDevPopulation: StdDevPopulation(values),
	}
	if opts.PopulationStdDev {
		s.StdDev, s.StdDevKind = s.StdDevPopulation, StdDevKindPopulation
	} else {
		s.StdDev, s.StdDevKind = s.StdDevSample, StdDevKindSample
	}
	return s, nil
}

// Summarize builds the summary and outlier view of t.
// The only error is an empty table.
func Summarize(t *models.Table, opts SummaryOptions) (models.Summary, error) {
	stats, err := Stats(t, opts)
	if err != nil {
		return models.Summary{}, err
	}

	low := stats.Mean - stats.StdDev
	high := stats.Mean + stats.StdDev

	summary := models.Summary{
		Stats:         stats,
		LowThreshold:  low,
		HighThreshold: high,
		Low:           outlierGroup(t.Filter(func(r models.BaseRecord) bool { return r.Readiness < low })),
		High:          outlierGroup(t.Filter(func(r models.BaseRecord) bool { return r.Readiness > high })),
	}
	summary.Narrative = narrate(summary)
	return summary, nil
}

func outlierGroup(t *models.Table) models.OutlierGroup {
	return models.OutlierGroup{
		Records:         t.Rows(),
		Count:           t.Len(),
		TopMission:      Mode(t.Missions()),
		MeanMaintenance: MeanOrZero(t.MaintenanceIssues()),
	}
}

// narrate fills the fixed text of the summary page. Bold spans use **markdown**
// markers; renderers convert them for their medium.
func narrate(s models.Summary) models.Narrative {
	st := s.Stats
	return models.Narrative{
		Stats: fmt.Sprintf("**Readiness Range:** %.1f to %.1f | Mean: %.1f | Median: %.1f | Std Dev: %.1f",
			st.Min, st.Max, st.Mean, st.Median, st.StdDev),
		Outliers: []string{
			fmt.Sprintf("**%d bases** have unusually **low readiness** (< %.1f)", s.Low.Count, s.LowThreshold),
			fmt.Sprintf("**%d bases** show **exceptional readiness** (> %.1f)", s.High.Count, s.HighThreshold),
		},
		Missions: []string{
			fmt.Sprintf("Among **low readiness** bases, the most common mission is **%s**", s.Low.TopMission),
			fmt.Sprintf("Among **high readiness** bases, the most common mission is **%s**", s.High.TopMission),
		},
		Maintenance: []string{
			fmt.Sprintf("Average maintenance issues for **low readiness** bases: **%.1f**", s.Low.MeanMaintenance),
			fmt.Sprintf("Average maintenance issues for **high readiness** bases: **%.1f**", s.High.MeanMaintenance),
		},
		Summary: []string{
			fmt.Sprintf("Bases with **readiness below %.1f** may require urgent intervention.", s.LowThreshold),
			fmt.Sprintf("Mission type **%s** appears frequently among underperformers.", s.Low.TopMission),
			"Lower readiness correlates with **higher average maintenance issues**.",
			fmt.Sprintf("Recommend closer analysis of **maintenance drivers** and **mission planning** for %s bases.", s.Low.TopMission),
		},
	}
}
