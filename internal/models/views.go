package models

import (
	"errors"
	"time"
)

// NotAvailable is the mode reported for an empty group
const NotAvailable = "N/A"

// ReadinessStats describes the distribution of the readiness column.
// StdDev is the deviation the outlier bands were computed with.
type ReadinessStats struct {
	Count            int     `json:"count"`
	Min              float64 `json:"min"`
	Max              float64 `json:"max"`
	Mean             float64 `json:"mean"`
	Median           float64 `json:"median"`
	StdDevSample     float64 `json:"stddev_sample"`
	StdDevPopulation float64 `json:"stddev_population"`
	StdDev           float64 `json:"stddev"`
	StdDevKind       string  `json:"stddev_kind"` // "sample" or "population"
}

// OutlierGroup holds the records on one side of the outlier bands
type OutlierGroup struct {
	Records         []BaseRecord `json:"records"`
	Count           int          `json:"count"`
	TopMission      string       `json:"top_mission"`
	MeanMaintenance float64      `json:"mean_maintenance"`
}

// Summary is the descriptive-statistics and outlier view of a table
type Summary struct {
	Stats         ReadinessStats `json:"stats"`
	LowThreshold  float64        `json:"low_threshold"`
	HighThreshold float64        `json:"high_threshold"`
	Low           OutlierGroup   `json:"low"`
	High          OutlierGroup   `json:"high"`
	Narrative     Narrative      `json:"narrative"`
}

// Narrative is the fixed templated text of the summary view, one slice per section
type Narrative struct {
	Stats       string   `json:"stats"`
	Outliers    []string `json:"outliers"`
	Missions    []string `json:"missions"`
	Maintenance []string `json:"maintenance"`
	Summary     []string `json:"summary"`
}

// PlaneFit is an ordinary least-squares fit of
// readiness ≈ A·maintenance + B·personnel + C.
type PlaneFit struct {
	A float64 `json:"a"`
	B float64 `json:"b"`
	C float64 `json:"c"`
	N int     `json:"n"`
}

// Predict evaluates the fitted plane
func (f PlaneFit) Predict(maintenance, personnel float64) float64 {
	return f.A*maintenance + f.B*personnel + f.C
}

// Surface is the fitted plane sampled over a grid.
// Z[i][j] is the prediction at (X[j], Y[i]); X spans maintenance issues and
// Y spans personnel gaps.
type Surface struct {
	X []float64   `json:"x"`
	Y []float64   `json:"y"`
	Z [][]float64 `json:"z"`
}

// QA is one static question-and-answer block on the explorer page
type QA struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Extremes is the top/bottom ranking view of a table
type Extremes struct {
	N                   int          `json:"n"`
	Top                 []BaseRecord `json:"top"`
	Bottom              []BaseRecord `json:"bottom"`
	TopMission          string       `json:"top_mission"`
	LowMaintenanceMax   float64      `json:"low_maintenance_max"`
	LowMaintenanceCount int          `json:"low_maintenance_count"`
	Bullets             []string     `json:"bullets"`
}

// Report kinds stored in the archive
const (
	ReportKindSummary  = "summary"
	ReportKindExtremes = "extremes"
)

// Report is a published text rendering of a view
type Report struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Digest    string    `json:"digest"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// Validate checks that all report fields are valid
func (r *Report) Validate() error {
	if r.ID == "" {
		return errors.New("report ID must not be empty")
	}
	if r.Kind != ReportKindSummary && r.Kind != ReportKindExtremes {
		return errors.New("report kind must be 'summary' or 'extremes'")
	}
	if r.Digest == "" {
		return errors.New("report digest must not be empty")
	}
	if r.Body == "" {
		return errors.New("report body must not be empty")
	}
	if r.CreatedAt.IsZero() {
		return errors.New("created at must be set")
	}
	if r.CreatedAt.After(time.Now()) {
		return errors.New("created at must not be in the future")
	}
	return nil
}
