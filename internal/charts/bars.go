// Package charts renders the chart widgets of the three pages.
//
// Bar charts (readiness histogram, extremes comparison) are drawn with go-chart.
// The explorer surface has two renditions: a Plotly figure for the interactive
// 3D view and a static gonum/plot heat map of the fitted plane.
package charts

import (
	"errors"
	"fmt"
	"io"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/rewired-gh/readiness/internal/models"
)

// ErrNoData is returned when there is nothing to draw
var ErrNoData = errors.New("no data to chart")

var (
	colorLow     = drawing.ColorFromHex("d9534f")
	colorNeutral = drawing.ColorFromHex("428bca")
	colorHigh    = drawing.ColorFromHex("5cb85c")
)

// Bin is one histogram bucket covering [Lo, Hi); the last bucket includes Hi
type Bin struct {
	Lo    float64
	Hi    float64
	Count int
}

// Histogram buckets values into bins equal-width buckets over [min, max].
// A constant column yields a single bucket holding every value.
func Histogram(values []float64, bins int) []Bin {
	if len(values) == 0 || bins < 1 {
		return nil
	}
	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	if lo == hi {
		return []Bin{{Lo: lo, Hi: hi, Count: len(values)}}
	}

	width := (hi - lo) / float64(bins)
	out := make([]Bin, bins)
	for i := range out {
		out[i].Lo = lo + width*float64(i)
		out[i].Hi = lo + width*float64(i+1)
	}
	out[bins-1].Hi = hi
	for _, v := range values {
		i := int((v - lo) / width)
		if i >= bins {
			i = bins - 1
		}
		out[i].Count++
	}
	return out
}

// ReadinessHistogram writes a PNG histogram of readiness. Buckets lying wholly
// below the low threshold are red and buckets wholly above the high threshold
// are green.
func ReadinessHistogram(w io.Writer, s models.Summary, values []float64, bins int) error {
	hist := Histogram(values, bins)
	if len(hist) == 0 {
		return ErrNoData
	}

	bars := make([]chart.Value, 0, len(hist))
	maxCount := 1
	for _, b := range hist {
		color := colorNeutral
		switch {
		case b.Hi <= s.LowThreshold:
			color = colorLow
		case b.Lo >= s.HighThreshold:
			color = colorHigh
		}
		bars = append(bars, chart.Value{
			Value: float64(b.Count),
			Label: fmt.Sprintf("%.0f-%.0f", b.Lo, b.Hi),
			Style: chart.Style{FillColor: color, StrokeColor: color},
		})
		maxCount = max(maxCount, b.Count)
	}

	bc := chart.BarChart{
		Title:      "Readiness Distribution",
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 12, Bottom: 16}},
		Width:      max(800, 64*len(bars)+120),
		Height:     400,
		BarWidth:   56,
		BarSpacing: 8,
		YAxis: chart.YAxis{
			Name:  "Bases",
			Range: &chart.ContinuousRange{Min: 0, Max: float64(maxCount)},
		},
		Bars: bars,
	}
	if err := bc.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("failed to render histogram: %w", err)
	}
	return nil
}

// ExtremesBars writes a PNG bar chart comparing the top and bottom bases
func ExtremesBars(w io.Writer, ex models.Extremes) error {
	if len(ex.Top) == 0 && len(ex.Bottom) == 0 {
		return ErrNoData
	}

	bars := make([]chart.Value, 0, len(ex.Top)+len(ex.Bottom))
	add := func(rows []models.BaseRecord, color drawing.Color) {
		for _, r := range rows {
			bars = append(bars, chart.Value{
				Value: r.Readiness,
				Label: r.Base,
				Style: chart.Style{FillColor: color, StrokeColor: color},
			})
		}
	}
	add(ex.Top, colorHigh)
	add(ex.Bottom, colorLow)


	bc := chart.BarChart{
		Title:      fmt.Sprintf("Top %d vs Bottom %d Readiness", ex.N, ex.N),
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 12, Bottom: 24}},
		Width:      max(800, 40*len(bars)+120),
		Height:     420,
		BarWidth:   32,
		BarSpacing: 8,
		YAxis: chart.YAxis{
			Name:  "Readiness",
			Range: valueRange(bars),
		},
		Bars: bars,
	}
	if err := bc.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("failed to render extremes chart: %w", err)
	}
	return nil
}

// valueRange spans zero and every bar value, so negative bars are not clipped
func valueRange(bars []chart.Value) *chart.ContinuousRange {
	lo, hi := 0.0, 1.0
	for _, b := range bars {
		lo = min(lo, b.Value)
		hi = max(hi, b.Value)
	}
	return &chart.ContinuousRange{Min: lo, Max: hi}
}
