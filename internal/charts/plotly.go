package charts

import (
	"github.com/rewired-gh/readiness/internal/models"
)

// Figure is a Plotly.js figure: data traces plus layout, ready to be
// serialized as JSON and passed to Plotly.newPlot.
type Figure struct {
	Data   []any          `json:"data"`
	Layout map[string]any `json:"layout"`
}

type surfaceTrace struct {
	Type       string      `json:"type"`
	Name       string      `json:"name"`
	X          []float64   `json:"x"`
	Y          []float64   `json:"y"`
	Z          [][]float64 `json:"z"`
	Opacity    float64     `json:"opacity"`
	ShowScale  bool        `json:"showscale"`
	Colorscale string      `json:"colorscale"`
}

type scatterTrace struct {
	Type   string    `json:"type"`
	Mode   string    `json:"mode"`
	Name   string    `json:"name"`
	X      []float64 `json:"x"`
	Y      []float64 `json:"y"`
	Z      []float64 `json:"z"`
	Text   []string  `json:"text"`
	Marker marker    `json:"marker"`
}

type marker struct {
	Size       int            `json:"size"`
	Color      []float64      `json:"color"`
	Colorscale string         `json:"colorscale"`
	ShowScale  bool           `json:"showscale"`
	ColorBar   map[string]any `json:"colorbar,omitempty"`
}

// SurfaceFigure builds the interactive 3D explorer figure: the fitted plane as
// a surface and every base as a point colored by readiness.
func SurfaceFigure(s models.Surface, rows []models.BaseRecord) Figure {
	scatter := scatterTrace{
		Type: "scatter3d",
		Mode: "markers",
		Name: "Bases",
		X:    make([]float64, len(rows)),
		Y:    make([]float64, len(rows)),
		Z:    make([]float64, len(rows)),
		Text: make([]string, len(rows)),
		Marker: marker{
			Size:       5,
			Color:      make([]float64, len(rows)),
			Colorscale: "Viridis",
			ShowScale:  true,
			ColorBar:   map[string]any{"title": map[string]any{"text": "Readiness"}},
		},
	}
	for i, r := range rows {
		scatter.X[i] = r.MaintenanceIssues
		scatter.Y[i] = r.PersonnelGaps
		scatter.Z[i] = r.Readiness
		scatter.Text[i] = r.Base + " (" + r.Mission + ")"
		scatter.Marker.Color[i] = r.Readiness
	}

	return Figure{
		Data: []any{
			surfaceTrace{
				Type:       "surface",
				Name:       "Regression Plane",
				X:          s.X,
				Y:          s.Y,
				Z:          s.Z,
				Opacity:    0.6,
				Colorscale: "Blues",
			},
			scatter,
		},
		Layout: map[string]any{
			"title": map[string]any{"text": "Readiness vs Maintenance Issues and Personnel Gaps"},
			"scene": map[string]any{
				"xaxis": map[string]any{"title": map[string]any{"text": models.ColumnMaintenanceIssues}},
				"yaxis": map[string]any{"title": map[string]any{"text": models.ColumnPersonnelGaps}},
				"zaxis": map[string]any{"title": map[string]any{"text": models.ColumnReadiness}},
			},
			"margin": map[string]any{"l": 0, "r": 0, "b": 0, "t": 48},
			"height": 640,
		},
	}
}
