package charts

import (
	"fmt"
	"image/color"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/rewired-gh/readiness/internal/models"
)

const paletteSize = 64

// surfaceGrid adapts models.Surface to plotter.GridXYZ.
// Columns follow X (maintenance issues) and rows follow Y (personnel gaps).
type surfaceGrid struct {
	s models.Surface
}

func (g surfaceGrid) Dims() (c, r int)   { return len(g.s.X), len(g.s.Y) }
func (g surfaceGrid) Z(c, r int) float64 { return g.s.Z[r][c] }
func (g surfaceGrid) X(c int) float64    { return g.s.X[c] }
func (g surfaceGrid) Y(r int) float64    { return g.s.Y[r] }

// zRange returns the span used to color both the plane and the observations
func zRange(s models.Surface, rows []models.BaseRecord) (lo, hi float64) {
	first := true
	see := func(v float64) {
		if first {
			lo, hi, first = v, v, false
			return
		}
		lo = min(lo, v)
		hi = max(hi, v)
	}
	for _, row := range s.Z {
		for _, v := range row {
			see(v)
		}
	}
	for _, r := range rows {
		see(r.Readiness)
	}
	if lo == hi {
		hi = lo + 1
	}
	return lo, hi
}

// SurfaceHeatMap writes a top-down PNG of the fitted plane with the
// observations overlaid. Plane and points share one color scale.
func SurfaceHeatMap(w io.Writer, s models.Surface, rows []models.BaseRecord) error {
	if len(s.X) == 0 || len(s.Y) == 0 {
		return ErrNoData
	}

	lo, hi := zRange(s, rows)
	pal := palette.Heat(paletteSize, 1)

	p := plot.New()
	p.Title.Text = "Predicted Readiness"
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.Text = "Maintenance Issues"
	p.Y.Label.Text = "Personnel Gaps"

	hm := plotter.NewHeatMap(surfaceGrid{s: s}, pal)
	hm.Min, hm.Max = lo, hi
	p.Add(hm)

	if len(rows) > 0 {
		points := make(plotter.XYs, len(rows))
		for i, r := range rows {
			points[i].X = r.MaintenanceIssues
			points[i].Y = r.PersonnelGaps
		}
		scatter, err := plotter.NewScatter(points)
		if err != nil {
			return fmt.Errorf("failed to build scatter: %w", err)
		}
		colors := pal.Colors()
		scatter.GlyphStyleFunc = func(i int) draw.GlyphStyle {
			return draw.GlyphStyle{
				Color:  colorAt(colors, rows[i].Readiness, lo, hi),
				Radius: vg.Points(4),
				Shape:  outlinedCircle{},
			}
		}
		p.Add(scatter)
	}

	wt, err := p.WriterTo(8*vg.Inch, 6*vg.Inch, "png")
	if err != nil {
		return fmt.Errorf("failed to render surface: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write surface: %w", err)
	}
	return nil
}

func colorAt(colors []color.Color, v, lo, hi float64) color.Color {
	i := int((v - lo) / (hi - lo) * float64(len(colors)-1))
	i = max(0, min(len(colors)-1, i))
	return colors[i]
}

// outlinedCircle draws a filled circle with a black ring so points stand out
// against the heat map
type outlinedCircle struct{}

func (outlinedCircle) DrawGlyph(c *draw.Canvas, sty draw.GlyphStyle, pt vg.Point) {
	draw.CircleGlyph{}.DrawGlyph(c, sty, pt)
	ring := draw.GlyphStyle{Color: color.Black, Radius: sty.Radius}
	draw.RingGlyph{}.DrawGlyph(c, ring, pt)
}
