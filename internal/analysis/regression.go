package analysis

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/rewired-gh/readiness/internal/models"
)

// ErrRankDeficient is returned when the predictors do not determine a unique plane,
// e.g. every base has the same maintenance count.
var ErrRankDeficient = errors.New("predictors are collinear")

// DefaultGridSize is the number of samples per axis of the explorer surface
const DefaultGridSize = 30

// FitPlane fits readiness ≈ A·maintenance + B·personnel + C by ordinary least
// squares on the n×3 design matrix [maintenance, personnel, 1].
func FitPlane(t *models.Table) (models.PlaneFit, error) {
	n := t.Len()
	if n < 3 {
		return models.PlaneFit{}, fmt.Errorf("plane fit needs at least 3 rows, got %d: %w", n, ErrInsufficientData)
	}

	x := mat.NewDense(n, 3, nil)
	y := mat.NewVecDense(n, nil)
	for i, r := range t.Rows() {
		x.Set(i, 0, r.MaintenanceIssues)
		x.Set(i, 1, r.PersonnelGaps)
		x.Set(i, 2, 1)
		y.SetVec(i, r.Readiness)
	}

	var qr mat.QR
	qr.Factorize(x)
	if cond := qr.Cond(); cond > 1e12 || !finite(cond) {
		return models.PlaneFit{}, ErrRankDeficient
	}

	var beta mat.VecDense
	if err := qr.SolveVecTo(&beta, false, y); err != nil {
		return models.PlaneFit{}, fmt.Errorf("least squares solve: %w", err)
	}

	fit := models.PlaneFit{A: beta.AtVec(0), B: beta.AtVec(1), C: beta.AtVec(2), N: n}
	if !finite(fit.A) || !finite(fit.B) || !finite(fit.C) {
		return models.PlaneFit{}, ErrRankDeficient
	}
	return fit, nil
}

// Linspace returns size evenly spaced values from lo to hi inclusive.
// lo == hi yields a constant axis.
func Linspace(lo, hi float64, size int) []float64 {
	if size <= 0 {
		return nil
	}
	out := make([]float64, size)
	if size == 1 {
		out[0] = lo
		return out
	}
	step := (hi - lo) / float64(size-1)
	for i := range out {
		out[i] = lo + step*float64(i)
	}
	out[size-1] = hi
	return out
}

// BuildSurface samples fit on a size×size grid spanning the observed range of
// each predictor. Z[i][j] is the prediction at (X[j], Y[i]).
func BuildSurface(t *models.Table, fit models.PlaneFit, size int) models.Surface {
	if size <= 0 {
		size = DefaultGridSize
	}
	maint := t.MaintenanceIssues()
	pers := t.PersonnelGaps()

	surface := models.Surface{
		X: Linspace(Min(maint), Max(maint), size),
		Y: Linspace(Min(pers), Max(pers), size),
		Z: make([][]float64, size),
	}
	for i, py := range surface.Y {
		row := make([]float64, size)
		for j, mx := range surface.X {
			row[j] = fit.Predict(mx, py)
		}
		surface.Z[i] = row
	}
	return surface
}
