package analysis

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/rewired-gh/readiness/internal/models"
)

const tolerance = 1e-9

func approxEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func exampleTable() *models.Table {
	return models.NewTable([]models.BaseRecord{
		{Base: "Base_001", Mission: "Airlift", Readiness: 40, MaintenanceIssues: 5, PersonnelGaps: 3},
		{Base: "Base_002", Mission: "Fighter", Readiness: 60, MaintenanceIssues: 3, PersonnelGaps: 2},
		{Base: "Base_003", Mission: "Airlift", Readiness: 80, MaintenanceIssues: 1, PersonnelGaps: 2},
		{Base: "Base_004", Mission: "Bomber", Readiness: 95, MaintenanceIssues: 0, PersonnelGaps: 1},
		{Base: "Base_005", Mission: "Fighter", Readiness: 20, MaintenanceIssues: 7, PersonnelGaps: 4},
	})
}

func TestStatsPrimitives(t *testing.T) {
	values := []float64{40, 60, 80, 95, 20}

	if got := Min(values); got != 20 {
		t.Errorf("Min = %v, want 20", got)
	}
	if got := Max(values); got != 95 {
		t.Errorf("Max = %v, want 95", got)
	}
	if got := Mean(values); !approxEqual(got, 59, tolerance) {
		t.Errorf("Mean = %v, want 59", got)
	}
	if got := Median(values); got != 60 {
		t.Errorf("Median = %v, want 60", got)
	}
	if got := Median([]float64{4, 1, 3, 2}); got != 2.5 {
		t.Errorf("even Median = %v, want 2.5", got)
	}
	// squared deviations sum to 3620
	if got := StdDevSample(values); !approxEqual(got, math.Sqrt(3620.0/4), tolerance) {
		t.Errorf("StdDevSample = %v, want %v", got, math.Sqrt(905))
	}
	if got := StdDevPopulation(values); !approxEqual(got, math.Sqrt(3620.0/5), tolerance) {
		t.Errorf("StdDevPopulation = %v, want %v", got, math.Sqrt(724))
	}
	if got := StdDevSample([]float64{42}); got != 0 {
		t.Errorf("StdDevSample of one value = %v, want 0", got)
	}
}

func TestEmptyInputs(t *testing.T) {
	if got := Mode(nil); got != models.NotAvailable {
		t.Errorf("Mode(nil) = %q, want %q", got, models.NotAvailable)
	}
	if got := MeanOrZero(nil); got != 0 {
		t.Errorf("MeanOrZero(nil) = %v, want 0", got)
	}
	if !math.IsNaN(Mean(nil)) {
		t.Errorf("Mean(nil) should be NaN")
	}
	if Min(nil) != 0 || Max(nil) != 0 || Median(nil) != 0 || StdDevPopulation(nil) != 0 {
		t.Errorf("empty primitives should be 0")
	}
}

func TestMode(t *testing.T) {
	tests := []struct {
		name   string
		values []string
		want   string
	}{
		{"single", []string{"Airlift"}, "Airlift"},
		{"clear winner", []string{"Fighter", "Airlift", "Airlift"}, "Airlift"},
		{"tie keeps first seen", []string{"Tanker", "Airlift", "Airlift", "Tanker"}, "Tanker"},
		{"later value overtakes", []string{"Tanker", "Airlift", "Airlift"}, "Airlift"},
		{"all distinct", []string{"Bomber", "Airlift", "Fighter"}, "Bomber"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Mode(tt.values); got != tt.want {
				t.Errorf("Mode(%v) = %q, want %q", tt.values, got, tt.want)
			}
		})
	}
}

func TestSummarizeExample(t *testing.T) {
	for _, population := range []bool{false, true} {
		t.Run(fmt.Sprintf("population=%v", population), func(t *testing.T) {
			s, err := Summarize(exampleTable(), SummaryOptions{PopulationStdDev: population})
			if err != nil {
				t.Fatalf("Summarize failed: %v", err)
			}

			if s.Stats.Mean != 59 {
				t.Errorf("mean = %v, want 59", s.Stats.Mean)
			}
			if !approxEqual(s.LowThreshold, s.Stats.Mean-s.Stats.StdDev, tolerance) ||
				!approxEqual(s.HighThreshold, s.Stats.Mean+s.Stats.StdDev, tolerance) {
				t.Errorf("thresholds %v/%v do not match mean±sd", s.LowThreshold, s.HighThreshold)
			}

			if s.Low.Count != 1 || s.Low.Records[0].Readiness != 20 {
				t.Errorf("expected only readiness 20 as low outlier, got %+v", s.Low.Records)
			}
			if s.High.Count != 1 || s.High.Records[0].Readiness != 95 {
				t.Errorf("expected only readiness 95 as high outlier, got %+v", s.High.Records)
			}
			if s.Low.TopMission != "Fighter" || s.High.TopMission != "Bomber" {
				t.Errorf("unexpected top missions %q / %q", s.Low.TopMission, s.High.TopMission)
			}
			if s.Low.MeanMaintenance != 7 || s.High.MeanMaintenance != 0 {
				t.Errorf("unexpected mean maintenance %v / %v", s.Low.MeanMaintenance, s.High.MeanMaintenance)
			}
		})
	}
}

func TestSummarizeStdDevKind(t *testing.T) {
	sample, _ := Summarize(exampleTable(), SummaryOptions{})
	if sample.Stats.StdDevKind != StdDevKindSample || sample.Stats.StdDev != sample.Stats.StdDevSample {
		t.Errorf("default should use sample stddev, got %+v", sample.Stats)
	}
	pop, _ := Summarize(exampleTable(), SummaryOptions{PopulationStdDev: true})
	if pop.Stats.StdDevKind != StdDevKindPopulation || pop.Stats.StdDev != pop.Stats.StdDevPopulation {
		t.Errorf("population option ignored, got %+v", pop.Stats)
	}
	if !approxEqual(pop.Stats.StdDev, 26.9, 0.05) {
		t.Errorf("population sd = %v, want ≈26.9", pop.Stats.StdDev)
	}
}

func TestSummarizeInvariants(t *testing.T) {
	tables := []*models.Table{
		exampleTable(),
		models.NewTable([]models.BaseRecord{{Base: "A", Mission: "Airlift", Readiness: 50}}),
		models.NewTable([]models.BaseRecord{
			{Base: "A", Mission: "Airlift", Readiness: 70},
			{Base: "B", Mission: "Airlift", Readiness: 70},
			{Base: "C", Mission: "Tanker", Readiness: 70},
		}),
	}

	for i, table := range tables {
		s, err := Summarize(table, SummaryOptions{})
		if err != nil {
			t.Fatalf("table %d: Summarize failed: %v", i, err)
		}
		if s.Low.Count+s.High.Count > table.Len() {
			t.Errorf("table %d: outlier counts exceed row count", i)
		}
		inBand := 0
		for _, r := range table.Rows() {
			if r.Readiness >= s.LowThreshold && r.Readiness <= s.HighThreshold {
				inBand++
			}
		}
		if inBand+s.Low.Count+s.High.Count != table.Len() {
			t.Errorf("table %d: %d in band + %d low + %d high != %d rows",
				i, inBand, s.Low.Count, s.High.Count, table.Len())
		}
		for _, r := range s.Low.Records {
			if r.Readiness >= s.LowThreshold {
				t.Errorf("table %d: low outlier %v not below %v", i, r.Readiness, s.LowThreshold)
			}
		}
		for _, r := range s.High.Records {
			if r.Readiness <= s.HighThreshold {
				t.Errorf("table %d: high outlier %v not above %v", i, r.Readiness, s.HighThreshold)
			}
		}
		if s.Low.Count == 0 {
			if s.Low.TopMission != models.NotAvailable || s.Low.MeanMaintenance != 0 {
				t.Errorf("table %d: empty low group should report N/A and 0, got %q %v",
					i, s.Low.TopMission, s.Low.MeanMaintenance)
			}
		}
	}
}

func TestSummarizeEmpty(t *testing.T) {
	_, err := Summarize(models.NewTable(nil), SummaryOptions{})
	if !errors.Is(err, ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}
}

func TestSummaryNarrative(t *testing.T) {
	s, err := Summarize(exampleTable(), SummaryOptions{})
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	n := s.Narrative

	want := "**Readiness Range:** 20.0 to 95.0 | Mean: 59.0 | Median: 60.0 | Std Dev: 30.1"
	if n.Stats != want {
		t.Errorf("stats line = %q, want %q", n.Stats, want)
	}
	if n.Outliers[0] != "**1 bases** have unusually **low readiness** (< 28.9)" {
		t.Errorf("unexpected low outlier line %q", n.Outliers[0])
	}
	if n.Outliers[1] != "**1 bases** show **exceptional readiness** (> 89.1)" {
		t.Errorf("unexpected high outlier line %q", n.Outliers[1])
	}
	if len(n.Summary) != 4 || !strings.Contains(n.Summary[3], "for Fighter bases") {
		t.Errorf("unexpected summary bullets %v", n.Summary)
	}

	text := SummaryText(s)
	for _, heading := range []string{"Readiness Stats", "Notable Outliers", "Mission Pattern Insights", "Maintenance Impact Summary", "## Summary"} {
		if !strings.Contains(text, heading) {
			t.Errorf("summary text missing %q", heading)
		}
	}
}

func TestFitPlaneRecoversExactPlane(t *testing.T) {
	plane := models.PlaneFit{A: -4.5, B: -2, C: 92}
	var records []models.BaseRecord
	for m := 0.0; m <= 6; m += 2 {
		for p := 0.0; p <= 4; p++ {
			records = append(records, models.BaseRecord{
				Base:              fmt.Sprintf("Base_%02.0f_%02.0f", m, p),
				Mission:           "Airlift",
				Readiness:         plane.Predict(m, p),
				MaintenanceIssues: m,
				PersonnelGaps:     p,
			})
		}
	}

	fit, err := FitPlane(models.NewTable(records))
	if err != nil {
		t.Fatalf("FitPlane failed: %v", err)
	}
	if !approxEqual(fit.A, plane.A, 1e-8) || !approxEqual(fit.B, plane.B, 1e-8) || !approxEqual(fit.C, plane.C, 1e-8) {
		t.Errorf("fit = %+v, want %+v", fit, plane)
	}
	if fit.N != len(records) {
		t.Errorf("fit.N = %d, want %d", fit.N, len(records))
	}
}

func TestFitPlaneMinimizesResiduals(t *testing.T) {
	table := exampleTable()
	fit, err := FitPlane(table)
	if err != nil {
		t.Fatalf("FitPlane failed: %v", err)
	}

	sse := func(f models.PlaneFit) float64 {
		var s float64
		for _, r := range table.Rows() {
			d := r.Readiness - f.Predict(r.MaintenanceIssues, r.PersonnelGaps)
			s += d * d
		}
		return s
	}
	best := sse(fit)
	for _, nudge := range []models.PlaneFit{
		{A: fit.A + 0.1, B: fit.B, C: fit.C},
		{A: fit.A, B: fit.B - 0.1, C: fit.C},
		{A: fit.A, B: fit.B, C: fit.C + 0.1},
	} {
		if sse(nudge) < best {
			t.Errorf("perturbed fit %+v has lower SSE than %+v", nudge, fit)
		}
	}
}

func TestFitPlaneErrors(t *testing.T) {
	two := models.NewTable([]models.BaseRecord{
		{Base: "A", Mission: "Airlift", Readiness: 50, MaintenanceIssues: 1, PersonnelGaps: 1},
		{Base: "B", Mission: "Airlift", Readiness: 60, MaintenanceIssues: 2, PersonnelGaps: 3},
	})
	if _, err := FitPlane(two); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}

	constant := models.NewTable([]models.BaseRecord{
		{Base: "A", Mission: "Airlift", Readiness: 50, MaintenanceIssues: 2, PersonnelGaps: 1},
		{Base: "B", Mission: "Airlift", Readiness: 60, MaintenanceIssues: 2, PersonnelGaps: 3},
		{Base: "C", Mission: "Airlift", Readiness: 70, MaintenanceIssues: 2, PersonnelGaps: 5},
	})
	if _, err := FitPlane(constant); !errors.Is(err, ErrRankDeficient) {
		t.Errorf("expected ErrRankDeficient, got %v", err)
	}
}

func TestBuildSurface(t *testing.T) {
	table := exampleTable()
	fit, err := FitPlane(table)
	if err != nil {
		t.Fatalf("FitPlane failed: %v", err)
	}

	s := BuildSurface(table, fit, DefaultGridSize)
	if len(s.X) != 30 || len(s.Y) != 30 || len(s.Z) != 30 || len(s.Z[0]) != 30 {
		t.Fatalf("unexpected grid shape %dx%d", len(s.Y), len(s.X))
	}
	if s.X[0] != 0 || s.X[29] != 7 || s.Y[0] != 1 || s.Y[29] != 4 {
		t.Errorf("grid does not span observed ranges: x=[%v,%v] y=[%v,%v]", s.X[0], s.X[29], s.Y[0], s.Y[29])
	}

	corners := [][2]int{{0, 0}, {0, 29}, {29, 0}, {29, 29}}
	for _, c := range corners {
		i, j := c[0], c[1]
		want := fit.A*s.X[j] + fit.B*s.Y[i] + fit.C
		if !approxEqual(s.Z[i][j], want, 1e-9) {
			t.Errorf("Z[%d][%d] = %v, want %v", i, j, s.Z[i][j], want)
		}
	}

	for k := 1; k < len(s.X); k++ {
		if s.X[k] <= s.X[k-1] {
			t.Fatalf("X not increasing at %d", k)
		}
	}
}

func TestLinspaceDegenerate(t *testing.T) {
	axis := Linspace(3, 3, 5)
	for _, v := range axis {
		if v != 3 {
			t.Fatalf("expected constant axis, got %v", axis)
		}
	}
	if got := Linspace(0, 1, 1); len(got) != 1 || got[0] != 0 {
		t.Errorf("Linspace size 1 = %v", got)
	}
}

func TestCommentaryIsStatic(t *testing.T) {
	qa := Commentary()
	if len(qa) != 3 {
		t.Fatalf("expected 3 Q&A blocks, got %d", len(qa))
	}
	again := Commentary()
	for i := range qa {
		if qa[i] != again[i] || qa[i].Question == "" || qa[i].Answer == "" {
			t.Errorf("block %d is empty or not stable", i)
		}
	}
}

func TestRankExtremes(t *testing.T) {
	table := exampleTable()

	for _, n := range []int{2, 5, 10} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			ex := RankExtremes(table, n, DefaultLowMaintenanceMax)
			want := min(n, table.Len())
			if len(ex.Top) != want || len(ex.Bottom) != want {
				t.Fatalf("sizes %d/%d, want %d", len(ex.Top), len(ex.Bottom), want)
			}
			for i := 1; i < want; i++ {
				if ex.Top[i].Readiness > ex.Top[i-1].Readiness {
					t.Errorf("top not descending at %d", i)
				}
				if ex.Bottom[i].Readiness < ex.Bottom[i-1].Readiness {
					t.Errorf("bottom not ascending at %d", i)
				}
			}
			if len(ex.Bullets) != want {
				t.Errorf("expected %d bullets, got %d", want, len(ex.Bullets))
			}
		})
	}

	ex := RankExtremes(table, 2, DefaultLowMaintenanceMax)
	if ex.Top[0].Base != "Base_004" || ex.Bottom[0].Base != "Base_005" {
		t.Errorf("unexpected extremes top=%s bottom=%s", ex.Top[0].Base, ex.Bottom[0].Base)
	}
	// top two are Bomber (0 issues) and Airlift (1 issue)
	if ex.TopMission != "Bomber" || ex.LowMaintenanceCount != 2 {
		t.Errorf("unexpected top insights mission=%q lowMaint=%d", ex.TopMission, ex.LowMaintenanceCount)
	}
	wantBullet := "**Base_005** has readiness **20.0**, mission **Fighter** with **7** maintenance issues"
	if ex.Bullets[0] != wantBullet {
		t.Errorf("bullet = %q, want %q", ex.Bullets[0], wantBullet)
	}
}

func TestRankExtremesStableTies(t *testing.T) {
	table := models.NewTable([]models.BaseRecord{
		{Base: "A", Mission: "Airlift", Readiness: 70},
		{Base: "B", Mission: "Tanker", Readiness: 70},
		{Base: "C", Mission: "Tanker", Readiness: 90},
	})
	ex := RankExtremes(table, 3, DefaultLowMaintenanceMax)
	if ex.Top[1].Base != "A" || ex.Top[2].Base != "B" {
		t.Errorf("descending ties should keep file order, got %v", ex.Top)
	}
	if ex.Bottom[0].Base != "A" || ex.Bottom[1].Base != "B" {
		t.Errorf("ascending ties should keep file order, got %v", ex.Bottom)
	}
	if ex.TopMission != "Tanker" {
		t.Errorf("expected Tanker as top mission, got %q", ex.TopMission)
	}
}

func TestRankExtremesDoesNotAlias(t *testing.T) {
	table := exampleTable()
	ex := RankExtremes(table, 5, DefaultLowMaintenanceMax)
	ex.Top[0].Readiness = -1
	if table.Row(3).Readiness != 95 {
		t.Errorf("modifying the ranking changed the table")
	}
	if len(TopInsights(ex)) != 2 {
		t.Errorf("expected two top insights")
	}
	if !strings.Contains(ExtremesText(ex), "| Base | Mission | Readiness | Maintenance Issues | Personnel Gaps |") {
		t.Errorf("extremes text missing table header")
	}
}

func TestParseTopN(t *testing.T) {
	tests := []struct {
		raw     string
		want    int
		wantErr bool
	}{
		{"", 10, false},
		{"5", 5, false},
		{" 20 ", 20, false},
		{"7", 0, true},
		{"ten", 0, true},
		{"-5", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseTopN(tt.raw, DefaultTopNChoices, DefaultTopN)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseTopN(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidTopN) {
				t.Errorf("expected ErrInvalidTopN, got %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseTopN(%q) = %d, want %d", tt.raw, got, tt.want)
			}
		})
	}
}
