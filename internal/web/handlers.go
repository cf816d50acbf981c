package web

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/rewired-gh/readiness/internal/analysis"
	"github.com/rewired-gh/readiness/internal/charts"
	"github.com/rewired-gh/readiness/internal/export"
	"github.com/rewired-gh/readiness/internal/logger"
	"github.com/rewired-gh/readiness/internal/models"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	t, err := s.load(r.Context())
	if err != nil {
		serverError(w, err)
		return
	}
	s.render(w, pageData{
		Page:  pageIndex,
		Title: "🛡️ Base Readiness Dashboards (Artificial data)",
		Intro: "Interactive views over simulated Air Force base readiness.",
		Rows:  t.Len(),
	})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	t, err := s.load(r.Context())
	if err != nil {
		serverError(w, err)
		return
	}
	summary, err := analysis.Summarize(t, s.summaryOpts)
	if err != nil {
		serverError(w, err)
		return
	}
	s.render(w, pageData{
		Page:    pageSummary,
		Title:   "🧠 Dynamic Readiness Interpreter (Artificial data)",
		Intro:   "Real-time plain-language analysis of readiness trends, issues, and mission patterns.",
		Rows:    t.Len(),
		Summary: summary,
	})
}

func (s *Server) handleExplorer(w http.ResponseWriter, r *http.Request) {
	t, err := s.load(r.Context())
	if err != nil {
		serverError(w, err)
		return
	}
	data := pageData{
		Page:       pageExplorer,
		Title:      "🛰️ 3D Readiness Explorer (Artificial data)",
		Intro:      "Readiness as a function of maintenance issues and personnel gaps, with a fitted regression plane.",
		Rows:       t.Len(),
		Commentary: analysis.Commentary(),
	}
	fit, err := analysis.FitPlane(t)
	if err != nil {
		logger.Warn("Explorer fit failed: %v", err)
		data.FitError = err.Error()
	} else {
		data.Fit = fit
		data.Figure = charts.SurfaceFigure(analysis.BuildSurface(t, fit, s.gridSize), t.Rows())
	}
	s.render(w, data)
}

func (s *Server) handleExtremes(w http.ResponseWriter, r *http.Request) {
	n, err := s.topN(r)
	if err != nil {
		badRequest(w, err)
		return
	}
	t, err := s.load(r.Context())
	if err != nil {
		serverError(w, err)
		return
	}
	ex := analysis.RankExtremes(t, n, s.lowMaintenanceMax)
	s.render(w, pageData{
		Page:        pageExtremes,
		Title:       "📈 Readiness Extremes (Artificial data)",
		Intro:       "The highest and lowest readiness bases, with mission and maintenance context.",
		Rows:        t.Len(),
		N:           n,
		Choices:     s.topNChoices,
		Extremes:    ex,
		TopInsights: analysis.TopInsights(ex),
	})
}

func (s *Server) handleHistogramChart(w http.ResponseWriter, r *http.Request) {
	t, err := s.load(r.Context())
	if err != nil {
		serverError(w, err)
		return
	}
	summary, err := analysis.Summarize(t, s.summaryOpts)
	if err != nil {
		serverError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := charts.ReadinessHistogram(&buf, summary, t.Readiness(), s.histogramBins); err != nil {
		serverError(w, err)
		return
	}
	writeBytes(w, "image/png", &buf)
}

func (s *Server) handleSurfaceChart(w http.ResponseWriter, r *http.Request) {
	t, err := s.load(r.Context())
	if err != nil {
		serverError(w, err)
		return
	}
	fit, err := analysis.FitPlane(t)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	var buf bytes.Buffer
	if err := charts.SurfaceHeatMap(&buf, analysis.BuildSurface(t, fit, s.gridSize), t.Rows()); err != nil {
		serverError(w, err)
		return
	}
	writeBytes(w, "image/png", &buf)
}

func (s *Server) handleExtremesChart(w http.ResponseWriter, r *http.Request) {
	n, err := s.topN(r)
	if err != nil {
		badRequest(w, err)
		return
	}
	t, err := s.load(r.Context())
	if err != nil {
		serverError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := charts.ExtremesBars(&buf, analysis.RankExtremes(t, n, s.lowMaintenanceMax)); err != nil {
		serverError(w, err)
		return
	}
	writeBytes(w, "image/png", &buf)
}

// surfaceResponse is the body of GET /api/surface.json
type surfaceResponse struct {
	Fit     models.PlaneFit `json:"fit"`
	Surface models.Surface  `json:"surface"`
	Figure  charts.Figure   `json:"figure"`
}

func (s *Server) handleSurfaceJSON(w http.ResponseWriter, r *http.Request) {
	t, err := s.load(r.Context())
	if err != nil {
		serverError(w, err)
		return
	}
	fit, err := analysis.FitPlane(t)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}
	surface := analysis.BuildSurface(t, fit, s.gridSize)
	writeJSON(w, http.StatusOK, surfaceResponse{
		Fit:     fit,
		Surface: surface,
		Figure:  charts.SurfaceFigure(surface, t.Rows()),
	})
}

func (s *Server) handleSummaryExport(w http.ResponseWriter, r *http.Request) {
	t, err := s.load(r.Context())
	if err != nil {
		serverError(w, err)
		return
	}
	summary, err := analysis.Summarize(t, s.summaryOpts)
	if err != nil {
		serverError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := export.Summary(&buf, summary); err != nil {
		serverError(w, err)
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="readiness-summary.xlsx"`)
	writeBytes(w, xlsxContentType, &buf)
}

func (s *Server) handleExtremesExport(w http.ResponseWriter, r *http.Request) {
	n, err := s.topN(r)
	if err != nil {
		badRequest(w, err)
		return
	}
	t, err := s.load(r.Context())
	if err != nil {
		serverError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := export.Extremes(&buf, analysis.RankExtremes(t, n, s.lowMaintenanceMax)); err != nil {
		serverError(w, err)
		return
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="readiness-extremes-%d.xlsx"`, n))
	writeBytes(w, xlsxContentType, &buf)
}

func (s *Server) handleCacheClear(w http.ResponseWriter, _ *http.Request) {
	s.cache.Clear()
	writeJSON(w, http.StatusOK, map[string]bool{"cleared": true})
}

func (s *Server) handlePublishSummary(w http.ResponseWriter, r *http.Request) {
	if s.publisher == nil {
		http.Error(w, "publishing is not configured", http.StatusServiceUnavailable)
		return
	}
	t, err := s.load(r.Context())
	if err != nil {
		serverError(w, err)
		return
	}
	summary, err := analysis.Summarize(t, s.summaryOpts)
	if err != nil {
		serverError(w, err)
		return
	}
	s.publish(w, r, models.ReportKindSummary, analysis.SummaryText(summary))
}

func (s *Server) handlePublishExtremes(w http.ResponseWriter, r *http.Request) {
	if s.publisher == nil {
		http.Error(w, "publishing is not configured", http.StatusServiceUnavailable)
		return
	}
	n, err := s.topN(r)
	if err != nil {
		badRequest(w, err)
		return
	}
	t, err := s.load(r.Context())
	if err != nil {
		serverError(w, err)
		return
	}
	s.publish(w, r, models.ReportKindExtremes, analysis.ExtremesText(analysis.RankExtremes(t, n, s.lowMaintenanceMax)))
}

func (s *Server) publish(w http.ResponseWriter, r *http.Request, kind, body string) {
	result, err := s.publisher.Publish(r.Context(), kind, body)
	if err != nil {
		logger.Error("Publish failed: %v", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

const defaultReportLimit = 20

func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	if s.reports == nil {
		http.Error(w, "report archive is not configured", http.StatusServiceUnavailable)
		return
	}

	q := r.URL.Query()
	kind := q.Get("kind")
	if kind != "" && kind != models.ReportKindSummary && kind != models.ReportKindExtremes {
		badRequest(w, fmt.Errorf("unknown report kind %q", kind))
		return
	}
	limit := defaultReportLimit
	if raw := q.Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			badRequest(w, errors.New("limit must be a positive integer"))
			return
		}
		limit = v
	}

	reports, err := s.reports.List(r.Context(), kind, limit)
	if err != nil {
		serverError(w, err)
		return
	}
	if reports == nil {
		reports = []models.Report{}
	}
	writeJSON(w, http.StatusOK, reports)
}
