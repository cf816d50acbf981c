// Package web serves the three readiness dashboards, their charts and
// exports, and a small JSON API for the report archive and publishing.
package web

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/rewired-gh/readiness/internal/analysis"
	"github.com/rewired-gh/readiness/internal/config"
	"github.com/rewired-gh/readiness/internal/dataset"
	"github.com/rewired-gh/readiness/internal/logger"
	"github.com/rewired-gh/readiness/internal/models"
	"github.com/rewired-gh/readiness/internal/telegram"
)

//go:embed templates/*.html
var templateFS embed.FS

// Pages rendered through the layout
const (
	pageIndex    = "index"
	pageSummary  = "summary"
	pageExplorer = "explorer"
	pageExtremes = "extremes"
)

// ReportLister reads the report archive
type ReportLister interface {
	List(ctx context.Context, kind string, limit int) ([]models.Report, error)
}

// Publisher sends a report text to the configured channel
type Publisher interface {
	Publish(ctx context.Context, kind, body string) (telegram.Result, error)
}

// Options configures a Server. Source is required; everything else may be
// left zero.
type Options struct {
	Analysis  config.AnalysisConfig
	Source    dataset.Source
	Cache     *dataset.Cache
	Metrics   *Metrics
	Reports   ReportLister // nil disables GET /api/reports
	Publisher Publisher    // nil disables the publish endpoints
}

// Server holds the parsed templates and the route table
type Server struct {
	source    dataset.Source
	cache     *dataset.Cache
	metrics   *Metrics
	reports   ReportLister
	publisher Publisher

	summaryOpts       analysis.SummaryOptions
	gridSize          int
	topNChoices       []int
	defaultTopN       int
	lowMaintenanceMax float64
	histogramBins     int

	pages map[string]*template.Template
	mux   *http.ServeMux
}

// New parses the templates and registers all routes
func New(opts Options) (*Server, error) {
	if opts.Source == nil {
		return nil, fmt.Errorf("dataset source is required")
	}

	s := &Server{
		source:            opts.Source,
		cache:             opts.Cache,
		metrics:           opts.Metrics,
		reports:           opts.Reports,
		publisher:         opts.Publisher,
		summaryOpts:       analysis.SummaryOptions{PopulationStdDev: opts.Analysis.UsePopulationStdDev()},
		gridSize:          opts.Analysis.GridSize,
		topNChoices:       opts.Analysis.TopNChoices,
		defaultTopN:       opts.Analysis.DefaultTopN,
		lowMaintenanceMax: float64(opts.Analysis.LowMaintenanceMax),
		histogramBins:     opts.Analysis.HistogramBins,
		pages:             make(map[string]*template.Template),
		mux:               http.NewServeMux(),
	}
	if s.cache == nil {
		s.cache = dataset.NewCache(0)
	}
	if s.metrics == nil {
		s.metrics = NewMetrics()
	}
	if s.cache.OnLookup == nil {
		s.cache.OnLookup = s.metrics.ObserveCacheLookup
	}
	if s.gridSize < 2 {
		s.gridSize = analysis.DefaultGridSize
	}
	if len(s.topNChoices) == 0 {
		s.topNChoices = analysis.DefaultTopNChoices
	}
	if s.defaultTopN == 0 {
		s.defaultTopN = analysis.DefaultTopN
	}
	if s.histogramBins < 1 {
		s.histogramBins = 10
	}

	for _, page := range []string{pageIndex, pageSummary, pageExplorer, pageExtremes} {
		tmpl, err := template.New(page).Funcs(funcMap).ParseFS(templateFS, "templates/layout.html", "templates/"+page+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s template: %w", page, err)
		}
		s.pages[page] = tmpl
	}

	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.handle("GET /{$}", pageIndex, s.handleIndex)
	s.handle("GET /summary", pageSummary, s.handleSummary)
	s.handle("GET /explorer", pageExplorer, s.handleExplorer)
	s.handle("GET /extremes", pageExtremes, s.handleExtremes)

	s.handle("GET /charts/readiness-histogram.png", "chart_histogram", s.handleHistogramChart)
	s.handle("GET /charts/surface.png", "chart_surface", s.handleSurfaceChart)
	s.handle("GET /charts/extremes.png", "chart_extremes", s.handleExtremesChart)
	s.handle("GET /api/surface.json", "api_surface", s.handleSurfaceJSON)

	s.handle("GET /export/summary.xlsx", "export_summary", s.handleSummaryExport)
	s.handle("GET /export/extremes.xlsx", "export_extremes", s.handleExtremesExport)

	s.handle("POST /api/cache/clear", "api_cache_clear", s.handleCacheClear)
	s.handle("POST /api/summary/publish", "api_publish", s.handlePublishSummary)
	s.handle("POST /api/extremes/publish", "api_publish", s.handlePublishExtremes)
	s.handle("GET /api/reports", "api_reports", s.handleReports)

	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	s.mux.Handle("GET /metrics", s.metrics.Handler())
}

func (s *Server) handle(pattern, name string, h http.HandlerFunc) {
	s.mux.HandleFunc(pattern, s.metrics.instrument(name, h))
}

// Handler returns the root handler with logging and panic recovery applied
func (s *Server) Handler() http.Handler {
	return recoverPanics(logRequests(s.mux))
}

// load returns the cached dataset
func (s *Server) load(ctx context.Context) (*models.Table, error) {
	return s.cache.Load(ctx, s.source)
}

// topN reads the n query parameter
func (s *Server) topN(r *http.Request) (int, error) {
	return analysis.ParseTopN(r.URL.Query().Get("n"), s.topNChoices, s.defaultTopN)
}

// pageData is the template context shared by all pages
type pageData struct {
	Page  string
	Title string
	Intro string
	Rows  int

	Summary models.Summary

	Fit        models.PlaneFit
	FitError   string
	Figure     any
	Commentary []models.QA

	N           int
	Choices     []int
	Extremes    models.Extremes
	TopInsights []string
}

// render executes a page into a buffer so a template error never leaves a
// half-written response
func (s *Server) render(w http.ResponseWriter, data pageData) {
	var buf bytes.Buffer
	if err := s.pages[data.Page].ExecuteTemplate(&buf, "layout", data); err != nil {
		serverError(w, fmt.Errorf("failed to render %s page: %w", data.Page, err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func writeBytes(w http.ResponseWriter, contentType string, buf *bytes.Buffer) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	_, _ = buf.WriteTo(w)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		serverError(w, fmt.Errorf("failed to encode response: %w", err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func serverError(w http.ResponseWriter, err error) {
	logger.Error("%v", err)
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func badRequest(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), http.StatusBadRequest)
}

// funcMap holds the template helpers
var funcMap = template.FuncMap{
	"md":     markdownInline,
	"f1":     func(v float64) string { return strconv.FormatFloat(v, 'f', 1, 64) },
	"f3":     func(v float64) string { return strconv.FormatFloat(v, 'f', 3, 64) },
	"count":  func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) },
	"signed": signed,
}

// markdownInline escapes text and renders **bold** spans as <strong>
func markdownInline(text string) template.HTML {
	parts := strings.Split(text, "**")
	var b strings.Builder
	for i, part := range parts {
		escaped := template.HTMLEscapeString(part)
		switch {
		case i%2 == 1 && i < len(parts)-1:
			b.WriteString("<strong>" + escaped + "</strong>")
		case i%2 == 1:
			b.WriteString("**" + escaped)
		default:
			b.WriteString(escaped)
		}
	}
	return template.HTML(b.String())
}

// signed formats a coefficient with an explicit operator, e.g. "+ 1.250" or "- 0.400"
func signed(v float64) string {
	if v < 0 {
		return "- " + strconv.FormatFloat(-v, 'f', 3, 64)
	}
	return "+ " + strconv.FormatFloat(v, 'f', 3, 64)
}
