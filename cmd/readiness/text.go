package main

import (
	"context"
	"fmt"

	"github.com/rewired-gh/readiness/internal/analysis"
	"github.com/rewired-gh/readiness/internal/config"
	"github.com/rewired-gh/readiness/internal/dataset"
)

// renderText loads the dataset and renders one view as markdown text
func renderText(ctx context.Context, cfg *config.Config, cache *dataset.Cache, src dataset.Source, view, rawN string) (string, error) {
	t, err := cache.Load(ctx, src)
	if err != nil {
		return "", err
	}

	switch view {
	case "summary":
		s, err := analysis.Summarize(t, analysis.SummaryOptions{PopulationStdDev: cfg.Analysis.UsePopulationStdDev()})
		if err != nil {
			return "", err
		}
		return analysis.SummaryText(s), nil

	case "extremes":
		n, err := analysis.ParseTopN(rawN, cfg.Analysis.TopNChoices, cfg.Analysis.DefaultTopN)
		if err != nil {
			return "", err
		}
		ex := analysis.RankExtremes(t, n, float64(cfg.Analysis.LowMaintenanceMax))
		return analysis.ExtremesText(ex), nil

	case "explorer":
		fit, err := analysis.FitPlane(t)
		if err != nil {
			return "", err
		}
		return analysis.ExplorerText(fit, analysis.Commentary()), nil
	}

	return "", fmt.Errorf("unknown view %q (want summary, extremes or explorer)", view)
}
