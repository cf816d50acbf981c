package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rewired-gh/readiness/internal/config"
	"github.com/rewired-gh/readiness/internal/dataset"
)

func TestRenderText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bases.csv")
	csv := "Base,Mission,Readiness,Maintenance Issues,Personnel Gaps\n" +
		"Base_001,Airlift,40,5,3\nBase_002,Fighter,60,3,2\nBase_003,Airlift,80,1,2\n" +
		"Base_004,Bomber,95,0,1\nBase_005,Fighter,20,7,4\n"
	if err := os.WriteFile(path, []byte(csv), 0o600); err != nil {
		t.Fatalf("failed to write CSV: %v", err)
	}

	cfg := &config.Config{Analysis: config.AnalysisConfig{
		StdDev:            "sample",
		TopNChoices:       []int{5, 10, 20},
		DefaultTopN:       10,
		LowMaintenanceMax: 2,
	}}
	cache := dataset.NewCache(0)
	src := dataset.NewFileSource(path)

	tests := []struct {
		view    string
		n       string
		want    string
		wantErr bool
	}{
		{view: "summary", want: "## Readiness Stats"},
		{view: "extremes", want: "## Top 10 Bases by Readiness"},
		{view: "extremes", n: "5", want: "## Bottom 5 Bases by Readiness"},
		{view: "extremes", n: "7", wantErr: true},
		{view: "explorer", want: "Maintenance Issues"},
		{view: "weekly", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.view+tt.n, func(t *testing.T) {
			text, err := renderText(context.Background(), cfg, cache, src, tt.view, tt.n)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("renderText failed: %v", err)
			}
			if !strings.Contains(text, tt.want) {
				t.Errorf("output missing %q:\n%s", tt.want, text)
			}
		})
	}
}
