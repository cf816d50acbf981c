// Package export writes the page tables as downloadable XLSX workbooks.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/rewired-gh/readiness/internal/models"
)

// Sheet names of the summary workbook
const (
	SheetStats    = "Readiness Stats"
	SheetOutliers = "Outliers"
)

// ExtremesSheetNames returns the sheet names of the extremes workbook for n
func ExtremesSheetNames(n int) (top, bottom string) {
	return fmt.Sprintf("Top %d", n), fmt.Sprintf("Bottom %d", n)
}

// Extremes writes a workbook with one sheet per ranking
func Extremes(w io.Writer, ex models.Extremes) error {
	f := excelize.NewFile()
	defer f.Close()

	top, bottom := ExtremesSheetNames(ex.N)
	if err := f.SetSheetName("Sheet1", top); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	if err := writeRecords(f, top, ex.Top); err != nil {
		return err
	}
	if _, err := f.NewSheet(bottom); err != nil {
		return fmt.Errorf("failed to create sheet %q: %w", bottom, err)
	}
	if err := writeRecords(f, bottom, ex.Bottom); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// Summary writes a workbook with the readiness statistics and the two outlier groups
func Summary(w io.Writer, s models.Summary) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetStats); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}

	st := s.Stats
	rows := [][]any{
		{"Metric", "Value"},
		{"Bases", st.Count},
		{"Min", st.Min},
		{"Max", st.Max},
		{"Mean", st.Mean},
		{"Median", st.Median},
		{"Std Dev (sample)", st.StdDevSample},
		{"Std Dev (population)", st.StdDevPopulation},
		{"Std Dev used", st.StdDevKind},
		{"Low threshold", s.LowThreshold},
		{"High threshold", s.HighThreshold},
		{"Low outliers", s.Low.Count},
		{"Low outliers top mission", s.Low.TopMission},
		{"Low outliers mean maintenance", s.Low.MeanMaintenance},
		{"High outliers", s.High.Count},
		{"High outliers top mission", s.High.TopMission},
		{"High outliers mean maintenance", s.High.MeanMaintenance},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(SheetStats, cell, &row); err != nil {
			return fmt.Errorf("failed to write stats row %d: %w", i+1, err)
		}
	}
	f.SetColWidth(SheetStats, "A", "A", 32)
	f.SetColWidth(SheetStats, "B", "B", 16)

	if _, err := f.NewSheet(SheetOutliers); err != nil {
		return fmt.Errorf("failed to create sheet %q: %w", SheetOutliers, err)
	}
	outliers := make([]models.BaseRecord, 0, s.Low.Count+s.High.Count)
	outliers = append(outliers, s.Low.Records...)
	outliers = append(outliers, s.High.Records...)
	if err := writeRecords(f, SheetOutliers, outliers); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeRecords(f *excelize.File, sheet string, records []models.BaseRecord) error {
	for i, header := range models.RequiredColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return fmt.Errorf("failed to write header %q: %w", header, err)
		}
		f.SetColWidth(sheet, cell[:1], cell[:1], 18)
	}

	for i, r := range records {
		row := []any{r.Base, r.Mission, r.Readiness, r.MaintenanceIssues, r.PersonnelGaps}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d of %q: %w", i+2, sheet, err)
		}
	}
	return nil
}
