// Package dataset loads the base readiness CSV into an immutable models.Table
// and memoizes the result per source so repeated page views reuse one table.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rewired-gh/readiness/internal/models"
)

var (
	// ErrMissingColumn is returned when a required header is absent
	ErrMissingColumn = errors.New("missing required column")
	// ErrEmptyDataset is returned when the CSV has a header but no rows
	ErrEmptyDataset = errors.New("dataset has no rows")
)

// Parse reads a CSV with a header row into a Table.
// Columns are matched by exact header name; extra columns are ignored.
func Parse(r io.Reader) (*models.Table, error) {
	reader := csv.NewReader(r)
	reader.ReuseRecord = true

	headers, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("failed to read CSV headers: %w", ErrEmptyDataset)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV headers: %w", err)
	}

	index := make(map[string]int, len(headers))
	for i, h := range headers {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := index[h]; !dup {
			index[h] = i
		}
	}
	for _, col := range models.RequiredColumns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingColumn, col)
		}
	}

	var records []models.BaseRecord
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		rec, err := parseRow(row, index)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, rec)
	}

	if len(records) == 0 {
		return nil, ErrEmptyDataset
	}

	return models.NewTable(records), nil
}

func parseRow(row []string, index map[string]int) (models.BaseRecord, error) {
	cell := func(col string) string {
		i := index[col]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}
	number := func(col string) (float64, error) {
		raw := cell(col)
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return 0, fmt.Errorf("column %q: invalid number %q", col, raw)
		}
		return v, nil
	}

	rec := models.BaseRecord{
		Base:    cell(models.ColumnBase),
		Mission: cell(models.ColumnMission),
	}
	var err error
	if rec.Readiness, err = number(models.ColumnReadiness); err != nil {
		return rec, err
	}
	if rec.MaintenanceIssues, err = number(models.ColumnMaintenanceIssues); err != nil {
		return rec, err
	}
	if rec.PersonnelGaps, err = number(models.ColumnPersonnelGaps); err != nil {
		return rec, err
	}
	if err := rec.Validate(); err != nil {
		return rec, fmt.Errorf("invalid record: %w", err)
	}
	return rec, nil
}
