// Package models defines the core domain entities for the readiness interpreter.
// A Table of BaseRecords is loaded once from the simulated base dataset and is
// never mutated afterwards; every other type in this package is a value derived
// from a Table.
package models

import (
	"errors"
	"math"
)

// CSV column names the loader requires.
const (
	ColumnBase              = "Base"
	ColumnMission           = "Mission"
	ColumnReadiness         = "Readiness"
	ColumnMaintenanceIssues = "Maintenance Issues"
	ColumnPersonnelGaps     = "Personnel Gaps"
)

// RequiredColumns lists the headers every dataset must carry, in display order.
var RequiredColumns = []string{
	ColumnBase,
	ColumnMission,
	ColumnReadiness,
	ColumnMaintenanceIssues,
	ColumnPersonnelGaps,
}

// BaseRecord is one simulated Air Force base.
type BaseRecord struct {
	Base              string  `json:"base"`
	Mission           string  `json:"mission"`
	Readiness         float64 `json:"readiness"`
	MaintenanceIssues float64 `json:"maintenance_issues"`
	PersonnelGaps     float64 `json:"personnel_gaps"`
}

// Validate checks that all record fields are valid
func (r *BaseRecord) Validate() error {
	if r.Base == "" {
		return errors.New("base must not be empty")
	}
	if r.Mission == "" {
		return errors.New("mission must not be empty")
	}
	if math.IsNaN(r.Readiness) || math.IsInf(r.Readiness, 0) {
		return errors.New("readiness must be a finite number")
	}
	if math.IsNaN(r.MaintenanceIssues) || math.IsInf(r.MaintenanceIssues, 0) {
		return errors.New("maintenance issues must be a finite number")
	}
	if r.MaintenanceIssues < 0 {
		return errors.New("maintenance issues must not be negative")
	}
	if math.IsNaN(r.PersonnelGaps) || math.IsInf(r.PersonnelGaps, 0) {
		return errors.New("personnel gaps must be a finite number")
	}
	if r.PersonnelGaps < 0 {
		return errors.New("personnel gaps must not be negative")
	}
	return nil
}

// Table is an immutable, row-ordered set of base records.
// The zero value is an empty table.
type Table struct {
	rows []BaseRecord
}

// NewTable copies records into a new Table
func NewTable(records []BaseRecord) *Table {
	rows := make([]BaseRecord, len(records))
	copy(rows, records)
	return &Table{rows: rows}
}

// Len returns the number of rows
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rows)
}

// Row returns a copy of row i
func (t *Table) Row(i int) BaseRecord {
	return t.rows[i]
}

// Rows returns a copy of all rows in file order
func (t *Table) Rows() []BaseRecord {
	out := make([]BaseRecord, t.Len())
	if t != nil {
		copy(out, t.rows)
	}
	return out
}

// Filter returns a new Table holding the rows for which keep returns true
func (t *Table) Filter(keep func(BaseRecord) bool) *Table {
	var rows []BaseRecord
	for _, r := range t.rowsOrNil() {
		if keep(r) {
			rows = append(rows, r)
		}
	}
	return &Table{rows: rows}
}

// Readiness returns the readiness column
func (t *Table) Readiness() []float64 {
	return t.floats(func(r BaseRecord) float64 { return r.Readiness })
}

// MaintenanceIssues returns the maintenance issues column
func (t *Table) MaintenanceIssues() []float64 {
	return t.floats(func(r BaseRecord) float64 { return r.MaintenanceIssues })
}

// PersonnelGaps returns the personnel gaps column
func (t *Table) PersonnelGaps() []float64 {
	return t.floats(func(r BaseRecord) float64 { return r.PersonnelGaps })
}

// Missions returns the mission column
func (t *Table) Missions() []string {
	out := make([]string, 0, t.Len())
	for _, r := range t.rowsOrNil() {
		out = append(out, r.Mission)
	}
	return out
}

func (t *Table) floats(col func(BaseRecord) float64) []float64 {
	out := make([]float64, 0, t.Len())
	for _, r := range t.rowsOrNil() {
		out = append(out, col(r))
	}
	return out
}

func (t *Table) rowsOrNil() []BaseRecord {
	if t == nil {
		return nil
	}
	return t.rows
}
