package main

import (
	"github.com/xuri/excelize/v2"

	"github.com/iota-uz/legacy-import/modules/migration/services"
)

const (
	summarySheet = "Summary"
	errorsSheet  = "Errors"
)

// writeReportXLSX saves per-kind counts and the full, uncapped error list as a workbook.
func writeReportXLSX(path string, report *services.Report) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return err
	}
	rows := [][]any{
		{"run_id", report.RunID.String()},
		{"mode", string(report.Mode)},
		{"integrity", report.Integrity},
		{},
		{"kind", "created", "updated", "total", "errors"},
	}
	byKind := make(map[string]int)
	for _, e := range report.Errors {
		byKind[string(e.Scope)]++
	}
	for _, kind := range report.Scope {
		c := report.Counts[kind]
		rows = append(rows, []any{string(kind), c.Created, c.Updated, c.Total, byKind[string(kind)]})
	}
	if err := setRows(f, summarySheet, rows); err != nil {
		return err
	}

	if _, err := f.NewSheet(errorsSheet); err != nil {
		return err
	}
	rows = [][]any{{"scope", "legacy_id", "class", "message"}}
	for _, e := range report.Errors {
		rows = append(rows, []any{string(e.Scope), e.LegacyID, string(e.Class), e.Message})
	}
	if err := setRows(f, errorsSheet, rows); err != nil {
		return err
	}

	return f.SaveAs(path)
}

func setRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := row
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
	}
	return nil
}
