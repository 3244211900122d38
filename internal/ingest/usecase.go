package ingest

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/fra-claims/constants"
	"github.com/joseph-ayodele/fra-claims/internal/common"
	"github.com/joseph-ayodele/fra-claims/internal/mapping"
)

type Usecase struct {
	Mapper   *mapping.Mapper
	Recorder Recorder
	Logger   *slog.Logger
}

func NewUsecase(mapper *mapping.Mapper, rec Recorder, logger *slog.Logger) *Usecase {
	if logger == nil {
		logger = slog.Default()
	}
	return &Usecase{Mapper: mapper, Recorder: rec, Logger: logger}
}

// Import dispatches on the extension of filename: .csv goes to ImportCSV,
// .xlsx and .xlsm to ImportXLSX.
func (u *Usecase) Import(ctx context.Context, filename string, r io.Reader) (*ImportResult, error) {
	if !AllowedExt(filename) {
		return nil, common.UnsupportedErrorf("spreadsheet must be .xlsx, .xlsm or .csv, got %q", filename)
	}
	if constants.NormalizeExt(filepath.Ext(filename)) == "csv" {
		return u.ImportCSV(ctx, r)
	}
	return u.ImportXLSX(ctx, r)
}

// ImportXLSX reads the first sheet of a workbook, one claim per row after the
// header. A bad row is reported in the result and does not stop the import;
// only an unreadable workbook fails the call.
func (u *Usecase) ImportXLSX(ctx context.Context, r io.Reader) (*ImportResult, error) {
	logger := common.LoggerFrom(ctx, u.Logger)

	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, common.InvalidArgumentErrorf("unreadable workbook: %v", err)
	}
	defer func(f *excelize.File) {
		if err := f.Close(); err != nil {
			logger.Warn("close workbook error", "error", err)
		}
	}(f)

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, common.InvalidArgumentError("workbook has no sheets")
	}
	sheet := sheets[0]
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, common.InvalidArgumentErrorf("read sheet %q: %v", sheet, err)
	}
	return u.importRows(ctx, sheet, rows)
}

// CSVSheet is the sheet name reported for CSV imports.
const CSVSheet = "csv"

// ImportCSV reads comma-separated rows with a header line, with the same
// header matching and row handling as ImportXLSX. Rows may be ragged.
func (u *Usecase) ImportCSV(ctx context.Context, r io.Reader) (*ImportResult, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, common.InvalidArgumentErrorf("unreadable csv: %v", err)
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], "\ufeff")
	}
	return u.importRows(ctx, CSVSheet, rows)
}

// importRows maps rows[0] as the header and records every later row.
func (u *Usecase) importRows(ctx context.Context, sheet string, rows [][]string) (*ImportResult, error) {
	logger := common.LoggerFrom(ctx, u.Logger)

	out := &ImportResult{Sheet: sheet}
	if len(rows) == 0 {
		return out, nil
	}
	cols := pickColumns(rows[0])
	logger.Info("ingest.import.start", "sheet", sheet, "rows", len(rows)-1, "columns", len(cols))

	for i, cells := range rows[1:] {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		rowNum := i + 2
		row := make(map[string]string, len(cols))
		for col, idx := range cols {
			if idx < len(cells) {
				row[col] = strings.TrimSpace(cells[idx])
			}
		}
		if blank(row) {
			out.Skipped++
			continue
		}
		out.Rows++

		if err := validateRow(row); err != nil {
			out.Errors = append(out.Errors, RowError{Row: rowNum, Message: err.Error()})
			continue
		}
		claim, err := u.Recorder.Record(ctx, u.Mapper.FromRow(row, constants.SourceImported))
		if err != nil {
			logger.Warn("ingest.row.failed", "row", rowNum, "error", err)
			out.Errors = append(out.Errors, RowError{Row: rowNum, Message: err.Error()})
			continue
		}
		out.Created = append(out.Created, claim)
	}

	logger.Info("ingest.import.done",
		"sheet", sheet,
		"created", len(out.Created),
		"failed", len(out.Errors),
		"skipped", out.Skipped,
	)
	return out, nil
}

func blank(row map[string]string) bool {
	for _, v := range row {
		if v != "" {
			return false
		}
	}
	return true
}

func validateRow(row map[string]string) error {
	v := common.NewValidator().
		Field(mapping.ColLat, row[mapping.ColLat], common.Between(-90, 90)).
		Field(mapping.ColLon, row[mapping.ColLon], common.Between(-180, 180))
	if v.HasErrors() {
		return fmt.Errorf("%s", v.ErrorMessage())
	}
	return nil
}
