// Package ingest bulk-loads claims from spreadsheets.
package ingest

import (
	"context"

	"github.com/joseph-ayodele/fra-claims/internal/entity"
)

// RowError reports one spreadsheet row that was not imported. Row is 1-based
// as shown in a spreadsheet, so the header is row 1.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"error"`
}

// ImportResult summarizes one spreadsheet import.
type ImportResult struct {
	Sheet   string          `json:"sheet"`
	Rows    int             `json:"rows"`
	Created []*entity.Claim `json:"created"`
	Skipped int             `json:"skipped"`
	Errors  []RowError      `json:"errors"`
}

// Recorder stores one imported claim and schedules its canonicalization.
// pipeline.Service implements it.
type Recorder interface {
	Record(ctx context.Context, p entity.ClaimPayload) (*entity.Claim, error)
}
