package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/fra-claims/internal/entity"
	"github.com/joseph-ayodele/fra-claims/internal/repository"
)

// ClaimLister pages through stored claims. repository.ClaimRepository implements it.
type ClaimLister interface {
	List(ctx context.Context, f repository.ClaimFilter) ([]*entity.Claim, error)
}

// Service is a tiny façade over the claim store that produces XLSX bytes for exports.
type Service struct {
	claims ClaimLister
	logger *slog.Logger
}

func NewService(claims ClaimLister, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{claims: claims, logger: logger}
}

const sheet = "Claims"

var headers = []string{
	"ID",
	"State",
	"District",
	"Block",
	"Village",
	"Patta Holder",
	"Address",
	"IFR Number",
	"Land Area",
	"Status",
	"Date",
	"Latitude",
	"Longitude",
	"Source",
	"Created At",
}

// ExportClaimsXLSX returns an XLSX workbook (as bytes) with every claim
// matching f, newest first. Limit and Offset on f are ignored.
func (s *Service) ExportClaimsXLSX(ctx context.Context, f repository.ClaimFilter) ([]byte, error) {
	start := time.Now()

	var all []*entity.Claim
	f.Limit = repository.MaxListLimit
	for f.Offset = 0; ; f.Offset += f.Limit {
		page, err := s.claims.List(ctx, f)
		if err != nil {
			return nil, fmt.Errorf("query claims: %w", err)
		}
		all = append(all, page...)
		if len(page) < f.Limit {
			break
		}
	}

	x := excelize.NewFile()
	defer func(x *excelize.File) {
		_ = x.Close()
	}(x)
	if index, _ := x.GetSheetIndex(sheet); index == -1 {
		if _, err := x.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	if err := x.DeleteSheet("Sheet1"); err != nil {
		s.logger.Debug("export: default sheet not removed", "error", err)
	}
	activeIndex, _ := x.GetSheetIndex(sheet)
	x.SetActiveSheet(activeIndex)

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = x.SetCellValue(sheet, cell, h)
	}

	for i, c := range all {
		row := i + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = x.SetCellValue(sheet, cell, v)
		}

		write(1, c.ID)
		write(2, c.State)
		write(3, c.District)
		write(4, str(c.Block))
		write(5, str(c.Village))
		write(6, str(c.PattaHolder))
		write(7, truncate(str(c.Address), 140))
		write(8, str(c.IFRNumber))
		write(9, str(c.LandArea))
		write(10, c.Status)
		write(11, str(c.Date))
		// coordinates stay blank rather than 0 when unknown
		if c.Lat != nil && c.Lon != nil {
			write(12, *c.Lat)
			write(13, *c.Lon)
		}
		write(14, string(c.Source))
		if !c.CreatedAt.IsZero() {
			write(15, c.CreatedAt.UTC().Format(time.RFC3339))
		}
	}

	// Widen a few columns
	_ = x.SetColWidth(sheet, "B", "C", 18) // state, district
	_ = x.SetColWidth(sheet, "E", "F", 22) // village, holder
	_ = x.SetColWidth(sheet, "G", "G", 48) // address
	_ = x.SetColWidth(sheet, "O", "O", 22) // created

	buf, err := x.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"state", f.State,
		"district", f.District,
		"rows", len(all),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func str(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
