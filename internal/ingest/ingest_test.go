package ingest

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/fra-claims/constants"
	"github.com/joseph-ayodele/fra-claims/internal/common"
	"github.com/joseph-ayodele/fra-claims/internal/entity"
	"github.com/joseph-ayodele/fra-claims/internal/mapping"
)

type fakeRecorder struct {
	got  []entity.ClaimPayload
	fail string // village whose insert fails
}

func (f *fakeRecorder) Record(_ context.Context, p entity.ClaimPayload) (*entity.Claim, error) {
	if f.fail != "" && p.VillageName() == f.fail {
		return nil, errors.New("insert failed")
	}
	f.got = append(f.got, p)
	return &entity.Claim{ID: int64(len(f.got)), ClaimPayload: p}, nil
}

func workbook(t *testing.T, rows [][]any) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	sheet := f.GetSheetName(0)
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &r))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestImportXLSX_PicksAliasedHeaders(t *testing.T) {
	rec := &fakeRecorder{}
	u := NewUsecase(mapping.New(nil), rec, nil)

	buf := workbook(t, [][]any{
		{"ST", "Dist", "Village_Name", "Claimant", "IFRNo", "Hectares", "Claim Status", "Latitude", "Lng", "Notes"},
		{"MP", "Hoshangabad", "itarsi", "Ram Singh", "MP-01/22", "1.5", "approved", "22.61", "77.76", "x"},
		{"   "},
		{"Orissa", "Koraput", "Semiliguda", "", "", "", "", "north", "82.85", ""},
		{"Odisha", "Koraput", "Kunduli", "", "", "", "", "", "", ""},
	})

	res, err := u.ImportXLSX(context.Background(), buf)
	require.NoError(t, err)

	assert.Equal(t, 3, res.Rows)
	assert.Equal(t, 1, res.Skipped)
	require.Len(t, res.Created, 2)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, 4, res.Errors[0].Row)
	assert.Contains(t, res.Errors[0].Message, "lat")

	first := rec.got[0]
	assert.Equal(t, "Madhya Pradesh", first.State)
	assert.Equal(t, "Narmadapuram", first.District)
	assert.Equal(t, "Itarsi", *first.Village)
	assert.Equal(t, "Ram Singh", *first.PattaHolder)
	assert.Equal(t, "MP-01/22", *first.IFRNumber)
	assert.Equal(t, "Approved", first.Status)
	assert.Equal(t, 22.61, *first.Lat)
	assert.Equal(t, constants.SourceImported, first.Source)

	second := rec.got[1]
	assert.Equal(t, "Odisha", second.State)
	assert.Equal(t, constants.StatusPending, second.Status)
	assert.Nil(t, second.Lat)
}

func TestImportXLSX_RowFailureDoesNotStopImport(t *testing.T) {
	rec := &fakeRecorder{fail: "Budhni"}
	u := NewUsecase(mapping.New(nil), rec, nil)

	buf := workbook(t, [][]any{
		{"state", "district", "village"},
		{"Madhya Pradesh", "Sehore", "Budhni"},
		{"Madhya Pradesh", "Sehore", "Ichhawar"},
	})
	res, err := u.ImportXLSX(context.Background(), buf)
	require.NoError(t, err)
	assert.Len(t, res.Created, 1)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, RowError{Row: 2, Message: "insert failed"}, res.Errors[0])
}

func TestImportXLSX_RejectsGarbage(t *testing.T) {
	u := NewUsecase(mapping.New(nil), &fakeRecorder{}, nil)
	_, err := u.ImportXLSX(context.Background(), strings.NewReader("state,district\nMP,Bhopal\n"))
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestPickColumns(t *testing.T) {
	cols := pickColumns([]string{" Longitude ", "NAME", "name", "Application Date"})
	assert.Equal(t, map[string]int{
		mapping.ColLon:         0,
		mapping.ColPattaHolder: 1,
		mapping.ColDate:        3,
	}, cols)
	assert.True(t, AllowedExt("claims.XLSX"))
	assert.True(t, AllowedExt("claims.csv"))
	assert.False(t, AllowedExt("claims.ods"))
}

func TestImportCSV_SameRulesAsWorkbook(t *testing.T) {
	rec := &fakeRecorder{}
	u := NewUsecase(mapping.New(nil), rec, nil)

	data := "\ufeffST,Dist,Village_Name,Claimant,Latitude,Lng\n" +
		"MP,Hoshangabad,itarsi,\"Singh, Ram\",22.61,77.76\n" +
		",,\n" +
		"Orissa,Koraput,Semiliguda,,north,82.85\n" +
		"Odisha,Koraput,Kunduli\n"

	res, err := u.ImportCSV(context.Background(), strings.NewReader(data))
	require.NoError(t, err)

	assert.Equal(t, CSVSheet, res.Sheet)
	assert.Equal(t, 3, res.Rows)
	assert.Equal(t, 1, res.Skipped)
	require.Len(t, res.Created, 2)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, 4, res.Errors[0].Row)

	first := rec.got[0]
	assert.Equal(t, "Madhya Pradesh", first.State)
	assert.Equal(t, "Narmadapuram", first.District)
	assert.Equal(t, "Itarsi", *first.Village)
	assert.Equal(t, "Singh, Ram", *first.PattaHolder)
	assert.Equal(t, 77.76, *first.Lon)
	assert.Equal(t, constants.SourceImported, first.Source)
	assert.Nil(t, rec.got[1].Lat, "ragged row keeps its missing cells empty")
}

func TestImport_DispatchesOnExtension(t *testing.T) {
	rec := &fakeRecorder{}
	u := NewUsecase(mapping.New(nil), rec, nil)
	ctx := context.Background()

	res, err := u.Import(ctx, "claims.CSV", strings.NewReader("state,district,village\nOdisha,Koraput,Kunduli\n"))
	require.NoError(t, err)
	assert.Equal(t, CSVSheet, res.Sheet)
	assert.Len(t, res.Created, 1)

	buf := workbook(t, [][]any{{"state", "district"}, {"Odisha", "Koraput"}})
	res, err = u.Import(ctx, "claims.xlsx", buf)
	require.NoError(t, err)
	assert.NotEqual(t, CSVSheet, res.Sheet)
	assert.Len(t, res.Created, 1)

	_, err = u.Import(ctx, "claims.ods", strings.NewReader("x"))
	assert.ErrorIs(t, err, common.ErrUnsupported)
}
