package export

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/fra-claims/constants"
	"github.com/joseph-ayodele/fra-claims/internal/entity"
	"github.com/joseph-ayodele/fra-claims/internal/repository"
)

type fakeLister struct {
	claims  []*entity.Claim
	filters []repository.ClaimFilter
}

func (f *fakeLister) List(_ context.Context, filter repository.ClaimFilter) ([]*entity.Claim, error) {
	f.filters = append(f.filters, filter)
	if filter.Offset >= len(f.claims) {
		return nil, nil
	}
	end := filter.Offset + filter.Limit
	if end > len(f.claims) {
		end = len(f.claims)
	}
	return f.claims[filter.Offset:end], nil
}

func sp(s string) *string { return &s }

func TestExportClaimsXLSX(t *testing.T) {
	lat, lon := 23.1984, 77.0951
	lister := &fakeLister{claims: []*entity.Claim{
		{ID: 2, ClaimPayload: entity.ClaimPayload{
			State: "Madhya Pradesh", District: "Sehore", Village: sp("Budhni"), PattaHolder: sp("Ram Singh"),
			Status: "Approved", Lat: &lat, Lon: &lon, Source: constants.SourceUploaded,
			Address: sp(strings.Repeat("a", 200)),
		}, CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)},
		{ID: 1, ClaimPayload: entity.ClaimPayload{
			State: "Unknown", District: "Unknown", Status: "Pending", Source: constants.SourceManual,
		}},
	}}
	svc := NewService(lister, nil)

	data, err := svc.ExportClaimsXLSX(context.Background(), repository.ClaimFilter{State: "Madhya Pradesh", Limit: 5, Offset: 9})
	require.NoError(t, err)
	require.Len(t, lister.filters, 1)
	assert.Equal(t, "Madhya Pradesh", lister.filters[0].State)
	assert.Equal(t, 0, lister.filters[0].Offset)
	assert.Equal(t, repository.MaxListLimit, lister.filters[0].Limit)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, []string{"Claims"}, f.GetSheetList())
	rows, err := f.GetRows("Claims")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, headers, rows[0])
	assert.Equal(t, "Budhni", rows[1][4])
	assert.Equal(t, "Approved", rows[1][9])
	assert.Equal(t, "23.1984", rows[1][11])
	assert.Equal(t, "2026-01-02T03:04:05Z", rows[1][14])
	assert.Equal(t, 140, len([]rune(rows[1][6])))
	assert.Equal(t, "Unknown", rows[2][1])
}
