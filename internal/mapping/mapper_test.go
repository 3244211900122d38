package mapping

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/fra-claims/constants"
	"github.com/joseph-ayodele/fra-claims/internal/extract"
	"github.com/joseph-ayodele/fra-claims/internal/merge"
)

func TestMap_EndToEndClaimForm(t *testing.T) {
	text := "State: Madhya Pradesh\nDistrict: Sehore\nVillage: Budhni\nPatta Holder: Ram Singh\n" +
		"Status: Approved\nDate: 01-Jan-2020\nSurveyed at 23.1984, 77.0951 by the committee."

	bag := extract.NewExtractor(extract.NewHeuristicRecognizer(nil), nil, nil).Extract(context.Background(), text)
	p := New(nil).Map(merge.Merge(bag), constants.SourceUploaded, text)

	assert.Equal(t, "Madhya Pradesh", p.State)
	assert.Equal(t, "Sehore", p.District)
	require.NotNil(t, p.Village)
	assert.Equal(t, "Budhni", *p.Village)
	require.NotNil(t, p.PattaHolder)
	assert.Equal(t, "Ram Singh", *p.PattaHolder)
	assert.Equal(t, "Approved", p.Status)
	require.NotNil(t, p.Date)
	assert.Equal(t, "01-Jan-2020", *p.Date)
	require.NotNil(t, p.Lat)
	require.NotNil(t, p.Lon)
	assert.Equal(t, 23.1984, *p.Lat)
	assert.Equal(t, 77.0951, *p.Lon)
	assert.Equal(t, constants.SourceUploaded, p.Source)

	require.NotNil(t, p.RawOCR)
	var art Artifact
	require.NoError(t, json.Unmarshal([]byte(*p.RawOCR), &art))
	assert.Equal(t, text, art.ExtractedText)
	assert.Equal(t, []string{"Budhni"}, art.Entities.Villages[:1])
}

func TestMap_MissingRegionsBecomeUnknown(t *testing.T) {
	var bag extract.Bag
	bag.Add(extract.FieldVillage, "Budhni", extract.SourceStatistical, 0)

	p := New(nil).Map(merge.Merge(bag), constants.SourceUploaded, "Budhni")

	assert.Equal(t, constants.Unknown, p.State)
	assert.Equal(t, constants.Unknown, p.District)
	assert.Equal(t, constants.StatusPending, p.Status)
	assert.Nil(t, p.PattaHolder)
	assert.Nil(t, p.Date)
	assert.Nil(t, p.Lat)
	assert.Nil(t, p.LandArea)
}

func TestMap_AppliesAliases(t *testing.T) {
	var bag extract.Bag
	bag.Add(extract.FieldState, "M.P.", extract.SourcePattern, 0)
	bag.Add(extract.FieldDistrict, "hoshangabad", extract.SourcePattern, 10)

	p := New(nil).Map(merge.Merge(bag), constants.SourceUploaded, "")

	assert.Equal(t, "Madhya Pradesh", p.State)
	assert.Equal(t, "Narmadapuram", p.District)
}

func TestFromRow(t *testing.T) {
	p := New(nil).FromRow(map[string]string{
		ColState:       "orissa",
		ColDistrict:    " Mayurbhanj ",
		ColVillage:     "jashipur",
		ColPattaHolder: "Sunita  Murmu",
		ColStatus:      "",
		ColLat:         "21.97",
		ColLon:         "east",
	}, constants.SourceImported)

	assert.Equal(t, "Odisha", p.State)
	assert.Equal(t, "Mayurbhanj", p.District)
	require.NotNil(t, p.Village)
	assert.Equal(t, "Jashipur", *p.Village)
	require.NotNil(t, p.PattaHolder)
	assert.Equal(t, "Sunita Murmu", *p.PattaHolder)
	assert.Equal(t, constants.StatusPending, p.Status)
	require.NotNil(t, p.Lat)
	assert.Equal(t, 21.97, *p.Lat)
	assert.Nil(t, p.Lon)
	assert.Nil(t, p.RawOCR)
	assert.Equal(t, constants.SourceImported, p.Source)
}

func TestPatch_OnlyTouchesPresentKeys(t *testing.T) {
	m := New(nil)
	base := m.FromRow(map[string]string{
		ColState:       "Odisha",
		ColDistrict:    "Mayurbhanj",
		ColVillage:     "Jashipur",
		ColPattaHolder: "Sunita Murmu",
		ColStatus:      "Approved",
		ColLat:         "21.97",
		ColLon:         "86.07",
	}, constants.SourceImported)
	raw := `{"extracted_text":"x"}`
	base.RawOCR = &raw

	p := m.Patch(base, map[string]string{
		ColDistrict:    "  keonjhar ",
		ColPattaHolder: "",
		ColStatus:      "",
		ColLat:         "north",
		"source":       "manual",
	})

	assert.Equal(t, "Odisha", p.State)
	assert.Equal(t, "Keonjhar", p.District)
	require.NotNil(t, p.Village)
	assert.Equal(t, "Jashipur", *p.Village)
	assert.Nil(t, p.PattaHolder)
	assert.Equal(t, constants.StatusPending, p.Status)
	assert.Nil(t, p.Lat)
	require.NotNil(t, p.Lon)
	assert.Equal(t, 86.07, *p.Lon)
	assert.Equal(t, constants.SourceImported, p.Source)
	assert.Same(t, &raw, p.RawOCR)
}

func TestLoadAliases(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aliases.yaml")
	require.NoError(t, os.WriteFile(path, []byte("states:\n  madhyapradesh state: Madhya Pradesh\ndistricts:\n  bhopal city: Bhopal\n"), 0o644))

	aliases, err := LoadAliases(path)
	require.NoError(t, err)

	p := New(aliases).FromRow(map[string]string{ColState: "MadhyaPradesh State", ColDistrict: "Bhopal City"}, constants.SourceManual)
	assert.Equal(t, "Madhya Pradesh", p.State)
	assert.Equal(t, "Bhopal", p.District)

	_, err = LoadAliases(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
