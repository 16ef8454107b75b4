package export

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	geojson "github.com/paulmach/go.geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/nyc-collision-analytics/internal/aggregate"
	"github.com/couchcryptid/nyc-collision-analytics/internal/density"
	"github.com/couchcryptid/nyc-collision-analytics/internal/domain"
	"github.com/couchcryptid/nyc-collision-analytics/internal/report"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleReport() *report.Report {
	counts := aggregate.CountTable{
		Category: "BOROUGH",
		Index:    "YEAR",
		Columns:  []string{"2019", "2020"},
		Rows: []aggregate.CountRow{
			{Key: "MANHATTAN", Counts: []int{1200, 1100}},
			{Key: "QUEENS", Counts: []int{1, 0}},
		},
	}
	ratios := aggregate.RatioTable{
		Category: "MONTH",
		Index:    "YEAR",
		Columns:  []string{"2019", "2020"},
		Rows: []aggregate.RatioRow{
			{Key: "January", Values: []float64{0.25, math.NaN()}},
		},
	}
	info, _ := domain.LookupBorough(domain.Bronx)
	extent := info.Extent
	surface := density.Surface{
		Xs: []float64{-73.9, -73.8},
		Ys: []float64{40.8, 40.9},
		Z:  [][]float64{{1, 2}, {3, 4}},
		N:  12,
	}

	return &report.Report{
		Run: domain.RunInfo{
			ID:          "run-1",
			GeneratedAt: time.Date(2024, time.April, 27, 6, 0, 0, 0, time.UTC),
			Input:       "collisions.csv",
			Years:       domain.YearRange{First: 2019, Last: 2020},
		},
		Stats: domain.CleanStats{Input: 2500, Kept: 2301, NoLocation: 150, OutOfBounds: 49, AnomaliesFixed: 1},
		Artifacts: []report.Artifact{
			{ID: "q1-accidents-by-borough", Question: 1, Kind: report.KindBar, Title: "Accidents by borough", Counts: &counts},
			{ID: "q7-heatmap-bronx-2019", Question: 7, Kind: report.KindHeatmap, Title: "Bronx", Year: 2019, Borough: domain.Bronx, Surface: &surface, Extent: &extent},
			{ID: "q9-death-ratio-by-month", Question: 9, Kind: report.KindRatio, Title: "Ratio", Ratios: &ratios},
		},
	}
}

func TestWriter_Publish(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	w := NewWriter(dir, discardLogger())
	rep := sampleReport()

	require.NoError(t, w.Publish(context.Background(), rep))
	assert.Equal(t, "file", w.Name())

	for _, name := range []string{
		"q1-accidents-by-borough.json",
		"q7-heatmap-bronx-2019.json",
		"q9-death-ratio-by-month.json",
		ManifestFile, GeoJSONFile, SummaryFile,
	} {
		assert.FileExists(t, filepath.Join(dir, name))
	}

	t.Run("artifact file", func(t *testing.T) {
		data, err := os.ReadFile(filepath.Join(dir, "q9-death-ratio-by-month.json"))
		require.NoError(t, err)
		var got report.Artifact
		require.NoError(t, json.Unmarshal(data, &got))
		require.NotNil(t, got.Ratios)
		assert.InDelta(t, 0.25, got.Ratios.Rows[0].Values[0], 1e-12)
		assert.True(t, math.IsNaN(got.Ratios.Rows[0].Values[1]))
	})

	t.Run("manifest", func(t *testing.T) {
		data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
		require.NoError(t, err)
		var m Manifest
		require.NoError(t, json.Unmarshal(data, &m))
		assert.Equal(t, "run-1", m.Run.ID)
		assert.Equal(t, 2301, m.Stats.Kept)
		require.Len(t, m.Artifacts, 3)
		assert.Equal(t, "q7-heatmap-bronx-2019.json", m.Artifacts[1].File)
		assert.Equal(t, domain.Bronx, m.Artifacts[1].Borough)
	})

	t.Run("republish overwrites", func(t *testing.T) {
		rep.Artifacts = rep.Artifacts[:1]
		require.NoError(t, w.Publish(context.Background(), rep))
		data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
		require.NoError(t, err)
		var m Manifest
		require.NoError(t, json.Unmarshal(data, &m))
		assert.Len(t, m.Artifacts, 1)
	})
}

func TestWriter_PublishCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	dir := t.TempDir()

	err := NewWriter(dir, discardLogger()).Publish(ctx, sampleReport())
	require.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, filepath.Join(dir, ManifestFile))
}

func TestBoroughLayer(t *testing.T) {
	data, err := BoroughLayer(sampleReport().Artifacts).MarshalJSON()
	require.NoError(t, err)

	fc, err := geojson.UnmarshalFeatureCollection(data)
	require.NoError(t, err)
	// city + 5 bounds + 5 centroids + 1 heatmap outline
	require.Len(t, fc.Features, 12)

	kinds := map[string]int{}
	for _, f := range fc.Features {
		kinds[f.PropertyMustString("kind")]++
	}
	assert.Equal(t, map[string]int{FeatureCity: 1, FeatureBounds: 5, FeatureCentroid: 5, FeatureHeatmap: 1}, kinds)

	city := fc.Features[0]
	require.True(t, city.Geometry.IsPolygon())
	ring := city.Geometry.Polygon[0]
	require.Len(t, ring, 5)
	assert.Equal(t, ring[0], ring[4], "ring is closed")
	assert.Equal(t, []float64{domain.CityBounds.Min.Lon, domain.CityBounds.Min.Lat}, ring[0])

	heat := fc.Features[11]
	assert.Equal(t, "q7-heatmap-bronx-2019", heat.PropertyMustString("artifact"))
	assert.InDelta(t, 4, heat.PropertyMustFloat64("peak"), 0)
	assert.Equal(t, 12, heat.PropertyMustInt("points"))

	centroid := fc.Features[2]
	require.True(t, centroid.Geometry.IsPoint())
	info, _ := domain.LookupBorough(domain.StatenIsland)
	assert.Equal(t, []float64{info.Centroid.Lon, info.Centroid.Lat}, centroid.Geometry.Point)
}

func TestWriteSummary(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSummary(&buf, sampleReport()))
	out := buf.String()

	assert.Contains(t, out, "Run run-1")
	assert.Contains(t, out, "Records read     2,500")
	assert.Contains(t, out, "Records kept     2,301")
	assert.Contains(t, out, "Artifacts        3 (1 bar, 0 grouped, 0 density, 1 heatmap, 1 ratio)")
	assert.Contains(t, out, "== q1-accidents-by-borough: Accidents by borough")
	assert.Contains(t, out, "MANHATTAN")
	assert.Contains(t, out, "2300")
	assert.Contains(t, out, "0.2500")
	assert.Contains(t, out, "NaN")
	assert.Contains(t, out, "== other artifacts\nq7-heatmap-bronx-2019\n")
}

func TestCountGrid(t *testing.T) {
	tab := CountGrid(*sampleReport().Artifacts[0].Counts)
	assert.Equal(t, []string{"BOROUGH", "2019", "2020", "total"}, tab.Columns())
	assert.Equal(t, 2, tab.Len())
	assert.Equal(t, []int{2300, 1}, tab.MustColumn("total"))
}
