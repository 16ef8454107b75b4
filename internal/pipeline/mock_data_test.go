package pipeline_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/nyc-collision-analytics/internal/adapter/csvfile"
	"github.com/couchcryptid/nyc-collision-analytics/internal/adapter/export"
	"github.com/couchcryptid/nyc-collision-analytics/internal/aggregate"
	"github.com/couchcryptid/nyc-collision-analytics/internal/domain"
	"github.com/couchcryptid/nyc-collision-analytics/internal/mockdata"
	"github.com/couchcryptid/nyc-collision-analytics/internal/observability"
	"github.com/couchcryptid/nyc-collision-analytics/internal/pipeline"
	"github.com/couchcryptid/nyc-collision-analytics/internal/report"
)

// writeMockInput generates a synthetic export and returns its path and what
// cleaning should make of it.
func writeMockInput(t *testing.T, years domain.YearRange) (string, mockdata.Stats) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "collisions.csv")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	st, err := mockdata.Generate(f, mockdata.Options{Years: years, PerYear: 400, Seed: 2013})
	require.NoError(t, err)
	return path, st
}

func newCatalog(years domain.YearRange, metrics *observability.Metrics) *report.Catalog {
	agg := aggregate.New(years, false, discardLogger())
	return report.NewCatalog(agg, report.Options{GridSize: 20, CurvePoints: 50}, discardLogger(), metrics)
}

func TestPipeline_WithMockData(t *testing.T) {
	input, want := writeMockInput(t, years)
	cacheDir := filepath.Join(t.TempDir(), "cache")
	outDir := filepath.Join(t.TempDir(), "out")
	metrics := observability.NewMetricsForTesting()

	cache := csvfile.NewCache(cacheDir, csvfile.CacheOptions{SaveYears: true, SaveCleaned: true}, discardLogger())
	p := pipeline.New(
		csvfile.NewReader(input, discardLogger()),
		cache,
		newCatalog(years, metrics),
		[]pipeline.Sink{export.NewWriter(outDir, discardLogger())},
		pipeline.Options{Input: input, Years: years},
		discardLogger(),
		metrics,
	)

	rep, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, want.Rows, rep.Stats.Input)
	assert.Equal(t, want.Kept(), rep.Stats.Kept)
	assert.Equal(t, want.AnomaliesFixed, rep.Stats.AnomaliesFixed)

	t.Run("year partitions add up", func(t *testing.T) {
		total := 0
		for _, y := range years.Years() {
			recs, err := cache.LoadYear(context.Background(), y)
			require.NoError(t, err)
			total += len(recs)
		}
		cleaned, err := cache.Load(context.Background())
		require.NoError(t, err)
		assert.Len(t, cleaned, rep.Stats.Kept)
		assert.Equal(t, len(cleaned), total)
	})

	t.Run("every borough has a heat map each year", func(t *testing.T) {
		assert.Equal(t, 10, rep.Count(report.KindHeatmap))
	})

	t.Run("manifest lists every artifact file", func(t *testing.T) {
		data, err := os.ReadFile(filepath.Join(outDir, export.ManifestFile))
		require.NoError(t, err)
		var m export.Manifest
		require.NoError(t, json.Unmarshal(data, &m))
		require.Len(t, m.Artifacts, len(rep.Artifacts))
		for _, e := range m.Artifacts {
			assert.FileExists(t, filepath.Join(outDir, e.File))
		}
	})

	t.Run("borough counts match the cleaned set", func(t *testing.T) {
		data, err := os.ReadFile(filepath.Join(outDir, "q1-accidents-by-borough.json"))
		require.NoError(t, err)
		var a report.Artifact
		require.NoError(t, json.Unmarshal(data, &a))
		require.NotNil(t, a.Counts)

		cleaned, err := cache.Load(context.Background())
		require.NoError(t, err)
		withBorough := 0
		for _, rec := range cleaned {
			if rec.HasBorough() {
				withBorough++
			}
		}
		assert.Equal(t, withBorough, a.Counts.Total())
	})
}

func TestPipeline_FromCache(t *testing.T) {
	input, _ := writeMockInput(t, years)
	cacheDir := t.TempDir()
	cache := csvfile.NewCache(cacheDir, csvfile.CacheOptions{SaveCleaned: true}, discardLogger())

	first := pipeline.New(csvfile.NewReader(input, discardLogger()), cache, newCatalog(years, observability.NewMetricsForTesting()),
		nil, pipeline.Options{Input: input, Years: years}, discardLogger(), observability.NewMetricsForTesting())
	fresh, err := first.Run(context.Background())
	require.NoError(t, err)

	second := pipeline.New(cache, nil, newCatalog(years, observability.NewMetricsForTesting()),
		nil, pipeline.Options{Input: cacheDir, Years: years}, discardLogger(), observability.NewMetricsForTesting())
	cached, err := second.Run(context.Background())
	require.NoError(t, err)

	// Cleaning is idempotent, so the cached run sees no drops and builds
	// the same catalog.
	assert.Equal(t, fresh.Stats.Kept, cached.Stats.Input)
	assert.Equal(t, cached.Stats.Input, cached.Stats.Kept)
	require.Len(t, cached.Artifacts, len(fresh.Artifacts))
	for i := range fresh.Artifacts {
		assert.Equal(t, fresh.Artifacts[i].ID, cached.Artifacts[i].ID)
	}
	assert.Equal(t, fresh.Artifacts[0].Counts, cached.Artifacts[0].Counts)
}
