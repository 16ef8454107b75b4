package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/nyc-collision-analytics/internal/adapter/csvfile"
	"github.com/couchcryptid/nyc-collision-analytics/internal/adapter/export"
	"github.com/couchcryptid/nyc-collision-analytics/internal/domain"
	"github.com/couchcryptid/nyc-collision-analytics/internal/mockdata"
	"github.com/couchcryptid/nyc-collision-analytics/internal/observability"
)

var testYears = domain.YearRange{First: 2018, Last: 2019}

func at(y int) time.Time { return time.Date(y, 3, 4, 17, 30, 0, 0, time.UTC) }

// execute runs the root command once with args and returns its stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	newMetrics = observability.NewMetricsForTesting
	t.Cleanup(func() { newMetrics = observability.NewMetrics })

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
		rootCmd.PersistentFlags().VisitAll(func(f *pflag.Flag) {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		})
	})
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

// commandEnv points every directory at a temp dir and returns the raw
// input path.
func commandEnv(t *testing.T) (input, cacheDir, outDir string) {
	t.Helper()
	dir := t.TempDir()
	input = filepath.Join(dir, "collisions.csv")
	cacheDir = filepath.Join(dir, "cache")
	outDir = filepath.Join(dir, "out")

	f, err := os.Create(input)
	require.NoError(t, err)
	_, err = mockdata.Generate(f, mockdata.Options{Years: testYears, PerYear: 120, Seed: 7})
	require.NoError(t, err)
	require.NoError(t, f.Close())

	t.Setenv("CONFIG_PATH", "")
	t.Setenv("INPUT_PATH", input)
	t.Setenv("CACHE_DIR", cacheDir)
	t.Setenv("OUTPUT_DIR", outDir)
	t.Setenv("YEAR_FROM", "2018")
	t.Setenv("YEAR_TO", "2019")
	t.Setenv("GRID_SIZE", "10")
	t.Setenv("CURVE_POINTS", "20")
	t.Setenv("LOG_LEVEL", "error")
	return input, cacheDir, outDir
}

func TestCommands_CleanThenValidate(t *testing.T) {
	_, cacheDir, _ := commandEnv(t)

	out, err := execute(t, "clean")
	require.NoError(t, err)
	assert.Contains(t, out, "corrected 1")
	assert.FileExists(t, filepath.Join(cacheDir, csvfile.CleanedFile))
	assert.FileExists(t, filepath.Join(cacheDir, csvfile.YearFile(2019)))

	out, err = execute(t, "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "All validations passed.")
}

func TestCommands_RunFromCacheWithOutputOverride(t *testing.T) {
	_, _, outDir := commandEnv(t)

	_, err := execute(t, "run")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(outDir, export.ManifestFile))

	other := filepath.Join(t.TempDir(), "second")
	out, err := execute(t, "run", "--from-cache", "--output", other)
	require.NoError(t, err)
	assert.Contains(t, out, other)
	assert.FileExists(t, filepath.Join(other, export.SummaryFile))
}

func TestCommands_ValidateMissingCache(t *testing.T) {
	commandEnv(t)
	_, err := execute(t, "validate")
	require.ErrorIs(t, err, csvfile.ErrCacheMissing)
}

func TestCheckPlaceable(t *testing.T) {
	recs := []domain.Collision{
		{CrashTime: at(2018), Borough: domain.Bronx, Latitude: 40.85, Longitude: -73.88},
		{CrashTime: at(2018), Borough: domain.Queens},
		{CrashTime: at(2018)},
		{CrashTime: at(2019), Latitude: 40.7, Longitude: domain.AnomalyLongitude},
		{CrashTime: at(2019), Latitude: 42.65, Longitude: -73.75},
	}
	p := checkPlaceable(recs)
	require.Len(t, p.errors, 4)
	assert.Contains(t, p.errors[0], "row 3: no borough")
	assert.Contains(t, p.errors[1], "row 4: uncorrected")
	assert.Contains(t, p.errors[2], "row 4:")
	assert.Contains(t, p.errors[3], "row 5:")
}

func TestCheckIdempotent(t *testing.T) {
	good := []domain.Collision{{CrashTime: at(2018), Borough: domain.Bronx, Latitude: 40.85, Longitude: -73.88}}
	assert.True(t, checkIdempotent(good).passed())

	bad := append(good, domain.Collision{CrashTime: at(2018)})
	p := checkIdempotent(bad)
	assert.False(t, p.passed())
	assert.Contains(t, p.errors[0], "dropped 1")
}

func TestCheckPartitions(t *testing.T) {
	cleaned := []domain.Collision{
		{CrashTime: at(2018), Borough: domain.Bronx},
		{CrashTime: at(2019), Borough: domain.Bronx},
		{CrashTime: at(2019), Borough: domain.Queens},
		{CrashTime: at(2021), Borough: domain.Queens},
	}

	tests := []struct {
		name    string
		parts   map[int][]domain.Collision
		missing []int
		errs    int
	}{
		{
			name:  "exact partition",
			parts: map[int][]domain.Collision{2018: cleaned[:1], 2019: cleaned[1:3]},
		},
		{
			name:    "missing year file",
			parts:   map[int][]domain.Collision{2018: cleaned[:1]},
			missing: []int{2019},
			errs:    1,
		},
		{
			name:  "record in wrong year",
			parts: map[int][]domain.Collision{2018: cleaned[1:2], 2019: cleaned[1:3]},
			errs:  1,
		},
		{
			name:  "short partition",
			parts: map[int][]domain.Collision{2018: cleaned[:1], 2019: cleaned[1:2]},
			errs:  1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := checkPartitions(cleaned, tt.parts, tt.missing, testYears)
			assert.Len(t, p.errors, tt.errs, "%v", p.errors)
		})
	}
}

func TestPrintPhases(t *testing.T) {
	ok := &phase{name: "first"}
	bad := &phase{name: "second"}
	for i := 0; i < maxReported+3; i++ {
		bad.errorf("problem %d", i)
	}

	var buf bytes.Buffer
	assert.False(t, printPhases(&buf, []*phase{ok, bad}, 1234))
	out := buf.String()
	assert.Contains(t, out, "FAIL (23 errors)")
	assert.Contains(t, out, "1,234 cleaned")
	assert.Contains(t, out, "... 3 more")
	assert.Contains(t, out, "Validation FAILED.")

	buf.Reset()
	assert.True(t, printPhases(&buf, []*phase{ok}, 0))
	assert.Contains(t, buf.String(), "All validations passed.")
}
