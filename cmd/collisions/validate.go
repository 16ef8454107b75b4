package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/couchcryptid/nyc-collision-analytics/internal/adapter/csvfile"
	"github.com/couchcryptid/nyc-collision-analytics/internal/domain"
)

// errValidation is returned when at least one phase failed.
var errValidation = errors.New("cache validation failed")

// maxReported caps the detail lines printed per failed phase.
const maxReported = 20

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the cleaned cache files against the cleaning rules",
	Long: `Re-reads the cleaned file and the per-year files from cache_dir and checks
that every record is placeable inside the city, that the known bad longitude
no longer appears, that cleaning the cache again changes nothing and that the
year files partition the cleaned file.`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func runValidate(cmd *cobra.Command, _ []string) error {
	cfg, logger, _, err := setup(cmd)
	if err != nil {
		return err
	}

	cache := newCache(cfg, logger)
	cleaned, err := cache.Load(cmd.Context())
	if err != nil {
		logger.Error("load cleaned cache failed", "dir", cache.Dir(), "error", err)
		return err
	}
	parts, missing, err := loadPartitions(cmd.Context(), cache, cfg.Years())
	if err != nil {
		logger.Error("load year cache failed", "dir", cache.Dir(), "error", err)
		return err
	}

	phases := []*phase{
		checkPlaceable(cleaned),
		checkIdempotent(cleaned),
		checkPartitions(cleaned, parts, missing, cfg.Years()),
	}
	if !printPhases(cmd.OutOrStdout(), phases, len(cleaned)) {
		return errValidation
	}
	return nil
}

// loadPartitions reads every year file that exists and lists those that do not.
func loadPartitions(ctx context.Context, cache *csvfile.Cache, years domain.YearRange) (map[int][]domain.Collision, []int, error) {
	parts := make(map[int][]domain.Collision)
	var missing []int
	for _, y := range years.Years() {
		recs, err := cache.LoadYear(ctx, y)
		if errors.Is(err, csvfile.ErrCacheMissing) {
			missing = append(missing, y)
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		parts[y] = recs
	}
	return parts, missing, nil
}

// checkPlaceable verifies each cleaned record on its own.
func checkPlaceable(cleaned []domain.Collision) *phase {
	p := &phase{name: "Records are placeable"}
	for i, rec := range cleaned {
		if !rec.HasBorough() && !rec.HasCoordinates() {
			p.errorf("row %d: no borough and no longitude", i+1)
		}
		if rec.Longitude == domain.AnomalyLongitude {
			p.errorf("row %d: uncorrected longitude %v", i+1, rec.Longitude)
		}
		if !rec.IsSentinel() && !domain.CityBounds.Contains(rec.Latitude, rec.Longitude) {
			p.errorf("row %d: (%v, %v) outside city bounds", i+1, rec.Latitude, rec.Longitude)
		}
	}
	return p
}

// checkIdempotent cleans the cleaned set again; nothing may change.
func checkIdempotent(cleaned []domain.Collision) *phase {
	p := &phase{name: "Cleaning is idempotent"}
	again, st := domain.Clean(cleaned)
	if st.Dropped() != 0 {
		p.errorf("second pass dropped %d records", st.Dropped())
	}
	if st.AnomaliesFixed != 0 {
		p.errorf("second pass corrected %d records", st.AnomaliesFixed)
	}
	if len(again) == len(cleaned) {
		for i := range again {
			if again[i] != cleaned[i] {
				p.errorf("row %d changed on second pass", i+1)
			}
		}
	}
	return p
}

// checkPartitions verifies that the year files hold exactly the in-range
// cleaned records of their year.
func checkPartitions(cleaned []domain.Collision, parts map[int][]domain.Collision, missing []int, years domain.YearRange) *phase {
	p := &phase{name: "Year files partition the cleaned file"}
	for _, y := range missing {
		p.errorf("%s missing", csvfile.YearFile(y))
	}

	want := make(map[int]int)
	for _, rec := range cleaned {
		if y := domain.Year(rec.CrashTime); years.Contains(y) {
			want[y]++
		}
	}
	for _, y := range years.Years() {
		recs, ok := parts[y]
		if !ok {
			continue
		}
		if len(recs) != want[y] {
			p.errorf("%s: %d records, cleaned file has %d for %d", csvfile.YearFile(y), len(recs), want[y], y)
		}
		for i, rec := range recs {
			if got := domain.Year(rec.CrashTime); got != y {
				p.errorf("%s row %d: crash year %d", csvfile.YearFile(y), i+1, got)
			}
		}
	}
	return p
}

// printPhases prints the phase table and details; it returns true when all passed.
func printPhases(w io.Writer, phases []*phase, records int) bool {
	fmt.Fprintln(w, "=== Collision Cache Validation ===")
	fmt.Fprintln(w)

	allPassed := true
	for _, p := range phases {
		status := "PASS"
		if !p.passed() {
			status = fmt.Sprintf("FAIL (%d errors)", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(w, "  %-42s %s\n", p.name, status)
	}
	fmt.Fprintf(w, "\nRecords: %s cleaned\n", humanize.Comma(int64(records)))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(w, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			if i == maxReported {
				fmt.Fprintf(w, "  ... %d more\n", len(p.errors)-maxReported)
				break
			}
			fmt.Fprintf(w, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(w, "\nAll validations passed.")
		return true
	}
	fmt.Fprintln(w, "\nValidation FAILED.")
	return false
}
