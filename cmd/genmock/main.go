// Command genmock writes a deterministic synthetic collision export in the
// raw input schema, for demos and local runs of the collisions command.
//
// Usage:
//
//	go run ./cmd/genmock -out data/collisions.csv -from 2013 -to 2017 -per-year 2000
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/dustin/go-humanize"

	"github.com/couchcryptid/nyc-collision-analytics/internal/domain"
	"github.com/couchcryptid/nyc-collision-analytics/internal/mockdata"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output path for the generated CSV")
	from := flag.Int("from", domain.DefaultYears.First, "first year to generate")
	to := flag.Int("to", domain.DefaultYears.Last, "last year to generate")
	perYear := flag.Int("per-year", 2000, "located crashes per year")
	seed := flag.Uint64("seed", 2013, "random seed; the same seed gives the same file")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}
	if *to < *from || *perYear < 0 {
		return fmt.Errorf("invalid range: -from %d -to %d -per-year %d", *from, *to, *perYear)
	}

	f, err := os.Create(*out)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	st, err := mockdata.Generate(f, mockdata.Options{
		Years:   domain.YearRange{First: *from, Last: *to},
		PerYear: *perYear,
		Seed:    *seed,
	})
	if err != nil {
		f.Close()
		return fmt.Errorf("generate: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}

	fmt.Printf("Wrote %s rows to %s\n", humanize.Comma(int64(st.Rows)), *out)
	fmt.Printf("  expected after cleaning: %s kept, %d no location, %d out of bounds, %d corrected\n",
		humanize.Comma(int64(st.Kept())), st.NoLocation, st.OutOfBounds, st.AnomaliesFixed)
	return nil
}
