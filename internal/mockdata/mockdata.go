// Package mockdata generates a deterministic synthetic collision export in
// the raw input schema, for demos and tests.
package mockdata

import (
	"encoding/csv"
	"fmt"
	"io"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/couchcryptid/nyc-collision-analytics/internal/domain"
)

// Header is the column order of generated files. Columns the pipeline does
// not read are included so readers are exercised against extra columns.
var Header = []string{
	"CRASH DATE", "CRASH TIME", "BOROUGH", "ZIP CODE", "LATITUDE", "LONGITUDE", "LOCATION",
	"NUMBER OF PERSONS INJURED", "NUMBER OF PERSONS KILLED",
	"NUMBER OF PEDESTRIANS INJURED", "NUMBER OF PEDESTRIANS KILLED",
	"NUMBER OF CYCLIST INJURED", "NUMBER OF CYCLIST KILLED",
	"NUMBER OF MOTORIST INJURED", "NUMBER OF MOTORIST KILLED",
	"COLLISION_ID",
}

// Options controls the generated data.
type Options struct {
	Years   domain.YearRange
	PerYear int    // located crashes per year
	Seed    uint64 // same seed, same file
}

// Stats describes what Generate wrote, so callers know what cleaning
// should do with it.
type Stats struct {
	Rows           int
	NoLocation     int // no borough and no longitude
	OutOfBounds    int // outside the city rectangle
	AnomaliesFixed int // the known bad longitude
}

// Kept is the number of rows expected to survive cleaning.
func (s Stats) Kept() int { return s.Rows - s.NoLocation - s.OutOfBounds }

type row struct {
	ts       time.Time
	borough  string
	lat, lon string
	counts   domain.Casualties
}

// Generate writes a synthetic export to w. Each year gets PerYear located
// crashes spread over the five boroughs, plus a fixed set of rows that
// exercise the cleaning rules. The anomaly row is written once, in the
// first year.
func Generate(w io.Writer, opts Options) (Stats, error) {
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return Stats{}, err
	}

	var st Stats
	id := 4_000_000
	emit := func(r row) error {
		id++
		st.Rows++
		return cw.Write(r.record(id))
	}

	boroughs := domain.BoroughTable()
	for _, y := range opts.Years.Years() {
		for range opts.PerYear {
			info := boroughs[rng.IntN(len(boroughs))]
			r := row{ts: randomTime(rng, y), borough: string(info.Name), counts: randomCasualties(rng)}
			r.lat, r.lon = formatCoord(within(rng, info.Extent.South, info.Extent.North)), formatCoord(within(rng, info.Extent.West, info.Extent.East))
			// Some located crashes lose their borough label or coordinates;
			// both kinds are kept.
			switch rng.IntN(10) {
			case 0:
				r.borough = ""
			case 1:
				r.lat, r.lon = "", ""
			}
			if err := emit(r); err != nil {
				return st, err
			}
		}

		fixed := []row{
			// No location at all, then the (0, 0) sentinel without a borough.
			{ts: randomTime(rng, y)},
			{ts: randomTime(rng, y), lat: "0", lon: "0"},
			// Albany, then Nassau County.
			{ts: randomTime(rng, y), borough: "QUEENS", lat: "42.65", lon: "-73.75"},
			{ts: randomTime(rng, y), lat: "40.75", lon: "-73.60"},
		}
		st.NoLocation += 2
		st.OutOfBounds += 2
		if y == opts.Years.First {
			fixed = append(fixed, row{
				ts:  time.Date(y, time.June, 12, 17, 40, 0, 0, time.UTC),
				lat: "40.7568", lon: strconv.FormatFloat(domain.AnomalyLongitude, 'f', -1, 64),
			})
			st.AnomaliesFixed++
		}
		for _, r := range fixed {
			if err := emit(r); err != nil {
				return st, err
			}
		}
	}

	cw.Flush()
	return st, cw.Error()
}

func (r row) record(id int) []string {
	location := ""
	if r.lat != "" && r.lon != "" {
		location = fmt.Sprintf("(%s, %s)", r.lat, r.lon)
	}
	out := []string{
		r.ts.Format("01/02/2006"),
		fmt.Sprintf("%d:%02d", r.ts.Hour(), r.ts.Minute()),
		r.borough,
		"",
		r.lat,
		r.lon,
		location,
	}
	for _, f := range domain.CasualtyFields() {
		out = append(out, strconv.Itoa(r.counts.Get(f)))
	}
	return append(out, strconv.Itoa(id))
}

func randomTime(rng *rand.Rand, year int) time.Time {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	days := start.AddDate(1, 0, 0).Sub(start).Hours() / 24
	t := start.AddDate(0, 0, rng.IntN(int(days)))
	return t.Add(time.Duration(rng.IntN(24*60)) * time.Minute)
}

// randomCasualties mostly returns no casualties. When someone is hurt the
// person totals are the sum of the per-role counters.
func randomCasualties(rng *rand.Rand) domain.Casualties {
	var c domain.Casualties
	if rng.IntN(4) != 0 {
		return c
	}
	switch rng.IntN(3) {
	case 0:
		c[domain.PedestriansInjured] = 1
	case 1:
		c[domain.CyclistsInjured] = 1
	default:
		c[domain.MotoristsInjured] = 1 + rng.IntN(3)
	}
	if rng.IntN(50) == 0 {
		c[domain.PedestriansKilled] = 1
	}
	c[domain.PersonsInjured] = c[domain.PedestriansInjured] + c[domain.CyclistsInjured] + c[domain.MotoristsInjured]
	c[domain.PersonsKilled] = c[domain.PedestriansKilled] + c[domain.CyclistsKilled] + c[domain.MotoristsKilled]
	return c
}

// within returns a value strictly inside (lo, hi).
func within(rng *rand.Rand, lo, hi float64) float64 {
	return lo + (0.02+0.96*rng.Float64())*(hi-lo)
}

func formatCoord(v float64) string { return strconv.FormatFloat(v, 'f', 6, 64) }
