// Package aggregate builds count tables by repeated filtering of a record set.
//
// Tables iterate the cross product of years and one or two categorical
// dimensions. Axis order is part of the contract: years ascend, months run
// January to December, weekdays start on Sunday, hours run 0 to 23 and
// boroughs follow their declared order. Records whose value is not one of a
// dimension's canonical values (for example a row without a borough) do not
// appear in tables keyed by that dimension.
package aggregate

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/couchcryptid/nyc-collision-analytics/internal/domain"
)

// Row keys of the involved-parties table.
const (
	PartyPedestrian  = "pedestrian"
	PartyVehicleOnly = "vehicle only"
)

// Aggregator computes count tables over a fixed year range.
type Aggregator struct {
	years      domain.YearRange
	printSteps bool
	logger     *slog.Logger
}

// New creates an Aggregator. With printSteps set every filtering level is
// logged at debug level.
func New(years domain.YearRange, printSteps bool, logger *slog.Logger) *Aggregator {
	return &Aggregator{years: years, printSteps: printSteps, logger: logger}
}

// Years returns the range the aggregator iterates.
func (a *Aggregator) Years() domain.YearRange { return a.years }

// ByValueAndYear counts records for every value of dim and every year:
// value → counts indexed by year.
func (a *Aggregator) ByValueAndYear(records []domain.Collision, dim domain.Dimension) CountTable {
	return a.byValueAndYear(records, dim, func(set []domain.Collision, sel domain.Selector) int {
		return domain.Count(set, sel)
	})
}

// SumByValueAndYear is ByValueAndYear with the leaf statistic replaced by
// the sum of a casualty counter.
func (a *Aggregator) SumByValueAndYear(records []domain.Collision, dim domain.Dimension, field domain.CasualtyField) CountTable {
	return a.byValueAndYear(records, dim, func(set []domain.Collision, sel domain.Selector) int {
		return domain.SumWhere(set, field, sel)
	})
}

func (a *Aggregator) byValueAndYear(records []domain.Collision, dim domain.Dimension, leaf func([]domain.Collision, domain.Selector) int) CountTable {
	years := a.years.Years()
	sels := dim.Selectors(a.years)

	t := CountTable{
		Category: dim.String(),
		Index:    domain.DimYear.String(),
		Columns:  yearLabels(years),
		Rows:     make([]CountRow, len(sels)),
	}
	for i, sel := range sels {
		t.Rows[i] = CountRow{Key: sel.Label(), Counts: make([]int, len(years))}
	}

	for j, y := range years {
		yearSet := domain.Filter(records, domain.YearIs(y))
		a.step("year", y, "records", len(yearSet))
		for i, sel := range sels {
			n := leaf(yearSet, sel)
			t.Rows[i].Counts[j] = n
			a.step("year", y, dim.String(), sel.Label(), "value", n)
		}
	}
	return t
}

// Nested builds, for every year, a table of category → counts indexed by
// the values of index.
func (a *Aggregator) Nested(records []domain.Collision, category, index domain.Dimension) NestedCountTable {
	years := a.years.Years()
	catSels := category.Selectors(a.years)
	idxSels := index.Selectors(a.years)
	cols := labels(idxSels)

	n := NestedCountTable{
		Category: category.String(),
		Index:    index.String(),
		Columns:  cols,
		Years:    years,
		Tables:   make([]CountTable, len(years)),
	}
	for k, y := range years {
		yearSet := domain.Filter(records, domain.YearIs(y))
		a.step("year", y, "records", len(yearSet))

		t := CountTable{
			Category: category.String(),
			Index:    index.String(),
			Columns:  cols,
			Rows:     make([]CountRow, len(catSels)),
		}
		for i, cs := range catSels {
			catSet := domain.Filter(yearSet, cs)
			counts := make([]int, len(idxSels))
			for j, is := range idxSels {
				counts[j] = domain.Count(catSet, is)
			}
			t.Rows[i] = CountRow{Key: cs.Label(), Counts: counts}
			a.step("year", y, category.String(), cs.Label(), "records", len(catSet))
		}
		n.Tables[k] = t
	}
	return n
}

// WeekdayHourByYear is year → weekday → counts per hour.
func (a *Aggregator) WeekdayHourByYear(records []domain.Collision) NestedCountTable {
	return a.Nested(records, domain.DimWeekday, domain.DimHour)
}

// BoroughMonthByYear is year → borough → counts per month.
func (a *Aggregator) BoroughMonthByYear(records []domain.Collision) NestedCountTable {
	return a.Nested(records, domain.DimBorough, domain.DimMonth)
}

// BoroughWeekdayByYear is year → borough → counts per weekday.
func (a *Aggregator) BoroughWeekdayByYear(records []domain.Collision) NestedCountTable {
	return a.Nested(records, domain.DimBorough, domain.DimWeekday)
}

// BoroughHourByYear is year → borough → counts per hour.
func (a *Aggregator) BoroughHourByYear(records []domain.Collision) NestedCountTable {
	return a.Nested(records, domain.DimBorough, domain.DimHour)
}

// DeathsByMonth sums persons killed: month → deaths per year.
func (a *Aggregator) DeathsByMonth(records []domain.Collision) CountTable {
	return a.SumByValueAndYear(records, domain.DimMonth, domain.PersonsKilled)
}

// DeathRatioByMonth is deaths per accident: month → ratio per year. Months
// without accidents are NaN.
func (a *Aggregator) DeathRatioByMonth(records []domain.Collision) (RatioTable, error) {
	deaths := a.DeathsByMonth(records)
	accidents := a.ByValueAndYear(records, domain.DimMonth)
	ratio, err := Divide(deaths, accidents)
	if err != nil {
		return RatioTable{}, fmt.Errorf("death ratio by month: %w", err)
	}
	return ratio, nil
}

// InvolvedParties splits each year's accidents into those with an injured
// or killed pedestrian and the rest.
func (a *Aggregator) InvolvedParties(records []domain.Collision) CountTable {
	years := a.years.Years()
	t := CountTable{
		Category: "party",
		Index:    domain.DimYear.String(),
		Columns:  yearLabels(years),
		Rows: []CountRow{
			{Key: PartyPedestrian, Counts: make([]int, len(years))},
			{Key: PartyVehicleOnly, Counts: make([]int, len(years))},
		},
	}
	for j, y := range years {
		for _, c := range domain.Filter(records, domain.YearIs(y)) {
			if c.PedestrianInvolved() {
				t.Rows[0].Counts[j]++
			} else {
				t.Rows[1].Counts[j]++
			}
		}
		a.step("year", y, PartyPedestrian, t.Rows[0].Counts[j], PartyVehicleOnly, t.Rows[1].Counts[j])
	}
	return t
}

func (a *Aggregator) step(args ...any) {
	if !a.printSteps {
		return
	}
	a.logger.Debug("aggregation step", args...)
}

func yearLabels(years []int) []string {
	out := make([]string, len(years))
	for i, y := range years {
		out[i] = strconv.Itoa(y)
	}
	return out
}

func labels(sels []domain.Selector) []string {
	out := make([]string, len(sels))
	for i, s := range sels {
		out[i] = s.Label()
	}
	return out
}
