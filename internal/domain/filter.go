package domain

import (
	"fmt"
	"strconv"
	"time"
)

// Dimension is a field records can be partitioned on.
type Dimension uint8

const (
	DimBorough Dimension = iota
	DimYear
	DimMonth
	DimWeekday
	DimHour
)

func (d Dimension) String() string {
	switch d {
	case DimBorough:
		return "borough"
	case DimYear:
		return "year"
	case DimMonth:
		return "month"
	case DimWeekday:
		return "weekday"
	case DimHour:
		return "hour"
	default:
		return "dimension(" + strconv.Itoa(int(d)) + ")"
	}
}

// Selectors returns one selector per canonical value of d, in chart order:
// boroughs in declared order, months January–December, weekdays
// Sunday–Saturday, hours 0–23. Years come from the given range.
func (d Dimension) Selectors(years YearRange) []Selector {
	var out []Selector
	switch d {
	case DimBorough:
		for _, b := range Boroughs() {
			out = append(out, BoroughIs(b))
		}
	case DimYear:
		for _, y := range years.Years() {
			out = append(out, YearIs(y))
		}
	case DimMonth:
		for _, m := range Months() {
			out = append(out, MonthIs(m))
		}
	case DimWeekday:
		for _, wd := range Weekdays() {
			out = append(out, WeekdayIs(wd))
		}
	case DimHour:
		for _, h := range Hours() {
			out = append(out, HourIs(h))
		}
	}
	return out
}

// Selector matches records whose value on one dimension equals a target.
// Build one with BoroughIs, YearIs, MonthIs, WeekdayIs or HourIs.
type Selector struct {
	dim     Dimension
	borough Borough
	n       int
}

func BoroughIs(b Borough) Selector       { return Selector{dim: DimBorough, borough: b} }
func YearIs(y int) Selector              { return Selector{dim: DimYear, n: y} }
func MonthIs(m time.Month) Selector      { return Selector{dim: DimMonth, n: int(m)} }
func WeekdayIs(wd time.Weekday) Selector { return Selector{dim: DimWeekday, n: int(wd)} }
func HourIs(h int) Selector              { return Selector{dim: DimHour, n: h} }

// Dimension returns the dimension the selector compares on.
func (s Selector) Dimension() Dimension { return s.dim }

// Match reports whether c has the selector's value.
func (s Selector) Match(c Collision) bool {
	switch s.dim {
	case DimBorough:
		return c.Borough == s.borough
	case DimYear:
		return Year(c.CrashTime) == s.n
	case DimMonth:
		return int(Month(c.CrashTime)) == s.n
	case DimWeekday:
		return int(Weekday(c.CrashTime)) == s.n
	case DimHour:
		return Hour(c.CrashTime) == s.n
	default:
		return false
	}
}

// Label is the chart label of the selected value: the borough name, the year,
// the month name, the weekday name, or the hour.
func (s Selector) Label() string {
	switch s.dim {
	case DimBorough:
		return string(s.borough)
	case DimMonth:
		return time.Month(s.n).String()
	case DimWeekday:
		return time.Weekday(s.n).String()
	default:
		return strconv.Itoa(s.n)
	}
}

func (s Selector) String() string { return fmt.Sprintf("%s=%s", s.dim, s.Label()) }

// Filter returns a new slice with the records matching every selector.
// The input is never modified.
func Filter(records []Collision, sels ...Selector) []Collision {
	out := make([]Collision, 0, len(records)/4)
	for _, rec := range records {
		if matchAll(rec, sels) {
			out = append(out, rec)
		}
	}
	return out
}

// Count returns how many records match every selector without materializing
// the subset.
func Count(records []Collision, sels ...Selector) int {
	n := 0
	for _, rec := range records {
		if matchAll(rec, sels) {
			n++
		}
	}
	return n
}

// SumWhere totals a casualty counter over the records matching every selector.
func SumWhere(records []Collision, field CasualtyField, sels ...Selector) int {
	total := 0
	for _, rec := range records {
		if matchAll(rec, sels) {
			total += rec.Casualties.Get(field)
		}
	}
	return total
}

func matchAll(rec Collision, sels []Selector) bool {
	for _, s := range sels {
		if !s.Match(rec) {
			return false
		}
	}
	return true
}

// BetweenCoords returns the records strictly inside the rectangle spanned by
// the two corners lo (min lat, min lon) and hi (max lat, max lon).
func BetweenCoords(records []Collision, lo, hi Point) []Collision {
	box := BBox{Min: lo, Max: hi}
	out := make([]Collision, 0, len(records))
	for _, rec := range records {
		if box.Contains(rec.Latitude, rec.Longitude) {
			out = append(out, rec)
		}
	}
	return out
}

// BetweenYears returns the records whose year is in [y1, y2].
func BetweenYears(records []Collision, y1, y2 int) []Collision {
	r := YearRange{First: y1, Last: y2}
	out := make([]Collision, 0, len(records))
	for _, rec := range records {
		if r.Contains(Year(rec.CrashTime)) {
			out = append(out, rec)
		}
	}
	return out
}
