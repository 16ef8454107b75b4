package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// crashTimeLayout matches "MM/DD/YYYY H:MM". Month, day and hour may omit the
// leading zero; minutes may not.
const crashTimeLayout = "1/2/2006 15:04"

// CacheTimeLayout is how timestamps are written to and read from cache files.
const CacheTimeLayout = "2006-01-02 15:04:05"

// ErrMalformedTimestamp is returned when a date/time pair does not match the
// input schema. It is fatal for a run.
var ErrMalformedTimestamp = errors.New("malformed crash timestamp")

// ParseCrashTime merges a CRASH DATE and CRASH TIME cell into one timestamp.
func ParseCrashTime(date, hhmm string) (time.Time, error) {
	s := strings.TrimSpace(date) + " " + strings.TrimSpace(hhmm)
	t, err := time.Parse(crashTimeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %v", ErrMalformedTimestamp, s, err)
	}
	return t, nil
}

// ParseCacheTime parses a timestamp written with CacheTimeLayout.
func ParseCacheTime(s string) (time.Time, error) {
	t, err := time.Parse(CacheTimeLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %v", ErrMalformedTimestamp, s, err)
	}
	return t, nil
}

// Year returns the calendar year of t.
func Year(t time.Time) int { return t.Year() }

// Month returns the month of t, 1–12.
func Month(t time.Time) time.Month { return t.Month() }

// Weekday returns the day of week of t. time.Weekday is Sunday-first, which is
// also the chart order.
func Weekday(t time.Time) time.Weekday { return t.Weekday() }

// Hour returns the hour of t, 0–23.
func Hour(t time.Time) int { return t.Hour() }

// FractionalYear maps t onto a continuous year axis, e.g. 1 July 2015 ≈ 2015.5.
func FractionalYear(t time.Time) float64 {
	start := time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
	end := start.AddDate(1, 0, 0)
	return float64(t.Year()) + float64(t.Sub(start))/float64(end.Sub(start))
}

// Months returns January through December.
func Months() []time.Month {
	out := make([]time.Month, 12)
	for i := range out {
		out[i] = time.Month(i + 1)
	}
	return out
}

// Weekdays returns Sunday through Saturday.
func Weekdays() []time.Weekday {
	out := make([]time.Weekday, 7)
	for i := range out {
		out[i] = time.Weekday(i)
	}
	return out
}

// MonthNames returns "January" through "December".
func MonthNames() []string {
	out := make([]string, 0, 12)
	for _, m := range Months() {
		out = append(out, m.String())
	}
	return out
}

// WeekdayNames returns "Sunday" through "Saturday".
func WeekdayNames() []string {
	out := make([]string, 0, 7)
	for _, wd := range Weekdays() {
		out = append(out, wd.String())
	}
	return out
}

// Hours returns 0 through 23.
func Hours() []int {
	out := make([]int, 24)
	for i := range out {
		out[i] = i
	}
	return out
}

// YearRange is an inclusive range of calendar years.
type YearRange struct {
	First int `json:"first"`
	Last  int `json:"last"`
}

// DefaultYears is the range covered by the published analysis.
var DefaultYears = YearRange{First: 2013, Last: 2020}

// Years lists the years in ascending order.
func (r YearRange) Years() []int {
	if r.Last < r.First {
		return nil
	}
	out := make([]int, 0, r.Last-r.First+1)
	for y := r.First; y <= r.Last; y++ {
		out = append(out, y)
	}
	return out
}

// Contains reports whether y is inside the range.
func (r YearRange) Contains(y int) bool { return r.First <= y && y <= r.Last }

func (r YearRange) String() string { return fmt.Sprintf("%d-%d", r.First, r.Last) }
