package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Source CSV headers read by the pipeline.
const (
	ColCrashDate = "CRASH DATE"
	ColCrashTime = "CRASH TIME"
	ColBorough   = "BOROUGH"
	ColLatitude  = "LATITUDE"
	ColLongitude = "LONGITUDE"
)

// ErrMissingColumn is returned when a required header is absent.
var ErrMissingColumn = errors.New("missing required column")

// RawColumns returns the input headers in schema order.
func RawColumns() []string {
	cols := []string{ColCrashDate, ColCrashTime, ColBorough, ColLatitude, ColLongitude}
	return append(cols, casualtyColumns[:]...)
}

// ColumnIndex maps required headers to their position in a CSV row.
type ColumnIndex map[string]int

// IndexColumns locates every name of want in header. Header cells are
// compared after trimming and upper-casing.
func IndexColumns(header, want []string) (ColumnIndex, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToUpper(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := pos[key]; !dup {
			pos[key] = i
		}
	}
	idx := make(ColumnIndex, len(want))
	var missing []string
	for _, name := range want {
		i, ok := pos[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		idx[name] = i
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return idx, nil
}

// Cell returns the value of column name in row, or "" when the row is short.
func (ci ColumnIndex) Cell(row []string, name string) string {
	i, ok := ci[name]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

// RawFromRow extracts a RawRecord from a CSV row located by an index built
// over RawColumns.
func (ci ColumnIndex) RawFromRow(row []string) RawRecord {
	rec := RawRecord{
		Date:      ci.Cell(row, ColCrashDate),
		Time:      ci.Cell(row, ColCrashTime),
		Borough:   ci.Cell(row, ColBorough),
		Latitude:  ci.Cell(row, ColLatitude),
		Longitude: ci.Cell(row, ColLongitude),
	}
	for f, col := range casualtyColumns {
		rec.Counts[f] = ci.Cell(row, col)
	}
	return rec
}

// ParseRawRecord converts a raw row into a Collision. Only the timestamp can
// fail; blank coordinates become the (0, 0) sentinel and blank or invalid
// counters become 0.
func ParseRawRecord(raw RawRecord) (Collision, error) {
	ts, err := ParseCrashTime(raw.Date, raw.Time)
	if err != nil {
		return Collision{}, err
	}
	borough, _ := ParseBorough(raw.Borough)

	c := Collision{
		CrashTime: ts,
		Borough:   borough,
		Latitude:  parseFloatOrZero(raw.Latitude),
		Longitude: parseFloatOrZero(raw.Longitude),
	}
	for f, s := range raw.Counts {
		c.Casualties[f] = parseCountOrZero(s)
	}
	return c, nil
}

// parseFloatOrZero parses a string as float64, returning 0 on failure.
func parseFloatOrZero(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// parseCountOrZero parses a casualty counter. Counters are non-negative, so
// negative or unparseable cells read as 0. Some exports write "2.0".
func parseCountOrZero(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if n, err := strconv.Atoi(s); err == nil {
		return max(n, 0)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0
	}
	return int(v)
}
