package aggregate

import (
	"errors"
	"fmt"
	"math"

	json "github.com/goccy/go-json"
)

// ErrShapeMismatch is returned when two tables combined cell by cell do not
// have the same rows and columns.
var ErrShapeMismatch = errors.New("count tables differ in shape")

// CountRow is one category of a count table. Counts is indexed like the
// table's Columns.
type CountRow struct {
	Key    string `json:"key"`
	Counts []int  `json:"counts"`
}

// Sum totals the row.
func (r CountRow) Sum() int {
	n := 0
	for _, c := range r.Counts {
		n += c
	}
	return n
}

// CountTable maps each value of Category to an ordered sequence of counts,
// one per value of Index. Rows and Columns follow canonical order.
type CountTable struct {
	Category string     `json:"category"`
	Index    string     `json:"index"`
	Columns  []string   `json:"columns"`
	Rows     []CountRow `json:"rows"`
}

// Row returns the row for key.
func (t CountTable) Row(key string) (CountRow, bool) {
	for _, r := range t.Rows {
		if r.Key == key {
			return r, true
		}
	}
	return CountRow{}, false
}

// ColumnTotal sums one column across every row; 0 when col is unknown.
func (t CountTable) ColumnTotal(col string) int {
	i := t.column(col)
	if i < 0 {
		return 0
	}
	n := 0
	for _, r := range t.Rows {
		n += r.Counts[i]
	}
	return n
}

// Total sums every cell.
func (t CountTable) Total() int {
	n := 0
	for _, r := range t.Rows {
		n += r.Sum()
	}
	return n
}

// AsMap returns the table as key → counts. Order is lost; use Rows when it
// matters.
func (t CountTable) AsMap() map[string][]int {
	out := make(map[string][]int, len(t.Rows))
	for _, r := range t.Rows {
		out[r.Key] = append([]int(nil), r.Counts...)
	}
	return out
}

func (t CountTable) column(col string) int {
	for i, c := range t.Columns {
		if c == col {
			return i
		}
	}
	return -1
}

// NestedCountTable holds one CountTable per year, in ascending year order.
// Every inner table has the same Category, Index and Columns.
type NestedCountTable struct {
	Category string       `json:"category"`
	Index    string       `json:"index"`
	Columns  []string     `json:"columns"`
	Years    []int        `json:"years"`
	Tables   []CountTable `json:"tables"`
}

// Year returns the inner table of year y.
func (n NestedCountTable) Year(y int) (CountTable, bool) {
	for i, yy := range n.Years {
		if yy == y {
			return n.Tables[i], true
		}
	}
	return CountTable{}, false
}

// RatioRow is one category of a ratio table. Undefined cells hold NaN.
type RatioRow struct {
	Key    string    `json:"key"`
	Values []float64 `json:"values"`
}

// MarshalJSON writes NaN cells as null; encoders reject NaN numbers.
func (r RatioRow) MarshalJSON() ([]byte, error) {
	vals := make([]*float64, len(r.Values))
	for i := range r.Values {
		if !math.IsNaN(r.Values[i]) {
			vals[i] = &r.Values[i]
		}
	}
	return json.Marshal(struct {
		Key    string     `json:"key"`
		Values []*float64 `json:"values"`
	}{r.Key, vals})
}

// UnmarshalJSON reads null cells back as NaN.
func (r *RatioRow) UnmarshalJSON(data []byte) error {
	var raw struct {
		Key    string     `json:"key"`
		Values []*float64 `json:"values"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.Key = raw.Key
	r.Values = make([]float64, len(raw.Values))
	for i, v := range raw.Values {
		if v == nil {
			r.Values[i] = math.NaN()
			continue
		}
		r.Values[i] = *v
	}
	return nil
}

// RatioTable is a CountTable of quotients.
type RatioTable struct {
	Category string     `json:"category"`
	Index    string     `json:"index"`
	Columns  []string   `json:"columns"`
	Rows     []RatioRow `json:"rows"`
}

// Row returns the row for key.
func (t RatioTable) Row(key string) (RatioRow, bool) {
	for _, r := range t.Rows {
		if r.Key == key {
			return r, true
		}
	}
	return RatioRow{}, false
}

// Divide returns num/den cell by cell. A zero denominator yields NaN, so a
// bucket with no accidents is kept and marked undefined.
func Divide(num, den CountTable) (RatioTable, error) {
	if len(num.Rows) != len(den.Rows) || len(num.Columns) != len(den.Columns) {
		return RatioTable{}, fmt.Errorf("%w: %dx%d / %dx%d", ErrShapeMismatch,
			len(num.Rows), len(num.Columns), len(den.Rows), len(den.Columns))
	}
	out := RatioTable{
		Category: num.Category,
		Index:    num.Index,
		Columns:  append([]string(nil), num.Columns...),
		Rows:     make([]RatioRow, len(num.Rows)),
	}
	for i, nr := range num.Rows {
		dr := den.Rows[i]
		if nr.Key != dr.Key {
			return RatioTable{}, fmt.Errorf("%w: row %d is %q vs %q", ErrShapeMismatch, i, nr.Key, dr.Key)
		}
		vals := make([]float64, len(nr.Counts))
		for j := range nr.Counts {
			if dr.Counts[j] == 0 {
				vals[j] = math.NaN()
				continue
			}
			vals[j] = float64(nr.Counts[j]) / float64(dr.Counts[j])
		}
		out.Rows[i] = RatioRow{Key: nr.Key, Values: vals}
	}
	return out, nil
}
