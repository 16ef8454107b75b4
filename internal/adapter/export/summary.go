package export

import (
	"bufio"
	"fmt"
	"io"
	"time"

	"github.com/aclements/go-gg/table"
	"github.com/dustin/go-humanize"

	"github.com/couchcryptid/nyc-collision-analytics/internal/aggregate"
	"github.com/couchcryptid/nyc-collision-analytics/internal/report"
)

// WriteSummary renders the run header and every single-table artifact (bar
// and ratio charts) as aligned text. Grouped, density and heat-map
// artifacts are listed by ID only.
func WriteSummary(w io.Writer, rep *report.Report) error {
	bw := bufio.NewWriter(w)
	run, stats := rep.Run, rep.Stats

	fmt.Fprintf(bw, "Run %s\n", run.ID)
	fmt.Fprintf(bw, "Generated %s (%s)\n", run.GeneratedAt.Format(time.RFC3339), humanize.Time(run.GeneratedAt))
	fmt.Fprintf(bw, "Input %s, years %s\n\n", run.Input, run.Years)

	fmt.Fprintf(bw, "Records read     %s\n", humanize.Comma(int64(stats.Input)))
	fmt.Fprintf(bw, "Records kept     %s\n", humanize.Comma(int64(stats.Kept)))
	fmt.Fprintf(bw, "  no location    %s\n", humanize.Comma(int64(stats.NoLocation)))
	fmt.Fprintf(bw, "  out of bounds  %s\n", humanize.Comma(int64(stats.OutOfBounds)))
	fmt.Fprintf(bw, "Anomalies fixed  %s\n", humanize.Comma(int64(stats.AnomaliesFixed)))
	fmt.Fprintf(bw, "Artifacts        %d (%d bar, %d grouped, %d density, %d heatmap, %d ratio)\n",
		len(rep.Artifacts),
		rep.Count(report.KindBar), rep.Count(report.KindGroupedBar), rep.Count(report.KindDensity),
		rep.Count(report.KindHeatmap), rep.Count(report.KindRatio))

	var others []string
	for _, a := range rep.Artifacts {
		switch {
		case a.Kind == report.KindBar && a.Counts != nil:
			fmt.Fprintf(bw, "\n== %s: %s\n", a.ID, a.Title)
			table.Fprint(bw, CountGrid(*a.Counts))
		case a.Kind == report.KindRatio && a.Ratios != nil:
			fmt.Fprintf(bw, "\n== %s: %s\n", a.ID, a.Title)
			formats := []string{"%s"}
			for range a.Ratios.Columns {
				formats = append(formats, "%.4f")
			}
			table.Fprint(bw, RatioGrid(*a.Ratios), formats...)
		default:
			others = append(others, a.ID)
		}
	}

	if len(others) > 0 {
		fmt.Fprintf(bw, "\n== other artifacts\n")
		for _, id := range others {
			fmt.Fprintf(bw, "%s\n", id)
		}
	}
	return bw.Flush()
}

// CountGrid converts a count table to a go-gg table: the category column,
// one column per year and a total column.
func CountGrid(t aggregate.CountTable) *table.Table {
	keys := make([]string, len(t.Rows))
	totals := make([]int, len(t.Rows))
	for i, r := range t.Rows {
		keys[i] = r.Key
		totals[i] = r.Sum()
	}

	b := table.NewBuilder(nil).Add(columnName(t.Category), keys)
	for j, col := range t.Columns {
		vals := make([]int, len(t.Rows))
		for i, r := range t.Rows {
			vals[i] = r.Counts[j]
		}
		b.Add(col, vals)
	}
	return b.Add("total", totals).Done()
}

// RatioGrid converts a ratio table to a go-gg table. Undefined cells print
// as NaN.
func RatioGrid(t aggregate.RatioTable) *table.Table {
	keys := make([]string, len(t.Rows))
	for i, r := range t.Rows {
		keys[i] = r.Key
	}

	b := table.NewBuilder(nil).Add(columnName(t.Category), keys)
	for j, col := range t.Columns {
		vals := make([]float64, len(t.Rows))
		for i, r := range t.Rows {
			vals[i] = r.Values[j]
		}
		b.Add(col, vals)
	}
	return b.Done()
}

func columnName(category string) string {
	if category == "" {
		return "key"
	}
	return category
}
