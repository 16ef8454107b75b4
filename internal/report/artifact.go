// Package report turns a cleaned dataset into the fixed catalog of chart
// artifacts. An artifact is plain data (a count table, a ratio table, a set
// of density curves or a density surface) plus the labels a renderer needs.
package report

import (
	"fmt"

	"github.com/couchcryptid/nyc-collision-analytics/internal/aggregate"
	"github.com/couchcryptid/nyc-collision-analytics/internal/density"
	"github.com/couchcryptid/nyc-collision-analytics/internal/domain"
)

// Kind tells a renderer how to draw an artifact.
type Kind string

const (
	KindBar        Kind = "bar"         // Counts, one bar group per row
	KindGroupedBar Kind = "grouped_bar" // Counts for one year, one series per row
	KindDensity    Kind = "density"     // Curves over a shared axis
	KindHeatmap    Kind = "heatmap"     // Surface drawn over Extent
	KindRatio      Kind = "ratio"       // Ratios, NaN cells undefined
)

// Artifact is one chart's worth of data.
type Artifact struct {
	ID       string         `json:"id"`
	Question int            `json:"question"`
	Kind     Kind           `json:"kind"`
	Title    string         `json:"title"`
	Year     int            `json:"year,omitempty"`
	Borough  domain.Borough `json:"borough,omitempty"`

	Counts  *aggregate.CountTable `json:"counts,omitempty"`
	Ratios  *aggregate.RatioTable `json:"ratios,omitempty"`
	Curves  []density.Curve       `json:"curves,omitempty"`
	Surface *density.Surface      `json:"surface,omitempty"`
	Extent  *domain.Extent        `json:"extent,omitempty"`
}

// FileName is the artifact's file name in an output directory.
func (a Artifact) FileName() string { return a.ID + ".json" }

func (a Artifact) String() string { return fmt.Sprintf("%s(%s)", a.ID, a.Kind) }

// Report is the output of one run, as handed to sinks.
type Report struct {
	Run       domain.RunInfo    `json:"run"`
	Stats     domain.CleanStats `json:"stats"`
	Artifacts []Artifact        `json:"artifacts"`
}

// Count returns the number of artifacts of kind k.
func (r *Report) Count(k Kind) int {
	n := 0
	for _, a := range r.Artifacts {
		if a.Kind == k {
			n++
		}
	}
	return n
}
