package domain

import "strings"

// Borough is one of the five NYC boroughs. The zero value means the source
// row had no borough label.
type Borough string

const (
	StatenIsland Borough = "STATEN ISLAND"
	Bronx        Borough = "BRONX"
	Queens       Borough = "QUEENS"
	Manhattan    Borough = "MANHATTAN"
	Brooklyn     Borough = "BROOKLYN"
)

// boroughOrder is the declared axis order for charts keyed by borough.
var boroughOrder = [...]Borough{StatenIsland, Bronx, Queens, Manhattan, Brooklyn}

// Boroughs returns the five boroughs in declared order.
func Boroughs() []Borough {
	out := make([]Borough, len(boroughOrder))
	copy(out, boroughOrder[:])
	return out
}

// ParseBorough normalizes a raw BOROUGH cell. Blank input yields ("", false).
// Unrecognized labels are returned upper-cased with ok=false so they still
// count as "has a borough" during cleaning.
func ParseBorough(s string) (Borough, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return "", false
	}
	b := Borough(s)
	for _, known := range boroughOrder {
		if b == known {
			return b, true
		}
	}
	return b, false
}

// Title returns the borough name in title case, e.g. "Staten Island".
func (b Borough) Title() string {
	words := strings.Fields(strings.ToLower(string(b)))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// Slug returns a lower-case, dash separated form suitable for file names.
func (b Borough) Slug() string {
	return strings.ReplaceAll(strings.ToLower(string(b)), " ", "-")
}

// Point is a WGS-84 latitude/longitude pair.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// BBox is a latitude/longitude rectangle. Containment is strict on all sides.
type BBox struct {
	Min Point `json:"min"`
	Max Point `json:"max"`
}

// Contains reports whether (lat, lon) lies strictly inside the box.
func (b BBox) Contains(lat, lon float64) bool {
	return b.Min.Lat < lat && lat < b.Max.Lat &&
		b.Min.Lon < lon && lon < b.Max.Lon
}

// Extent is the map window used when drawing a borough heat map, in the
// (west, east, south, north) order plotting libraries expect.
type Extent struct {
	West  float64 `json:"west"`
	East  float64 `json:"east"`
	South float64 `json:"south"`
	North float64 `json:"north"`
}

// BoroughInfo is the static reference data for one borough.
type BoroughInfo struct {
	Name     Borough `json:"name"`
	Centroid Point   `json:"centroid"`
	Bounds   BBox    `json:"bounds"`
	Extent   Extent  `json:"extent"`
}

// CityBounds is the city-wide rectangle a located record must fall inside.
var CityBounds = BBox{
	Min: Point{Lat: 40.49, Lon: -74.25},
	Max: Point{Lat: 40.92, Lon: -73.70},
}

var boroughTable = [...]BoroughInfo{
	{
		Name:     StatenIsland,
		Centroid: Point{Lat: 40.58, Lon: -74.15},
		Bounds:   BBox{Min: Point{Lat: 40.500084, Lon: -74.249940}, Max: Point{Lat: 40.648273, Lon: -74.060880}},
		Extent:   Extent{West: -74.249940, East: -74.060880, South: 40.500084, North: 40.648273},
	},
	{
		Name:     Bronx,
		Centroid: Point{Lat: 40.84, Lon: -73.86},
		Bounds:   BBox{Min: Point{Lat: 40.785124, Lon: -73.934663}, Max: Point{Lat: 40.914714, Lon: -73.765061}},
		Extent:   Extent{West: -73.934663, East: -73.782936, South: 40.785124, North: 40.912884},
	},
	{
		Name:     Queens,
		Centroid: Point{Lat: 40.73, Lon: -73.79},
		Bounds:   BBox{Min: Point{Lat: 40.541444, Lon: -73.961150}, Max: Point{Lat: 40.800279, Lon: -73.699538}},
		Extent:   Extent{West: -73.959744, East: -73.700550, South: 40.554388, North: 40.800262},
	},
	{
		Name:     Manhattan,
		Centroid: Point{Lat: 40.78, Lon: -73.97},
		Bounds:   BBox{Min: Point{Lat: 40.701239, Lon: -74.019387}, Max: Point{Lat: 40.877565, Lon: -73.910405}},
		Extent:   Extent{West: -74.017940, East: -73.911230, South: 40.701256, North: 40.872917},
	},
	{
		Name:     Brooklyn,
		Centroid: Point{Lat: 40.68, Lon: -73.94},
		Bounds:   BBox{Min: Point{Lat: 40.571755, Lon: -74.041960}, Max: Point{Lat: 40.740757, Lon: -73.861229}},
		Extent:   Extent{West: -74.040820, East: -73.861230, South: 40.572006, North: 40.738853},
	},
}

// LookupBorough returns the reference entry for b.
func LookupBorough(b Borough) (BoroughInfo, bool) {
	for _, info := range boroughTable {
		if info.Name == b {
			return info, true
		}
	}
	return BoroughInfo{}, false
}

// BoroughTable returns a copy of the reference table in declared order.
func BoroughTable() []BoroughInfo {
	out := make([]BoroughInfo, len(boroughTable))
	copy(out, boroughTable[:])
	return out
}
