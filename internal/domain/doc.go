// Package domain models NYC Motor Vehicle Collisions crash records.
//
// # Data Source
//
// Records come from the NYC Open Data "Motor Vehicle Collisions - Crashes"
// export (one row per police-reported crash). Only thirteen columns are read:
//
//	CRASH DATE, CRASH TIME, BOROUGH, LATITUDE, LONGITUDE,
//	NUMBER OF PERSONS INJURED,     NUMBER OF PERSONS KILLED,
//	NUMBER OF PEDESTRIANS INJURED, NUMBER OF PEDESTRIANS KILLED,
//	NUMBER OF CYCLIST INJURED,     NUMBER OF CYCLIST KILLED,
//	NUMBER OF MOTORIST INJURED,    NUMBER OF MOTORIST KILLED
//
// Any other columns are ignored. A missing required column is a schema error.
//
// # Time format
//
// CRASH DATE is "MM/DD/YYYY" and CRASH TIME is "H:MM" in 24-hour notation
// (hours are not zero-padded: "9:05", "14:30"). The two are merged into a
// single timestamp by [ParseCrashTime]. A row that does not match is a hard
// schema failure: the whole run stops, because every downstream count would be
// wrong. Timestamps carry no zone and are kept as UTC wall-clock values.
//
// # Coordinates
//
// Blank LATITUDE/LONGITUDE are read as 0. The pair (0, 0) is the sentinel for
// "location unknown"; such rows usually still carry a BOROUGH label and are
// kept. One known data-entry error exists: a Queensboro Bridge crash recorded
// with longitude -201.23706 and no borough. [ValidateGeo] rewrites it to
// MANHATTAN, -73.95337.
//
// City bounds (strict):
//
//	40.49 < lat < 40.92
//	-74.25 < lon < -73.70
//
// # Boroughs
//
// BOROUGH is one of STATEN ISLAND, BRONX, QUEENS, MANHATTAN, BROOKLYN, or
// blank. The declared order of [Boroughs] is the axis order of every chart
// keyed by borough.
//
// # Cleaning
//
// [NewDataset] runs the cleaning pass once and partitions the surviving rows by
// year. The unfiltered rows stay available on [Dataset.All]; nothing is
// mutated afterwards.
package domain
