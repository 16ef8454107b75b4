package domain

// Known data-entry error: a Queensboro Bridge crash recorded with an
// impossible longitude and no borough.
const (
	AnomalyLongitude   = -201.23706
	CorrectedLongitude = -73.95337
)

// Verdict is the outcome of geographic validation for one record.
type Verdict string

const (
	VerdictKept         Verdict = "kept"
	VerdictNoLocation   Verdict = "no_location"   // no borough and no coordinates
	VerdictOutOfBounds  Verdict = "out_of_bounds" // located outside the city rectangle
	VerdictAnomalyFixed Verdict = "anomaly_fixed" // kept after the known correction
)

// Kept reports whether the record survives cleaning.
func (v Verdict) Kept() bool { return v == VerdictKept || v == VerdictAnomalyFixed }

// ValidateGeo applies the cleaning rules to one record and returns the
// (possibly corrected) record with a verdict. Rules, in order:
//
//  1. drop unless the record has a borough or a non-zero longitude;
//  2. rewrite the known anomaly to MANHATTAN at CorrectedLongitude;
//  3. drop unless strictly inside CityBounds or exactly the (0, 0) sentinel.
func ValidateGeo(c Collision) (Collision, Verdict) {
	if !c.HasBorough() && !c.HasCoordinates() {
		return c, VerdictNoLocation
	}

	fixed := false
	if c.Longitude == AnomalyLongitude {
		c.Borough = Manhattan
		c.Longitude = CorrectedLongitude
		fixed = true
	}

	if !c.IsSentinel() && !CityBounds.Contains(c.Latitude, c.Longitude) {
		return c, VerdictOutOfBounds
	}
	if fixed {
		return c, VerdictAnomalyFixed
	}
	return c, VerdictKept
}

// CleanStats summarizes one cleaning pass.
type CleanStats struct {
	Input          int `json:"input"`
	Kept           int `json:"kept"`
	NoLocation     int `json:"no_location"`
	OutOfBounds    int `json:"out_of_bounds"`
	AnomaliesFixed int `json:"anomalies_fixed"`
}

// Dropped is the number of records excluded from the cleaned set.
func (s CleanStats) Dropped() int { return s.NoLocation + s.OutOfBounds }

// Clean returns the records that pass ValidateGeo, corrected where needed.
// The input slice is not modified.
func Clean(records []Collision) ([]Collision, CleanStats) {
	stats := CleanStats{Input: len(records)}
	out := make([]Collision, 0, len(records))
	for _, rec := range records {
		fixed, verdict := ValidateGeo(rec)
		switch verdict {
		case VerdictNoLocation:
			stats.NoLocation++
			continue
		case VerdictOutOfBounds:
			stats.OutOfBounds++
			continue
		case VerdictAnomalyFixed:
			stats.AnomaliesFixed++
		}
		out = append(out, fixed)
	}
	stats.Kept = len(out)
	return out, stats
}
