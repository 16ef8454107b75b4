package domain

// Dataset is the in-memory state of a run after the cleaning pass. It is
// built once and treated as read-only; filters derive new slices from it.
type Dataset struct {
	// All is every parsed record, before cleaning.
	All []Collision
	// Cleaned is the subset that passed ValidateGeo.
	Cleaned []Collision
	// Years is the analysed range.
	Years YearRange
	// Stats describes the cleaning pass.
	Stats CleanStats

	byYear map[int][]Collision
}

// NewDataset cleans records and partitions the cleaned set by year.
func NewDataset(records []Collision, years YearRange) *Dataset {
	cleaned, stats := Clean(records)
	return FromCleaned(records, cleaned, stats, years)
}

// FromCleaned assembles a Dataset from an already cleaned set, for example
// one loaded from cache. all may be nil when the raw rows are unavailable.
func FromCleaned(all, cleaned []Collision, stats CleanStats, years YearRange) *Dataset {
	ds := &Dataset{
		All:     all,
		Cleaned: cleaned,
		Years:   years,
		Stats:   stats,
		byYear:  make(map[int][]Collision, len(years.Years())),
	}
	for _, y := range years.Years() {
		ds.byYear[y] = Filter(cleaned, YearIs(y))
	}
	return ds
}

// Year returns the cleaned records of year y; nil when y is outside the range.
func (d *Dataset) Year(y int) []Collision {
	return d.byYear[y]
}

// Partitions returns the year partitions keyed by year.
func (d *Dataset) Partitions() map[int][]Collision {
	out := make(map[int][]Collision, len(d.byYear))
	for y, recs := range d.byYear {
		out[y] = recs
	}
	return out
}
