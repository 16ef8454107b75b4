package domain

import (
	"time"

	"github.com/google/uuid"
)

// RawRecord is one input CSV row with only the columns the pipeline reads.
// All fields are the untrimmed cell text.
type RawRecord struct {
	Date      string
	Time      string
	Borough   string
	Latitude  string
	Longitude string
	Counts    [numCasualtyFields]string // indexed by CasualtyField
}

// CasualtyField names one of the eight casualty counters.
type CasualtyField uint8

const (
	PersonsInjured CasualtyField = iota
	PersonsKilled
	PedestriansInjured
	PedestriansKilled
	CyclistsInjured
	CyclistsKilled
	MotoristsInjured
	MotoristsKilled

	numCasualtyFields = 8
)

// casualtyColumns are the source CSV headers, indexed by CasualtyField.
var casualtyColumns = [numCasualtyFields]string{
	"NUMBER OF PERSONS INJURED",
	"NUMBER OF PERSONS KILLED",
	"NUMBER OF PEDESTRIANS INJURED",
	"NUMBER OF PEDESTRIANS KILLED",
	"NUMBER OF CYCLIST INJURED",
	"NUMBER OF CYCLIST KILLED",
	"NUMBER OF MOTORIST INJURED",
	"NUMBER OF MOTORIST KILLED",
}

// CasualtyFields returns all counters in column order.
func CasualtyFields() []CasualtyField {
	out := make([]CasualtyField, numCasualtyFields)
	for i := range out {
		out[i] = CasualtyField(i)
	}
	return out
}

// Column returns the CSV header for f.
func (f CasualtyField) Column() string {
	if int(f) >= numCasualtyFields {
		return ""
	}
	return casualtyColumns[f]
}

func (f CasualtyField) String() string { return f.Column() }

// Casualties holds the eight non-negative casualty counters of a crash.
type Casualties [numCasualtyFields]int

// Get returns the counter for f.
func (c Casualties) Get(f CasualtyField) int {
	if int(f) >= numCasualtyFields {
		return 0
	}
	return c[f]
}

// Total is the number of persons injured or killed.
func (c Casualties) Total() int { return c[PersonsInjured] + c[PersonsKilled] }

// Collision is a parsed crash record.
type Collision struct {
	CrashTime  time.Time
	Borough    Borough // "" when the source row had none
	Latitude   float64 // 0 when unknown
	Longitude  float64 // 0 when unknown
	Casualties Casualties
}

// HasBorough reports whether the record carries a borough label.
func (c Collision) HasBorough() bool { return c.Borough != "" }

// HasCoordinates reports whether the record has a real (non-zero) longitude.
func (c Collision) HasCoordinates() bool { return c.Longitude != 0 }

// IsSentinel reports whether both coordinates are the (0, 0) "unknown" marker.
func (c Collision) IsSentinel() bool { return c.Latitude == 0 && c.Longitude == 0 }

// PedestrianInvolved reports whether any pedestrian was injured or killed.
func (c Collision) PedestrianInvolved() bool {
	return c.Casualties[PedestriansInjured] > 0 || c.Casualties[PedestriansKilled] > 0
}

// RunInfo identifies one execution of the batch pipeline.
type RunInfo struct {
	ID          string    `json:"id"`
	GeneratedAt time.Time `json:"generated_at"`
	Input       string    `json:"input"`
	Years       YearRange `json:"years"`
}

// NewRunInfo stamps a run with a random ID and the package clock.
func NewRunInfo(input string, years YearRange) RunInfo {
	return RunInfo{
		ID:          uuid.NewString(),
		GeneratedAt: clock.Now().UTC(),
		Input:       input,
		Years:       years,
	}
}
