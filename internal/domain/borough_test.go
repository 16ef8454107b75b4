package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBorough(t *testing.T) {
	tests := []struct {
		in     string
		want   Borough
		wantOK bool
	}{
		{"MANHATTAN", Manhattan, true},
		{" staten island", StatenIsland, true},
		{"", "", false},
		{"   ", "", false},
		{"Nassau", "NASSAU", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseBorough(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestBoroughNames(t *testing.T) {
	assert.Equal(t, "Staten Island", StatenIsland.Title())
	assert.Equal(t, "staten-island", StatenIsland.Slug())
	assert.Equal(t, "Bronx", Bronx.Title())
}

func TestBoroughsOrderAndCopy(t *testing.T) {
	got := Boroughs()
	assert.Equal(t, []Borough{StatenIsland, Bronx, Queens, Manhattan, Brooklyn}, got)

	got[0] = Brooklyn
	assert.Equal(t, StatenIsland, Boroughs()[0])
}

func TestBoroughTable(t *testing.T) {
	table := BoroughTable()
	require.Len(t, table, 5)

	for _, info := range table {
		t.Run(string(info.Name), func(t *testing.T) {
			assert.True(t, info.Bounds.Contains(info.Centroid.Lat, info.Centroid.Lon), "centroid inside bounds")
			assert.Less(t, info.Extent.West, info.Extent.East)
			assert.Less(t, info.Extent.South, info.Extent.North)
			assert.Less(t, info.Centroid.Lon, 0.0)
		})
	}

	table[0].Centroid.Lat = 0
	first, ok := LookupBorough(StatenIsland)
	require.True(t, ok)
	assert.NotZero(t, first.Centroid.Lat)

	_, ok = LookupBorough("NASSAU")
	assert.False(t, ok)
}

func TestBBoxContainsIsStrict(t *testing.T) {
	assert.True(t, CityBounds.Contains(40.7, -73.9))
	assert.False(t, CityBounds.Contains(40.49, -73.9))
	assert.False(t, CityBounds.Contains(40.92, -73.9))
	assert.False(t, CityBounds.Contains(40.7, -74.25))
	assert.False(t, CityBounds.Contains(40.7, -73.70))
}
