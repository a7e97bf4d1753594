package gpx

import "time"

// Point is a single GPS sample. Latitude and longitude are always set;
// elevation and timestamp are optional per point.
type Point struct {
	Lat        float64    `json:"lat"`
	Lon        float64    `json:"lon"`
	ElevationM *float64   `json:"elevation_m,omitempty"`
	Time       *time.Time `json:"time,omitempty"`
}

// Track is an ordered sequence of at least two points. Tracks are treated as
// read-only once built; simplification and pre-filtering return new Tracks.
type Track struct {
	Points []Point `json:"points"`

	// HasElevation is true only when every point carries an elevation value.
	// A track with partial elevation data is treated as elevation-less so
	// aggregate statistics never mix present and absent values.
	HasElevation bool `json:"has_elevation"`
}

// NewTrack builds a Track from points and derives the elevation flag.
func NewTrack(points []Point) Track {
	hasElevation := len(points) > 0
	for _, p := range points {
		if p.ElevationM == nil {
			hasElevation = false
			break
		}
	}
	return Track{Points: points, HasElevation: hasElevation}
}

func (t Track) First() Point { return t.Points[0] }
func (t Track) Last() Point  { return t.Points[len(t.Points)-1] }
func (t Track) Len() int     { return len(t.Points) }
