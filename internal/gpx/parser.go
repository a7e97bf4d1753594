package gpx

import (
	"errors"
	"fmt"

	gpxgo "github.com/tkrajina/gpxgo/gpx"
)

var (
	// ErrInvalidFormat marks documents that are not well-formed GPX or
	// contain no track elements at all.
	ErrInvalidFormat = errors.New("invalid track document")
	// ErrEmptyTrack marks documents with fewer than two usable trackpoints.
	ErrEmptyTrack = errors.New("track has fewer than two points")
)

// Parse decodes a GPX document and flattens every segment of every track into
// one ordered point sequence. Waypoints and routes outside of tracks are
// ignored.
func Parse(data []byte) (Track, error) {
	doc, err := gpxgo.ParseBytes(data)
	if err != nil {
		return Track{}, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if len(doc.Tracks) == 0 {
		return Track{}, fmt.Errorf("%w: no trk elements", ErrInvalidFormat)
	}

	var points []Point
	for _, trk := range doc.Tracks {
		for _, seg := range trk.Segments {
			for _, src := range seg.Points {
				p := Point{Lat: src.Latitude, Lon: src.Longitude}
				if src.Elevation.NotNull() {
					ele := src.Elevation.Value()
					p.ElevationM = &ele
				}
				if !src.Timestamp.IsZero() {
					ts := src.Timestamp
					p.Time = &ts
				}
				points = append(points, p)
			}
		}
	}

	if len(points) < 2 {
		return Track{}, fmt.Errorf("%w: found %d", ErrEmptyTrack, len(points))
	}
	return NewTrack(points), nil
}
