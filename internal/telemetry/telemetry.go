package telemetry

import (
	"backend-traildiary/internal/gpx"
	"backend-traildiary/internal/shared/geo"
)

// Telemetry summarizes a parsed track. The four elevation fields are either
// all set or all nil, matching HasElevation.
type Telemetry struct {
	DistanceKm     float64  `json:"distance_km"`
	ElevationGainM *float64 `json:"elevation_gain_m,omitempty"`
	ElevationLossM *float64 `json:"elevation_loss_m,omitempty"`
	MaxElevationM  *float64 `json:"max_elevation_m,omitempty"`
	MinElevationM  *float64 `json:"min_elevation_m,omitempty"`
	HasElevation   bool     `json:"has_elevation"`
}

// Extract computes distance and elevation statistics in one pass over
// consecutive point pairs. It never fails.
func Extract(track gpx.Track) Telemetry {
	tel := Telemetry{HasElevation: track.HasElevation}
	if track.Len() == 0 {
		return tel
	}

	var gain, loss float64
	var maxEle, minEle float64
	if track.HasElevation {
		maxEle = *track.First().ElevationM
		minEle = maxEle
	}

	prev := track.First()
	for _, p := range track.Points[1:] {
		if track.HasElevation {
			tel.DistanceKm += geo.Haversine3DKm(prev.Lat, prev.Lon, *prev.ElevationM, p.Lat, p.Lon, *p.ElevationM)
			delta := *p.ElevationM - *prev.ElevationM
			if delta > 0 {
				gain += delta
			} else {
				loss -= delta
			}
			if *p.ElevationM > maxEle {
				maxEle = *p.ElevationM
			}
			if *p.ElevationM < minEle {
				minEle = *p.ElevationM
			}
		} else {
			tel.DistanceKm += geo.HaversineKm(prev.Lat, prev.Lon, p.Lat, p.Lon)
		}
		prev = p
	}

	if track.HasElevation {
		tel.ElevationGainM = &gain
		tel.ElevationLossM = &loss
		tel.MaxElevationM = &maxEle
		tel.MinElevationM = &minEle
	}
	return tel
}
