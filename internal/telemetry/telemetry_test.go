package telemetry

import (
	"math"
	"testing"

	"backend-traildiary/internal/gpx"
	"backend-traildiary/internal/shared/geo"
)

func elePtr(v float64) *float64 { return &v }

func TestExtractKnownGeometry(t *testing.T) {
	// three points at elevations 0, 100, 50 over known coordinates
	track := gpx.NewTrack([]gpx.Point{
		{Lat: 47.10, Lon: 8.50, ElevationM: elePtr(0)},
		{Lat: 47.11, Lon: 8.51, ElevationM: elePtr(100)},
		{Lat: 47.12, Lon: 8.52, ElevationM: elePtr(50)},
	})

	tel := Extract(track)
	if !tel.HasElevation {
		t.Fatalf("expected elevation telemetry")
	}
	if *tel.ElevationGainM != 100 {
		t.Fatalf("gain: expected 100, got %v", *tel.ElevationGainM)
	}
	if *tel.ElevationLossM != 50 {
		t.Fatalf("loss: expected 50, got %v", *tel.ElevationLossM)
	}
	if *tel.MaxElevationM != 100 {
		t.Fatalf("max: expected 100, got %v", *tel.MaxElevationM)
	}
	if *tel.MinElevationM != 0 {
		t.Fatalf("min: expected 0, got %v", *tel.MinElevationM)
	}

	// 3D distance must exceed the flat haversine sum
	flat := geo.HaversineKm(47.10, 8.50, 47.11, 8.51) + geo.HaversineKm(47.11, 8.51, 47.12, 8.52)
	if tel.DistanceKm <= flat {
		t.Fatalf("expected 3D-corrected distance > %v, got %v", flat, tel.DistanceKm)
	}
}

func TestExtractWithoutElevation(t *testing.T) {
	track := gpx.NewTrack([]gpx.Point{
		{Lat: -6.2, Lon: 106.816},
		{Lat: -6.9175, Lon: 107.6191},
	})

	tel := Extract(track)
	if tel.HasElevation {
		t.Fatalf("expected no elevation")
	}
	if tel.ElevationGainM != nil || tel.ElevationLossM != nil || tel.MaxElevationM != nil || tel.MinElevationM != nil {
		t.Fatalf("all elevation fields must be absent together: %+v", tel)
	}
	if tel.DistanceKm < 100 || tel.DistanceKm > 140 {
		t.Fatalf("unexpected distance: %v", tel.DistanceKm)
	}
}

func TestExtractMixedElevationTreatedAsAbsent(t *testing.T) {
	track := gpx.NewTrack([]gpx.Point{
		{Lat: 47.1, Lon: 8.5, ElevationM: elePtr(400)},
		{Lat: 47.2, Lon: 8.6},
	})

	tel := Extract(track)
	if tel.HasElevation || tel.ElevationGainM != nil {
		t.Fatalf("partial elevation must yield absent fields: %+v", tel)
	}
}

func TestExtractFlatTrackZeroGain(t *testing.T) {
	track := gpx.NewTrack([]gpx.Point{
		{Lat: 47.1, Lon: 8.5, ElevationM: elePtr(500)},
		{Lat: 47.2, Lon: 8.6, ElevationM: elePtr(500)},
	})

	tel := Extract(track)
	if *tel.ElevationGainM != 0 || *tel.ElevationLossM != 0 {
		t.Fatalf("flat track must have zero gain and loss: %+v", tel)
	}
	if math.Abs(*tel.MaxElevationM-500) > 1e-9 || math.Abs(*tel.MinElevationM-500) > 1e-9 {
		t.Fatalf("unexpected extrema: %+v", tel)
	}
}
