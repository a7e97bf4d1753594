// Package simplify reduces track point counts for rendering with a bounded
// geometric deviation (Ramer-Douglas-Peucker).
//
// Average cost is near O(n log n), but tracks with many non-collinear
// curvature changes degrade toward O(n^2) because almost every point survives
// and every surviving point re-splits its range. On large curvy uploads this
// dominates the whole pipeline, which is why Simplify is context-aware and why
// PreFilter exists to bound the effective n before the main pass runs.
package simplify

import (
	"context"
	"fmt"
	"math"

	"backend-traildiary/internal/gpx"
	"backend-traildiary/internal/shared/geo"
)

const metersPerDegreeLat = 111320.0

// deadline checks cost a mutex read in the context; amortize them over a
// batch of stack pops.
const deadlineCheckInterval = 64

// Simplify returns a new track containing an ordered subsequence of the
// input points. The first and last point always survive; every dropped point
// deviates from the chord joining its surviving neighbors by at most
// epsilonM meters.
//
// The recursion is run on an explicit work stack so arbitrarily long tracks
// cannot overflow the goroutine stack, and ctx is polled between range pops
// so a caller-imposed deadline aborts the pass instead of finishing late.
func Simplify(ctx context.Context, track gpx.Track, epsilonM float64) (gpx.Track, error) {
	points := track.Points
	if len(points) <= 2 {
		return gpx.NewTrack(append([]gpx.Point(nil), points...)), nil
	}

	keep := make([]bool, len(points))
	keep[0] = true
	keep[len(points)-1] = true

	type span struct{ first, last int }
	stack := []span{{0, len(points) - 1}}
	pops := 0

	for len(stack) > 0 {
		pops++
		if pops%deadlineCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return gpx.Track{}, fmt.Errorf("simplification aborted after %d ranges: %w", pops, err)
			}
		}

		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if s.last-s.first < 2 {
			continue
		}

		farthest, maxDev := s.first, 0.0
		for i := s.first + 1; i < s.last; i++ {
			if d := perpendicularDistanceM(points[i], points[s.first], points[s.last]); d > maxDev {
				farthest, maxDev = i, d
			}
		}

		if maxDev > epsilonM {
			keep[farthest] = true
			stack = append(stack, span{s.first, farthest}, span{farthest, s.last})
		}
	}

	kept := make([]gpx.Point, 0, len(points))
	for i, p := range points {
		if keep[i] {
			kept = append(kept, p)
		}
	}
	return gpx.NewTrack(kept), nil
}

// PreFilter drops consecutive points closer than minGapM meters to their last
// kept neighbor. Endpoints are always kept. It bounds the point count fed to
// Simplify without materially changing the track shape.
func PreFilter(track gpx.Track, minGapM float64) gpx.Track {
	points := track.Points
	if len(points) <= 2 || minGapM <= 0 {
		return track
	}

	kept := make([]gpx.Point, 0, len(points))
	kept = append(kept, points[0])
	last := points[0]
	for _, p := range points[1 : len(points)-1] {
		if geo.HaversineKm(last.Lat, last.Lon, p.Lat, p.Lon)*1000 >= minGapM {
			kept = append(kept, p)
			last = p
		}
	}
	kept = append(kept, points[len(points)-1])
	return gpx.NewTrack(kept)
}

// perpendicularDistanceM measures how far p sits from the line through a and
// b, in meters, using a local equirectangular projection anchored at a. At
// track scale the projection error is negligible against any useful epsilon.
func perpendicularDistanceM(p, a, b gpx.Point) float64 {
	lonScale := metersPerDegreeLat * math.Cos(a.Lat*math.Pi/180)

	bx := (b.Lon - a.Lon) * lonScale
	by := (b.Lat - a.Lat) * metersPerDegreeLat
	px := (p.Lon - a.Lon) * lonScale
	py := (p.Lat - a.Lat) * metersPerDegreeLat

	if bx == 0 && by == 0 {
		return math.Hypot(px, py)
	}
	return math.Abs(bx*py-by*px) / math.Hypot(bx, by)
}
