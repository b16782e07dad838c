// Package stats derives the distance/elevation/slope profile of a route,
// used for charts and hover-highlighting. Statistics are always rebuilt from
// a route snapshot, never mutated in place.
package stats

import (
	"math"

	"github.com/openhiking/trailmap/internal/lib/geo"
	"github.com/openhiking/trailmap/internal/lib/route"
)

// noiseFloorMeters suppresses GPS jitter: consecutive points closer than
// this do not contribute to the profile.
const noiseFloorMeters = 1.0

// simplificationTolerance is the Douglas-Peucker tolerance applied to the
// elevation profile before computing gain/loss, so recording noise does not
// amplify cumulative gain.
const simplificationTolerance = 1.0

// coordinateEpsilonMeters bounds how far a hovered coordinate may be from
// the profile and still be considered on it.
const coordinateEpsilonMeters = 30.0

// Point is one sample of the statistics profile.
type Point struct {
	DistanceKm   float64
	Elevation    float64
	SlopePercent float64
	Latlng       geo.Point
}

// Statistics is the derived profile of one route snapshot.
type Statistics struct {
	Points            []Point
	TotalLengthMeters float64
	TotalGainMeters   float64
	TotalLossMeters   float64
}

// Compute builds the statistics profile for a route. A route with no
// segments yields an empty profile with zero totals.
func Compute(r *route.Route) *Statistics {
	s := &Statistics{Points: []Point{}}

	latlngs := r.Latlngs()
	if len(latlngs) == 0 {
		return s
	}

	prev := latlngs[0]
	cumulative := 0.0
	s.Points = append(s.Points, Point{Latlng: prev, Elevation: prev.Alt})

	for _, p := range latlngs[1:] {
		d := geo.Distance(prev, p)
		if d < noiseFloorMeters {
			continue
		}

		cumulative += d
		s.Points = append(s.Points, Point{
			DistanceKm:   cumulative / 1000,
			Elevation:    p.Alt,
			SlopePercent: slope(prev.Alt, p.Alt, d),
			Latlng:       p,
		})
		prev = p
	}

	s.TotalLengthMeters = cumulative
	s.TotalGainMeters, s.TotalLossMeters = gainAndLoss(s.Points)
	return s
}

// slope is the elevation change as a percentage of horizontal distance.
// Unknown elevations (0) yield a flat slope.
func slope(fromAlt, toAlt, distanceMeters float64) float64 {
	if distanceMeters == 0 || fromAlt == 0 || toAlt == 0 {
		return 0
	}
	return (toAlt - fromAlt) / distanceMeters * 100
}

// gainAndLoss simplifies the profile first so that elevation noise does not
// accumulate. Elevation 0 means unknown; a delta counts only when both
// endpoints are known. Loss is kept negative.
func gainAndLoss(points []Point) (gain, loss float64) {
	if len(points) < 2 {
		return 0, 0
	}

	profile := make([]geo.XY, len(points))
	for i, p := range points {
		profile[i] = geo.XY{X: p.DistanceKm, Y: p.Elevation}
	}
	simplified := geo.Simplify(profile, simplificationTolerance)

	for i := 1; i < len(simplified); i++ {
		prev := simplified[i-1].Y
		cur := simplified[i].Y
		if prev == 0 || cur == 0 {
			continue
		}
		delta := cur - prev
		if delta > 0 {
			gain += delta
		} else {
			loss += delta
		}
	}
	return gain, loss
}

// Interpolate returns the profile point at the given distance, linearly
// interpolated between the surrounding samples. It returns nil for profiles
// with fewer than two points, and the last point when the distance exceeds
// the profile's range.
func Interpolate(s *Statistics, distanceKm float64) *Point {
	if len(s.Points) < 2 {
		return nil
	}

	last := s.Points[len(s.Points)-1]
	if distanceKm >= last.DistanceKm {
		p := last
		return &p
	}

	for i := 1; i < len(s.Points); i++ {
		if s.Points[i].DistanceKm < distanceKm {
			continue
		}

		before := s.Points[i-1]
		after := s.Points[i]
		span := after.DistanceKm - before.DistanceKm
		ratio := 0.0
		if span > 0 {
			ratio = (distanceKm - before.DistanceKm) / span
		}

		return &Point{
			DistanceKm:   distanceKm,
			Elevation:    before.Elevation + ratio*(after.Elevation-before.Elevation),
			SlopePercent: after.SlopePercent,
			Latlng:       geo.Interpolate(before.Latlng, after.Latlng, ratio),
		}
	}

	p := last
	return &p
}

// FindDistanceForCoordinate locates the hovered coordinate on the profile
// and returns the distance along the route at that point, in km. Segments
// are pre-filtered by bounding box before the exact distance check. Returns
// 0 when the coordinate does not lie on the profile.
func FindDistanceForCoordinate(s *Statistics, coordinate geo.Point) float64 {
	// Epsilon translated from meters to a degree margin for the bbox check.
	margin := coordinateEpsilonMeters / 111000 * 2

	for i := 1; i < len(s.Points); i++ {
		a := s.Points[i-1].Latlng
		b := s.Points[i].Latlng

		if coordinate.Lat < math.Min(a.Lat, b.Lat)-margin ||
			coordinate.Lat > math.Max(a.Lat, b.Lat)+margin ||
			coordinate.Lng < math.Min(a.Lng, b.Lng)-margin ||
			coordinate.Lng > math.Max(a.Lng, b.Lng)+margin {
			continue
		}

		d, _ := geo.PointToSegment(coordinate, a, b)
		if d < coordinateEpsilonMeters {
			return s.Points[i-1].DistanceKm + geo.Distance(a, coordinate)/1000
		}
	}
	return 0
}
