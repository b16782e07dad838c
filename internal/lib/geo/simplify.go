package geo

import "math"

// XY is a planar coordinate used for polyline simplification of arbitrary
// series (screen pixels, distance/elevation profiles).
type XY struct {
	X float64
	Y float64
}

// Simplify reduces a planar polyline using the Douglas-Peucker algorithm,
// keeping every point whose perpendicular distance from the simplified shape
// exceeds tolerance. Endpoints are always kept.
func Simplify(points []XY, tolerance float64) []XY {
	if len(points) <= 2 {
		return points
	}

	keep := make([]bool, len(points))
	keep[0] = true
	keep[len(points)-1] = true
	simplifySection(points, 0, len(points)-1, tolerance, keep)

	out := make([]XY, 0, len(points))
	for i, p := range points {
		if keep[i] {
			out = append(out, p)
		}
	}
	return out
}

func simplifySection(points []XY, first, last int, tolerance float64, keep []bool) {
	if last <= first+1 {
		return
	}

	maxDist := 0.0
	maxIndex := first
	for i := first + 1; i < last; i++ {
		d := perpendicularDistance(points[i], points[first], points[last])
		if d > maxDist {
			maxDist = d
			maxIndex = i
		}
	}

	if maxDist > tolerance {
		keep[maxIndex] = true
		simplifySection(points, first, maxIndex, tolerance, keep)
		simplifySection(points, maxIndex, last, tolerance, keep)
	}
}

func perpendicularDistance(p, a, b XY) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y

	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return math.Hypot(p.X-a.X, p.Y-a.Y)
	}

	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / lenSq
	t = math.Max(0, math.Min(1, t))

	return math.Hypot(p.X-(a.X+t*dx), p.Y-(a.Y+t*dy))
}
