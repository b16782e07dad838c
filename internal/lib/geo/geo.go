package geo

import (
	"math"
)

// Earth's mean radius in meters.
const earthRadius = 6371000

// Distance calculates the great-circle distance between two points in meters
// using the Haversine formula.
func Distance(p1, p2 Point) float64 {
	if p1.Lat == p2.Lat && p1.Lng == p2.Lng {
		return 0
	}

	lat1 := p1.Lat * math.Pi / 180
	lon1 := p1.Lng * math.Pi / 180
	lat2 := p2.Lat * math.Pi / 180
	lon2 := p2.Lng * math.Pi / 180

	dlat := lat2 - lat1
	dlon := lon2 - lon1

	a := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dlon/2)*math.Sin(dlon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadius * c
}

// Bearing calculates the initial bearing from p1 to p2 in degrees [0, 360).
func Bearing(p1, p2 Point) float64 {
	lat1 := p1.Lat * math.Pi / 180
	lat2 := p2.Lat * math.Pi / 180
	dlon := (p2.Lng - p1.Lng) * math.Pi / 180

	y := math.Sin(dlon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dlon)
	bearing := math.Atan2(y, x) * 180 / math.Pi

	return math.Mod(bearing+360, 360)
}

// Interpolate calculates a point along the line between start and end.
// t=0 returns start, t=1 returns end. Linear interpolation is adequate for
// trail-scale segments; elevation is interpolated the same way when both
// endpoints carry one.
func Interpolate(start, end Point, t float64) Point {
	p := Point{
		Lat: start.Lat + t*(end.Lat-start.Lat),
		Lng: start.Lng + t*(end.Lng-start.Lng),
	}
	if start.Alt != 0 && end.Alt != 0 {
		p.Alt = start.Alt + t*(end.Alt-start.Alt)
	}
	return p
}

// PointToSegment calculates the minimum distance in meters from point to the
// segment [a, b], and the projection ratio along the segment (0 at a, 1 at b,
// clamped). Uses a local equirectangular approximation, which is accurate at
// map-interaction scales.
func PointToSegment(point, a, b Point) (distance, ratio float64) {
	// Flatten longitudes around the point's latitude.
	cosLat := math.Cos(point.Lat * math.Pi / 180)

	px := point.Lng * cosLat
	py := point.Lat
	ax := a.Lng * cosLat
	ay := a.Lat
	bx := b.Lng * cosLat
	by := b.Lat

	dx := bx - ax
	dy := by - ay

	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return Distance(point, a), 0
	}

	t := ((px-ax)*dx + (py-ay)*dy) / lenSq
	t = math.Max(0, math.Min(1, t))

	nearest := Point{
		Lat: a.Lat + t*(b.Lat-a.Lat),
		Lng: a.Lng + t*(b.Lng-a.Lng),
	}
	return Distance(point, nearest), t
}

// ClosestOnSegment returns the point on segment [a, b] closest to point.
func ClosestOnSegment(point, a, b Point) Point {
	_, t := PointToSegment(point, a, b)
	return Interpolate(a, b, t)
}

// PointToPolyline calculates the minimum distance in meters from point to a
// polyline, along with the index of the segment attaining it.
func PointToPolyline(point Point, line []Point) (distance float64, segmentIndex int) {
	if len(line) == 0 {
		return math.Inf(1), -1
	}
	if len(line) == 1 {
		return Distance(point, line[0]), 0
	}

	minDistance := math.Inf(1)
	minIndex := 0
	for i := 0; i < len(line)-1; i++ {
		d, _ := PointToSegment(point, line[i], line[i+1])
		if d < minDistance {
			minDistance = d
			minIndex = i
		}
	}
	return minDistance, minIndex
}

// TileForPoint returns the slippy-map tile containing the point at a zoom
// level.
func TileForPoint(p Point, zoom int) Tile {
	n := math.Exp2(float64(zoom))
	latRad := p.Lat * math.Pi / 180

	x := int(math.Floor((p.Lng + 180) / 360 * n))
	y := int(math.Floor((1 - math.Log(math.Tan(latRad)+1/math.Cos(latRad))/math.Pi) / 2 * n))

	return Tile{X: x, Y: y, Zoom: zoom}
}

// Mercator is a Web-Mercator Projector at a fixed zoom level, matching the
// pixel space of standard 256px map tiles.
type Mercator struct {
	Zoom int
}

// Project converts a geographic coordinate to pixel space.
func (m Mercator) Project(p Point) Pixel {
	scale := 256 * math.Exp2(float64(m.Zoom))
	latRad := p.Lat * math.Pi / 180

	return Pixel{
		X: (p.Lng + 180) / 360 * scale,
		Y: (1 - math.Log(math.Tan(latRad)+1/math.Cos(latRad))/math.Pi) / 2 * scale,
	}
}

// Unproject converts a pixel coordinate back to a geographic coordinate.
func (m Mercator) Unproject(px Pixel) Point {
	scale := 256 * math.Exp2(float64(m.Zoom))

	lng := px.X/scale*360 - 180
	n := math.Pi - 2*math.Pi*px.Y/scale
	lat := 180 / math.Pi * math.Atan(0.5*(math.Exp(n)-math.Exp(-n)))

	return Point{Lat: lat, Lng: lng}
}

// IsValid reports whether the point's coordinates lie in the valid
// latitude/longitude ranges.
func IsValid(p Point) bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}
