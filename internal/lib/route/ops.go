package route

import (
	"fmt"

	"github.com/openhiking/trailmap/internal/lib/geo"
)

// Reverse reverses the route in place: segment order flips and each segment's
// geometry is reversed. Because a segment's routing type describes the
// geometry leading to its waypoint, each segment takes over its (formerly)
// next neighbor's geometry and routing type before the order flips; the last
// segment collapses to a zero-length anchor at the original end, which is the
// reversed route's start.
func Reverse(r *Route) {
	n := len(r.Segments)
	if n == 0 {
		return
	}

	for i := 0; i < n-1; i++ {
		next := r.Segments[i+1]
		reversed := reversePoints(next.Latlngs)
		r.Segments[i] = Segment{
			Latlngs:     reversed,
			RoutePoint:  reversed[len(reversed)-1],
			RoutingType: next.RoutingType,
		}
	}

	last := &r.Segments[n-1]
	anchor := last.RoutePoint
	last.Latlngs = []geo.Point{anchor, anchor}

	for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
		r.Segments[i], r.Segments[j] = r.Segments[j], r.Segments[i]
	}
}

func reversePoints(points []geo.Point) []geo.Point {
	out := make([]geo.Point, len(points))
	for i, p := range points {
		out[len(points)-1-i] = p
	}
	return out
}

// Split removes segments after segmentIndex from the route and returns them
// as the segment list of a new route, prefixed with a zero-length segment
// anchored at the split point. Markers are not redistributed: they all stay
// with the prefix route.
func Split(r *Route, segmentIndex int) ([]Segment, error) {
	if segmentIndex < 0 || segmentIndex >= len(r.Segments)-1 {
		return nil, fmt.Errorf("cannot split at segment %d of %d", segmentIndex, len(r.Segments))
	}

	moved := cloneSegments(r.Segments[segmentIndex+1:])
	r.Segments = r.Segments[:segmentIndex+1]

	splitPoint := moved[0].Latlngs[0]
	postfix := append([]Segment{NewDegenerateSegment(splitPoint, RoutingNone)}, moved...)
	return postfix, nil
}

// Merge appends the secondary route's geometry onto the primary. When
// joinAtStart is true the secondary is glued before the primary's first
// waypoint, otherwise after its last. The secondary is reversed first when
// its far endpoint is the closer match, and the redundant zero-length
// boundary segment is dropped. Markers concatenate.
func Merge(primary, secondary *Route, joinAtStart bool) error {
	if len(primary.Segments) == 0 || len(secondary.Segments) == 0 {
		return ErrEmptyRoute
	}

	sec := secondary.Clone()

	if joinAtStart {
		boundary := primary.Segments[0].RoutePoint
		if geo.Distance(endPoint(sec), boundary) > geo.Distance(startPoint(sec), boundary) {
			Reverse(sec)
		}
		primary.Segments = append(sec.Segments, primary.Segments[1:]...)
	} else {
		boundary := endPoint(primary)
		if geo.Distance(startPoint(sec), boundary) > geo.Distance(endPoint(sec), boundary) {
			Reverse(sec)
		}
		primary.Segments = append(primary.Segments, sec.Segments[1:]...)
	}

	primary.Markers = append(primary.Markers, sec.Markers...)
	return nil
}

// MakeAllPointsEditable explodes every segment's intermediate geometry points
// into standalone two-point segments, turning each shape point into a
// draggable waypoint.
func MakeAllPointsEditable(r *Route) {
	if len(r.Segments) == 0 {
		return
	}

	segments := []Segment{NewDegenerateSegment(r.Segments[0].Latlngs[0], r.Segments[0].RoutingType)}
	prev := segments[0].RoutePoint
	for _, s := range r.Segments {
		for _, p := range s.Latlngs {
			if p.Lat == prev.Lat && p.Lng == prev.Lng {
				continue
			}
			segments = append(segments, Segment{
				RoutePoint:  p,
				Latlngs:     []geo.Point{prev, p},
				RoutingType: s.RoutingType,
			})
			prev = p
		}
	}
	r.Segments = segments
}

func startPoint(r *Route) geo.Point {
	return r.Segments[0].Latlngs[0]
}

func endPoint(r *Route) geo.Point {
	last := r.Segments[len(r.Segments)-1]
	return last.Latlngs[len(last.Latlngs)-1]
}

// StartPoint returns the route's first geometry point.
func (r *Route) StartPoint() (geo.Point, error) {
	if len(r.Segments) == 0 {
		return geo.Point{}, ErrEmptyRoute
	}
	return startPoint(r), nil
}

// EndPoint returns the route's last geometry point.
func (r *Route) EndPoint() (geo.Point, error) {
	if len(r.Segments) == 0 {
		return geo.Point{}, ErrEmptyRoute
	}
	return endPoint(r), nil
}
