package route

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/openhiking/trailmap/internal/lib/geo"
)

// RoutingType governs how two consecutive waypoints are connected.
type RoutingType string

const (
	RoutingHike RoutingType = "Hike"
	RoutingBike RoutingType = "Bike"
	Routing4WD  RoutingType = "4WD"
	RoutingNone RoutingType = "None"
)

// Char returns the single-character form used by the URL hash encoding.
func (t RoutingType) Char() byte {
	switch t {
	case RoutingHike:
		return 'h'
	case RoutingBike:
		return 'b'
	case Routing4WD:
		return 'f'
	case RoutingNone:
		return 'n'
	}
	return 'h'
}

// RoutingTypeFromChar parses the single-character URL hash form.
func RoutingTypeFromChar(c byte) (RoutingType, error) {
	switch c {
	case 'h':
		return RoutingHike, nil
	case 'b':
		return RoutingBike, nil
	case 'f':
		return Routing4WD, nil
	case 'n':
		return RoutingNone, nil
	}
	return "", fmt.Errorf("unknown routing type character %q", string(c))
}

// Segment is the path geometry connecting one waypoint to the previous one.
// Latlngs holds the full routed geometry; its first entry equals the previous
// segment's RoutePoint and its last entry equals this segment's RoutePoint.
type Segment struct {
	RoutePoint  geo.Point   `json:"routePoint"`
	Latlngs     []geo.Point `json:"latlngs"`
	RoutingType RoutingType `json:"routingType"`
}

// NewDegenerateSegment returns a zero-length segment anchored at p, used as
// the first segment of a route.
func NewDegenerateSegment(p geo.Point, t RoutingType) Segment {
	return Segment{
		RoutePoint:  p,
		Latlngs:     []geo.Point{p, p},
		RoutingType: t,
	}
}

// Marker is a point of interest attached to a route.
type Marker struct {
	ID          string    `json:"id,omitempty"`
	Latlng      geo.Point `json:"latlng"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Type        string    `json:"type"`
	Urls        []string  `json:"urls,omitempty"`
}

// NewMarker creates a marker with a fresh stable identifier. The identifier
// keys the side table from persisted marker data to its live map handle.
func NewMarker(latlng geo.Point, title, markerType string) Marker {
	return Marker{
		ID:     uuid.NewString(),
		Latlng: latlng,
		Title:  title,
		Type:   markerType,
	}
}

// PathOptions holds the visual style of a route's polylines.
type PathOptions struct {
	Color   string  `json:"color"`
	Opacity float64 `json:"opacity"`
	Weight  int     `json:"weight"`
}

// Properties holds a route's name, style and routing behavior.
type Properties struct {
	Name               string
	Description        string
	PathOptions        PathOptions
	CurrentRoutingType RoutingType
	RoutingPerPoint    bool
	Visible            bool
}

// Route is the in-memory representation of one route: ordered segments plus
// point-of-interest markers. It is owned exclusively by one editing layer at
// a time.
type Route struct {
	Properties Properties
	Segments   []Segment
	Markers    []Marker
}

// New returns an empty visible route that routes new waypoints by hiking.
func New() *Route {
	return &Route{
		Properties: Properties{
			CurrentRoutingType: RoutingHike,
			Visible:            true,
		},
	}
}

// Data is the serialization shape used for file save/load and sharing.
type Data struct {
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Color       string    `json:"color,omitempty"`
	Opacity     float64   `json:"opacity,omitempty"`
	Weight      int       `json:"weight,omitempty"`
	Markers     []Marker  `json:"markers"`
	Segments    []Segment `json:"segments"`
}

// ToData flattens the route into its serialization shape.
func (r *Route) ToData() Data {
	return Data{
		Name:        r.Properties.Name,
		Description: r.Properties.Description,
		Color:       r.Properties.PathOptions.Color,
		Opacity:     r.Properties.PathOptions.Opacity,
		Weight:      r.Properties.PathOptions.Weight,
		Markers:     cloneMarkers(r.Markers),
		Segments:    cloneSegments(r.Segments),
	}
}

// FromData builds a route from its serialization shape.
func FromData(d Data) *Route {
	return &Route{
		Properties: Properties{
			Name:        d.Name,
			Description: d.Description,
			PathOptions: PathOptions{
				Color:   d.Color,
				Opacity: d.Opacity,
				Weight:  d.Weight,
			},
			CurrentRoutingType: RoutingHike,
			Visible:            true,
		},
		Markers:  cloneMarkers(d.Markers),
		Segments: cloneSegments(d.Segments),
	}
}

// Clone returns a deep copy of the route, suitable for undo snapshots.
func (r *Route) Clone() *Route {
	clone := &Route{
		Properties: r.Properties,
		Segments:   cloneSegments(r.Segments),
		Markers:    cloneMarkers(r.Markers),
	}
	return clone
}

func cloneSegments(segments []Segment) []Segment {
	out := make([]Segment, len(segments))
	for i, s := range segments {
		out[i] = Segment{
			RoutePoint:  s.RoutePoint,
			Latlngs:     append([]geo.Point(nil), s.Latlngs...),
			RoutingType: s.RoutingType,
		}
	}
	return out
}

func cloneMarkers(markers []Marker) []Marker {
	out := make([]Marker, len(markers))
	for i, m := range markers {
		out[i] = m
		out[i].Urls = append([]string(nil), m.Urls...)
	}
	return out
}

// Validate checks the segment continuity invariant: each segment's geometry
// begins at the previous segment's waypoint and ends at its own.
func (r *Route) Validate() error {
	for i, s := range r.Segments {
		if len(s.Latlngs) < 2 {
			return fmt.Errorf("segment %d has %d points, need at least 2", i, len(s.Latlngs))
		}
		last := s.Latlngs[len(s.Latlngs)-1]
		if last.Lat != s.RoutePoint.Lat || last.Lng != s.RoutePoint.Lng {
			return fmt.Errorf("segment %d geometry does not end at its waypoint", i)
		}
		if i == 0 {
			continue
		}
		prev := r.Segments[i-1].RoutePoint
		first := s.Latlngs[0]
		if first.Lat != prev.Lat || first.Lng != prev.Lng {
			return fmt.Errorf("segment %d geometry does not start at segment %d's waypoint", i, i-1)
		}
	}
	return nil
}

// Waypoints returns the ordered user-placed anchor points.
func (r *Route) Waypoints() []geo.Point {
	points := make([]geo.Point, len(r.Segments))
	for i, s := range r.Segments {
		points[i] = s.RoutePoint
	}
	return points
}

// Latlngs returns the full ordered geometry of the route, with duplicate
// segment boundary points removed.
func (r *Route) Latlngs() []geo.Point {
	var points []geo.Point
	for _, s := range r.Segments {
		for _, p := range s.Latlngs {
			if len(points) > 0 {
				last := points[len(points)-1]
				if last.Lat == p.Lat && last.Lng == p.Lng {
					continue
				}
			}
			points = append(points, p)
		}
	}
	return points
}

// ErrEmptyRoute is returned by operations that require at least one segment.
var ErrEmptyRoute = errors.New("route has no segments")
