package route

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/twpayne/go-polyline"

	"github.com/openhiking/trailmap/internal/lib/geo"
)

// The URL hash carries the map position as "#!/zoom/lat/lng" and routes as
// waypoint tuples "routingTypeChar,lat,lng" joined by ":" within a route,
// with routes separated by ";". Coordinates are truncated to four decimal
// places (~11 m), which is adequate for rehydrating waypoints that get
// re-routed on load.

const hashPrefix = "#!/"

// EncodeMapLocation encodes the viewport position for the URL hash.
func EncodeMapLocation(zoom int, center geo.Point) string {
	return fmt.Sprintf("%s%d/%.4f/%.4f", hashPrefix, zoom, center.Lat, center.Lng)
}

// DecodeMapLocation parses a "#!/zoom/lat/lng" hash.
func DecodeMapLocation(hash string) (zoom int, center geo.Point, err error) {
	trimmed := strings.TrimPrefix(hash, hashPrefix)
	parts := strings.Split(trimmed, "/")
	if len(parts) != 3 {
		return 0, geo.Point{}, fmt.Errorf("malformed map location hash %q", hash)
	}

	zoom, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, geo.Point{}, fmt.Errorf("malformed zoom in %q: %w", hash, err)
	}
	center.Lat, err = strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return 0, geo.Point{}, fmt.Errorf("malformed latitude in %q: %w", hash, err)
	}
	center.Lng, err = strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return 0, geo.Point{}, fmt.Errorf("malformed longitude in %q: %w", hash, err)
	}
	return zoom, center, nil
}

// EncodeWaypoints encodes a route's waypoints for the URL hash. Only the
// user-placed waypoints are carried; intermediate geometry is recomputed on
// load.
func EncodeWaypoints(r *Route) string {
	tuples := make([]string, len(r.Segments))
	for i, s := range r.Segments {
		tuples[i] = fmt.Sprintf("%c,%.4f,%.4f", s.RoutingType.Char(), s.RoutePoint.Lat, s.RoutePoint.Lng)
	}
	return strings.Join(tuples, ":")
}

// DecodeWaypoints parses one route's waypoint string. Segments come back
// with straight-line geometry between waypoints, pending re-routing.
func DecodeWaypoints(encoded string) ([]Segment, error) {
	if encoded == "" {
		return nil, nil
	}

	tuples := strings.Split(encoded, ":")
	segments := make([]Segment, 0, len(tuples))
	for i, tuple := range tuples {
		fields := strings.Split(tuple, ",")
		if len(fields) != 3 || len(fields[0]) != 1 {
			return nil, fmt.Errorf("malformed waypoint tuple %q", tuple)
		}
		routingType, err := RoutingTypeFromChar(fields[0][0])
		if err != nil {
			return nil, err
		}
		lat, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("malformed latitude in %q: %w", tuple, err)
		}
		lng, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return nil, fmt.Errorf("malformed longitude in %q: %w", tuple, err)
		}

		point := geo.Point{Lat: lat, Lng: lng}
		if i == 0 {
			segments = append(segments, NewDegenerateSegment(point, routingType))
			continue
		}
		segments = append(segments, Segment{
			RoutePoint:  point,
			Latlngs:     []geo.Point{segments[i-1].RoutePoint, point},
			RoutingType: routingType,
		})
	}
	return segments, nil
}

// EncodeAllWaypoints joins multiple routes' waypoint strings with ";".
func EncodeAllWaypoints(routes []*Route) string {
	encoded := make([]string, len(routes))
	for i, r := range routes {
		encoded[i] = EncodeWaypoints(r)
	}
	return strings.Join(encoded, ";")
}

// DecodeAllWaypoints splits a multi-route waypoint string.
func DecodeAllWaypoints(encoded string) ([][]Segment, error) {
	if encoded == "" {
		return nil, nil
	}

	parts := strings.Split(encoded, ";")
	out := make([][]Segment, 0, len(parts))
	for _, part := range parts {
		segments, err := DecodeWaypoints(part)
		if err != nil {
			return nil, err
		}
		out = append(out, segments)
	}
	return out, nil
}

// EncodeSharePolyline encodes the route's full geometry as a Google encoded
// polyline, the compact form used in share links.
func EncodeSharePolyline(r *Route) string {
	points := r.Latlngs()
	coords := make([][]float64, len(points))
	for i, p := range points {
		coords[i] = []float64{p.Lat, p.Lng}
	}
	return string(polyline.EncodeCoords(coords))
}

// DecodeSharePolyline decodes a share-link polyline back to raw geometry.
func DecodeSharePolyline(encoded string) ([]geo.Point, error) {
	coords, _, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, fmt.Errorf("failed to decode polyline: %w", err)
	}

	points := make([]geo.Point, len(coords))
	for i, c := range coords {
		points[i] = geo.Point{Lat: c[0], Lng: c[1]}
		if !geo.IsValid(points[i]) {
			return nil, fmt.Errorf("decoded polyline contains invalid coordinates")
		}
	}
	return points, nil
}
