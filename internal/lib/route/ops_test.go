package route

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openhiking/trailmap/internal/lib/geo"
)

// buildRoute creates a route with straight segments between waypoints.
// types[i] is the routing type of segment i; types[0] belongs to the
// zero-length first segment.
func buildRoute(waypoints []geo.Point, types []RoutingType) *Route {
	r := &Route{
		Properties: Properties{Name: "test", Visible: true},
	}
	for i, p := range waypoints {
		if i == 0 {
			r.Segments = append(r.Segments, NewDegenerateSegment(p, types[0]))
			continue
		}
		r.Segments = append(r.Segments, Segment{
			RoutePoint:  p,
			Latlngs:     []geo.Point{waypoints[i-1], p},
			RoutingType: types[i],
		})
	}
	return r
}

var testWaypoints = []geo.Point{
	{Lat: 0, Lng: 0},
	{Lat: 0, Lng: 0.01},
	{Lat: 0.01, Lng: 0.01},
	{Lat: 0.01, Lng: 0.02},
}

var testTypes = []RoutingType{RoutingHike, RoutingBike, Routing4WD, RoutingNone}

func routingTypes(r *Route) []RoutingType {
	out := make([]RoutingType, len(r.Segments))
	for i, s := range r.Segments {
		out[i] = s.RoutingType
	}
	return out
}

func TestReverse(t *testing.T) {
	r := buildRoute(testWaypoints, testTypes)

	Reverse(r)

	require.NoError(t, r.Validate())
	assert.Equal(t, []geo.Point{
		{Lat: 0.01, Lng: 0.02},
		{Lat: 0.01, Lng: 0.01},
		{Lat: 0, Lng: 0.01},
		{Lat: 0, Lng: 0},
	}, r.Waypoints())

	// Each reversed segment keeps the routing type of the geometry it now
	// carries; the new zero-length head takes the old tail's type.
	assert.Equal(t, []RoutingType{RoutingNone, RoutingNone, Routing4WD, RoutingBike}, routingTypes(r))
}

func TestReverseTwiceRestoresGeometry(t *testing.T) {
	r := buildRoute(testWaypoints, testTypes)
	original := r.Clone()

	Reverse(r)
	Reverse(r)

	require.NoError(t, r.Validate())
	assert.Equal(t, original.Waypoints(), r.Waypoints())
	for i := range original.Segments {
		assert.Equal(t, original.Segments[i].Latlngs, r.Segments[i].Latlngs, "segment %d geometry", i)
	}
}

func TestReverseTwiceRoutingTypes(t *testing.T) {
	r := buildRoute(testWaypoints, testTypes)

	Reverse(r)
	Reverse(r)

	// Known asymmetry: the zero-length first segment's routing type is
	// inherently lossy under reversal (it carries no geometry), so it ends up
	// matching segment 1. All geometry-bearing segments must round-trip.
	got := routingTypes(r)
	assert.Equal(t, testTypes[1:], got[1:])
	assert.Equal(t, got[1], got[0])
}

func TestReverseUniformTypesIsInvolution(t *testing.T) {
	r := buildRoute(testWaypoints, []RoutingType{RoutingHike, RoutingHike, RoutingHike, RoutingHike})
	original := r.Clone()

	Reverse(r)
	Reverse(r)

	assert.Equal(t, original.Segments, r.Segments)
}

func TestReverseSinglePoint(t *testing.T) {
	r := buildRoute(testWaypoints[:1], testTypes[:1])
	Reverse(r)

	require.Len(t, r.Segments, 1)
	assert.Equal(t, geo.Point{Lat: 0, Lng: 0}, r.Segments[0].RoutePoint)
}

func TestSplit(t *testing.T) {
	r := buildRoute(testWaypoints, testTypes)
	r.Markers = []Marker{NewMarker(geo.Point{Lat: 0.005, Lng: 0.015}, "spring", "water")}

	postfix, err := Split(r, 1)
	require.NoError(t, err)

	assert.Equal(t, testWaypoints[:2], r.Waypoints())
	require.NoError(t, r.Validate())

	// New route starts with a zero-length anchor at the split point.
	require.Len(t, postfix, 3)
	assert.Equal(t, testWaypoints[1], postfix[0].RoutePoint)
	assert.Equal(t, postfix[0].Latlngs[0], postfix[0].Latlngs[1])
	assert.Equal(t, testWaypoints[2], postfix[1].RoutePoint)
	assert.Equal(t, testWaypoints[3], postfix[2].RoutePoint)

	// Markers stay with the prefix half, matching the historical behavior.
	assert.Len(t, r.Markers, 1)
}

func TestSplitInvalidIndex(t *testing.T) {
	r := buildRoute(testWaypoints, testTypes)

	_, err := Split(r, 3)
	assert.Error(t, err, "Cannot split at the last segment")

	_, err = Split(r, -1)
	assert.Error(t, err)
}

func TestSplitThenMergeRoundTrip(t *testing.T) {
	original := buildRoute(testWaypoints, testTypes)
	r := original.Clone()

	postfix, err := Split(r, 1)
	require.NoError(t, err)

	second := &Route{Segments: postfix}
	require.NoError(t, Merge(r, second, false))

	require.NoError(t, r.Validate())
	assert.Equal(t, original.Waypoints(), r.Waypoints())
}

func TestMergeReversesSecondaryWhenNeeded(t *testing.T) {
	// Secondary runs away from the primary's end; its start is the far
	// endpoint, so it must be reversed before gluing.
	primary := buildRoute(testWaypoints[:2], testTypes[:2])
	secondary := buildRoute([]geo.Point{
		{Lat: 0.01, Lng: 0.02},
		{Lat: 0.01, Lng: 0.01},
		{Lat: 0, Lng: 0.0101},
	}, testTypes[:3])

	require.NoError(t, Merge(primary, secondary, false))

	waypoints := primary.Waypoints()
	assert.Equal(t, geo.Point{Lat: 0.01, Lng: 0.02}, waypoints[len(waypoints)-1])
}

func TestMergeAtStart(t *testing.T) {
	primary := buildRoute(testWaypoints[2:], testTypes[2:])
	secondary := buildRoute(testWaypoints[:3], testTypes[:3])

	require.NoError(t, Merge(primary, secondary, true))

	assert.Equal(t, testWaypoints, primary.Waypoints())
}

func TestMergeConcatenatesMarkers(t *testing.T) {
	primary := buildRoute(testWaypoints[:2], testTypes[:2])
	primary.Markers = []Marker{NewMarker(geo.Point{}, "a", "campsite")}
	secondary := buildRoute(testWaypoints[1:3], testTypes[1:3])
	secondary.Markers = []Marker{NewMarker(geo.Point{}, "b", "spring")}

	require.NoError(t, Merge(primary, secondary, false))

	require.Len(t, primary.Markers, 2)
	assert.Equal(t, "a", primary.Markers[0].Title)
	assert.Equal(t, "b", primary.Markers[1].Title)
}

func TestMakeAllPointsEditable(t *testing.T) {
	r := buildRoute(testWaypoints[:2], testTypes[:2])
	// Give the real segment some intermediate routed geometry.
	r.Segments[1].Latlngs = []geo.Point{
		testWaypoints[0],
		{Lat: 0.002, Lng: 0.003},
		{Lat: 0.005, Lng: 0.007},
		testWaypoints[1],
	}

	MakeAllPointsEditable(r)

	require.NoError(t, r.Validate())
	require.Len(t, r.Segments, 4)
	for i, s := range r.Segments[1:] {
		assert.Len(t, s.Latlngs, 2, "segment %d should be a two-point segment", i+1)
	}
	assert.Equal(t, testWaypoints[1], r.Segments[3].RoutePoint)
}
