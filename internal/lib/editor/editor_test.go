package editor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openhiking/trailmap/internal/lib/geo"
	"github.com/openhiking/trailmap/internal/lib/route"
)

// fakeSurface projects degrees straight to pixels and tracks live handles.
type fakeSurface struct {
	mu        sync.Mutex
	polylines map[*fakePolyline]bool
	markers   map[*fakeMarker]bool
}

type fakePolyline struct {
	points []geo.Point
	style  PolylineStyle
}

func (p *fakePolyline) SetPoints(points []geo.Point) { p.points = points }
func (p *fakePolyline) SetStyle(style PolylineStyle) { p.style = style }

type fakeMarker struct {
	latlng geo.Point
	style  MarkerStyle
}

func (m *fakeMarker) SetLatlng(latlng geo.Point) { m.latlng = latlng }
func (m *fakeMarker) SetStyle(style MarkerStyle) { m.style = style }

func newFakeSurface() *fakeSurface {
	return &fakeSurface{
		polylines: make(map[*fakePolyline]bool),
		markers:   make(map[*fakeMarker]bool),
	}
}

// 1000 pixels per degree: the default 10px sensitivity translates to 0.01
// degrees, so tests control snapping by choosing coordinates.
func (s *fakeSurface) Project(p geo.Point) geo.Pixel {
	return geo.Pixel{X: p.Lng * 1000, Y: p.Lat * 1000}
}
func (s *fakeSurface) Unproject(px geo.Pixel) geo.Point {
	return geo.Point{Lat: px.Y / 1000, Lng: px.X / 1000}
}
func (s *fakeSurface) Zoom() int { return 13 }

func (s *fakeSurface) AddPolyline(points []geo.Point, style PolylineStyle) Polyline {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := &fakePolyline{points: points, style: style}
	s.polylines[p] = true
	return p
}

func (s *fakeSurface) RemovePolyline(handle Polyline) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.polylines, handle.(*fakePolyline))
}

func (s *fakeSurface) AddMarker(latlng geo.Point, style MarkerStyle) Marker {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := &fakeMarker{latlng: latlng, style: style}
	s.markers[m] = true
	return m
}

func (s *fakeSurface) RemoveMarker(handle Marker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.markers, handle.(*fakeMarker))
}

func (s *fakeSurface) polylineCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.polylines)
}

func (s *fakeSurface) dashedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for p := range s.polylines {
		if p.style.Dashed {
			n++
		}
	}
	return n
}

// manualRouter blocks each GetRoute call until the test feeds a response.
type manualRouter struct {
	mu    sync.Mutex
	calls []*routeCall
}

type routeCall struct {
	start, end geo.Point
	resp       chan []geo.Point
}

func (r *manualRouter) GetRoute(_ context.Context, start, end geo.Point, _ route.RoutingType) ([]geo.Point, error) {
	call := &routeCall{start: start, end: end, resp: make(chan []geo.Point)}
	r.mu.Lock()
	r.calls = append(r.calls, call)
	r.mu.Unlock()

	points := <-call.resp
	if points == nil {
		return []geo.Point{start, end}, errors.New("routing unavailable")
	}
	return points, nil
}

func (r *manualRouter) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func (r *manualRouter) call(i int) *routeCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[i]
}

func (r *manualRouter) waitForCalls(t *testing.T, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return r.callCount() >= n }, time.Second, time.Millisecond)
}

// instantRouter resolves immediately with a straight line.
type instantRouter struct{}

func (instantRouter) GetRoute(_ context.Context, start, end geo.Point, _ route.RoutingType) ([]geo.Point, error) {
	return []geo.Point{start, end}, nil
}

type recordingNotifier struct {
	mu       sync.Mutex
	warnings []string
	errors   []string
}

func (n *recordingNotifier) Warning(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.warnings = append(n.warnings, msg)
}

func (n *recordingNotifier) Error(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors = append(n.errors, msg)
}

func newTestRoute() *route.Route {
	return &route.Route{
		Properties: route.Properties{
			Name:               "Test route",
			PathOptions:        route.PathOptions{Color: "#ff0000", Opacity: 0.7, Weight: 7},
			CurrentRoutingType: route.RoutingHike,
			Visible:            true,
		},
	}
}

func newTestEditor(r *route.Route, router RoutingClient) (*Editor, *fakeSurface) {
	surface := newFakeSurface()
	e := New(r, surface, router, nil, nil, nil, Options{})
	return e, surface
}

func click(e *Editor, lat, lng float64) {
	e.Handle(Event{Kind: EventClick, Latlng: geo.Point{Lat: lat, Lng: lng}})
}

func TestEditorStartsReadOnly(t *testing.T) {
	e, _ := newTestEditor(newTestRoute(), instantRouter{})
	assert.Equal(t, StateReadOnly, e.StateName())
}

func TestSetStateUnknown(t *testing.T) {
	e, _ := newTestEditor(newTestRoute(), instantRouter{})

	err := e.SetState(StateName("Bogus"))
	assert.Error(t, err, "Unknown state names indicate a caller bug")
	assert.Equal(t, StateReadOnly, e.StateName(), "Failed transition leaves the state untouched")
}

func TestParseStateName(t *testing.T) {
	name, err := ParseStateName("EditRoute")
	require.NoError(t, err)
	assert.Equal(t, StateEditRoute, name)

	_, err = ParseStateName("nope")
	assert.Error(t, err)
}

func TestAddFirstWaypoint(t *testing.T) {
	e, _ := newTestEditor(newTestRoute(), instantRouter{})
	require.NoError(t, e.SetState(StateEditRoute))

	click(e, 10, 20)

	data := e.Snapshot()
	require.Len(t, data.Segments, 1)
	assert.Equal(t, geo.Point{Lat: 10, Lng: 20}, data.Segments[0].RoutePoint)
	assert.Equal(t, data.Segments[0].Latlngs[0], data.Segments[0].Latlngs[1], "First segment is degenerate")
}

func TestSecondClickRoutesSegment(t *testing.T) {
	router := &manualRouter{}
	e, surface := newTestEditor(newTestRoute(), router)
	require.NoError(t, e.SetState(StateEditRoute))

	click(e, 0, 0)
	click(e, 0, 1)

	router.waitForCalls(t, 1)
	assert.Equal(t, 1, surface.dashedCount(), "Pending segment shows a dashed loading line")

	routed := []geo.Point{{Lat: 0, Lng: 0}, {Lat: 0.2, Lng: 0.5}, {Lat: 0, Lng: 1}}
	router.call(0).resp <- routed

	require.Eventually(t, func() bool {
		data := e.Snapshot()
		return len(data.Segments) == 2 && len(data.Segments[1].Latlngs) == 3
	}, time.Second, time.Millisecond)

	data := e.Snapshot()
	assert.Equal(t, routed, data.Segments[1].Latlngs)
	assert.Equal(t, 0, surface.dashedCount())

	r := e.Route()
	e.mu.Lock()
	err := r.Validate()
	e.mu.Unlock()
	assert.NoError(t, err)
}

func TestRoutingTypeNoneSkipsRouter(t *testing.T) {
	router := &manualRouter{}
	r := newTestRoute()
	r.Properties.CurrentRoutingType = route.RoutingNone
	e, _ := newTestEditor(r, router)
	require.NoError(t, e.SetState(StateEditRoute))

	click(e, 0, 0)
	click(e, 0, 1)

	data := e.Snapshot()
	require.Len(t, data.Segments, 2)
	assert.Equal(t, []geo.Point{{Lat: 0, Lng: 0}, {Lat: 0, Lng: 1}}, data.Segments[1].Latlngs)
	assert.Equal(t, 0, router.callCount(), "None joins waypoints with a straight line")
}

func TestStaleRoutingResponseDropped(t *testing.T) {
	router := &manualRouter{}
	e, _ := newTestEditor(newTestRoute(), router)
	require.NoError(t, e.SetState(StateEditRoute))

	click(e, 0, 0)
	click(e, 0, 1)
	router.waitForCalls(t, 1)

	// Drag the new waypoint before the first response lands; the reroute
	// issued on drag end supersedes the click's request.
	e.Handle(Event{Kind: EventWaypointDragStart, Index: 1})
	e.Handle(Event{Kind: EventWaypointDragEnd, Latlng: geo.Point{Lat: 0, Lng: 2}})
	router.waitForCalls(t, 2)

	stale := []geo.Point{{Lat: 0, Lng: 0}, {Lat: 9, Lng: 9}, {Lat: 0, Lng: 1}}
	router.call(0).resp <- stale

	fresh := []geo.Point{{Lat: 0, Lng: 0}, {Lat: 0.1, Lng: 1}, {Lat: 0, Lng: 2}}
	router.call(1).resp <- fresh

	require.Eventually(t, func() bool {
		data := e.Snapshot()
		return len(data.Segments[1].Latlngs) == 3 && data.Segments[1].Latlngs[2].Lng == 2
	}, time.Second, time.Millisecond)

	data := e.Snapshot()
	assert.Equal(t, fresh, data.Segments[1].Latlngs, "Stale response must not overwrite the newer edit")
}

func TestSwitchToNoneDropsInFlightResponse(t *testing.T) {
	router := &manualRouter{}
	e, _ := newTestEditor(newTestRoute(), router)
	require.NoError(t, e.SetState(StateEditRoute))

	click(e, 0, 0)
	click(e, 0, 1)
	router.waitForCalls(t, 1)

	// Switching to None replaces the segment with a straight line while the
	// routed response is still pending; releasing it afterwards must not
	// bring the routed geometry back.
	e.SetRoutingType(route.RoutingNone)
	router.call(0).resp <- []geo.Point{{Lat: 0, Lng: 0}, {Lat: 5, Lng: 5}, {Lat: 0, Lng: 1}}
	time.Sleep(50 * time.Millisecond)

	data := e.Snapshot()
	require.Len(t, data.Segments, 2)
	assert.Equal(t, route.RoutingNone, data.Segments[1].RoutingType)
	assert.Equal(t, []geo.Point{{Lat: 0, Lng: 0}, {Lat: 0, Lng: 1}}, data.Segments[1].Latlngs)
}

func TestClickSnapsToCandidatePoint(t *testing.T) {
	e, _ := newTestEditor(newTestRoute(), instantRouter{})
	require.NoError(t, e.SetState(StateEditRoute))

	candidate := geo.Point{Lat: 10.000001, Lng: 20.000001}
	e.SetSnapCandidates(SnapCandidates{Points: []geo.Point{candidate}})

	click(e, 10, 20)

	data := e.Snapshot()
	require.Len(t, data.Segments, 1)
	assert.Equal(t, candidate, data.Segments[0].RoutePoint)
}

func TestRemoveWaypoint(t *testing.T) {
	r := newTestRoute()
	r.Properties.CurrentRoutingType = route.RoutingNone
	e, _ := newTestEditor(r, instantRouter{})
	require.NoError(t, e.SetState(StateEditRoute))

	click(e, 0, 0)
	click(e, 0, 1)
	click(e, 0, 2)

	e.Handle(Event{Kind: EventWaypointClick, Index: 0})
	data := e.Snapshot()
	require.Len(t, data.Segments, 2)
	assert.Equal(t, data.Segments[0].Latlngs[0], data.Segments[0].Latlngs[1], "New head collapses to an anchor")

	e.Handle(Event{Kind: EventWaypointClick, Index: 1})
	data = e.Snapshot()
	require.Len(t, data.Segments, 1)
}

func TestMiddleMarkerInsertsWaypoint(t *testing.T) {
	r := newTestRoute()
	r.Properties.CurrentRoutingType = route.RoutingNone
	e, _ := newTestEditor(r, instantRouter{})
	require.NoError(t, e.SetState(StateEditRoute))

	click(e, 0, 0)
	click(e, 0, 2)

	e.Handle(Event{Kind: EventMiddleMarkerDrag, Index: 1, Latlng: geo.Point{Lat: 1, Lng: 1}})

	data := e.Snapshot()
	require.Len(t, data.Segments, 3)
	assert.Equal(t, geo.Point{Lat: 1, Lng: 1}, data.Segments[1].RoutePoint)
	assert.Equal(t, geo.Point{Lat: 0, Lng: 2}, data.Segments[2].RoutePoint)
}

func TestUndo(t *testing.T) {
	r := newTestRoute()
	r.Properties.CurrentRoutingType = route.RoutingNone
	e, _ := newTestEditor(r, instantRouter{})
	require.NoError(t, e.SetState(StateEditRoute))

	click(e, 0, 0)
	click(e, 0, 1)
	require.Len(t, e.Snapshot().Segments, 2)

	e.Undo()
	assert.Len(t, e.Snapshot().Segments, 1)

	e.Undo()
	assert.Len(t, e.Snapshot().Segments, 0)

	// Undo past the initial snapshot is a no-op.
	e.Undo()
	e.Undo()
	assert.Len(t, e.Snapshot().Segments, 0)
}

func TestEditPoi(t *testing.T) {
	e, _ := newTestEditor(newTestRoute(), instantRouter{})
	require.NoError(t, e.SetState(StateEditPoi))

	var selected []route.Marker
	e.OnMarkerSelected(func(m route.Marker) { selected = append(selected, m) })

	click(e, 10, 20)
	data := e.Snapshot()
	require.Len(t, data.Markers, 1)
	assert.NotEmpty(t, data.Markers[0].ID)
	assert.Equal(t, geo.Point{Lat: 10, Lng: 20}, data.Markers[0].Latlng)

	// Clicking on (or near) the existing marker selects it instead of
	// creating another one.
	click(e, 10.000001, 20.000001)
	assert.Len(t, e.Snapshot().Markers, 1)
	require.Len(t, selected, 1)
	assert.Equal(t, data.Markers[0].ID, selected[0].ID)
}

func TestUpdateAndRemoveMarker(t *testing.T) {
	e, _ := newTestEditor(newTestRoute(), instantRouter{})
	require.NoError(t, e.SetState(StateEditPoi))

	click(e, 10, 20)
	m := e.Snapshot().Markers[0]

	m.Title = "Spring"
	m.Type = "water"
	m.Description = "Fresh water all year"
	e.UpdateMarker(m)

	updated := e.Snapshot().Markers[0]
	assert.Equal(t, "Spring", updated.Title)
	assert.Equal(t, "water", updated.Type)

	e.RemoveMarker(m.ID)
	assert.Empty(t, e.Snapshot().Markers)
}

func TestRecordingAppendsLocations(t *testing.T) {
	e, _ := newTestEditor(newTestRoute(), instantRouter{})
	require.NoError(t, e.SetState(StateRecording))

	e.Handle(Event{Kind: EventLocationUpdate, Latlng: geo.Point{Lat: 0, Lng: 0}})
	e.Handle(Event{Kind: EventLocationUpdate, Latlng: geo.Point{Lat: 0, Lng: 0.001}})
	// Jitter below the noise floor is dropped.
	e.Handle(Event{Kind: EventLocationUpdate, Latlng: geo.Point{Lat: 0, Lng: 0.001000001}})
	e.Handle(Event{Kind: EventLocationUpdate, Latlng: geo.Point{Lat: 0, Lng: 0.002}})

	data := e.Snapshot()
	require.Len(t, data.Segments, 1)
	assert.Len(t, data.Segments[0].Latlngs, 4)
	assert.Equal(t, geo.Point{Lat: 0, Lng: 0.002}, data.Segments[0].RoutePoint)
}

func TestHiddenStateRendersNothing(t *testing.T) {
	r := newTestRoute()
	r.Properties.CurrentRoutingType = route.RoutingNone
	e, surface := newTestEditor(r, instantRouter{})
	require.NoError(t, e.SetState(StateEditRoute))
	click(e, 0, 0)
	click(e, 0, 1)

	require.NoError(t, e.SetState(StateHidden))
	assert.Equal(t, 0, surface.polylineCount())
}

func TestReadOnlyHoverReportsDistance(t *testing.T) {
	r := newTestRoute()
	r.Properties.CurrentRoutingType = route.RoutingNone
	e, _ := newTestEditor(r, instantRouter{})
	require.NoError(t, e.SetState(StateEditRoute))
	click(e, 0, 0)
	click(e, 0, 0.01)

	var distances []float64
	e.SubscribeHover(func(km float64) { distances = append(distances, km) })
	require.NoError(t, e.SetState(StateReadOnly))

	e.Handle(Event{Kind: EventMove, Latlng: geo.Point{Lat: 0, Lng: 0.005}})
	require.Len(t, distances, 1)
	assert.InDelta(t, 0.556, distances[0], 0.01)
}

func TestSubscribersNotifiedOnCommit(t *testing.T) {
	r := newTestRoute()
	r.Properties.CurrentRoutingType = route.RoutingNone
	e, _ := newTestEditor(r, instantRouter{})

	var snapshots []route.Data
	e.Subscribe(func(d route.Data) { snapshots = append(snapshots, d) })

	require.NoError(t, e.SetState(StateEditRoute))
	click(e, 0, 0)
	click(e, 0, 1)

	require.Len(t, snapshots, 2)
	assert.Len(t, snapshots[1].Segments, 2)
}
