package editor

import (
	"github.com/openhiking/trailmap/internal/lib/geo"
)

// Icon categories the editor places itself. Point-of-interest markers carry
// their own persisted type.
const (
	iconWaypoint = "waypoint"
	iconMiddle   = "middle"
)

// clearView removes every handle the editor placed on the surface.
func (e *Editor) clearView() {
	for _, line := range e.segmentLines {
		e.surface.RemovePolyline(line)
	}
	e.segmentLines = nil

	for _, m := range e.waypointMarkers {
		e.surface.RemoveMarker(m)
	}
	e.waypointMarkers = nil

	for _, m := range e.middleMarkers {
		e.surface.RemoveMarker(m)
	}
	e.middleMarkers = nil

	for id, m := range e.poiHandles {
		e.surface.RemoveMarker(m)
		delete(e.poiHandles, id)
	}
}

func (e *Editor) pathStyle(dashed bool) PolylineStyle {
	opts := e.route.Properties.PathOptions
	return PolylineStyle{
		Color:   opts.Color,
		Opacity: opts.Opacity,
		Weight:  opts.Weight,
		Dashed:  dashed,
	}
}

// renderSegmentLines draws one polyline per segment, dashing the ones still
// waiting for a routing response. Used by the editing states, which need a
// separate handle per segment.
func (e *Editor) renderSegmentLines() {
	for i, s := range e.route.Segments {
		if i == 0 {
			continue // the zero-length head has nothing to draw
		}
		line := e.surface.AddPolyline(s.Latlngs, e.pathStyle(e.loading[i]))
		e.segmentLines = append(e.segmentLines, line)
	}
}

// renderGroupedLines draws contiguous runs of touching segments as single
// polylines, which renders smoother for finalized paths.
func (e *Editor) renderGroupedLines() {
	var current []geo.Point
	flush := func() {
		if len(current) > 1 {
			e.segmentLines = append(e.segmentLines, e.surface.AddPolyline(current, e.pathStyle(false)))
		}
		current = nil
	}

	for _, s := range e.route.Segments {
		if len(current) == 0 {
			current = append(current, s.Latlngs...)
			continue
		}
		last := current[len(current)-1]
		first := s.Latlngs[0]
		if last.Lat != first.Lat || last.Lng != first.Lng {
			flush()
			current = append(current, s.Latlngs...)
			continue
		}
		current = append(current, s.Latlngs[1:]...)
	}
	flush()
}

// renderWaypoints draws the user-placed anchor points.
func (e *Editor) renderWaypoints(draggable bool) {
	for _, s := range e.route.Segments {
		m := e.surface.AddMarker(s.RoutePoint, MarkerStyle{Icon: iconWaypoint, Draggable: draggable})
		e.waypointMarkers = append(e.waypointMarkers, m)
	}
}

// renderMiddleMarkers places a drag handle at each segment's midpoint, used
// to insert a waypoint by interacting with it.
func (e *Editor) renderMiddleMarkers() {
	for i, s := range e.route.Segments {
		if i == 0 || len(s.Latlngs) < 2 {
			continue
		}
		mid := s.Latlngs[len(s.Latlngs)/2]
		m := e.surface.AddMarker(mid, MarkerStyle{Icon: iconMiddle, Draggable: true})
		e.middleMarkers = append(e.middleMarkers, m)
	}
}

// renderPois draws the route's point-of-interest markers and records the
// id-to-handle binding in the side table.
func (e *Editor) renderPois(draggable bool) {
	for _, m := range e.route.Markers {
		handle := e.surface.AddMarker(m.Latlng, MarkerStyle{
			Icon:      m.Type,
			Label:     m.Title,
			Draggable: draggable,
		})
		e.poiHandles[m.ID] = handle
	}
}
