package editor

import (
	"github.com/openhiking/trailmap/internal/lib/geo"
	"github.com/openhiking/trailmap/internal/lib/route"
)

// defaultPoiType is the icon category for freshly placed markers, before the
// user picks one in the editing popup.
const defaultPoiType = "star"

// addPoi places a new point-of-interest marker, unless the click lands on an
// existing marker within snapping range, in which case that marker is
// selected for editing instead.
func addPoi(e *Editor, latlng geo.Point) {
	points := make([]geo.Point, len(e.route.Markers))
	for i, m := range e.route.Markers {
		points[i] = m.Latlng
	}
	if hit := e.snapper().SnapToPoint(latlng, points); hit.Matched() {
		notifyMarkerSelected(e, e.route.Markers[hit.MatchedIndex])
		return
	}

	e.route.Markers = append(e.route.Markers, route.NewMarker(latlng, "", defaultPoiType))
	e.refreshView()
	e.raiseDataChanged()
}

func selectPoi(e *Editor, markerID string) {
	for _, m := range e.route.Markers {
		if m.ID == markerID {
			notifyMarkerSelected(e, m)
			return
		}
	}
}

func movePoi(e *Editor, markerID string, latlng geo.Point) {
	for i := range e.route.Markers {
		if e.route.Markers[i].ID != markerID {
			continue
		}
		e.route.Markers[i].Latlng = latlng
		if handle, ok := e.poiHandles[markerID]; ok {
			handle.SetLatlng(latlng)
		}
		e.raiseDataChanged()
		return
	}
}

func notifyMarkerSelected(e *Editor, m route.Marker) {
	if e.markerSelected != nil {
		e.markerSelected(m)
	}
}

// UpdateMarker replaces a marker's editable fields (title, description,
// type, attachments) after the popup closes. Unknown ids are ignored.
func (e *Editor) UpdateMarker(updated route.Marker) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range e.route.Markers {
		if e.route.Markers[i].ID != updated.ID {
			continue
		}
		updated.Latlng = e.route.Markers[i].Latlng
		e.route.Markers[i] = updated
		e.refreshView()
		e.raiseDataChanged()
		return
	}
}

// RemoveMarker deletes a point-of-interest marker by id.
func (e *Editor) RemoveMarker(markerID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range e.route.Markers {
		if e.route.Markers[i].ID != markerID {
			continue
		}
		e.route.Markers = append(e.route.Markers[:i], e.route.Markers[i+1:]...)
		e.refreshView()
		e.raiseDataChanged()
		return
	}
}
