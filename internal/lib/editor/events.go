package editor

import (
	"fmt"

	"github.com/openhiking/trailmap/internal/lib/geo"
)

// StateName identifies an interaction state of the editing state machine.
type StateName string

const (
	StateHidden       StateName = "Hidden"
	StateReadOnly     StateName = "ReadOnly"
	StateRecording    StateName = "Recording"
	StateRecordingPoi StateName = "RecordingPoi"
	StateEditRoute    StateName = "EditRoute"
	StateEditPoi      StateName = "EditPoi"
)

// ParseStateName validates a persisted state name. An unknown name is a
// caller bug, not a recoverable condition.
func ParseStateName(name string) (StateName, error) {
	switch StateName(name) {
	case StateHidden, StateReadOnly, StateRecording, StateRecordingPoi, StateEditRoute, StateEditPoi:
		return StateName(name), nil
	}
	return "", fmt.Errorf("unknown editing state %q", name)
}

// EventKind classifies a pointer or location event delivered by the surface
// wiring.
type EventKind int

const (
	// EventClick is a pointer click on the map at Latlng.
	EventClick EventKind = iota
	// EventMove is a pointer move over the map at Latlng.
	EventMove
	// EventWaypointDragStart begins dragging waypoint Index.
	EventWaypointDragStart
	// EventWaypointDrag moves the dragged waypoint to Latlng.
	EventWaypointDrag
	// EventWaypointDragEnd commits the drag at Latlng.
	EventWaypointDragEnd
	// EventWaypointClick is a click on the waypoint Index itself; in the
	// route editing state this removes the waypoint.
	EventWaypointClick
	// EventMiddleMarkerDrag converts segment Index's middle marker into a
	// real waypoint at Latlng, splitting the segment.
	EventMiddleMarkerDrag
	// EventMarkerDrag moves the point-of-interest marker MarkerID to Latlng.
	EventMarkerDrag
	// EventMarkerClick selects the point-of-interest marker MarkerID.
	EventMarkerClick
	// EventLocationUpdate delivers a device position while recording.
	EventLocationUpdate
)

// Event is one input to the state machine. Index and MarkerID are set only
// for the event kinds that need them.
type Event struct {
	Kind     EventKind
	Latlng   geo.Point
	Index    int
	MarkerID string
}

// state is one variant of the editing state machine. Transitions always run
// the old state's clear before the new state's initialize; clear must be
// safe to call even if initialize partially failed.
type state interface {
	name() StateName
	initialize()
	clear()
	handle(ev Event)
}
