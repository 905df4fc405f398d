package timer

import "time"

// State is the coarse engine state derived from running and remaining time.
type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
	StateExpired State = "expired"
)

// EventType defines the type of engine event.
type EventType string

const (
	EventTick             EventType = "tick"
	EventStateChange      EventType = "state_change"
	EventSessionCompleted EventType = "session_completed"
	EventBreakFinished    EventType = "break_finished"
)

// Event represents an engine update for observers.
type Event struct {
	Type      EventType
	Mode      Mode
	State     State
	Remaining int
	At        time.Time
}
