package editor

import (
	"github.com/samirrijal/horizonmask/internal/core/domain"
	"github.com/samirrijal/horizonmask/internal/core/mask"
)

// EventType names an input event.
type EventType string

const (
	PointerDown  EventType = "pointer_down"
	PointerMove  EventType = "pointer_move"
	PointerUp    EventType = "pointer_up"
	PointerLeave EventType = "pointer_leave"
	Add          EventType = "add"
	AddCurrent   EventType = "add_current"
	Delete       EventType = "delete"
	Reload       EventType = "reload"
)

// Event is one unit of input. Pointer coordinates are relative to the
// plotting surface. Index is required for Delete; a nil Index is rejected
// rather than read as point 0.
type Event struct {
	Type  EventType `json:"type"`
	X     float64   `json:"x,omitempty"`
	Y     float64   `json:"y,omitempty"`
	Alt   float64   `json:"alt,omitempty"`
	Az    float64   `json:"az,omitempty"`
	Index *int      `json:"index,omitempty"`
}

// DeleteAt builds a Delete event for the point at index.
func DeleteAt(index int) Event {
	return Event{Type: Delete, Index: &index}
}

// State is pushed to the client on every redraw.
type State struct {
	Session string                `json:"session"`
	Frame   mask.Frame            `json:"frame"`
	Unsaved bool                  `json:"unsaved"`
	Live    *domain.MountPosition `json:"live,omitempty"`
}

// Notice levels.
const (
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// Notice is a non-fatal message for the operator.
type Notice struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// Sink receives session output.
type Sink interface {
	State(State) error
	Frame(png []byte) error
	Notice(Notice) error
}

// Renderer turns a frame into an encoded image.
type Renderer interface {
	Render(mask.Frame) ([]byte, error)
}
