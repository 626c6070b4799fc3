package types

type EventKind string

const (
	EventPreview    EventKind = "preview"
	EventOutput     EventKind = "output"
	EventDispatched EventKind = "dispatched"
	EventError      EventKind = "error"
)

// Event is published by a session whenever its presentation should change.
// Only the fields relevant to Kind are set.
type Event struct {
	Kind    EventKind
	Op      string
	Preview Preview
	Output  Selection
	Input   string
	Message string
}
