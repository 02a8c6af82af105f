package events

import "time"

// Kind discriminates event types without reflection.
type Kind string

type Event interface {
	Kind() Kind
	Timestamp() time.Time
}

// Base carries the kind tag and emission time shared by every event.
// Embed it and construct with [NewBase].
type Base struct {
	kind      Kind
	timestamp time.Time
}

func NewBase(kind Kind) Base {
	return Base{kind: kind, timestamp: time.Now()}
}

func (b Base) Kind() Kind {
	return b.kind
}

func (b Base) Timestamp() time.Time {
	return b.timestamp
}
