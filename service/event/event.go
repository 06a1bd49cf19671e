package event

import "time"

// Meta is the envelope shared by all node events.
type Meta struct {
	Node    string    `json:"node"`
	Session string    `json:"session,omitempty"`
	At      time.Time `json:"at"`
}

// Event couples an envelope with a typed payload.
type Event[T any] struct {
	Meta Meta `json:"meta"`
	Data T    `json:"data"`
}

// NewEvent builds an event.
func NewEvent[T any](meta Meta, data T) *Event[T] {
	return &Event[T]{Meta: meta, Data: data}
}
