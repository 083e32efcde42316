package events

import "time"

// DomainEvent is raised by aggregates when state changes worth broadcasting occur.
type DomainEvent interface {
	EventName() string
	AggregateID() string
	OccurredAt() time.Time
}

// EventRecorder collects pending domain events; embed it into aggregates.
type EventRecorder struct {
	pending []DomainEvent
}

// Record appends an event to the pending list.
func (r *EventRecorder) Record(event DomainEvent) {
	r.pending = append(r.pending, event)
}

// PendingEvents returns events recorded since the last clear.
func (r *EventRecorder) PendingEvents() []DomainEvent {
	out := make([]DomainEvent, len(r.pending))
	copy(out, r.pending)
	return out
}

// ClearEvents drops the pending list, typically after staging to an outbox.
func (r *EventRecorder) ClearEvents() {
	r.pending = nil
}
