package event

import (
	"strings"
	"time"
)

// Type identifies the type of an application lifecycle event.
type Type string

// Application lifecycle events.
const (
	// TypeAppCreated records the creation of an application.
	TypeAppCreated Type = "app.created"
	// TypeInfrastructureSelected records the choice of existing infrastructure.
	TypeInfrastructureSelected Type = "app.infrastructure_selected"
	// TypeBuildRequested records a request to build the application on its infrastructure.
	TypeBuildRequested Type = "app.build_requested"
	// TypeAppActivated records the activation of an application.
	TypeAppActivated Type = "app.activated"
	// TypeAppDeleted records the deletion of an application.
	TypeAppDeleted Type = "app.deleted"
)

// Event represents an immutable record in the application journal.
//
// Events are write-once and ordered per application; folding them from the
// start of the journal rebuilds the application snapshot.
type Event struct {
	// AppID is the application this event belongs to.
	AppID string
	// Seq is the event sequence number within the application (starts at 1).
	// Assigned by storage on append.
	Seq uint64
	// Timestamp is when the event occurred. Zero until storage stamps it
	// on append.
	Timestamp time.Time
	// Type identifies the kind of event.
	Type Type
	// PayloadJSON holds event-specific data as JSON.
	PayloadJSON []byte
}

// IsValid reports whether the event type is usable.
func (t Type) IsValid() bool {
	return strings.TrimSpace(string(t)) != ""
}

// Domain returns the domain prefix of the event type (e.g., "app").
func (t Type) Domain() string {
	for i, c := range t {
		if c == '.' {
			return string(t[:i])
		}
	}
	return string(t)
}
