package app

import (
	"encoding/json"

	"github.com/substratehq/provision/internal/app/domain/event"
)

// Reduce folds one event onto a snapshot and returns the next snapshot.
//
// Reduce is pure, total and deterministic: it never errors and performs no
// I/O. An event applied outside its legal precondition does not reject; it
// forces the status to corrupted and leaves infrastructure untouched, so the
// violation is recorded rather than thrown. Unknown event types are a no-op
// for forward compatibility with journals written by newer code.
//
// Version increments once per journal event, including corrupting and no-op
// applications, keeping the snapshot version in lockstep with the journal
// sequence.
func Reduce(s Snapshot, evt event.Event) Snapshot {
	switch evt.Type {
	case event.TypeAppCreated:
		// Legal only as the first event of a journal.
		if s.Status != StatusUnspecified {
			return corrupt(s)
		}
		return Snapshot{
			UUID:    evt.AppID,
			Status:  StatusNew,
			Infra:   Infrastructure{},
			Version: s.Version + 1,
		}

	case event.TypeInfrastructureSelected:
		if s.Status != StatusNew || s.Infra.Selected() {
			return corrupt(s)
		}
		var payload event.InfrastructureSelectedPayload
		_ = json.Unmarshal(evt.PayloadJSON, &payload)
		provider, ok := ParseProvider(payload.Provider)
		if !ok {
			return corrupt(s)
		}
		selected := RestoredInfrastructure(true, provider, payload.Region)
		if !selected.Valid() {
			return corrupt(s)
		}
		s.Infra = selected
		s.Version++
		return s

	case event.TypeBuildRequested:
		// Recorded for the provisioning collaborator; state unchanged.
		s.Version++
		return s

	case event.TypeAppActivated:
		if s.Status != StatusNew || !s.Infra.Selected() {
			return corrupt(s)
		}
		s.Status = StatusActive
		s.Version++
		return s

	case event.TypeAppDeleted:
		if s.Status != StatusNew && s.Status != StatusActive {
			return corrupt(s)
		}
		s.Status = StatusDeleted
		s.Version++
		return s

	default:
		// Unknown event type: an older reducer keeps the snapshot as-is.
		s.Version++
		return s
	}
}

// corrupt records an out-of-protocol event. Infrastructure is preserved so
// operators can still see what the entity pointed at before it broke.
func corrupt(s Snapshot) Snapshot {
	s.Status = StatusCorrupted
	s.Version++
	return s
}
