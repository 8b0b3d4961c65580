// Package app holds the application snapshot model and the pure reducer that
// folds lifecycle events onto it.
package app

// Snapshot captures the materialized state of one application, as opposed to
// its event history. It is the unit of persistence and the input to
// lifecycle reconstruction.
type Snapshot struct {
	// UUID is the opaque identifier, stable for the application lifetime.
	UUID string
	// Status is the current lifecycle label.
	Status Status
	// Infra records whether and where infrastructure has been selected.
	Infra Infrastructure
	// Version counts applied events, starting at 1 for app.created. The
	// persistence layer uses it as a compare-and-swap precondition.
	Version uint64
}

// Valid reports whether the snapshot honors the structural invariant:
// an active application always has infrastructure selected.
func (s Snapshot) Valid() bool {
	if s.UUID == "" || !s.Status.IsValid() {
		return false
	}
	if !s.Infra.Valid() {
		return false
	}
	if s.Status == StatusActive && !s.Infra.Selected() {
		return false
	}
	return true
}
