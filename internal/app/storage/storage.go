// Package storage defines the persistence contracts consumed by the
// application lifecycle core.
package storage

import (
	"context"

	"github.com/substratehq/provision/internal/app/domain/app"
	"github.com/substratehq/provision/internal/app/domain/event"
	apperrors "github.com/substratehq/provision/internal/platform/errors"
)

// ErrNotFound indicates a requested persistence record is missing.
// Callers use this to differentiate between legitimate "no such app" states
// and transport or data corruption failures.
var ErrNotFound = apperrors.New(apperrors.CodeNotFound, "app not found")

// ErrVersionConflict indicates an append raced with another writer: the
// stored snapshot version no longer matches the version the caller loaded.
// The caller should reload and retry the operation against fresh state.
var ErrVersionConflict = apperrors.New(apperrors.CodeVersionConflict, "app version conflict")

// SnapshotStore reads materialized application snapshots.
type SnapshotStore interface {
	// GetApp returns the stored snapshot for one application.
	GetApp(ctx context.Context, appID string) (app.Snapshot, error)
	// ListApps returns all stored snapshots ordered by creation time.
	ListApps(ctx context.Context) ([]app.Snapshot, error)
}

// EventStore owns the append-only application journal.
type EventStore interface {
	// AppendEvents atomically appends the events and stores the new
	// snapshot, with expectedVersion as a compare-and-swap precondition
	// against the currently stored version (0 for a new app). Sequence
	// numbers and timestamps are assigned on append; the stamped events
	// are returned. A version mismatch yields ErrVersionConflict.
	AppendEvents(ctx context.Context, snapshot app.Snapshot, events []event.Event, expectedVersion uint64) ([]event.Event, error)
	// ListEvents returns up to limit journal events with Seq > afterSeq,
	// in sequence order.
	ListEvents(ctx context.Context, appID string, afterSeq uint64, limit int) ([]event.Event, error)
}

// Store is the composite persistence interface used by the orchestration
// service.
type Store interface {
	SnapshotStore
	EventStore
}
