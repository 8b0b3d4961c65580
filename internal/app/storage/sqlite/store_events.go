package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/substratehq/provision/internal/app/domain/app"
	"github.com/substratehq/provision/internal/app/domain/event"
	"github.com/substratehq/provision/internal/app/storage"
)

// AppendEvents atomically appends a batch of events and stores the new
// snapshot. The stored version acts as a compare-and-swap guard: when it no
// longer equals expectedVersion another writer won the race and the caller
// gets storage.ErrVersionConflict.
func (s *Store) AppendEvents(ctx context.Context, snapshot app.Snapshot, events []event.Event, expectedVersion uint64) ([]event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(snapshot.UUID) == "" {
		return nil, fmt.Errorf("app id is required")
	}
	if len(events) == 0 {
		return nil, fmt.Errorf("at least one event is required")
	}
	if snapshot.Version != expectedVersion+uint64(len(events)) {
		return nil, fmt.Errorf("snapshot version %d does not cover %d events over expected version %d",
			snapshot.Version, len(events), expectedVersion)
	}
	for _, evt := range events {
		if !evt.Type.IsValid() {
			return nil, fmt.Errorf("event type is required")
		}
		if evt.AppID != snapshot.UUID {
			return nil, fmt.Errorf("event app id %q does not match snapshot %q", evt.AppID, snapshot.UUID)
		}
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var storedVersion uint64
	row := tx.QueryRowContext(ctx, "SELECT version FROM apps WHERE uuid = ?", snapshot.UUID)
	switch err := row.Scan(&storedVersion); {
	case errors.Is(err, sql.ErrNoRows):
		storedVersion = 0
	case err != nil:
		return nil, fmt.Errorf("read stored version: %w", err)
	}
	if storedVersion != expectedVersion {
		return nil, storage.ErrVersionConflict
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	stamped := make([]event.Event, len(events))
	for i, evt := range events {
		evt.Seq = expectedVersion + uint64(i) + 1
		if evt.Timestamp.IsZero() {
			evt.Timestamp = now
		}
		evt.Timestamp = evt.Timestamp.UTC().Truncate(time.Millisecond)

		if _, err := tx.ExecContext(ctx, `
INSERT INTO app_events (app_id, seq, timestamp, event_type, payload_json)
VALUES (?, ?, ?, ?, ?)`,
			evt.AppID, int64(evt.Seq), toMillis(evt.Timestamp), string(evt.Type), evt.PayloadJSON,
		); err != nil {
			return nil, fmt.Errorf("append event %s: %w", evt.Type, err)
		}
		stamped[i] = evt
	}

	infraStatus := infraStatusNotSelected
	if snapshot.Infra.Selected() {
		infraStatus = infraStatusSelected
	}
	if _, err := tx.ExecContext(ctx, `
INSERT INTO apps (uuid, status, infra_status, infra_provider, infra_region, version, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(uuid) DO UPDATE SET
    status = excluded.status,
    infra_status = excluded.infra_status,
    infra_provider = excluded.infra_provider,
    infra_region = excluded.infra_region,
    version = excluded.version,
    updated_at = excluded.updated_at`,
		snapshot.UUID, string(snapshot.Status), infraStatus,
		string(snapshot.Infra.Provider()), snapshot.Infra.Region(),
		int64(snapshot.Version), toMillis(now), toMillis(now),
	); err != nil {
		return nil, fmt.Errorf("store snapshot: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit append: %w", err)
	}
	return stamped, nil
}

// ListEvents returns up to limit journal events with Seq > afterSeq in order.
func (s *Store) ListEvents(ctx context.Context, appID string, afterSeq uint64, limit int) ([]event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(appID) == "" {
		return nil, fmt.Errorf("app id is required")
	}
	if limit <= 0 {
		limit = 200
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT app_id, seq, timestamp, event_type, payload_json
FROM app_events
WHERE app_id = ? AND seq > ?
ORDER BY seq
LIMIT ?`, appID, int64(afterSeq), limit)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []event.Event
	for rows.Next() {
		var (
			evt       event.Event
			seq       int64
			timestamp int64
			eventType string
		)
		if err := rows.Scan(&evt.AppID, &seq, &timestamp, &eventType, &evt.PayloadJSON); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		evt.Seq = uint64(seq)
		evt.Timestamp = fromMillis(timestamp)
		evt.Type = event.Type(eventType)
		events = append(events, evt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}
