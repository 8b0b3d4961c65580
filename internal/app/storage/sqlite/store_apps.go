package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/substratehq/provision/internal/app/domain/app"
	"github.com/substratehq/provision/internal/app/storage"
)

const (
	infraStatusNotSelected = "not_selected"
	infraStatusSelected    = "selected"
)

// GetApp returns the stored snapshot for one application.
func (s *Store) GetApp(ctx context.Context, appID string) (app.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return app.Snapshot{}, err
	}
	if s == nil || s.sqlDB == nil {
		return app.Snapshot{}, fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(appID) == "" {
		return app.Snapshot{}, fmt.Errorf("app id is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT uuid, status, infra_status, infra_provider, infra_region, version
FROM apps
WHERE uuid = ?`, appID)

	snapshot, err := scanSnapshot(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return app.Snapshot{}, storage.ErrNotFound
		}
		return app.Snapshot{}, fmt.Errorf("get app: %w", err)
	}
	return snapshot, nil
}

// ListApps returns all stored snapshots ordered by creation time.
func (s *Store) ListApps(ctx context.Context) ([]app.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT uuid, status, infra_status, infra_provider, infra_region, version
FROM apps
ORDER BY created_at, uuid`)
	if err != nil {
		return nil, fmt.Errorf("list apps: %w", err)
	}
	defer rows.Close()

	var snapshots []app.Snapshot
	for rows.Next() {
		snapshot, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan app: %w", err)
		}
		snapshots = append(snapshots, snapshot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list apps: %w", err)
	}
	return snapshots, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanSnapshot rebuilds a snapshot from its persisted columns. Persisted data
// is untrusted: statuses and providers are restored verbatim so lifecycle
// reconstruction can route broken rows to the corrupted variant.
func scanSnapshot(row rowScanner) (app.Snapshot, error) {
	var (
		uuid          string
		status        string
		infraStatus   string
		infraProvider string
		infraRegion   string
		version       int64
	)
	if err := row.Scan(&uuid, &status, &infraStatus, &infraProvider, &infraRegion, &version); err != nil {
		return app.Snapshot{}, err
	}

	selected := infraStatus == infraStatusSelected
	return app.Snapshot{
		UUID:    uuid,
		Status:  app.Status(status),
		Infra:   app.RestoredInfrastructure(selected, app.Provider(infraProvider), infraRegion),
		Version: uint64(version),
	}, nil
}
