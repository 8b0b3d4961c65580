// Package service orchestrates lifecycle operations against persistence and
// the provisioning collaborator.
//
// Every mutating call follows the same shape: load the stored snapshot,
// reconstruct the typestate variant, run the requested operation, append the
// produced events with the pre-transition version as the compare-and-swap
// precondition, then hand the stamped batch to provisioning.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/substratehq/provision/internal/app/domain/app"
	"github.com/substratehq/provision/internal/app/domain/event"
	"github.com/substratehq/provision/internal/app/domain/lifecycle"
	"github.com/substratehq/provision/internal/app/domain/replay"
	"github.com/substratehq/provision/internal/app/provisioning"
	"github.com/substratehq/provision/internal/app/storage"
	apperrors "github.com/substratehq/provision/internal/platform/errors"
	"github.com/substratehq/provision/internal/platform/id"
)

const tracerName = "github.com/substratehq/provision/internal/app/service"

// Config wires the service dependencies.
type Config struct {
	// Store provides snapshot and journal persistence. Required.
	Store storage.Store
	// Dispatcher forwards appended events to provisioning. Optional.
	Dispatcher *provisioning.Dispatcher
	// NewID overrides identifier generation. Defaults to id.NewID.
	NewID func() (string, error)
}

// Service exposes the application lifecycle operations.
type Service struct {
	store      storage.Store
	dispatcher *provisioning.Dispatcher
	newID      func() (string, error)
	tracer     trace.Tracer
}

// New builds a Service from its configuration.
func New(cfg Config) (*Service, error) {
	if cfg.Store == nil {
		return nil, errors.New("store is required")
	}
	newID := cfg.NewID
	if newID == nil {
		newID = id.NewID
	}
	return &Service{
		store:      cfg.Store,
		dispatcher: cfg.Dispatcher,
		newID:      newID,
		tracer:     otel.Tracer(tracerName),
	}, nil
}

// CreateApp starts a new application lifecycle and persists its first event.
func (s *Service) CreateApp(ctx context.Context) (app.Snapshot, error) {
	ctx, span := s.tracer.Start(ctx, "provision.CreateApp")
	defer span.End()

	appID, err := s.newID()
	if err != nil {
		return app.Snapshot{}, fmt.Errorf("generate app id: %w", err)
	}
	entity, err := lifecycle.Create(appID)
	if err != nil {
		return app.Snapshot{}, err
	}
	return s.persist(ctx, entity.Snapshot(), entity.Events(), 0)
}

// SelectInfrastructure chooses infrastructure for an app that has none yet.
func (s *Service) SelectInfrastructure(ctx context.Context, appID string, infra app.Infrastructure) (app.Snapshot, error) {
	ctx, span := s.tracer.Start(ctx, "provision.SelectInfrastructure")
	defer span.End()

	if !infra.Selected() {
		return app.Snapshot{}, apperrors.New(apperrors.CodeAppInvalidProvider, "infrastructure selection is required")
	}

	current, entity, err := s.load(ctx, appID)
	if err != nil {
		return app.Snapshot{}, err
	}
	fresh, ok := entity.(lifecycle.New)
	if !ok {
		return app.Snapshot{}, stateError(current, "select infrastructure")
	}

	next := fresh.SelectInfrastructure(infra)
	return s.persist(ctx, next.Snapshot(), next.Events(), current.Version)
}

// RequestBuild records a build request for the selected infrastructure.
func (s *Service) RequestBuild(ctx context.Context, appID string) (app.Snapshot, error) {
	ctx, span := s.tracer.Start(ctx, "provision.RequestBuild")
	defer span.End()

	current, entity, err := s.load(ctx, appID)
	if err != nil {
		return app.Snapshot{}, err
	}
	selected, ok := entity.(lifecycle.NotActivated)
	if !ok {
		return app.Snapshot{}, stateError(current, "request build")
	}

	next := selected.RequestBuild()
	return s.persist(ctx, next.Snapshot(), next.Events(), current.Version)
}

// ActivateApp marks an app with selected infrastructure as running.
func (s *Service) ActivateApp(ctx context.Context, appID string) (app.Snapshot, error) {
	ctx, span := s.tracer.Start(ctx, "provision.ActivateApp")
	defer span.End()

	current, entity, err := s.load(ctx, appID)
	if err != nil {
		return app.Snapshot{}, err
	}
	selected, ok := entity.(lifecycle.NotActivated)
	if !ok {
		return app.Snapshot{}, stateError(current, "activate")
	}

	next := selected.Activate()
	return s.persist(ctx, next.Snapshot(), next.Events(), current.Version)
}

// DeleteApp removes an app from any non-deleted lifecycle state.
func (s *Service) DeleteApp(ctx context.Context, appID string) (app.Snapshot, error) {
	ctx, span := s.tracer.Start(ctx, "provision.DeleteApp")
	defer span.End()

	current, entity, err := s.load(ctx, appID)
	if err != nil {
		return app.Snapshot{}, err
	}

	var next lifecycle.Deleted
	switch v := entity.(type) {
	case lifecycle.New:
		next = v.Delete()
	case lifecycle.NotActivated:
		next = v.Delete()
	case lifecycle.Active:
		next = v.Delete()
	default:
		return app.Snapshot{}, stateError(current, "delete")
	}
	return s.persist(ctx, next.Snapshot(), next.Events(), current.Version)
}

// GetApp returns the stored snapshot for one application.
func (s *Service) GetApp(ctx context.Context, appID string) (app.Snapshot, error) {
	ctx, span := s.tracer.Start(ctx, "provision.GetApp")
	defer span.End()

	appID = strings.TrimSpace(appID)
	if appID == "" {
		return app.Snapshot{}, apperrors.New(apperrors.CodeAppEmptyID, "app id is required")
	}
	return s.store.GetApp(ctx, appID)
}

// ListApps returns all stored snapshots.
func (s *Service) ListApps(ctx context.Context) ([]app.Snapshot, error) {
	ctx, span := s.tracer.Start(ctx, "provision.ListApps")
	defer span.End()

	return s.store.ListApps(ctx)
}

// ReplayApp rebuilds a snapshot from the journal, optionally stopping at
// untilSeq. The stored snapshot is not consulted; the fold result depends
// only on the journal.
func (s *Service) ReplayApp(ctx context.Context, appID string, untilSeq uint64) (replay.Result, error) {
	ctx, span := s.tracer.Start(ctx, "provision.ReplayApp")
	defer span.End()

	return replay.Replay(ctx, s.store, appID, replay.Options{UntilSeq: untilSeq})
}

// load fetches the stored snapshot and reconstructs its typestate variant.
func (s *Service) load(ctx context.Context, appID string) (app.Snapshot, lifecycle.App, error) {
	appID = strings.TrimSpace(appID)
	if appID == "" {
		return app.Snapshot{}, nil, apperrors.New(apperrors.CodeAppEmptyID, "app id is required")
	}
	snapshot, err := s.store.GetApp(ctx, appID)
	if err != nil {
		return app.Snapshot{}, nil, err
	}
	return snapshot, lifecycle.FromPersisted(snapshot), nil
}

// persist appends the produced events and forwards them to provisioning.
func (s *Service) persist(ctx context.Context, snapshot app.Snapshot, events []event.Event, expectedVersion uint64) (app.Snapshot, error) {
	stamped, err := s.store.AppendEvents(ctx, snapshot, events, expectedVersion)
	if err != nil {
		return app.Snapshot{}, err
	}
	s.dispatcher.Dispatch(stamped)
	return snapshot, nil
}

// stateError reports an operation attempted against a variant that does not
// expose it. Corrupted apps get their own code so operators can tell a
// broken entity from a normal lifecycle refusal.
func stateError(snapshot app.Snapshot, operation string) error {
	metadata := map[string]string{
		"app_id": snapshot.UUID,
		"status": string(snapshot.Status),
	}
	if _, ok := lifecycle.FromPersisted(snapshot).(lifecycle.Corrupted); ok {
		return apperrors.WithMetadata(apperrors.CodeAppCorrupted,
			fmt.Sprintf("cannot %s: app is corrupted", operation), metadata)
	}
	return apperrors.WithMetadata(apperrors.CodeAppStateDisallowsOp,
		fmt.Sprintf("cannot %s in status %q", operation, snapshot.Status), metadata)
}
