package lifecycle

import (
	"fmt"
	"strings"

	"github.com/substratehq/provision/internal/app/domain/app"
	"github.com/substratehq/provision/internal/app/domain/event"
	apperrors "github.com/substratehq/provision/internal/platform/errors"
)

// App is the closed set of lifecycle variants. Only the five variant types
// in this package implement it.
type App interface {
	// Snapshot returns the wrapped application snapshot.
	Snapshot() app.Snapshot
	// Events returns the events produced by the operation that built this
	// variant instance. Empty for variants reconstructed from persistence.
	Events() []event.Event

	variant()
}

// New is an application whose infrastructure has not been selected yet.
type New struct {
	snapshot app.Snapshot
	events   []event.Event
}

// NotActivated is an application with infrastructure selected but not active.
type NotActivated struct {
	snapshot app.Snapshot
	events   []event.Event
}

// Active is a running application.
type Active struct {
	snapshot app.Snapshot
	events   []event.Event
}

// Deleted is a terminally deleted application.
type Deleted struct {
	snapshot app.Snapshot
	events   []event.Event
}

// Corrupted is the terminal variant for snapshots that violate the
// structural invariant. It exposes no operations; recovery is an
// administrative concern outside this package.
type Corrupted struct {
	snapshot app.Snapshot
}

func (v New) variant()          {}
func (v NotActivated) variant() {}
func (v Active) variant()       {}
func (v Deleted) variant()      {}
func (v Corrupted) variant()    {}

func (v New) Snapshot() app.Snapshot          { return v.snapshot }
func (v NotActivated) Snapshot() app.Snapshot { return v.snapshot }
func (v Active) Snapshot() app.Snapshot       { return v.snapshot }
func (v Deleted) Snapshot() app.Snapshot      { return v.snapshot }
func (v Corrupted) Snapshot() app.Snapshot    { return v.snapshot }

func (v New) Events() []event.Event          { return v.events }
func (v NotActivated) Events() []event.Event { return v.events }
func (v Active) Events() []event.Event       { return v.events }
func (v Deleted) Events() []event.Event      { return v.events }
func (v Corrupted) Events() []event.Event    { return nil }

// Create starts a new application lifecycle. It emits app.created and is the
// only way to obtain a New variant other than reconstruction.
func Create(uuid string) (New, error) {
	uuid = strings.TrimSpace(uuid)
	if uuid == "" {
		return New{}, apperrors.New(apperrors.CodeAppEmptyID, "app id is required")
	}

	evt := event.NewAppCreated(uuid)
	next := reduceExpecting(app.Snapshot{}, evt, app.StatusNew)
	return New{snapshot: next, events: []event.Event{evt}}, nil
}

// SelectInfrastructure chooses the infrastructure the application will run
// on. The infra value must come from app.AWS or app.Azure; passing the zero
// value is a programming error.
func (v New) SelectInfrastructure(infra app.Infrastructure) NotActivated {
	if !infra.Selected() {
		panic("lifecycle: SelectInfrastructure requires selected infrastructure")
	}

	evt := event.NewInfrastructureSelected(v.snapshot.UUID, string(infra.Provider()), infra.Region())
	next := reduceExpecting(v.snapshot, evt, app.StatusNew)
	return NotActivated{snapshot: next, events: []event.Event{evt}}
}

// Delete removes an application before its infrastructure was selected.
func (v New) Delete() Deleted {
	evt := event.NewAppDeleted(v.snapshot.UUID)
	next := reduceExpecting(v.snapshot, evt, app.StatusDeleted)
	return Deleted{snapshot: next, events: []event.Event{evt}}
}

// RequestBuild records a provisioning build request for the selected
// infrastructure. The snapshot state does not change; the emitted event is
// consumed asynchronously by the provisioning collaborator.
func (v NotActivated) RequestBuild() NotActivated {
	infra := v.snapshot.Infra
	evt := event.NewBuildRequested(v.snapshot.UUID, string(infra.Provider()), infra.Region())
	next := reduceExpecting(v.snapshot, evt, app.StatusNew)
	return NotActivated{snapshot: next, events: []event.Event{evt}}
}

// Activate marks the application as running on its selected infrastructure.
func (v NotActivated) Activate() Active {
	evt := event.NewAppActivated(v.snapshot.UUID)
	next := reduceExpecting(v.snapshot, evt, app.StatusActive)
	return Active{snapshot: next, events: []event.Event{evt}}
}

// Delete removes an application that was never activated.
func (v NotActivated) Delete() Deleted {
	evt := event.NewAppDeleted(v.snapshot.UUID)
	next := reduceExpecting(v.snapshot, evt, app.StatusDeleted)
	return Deleted{snapshot: next, events: []event.Event{evt}}
}

// Delete stops and removes a running application. Infrastructure selection
// is kept on the snapshot for audit purposes.
func (v Active) Delete() Deleted {
	evt := event.NewAppDeleted(v.snapshot.UUID)
	next := reduceExpecting(v.snapshot, evt, app.StatusDeleted)
	return Deleted{snapshot: next, events: []event.Event{evt}}
}

// FromPersisted maps an arbitrary persisted snapshot to its variant. It is
// total: snapshots that match no legal shape, including those already marked
// corrupted, come back as Corrupted with the snapshot preserved verbatim.
func FromPersisted(snapshot app.Snapshot) App {
	infra := snapshot.Infra

	switch snapshot.Status {
	case app.StatusNew:
		if !infra.Selected() && infra.Valid() && snapshot.UUID != "" {
			return New{snapshot: snapshot}
		}
		if infra.Selected() && infra.Valid() && snapshot.UUID != "" {
			return NotActivated{snapshot: snapshot}
		}
	case app.StatusActive:
		if infra.Selected() && infra.Valid() && snapshot.UUID != "" {
			return Active{snapshot: snapshot}
		}
	case app.StatusDeleted:
		if snapshot.UUID != "" {
			return Deleted{snapshot: snapshot}
		}
	}
	return Corrupted{snapshot: snapshot}
}

// reduceExpecting folds the event and asserts the reducer agreed with the
// typestate about the outcome. A mismatch means the reducer and the variant
// tables drifted apart, which is a defect, not a runtime condition.
func reduceExpecting(current app.Snapshot, evt event.Event, want app.Status) app.Snapshot {
	next := app.Reduce(current, evt)
	if next.Status != want {
		panic(fmt.Sprintf("lifecycle: %s on status %q produced %q, want %q",
			evt.Type, current.Status, next.Status, want))
	}
	if !next.Valid() {
		panic(fmt.Sprintf("lifecycle: %s produced structurally invalid snapshot %+v", evt.Type, next))
	}
	return next
}
