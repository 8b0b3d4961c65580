package lifecycle

import (
	"reflect"
	"testing"

	"github.com/substratehq/provision/internal/app/domain/app"
	"github.com/substratehq/provision/internal/app/domain/event"
)

func mustCreate(t *testing.T, uuid string) New {
	t.Helper()
	entity, err := Create(uuid)
	if err != nil {
		t.Fatalf("create app: %v", err)
	}
	return entity
}

func mustAWS(t *testing.T, region string) app.Infrastructure {
	t.Helper()
	infra, err := app.AWS(region)
	if err != nil {
		t.Fatalf("aws infrastructure: %v", err)
	}
	return infra
}

func TestCreateEmitsAppCreated(t *testing.T) {
	entity := mustCreate(t, "u1")

	snapshot := entity.Snapshot()
	if snapshot.Status != app.StatusNew {
		t.Fatalf("status = %s, want %s", snapshot.Status, app.StatusNew)
	}
	if snapshot.Infra.Selected() {
		t.Fatal("expected fresh app without infrastructure")
	}
	if snapshot.Version != 1 {
		t.Fatalf("version = %d, want 1", snapshot.Version)
	}

	events := entity.Events()
	if len(events) != 1 || events[0].Type != event.TypeAppCreated {
		t.Fatalf("events = %v, want single app.created", events)
	}
}

func TestCreateRejectsEmptyID(t *testing.T) {
	if _, err := Create(""); err == nil {
		t.Fatal("expected error for empty app id")
	}
	if _, err := Create("   "); err == nil {
		t.Fatal("expected error for blank app id")
	}
}

func TestSelectInfrastructureAWS(t *testing.T) {
	entity := mustCreate(t, "u1")

	selected := entity.SelectInfrastructure(mustAWS(t, "us-east-1"))

	snapshot := selected.Snapshot()
	if snapshot.Status != app.StatusNew {
		t.Fatalf("status = %s, want %s", snapshot.Status, app.StatusNew)
	}
	if snapshot.Infra.Provider() != app.ProviderAWS {
		t.Fatalf("provider = %s, want %s", snapshot.Infra.Provider(), app.ProviderAWS)
	}

	events := selected.Events()
	if len(events) != 1 || events[0].Type != event.TypeInfrastructureSelected {
		t.Fatalf("events = %v, want single app.infrastructure_selected", events)
	}
}

func TestSelectInfrastructurePanicsOnZeroValue(t *testing.T) {
	entity := mustCreate(t, "u1")

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for unselected infrastructure")
		}
	}()
	entity.SelectInfrastructure(app.Infrastructure{})
}

func TestActivate(t *testing.T) {
	selected := mustCreate(t, "u1").SelectInfrastructure(mustAWS(t, "us-east-1"))

	active := selected.Activate()

	snapshot := active.Snapshot()
	if snapshot.Status != app.StatusActive {
		t.Fatalf("status = %s, want %s", snapshot.Status, app.StatusActive)
	}
	if snapshot.Infra.Provider() != app.ProviderAWS {
		t.Fatalf("provider = %s, want %s", snapshot.Infra.Provider(), app.ProviderAWS)
	}

	events := active.Events()
	if len(events) != 1 || events[0].Type != event.TypeAppActivated {
		t.Fatalf("events = %v, want single app.activated", events)
	}
}

func TestRequestBuildKeepsStateAndEmitsEvent(t *testing.T) {
	selected := mustCreate(t, "u1").SelectInfrastructure(mustAWS(t, "eu-west-1"))
	before := selected.Snapshot()

	built := selected.RequestBuild()

	snapshot := built.Snapshot()
	if snapshot.Status != before.Status || snapshot.Infra != before.Infra {
		t.Fatal("expected build request to leave state unchanged")
	}
	if snapshot.Version != before.Version+1 {
		t.Fatalf("version = %d, want %d", snapshot.Version, before.Version+1)
	}

	events := built.Events()
	if len(events) != 1 || events[0].Type != event.TypeBuildRequested {
		t.Fatalf("events = %v, want single app.build_requested", events)
	}
}

func TestDeleteFromEachVariant(t *testing.T) {
	fresh := mustCreate(t, "u1").Delete()
	if fresh.Snapshot().Status != app.StatusDeleted {
		t.Fatalf("delete from new: status = %s", fresh.Snapshot().Status)
	}

	notActivated := mustCreate(t, "u2").SelectInfrastructure(app.Azure()).Delete()
	if notActivated.Snapshot().Status != app.StatusDeleted {
		t.Fatalf("delete from not-activated: status = %s", notActivated.Snapshot().Status)
	}
	if notActivated.Snapshot().Infra.Provider() != app.ProviderAzure {
		t.Fatal("expected deletion to keep infrastructure")
	}

	active := mustCreate(t, "u3").SelectInfrastructure(mustAWS(t, "us-east-1")).Activate().Delete()
	snapshot := active.Snapshot()
	if snapshot.Status != app.StatusDeleted {
		t.Fatalf("delete from active: status = %s", snapshot.Status)
	}
	if snapshot.Infra.Provider() != app.ProviderAWS {
		t.Fatal("expected deletion to keep infrastructure")
	}

	events := active.Events()
	if len(events) != 1 || events[0].Type != event.TypeAppDeleted {
		t.Fatalf("events = %v, want single app.deleted", events)
	}
}

func TestFromPersistedMapsLegalShapes(t *testing.T) {
	aws := mustAWS(t, "us-east-1")

	tests := []struct {
		name     string
		snapshot app.Snapshot
		want     any
	}{
		{"new without infra", app.Snapshot{UUID: "u1", Status: app.StatusNew, Version: 1}, New{}},
		{"new with infra", app.Snapshot{UUID: "u1", Status: app.StatusNew, Infra: aws, Version: 2}, NotActivated{}},
		{"active", app.Snapshot{UUID: "u1", Status: app.StatusActive, Infra: aws, Version: 3}, Active{}},
		{"deleted", app.Snapshot{UUID: "u1", Status: app.StatusDeleted, Infra: aws, Version: 4}, Deleted{}},
		{"active without infra", app.Snapshot{UUID: "u1", Status: app.StatusActive, Version: 2}, Corrupted{}},
		{"corrupted", app.Snapshot{UUID: "u1", Status: app.StatusCorrupted, Version: 2}, Corrupted{}},
		{"unknown status", app.Snapshot{UUID: "u1", Status: app.Status("weird"), Version: 1}, Corrupted{}},
		{"missing uuid", app.Snapshot{Status: app.StatusNew, Version: 1}, Corrupted{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			entity := FromPersisted(tc.snapshot)
			if reflect.TypeOf(entity) != reflect.TypeOf(tc.want) {
				t.Fatalf("variant = %T, want %T", entity, tc.want)
			}
			if entity.Snapshot() != tc.snapshot {
				t.Fatalf("snapshot round-trip changed: %+v vs %+v", entity.Snapshot(), tc.snapshot)
			}
			if len(entity.Events()) != 0 {
				t.Fatal("reconstructed variants must carry no events")
			}
		})
	}
}

func TestFromPersistedIsIdempotent(t *testing.T) {
	snapshots := []app.Snapshot{
		{UUID: "u1", Status: app.StatusNew, Version: 1},
		{UUID: "u1", Status: app.StatusActive, Infra: app.Azure(), Version: 3},
		{UUID: "u1", Status: app.StatusActive, Version: 2},
		{UUID: "u1", Status: app.StatusCorrupted, Version: 5},
	}
	for _, snapshot := range snapshots {
		first := FromPersisted(snapshot)
		second := FromPersisted(first.Snapshot())
		if reflect.TypeOf(first) != reflect.TypeOf(second) {
			t.Fatalf("idempotence broken for %+v: %T vs %T", snapshot, first, second)
		}
		if first.Snapshot() != second.Snapshot() {
			t.Fatalf("idempotence changed snapshot for %+v", snapshot)
		}
	}
}

func TestTransitionDoesNotMutateInput(t *testing.T) {
	entity := mustCreate(t, "u1")
	before := entity.Snapshot()

	_ = entity.SelectInfrastructure(app.Azure())

	if entity.Snapshot() != before {
		t.Fatal("transition must not mutate the consumed variant")
	}
}
