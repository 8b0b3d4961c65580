// Package provisioning routes journal events to the cloud-side collaborator.
//
// The lifecycle core records intent (infrastructure selected, build
// requested) and this package carries it out of process. Dispatch is
// fire-and-forget: the core makes no assumption about when or whether the
// cloud-side work completes, and no provisioning failure ever reaches the
// caller that appended the events.
package provisioning

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/substratehq/provision/internal/app/domain/app"
	"github.com/substratehq/provision/internal/app/domain/event"
	"github.com/substratehq/provision/internal/platform/timeouts"
)

// Provisioner performs the actual cloud-side work for one application.
type Provisioner interface {
	// SelectInfrastructure prepares the chosen provider infrastructure.
	SelectInfrastructure(ctx context.Context, appID string, provider app.Provider, region string) error
	// Build provisions the application build on the selected infrastructure.
	Build(ctx context.Context, appID string, provider app.Provider, region string) error
}

// Dispatcher consumes appended event batches and forwards the provisioning
// intents to a Provisioner in the background.
type Dispatcher struct {
	provisioner Provisioner
	wg          sync.WaitGroup
}

// NewDispatcher builds a dispatcher for the given provisioner.
func NewDispatcher(provisioner Provisioner) *Dispatcher {
	return &Dispatcher{provisioner: provisioner}
}

// Dispatch forwards the provisioning-relevant events of a batch. It returns
// immediately; errors are logged, never surfaced.
func (d *Dispatcher) Dispatch(events []event.Event) {
	if d == nil || d.provisioner == nil || len(events) == 0 {
		return
	}

	batch := make([]event.Event, len(events))
	copy(batch, events)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), timeouts.ProvisioningDispatch)
		defer cancel()
		for _, evt := range batch {
			if err := d.dispatchOne(ctx, evt); err != nil {
				log.Printf("provisioning dispatch %s app=%s: %v", evt.Type, evt.AppID, err)
			}
		}
	}()
}

// Wait blocks until all in-flight dispatches have finished. Intended for
// shutdown paths and tests.
func (d *Dispatcher) Wait() {
	if d == nil {
		return
	}
	d.wg.Wait()
}

func (d *Dispatcher) dispatchOne(ctx context.Context, evt event.Event) error {
	switch evt.Type {
	case event.TypeInfrastructureSelected:
		var payload event.InfrastructureSelectedPayload
		if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
			return err
		}
		return d.provisioner.SelectInfrastructure(ctx, evt.AppID, app.Provider(payload.Provider), payload.Region)
	case event.TypeBuildRequested:
		var payload event.BuildRequestedPayload
		if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
			return err
		}
		return d.provisioner.Build(ctx, evt.AppID, app.Provider(payload.Provider), payload.Region)
	default:
		// Lifecycle bookkeeping events carry no cloud-side work.
		return nil
	}
}

// LogProvisioner records provisioning requests without performing them.
// Useful for local runs where no cloud collaborator is wired.
type LogProvisioner struct{}

// SelectInfrastructure logs the infrastructure selection request.
func (LogProvisioner) SelectInfrastructure(_ context.Context, appID string, provider app.Provider, region string) error {
	log.Printf("provisioning: select infrastructure app=%s provider=%s region=%s", appID, provider, region)
	return nil
}

// Build logs the build request.
func (LogProvisioner) Build(_ context.Context, appID string, provider app.Provider, region string) error {
	log.Printf("provisioning: build app=%s provider=%s region=%s", appID, provider, region)
	return nil
}
