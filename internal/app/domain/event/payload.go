package event

import "encoding/json"

// CreatedPayload captures the payload for app.created events.
type CreatedPayload struct{}

// InfrastructureSelectedPayload captures the payload for
// app.infrastructure_selected events. Region is present only for providers
// that require one; the azure payload structurally omits it.
type InfrastructureSelectedPayload struct {
	Provider string `json:"provider"`
	Region   string `json:"region,omitempty"`
}

// BuildRequestedPayload captures the payload for app.build_requested events.
type BuildRequestedPayload struct {
	Provider string `json:"provider"`
	Region   string `json:"region,omitempty"`
}

// ActivatedPayload captures the payload for app.activated events.
type ActivatedPayload struct{}

// DeletedPayload captures the payload for app.deleted events.
type DeletedPayload struct{}

// NewAppCreated builds an app.created event for the given application.
func NewAppCreated(appID string) Event {
	return Event{AppID: appID, Type: TypeAppCreated, PayloadJSON: mustMarshal(CreatedPayload{})}
}

// NewInfrastructureSelected builds an app.infrastructure_selected event.
func NewInfrastructureSelected(appID, provider, region string) Event {
	payload := InfrastructureSelectedPayload{Provider: provider, Region: region}
	return Event{AppID: appID, Type: TypeInfrastructureSelected, PayloadJSON: mustMarshal(payload)}
}

// NewBuildRequested builds an app.build_requested event.
func NewBuildRequested(appID, provider, region string) Event {
	payload := BuildRequestedPayload{Provider: provider, Region: region}
	return Event{AppID: appID, Type: TypeBuildRequested, PayloadJSON: mustMarshal(payload)}
}

// NewAppActivated builds an app.activated event.
func NewAppActivated(appID string) Event {
	return Event{AppID: appID, Type: TypeAppActivated, PayloadJSON: mustMarshal(ActivatedPayload{})}
}

// NewAppDeleted builds an app.deleted event.
func NewAppDeleted(appID string) Event {
	return Event{AppID: appID, Type: TypeAppDeleted, PayloadJSON: mustMarshal(DeletedPayload{})}
}

// mustMarshal serializes a payload struct. The payload types above contain
// only marshalable fields, so a failure is a programming error.
func mustMarshal(payload any) []byte {
	data, err := json.Marshal(payload)
	if err != nil {
		panic("event: marshal payload: " + err.Error())
	}
	return data
}
