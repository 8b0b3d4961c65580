// Package errors provides structured error handling for the provision services.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// App errors
	CodeAppEmptyID          Code = "APP_EMPTY_ID"
	CodeAppInvalidProvider  Code = "APP_INVALID_PROVIDER"
	CodeAppRegionRequired   Code = "APP_REGION_REQUIRED"
	CodeAppStateDisallowsOp Code = "APP_STATE_DISALLOWS_OPERATION"
	CodeAppCorrupted        Code = "APP_CORRUPTED"

	// Storage errors
	CodeNotFound        Code = "NOT_FOUND"
	CodeVersionConflict Code = "VERSION_CONFLICT"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - validation failures, bad input
	case CodeAppEmptyID,
		CodeAppInvalidProvider,
		CodeAppRegionRequired:
		return codes.InvalidArgument

	// FailedPrecondition - state doesn't allow operation
	case CodeAppStateDisallowsOp,
		CodeAppCorrupted:
		return codes.FailedPrecondition

	// NotFound
	case CodeNotFound:
		return codes.NotFound

	// Aborted - optimistic concurrency conflicts
	case CodeVersionConflict:
		return codes.Aborted

	default:
		return codes.Internal
	}
}
