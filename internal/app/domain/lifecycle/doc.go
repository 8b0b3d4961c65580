// Package lifecycle exposes the application entity as a closed set of
// typestate variants.
//
// Each variant wraps exactly one snapshot and exposes only the operations
// legal in that state, so an illegal call sequence does not compile:
//
//   - New: SelectInfrastructure, Delete
//   - NotActivated: RequestBuild, Activate, Delete
//   - Active: Delete
//   - Deleted, Corrupted: nothing
//
// Variants are immutable values. A transition consumes the receiver and
// returns a new variant carrying the produced events; the pre-transition
// value must not be treated as current afterwards. Persistence of the
// produced events is the caller's responsibility.
//
// FromPersisted is the single point where persisted snapshots are
// revalidated before the typestate guarantees apply again: any snapshot that
// violates the structural invariant maps to Corrupted.
package lifecycle
