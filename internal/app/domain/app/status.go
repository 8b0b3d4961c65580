package app

import "strings"

// Status describes the application lifecycle label used by domain decisions.
//
// The zero value StatusUnspecified means "no snapshot yet" and only appears
// while replaying a journal from its first event.
type Status string

const (
	StatusUnspecified Status = ""
	StatusNew         Status = "new"
	StatusActive      Status = "active"
	StatusDeleted     Status = "deleted"
	StatusCorrupted   Status = "corrupted"
)

// IsValid reports whether the status is one of the known lifecycle labels.
func (s Status) IsValid() bool {
	switch s {
	case StatusNew, StatusActive, StatusDeleted, StatusCorrupted:
		return true
	default:
		return false
	}
}

// ParseStatus canonicalizes a stored status label. Unknown labels are
// returned as-is with ok=false so reconstruction can route them to the
// corrupted variant instead of failing.
func ParseStatus(value string) (Status, bool) {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	status := Status(trimmed)
	return status, status.IsValid()
}
