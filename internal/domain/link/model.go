package link

import "accessterm/internal/domain/settings"

// ConnectivityState is owned exclusively by Link.
type ConnectivityState int

const (
	Disconnected ConnectivityState = iota
	Connecting
	Connected
	LocalAccessPointActive
)

func (s ConnectivityState) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case LocalAccessPointActive:
		return "access_point"
	}
	return "unknown"
}

// SubmissionKind distinguishes what an operator sent through the access point.
type SubmissionKind int

const (
	// SubmitSave carries a complete record to store; it always ends in a restart.
	SubmitSave SubmissionKind = iota
	// SubmitRetry asks the link to leave access-point mode and reconnect now.
	SubmitRetry
)

// Submission is one request taken from the access-point portal.
type Submission struct {
	Kind   SubmissionKind
	Record settings.Record
}

// ServeResult reports what one ServeAccessPointRequests step did.
type ServeResult struct {
	Handled bool
	// Saved means a record was stored and the device must restart.
	Saved bool
	Retry bool
}
