package sync

import "accessterm/internal/domain/settings"

// Outcome is the result of one ping attempt.
type Outcome struct {
	// Reachable is true only for an HTTP 200 with a parseable body.
	Reachable bool
	// Skipped marks a ping that never left the terminal because the identity is incomplete.
	Skipped bool
	// UpdateRequested is true iff the server sent updateFlag == 1.
	UpdateRequested bool
	// Proposed holds the string fields present in the response that differ from the current record.
	Proposed settings.Patch
	// Err describes why the ping was not reachable. Diagnostic only.
	Err error
}
