package terminal

// Event is an abstract status change for the indicator hardware.
type Event int

const (
	EventBooting Event = iota
	EventConnecting
	// EventAwaitingSync is emitted once associated but before the first successful ping.
	EventAwaitingSync
	EventReady
	EventSyncFailed
	EventUpdatePending
	EventRecovery
	EventAccessPoint
	EventScanStarted
	EventScanAccepted
	EventScanRejected
	// EventScanSkipped means a tag arrived while the terminal was not ready to report it.
	EventScanSkipped
	EventRestarting
	EventUnprovisioned
)

var eventNames = map[Event]string{
	EventBooting:       "booting",
	EventConnecting:    "connecting",
	EventAwaitingSync:  "awaiting_sync",
	EventReady:         "ready",
	EventSyncFailed:    "sync_failed",
	EventUpdatePending: "update_pending",
	EventRecovery:      "recovery",
	EventAccessPoint:   "access_point",
	EventScanStarted:   "scan_started",
	EventScanAccepted:  "scan_accepted",
	EventScanRejected:  "scan_rejected",
	EventScanSkipped:   "scan_skipped",
	EventRestarting:    "restarting",
	EventUnprovisioned: "unprovisioned",
}

func (e Event) String() string {
	if name, ok := eventNames[e]; ok {
		return name
	}
	return "unknown"
}

// Indicator renders status events. Emit must return quickly; it runs on the control loop.
type Indicator interface {
	Emit(Event)
}

// IndicatorFunc adapts a plain function to Indicator.
type IndicatorFunc func(Event)

func (f IndicatorFunc) Emit(e Event) { f(e) }
