package terminal

// State is the top-level mode of the terminal.
type State int

const (
	// Provisioning means no successful sync since boot or since the last recovery window.
	Provisioning State = iota
	Operational
	// Degraded means at least one, but fewer than the threshold, consecutive failed pings.
	Degraded
	// Recovering means the access point is up after too many failed pings.
	Recovering
)

func (s State) String() string {
	switch s {
	case Provisioning:
		return "provisioning"
	case Operational:
		return "operational"
	case Degraded:
		return "degraded"
	case Recovering:
		return "recovering"
	}
	return "unknown"
}
