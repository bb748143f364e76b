package terminal

import "errors"

// ErrRestart is returned by the run loop when the controller asks for a full restart.
var ErrRestart = errors.New("terminal restart requested")

type ActionKind int

const (
	ActionNone ActionKind = iota
	// ActionRestart means configuration was applied and the device must be reinitialised from storage.
	ActionRestart
)

// Action is what the caller of Tick must do next.
type Action struct {
	Kind   ActionKind
	Reason string
}

func (a Action) Restart() bool {
	return a.Kind == ActionRestart
}

func restart(reason string) Action {
	return Action{Kind: ActionRestart, Reason: reason}
}
