package indicator

import (
	"time"

	"accessterm/internal/domain/terminal"
)

// LED is the lit lamp of the red/yellow/green stack.
type LED int

const (
	LEDOff LED = iota
	LEDRed
	LEDYellow
	LEDGreen
)

func (l LED) String() string {
	switch l {
	case LEDRed:
		return "red"
	case LEDYellow:
		return "yellow"
	case LEDGreen:
		return "green"
	}
	return "off"
}

// Pattern is what the hardware shows for one event. Keep marks events that leave the LED as is.
type Pattern struct {
	LED  LED
	Keep bool
	Buzz []time.Duration
}

const (
	shortBuzz = 100 * time.Millisecond
	longBuzz  = time.Second
)

var patterns = map[terminal.Event]Pattern{
	terminal.EventBooting:       {LED: LEDOff},
	terminal.EventConnecting:    {LED: LEDYellow},
	terminal.EventAwaitingSync:  {LED: LEDYellow},
	terminal.EventReady:         {LED: LEDGreen},
	terminal.EventSyncFailed:    {LED: LEDYellow},
	terminal.EventUpdatePending: {LED: LEDYellow},
	terminal.EventRecovery:      {LED: LEDRed},
	terminal.EventAccessPoint:   {LED: LEDRed},
	terminal.EventScanStarted:   {LED: LEDYellow, Buzz: []time.Duration{shortBuzz}},
	terminal.EventScanAccepted:  {LED: LEDGreen, Buzz: []time.Duration{shortBuzz, shortBuzz, shortBuzz}},
	terminal.EventScanRejected:  {LED: LEDRed, Buzz: []time.Duration{longBuzz}},
	terminal.EventScanSkipped:   {Keep: true},
	terminal.EventRestarting:    {LED: LEDOff},
	terminal.EventUnprovisioned: {LED: LEDRed},
}

// PatternFor returns the hardware pattern for e. Unknown events keep the current state.
func PatternFor(e terminal.Event) Pattern {
	if p, ok := patterns[e]; ok {
		return p
	}
	return Pattern{Keep: true}
}
