package link

import (
	"context"
	"time"

	"golang.org/x/exp/slog"
)

// Options shape the association retry budget and the access-point fallback.
type Options struct {
	ConnectAttempts int
	ConnectSpacing  time.Duration
	Dwell           time.Duration
	APSSID          string
	APPassphrase    string
}

// Link manages association to the upstream network with a local access-point fallback.
// Pacing is expressed as deadlines checked by Poll; nothing here sleeps.
type Link struct {
	radio  Radio
	portal Portal
	store  Store
	log    *slog.Logger
	opts   Options

	state       ConnectivityState
	attempts    int
	nextAttempt time.Time
	apUntil     time.Time
	retry       bool
}

func New(radio Radio, portal Portal, store Store, log *slog.Logger, opts Options) *Link {
	return &Link{
		radio:  radio,
		portal: portal,
		store:  store,
		log:    log.With(slog.String("component", "network_link")),
		opts:   opts,
		state:  Disconnected,
	}
}

func (l *Link) State() ConnectivityState {
	return l.state
}

func (l *Link) IsUp() bool {
	return l.state == Connected
}

// AccessPointUntil is the end of the current dwell window; zero outside access-point mode.
func (l *Link) AccessPointUntil() time.Time {
	if l.state != LocalAccessPointActive {
		return time.Time{}
	}
	return l.apUntil
}

// Connect starts association with a fresh retry budget. It leaves access-point mode first if needed.
func (l *Link) Connect(now time.Time, ssid, secret string) ConnectivityState {
	if l.state == LocalAccessPointActive {
		l.leaveAccessPoint()
	}

	l.log.Info("connecting to network", slog.String("ssid", ssid))

	l.state = Connecting
	l.attempts = 0
	l.nextAttempt = now.Add(l.opts.ConnectSpacing)

	if err := l.radio.Begin(ssid, secret); err != nil {
		l.log.Warn("radio refused association request", slog.Any("error", err))
	}

	if l.radio.Associated() {
		l.markConnected(ssid)
	}

	return l.state
}

// Poll advances pending deadlines: association polls while Connecting, loss detection while
// Connected, and the dwell window or retry signal while the access point is active.
func (l *Link) Poll(now time.Time) ConnectivityState {
	switch l.state {
	case Connecting:
		if l.radio.Associated() {
			l.markConnected(l.store.Record().SSID)
			break
		}
		if now.Before(l.nextAttempt) {
			break
		}
		l.attempts++
		if l.attempts >= l.opts.ConnectAttempts {
			l.log.Warn("failed to connect, falling back to access point", slog.Int("attempts", l.attempts))
			l.EnterLocalAccessPoint(now)
			break
		}
		l.nextAttempt = now.Add(l.opts.ConnectSpacing)

	case Connected:
		if !l.radio.Associated() {
			l.log.Warn("association lost")
			l.state = Disconnected
			l.reconnect(now)
		}

	case LocalAccessPointActive:
		switch {
		case l.retry:
			l.log.Info("retry requested, leaving access point")
			l.reconnect(now)
		case !now.Before(l.apUntil):
			l.log.Info("access point window elapsed, reconnecting")
			l.reconnect(now)
		}
	}

	return l.state
}

// EnterLocalAccessPoint brings up the local access point and portal for one dwell window.
func (l *Link) EnterLocalAccessPoint(now time.Time) {
	if l.state == LocalAccessPointActive {
		return
	}

	if err := l.radio.StartAccessPoint(l.opts.APSSID, l.opts.APPassphrase); err != nil {
		l.log.Error("failed to start access point", slog.Any("error", err))
	}
	l.apUntil = now.Add(l.opts.Dwell)
	if err := l.portal.Open(l.store.Record(), l.apUntil); err != nil {
		l.log.Error("failed to open configuration portal", slog.Any("error", err))
	}

	l.state = LocalAccessPointActive
	l.retry = false

	l.log.Info("access point active",
		slog.String("ap_ssid", l.opts.APSSID),
		slog.Time("until", l.apUntil),
	)
}

// RequestRetry ends the current dwell window at the next Poll.
func (l *Link) RequestRetry() {
	if l.state == LocalAccessPointActive {
		l.retry = true
	}
}

// ServeAccessPointRequests handles at most one pending portal submission and never blocks.
// A saved record is forwarded verbatim to the store; the caller must then restart.
func (l *Link) ServeAccessPointRequests(ctx context.Context) ServeResult {
	if l.state != LocalAccessPointActive {
		return ServeResult{}
	}

	sub, ok := l.portal.Next()
	if !ok {
		return ServeResult{}
	}

	switch sub.Kind {
	case SubmitSave:
		m := sub.Record.Masked()
		l.log.Info("received new configuration",
			slog.String("ssid", m.SSID),
			slog.String("endpoint", m.Endpoint),
			slog.String("terminal_id", m.TerminalID),
		)
		if err := l.store.SetAll(ctx, sub.Record); err != nil {
			l.log.Error("failed to save configuration", slog.Any("error", err))
		}
		return ServeResult{Handled: true, Saved: true}

	case SubmitRetry:
		l.RequestRetry()
		return ServeResult{Handled: true, Retry: true}
	}

	return ServeResult{}
}

func (l *Link) reconnect(now time.Time) {
	rec := l.store.Record()
	l.Connect(now, rec.SSID, rec.Password)
}

func (l *Link) markConnected(ssid string) {
	l.state = Connected
	l.log.Info("connected to network", slog.String("ssid", ssid), slog.Int("attempts", l.attempts))
}

func (l *Link) leaveAccessPoint() {
	if err := l.portal.Close(); err != nil {
		l.log.Warn("failed to close configuration portal", slog.Any("error", err))
	}
	if err := l.radio.StopAccessPoint(); err != nil {
		l.log.Warn("failed to stop access point", slog.Any("error", err))
	}
	l.retry = false
}
