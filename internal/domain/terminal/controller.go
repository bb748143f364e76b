package terminal

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/exp/slog"

	"accessterm/internal/domain/link"
	"accessterm/internal/domain/settings"
)

// Options tune ping pacing and the recovery trigger.
type Options struct {
	// PingInterval is the cadence after a successful ping and the scan readiness window.
	PingInterval time.Duration
	// PingRetryDelay paces pings while never synced or after a failure.
	PingRetryDelay   time.Duration
	FailureThreshold int
}

// Snapshot is a read-only view of the controller for logs and diagnostics.
type Snapshot struct {
	State         State
	Link          link.ConnectivityState
	Failures      int
	LastSync      time.Time
	UpdatePending bool
}

// Controller is the top-level state machine. It owns the failure counter, the last sync time
// and the configuration record, and must only be driven from a single goroutine.
type Controller struct {
	store     Store
	link      Link
	sync      SyncClient
	indicator Indicator
	log       *slog.Logger
	opts      Options

	state         State
	linkState     link.ConnectivityState
	failures      int
	lastSync      time.Time
	nextPing      time.Time
	updatePending bool
}

func NewController(store Store, l Link, sc SyncClient, ind Indicator, log *slog.Logger, opts Options) *Controller {
	return &Controller{
		store:     store,
		link:      l,
		sync:      sc,
		indicator: ind,
		log:       log.With(slog.String("component", "terminal_controller")),
		opts:      opts,
	}
}

// Boot loads the record, starts association and enters Provisioning.
func (c *Controller) Boot(ctx context.Context, now time.Time) {
	c.emit(EventBooting)

	rec, err := c.store.Load(ctx)
	if err != nil {
		c.log.Error("failed to load configuration, continuing unprovisioned", slog.Any("error", err))
	}
	if !rec.Provisioned() {
		c.emit(EventUnprovisioned)
	}

	c.failures = 0
	c.lastSync = time.Time{}
	c.nextPing = now
	c.updatePending = false
	c.setState(Provisioning)

	c.emit(EventConnecting)
	c.linkState = c.link.Connect(now, rec.SSID, rec.Password)
	if c.linkState == link.Connected {
		c.emit(EventAwaitingSync)
	}
}

// Tick runs one step of the control loop. It never sleeps; every pacing decision is a deadline
// compared against now. Blocking happens only inside sync exchanges, bounded by their timeouts.
func (c *Controller) Tick(ctx context.Context, now time.Time) Action {
	c.observeLink(c.link.Poll(now))

	if c.linkState == link.LocalAccessPointActive {
		res := c.link.ServeAccessPointRequests(ctx)
		if res.Saved {
			c.emit(EventRestarting)
			return restart("configuration saved through access point")
		}
		return Action{}
	}

	if c.state == Recovering {
		c.log.Info("recovery window closed, provisioning again")
		c.nextPing = now
		c.setState(Provisioning)
	}

	if !c.link.IsUp() || now.Before(c.nextPing) {
		return Action{}
	}

	return c.ping(ctx, now)
}

// HandleScan reports a tag if the terminal is ready. The result only drives indicator events.
func (c *Controller) HandleScan(ctx context.Context, now time.Time, tag uint32) bool {
	log := c.log.With(slog.String("tag", fmt.Sprintf("%08X", tag)))

	if !c.ScanReady(now) {
		log.Info("scan ignored, terminal not ready", slog.String("state", c.state.String()))
		c.emit(EventScanSkipped)
		return false
	}

	c.emit(EventScanStarted)

	if !c.sync.ReportScan(ctx, tag, c.store.Record()) {
		log.Warn("scan report failed")
		c.emit(EventScanRejected)
		return false
	}

	log.Info("scan reported")
	c.emit(EventScanAccepted)
	return true
}

// ScanReady holds while Operational or Degraded, associated, and synced within the ping interval.
func (c *Controller) ScanReady(now time.Time) bool {
	if c.state != Operational && c.state != Degraded {
		return false
	}
	if !c.link.IsUp() || c.lastSync.IsZero() {
		return false
	}
	return now.Sub(c.lastSync) < c.opts.PingInterval
}

func (c *Controller) Snapshot() Snapshot {
	return Snapshot{
		State:         c.state,
		Link:          c.link.State(),
		Failures:      c.failures,
		LastSync:      c.lastSync,
		UpdatePending: c.updatePending,
	}
}

func (c *Controller) ping(ctx context.Context, now time.Time) Action {
	out := c.sync.Ping(ctx, c.store.Record())

	switch {
	case out.Skipped:
		c.nextPing = now.Add(c.opts.PingInterval)
		c.emit(EventUnprovisioned)
		return Action{}
	case !out.Reachable:
		c.pingFailed(now, out.Err)
		return Action{}
	}

	c.failures = 0
	c.lastSync = now
	c.nextPing = now.Add(c.opts.PingInterval)
	c.setState(Operational)

	if !out.UpdateRequested {
		c.updatePending = false
		c.emit(EventReady)
		return Action{}
	}

	return c.applyUpdate(ctx, out.Proposed)
}

func (c *Controller) pingFailed(now time.Time, cause error) {
	c.failures++
	c.nextPing = now.Add(c.opts.PingRetryDelay)
	c.emit(EventSyncFailed)

	c.log.Warn("ping failed",
		slog.Int("failures", c.failures),
		slog.Int("threshold", c.opts.FailureThreshold),
		slog.Any("error", cause),
	)

	if c.failures < c.opts.FailureThreshold {
		c.setState(Degraded)
		return
	}

	c.setState(Recovering)
	c.emit(EventRecovery)
	c.link.EnterLocalAccessPoint(now)
	c.observeLink(c.link.State())
}

// applyUpdate stores the proposed fields and asks the server to confirm. Only a confirmed
// update restarts; otherwise the flag stays pending until the next ping.
func (c *Controller) applyUpdate(ctx context.Context, patch settings.Patch) Action {
	c.updatePending = true
	c.emit(EventUpdatePending)

	changed, err := c.store.Apply(ctx, patch)
	if err != nil {
		c.log.Error("failed to persist remote update", slog.Any("error", err))
	}
	if changed {
		fields := make([]string, 0, len(patch))
		for _, f := range patch.Fields() {
			fields = append(fields, f.String())
		}
		c.log.Info("remote update applied", slog.Any("fields", fields))
	}

	if !c.sync.ConfirmUpdate(ctx, c.store.Record()) {
		c.log.Warn("update confirmation failed, will try again on next ping")
		return Action{}
	}

	c.updatePending = false
	c.emit(EventRestarting)
	return restart("remote configuration update confirmed")
}

// observeLink emits events for link transitions that happened outside the controller.
func (c *Controller) observeLink(s link.ConnectivityState) {
	if s == c.linkState {
		return
	}
	prev := c.linkState
	c.linkState = s

	c.log.Debug("link state changed", slog.String("from", prev.String()), slog.String("to", s.String()))

	switch s {
	case link.Connecting:
		c.emit(EventConnecting)
	case link.Connected:
		if c.lastSync.IsZero() {
			c.emit(EventAwaitingSync)
		}
	case link.LocalAccessPointActive:
		c.emit(EventAccessPoint)
	}
}

func (c *Controller) setState(s State) {
	if s == c.state {
		return
	}
	c.log.Info("state changed", slog.String("from", c.state.String()), slog.String("to", s.String()))
	c.state = s
}

func (c *Controller) emit(e Event) {
	if c.indicator != nil {
		c.indicator.Emit(e)
	}
}
