package terminal

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"accessterm/internal/domain/link"
	"accessterm/internal/domain/settings"
	"accessterm/internal/domain/sync"
	"accessterm/internal/utils/logger"
)

var t0 = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

var provisioned = settings.Record{
	SSID:       "OldNet",
	Password:   "secret",
	Endpoint:   "http://srv.local",
	TerminalID: "T1",
	AuthKey:    "key",
}

type memRepository struct {
	rec   settings.Record
	saves int
}

func (r *memRepository) Load(context.Context) (settings.Record, error) { return r.rec, nil }

func (r *memRepository) Save(_ context.Context, rec settings.Record) error {
	r.saves++
	r.rec = rec
	return nil
}

type fakeLink struct {
	state     link.ConnectivityState
	connects  []string
	apEntered int
	serve     []link.ServeResult
}

func (l *fakeLink) Connect(_ time.Time, ssid, _ string) link.ConnectivityState {
	l.connects = append(l.connects, ssid)
	return l.state
}

func (l *fakeLink) Poll(time.Time) link.ConnectivityState { return l.state }
func (l *fakeLink) IsUp() bool                            { return l.state == link.Connected }
func (l *fakeLink) State() link.ConnectivityState         { return l.state }

func (l *fakeLink) EnterLocalAccessPoint(time.Time) {
	l.apEntered++
	l.state = link.LocalAccessPointActive
}

func (l *fakeLink) ServeAccessPointRequests(context.Context) link.ServeResult {
	if len(l.serve) == 0 {
		return link.ServeResult{}
	}
	res := l.serve[0]
	l.serve = l.serve[1:]
	return res
}

type reply struct {
	status int
	body   string
	err    error
}

// scriptedTransport answers each protocol path from its own queue. An empty queue times out.
type scriptedTransport struct {
	replies map[string][]reply
	calls   []string
}

func (s *scriptedTransport) Post(_ context.Context, url string, _ []byte, _ time.Duration) (sync.Response, error) {
	s.calls = append(s.calls, url)
	for path, queue := range s.replies {
		if !strings.HasSuffix(url, path) || len(queue) == 0 {
			continue
		}
		s.replies[path] = queue[1:]
		r := queue[0]
		if r.err != nil {
			return sync.Response{}, r.err
		}
		return sync.Response{StatusCode: r.status, Body: []byte(r.body)}, nil
	}
	return sync.Response{}, context.DeadlineExceeded
}

func (s *scriptedTransport) count(path string) int {
	n := 0
	for _, c := range s.calls {
		if strings.HasSuffix(c, path) {
			n++
		}
	}
	return n
}

type recorder struct {
	events []Event
}

func (r *recorder) Emit(e Event) { r.events = append(r.events, e) }

type fixture struct {
	repo      *memRepository
	store     *settings.Store
	link      *fakeLink
	transport *scriptedTransport
	events    *recorder
	ctrl      *Controller
}

func newFixture(rec settings.Record, linkState link.ConnectivityState) *fixture {
	log := logger.Discard()
	f := &fixture{
		repo:      &memRepository{rec: rec},
		link:      &fakeLink{state: linkState},
		transport: &scriptedTransport{replies: map[string][]reply{}},
		events:    &recorder{},
	}
	f.store = settings.NewStore(f.repo, log)
	client := sync.NewClient(f.transport, log, sync.Options{
		RequestTimeout: 5 * time.Second,
		ScanTimeout:    15 * time.Second,
	})
	f.ctrl = NewController(f.store, f.link, client, f.events, log, Options{
		PingInterval:     time.Minute,
		PingRetryDelay:   time.Second,
		FailureThreshold: 3,
	})
	return f
}

func (f *fixture) script(path string, replies ...reply) {
	f.transport.replies[path] = append(f.transport.replies[path], replies...)
}

func TestController_Boot(t *testing.T) {
	f := newFixture(provisioned, link.Connected)

	f.ctrl.Boot(context.Background(), t0)

	snap := f.ctrl.Snapshot()
	assert.Equal(t, Provisioning, snap.State)
	assert.Equal(t, 0, snap.Failures)
	assert.True(t, snap.LastSync.IsZero())
	assert.Equal(t, []string{"OldNet"}, f.link.connects)
	assert.Equal(t, []Event{EventBooting, EventConnecting, EventAwaitingSync}, f.events.events)
}

func TestController_EmptyStoreIsNoOp(t *testing.T) {
	// Arrange
	f := newFixture(settings.Record{}, link.Connected)
	ctx := context.Background()
	f.ctrl.Boot(ctx, t0)

	// Act
	for i := 0; i < 5; i++ {
		f.ctrl.Tick(ctx, t0.Add(time.Duration(i)*time.Minute))
	}
	scanned := f.ctrl.HandleScan(ctx, t0, 42)

	// Assert
	assert.False(t, scanned)
	assert.Empty(t, f.transport.calls)
	assert.Equal(t, 0, f.ctrl.Snapshot().Failures)
	assert.Equal(t, Provisioning, f.ctrl.Snapshot().State)
	assert.Zero(t, f.link.apEntered)
	assert.Contains(t, f.events.events, EventUnprovisioned)
}

func TestController_SkippedPingWaitsFullInterval(t *testing.T) {
	f := newFixture(settings.Record{SSID: "net"}, link.Connected)
	ctx := context.Background()
	f.ctrl.Boot(ctx, t0)

	f.ctrl.Tick(ctx, t0)
	f.ctrl.Tick(ctx, t0.Add(30*time.Second))

	require.NoError(t, f.store.SetAll(ctx, provisioned))
	f.ctrl.Tick(ctx, t0.Add(59*time.Second))
	assert.Empty(t, f.transport.calls)

	f.script("/terminal/ping", reply{status: 200, body: `{"updateFlag":0}`})
	f.ctrl.Tick(ctx, t0.Add(time.Minute))
	assert.Equal(t, 1, f.transport.count("/terminal/ping"))
	assert.Equal(t, Operational, f.ctrl.Snapshot().State)
}

func TestController_ThreeTimeoutsEnterRecovery(t *testing.T) {
	// Arrange
	f := newFixture(provisioned, link.Connected)
	ctx := context.Background()
	f.ctrl.Boot(ctx, t0)

	wantStates := []State{Degraded, Degraded, Recovering}
	now := t0

	for i, want := range wantStates {
		require.Equal(t, 0, f.link.apEntered, "access point entered early at failure %d", i)

		// Act
		action := f.ctrl.Tick(ctx, now)

		// Assert
		assert.False(t, action.Restart())
		snap := f.ctrl.Snapshot()
		assert.Equal(t, want, snap.State, "after failure %d", i+1)
		assert.Equal(t, i+1, snap.Failures)
		now = now.Add(time.Second)
	}

	assert.Equal(t, 1, f.link.apEntered)
	assert.Equal(t, 3, f.transport.count("/terminal/ping"))
	assert.Contains(t, f.events.events, EventRecovery)
	assert.Contains(t, f.events.events, EventAccessPoint)
}

func TestController_FailurePacing(t *testing.T) {
	f := newFixture(provisioned, link.Connected)
	ctx := context.Background()
	f.ctrl.Boot(ctx, t0)

	f.ctrl.Tick(ctx, t0)
	f.ctrl.Tick(ctx, t0.Add(500*time.Millisecond))

	assert.Equal(t, 1, f.transport.count("/terminal/ping"))
	assert.Equal(t, 1, f.ctrl.Snapshot().Failures)
}

func TestController_SuccessResetsFailures(t *testing.T) {
	f := newFixture(provisioned, link.Connected)
	ctx := context.Background()
	f.ctrl.Boot(ctx, t0)
	f.script("/terminal/ping",
		reply{status: 500, body: "oops"},
		reply{status: 200, body: "not json"},
		reply{status: 200, body: `{"updateFlag":0}`},
	)

	f.ctrl.Tick(ctx, t0)
	f.ctrl.Tick(ctx, t0.Add(time.Second))
	require.Equal(t, 2, f.ctrl.Snapshot().Failures)

	f.ctrl.Tick(ctx, t0.Add(2*time.Second))

	snap := f.ctrl.Snapshot()
	assert.Equal(t, Operational, snap.State)
	assert.Equal(t, 0, snap.Failures)
	assert.Equal(t, t0.Add(2*time.Second), snap.LastSync)
	assert.Equal(t, EventReady, f.events.events[len(f.events.events)-1])
}

func TestController_PingInterval(t *testing.T) {
	f := newFixture(provisioned, link.Connected)
	ctx := context.Background()
	f.ctrl.Boot(ctx, t0)
	f.script("/terminal/ping",
		reply{status: 200, body: `{"updateFlag":0}`},
		reply{status: 200, body: `{"updateFlag":0}`},
	)

	f.ctrl.Tick(ctx, t0)
	f.ctrl.Tick(ctx, t0.Add(30*time.Second))
	f.ctrl.Tick(ctx, t0.Add(59*time.Second))
	assert.Equal(t, 1, f.transport.count("/terminal/ping"))

	f.ctrl.Tick(ctx, t0.Add(time.Minute))
	assert.Equal(t, 2, f.transport.count("/terminal/ping"))
}

func TestController_NoPingWhileLinkDown(t *testing.T) {
	f := newFixture(provisioned, link.Connecting)
	ctx := context.Background()
	f.ctrl.Boot(ctx, t0)

	f.ctrl.Tick(ctx, t0)
	f.ctrl.Tick(ctx, t0.Add(time.Minute))

	assert.Empty(t, f.transport.calls)
	assert.Equal(t, Provisioning, f.ctrl.Snapshot().State)
}

func TestController_RemoteUpdate(t *testing.T) {
	tests := []struct {
		name        string
		confirm     reply
		wantRestart bool
		wantPending bool
	}{
		{
			name:        "confirmed",
			confirm:     reply{status: 200, body: `{"updateFlag":0}`},
			wantRestart: true,
		},
		{
			name:        "still pending",
			confirm:     reply{status: 200, body: `{"updateFlag":1}`},
			wantPending: true,
		},
		{
			name:        "confirmation unreachable",
			confirm:     reply{err: errors.New("connection refused")},
			wantPending: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			f := newFixture(provisioned, link.Connected)
			ctx := context.Background()
			f.ctrl.Boot(ctx, t0)
			f.script("/terminal/ping", reply{status: 200, body: `{"updateFlag":1,"ssid":"NewNet"}`})
			f.script("/terminal/update", tt.confirm)

			// Act
			action := f.ctrl.Tick(ctx, t0)

			// Assert
			assert.Equal(t, tt.wantRestart, action.Restart())
			assert.Equal(t, "NewNet", f.store.Get(settings.FieldSSID))
			assert.Equal(t, "NewNet", f.repo.rec.SSID)
			assert.Equal(t, 1, f.repo.saves)
			assert.Equal(t, 1, f.transport.count("/terminal/update"))
			assert.Equal(t, tt.wantPending, f.ctrl.Snapshot().UpdatePending)
			assert.Equal(t, Operational, f.ctrl.Snapshot().State)
		})
	}
}

func TestController_PendingUpdateRetriedNextCycle(t *testing.T) {
	f := newFixture(provisioned, link.Connected)
	ctx := context.Background()
	f.ctrl.Boot(ctx, t0)
	f.script("/terminal/ping",
		reply{status: 200, body: `{"updateFlag":1,"ssid":"NewNet"}`},
		reply{status: 200, body: `{"updateFlag":1,"ssid":"NewNet"}`},
	)
	f.script("/terminal/update",
		reply{status: 200, body: `{"updateFlag":1}`},
		reply{status: 200, body: `{"updateFlag":0}`},
	)

	first := f.ctrl.Tick(ctx, t0)
	require.False(t, first.Restart())
	assert.False(t, f.ctrl.Tick(ctx, t0.Add(30*time.Second)).Restart())

	second := f.ctrl.Tick(ctx, t0.Add(time.Minute))

	assert.True(t, second.Restart())
	assert.Equal(t, "remote configuration update confirmed", second.Reason)
	// The repeated proposal matches the stored value, so nothing is written twice.
	assert.Equal(t, 1, f.repo.saves)
	assert.Equal(t, 2, f.transport.count("/terminal/update"))
	assert.Equal(t, EventRestarting, f.events.events[len(f.events.events)-1])
}

func TestController_UpdateWithoutChangesStillConfirms(t *testing.T) {
	f := newFixture(provisioned, link.Connected)
	ctx := context.Background()
	f.ctrl.Boot(ctx, t0)
	f.script("/terminal/ping", reply{status: 200, body: `{"updateFlag":1,"ssid":"OldNet"}`})
	f.script("/terminal/update", reply{status: 200, body: `{"updateFlag":0}`})

	action := f.ctrl.Tick(ctx, t0)

	assert.True(t, action.Restart())
	assert.Equal(t, 0, f.repo.saves)
}

func TestController_RecoveryWindowReturnsToProvisioning(t *testing.T) {
	// Arrange
	f := newFixture(provisioned, link.Connected)
	ctx := context.Background()
	f.ctrl.Boot(ctx, t0)
	for i := 0; i < 3; i++ {
		f.ctrl.Tick(ctx, t0.Add(time.Duration(i)*time.Second))
	}
	require.Equal(t, Recovering, f.ctrl.Snapshot().State)

	// Act: still inside the window, then the link reconnects on its own.
	assert.False(t, f.ctrl.Tick(ctx, t0.Add(time.Minute)).Restart())
	assert.Equal(t, Recovering, f.ctrl.Snapshot().State)
	calls := len(f.transport.calls)

	f.link.state = link.Connecting
	f.ctrl.Tick(ctx, t0.Add(2*time.Minute))

	// Assert
	assert.Equal(t, Provisioning, f.ctrl.Snapshot().State)
	assert.Equal(t, calls, len(f.transport.calls))
	assert.Equal(t, EventConnecting, f.events.events[len(f.events.events)-1])
}

func TestController_FailureAfterRecoveryReentersAccessPoint(t *testing.T) {
	f := newFixture(provisioned, link.Connected)
	ctx := context.Background()
	f.ctrl.Boot(ctx, t0)
	for i := 0; i < 3; i++ {
		f.ctrl.Tick(ctx, t0.Add(time.Duration(i)*time.Second))
	}
	f.link.state = link.Connected
	f.ctrl.Tick(ctx, t0.Add(2*time.Minute))

	assert.Equal(t, Recovering, f.ctrl.Snapshot().State)
	assert.Equal(t, 4, f.ctrl.Snapshot().Failures)
	assert.Equal(t, 2, f.link.apEntered)
}

func TestController_AccessPointSaveRestarts(t *testing.T) {
	f := newFixture(settings.Record{}, link.LocalAccessPointActive)
	ctx := context.Background()
	f.ctrl.Boot(ctx, t0)
	f.link.serve = []link.ServeResult{{}, {Handled: true, Retry: true}, {Handled: true, Saved: true}}

	assert.False(t, f.ctrl.Tick(ctx, t0).Restart())
	assert.False(t, f.ctrl.Tick(ctx, t0.Add(time.Second)).Restart())
	action := f.ctrl.Tick(ctx, t0.Add(2*time.Second))

	assert.True(t, action.Restart())
	assert.Equal(t, "configuration saved through access point", action.Reason)
	assert.Equal(t, EventRestarting, f.events.events[len(f.events.events)-1])
}

func TestController_HandleScan_Gate(t *testing.T) {
	tests := []struct {
		name      string
		linkState link.ConnectivityState
		synced    bool
		scanAt    time.Duration
		want      bool
	}{
		{name: "never synced", linkState: link.Connected, synced: false, want: false},
		{name: "synced and fresh", linkState: link.Connected, synced: true, scanAt: 10 * time.Second, want: true},
		{name: "sync too old", linkState: link.Connected, synced: true, scanAt: time.Minute, want: false},
		{name: "link down", linkState: link.Connecting, synced: true, scanAt: time.Second, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			f := newFixture(provisioned, link.Connected)
			ctx := context.Background()
			f.ctrl.Boot(ctx, t0)
			if tt.synced {
				f.script("/terminal/ping", reply{status: 200, body: `{"updateFlag":0}`})
				f.ctrl.Tick(ctx, t0)
			}
			f.link.state = tt.linkState
			f.script("/terminal/scan", reply{status: 200})

			// Act
			got := f.ctrl.HandleScan(ctx, t0.Add(tt.scanAt), 0x00AB12CD)

			// Assert
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want, f.transport.count("/terminal/scan") == 1)
			if !tt.want {
				assert.Equal(t, EventScanSkipped, f.events.events[len(f.events.events)-1])
			}
		})
	}
}

func TestController_HandleScan_Degraded(t *testing.T) {
	f := newFixture(provisioned, link.Connected)
	ctx := context.Background()
	f.ctrl.Boot(ctx, t0)
	f.script("/terminal/ping", reply{status: 200, body: `{"updateFlag":0}`}, reply{status: 503})
	f.ctrl.Tick(ctx, t0)
	f.ctrl.Tick(ctx, t0.Add(time.Minute))
	require.Equal(t, Degraded, f.ctrl.Snapshot().State)

	// The last good sync is now exactly one interval old.
	assert.False(t, f.ctrl.ScanReady(t0.Add(time.Minute)))
	assert.True(t, f.ctrl.ScanReady(t0.Add(59*time.Second)))
}

func TestController_HandleScan_Result(t *testing.T) {
	tests := []struct {
		name      string
		reply     reply
		want      bool
		wantEvent Event
	}{
		{name: "accepted", reply: reply{status: 200}, want: true, wantEvent: EventScanAccepted},
		{name: "rejected", reply: reply{status: 403, body: "unknown card"}, want: false, wantEvent: EventScanRejected},
		{name: "timeout", reply: reply{err: context.DeadlineExceeded}, want: false, wantEvent: EventScanRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(provisioned, link.Connected)
			ctx := context.Background()
			f.ctrl.Boot(ctx, t0)
			f.script("/terminal/ping", reply{status: 200, body: `{"updateFlag":0}`})
			f.ctrl.Tick(ctx, t0)
			f.script("/terminal/scan", tt.reply)

			got := f.ctrl.HandleScan(ctx, t0.Add(time.Second), 7)

			assert.Equal(t, tt.want, got)
			n := len(f.events.events)
			assert.Equal(t, []Event{EventScanStarted, tt.wantEvent}, f.events.events[n-2:])
			assert.Equal(t, Operational, f.ctrl.Snapshot().State)
			assert.Equal(t, 0, f.ctrl.Snapshot().Failures)
		})
	}
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "provisioning", Provisioning.String())
	assert.Equal(t, "operational", Operational.String())
	assert.Equal(t, "degraded", Degraded.String())
	assert.Equal(t, "recovering", Recovering.String())
	assert.Equal(t, "unknown", State(9).String())
}

func TestEvent_String(t *testing.T) {
	assert.Equal(t, "scan_accepted", EventScanAccepted.String())
	assert.Equal(t, "unknown", Event(99).String())
}
