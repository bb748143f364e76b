package terminal

import (
	"context"
	"time"

	"accessterm/internal/domain/link"
	"accessterm/internal/domain/settings"
	"accessterm/internal/domain/sync"
)

// Store is the configuration store as seen by the controller.
type Store interface {
	Load(ctx context.Context) (settings.Record, error)
	Record() settings.Record
	Apply(ctx context.Context, p settings.Patch) (bool, error)
}

// Link is the network link as seen by the controller.
type Link interface {
	Connect(now time.Time, ssid, secret string) link.ConnectivityState
	Poll(now time.Time) link.ConnectivityState
	IsUp() bool
	State() link.ConnectivityState
	EnterLocalAccessPoint(now time.Time)
	ServeAccessPointRequests(ctx context.Context) link.ServeResult
}

// SyncClient is the remote sync protocol as seen by the controller.
type SyncClient interface {
	Ping(ctx context.Context, rec settings.Record) sync.Outcome
	ConfirmUpdate(ctx context.Context, rec settings.Record) bool
	ReportScan(ctx context.Context, tag uint32, rec settings.Record) bool
}
