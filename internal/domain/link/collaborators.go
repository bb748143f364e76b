package link

import (
	"context"
	"time"

	"accessterm/internal/domain/settings"
)

// Radio drives the wireless hardware. Begin must not block on association;
// Associated is polled instead.
type Radio interface {
	Begin(ssid, secret string) error
	Associated() bool
	StartAccessPoint(ssid, passphrase string) error
	StopAccessPoint() error
}

// Portal is the local configuration server reachable while the access point is up.
// It is opened for one dwell window ending at closesAt. Next never blocks.
type Portal interface {
	Open(snapshot settings.Record, closesAt time.Time) error
	Close() error
	Next() (Submission, bool)
}

// Store is the part of the configuration store the link needs.
type Store interface {
	Record() settings.Record
	SetAll(ctx context.Context, rec settings.Record) error
}
