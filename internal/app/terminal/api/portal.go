package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/exp/slog"

	"accessterm/internal/app/terminal/config"
	"accessterm/internal/domain/link"
	"accessterm/internal/domain/settings"
)

const (
	queueSize       = 4
	shutdownTimeout = 5 * time.Second
	readTimeout     = 10 * time.Second
)

var (
	ErrQueueFull  = errors.New("submission queue is full")
	ErrPortalOpen = errors.New("portal already open")
)

// Portal is the access-point configuration server. HTTP handlers run on their own goroutines and only
// push submissions into a bounded queue; the control loop drains it through Next.
type Portal struct {
	cfg config.Portal
	log *slog.Logger

	submissions chan link.Submission

	mu       sync.Mutex
	snapshot settings.Record
	closesAt time.Time
	server   *http.Server
	addr     net.Addr
}

func NewPortal(cfg config.Portal, log *slog.Logger) *Portal {
	return &Portal{
		cfg:         cfg,
		log:         log.With(slog.String("component", "portal")),
		submissions: make(chan link.Submission, queueSize),
	}
}

// Open starts serving with snapshot as the configuration shown to operators until closesAt.
func (p *Portal) Open(snapshot settings.Record, closesAt time.Time) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.server != nil {
		return ErrPortalOpen
	}

	ln, err := net.Listen("tcp", p.cfg.Address)
	if err != nil {
		return fmt.Errorf("portal listen: %w", err)
	}

	p.snapshot = snapshot
	p.closesAt = closesAt
	p.addr = ln.Addr()
	p.server = &http.Server{
		Handler:           NewRouter(p, p.cfg, p.log),
		ReadHeaderTimeout: readTimeout,
	}

	go func(srv *http.Server) {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			p.log.Error("portal stopped", slog.Any("error", err))
		}
	}(p.server)

	p.log.Info("portal listening", slog.String("address", p.addr.String()))
	if p.cfg.PasswordHash == "" {
		p.log.Warn("portal has no password, any client that reaches it can change the configuration",
			slog.String("address", p.addr.String()),
		)
	}
	return nil
}

// Close stops the server and discards submissions that were not consumed.
func (p *Portal) Close() error {
	p.mu.Lock()
	srv := p.server
	p.server = nil
	p.addr = nil
	p.snapshot = settings.Record{}
	p.closesAt = time.Time{}
	p.mu.Unlock()

	if srv == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := srv.Shutdown(ctx)

	for {
		select {
		case <-p.submissions:
		default:
			p.log.Info("portal closed")
			return err
		}
	}
}

// Next returns the oldest pending submission without blocking.
func (p *Portal) Next() (link.Submission, bool) {
	select {
	case sub := <-p.submissions:
		return sub, true
	default:
		return link.Submission{}, false
	}
}

func (p *Portal) Snapshot() settings.Record {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshot
}

func (p *Portal) ClosesAt() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closesAt
}

// Pending is the number of queued submissions the control loop has not taken yet.
func (p *Portal) Pending() int {
	return len(p.submissions)
}

func (p *Portal) Submit(sub link.Submission) error {
	select {
	case p.submissions <- sub:
		return nil
	default:
		return ErrQueueFull
	}
}

// Addr is the bound listen address, or nil while closed.
func (p *Portal) Addr() net.Addr {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.addr
}
