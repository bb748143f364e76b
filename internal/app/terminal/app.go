package terminal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/slog"

	"accessterm/internal/app/terminal/api"
	"accessterm/internal/app/terminal/config"
	"accessterm/internal/domain/link"
	"accessterm/internal/domain/settings"
	"accessterm/internal/domain/sync"
	termctl "accessterm/internal/domain/terminal"
	"accessterm/internal/infrastructure/indicator"
	"accessterm/internal/infrastructure/radio"
	"accessterm/internal/infrastructure/reader"
	"accessterm/internal/infrastructure/storage"
)

// App is one boot cycle of the terminal. After a restart action a fresh App must be built,
// which reloads everything from persistent storage.
type App struct {
	cfg    *config.Config
	log    *slog.Logger
	bootID string
	now    func() time.Time

	repo   storage.Settings
	portal *api.Portal
	reader *reader.Reader
	ctrl   *termctl.Controller
}

type Option func(*options)

type options struct {
	indicatorOut io.Writer
	now          func() time.Time
}

// WithIndicatorOutput redirects the console indicator.
func WithIndicatorOutput(w io.Writer) Option {
	return func(o *options) { o.indicatorOut = w }
}

// WithClock replaces time.Now for the control loop.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func New(cfg *config.Config, log *slog.Logger, opts ...Option) (*App, error) {
	o := options{indicatorOut: os.Stdout, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	bootID := uuid.NewString()
	log = log.With(slog.String("boot_id", bootID))

	repo, store, err := OpenStore(cfg, log)
	if err != nil {
		return nil, err
	}

	r, err := radio.New(cfg.Link, log)
	if err != nil {
		_ = repo.Close()
		return nil, fmt.Errorf("init radio: %w", err)
	}

	rd, err := reader.Open(cfg.Device.ReaderDevice, log)
	if err != nil {
		_ = repo.Close()
		return nil, fmt.Errorf("init tag reader: %w", err)
	}

	portal := api.NewPortal(cfg.Portal, log)
	lnk := link.New(r, portal, store, log, link.Options{
		ConnectAttempts: cfg.Link.ConnectAttempts,
		ConnectSpacing:  cfg.Link.ConnectSpacing,
		Dwell:           cfg.Link.APDwell,
		APSSID:          cfg.Link.APSSID,
		APPassphrase:    cfg.Link.APPassphrase,
	})

	ind := indicator.NewConsole(o.indicatorOut, cfg.IsLocal())
	ctrl := termctl.NewController(store, lnk, NewSyncClient(cfg, log), ind, log, termctl.Options{
		PingInterval:     cfg.Timing.PingInterval,
		PingRetryDelay:   cfg.Timing.PingRetryDelay,
		FailureThreshold: cfg.Timing.FailureThreshold,
	})

	return &App{
		cfg:    cfg,
		log:    log.With(slog.String("component", "app")),
		bootID: bootID,
		now:    o.now,
		repo:   repo,
		portal: portal,
		reader: rd,
		ctrl:   ctrl,
	}, nil
}

// OpenStore opens the configured persistence and wraps it in a settings store. The record is not loaded yet.
func OpenStore(cfg *config.Config, log *slog.Logger) (storage.Settings, *settings.Store, error) {
	repo, err := storage.Open(cfg.Store, log)
	if err != nil {
		return nil, nil, fmt.Errorf("open configuration storage: %w", err)
	}
	return repo, settings.NewStore(repo, log), nil
}

// NewSyncClient builds the protocol client over HTTP.
func NewSyncClient(cfg *config.Config, log *slog.Logger) *sync.Client {
	return sync.NewClient(sync.NewHTTPTransport(), log, sync.Options{
		RequestTimeout: cfg.Sync.RequestTimeout,
		ScanTimeout:    cfg.Sync.ScanTimeout,
	})
}

func (a *App) BootID() string {
	return a.bootID
}

// Run boots the controller and drives it until ctx is cancelled (nil) or a restart is due (termctl.ErrRestart).
func (a *App) Run(ctx context.Context) error {
	a.log.Info("terminal starting",
		slog.String("env", a.cfg.Env),
		slog.String("store", a.cfg.Store.Driver),
		slog.String("radio", a.cfg.Link.Radio),
	)

	a.ctrl.Boot(ctx, a.now())

	ticker := time.NewTicker(a.cfg.Timing.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.log.Info("terminal stopping", a.snapshotAttrs()...)
			return nil
		case <-ticker.C:
		}

		now := a.now()
		if action := a.ctrl.Tick(ctx, now); action.Restart() {
			return a.restart(ctx, action)
		}

		if tag, ok := a.reader.Poll(); ok {
			a.ctrl.HandleScan(ctx, now, tag)
		}
	}
}

func (a *App) restart(ctx context.Context, action termctl.Action) error {
	a.log.Info("restarting", append([]any{slog.String("reason", action.Reason)}, a.snapshotAttrs()...)...)

	timer := time.NewTimer(a.cfg.Timing.RestartDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil
	case <-timer.C:
	}

	return termctl.ErrRestart
}

// Close releases the portal, the reader and the storage.
func (a *App) Close() error {
	return errors.Join(
		a.portal.Close(),
		a.reader.Close(),
		a.repo.Close(),
	)
}

func (a *App) snapshotAttrs() []any {
	s := a.ctrl.Snapshot()
	return []any{
		slog.String("state", s.State.String()),
		slog.String("link", s.Link.String()),
		slog.Int("failures", s.Failures),
		slog.Time("last_sync", s.LastSync),
	}
}
