package terminal

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"accessterm/internal/app/terminal/config"
	"accessterm/internal/domain/settings"
	termctl "accessterm/internal/domain/terminal"
	"accessterm/internal/utils/logger"
)

func testConfig(t *testing.T, driver string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Env:       config.EnvProd,
		ConfigDir: dir,
		Store:     config.Store{Driver: driver, Path: filepath.Join(dir, "terminal.store")},
		Sync:      config.Sync{RequestTimeout: time.Second, ScanTimeout: time.Second},
		Link: config.Link{
			Radio:           config.RadioWired,
			ConnectAttempts: 20,
			ConnectSpacing:  500 * time.Millisecond,
			APDwell:         2 * time.Minute,
			APSSID:          "Terminal Config",
			APPassphrase:    "terminator1605",
		},
		Portal: config.Portal{Address: "127.0.0.1:0"},
		Timing: config.Timing{
			PingInterval:     time.Minute,
			PingRetryDelay:   time.Second,
			FailureThreshold: 3,
			TickInterval:     5 * time.Millisecond,
		},
	}
}

func seed(t *testing.T, cfg *config.Config, rec settings.Record) {
	t.Helper()
	repo, store, err := OpenStore(cfg, logger.Discard())
	require.NoError(t, err)
	require.NoError(t, store.SetAll(context.Background(), rec))
	require.NoError(t, repo.Close())
}

func load(t *testing.T, cfg *config.Config) settings.Record {
	t.Helper()
	repo, store, err := OpenStore(cfg, logger.Discard())
	require.NoError(t, err)
	defer repo.Close()
	rec, err := store.Load(context.Background())
	require.NoError(t, err)
	return rec
}

func TestApp_RemoteUpdateRestarts(t *testing.T) {
	for _, driver := range []string{config.StoreSQLite, config.StoreEEPROM} {
		t.Run(driver, func(t *testing.T) {
			// Arrange
			var pings, updates atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				switch r.URL.Path {
				case "/terminal/ping":
					pings.Add(1)
					_, _ = io.WriteString(w, `{"updateFlag":1,"ssid":"NewNet"}`)
				case "/terminal/update":
					updates.Add(1)
					var body map[string]any
					_ = json.NewDecoder(r.Body).Decode(&body)
					assert.Equal(t, "NewNet", body["settings"].(map[string]any)["ssid"])
					_, _ = io.WriteString(w, `{"updateFlag":0}`)
				default:
					w.WriteHeader(http.StatusNotFound)
				}
			}))
			defer srv.Close()

			cfg := testConfig(t, driver)
			seed(t, cfg, settings.Record{SSID: "OldNet", Endpoint: srv.URL, TerminalID: "T1", AuthKey: "key"})

			var out strings.Builder
			app, err := New(cfg, logger.Discard(), WithIndicatorOutput(&out))
			require.NoError(t, err)
			assert.NotEmpty(t, app.BootID())

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			// Act
			err = app.Run(ctx)
			require.NoError(t, app.Close())

			// Assert
			assert.ErrorIs(t, err, termctl.ErrRestart)
			assert.Equal(t, int32(1), pings.Load())
			assert.Equal(t, int32(1), updates.Load())
			assert.Equal(t, "NewNet", load(t, cfg).SSID)
			assert.Contains(t, out.String(), "restarting")
		})
	}
}

func TestApp_RecoveryPortalSaveRestarts(t *testing.T) {
	// Arrange
	var pings atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pings.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := testConfig(t, config.StoreSQLite)
	cfg.Timing.PingRetryDelay = 10 * time.Millisecond
	seed(t, cfg, settings.Record{SSID: "OldNet", Endpoint: srv.URL, TerminalID: "T1", AuthKey: "key"})

	var out strings.Builder
	app, err := New(cfg, logger.Discard(), WithIndicatorOutput(&out))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	require.Eventually(t, func() bool { return app.portal.Addr() != nil }, 3*time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(cfg.Timing.FailureThreshold), pings.Load())

	// Act
	form := url.Values{
		"ssid":       {"NewNet"},
		"password":   {"newpw"},
		"endpoint":   {srv.URL},
		"terminalId": {"T2"},
		"authKey":    {"key2"},
	}
	resp, err := http.PostForm("http://"+app.portal.Addr().String()+"/save", form)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	// Assert
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "restarting")

	select {
	case err := <-done:
		assert.ErrorIs(t, err, termctl.ErrRestart)
	case <-ctx.Done():
		t.Fatal("terminal did not restart after the portal save")
	}
	require.NoError(t, app.Close())

	rec := load(t, cfg)
	assert.Equal(t, "NewNet", rec.SSID)
	assert.Equal(t, "T2", rec.TerminalID)
	assert.Equal(t, "key2", rec.AuthKey)
}

func TestApp_StopsOnCancel(t *testing.T) {
	cfg := testConfig(t, config.StoreSQLite)

	app, err := New(cfg, logger.Discard(), WithIndicatorOutput(io.Discard))
	require.NoError(t, err)
	defer app.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	assert.NoError(t, app.Run(ctx))
}

func TestNew_InvalidRadio(t *testing.T) {
	cfg := testConfig(t, config.StoreSQLite)
	cfg.Link.Radio = "carrier-pigeon"

	_, err := New(cfg, logger.Discard(), WithIndicatorOutput(io.Discard))

	assert.Error(t, err)
}
