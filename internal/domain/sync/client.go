package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/exp/slog"

	"accessterm/internal/domain/settings"
)

// Options bounds each exchange. Scan reports get their own, longer budget.
type Options struct {
	RequestTimeout time.Duration
	ScanTimeout    time.Duration
}

// Client speaks the terminal protocol. It never retries and never returns errors:
// every failure is folded into the result value.
type Client struct {
	transport Transport
	log       *slog.Logger
	opts      Options
}

func NewClient(transport Transport, log *slog.Logger, opts Options) *Client {
	return &Client{
		transport: transport,
		log:       log.With(slog.String("component", "sync_client")),
		opts:      opts,
	}
}

// Ping reports liveness and picks up server-side configuration changes.
func (c *Client) Ping(ctx context.Context, rec settings.Record) Outcome {
	if !rec.Provisioned() {
		c.log.Warn("ping skipped", slog.Any("error", ErrNotProvisioned))
		return Outcome{Skipped: true, Err: ErrNotProvisioned}
	}

	resp, err := c.post(ctx, rec.Endpoint, pingPath, PingRequest{
		TerminalID: rec.TerminalID,
		AuthKey:    rec.AuthKey,
	}, c.opts.RequestTimeout)
	if err != nil {
		return Outcome{Err: err}
	}

	doc, err := parseDocument(resp.Body)
	if err != nil {
		c.log.Warn("ping response rejected", slog.Any("error", err))
		return Outcome{Err: err}
	}

	flag := doc.updateFlag()
	c.log.Debug("ping acknowledged", slog.Int("update_flag", flag))

	if flag != 1 {
		return Outcome{Reachable: true}
	}

	proposed := rec.Diff(doc.stringFields())
	for _, f := range proposed.Fields() {
		if f.Secret() {
			c.log.Info("server proposes new value", slog.String("field", f.String()))
		} else {
			c.log.Info("server proposes new value", slog.String("field", f.String()), slog.String("value", proposed[f]))
		}
	}

	return Outcome{
		Reachable:       true,
		UpdateRequested: true,
		Proposed:        proposed,
	}
}

// ConfirmUpdate echoes the settings now in effect. True means the server reports updateFlag == 0,
// i.e. it considers the new settings applied and nothing else pending.
func (c *Client) ConfirmUpdate(ctx context.Context, rec settings.Record) bool {
	if !rec.Provisioned() {
		c.log.Warn("update confirmation skipped", slog.Any("error", ErrNotProvisioned))
		return false
	}

	resp, err := c.post(ctx, rec.Endpoint, updatePath, UpdateRequest{
		TerminalID: rec.TerminalID,
		AuthKey:    rec.AuthKey,
		Settings: UpdateSettings{
			SSID:     rec.SSID,
			Password: rec.Password,
			Endpoint: rec.Endpoint,
		},
	}, c.opts.RequestTimeout)
	if err != nil {
		return false
	}

	doc, err := parseDocument(resp.Body)
	if err != nil {
		c.log.Warn("update confirmation rejected", slog.Any("error", err))
		return false
	}

	if flag := doc.updateFlag(); flag != 0 {
		c.log.Info("update not confirmed", slog.Any("error", ErrUpdatePending), slog.Int("update_flag", flag))
		return false
	}

	return true
}

// ReportScan forwards a tag id. Only an exact HTTP 200 counts as delivered; the body is ignored.
func (c *Client) ReportScan(ctx context.Context, tag uint32, rec settings.Record) bool {
	if !rec.Provisioned() {
		c.log.Warn("scan report skipped", slog.Any("error", ErrNotProvisioned))
		return false
	}

	_, err := c.post(ctx, rec.Endpoint, scanPath, ScanRequest{
		TerminalID: rec.TerminalID,
		AuthKey:    rec.AuthKey,
		RFID:       strconv.FormatUint(uint64(tag), 10),
	}, c.opts.ScanTimeout)

	return err == nil
}

// post returns an error for transport failures and for any status other than 200.
func (c *Client) post(ctx context.Context, base, path string, payload any, timeout time.Duration) (Response, error) {
	url := strings.TrimRight(base, "/") + path

	body, err := json.Marshal(payload)
	if err != nil {
		return Response{}, fmt.Errorf("marshal request: %w", err)
	}

	c.log.Debug("sending request", slog.String("url", url), slog.Duration("timeout", timeout))

	resp, err := c.transport.Post(ctx, url, body, timeout)
	if err != nil {
		c.log.Warn("request failed", slog.String("url", url), slog.Any("error", err))
		return Response{}, err
	}

	c.log.Debug("response received", slog.String("url", url), slog.Int("status", resp.StatusCode))

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
		c.log.Warn("request failed", slog.String("url", url), slog.Any("error", err))
		return resp, err
	}

	return resp, nil
}

// document is a lenient view of a JSON response: any valid JSON parses, missing or
// mistyped members read as their zero value.
type document map[string]json.RawMessage

func parseDocument(body []byte) (document, error) {
	if !json.Valid(body) {
		return nil, ErrMalformedResponse
	}

	doc := document{}
	if err := json.Unmarshal(body, &doc); err != nil {
		// valid JSON that is not an object: no members
		return document{}, nil
	}
	return doc, nil
}

func (d document) updateFlag() int {
	raw, ok := d[updateFlagKey]
	if !ok {
		return 0
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0
	}

	switch x := v.(type) {
	case float64:
		return truncInt(x)
	case bool:
		if x {
			return 1
		}
		return 0
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(x), 64); err == nil {
			return truncInt(f)
		}
	}
	return 0
}

// stringFields returns the configuration members that are JSON strings.
func (d document) stringFields() map[settings.Field]string {
	out := map[settings.Field]string{}
	for _, f := range settings.Fields() {
		raw, ok := d[f.String()]
		if !ok || len(raw) == 0 || raw[0] != '"' {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			continue
		}
		out[f] = s
	}
	return out
}

func truncInt(f float64) int {
	if math.IsNaN(f) || f > math.MaxInt32 || f < math.MinInt32 {
		return 0
	}
	return int(f)
}
