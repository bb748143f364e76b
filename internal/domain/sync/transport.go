package sync

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Response is what the sync protocol needs from an HTTP exchange.
type Response struct {
	StatusCode int
	Body       []byte
}

// Transport posts a JSON body and returns the raw response.
// Implementations must honour timeout for the whole exchange.
type Transport interface {
	Post(ctx context.Context, url string, body []byte, timeout time.Duration) (Response, error)
}

const maxResponseBytes = 64 << 10

// HTTPTransport is the net/http implementation of Transport.
type HTTPTransport struct {
	client    *http.Client
	userAgent string
}

func NewHTTPTransport() *HTTPTransport {
	return &HTTPTransport{
		client: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        4,
				IdleConnTimeout:     90 * time.Second,
				MaxIdleConnsPerHost: 2,
			},
		},
		userAgent: "AccessTerm/1.0",
	}
}

func (t *HTTPTransport) Post(ctx context.Context, url string, body []byte, timeout time.Duration) (Response, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Response{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", t.userAgent)

	resp, err := t.client.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return Response{}, fmt.Errorf("read response: %w", err)
	}
	if len(data) > maxResponseBytes {
		return Response{}, fmt.Errorf("%w: more than %d bytes", ErrResponseTooLarge, maxResponseBytes)
	}

	return Response{StatusCode: resp.StatusCode, Body: data}, nil
}
