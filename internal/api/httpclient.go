package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// ErrUpstreamStatus marks a non-2xx answer from a third-party service.
var ErrUpstreamStatus = errors.New("upstream returned non-success status")

// maxUpstreamBody bounds how much of a third-party response is read.
const maxUpstreamBody = 8 << 20

// NewHTTPClient returns a traced client with a hard per-call timeout.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

// DoJSON sends req, requires a 2xx status and decodes the body into dst.
func DoJSON(client *http.Client, req *http.Request, dst any) error {
	body, err := Do(client, req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("decode %s response: %w", req.URL.Host, err)
	}
	return nil
}

// Do sends req and returns the body of a 2xx response.
func Do(client *http.Client, req *http.Request) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", req.URL.Host, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxUpstreamBody))
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", req.URL.Host, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s answered %d", ErrUpstreamStatus, req.URL.Host, resp.StatusCode)
	}
	return body, nil
}
