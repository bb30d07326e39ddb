package canister

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HTTPConn implements Conn over the gateway's HTTP/JSON call endpoint:
//
//	POST {base}/v1/canisters/{canister}/call/{method}
//	{"args": [...]}
//
// The response body is the method's reply value.
type HTTPConn struct {
	baseURL    string
	canisterID string
	opts       connOptions
}

// NewHTTPConn creates a connection to the canister behind baseURL
// (e.g. "http://localhost:8000").
func NewHTTPConn(baseURL, canisterID string, opts ...ConnOption) *HTTPConn {
	o := buildOptions(opts)
	if o.httpClient == nil {
		o.httpClient = &http.Client{}
	}
	return &HTTPConn{
		baseURL:    strings.TrimRight(baseURL, "/"),
		canisterID: canisterID,
		opts:       o,
	}
}

// Close is a no-op for the HTTP transport.
func (c *HTTPConn) Close() error { return nil }

// APIError is a non-2xx response from the HTTP endpoint.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// Call implements Conn.
func (c *HTTPConn) Call(ctx context.Context, method string, args []any, reply any) error {
	if args == nil {
		args = []any{}
	}
	body, err := json.Marshal(struct {
		Args []any `json:"args"`
	}{args})
	if err != nil {
		return fmt.Errorf("marshaling %s args: %w", method, err)
	}

	headers, err := callHeaders(ctx, c.opts.signer, c.canisterID, method, body)
	if err != nil {
		return fmt.Errorf("signing %s: %w", method, err)
	}

	path := "/v1/canisters/" + url.PathEscape(c.canisterID) + "/call/" + url.PathEscape(method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	err = c.do(req, reply)
	if err != nil {
		c.opts.logger.Debug("canister call failed",
			"method", method,
			"request_id", headers[HeaderRequestID],
			"duration", time.Since(start),
			"error", err,
		)
		return err
	}
	c.opts.logger.Debug("canister call completed",
		"method", method,
		"request_id", headers[HeaderRequestID],
		"duration", time.Since(start),
	)
	return nil
}

func (c *HTTPConn) do(req *http.Request, reply any) error {
	resp, err := c.opts.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			return &APIError{StatusCode: resp.StatusCode, Message: errResp.Error}
		}
		return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
	}

	if reply != nil {
		if err := json.Unmarshal(respBody, reply); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}
