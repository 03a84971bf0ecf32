package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/anatolykoptev/go_ytpulse/internal/engine"
)

const (
	maxBodyBytes   = 8 << 20
	redactedAPIKey = "REDACTED"
)

// Fetch performs one logical GET against endpoint (e.g. "search") and decodes
// the JSON body into out. The call waits on the shared limiter, then retries
// server and transport failures with linear backoff. Quota and client errors
// are returned on the first attempt. An empty apiKey fails before any I/O.
func (c *Client) Fetch(ctx context.Context, apiKey, endpoint string, params url.Values, out any) error {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return ErrMissingCredential
	}

	q := make(url.Values, len(params)+1)
	for k, v := range params {
		q[k] = v
	}
	q.Set("key", apiKey)
	endpoint = strings.Trim(endpoint, "/")
	reqURL := strings.TrimRight(c.baseURL, "/") + "/" + endpoint + "?" + q.Encode()

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	body, err := engine.RetryDo(ctx, c.retry, func() ([]byte, error) {
		return c.get(ctx, endpoint, reqURL)
	})
	if err != nil {
		if errors.Is(err, ErrQuota) {
			engine.IncrQuotaErrors()
		}
		return err
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("youtube: decode %s response: %w", endpoint, err)
	}
	return nil
}

// get is a single attempt. Non-retryable failures come back wrapped with
// engine.Permanent.
func (c *Client) get(ctx context.Context, endpoint, reqURL string) ([]byte, error) {
	engine.IncrAPIRequests()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, engine.Permanent(fmt.Errorf("youtube: build %s request: %w", endpoint, err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", engine.UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &APIError{Kind: ErrTransport, Endpoint: endpoint, Err: redactKey(err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &APIError{Kind: ErrTransport, Endpoint: endpoint, StatusCode: resp.StatusCode, Err: err}
	}
	if resp.StatusCode == http.StatusOK {
		return body, nil
	}

	apiErr := classifyResponse(endpoint, resp.StatusCode, body)
	slog.Debug("youtube: request failed",
		slog.String("endpoint", endpoint),
		slog.Int("status", resp.StatusCode),
		slog.String("reason", apiErr.Reason))
	if apiErr.Retryable() {
		return nil, apiErr
	}
	return nil, engine.Permanent(apiErr)
}

// redactKey strips the API key from the URL that net/http puts in its errors.
func redactKey(err error) error {
	var ue *url.Error
	if !errors.As(err, &ue) {
		return err
	}
	u, perr := url.Parse(ue.URL)
	if perr != nil {
		return err
	}
	q := u.Query()
	if q.Has("key") {
		q.Set("key", redactedAPIKey)
		u.RawQuery = q.Encode()
	}
	return &url.Error{Op: ue.Op, URL: u.String(), Err: ue.Err}
}
