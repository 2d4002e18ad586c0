// Package leave is the HTTP client for the external leave-tracking service.
// The engine calls it once per report window with every worker's email.
package leave

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/productivity-engine/attribution"
	"github.com/warp/productivity-engine/generic"
)

// Config configures the leave client.
type Config struct {
	BaseURL      string
	Timeout      time.Duration // whole lookup, retries included
	MaxRetries   int
	RetryBackoff time.Duration
}

// DefaultConfig returns a 10 second timeout with 2 retries.
func DefaultConfig() Config {
	return Config{
		Timeout:      10 * time.Second,
		MaxRetries:   2,
		RetryBackoff: 200 * time.Millisecond,
	}
}

// Client implements attribution.LeaveService over HTTP.
type Client struct {
	cfg      Config
	http     *http.Client
	observer Observer
}

var _ attribution.LeaveService = (*Client)(nil)

// NewClient creates a leave client. A nil observer discards events.
func NewClient(cfg Config, observer Observer) *Client {
	if observer == nil {
		observer = NoopObserver{}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{
		cfg: cfg,
		http: &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 5 * time.Second,
				}).DialContext,
			},
		},
		observer: observer,
	}
}

// lookupRequest is the JSON body sent to POST {base}/leave.
type lookupRequest struct {
	StartDate string   `json:"start_date"`
	EndDate   string   `json:"end_date"`
	Emails    []string `json:"emails"`
}

// lookupResponse is the JSON body returned by POST {base}/leave.
type lookupResponse struct {
	NADData []struct {
		Email    string          `json:"email"`
		NADCount decimal.Decimal `json:"nad_count"`
	} `json:"nad_data"`
	NADHourRate decimal.Decimal `json:"nad_hour_rate"`
}

// permanentError marks failures that retrying will not fix.
type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Lookup returns leave-day counts for every email over window. Failures are
// returned as *attribution.ExternalServiceError.
func (c *Client) Lookup(ctx context.Context, window generic.Period, emails []string) (*attribution.LeaveResult, error) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	body := lookupRequest{
		StartDate: window.Start.String(),
		EndDate:   window.End.String(),
		Emails:    emails,
	}

	var lastErr error
	attempts := 0
	for i := 0; i < 1+c.cfg.MaxRetries; i++ {
		attempts++
		resp, err := c.doRequest(ctx, body)
		if err == nil {
			c.observer.OnLookupComplete(LookupEvent{
				Window:    window.String(),
				Emails:    len(emails),
				Attempts:  attempts,
				LatencyMs: time.Since(start).Milliseconds(),
				Success:   true,
			})
			return toResult(resp), nil
		}
		lastErr = err

		// Don't retry on context cancellation/timeout or client errors
		var perm *permanentError
		if ctx.Err() != nil || errors.As(err, &perm) {
			break
		}
		if i < c.cfg.MaxRetries && c.cfg.RetryBackoff > 0 {
			select {
			case <-time.After(c.cfg.RetryBackoff * time.Duration(i+1)):
			case <-ctx.Done():
			}
		}
	}

	var final error
	switch {
	case ctx.Err() != nil:
		final = ErrTimeout
	case isConnectionError(lastErr):
		final = ErrUnavailable
	case errors.Is(lastErr, ErrBadResponse):
		final = lastErr
	default:
		final = fmt.Errorf("%w: %v", ErrRetryExhausted, lastErr)
	}

	c.observer.OnLookupComplete(LookupEvent{
		Window:    window.String(),
		Emails:    len(emails),
		Attempts:  attempts,
		LatencyMs: time.Since(start).Milliseconds(),
		Success:   false,
		ErrorCode: errorCode(final),
	})
	return nil, &attribution.ExternalServiceError{Service: "leave", Err: final}
}

func (c *Client) doRequest(ctx context.Context, body lookupRequest) (*lookupResponse, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, &permanentError{fmt.Errorf("marshaling request: %w", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/leave", bytes.NewReader(data))
	if err != nil {
		return nil, &permanentError{fmt.Errorf("creating request: %w", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	switch {
	case httpResp.StatusCode >= 500:
		return nil, fmt.Errorf("leave service returned status %d: %s", httpResp.StatusCode, string(respBody))
	case httpResp.StatusCode != http.StatusOK:
		return nil, &permanentError{fmt.Errorf("%w: status %d: %s", ErrBadResponse, httpResp.StatusCode, string(respBody))}
	}

	var resp lookupResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, &permanentError{fmt.Errorf("%w: %v", ErrBadResponse, err)}
	}
	return &resp, nil
}

func toResult(resp *lookupResponse) *attribution.LeaveResult {
	result := &attribution.LeaveResult{
		Counts:   make(map[string]decimal.Decimal, len(resp.NADData)),
		HourRate: resp.NADHourRate,
	}
	for _, entry := range resp.NADData {
		email := attribution.NormalizeEmail(entry.Email)
		result.Counts[email] = result.Counts[email].Add(entry.NADCount)
	}
	return result
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	var netErr *net.OpError
	return errors.As(err, &netErr)
}

func errorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTimeout):
		return "TIMEOUT"
	case errors.Is(err, ErrUnavailable):
		return "UNAVAILABLE"
	case errors.Is(err, ErrBadResponse):
		return "BAD_RESPONSE"
	default:
		return "UNKNOWN"
	}
}
