// Package fetch performs provider HTTP calls with a bounded retry budget and
// classifies the outcome as success, empty result or provider error.
package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/ivy-assistant/server/internal/agent/model"
	errx "github.com/ivy-assistant/server/internal/core/error"
	logx "github.com/ivy-assistant/server/pkg/logger"
)

const (
	DefaultMaxAttempts = 3
	DefaultRetryDelay  = 3 * time.Second
	maxBodyBytes       = 4 << 20
)

// Kind is the classified outcome of a fetch.
type Kind int

const (
	Success Kind = iota
	EmptyResult
	ProviderError
)

func (k Kind) String() string {
	switch k {
	case Success:
		return "success"
	case EmptyResult:
		return "empty_result"
	default:
		return "provider_error"
	}
}

// EmptyFunc reports whether a successful body carries zero usable items.
type EmptyFunc func(body []byte) (bool, error)

// Request describes one provider call.
type Request struct {
	BaseURL string
	Query   url.Values
	Headers map[string]string
	Empty   EmptyFunc
}

// Result is what callers branch on. Payload is set only for Success.
type Result struct {
	Kind     Kind
	Payload  []byte
	Status   int
	Detail   string
	Attempts int
}

// OK reports a usable payload.
func (r Result) OK() bool { return r.Kind == Success }

// Err converts a non-success result into a ProviderUnavailable error.
func (r Result) Err() error {
	if r.Kind == Success {
		return nil
	}
	return errx.Unavailable(fmt.Errorf("%s: %s", r.Kind, r.Detail))
}

// Decode unmarshals the payload into v.
func (r Result) Decode(v any) error {
	if r.Kind != Success {
		return r.Err()
	}
	return json.Unmarshal(r.Payload, v)
}

// Fetcher is implemented by Client; providers depend on it so tests can stub transport.
type Fetcher interface {
	Fetch(ctx context.Context, req Request) Result
}

// Client retries network failures, 5xx and 429 with a constant delay.
type Client struct {
	http        *http.Client
	maxAttempts int
	delay       time.Duration
}

func NewClient(cfg model.FetchConfig) *Client {
	c := &Client{
		http:        &http.Client{Timeout: cfg.Timeout},
		maxAttempts: cfg.MaxAttempts,
		delay:       cfg.RetryDelay,
	}
	if c.maxAttempts <= 0 {
		c.maxAttempts = DefaultMaxAttempts
	}
	if c.delay <= 0 {
		c.delay = DefaultRetryDelay
	}
	return c
}

type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("provider responded %d: %s", e.status, e.body)
}

func retryable(status int) bool {
	return status >= http.StatusInternalServerError || status == http.StatusTooManyRequests
}

func (c *Client) Fetch(ctx context.Context, req Request) Result {
	target, err := buildURL(req.BaseURL, req.Query)
	if err != nil {
		return Result{Kind: ProviderError, Detail: err.Error()}
	}

	attempts := 0
	operation := func() ([]byte, error) {
		attempts++
		hreq, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		hreq.Header.Set("Accept", "application/json")
		for k, v := range req.Headers {
			hreq.Header.Set(k, v)
		}

		resp, err := c.http.Do(hreq)
		if err != nil {
			if ctx.Err() != nil {
				return nil, backoff.Permanent(ctx.Err())
			}
			return nil, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= http.StatusBadRequest {
			serr := &statusError{status: resp.StatusCode, body: snippet(body)}
			if retryable(resp.StatusCode) {
				return nil, serr
			}
			return nil, backoff.Permanent(serr)
		}
		return body, nil
	}

	notify := func(err error, next time.Duration) {
		logx.Warn().
			Err(err).
			Str("component", "fetch").
			Str("base_url", req.BaseURL).
			Int("attempt", attempts).
			Dur("retry_in", next).
			Msg("provider call failed, retrying")
	}

	body, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewConstantBackOff(c.delay)),
		backoff.WithMaxTries(uint(c.maxAttempts)),
		backoff.WithNotify(notify),
	)
	if err != nil {
		res := Result{Kind: ProviderError, Detail: err.Error(), Attempts: attempts}
		var serr *statusError
		if errors.As(err, &serr) {
			res.Status = serr.status
		}
		logx.Error().
			Err(err).
			Str("component", "fetch").
			Str("base_url", req.BaseURL).
			Int("attempts", attempts).
			Msg("provider call failed")
		return res
	}

	return classify(body, req.Empty, attempts)
}

func classify(body []byte, empty EmptyFunc, attempts int) Result {
	if detail, ok := errorMember(body); ok {
		return Result{Kind: ProviderError, Status: http.StatusOK, Detail: detail, Attempts: attempts}
	}
	if empty != nil {
		isEmpty, err := empty(body)
		if err != nil {
			return Result{Kind: ProviderError, Status: http.StatusOK, Detail: "decode: " + err.Error(), Attempts: attempts}
		}
		if isEmpty {
			return Result{Kind: EmptyResult, Status: http.StatusOK, Detail: "no items", Attempts: attempts}
		}
	}
	return Result{Kind: Success, Payload: body, Status: http.StatusOK, Attempts: attempts}
}

// errorMember detects provider error envelopes ({"error": ...}) sent with 2xx.
func errorMember(body []byte) (string, bool) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return "", false
	}
	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return "", false
	}
	if len(envelope.Error) == 0 || string(envelope.Error) == "null" {
		return "", false
	}
	return snippet(envelope.Error), true
}

func buildURL(base string, q url.Values) (string, error) {
	if strings.TrimSpace(base) == "" {
		return "", errx.Missing("provider base url")
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse provider url: %w", err)
	}
	if len(q) > 0 {
		merged := u.Query()
		for k, vs := range q {
			for _, v := range vs {
				merged.Add(k, v)
			}
		}
		u.RawQuery = merged.Encode()
	}
	return u.String(), nil
}

func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > 200 {
		return s[:200]
	}
	return s
}

// ItemsEmpty returns an EmptyFunc checking that the named top-level array is non-empty.
func ItemsEmpty(field string) EmptyFunc {
	return func(body []byte) (bool, error) {
		var m map[string]json.RawMessage
		if err := json.Unmarshal(body, &m); err != nil {
			return false, err
		}
		raw, ok := m[field]
		if !ok {
			return true, nil
		}
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return false, err
		}
		return len(items) == 0, nil
	}
}
