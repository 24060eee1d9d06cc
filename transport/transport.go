// Package transport defines the generic HTTP capability the registration
// and service layers consume. Per spec §1 this is "the generic HTTP
// client used to issue requests (treated as an interface returning a
// typed result from a request descriptor)" — host applications are free
// to swap in their own platform HTTP stack; Client is the seam.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/84adam/mfa-core/mfaerrors"
)

// RequestDescriptor is the full description of one HTTP round-trip a
// provider or service wants performed. Body, when non-nil, is JSON
// marshaled by the Client implementation.
type RequestDescriptor struct {
	Method      string
	URL         string
	Body        any
	Headers     map[string]string
	BearerToken string
	TLSInsecure bool
}

// Result is the outcome of one RequestDescriptor.
type Result struct {
	StatusCode int
	Body       []byte
}

// IsSuccess reports whether the response status is 2xx, per spec §4.7's
// "2xx is success (204 observed)".
func (r Result) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// DecodeJSON unmarshals the response body into v.
func (r Result) DecodeJSON(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return mfaerrors.DataDecodingFailed(err)
	}
	return nil
}

// Client is the capability interface the rest of the module depends on.
// A real host implementation typically wraps its platform's HTTP stack;
// HTTPClient below is the reference implementation used by cmd/mfa-demo
// and tests that want real network behavior.
type Client interface {
	Do(ctx context.Context, req RequestDescriptor) (Result, error)
}

// HTTPClient is a net/http-backed reference implementation, grounded on
// the teacher's own client HTTP helper.
type HTTPClient struct {
	plain   *http.Client
	trusted *http.Client // used when req.TLSInsecure is set
}

// NewHTTPClient builds an HTTPClient with the given request timeout. A
// second internal client, configured to skip TLS verification, is built
// lazily the first time a RequestDescriptor sets TLSInsecure — this is
// the on-premise "ignoreSslCerts=true" path from spec §4.5.
func NewHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		plain: &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) clientFor(insecure bool) *http.Client {
	if !insecure {
		return c.plain
	}
	if c.trusted == nil {
		c.trusted = &http.Client{
			Timeout:   c.plain.Timeout,
			Transport: insecureTransport(),
		}
	}
	return c.trusted
}

func (c *HTTPClient) Do(ctx context.Context, req RequestDescriptor) (Result, error) {
	var body io.Reader
	if req.Body != nil {
		encoded, err := json.Marshal(req.Body)
		if err != nil {
			return Result{}, fmt.Errorf("transport: failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return Result{}, fmt.Errorf("transport: failed to build request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	if req.BearerToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.BearerToken)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.clientFor(req.TLSInsecure).Do(httpReq)
	if err != nil {
		return Result{}, mfaerrors.Underlying(err)
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("transport: failed to read response: %w", err)
	}

	return Result{StatusCode: resp.StatusCode, Body: responseBody}, nil
}

// WithQuery appends a raw query string to a base URL, joining with '?'
// or '&' as appropriate. Small helper used by registration providers to
// build endpoints like "{registrationUri}?skipTotpEnrollment=true".
func WithQuery(base, query string) string {
	if query == "" {
		return base
	}
	if strings.Contains(base, "?") {
		return base + "&" + query
	}
	return base + "?" + query
}
