// Package riskclient talks to the remote extension risk classification
// service. It makes exactly one request per call and normalizes every way a
// call can go wrong into a Verdict, so the scanner can make per-outcome
// decisions without touching HTTP details.
package riskclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/extrisk/extrisk/internal/types"
)

const (
	classifyPath = "/api/getExtensionRisk"

	// invalidKeyBody is the literal body the service returns on a 200
	// response when the API key is rejected. Compared exactly.
	invalidKeyBody = "Invalid API key"

	defaultTimeout = 30 * time.Second
)

// VerdictKind classifies the outcome of a single request.
type VerdictKind int

const (
	// VerdictOK means the service returned a decodable classification.
	VerdictOK VerdictKind = iota
	// VerdictRateLimited means the service returned HTTP 429.
	VerdictRateLimited
	// VerdictUnauthorized means the credential was rejected (HTTP 403, or
	// the service's literal invalid-key body on a 200).
	VerdictUnauthorized
	// VerdictTransportError means the request never produced a response
	// (DNS failure, connection reset, timeout).
	VerdictTransportError
	// VerdictMalformed means a response arrived but carried no usable
	// classification: an undecodable body, or an unexpected status code.
	VerdictMalformed
)

// String returns the kind's name for log output.
func (k VerdictKind) String() string {
	switch k {
	case VerdictOK:
		return "ok"
	case VerdictRateLimited:
		return "rate_limited"
	case VerdictUnauthorized:
		return "unauthorized"
	case VerdictTransportError:
		return "transport_error"
	case VerdictMalformed:
		return "malformed"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Report is the classification payload for one extension.
type Report struct {
	DisplayName string  `json:"display_name"`
	Name        string  `json:"name,omitempty"`
	RiskLabel   string  `json:"riskLabel"`
	Risk        float64 `json:"risk"`
}

// Title returns the human-facing name for the report: the display name when
// present, the marketplace name otherwise.
func (r *Report) Title() string {
	if r.DisplayName != "" {
		return r.DisplayName
	}
	return r.Name
}

// Verdict is the normalized outcome of one classification request. Report
// is set only for VerdictOK; Err only for transport and decode failures.
type Verdict struct {
	Kind   VerdictKind
	Report *Report
	Err    error
}

// Request identifies the extension to classify and the credentials to
// present.
type Request struct {
	ExtensionID string
	Version     string
	APIKey      string
	Org         *types.OrgContext // attached only in org mode
}

// Client is the remote risk service client. Safe for reuse across runs; the
// scanner calls it strictly sequentially.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for the service at baseURL.
func New(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// NewWithHTTPClient creates a client with a caller-provided http.Client,
// used by tests to control timeouts.
func NewWithHTTPClient(baseURL string, httpClient *http.Client) *Client {
	return &Client{baseURL: baseURL, httpClient: httpClient}
}

// wireRequest is the service's request body.
type wireRequest struct {
	Q       string            `json:"q"`
	Version string            `json:"version,omitempty"`
	OrgData *types.OrgContext `json:"orgData,omitempty"`
}

// Classify sends one classification request. It never retries and never
// returns a Go error: every failure mode is folded into the Verdict.
func (c *Client) Classify(ctx context.Context, req Request) Verdict {
	payload, err := json.Marshal(wireRequest{
		Q:       req.ExtensionID,
		Version: req.Version,
		OrgData: req.Org,
	})
	if err != nil {
		return Verdict{Kind: VerdictMalformed, Err: fmt.Errorf("failed to encode request: %w", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+classifyPath, bytes.NewReader(payload))
	if err != nil {
		return Verdict{Kind: VerdictTransportError, Err: fmt.Errorf("failed to build request: %w", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Origin", "Extension")
	if req.APIKey != "" {
		httpReq.Header.Set("X-API-Key", req.APIKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Verdict{Kind: VerdictTransportError, Err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		return Verdict{Kind: VerdictRateLimited}
	case http.StatusForbidden:
		return Verdict{Kind: VerdictUnauthorized}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Verdict{Kind: VerdictTransportError, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if string(body) == invalidKeyBody {
		return Verdict{Kind: VerdictUnauthorized}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Verdict{
			Kind: VerdictMalformed,
			Err:  fmt.Errorf("unexpected status %d classifying %s", resp.StatusCode, req.ExtensionID),
		}
	}

	report := &Report{}
	if err := json.Unmarshal(body, report); err != nil {
		return Verdict{
			Kind: VerdictMalformed,
			Err:  fmt.Errorf("failed to decode classification for %s: %w", req.ExtensionID, err),
		}
	}
	return Verdict{Kind: VerdictOK, Report: report}
}
