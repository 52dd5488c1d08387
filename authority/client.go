// go-openlatch
// Copyright (c) 2026 The OpenLatch Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-openlatch.
//
// go-openlatch is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-openlatch is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-openlatch; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

// Package authority implements the device side of the access authority's
// wire contract: the one-shot session bootstrap and the per-scan
// authorization request.
package authority

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Decision is the binary outcome of an authorization round-trip. A transport
// failure yields no determination; it is reported through the error return,
// never through a Decision value.
type Decision int

const (
	// DecisionDeclined denies passage. It is the zero value: every outcome
	// that is not an explicit grant folds into it.
	DecisionDeclined Decision = iota
	// DecisionGranted allows passage.
	DecisionGranted
)

// String returns the decision name.
func (d Decision) String() string {
	if d == DecisionGranted {
		return "granted"
	}
	return "declined"
}

// Literal wire values. Both must match verbatim.
const (
	// accessGranted is the only access field value that grants passage.
	accessGranted = "granted"
	// successMarker is the token-issuance success flag value. The string
	// type is part of the contract: the flag is compared as a literal
	// string, not parsed as a boolean.
	successMarker = "true"
)

// headerAssetToken carries the session token on authorization requests.
const headerAssetToken = "x-asset-token"

// Bootstrap failure modes. All fold into "token not acquired"; they are
// distinguished only for diagnostics.
var (
	// ErrTokenRejected indicates the authority answered but did not issue
	// a token.
	ErrTokenRejected = errors.New("authority did not issue a token")
	// ErrBadStatus indicates a response outside the success/redirect class.
	ErrBadStatus = errors.New("authority returned non-success status")
	// ErrMalformedResponse indicates a payload that did not parse.
	ErrMalformedResponse = errors.New("malformed authority response")
)

// Config holds the authority endpoint configuration. It is constructed once
// at startup and never mutated.
type Config struct {
	// BaseURL is the authority's host address, e.g. "http://10.0.0.5:8080".
	BaseURL string
	// TokenPath is the token-issuance endpoint path.
	TokenPath string
	// AuthorizePath is the authorization endpoint path.
	AuthorizePath string
	// Timeout is the client-side timeout for each request.
	Timeout time.Duration
}

// DefaultConfig returns the default endpoint paths and timeout for the
// given host address.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:       baseURL,
		TokenPath:     "/api/token",
		AuthorizePath: "/api/authorize",
		Timeout:       5 * time.Second,
	}
}

// Client talks to the access authority. It performs exactly one attempt per
// call; retrying is left to the next card presentation.
type Client struct {
	httpClient *http.Client
	cfg        Config
	log        zerolog.Logger
}

// Option is a functional option for configuring a Client.
type Option func(*Client)

// WithLogger sets the logger used for wire diagnostics.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates an authority client for the given configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	if cfg.TokenPath == "" {
		cfg.TokenPath = DefaultConfig("").TokenPath
	}
	if cfg.AuthorizePath == "" {
		cfg.AuthorizePath = DefaultConfig("").AuthorizePath
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig("").Timeout
	}

	client := &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			// Redirect statuses count as success-class responses in the
			// authority contract; surface them instead of chasing them.
			CheckRedirect: func(_ *http.Request, _ []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		log: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// tokenRequest is the token-issuance request body.
type tokenRequest struct {
	AssetID string `json:"asset_id"`
}

// tokenResponse is the token-issuance response body. The success-flag key is
// misspelled on the wire and must be matched verbatim for compatibility with
// the deployed authority.
type tokenResponse struct {
	Success string `json:"suceess"`
	Token   string `json:"token"`
}

// authorizeRequest is the authorization request body.
type authorizeRequest struct {
	AssetID string `json:"asset_id"`
	UID     string `json:"uid"`
}

// authorizeResponse is the authorization response body. Access is optional:
// an absent field and an unexpected value both fold into a decline.
type authorizeResponse struct {
	Access string `json:"access"`
}

// AcquireToken performs the one-time session bootstrap. The token is adopted
// if and only if the response has a success/redirect status and its success
// flag equals the literal truthy marker; every failure mode returns an empty
// token and the device proceeds unauthenticated for the rest of its uptime.
func (c *Client) AcquireToken(ctx context.Context, assetID string) (string, error) {
	resp, err := c.post(ctx, c.cfg.TokenPath, tokenRequest{AssetID: assetID}, nil)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if !statusAccepted(resp.StatusCode) {
		c.log.Debug().Int("status", resp.StatusCode).Msg("token issuance refused")
		return "", fmt.Errorf("%w: status %d", ErrBadStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("token response read failed: %w", err)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		c.log.Debug().Str("body", string(body)).Msg("token payload did not parse")
		return "", fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	if tr.Success != successMarker {
		c.log.Debug().Str("suceess", tr.Success).Msg("token not adopted")
		return "", fmt.Errorf("%w: success flag %q", ErrTokenRejected, tr.Success)
	}

	return tr.Token, nil
}

// Authorize asks the authority whether the card identified by uid may pass.
// A non-nil error means the round-trip itself failed (connection or
// in-flight transport fault) and no determination was made. Any received
// response that is not an explicit grant, including non-success statuses and
// unparseable payloads, is an ordinary decline with a nil error.
func (c *Client) Authorize(ctx context.Context, assetID, token, uid string) (Decision, error) {
	resp, err := c.post(ctx, c.cfg.AuthorizePath, authorizeRequest{AssetID: assetID, UID: uid}, &token)
	if err != nil {
		return DecisionDeclined, fmt.Errorf("authorization request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if !statusAccepted(resp.StatusCode) {
		c.log.Debug().Int("status", resp.StatusCode).Str("uid", uid).Msg("authorization refused by status")
		return DecisionDeclined, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return DecisionDeclined, fmt.Errorf("authorization response read failed: %w", err)
	}

	var ar authorizeResponse
	if err := json.Unmarshal(body, &ar); err != nil {
		c.log.Debug().Str("body", string(body)).Msg("authorization payload did not parse")
		return DecisionDeclined, nil
	}

	if ar.Access == accessGranted {
		return DecisionGranted, nil
	}
	c.log.Debug().Str("access", ar.Access).Str("uid", uid).Msg("authority declined")
	return DecisionDeclined, nil
}

// post sends a JSON POST to the given endpoint path. A non-nil token attaches
// the session token header; the header is sent even when the token value is
// empty, so an unauthenticated device still follows the authorization
// contract.
func (c *Client) post(ctx context.Context, path string, payload any, token *string) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("request encoding failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request construction failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != nil {
		req.Header.Set(headerAssetToken, *token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// statusAccepted reports whether code is in the success or redirect class.
func statusAccepted(code int) bool {
	return code >= http.StatusOK && code < http.StatusBadRequest
}
