// Copyright 2026 The Hearth Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hearth-im/hearth/lib/netutil"
	"github.com/hearth-im/hearth/lib/secret"
)

// apiPrefix is the Matrix client-server API version prefix.
const apiPrefix = "/_matrix/client/v3"

// ClientConfig configures a Matrix client.
type ClientConfig struct {
	// HomeserverURL is the base URL of the Matrix homeserver
	// (e.g., "https://matrix.example.org").
	HomeserverURL string

	// HTTPClient is the underlying HTTP client. If nil, a client with
	// no overall timeout is used: /sync long polls hold the connection
	// open for tens of seconds by design, so the per-request timeout
	// must come from the request context instead.
	HTTPClient *http.Client
}

// Client is an unauthenticated Matrix client. It handles login and
// produces authenticated Sessions. A single Client (and its underlying
// HTTP transport) is shared by all Sessions derived from it.
type Client struct {
	baseURL    string
	httpClient *http.Client
	txnCounter atomic.Uint64
}

// NewClient creates a Matrix client for the given homeserver.
func NewClient(config ClientConfig) (*Client, error) {
	if config.HomeserverURL == "" {
		return nil, fmt.Errorf("messaging: homeserver URL is required")
	}
	baseURL := strings.TrimSuffix(config.HomeserverURL, "/")
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("messaging: invalid homeserver URL: %w", err)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
	}, nil
}

// HomeserverURL returns the base URL this client talks to.
func (c *Client) HomeserverURL() string {
	return c.baseURL
}

// CloseIdleConnections closes idle connections in the underlying HTTP
// transport.
func (c *Client) CloseIdleConnections() {
	c.httpClient.CloseIdleConnections()
}

// ServerVersions queries the homeserver's supported spec versions.
// Useful as an unauthenticated reachability probe.
func (c *Client) ServerVersions(ctx context.Context) (*ServerVersionsResponse, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/_matrix/client/versions", nil, nil, nil)
	if err != nil {
		return nil, err
	}
	var versions ServerVersionsResponse
	if err := json.Unmarshal(body, &versions); err != nil {
		return nil, fmt.Errorf("messaging: decoding versions response: %w", err)
	}
	return &versions, nil
}

// Login authenticates with a username and password and returns an
// authenticated Session. Zeroing the password string is the caller's
// responsibility; the returned session's access token lives in locked
// memory.
func (c *Client) Login(ctx context.Context, username, password string) (*Session, error) {
	request := LoginRequest{
		Type:                     "m.login.password",
		Identifier:               Identifier{Type: "m.id.user", User: username},
		Password:                 password,
		InitialDeviceDisplayName: "hearth",
	}

	body, err := c.doRequest(ctx, http.MethodPost, apiPrefix+"/login", nil, request, nil)
	if err != nil {
		return nil, err
	}

	var auth AuthResponse
	if err := json.Unmarshal(body, &auth); err != nil {
		return nil, fmt.Errorf("messaging: decoding login response: %w", err)
	}

	token, err := secret.NewFromString(auth.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("messaging: protecting access token: %w", err)
	}

	return &Session{
		client:      c,
		userID:      auth.UserID,
		deviceID:    auth.DeviceID,
		accessToken: token,
	}, nil
}

// SessionFromToken creates a Session from an existing access token,
// taking ownership of the buffer. The session is not verified against
// the server; call Session.WhoAmI to confirm the token is live.
func (c *Client) SessionFromToken(userID string, accessToken *secret.Buffer) *Session {
	return &Session{
		client:      c,
		userID:      userID,
		accessToken: accessToken,
	}
}

// nextTransactionID returns a transaction ID unique within this
// client's lifetime. Matrix deduplicates PUT requests by (token, txn
// ID); the timestamp component keeps IDs distinct across restarts.
func (c *Client) nextTransactionID() string {
	return fmt.Sprintf("hearth-%d-%d", time.Now().UnixMilli(), c.txnCounter.Add(1))
}

// doRequest performs an HTTP request against the homeserver and
// returns the response body. Non-2xx responses decode into a
// *MatrixError; the raw body is returned alongside the error so
// callers can inspect it.
//
// path must already be URL-encoded: it is concatenated onto the base
// URL as a string precisely so that encoded segments (room IDs, event
// IDs) are not re-encoded.
func (c *Client) doRequest(ctx context.Context, method, path string, token *secret.Buffer, requestBody any, query url.Values) ([]byte, error) {
	requestURL := c.baseURL + path
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}

	var bodyReader *bytes.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return nil, fmt.Errorf("messaging: encoding request body: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	} else {
		bodyReader = bytes.NewReader(nil)
	}

	request, err := http.NewRequestWithContext(ctx, method, requestURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("messaging: creating request: %w", err)
	}
	if requestBody != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if token != nil {
		request.Header.Set("Authorization", "Bearer "+token.String())
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("messaging: %s %s: %w", method, path, err)
	}
	defer response.Body.Close()

	body, err := netutil.ReadResponse(response.Body)
	if err != nil {
		return nil, fmt.Errorf("messaging: reading response from %s: %w", path, err)
	}

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		matrixErr := &MatrixError{
			Code:       ErrCodeUnknown,
			Message:    string(body),
			StatusCode: response.StatusCode,
		}
		// Best effort: a non-JSON error body keeps the defaults above.
		if err := json.Unmarshal(body, matrixErr); err == nil && matrixErr.Code == "" {
			matrixErr.Code = ErrCodeUnknown
		}
		matrixErr.StatusCode = response.StatusCode
		return body, matrixErr
	}

	return body, nil
}
