// Package api is the HTTP boundary to the document-management backend. The
// backend is an external collaborator: every contract here is consumed,
// never defined. Authorized calls read the bearer credential from the
// session store at call time, so clearing a credential immediately
// invalidates subsequent requests.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/larkvale/docdeck/internal/observability"
)

// ErrUnauthorized marks a 401/403 response. Components treat it as a
// session expiry and tear the stored credential down.
var ErrUnauthorized = errors.New("unauthorized")

// genericFailure is shown when the backend omits an error body.
const genericFailure = "request failed"

// Error is a non-2xx backend response. Detail carries the backend-supplied
// message verbatim when one was present.
type Error struct {
	Status int
	Detail string
}

func (e *Error) Error() string {
	return e.Detail
}

// Unwrap lets errors.Is(err, ErrUnauthorized) detect auth failures.
func (e *Error) Unwrap() error {
	if e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden {
		return ErrUnauthorized
	}
	return nil
}

// TokenFunc supplies the bearer credential for a single request. It is
// invoked per call; the client never caches the result.
type TokenFunc func(ctx context.Context) (string, error)

// Client talks to one backend base URL on behalf of one credential scope.
type Client struct {
	baseURL string
	http    *http.Client
	token   TokenFunc
}

// New creates a Client. token may be nil for a client that only performs
// unauthenticated calls.
func New(baseURL string, httpClient *http.Client, token TokenFunc) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		token:   token,
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader, contentType string, authed bool) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if authed {
		if c.token == nil {
			return nil, fmt.Errorf("%w: no credential source", ErrUnauthorized)
		}
		token, err := c.token(ctx)
		if err != nil {
			return nil, fmt.Errorf("read credential: %w", err)
		}
		if token == "" {
			return nil, fmt.Errorf("%w: no stored credential", ErrUnauthorized)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

// do issues the request and decodes a 2xx JSON body into out (when non-nil).
// Non-2xx responses become *Error with the backend detail when present.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any, authed bool) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}
	req, err := c.newRequest(ctx, method, path, body, contentType, authed)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

// decodeError extracts the backend's error-describing field. Its absence is
// tolerated: the caller gets a generic message instead.
func decodeError(resp *http.Response) error {
	apiErr := &Error{
		Status: resp.StatusCode,
		Detail: fmt.Sprintf("%s (status %d)", genericFailure, resp.StatusCode),
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return apiErr
	}
	var body struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(data, &body); err == nil && strings.TrimSpace(body.Detail) != "" {
		apiErr.Detail = body.Detail
	} else {
		observability.Logger().Debug("undecodable error body", "status", resp.StatusCode)
	}
	return apiErr
}
