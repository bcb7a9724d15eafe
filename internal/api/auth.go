package api

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type adminLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register creates a new account. A 2xx response means the account exists
// with verification pending; the caller surfaces backend errors verbatim.
func (c *Client) Register(ctx context.Context, email, password string) error {
	return c.doJSON(ctx, http.MethodPost, "/auth/register", registerRequest{Email: email, Password: password}, nil, false)
}

// Login exchanges credentials for a bearer token. The endpoint expects the
// OAuth2 password form encoding with the email in the username field.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)

	req, err := c.newRequest(ctx, http.MethodPost, "/auth/login", strings.NewReader(form.Encode()), "application/x-www-form-urlencoded", false)
	if err != nil {
		return "", err
	}
	var token TokenResponse
	if err := c.do(req, &token); err != nil {
		return "", err
	}
	return token.AccessToken, nil
}

// AdminLogin authenticates against the administrative login endpoint, which
// takes a JSON body rather than a form.
func (c *Client) AdminLogin(ctx context.Context, username, password string) (string, error) {
	var token TokenResponse
	err := c.doJSON(ctx, http.MethodPost, "/auth/admin/login", adminLoginRequest{Username: username, Password: password}, &token, false)
	if err != nil {
		return "", err
	}
	return token.AccessToken, nil
}
