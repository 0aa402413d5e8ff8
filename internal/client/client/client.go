package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/bookmarkauth/internal/common"
)

// Credentials are the tokens a signup or login hands out.
type Credentials struct {
	UserID       string
	AccessToken  string
	RefreshToken string
}

// User is the profile returned by the server.
type User struct {
	ID         string    `json:"_id"`
	Email      string    `json:"email"`
	SignupType string    `json:"signupType"`
	Username   string    `json:"username,omitempty"`
	Image      string    `json:"image,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for the server at baseURL ("http://host:port").
// A nil httpClient is replaced by one with the given timeout.
func New(baseURL string, timeout time.Duration, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c *Client) Signup(ctx context.Context, email string, password []byte) (*User, *Credentials, error) {
	return c.authenticate(ctx, "/v1/user/signup", email, password)
}

func (c *Client) Login(ctx context.Context, email string, password []byte) (*User, *Credentials, error) {
	return c.authenticate(ctx, "/v1/user/login", email, password)
}

func (c *Client) authenticate(ctx context.Context, path, email string, password []byte) (*User, *Credentials, error) {
	body, err := json.Marshal(credentialsRequest{Email: email, Password: string(password)})
	if err != nil {
		return nil, nil, err
	}

	resp, err := c.do(ctx, http.MethodPost, path, body, nil)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	var user User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, nil, fmt.Errorf("decode user: %w", err)
	}

	creds := &Credentials{
		UserID:       user.ID,
		AccessToken:  resp.Header.Get(common.AccessTokenHeaderName),
		RefreshToken: resp.Header.Get(common.RefreshTokenHeaderName),
	}
	if creds.AccessToken == "" || creds.RefreshToken == "" {
		return nil, nil, errors.New("server response carried no tokens")
	}
	return &user, creds, nil
}

// RefreshAccessToken trades a refresh session for a new access token.
func (c *Client) RefreshAccessToken(ctx context.Context, userID, refreshToken string) (string, error) {
	resp, err := c.do(ctx, http.MethodGet, "/v1/user/access-token", nil, map[string]string{
		common.UserIDHeaderName:       userID,
		common.RefreshTokenHeaderName: refreshToken,
	})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out struct {
		AccessToken string `json:"accessToken"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode access token: %w", err)
	}
	if out.AccessToken == "" {
		out.AccessToken = resp.Header.Get(common.AccessTokenHeaderName)
	}
	return out.AccessToken, nil
}

// Me returns the profile of the access token's owner.
func (c *Client) Me(ctx context.Context, accessToken string) (*User, error) {
	resp, err := c.do(ctx, http.MethodGet, "/v1/user/me", nil, map[string]string{
		common.AccessTokenHeaderName: accessToken,
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var user User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	return &user, nil
}

// do sends the request and turns any non-2xx answer into *APIError.
func (c *Client) do(ctx context.Context, method, path string, body []byte, headers map[string]string) (*http.Response, error) {
	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var payload struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&payload) == nil {
			apiErr.Message = payload.Error
		}
		return nil, apiErr
	}

	return resp, nil
}
