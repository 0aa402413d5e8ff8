// Package client is the HTTP client for the bookmarkauth server.
//
// # Overview
//
// Client wraps the four user routes: Signup and Login return the created
// session's tokens (read from the access-token and refresh-token response
// headers), RefreshAccessToken exchanges a user id and refresh token for a
// new access token, and Me fetches the profile behind the access guard.
//
// # Error Handling
//
// Transport failures wrap ErrUnavailable. Non-2xx responses are returned as
// *APIError, which matches ErrUnauthorized (401), ErrEmailTaken (409) and
// ErrBadRequest (400) with errors.Is.
package client
