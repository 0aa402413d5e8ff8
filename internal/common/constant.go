// Package common contains shared constants, sentinel errors and small helpers
// used across the bookmarkauth server and client.
package common

// Header names carrying credentials. They are part of the public HTTP
// contract and must not change.
const (
	// AccessTokenHeaderName carries the access token on protected requests
	// and on signup/login responses.
	AccessTokenHeaderName = "access-token"

	// RefreshTokenHeaderName carries the refresh session token.
	RefreshTokenHeaderName = "refresh-token"

	// UserIDHeaderName carries the user id on renewal requests.
	UserIDHeaderName = "_id"
)

// RefreshTokenBytes is the default number of random bytes in a refresh
// token before hex encoding.
const RefreshTokenBytes = 64
