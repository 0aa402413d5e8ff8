// Package cli provides the bookmarkauth command-line client.
//
// Commands:
//   - signup, login: prompt for credentials and store the returned tokens
//   - refresh: trade the stored refresh session for a new access token
//   - me: print the profile, refreshing the access token once if needed
//   - logout: forget the stored tokens
//
// Tokens are kept per server URL in a local SQLite file. The password is
// read from the terminal without echo.
package cli
