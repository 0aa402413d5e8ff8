// Package config loads runtime configuration for the bookmarkauth CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Environment variables with the BOOKMARKAUTH_ prefix.
//  3. Command-line flags, bound by the cli package to the same Config.
//
// # Environment
//
//	BOOKMARKAUTH_SERVER_URL   base URL of the server (http://localhost:3000)
//	BOOKMARKAUTH_TIMEOUT      per-request timeout, e.g. "10s"
//	BOOKMARKAUTH_STORE_PATH   SQLite file holding the saved tokens
package config
