package models

import "time"

// Session is a refresh session owned by a user. ExpiresAt is in seconds
// since the Unix epoch.
type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt int64
	CreatedAt time.Time
}

// ExpiredAt reports whether the session is no longer usable at now.
// A session whose expiry equals now is already expired.
func (s Session) ExpiredAt(now time.Time) bool {
	return s.ExpiresAt <= now.Unix()
}
