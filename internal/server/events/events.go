// Package events publishes authentication events for other services.
// Publishing is best effort: callers log failures and carry on.
package events

import (
	"context"
	"time"
)

// Subjects, relative to the publisher's prefix.
const (
	SubjectUserSignedUp   = "user.signed_up"
	SubjectUserLoggedIn   = "user.logged_in"
	SubjectSessionCreated = "session.created"
)

type UserSignedUp struct {
	UserID     string    `json:"userId"`
	Email      string    `json:"email"`
	SignupType string    `json:"signupType"`
	At         time.Time `json:"at"`
}

type UserLoggedIn struct {
	UserID string    `json:"userId"`
	At     time.Time `json:"at"`
}

// SessionCreated never carries the session token.
type SessionCreated struct {
	UserID    string    `json:"userId"`
	SessionID string    `json:"sessionId"`
	ExpiresAt int64     `json:"expiresAt"`
	At        time.Time `json:"at"`
}

// Publisher sends v, JSON encoded, to subject.
type Publisher interface {
	Publish(ctx context.Context, subject string, v any) error
	Close()
}

// NopPublisher drops every event. It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, any) error { return nil }
func (NopPublisher) Close()                                     {}
