// Package models holds the records persisted by the credential store.
package models

import (
	"fmt"
	"time"
)

// SignupType records how an account was created. It is informational only.
type SignupType string

const (
	SignupNormal   SignupType = "normal"
	SignupFacebook SignupType = "facebook"
	SignupGoogle   SignupType = "google"
)

// ParseSignupType maps an empty string to SignupNormal and rejects values
// outside the known set.
func ParseSignupType(s string) (SignupType, error) {
	switch t := SignupType(s); t {
	case "":
		return SignupNormal, nil
	case SignupNormal, SignupFacebook, SignupGoogle:
		return t, nil
	default:
		return "", fmt.Errorf("unknown signup type %q", s)
	}
}

type User struct {
	ID           string
	Email        string
	PasswordHash string
	SignupType   SignupType
	Username     string
	Image        string
	CreatedAt    time.Time
	UpdatedAt    time.Time

	// Sessions is filled only by lookups that need it.
	Sessions []Session
}
