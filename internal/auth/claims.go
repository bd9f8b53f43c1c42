package auth

import (
	"errors"
	"time"
)

// AccessClaims is the payload of a v4.local access token. The user fields let
// the API attribute realtime events without a store lookup per request.
type AccessClaims struct {
	IssuedAt   time.Time `json:"iat"`
	Expiration time.Time `json:"exp"`
	NotBefore  time.Time `json:"nbf"`

	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`

	Issuer   string `json:"iss"`
	Subject  string `json:"sub"`
	Audience string `json:"aud"`
	TokenID  string `json:"jti"`
}

// check applies the time window and subject rules at now. Expiry is reported
// as ErrTokenExpired so clients can tell it apart from a bad token.
func (c *AccessClaims) check(now time.Time) error {
	switch {
	case !c.NotBefore.IsZero() && now.Before(c.NotBefore):
		return errors.New("invalid token: not yet valid")
	case c.Expiration.IsZero() || !now.Before(c.Expiration):
		return ErrTokenExpired
	case c.UserID == "" || c.UserID != c.Subject:
		return errors.New("invalid token: subject mismatch")
	}
	return nil
}
