package models

import (
	"encoding/json"
	"errors"
	"time"
)

// ErrMalformedSession is returned when a stored session lacks its user or
// expiry. Such a record is treated as no session at all.
var ErrMalformedSession = errors.New("malformed session")

// User is the identity issued when a phone number is verified.
type User struct {
	CreatedAt time.Time `json:"createdAt"`
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
}

// Session is the single authenticated-session slot of the device.
// ExpiresAt is persisted as epoch milliseconds.
type Session struct {
	ExpiresAt       time.Time
	User            *User
	IsAuthenticated bool
}

// IsExpired reports whether the session is past its expiry at the given instant.
func (s *Session) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

type sessionJSON struct {
	User            *User `json:"user"`
	IsAuthenticated bool  `json:"isAuthenticated"`
	ExpiresAt       int64 `json:"expiresAt"`
}

// MarshalJSON implements json.Marshaler.
func (s Session) MarshalJSON() ([]byte, error) {
	return json.Marshal(sessionJSON{
		User:            s.User,
		IsAuthenticated: s.IsAuthenticated,
		ExpiresAt:       s.ExpiresAt.UnixMilli(),
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Session) UnmarshalJSON(data []byte) error {
	var raw *sessionJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil || raw.User == nil || raw.ExpiresAt <= 0 {
		return ErrMalformedSession
	}
	s.User = raw.User
	s.IsAuthenticated = raw.IsAuthenticated
	s.ExpiresAt = time.UnixMilli(raw.ExpiresAt).UTC()
	return nil
}
