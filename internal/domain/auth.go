package domain

import "time"

// Session is the single active login of a user. A bearer token is valid only
// while its session ID matches the stored one.
type Session struct {
	ID        string
	UserID    int64
	IssuedAt  time.Time
	ExpiresAt time.Time
}
