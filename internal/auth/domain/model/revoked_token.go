package model

import "time"

// RevokedToken is a logged-out session token. Entries are purged RevocationTTL after CreatedAt.
type RevokedToken struct {
	Token     string    `json:"token" bson:"token"`
	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
}

// ExpiresAt returns when the entry stops blocking the token.
func (r *RevokedToken) ExpiresAt(ttl time.Duration) time.Time {
	return r.CreatedAt.Add(ttl)
}

// ActiveAt reports whether the entry is still within its retention window at now.
func (r *RevokedToken) ActiveAt(now time.Time, ttl time.Duration) bool {
	return now.Before(r.ExpiresAt(ttl))
}
