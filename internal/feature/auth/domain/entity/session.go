package entity

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Session is a server-side login referenced by the browser's session cookie.
type Session struct {
	ID        string     // 64-character hex string, also the cookie value
	UserID    uint       // owner
	UserAgent string     // User-Agent at login
	IPAddress string     // client IP at login
	CreatedAt time.Time  // login time
	ExpiresAt time.Time  // absolute expiry
	RevokedAt *time.Time // set on logout
}

// IsExpired returns true if the session has passed its expiration time.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// IsRevoked returns true if the session has been revoked.
func (s *Session) IsRevoked() bool {
	return s.RevokedAt != nil
}

// IsValid returns true if the session is neither expired nor revoked.
func (s *Session) IsValid() bool {
	return !s.IsExpired() && !s.IsRevoked()
}

// TTL returns how long the session remains usable, or zero once it is not.
func (s *Session) TTL() time.Duration {
	if !s.IsValid() {
		return 0
	}
	return time.Until(s.ExpiresAt)
}

// HashSessionID returns the hex SHA-256 digest stores use as the session key.
// The cookie value itself is never persisted.
func HashSessionID(id string) string {
	sum := sha256.Sum256([]byte(id))
	return hex.EncodeToString(sum[:])
}
