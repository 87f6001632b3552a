package security

import "time"

// SetClock replaces the service clock in tests.
func (s *JWTokenService) SetClock(now func() time.Time) {
	s.now = now
}
