package mongodb

import "time"

// SetClock replaces the revocation list clock in tests.
func (r *MongoRevocationList) SetClock(now func() time.Time) {
	r.now = now
}
