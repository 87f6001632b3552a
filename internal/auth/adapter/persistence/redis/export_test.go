package redis

import "time"

func (c *CachedRevocationList) SetClock(now func() time.Time) {
	c.now = now
}

func (c *CachedRevocationList) Key(token string) string {
	return c.key(token)
}
