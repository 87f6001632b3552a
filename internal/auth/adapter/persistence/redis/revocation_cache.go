package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"evconnect/internal/auth/domain/model"
	"evconnect/internal/auth/domain/repository"
	"evconnect/internal/shared/logger"

	goredis "github.com/redis/go-redis/v9"
)

// CachedRevocationList fronts a RevocationList with Redis. Only revocations are cached:
// an entry never changes once written, so a cached hit can be trusted until its key
// expires together with the retention window. Misses always reach the wrapped list.
type CachedRevocationList struct {
	next   repository.RevocationList
	client goredis.Cmdable
	ttl    time.Duration
	prefix string
	log    logger.Logger
	now    func() time.Time
}

// NewCachedRevocationList wraps next with a read-through Redis cache
func NewCachedRevocationList(next repository.RevocationList, client goredis.Cmdable, ttl time.Duration, prefix string, log logger.Logger) *CachedRevocationList {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &CachedRevocationList{
		next:   next,
		client: client,
		ttl:    ttl,
		prefix: prefix,
		log:    log.WithComponent("revocation_cache"),
		now:    time.Now,
	}
}

// Revoke writes through to the wrapped list and caches the new entry
func (c *CachedRevocationList) Revoke(ctx context.Context, token string) (*model.RevokedToken, error) {
	entry, err := c.next.Revoke(ctx, token)
	if err != nil {
		return nil, err
	}
	c.remember(ctx, entry)
	return entry, nil
}

// IsRevoked reports whether the token has a live revocation entry
func (c *CachedRevocationList) IsRevoked(ctx context.Context, token string) (bool, error) {
	if _, err := c.Lookup(ctx, token); err != nil {
		if errors.Is(err, model.ErrTokenNotRevoked) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Lookup serves from Redis when possible and fills the cache on a miss
func (c *CachedRevocationList) Lookup(ctx context.Context, token string) (*model.RevokedToken, error) {
	if token == "" {
		return nil, model.ErrTokenNotRevoked
	}

	if entry, ok := c.cached(ctx, token); ok {
		return entry, nil
	}

	entry, err := c.next.Lookup(ctx, token)
	if err != nil {
		return nil, err
	}
	c.remember(ctx, entry)
	return entry, nil
}

func (c *CachedRevocationList) cached(ctx context.Context, token string) (*model.RevokedToken, bool) {
	raw, err := c.client.Get(ctx, c.key(token)).Result()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			c.log.Warnf("Revocation cache read failed, falling back to store: %v", err)
		}
		return nil, false
	}

	createdAt, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		c.log.Warnf("Ignoring malformed revocation cache entry: %v", err)
		return nil, false
	}

	entry := &model.RevokedToken{Token: token, CreatedAt: createdAt}
	if !entry.ActiveAt(c.now(), c.ttl) {
		return nil, false
	}
	return entry, true
}

func (c *CachedRevocationList) remember(ctx context.Context, entry *model.RevokedToken) {
	remaining := entry.ExpiresAt(c.ttl).Sub(c.now())
	if remaining <= 0 {
		return
	}
	value := entry.CreatedAt.UTC().Format(time.RFC3339Nano)
	if err := c.client.Set(ctx, c.key(entry.Token), value, remaining).Err(); err != nil {
		c.log.Warnf("Revocation cache write failed: %v", err)
	}
}

// key hashes the token so raw credentials never appear in Redis
func (c *CachedRevocationList) key(token string) string {
	sum := sha256.Sum256([]byte(token))
	return c.prefix + hex.EncodeToString(sum[:])
}

var _ repository.RevocationList = (*CachedRevocationList)(nil)
