// Package session keeps the token revocation list used by logout and account
// bans.
package session

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

type Store interface {
	// Track remembers that tokenID was issued to userID so a ban can revoke it.
	Track(ctx context.Context, userID int32, tokenID string, expiresAt time.Time) error
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
	RevokeAllForUser(ctx context.Context, userID int32) error
}

type RedisStore struct {
	rdb        *redis.Client
	defaultTTL time.Duration
}

// NewRedisStore returns a revocation store. defaultTTL bounds how long a
// revocation is kept when the token's own expiry is unknown.
func NewRedisStore(rdb *redis.Client, defaultTTL time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, defaultTTL: defaultTTL}
}

func revokedKey(tokenID string) string { return fmt.Sprintf("sharenet:revoked:%s", tokenID) }
func userTokensKey(userID int32) string {
	return "sharenet:user_tokens:" + strconv.Itoa(int(userID))
}

func (s *RedisStore) Track(ctx context.Context, userID int32, tokenID string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	pipe := s.rdb.TxPipeline()
	pipe.SAdd(ctx, userTokensKey(userID), tokenID)
	pipe.Expire(ctx, userTokensKey(userID), ttl)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisStore) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		// Already expired, nothing can present it any more.
		return nil
	}
	return s.rdb.Set(ctx, revokedKey(tokenID), "1", ttl).Err()
}

func (s *RedisStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := s.rdb.Exists(ctx, revokedKey(tokenID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *RedisStore) RevokeAllForUser(ctx context.Context, userID int32) error {
	key := userTokensKey(userID)
	ids, err := s.rdb.SMembers(ctx, key).Result()
	if err != nil && err != redis.Nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	ttl, err := s.rdb.TTL(ctx, key).Result()
	if err != nil || ttl <= 0 {
		ttl = s.defaultTTL
	}

	pipe := s.rdb.TxPipeline()
	for _, id := range ids {
		pipe.Set(ctx, revokedKey(id), "1", ttl)
	}
	pipe.Del(ctx, key)
	_, err = pipe.Exec(ctx)
	return err
}

// NoopStore is used when no Redis is configured: nothing is ever revoked.
type NoopStore struct{}

func (NoopStore) Track(context.Context, int32, string, time.Time) error { return nil }
func (NoopStore) Revoke(context.Context, string, time.Time) error       { return nil }
func (NoopStore) IsRevoked(context.Context, string) (bool, error)       { return false, nil }
func (NoopStore) RevokeAllForUser(context.Context, int32) error         { return nil }
