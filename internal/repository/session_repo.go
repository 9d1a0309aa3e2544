package repository

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// SessionRepository keeps a denylist of revoked session token IDs in Redis.
// Logout revokes the token for its remaining lifetime; the session guard
// rejects revoked tokens. Entries expire together with the token itself.
type SessionRepository struct {
	redis  *redis.Client
	logger *zap.Logger
}

func NewSessionRepository(rds *redis.Client, logger *zap.Logger) *SessionRepository {
	return &SessionRepository{
		redis:  rds,
		logger: logger.Named("SessionRepository"),
	}
}

func (r *SessionRepository) RevokeSession(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil // token already expired, nothing to revoke
	}
	return r.redis.Set(ctx, "revoked:"+tokenID, "1", ttl).Err()
}

func (r *SessionRepository) IsSessionRevoked(ctx context.Context, tokenID string) (bool, error) {
	_, err := r.redis.Get(ctx, "revoked:"+tokenID).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		r.logger.Error("Redis error checking session revocation", zap.String("tokenID", tokenID), zap.Error(err))
		return false, err
	}
	return true, nil
}
