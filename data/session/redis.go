package session

import (
	"context"
	"errors"
	"log/slog"

	"github.com/KotFed0t/portfolio_tracker/utils"
	"github.com/redis/go-redis/v9"
)

var ErrUnknownToken = errors.New("unknown session token")

const sessionKeyPrefix = "session:"

// RedisSession maps bearer tokens to owner ids. Tokens are issued by an
// external identity service that writes session:<token> keys.
type RedisSession struct {
	redis *redis.Client
}

func NewRedisSession(redisClient *redis.Client) *RedisSession {
	return &RedisSession{redis: redisClient}
}

func (s *RedisSession) GetOwnerID(ctx context.Context, token string) (string, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)

	ownerID, err := s.redis.Get(ctx, sessionKeyPrefix+token).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrUnknownToken
		}
		slog.Error("failed on redis.Get", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return "", err
	}

	if ownerID == "" {
		return "", ErrUnknownToken
	}

	return ownerID, nil
}
