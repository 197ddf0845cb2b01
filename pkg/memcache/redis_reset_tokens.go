package mem

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const resetTokenPrefix = "reset_token:"

// RedisResetTokens shares reset tokens between API replicas.
type RedisResetTokens struct {
	client *redis.Client
}

func NewRedisResetTokens(addr string) *RedisResetTokens {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   0,
	})
	return &RedisResetTokens{client: client}
}

func (s *RedisResetTokens) Set(ctx context.Context, token string, accountID string, ttl time.Duration) error {
	const op = "memcache.RedisResetTokens.Set"

	if err := s.client.Set(ctx, resetTokenPrefix+token, accountID, ttl).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Consume uses GETDEL so two concurrent resets cannot both redeem a token.
func (s *RedisResetTokens) Consume(ctx context.Context, token string) (string, error) {
	const op = "memcache.RedisResetTokens.Consume"

	accountID, err := s.client.GetDel(ctx, resetTokenPrefix+token).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return accountID, nil
}

func (s *RedisResetTokens) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisResetTokens) Close() error {
	const op = "memcache.RedisResetTokens.Close"

	if err := s.client.Close(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
