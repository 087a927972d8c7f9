package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fixwell/maintenance-service/internal/domain"
)

const redisKeyPrefix = "session:"

// RedisStore persists sessions in Redis with a TTL matching the session
// expiry, so eviction is handled by the store itself.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps the shared Redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

type redisSession struct {
	UserID    int64     `json:"user_id"`
	IsAdmin   bool      `json:"is_admin"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *RedisStore) Create(ctx context.Context, sess *domain.Session) error {
	payload, err := json.Marshal(redisSession{
		UserID:    sess.UserID,
		IsAdmin:   sess.IsAdmin,
		ExpiresAt: sess.ExpiresAt,
	})
	if err != nil {
		return err
	}
	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	return s.client.Set(ctx, redisKeyPrefix+sess.ID, payload, ttl).Err()
}

func (s *RedisStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	raw, err := s.client.Get(ctx, redisKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var stored redisSession
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, ErrNotFound
	}
	sess := &domain.Session{
		ID:        id,
		UserID:    stored.UserID,
		IsAdmin:   stored.IsAdmin,
		ExpiresAt: stored.ExpiresAt,
	}
	if sess.Expired(time.Now()) {
		_ = s.client.Del(ctx, redisKeyPrefix+id).Err()
		return nil, ErrNotFound
	}
	return sess, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, redisKeyPrefix+id).Err()
}
