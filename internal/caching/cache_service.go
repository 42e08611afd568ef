package caching

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"pharmatrack/internal/scope"

	"github.com/google/uuid"
	"github.com/labstack/gommon/log"
	"github.com/redis/go-redis/v9"
)

// IdentityTTL bounds how stale a cached identity may be. Role or staff
// changes become visible at the latest after this window, sooner when the
// writer invalidates explicitly.
const IdentityTTL = 5 * time.Minute

type CacheService interface {
	// Identity caching for the auth middleware
	GetIdentity(ctx context.Context, userID uuid.UUID) (*scope.Identity, error)
	SetIdentity(ctx context.Context, id scope.Identity) error
	DeleteIdentity(ctx context.Context, userID uuid.UUID) error

	// Refresh token storage
	SetRefreshToken(ctx context.Context, userID uuid.UUID, token string, ttl time.Duration) error
	GetRefreshToken(ctx context.Context, userID uuid.UUID) (string, error)
	DeleteRefreshToken(ctx context.Context, userID uuid.UUID) error

	// Ping reports backend reachability for health checks.
	Ping(ctx context.Context) error
}

type redisCacheService struct {
	client *redis.Client
}

func NewRedisCacheService(addr, password string, db int) CacheService {
	parsedAddr := addr
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		if hostPort := strings.TrimPrefix(strings.TrimPrefix(addr, "redis://"), "rediss://"); hostPort != addr {
			parsedAddr = hostPort
		}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     parsedAddr,
		Password: password,
		DB:       db,
	})

	if pingErr := client.Ping(context.Background()).Err(); pingErr != nil {
		log.Warnf("redis ping failed on initialization: %v (address: %s)", pingErr, parsedAddr)
	}

	return &redisCacheService{client: client}
}

func identityKey(userID uuid.UUID) string {
	return fmt.Sprintf("pharmatrack:identity:%s", userID.String())
}

func refreshKey(userID uuid.UUID) string {
	return fmt.Sprintf("pharmatrack:refresh:%s", userID.String())
}

func (r *redisCacheService) GetIdentity(ctx context.Context, userID uuid.UUID) (*scope.Identity, error) {
	data, err := r.client.Get(ctx, identityKey(userID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // cache miss
		}
		return nil, err
	}

	var id scope.Identity
	if err := json.Unmarshal(data, &id); err != nil {
		return nil, err
	}
	return &id, nil
}

func (r *redisCacheService) SetIdentity(ctx context.Context, id scope.Identity) error {
	data, err := json.Marshal(id)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, identityKey(id.UserID), data, IdentityTTL).Err()
}

func (r *redisCacheService) DeleteIdentity(ctx context.Context, userID uuid.UUID) error {
	return r.client.Del(ctx, identityKey(userID)).Err()
}

func (r *redisCacheService) SetRefreshToken(ctx context.Context, userID uuid.UUID, token string, ttl time.Duration) error {
	return r.client.Set(ctx, refreshKey(userID), token, ttl).Err()
}

func (r *redisCacheService) GetRefreshToken(ctx context.Context, userID uuid.UUID) (string, error) {
	val, err := r.client.Get(ctx, refreshKey(userID)).Result()
	if err != nil {
		if err == redis.Nil {
			return "", nil // not stored or expired
		}
		return "", err
	}
	return val, nil
}

func (r *redisCacheService) DeleteRefreshToken(ctx context.Context, userID uuid.UUID) error {
	return r.client.Del(ctx, refreshKey(userID)).Err()
}

func (r *redisCacheService) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
