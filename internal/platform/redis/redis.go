package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redisv8 "github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"jobcrawler/internal/logger"
)

type Options struct {
	Addr     string
	Password string
}

type Service struct {
	client *redisv8.Client
	log    *logger.Logger
}

func New(opts Options) (*Service, error) {
	c := redisv8.NewClient(&redisv8.Options{Addr: opts.Addr, Password: opts.Password})
	if err := c.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}
	return NewFromClient(c), nil
}

// NewFromClient wraps an existing client.
func NewFromClient(c *redisv8.Client) *Service {
	return &Service{client: c, log: logger.New("Redis")}
}

func (s *Service) Close() error            { return s.client.Close() }
func (s *Service) Client() *redisv8.Client { return s.client }

func (s *Service) HealthCheck(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		s.log.LogErrorf("Redis health check failed: %v", err)
		return fmt.Errorf("redis ping failed: %v", err)
	}

	// Write/read round trip
	testKey := "health:test:" + time.Now().Format("20060102150405")
	if err := s.client.Set(ctx, testKey, "ok", 10*time.Second).Err(); err != nil {
		return fmt.Errorf("redis write test failed: %v", err)
	}
	val, err := s.client.Get(ctx, testKey).Result()
	if err != nil {
		return fmt.Errorf("redis read test failed: %v", err)
	}
	if val != "ok" {
		return fmt.Errorf("redis value mismatch: got %s, want ok", val)
	}
	_ = s.client.Del(ctx, testKey).Err()
	return nil
}

func (s *Service) AsynqRedisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: s.client.Options().Addr, Password: s.client.Options().Password}
}

// ErrCacheMiss is returned by CacheGet when the key does not exist.
var ErrCacheMiss = errors.New("cache miss")

// Cache helpers
func (s *Service) CacheGet(ctx context.Context, key string, dest interface{}) error {
	b, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redisv8.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(b, dest)
}

func (s *Service) CacheSet(ctx context.Context, key string, val interface{}, ttl time.Duration) error {
	b, err := json.Marshal(val)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, b, ttl).Err()
}

// Publish sends msg on channel. Delivery is best effort.
func (s *Service) Publish(ctx context.Context, channel, msg string) error {
	return s.client.Publish(ctx, channel, msg).Err()
}

// Lock is a held distributed lock.
type Lock struct {
	Key   string
	token string
}

// releaseScript deletes the key only when it still holds our token, so an
// expired lock taken over by another worker is never released by us.
var releaseScript = redisv8.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// TryLock attempts to take key for ttl. It returns nil, nil when another
// holder has it.
func (s *Service) TryLock(ctx context.Context, key string, ttl time.Duration) (*Lock, error) {
	token := uuid.NewString()
	ok, err := s.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", key, err)
	}
	if !ok {
		return nil, nil
	}
	return &Lock{Key: key, token: token}, nil
}

// Unlock releases l if it is still ours.
func (s *Service) Unlock(ctx context.Context, l *Lock) error {
	if l == nil {
		return nil
	}
	if err := releaseScript.Run(ctx, s.client, []string{l.Key}, l.token).Err(); err != nil && !errors.Is(err, redisv8.Nil) {
		return fmt.Errorf("unlock %s: %w", l.Key, err)
	}
	return nil
}
