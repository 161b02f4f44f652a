package session

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/garmushka/pkg/errors"
)

const redisKeyPrefix = "garmushka:session:"

// RedisConfig configures a RedisStore.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RedisStore keeps sessions in Redis with native key expiry, so several
// server instances can share them.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "connect redis %s", cfg.Addr)
	}
	return &RedisStore{client: client}, nil
}

func redisKey(id string) string { return redisKeyPrefix + id }

// storageErr wraps a client error as a retryable storage failure.
func storageErr(err error, format string, args ...any) error {
	return Retryable(errors.Wrap(errors.ErrCodeStorage, err, format, args...))
}

func (s *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	if err := errors.ValidateSessionID(id); err != nil {
		return nil, err
	}
	data, err := s.client.Get(ctx, redisKey(id)).Bytes()
	if stderrors.Is(err, redis.Nil) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, storageErr(err, "get session %s", id)
	}
	sess, err := decode(data)
	if err != nil {
		return nil, err
	}
	if sess.IsExpired() {
		return nil, notFound(id)
	}
	return sess, nil
}

func (s *RedisStore) Set(ctx context.Context, sess *Session) error {
	if err := errors.ValidateSessionID(sess.ID); err != nil {
		return err
	}
	var ttl time.Duration
	if !sess.ExpiresAt.IsZero() {
		if ttl = time.Until(sess.ExpiresAt); ttl <= 0 {
			return s.Delete(ctx, sess.ID)
		}
	}
	data, err := encode(sess)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, redisKey(sess.ID), data, ttl).Err(); err != nil {
		return storageErr(err, "set session %s", sess.ID)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := errors.ValidateSessionID(id); err != nil {
		return err
	}
	if err := s.client.Del(ctx, redisKey(id)).Err(); err != nil {
		return storageErr(err, "delete session %s", id)
	}
	return nil
}

func (s *RedisStore) List(ctx context.Context) ([]*Session, error) {
	var list []*Session
	iter := s.client.Scan(ctx, 0, redisKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		data, err := s.client.Get(ctx, iter.Val()).Bytes()
		if stderrors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, storageErr(err, "list sessions")
		}
		sess, err := decode(data)
		if err != nil || sess.IsExpired() {
			continue
		}
		list = append(list, sess)
	}
	if err := iter.Err(); err != nil {
		return nil, storageErr(err, "scan sessions")
	}
	sortByUpdated(list)
	return list, nil
}

// Cleanup is a no-op: Redis expires keys itself.
func (s *RedisStore) Cleanup(context.Context) error { return nil }

func (s *RedisStore) Close() error { return s.client.Close() }

var _ Store = (*RedisStore)(nil)
