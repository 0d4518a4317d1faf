// Package redisstore keeps session values in a redis hash so several processes can share
// one login.
package redisstore

import (
	"context"
	"fmt"

	apperrors "github.com/jrsteele09/go-practice-client/internal/errors"
	"github.com/jrsteele09/go-practice-client/session"
	"github.com/redis/go-redis/v9"
)

var _ session.Store = (*Store)(nil)

type Store struct {
	cli *redis.Client
	key string
}

// New connects to url and pings it. Sessions live in the hash "<prefix>:session".
func New(ctx context.Context, url, prefix string) (*Store, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis parse url: %w", err)
	}
	cli := redis.NewClient(opts)
	if err := cli.Ping(ctx).Err(); err != nil {
		if closeErr := cli.Close(); closeErr != nil {
			return nil, apperrors.Wrapf(apperrors.ErrStoreUnavailable, "redis ping: %v (close: %v)", err, closeErr)
		}
		return nil, apperrors.Wrapf(apperrors.ErrStoreUnavailable, "redis ping: %v", err)
	}
	return NewWithClient(cli, prefix), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(cli *redis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = "backoffice"
	}
	return &Store{cli: cli, key: prefix + ":session"}
}

func (s *Store) Close() error {
	return s.cli.Close()
}

func (s *Store) Get(ctx context.Context, key session.Key) (string, bool, error) {
	val, err := s.cli.HGet(ctx, s.key, string(key)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, apperrors.Wrapf(apperrors.ErrStoreUnavailable, "%v", err)
	}
	return val, true, nil
}

func (s *Store) Set(ctx context.Context, key session.Key, value string) error {
	if err := s.cli.HSet(ctx, s.key, string(key), value).Err(); err != nil {
		return apperrors.Wrapf(apperrors.ErrStoreUnavailable, "%v", err)
	}
	return nil
}

func (s *Store) Clear(ctx context.Context, keys ...session.Key) error {
	if len(keys) == 0 {
		return nil
	}
	fields := make([]string, 0, len(keys))
	for _, k := range keys {
		fields = append(fields, string(k))
	}
	if err := s.cli.HDel(ctx, s.key, fields...).Err(); err != nil {
		return apperrors.Wrapf(apperrors.ErrStoreUnavailable, "%v", err)
	}
	return nil
}
