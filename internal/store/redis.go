package store

import (
	"context"

	"quickcart/internal/redisclient"
)

// RedisBackend keeps the document under a single Redis key, the closest
// match to the browser local-storage entry the format originated from.
type RedisBackend struct {
	client *redisclient.Client
	key    string
}

// NewRedisBackend stores the document under key (default "quickcart_db")
func NewRedisBackend(client *redisclient.Client, key string) *RedisBackend {
	if key == "" {
		key = stateKey
	}
	return &RedisBackend{client: client, key: key}
}

func (b *RedisBackend) Get(ctx context.Context) ([]byte, int64, error) {
	payload, version, found, err := b.client.LoadDocument(ctx, b.key)
	if err != nil {
		return nil, 0, err
	}
	if !found {
		return nil, 0, ErrNotFound
	}
	return payload, version, nil
}

func (b *RedisBackend) Put(ctx context.Context, payload []byte, version, expected int64) error {
	ok, err := b.client.SaveDocument(ctx, b.key, payload, version, expected)
	if err != nil {
		return err
	}
	if !ok {
		return ErrVersionConflict
	}
	return nil
}

func (b *RedisBackend) Close() error {
	return b.client.Close()
}
