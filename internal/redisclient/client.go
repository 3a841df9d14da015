package redisclient

import (
	"context"
	_ "embed"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

//go:embed scripts/save_state.lua
var saveStateScript string

type Client struct {
	rdb        *redis.Client
	saveScript *redis.Script
}

// NewClient creates a new Redis client with Lua scripts loaded
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{
		rdb:        rdb,
		saveScript: redis.NewScript(saveStateScript),
	}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

func versionKey(key string) string {
	return key + ":version"
}

// LoadDocument reads a document and its version. found is false when the key is absent.
func (c *Client) LoadDocument(ctx context.Context, key string) (payload []byte, version int64, found bool, err error) {
	values, err := c.rdb.MGet(ctx, key, versionKey(key)).Result()
	if err != nil {
		return nil, 0, false, err
	}

	raw, ok := values[0].(string)
	if !ok {
		return nil, 0, false, nil
	}

	if v, ok := values[1].(string); ok {
		version, err = strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, 0, false, fmt.Errorf("invalid version for %s: %w", key, err)
		}
	}

	return []byte(raw), version, true, nil
}

// SaveDocument atomically writes a document when the stored version matches expected.
// Returns false if the version check failed. A negative expected skips the check.
func (c *Client) SaveDocument(ctx context.Context, key string, payload []byte, version, expected int64) (bool, error) {
	result, err := c.saveScript.Run(ctx, c.rdb,
		[]string{key, versionKey(key)},
		string(payload), version, expected).Result()
	if err != nil {
		return false, fmt.Errorf("save state script failed: %w", err)
	}

	success, ok := result.(int64)
	if !ok {
		return false, fmt.Errorf("unexpected script result type")
	}

	return success == 1, nil
}
