package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/shydevcorp/codejeet/pkg/logger"
)

// Client caches read-side responses: question listings keyed by a filter
// hash, the company/topic name lists, and generated solutions. Progress is
// never cached here.
type Client struct {
	client *redis.Client
}

func NewClient(host string, port int, password string, db int) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	ctx := context.Background()
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis client initialized", zap.String("addr", fmt.Sprintf("%s:%d", host, port)))

	return &Client{client: client}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) SetQuestions(ctx context.Context, filterHash string, response interface{}, ttl time.Duration) error {
	data, err := json.Marshal(response)
	if err != nil {
		return fmt.Errorf("failed to marshal response: %w", err)
	}

	if err := c.client.Set(ctx, "questions:"+filterHash, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set questions cache: %w", err)
	}

	logger.Debug("Questions cached", zap.String("filter_hash", filterHash), zap.Duration("ttl", ttl))
	return nil
}

func (c *Client) GetQuestions(ctx context.Context, filterHash string, response interface{}) (bool, error) {
	data, err := c.client.Get(ctx, "questions:"+filterHash).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get questions cache: %w", err)
	}

	if err := json.Unmarshal(data, response); err != nil {
		return false, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	logger.Debug("Questions cache hit", zap.String("filter_hash", filterHash))
	return true, nil
}

func (c *Client) SetNameList(ctx context.Context, kind string, names []string, ttl time.Duration) error {
	data, err := json.Marshal(names)
	if err != nil {
		return fmt.Errorf("failed to marshal name list: %w", err)
	}

	if err := c.client.Set(ctx, "names:"+kind, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set %s cache: %w", kind, err)
	}
	return nil
}

func (c *Client) GetNameList(ctx context.Context, kind string) ([]string, bool, error) {
	data, err := c.client.Get(ctx, "names:"+kind).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get %s cache: %w", kind, err)
	}

	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal name list: %w", err)
	}
	return names, true, nil
}

func (c *Client) SetSolution(ctx context.Context, questionID int, solution string, ttl time.Duration) error {
	key := fmt.Sprintf("solution:%d", questionID)
	if err := c.client.Set(ctx, key, solution, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set solution cache: %w", err)
	}

	logger.Debug("Solution cached", zap.Int("question_id", questionID), zap.Duration("ttl", ttl))
	return nil
}

func (c *Client) GetSolution(ctx context.Context, questionID int) (string, bool, error) {
	key := fmt.Sprintf("solution:%d", questionID)
	solution, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get solution cache: %w", err)
	}
	return solution, true, nil
}

// InvalidateQuestions drops every cached listing, for use after a data load.
func (c *Client) InvalidateQuestions(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, "questions:*", 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			logger.Warn("Failed to delete cache key", zap.Error(err))
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to iterate cache keys: %w", err)
	}

	logger.Info("Questions cache invalidated")
	return nil
}
