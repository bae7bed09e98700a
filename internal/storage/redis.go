package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/redbutton-labs/persuasion-engine/pkg/game"
)

const (
	scoreKeyPrefix    = "score:"
	responseKeyPrefix = "response:"
)

// scoreRecord is the persisted shape of a player score.
type scoreRecord struct {
	PersuasionScore int       `json:"persuasion_score"`
	LastUpdated     time.Time `json:"last_updated"`
}

// RedisStorage implements Storage using Redis.
type RedisStorage struct {
	client *redis.Client
	logger *slog.Logger
}

// Ensure RedisStorage implements Storage interface
var _ Storage = (*RedisStorage)(nil)

// NewRedisStorage creates a new Redis storage instance.
func NewRedisStorage(redisURL string, logger *slog.Logger) *RedisStorage {
	rdb := redis.NewClient(&redis.Options{
		Addr: redisURL,
	})

	return &RedisStorage{
		client: rdb,
		logger: logger,
	}
}

func (r *RedisStorage) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStorage) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	r.logger.Info("Redis connection closed")
	return nil
}

func (r *RedisStorage) StoreResponse(ctx context.Context, submissionID string, rec game.ResponseRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	rec.Exists = true

	data, err := json.Marshal(rec)
	if err != nil {
		r.logger.Error("Failed to marshal response record", "submission_id", submissionID, "error", err)
		return fmt.Errorf("failed to marshal response record: %w", err)
	}

	// SetNX keeps the first record for a submission id; replays succeed
	// without overwriting.
	key := responseKeyPrefix + submissionID
	set, err := r.client.SetNX(ctx, key, string(data), 0).Result()
	if err != nil {
		r.logger.Error("Failed to store response", "submission_id", submissionID, "error", err)
		return fmt.Errorf("failed to store response: %w", err)
	}
	if !set {
		r.logger.Debug("Response already stored", "submission_id", submissionID)
	}
	return nil
}

func (r *RedisStorage) GetResponse(ctx context.Context, submissionID string) (*game.ResponseRecord, error) {
	key := responseKeyPrefix + submissionID
	data, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		r.logger.Error("Failed to load response", "submission_id", submissionID, "error", err)
		return nil, fmt.Errorf("failed to load response: %w", err)
	}

	var rec game.ResponseRecord
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		r.logger.Error("Failed to unmarshal response record", "submission_id", submissionID, "error", err)
		return nil, fmt.Errorf("failed to unmarshal response record: %w", err)
	}
	return &rec, nil
}

func (r *RedisStorage) GetScore(ctx context.Context, playerID string) (int, error) {
	key := scoreKeyPrefix + playerID
	data, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return game.DefaultScore, nil
		}
		r.logger.Error("Failed to load score", "player_id", playerID, "error", err)
		return game.DefaultScore, fmt.Errorf("failed to load score: %w", err)
	}

	var rec scoreRecord
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		r.logger.Error("Failed to unmarshal score record", "player_id", playerID, "error", err)
		return game.DefaultScore, fmt.Errorf("failed to unmarshal score record: %w", err)
	}
	return game.ClampScore(rec.PersuasionScore), nil
}

func (r *RedisStorage) SetScore(ctx context.Context, playerID string, score int) error {
	rec := scoreRecord{
		PersuasionScore: game.ClampScore(score),
		LastUpdated:     time.Now(),
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal score record: %w", err)
	}

	key := scoreKeyPrefix + playerID
	if err := r.client.Set(ctx, key, string(data), 0).Err(); err != nil {
		r.logger.Error("Failed to save score", "player_id", playerID, "error", err)
		return fmt.Errorf("failed to save score: %w", err)
	}
	return nil
}
