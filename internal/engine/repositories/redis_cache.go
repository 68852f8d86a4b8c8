package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/anhbaysgalan1/teenpatti/internal/models"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// RedisCache caches the waiting-table listing and fans game updates out across instances.
type RedisCache struct {
	client   *redis.Client
	tableTTL time.Duration
}

// NewRedisCache creates a new Redis cache instance
func NewRedisCache(client *redis.Client, tableTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:   client,
		tableTTL: tableTTL,
	}
}

const (
	waitingTablesKey = "tables:waiting"

	// GameUpdatesChannel carries the ID of every game that just committed a change.
	GameUpdatesChannel = "game_updates"
)

// Table listing

// SetWaitingTables caches the waiting-table listing
func (rc *RedisCache) SetWaitingTables(ctx context.Context, tables []models.Table) error {
	data, err := json.Marshal(tables)
	if err != nil {
		return fmt.Errorf("failed to marshal tables: %w", err)
	}

	if err := rc.client.Set(ctx, waitingTablesKey, data, rc.tableTTL).Err(); err != nil {
		return fmt.Errorf("failed to cache tables: %w", err)
	}
	return nil
}

// GetWaitingTables returns the cached listing. ok is false on a cache miss.
func (rc *RedisCache) GetWaitingTables(ctx context.Context) (tables []models.Table, ok bool, err error) {
	data, err := rc.client.Get(ctx, waitingTablesKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get cached tables: %w", err)
	}

	if err := json.Unmarshal(data, &tables); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal tables: %w", err)
	}
	return tables, true, nil
}

// InvalidateWaitingTables drops the cached listing
func (rc *RedisCache) InvalidateWaitingTables(ctx context.Context) error {
	return rc.client.Del(ctx, waitingTablesKey).Err()
}

// Game update fan-out

// PublishGameUpdate announces that gameID changed.
func (rc *RedisCache) PublishGameUpdate(ctx context.Context, gameID uuid.UUID) error {
	if err := rc.client.Publish(ctx, GameUpdatesChannel, gameID.String()).Err(); err != nil {
		return fmt.Errorf("failed to publish game update: %w", err)
	}
	return nil
}

// GameUpdated publishes the change and drops the table listing, which seat counts feed into.
func (rc *RedisCache) GameUpdated(ctx context.Context, gameID uuid.UUID) {
	if err := rc.PublishGameUpdate(ctx, gameID); err != nil {
		slog.Warn("Failed to publish game update", "game_id", gameID, "error", err)
	}
	if err := rc.InvalidateWaitingTables(ctx); err != nil {
		slog.Warn("Failed to invalidate table cache", "error", err)
	}
}

// SubscribeGameUpdates delivers game IDs published by any instance until ctx is done.
func (rc *RedisCache) SubscribeGameUpdates(ctx context.Context) (<-chan uuid.UUID, error) {
	sub := rc.client.Subscribe(ctx, GameUpdatesChannel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("failed to subscribe to game updates: %w", err)
	}

	out := make(chan uuid.UUID)
	go func() {
		defer close(out)
		defer sub.Close()

		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				gameID, err := uuid.Parse(msg.Payload)
				if err != nil {
					slog.Warn("Ignoring malformed game update", "payload", msg.Payload)
					continue
				}
				select {
				case out <- gameID:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// Ping checks the connection for health reporting.
func (rc *RedisCache) Ping(ctx context.Context) error {
	return rc.client.Ping(ctx).Err()
}
